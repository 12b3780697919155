package confkit

import (
	"os"
	"path/filepath"
	"sync"

	"github.com/joho/godotenv"
)

var dotenvOnce sync.Once

// LoadDotenvOnce loads environment variables from a .env file next to the
// project root. The first call wins; later calls are no-ops. Variables
// already present in the environment are never overwritten. Set NO_DOTENV=1
// to skip, or ENV_FILE to point at an explicit file.
func LoadDotenvOnce() {
	dotenvOnce.Do(loadDotenv)
}

func loadDotenv() {
	if os.Getenv("NO_DOTENV") == "1" {
		return
	}
	if envFile := os.Getenv("ENV_FILE"); envFile != "" {
		_ = godotenv.Load(envFile)
		return
	}
	if root, err := ProjectRoot(); err == nil {
		_ = godotenv.Load(filepath.Join(root, ".env"))
		return
	}
	_ = godotenv.Load(".env")
}
