package confkit

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/zeromicro/go-zero/core/conf"
)

// LoadFile loads a configuration file into the provided type T using
// go-zero's conf loader with environment variable substitution enabled.
func LoadFile[T any](path string) (*T, error) {
	var cfg T
	if err := conf.Load(path, &cfg, conf.UseEnv()); err != nil {
		return nil, fmt.Errorf("load config %s: %w", path, err)
	}
	return &cfg, nil
}

// ResolvePath resolves a file path relative to a base directory after
// expanding environment variables. Absolute paths are returned as-is.
func ResolvePath(base, file string) string {
	file = os.ExpandEnv(file)
	if filepath.IsAbs(file) {
		return file
	}
	return filepath.Join(base, file)
}

// ProjectRoot walks upwards from the working directory until it finds a
// directory containing go.mod or .git. Falls back to the working directory
// itself when no marker is found.
func ProjectRoot() (string, error) {
	wd, err := os.Getwd()
	if err != nil {
		return ".", fmt.Errorf("getwd: %w", err)
	}
	dir := wd
	for i := 0; i < 8; i++ {
		if fileExists(filepath.Join(dir, "go.mod")) || fileExists(filepath.Join(dir, ".git")) {
			return dir, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return wd, nil
}

func fileExists(p string) bool {
	if p == "" {
		return false
	}
	_, err := os.Stat(p)
	return err == nil
}
