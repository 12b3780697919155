package report

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"canasta/internal/variation"
)

// Writer persists run reports and variation exports under a directory,
// naming files by run timestamp or by period.
type Writer struct {
	dir string
}

// NewWriter builds a report writer rooted at dir, creating it if needed.
func NewWriter(dir string) (*Writer, error) {
	if dir == "" {
		dir = "reports"
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create report dir: %w", err)
	}
	return &Writer{dir: dir}, nil
}

// WriteDaily persists the textual summary and the structured JSON record
// for one run. Returns the text report path.
func (w *Writer) WriteDaily(r RunReport, at time.Time) (string, error) {
	stamp := at.Format("20060102_1504")

	txtPath := filepath.Join(w.dir, "canasta_"+stamp+".txt")
	body := strings.Join(RenderDaily(r), "\n") + "\n"
	if err := os.WriteFile(txtPath, []byte(body), 0o644); err != nil {
		return "", fmt.Errorf("write report %s: %w", txtPath, err)
	}

	jsonPath := filepath.Join(w.dir, "canasta_"+stamp+".json")
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal run report: %w", err)
	}
	if err := os.WriteFile(jsonPath, data, 0o644); err != nil {
		return "", fmt.Errorf("write report %s: %w", jsonPath, err)
	}
	return txtPath, nil
}

// WriteMonthToDate persists the month-to-date summary for a period.
func (w *Writer) WriteMonthToDate(lines []string, period string) (string, error) {
	path := filepath.Join(w.dir, "resumen_pro_"+period+".txt")
	body := strings.Join(lines, "\n") + "\n"
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		return "", fmt.Errorf("write report %s: %w", path, err)
	}
	return path, nil
}

// WriteWeeklyCSV exports the weekly variation table for a period.
func (w *Writer) WriteWeeklyCSV(items []variation.WeeklyVariation, period string) (string, error) {
	path := filepath.Join(w.dir, "variacion_semanal_"+period+".csv")
	header := []string{"Producto", "Semana_Actual", "Año_Actual", "Precio_Promedio_Anterior", "Precio_Promedio_Actual", "Variacion", "Porcentaje"}
	return path, writeCSV(path, header, len(items), func(i int) []string {
		it := items[i]
		return []string{
			it.Product,
			strconv.Itoa(it.Week),
			strconv.Itoa(it.Year),
			formatFloat(it.PrevMean),
			formatFloat(it.CurrMean),
			formatFloat(it.Variation),
			formatFloat(it.Percentage),
		}
	})
}

// WriteMonthlyIntraCSV exports the intra-month (first vs last observation)
// variation table for a period.
func (w *Writer) WriteMonthlyIntraCSV(items []variation.MonthlyIntraVariation, period string) (string, error) {
	path := filepath.Join(w.dir, "variacion_mensual_"+period+".csv")
	header := []string{"Producto", "Division", "Mes_Actual", "Año_Actual", "Precio_Primer_Dia", "Precio_Ultimo_Dia", "Variacion", "Porcentaje"}
	return path, writeCSV(path, header, len(items), func(i int) []string {
		it := items[i]
		return []string{
			it.Product,
			it.Division,
			strconv.Itoa(int(it.Month)),
			strconv.Itoa(it.Year),
			formatFloat(it.FirstPrice),
			formatFloat(it.LastPrice),
			formatFloat(it.Variation),
			formatFloat(it.Percentage),
		}
	})
}

// WriteMonthlyInterCSV exports the month-over-month mean comparison table
// for a period.
func (w *Writer) WriteMonthlyInterCSV(items []variation.MonthlyInterVariation, period string) (string, error) {
	path := filepath.Join(w.dir, "variacion_intermensual_"+period+".csv")
	header := []string{"Producto", "Division", "Mes_Actual", "Año_Actual", "Precio_Promedio_Anterior", "Precio_Promedio_Actual", "Variacion", "Porcentaje"}
	return path, writeCSV(path, header, len(items), func(i int) []string {
		it := items[i]
		return []string{
			it.Product,
			it.Division,
			strconv.Itoa(int(it.Month)),
			strconv.Itoa(it.Year),
			formatFloat(it.PrevMean),
			formatFloat(it.CurrMean),
			formatFloat(it.Variation),
			formatFloat(it.Percentage),
		}
	})
}

func writeCSV(path string, header []string, n int, record func(int) []string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()

	cw := csv.NewWriter(f)
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	for i := 0; i < n; i++ {
		if err := cw.Write(record(i)); err != nil {
			return fmt.Errorf("write %s: %w", path, err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("flush %s: %w", path, err)
	}
	return nil
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
