package report

import (
	"fmt"
	"path/filepath"

	"github.com/xuri/excelize/v2"

	"canasta/internal/variation"
)

// WriteWorkbook exports the weekly and both monthly variation tables into
// one spreadsheet for the period, one sheet per variation kind.
func (w *Writer) WriteWorkbook(weekly []variation.WeeklyVariation, intra []variation.MonthlyIntraVariation, inter []variation.MonthlyInterVariation, period string) (string, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := writeSheet(f, "Semanal", []string{"Producto", "Semana", "Año", "Promedio anterior", "Promedio actual", "Variación", "Porcentaje"}, len(weekly), func(i int) []any {
		it := weekly[i]
		return []any{it.Product, it.Week, it.Year, it.PrevMean, it.CurrMean, it.Variation, it.Percentage}
	}); err != nil {
		return "", err
	}
	if err := writeSheet(f, "Mensual", []string{"Producto", "División", "Mes", "Año", "Primer precio", "Último precio", "Variación", "Porcentaje"}, len(intra), func(i int) []any {
		it := intra[i]
		return []any{it.Product, it.Division, int(it.Month), it.Year, it.FirstPrice, it.LastPrice, it.Variation, it.Percentage}
	}); err != nil {
		return "", err
	}
	if err := writeSheet(f, "Intermensual", []string{"Producto", "División", "Mes", "Año", "Promedio anterior", "Promedio actual", "Variación", "Porcentaje"}, len(inter), func(i int) []any {
		it := inter[i]
		return []any{it.Product, it.Division, int(it.Month), it.Year, it.PrevMean, it.CurrMean, it.Variation, it.Percentage}
	}); err != nil {
		return "", err
	}

	// Drop the default sheet left by excelize.
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return "", fmt.Errorf("workbook: %w", err)
	}

	path := filepath.Join(w.dir, "variaciones_"+period+".xlsx")
	if err := f.SaveAs(path); err != nil {
		return "", fmt.Errorf("save workbook %s: %w", path, err)
	}
	return path, nil
}

func writeSheet(f *excelize.File, name string, header []string, n int, row func(int) []any) error {
	if _, err := f.NewSheet(name); err != nil {
		return fmt.Errorf("sheet %s: %w", name, err)
	}
	for col, title := range header {
		cell, err := excelize.CoordinatesToCellName(col+1, 1)
		if err != nil {
			return fmt.Errorf("sheet %s: %w", name, err)
		}
		if err := f.SetCellValue(name, cell, title); err != nil {
			return fmt.Errorf("sheet %s: %w", name, err)
		}
	}
	for i := 0; i < n; i++ {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return fmt.Errorf("sheet %s: %w", name, err)
		}
		values := row(i)
		if err := f.SetSheetRow(name, cell, &values); err != nil {
			return fmt.Errorf("sheet %s row %d: %w", name, i+2, err)
		}
	}
	return nil
}
