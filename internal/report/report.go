// Package report renders variation results into human-readable summaries
// and structured export records.
package report

import (
	"fmt"

	"canasta/internal/series"
)

// RunReport is the structured record of one daily run, persisted alongside
// the textual summary.
type RunReport struct {
	Date      string               `json:"date"`
	Summary   series.SummaryRow    `json:"summary"`
	Divisions []series.DivisionRow `json:"divisions"`
	Products  []series.ProductRow  `json:"products"`
	// Degraded counts items that did not contribute fully to this run.
	Degraded DegradedCounts `json:"degraded"`
}

// DegradedCounts surfaces how many items were skipped or degraded.
type DegradedCounts struct {
	IgnoredLines  int `json:"ignored_lines"`
	AbsentPrices  int `json:"absent_prices"`
	NoComparisons int `json:"no_comparisons"`
}

// NewRunReport assembles the structured record for a run.
func NewRunReport(summary series.SummaryRow, divisions []series.DivisionRow, products []series.ProductRow, ignoredLines int) RunReport {
	counts := DegradedCounts{IgnoredLines: ignoredLines}
	for _, p := range products {
		if p.Price == nil {
			counts.AbsentPrices++
		} else if p.Variation == nil {
			counts.NoComparisons++
		}
	}
	return RunReport{
		Date:      summary.Date,
		Summary:   summary,
		Divisions: divisions,
		Products:  products,
		Degraded:  counts,
	}
}

// RenderDaily renders the daily run summary as ordered text lines. It is a
// pure function: the same snapshot set always produces byte-identical
// output.
func RenderDaily(r RunReport) []string {
	lines := []string{
		"=== VARIACIÓN DE PRECIOS (IPC) ===",
		fmt.Sprintf("Fecha: %s", r.Date),
		"",
		"Precios individuales:",
	}
	for _, p := range r.Products {
		if p.Price == nil {
			lines = append(lines, fmt.Sprintf("- %s: sin precio", p.Product))
			continue
		}
		line := fmt.Sprintf("- %s: $%.2f", p.Product, *p.Price)
		if p.Variation != nil && p.Percentage != nil {
			line += fmt.Sprintf(" (%+.2f, %+.2f%%)", *p.Variation, *p.Percentage)
		}
		lines = append(lines, line)
	}

	lines = append(lines, "", fmt.Sprintf("Total de la canasta: $%.2f", r.Summary.TotalBasket))
	if r.Summary.Variation != nil && r.Summary.Percentage != nil {
		lines = append(lines, fmt.Sprintf("Variación total: %+.2f (%+.2f%%)", *r.Summary.Variation, *r.Summary.Percentage))
	}
	if r.Summary.IPCGeneral != nil {
		lines = append(lines, fmt.Sprintf("IPC General: %+.2f%%", *r.Summary.IPCGeneral))
	}

	if len(r.Divisions) > 0 {
		lines = append(lines, "", "Por división:")
		for _, d := range r.Divisions {
			line := fmt.Sprintf("- %s: $%.2f", d.Division, d.Total)
			if d.Percentage != nil {
				line += fmt.Sprintf(" (%+.2f%%)", *d.Percentage)
			} else {
				line += " (sin datos comparables)"
			}
			if d.IPC != nil {
				line += fmt.Sprintf(" IPC %+.2f", *d.IPC)
			}
			lines = append(lines, line)
		}
	}

	lines = append(lines, "",
		fmt.Sprintf("Líneas ignoradas: %d", r.Degraded.IgnoredLines),
		fmt.Sprintf("Productos sin precio: %d", r.Degraded.AbsentPrices),
		fmt.Sprintf("Productos sin comparación: %d", r.Degraded.NoComparisons),
	)
	return lines
}

// RenderMonthToDate renders the month's basket snapshots with the change of
// each day against the first day of the month. Percentages here use two
// decimals, matching the historical month-to-date reports.
func RenderMonthToDate(rows []series.SummaryRow) []string {
	lines := []string{"=== RESUMEN PRO DE LA CANASTA ==="}
	if len(rows) == 0 {
		return append(lines, "Sin datos en el período.")
	}
	first := rows[0]
	lines = append(lines, fmt.Sprintf("Primer día: %s ($%.2f)", first.Date, first.TotalBasket), "")
	for _, row := range rows {
		lines = append(lines, fmt.Sprintf("Fecha: %s", row.Date),
			fmt.Sprintf("Total Canasta: $%.2f", row.TotalBasket))
		if row.Variation != nil && row.Percentage != nil {
			lines = append(lines, fmt.Sprintf("Variación diaria: %+.2f (%+.2f%%)", *row.Variation, *row.Percentage))
		}
		if first.TotalBasket != 0 {
			sinceFirst := (row.TotalBasket - first.TotalBasket) / first.TotalBasket * 100
			lines = append(lines, fmt.Sprintf("Variación desde primer día: %+.2f%%", sinceFirst))
		}
		if row.IPCGeneral != nil {
			lines = append(lines, fmt.Sprintf("IPC General: %+.2f%%", *row.IPCGeneral))
		}
		lines = append(lines, "")
	}
	return lines[:len(lines)-1]
}
