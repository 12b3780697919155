// Package series persists the month-keyed price history tables: one basket
// summary, one per-division snapshot and one per-product observation table
// per calendar month.
package series

import (
	"fmt"
	"strconv"
	"time"
)

// TimeLayout is the canonical timestamp format of every table row. It is
// lexicographically monotonic, which is the ordering contract of the store:
// rows sort chronologically by plain string comparison.
const TimeLayout = "2006-01-02 15:04"

// PeriodLayout names one tracking period (a calendar month).
const PeriodLayout = "200601"

// PeriodOf returns the tracking period a timestamp falls into.
func PeriodOf(t time.Time) string {
	return t.Format(PeriodLayout)
}

// ParseTime parses a store timestamp back into a time.Time.
func ParseTime(s string) (time.Time, error) {
	return time.Parse(TimeLayout, s)
}

// SummaryRow is one basket-level snapshot. Nullable columns are nil when
// there was no prior snapshot to compare against.
type SummaryRow struct {
	Date        string
	TotalBasket float64
	Variation   *float64
	Percentage  *float64
	IPCGeneral  *float64
}

// DivisionRow is one per-division snapshot: the summed basket value of the
// division's products plus its variation and weighted IPC contribution.
type DivisionRow struct {
	Date       string
	Division   string
	Total      float64
	Variation  *float64
	Percentage *float64
	IPC        *float64
}

// ProductRow is one per-product price observation. Price is nil when the
// fetch came back absent; the row is still recorded.
type ProductRow struct {
	Date       string
	Product    string
	Division   string
	Price      *float64
	Variation  *float64
	Percentage *float64
}

// Historical column headers, kept byte-for-byte so the files remain
// continuations of the original exports.
var (
	summaryHeader  = []string{"Fecha", "Total_Canasta", "Variacion_Total", "Porcentaje_Total", "IPC_General"}
	divisionHeader = []string{"Fecha", "Division", "Total", "Variacion", "Porcentaje", "IPC"}
	productHeader  = []string{"Fecha", "Producto", "Division", "Precio", "Variacion", "Porcentaje"}
)

func (r SummaryRow) record() []string {
	return []string{r.Date, formatFloat(r.TotalBasket), formatNullable(r.Variation), formatNullable(r.Percentage), formatNullable(r.IPCGeneral)}
}

func (r DivisionRow) record() []string {
	return []string{r.Date, r.Division, formatFloat(r.Total), formatNullable(r.Variation), formatNullable(r.Percentage), formatNullable(r.IPC)}
}

func (r ProductRow) record() []string {
	return []string{r.Date, r.Product, r.Division, formatNullable(r.Price), formatNullable(r.Variation), formatNullable(r.Percentage)}
}

func summaryFromRecord(rec []string) (SummaryRow, error) {
	if len(rec) != len(summaryHeader) {
		return SummaryRow{}, fmt.Errorf("summary row has %d columns, expected %d", len(rec), len(summaryHeader))
	}
	total, err := parseFloat(rec[1])
	if err != nil {
		return SummaryRow{}, err
	}
	row := SummaryRow{Date: rec[0], TotalBasket: total}
	if row.Variation, err = parseNullable(rec[2]); err != nil {
		return SummaryRow{}, err
	}
	if row.Percentage, err = parseNullable(rec[3]); err != nil {
		return SummaryRow{}, err
	}
	if row.IPCGeneral, err = parseNullable(rec[4]); err != nil {
		return SummaryRow{}, err
	}
	return row, nil
}

func divisionFromRecord(rec []string) (DivisionRow, error) {
	if len(rec) != len(divisionHeader) {
		return DivisionRow{}, fmt.Errorf("division row has %d columns, expected %d", len(rec), len(divisionHeader))
	}
	total, err := parseFloat(rec[2])
	if err != nil {
		return DivisionRow{}, err
	}
	row := DivisionRow{Date: rec[0], Division: rec[1], Total: total}
	if row.Variation, err = parseNullable(rec[3]); err != nil {
		return DivisionRow{}, err
	}
	if row.Percentage, err = parseNullable(rec[4]); err != nil {
		return DivisionRow{}, err
	}
	if row.IPC, err = parseNullable(rec[5]); err != nil {
		return DivisionRow{}, err
	}
	return row, nil
}

func productFromRecord(rec []string) (ProductRow, error) {
	if len(rec) != len(productHeader) {
		return ProductRow{}, fmt.Errorf("product row has %d columns, expected %d", len(rec), len(productHeader))
	}
	row := ProductRow{Date: rec[0], Product: rec[1], Division: rec[2]}
	var err error
	if row.Price, err = parseNullable(rec[3]); err != nil {
		return ProductRow{}, err
	}
	if row.Variation, err = parseNullable(rec[4]); err != nil {
		return ProductRow{}, err
	}
	if row.Percentage, err = parseNullable(rec[5]); err != nil {
		return ProductRow{}, err
	}
	return row, nil
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func formatNullable(v *float64) string {
	if v == nil {
		return ""
	}
	return formatFloat(*v)
}

func parseFloat(s string) (float64, error) {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("numeric column %q: %w", s, err)
	}
	return v, nil
}

func parseNullable(s string) (*float64, error) {
	if s == "" {
		return nil, nil
	}
	v, err := parseFloat(s)
	if err != nil {
		return nil, err
	}
	return &v, nil
}

// Float is a convenience for building nullable columns.
func Float(v float64) *float64 { return &v }
