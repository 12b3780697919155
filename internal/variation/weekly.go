package variation

import (
	"fmt"
	"sort"

	"github.com/zeromicro/go-zero/core/logx"

	"canasta/internal/series"
)

// WeeklyVariation compares a product's mean price between consecutive ISO
// weeks.
type WeeklyVariation struct {
	Product    string
	Year       int // ISO year of the current week
	Week       int // ISO week number
	PrevMean   float64
	CurrMean   float64
	Variation  float64
	Percentage float64
}

type weekKey struct {
	year, week int
}

// Weekly groups the period's observations by ISO (year, week), averages the
// prices per group and reports consecutive-week differences per product.
// A zero previous mean yields percentage 0 rather than an undefined value;
// this mirrors the historical weekly exports.
func (e *Engine) Weekly() ([]WeeklyVariation, error) {
	type acc struct {
		sum float64
		n   int
	}
	means := make(map[string]map[weekKey]*acc)

	for _, row := range e.store.ProductRows() {
		if row.Price == nil {
			continue
		}
		t, err := series.ParseTime(row.Date)
		if err != nil {
			return nil, fmt.Errorf("weekly: bad timestamp %q: %w", row.Date, err)
		}
		year, week := t.ISOWeek()
		if means[row.Product] == nil {
			means[row.Product] = make(map[weekKey]*acc)
		}
		key := weekKey{year, week}
		if means[row.Product][key] == nil {
			means[row.Product][key] = &acc{}
		}
		means[row.Product][key].sum += *row.Price
		means[row.Product][key].n++
	}

	products := make([]string, 0, len(means))
	for p := range means {
		products = append(products, p)
	}
	sort.Strings(products)

	var out []WeeklyVariation
	for _, product := range products {
		weeks := make([]weekKey, 0, len(means[product]))
		for k := range means[product] {
			weeks = append(weeks, k)
		}
		sort.Slice(weeks, func(i, j int) bool {
			if weeks[i].year != weeks[j].year {
				return weeks[i].year < weeks[j].year
			}
			return weeks[i].week < weeks[j].week
		})
		for i := 1; i < len(weeks); i++ {
			prev := means[product][weeks[i-1]]
			curr := means[product][weeks[i]]
			prevMean := prev.sum / float64(prev.n)
			currMean := curr.sum / float64(curr.n)
			v := currMean - prevMean
			pct := 0.0
			if prevMean != 0 {
				pct = v / prevMean * 100
			}
			out = append(out, WeeklyVariation{
				Product:    product,
				Year:       weeks[i].year,
				Week:       weeks[i].week,
				PrevMean:   prevMean,
				CurrMean:   currMean,
				Variation:  v,
				Percentage: pct,
			})
		}
	}
	if len(out) == 0 {
		logx.Info("weekly variation: fewer than two weeks of data in the period")
	}
	return out, nil
}
