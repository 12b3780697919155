package variation

import (
	"fmt"
	"sort"
	"time"

	"canasta/internal/series"
)

// MonthlyIntraVariation compares a product's first and last observation
// within the current calendar month. Restricted to the basic-food
// divisions.
type MonthlyIntraVariation struct {
	Product    string
	Division   string
	Year       int
	Month      time.Month
	FirstPrice float64
	LastPrice  float64
	Variation  float64
	Percentage float64
}

// MonthlyInterVariation compares a product's mean price across the current
// month against the prior month's mean. Restricted to the basic-food
// divisions.
type MonthlyInterVariation struct {
	Product    string
	Division   string
	Year       int
	Month      time.Month
	PrevMean   float64
	CurrMean   float64
	Variation  float64
	Percentage float64
}

// MonthlyRollup is a cost-weighted (quantity-scaled) first-vs-last rollup
// over a division or the whole food basket.
type MonthlyRollup struct {
	Division   string // empty for the basket-level rollup
	FirstValue float64
	LastValue  float64
	Variation  float64
	Percentage float64
}

// MonthlyIntra reports first-vs-last variation for every food-basket
// product with at least two priced observations in now's calendar month.
// Products with a single observation are excluded.
func (e *Engine) MonthlyIntra(now time.Time) ([]MonthlyIntraVariation, error) {
	byProduct, division, err := e.monthObservations(e.store.ProductRows(), now.Year(), now.Month())
	if err != nil {
		return nil, err
	}

	var out []MonthlyIntraVariation
	for _, product := range sortedKeys(byProduct) {
		prices := byProduct[product]
		if len(prices) < 2 {
			continue
		}
		first, last := prices[0], prices[len(prices)-1]
		v := last - first
		pct := 0.0
		if first != 0 {
			pct = v / first * 100
		}
		out = append(out, MonthlyIntraVariation{
			Product:    product,
			Division:   division[product],
			Year:       now.Year(),
			Month:      now.Month(),
			FirstPrice: first,
			LastPrice:  last,
			Variation:  v,
			Percentage: pct,
		})
	}
	return out, nil
}

// MonthlyIntraRollups aggregates intra-month variations into per-division
// and basket-level cost-weighted comparisons. A zero first-value denominator
// yields percentage 0.0.
func (e *Engine) MonthlyIntraRollups(items []MonthlyIntraVariation) ([]MonthlyRollup, MonthlyRollup) {
	firstByDiv := make(map[string]float64)
	lastByDiv := make(map[string]float64)
	for _, it := range items {
		q := e.quantityOf(it.Product)
		firstByDiv[it.Division] += it.FirstPrice * q
		lastByDiv[it.Division] += it.LastPrice * q
	}

	var divisions []MonthlyRollup
	var basketFirst, basketLast float64
	for _, div := range sortedKeys(firstByDiv) {
		divisions = append(divisions, makeRollup(div, firstByDiv[div], lastByDiv[div]))
		basketFirst += firstByDiv[div]
		basketLast += lastByDiv[div]
	}
	return divisions, makeRollup("", basketFirst, basketLast)
}

// MonthlyInter compares each food-basket product's mean price of now's
// month against the prior calendar month. Only products with data in both
// months are included; prevRows supplies the sealed prior period's
// observations.
func (e *Engine) MonthlyInter(now time.Time, prevRows []series.ProductRow) ([]MonthlyInterVariation, error) {
	prevMonth := now.AddDate(0, -1, -now.Day()+1) // first day of prior month

	currByProduct, division, err := e.monthObservations(e.store.ProductRows(), now.Year(), now.Month())
	if err != nil {
		return nil, err
	}
	prevByProduct, _, err := e.monthObservations(prevRows, prevMonth.Year(), prevMonth.Month())
	if err != nil {
		return nil, err
	}

	var out []MonthlyInterVariation
	for _, product := range sortedKeys(currByProduct) {
		prev, ok := prevByProduct[product]
		if !ok {
			continue
		}
		prevMean := mean(prev)
		currMean := mean(currByProduct[product])
		v := currMean - prevMean
		pct := 0.0
		if prevMean != 0 {
			pct = v / prevMean * 100
		}
		out = append(out, MonthlyInterVariation{
			Product:    product,
			Division:   division[product],
			Year:       now.Year(),
			Month:      now.Month(),
			PrevMean:   prevMean,
			CurrMean:   currMean,
			Variation:  v,
			Percentage: pct,
		})
	}
	return out, nil
}

// monthObservations collects chronologically ordered priced observations of
// food-basket products for one calendar month, keyed by product.
func (e *Engine) monthObservations(rows []series.ProductRow, year int, month time.Month) (map[string][]float64, map[string]string, error) {
	type dated struct {
		ts    string
		price float64
	}
	collected := make(map[string][]dated)
	division := make(map[string]string)

	for _, row := range rows {
		if row.Price == nil || !e.reg.IsFood(row.Division) {
			continue
		}
		t, err := series.ParseTime(row.Date)
		if err != nil {
			return nil, nil, fmt.Errorf("monthly: bad timestamp %q: %w", row.Date, err)
		}
		if t.Year() != year || t.Month() != month {
			continue
		}
		collected[row.Product] = append(collected[row.Product], dated{ts: row.Date, price: *row.Price})
		division[row.Product] = row.Division
	}

	out := make(map[string][]float64, len(collected))
	for product, obs := range collected {
		sort.Slice(obs, func(i, j int) bool { return obs[i].ts < obs[j].ts })
		prices := make([]float64, len(obs))
		for i, o := range obs {
			prices[i] = o.price
		}
		out[product] = prices
	}
	return out, division, nil
}

func makeRollup(division string, first, last float64) MonthlyRollup {
	v := last - first
	pct := 0.0
	if first != 0 {
		pct = v / first * 100
	}
	return MonthlyRollup{Division: division, FirstValue: first, LastValue: last, Variation: v, Percentage: pct}
}

func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
