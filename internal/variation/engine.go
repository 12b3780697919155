// Package variation computes price variations at daily, weekly and monthly
// granularities and rolls them up into division- and basket-level weighted
// indices.
package variation

import (
	"sort"
	"time"

	"canasta/internal/basket"
	"canasta/internal/ipc"
	"canasta/internal/series"
)

// Observation is one fetched price for a basket product in the current run.
// Price is nil when the source reported no price.
type Observation struct {
	Product basket.Product
	Price   *float64
}

// Engine derives variation rows from the time-series store and the division
// registry. It never writes; persistence is the caller's concern.
type Engine struct {
	reg   *ipc.Registry
	store *series.Store
	qty   map[string]float64
}

// NewEngine builds an engine over a store. Quantities are taken from the
// basket definition; products absent from it weigh in at 1.0.
func NewEngine(reg *ipc.Registry, store *series.Store, products []basket.Product) *Engine {
	qty := make(map[string]float64, len(products))
	for _, p := range products {
		qty[p.Name] = p.Quantity
	}
	return &Engine{reg: reg, store: store, qty: qty}
}

func (e *Engine) quantityOf(product string) float64 {
	if q, ok := e.qty[product]; ok {
		return q
	}
	return 1.0
}

// DailyResult bundles the rows produced by one daily run.
type DailyResult struct {
	Summary   series.SummaryRow
	Divisions []series.DivisionRow
	Products  []series.ProductRow
}

// Daily computes the current run's product rows, division rollups and the
// basket summary against the store's latest prior rows.
func (e *Engine) Daily(now time.Time, observations []Observation) DailyResult {
	ts := now.Format(series.TimeLayout)

	products := make([]series.ProductRow, 0, len(observations))
	type compared struct {
		today, yesterday float64 // unit prices
		quantity         float64
	}
	byDivision := make(map[string][]compared)
	totalsByDivision := make(map[string]float64)
	basketTotal := 0.0

	for _, obs := range observations {
		row := series.ProductRow{
			Date:     ts,
			Product:  obs.Product.Name,
			Division: obs.Product.Division,
			Price:    obs.Price,
		}
		if obs.Price != nil {
			basketTotal += obs.Product.LineTotal(*obs.Price)
			totalsByDivision[obs.Product.Division] += obs.Product.LineTotal(*obs.Price)

			prev, ok := e.store.LatestProductRowBefore(obs.Product.Name, ts)
			if ok && prev.Price != nil && *prev.Price != 0 {
				v := *obs.Price - *prev.Price
				row.Variation = series.Float(v)
				row.Percentage = series.Float(v / *prev.Price * 100)
				byDivision[obs.Product.Division] = append(byDivision[obs.Product.Division], compared{
					today:     *obs.Price,
					yesterday: *prev.Price,
					quantity:  obs.Product.Quantity,
				})
			}
		}
		products = append(products, row)
	}

	divisionNames := make([]string, 0, len(totalsByDivision))
	for div := range totalsByDivision {
		divisionNames = append(divisionNames, div)
	}
	sort.Strings(divisionNames)

	general := 0.0
	divisions := make([]series.DivisionRow, 0, len(divisionNames))
	for _, div := range divisionNames {
		row := series.DivisionRow{Date: ts, Division: div, Total: totalsByDivision[div]}

		var today, yesterday float64
		for _, c := range byDivision[div] {
			today += c.today * c.quantity
			yesterday += c.yesterday * c.quantity
		}
		if len(byDivision[div]) > 0 && yesterday != 0 {
			v := today - yesterday
			pct := v / yesterday * 100
			row.Variation = series.Float(v)
			row.Percentage = series.Float(pct)
			row.IPC = series.Float(pct * e.reg.WeightOf(div))
			general += pct * e.reg.WeightOf(div)
		}
		// Divisions with no comparable products keep nil columns
		// ("insufficient data") yet still contribute a numeric 0 to the
		// general index above. Historical exports depend on both sides of
		// this asymmetry; do not unify.
		divisions = append(divisions, row)
	}

	summary := series.SummaryRow{Date: ts, TotalBasket: basketTotal}
	if prev, ok := e.store.LatestSummaryRow(); ok {
		if prev.TotalBasket != 0 {
			v := basketTotal - prev.TotalBasket
			summary.Variation = series.Float(v)
			summary.Percentage = series.Float(v / prev.TotalBasket * 100)
		}
		// The general index is defined once there is any history, even when
		// every division contributed 0. Weights are never renormalized over
		// the divisions that had data.
		summary.IPCGeneral = series.Float(general)
	}
	return DailyResult{Summary: summary, Divisions: divisions, Products: products}
}
