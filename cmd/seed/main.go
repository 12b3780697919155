// Command seed populates the current tracking period with synthetic prior
// observations, so the variation engine has history to compare against
// before any real runs happened.
package main

import (
	"flag"
	"log"
	"sort"
	"time"

	"canasta/internal/basket"
	"canasta/internal/config"
	"canasta/internal/ipc"
	"canasta/internal/series"
)

var (
	configFile = flag.String("f", "etc/canasta.yaml", "the config file")
	days       = flag.Int("days", 1, "number of prior days to generate")
	drift      = flag.Float64("drift", 1.0, "daily price drift in percent")
)

func main() {
	flag.Parse()
	log.SetFlags(log.Ldate | log.Ltime)

	cfg, err := config.Load(*configFile)
	if err != nil {
		log.Printf("[seed] Warning: failed to load config: %v, using defaults", err)
		cfg = config.Default()
	}

	registry := ipc.NewRegistry(ipc.WithWeights(cfg.Weights))
	bkt, err := basket.Load(cfg.BasketFile, registry)
	if err != nil {
		log.Fatalf("[seed] Cannot load basket definition: %v", err)
	}

	now := time.Now()
	store, err := series.Open(cfg.DataDir, series.PeriodOf(now))
	if err != nil {
		log.Fatalf("[seed] Cannot open series store: %v", err)
	}
	if len(store.ProductRows()) > 0 {
		log.Fatalf("[seed] Period %s already has data; refusing to mix synthetic rows in", store.Period())
	}

	for d := *days; d >= 1; d-- {
		day := now.AddDate(0, 0, -d)
		ts := time.Date(day.Year(), day.Month(), day.Day(), 9, 0, 0, 0, day.Location()).Format(series.TimeLayout)
		step := float64(*days - d)

		products := make([]series.ProductRow, 0, len(bkt.Products))
		totals := make(map[string]float64)
		basketTotal := 0.0
		for i, p := range bkt.Products {
			price := basePrice(i) * (1 + *drift/100*step)
			products = append(products, series.ProductRow{
				Date:     ts,
				Product:  p.Name,
				Division: p.Division,
				Price:    series.Float(price),
			})
			totals[p.Division] += p.LineTotal(price)
			basketTotal += p.LineTotal(price)
		}

		divisionNames := make([]string, 0, len(totals))
		for div := range totals {
			divisionNames = append(divisionNames, div)
		}
		sort.Strings(divisionNames)
		divisions := make([]series.DivisionRow, 0, len(divisionNames))
		for _, div := range divisionNames {
			divisions = append(divisions, series.DivisionRow{Date: ts, Division: div, Total: totals[div]})
		}

		summary := series.SummaryRow{Date: ts, TotalBasket: basketTotal}
		if err := store.AppendRun(summary, divisions, products); err != nil {
			log.Fatalf("[seed] Cannot append day %s: %v", ts, err)
		}
		log.Printf("[seed] %s: %d products, basket total $%.2f", ts, len(products), basketTotal)
	}
	log.Printf("[seed] Done: %d synthetic days in period %s", *days, store.Period())
}

// basePrice spreads products over a plausible retail price range.
func basePrice(i int) float64 {
	return 450 + float64(i%10)*137
}
