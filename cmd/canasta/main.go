package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"canasta/internal/basket"
	"canasta/internal/config"
	"canasta/internal/fetch"
	"canasta/internal/ipc"
	"canasta/internal/report"
	"canasta/internal/repo"
	"canasta/internal/series"
	"canasta/internal/variation"
	"canasta/pkg/confkit"
)

var (
	configFile = flag.String("f", "etc/canasta.yaml", "the config file")
	dryRun     = flag.Bool("dry-run", false, "fetch and compute but do not persist")
)

func main() {
	flag.Parse()
	log.SetFlags(log.Ldate | log.Ltime)
	log.Println("[main] Starting basket run...")

	cfg, err := config.Load(*configFile)
	if err != nil {
		log.Printf("[main] Warning: failed to load config: %v", err)
		log.Printf("[main] Using default configuration")
		cfg = config.Default()
	}

	root, err := confkit.ProjectRoot()
	if err != nil {
		log.Printf("[main] Warning: %v", err)
	}
	dataDir := confkit.ResolvePath(root, cfg.DataDir)
	reportDir := confkit.ResolvePath(root, cfg.ReportDir)

	registry := ipc.NewRegistry(ipc.WithWeights(cfg.Weights))

	bkt, err := basket.Load(confkit.ResolvePath(root, cfg.BasketFile), registry)
	if err != nil {
		log.Fatalf("[main] Cannot load basket definition: %v", err)
	}
	log.Printf("[main] Basket: %d products, %d malformed lines skipped", len(bkt.Products), len(bkt.Ignored))

	now := time.Now()
	period := series.PeriodOf(now)
	store, err := series.Open(dataDir, period)
	if err != nil {
		log.Fatalf("[main] Cannot open series store: %v", err)
	}
	if len(store.ProductRows()) == 0 && !*dryRun {
		// First run of the period: materialize the fresh header-only file
		// set. Prior months stay sealed under their own names.
		if err := store.StartNewMonth(period); err != nil {
			log.Fatalf("[main] Cannot start period %s: %v", period, err)
		}
		log.Printf("[main] Started new tracking period %s", period)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	source := fetch.NewClient(
		fetch.WithBaseURL(cfg.Fetch.BaseURL),
		fetch.WithTimeout(cfg.FetchTimeout()),
	)
	observations := fetchAll(ctx, source, bkt.Products, cfg.FetchDelay())

	engine := variation.NewEngine(registry, store, bkt.Products)
	daily := engine.Daily(now, observations)

	runReport := report.NewRunReport(daily.Summary, daily.Divisions, daily.Products, len(bkt.Ignored))
	for _, line := range report.RenderDaily(runReport) {
		log.Printf("[report] %s", line)
	}

	if *dryRun {
		log.Println("[main] Dry run: nothing persisted")
		return
	}

	if err := store.AppendRun(daily.Summary, daily.Divisions, daily.Products); err != nil {
		log.Fatalf("[main] Cannot append run: %v", err)
	}

	writer, err := report.NewWriter(reportDir)
	if err != nil {
		log.Fatalf("[main] Cannot open report dir: %v", err)
	}
	if path, err := writer.WriteDaily(runReport, now); err != nil {
		log.Printf("[report] [ERROR] daily report: %v", err)
	} else {
		log.Printf("[report] Daily report written to %s", path)
	}
	if _, err := writer.WriteMonthToDate(report.RenderMonthToDate(store.SummaryRows()), period); err != nil {
		log.Printf("[report] [ERROR] month-to-date report: %v", err)
	}

	exportVariations(engine, writer, dataDir, now, period)

	mirrorRun(ctx, cfg, daily)

	log.Printf("[main] Run complete: %d products, %d without price, %d lines ignored",
		len(daily.Products), runReport.Degraded.AbsentPrices, runReport.Degraded.IgnoredLines)
}

// fetchAll walks the basket one product at a time with a courtesy delay
// between requests. A failed fetch records an absent price and the run
// proceeds; an interrupt stops fetching and leaves the rest absent.
func fetchAll(ctx context.Context, source fetch.PriceSource, products []basket.Product, delay time.Duration) []variation.Observation {
	observations := make([]variation.Observation, 0, len(products))
	for i, p := range products {
		if ctx.Err() != nil {
			log.Printf("[fetch] Interrupted, recording %s as absent", p.Name)
			observations = append(observations, variation.Observation{Product: p})
			continue
		}
		if i > 0 && delay > 0 {
			select {
			case <-ctx.Done():
			case <-time.After(delay):
			}
		}
		price, ok := source.FetchPrice(ctx, p.Ref)
		if !ok {
			log.Printf("[fetch] %s: no price", p.Name)
			observations = append(observations, variation.Observation{Product: p})
			continue
		}
		log.Printf("[fetch] %s: $%.2f", p.Name, price)
		observations = append(observations, variation.Observation{Product: p, Price: series.Float(price)})
	}
	return observations
}

func exportVariations(engine *variation.Engine, writer *report.Writer, dataDir string, now time.Time, period string) {
	weekly, err := engine.Weekly()
	if err != nil {
		log.Printf("[export] [ERROR] weekly variation: %v", err)
	} else if _, err := writer.WriteWeeklyCSV(weekly, period); err != nil {
		log.Printf("[export] [ERROR] weekly csv: %v", err)
	}

	intra, err := engine.MonthlyIntra(now)
	if err != nil {
		log.Printf("[export] [ERROR] monthly variation: %v", err)
	} else {
		if _, err := writer.WriteMonthlyIntraCSV(intra, period); err != nil {
			log.Printf("[export] [ERROR] monthly csv: %v", err)
		}
		divisions, total := engine.MonthlyIntraRollups(intra)
		for _, r := range divisions {
			log.Printf("[export] %s: %+.2f%% en el mes", r.Division, r.Percentage)
		}
		if len(divisions) > 0 {
			log.Printf("[export] Canasta alimentaria: %+.2f%% en el mes", total.Percentage)
		}
	}

	var inter []variation.MonthlyInterVariation
	prevPeriod := series.PeriodOf(now.AddDate(0, -1, -now.Day()+1))
	prevStore, err := series.Open(dataDir, prevPeriod)
	if err != nil {
		log.Printf("[export] [ERROR] prior period %s: %v", prevPeriod, err)
	} else {
		inter, err = engine.MonthlyInter(now, prevStore.ProductRows())
		if err != nil {
			log.Printf("[export] [ERROR] inter-month variation: %v", err)
		} else if _, err := writer.WriteMonthlyInterCSV(inter, period); err != nil {
			log.Printf("[export] [ERROR] inter-month csv: %v", err)
		}
	}

	if path, err := writer.WriteWorkbook(weekly, intra, inter, period); err != nil {
		log.Printf("[export] [ERROR] workbook: %v", err)
	} else {
		log.Printf("[export] Variation workbook written to %s", path)
	}
}

func mirrorRun(ctx context.Context, cfg *config.Config, daily variation.DailyResult) {
	mirror := repo.NewMirror(cfg.Postgres)
	if mirror == nil {
		return
	}
	if err := mirror.EnsureSchema(ctx); err != nil {
		log.Printf("[mirror] [ERROR] %v", err)
		return
	}
	if err := mirror.RecordRun(ctx, daily.Summary, daily.Divisions, daily.Products); err != nil {
		log.Printf("[mirror] [ERROR] %v", err)
		return
	}
	log.Println("[mirror] Run mirrored to Postgres")
}
