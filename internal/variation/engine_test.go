package variation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"canasta/internal/basket"
	"canasta/internal/ipc"
	"canasta/internal/series"
)

var testProducts = []basket.Product{
	{Ref: "1", Name: "Leche", Division: "Frescos", Quantity: 1},
	{Ref: "2", Name: "Arroz", Division: "Almacén", Quantity: 1},
}

func newTestEngine(t *testing.T, products []basket.Product) (*Engine, *series.Store) {
	t.Helper()
	store, err := series.Open(t.TempDir(), "202508")
	require.NoError(t, err)
	return NewEngine(ipc.NewRegistry(), store, products), store
}

func seedRun(t *testing.T, store *series.Store, ts string, total float64, rows []series.ProductRow) {
	t.Helper()
	require.NoError(t, store.AppendRun(series.SummaryRow{Date: ts, TotalBasket: total}, nil, rows))
}

func TestDailyVariationPerProduct(t *testing.T) {
	eng, store := newTestEngine(t, testProducts)
	seedRun(t, store, "2025-08-28 09:00", 100, []series.ProductRow{
		{Date: "2025-08-28 09:00", Product: "Leche", Division: "Frescos", Price: series.Float(100)},
	})

	now, _ := series.ParseTime("2025-08-29 09:00")
	res := eng.Daily(now, []Observation{
		{Product: testProducts[0], Price: series.Float(110)},
	})

	require.Len(t, res.Products, 1)
	row := res.Products[0]
	require.NotNil(t, row.Variation)
	assert.InDelta(t, 10.0, *row.Variation, 1e-9)
	require.NotNil(t, row.Percentage)
	assert.InDelta(t, 10.0, *row.Percentage, 1e-9)
}

func TestDailyFirstRunHasNilDerived(t *testing.T) {
	eng, _ := newTestEngine(t, testProducts)
	now, _ := series.ParseTime("2025-08-29 09:00")
	res := eng.Daily(now, []Observation{
		{Product: testProducts[0], Price: series.Float(110)},
	})

	assert.Nil(t, res.Products[0].Variation)
	assert.Nil(t, res.Summary.Variation)
	assert.Nil(t, res.Summary.IPCGeneral, "no prior summary, index undefined")
	require.Len(t, res.Divisions, 1)
	assert.Nil(t, res.Divisions[0].Percentage)
}

func TestDailyAbsentPriceIsRecorded(t *testing.T) {
	eng, _ := newTestEngine(t, testProducts)
	now, _ := series.ParseTime("2025-08-29 09:00")
	res := eng.Daily(now, []Observation{
		{Product: testProducts[0], Price: nil},
		{Product: testProducts[1], Price: series.Float(50)},
	})

	require.Len(t, res.Products, 2)
	assert.Nil(t, res.Products[0].Price)
	assert.InDelta(t, 50, res.Summary.TotalBasket, 1e-9)
	// Only the priced product's division gets a snapshot row.
	require.Len(t, res.Divisions, 1)
	assert.Equal(t, "Almacén", res.Divisions[0].Division)
}

func TestGeneralIndexZeroContribution(t *testing.T) {
	// Two divisions with weight 0.5 each; division A moves +10%, division B
	// has no comparable data and must contribute 0, not be skipped.
	reg := ipc.NewRegistry(ipc.WithWeights(map[string]float64{"Frescos": 0.5, "Almacén": 0.5}))
	store, err := series.Open(t.TempDir(), "202508")
	require.NoError(t, err)
	eng := NewEngine(reg, store, testProducts)

	seedRun(t, store, "2025-08-28 09:00", 100, []series.ProductRow{
		{Date: "2025-08-28 09:00", Product: "Leche", Division: "Frescos", Price: series.Float(100)},
	})

	now, _ := series.ParseTime("2025-08-29 09:00")
	res := eng.Daily(now, []Observation{
		{Product: testProducts[0], Price: series.Float(110)}, // Frescos +10%
		{Product: testProducts[1], Price: series.Float(50)},  // Almacén, no yesterday
	})

	require.NotNil(t, res.Summary.IPCGeneral)
	assert.InDelta(t, 5.0, *res.Summary.IPCGeneral, 1e-9, "0.5*10 + 0.5*0")

	for _, div := range res.Divisions {
		switch div.Division {
		case "Frescos":
			require.NotNil(t, div.Percentage)
			assert.InDelta(t, 10.0, *div.Percentage, 1e-9)
			require.NotNil(t, div.IPC)
			assert.InDelta(t, 5.0, *div.IPC, 1e-9)
		case "Almacén":
			assert.Nil(t, div.Percentage, "insufficient data stays nil")
			assert.Nil(t, div.IPC)
		}
	}
}

func TestDailyDivisionRollupQuantityWeighted(t *testing.T) {
	products := []basket.Product{
		{Ref: "1", Name: "Leche", Division: "Frescos", Quantity: 10},
		{Ref: "2", Name: "Queso", Division: "Frescos", Quantity: 2},
	}
	eng, store := newTestEngine(t, products)
	seedRun(t, store, "2025-08-28 09:00", 1400, []series.ProductRow{
		{Date: "2025-08-28 09:00", Product: "Leche", Division: "Frescos", Price: series.Float(100)},
		{Date: "2025-08-28 09:00", Product: "Queso", Division: "Frescos", Price: series.Float(200)},
	})

	now, _ := series.ParseTime("2025-08-29 09:00")
	res := eng.Daily(now, []Observation{
		{Product: products[0], Price: series.Float(110)},
		{Product: products[1], Price: series.Float(200)},
	})

	require.Len(t, res.Divisions, 1)
	div := res.Divisions[0]
	// today 110*10 + 200*2 = 1500 vs yesterday 100*10 + 200*2 = 1400
	assert.InDelta(t, 1500, div.Total, 1e-9)
	require.NotNil(t, div.Variation)
	assert.InDelta(t, 100, *div.Variation, 1e-9)
	require.NotNil(t, div.Percentage)
	assert.InDelta(t, 100.0/1400*100, *div.Percentage, 1e-9)
}

func TestDailySummaryVariation(t *testing.T) {
	eng, store := newTestEngine(t, testProducts)
	seedRun(t, store, "2025-08-28 09:00", 100, []series.ProductRow{
		{Date: "2025-08-28 09:00", Product: "Leche", Division: "Frescos", Price: series.Float(100)},
	})

	now, _ := series.ParseTime("2025-08-29 09:00")
	res := eng.Daily(now, []Observation{
		{Product: testProducts[0], Price: series.Float(110)},
	})

	require.NotNil(t, res.Summary.Variation)
	assert.InDelta(t, 10, *res.Summary.Variation, 1e-9)
	require.NotNil(t, res.Summary.Percentage)
	assert.InDelta(t, 10, *res.Summary.Percentage, 1e-9)
}

func TestWeekly(t *testing.T) {
	eng, store := newTestEngine(t, testProducts)
	// ISO week 32 of 2025: Aug 4-10. Week 33: Aug 11-17.
	for _, obs := range []struct {
		ts    string
		price float64
	}{
		{"2025-08-04 09:00", 190},
		{"2025-08-06 09:00", 210}, // week 32 mean 200
		{"2025-08-11 09:00", 170},
		{"2025-08-13 09:00", 190}, // week 33 mean 180
	} {
		seedRun(t, store, obs.ts, obs.price, []series.ProductRow{
			{Date: obs.ts, Product: "Leche", Division: "Frescos", Price: series.Float(obs.price)},
		})
	}

	out, err := eng.Weekly()
	require.NoError(t, err)
	require.Len(t, out, 1)
	w := out[0]
	assert.Equal(t, "Leche", w.Product)
	assert.Equal(t, 33, w.Week)
	assert.InDelta(t, 200, w.PrevMean, 1e-9)
	assert.InDelta(t, 180, w.CurrMean, 1e-9)
	assert.InDelta(t, -20, w.Variation, 1e-9)
	assert.InDelta(t, -10, w.Percentage, 1e-9)
}

func TestWeeklyZeroPrevMeanYieldsZeroPercentage(t *testing.T) {
	eng, store := newTestEngine(t, testProducts)
	seedRun(t, store, "2025-08-04 09:00", 0, []series.ProductRow{
		{Date: "2025-08-04 09:00", Product: "Leche", Division: "Frescos", Price: series.Float(0)},
	})
	seedRun(t, store, "2025-08-11 09:00", 180, []series.ProductRow{
		{Date: "2025-08-11 09:00", Product: "Leche", Division: "Frescos", Price: series.Float(180)},
	})

	out, err := eng.Weekly()
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.InDelta(t, 180, out[0].Variation, 1e-9)
	assert.Zero(t, out[0].Percentage, "zero denominator is defined as 0, not nil")
}

func TestMonthlyIntra(t *testing.T) {
	eng, store := newTestEngine(t, testProducts)
	seedRun(t, store, "2025-08-01 09:00", 50, []series.ProductRow{
		{Date: "2025-08-01 09:00", Product: "Leche", Division: "Frescos", Price: series.Float(50)},
		{Date: "2025-08-01 09:00", Product: "Arroz", Division: "Almacén", Price: series.Float(30)},
	})
	seedRun(t, store, "2025-08-20 09:00", 55, []series.ProductRow{
		{Date: "2025-08-20 09:00", Product: "Leche", Division: "Frescos", Price: series.Float(55)},
	})

	now, _ := series.ParseTime("2025-08-29 09:00")
	out, err := eng.MonthlyIntra(now)
	require.NoError(t, err)
	// Arroz has a single observation this month and is excluded.
	require.Len(t, out, 1)
	m := out[0]
	assert.Equal(t, "Leche", m.Product)
	assert.InDelta(t, 50, m.FirstPrice, 1e-9)
	assert.InDelta(t, 55, m.LastPrice, 1e-9)
	assert.InDelta(t, 5, m.Variation, 1e-9)
	assert.InDelta(t, 10, m.Percentage, 1e-9)
}

func TestMonthlyIntraExcludesNonFood(t *testing.T) {
	products := []basket.Product{
		{Ref: "1", Name: "Remera", Division: "Prendas de vestir y calzado", Quantity: 1},
	}
	eng, store := newTestEngine(t, products)
	seedRun(t, store, "2025-08-01 09:00", 10, []series.ProductRow{
		{Date: "2025-08-01 09:00", Product: "Remera", Division: "Prendas de vestir y calzado", Price: series.Float(10)},
	})
	seedRun(t, store, "2025-08-20 09:00", 12, []series.ProductRow{
		{Date: "2025-08-20 09:00", Product: "Remera", Division: "Prendas de vestir y calzado", Price: series.Float(12)},
	})

	now, _ := series.ParseTime("2025-08-29 09:00")
	out, err := eng.MonthlyIntra(now)
	require.NoError(t, err)
	assert.Empty(t, out)
}

func TestMonthlyIntraRollups(t *testing.T) {
	products := []basket.Product{
		{Ref: "1", Name: "Leche", Division: "Frescos", Quantity: 10},
		{Ref: "2", Name: "Arroz", Division: "Almacén", Quantity: 2},
	}
	eng, _ := newTestEngine(t, products)

	items := []MonthlyIntraVariation{
		{Product: "Leche", Division: "Frescos", FirstPrice: 100, LastPrice: 110},
		{Product: "Arroz", Division: "Almacén", FirstPrice: 50, LastPrice: 45},
	}
	divisions, total := eng.MonthlyIntraRollups(items)

	require.Len(t, divisions, 2)
	// Sorted: Almacén first.
	assert.Equal(t, "Almacén", divisions[0].Division)
	assert.InDelta(t, 100, divisions[0].FirstValue, 1e-9) // 50*2
	assert.InDelta(t, 90, divisions[0].LastValue, 1e-9)
	assert.InDelta(t, -10, divisions[0].Percentage, 1e-9)

	assert.Equal(t, "Frescos", divisions[1].Division)
	assert.InDelta(t, 1000, divisions[1].FirstValue, 1e-9)
	assert.InDelta(t, 1100, divisions[1].LastValue, 1e-9)

	assert.InDelta(t, 1100, total.FirstValue, 1e-9)
	assert.InDelta(t, 1190, total.LastValue, 1e-9)
	assert.InDelta(t, 90.0/1100*100, total.Percentage, 1e-9)
}

func TestMonthlyRollupZeroDenominator(t *testing.T) {
	eng, _ := newTestEngine(t, nil)
	_, total := eng.MonthlyIntraRollups([]MonthlyIntraVariation{
		{Product: "Leche", Division: "Frescos", FirstPrice: 0, LastPrice: 10},
	})
	assert.Zero(t, total.Percentage)
	assert.InDelta(t, 10, total.Variation, 1e-9)
}

func TestMonthlyInter(t *testing.T) {
	eng, store := newTestEngine(t, testProducts)
	// Current month (August) rows in the live store.
	seedRun(t, store, "2025-08-05 09:00", 120, []series.ProductRow{
		{Date: "2025-08-05 09:00", Product: "Leche", Division: "Frescos", Price: series.Float(120)},
	})
	seedRun(t, store, "2025-08-20 09:00", 130, []series.ProductRow{
		{Date: "2025-08-20 09:00", Product: "Leche", Division: "Frescos", Price: series.Float(130)},
		{Date: "2025-08-20 09:00", Product: "Arroz", Division: "Almacén", Price: series.Float(40)},
	})
	// Prior month rows come from the sealed July files.
	prevRows := []series.ProductRow{
		{Date: "2025-07-10 09:00", Product: "Leche", Division: "Frescos", Price: series.Float(90)},
		{Date: "2025-07-25 09:00", Product: "Leche", Division: "Frescos", Price: series.Float(110)},
	}

	now, _ := series.ParseTime("2025-08-29 09:00")
	out, err := eng.MonthlyInter(now, prevRows)
	require.NoError(t, err)
	// Arroz has no July data and is excluded.
	require.Len(t, out, 1)
	m := out[0]
	assert.Equal(t, "Leche", m.Product)
	assert.InDelta(t, 100, m.PrevMean, 1e-9)
	assert.InDelta(t, 125, m.CurrMean, 1e-9)
	assert.InDelta(t, 25, m.Variation, 1e-9)
	assert.InDelta(t, 25, m.Percentage, 1e-9)
}
