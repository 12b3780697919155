package report

import (
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"canasta/internal/series"
	"canasta/internal/variation"
)

func sampleReport() RunReport {
	summary := series.SummaryRow{
		Date:        "2025-08-29 09:00",
		TotalBasket: 25307,
		Variation:   series.Float(100),
		Percentage:  series.Float(0.4),
		IPCGeneral:  series.Float(0.52),
	}
	divisions := []series.DivisionRow{
		{Date: "2025-08-29 09:00", Division: "Almacén", Total: 3432},
		{Date: "2025-08-29 09:00", Division: "Frescos", Total: 15290, Variation: series.Float(180), Percentage: series.Float(1.2), IPC: series.Float(0.24)},
	}
	products := []series.ProductRow{
		{Date: "2025-08-29 09:00", Product: "Leche Entera DIA Sachet 1 Lt.", Division: "Frescos", Price: series.Float(1529), Variation: series.Float(18), Percentage: series.Float(1.19)},
		{Date: "2025-08-29 09:00", Product: "Arroz Largo Fino 500 Gr.", Division: "Almacén"},
	}
	return NewRunReport(summary, divisions, products, 1)
}

func TestRenderDaily(t *testing.T) {
	lines := RenderDaily(sampleReport())
	text := strings.Join(lines, "\n")

	assert.Contains(t, text, "=== VARIACIÓN DE PRECIOS (IPC) ===")
	assert.Contains(t, text, "Fecha: 2025-08-29 09:00")
	assert.Contains(t, text, "- Leche Entera DIA Sachet 1 Lt.: $1529.00 (+18.00, +1.19%)")
	assert.Contains(t, text, "- Arroz Largo Fino 500 Gr.: sin precio")
	assert.Contains(t, text, "Total de la canasta: $25307.00")
	assert.Contains(t, text, "Variación total: +100.00 (+0.40%)")
	assert.Contains(t, text, "IPC General: +0.52%")
	assert.Contains(t, text, "- Frescos: $15290.00 (+1.20%) IPC +0.24")
	assert.Contains(t, text, "- Almacén: $3432.00 (sin datos comparables)")
	assert.Contains(t, text, "Líneas ignoradas: 1")
	assert.Contains(t, text, "Productos sin precio: 1")
}

func TestRenderDailyIsIdempotent(t *testing.T) {
	r := sampleReport()
	first := strings.Join(RenderDaily(r), "\n")
	second := strings.Join(RenderDaily(r), "\n")
	assert.Equal(t, first, second)
}

func TestDegradedCounts(t *testing.T) {
	r := sampleReport()
	assert.Equal(t, 1, r.Degraded.IgnoredLines)
	assert.Equal(t, 1, r.Degraded.AbsentPrices)
	assert.Equal(t, 0, r.Degraded.NoComparisons)
}

func TestRenderMonthToDate(t *testing.T) {
	rows := []series.SummaryRow{
		{Date: "2025-08-01 09:00", TotalBasket: 1000},
		{Date: "2025-08-02 09:00", TotalBasket: 1100, Variation: series.Float(100), Percentage: series.Float(10), IPCGeneral: series.Float(8.5)},
	}
	text := strings.Join(RenderMonthToDate(rows), "\n")
	assert.Contains(t, text, "Primer día: 2025-08-01 09:00 ($1000.00)")
	assert.Contains(t, text, "Variación desde primer día: +10.00%")
	assert.Contains(t, text, "Variación diaria: +100.00 (+10.00%)")
	assert.Contains(t, text, "IPC General: +8.50%")
}

func TestWriteDaily(t *testing.T) {
	w, err := NewWriter(t.TempDir())
	require.NoError(t, err)

	at, _ := series.ParseTime("2025-08-29 09:00")
	path, err := w.WriteDaily(sampleReport(), at)
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(path, "canasta_20250829_0900.txt"))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "Total de la canasta")

	jsonPath := strings.TrimSuffix(path, ".txt") + ".json"
	data, err = os.ReadFile(jsonPath)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"ignored_lines": 1`)
}

func TestWriteWeeklyCSV(t *testing.T) {
	dir := t.TempDir()
	w, err := NewWriter(dir)
	require.NoError(t, err)

	items := []variation.WeeklyVariation{
		{Product: "Leche", Year: 2025, Week: 33, PrevMean: 200, CurrMean: 180, Variation: -20, Percentage: -10},
	}
	path, err := w.WriteWeeklyCSV(items, "202508")
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	text := string(data)
	assert.Contains(t, text, "Producto,Semana_Actual,Año_Actual")
	assert.Contains(t, text, "Leche,33,2025,200,180,-20,-10")
}

func TestWriteWorkbook(t *testing.T) {
	w, err := NewWriter(t.TempDir())
	require.NoError(t, err)

	path, err := w.WriteWorkbook(
		[]variation.WeeklyVariation{{Product: "Leche", Year: 2025, Week: 33, PrevMean: 200, CurrMean: 180, Variation: -20, Percentage: -10}},
		[]variation.MonthlyIntraVariation{{Product: "Leche", Division: "Frescos", Year: 2025, Month: time.August, FirstPrice: 50, LastPrice: 55, Variation: 5, Percentage: 10}},
		nil,
		"202508",
	)
	require.NoError(t, err)

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Greater(t, info.Size(), int64(0))
}
