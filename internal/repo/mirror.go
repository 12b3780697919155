// Package repo mirrors run rows into Postgres for ad-hoc querying. The CSV
// tables remain the source of truth; the mirror is optional and its
// failures never abort a run.
package repo

import (
	"context"
	"fmt"

	_ "github.com/jackc/pgx/v5/stdlib" // register pgx driver
	"github.com/zeromicro/go-zero/core/logx"
	"github.com/zeromicro/go-zero/core/stores/sqlx"

	"canasta/internal/config"
	"canasta/internal/series"
)

// Mirror writes run rows to Postgres. A nil Mirror is a valid no-op.
type Mirror struct {
	conn sqlx.SqlConn
}

// NewMirror wires a mirror when a DSN is configured; returns nil otherwise.
func NewMirror(cfg config.PostgresConf) *Mirror {
	if cfg.DSN == "" {
		return nil
	}
	return &Mirror{conn: sqlx.NewSqlConn("pgx", cfg.DSN)}
}

var schema = []string{
	`CREATE TABLE IF NOT EXISTS basket_summary (
		id BIGSERIAL PRIMARY KEY,
		fecha TEXT NOT NULL,
		total_canasta DOUBLE PRECISION NOT NULL,
		variacion DOUBLE PRECISION,
		porcentaje DOUBLE PRECISION,
		ipc_general DOUBLE PRECISION
	)`,
	`CREATE TABLE IF NOT EXISTS division_snapshots (
		id BIGSERIAL PRIMARY KEY,
		fecha TEXT NOT NULL,
		division TEXT NOT NULL,
		total DOUBLE PRECISION NOT NULL,
		variacion DOUBLE PRECISION,
		porcentaje DOUBLE PRECISION,
		ipc DOUBLE PRECISION
	)`,
	`CREATE TABLE IF NOT EXISTS product_observations (
		id BIGSERIAL PRIMARY KEY,
		fecha TEXT NOT NULL,
		producto TEXT NOT NULL,
		division TEXT NOT NULL,
		precio DOUBLE PRECISION,
		variacion DOUBLE PRECISION,
		porcentaje DOUBLE PRECISION
	)`,
	`CREATE INDEX IF NOT EXISTS idx_product_observations_producto_fecha
		ON product_observations (producto, fecha)`,
}

// EnsureSchema creates the mirror tables when missing.
func (m *Mirror) EnsureSchema(ctx context.Context) error {
	if m == nil {
		return nil
	}
	for _, stmt := range schema {
		if _, err := m.conn.ExecCtx(ctx, stmt); err != nil {
			return fmt.Errorf("mirror schema: %w", err)
		}
	}
	return nil
}

// RecordRun inserts one run's row set. Partial failures are logged and do
// not stop the remaining inserts.
func (m *Mirror) RecordRun(ctx context.Context, summary series.SummaryRow, divisions []series.DivisionRow, products []series.ProductRow) error {
	if m == nil {
		return nil
	}
	var firstErr error
	keep := func(err error) {
		if err != nil {
			logx.WithContext(ctx).Errorf("mirror insert: %v", err)
			if firstErr == nil {
				firstErr = err
			}
		}
	}

	_, err := m.conn.ExecCtx(ctx,
		`INSERT INTO basket_summary (fecha, total_canasta, variacion, porcentaje, ipc_general) VALUES ($1, $2, $3, $4, $5)`,
		summary.Date, summary.TotalBasket, summary.Variation, summary.Percentage, summary.IPCGeneral)
	keep(err)

	for _, d := range divisions {
		_, err := m.conn.ExecCtx(ctx,
			`INSERT INTO division_snapshots (fecha, division, total, variacion, porcentaje, ipc) VALUES ($1, $2, $3, $4, $5, $6)`,
			d.Date, d.Division, d.Total, d.Variation, d.Percentage, d.IPC)
		keep(err)
	}
	for _, p := range products {
		_, err := m.conn.ExecCtx(ctx,
			`INSERT INTO product_observations (fecha, producto, division, precio, variacion, porcentaje) VALUES ($1, $2, $3, $4, $5, $6)`,
			p.Date, p.Product, p.Division, p.Price, p.Variation, p.Percentage)
		keep(err)
	}
	return firstErr
}
