package series

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// Store holds one tracking period's three tables and persists them as flat
// CSV files named by period. Rows are append-only: a run adds exactly one
// row set and historical rows are never rewritten.
//
// Single-writer, single-process: the store performs no locking.
type Store struct {
	dir    string
	period string

	summary   []SummaryRow
	divisions []DivisionRow
	products  []ProductRow
}

// Open loads the period's tables from dir. Missing files are treated as
// empty tables: the first run of a new tracking period starts from nothing.
func Open(dir, period string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}
	s := &Store{dir: dir, period: period}

	if err := readTable(s.summaryPath(), len(summaryHeader), func(rec []string) error {
		row, err := summaryFromRecord(rec)
		if err == nil {
			s.summary = append(s.summary, row)
		}
		return err
	}); err != nil {
		return nil, err
	}
	if err := readTable(s.divisionsPath(), len(divisionHeader), func(rec []string) error {
		row, err := divisionFromRecord(rec)
		if err == nil {
			s.divisions = append(s.divisions, row)
		}
		return err
	}); err != nil {
		return nil, err
	}
	if err := readTable(s.productsPath(), len(productHeader), func(rec []string) error {
		row, err := productFromRecord(rec)
		if err == nil {
			s.products = append(s.products, row)
		}
		return err
	}); err != nil {
		return nil, err
	}
	return s, nil
}

// Period returns the tracking period this store is bound to (YYYYMM).
func (s *Store) Period() string { return s.period }

// SummaryRows returns the period's basket snapshots in append order.
func (s *Store) SummaryRows() []SummaryRow {
	out := make([]SummaryRow, len(s.summary))
	copy(out, s.summary)
	return out
}

// DivisionRows returns the period's division snapshots in append order.
func (s *Store) DivisionRows() []DivisionRow {
	out := make([]DivisionRow, len(s.divisions))
	copy(out, s.divisions)
	return out
}

// ProductRows returns the period's product observations in append order.
func (s *Store) ProductRows() []ProductRow {
	out := make([]ProductRow, len(s.products))
	copy(out, s.products)
	return out
}

// LatestSummaryRow returns the most recent basket snapshot, if any.
func (s *Store) LatestSummaryRow() (SummaryRow, bool) {
	if len(s.summary) == 0 {
		return SummaryRow{}, false
	}
	return s.summary[len(s.summary)-1], true
}

// LatestDivisionRow returns the most recent snapshot for a division.
func (s *Store) LatestDivisionRow(division string) (DivisionRow, bool) {
	for i := len(s.divisions) - 1; i >= 0; i-- {
		if s.divisions[i].Division == division {
			return s.divisions[i], true
		}
	}
	return DivisionRow{}, false
}

// LatestProductRow returns the most recent observation for a product.
func (s *Store) LatestProductRow(product string) (ProductRow, bool) {
	for i := len(s.products) - 1; i >= 0; i-- {
		if s.products[i].Product == product {
			return s.products[i], true
		}
	}
	return ProductRow{}, false
}

// LatestProductRowBefore returns the most recent observation for a product
// strictly before the given timestamp. Timestamps compare as strings per
// the TimeLayout contract.
func (s *Store) LatestProductRowBefore(product, ts string) (ProductRow, bool) {
	for i := len(s.products) - 1; i >= 0; i-- {
		if s.products[i].Product == product && s.products[i].Date < ts {
			return s.products[i], true
		}
	}
	return ProductRow{}, false
}

// ProductRowsInRange returns observations with start <= Date < end.
func (s *Store) ProductRowsInRange(start, end string) []ProductRow {
	var out []ProductRow
	for _, row := range s.products {
		if row.Date >= start && row.Date < end {
			out = append(out, row)
		}
	}
	return out
}

// AppendRun appends one run's row set to all three tables and flushes them
// to disk. Each table write is an atomic replace (temp file + rename), so a
// crash mid-write leaves the previous file intact.
func (s *Store) AppendRun(summary SummaryRow, divisions []DivisionRow, products []ProductRow) error {
	s.summary = append(s.summary, summary)
	s.divisions = append(s.divisions, divisions...)
	s.products = append(s.products, products...)
	return s.Flush()
}

// Flush rewrites all three tables.
func (s *Store) Flush() error {
	if err := writeTable(s.summaryPath(), summaryHeader, len(s.summary), func(i int) []string {
		return s.summary[i].record()
	}); err != nil {
		return err
	}
	if err := writeTable(s.divisionsPath(), divisionHeader, len(s.divisions), func(i int) []string {
		return s.divisions[i].record()
	}); err != nil {
		return err
	}
	return writeTable(s.productsPath(), productHeader, len(s.products), func(i int) []string {
		return s.products[i].record()
	})
}

// StartNewMonth seals the current period and switches the store to a fresh,
// empty table set for the given period. The previous period's files are
// left untouched under their own names.
func (s *Store) StartNewMonth(period string) error {
	s.period = period
	s.summary = nil
	s.divisions = nil
	s.products = nil
	return s.Flush()
}

func (s *Store) summaryPath() string {
	return filepath.Join(s.dir, "resumen_"+s.period+".csv")
}

func (s *Store) divisionsPath() string {
	return filepath.Join(s.dir, "divisiones_"+s.period+".csv")
}

func (s *Store) productsPath() string {
	return filepath.Join(s.dir, "productos_"+s.period+".csv")
}

func readTable(path string, columns int, add func([]string) error) error {
	f, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = columns
	records, err := r.ReadAll()
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}
	for i, rec := range records {
		if i == 0 {
			continue // header
		}
		if err := add(rec); err != nil {
			return fmt.Errorf("%s row %d: %w", path, i, err)
		}
	}
	return nil
}

func writeTable(path string, header []string, n int, record func(int) []string) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".tmp")
	if err != nil {
		return fmt.Errorf("create temp for %s: %w", path, err)
	}
	defer os.Remove(tmp.Name())

	w := csv.NewWriter(tmp)
	if err := w.Write(header); err != nil {
		tmp.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	for i := 0; i < n; i++ {
		if err := w.Write(record(i)); err != nil {
			tmp.Close()
			return fmt.Errorf("write %s: %w", path, err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		tmp.Close()
		return fmt.Errorf("flush %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp for %s: %w", path, err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("replace %s: %w", path, err)
	}
	return nil
}
