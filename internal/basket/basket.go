// Package basket loads and validates the tracked product list.
package basket

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/zeromicro/go-zero/core/logx"

	"canasta/internal/ipc"
)

// Product is one tracked basket entry. Immutable for the duration of a run.
type Product struct {
	// Ref is the retailer reference: a product URL or opaque catalog code.
	Ref string
	// Name identifies the product and keys its time series.
	Name string
	// Division is the normalized IPC division the product belongs to.
	Division string
	// Quantity is the monthly consumption quantity.
	Quantity float64
}

// LineTotal returns the product's contribution to the basket value at the
// given unit price.
func (p Product) LineTotal(unitPrice float64) float64 {
	return unitPrice * p.Quantity
}

// Basket is the validated product list plus the lines that were rejected.
type Basket struct {
	Products []Product
	// Ignored collects malformed input lines (wrong field count) so the
	// operator can audit what was skipped.
	Ignored []string
}

const fieldCount = 4

// Load reads a basket definition file. Each line holds
// "ref;name;division;quantity"; blank lines and #-comments are skipped.
// Malformed lines are collected into Ignored, quantities that fail to parse
// default to 1.0 with a warning, and division labels are normalized through
// the registry. A missing or unreadable file is the only fatal outcome.
func Load(path string, reg *ipc.Registry) (*Basket, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open basket %s: %w", path, err)
	}
	defer f.Close()

	b := &Basket{}
	scanner := bufio.NewScanner(f)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		fields := strings.Split(line, ";")
		if len(fields) != fieldCount {
			logx.Infof("basket line %d has %d fields, expected %d; skipping", lineNo, len(fields), fieldCount)
			b.Ignored = append(b.Ignored, line)
			continue
		}
		division, _ := reg.Normalize(strings.TrimSpace(fields[2]))
		b.Products = append(b.Products, Product{
			Ref:      strings.TrimSpace(fields[0]),
			Name:     strings.TrimSpace(fields[1]),
			Division: division,
			Quantity: parseQuantity(fields[3], lineNo),
		})
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read basket %s: %w", path, err)
	}
	return b, nil
}

func parseQuantity(raw string, lineNo int) float64 {
	q, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil || q <= 0 {
		logx.Infof("basket line %d: quantity %q not a positive number, defaulting to 1.0", lineNo, strings.TrimSpace(raw))
		return 1.0
	}
	return q
}
