// Package price normalizes localized retail price text into numeric values.
package price

import (
	"strconv"
	"strings"

	"github.com/zeromicro/go-zero/core/logx"
)

var cleaner = strings.NewReplacer(
	"$", "",
	".", "", // thousands separator
	" ", "", // non-breaking space
	" ", "", // narrow non-breaking space
	" ", "",
)

// Parse converts a raw localized price string into a numeric value. The
// source convention is fixed regardless of host locale: `.` is the
// thousands separator and `,` the decimal mark, e.g. "$1.234,56" → 1234.56.
// The boolean is false for empty input or text that is not numeric after
// cleaning; absence is a normal outcome, not an error.
func Parse(raw string) (float64, bool) {
	if raw == "" {
		return 0, false
	}
	clean := strings.TrimSpace(cleaner.Replace(raw))
	clean = strings.ReplaceAll(clean, ",", ".")
	if clean == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(clean, 64)
	if err != nil {
		logx.Infof("price text not numeric: %q -> %q", raw, clean)
		return 0, false
	}
	return v, true
}
