// Package reporting renders persisted max pain results as CSV and markdown
// files, console tables and update-over-update comparison reports.
package reporting

import "strconv"

// formatPrice renders a strike price with no trailing zeros.
func formatPrice(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// formatInt renders an integer weight sum.
func formatInt(v int64) string {
	return strconv.FormatInt(v, 10)
}
