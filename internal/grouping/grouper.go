// Package grouping partitions option rows into disjoint computation groups
// keyed by (stock_code, expiry_date, update_time).
package grouping

import (
	"log"

	"maxpain-lab/internal/domain"
)

// Result holds the outcome of one grouping pass.
type Result struct {
	Groups  map[domain.GroupKey][]domain.OptionRow
	Skipped int // malformed rows dropped
}

// Group partitions rows into groups in a single pass. Every well-formed row
// lands in exactly one group; malformed rows (missing strike, type or key
// component) are counted and dropped. Input order within a group is preserved.
func Group(rows []domain.OptionRow) Result {
	res := Result{Groups: make(map[domain.GroupKey][]domain.OptionRow)}
	for i := range rows {
		row := rows[i]
		if err := row.Validate(); err != nil {
			res.Skipped++
			continue
		}
		key := row.Key()
		res.Groups[key] = append(res.Groups[key], row)
	}
	return res
}

// GroupWithLogger behaves like Group but emits one diagnostic line per
// malformed row, with enough context to locate the offending record.
func GroupWithLogger(rows []domain.OptionRow, logger *log.Logger) Result {
	if logger == nil {
		logger = log.Default()
	}
	res := Result{Groups: make(map[domain.GroupKey][]domain.OptionRow)}
	for i := range rows {
		row := rows[i]
		if err := row.Validate(); err != nil {
			res.Skipped++
			logger.Printf("skipping malformed row %d (stock=%q symbol=%q type=%q strike=%v): %v",
				i, row.StockCode, row.Symbol, row.Type, row.Strike, err)
			continue
		}
		key := row.Key()
		res.Groups[key] = append(res.Groups[key], row)
	}
	return res
}
