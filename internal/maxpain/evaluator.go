// Package maxpain computes the max pain strike for one option chain group:
// the settlement price at which option sellers' aggregate payout obligation
// to buyers is minimized.
package maxpain

import (
	"sort"

	"maxpain-lab/internal/domain"
)

// WeightField selects which per-contract quantity proxies the payout.
type WeightField string

// Weight field constants
const (
	WeightVolume       WeightField = "volume"
	WeightOpenInterest WeightField = "open_interest"
)

// weight returns the selected field of a row. A missing weight was normalized
// to 0 at ingestion; the row still contributes its strike to the candidate set.
func (f WeightField) weight(r *domain.OptionRow) int64 {
	if f == WeightOpenInterest {
		return r.OpenInterest
	}
	return r.Volume
}

// Evaluate computes, for every distinct strike in the group, the total payout
// sellers owe if the underlying settles exactly at that strike.
//
// For a candidate strike S:
//   - puts struck strictly above S are in the money for the holder,
//   - calls struck strictly below S are in the money for the holder,
//
// and each contributes its raw weight. A row whose strike equals S contributes
// to neither side. The raw weight sum is a deliberate proxy for monetary
// payout; it is not multiplied by intrinsic value, and the reported max pain
// prices depend on keeping it that way.
func Evaluate(rows []domain.OptionRow, field WeightField) map[float64]int64 {
	table := make(map[float64]int64)
	for i := range rows {
		table[rows[i].Strike] = 0
	}

	for candidate := range table {
		var payout int64
		for i := range rows {
			row := &rows[i]
			switch row.Type {
			case domain.OptionTypePut:
				if row.Strike > candidate {
					payout += field.weight(row)
				}
			case domain.OptionTypeCall:
				if row.Strike < candidate {
					payout += field.weight(row)
				}
			}
		}
		table[candidate] = payout
	}
	return table
}

// Strikes returns the candidate strike set of a payout table in ascending order.
func Strikes(table map[float64]int64) []float64 {
	strikes := make([]float64, 0, len(table))
	for s := range table {
		strikes = append(strikes, s)
	}
	sort.Float64s(strikes)
	return strikes
}

// SumWeights accumulates the weight field over the same scan the payout
// evaluation performs: every put is counted once per candidate strike strictly
// below it, every call once per candidate strike strictly above it, i.e. the
// sum of the payout table. The totals therefore scale with the number of
// candidate strikes, matching the sum_volume / sum_open_interest columns of
// the historical results.
func SumWeights(table map[float64]int64) int64 {
	var sum int64
	for _, payout := range table {
		sum += payout
	}
	return sum
}
