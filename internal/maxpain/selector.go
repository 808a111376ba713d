package maxpain

import "errors"

// ErrEmptyTable is returned when a payout table has no candidate strikes.
// A group holding at least one row always yields at least one candidate.
var ErrEmptyTable = errors.New("payout table has no candidate strikes")

// Select scans a payout table and returns the strike with the minimum payout.
// Ties are broken toward the lowest strike, so the selection is reproducible
// regardless of map iteration order.
func Select(table map[float64]int64) (strike float64, payout int64, err error) {
	if len(table) == 0 {
		return 0, 0, ErrEmptyTable
	}

	first := true
	for s, p := range table {
		if first || p < payout || (p == payout && s < strike) {
			strike, payout = s, p
			first = false
		}
	}
	return strike, payout, nil
}
