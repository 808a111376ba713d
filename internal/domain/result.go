package domain

import "errors"

// ErrMalformedRow marks an option row that is missing its strike, type or a
// grouping key component. Such rows are dropped with a diagnostic and the run
// continues.
var ErrMalformedRow = errors.New("malformed option row")

// MaxPainResult holds the outcome of one max pain computation for one group.
// Corresponds to the max_pain_results table.
type MaxPainResult struct {
	ResultID   string // PRIMARY KEY, deterministic hash of the group key
	StockCode  string
	Expiry     string // "YYYY-MM-DD"
	UpdateTime string // "YYYY-MM-DD HH:MM:SS"

	MaxPainPriceVolume       float64 // strike minimizing seller payout, volume-weighted
	MaxPainPriceOpenInterest float64 // strike minimizing seller payout, OI-weighted
	MinEarnVolume            int64   // payout at the volume-weighted selection
	MinEarnOpenInterest      int64   // payout at the OI-weighted selection

	SumVolume       int64   // volume accumulated over the payout scan
	SumOpenInterest int64   // open interest accumulated over the payout scan
	VolumeStdDev    float64 // stddev of total volume around the max pain strike

	OptionsCount int   // well-formed rows contributing to the group
	CreatedAt    int64 // record creation timestamp (ms)
}
