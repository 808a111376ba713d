package maxpain

import (
	"time"

	"maxpain-lab/internal/domain"
	"maxpain-lab/internal/idhash"
)

// Selection is the outcome of one weighting mode: the chosen strike and the
// payout achieved there.
type Selection struct {
	Strike float64
	Payout int64
}

// Assemble combines the volume-based and open-interest-based selections for
// one group into a single result record. Pure except for the creation
// timestamp.
func Assemble(key domain.GroupKey, vol, oi Selection, sumVol, sumOI int64, volStdDev float64, rowCount int) domain.MaxPainResult {
	return domain.MaxPainResult{
		ResultID:   idhash.ComputeResultID(key.StockCode, key.Expiry, key.UpdateTime),
		StockCode:  key.StockCode,
		Expiry:     key.Expiry,
		UpdateTime: key.UpdateTime,

		MaxPainPriceVolume:       vol.Strike,
		MaxPainPriceOpenInterest: oi.Strike,
		MinEarnVolume:            vol.Payout,
		MinEarnOpenInterest:      oi.Payout,

		SumVolume:       sumVol,
		SumOpenInterest: sumOI,
		VolumeStdDev:    volStdDev,

		OptionsCount: rowCount,
		CreatedAt:    time.Now().UnixMilli(),
	}
}

// Compute runs the full evaluation for one group: both weighting modes,
// selection, volume stddev and totals. Returns ErrEmptyTable when the group
// yields no candidate strikes.
func Compute(key domain.GroupKey, rows []domain.OptionRow) (domain.MaxPainResult, error) {
	volTable := Evaluate(rows, WeightVolume)
	oiTable := Evaluate(rows, WeightOpenInterest)

	volStrike, volPayout, err := Select(volTable)
	if err != nil {
		return domain.MaxPainResult{}, err
	}
	oiStrike, oiPayout, err := Select(oiTable)
	if err != nil {
		return domain.MaxPainResult{}, err
	}

	return Assemble(key,
		Selection{Strike: volStrike, Payout: volPayout},
		Selection{Strike: oiStrike, Payout: oiPayout},
		SumWeights(volTable),
		SumWeights(oiTable),
		VolumeStdDev(rows, volStrike),
		len(rows),
	), nil
}
