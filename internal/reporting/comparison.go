package reporting

import (
	"encoding/csv"
	"fmt"
	"io"
	"sort"

	"maxpain-lab/internal/domain"
)

// Drift is the max pain movement for one (stock, expiry) between two
// snapshot times.
type Drift struct {
	StockCode            string
	Expiry               string
	PreviousTime         string
	LatestTime           string
	PreviousVolume       float64
	LatestVolume         float64
	PreviousOpenInterest float64
	LatestOpenInterest   float64
}

// VolumeDrift returns the volume-weighted max pain price change.
func (d Drift) VolumeDrift() float64 {
	return d.LatestVolume - d.PreviousVolume
}

// OpenInterestDrift returns the open-interest-weighted max pain price change.
func (d Drift) OpenInterestDrift() float64 {
	return d.LatestOpenInterest - d.PreviousOpenInterest
}

// Compare pairs latest and previous snapshot results by (stock, expiry).
// Pairs present in only one snapshot are omitted; a new expiry has nothing
// to drift from. Output is sorted by (stock, expiry).
func Compare(latest, previous []*domain.MaxPainResult) []Drift {
	type pairKey struct{ stock, expiry string }

	prev := make(map[pairKey]*domain.MaxPainResult, len(previous))
	for _, r := range previous {
		prev[pairKey{r.StockCode, r.Expiry}] = r
	}

	var drifts []Drift
	for _, r := range latest {
		p, ok := prev[pairKey{r.StockCode, r.Expiry}]
		if !ok {
			continue
		}
		drifts = append(drifts, Drift{
			StockCode:            r.StockCode,
			Expiry:               r.Expiry,
			PreviousTime:         p.UpdateTime,
			LatestTime:           r.UpdateTime,
			PreviousVolume:       p.MaxPainPriceVolume,
			LatestVolume:         r.MaxPainPriceVolume,
			PreviousOpenInterest: p.MaxPainPriceOpenInterest,
			LatestOpenInterest:   r.MaxPainPriceOpenInterest,
		})
	}

	sort.Slice(drifts, func(i, j int) bool {
		if drifts[i].StockCode != drifts[j].StockCode {
			return drifts[i].StockCode < drifts[j].StockCode
		}
		return drifts[i].Expiry < drifts[j].Expiry
	})
	return drifts
}

var comparisonHeader = []string{
	"stock_code",
	"expiry_date",
	"previous_update_time",
	"latest_update_time",
	"max_pain_volume_previous",
	"max_pain_volume_latest",
	"max_pain_volume_drift",
	"max_pain_oi_previous",
	"max_pain_oi_latest",
	"max_pain_oi_drift",
}

// WriteComparisonCSV writes the drift table to w.
func WriteComparisonCSV(w io.Writer, drifts []Drift) error {
	cw := csv.NewWriter(w)

	if err := cw.Write(comparisonHeader); err != nil {
		return fmt.Errorf("write comparison header: %w", err)
	}

	for _, d := range drifts {
		record := []string{
			d.StockCode,
			d.Expiry,
			d.PreviousTime,
			d.LatestTime,
			formatPrice(d.PreviousVolume),
			formatPrice(d.LatestVolume),
			formatPrice(d.VolumeDrift()),
			formatPrice(d.PreviousOpenInterest),
			formatPrice(d.LatestOpenInterest),
			formatPrice(d.OpenInterestDrift()),
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("write comparison row %s/%s: %w", d.StockCode, d.Expiry, err)
		}
	}

	cw.Flush()
	return cw.Error()
}
