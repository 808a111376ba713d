package maxpain

import (
	"math"
	"sort"

	"maxpain-lab/internal/domain"
)

// stdDevWindow is the number of strikes included on each side of the max pain
// strike when computing the volume standard deviation.
const stdDevWindow = 3

// VolumeStdDev computes the sample standard deviation of total (put + call)
// volume across the max pain strike and up to stdDevWindow neighbouring
// strikes on each side, in ascending strike order. Returns 0 when fewer than
// two strikes fall inside the window.
func VolumeStdDev(rows []domain.OptionRow, maxPainStrike float64) float64 {
	// Total volume per strike, both sides combined.
	volumeByStrike := make(map[float64]int64)
	for i := range rows {
		volumeByStrike[rows[i].Strike] += rows[i].Volume
	}

	strikes := make([]float64, 0, len(volumeByStrike))
	for s := range volumeByStrike {
		strikes = append(strikes, s)
	}
	sort.Float64s(strikes)

	center := -1
	for i, s := range strikes {
		if s == maxPainStrike {
			center = i
			break
		}
	}
	if center < 0 {
		return 0
	}

	start := center - stdDevWindow
	if start < 0 {
		start = 0
	}
	end := center + stdDevWindow + 1
	if end > len(strikes) {
		end = len(strikes)
	}

	window := strikes[start:end]
	if len(window) < 2 {
		return 0
	}

	var mean float64
	for _, s := range window {
		mean += float64(volumeByStrike[s])
	}
	mean /= float64(len(window))

	var sumSq float64
	for _, s := range window {
		d := float64(volumeByStrike[s]) - mean
		sumSq += d * d
	}
	// Sample variance (n-1), matching statistics.stdev of the stored history.
	return math.Sqrt(sumSq / float64(len(window)-1))
}
