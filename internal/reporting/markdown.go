package reporting

import (
	"fmt"
	"io"

	"maxpain-lab/internal/domain"
)

// WriteMarkdown writes a human-readable summary of results, grouped as a
// single table plus per-snapshot extras (weight sums and the volume
// concentration around the max pain strike).
func WriteMarkdown(w io.Writer, title string, results []*domain.MaxPainResult) error {
	if _, err := fmt.Fprintf(w, "# %s\n\n", title); err != nil {
		return err
	}
	if len(results) == 0 {
		_, err := fmt.Fprintln(w, "No results.")
		return err
	}

	fmt.Fprintln(w, "| Stock | Expiry | Update Time | Max Pain (Vol) | Max Pain (OI) | Min Earn (Vol) | Min Earn (OI) | Contracts |")
	fmt.Fprintln(w, "|-------|--------|-------------|----------------|---------------|----------------|---------------|-----------|")
	for _, r := range results {
		fmt.Fprintf(w, "| %s | %s | %s | %s | %s | %s | %s | %d |\n",
			r.StockCode, r.Expiry, r.UpdateTime,
			formatPrice(r.MaxPainPriceVolume), formatPrice(r.MaxPainPriceOpenInterest),
			formatInt(r.MinEarnVolume), formatInt(r.MinEarnOpenInterest),
			r.OptionsCount)
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, "## Activity")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "| Stock | Expiry | Sum Volume | Sum OI | Volume StdDev (±3 strikes) |")
	fmt.Fprintln(w, "|-------|--------|-----------|--------|----------------------------|")
	for _, r := range results {
		fmt.Fprintf(w, "| %s | %s | %s | %s | %.2f |\n",
			r.StockCode, r.Expiry,
			formatInt(r.SumVolume), formatInt(r.SumOpenInterest), r.VolumeStdDev)
	}

	return nil
}
