package reporting

import (
	"fmt"
	"io"
	"strconv"

	"github.com/olekukonko/tablewriter"

	"maxpain-lab/internal/domain"
)

// Console prints results as a terminal table.
type Console struct {
	out io.Writer
}

// NewConsole creates a console printer writing to out.
func NewConsole(out io.Writer) *Console {
	return &Console{out: out}
}

// Print renders the results table.
func (c *Console) Print(results []*domain.MaxPainResult) {
	if len(results) == 0 {
		fmt.Fprintln(c.out, "No results.")
		return
	}

	fmt.Fprintf(c.out, "\n%d max pain results\n", len(results))

	table := tablewriter.NewWriter(c.out)
	table.Header("Stock", "Expiry", "Update Time", "MP (Vol)", "MP (OI)", "Min Earn (Vol)", "Min Earn (OI)", "Contracts")

	for _, r := range results {
		table.Append(
			r.StockCode,
			r.Expiry,
			r.UpdateTime,
			formatPrice(r.MaxPainPriceVolume),
			formatPrice(r.MaxPainPriceOpenInterest),
			formatInt(r.MinEarnVolume),
			formatInt(r.MinEarnOpenInterest),
			strconv.Itoa(r.OptionsCount),
		)
	}

	table.Render()
}

// PrintComparison renders the update-over-update drift table.
func (c *Console) PrintComparison(drifts []Drift) {
	if len(drifts) == 0 {
		fmt.Fprintln(c.out, "No comparable snapshots.")
		return
	}

	fmt.Fprintf(c.out, "\n%d snapshot comparisons\n", len(drifts))

	table := tablewriter.NewWriter(c.out)
	table.Header("Stock", "Expiry", "Previous", "Latest", "MP Vol Drift", "MP OI Drift")

	for _, d := range drifts {
		table.Append(
			d.StockCode,
			d.Expiry,
			d.PreviousTime,
			d.LatestTime,
			fmt.Sprintf("%s -> %s", formatPrice(d.PreviousVolume), formatPrice(d.LatestVolume)),
			fmt.Sprintf("%s -> %s", formatPrice(d.PreviousOpenInterest), formatPrice(d.LatestOpenInterest)),
		)
	}

	table.Render()
}
