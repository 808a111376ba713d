package reporting

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"maxpain-lab/internal/domain"
)

// csvHeader is the result export column set. Order is part of the file
// format contract; downstream consumers parse by position.
var csvHeader = []string{
	"stock_code",
	"expiry_date",
	"update_time",
	"max_pain_price_volume",
	"max_pain_price_open_interest",
	"min_earn_volume",
	"min_earn_open_interest",
	"options_count",
}

// WriteCSV writes results to w in the export format, one row per result,
// preserving the input order.
func WriteCSV(w io.Writer, results []*domain.MaxPainResult) error {
	cw := csv.NewWriter(w)

	if err := cw.Write(csvHeader); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}

	for _, r := range results {
		record := []string{
			r.StockCode,
			r.Expiry,
			r.UpdateTime,
			formatPrice(r.MaxPainPriceVolume),
			formatPrice(r.MaxPainPriceOpenInterest),
			formatInt(r.MinEarnVolume),
			formatInt(r.MinEarnOpenInterest),
			strconv.Itoa(r.OptionsCount),
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("write csv row %s: %w", r.ResultID, err)
		}
	}

	cw.Flush()
	return cw.Error()
}
