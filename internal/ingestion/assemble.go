package ingestion

import (
	"time"

	"maxpain-lab/internal/domain"
	"maxpain-lab/internal/provider"
)

// AssembleRows joins a chain's contract list with its snapshot quotes into
// option rows stamped with updateTime. Contracts without a quote still
// produce a row; unreported volume and open interest are normalized to zero
// so the downstream computation treats them as contributing no weight.
// Entries with an unknown type or non-positive strike are dropped.
func AssembleRows(chain *provider.OptionChain, quotes []provider.OptionQuote, updateTime string) []*domain.OptionRow {
	bySymbol := make(map[string]provider.OptionQuote, len(quotes))
	for _, q := range quotes {
		bySymbol[q.Symbol] = q
	}

	createdAt := time.Now().UnixMilli()
	rows := make([]*domain.OptionRow, 0, len(chain.Entries))
	for _, e := range chain.Entries {
		typ := domain.OptionType(e.Type)
		if !typ.Valid() || e.Strike <= 0 {
			continue
		}

		row := &domain.OptionRow{
			StockCode:  chain.StockCode,
			Expiry:     chain.Expiry,
			UpdateTime: updateTime,
			Symbol:     e.Symbol,
			Type:       typ,
			Strike:     e.Strike,
			CreatedAt:  createdAt,
		}

		if q, ok := bySymbol[e.Symbol]; ok {
			if q.Volume != nil {
				row.Volume = *q.Volume
			}
			if q.OpenInterest != nil {
				row.OpenInterest = *q.OpenInterest
			}
			row.Turnover = q.Turnover
			row.ImpliedVol = q.ImpliedVol
			row.ContractSize = q.ContractSize
		}

		rows = append(rows, row)
	}
	return rows
}
