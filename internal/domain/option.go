package domain

// OptionRow represents one option contract observation from a chain snapshot.
// Corresponds to the option_rows table.
type OptionRow struct {
	ID           int64      // BIGSERIAL-style primary key (0 until stored)
	StockCode    string     // underlying ticker, e.g. "SPY.US"
	Expiry       string     // option expiry date, "YYYY-MM-DD"
	UpdateTime   string     // snapshot timestamp, "YYYY-MM-DD HH:MM:SS"
	Symbol       string     // option contract symbol
	Type         OptionType // CALL | PUT
	Strike       float64    // strike price
	Volume       int64      // traded volume (absent in feed → 0)
	OpenInterest int64      // open contracts (absent in feed → 0)
	Turnover     *float64   // traded notional (nullable)
	ImpliedVol   *float64   // implied volatility (nullable)
	ContractSize *int64     // contract multiplier (nullable)
	CreatedAt    int64      // record creation timestamp (ms)
}

// OptionType identifies the side of an option contract.
type OptionType string

// Option type constants
const (
	OptionTypeCall OptionType = "call"
	OptionTypePut  OptionType = "put"
)

// Valid reports whether the option type is one of the known values.
func (t OptionType) Valid() bool {
	return t == OptionTypeCall || t == OptionTypePut
}

// GroupKey identifies one computation group: all rows observed for the same
// underlying, expiry and snapshot. Snapshot equality is exact string equality
// at whatever resolution the feed carries; snapshots one second apart are
// distinct groups.
type GroupKey struct {
	StockCode  string
	Expiry     string
	UpdateTime string
}

// Key returns the row's group key.
func (r *OptionRow) Key() GroupKey {
	return GroupKey{StockCode: r.StockCode, Expiry: r.Expiry, UpdateTime: r.UpdateTime}
}

// Validate reports whether the row is well-formed enough to participate in a
// max pain computation. Malformed rows are skipped by the grouper, never fatal.
func (r *OptionRow) Validate() error {
	switch {
	case r == nil:
		return ErrMalformedRow
	case r.StockCode == "" || r.Expiry == "" || r.UpdateTime == "":
		return ErrMalformedRow
	case !r.Type.Valid():
		return ErrMalformedRow
	case r.Strike <= 0:
		return ErrMalformedRow
	}
	return nil
}
