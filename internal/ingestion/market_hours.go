package ingestion

import "time"

// US options trade 09:30–16:15 Eastern on weekdays. Collections outside the
// session are skipped, not errors.
const (
	sessionOpenHour   = 9
	sessionOpenMinute = 30
	sessionCloseHour  = 16
	sessionCloseMin   = 15
)

// MarketClock answers whether a collection should run at a given instant.
type MarketClock struct {
	location *time.Location
}

// NewMarketClock loads the exchange time zone.
func NewMarketClock() (*MarketClock, error) {
	loc, err := time.LoadLocation("America/New_York")
	if err != nil {
		return nil, err
	}
	return &MarketClock{location: loc}, nil
}

// IsOpen reports whether t falls inside the regular session plus the
// 15-minute settlement window (09:30–16:15 ET, Monday–Friday). Exchange
// holidays are not modeled; a holiday collection yields an empty snapshot
// from the provider rather than bad data.
func (c *MarketClock) IsOpen(t time.Time) bool {
	local := t.In(c.location)

	switch local.Weekday() {
	case time.Saturday, time.Sunday:
		return false
	}

	minutes := local.Hour()*60 + local.Minute()
	open := sessionOpenHour*60 + sessionOpenMinute
	close := sessionCloseHour*60 + sessionCloseMin
	return minutes >= open && minutes <= close
}

// SnapshotTime formats t as the snapshot's update_time in exchange-local
// time ("YYYY-MM-DD HH:MM:SS").
func (c *MarketClock) SnapshotTime(t time.Time) string {
	return t.In(c.location).Format("2006-01-02 15:04:05")
}
