package utils

import (
	"time"
)

// IndiaLocation is the timezone for Indian markets.
var IndiaLocation *time.Location

func init() {
	var err error
	IndiaLocation, err = time.LoadLocation("Asia/Kolkata")
	if err != nil {
		// Fallback to UTC+5:30
		IndiaLocation = time.FixedZone("IST", 5*60*60+30*60)
	}
}

// DateLayout is the wire format for trade dates.
const DateLayout = "2006-01-02"

// NowIST returns the current time in IST.
func NowIST() time.Time {
	return time.Now().In(IndiaLocation)
}

// TodayIST returns today's date in IST as yyyy-mm-dd.
func TodayIST() string {
	return NowIST().Format(DateLayout)
}

// IsWeekend reports whether t falls on a Saturday or Sunday.
func IsWeekend(t time.Time) bool {
	return t.Weekday() == time.Saturday || t.Weekday() == time.Sunday
}

// PrevTradingDate steps back one calendar day from base and keeps
// stepping back while the day is a weekend. Exchange holidays are not
// consulted; this is a single best-effort fallback, not a search.
func PrevTradingDate(base time.Time) string {
	d := base.AddDate(0, 0, -1)
	for IsWeekend(d) {
		d = d.AddDate(0, 0, -1)
	}
	return d.Format(DateLayout)
}

// IsMarketOpen reports whether the NSE normal session is running
// (09:15-15:30 IST on weekdays).
func IsMarketOpen() bool {
	now := NowIST()
	if IsWeekend(now) {
		return false
	}
	mins := now.Hour()*60 + now.Minute()
	return mins >= 9*60+15 && mins < 15*60+30
}
