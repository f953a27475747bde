package v1

import (
	"time"

	"github.com/shopspring/decimal"
)

// DayFormat is the calendar-day label layout used by daily buckets.
const DayFormat = "2006-01-02"

// Sample is one raw, timestamped observation of a metric as it crosses the
// boundary. Quantity metrics carry a numeric value in the metric's unit;
// category metrics carry the integer category code. Timestamps are epoch
// milliseconds. Values use exact decimal arithmetic end to end so encoding
// never loses precision.
type Sample struct {
	Value       decimal.Decimal `json:"value"`
	DateFrom    int64           `json:"date_from"`
	DateTo      int64           `json:"date_to"`
	Source      string          `json:"source"`
	UserEntered bool            `json:"user_entered"`
}

// DailyBucket is one calendar-day aggregation window with a single summed
// value. Date is the bucket's start date in local time.
type DailyBucket struct {
	Value decimal.Decimal `json:"value"`
	Date  string          `json:"date"`
}

// Millis converts a timestamp to epoch milliseconds for the wire.
func Millis(t time.Time) int64 {
	return t.UnixMilli()
}

// FromMillis converts an epoch-millisecond wire value back to a timestamp.
func FromMillis(ms int64) time.Time {
	return time.UnixMilli(ms)
}
