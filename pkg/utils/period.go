package utils

import (
	"fmt"
	"time"
)

// Billing intervals supported by plans.
const (
	IntervalWeekly    = "weekly"
	IntervalMonthly   = "monthly"
	IntervalQuarterly = "quarterly"
	IntervalYearly    = "yearly"
)

func NowUnixSeconds() int64 { return time.Now().Unix() }

// AddInterval advances t by count billing intervals. Month-based intervals
// use calendar arithmetic, so Jan 31 + 1 month normalizes per time.AddDate.
func AddInterval(t time.Time, interval string, count int) time.Time {
	if count <= 0 {
		count = 1
	}
	switch interval {
	case IntervalWeekly:
		return t.AddDate(0, 0, 7*count)
	case IntervalMonthly:
		return t.AddDate(0, count, 0)
	case IntervalQuarterly:
		return t.AddDate(0, 3*count, 0)
	case IntervalYearly:
		return t.AddDate(count, 0, 0)
	default:
		return t.AddDate(0, count, 0)
	}
}

func ValidInterval(interval string) bool {
	switch interval {
	case IntervalWeekly, IntervalMonthly, IntervalQuarterly, IntervalYearly:
		return true
	}
	return false
}

// ResolvePeriod turns an analytics period keyword into a concrete [start, end)
// window. "custom" requires both dates in ISO 8601 (2006-01-02) form.
func ResolvePeriod(period, startDate, endDate string, now time.Time) (time.Time, time.Time, error) {
	end := now
	switch period {
	case "today":
		start := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
		return start, end, nil
	case "week":
		return now.AddDate(0, 0, -7), end, nil
	case "month":
		return now.AddDate(0, -1, 0), end, nil
	case "quarter":
		return now.AddDate(0, -3, 0), end, nil
	case "year":
		return now.AddDate(-1, 0, 0), end, nil
	case "custom":
		if startDate == "" || endDate == "" {
			return time.Time{}, time.Time{}, fmt.Errorf("%w: custom period requires startDate and endDate", ErrValidation)
		}
		start, err := time.Parse("2006-01-02", startDate)
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("%w: invalid startDate", ErrValidation)
		}
		endParsed, err := time.Parse("2006-01-02", endDate)
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("%w: invalid endDate", ErrValidation)
		}
		// Make the end date inclusive.
		endParsed = endParsed.AddDate(0, 0, 1)
		if endParsed.Before(start) {
			return time.Time{}, time.Time{}, fmt.Errorf("%w: endDate before startDate", ErrValidation)
		}
		return start, endParsed, nil
	default:
		return time.Time{}, time.Time{}, fmt.Errorf("%w: unknown period %q", ErrValidation, period)
	}
}
