package promotions

import (
	"fmt"
	"time"
)

// PeriodKeys groups the reporting buckets a redemption is counted under.
type PeriodKeys struct {
	Week  string
	Month string
	Year  string
}

// PeriodKeysAt derives the weekly, monthly and yearly bucket keys for t.
// Weeks follow ISO 8601 numbering, so early January can land in the previous
// year's last week.
func PeriodKeysAt(t time.Time) PeriodKeys {
	utc := t.UTC()
	isoYear, isoWeek := utc.ISOWeek()
	return PeriodKeys{
		Week:  fmt.Sprintf("%d-W%d", isoYear, isoWeek),
		Month: fmt.Sprintf("%d-%d", utc.Year(), int(utc.Month())),
		Year:  fmt.Sprintf("%d", utc.Year()),
	}
}
