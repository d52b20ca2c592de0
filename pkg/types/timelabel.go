package types

import (
	"time"

	"github.com/gertd/go-pluralize"
)

const (
	DateLayout     = "2006-01-02"
	DateTimeLayout = "2006-01-02 15:04"
)

var pluralizer = pluralize.NewClient()

func FormatTimeLabel(ts int64, intraday bool) string {
	t := time.Unix(ts, 0).UTC()
	if intraday {
		return t.Format(DateTimeLayout)
	}
	return t.Format(DateLayout)
}

// FormatSpan renders an elapsed number of seconds in the largest unit
// (days, hours, minutes) with a nonzero value, e.g. "3 days" or "45 minutes".
func FormatSpan(seconds int64) string {
	if seconds < 0 {
		seconds = -seconds
	}

	d := time.Duration(seconds) * time.Second
	days := int(d / (24 * time.Hour))
	hours := int(d / time.Hour)
	minutes := int(d / time.Minute)

	switch {
	case days > 0:
		return pluralizer.Pluralize("day", days, true)
	case hours > 0:
		return pluralizer.Pluralize("hour", hours, true)
	default:
		return pluralizer.Pluralize("minute", minutes, true)
	}
}
