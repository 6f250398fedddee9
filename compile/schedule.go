package compile

import (
	"fmt"
	"time"

	"kpialarm/core"
)

// scheduleLayout matches the second-granularity bounds schedules produce.
const scheduleLayout = "2006-01-02 15:04:05"

// ScheduleWindow converts a named schedule's intervals into a UTC timestamp
// predicate. Intervals are milliseconds since local midnight in the given
// IANA timezone; bounds land on today's date in that zone, values of 24h or
// more roll the date forward by one day. Only the first interval is used.
//
// An unknown timezone returns an error; callers log it and run without a
// schedule constraint. Empty or zero intervals yield an empty fragment.
func ScheduleWindow(periods []core.TimePeriod, tz string, now time.Time) (string, error) {
	if len(periods) == 0 || tz == "" {
		return "", nil
	}

	loc, err := time.LoadLocation(tz)
	if err != nil {
		return "", fmt.Errorf("unknown timezone %q: %w", tz, err)
	}

	p := periods[0]
	if p.From == 0 && p.To == 0 {
		return "", nil
	}

	from := localClockTime(p.From, loc, now)
	to := localClockTime(p.To, loc, now)

	return fmt.Sprintf("AND timestamp >= '%s' AND timestamp <= '%s'",
		from.UTC().Format(scheduleLayout), to.UTC().Format(scheduleLayout)), nil
}

// localClockTime maps milliseconds-since-midnight onto today's date in the
// given location, converted from the caller's clock.
func localClockTime(millis int64, loc *time.Location, now time.Time) time.Time {
	totalSeconds := millis / 1000
	hours := int(totalSeconds / 3600)
	minutes := int((totalSeconds % 3600) / 60)
	seconds := int(totalSeconds % 60)

	day := now.In(loc)
	if hours >= 24 {
		hours = hours % 24
		day = day.AddDate(0, 0, 1)
	}

	return time.Date(day.Year(), day.Month(), day.Day(), hours, minutes, seconds, 0, loc)
}
