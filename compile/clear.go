package compile

import (
	"fmt"
	"strings"

	"kpialarm/core"
)

// ClearSQL builds the per-alarm clear statement: an UPDATE guarded by an
// EXISTS over fact rows strictly newer than the alarm's source row. The
// inner limit predicate is the strict inverse of the raise predicate
// (raise fires at-or-beyond a limit, clear requires strictly inside it), so
// a sample sitting exactly on a limit keeps the alarm raised.
func ClearSQL(alarm *core.Alarm) string {
	pivoted := core.IsPivoted(alarm.TableName)

	column := alarm.MetricName
	if pivoted {
		column = "udc_config_value"
	}

	var limits []string
	if alarm.LowerLimit > 0 {
		limits = append(limits,
			fmt.Sprintf("AND CAST(t.%s AS NUMERIC) < %s", column, FormatLimit(alarm.LowerLimit)))
	}
	if alarm.UpperLimit > 0 {
		limits = append(limits,
			fmt.Sprintf("AND CAST(t.%s AS NUMERIC) > %s", column, FormatLimit(alarm.UpperLimit)))
	}

	inner := []string{
		"SELECT 1",
		fmt.Sprintf("FROM %s t", alarm.TableName),
		fmt.Sprintf("WHERE t.id = '%s'", escapeLiteral(alarm.RecordID)),
		fmt.Sprintf("AND t.timestamp > '%s'", SQLTimestamp(alarm.RecordTimestamp)),
	}
	inner = append(inner, limits...)
	inner = append(inner, "AND t.id = ta.record_id")
	if pivoted {
		inner = append(inner,
			"AND t.udc_config_name = ta.metricname",
			fmt.Sprintf("AND t.udc_config_name = '%s'", escapeLiteral(alarm.MetricName)))
	}

	return strings.Join([]string{
		"UPDATE threshold_alarms ta",
		"SET alarm_status = 'CLEARED', updated_at = CURRENT_TIMESTAMP",
		"WHERE ta.alarm_status = 'ACTIVE'",
		fmt.Sprintf("AND ta.alarm_id = '%s'", escapeLiteral(alarm.AlarmID)),
		fmt.Sprintf("AND ta.metricname = '%s'", escapeLiteral(alarm.MetricName)),
		"AND EXISTS (" + strings.Join(inner, " ") + ")",
	}, " ")
}
