package core

import "strings"

// statPrefixes are the statistical aggregation prefixes stripped from metric
// names for join purposes.
var statPrefixes = []string{"smax_", "savg_", "ssum_", "smin_"}

// NormalizeMetric converts a metric name to its canonical join form:
// lowercase, one leading statistical prefix dropped, every dot replaced with
// an underscore. The transformation is idempotent; the rule-to-binding join
// and the pivoted-table predicate both rely on exactly this form.
func NormalizeMetric(metric string) string {
	m := strings.ToLower(metric)
	for _, p := range statPrefixes {
		if strings.HasPrefix(m, p) {
			m = strings.TrimPrefix(m, p)
			break
		}
	}
	return strings.ReplaceAll(m, ".", "_")
}
