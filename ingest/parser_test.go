package ingest

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"kpialarm/core"
)

func testLogger() *zap.SugaredLogger {
	return zap.NewNop().Sugar()
}

func TestDetectModeBurstOnly(t *testing.T) {
	eval := map[string]interface{}{"burst_critical_enabled": true}
	assert.Equal(t, core.ModeBurst, DetectMode(eval))
}

func TestDetectModePeriodOnly(t *testing.T) {
	eval := map[string]interface{}{"period_warning_enabled": true}
	assert.Equal(t, core.ModePeriod, DetectMode(eval))
}

func TestDetectModeMajorityWins(t *testing.T) {
	eval := map[string]interface{}{
		"burst_critical_enabled":  true,
		"period_critical_enabled": true,
		"period_major_enabled":    true,
	}
	assert.Equal(t, core.ModePeriod, DetectMode(eval))
}

func TestDetectModeTieBreaksToBurst(t *testing.T) {
	eval := map[string]interface{}{
		"burst_critical_enabled":  true,
		"period_critical_enabled": true,
	}
	assert.Equal(t, core.ModeBurst, DetectMode(eval))
}

func TestDetectModeNothingEnabled(t *testing.T) {
	assert.Equal(t, "", DetectMode(map[string]interface{}{}))
	assert.Equal(t, "", DetectMode(map[string]interface{}{"burst_critical_enabled": false}))
}

func TestDetectCategories(t *testing.T) {
	eval := map[string]interface{}{
		"burst_critical_enabled": true,
		"period_minor_enabled":   true,
		"burst_warning_enabled":  false,
	}
	assert.Equal(t, []string{"critical", "minor"}, DetectCategories(eval))
}

func TestExtractRule(t *testing.T) {
	def := map[string]interface{}{
		"name":            "ACPF.Daily.CpuUsageMax.percent",
		"metric":          "ACPF.Daily.CpuUsageMax.percent",
		"tag":             "cpu",
		"user_groups":     "ops",
		"resource":        []interface{}{},
		"threshold_group": []interface{}{map[string]interface{}{"source_id": "grp-1"}},
		"target_rule":     "omni_rule",
		"can_edit":        true,
		"owner":           "icpadmin",
		"update_time":     float64(1727173986963),
	}
	eval := map[string]interface{}{
		"period_critical_enabled":     true,
		"period_critical_lower_limit": "80.0",
		"period_critical_upper_limit": "0.0",
		"period_critical_occurrence":  3,
		"period_critical_time":        10800,
		"period_granularity":          1,
		"schedule":                    "business-hours",
		"active_until":                "No end date",
	}

	rule := ExtractRule(def, eval, core.ModePeriod, "critical")
	assert.Equal(t, "ACPF.Daily.CpuUsageMax.percent", rule.Name)
	assert.Equal(t, core.ModePeriod, rule.Mode)
	assert.Equal(t, "critical", rule.Category)
	assert.Equal(t, 80.0, rule.LowerLimit)
	assert.Equal(t, 0.0, rule.UpperLimit)
	assert.Equal(t, 3, rule.Occurrence)
	assert.Equal(t, 10800, rule.Time)
	assert.Equal(t, 1, rule.PeriodGranularity)
	assert.Equal(t, "business-hours", rule.Schedule)
	assert.Equal(t, "No end date", rule.ActiveUntil)
	assert.Equal(t, `[{"source_id":"grp-1"}]`, rule.ThresholdGroup)
	assert.Equal(t, "[]", rule.Resource)
	assert.Equal(t, int64(1727173986963), rule.UpdateTime)
	assert.True(t, rule.CanEdit)
}

func TestExtractRuleMalformedNumbersCoerceToZero(t *testing.T) {
	def := map[string]interface{}{"name": "r", "metric": "m"}
	eval := map[string]interface{}{
		"burst_major_lower_limit": "not-a-number",
		"burst_major_upper_limit": nil,
		"burst_major_occurrence":  "three",
	}

	rule := ExtractRule(def, eval, core.ModeBurst, "major")
	assert.Equal(t, 0.0, rule.LowerLimit)
	assert.Equal(t, 0.0, rule.UpperLimit)
	assert.Equal(t, 0, rule.Occurrence)
}

func TestFlattenDefinitionFanOut(t *testing.T) {
	def := map[string]interface{}{
		"name":   "fanout",
		"metric": "cpu.usage",
		"evaluations": []interface{}{
			map[string]interface{}{
				"burst_critical_enabled":     true,
				"burst_critical_upper_limit": "95",
				"burst_major_enabled":        true,
				"burst_major_upper_limit":    "90",
				"period_minor_enabled":       true,
				"burst_minor_upper_limit":    "85",
			},
		},
	}

	rules := FlattenDefinition(def, testLogger())
	// one rule per category whose burst OR period flag is enabled
	require.Len(t, rules, 3)
	assert.Equal(t, "critical", rules[0].Category)
	assert.Equal(t, "major", rules[1].Category)
	assert.Equal(t, "minor", rules[2].Category)
	for _, r := range rules {
		assert.Equal(t, core.ModeBurst, r.Mode)
	}
}

func TestFlattenDefinitionSkipsDisabledEvaluations(t *testing.T) {
	def := map[string]interface{}{
		"name":   "noop",
		"metric": "cpu.usage",
		"evaluations": []interface{}{
			map[string]interface{}{"burst_critical_enabled": false},
			map[string]interface{}{},
		},
	}

	rules := FlattenDefinition(def, testLogger())
	assert.Empty(t, rules)
}

func TestFlattenDefinitionSkipsLimitlessRules(t *testing.T) {
	def := map[string]interface{}{
		"name":   "partial",
		"metric": "cpu.usage",
		"evaluations": []interface{}{
			map[string]interface{}{
				"burst_critical_enabled":     true,
				"burst_critical_upper_limit": "90",
				"burst_major_enabled":        true,
				// major carries no limit; it would match every row
			},
		},
	}

	rules := FlattenDefinition(def, testLogger())
	require.Len(t, rules, 1)
	assert.Equal(t, "critical", rules[0].Category)
}

func TestFlattenDefinitionNoEvaluations(t *testing.T) {
	def := map[string]interface{}{"name": "empty", "metric": "m"}
	assert.Empty(t, FlattenDefinition(def, testLogger()))
}
