// Package ingest flattens semi-structured threshold definition documents
// into normalized rule rows. A definition carries a list of evaluation
// records whose ~60 keys are concatenations of {mode}_{category}_{property};
// each enabled (mode, category) pair becomes one rule.
package ingest

import (
	"encoding/json"
	"fmt"
	"strconv"

	"go.uber.org/zap"

	"kpialarm/core"
)

// properties read under each {mode}_{category}_ prefix
var evaluationProperties = []string{
	"enabled", "lower_limit", "upper_limit", "occurrence",
	"clear_occurrence", "clear_time", "time", "mode",
}

// evaluation-level scalars that are not prefix-derived
var evaluationScalars = []string{
	"schedule", "schedule_desc", "period_granularity", "active_until",
	"burst_enabled", "period_enabled", "baseline_enabled",
	"burst_generate_event", "period_generate_event", "burst_reset_time",
}

// knownEvaluationKeys is the fixed schema of an evaluation record; anything
// outside it is discarded with a warning.
var knownEvaluationKeys = buildKnownKeys()

func buildKnownKeys() map[string]struct{} {
	keys := make(map[string]struct{})
	for _, mode := range []string{core.ModeBurst, core.ModePeriod} {
		for _, category := range core.Categories {
			for _, prop := range evaluationProperties {
				keys[fmt.Sprintf("%s_%s_%s", mode, category, prop)] = struct{}{}
			}
		}
	}
	for _, k := range evaluationScalars {
		keys[k] = struct{}{}
	}
	return keys
}

// DetectMode determines the dominant evaluation mode from the enabled flags.
// When both sides carry enabled categories the side with more wins, ties
// break to burst. Returns the empty string when nothing is enabled.
func DetectMode(eval map[string]interface{}) string {
	burstCount := 0
	periodCount := 0
	for _, category := range core.Categories {
		if boolValue(eval[fmt.Sprintf("burst_%s_enabled", category)]) {
			burstCount++
		}
		if boolValue(eval[fmt.Sprintf("period_%s_enabled", category)]) {
			periodCount++
		}
	}

	switch {
	case burstCount > 0 && periodCount > 0:
		if burstCount >= periodCount {
			return core.ModeBurst
		}
		return core.ModePeriod
	case burstCount > 0:
		return core.ModeBurst
	case periodCount > 0:
		return core.ModePeriod
	default:
		return ""
	}
}

// DetectCategories returns every category enabled on either side, in the
// canonical category order.
func DetectCategories(eval map[string]interface{}) []string {
	var categories []string
	for _, category := range core.Categories {
		burst := boolValue(eval[fmt.Sprintf("burst_%s_enabled", category)])
		period := boolValue(eval[fmt.Sprintf("period_%s_enabled", category)])
		if burst || period {
			categories = append(categories, category)
		}
	}
	return categories
}

// ExtractRule builds one normalized rule row for a (mode, category) pair by
// reading the prefixed evaluation keys and stamping the definition-level
// scalars onto it. Malformed numeric strings coerce to zero.
func ExtractRule(def, eval map[string]interface{}, mode, category string) core.Rule {
	prefix := fmt.Sprintf("%s_%s", mode, category)

	return core.Rule{
		Name:              stringValue(def["name"]),
		Metric:            stringValue(def["metric"]),
		Mode:              mode,
		Category:          category,
		LowerLimit:        floatValue(eval[prefix+"_lower_limit"]),
		UpperLimit:        floatValue(eval[prefix+"_upper_limit"]),
		Occurrence:        intValue(eval[prefix+"_occurrence"]),
		ClearOccurrence:   intValue(eval[prefix+"_clear_occurrence"]),
		ClearTime:         intValue(eval[prefix+"_clear_time"]),
		Time:              intValue(eval[prefix+"_time"]),
		ActiveUntil:       stringValue(eval["active_until"]),
		PeriodGranularity: intValue(eval["period_granularity"]),
		Schedule:          stringValue(eval["schedule"]),
		Tag:               stringValue(def["tag"]),
		UserGroups:        stringValue(def["user_groups"]),
		Resource:          jsonText(def["resource"]),
		ThresholdGroup:    jsonText(def["threshold_group"]),
		TargetRule:        stringValue(def["target_rule"]),
		CanEdit:           boolValue(def["can_edit"]),
		Owner:             stringValue(def["owner"]),
		UpdateTime:        int64Value(def["update_time"]),
	}
}

// FlattenDefinition extracts every rule row from one definition document.
// Evaluations without a detectable mode or without any enabled category are
// skipped with a warning, as are enabled pairs carrying no limit at all.
func FlattenDefinition(def map[string]interface{}, logger *zap.SugaredLogger) []core.Rule {
	var rules []core.Rule

	evaluations, _ := def["evaluations"].([]interface{})
	for i, raw := range evaluations {
		eval, ok := raw.(map[string]interface{})
		if !ok {
			logger.Warnf("Evaluation %d of %q is not an object, skipping", i, stringValue(def["name"]))
			continue
		}

		warnUnknownKeys(eval, logger)

		mode := DetectMode(eval)
		if mode == "" {
			logger.Warnf("No valid mode detected for evaluation %d of %q, skipping", i, stringValue(def["name"]))
			continue
		}

		categories := DetectCategories(eval)
		if len(categories) == 0 {
			logger.Warnf("No enabled categories for evaluation %d of %q, skipping", i, stringValue(def["name"]))
			continue
		}

		for _, category := range categories {
			rule := ExtractRule(def, eval, mode, category)
			if !rule.HasLowerLimit() && !rule.HasUpperLimit() {
				// without a limit the detection predicate would match every row
				logger.Warnf("No limits set for %s %s of %q, skipping", mode, category, rule.Name)
				continue
			}
			rules = append(rules, rule)
			logger.Infof("Extracted rule: %s %s - %s", category, mode, rule.Name)
		}
	}

	return rules
}

// warnUnknownKeys flags evaluation keys outside the fixed schema.
func warnUnknownKeys(eval map[string]interface{}, logger *zap.SugaredLogger) {
	for key := range eval {
		if _, ok := knownEvaluationKeys[key]; !ok {
			logger.Warnf("Discarding unknown evaluation key %q", key)
		}
	}
}

// boolValue coerces a document value to bool.
func boolValue(v interface{}) bool {
	b, _ := v.(bool)
	return b
}

// stringValue coerces a document value to string.
func stringValue(v interface{}) string {
	s, _ := v.(string)
	return s
}

// floatValue coerces a document value to float64; malformed input yields 0.0.
func floatValue(v interface{}) float64 {
	switch t := v.(type) {
	case float64:
		return t
	case int:
		return float64(t)
	case int64:
		return float64(t)
	case string:
		f, err := strconv.ParseFloat(t, 64)
		if err != nil {
			return 0.0
		}
		return f
	default:
		return 0.0
	}
}

// intValue coerces a document value to int; malformed input yields 0.
func intValue(v interface{}) int {
	switch t := v.(type) {
	case int:
		return t
	case int64:
		return int(t)
	case float64:
		return int(t)
	case string:
		n, err := strconv.Atoi(t)
		if err != nil {
			return 0
		}
		return n
	default:
		return 0
	}
}

// int64Value coerces a document value to int64 (epoch-millisecond fields).
func int64Value(v interface{}) int64 {
	switch t := v.(type) {
	case int:
		return int64(t)
	case int64:
		return t
	case float64:
		return int64(t)
	case string:
		n, err := strconv.ParseInt(t, 10, 64)
		if err != nil {
			return 0
		}
		return n
	default:
		return 0
	}
}

// jsonText serializes list- or object-valued scalars to JSON text for
// persistence; plain strings pass through.
func jsonText(v interface{}) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	default:
		data, err := json.Marshal(t)
		if err != nil {
			return ""
		}
		return string(data)
	}
}
