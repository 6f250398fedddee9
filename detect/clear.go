package detect

import (
	"context"

	"go.uber.org/zap"

	"kpialarm/compile"
	"kpialarm/core"
	"kpialarm/metrics"
	"kpialarm/storage"
)

// ClearSummary reports one clear pass.
type ClearSummary struct {
	Total     int
	Processed int
	Cleared   int
	Failed    int
	Errors    []string
}

// ClearProcessor walks ACTIVE alarms and clears those whose resource has a
// newer sample strictly inside the limits. It observes only alarms committed
// before the pass started.
type ClearProcessor struct {
	alarms *storage.AlarmStorage
	logger *zap.SugaredLogger
}

// NewClearProcessor creates a new clear processor.
func NewClearProcessor(alarms *storage.AlarmStorage, logger *zap.SugaredLogger) *ClearProcessor {
	return &ClearProcessor{alarms: alarms, logger: logger}
}

// Run performs one clear pass. A per-alarm failure leaves the alarm ACTIVE
// and processing continues.
func (cp *ClearProcessor) Run(ctx context.Context) (ClearSummary, error) {
	active, err := cp.alarms.ListActive()
	if err != nil {
		return ClearSummary{}, err
	}

	summary := ClearSummary{Total: len(active)}
	for i := range active {
		if ctx.Err() != nil {
			return summary, ctx.Err()
		}

		alarm := &active[i]
		summary.Processed++

		cleared, err := cp.clearOne(alarm)
		if err != nil {
			cp.logger.Errorf("Failed to clear alarm %s: %v", alarm.AlarmID, err)
			summary.Failed++
			summary.Errors = append(summary.Errors, alarm.AlarmID+": "+err.Error())
			continue
		}
		if cleared {
			summary.Cleared++
			metrics.AlarmsCleared.Inc()
			cp.logger.Infof("Cleared alarm %s (%s on %s)",
				alarm.AlarmID, alarm.MetricName, alarm.RecordID)
		}
	}

	cp.logger.Infof("Clear pass complete: %d active, %d cleared, %d failed",
		summary.Total, summary.Cleared, summary.Failed)
	return summary, nil
}

func (cp *ClearProcessor) clearOne(alarm *core.Alarm) (bool, error) {
	return cp.alarms.ExecClear(compile.ClearSQL(alarm))
}
