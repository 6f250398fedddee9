// Package detect drives rule evaluation: it walks the active jobs each tick,
// compiles and runs their detection queries, verifies occurrence counts, and
// emits alarms. Per-rule failures are logged and audited; only connection
// loss propagates to the caller.
package detect

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"

	"kpialarm/compile"
	"kpialarm/core"
	"kpialarm/groupdsl"
	"kpialarm/metrics"
	"kpialarm/storage"
)

// candidate is one fact row returned by a detection query.
type candidate struct {
	RecordID    string
	Timestamp   time.Time
	MetricValue string
}

// Summary reports one detection pass.
type Summary struct {
	Total        int
	Succeeded    int
	Failed       int
	AlarmsRaised int
}

// Processor executes all active rules against their fact tables.
type Processor struct {
	db        *sql.DB
	rules     *storage.RuleStorage
	groups    *storage.GroupStorage
	schedules *storage.ScheduleStorage
	alarms    *storage.AlarmStorage
	audit     *storage.AuditStorage
	logger    *zap.SugaredLogger
}

// NewProcessor creates a new rule processor.
func NewProcessor(db *sql.DB, rules *storage.RuleStorage, groups *storage.GroupStorage,
	schedules *storage.ScheduleStorage, alarms *storage.AlarmStorage,
	audit *storage.AuditStorage, logger *zap.SugaredLogger) *Processor {
	return &Processor{
		db:        db,
		rules:     rules,
		groups:    groups,
		schedules: schedules,
		alarms:    alarms,
		audit:     audit,
		logger:    logger,
	}
}

// RunOnce executes every active rule once against rows created since its
// watermark. Each attempted rule leaves an audit row; a failed rule keeps its
// old watermark so the next pass re-reads the same window.
func (p *Processor) RunOnce(ctx context.Context, now time.Time) (Summary, error) {
	jobs, err := p.rules.ListActiveJobs()
	if err != nil {
		return Summary{}, fmt.Errorf("failed to list active jobs: %w", err)
	}

	summary := Summary{Total: len(jobs)}
	for i := range jobs {
		job := &jobs[i]
		raised, err := p.processJob(ctx, job, now)
		if err != nil {
			p.logger.Errorf("Rule %d (%s on %s) failed: %v",
				job.ThresholdID, job.MetricName, job.TableName, err)
			metrics.RulesExecuted.WithLabelValues("failure").Inc()
			summary.Failed++
			continue
		}
		metrics.RulesExecuted.WithLabelValues("success").Inc()
		summary.Succeeded++
		summary.AlarmsRaised += raised
	}

	p.logger.Infof("Detection pass complete: %d rules, %d succeeded, %d failed, %d alarms raised",
		summary.Total, summary.Succeeded, summary.Failed, summary.AlarmsRaised)
	return summary, nil
}

// processJob compiles and runs one rule, returning the number of alarms
// raised.
func (p *Processor) processJob(ctx context.Context, job *core.Job, now time.Time) (int, error) {
	opts := compile.DetectionOptions{Watermark: job.ExecutionDatetime, Now: now}

	groupExists, err := p.resolveGroup(job)
	if err != nil {
		p.auditFailure(job, "", err)
		return 0, err
	}
	opts.GroupExists = groupExists

	schedule, err := p.resolveSchedule(job, now)
	if err != nil {
		p.auditFailure(job, "", err)
		return 0, err
	}
	opts.Schedule = schedule

	query := compile.DetectionSQL(job, opts)

	start := time.Now()
	candidates, err := p.runDetection(ctx, job, query)
	metrics.DetectionQueryDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		p.auditFailure(job, query, err)
		return 0, err
	}

	if err := p.audit.Upsert(&core.ExecutionResult{
		Job:               *job,
		GeneratedSQL:      query,
		RecordCount:       len(candidates),
		ExecutionDatetime: now,
	}); err != nil {
		return 0, err
	}

	raised := 0
	for _, c := range candidates {
		if p.emitAlarm(ctx, job, c) {
			raised++
		}
	}
	return raised, nil
}

// resolveGroup compiles the rule's first resource-group reference into an
// EXISTS body. Rules without a group reference return empty.
func (p *Processor) resolveGroup(job *core.Job) (string, error) {
	if job.ThresholdGroup == "" {
		return "", nil
	}

	var refs []core.GroupRef
	if err := json.Unmarshal([]byte(job.ThresholdGroup), &refs); err != nil {
		return "", fmt.Errorf("failed to unmarshal threshold group: %w", err)
	}
	if len(refs) == 0 || refs[0].SourceID == "" {
		return "", nil
	}

	condition, err := p.groups.GetCondition(refs[0].SourceID)
	if err != nil {
		return "", err
	}

	parsed, err := groupdsl.Parse(condition)
	if err != nil {
		return "", fmt.Errorf("failed to parse group condition %q: %w", condition, err)
	}

	exists, _ := groupdsl.CompileExists(parsed, job.Pivoted())
	return exists, nil
}

// resolveSchedule renders the rule's schedule window. Rules without a
// schedule return empty; an unknown timezone inside a known schedule also
// degrades to unconstrained.
func (p *Processor) resolveSchedule(job *core.Job, now time.Time) (string, error) {
	if job.Schedule == "" {
		return "", nil
	}

	periods, tz, err := p.schedules.GetSchedule(job.Schedule)
	if err != nil {
		return "", err
	}

	window, err := compile.ScheduleWindow(periods, tz, now)
	if err != nil {
		p.logger.Warnf("Schedule %q unusable, running unconstrained: %v", job.Schedule, err)
		return "", nil
	}
	return window, nil
}

// runDetection executes the detection query and scans candidates. Pivoted
// tables return four columns, column-wide tables three.
func (p *Processor) runDetection(ctx context.Context, job *core.Job, query string) ([]candidate, error) {
	rows, err := p.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to execute detection query: %w", err)
	}
	defer rows.Close()

	var candidates []candidate
	for rows.Next() {
		var c candidate
		if job.Pivoted() {
			var metricName string
			err = rows.Scan(&c.RecordID, &c.Timestamp, &metricName, &c.MetricValue)
		} else {
			err = rows.Scan(&c.RecordID, &c.Timestamp, &c.MetricValue)
		}
		if err != nil {
			return nil, fmt.Errorf("failed to scan detection row: %w", err)
		}
		candidates = append(candidates, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate detection rows: %w", err)
	}

	return candidates, nil
}

// emitAlarm verifies occurrence for one candidate and inserts the alarm.
// Returns true when an alarm was raised.
func (p *Processor) emitAlarm(ctx context.Context, job *core.Job, c candidate) bool {
	occurrenceCount := 1
	if job.Occurrence > 1 {
		verified, err := p.verifyOccurrence(ctx, job, c)
		if err != nil {
			p.logger.Warnf("Occurrence verification failed for %s at %s, skipping candidate: %v",
				c.RecordID, c.Timestamp, err)
			return false
		}
		if !verified {
			return false
		}
		occurrenceCount = job.Occurrence
	}

	severity := core.SeverityForCategory(job.Category)
	alarm := &core.Alarm{
		AlarmID:         core.NewAlarmID(),
		ThresholdID:     job.ThresholdID,
		TableName:       job.TableName,
		MetricName:      job.MetricName,
		RecordID:        c.RecordID,
		RecordTimestamp: c.Timestamp,
		MetricValue:     c.MetricValue,
		LowerLimit:      job.LowerLimit,
		UpperLimit:      job.UpperLimit,
		OccurrenceCount: occurrenceCount,
		Severity:        severity,
		Status:          core.AlarmStatusActive,
		Message:         core.AlarmMessage(job.TableName, job.MetricName, c.RecordID, c.MetricValue, occurrenceCount),
	}

	if err := p.alarms.InsertAlarm(alarm); err != nil {
		p.logger.Errorf("Failed to insert alarm for %s at %s: %v", c.RecordID, c.Timestamp, err)
		metrics.AlarmInsertFailures.Inc()
		return false
	}

	metrics.AlarmsRaised.WithLabelValues(severity.String()).Inc()
	p.logger.Infof("Raised %s alarm %s for %s=%s on %s",
		severity, alarm.AlarmID, job.MetricName, c.MetricValue, c.RecordID)
	return true
}

// verifyOccurrence checks that the occurrence-1 prior samples in the
// candidate's stream also violated the limits.
func (p *Processor) verifyOccurrence(ctx context.Context, job *core.Job, c candidate) (bool, error) {
	query := compile.OccurrenceSQL(job, c.RecordID, compile.SQLTimestamp(c.Timestamp))

	var cnt int
	if err := p.db.QueryRowContext(ctx, query).Scan(&cnt); err != nil {
		return false, fmt.Errorf("failed to run occurrence lookback: %w", err)
	}
	return cnt > 0, nil
}

// auditFailure records the attempt without advancing the watermark.
func (p *Processor) auditFailure(job *core.Job, query string, cause error) {
	err := p.audit.Upsert(&core.ExecutionResult{
		Job:               *job,
		GeneratedSQL:      query,
		RecordCount:       0,
		ExecutionDatetime: job.ExecutionDatetime,
		Err:               cause,
	})
	if err != nil {
		p.logger.Errorf("Failed to audit rule %d failure: %v", job.ThresholdID, err)
	}
}
