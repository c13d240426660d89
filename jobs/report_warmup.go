package jobs

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	jobmetrics "github.com/mstarsupply/mstarsupply/internal/jobs"
	"github.com/mstarsupply/mstarsupply/internal/report"
)

var defaultJobMetrics = jobmetrics.NewMetrics(nil)

// SnapshotWarmer loads a period through the report cache.
type SnapshotWarmer interface {
	Summary(ctx context.Context, p report.Period) (report.Summary, error)
}

// ReportWarmupJob pre-populates the report cache for a period.
type ReportWarmupJob struct {
	Reports SnapshotWarmer
	Logger  *slog.Logger
	Metrics *jobmetrics.Metrics
	clock   func() time.Time
}

// NewReportWarmupJob wires dependencies for the warmup handler.
func NewReportWarmupJob(reports SnapshotWarmer, logger *slog.Logger, metrics *jobmetrics.Metrics) *ReportWarmupJob {
	return &ReportWarmupJob{Reports: reports, Logger: logger, Metrics: metrics}
}

// Handle processes report warmup tasks.
func (j *ReportWarmupJob) Handle(ctx context.Context, t *asynq.Task) (err error) {
	if j == nil || j.Reports == nil {
		return errors.New("report warmup: handler not configured")
	}
	period, perr := decodePeriod(t, j.now())
	if perr != nil {
		return asynq.SkipRetry
	}

	tracker := metricsOr(j.Metrics).Track(TaskReportWarmup)
	defer func() { err = tracker.End(err) }()

	logger := jobLogger(j.Logger, TaskReportWarmup).With(slog.Int("month", period.Month), slog.Int("year", period.Year))
	start := time.Now()
	summary, err := j.Reports.Summary(ctx, period)
	if err != nil {
		logger.Error("warm report snapshot", slog.Any("error", err))
		return err
	}
	logger.Info("report snapshot warmed", slog.Int("rows", len(summary.Rows)), slog.Duration("duration", time.Since(start)))
	return nil
}

func (j *ReportWarmupJob) now() time.Time {
	if j.clock != nil {
		return j.clock()
	}
	return time.Now().UTC()
}

func jobLogger(logger *slog.Logger, job string) *slog.Logger {
	if logger == nil {
		logger = slog.Default()
	}
	return logger.With(slog.String("job", job))
}

func metricsOr(m *jobmetrics.Metrics) *jobmetrics.Metrics {
	if m != nil {
		return m
	}
	return defaultJobMetrics
}
