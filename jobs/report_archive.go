package jobs

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/bsm/redislock"
	"github.com/google/uuid"
	"github.com/hibiken/asynq"

	"github.com/mstarsupply/mstarsupply/internal/export"
	jobmetrics "github.com/mstarsupply/mstarsupply/internal/jobs"
	"github.com/mstarsupply/mstarsupply/internal/report"
	"github.com/mstarsupply/mstarsupply/internal/shared"
)

// DefaultArchiveLockTTL bounds how long one worker may hold a month.
const DefaultArchiveLockTTL = 2 * time.Minute

// DocumentSource renders the archived documents.
type DocumentSource interface {
	LedgerPDF(ctx context.Context, p report.Period) ([]byte, error)
	ManagementPDF(ctx context.Context, p report.Period) ([]byte, error)
	XLSX(ctx context.Context, p report.Period) ([]byte, error)
}

// ArchiveConfig wires dependencies required by the archive job.
type ArchiveConfig struct {
	Reports    DocumentSource
	Locker     *redislock.Client
	StorageDir string
	LockTTL    time.Duration
	Logger     *slog.Logger
	Metrics    *jobmetrics.Metrics
}

// ReportArchiveJob writes the monthly documents below StorageDir/YYYY-MM.
// A redis lock per month keeps two workers from rendering the same month.
type ReportArchiveJob struct {
	reports    DocumentSource
	locker     *redislock.Client
	storageDir string
	lockTTL    time.Duration
	logger     *slog.Logger
	metrics    *jobmetrics.Metrics
	clock      func() time.Time
	newID      func() string
}

// NewReportArchiveJob constructs the archive handler.
func NewReportArchiveJob(cfg ArchiveConfig) *ReportArchiveJob {
	ttl := cfg.LockTTL
	if ttl <= 0 {
		ttl = DefaultArchiveLockTTL
	}
	return &ReportArchiveJob{
		reports:    cfg.Reports,
		locker:     cfg.Locker,
		storageDir: cfg.StorageDir,
		lockTTL:    ttl,
		logger:     jobLogger(cfg.Logger, TaskReportArchive),
		metrics:    metricsOr(cfg.Metrics),
		clock:      func() time.Time { return time.Now().UTC() },
		newID:      uuid.NewString,
	}
}

type archivedDocument struct {
	variant report.Variant
	name    string
	build   func(context.Context, report.Period) ([]byte, error)
}

// Handle fulfils the asynq.HandlerFunc contract.
func (j *ReportArchiveJob) Handle(ctx context.Context, t *asynq.Task) (err error) {
	if j == nil || j.reports == nil || j.locker == nil {
		return errors.New("report archive: job not configured")
	}
	period, perr := decodePeriod(t, j.clock())
	if perr != nil {
		return asynq.SkipRetry
	}
	logger := j.logger.With(slog.Int("month", period.Month), slog.Int("year", period.Year))

	lock, err := j.locker.Obtain(ctx, shared.ArchiveLockKey(period.Year, period.Month), j.lockTTL, nil)
	if errors.Is(err, redislock.ErrNotObtained) {
		logger.Info("archive already running elsewhere")
		return nil
	}
	if err != nil {
		return fmt.Errorf("report archive: obtain lock: %w", err)
	}
	defer func() {
		if rerr := lock.Release(context.WithoutCancel(ctx)); rerr != nil && !errors.Is(rerr, redislock.ErrLockNotHeld) {
			logger.Warn("release archive lock", slog.Any("error", rerr))
		}
	}()

	tracker := j.metrics.Track(TaskReportArchive)
	defer func() { err = tracker.End(err) }()

	docs := []archivedDocument{
		{variant: report.VariantLedger, name: report.LedgerFileName(period), build: j.reports.LedgerPDF},
		{variant: report.VariantManagement, name: report.ManagementFileName(period), build: j.reports.ManagementPDF},
		{variant: report.VariantLedger, name: export.XLSXFileName(period.Month, period.Year), build: j.reports.XLSX},
	}
	paths := make([]string, 0, len(docs))
	for _, doc := range docs {
		body, err := doc.build(ctx, period)
		if err != nil {
			logger.Error("render archived document", slog.String("file", doc.name), slog.Any("error", err))
			return err
		}
		path, err := j.save(period, doc.name, body)
		if err != nil {
			return err
		}
		j.metrics.AddArchived(string(doc.variant), 1)
		paths = append(paths, path)
	}
	logger.Info("report archive written", slog.Any("files", paths))
	return nil
}

// save writes body under a unique name so repeated runs never overwrite an
// earlier archive.
func (j *ReportArchiveJob) save(period report.Period, name string, body []byte) (string, error) {
	dir := j.storageDir
	if strings.TrimSpace(dir) == "" {
		dir = filepath.Join(os.TempDir(), "mstarsupply-reports")
	}
	dir = filepath.Join(dir, fmt.Sprintf("%04d-%02d", period.Year, period.Month))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("report archive: %w", err)
	}
	path := filepath.Join(dir, j.newID()+"-"+name)
	if err := os.WriteFile(path, body, 0o644); err != nil {
		return "", fmt.Errorf("report archive: %w", err)
	}
	return path, nil
}
