package jobs

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/hibiken/asynq"

	"github.com/mstarsupply/mstarsupply/internal/report"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskReportWarmup loads a period snapshot into the report cache.
	TaskReportWarmup = "report:warmup"
	// TaskReportArchive renders the monthly documents to disk.
	TaskReportArchive = "report:archive"
)

// PeriodPayload selects the month a report task works on. A zero month
// means the month before the run.
type PeriodPayload struct {
	Month int `json:"month"`
	Year  int `json:"year"`
}

// Resolve returns the period, defaulting to the previous month of now.
func (p PeriodPayload) Resolve(now time.Time) (report.Period, error) {
	if p.Month == 0 && p.Year == 0 {
		prev := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC).AddDate(0, -1, 0)
		return report.Period{Month: int(prev.Month()), Year: prev.Year()}, nil
	}
	period := report.Period{Month: p.Month, Year: p.Year}
	if err := period.Validate(); err != nil {
		return report.Period{}, err
	}
	return period, nil
}

// NewReportWarmupTask constructs a warmup task.
func NewReportWarmupTask(payload PeriodPayload) (*asynq.Task, error) {
	return newPeriodTask(TaskReportWarmup, payload)
}

// NewReportArchiveTask constructs an archive task.
func NewReportArchiveTask(payload PeriodPayload) (*asynq.Task, error) {
	return newPeriodTask(TaskReportArchive, payload)
}

func newPeriodTask(taskType string, payload PeriodPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("jobs: encode %s payload: %w", taskType, err)
	}
	return asynq.NewTask(taskType, data), nil
}

func decodePeriod(t *asynq.Task, now time.Time) (report.Period, error) {
	var payload PeriodPayload
	if len(t.Payload()) > 0 {
		if err := json.Unmarshal(t.Payload(), &payload); err != nil {
			return report.Period{}, err
		}
	}
	return payload.Resolve(now)
}
