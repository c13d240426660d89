package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mstarsupply/mstarsupply/jobs"
)

type stubEnqueuer struct {
	warmups  []jobs.PeriodPayload
	archives []jobs.PeriodPayload
	closed   bool
}

func (s *stubEnqueuer) EnqueueWarmup(_ context.Context, p jobs.PeriodPayload) (*asynq.TaskInfo, error) {
	s.warmups = append(s.warmups, p)
	return &asynq.TaskInfo{ID: "w1", Type: jobs.TaskReportWarmup, Queue: jobs.QueueDefault}, nil
}

func (s *stubEnqueuer) EnqueueArchive(_ context.Context, p jobs.PeriodPayload) (*asynq.TaskInfo, error) {
	s.archives = append(s.archives, p)
	return &asynq.TaskInfo{ID: "a1", Type: jobs.TaskReportArchive, Queue: jobs.QueueDefault}, nil
}

func (s *stubEnqueuer) Close() error {
	s.closed = true
	return nil
}

type stubInspector struct {
	info      *asynq.QueueInfo
	scheduled []*asynq.TaskInfo
	err       error
}

func (s *stubInspector) GetQueueInfo(string) (*asynq.QueueInfo, error) { return s.info, s.err }

func (s *stubInspector) ListScheduledTasks(string, ...asynq.ListOption) ([]*asynq.TaskInfo, error) {
	return s.scheduled, s.err
}

func (s *stubInspector) Close() error { return nil }

func run(c *JobsCLI, args ...string) (int, string, string) {
	stdout, stderr := new(bytes.Buffer), new(bytes.Buffer)
	code := c.JobsCommand(context.Background(), args, CommandOptions{Stdout: stdout, Stderr: stderr})
	return code, stdout.String(), stderr.String()
}

func TestTriggerArchiveWithPeriod(t *testing.T) {
	enq := &stubEnqueuer{}
	c := NewJobsCLIWith(enq, &stubInspector{})

	code, out, _ := run(c, "trigger", jobs.TaskReportArchive, "-month", "3", "-year", "2024")
	require.Equal(t, 0, code)
	assert.Contains(t, out, "enqueued report:archive id=a1")
	assert.Equal(t, []jobs.PeriodPayload{{Month: 3, Year: 2024}}, enq.archives)

	code, _, _ = run(c, "trigger", jobs.TaskReportWarmup)
	require.Equal(t, 0, code)
	assert.Equal(t, []jobs.PeriodPayload{{}}, enq.warmups)

	require.NoError(t, c.Close())
	assert.True(t, enq.closed)
}

func TestTriggerRejectsBadInput(t *testing.T) {
	c := NewJobsCLIWith(&stubEnqueuer{}, &stubInspector{})

	code, _, stderr := run(c, "trigger", "payroll")
	assert.Equal(t, 1, code)
	assert.Contains(t, stderr, "unsupported job payroll")

	code, _, stderr = run(c, "trigger", jobs.TaskReportArchive, "-month", "3")
	assert.Equal(t, 2, code)
	assert.Contains(t, stderr, "must be given together")

	code, _, _ = run(c)
	assert.Equal(t, 2, code)
}

func TestStatsCommand(t *testing.T) {
	insp := &stubInspector{info: &asynq.QueueInfo{Pending: 4, Retry: 1}}
	c := NewJobsCLIWith(&stubEnqueuer{}, insp)

	code, out, _ := run(c, "stats", "-json")
	require.Equal(t, 0, code)
	var stats QueueStats
	require.NoError(t, json.Unmarshal([]byte(out), &stats))
	assert.Equal(t, QueueStats{Queue: jobs.QueueDefault, Pending: 4, Retry: 1}, stats)

	code, out, _ = run(c, "stats")
	require.Equal(t, 0, code)
	assert.Equal(t, "queue default: pending=4 active=0 scheduled=0 retry=1\n", out)

	insp.err = errors.New("dial tcp: refused")
	code, _, stderr := run(c, "stats")
	assert.Equal(t, 1, code)
	assert.Contains(t, stderr, "refused")
}

func TestScheduledCommand(t *testing.T) {
	next := time.Date(2024, time.April, 1, 3, 0, 0, 0, time.UTC)
	insp := &stubInspector{}
	c := NewJobsCLIWith(&stubEnqueuer{}, insp)

	code, out, _ := run(c, "scheduled")
	require.Equal(t, 0, code)
	assert.Equal(t, "no scheduled tasks\n", out)

	insp.scheduled = []*asynq.TaskInfo{{ID: "t1", Type: jobs.TaskReportArchive, NextProcessAt: next}}
	code, out, _ = run(c, "scheduled", "-size", "5")
	require.Equal(t, 0, code)
	assert.Equal(t, "t1 report:archive next=2024-04-01 03:00:00\n", out)
}
