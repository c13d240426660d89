package cli

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/mstarsupply/mstarsupply/jobs"
)

// CommandOptions carries the output streams of a command run.
type CommandOptions struct {
	Stdout io.Writer
	Stderr io.Writer
}

func (o *CommandOptions) defaults() {
	if o.Stdout == nil {
		o.Stdout = os.Stdout
	}
	if o.Stderr == nil {
		o.Stderr = os.Stderr
	}
}

const jobsUsage = `usage:
  mstarctl jobs trigger <report:warmup|report:archive> [-month M -year Y]
  mstarctl jobs stats [-json]
  mstarctl jobs scheduled [-size N]`

// JobsCommand dispatches "jobs" subcommands and returns the process exit code.
func (c *JobsCLI) JobsCommand(ctx context.Context, args []string, opts CommandOptions) int {
	opts.defaults()
	if len(args) == 0 {
		_, _ = fmt.Fprintln(opts.Stderr, jobsUsage)
		return 2
	}
	switch args[0] {
	case "trigger":
		return c.triggerCommand(ctx, args[1:], opts)
	case "stats":
		return c.statsCommand(ctx, args[1:], opts)
	case "scheduled":
		return c.scheduledCommand(ctx, args[1:], opts)
	default:
		_, _ = fmt.Fprintf(opts.Stderr, "jobs: unknown subcommand %q\n%s\n", args[0], jobsUsage)
		return 2
	}
}

func (c *JobsCLI) triggerCommand(ctx context.Context, args []string, opts CommandOptions) int {
	fs := flag.NewFlagSet("jobs trigger", flag.ContinueOnError)
	fs.SetOutput(opts.Stderr)
	month := fs.Int("month", 0, "report month (1-12), defaults to the previous month")
	year := fs.Int("year", 0, "report year")
	if len(args) == 0 {
		_, _ = fmt.Fprintln(opts.Stderr, "jobs trigger: job name is required")
		return 2
	}
	name := args[0]
	if err := fs.Parse(args[1:]); err != nil {
		return 2
	}
	if (*month == 0) != (*year == 0) {
		_, _ = fmt.Fprintln(opts.Stderr, "jobs trigger: -month and -year must be given together")
		return 2
	}
	info, err := c.Trigger(ctx, name, jobs.PeriodPayload{Month: *month, Year: *year})
	if err != nil {
		_, _ = fmt.Fprintf(opts.Stderr, "jobs trigger: %v\n", err)
		return 1
	}
	_, _ = fmt.Fprintf(opts.Stdout, "enqueued %s id=%s queue=%s\n", info.Type, info.ID, info.Queue)
	return 0
}

func (c *JobsCLI) statsCommand(ctx context.Context, args []string, opts CommandOptions) int {
	fs := flag.NewFlagSet("jobs stats", flag.ContinueOnError)
	fs.SetOutput(opts.Stderr)
	asJSON := fs.Bool("json", false, "print JSON")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	stats, err := c.InspectQueue(ctx)
	if err != nil {
		_, _ = fmt.Fprintf(opts.Stderr, "jobs stats: %v\n", err)
		return 1
	}
	if *asJSON {
		if err := json.NewEncoder(opts.Stdout).Encode(stats); err != nil {
			_, _ = fmt.Fprintf(opts.Stderr, "jobs stats: encode json: %v\n", err)
			return 1
		}
		return 0
	}
	_, _ = fmt.Fprintf(opts.Stdout, "queue %s: pending=%d active=%d scheduled=%d retry=%d\n",
		stats.Queue, stats.Pending, stats.Active, stats.Scheduled, stats.Retry)
	return 0
}

func (c *JobsCLI) scheduledCommand(ctx context.Context, args []string, opts CommandOptions) int {
	fs := flag.NewFlagSet("jobs scheduled", flag.ContinueOnError)
	fs.SetOutput(opts.Stderr)
	size := fs.Int("size", 10, "page size")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	tasks, err := c.ListScheduled(ctx, *size)
	if err != nil {
		_, _ = fmt.Fprintf(opts.Stderr, "jobs scheduled: %v\n", err)
		return 1
	}
	if len(tasks) == 0 {
		_, _ = fmt.Fprintln(opts.Stdout, "no scheduled tasks")
		return 0
	}
	for _, t := range tasks {
		_, _ = fmt.Fprintf(opts.Stdout, "%s %s next=%s\n", t.ID, t.Type, t.NextProcessAt.Format("2006-01-02 15:04:05"))
	}
	return 0
}
