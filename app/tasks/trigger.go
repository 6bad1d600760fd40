package tasks

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
)

// Trigger fires the scheduler's ticks.
type Trigger interface {
	// Run calls fire on every tick until ctx is done.
	Run(ctx context.Context, fire func(at time.Time))
	// Next returns when the tick after prev is due.
	Next(prev time.Time) time.Time
	String() string
}

type IntervalTrigger struct {
	Interval time.Duration
}

func NewIntervalTrigger(interval time.Duration) *IntervalTrigger {
	return &IntervalTrigger{Interval: interval}
}

func (t *IntervalTrigger) Run(ctx context.Context, fire func(at time.Time)) {
	ticker := time.NewTicker(t.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case at := <-ticker.C:
			fire(at)
		}
	}
}

func (t *IntervalTrigger) Next(prev time.Time) time.Time {
	return prev.Add(t.Interval)
}

func (t *IntervalTrigger) String() string {
	return "every " + t.Interval.String()
}

var cronParser = cron.NewParser(
	cron.Second | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor,
)

// CronTrigger fires on a six-field (seconds first) cron expression, e.g.
// "0 */15 * * * *".
type CronTrigger struct {
	expr     string
	schedule cron.Schedule
	location *time.Location
}

func NewCronTrigger(expr string, location *time.Location) (*CronTrigger, error) {
	schedule, err := cronParser.Parse(expr)
	if err != nil {
		return nil, fmt.Errorf("invalid cron schedule %q: %w", expr, err)
	}
	if location == nil {
		location = time.UTC
	}
	if spec, ok := schedule.(*cron.SpecSchedule); ok && !hasTZPrefix(expr) {
		spec.Location = location
	}
	return &CronTrigger{expr: expr, schedule: schedule, location: location}, nil
}

func (t *CronTrigger) Run(ctx context.Context, fire func(at time.Time)) {
	c := cron.New(cron.WithSeconds(), cron.WithLocation(t.location))
	c.Schedule(t.schedule, cron.FuncJob(func() {
		fire(time.Now())
	}))

	c.Start()
	<-ctx.Done()
	<-c.Stop().Done()
}

func (t *CronTrigger) Next(prev time.Time) time.Time {
	return t.schedule.Next(prev.In(t.location))
}

func (t *CronTrigger) String() string {
	return "cron " + t.expr
}

func hasTZPrefix(expr string) bool {
	return strings.HasPrefix(expr, "TZ=") || strings.HasPrefix(expr, "CRON_TZ=")
}
