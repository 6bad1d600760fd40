package tasks

import (
	"context"
	"fmt"

	"github.com/lysyi3m/rss-relay/app/pipeline"
)

type CycleRunner interface {
	RunCycle(ctx context.Context) pipeline.CycleResult
}

// RunCycleTask runs one fetch and deliver cycle.
type RunCycleTask struct {
	Task
	runner CycleRunner
	Result *pipeline.CycleResult
}

func NewRunCycleTask(runner CycleRunner, trigger string) *RunCycleTask {
	return &RunCycleTask{
		Task:   NewTask(TaskTypeRunCycle, trigger),
		runner: runner,
	}
}

func (t *RunCycleTask) Execute(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	result := t.runner.RunCycle(ctx)
	t.Result = &result

	if result.Aborted {
		return fmt.Errorf("cycle %s aborted after %d sent: %w", result.ID, result.Sent, context.Cause(ctx))
	}
	return nil
}
