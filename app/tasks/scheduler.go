package tasks

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"
)

const DefaultTaskTimeout = 10 * time.Minute

// ErrQueueFull means a cycle is already pending; the new one was coalesced.
var ErrQueueFull = errors.New("task queue is full")

var _ TaskSchedulerInterface = (*Scheduler)(nil)

type Options struct {
	RunOnStartup bool
	TaskTimeout  time.Duration
}

// Scheduler feeds cycle tasks from a trigger to a single worker. The queue
// holds at most one pending task so ticks arriving during a long cycle
// collapse into one follow-up run.
type Scheduler struct {
	runner       CycleRunner
	trigger      Trigger
	runOnStartup bool
	taskTimeout  time.Duration
	ctx          context.Context
	cancel       context.CancelFunc
	wg           sync.WaitGroup
	taskQueue    chan TaskInterface

	tickMu   sync.Mutex
	lastTick time.Time
}

func NewScheduler(runner CycleRunner, trigger Trigger, opts Options) *Scheduler {
	ctx, cancel := context.WithCancel(context.Background())

	if opts.TaskTimeout <= 0 {
		opts.TaskTimeout = DefaultTaskTimeout
	}

	return &Scheduler{
		runner:       runner,
		trigger:      trigger,
		runOnStartup: opts.RunOnStartup,
		taskTimeout:  opts.TaskTimeout,
		ctx:          ctx,
		cancel:       cancel,
		taskQueue:    make(chan TaskInterface, 1),
	}
}

func (s *Scheduler) Start() {
	s.wg.Add(1)
	go s.worker()

	if s.runOnStartup {
		s.enqueue(TriggerStartup)
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()

		s.tickMu.Lock()
		s.lastTick = time.Now()
		s.tickMu.Unlock()

		s.trigger.Run(s.ctx, s.onTick)
	}()

	slog.Info("Scheduler started", "trigger", s.trigger.String(), "run_on_startup", s.runOnStartup)
}

// Stop cancels the running cycle, if any, and waits for the worker to exit.
func (s *Scheduler) Stop() {
	s.cancel()
	s.wg.Wait()
	slog.Info("Scheduler stopped")
}

func (s *Scheduler) EnqueueTask(task TaskInterface) error {
	select {
	case <-s.ctx.Done():
		return s.ctx.Err()
	default:
	}

	select {
	case s.taskQueue <- task:
		return nil
	default:
		return ErrQueueFull
	}
}

// EnqueueCycle queues a cycle and returns its task id.
func (s *Scheduler) EnqueueCycle(trigger string) (string, error) {
	task := NewRunCycleTask(s.runner, trigger)
	if err := s.EnqueueTask(task); err != nil {
		return "", err
	}
	return task.GetID(), nil
}

func (s *Scheduler) enqueue(trigger string) {
	id, err := s.EnqueueCycle(trigger)
	switch {
	case errors.Is(err, ErrQueueFull):
		slog.Debug("Cycle already pending, tick coalesced", "trigger", trigger)
	case err != nil:
		slog.Warn("Failed to enqueue cycle", "trigger", trigger, "error", err)
	default:
		slog.Debug("Cycle enqueued", "trigger", trigger, "id", id)
	}
}

func (s *Scheduler) onTick(at time.Time) {
	if s.observeTick(at) {
		slog.Warn("Timer is past due", "trigger", s.trigger.String(), "at", at)
	}
	s.enqueue(TriggerSchedule)
}

// observeTick records a tick and reports whether it arrived more than one
// full period after it was due.
func (s *Scheduler) observeTick(at time.Time) bool {
	s.tickMu.Lock()
	defer s.tickMu.Unlock()

	prev := s.lastTick
	s.lastTick = at
	if prev.IsZero() {
		return false
	}

	due := s.trigger.Next(prev)
	return at.Sub(due) > due.Sub(prev)
}

func (s *Scheduler) worker() {
	defer s.wg.Done()

	for {
		select {
		case task := <-s.taskQueue:
			s.executeTask(task)
		case <-s.ctx.Done():
			return
		}
	}
}

func (s *Scheduler) executeTask(task TaskInterface) {
	task.Start()

	taskCtx, cancel := context.WithTimeout(s.ctx, s.taskTimeout)
	defer cancel()

	slog.Debug("Task started", "type", string(task.GetType()), "id", task.GetID(), "trigger", task.GetTrigger(),
		"queued_for", time.Since(task.GetEnqueuedAt()).Round(time.Millisecond))

	if err := task.Execute(taskCtx); err != nil {
		slog.Error("Task execution failed", "type", string(task.GetType()), "id", task.GetID(), "trigger", task.GetTrigger(), "error", err)
		return
	}

	slog.Debug("Task completed", "type", string(task.GetType()), "id", task.GetID(), "duration", task.GetDuration().Round(time.Millisecond))
}
