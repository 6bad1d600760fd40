package tasks

import (
	"context"
	"time"

	"github.com/google/uuid"
)

type TaskType string

const (
	TaskTypeRunCycle TaskType = "run_cycle"
)

// Trigger names what caused a task to be enqueued.
const (
	TriggerStartup  = "startup"
	TriggerSchedule = "schedule"
	TriggerAPI      = "api"
	TriggerOnce     = "once"
)

type TaskInterface interface {
	Execute(ctx context.Context) error
	GetID() string
	GetType() TaskType
	GetTrigger() string
	GetEnqueuedAt() time.Time
	Start()
	GetDuration() time.Duration
}

type Task struct {
	ID         string
	Type       TaskType
	Trigger    string
	EnqueuedAt time.Time
	StartedAt  *time.Time
}

func (t *Task) GetID() string {
	return t.ID
}

func (t *Task) GetType() TaskType {
	return t.Type
}

func (t *Task) GetTrigger() string {
	return t.Trigger
}

func (t *Task) GetEnqueuedAt() time.Time {
	return t.EnqueuedAt
}

func (t *Task) Start() {
	now := time.Now()
	t.StartedAt = &now
}

func (t *Task) GetDuration() time.Duration {
	if t.StartedAt == nil {
		return 0
	}
	return time.Since(*t.StartedAt)
}

func NewTask(taskType TaskType, trigger string) Task {
	return Task{
		ID:         uuid.New().String(),
		Type:       taskType,
		Trigger:    trigger,
		EnqueuedAt: time.Now(),
	}
}
