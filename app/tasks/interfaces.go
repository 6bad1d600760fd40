package tasks

// TaskSchedulerInterface defines the interface for task scheduling operations.
// Used by the main application and the ops API.
//
//	scheduler := NewScheduler(orchestrator, NewIntervalTrigger(15*time.Minute), Options{RunOnStartup: true})
//	scheduler.Start()
//	defer scheduler.Stop()
//	id, err := scheduler.EnqueueCycle(TriggerAPI)
type TaskSchedulerInterface interface {
	Start()
	Stop()
	EnqueueTask(task TaskInterface) error
	EnqueueCycle(trigger string) (string, error)
}
