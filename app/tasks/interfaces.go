package tasks

// TaskSchedulerInterface defines the interface for background task
// scheduling. The scheduler enqueues periodic scrape runs and enrichment
// passes, and executes them on a single worker, one task at a time.
type TaskSchedulerInterface interface {
	Start()
	Stop()
	EnqueueTask(task TaskInterface) error
}
