package tasks

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/citybeat/citybeat/app/cfg"
	"github.com/citybeat/citybeat/app/database"
	"github.com/citybeat/citybeat/app/pipeline"
	"github.com/citybeat/citybeat/app/scraper"
)

var _ TaskSchedulerInterface = (*Scheduler)(nil)

const taskExecutionTimeout = 15 * time.Minute

// Scheduler runs queued tasks on a single worker goroutine. One worker
// keeps scrape runs strictly serial, so two reconciliations can never
// interleave their writes.
type Scheduler struct {
	pipeline         *pipeline.Pipeline
	eventRepo        database.EventRepository
	httpClient       *http.Client
	contentExtractor *scraper.ContentExtractor
	userAgent        string
	city             string
	interval         time.Duration
	enrichContent    bool
	ctx              context.Context
	cancel           context.CancelFunc
	wg               sync.WaitGroup
	taskQueue        chan TaskInterface
}

func NewScheduler(p *pipeline.Pipeline, eventRepo database.EventRepository, httpClient *http.Client, contentExtractor *scraper.ContentExtractor) TaskSchedulerInterface {
	ctx, cancel := context.WithCancel(context.Background())
	cfg := cfg.Get()

	return &Scheduler{
		pipeline:         p,
		eventRepo:        eventRepo,
		httpClient:       httpClient,
		contentExtractor: contentExtractor,
		userAgent:        cfg.UserAgent,
		city:             cfg.DefaultCity,
		interval:         time.Duration(cfg.ScrapeInterval) * time.Minute,
		enrichContent:    cfg.EnrichContent,
		ctx:              ctx,
		cancel:           cancel,
		taskQueue:        make(chan TaskInterface, 100),
	}
}

func (s *Scheduler) Start() {
	s.wg.Add(1)
	go s.worker()

	if s.interval <= 0 {
		slog.Info("Scheduled scrape runs disabled")
		return
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()

		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		s.enqueueScheduledTasks()

		for {
			select {
			case <-s.ctx.Done():
				return
			case <-ticker.C:
				s.enqueueScheduledTasks()
			}
		}
	}()
}

func (s *Scheduler) Stop() {
	s.cancel()
	s.wg.Wait()
	close(s.taskQueue)
}

func (s *Scheduler) EnqueueTask(task TaskInterface) error {
	select {
	case s.taskQueue <- task:
		return nil
	case <-s.ctx.Done():
		return s.ctx.Err()
	default:
		return fmt.Errorf("task queue is full")
	}
}

func (s *Scheduler) enqueueScheduledTasks() {
	scrapeTask := NewScrapeRunTask(s.pipeline, s.city)
	if err := s.EnqueueTask(scrapeTask); err != nil {
		slog.Warn("Failed to enqueue ScrapeRunTask", "error", err)
	}

	if s.enrichContent {
		enrichTask := NewEnrichContentTask(s.httpClient, s.contentExtractor, s.eventRepo, s.userAgent)
		if err := s.EnqueueTask(enrichTask); err != nil {
			slog.Warn("Failed to enqueue EnrichContentTask", "error", err)
		}
	}
}

func (s *Scheduler) worker() {
	defer s.wg.Done()

	for {
		select {
		case task, ok := <-s.taskQueue:
			if !ok {
				return
			}
			s.executeTask(task)

		case <-s.ctx.Done():
			return
		}
	}
}

func (s *Scheduler) executeTask(task TaskInterface) {
	task.Start()

	taskCtx, cancel := context.WithTimeout(s.ctx, taskExecutionTimeout)
	defer cancel()

	err := task.Execute(taskCtx)

	if err != nil {
		slog.Error("Task execution failed", "type", string(task.GetType()), "id", task.GetID(), "retry_count", task.GetRetryCount(), "error", err)

		if task.CanRetry() {
			task.IncrementRetryCount()
			retryDelay := time.Duration(1<<uint(task.GetRetryCount()-1)) * time.Second
			if retryDelay > 30*time.Second {
				retryDelay = 30 * time.Second
			}

			slog.Warn("Task retry scheduled", "type", string(task.GetType()), "retry_count", task.GetRetryCount(), "max_retries", task.GetMaxRetries(), "delay", retryDelay.String())

			go func() {
				time.Sleep(retryDelay)
				select {
				case <-s.ctx.Done():
					slog.Debug("Scheduler stopped, skipping task retry", "type", string(task.GetType()), "id", task.GetID())
					return
				default:
					if retryErr := s.EnqueueTask(task); retryErr != nil {
						slog.Error("Failed to re-enqueue task for retry", "type", string(task.GetType()), "id", task.GetID(), "retry_count", task.GetRetryCount(), "error", retryErr)
					}
				}
			}()
		} else {
			slog.Error("Task failed after maximum retries", "type", string(task.GetType()), "id", task.GetID(), "retry_count", task.GetRetryCount(), "max_retries", task.GetMaxRetries(), "last_error", err)
		}
	}
}
