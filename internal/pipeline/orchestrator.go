package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/dgallion1/notepress/internal/config"
	"github.com/dgallion1/notepress/internal/graph"
	"github.com/dgallion1/notepress/internal/render"
)

// Orchestrator manages the publish pipeline: a bounded job queue
// drained by workers that each deliver one record at a time.
type Orchestrator struct {
	jobs      *JobStore
	queue     chan *Job
	client    *graph.Client
	sectionID string
	layout    render.Layout
	log       *slog.Logger
	cfg       config.Config

	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu     sync.Mutex
	closed bool
}

// NewOrchestrator creates the pipeline. The section id must already be
// resolved; jobs never guess their destination.
func NewOrchestrator(cfg config.Config, client *graph.Client, sectionID string, layout render.Layout, log *slog.Logger) *Orchestrator {
	return &Orchestrator{
		jobs:      NewJobStore(cfg.JobTTL),
		queue:     make(chan *Job, cfg.MaxQueueSize),
		client:    client,
		sectionID: sectionID,
		layout:    layout,
		log:       log,
		cfg:       cfg,
	}
}

// Start launches worker goroutines.
func (o *Orchestrator) Start(ctx context.Context) {
	workerCtx, cancel := context.WithCancel(ctx)
	o.cancel = cancel

	for range o.cfg.WorkerCount {
		o.wg.Add(1)
		go func() {
			defer o.wg.Done()
			publisher := NewPublisher(o.client, o.cfg.BinaryPartCeiling, o.log)
			w := NewWorker(publisher, o.sectionID, o.layout, o.cfg.BinaryPartCeiling, o.log)
			for {
				select {
				case <-workerCtx.Done():
					return
				case job, ok := <-o.queue:
					if !ok {
						return
					}
					w.Process(workerCtx, job)
					if o.cfg.Throttle > 0 {
						select {
						case <-time.After(o.cfg.Throttle):
						case <-workerCtx.Done():
							return
						}
					}
				}
			}
		}()
	}

	// Start job store cleanup.
	o.wg.Add(1)
	go func() {
		defer o.wg.Done()
		ticker := time.NewTicker(5 * time.Minute)
		defer ticker.Stop()
		for {
			select {
			case <-workerCtx.Done():
				return
			case <-ticker.C:
				o.jobs.Cleanup()
			}
		}
	}()
}

// Stop gracefully shuts down the pipeline. Once it starts, Submit
// rejects new jobs instead of racing the queue close.
func (o *Orchestrator) Stop() {
	if o.cancel != nil {
		o.cancel()
	}
	o.mu.Lock()
	if !o.closed {
		o.closed = true
		close(o.queue)
	}
	o.mu.Unlock()
	o.wg.Wait()
}

// Submit queues a new job for processing. The send happens under the
// same lock Stop takes, so it can never hit a closed channel.
func (o *Orchestrator) Submit(job *Job) error {
	o.jobs.Put(job)

	o.mu.Lock()
	defer o.mu.Unlock()
	if o.closed {
		job.SetStatus(StatusFailed, "shutting_down")
		return fmt.Errorf("pipeline is shutting down")
	}
	select {
	case o.queue <- job:
		return nil
	default:
		job.SetStatus(StatusFailed, "queue_full")
		return fmt.Errorf("job queue is full (%d)", o.cfg.MaxQueueSize)
	}
}

// GetJob returns a job by ID.
func (o *Orchestrator) GetJob(id string) *Job {
	return o.jobs.Get(id)
}

// QueueDepth returns current queue depth.
func (o *Orchestrator) QueueDepth() int {
	return len(o.queue)
}

// Client returns the delivery client for direct use by API handlers.
func (o *Orchestrator) Client() *graph.Client {
	return o.client
}

// SectionID returns the resolved destination section.
func (o *Orchestrator) SectionID() string {
	return o.sectionID
}
