package syncer

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/lauri/vocaflow/internal/logger"
)

// errQueueStopped settles jobs issued after Stop; the worker is gone, so
// blocking on it would never return.
var errQueueStopped = errors.New("write queue stopped")

// writeJob is one store write. done is nil for fire-and-forget jobs.
type writeJob struct {
	name string
	run  func(context.Context) error
	done chan error
}

// writeQueue serializes all store writes for one learner on a single worker,
// so writes to the same record settle in issuance order.
type writeQueue struct {
	jobs     chan writeJob
	stopped  chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
	cancel   context.CancelFunc
	log      *logger.Logger
}

func newWriteQueue(queueSize int) *writeQueue {
	if queueSize <= 0 {
		queueSize = 16
	}
	return &writeQueue{
		jobs:    make(chan writeJob, queueSize),
		stopped: make(chan struct{}),
		log:     logger.Default().WithPrefix("write-queue"),
	}
}

func (q *writeQueue) Start(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	q.cancel = cancel

	q.wg.Add(1)
	go func() {
		defer q.wg.Done()
		for {
			select {
			case <-ctx.Done():
				// Pending writes still get a bounded attempt on shutdown.
				drainCtx, drainCancel := context.WithTimeout(context.Background(), 5*time.Second)
				q.drain(drainCtx)
				drainCancel()
				return
			case job, ok := <-q.jobs:
				if !ok {
					return
				}
				q.execute(ctx, job)
			}
		}
	}()
}

// drain finishes queued jobs on shutdown so a sign-out flush is not dropped.
func (q *writeQueue) drain(ctx context.Context) {
	for {
		select {
		case job, ok := <-q.jobs:
			if !ok {
				return
			}
			q.execute(ctx, job)
		default:
			return
		}
	}
}

func (q *writeQueue) execute(ctx context.Context, job writeJob) {
	start := time.Now()
	err := job.run(ctx)
	if err != nil {
		q.log.Warn("write %s failed after %v: %v", job.name, time.Since(start), err)
	} else {
		q.log.Debug("write %s completed in %v", job.name, time.Since(start))
	}
	if job.done != nil {
		job.done <- err
	}
}

// Submit enqueues a fire-and-forget write. Jobs issued after Stop are
// dropped.
func (q *writeQueue) Submit(name string, run func(context.Context) error) {
	select {
	case <-q.stopped:
		q.log.Warn("write %s dropped: queue stopped", name)
	case q.jobs <- writeJob{name: name, run: run}:
	}
}

// Do enqueues a write and waits for it to settle, preserving queue order for
// authoritative flushes. A job issued after Stop returns errQueueStopped
// instead of waiting on a worker that has exited.
func (q *writeQueue) Do(name string, run func(context.Context) error) error {
	done := make(chan error, 1)
	select {
	case <-q.stopped:
		return errQueueStopped
	case q.jobs <- writeJob{name: name, run: run, done: done}:
	}
	select {
	case err := <-done:
		return err
	case <-q.stopped:
		// The worker may have exited before reaching this job.
		return errQueueStopped
	}
}

func (q *writeQueue) Stop() {
	// Unblock callers first so nobody waits through the drain.
	q.stopOnce.Do(func() { close(q.stopped) })
	if q.cancel != nil {
		q.cancel()
	}
	q.wg.Wait()
}
