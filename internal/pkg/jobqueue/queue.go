package jobqueue

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gofiber/fiber/v2/log"
	"github.com/google/uuid"
)

// ErrQueueStopped is returned when enqueueing after Stop.
var ErrQueueStopped = errors.New("job queue stopped")

// Handler processes one job. Returned errors mark the job failed.
type Handler func(ctx context.Context, job *Job) error

// Queue is an unbounded in-memory FIFO worked by a fixed number of
// goroutines. Jobs are not persisted and pending jobs are lost on Stop.
type Queue struct {
	workers int
	delay   time.Duration
	handler Handler

	mu       sync.Mutex
	cond     *sync.Cond
	pending  []*Job
	running  bool
	stopping bool
	stopCh   chan struct{}
	wg       sync.WaitGroup

	enqueued  atomic.Int64
	completed atomic.Int64
	failed    atomic.Int64
	dropped   atomic.Int64
}

// NewQueue creates a new job queue. delay is the pause a worker takes
// after each job, which keeps bursts below gateway rate limits.
func NewQueue(workers int, delay time.Duration, handler Handler) *Queue {
	if workers <= 0 {
		workers = 1
	}
	q := &Queue{
		workers: workers,
		delay:   delay,
		handler: handler,
		stopCh:  make(chan struct{}),
	}
	q.cond = sync.NewCond(&q.mu)
	return q
}

// Start starts the job queue workers
func (q *Queue) Start() {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.running || q.stopping {
		return
	}

	q.running = true
	log.Infof("[JobQueue] Starting %d workers", q.workers)
	for i := 0; i < q.workers; i++ {
		q.wg.Add(1)
		go q.worker(i)
	}
}

// Stop drops pending jobs and waits for running ones to finish.
func (q *Queue) Stop() {
	q.mu.Lock()
	if q.stopping {
		q.mu.Unlock()
		return
	}
	q.stopping = true
	dropped := len(q.pending)
	q.pending = nil
	q.cond.Broadcast()
	q.mu.Unlock()

	close(q.stopCh)
	q.wg.Wait()

	q.dropped.Add(int64(dropped))
	if dropped > 0 {
		log.Warnf("[JobQueue] Dropped %d pending jobs", dropped)
	}
	log.Info("[JobQueue] All workers stopped")
}

// Enqueue appends a job and wakes one worker.
func (q *Queue) Enqueue(jobType JobType, payload interface{}) (*Job, error) {
	job := &Job{
		ID:        uuid.NewString(),
		Type:      jobType,
		Status:    JobStatusPending,
		Payload:   payload,
		CreatedAt: time.Now(),
	}

	q.mu.Lock()
	defer q.mu.Unlock()
	if q.stopping {
		return nil, ErrQueueStopped
	}
	q.pending = append(q.pending, job)
	q.enqueued.Add(1)
	q.cond.Signal()
	return job, nil
}

// Len returns the number of jobs waiting for a worker.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.pending)
}

func (q *Queue) Stats() Stats {
	return Stats{
		Pending:   q.Len(),
		Enqueued:  q.enqueued.Load(),
		Completed: q.completed.Load(),
		Failed:    q.failed.Load(),
		Dropped:   q.dropped.Load(),
	}
}

func (q *Queue) next() *Job {
	q.mu.Lock()
	defer q.mu.Unlock()
	for len(q.pending) == 0 && !q.stopping {
		q.cond.Wait()
	}
	if q.stopping {
		return nil
	}
	job := q.pending[0]
	q.pending[0] = nil
	q.pending = q.pending[1:]
	return job
}

// worker processes jobs from the queue
func (q *Queue) worker(id int) {
	defer q.wg.Done()

	for {
		job := q.next()
		if job == nil {
			log.Debugf("[JobQueue] Worker %d stopping", id)
			return
		}

		q.processJob(job)

		if q.delay > 0 {
			select {
			case <-q.stopCh:
			case <-time.After(q.delay):
			}
		}
	}
}

func (q *Queue) processJob(job *Job) {
	job.Status = JobStatusProcessing

	err := func() (err error) {
		defer func() {
			if r := recover(); r != nil {
				err = fmt.Errorf("panic: %v", r)
			}
		}()
		return q.handler(context.Background(), job)
	}()

	now := time.Now()
	job.CompletedAt = &now
	if err != nil {
		job.Status = JobStatusFailed
		job.ErrorMsg = err.Error()
		q.failed.Add(1)
		log.Errorf("[JobQueue] Job %s (%s) failed: %v", job.ID, job.Type, err)
		return
	}
	job.Status = JobStatusCompleted
	q.completed.Add(1)
}
