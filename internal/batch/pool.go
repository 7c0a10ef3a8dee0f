// Package batch collects id listings for many subjects concurrently.
package batch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"
	"time"

	"roost/pkg/logger"
	"roost/pkg/twitter"
)

// ErrPoolStopped is returned by Submit once the pool is shutting down
var ErrPoolStopped = errors.New("worker pool is shutting down")

// Job is one subject to collect. Key names its output file.
type Job struct {
	Key     string
	Subject twitter.Subject
}

// Result is the outcome of a job
type Result struct {
	Job         Job
	IDs         []int64
	Termination twitter.Termination
	// Skipped is set when the output already existed and nothing was fetched.
	Skipped  bool
	Err      error
	Duration time.Duration
	WorkerID int
}

// Fetcher collects the id listing of a subject
type Fetcher interface {
	Fetch(ctx context.Context, s twitter.Subject) (*twitter.Result[int64], error)
}

// FetchFunc adapts a function to Fetcher, e.g. (*twitter.Client).Followers
type FetchFunc func(ctx context.Context, s twitter.Subject) (*twitter.Result[int64], error)

func (f FetchFunc) Fetch(ctx context.Context, s twitter.Subject) (*twitter.Result[int64], error) {
	return f(ctx, s)
}

// FetcherFactory builds the fetcher of one worker. Workers never share a
// fetcher, so each can own a client with its own quota tracker.
type FetcherFactory func(workerID int) (Fetcher, error)

// Storage persists finished listings
type Storage interface {
	IsSaved(key string) bool
	Save(r io.Reader, key string) error
}

// Pool runs jobs on a fixed number of workers
type Pool struct {
	numWorkers  int
	factory     FetcherFactory
	storage     Storage
	jobQueue    chan Job
	resultQueue chan Result
	wg          sync.WaitGroup
	ctx         context.Context
	cancel      context.CancelFunc
	stopOnce    sync.Once
	logger      logger.Logger
}

// NewPool creates a pool. storage may be nil, in which case results are
// only reported.
func NewPool(numWorkers int, factory FetcherFactory, storage Storage, log logger.Logger) *Pool {
	if numWorkers < 1 {
		numWorkers = 1
	}
	if log == nil {
		log = logger.GetLogger()
	}
	return &Pool{
		numWorkers:  numWorkers,
		factory:     factory,
		storage:     storage,
		jobQueue:    make(chan Job, numWorkers*2),
		resultQueue: make(chan Result, numWorkers),
		logger:      log,
	}
}

// Start builds every worker's fetcher and starts the workers. No worker is
// started if any fetcher fails to build.
func (p *Pool) Start(ctx context.Context) error {
	fetchers := make([]Fetcher, p.numWorkers)
	for i := range fetchers {
		f, err := p.factory(i)
		if err != nil {
			return fmt.Errorf("worker %d: %w", i, err)
		}
		fetchers[i] = f
	}

	p.ctx, p.cancel = context.WithCancel(ctx)
	p.logger.InfoWithFields("Starting worker pool", map[string]interface{}{
		"num_workers": p.numWorkers,
	})

	for i, f := range fetchers {
		p.wg.Add(1)
		go p.worker(i, f)
	}
	return nil
}

// Stop closes the queue, waits for in-flight jobs and closes Results.
// It must be called once all Submit calls have returned.
func (p *Pool) Stop() {
	p.stopOnce.Do(func() {
		p.logger.Debug("Stopping worker pool")
		close(p.jobQueue)
		p.wg.Wait()
		close(p.resultQueue)
		if p.cancel != nil {
			p.cancel()
		}
		p.logger.Debug("Worker pool stopped")
	})
}

// Submit queues a job, blocking while the queue is full
func (p *Pool) Submit(job Job) error {
	select {
	case p.jobQueue <- job:
		p.logger.DebugWithFields("Job submitted to queue", map[string]interface{}{
			"key":     job.Key,
			"subject": job.Subject.String(),
		})
		return nil
	case <-p.ctx.Done():
		return ErrPoolStopped
	}
}

// Results returns the result channel. It is closed by Stop.
func (p *Pool) Results() <-chan Result {
	return p.resultQueue
}

func (p *Pool) worker(id int, f Fetcher) {
	defer p.wg.Done()

	for job := range p.jobQueue {
		select {
		case <-p.ctx.Done():
			p.logger.DebugWithFields("Worker stopping - context cancelled", map[string]interface{}{
				"worker_id": id,
			})
			return
		default:
		}

		result := p.processJob(job, id, f)

		select {
		case p.resultQueue <- result:
		case <-p.ctx.Done():
			return
		}
	}
}

func (p *Pool) processJob(job Job, workerID int, f Fetcher) Result {
	start := time.Now()
	result := Result{Job: job, WorkerID: workerID}
	fields := map[string]interface{}{
		"worker_id": workerID,
		"subject":   job.Subject.String(),
	}

	if p.storage != nil && p.storage.IsSaved(job.Key) {
		p.logger.DebugWithFields("Listing already saved", fields)
		result.Skipped = true
		result.Termination = twitter.SourceExhausted
		result.Duration = time.Since(start)
		return result
	}

	// a fetcher returns its result alongside the result's own error; only a
	// missing result means the listing never started
	res, err := f.Fetch(p.ctx, job.Subject)
	if res == nil {
		if err == nil {
			err = errors.New("fetcher returned no result")
		}
		result.Termination = twitter.Fatal
		result.Err = err
		result.Duration = time.Since(start)
		return result
	}

	result.Termination = res.Termination
	result.IDs, result.Err = res.Get()
	if result.Err == nil && p.storage != nil {
		if err := p.storage.Save(strings.NewReader(FormatIDs(result.IDs)), job.Key); err != nil {
			result.Err = fmt.Errorf("save failed: %w", err)
			p.logger.ErrorWithFields("Worker failed to save listing", map[string]interface{}{
				"worker_id": workerID,
				"subject":   job.Subject.String(),
				"error":     err.Error(),
			})
		}
	}
	result.Duration = time.Since(start)

	fields["termination"] = res.Termination.String()
	fields["ids"] = len(result.IDs)
	fields["duration"] = result.Duration
	p.logger.DebugWithFields("Worker finished job", fields)
	return result
}

// FormatIDs renders ids one per line
func FormatIDs(ids []int64) string {
	var b strings.Builder
	for _, id := range ids {
		b.WriteString(strconv.FormatInt(id, 10))
		b.WriteByte('\n')
	}
	return b.String()
}
