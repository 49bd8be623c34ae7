package pool

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

const (
	DefaultIdleDelay  = 60 * time.Second
	DefaultErrorDelay = 30 * time.Second
)

// ClaimFunc fetches the next unit of work, returning (nil, nil) when
// nothing is pending.
type ClaimFunc[T any] func() (*T, error)

// ProcessFunc performs the work for one claimed task.
type ProcessFunc[T any] func(ctx context.Context, task *T) error

// HandleErrorFunc is invoked with the failed task (nil when the claim
// itself failed) and the error.
type HandleErrorFunc[T any] func(task *T, err error)

// Pool runs a fixed number of long-lived workers, each repeatedly
// claiming one task and processing it. The pool is generic over the task
// type and knows nothing about where tasks come from: it is handed a
// claim, a process, and an error-handling operation and only relies on
// their contracts.
type Pool[T any] struct {
	name        string
	workerCount int
	idleDelay   time.Duration
	errorDelay  time.Duration

	claim       ClaimFunc[T]
	process     ProcessFunc[T]
	handleError HandleErrorFunc[T]

	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	mu      sync.Mutex
	running bool
}

// Options configures a Pool. Zero-value delays fall back to the defaults;
// a worker count below 1 is raised to 1.
type Options struct {
	Name        string
	WorkerCount int
	IdleDelay   time.Duration
	ErrorDelay  time.Duration
}

func New[T any](opts Options, claim ClaimFunc[T], process ProcessFunc[T], handleError HandleErrorFunc[T]) *Pool[T] {
	if opts.WorkerCount < 1 {
		opts.WorkerCount = 1
	}
	if opts.IdleDelay <= 0 {
		opts.IdleDelay = DefaultIdleDelay
	}
	if opts.ErrorDelay <= 0 {
		opts.ErrorDelay = DefaultErrorDelay
	}

	return &Pool[T]{
		name:        opts.Name,
		workerCount: opts.WorkerCount,
		idleDelay:   opts.IdleDelay,
		errorDelay:  opts.ErrorDelay,
		claim:       claim,
		process:     process,
		handleError: handleError,
	}
}

// Start spawns the configured number of workers. Calling Start on a
// running pool is a logged no-op; a stopped pool can be started again.
func (p *Pool[T]) Start() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.running {
		slog.Warn("Worker pool already running", "pool", p.name)
		return
	}
	p.running = true
	p.ctx, p.cancel = context.WithCancel(context.Background())

	slog.Info("Starting worker pool", "pool", p.name, "workers", p.workerCount)
	for i := 0; i < p.workerCount; i++ {
		p.wg.Add(1)
		go p.worker(i)
	}
}

// Stop signals all workers to stop and waits for them to drain. A task
// already being processed runs to completion; the stop signal is only
// observed between iterations, so there is no upper bound on drain time.
func (p *Pool[T]) Stop() {
	p.mu.Lock()
	if !p.running {
		p.mu.Unlock()
		return
	}
	p.mu.Unlock()

	slog.Info("Stopping worker pool", "pool", p.name)
	p.cancel()
	p.wg.Wait()

	p.mu.Lock()
	p.running = false
	p.mu.Unlock()
	slog.Info("Worker pool stopped", "pool", p.name)
}

func (p *Pool[T]) worker(id int) {
	defer p.wg.Done()
	// A panic escaping the error hook is only caught here, ending this
	// one worker early. The remaining workers continue.
	defer func() {
		if r := recover(); r != nil {
			slog.Error("Worker terminated by panic", "pool", p.name, "worker_id", id, "panic", r)
		}
	}()

	slog.Debug("Worker started", "pool", p.name, "worker_id", id)

	for {
		select {
		case <-p.ctx.Done():
			slog.Debug("Worker stopped", "pool", p.name, "worker_id", id)
			return
		default:
		}

		task, err := p.claim()
		if err != nil {
			p.handleError(nil, err)
			p.sleep(p.errorDelay)
			continue
		}

		if task == nil {
			p.sleep(p.idleDelay)
			continue
		}

		// Processing runs under a context detached from the pool's stop
		// signal: cancellation only suppresses future claims, in-flight
		// work always completes.
		if err := p.runTask(task); err != nil {
			p.handleError(task, err)
			p.sleep(p.errorDelay)
		}
	}
}

// runTask invokes process, converting a panic into an error so a
// misbehaving handler costs one iteration, not the whole worker.
func (p *Pool[T]) runTask(task *T) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("task panicked: %v", r)
		}
	}()

	return p.process(context.Background(), task)
}

// sleep waits for the given duration or until the pool is stopped,
// whichever comes first. No resources are held while waiting.
func (p *Pool[T]) sleep(d time.Duration) {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-p.ctx.Done():
	case <-timer.C:
	}
}
