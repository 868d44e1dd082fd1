package services

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/custodia-labs/readwell/internal/core/domain"
	"github.com/custodia-labs/readwell/internal/core/ports/driving"
	"github.com/custodia-labs/readwell/internal/logger"
)

// Ensure Dispatcher implements the interface.
var _ driving.JobDispatcher = (*Dispatcher)(nil)

// ErrDispatcherStopped is returned by Enqueue after Stop.
var ErrDispatcherStopped = errors.New("dispatcher stopped")

// Dispatcher runs processing requests in the background with a bounded
// number of concurrent runs and at most one run per document.
type Dispatcher struct {
	proc    driving.DocumentProcessor
	timeout time.Duration
	slots   *semaphore.Weighted

	mu       sync.Mutex
	inFlight map[string]struct{}
	stopped  bool
	ctx      context.Context
	cancel   context.CancelFunc
	wg       sync.WaitGroup

	// onFailure records runs that failed outside the processor:
	// recovered panics and runs cancelled while queued.
	onFailure func(ctx context.Context, req domain.ProcessRequest, err error)
}

// DispatcherOption configures a Dispatcher.
type DispatcherOption func(*Dispatcher)

// WithFailureRecorder sets the function that marks a document failed when
// the processor could not do so itself.
func WithFailureRecorder(fn func(ctx context.Context, req domain.ProcessRequest, err error)) DispatcherOption {
	return func(d *Dispatcher) {
		d.onFailure = fn
	}
}

// NewDispatcher creates a dispatcher over proc.
func NewDispatcher(proc driving.DocumentProcessor, cfg domain.DispatchSettings, opts ...DispatcherOption) *Dispatcher {
	defaults := domain.DefaultAppSettings().Dispatch
	if cfg.Workers <= 0 {
		cfg.Workers = defaults.Workers
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaults.Timeout
	}

	ctx, cancel := context.WithCancel(context.Background())
	d := &Dispatcher{
		proc:     proc,
		timeout:  cfg.Timeout,
		slots:    semaphore.NewWeighted(int64(cfg.Workers)),
		inFlight: make(map[string]struct{}),
		ctx:      ctx,
		cancel:   cancel,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Enqueue schedules req and returns immediately.
func (d *Dispatcher) Enqueue(req domain.ProcessRequest) error {
	d.mu.Lock()
	if d.stopped {
		d.mu.Unlock()
		return ErrDispatcherStopped
	}
	if _, busy := d.inFlight[req.DocumentID]; busy {
		d.mu.Unlock()
		return fmt.Errorf("%w: document %s", domain.ErrRunInProgress, req.DocumentID)
	}
	d.inFlight[req.DocumentID] = struct{}{}
	d.wg.Add(1)
	d.mu.Unlock()

	logger.Debug("dispatcher: queued %s", req.DocumentID)
	go d.run(req)
	return nil
}

// InFlight reports whether documentID is queued or running.
func (d *Dispatcher) InFlight(documentID string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	_, ok := d.inFlight[documentID]
	return ok
}

// Wait blocks until every enqueued run has finished.
func (d *Dispatcher) Wait() {
	d.wg.Wait()
}

// Stop cancels running and queued runs and waits for them to exit.
func (d *Dispatcher) Stop() {
	d.mu.Lock()
	if d.stopped {
		d.mu.Unlock()
		return
	}
	d.stopped = true
	d.mu.Unlock()

	d.cancel()
	d.wg.Wait()
}

func (d *Dispatcher) run(req domain.ProcessRequest) {
	defer d.wg.Done()
	defer d.release(req.DocumentID)

	if err := d.slots.Acquire(d.ctx, 1); err != nil {
		// Stopped before a slot freed up; the processor never saw this run.
		d.recordFailure(req, fmt.Errorf("run cancelled before start: %w", err))
		return
	}
	defer d.slots.Release(1)

	ctx, cancel := context.WithTimeout(d.ctx, d.timeout)
	defer cancel()

	started := time.Now()
	err := d.safeProcess(ctx, req)

	log := logger.L().With("document", req.DocumentID, "duration", time.Since(started).Round(time.Millisecond))
	if err != nil {
		log.Warn("run failed", "error", err)
		return
	}
	log.Debug("run finished")
}

// safeProcess converts a panic inside the processor into an error.
func (d *Dispatcher) safeProcess(ctx context.Context, req domain.ProcessRequest) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic during processing: %v", r)
			logger.Error("dispatcher: %v\n%s", err, debug.Stack())
			d.recordFailure(req, err)
		}
	}()
	return d.proc.Process(ctx, req)
}

func (d *Dispatcher) recordFailure(req domain.ProcessRequest, err error) {
	if d.onFailure == nil {
		return
	}
	d.onFailure(context.WithoutCancel(d.ctx), req, err)
}

func (d *Dispatcher) release(documentID string) {
	d.mu.Lock()
	delete(d.inFlight, documentID)
	d.mu.Unlock()
}
