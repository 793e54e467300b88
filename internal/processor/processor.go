// Package processor implements the Processor state machine: a dedicated
// worker goroutine that receives orders from an exchange.InternalExchange,
// drives media jobs through mediajob.MediaJob and mediajob.FramePump, and
// publishes responses back through the same exchange. It never touches
// broker I/O directly, so a slow or stuck job never blocks order delivery.
package processor

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"github.com/mediajob/worker-sdk/internal/exchange"
	"github.com/mediajob/worker-sdk/internal/mediaio"
	"github.com/mediajob/worker-sdk/internal/mediajob"
	"github.com/mediajob/worker-sdk/pkg/job"
)

// SystemCollector gathers a point-in-time resource snapshot for status
// reports. Satisfied by *system.Collector.
type SystemCollector interface {
	Snapshot(ctx context.Context) exchange.SystemSnapshot
}

// Processor mediates between an InternalExchange and a stream of
// mediajob.MediaJob runs. Exactly one job runs at a time; its FramePump runs
// on the goroutine spawned from handleStart. The order-receiving goroutine
// only opens a job's Source and Output (in handleInit) and closes the Source
// of a job that a new InitProcess replaces.
type Processor struct {
	internal  exchange.InternalExchange
	open      mediaio.Opener
	callback  mediajob.Callback
	collector SystemCollector
	logger    *slog.Logger

	mu         sync.Mutex
	status     job.JobStatus
	current    *mediajob.MediaJob
	lastResult *job.JobResult

	stopRequested atomic.Bool
	group         errgroup.Group
}

// New builds a Processor. open resolves a job's source_path into a
// mediaio.Source; callback is the user-supplied per-frame function run by
// every job's FramePump.
func New(internal exchange.InternalExchange, open mediaio.Opener, callback mediajob.Callback, collector SystemCollector, logger *slog.Logger) *Processor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Processor{
		internal:  internal,
		open:      open,
		callback:  callback,
		collector: collector,
		logger:    logger.With("component", "processor"),
		status:    job.StatusUnknown,
	}
}

// Run consumes orders from the InternalExchange until OrderStopWorker is
// received or ctx is cancelled, then waits for any in-flight job to
// observe the stop signal and unwind before returning.
func (p *Processor) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			p.stopRequested.Store(true)
			_ = p.group.Wait()
			return ctx.Err()

		case order, ok := <-p.internal.OrderReceiver():
			if !ok {
				_ = p.group.Wait()
				return nil
			}

			switch order.Kind {
			case exchange.OrderInitProcess:
				p.handleInit(ctx, order.Job)
			case exchange.OrderStartProcess:
				p.handleStart(ctx, order.Job)
			case exchange.OrderStopProcess:
				p.handleStop(order.Job)
			case exchange.OrderStatus:
				p.sendStatus(ctx)
			case exchange.OrderStopWorker:
				p.sendStatus(ctx)
				p.stopRequested.Store(true)
				_ = p.group.Wait()
				return nil
			}
		}
	}
}

// handleInit opens Source/Output for j and transitions to Initialized (or
// Error on failure), emitting the corresponding response. Any prior
// in-flight job's Source is closed first.
func (p *Processor) handleInit(ctx context.Context, j job.Job) *mediajob.MediaJob {
	p.mu.Lock()
	if p.current != nil {
		p.current.Close()
		p.current = nil
	}
	p.mu.Unlock()

	mj, err := mediajob.NewMediaJob(ctx, j, p.open, p.callback, func(jobID uint64, percent int) {
		p.send(exchange.NewProgressionResponse(jobID, percent))
	})

	p.mu.Lock()
	defer p.mu.Unlock()

	if err != nil {
		result := resultFromError(j.JobID, err)
		p.status = job.StatusError
		p.lastResult = result
		p.send(exchange.NewErrorResponse(result))
		return nil
	}

	p.status = job.StatusInitialized
	p.current = mj
	p.lastResult = job.JobResultFromJob(j).WithStatus(job.StatusInitialized)
	p.send(exchange.NewInitializedResponse(p.lastResult))
	return mj
}

// handleStart runs j's FramePump to completion in a dedicated goroutine,
// implicitly initializing first if no matching Initialized job is already
// current.
func (p *Processor) handleStart(ctx context.Context, j job.Job) {
	p.mu.Lock()
	mj := p.current
	needsInit := mj == nil || mj.Job.JobID != j.JobID || p.status != job.StatusInitialized
	alreadyRunning := p.status == job.StatusRunning
	p.mu.Unlock()

	if alreadyRunning {
		p.sendError(j.JobID, "a job is already running")
		return
	}

	if needsInit {
		mj = p.handleInit(ctx, j)
		if mj == nil {
			return // handleInit already sent the Error response
		}
	}

	p.mu.Lock()
	p.status = job.StatusRunning
	p.stopRequested.Store(false)
	p.mu.Unlock()

	p.group.Go(func() error {
		p.run(ctx, mj)
		return nil
	})
}

func (p *Processor) run(ctx context.Context, mj *mediajob.MediaJob) {
	result, err := mj.Pump.Run(ctx, p.stopRequested.Load)

	p.mu.Lock()
	defer p.mu.Unlock()

	mj.Close()
	if p.current == mj {
		p.current = nil
	}

	if err != nil {
		result := resultFromError(mj.Job.JobID, err)
		p.status = job.StatusError
		p.lastResult = result
		p.send(exchange.NewErrorResponse(result))
		return
	}

	p.status = job.StatusCompleted
	p.lastResult = result
	p.send(exchange.NewCompletedResponse(result))
}

// handleStop signals a running job's FramePump to unwind, or immediately
// reports an error if no job is running.
func (p *Processor) handleStop(j job.Job) {
	p.mu.Lock()
	running := p.status == job.StatusRunning
	p.mu.Unlock()

	if !running {
		p.sendError(j.JobID, "cannot stop a non-running job")
		return
	}

	p.stopRequested.Store(true)
}

func (p *Processor) sendStatus(ctx context.Context) {
	p.send(exchange.NewStatusReportResponse(p.StatusReport(ctx)))
}

// StatusReport builds a StatusReport reflecting this instant's in-memory
// state, without going through the exchange. It is safe to call
// concurrently with Run, and is what internal/httpapi's /status endpoint
// calls directly rather than round-tripping an order through the broker.
func (p *Processor) StatusReport(ctx context.Context) exchange.StatusReport {
	p.mu.Lock()
	status := p.status
	current := p.lastResult
	p.mu.Unlock()

	activity := exchange.ActivityIdle
	if status == job.StatusInitialized || status == job.StatusRunning {
		activity = exchange.ActivityBusy
	} else {
		current = nil // no job is attached once it has completed or failed
	}

	var snap exchange.SystemSnapshot
	if p.collector != nil {
		snap = p.collector.Snapshot(ctx)
	}

	return exchange.StatusReport{
		Activity: activity,
		System:   snap,
		Current:  current,
	}
}

func (p *Processor) sendError(jobID uint64, message string) {
	p.send(exchange.NewErrorResponse(job.NewJobResult(jobID).WithStatus(job.StatusError).WithMessage(message)))
}

// send publishes r, logging (but not propagating) a transport failure: a
// Processor has no further recourse if the exchange itself is broken.
func (p *Processor) send(r exchange.ResponseMessage) {
	if err := p.internal.SendResponse(r); err != nil {
		p.logger.Error("sending response", "error", err, "kind", r.Kind)
	}
}

func resultFromError(jobID uint64, err error) *job.JobResult {
	var procErr *job.ProcessingError
	if errors.As(err, &procErr) {
		return procErr.Result
	}
	return job.NewJobResult(jobID).WithStatus(job.StatusError).WithMessage(err.Error())
}
