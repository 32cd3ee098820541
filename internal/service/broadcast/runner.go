package broadcast

import (
	"context"
	"errors"
	"sync"

	"github.com/rs/zerolog"

	"contest-bot/internal/common/logger"
)

// ErrAlreadyRunning is returned when the operator already has a broadcast
// in flight.
var ErrAlreadyRunning = errors.New("broadcast already running for this operator")

// ReportFunc receives the outcome of a finished job.
type ReportFunc func(ctx context.Context, job Job, res Result, err error)

// Runner executes jobs in the background on a root context, one at a time
// per operator.
type Runner struct {
	root   context.Context
	engine *Engine
	report ReportFunc

	mu      sync.Mutex
	running map[int64]context.CancelFunc
	wg      sync.WaitGroup
	log     zerolog.Logger
}

func NewRunner(root context.Context, engine *Engine, report ReportFunc) *Runner {
	return &Runner{
		root:    root,
		engine:  engine,
		report:  report,
		running: map[int64]context.CancelFunc{},
		log:     logger.Component("broadcast_runner"),
	}
}

// Start launches job and returns immediately.
func (r *Runner) Start(job Job) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, busy := r.running[job.OperatorID]; busy {
		return ErrAlreadyRunning
	}

	ctx, cancel := context.WithCancel(r.root)
	r.running[job.OperatorID] = cancel
	r.wg.Add(1)

	go func() {
		defer r.wg.Done()
		defer func() {
			r.mu.Lock()
			delete(r.running, job.OperatorID)
			r.mu.Unlock()
			cancel()
		}()

		r.log.Info().Int64("operator_id", job.OperatorID).Int("recipients", len(job.Recipients)).Msg("Broadcast started")
		res, err := r.engine.Execute(ctx, job)
		if r.report != nil {
			r.report(context.WithoutCancel(ctx), job, res, err)
		}
	}()
	return nil
}

// Cancel stops the operator's running job. The remainder is counted as
// failed and the summary is still stored.
func (r *Runner) Cancel(operatorID int64) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	cancel, ok := r.running[operatorID]
	if ok {
		cancel()
	}
	return ok
}

func (r *Runner) Running(operatorID int64) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.running[operatorID]
	return ok
}

// Wait blocks until every started job has finished and reported.
func (r *Runner) Wait() {
	r.wg.Wait()
}
