package transfer

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/atharvakonge/quantumpool-web/internal/api"
	"github.com/atharvakonge/quantumpool-web/internal/models"
	"github.com/atharvakonge/quantumpool-web/internal/state"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Kind of balance operation
type Kind string

const (
	Deposit  Kind = "deposit"
	Withdraw Kind = "withdraw"
)

// Balancer performs balance mutations against the backend on behalf of one
// user. *api.Client satisfies it.
type Balancer interface {
	Deposit(ctx context.Context, coin string, amount decimal.Decimal) (*models.BalanceResponse, error)
	Withdraw(ctx context.Context, coin string, amount decimal.Decimal) (*models.BalanceResponse, error)
}

// Request is a balance operation to be processed
type Request struct {
	UserID  string
	Kind    Kind
	Coin    string
	Amount  decimal.Decimal
	Backend Balancer
}

// Result represents the outcome of a balance operation
type Result struct {
	Success bool
	Error   string
	Balance float64
	Err     error
}

type job struct {
	ctx      context.Context
	req      Request
	resultCh chan Result // Channel to send result back
}

// Processor runs balance operations on a worker pool. Operations of the same
// user never run concurrently.
type Processor struct {
	workers  int
	queue    chan job
	stopCh   chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
	locks    *state.UserLocks
	log      *zap.Logger
}

// NewProcessor creates a new processor with a worker pool
func NewProcessor(workers int, log *zap.Logger) *Processor {
	if workers <= 0 {
		workers = 1
	}
	return &Processor{
		workers: workers,
		queue:   make(chan job, 100),
		stopCh:  make(chan struct{}),
		locks:   state.NewUserLocks(),
		log:     log.With(zap.String("component", "transfer")),
	}
}

// Start starts the worker pool
func (p *Processor) Start() {
	for i := 0; i < p.workers; i++ {
		p.wg.Add(1)
		go p.worker(i)
	}
	p.log.Info("started transfer workers", zap.Int("workers", p.workers))
}

// Stop stops all workers and waits for them
func (p *Processor) Stop() {
	p.stopOnce.Do(func() {
		close(p.stopCh)
	})
	p.wg.Wait()
	p.log.Info("transfer processor stopped")
}

func (p *Processor) worker(id int) {
	defer p.wg.Done()

	for {
		select {
		case <-p.stopCh:
			return

		case j := <-p.queue:
			p.log.Debug("processing transfer",
				zap.Int("worker", id),
				zap.String("user", j.req.UserID),
				zap.String("kind", string(j.req.Kind)),
				zap.String("coin", j.req.Coin),
				zap.String("amount", j.req.Amount.String()))

			j.resultCh <- p.process(j.ctx, j.req)
		}
	}
}

// process executes one operation while holding the user's lock
func (p *Processor) process(ctx context.Context, req Request) Result {
	if err := ctx.Err(); err != nil {
		return failed(err)
	}

	p.locks.Lock(req.UserID)
	defer p.locks.Unlock(req.UserID)

	var (
		resp *models.BalanceResponse
		err  error
	)
	switch req.Kind {
	case Deposit:
		resp, err = req.Backend.Deposit(ctx, req.Coin, req.Amount)
	case Withdraw:
		resp, err = req.Backend.Withdraw(ctx, req.Coin, req.Amount)
	default:
		err = fmt.Errorf("unknown transfer kind %q", req.Kind)
	}
	if err != nil {
		p.log.Warn("transfer failed",
			zap.String("user", req.UserID),
			zap.String("kind", string(req.Kind)),
			zap.Error(err))
		return failed(err)
	}

	p.log.Info("transfer completed",
		zap.String("user", req.UserID),
		zap.String("kind", string(req.Kind)),
		zap.String("coin", req.Coin))

	return Result{Success: true, Balance: resp.Balance}
}

func failed(err error) Result {
	return Result{Success: false, Error: api.Message(err), Err: err}
}

var errStopped = errors.New("transfer processor stopped")

// Submit queues req and waits for its result
func (p *Processor) Submit(ctx context.Context, req Request) Result {
	resultCh := make(chan Result, 1)

	select {
	case <-p.stopCh:
		return failed(errStopped)
	default:
	}

	select {
	case p.queue <- job{ctx: ctx, req: req, resultCh: resultCh}:
	case <-p.stopCh:
		return failed(errStopped)
	case <-ctx.Done():
		return failed(ctx.Err())
	}

	select {
	case result := <-resultCh:
		return result
	case <-p.stopCh:
		return failed(errStopped)
	case <-ctx.Done():
		return failed(ctx.Err())
	}
}
