package ingest

import (
	"context"
	"runtime"
	"strconv"
	"sync"

	"paceline/internal/domain/model"
	"paceline/pkg/logger"
	"paceline/pkg/metrics"
)

// Updater runs one athlete's full update pipeline. Implemented by the
// orchestrator service.
type Updater interface {
	UpdateAthlete(ctx context.Context, job Job) (model.LoadState, model.RecommendationSet, []model.Diagnostic, error)
}

// Result is the outcome of one processed job.
type Result struct {
	AthleteID       string
	State           model.LoadState
	Recommendations model.RecommendationSet
	Diagnostics     []model.Diagnostic
	Err             error
}

// Pool fans queued jobs out to workers. Athlete-level parallelism is
// safe because each job owns exactly one athlete's state; ordering
// within a job stays sequential inside the Updater.
type Pool struct {
	queue   Queue
	updater Updater
	results chan Result
	count   int

	wg     sync.WaitGroup
	logger logger.Logger
}

// PoolOption applies a configuration option to the Pool.
type PoolOption func(*Pool)

// WithWorkerCount sets the number of worker goroutines.
func WithWorkerCount(count int) PoolOption {
	return func(p *Pool) {
		if count > 0 {
			p.count = count
		}
	}
}

// WithLogger sets a custom logger for the pool.
func WithLogger(l logger.Logger) PoolOption {
	return func(p *Pool) {
		if l != nil {
			p.logger = l
		}
	}
}

// NewPool creates a worker pool reading from queue.
func NewPool(queue Queue, updater Updater, opts ...PoolOption) *Pool {
	p := &Pool{
		queue:   queue,
		updater: updater,
		count:   runtime.NumCPU(),
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.logger == nil {
		p.logger = logger.Get().Named("ingest")
	}
	p.results = make(chan Result, p.count*2)
	return p
}

// Start launches the workers. Results arrive on Results() until the
// queue is closed and drained, after which the results channel closes.
func (p *Pool) Start(ctx context.Context) {
	metrics.UpdateIngestWorkerCount(p.count)
	for i := 0; i < p.count; i++ {
		p.wg.Add(1)
		go p.run(ctx, "worker-"+strconv.Itoa(i))
	}
	go func() {
		p.wg.Wait()
		close(p.results)
	}()
}

// Results returns the channel job outcomes are delivered on.
func (p *Pool) Results() <-chan Result {
	return p.results
}

func (p *Pool) run(ctx context.Context, name string) {
	defer p.wg.Done()
	log := p.logger.Named(name)

	jobs := p.queue.Dequeue(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case job, ok := <-jobs:
			if !ok {
				return
			}
			metrics.RecordIngestJob()
			metrics.UpdateIngestQueueSize(p.queue.Len(ctx))

			state, recs, diags, err := p.updater.UpdateAthlete(ctx, job)
			if err != nil {
				metrics.RecordIngestJobError()
				log.Error(ctx, "athlete update failed",
					logger.String("athleteID", job.AthleteID),
					logger.Error(err),
				)
			}
			select {
			case <-ctx.Done():
				return
			case p.results <- Result{
				AthleteID:       job.AthleteID,
				State:           state,
				Recommendations: recs,
				Diagnostics:     diags,
				Err:             err,
			}:
			}
		}
	}
}
