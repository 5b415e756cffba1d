// Package service composes the normalizer, load accumulator, risk
// detector and plan adapter into the single update entry point external
// collaborators invoke.
package service

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sort"
	"sync"
	"time"

	"paceline/internal/adapters/ingest"
	"paceline/internal/adapters/store"
	"paceline/internal/domain/dedupe"
	"paceline/internal/domain/load"
	"paceline/internal/domain/model"
	"paceline/internal/domain/normalize"
	"paceline/internal/domain/plan"
	"paceline/internal/domain/risk"
	"paceline/pkg/logger"
	"paceline/pkg/metrics"
)

// Default orchestration constants.
const (
	defaultWindowDays = 7
	defaultDedupeSize = 50000
	defaultQueueSize  = 1024
)

// UpdateRequest carries one athlete's new sessions plus planning inputs.
type UpdateRequest struct {
	AthleteID   string
	Sessions    []model.Session
	Profile     model.AthleteProfile
	Template    model.PlanTemplate
	WindowStart time.Time // zero value: day after the final state date
	WindowDays  int       // zero or negative: 7
}

// UpdateResult is the outcome of one athlete update. State is the
// committed load state; on a plan-generation error it is still valid
// and persisted, per the error-isolation policy.
type UpdateResult struct {
	State           model.LoadState
	Risk            model.RiskFlag
	Recommendations model.RecommendationSet
	Diagnostics     []model.Diagnostic
}

// Service implements the coach orchestrator.
type Service struct {
	mu sync.RWMutex

	// Core components
	store       store.Store
	deduper     dedupe.Deduper
	normalizer  normalize.Normalizer
	accumulator *load.Accumulator
	detector    *risk.Detector
	planner     *plan.Adapter

	// Per-athlete serialization: concurrent updates for the same
	// athlete would corrupt the monotonic as-of-date invariant.
	locksMu sync.Mutex
	locks   map[string]*sync.Mutex

	// Configuration
	workerCount           int
	queueSize             int
	dedupeSize            int
	defaultThresholdPower float64
	defaultThresholdHR    float64

	// State
	started bool

	// Logging
	logger logger.Logger
}

// New constructs a Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{
		workerCount:           runtime.NumCPU(),
		queueSize:             defaultQueueSize,
		dedupeSize:            defaultDedupeSize,
		defaultThresholdPower: 250,
		defaultThresholdHR:    170,
		locks:                 make(map[string]*sync.Mutex),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start wires up any components not supplied through options.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}
	if s.logger == nil {
		s.logger = logger.Get().Named("coach")
	}
	if s.store == nil {
		s.store = store.NewMemoryStore()
	}
	if s.deduper == nil {
		s.deduper = dedupe.New(dedupe.WithMaxSize(s.dedupeSize))
	}
	if s.normalizer == nil {
		s.normalizer = normalize.NewSummarizer()
	}
	if s.accumulator == nil {
		s.accumulator = load.NewAccumulator()
	}
	if s.detector == nil {
		s.detector = risk.NewDetector()
	}
	if s.planner == nil {
		s.planner = plan.NewAdapter()
	}

	s.started = true
	s.logger.Info(ctx, "coach service started",
		logger.Int("workers", s.workerCount),
		logger.Int("queueSize", s.queueSize),
	)
	return nil
}

// Stop releases the service's resources.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}
	if err := s.store.Close(); err != nil {
		s.logger.Warn(context.Background(), "closing store", logger.Error(err))
	}
	s.started = false
	s.logger.Info(context.Background(), "coach service stopped")
}

// Update runs one athlete's full pipeline: normalize and apply each new
// session in ascending date order, evaluate risk, then adjust the plan.
//
// A malformed session is skipped and reported in Diagnostics. An
// out-of-order session aborts the whole batch with no state written. A
// plan-coverage failure still commits and returns the new state; the
// error is surfaced alongside the partially filled result.
func (s *Service) Update(ctx context.Context, req UpdateRequest) (UpdateResult, error) {
	started := time.Now()
	defer func() {
		metrics.ObserveUpdateDuration(time.Since(started).Seconds())
	}()

	if req.AthleteID == "" {
		return UpdateResult{}, fmt.Errorf("update: empty athlete id")
	}

	unlock := s.lockAthlete(req.AthleteID)
	defer unlock()

	state, err := s.currentState(ctx, req.AthleteID)
	if err != nil {
		return UpdateResult{}, err
	}

	result := UpdateResult{}
	sessions := sortedByStart(req.Sessions)
	profile := s.fillProfile(req.Profile, req.AthleteID)

	var applied []string
	for _, session := range sessions {
		if s.deduper.SeenAndRecord(ctx, session.ID) {
			metrics.RecordSessionDuplicate()
			result.Diagnostics = append(result.Diagnostics, model.Diagnostic{
				SessionID: session.ID,
				Date:      model.DateOf(session.StartTime),
				Reason:    "duplicate session id",
			})
			continue
		}

		summary, err := s.normalizer.Normalize(ctx, session, profile)
		if err != nil {
			if errors.Is(err, normalize.ErrInvalidSession) {
				metrics.RecordSessionInvalid()
				s.deduper.Unrecord(ctx, session.ID)
				result.Diagnostics = append(result.Diagnostics, model.Diagnostic{
					SessionID: session.ID,
					Date:      model.DateOf(session.StartTime),
					Reason:    err.Error(),
				})
				continue
			}
			s.rollbackDedupe(ctx, applied, session.ID)
			return UpdateResult{}, err
		}
		metrics.RecordSessionNormalized()
		if summary.Degraded {
			metrics.RecordSessionDegraded()
		}

		next, err := s.accumulator.Apply(ctx, state, summary)
		if err != nil {
			// Sequencing violations poison the whole batch: the
			// already-applied prefix must not be committed.
			s.rollbackDedupe(ctx, applied, session.ID)
			if errors.Is(err, load.ErrOutOfOrderUpdate) {
				metrics.RecordBatchAborted()
			}
			return UpdateResult{}, err
		}
		state = next
		applied = append(applied, session.ID)
	}

	if len(applied) > 0 {
		if err := s.store.PutLoadState(ctx, state); err != nil {
			s.rollbackDedupe(ctx, applied, "")
			return UpdateResult{}, fmt.Errorf("persist load state: %w", err)
		}
		metrics.UpdateLoadGauges(state.AthleteID, state.ChronicLoad, state.AcuteLoad)
	}
	result.State = state

	result.Risk = s.detector.Evaluate(ctx, state)

	windowStart := req.WindowStart
	if windowStart.IsZero() {
		windowStart = state.AsOfDate.AddDate(0, 0, 1)
	}
	windowDays := req.WindowDays
	if windowDays <= 0 {
		windowDays = defaultWindowDays
	}

	recs, err := s.planner.Adjust(ctx, state, result.Risk, req.Template, windowStart, windowDays)
	if err != nil {
		// The load state is already committed; planning failures do
		// not undo it.
		metrics.RecordPlanFailure()
		s.logger.Warn(ctx, "plan generation failed",
			logger.String("athleteID", req.AthleteID),
			logger.Error(err),
		)
		return result, err
	}
	metrics.RecordPlanGenerated()
	result.Recommendations = recs

	s.logger.Info(ctx, "athlete updated",
		logger.String("athleteID", req.AthleteID),
		logger.Int("applied", len(applied)),
		logger.Int("skipped", len(result.Diagnostics)),
		logger.Float64("chronic", state.ChronicLoad),
		logger.Float64("acute", state.AcuteLoad),
		logger.String("risk", string(result.Risk.Kind)),
	)
	return result, nil
}

// UpdateAthlete adapts Update to the ingest worker contract.
func (s *Service) UpdateAthlete(ctx context.Context, job ingest.Job) (model.LoadState, model.RecommendationSet, []model.Diagnostic, error) {
	result, err := s.Update(ctx, UpdateRequest{
		AthleteID:   job.AthleteID,
		Sessions:    job.Sessions,
		Profile:     job.Profile,
		Template:    job.Template,
		WindowStart: job.WindowStart,
		WindowDays:  job.WindowDays,
	})
	return result.State, result.Recommendations, result.Diagnostics, err
}

// UpdateAll processes many athletes concurrently, one pipeline each.
// The slice order of the returned results is unspecified.
func (s *Service) UpdateAll(ctx context.Context, reqs []UpdateRequest) []ingest.Result {
	queue := ingest.NewInMemoryQueue(ingest.WithCapacity(maxInt(s.queueSize, len(reqs))))
	pool := ingest.NewPool(queue, s,
		ingest.WithWorkerCount(s.workerCount),
		ingest.WithLogger(s.logger),
	)
	pool.Start(ctx)

	for _, req := range reqs {
		queue.Enqueue(ctx, ingest.Job{
			AthleteID:   req.AthleteID,
			Sessions:    req.Sessions,
			Profile:     req.Profile,
			Template:    req.Template,
			WindowStart: req.WindowStart,
			WindowDays:  req.WindowDays,
		})
	}
	_ = queue.Close()

	results := make([]ingest.Result, 0, len(reqs))
	for r := range pool.Results() {
		results = append(results, r)
	}
	return results
}

// GetState returns the persisted load state for an athlete.
func (s *Service) GetState(ctx context.Context, athleteID string) (model.LoadState, error) {
	return s.store.GetLoadState(ctx, athleteID)
}

// currentState loads the athlete's state, or a fresh zero state when
// none is recorded yet.
func (s *Service) currentState(ctx context.Context, athleteID string) (model.LoadState, error) {
	state, err := s.store.GetLoadState(ctx, athleteID)
	if errors.Is(err, store.ErrNotFound) {
		return model.LoadState{AthleteID: athleteID}, nil
	}
	if err != nil {
		return model.LoadState{}, fmt.Errorf("read load state: %w", err)
	}
	return state, nil
}

// lockAthlete serializes updates per athlete id.
func (s *Service) lockAthlete(athleteID string) func() {
	s.locksMu.Lock()
	lock, ok := s.locks[athleteID]
	if !ok {
		lock = &sync.Mutex{}
		s.locks[athleteID] = lock
	}
	s.locksMu.Unlock()

	lock.Lock()
	return lock.Unlock
}

// rollbackDedupe forgets session IDs recorded during an aborted batch
// so a corrected resubmission is not treated as duplicate.
func (s *Service) rollbackDedupe(ctx context.Context, applied []string, current string) {
	for _, id := range applied {
		s.deduper.Unrecord(ctx, id)
	}
	if current != "" {
		s.deduper.Unrecord(ctx, current)
	}
}

func (s *Service) fillProfile(p model.AthleteProfile, athleteID string) model.AthleteProfile {
	if p.AthleteID == "" {
		p.AthleteID = athleteID
	}
	if p.ThresholdPower <= 0 {
		p.ThresholdPower = s.defaultThresholdPower
	}
	if p.ThresholdHR <= 0 {
		p.ThresholdHR = s.defaultThresholdHR
	}
	return p
}

func sortedByStart(sessions []model.Session) []model.Session {
	out := append([]model.Session(nil), sessions...)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].StartTime.Before(out[j].StartTime)
	})
	return out
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
