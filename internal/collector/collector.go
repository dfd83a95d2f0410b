package collector

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"sfpark-collector/config"
	"sfpark-collector/internal/model"
	"sfpark-collector/internal/sfpark"
	"sfpark-collector/internal/store"
	"sfpark-collector/internal/tracker"
)

// State is the lifecycle phase of a Service.
type State int32

const (
	StateIdle State = iota
	StateRunning
	StateShuttingDown
	StateStopped
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateRunning:
		return "running"
	case StateShuttingDown:
		return "shutting_down"
	case StateStopped:
		return "stopped"
	default:
		return "unknown"
	}
}

// Saver persists one cycle's batch atomically.
type Saver interface {
	SaveBatch(ctx context.Context, batch model.Batch) error
}

// Report summarizes one cycle.
type Report struct {
	Started        time.Time     `json:"started"`
	Duration       time.Duration `json:"duration_ns"`
	DateID         int           `json:"date_id,omitempty"`
	Locations      int           `json:"locations"`
	Availability   int           `json:"availability"`
	Rates          int           `json:"rates"`
	Hours          int           `json:"operating_hours"`
	Rejected       int           `json:"rejected"`
	KnownLocations int           `json:"known_locations"`
	Error          string        `json:"error,omitempty"`
}

// Stats is a point-in-time view of the service, safe to read from any goroutine.
type Stats struct {
	State    string  `json:"state"`
	Cycles   int64   `json:"cycles"`
	Failures int64   `json:"failures"`
	Last     *Report `json:"last,omitempty"`
}

// Service runs collection cycles at a fixed cadence measured from cycle start.
type Service struct {
	interval time.Duration
	fetcher  sfpark.Fetcher
	saver    Saver
	tracker  *tracker.Tracker
	onCycle  func(Report)

	state atomic.Int32

	mu       sync.Mutex
	cycles   int64
	failures int64
	last     *Report
}

// NewService creates a new collector service. The tracker is owned by the
// service from now on.
func NewService(cfg config.CollectorConfig, fetcher sfpark.Fetcher, saver Saver, tr *tracker.Tracker) *Service {
	interval := cfg.Interval
	if interval <= 0 {
		interval = time.Duration(cfg.IntervalSeconds) * time.Second
	}
	return &Service{
		interval: interval,
		fetcher:  fetcher,
		saver:    saver,
		tracker:  tr,
	}
}

// OnCycle registers fn to be called with the report of every cycle. It must be
// set before Run.
func (s *Service) OnCycle(fn func(Report)) {
	s.onCycle = fn
}

// State returns the current lifecycle phase.
func (s *Service) State() State {
	return State(s.state.Load())
}

// Stats returns a snapshot of the cycle counters and the last report.
func (s *Service) Stats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := Stats{State: s.State().String(), Cycles: s.cycles, Failures: s.failures}
	if s.last != nil {
		last := *s.last
		st.Last = &last
	}
	return st
}

// Run executes cycles until ctx is cancelled. Cancellation is only observed
// between cycles; a cycle that has started runs to completion.
func (s *Service) Run(ctx context.Context) {
	if !s.state.CompareAndSwap(int32(StateIdle), int32(StateRunning)) {
		zap.L().Warn("collector already started", zap.Stringer("state", s.State()))
		return
	}
	defer s.state.Store(int32(StateStopped))

	zap.L().Info("starting collector", zap.Duration("interval", s.interval))
	cycleCtx := context.WithoutCancel(ctx)

	for {
		start := time.Now()
		_, _ = s.CollectOnce(cycleCtx)

		if ctx.Err() != nil {
			break
		}
		timer := time.NewTimer(nextDelay(s.interval, time.Since(start)))
		select {
		case <-ctx.Done():
			timer.Stop()
		case <-timer.C:
		}
		if ctx.Err() != nil {
			break
		}
	}

	s.state.Store(int32(StateShuttingDown))
	zap.L().Info("collector shutting down")
}

// nextDelay is the wait before the next tick: the rest of the interval, or
// nothing when the cycle overran it.
func nextDelay(interval, elapsed time.Duration) time.Duration {
	if d := interval - elapsed; d > 0 {
		return d
	}
	return 0
}

// CollectOnce runs a single fetch, normalize, stage and persist cycle. Every
// failure is logged and returned; none is fatal.
func (s *Service) CollectOnce(ctx context.Context) (Report, error) {
	rep := Report{Started: time.Now()}
	err := s.collect(ctx, &rep)
	rep.Duration = time.Since(rep.Started)
	rep.KnownLocations = s.tracker.KnownCount()
	if err != nil {
		rep.Error = err.Error()
	}

	s.mu.Lock()
	s.cycles++
	if err != nil {
		s.failures++
	}
	last := rep
	s.last = &last
	s.mu.Unlock()

	if s.onCycle != nil {
		s.onCycle(rep)
	}
	return rep, err
}

func (s *Service) collect(ctx context.Context, rep *Report) error {
	doc, err := s.fetcher.Fetch(ctx)
	if err != nil {
		zap.L().Error("fetch failed, skipping cycle", zap.Error(err))
		return err
	}

	res, err := sfpark.Normalize(doc)
	if err != nil {
		var perr *sfpark.ProviderError
		if errors.As(err, &perr) {
			zap.L().Error("provider returned an error",
				zap.String("status", perr.Status),
				zap.String("code", perr.Code),
				zap.String("message", perr.Message),
			)
		} else {
			zap.L().Error("could not normalize response", zap.Error(err))
		}
		return err
	}
	rep.DateID = res.DateID
	rep.Rejected = len(res.Rejected)
	for _, rejected := range res.Rejected {
		logRejected(rejected)
	}

	batch, cp := s.tracker.Stage(res)
	if !batch.Empty() {
		if err := s.saver.SaveBatch(ctx, batch); err != nil {
			s.tracker.Rollback(cp)
			if errors.Is(err, store.ErrOrphanFact) {
				zap.L().Error("batch references a location that is not stored yet", zap.Int("date_id", res.DateID), zap.Error(err))
			} else {
				zap.L().Error("could not persist batch", zap.Int("date_id", res.DateID), zap.Error(err))
			}
			return err
		}
	}

	rep.Locations = len(batch.Locations)
	rep.Availability = len(batch.Availability)
	rep.Rates = len(batch.Rates)
	rep.Hours = len(batch.Hours)

	zap.L().Debug("cycle committed",
		zap.Int("date_id", rep.DateID),
		zap.Int("locations", rep.Locations),
		zap.Int("availability", rep.Availability),
		zap.Int("rates", rep.Rates),
		zap.Int("hours", rep.Hours),
	)
	return nil
}

func logRejected(err error) {
	var rec *sfpark.RecordError
	if !errors.As(err, &rec) {
		zap.L().Warn("record rejected", zap.Error(err))
		return
	}
	zap.L().Warn("record rejected",
		zap.String("kind", string(rec.Kind)),
		zap.Int64("location", rec.LocID),
		zap.Int("entry", rec.Entry),
		zap.Error(rec.Err),
	)
}
