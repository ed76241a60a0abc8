// Package daemon provides the long-running background spend monitor service.
package daemon

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/theirongolddev/spendburn/internal/anomaly"
	"github.com/theirongolddev/spendburn/internal/forecast"
	"github.com/theirongolddev/spendburn/internal/model"
	"github.com/theirongolddev/spendburn/internal/pipeline"
	"github.com/theirongolddev/spendburn/internal/store"
)

// Source supplies the inputs of each poll.
type Source interface {
	Load(ctx context.Context) (pipeline.Inputs, error)
}

// StoreSource loads inputs from the sqlite store at Path. The store is
// opened per poll so imports from other processes are picked up.
type StoreSource struct {
	Path  string
	Scope pipeline.Scope
}

// Load implements Source.
func (s StoreSource) Load(_ context.Context) (pipeline.Inputs, error) {
	st, err := store.Open(s.Path)
	if err != nil {
		return pipeline.Inputs{}, err
	}
	defer func() { _ = st.Close() }()
	return pipeline.LoadInputs(st, s.Scope)
}

// Config controls the daemon runtime behavior.
type Config struct {
	Source       Source
	Location     *time.Location
	Sign         model.SignConvention
	Interval     time.Duration
	Addr         string
	EventsBuffer int
	// Forecast and Anomalies are optional.
	Forecast  forecast.Provider
	Anomalies anomaly.Detector
	// ForecastTimeout bounds one background forecast refresh.
	ForecastTimeout time.Duration
	Logger    zerolog.Logger
	Now       func() time.Time
}

// Status is served at /v1/status.
type Status struct {
	StartedAt       time.Time        `json:"started_at"`
	LastPollAt      time.Time        `json:"last_poll_at"`
	PollIntervalSec int              `json:"poll_interval_sec"`
	PollCount       int64            `json:"poll_count"`
	UserID          string           `json:"user_id,omitempty"`
	AccountID       string           `json:"account_id,omitempty"`
	Periods         []PeriodSnapshot `json:"periods"`
	ForecastSource  string           `json:"forecast_source,omitempty"`
	LastError       string           `json:"last_error,omitempty"`
	EventCount      int              `json:"event_count"`
	SubscriberCount int              `json:"subscriber_count"`
}

// Service provides the daemon runtime and HTTP API.
type Service struct {
	cfg     Config
	log     zerolog.Logger
	tracker forecast.Tracker
	wg      sync.WaitGroup

	// refreshing is set while a forecast refresh is in flight.
	refreshing atomic.Bool

	mu         sync.RWMutex
	startedAt  time.Time
	lastPollAt time.Time
	pollCount  int64
	lastError  string
	inputs     pipeline.Inputs
	summaries  map[model.Period]model.PeriodSummary
	forecasts  map[model.Period]model.Forecast

	nextEventID int64
	events      []Event

	nextSubID int
	subs      map[int]chan Event
}

// New returns a new daemon service with the provided config.
func New(cfg Config) *Service {
	if cfg.Interval < 2*time.Second {
		cfg.Interval = 15 * time.Second
	}
	if cfg.EventsBuffer < 1 {
		cfg.EventsBuffer = 200
	}
	if cfg.Addr == "" {
		cfg.Addr = "127.0.0.1:8787"
	}
	if cfg.Location == nil {
		cfg.Location = time.Local
	}
	if cfg.Sign == "" {
		cfg.Sign = model.PositiveSpend
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.ForecastTimeout <= 0 {
		cfg.ForecastTimeout = 2 * time.Minute
	}

	return &Service{
		cfg:       cfg,
		log:       cfg.Logger.With().Str("component", "daemon").Logger(),
		startedAt: cfg.Now(),
		summaries: make(map[model.Period]model.PeriodSummary),
		forecasts: make(map[model.Period]model.Forecast),
		subs:      make(map[int]chan Event),
	}
}

// Run starts HTTP endpoints and polling until ctx is canceled.
func (s *Service) Run(ctx context.Context) error {
	server := &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()
	s.log.Info().Str("addr", s.cfg.Addr).Dur("interval", s.cfg.Interval).Msg("daemon started")

	// Seed initial snapshot so status is useful immediately.
	s.pollOnce(ctx)

	ticker := time.NewTicker(s.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.tracker.Invalidate()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			err := server.Shutdown(shutdownCtx)
			s.wg.Wait()
			return err
		case <-ticker.C:
			s.pollOnce(ctx)
		case err := <-errCh:
			return fmt.Errorf("daemon http server: %w", err)
		}
	}
}

func (s *Service) pollOnce(ctx context.Context) {
	in, err := s.cfg.Source.Load(ctx)
	now := s.cfg.Now()
	if err != nil {
		s.mu.Lock()
		s.lastError = err.Error()
		s.lastPollAt = now
		s.pollCount++
		s.mu.Unlock()
		s.log.Error().Err(err).Msg("poll failed")
		return
	}

	opts := pipeline.Options{Location: s.cfg.Location, Sign: s.cfg.Sign, Logger: s.log}
	summaries := pipeline.SummarizeAll(in.Transactions, in.Budgets, now, opts)

	var pending []Event
	s.mu.Lock()
	for _, sum := range summaries {
		prev, had := s.summaries[sum.Period]
		pending = append(pending, s.diffLocked(prev, had, sum, now)...)
		s.summaries[sum.Period] = sum
	}
	s.inputs = in
	s.lastPollAt = now
	s.pollCount++
	s.lastError = ""
	s.mu.Unlock()

	for _, ev := range pending {
		s.publishEvent(ev)
	}

	if s.cfg.Forecast != nil {
		s.refreshForecasts(ctx, in, summaries)
	}
}

// diffLocked builds the events for one period transition. Callers hold mu.
func (s *Service) diffLocked(prev model.PeriodSummary, had bool, curr model.PeriodSummary, now time.Time) []Event {
	snap := snapshotFromSummary(curr)
	if !had {
		return []Event{s.newEventLocked(EventSnapshot, now, snap, Delta{})}
	}

	delta := diffSummaries(prev, curr)
	if delta.isZero() {
		return nil
	}
	events := []Event{s.newEventLocked(EventSpendDelta, now, snap, delta)}
	if !prev.Status.Over && curr.Status.Over {
		events = append(events, s.newEventLocked(EventBudgetExceeded, now, snap, delta))
	}
	return events
}

// refreshForecasts recomputes forecasts in the background. At most one
// refresh runs at a time; polls that land while one is in flight skip it and
// the next poll after it finishes picks up the newer history. A result whose
// generation is no longer current is dropped.
func (s *Service) refreshForecasts(ctx context.Context, in pipeline.Inputs, summaries []model.PeriodSummary) {
	if !s.refreshing.CompareAndSwap(false, true) {
		s.log.Debug().Msg("forecast refresh still running, skipping")
		return
	}
	tok := s.tracker.Begin()
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer s.refreshing.Store(false)

		ctx, cancel := context.WithTimeout(ctx, s.cfg.ForecastTimeout)
		defer cancel()

		out := make(map[model.Period]model.Forecast, len(summaries))
		for _, sum := range summaries {
			fc, err := s.cfg.Forecast.Predict(ctx, forecast.Request{
				UserID:    in.UserID,
				AccountID: in.AccountID,
				History:   sum.Buckets,
				Days:      forecast.DaysFor(sum.Period),
			})
			if err != nil {
				s.log.Warn().Err(err).Str("period", string(sum.Period)).Msg("forecast refresh failed")
				if ctx.Err() != nil {
					// Keep the previous forecasts rather than a partial set.
					return
				}
				continue
			}
			out[sum.Period] = fc
		}

		s.mu.Lock()
		defer s.mu.Unlock()
		if !s.tracker.Current(tok) {
			s.log.Debug().Uint64("token", uint64(tok)).Msg("discarding stale forecast")
			return
		}
		s.forecasts = out
	}()
}

func (s *Service) snapshotStatus() Status {
	s.mu.RLock()
	defer s.mu.RUnlock()

	st := Status{
		StartedAt:       s.startedAt,
		LastPollAt:      s.lastPollAt,
		PollIntervalSec: int(s.cfg.Interval.Seconds()),
		PollCount:       s.pollCount,
		UserID:          s.inputs.UserID,
		AccountID:       s.inputs.AccountID,
		LastError:       s.lastError,
		EventCount:      len(s.events),
		SubscriberCount: len(s.subs),
	}
	for _, p := range model.Periods {
		if sum, ok := s.summaries[p]; ok {
			st.Periods = append(st.Periods, snapshotFromSummary(sum))
		}
		if fc, ok := s.forecasts[p]; ok && st.ForecastSource == "" {
			st.ForecastSource = fc.Source
		}
	}
	return st
}
