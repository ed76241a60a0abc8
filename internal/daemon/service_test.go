package daemon

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/theirongolddev/spendburn/internal/anomaly"
	"github.com/theirongolddev/spendburn/internal/forecast"
	"github.com/theirongolddev/spendburn/internal/model"
	"github.com/theirongolddev/spendburn/internal/pipeline"
)

type fakeSource struct {
	mu sync.Mutex
	in pipeline.Inputs
}

func (f *fakeSource) Load(context.Context) (pipeline.Inputs, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.in, nil
}

func (f *fakeSource) add(tx model.Transaction) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.in.Transactions = append(f.in.Transactions, tx)
}

type fixedForecast struct{}

func (fixedForecast) Predict(_ context.Context, req forecast.Request) (model.Forecast, error) {
	start := forecast.StartDate(req, time.Time{})
	return model.Forecast{
		Source: "fixed",
		Daily: []model.DailyBucket{
			{Date: start.Format(model.DateLayout), Amount: 20},
			{Date: start.AddDate(0, 0, 1).Format(model.DateLayout), Amount: 30},
		},
	}, nil
}

func newTestService(t *testing.T, src *fakeSource, fc forecast.Provider) *Service {
	t.Helper()
	now := time.Date(2024, 1, 7, 12, 0, 0, 0, time.UTC)
	return New(Config{
		Source:       src,
		Location:     time.UTC,
		Interval:     10 * time.Second,
		EventsBuffer: 50,
		Forecast:     fc,
		Anomalies:    anomaly.IQR{Location: time.UTC},
		Logger:       zerolog.Nop(),
		Now:          func() time.Time { return now },
	})
}

func eventTypes(s *Service) []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]string, len(s.events))
	for i, ev := range s.events {
		out[i] = ev.Type
	}
	return out
}

func TestPollEvents(t *testing.T) {
	src := &fakeSource{in: pipeline.Inputs{Transactions: []model.Transaction{
		{ID: "a", Date: "2024-01-06", Amount: 100},
	}}}
	s := newTestService(t, src, nil)

	s.pollOnce(context.Background())
	assert.Equal(t, []string{"snapshot", "snapshot", "snapshot"}, eventTypes(s))

	s.pollOnce(context.Background())
	assert.Len(t, eventTypes(s), 3, "unchanged data must not emit events")

	src.add(model.Transaction{ID: "b", Date: "2024-01-07", Amount: 450})
	s.pollOnce(context.Background())

	types := eventTypes(s)[3:]
	assert.Equal(t, []string{"spend_delta", "budget_exceeded", "spend_delta", "spend_delta"}, types)

	s.mu.RLock()
	exceeded := s.events[4]
	s.mu.RUnlock()
	assert.Equal(t, model.Weekly, exceeded.Snapshot.Period)
	assert.Equal(t, 100, exceeded.Snapshot.Percentage)
	assert.InDelta(t, 450, exceeded.Delta.Total, 1e-9)
}

func TestDiffSummaries(t *testing.T) {
	prev := model.PeriodSummary{Total: 100, Transactions: 2, Status: model.BudgetStatus{Percentage: 20}}
	curr := model.PeriodSummary{Total: 130.5, Transactions: 3, Status: model.BudgetStatus{Percentage: 26}}

	delta := diffSummaries(prev, curr)
	assert.InDelta(t, 30.5, delta.Total, 1e-9)
	assert.Equal(t, 1, delta.Transactions)
	assert.Equal(t, 6, delta.Percentage)
	assert.False(t, delta.isZero())
	assert.True(t, diffSummaries(curr, curr).isZero())
}

func TestPublishEventRingBuffer(t *testing.T) {
	s := New(Config{
		Interval:     10 * time.Second,
		EventsBuffer: 2,
	})

	s.publishEvent(Event{ID: 1})
	s.publishEvent(Event{ID: 2})
	s.publishEvent(Event{ID: 3})

	s.mu.RLock()
	defer s.mu.RUnlock()

	require.Len(t, s.events, 2)
	assert.Equal(t, int64(2), s.events[0].ID)
	assert.Equal(t, int64(3), s.events[1].ID)
}

func getJSON(t *testing.T, h http.Handler, path string, out any) int {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	if out != nil && rec.Code == http.StatusOK {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), out))
	}
	return rec.Code
}

func TestHTTPRoutes(t *testing.T) {
	src := &fakeSource{in: pipeline.Inputs{UserID: "u1", AccountID: "acct", Transactions: []model.Transaction{
		{ID: "a", Date: "2024-01-06", Amount: 60},
		{ID: "b", Date: "2024-01-07", Amount: 40},
	}}}
	s := newTestService(t, src, fixedForecast{})
	h := s.Handler()

	assert.Equal(t, http.StatusServiceUnavailable, getJSON(t, h, "/v1/summary/weekly", nil))

	s.pollOnce(context.Background())
	s.wg.Wait()

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, "ok\n", rec.Body.String())
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))

	var st Status
	require.Equal(t, http.StatusOK, getJSON(t, h, "/v1/status", &st))
	assert.Len(t, st.Periods, 3)
	assert.Equal(t, "fixed", st.ForecastSource)
	assert.Equal(t, "acct", st.AccountID)

	var sum model.PeriodSummary
	require.Equal(t, http.StatusOK, getJSON(t, h, "/v1/summary/w", &sum))
	assert.Equal(t, 100.0, sum.Total)
	assert.Equal(t, 20, sum.Status.Percentage)

	assert.Equal(t, http.StatusBadRequest, getJSON(t, h, "/v1/summary/yearly", nil))

	var daily dailyResponse
	require.Equal(t, http.StatusOK, getJSON(t, h, "/v1/daily/weekly?predict=1&mode=cumulative", &daily))
	require.Len(t, daily.Buckets, 9)
	assert.Equal(t, 120.0, daily.Buckets[7].Cumulative)
	assert.Equal(t, 150.0, daily.Buckets[8].Cumulative)
	assert.True(t, daily.Buckets[8].Predicted)

	require.Equal(t, http.StatusOK, getJSON(t, h, "/v1/daily/weekly", &daily))
	assert.Len(t, daily.Buckets, 7)

	var rep model.AnomalyReport
	require.Equal(t, http.StatusOK, getJSON(t, h, "/v1/anomalies/weekly", &rep))
	assert.True(t, rep.Empty())

	var events []Event
	require.Equal(t, http.StatusOK, getJSON(t, h, "/v1/events", &events))
	assert.Len(t, events, 3)
}

type gatedForecast struct {
	release chan struct{}
}

func (g gatedForecast) Predict(ctx context.Context, req forecast.Request) (model.Forecast, error) {
	<-g.release
	return fixedForecast{}.Predict(ctx, req)
}

func TestStaleForecastDiscarded(t *testing.T) {
	gate := gatedForecast{release: make(chan struct{})}
	src := &fakeSource{}
	s := newTestService(t, src, gate)

	sums := pipeline.SummarizeAll(nil, model.Budgets{}, s.cfg.Now(), pipeline.Options{Location: time.UTC})
	s.refreshForecasts(context.Background(), pipeline.Inputs{}, sums)

	// A newer generation starts before the first one finishes.
	s.tracker.Begin()
	close(gate.release)
	s.wg.Wait()

	s.mu.RLock()
	defer s.mu.RUnlock()
	assert.Empty(t, s.forecasts, "stale forecast must not be stored")
}

// slowForecast sleeps per call and records the peak number of concurrent calls.
type slowForecast struct {
	delay time.Duration

	mu       sync.Mutex
	inflight int
	peak     int
	calls    int
}

func (f *slowForecast) Predict(ctx context.Context, req forecast.Request) (model.Forecast, error) {
	f.mu.Lock()
	f.inflight++
	f.calls++
	f.peak = max(f.peak, f.inflight)
	f.mu.Unlock()
	defer func() {
		f.mu.Lock()
		f.inflight--
		f.mu.Unlock()
	}()

	select {
	case <-time.After(f.delay):
	case <-ctx.Done():
		return model.Forecast{}, ctx.Err()
	}
	return fixedForecast{}.Predict(ctx, req)
}

func TestSlowForecastRefreshesDoNotPileUp(t *testing.T) {
	fc := &slowForecast{delay: 60 * time.Millisecond}
	src := &fakeSource{in: pipeline.Inputs{Transactions: []model.Transaction{
		{ID: "a", Date: "2024-01-06", Amount: 100},
	}}}
	s := newTestService(t, src, fc)

	// Polls land faster than one refresh completes.
	for i := 0; i < 6; i++ {
		s.pollOnce(context.Background())
		time.Sleep(20 * time.Millisecond)
	}
	s.wg.Wait()

	fc.mu.Lock()
	peak := fc.peak
	fc.mu.Unlock()
	assert.Equal(t, 1, peak, "refreshes must not overlap")

	s.mu.RLock()
	stored := len(s.forecasts)
	s.mu.RUnlock()
	assert.Equal(t, len(model.Periods), stored, "a slow refresh must still land")

	// The next poll after completion starts a fresh refresh.
	s.pollOnce(context.Background())
	assert.True(t, s.refreshing.Load())
	s.wg.Wait()
	assert.False(t, s.refreshing.Load())
}

func TestForecastRefreshTimesOut(t *testing.T) {
	fc := &slowForecast{delay: time.Hour}
	s := newTestService(t, &fakeSource{}, fixedForecast{})
	s.cfg.Forecast = fc
	s.cfg.ForecastTimeout = 30 * time.Millisecond

	sums := pipeline.SummarizeAll(nil, model.Budgets{}, s.cfg.Now(), pipeline.Options{Location: time.UTC})

	done := make(chan struct{})
	go func() {
		s.refreshForecasts(context.Background(), pipeline.Inputs{}, sums)
		s.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("refresh was not bounded by its timeout")
	}

	assert.False(t, s.refreshing.Load(), "a timed-out refresh must release the slot")
	s.mu.RLock()
	defer s.mu.RUnlock()
	assert.Empty(t, s.forecasts)
}
