package daemon

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/theirongolddev/spendburn/internal/anomaly"
	"github.com/theirongolddev/spendburn/internal/logger"
	"github.com/theirongolddev/spendburn/internal/model"
	"github.com/theirongolddev/spendburn/internal/pipeline"
)

// Handler returns the daemon's HTTP API.
func (s *Service) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(requestID(s.log))
	r.Use(accessLog(s.log))
	r.Use(middleware.Recoverer)

	r.Get("/healthz", s.handleHealth)
	r.Route("/v1", func(r chi.Router) {
		r.Get("/status", s.handleStatus)
		r.Get("/summary/{period}", s.handleSummary)
		r.Get("/daily/{period}", s.handleDaily)
		r.Get("/anomalies/{period}", s.handleAnomalies)
		r.Get("/events", s.handleEvents)
		r.Get("/stream", s.handleStream)
	})
	return r
}

func (s *Service) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte("ok\n"))
}

func (s *Service) handleStatus(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.snapshotStatus())
}

// periodSummary resolves the {period} parameter and its latest summary,
// writing an error response when either is missing.
func (s *Service) periodSummary(w http.ResponseWriter, r *http.Request) (model.PeriodSummary, bool) {
	p, err := model.ParsePeriod(chi.URLParam(r, "period"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return model.PeriodSummary{}, false
	}
	s.mu.RLock()
	sum, ok := s.summaries[p]
	s.mu.RUnlock()
	if !ok {
		writeError(w, http.StatusServiceUnavailable, "no data yet")
		return model.PeriodSummary{}, false
	}
	return sum, true
}

func (s *Service) handleSummary(w http.ResponseWriter, r *http.Request) {
	sum, ok := s.periodSummary(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, sum)
}

type dailyResponse struct {
	Period         model.Period        `json:"period"`
	Mode           model.GraphMode     `json:"mode"`
	ForecastSource string              `json:"forecast_source,omitempty"`
	Buckets        []model.DailyBucket `json:"buckets"`
}

func (s *Service) handleDaily(w http.ResponseWriter, r *http.Request) {
	sum, ok := s.periodSummary(w, r)
	if !ok {
		return
	}
	mode, err := model.ParseGraphMode(r.URL.Query().Get("mode"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	resp := dailyResponse{Period: sum.Period, Mode: mode, Buckets: sum.Buckets}
	if r.URL.Query().Get("predict") == "1" {
		s.mu.RLock()
		fc, have := s.forecasts[sum.Period]
		s.mu.RUnlock()
		if have {
			resp.Buckets = pipeline.Splice(sum.Buckets, fc.Daily, mode)
			resp.ForecastSource = fc.Source
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Service) handleAnomalies(w http.ResponseWriter, r *http.Request) {
	sum, ok := s.periodSummary(w, r)
	if !ok {
		return
	}
	if s.cfg.Anomalies == nil {
		writeJSON(w, http.StatusOK, model.AnomalyReport{})
		return
	}

	s.mu.RLock()
	in := s.inputs
	s.mu.RUnlock()

	start, _ := model.ParseDate(sum.Start, time.UTC)
	end, _ := model.ParseDate(sum.End, time.UTC)
	det := anomaly.Safe(s.cfg.Anomalies, logger.FromContext(r.Context()))
	rep, _ := det.Detect(r.Context(), anomaly.Request{
		AccountID:    in.AccountID,
		Window:       model.NewWindow(start, end),
		Transactions: in.Transactions,
	})
	writeJSON(w, http.StatusOK, rep)
}

func (s *Service) handleEvents(w http.ResponseWriter, _ *http.Request) {
	s.mu.RLock()
	events := make([]Event, len(s.events))
	copy(events, s.events)
	s.mu.RUnlock()

	writeJSON(w, http.StatusOK, events)
}

func (s *Service) handleStream(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	ch := make(chan Event, 16)
	id := s.addSubscriber(ch)
	defer s.removeSubscriber(id)

	// Send current snapshots immediately.
	now := s.cfg.Now()
	for _, snap := range s.snapshotStatus().Periods {
		writeSSE(w, Event{Type: EventSnapshot, Timestamp: now, Snapshot: snap})
	}
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			return
		case ev := <-ch:
			writeSSE(w, ev)
			flusher.Flush()
		}
	}
}

type contextKey string

const requestIDKey contextKey = "request_id"

// requestID propagates X-Request-ID, generating one when absent, and
// attaches a request-scoped logger to the context.
func requestID(log zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := r.Header.Get("X-Request-ID")
			if id == "" {
				id = uuid.NewString()
			}
			w.Header().Set("X-Request-ID", id)
			ctx := context.WithValue(r.Context(), requestIDKey, id)
			ctx = logger.WithContext(ctx, logger.WithFields(log, map[string]interface{}{"request_id": id}))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// accessLog logs one line per request.
func accessLog(log zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			wrapped := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}

			next.ServeHTTP(wrapped, r)

			id, _ := r.Context().Value(requestIDKey).(string)
			log.Info().
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Int("status", wrapped.statusCode).
				Dur("duration", time.Since(start)).
				Str("request_id", id).
				Msg("http request")
		})
	}
}

// responseWriter captures the status code and keeps streaming working.
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *responseWriter) Flush() {
	if f, ok := rw.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		_ = json.NewEncoder(w).Encode(data)
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
