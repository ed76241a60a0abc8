package daemon

import (
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"time"

	"github.com/theirongolddev/spendburn/internal/model"
)

// Event types.
const (
	EventSnapshot       = "snapshot"
	EventSpendDelta     = "spend_delta"
	EventBudgetExceeded = "budget_exceeded"
)

// PeriodSnapshot is a compact per-period state for status/event payloads.
type PeriodSnapshot struct {
	Period        model.Period `json:"period"`
	Start         string       `json:"start"`
	End           string       `json:"end"`
	Total         float64      `json:"total"`
	Budget        float64      `json:"budget"`
	Percentage    int          `json:"percentage"`
	Remaining     float64      `json:"remaining"`
	AveragePerDay float64      `json:"average_per_day"`
	OverBudget    bool         `json:"over_budget"`
	Transactions  int          `json:"transactions"`
	Dropped       int          `json:"dropped,omitempty"`
	TopCategory   string       `json:"top_category,omitempty"`
}

// Delta captures changes between polls for one period.
type Delta struct {
	Total        float64 `json:"total"`
	Transactions int     `json:"transactions"`
	Percentage   int     `json:"percentage"`
}

func (d Delta) isZero() bool {
	return math.Abs(d.Total) < 1e-9 && d.Transactions == 0 && d.Percentage == 0
}

// Event is emitted whenever a period snapshot updates.
type Event struct {
	ID        int64          `json:"id"`
	Type      string         `json:"type"`
	Timestamp time.Time      `json:"timestamp"`
	Snapshot  PeriodSnapshot `json:"snapshot"`
	Delta     Delta          `json:"delta"`
}

func snapshotFromSummary(sum model.PeriodSummary) PeriodSnapshot {
	return PeriodSnapshot{
		Period:        sum.Period,
		Start:         sum.Start,
		End:           sum.End,
		Total:         sum.Total,
		Budget:        sum.Status.Budget,
		Percentage:    sum.Status.Percentage,
		Remaining:     sum.Status.Remaining,
		AveragePerDay: sum.Status.AveragePerDay,
		OverBudget:    sum.Status.Over,
		Transactions:  sum.Transactions,
		Dropped:       sum.Dropped,
		TopCategory:   sum.TopCategory,
	}
}

func diffSummaries(prev, curr model.PeriodSummary) Delta {
	return Delta{
		Total:        curr.Total - prev.Total,
		Transactions: curr.Transactions - prev.Transactions,
		Percentage:   curr.Status.Percentage - prev.Status.Percentage,
	}
}

func (s *Service) newEventLocked(typ string, at time.Time, snap PeriodSnapshot, d Delta) Event {
	s.nextEventID++
	return Event{
		ID:        s.nextEventID,
		Type:      typ,
		Timestamp: at,
		Snapshot:  snap,
		Delta:     d,
	}
}

func (s *Service) publishEvent(ev Event) {
	s.mu.Lock()
	s.events = append(s.events, ev)
	if len(s.events) > s.cfg.EventsBuffer {
		s.events = s.events[len(s.events)-s.cfg.EventsBuffer:]
	}

	for _, ch := range s.subs {
		select {
		case ch <- ev:
		default:
		}
	}
	s.mu.Unlock()
}

func writeSSE(w http.ResponseWriter, ev Event) {
	data, err := json.Marshal(ev)
	if err != nil {
		return
	}
	_, _ = fmt.Fprintf(w, "event: %s\n", ev.Type)
	_, _ = fmt.Fprintf(w, "data: %s\n\n", data)
}

func (s *Service) addSubscriber(ch chan Event) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextSubID++
	id := s.nextSubID
	s.subs[id] = ch
	return id
}

func (s *Service) removeSubscriber(id int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.subs, id)
}
