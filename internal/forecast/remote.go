package forecast

import (
	"context"
	"fmt"
	"time"

	"github.com/theirongolddev/spendburn/internal/model"
	"github.com/theirongolddev/spendburn/internal/oracle"
)

// Predictor is the slice of the oracle client the remote provider needs.
type Predictor interface {
	PredictParams(ctx context.Context, req oracle.PredictRequest) (*oracle.PredictResponse, error)
}

// Remote asks the external oracle for predictions.
type Remote struct {
	client Predictor
	now    func() time.Time
}

// NewRemote creates a provider backed by client.
func NewRemote(client Predictor) *Remote {
	return &Remote{client: client, now: time.Now}
}

// Predict implements Provider. The baseline series is returned; the request
// scenario is ignored here, see Compare.
func (r *Remote) Predict(ctx context.Context, req Request) (model.Forecast, error) {
	base, _, err := r.fetch(ctx, req, model.Scenario{})
	if err != nil {
		return model.Forecast{}, err
	}
	return model.Forecast{Daily: base, Source: string(KindRemote)}, nil
}

// Compare returns the baseline and scenario-adjusted series for req.
func (r *Remote) Compare(ctx context.Context, req Request) (baseline, adjusted []model.DailyBucket, err error) {
	return r.fetch(ctx, req, req.Scenario)
}

func (r *Remote) fetch(ctx context.Context, req Request, sc model.Scenario) ([]model.DailyBucket, []model.DailyBucket, error) {
	if req.Days <= 0 {
		return nil, nil, nil
	}
	start := StartDate(req, r.now())
	w := model.NewWindow(start, start.AddDate(0, 0, req.Days-1))

	resp, err := r.client.PredictParams(ctx, oracle.PredictRequest{
		UserID:    req.UserID,
		TimeRange: w.TimeRange(),
		Scenario:  sc,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("remote forecast: %w", err)
	}
	return resp.Baseline(), resp.Adjusted(), nil
}
