// Package anomaly flags transactions whose amounts fall outside the normal
// spread for a window, either locally or through the external oracle.
package anomaly

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/theirongolddev/spendburn/internal/model"
	"github.com/theirongolddev/spendburn/internal/oracle"
)

// Request scopes a detection run.
type Request struct {
	AccountID    string
	Window       model.Window
	Transactions []model.Transaction
}

// Detector finds high and low spending anomalies.
type Detector interface {
	Detect(ctx context.Context, req Request) (model.AnomalyReport, error)
}

// Client is the slice of the oracle client the remote detector needs.
type Client interface {
	Anomalies(ctx context.Context, req oracle.AnomalyRequest) (*model.AnomalyReport, error)
}

// Remote delegates detection to the oracle.
type Remote struct {
	client Client
}

// NewRemote creates a detector backed by client.
func NewRemote(client Client) *Remote {
	return &Remote{client: client}
}

// Detect implements Detector. Transactions in req are not sent; the
// service reads them itself.
func (r *Remote) Detect(ctx context.Context, req Request) (model.AnomalyReport, error) {
	rep, err := r.client.Anomalies(ctx, oracle.AnomalyRequest{
		UserID:    req.AccountID,
		StartDate: req.Window.Start.Format(model.DateLayout),
		EndDate:   req.Window.End.Format(model.DateLayout),
	})
	if err != nil {
		return model.AnomalyReport{}, err
	}
	return *rep, nil
}

// Safe wraps d so failures yield an empty report and a log entry.
func Safe(d Detector, log zerolog.Logger) Detector {
	return safeDetector{next: d, log: log}
}

type safeDetector struct {
	next Detector
	log  zerolog.Logger
}

func (s safeDetector) Detect(ctx context.Context, req Request) (model.AnomalyReport, error) {
	rep, err := s.next.Detect(ctx, req)
	if err != nil {
		s.log.Warn().Err(err).Str("account_id", req.AccountID).Msg("anomaly detection unavailable")
		return model.AnomalyReport{}, nil
	}
	return rep, nil
}
