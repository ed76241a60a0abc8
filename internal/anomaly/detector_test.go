package anomaly

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/theirongolddev/spendburn/internal/model"
	"github.com/theirongolddev/spendburn/internal/oracle"
)

func txsFromAmounts(amounts ...float64) []model.Transaction {
	out := make([]model.Transaction, len(amounts))
	for i, a := range amounts {
		out[i] = model.Transaction{
			ID:     fmt.Sprintf("tx%d", i),
			Date:   fmt.Sprintf("2024-01-%02d", i+1),
			Amount: a,
		}
	}
	return out
}

func TestIQRFlagsBothTails(t *testing.T) {
	txs := txsFromAmounts(100, 102, 104, 500, 106, 108, 110, 112, 5)

	rep, err := IQR{}.Detect(context.Background(), Request{Transactions: txs})
	require.NoError(t, err)

	require.Len(t, rep.High, 1)
	assert.Equal(t, "tx3", rep.High[0].TransactionID)
	assert.Equal(t, "2024-01-04", rep.High[0].Date)
	assert.Equal(t, [2]float64{98, 114}, rep.High[0].NormalRange)
	assert.InDelta(t, 394.0/106*100, rep.High[0].PercentDeviation, 1e-9)

	require.Len(t, rep.Low, 1)
	assert.Equal(t, 5.0, rep.Low[0].Amount)
	assert.Less(t, rep.Low[0].PercentDeviation, 0.0)
}

func TestIQRTooFewTransactions(t *testing.T) {
	rep, err := IQR{}.Detect(context.Background(), Request{Transactions: txsFromAmounts(1, 1000)})
	require.NoError(t, err)
	assert.True(t, rep.Empty())
}

func TestIQRUniformAmounts(t *testing.T) {
	rep, err := IQR{}.Detect(context.Background(), Request{Transactions: txsFromAmounts(50, 50, 50, 50, 50)})
	require.NoError(t, err)
	assert.True(t, rep.Empty())
}

func TestIQRZeroMedian(t *testing.T) {
	rep, err := IQR{}.Detect(context.Background(), Request{Transactions: txsFromAmounts(0, 0, 0, 0, 0, 90)})
	require.NoError(t, err)
	require.Len(t, rep.High, 1)
	assert.Zero(t, rep.High[0].PercentDeviation)
}

func TestIQRRespectsWindow(t *testing.T) {
	txs := txsFromAmounts(100, 102, 104, 500, 106, 108, 110, 112, 5)
	w := model.NewWindow(
		time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC),
		time.Date(2024, 1, 9, 0, 0, 0, 0, time.UTC),
	)
	rep, err := IQR{}.Detect(context.Background(), Request{Window: w, Transactions: txs})
	require.NoError(t, err)
	for _, a := range append(rep.High, rep.Low...) {
		assert.NotEqual(t, "tx3", a.TransactionID, "tx3 is outside the window")
	}
}

func TestQuantileInterpolates(t *testing.T) {
	vals := []float64{1, 2, 3, 4}
	assert.InDelta(t, 1.75, quantile(vals, 0.25), 1e-9)
	assert.InDelta(t, 2.5, quantile(vals, 0.5), 1e-9)
	assert.InDelta(t, 3.25, quantile(vals, 0.75), 1e-9)
	assert.Zero(t, quantile(nil, 0.5))
}

type fakeClient struct {
	got oracle.AnomalyRequest
	rep *model.AnomalyReport
	err error
}

func (f *fakeClient) Anomalies(_ context.Context, req oracle.AnomalyRequest) (*model.AnomalyReport, error) {
	f.got = req
	return f.rep, f.err
}

func TestRemoteSendsAccountWindow(t *testing.T) {
	fc := &fakeClient{rep: &model.AnomalyReport{High: []model.Anomaly{{TransactionID: "x"}}}}
	w := model.NewWindow(
		time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2024, 1, 7, 0, 0, 0, 0, time.UTC),
	)

	rep, err := NewRemote(fc).Detect(context.Background(), Request{AccountID: "acct-1", Window: w})
	require.NoError(t, err)
	assert.Equal(t, oracle.AnomalyRequest{UserID: "acct-1", StartDate: "2024-01-01", EndDate: "2024-01-07"}, fc.got)
	assert.Len(t, rep.High, 1)
}

func TestSafeReturnsEmptyOnError(t *testing.T) {
	fc := &fakeClient{err: oracle.ErrUnavailable}

	_, err := NewRemote(fc).Detect(context.Background(), Request{})
	assert.ErrorIs(t, err, oracle.ErrUnavailable)

	rep, err := Safe(NewRemote(fc), zerolog.Nop()).Detect(context.Background(), Request{})
	require.NoError(t, err)
	assert.True(t, rep.Empty())
}
