package cmd

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/theirongolddev/spendburn/internal/anomaly"
	"github.com/theirongolddev/spendburn/internal/config"
	"github.com/theirongolddev/spendburn/internal/forecast"
)

func withRuntime(t *testing.T, cfg config.Config) {
	t.Helper()
	t.Setenv("SPENDBURN_ORACLE_URL", "")
	t.Setenv("SPENDBURN_ORACLE_KEY", "")
	t.Setenv("SPENDBURN_SENTRY_DSN", "")
	prev := rt
	rt = runEnv{cfg: cfg, log: zerolog.Nop(), loc: time.UTC}
	t.Cleanup(func() { rt = prev })
}

// The dashboard relies on provider errors reaching it so it can revert the
// predictions toggle; the provider must not swallow them.
func TestNewProviderReturnsErrors(t *testing.T) {
	withRuntime(t, config.DefaultConfig())

	p, kind, err := newProvider("", 7)
	if err != nil {
		t.Fatalf("newProvider: %v", err)
	}
	if kind != string(forecast.KindSynthetic) {
		t.Errorf("kind = %q, want synthetic", kind)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := p.Predict(ctx, forecast.Request{Days: 3}); err == nil {
		t.Fatal("Predict on a canceled context returned nil error")
	}
}

func TestNewProviderRemoteFallsBackWithoutOracle(t *testing.T) {
	withRuntime(t, config.DefaultConfig())

	_, kind, err := newProvider("remote", 0)
	if err != nil {
		t.Fatalf("newProvider: %v", err)
	}
	if kind != string(forecast.KindSynthetic) {
		t.Errorf("kind = %q, want synthetic fallback", kind)
	}
}

func TestNewDetector(t *testing.T) {
	cfg := config.DefaultConfig()
	withRuntime(t, cfg)
	if _, ok := newDetector(false).(anomaly.IQR); !ok {
		t.Error("without an oracle the detector should be IQR")
	}

	cfg.Oracle.BaseURL = "http://127.0.0.1:1"
	withRuntime(t, cfg)
	if _, ok := newDetector(false).(*anomaly.Remote); !ok {
		t.Error("with an oracle the detector should be the unwrapped remote")
	}
	if _, ok := newDetector(true).(anomaly.IQR); !ok {
		t.Error("--local should force IQR")
	}
}
