package logger

import (
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/rs/zerolog"
)

// InitSentry enables error reporting when dsn is set. The returned func
// flushes pending events and is always safe to call.
func InitSentry(dsn, environment, release string, log zerolog.Logger) func() {
	if dsn == "" {
		return func() {}
	}
	if environment == "" {
		environment = "production"
	}
	err := sentry.Init(sentry.ClientOptions{
		Dsn:         dsn,
		Environment: environment,
		Release:     release,
	})
	if err != nil {
		log.Error().Err(err).Msg("failed to initialize sentry")
		return func() {}
	}
	return func() { sentry.Flush(2 * time.Second) }
}

// Capture reports err with the given tags. It is a no-op without a client.
func Capture(err error, tags map[string]string) {
	if err == nil || sentry.CurrentHub().Client() == nil {
		return
	}
	sentry.WithScope(func(scope *sentry.Scope) {
		for k, v := range tags {
			scope.SetTag(k, v)
		}
		sentry.CaptureException(err)
	})
}
