package alerting

import (
	"context"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/venskies/flightwatch/internal/config"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// Reporter is a fire-and-forget exception sink. Rate-limit responses from
// providers are an expected recoverable case and must not be reported.
type Reporter interface {
	CaptureException(err error)
}

// Module provides the configured Reporter.
var Module = fx.Provide(New)

// New returns a Sentry-backed reporter, or a no-op one when no DSN is set.
func New(lc fx.Lifecycle, cfg config.Config, log *zap.Logger) (Reporter, error) {
	if cfg.SentryDSN == "" {
		log.Info("alerting disabled, no DSN configured")
		return NopReporter{}, nil
	}

	err := sentry.Init(sentry.ClientOptions{
		Dsn:         cfg.SentryDSN,
		Environment: cfg.Environment,
		Release:     cfg.AppName + "@" + cfg.AppVersion,
	})
	if err != nil {
		return nil, err
	}

	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			sentry.Flush(2 * time.Second)
			return nil
		},
	})

	return sentryReporter{}, nil
}

type sentryReporter struct{}

func (sentryReporter) CaptureException(err error) {
	if err == nil {
		return
	}
	sentry.CaptureException(err)
}

// NopReporter discards every report.
type NopReporter struct{}

func (NopReporter) CaptureException(error) {}
