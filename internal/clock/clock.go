package clock

import (
	"context"
	"time"

	"go.uber.org/fx"
)

// Clock abstracts time for the resolver and enrichment passes so their
// threshold arithmetic is testable.
type Clock interface {
	Now() time.Time
}

// Module provides the system clock.
var Module = fx.Provide(NewSystemClock)

type systemClock struct{}

// NewSystemClock returns a Clock backed by time.Now.
func NewSystemClock() Clock {
	return systemClock{}
}

func (systemClock) Now() time.Time {
	return time.Now().UTC()
}

// SleepContext waits for d or until ctx is done, whichever comes first.
// Pacing delays between external calls go through here so tests can
// substitute the function.
func SleepContext(ctx context.Context, d time.Duration) {
	if d <= 0 {
		return
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
	case <-timer.C:
	}
}
