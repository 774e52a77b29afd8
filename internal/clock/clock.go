package clock

import (
	"time"

	"go.uber.org/fx"
)

// Clock supplies the current instant. The scheduler never reads
// time.Now directly so tests can drive it with a FakeClock.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time {
	return time.Now()
}

func NewSystemClock() Clock {
	return systemClock{}
}

var Module = fx.Module("clock",
	fx.Provide(NewSystemClock),
)
