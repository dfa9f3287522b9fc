package clock

import "time"

// Clock is the time source injected into slot generation, link validation and
// the smart button projection.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

// System returns the wall clock.
func System() Clock {
	return systemClock{}
}

func (systemClock) Now() time.Time {
	return time.Now().UTC()
}

// Func adapts a plain function to Clock.
type Func func() time.Time

func (f Func) Now() time.Time {
	return f()
}
