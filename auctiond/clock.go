package main

import "time"

// systemClock feeds wall-clock time to the engine.
type systemClock struct{}

func (systemClock) Now() time.Time {
	return time.Now()
}
