package services

import "time"

// Clock supplies the current time. Injected so reminder scheduling and the task
// views can be tested against a fixed instant.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// SystemClock vraća sat zasnovan na time.Now.
func SystemClock() Clock { return systemClock{} }
