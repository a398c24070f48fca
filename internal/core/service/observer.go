package service

import (
	"releasebot/internal/core/port"
	"time"
)

// NopObserver discards every event.
type NopObserver struct{}

func (NopObserver) DispatchObserved(string, port.Outcome) {}
func (NopObserver) HandlerCompleted(string, time.Duration, error) {}
func (NopObserver) FollowUpObserved(port.Outcome) {}
func (NopObserver) FollowUpsInFlight(int) {}
func (NopObserver) VerificationFailed() {}

var _ port.Observer = NopObserver{}
