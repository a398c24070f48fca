package port

import "time"

type Outcome string

const (
	OutcomePong      Outcome = "pong"
	OutcomeImmediate Outcome = "immediate"
	OutcomeDeferred  Outcome = "deferred"
	OutcomeNotFound  Outcome = "not_found"

	OutcomeDelivered Outcome = "delivered"
	OutcomeFailed    Outcome = "failed"
	OutcomeExpired   Outcome = "expired"
)

// Observer receives dispatch events for instrumentation.
type Observer interface {
	DispatchObserved(command string, outcome Outcome)
	HandlerCompleted(command string, elapsed time.Duration, err error)
	FollowUpObserved(outcome Outcome)
	FollowUpsInFlight(n int)
	VerificationFailed()
}
