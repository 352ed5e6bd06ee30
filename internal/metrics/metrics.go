// Package metrics provides lightweight hooks for instrumentation.
package metrics

import "time"

// Resolution outcomes.
const (
	OutcomeExisting = "existing"
	OutcomeLinked   = "linked"
	OutcomeCreated  = "created"
	OutcomeFailed   = "failed"
)

// Update rejection reasons.
const (
	ReasonNoFields = "no_fields"
	ReasonInvalid  = "invalid"
	ReasonNotFound = "not_found"
	ReasonConflict = "conflict"
)

// Recorder captures metric events for the application.
// Implementations can expose these to Prometheus, StatsD, etc.
type Recorder interface {
	// Authorization metrics
	IncResolution(outcome string)
	IncPrincipalCacheHit()
	IncPrincipalCacheMiss()
	IncRateLimited(scope string) // scope: "account" or "ip"

	// Partial update metrics, entity: "account", "dependent", "subscription"
	IncUpdateApplied(entity string)
	IncUpdateRejected(entity, reason string)
	ObserveUpdateDuration(duration time.Duration)

	// Household metrics
	IncDependentCreated()
	IncDependentDeleted()
}

// Snapshotter exposes a snapshot of current metrics.
type Snapshotter interface {
	Snapshot() Snapshot
}
