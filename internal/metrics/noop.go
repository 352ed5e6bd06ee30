package metrics

import "time"

// NoopRecorder implements Recorder with no-op methods.
type NoopRecorder struct{}

// NewNoop returns a Recorder that discards all metrics.
func NewNoop() Recorder {
	return &NoopRecorder{}
}

// IncResolution is a no-op.
func (n *NoopRecorder) IncResolution(outcome string) {}

// IncPrincipalCacheHit is a no-op.
func (n *NoopRecorder) IncPrincipalCacheHit() {}

// IncPrincipalCacheMiss is a no-op.
func (n *NoopRecorder) IncPrincipalCacheMiss() {}

// IncRateLimited is a no-op.
func (n *NoopRecorder) IncRateLimited(scope string) {}

// IncUpdateApplied is a no-op.
func (n *NoopRecorder) IncUpdateApplied(entity string) {}

// IncUpdateRejected is a no-op.
func (n *NoopRecorder) IncUpdateRejected(entity, reason string) {}

// ObserveUpdateDuration is a no-op.
func (n *NoopRecorder) ObserveUpdateDuration(duration time.Duration) {}

// IncDependentCreated is a no-op.
func (n *NoopRecorder) IncDependentCreated() {}

// IncDependentDeleted is a no-op.
func (n *NoopRecorder) IncDependentDeleted() {}
