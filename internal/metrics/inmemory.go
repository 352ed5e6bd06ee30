package metrics

import (
	"maps"
	"sync"
	"sync/atomic"
	"time"
)

// Snapshot captures current in-memory counters.
type Snapshot struct {
	Resolutions           map[string]uint64
	PrincipalCacheHits    uint64
	PrincipalCacheMisses  uint64
	RateLimited           map[string]uint64
	UpdatesApplied        map[string]uint64
	UpdatesRejected       map[string]uint64 // keyed by "entity/reason"
	UpdateDurationCount   uint64
	UpdateDurationTotalNs int64
	DependentsCreated     uint64
	DependentsDeleted     uint64
}

// InMemoryRecorder stores metrics in memory. It backs the /metrics endpoint
// and is used directly in tests.
type InMemoryRecorder struct {
	principalCacheHits    atomic.Uint64
	principalCacheMisses  atomic.Uint64
	updateDurationCount   atomic.Uint64
	updateDurationTotalNs atomic.Int64
	dependentsCreated     atomic.Uint64
	dependentsDeleted     atomic.Uint64

	mu              sync.Mutex
	resolutions     map[string]uint64
	rateLimited     map[string]uint64
	updatesApplied  map[string]uint64
	updatesRejected map[string]uint64
}

// NewInMemory returns a Recorder that stores counters in memory.
func NewInMemory() *InMemoryRecorder {
	return &InMemoryRecorder{
		resolutions:     make(map[string]uint64),
		rateLimited:     make(map[string]uint64),
		updatesApplied:  make(map[string]uint64),
		updatesRejected: make(map[string]uint64),
	}
}

// Snapshot returns a copy of the counters.
func (m *InMemoryRecorder) Snapshot() Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()

	return Snapshot{
		Resolutions:           maps.Clone(m.resolutions),
		PrincipalCacheHits:    m.principalCacheHits.Load(),
		PrincipalCacheMisses:  m.principalCacheMisses.Load(),
		RateLimited:           maps.Clone(m.rateLimited),
		UpdatesApplied:        maps.Clone(m.updatesApplied),
		UpdatesRejected:       maps.Clone(m.updatesRejected),
		UpdateDurationCount:   m.updateDurationCount.Load(),
		UpdateDurationTotalNs: m.updateDurationTotalNs.Load(),
		DependentsCreated:     m.dependentsCreated.Load(),
		DependentsDeleted:     m.dependentsDeleted.Load(),
	}
}

func (m *InMemoryRecorder) inc(counter map[string]uint64, label string) {
	m.mu.Lock()
	counter[label]++
	m.mu.Unlock()
}

// IncResolution increments the resolution counter for an outcome.
func (m *InMemoryRecorder) IncResolution(outcome string) {
	m.inc(m.resolutions, outcome)
}

// IncPrincipalCacheHit increments cache hit counter.
func (m *InMemoryRecorder) IncPrincipalCacheHit() {
	m.principalCacheHits.Add(1)
}

// IncPrincipalCacheMiss increments cache miss counter.
func (m *InMemoryRecorder) IncPrincipalCacheMiss() {
	m.principalCacheMisses.Add(1)
}

// IncRateLimited increments the rejected-by-rate-limit counter.
func (m *InMemoryRecorder) IncRateLimited(scope string) {
	m.inc(m.rateLimited, scope)
}

// IncUpdateApplied increments the committed update counter.
func (m *InMemoryRecorder) IncUpdateApplied(entity string) {
	m.inc(m.updatesApplied, entity)
}

// IncUpdateRejected increments the rejected update counter.
func (m *InMemoryRecorder) IncUpdateRejected(entity, reason string) {
	m.inc(m.updatesRejected, entity+"/"+reason)
}

// ObserveUpdateDuration records update duration.
func (m *InMemoryRecorder) ObserveUpdateDuration(duration time.Duration) {
	m.updateDurationCount.Add(1)
	m.updateDurationTotalNs.Add(duration.Nanoseconds())
}

// IncDependentCreated increments dependent created counter.
func (m *InMemoryRecorder) IncDependentCreated() {
	m.dependentsCreated.Add(1)
}

// IncDependentDeleted increments dependent deleted counter.
func (m *InMemoryRecorder) IncDependentDeleted() {
	m.dependentsDeleted.Add(1)
}
