package history

import (
	"sync/atomic"
)

// Observer defines hooks for metrics collection and tracing of history
// operations. Calls happen synchronously inside the operation.
type Observer interface {
	// OnPush is called after an entry is appended.
	OnPush(id any)

	// OnRemove is called after an entry is removed, before remove hooks run.
	OnRemove(index int, id any)

	// OnUpdate is called after a client or server record is replaced in place.
	OnUpdate(index int, id any)

	// OnTranslate is called after an overlay is stored.
	OnTranslate(id any, locale string)

	// OnError is called when an operation fails.
	OnError(op string, err error)
}

// NoopObserver is a no-op implementation of Observer.
type NoopObserver struct{}

func (n *NoopObserver) OnPush(id any)                     {}
func (n *NoopObserver) OnRemove(index int, id any)        {}
func (n *NoopObserver) OnUpdate(index int, id any)        {}
func (n *NoopObserver) OnTranslate(id any, locale string) {}
func (n *NoopObserver) OnError(op string, err error)      {}

// MetricsObserver counts history operations. Counters are atomic so a
// snapshot may be taken from another goroutine.
type MetricsObserver struct {
	pushCount      atomic.Int64
	removeCount    atomic.Int64
	updateCount    atomic.Int64
	translateCount atomic.Int64
	errorCount     atomic.Int64
}

// NewMetricsObserver creates a new metrics observer.
func NewMetricsObserver() *MetricsObserver {
	return &MetricsObserver{}
}

func (m *MetricsObserver) OnPush(id any) {
	m.pushCount.Add(1)
}

func (m *MetricsObserver) OnRemove(index int, id any) {
	m.removeCount.Add(1)
}

func (m *MetricsObserver) OnUpdate(index int, id any) {
	m.updateCount.Add(1)
}

func (m *MetricsObserver) OnTranslate(id any, locale string) {
	m.translateCount.Add(1)
}

func (m *MetricsObserver) OnError(op string, err error) {
	m.errorCount.Add(1)
}

// Snapshot returns a copy of the current counters.
func (m *MetricsObserver) Snapshot() MetricsSnapshot {
	return MetricsSnapshot{
		PushCount:      m.pushCount.Load(),
		RemoveCount:    m.removeCount.Load(),
		UpdateCount:    m.updateCount.Load(),
		TranslateCount: m.translateCount.Load(),
		ErrorCount:     m.errorCount.Load(),
	}
}

// Reset clears all counters to zero.
func (m *MetricsObserver) Reset() {
	m.pushCount.Store(0)
	m.removeCount.Store(0)
	m.updateCount.Store(0)
	m.translateCount.Store(0)
	m.errorCount.Store(0)
}

// MetricsSnapshot is a point-in-time copy of MetricsObserver counters.
type MetricsSnapshot struct {
	PushCount      int64 `json:"pushCount"`
	RemoveCount    int64 `json:"removeCount"`
	UpdateCount    int64 `json:"updateCount"`
	TranslateCount int64 `json:"translateCount"`
	ErrorCount     int64 `json:"errorCount"`
}

// TotalOperations returns the number of successful mutations.
func (s MetricsSnapshot) TotalOperations() int64 {
	return s.PushCount + s.RemoveCount + s.UpdateCount + s.TranslateCount
}
