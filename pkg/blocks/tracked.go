package blocks

import "sync/atomic"

// TrackedSource wraps Source, counting Lifecycle.Stop calls so tests can
// assert the scheduler's two-phase drain invokes Stop exactly once per
// block.
type TrackedSource struct {
	*Source
	stops atomic.Int32
}

// NewTrackedSource constructs a stop-counting Source.
func NewTrackedSource(name string, limit int) *TrackedSource {
	return &TrackedSource{Source: NewSource(name, limit)}
}

func (s *TrackedSource) Stop() error {
	s.stops.Add(1)
	return s.Source.Stop()
}

// StopCalls reports how many times Stop has been called.
func (s *TrackedSource) StopCalls() int { return int(s.stops.Load()) }

// TrackedSink wraps Sink the same way.
type TrackedSink struct {
	*Sink
	stops atomic.Int32
}

// NewTrackedSink constructs a stop-counting Sink.
func NewTrackedSink(name string) *TrackedSink {
	return &TrackedSink{Sink: NewSink(name)}
}

func (s *TrackedSink) Stop() error {
	s.stops.Add(1)
	return s.Sink.Stop()
}

// StopCalls reports how many times Stop has been called.
func (s *TrackedSink) StopCalls() int { return int(s.stops.Load()) }
