package blocks

import (
	"encoding/binary"
	"sync"

	"github.com/flowradio/blockrt/pkg/block"
	"github.com/flowradio/blockrt/pkg/stream"
)

// Sink consumes int32 samples and appends them to an in-memory slice,
// guarded by a mutex since the scheduler may invoke different blocks
// concurrently while a test goroutine inspects Sink.Items mid-run.
type Sink struct {
	block.Base

	mu    sync.Mutex
	items []int32
}

// NewSink constructs a Sink named name with a single input.
func NewSink(name string) *Sink {
	return &Sink{
		Base: block.NewBase(name, stream.MustNew(1, 1, int32ItemSize), stream.MustNew(0, 0, int32ItemSize)),
	}
}

func (s *Sink) GeneralWork(io *block.IO) int {
	n := io.Inputs[0].N()
	if n == 0 {
		io.Consume(0, 0)
		return 0
	}

	s.mu.Lock()
	for i := 0; i < n; i++ {
		s.items = append(s.items, int32(binary.LittleEndian.Uint32(io.Inputs[0].At(i))))
	}
	s.mu.Unlock()

	io.Consume(0, n)
	return 0
}

// Items returns a snapshot of everything consumed so far.
func (s *Sink) Items() []int32 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]int32(nil), s.items...)
}
