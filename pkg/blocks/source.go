// Package blocks provides a small set of built-in block.Block
// implementations exercising the contract end to end: a counting source, a
// collecting sink, a history-free identity, a fixed-rate decimator, and a
// history-based FIR-style smoother.
package blocks

import (
	"encoding/binary"

	"github.com/flowradio/blockrt/pkg/block"
	"github.com/flowradio/blockrt/pkg/stream"
)

// int32ItemSize is the wire size of every item these demo blocks move: a
// single little-endian int32 sample.
const int32ItemSize = 4

// Source emits a bounded or unbounded run of consecutive int32 samples
// starting at 0, returning WorkDone once Limit samples have been produced
// (Limit <= 0 means unbounded).
type Source struct {
	block.Base

	Limit int

	next int64
}

// NewSource constructs a Source named name, producing up to limit items
// (0 or negative for unbounded).
func NewSource(name string, limit int) *Source {
	return &Source{
		Base:  block.NewBase(name, stream.MustNew(0, 0, int32ItemSize), stream.MustNew(1, 1, int32ItemSize)),
		Limit: limit,
	}
}

func (s *Source) GeneralWork(io *block.IO) int {
	n := io.NoutputItems
	if s.Limit > 0 {
		remaining := s.Limit - int(s.next)
		if remaining <= 0 {
			io.ConsumeEach(0)
			return block.WorkDone
		}
		if n > remaining {
			n = remaining
		}
	}

	out := io.Outputs[0]
	for i := 0; i < n; i++ {
		binary.LittleEndian.PutUint32(out.At(i), uint32(s.next))
		s.next++
	}

	io.ConsumeEach(0)
	io.Produce(0, n)
	return block.WorkCalledProduce
}
