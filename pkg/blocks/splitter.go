package blocks

import (
	"encoding/binary"

	"github.com/flowradio/blockrt/pkg/block"
	"github.com/flowradio/blockrt/pkg/stream"
)

// Splitter demonstrates asymmetric production: it copies input to output 0
// in full, and every other sample to output 1, declaring the two counts
// via separate Produce calls and returning WORK_CALLED_PRODUCE rather than
// a single uniform count.
type Splitter struct {
	block.Base
}

// NewSplitter constructs a Splitter named name with one input and two
// outputs.
func NewSplitter(name string) *Splitter {
	return &Splitter{
		Base: block.NewBase(name, stream.MustNew(1, 1, int32ItemSize), stream.MustNew(2, 2, int32ItemSize)),
	}
}

func (b *Splitter) GeneralWork(io *block.IO) int {
	n := io.Inputs[0].N()
	if n > io.NoutputItems {
		n = io.NoutputItems
	}

	half := n / 2

	for i := 0; i < n; i++ {
		copy(io.Outputs[0].At(i), io.Inputs[0].At(i))
	}
	for i := 0; i < half; i++ {
		v := binary.LittleEndian.Uint32(io.Inputs[0].At(i * 2))
		binary.LittleEndian.PutUint32(io.Outputs[1].At(i), v)
	}

	io.Consume(0, n)
	io.Produce(0, n)
	io.Produce(1, half)
	return block.WorkCalledProduce
}
