package blocks

import (
	"encoding/binary"

	"github.com/flowradio/blockrt/pkg/block"
	"github.com/flowradio/blockrt/pkg/stream"
)

// FIR3 computes y[i] = x[i] + x[i-1] + x[i-2], a three-tap sum requiring
// history 2 items of backlog (History() == 3, since history counts the
// current item plus the retained past ones).
type FIR3 struct {
	block.Base
}

// NewFIR3 constructs a FIR3 block named name with history 3.
func NewFIR3(name string) *FIR3 {
	b := &FIR3{
		Base: block.NewBase(name, stream.MustNew(1, 1, int32ItemSize), stream.MustNew(1, 1, int32ItemSize)),
	}
	b.SetHistory(3)
	return b
}

func (b *FIR3) GeneralWork(io *block.IO) int {
	n := io.Inputs[0].N()
	if n > io.NoutputItems {
		n = io.NoutputItems
	}

	in := io.Inputs[0]
	out := io.Outputs[0]
	for i := 0; i < n; i++ {
		x0 := int32(binary.LittleEndian.Uint32(in.At(i)))
		x1 := int32(binary.LittleEndian.Uint32(in.At(i - 1)))
		x2 := int32(binary.LittleEndian.Uint32(in.At(i - 2)))
		binary.LittleEndian.PutUint32(out.At(i), uint32(x0+x1+x2))
	}

	io.Consume(0, n)
	return n
}
