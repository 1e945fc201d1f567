package blocks

import (
	"github.com/flowradio/blockrt/pkg/block"
	"github.com/flowradio/blockrt/pkg/stream"
)

// Identity copies each input item to its output unchanged: history 1,
// relative_rate 1, output_multiple 1 — the contract's simplest non-trivial
// block, used as a baseline for straight-pipe scenarios.
type Identity struct {
	block.Base
}

// NewIdentity constructs an Identity block named name.
func NewIdentity(name string) *Identity {
	return &Identity{
		Base: block.NewBase(name, stream.MustNew(1, 1, int32ItemSize), stream.MustNew(1, 1, int32ItemSize)),
	}
}

func (b *Identity) GeneralWork(io *block.IO) int {
	n := io.Inputs[0].N()
	if n > io.NoutputItems {
		n = io.NoutputItems
	}
	for i := 0; i < n; i++ {
		copy(io.Outputs[0].At(i), io.Inputs[0].At(i))
	}
	io.Consume(0, n)
	return n
}
