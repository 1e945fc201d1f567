package blocks

import (
	"fmt"

	"github.com/flowradio/blockrt/pkg/block"
	"github.com/flowradio/blockrt/pkg/stream"
)

// Decimate keeps every Nth input sample and drops the rest: a fixed-rate
// block with relative_rate 1/N, overriding Forecast via the
// FixedRateBlock capability instead of Base's generic history-only
// default.
type Decimate struct {
	block.Base

	N int
}

// NewDecimate constructs a Decimate block named name, keeping every nth
// sample. n must be >= 1.
func NewDecimate(name string, n int) *Decimate {
	if n < 1 {
		n = 1
	}
	b := &Decimate{
		Base: block.NewBase(name, stream.MustNew(1, 1, int32ItemSize), stream.MustNew(1, 1, int32ItemSize)),
		N:    n,
	}
	b.SetRelativeRate(1.0 / float64(n))
	return b
}

// FixedRateNinputToNoutput implements block.FixedRateBlock.
func (b *Decimate) FixedRateNinputToNoutput(n int) int { return n / b.N }

// FixedRateNoutputToNinput implements block.FixedRateBlock.
func (b *Decimate) FixedRateNoutputToNinput(n int) int { return n * b.N }

// Forecast overrides Base's default: producing noutputItems items needs
// noutputItems*N input items, plus the history-1 term that Base's default
// would add (Base.Forecast itself is not called).
func (b *Decimate) Forecast(noutputItems int) []int {
	return []int{b.FixedRateNoutputToNinput(noutputItems) + b.History() - 1}
}

func (b *Decimate) GeneralWork(io *block.IO) int {
	n := io.Inputs[0].N() / b.N
	if n > io.NoutputItems {
		n = io.NoutputItems
	}
	for i := 0; i < n; i++ {
		copy(io.Outputs[0].At(i), io.Inputs[0].At(i*b.N))
	}
	io.Consume(0, n*b.N)
	return n
}

func (b *Decimate) String() string {
	return fmt.Sprintf("Decimate(%s, N=%d)", b.Name(), b.N)
}
