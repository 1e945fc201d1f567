package block

import "github.com/flowradio/blockrt/pkg/stream"

// Base is the embeddable default implementation of the ambient parts of the
// block contract: signatures, history, output_multiple, relative_rate, the
// default Forecast, the default tag-propagation policy, and no-op
// lifecycle hooks. Concrete blocks embed Base and implement GeneralWork
// themselves; they override Forecast, HandleTags, Start, or Stop only when
// the defaults don't fit.
type Base struct {
	name      string
	inputSig  stream.Signature
	outputSig stream.Signature
	history   int
	outMult   int
	relRate   float64
}

// NewBase constructs a Base with the contract's documented defaults:
// history=1, output_multiple=1, relative_rate=1.0.
func NewBase(name string, inputSig, outputSig stream.Signature) Base {
	return Base{
		name:      name,
		inputSig:  inputSig,
		outputSig: outputSig,
		history:   1,
		outMult:   1,
		relRate:   1.0,
	}
}

func (b *Base) Name() string                      { return b.name }
func (b *Base) InputSignature() stream.Signature  { return b.inputSig }
func (b *Base) OutputSignature() stream.Signature { return b.outputSig }
func (b *Base) History() int                      { return b.history }
func (b *Base) OutputMultiple() int               { return b.outMult }
func (b *Base) RelativeRate() float64             { return b.relRate }

// SetHistory overrides the default history of 1. Must be called before the
// block is installed into a graph.
func (b *Base) SetHistory(h int) {
	if h < 1 {
		h = 1
	}
	b.history = h
}

// SetOutputMultiple overrides the default output_multiple of 1.
func (b *Base) SetOutputMultiple(m int) {
	if m < 1 {
		m = 1
	}
	b.outMult = m
}

// SetRelativeRate overrides the default relative_rate of 1.0.
func (b *Base) SetRelativeRate(r float64) {
	if r <= 0 {
		r = 1.0
	}
	b.relRate = r
}

// Forecast implements the documented default: every input needs
// noutput_items + history - 1 items. Decimators and interpolators override
// this.
func (b *Base) Forecast(noutputItems int) []int {
	required := noutputItems + b.history - 1
	n := b.inputSig.MinStreams()
	if n == 0 {
		n = 1
	}
	out := make([]int, n)
	for i := range out {
		out[i] = required
	}
	return out
}

// Start is a no-op hook; override for blocks that need setup.
func (b *Base) Start() error { return nil }

// Stop is a no-op hook; override for blocks that need teardown.
func (b *Base) Stop() error { return nil }

// HandleTags implements the default propagation policy: copy every tag
// from every input to every output, preserving offsets (rate-adjusted by
// RelativeRate for non-unity-rate blocks).
func (b *Base) HandleTags(io *IO) {
	rate := b.relRate
	for i := range io.Inputs {
		lo := io.NitemsRead(i)
		hi := lo + uint64(io.NinputItems[i])
		tags := io.GetTagsInRange(i, lo, hi, "")
		for _, t := range tags {
			outOffset := uint64(float64(t.Offset) * rate)
			for j := range io.Outputs {
				_ = io.AddItemTag(j, outOffset, t.Key.String(), t.Value, t.SourceID)
			}
		}
	}
}
