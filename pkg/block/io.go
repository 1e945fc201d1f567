package block

import (
	"github.com/flowradio/blockrt/pkg/tagstore"
	"github.com/flowradio/blockrt/pkg/tagvalue"
)

// InputPort is the read-only view GeneralWork receives for one input
// stream: a contiguous region of at least N items, where items at negative
// indices down to -(history-1) are also valid, giving access to the
// retained history.
type InputPort struct {
	data     []byte
	itemSize int
	history  int
	n        int
}

// NewInputPort is exported for use by packages constructing IO values
// outside of detail (tests, alternate schedulers).
func NewInputPort(data []byte, itemSize, history, n int) InputPort {
	return InputPort{data: data, itemSize: itemSize, history: history, n: n}
}

// N is the number of current (non-history) items available.
func (p InputPort) N() int { return p.n }

// At returns the item at the given index, where idx ranges from
// -(history-1) to N()-1.
func (p InputPort) At(idx int) []byte {
	physical := (idx + p.history - 1) * p.itemSize
	return p.data[physical : physical+p.itemSize]
}

// OutputPort is the writable view GeneralWork receives for one output
// stream: a contiguous region of at least noutput_items items.
type OutputPort struct {
	data     []byte
	itemSize int
}

func NewOutputPort(data []byte, itemSize int) OutputPort {
	return OutputPort{data: data, itemSize: itemSize}
}

// At returns the item slot at the given index, for idx in
// [0, noutput_items).
func (p OutputPort) At(idx int) []byte {
	physical := idx * p.itemSize
	return p.data[physical : physical+p.itemSize]
}

// Accounting is the bookkeeping surface a block calls during GeneralWork to
// declare consumption/production and to query/attach tags. detail.Detail
// implements it; Block authors never construct one directly.
type Accounting interface {
	Consume(which, n int)
	ConsumeEach(n int)
	Produce(which, n int)
	NitemsRead(i int) uint64
	NitemsWritten(j int) uint64
	AddItemTag(output int, offset uint64, key tagvalue.Symbol, value tagvalue.Value, sourceID string) error
	TagsInRange(input int, start, end uint64, keyPattern string) []tagstore.Tag
}

// IO bundles the per-call arguments and accounting surface GeneralWork
// (and HandleTags) operate on.
type IO struct {
	NoutputItems int
	NinputItems  []int
	Inputs       []InputPort
	Outputs      []OutputPort

	acc Accounting
}

// NewIO constructs an IO bound to the given accounting surface.
func NewIO(noutputItems int, ninputItems []int, inputs []InputPort, outputs []OutputPort, acc Accounting) *IO {
	return &IO{NoutputItems: noutputItems, NinputItems: ninputItems, Inputs: inputs, Outputs: outputs, acc: acc}
}

func (io *IO) Consume(which, n int)     { io.acc.Consume(which, n) }
func (io *IO) ConsumeEach(n int)        { io.acc.ConsumeEach(n) }
func (io *IO) Produce(which, n int)     { io.acc.Produce(which, n) }
func (io *IO) NitemsRead(i int) uint64  { return io.acc.NitemsRead(i) }
func (io *IO) NitemsWritten(j int) uint64 {
	return io.acc.NitemsWritten(j)
}

// AddItemTag attaches a tag at the given absolute offset on the given
// output. offset must lie in this call's output window: at or after the
// output's item count when GeneralWork was entered, and before that count
// plus NoutputItems. Outside that window the tag is not stored and a
// TagOutOfRange error is returned. The window is not narrowed to the items
// the call actually produces.
func (io *IO) AddItemTag(output int, offset uint64, key string, value tagvalue.Value, sourceID string) error {
	return io.acc.AddItemTag(output, offset, tagvalue.Intern(key), value, sourceID)
}

// GetTagsInRange returns the tags on the upstream output feeding the given
// input whose absolute offset lies in [start, end); keyPattern, if
// non-empty, restricts the result to matching keys (glob syntax).
func (io *IO) GetTagsInRange(input int, start, end uint64, keyPattern string) []tagstore.Tag {
	return io.acc.TagsInRange(input, start, end, keyPattern)
}
