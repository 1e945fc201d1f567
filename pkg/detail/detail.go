// Package detail implements Block Detail: the per-block runtime state owned
// by the scheduler — the output ring buffers a block writes, the read
// cursors it holds on upstream outputs, the nitems_read/nitems_written
// accounting, and the tag store for each output.
package detail

import (
	"fmt"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/flowradio/blockrt/common/go/bitset"
	"github.com/flowradio/blockrt/pkg/block"
	"github.com/flowradio/blockrt/pkg/blockerr"
	"github.com/flowradio/blockrt/pkg/ringbuf"
	"github.com/flowradio/blockrt/pkg/tagstore"
)

// State is the block lifecycle flag: created -> started -> running ->
// stopping -> stopped.
type State int32

const (
	StateCreated State = iota
	StateStarted
	StateRunning
	StateStopping
	StateStopped
)

func (s State) String() string {
	switch s {
	case StateCreated:
		return "created"
	case StateStarted:
		return "started"
	case StateRunning:
		return "running"
	case StateStopping:
		return "stopping"
	case StateStopped:
		return "stopped"
	default:
		return "unknown"
	}
}

// Output is one output stream owned by this block's Detail: the ring
// buffer it writes to, and the tag store riding alongside it.
type Output struct {
	Ring *ringbuf.RingBuffer
	Tags *tagstore.Store
	eos  atomic.Bool
}

// EOS reports whether this output has been marked end-of-stream.
func (o *Output) EOS() bool { return o.eos.Load() }

// Input is one input stream: a read cursor on an upstream Detail's Output,
// plus the history depth this block requires on it.
type Input struct {
	Upstream *Output
	cursor   *ringbuf.Cursor
	history  int

	nitemsRead uint64 // this block's own logical counter, history-adjusted
}

// Detail is the scheduler-owned runtime state for one block instance.
type Detail struct {
	blk block.Block
	log *zap.SugaredLogger

	mu sync.Mutex // serializes GeneralWork + its accounting for this block

	inputs  []*Input
	outputs []*Output

	state atomic.Int32

	// Scratch state valid only during an in-flight Invoke call.
	consumed        []int
	consumeCalled   []bool
	produced        []int
	calledProduce   bool
	manualTags      bool
	callBaseWritten []uint64
	noutputItems    int
}

// New constructs a Detail for blk with numOutputs freshly-created ring
// buffers, each sized to capacityItems.
func New(blk block.Block, numOutputs, capacityItems int, log *zap.SugaredLogger) (*Detail, error) {
	d := &Detail{blk: blk, log: log.With(zap.String("block", blk.Name()))}

	itemSize := blk.OutputSignature().ItemSizeBytes()
	for j := 0; j < numOutputs; j++ {
		rb, err := ringbuf.New(itemSize, capacityItems)
		if err != nil {
			return nil, fmt.Errorf("detail %s: output %d: %w", blk.Name(), j, err)
		}
		d.outputs = append(d.outputs, &Output{Ring: rb, Tags: tagstore.New()})
	}
	return d, nil
}

// Name returns the underlying block's name, for logs and metrics.
func (d *Detail) Name() string { return d.blk.Name() }

// OutputMultipleHint returns the block's declared output_multiple, the
// granularity the scheduler must round noutput_items down to.
func (d *Detail) OutputMultipleHint() int { return d.blk.OutputMultiple() }

// Outputs returns this block's owned outputs, for connecting downstream
// blocks.
func (d *Detail) Outputs() []*Output { return d.outputs }

// ConnectInput attaches a new input reading from upstream, retaining
// history items of backlog behind the nominal read position.
func (d *Detail) ConnectInput(upstream *Output, history int) {
	if history < 1 {
		history = 1
	}
	cursor := upstream.Ring.AddConsumer()
	d.inputs = append(d.inputs, &Input{
		Upstream: upstream,
		cursor:   cursor,
		history:  history,
		// The first history-1 items only ever serve as history, so the
		// block's logical read position starts that far past the cursor.
		nitemsRead: cursor.NitemsRead() + uint64(history-1),
	})
}

// Inputs exposes the connected inputs, mainly for scheduler introspection
// and tests.
func (d *Detail) Inputs() []*Input { return d.inputs }

func (d *Detail) State() State { return State(d.state.Load()) }

// Start invokes the block's Lifecycle.Start, if implemented, and advances
// the state to started. Errors abort the run per the StartFailure
// taxonomy.
func (d *Detail) Start() error {
	if lc, ok := d.blk.(block.Lifecycle); ok {
		if err := lc.Start(); err != nil {
			return blockerr.New(blockerr.KindStartFailure, d.blk.Name(), err)
		}
	}
	d.state.Store(int32(StateStarted))
	return nil
}

// Stop invokes the block's Lifecycle.Stop, if implemented. Errors are
// reported but never prevent shutdown.
func (d *Detail) Stop() error {
	d.state.Store(int32(StateStopping))
	defer d.state.Store(int32(StateStopped))

	if lc, ok := d.blk.(block.Lifecycle); ok {
		if err := lc.Stop(); err != nil {
			return err
		}
	}
	return nil
}

// InputItemsAvailable returns ninput_items[i]: the number of new
// (non-history) items currently readable on input i.
func (d *Detail) InputItemsAvailable(i int) int {
	in := d.inputs[i]
	physical := in.cursor.ItemsAvailable()
	n := physical - (in.history - 1)
	if n < 0 {
		return 0
	}
	return n
}

// InputEOS reports whether the upstream feeding input i has permanently
// stopped producing: no future Produce call will ever grow
// InputItemsAvailable(i) again. It does not require the input to be fully
// drained yet; a block can still have buffered items left to consume from
// an EOS upstream (e.g. history retention holds some items back), and the
// input-negotiation loop's req > avail check is what decides whether that
// backlog is enough to proceed.
func (d *Detail) InputEOS(i int) bool {
	return d.inputs[i].Upstream.EOS()
}

// EOSInputMask returns which of this block's inputs have a permanently
// stopped upstream, for diagnostic logging when the scheduler retires a
// block. Graphs with more than bitset.MaxBitsetWords*64 inputs on a single
// block lose bits past that width; no built-in or documented block comes
// close to that fan-in.
func (d *Detail) EOSInputMask() bitset.TinyBitset {
	var mask bitset.TinyBitset
	for i := range d.inputs {
		if i >= 64*bitset.MaxBitsetWords {
			break
		}
		if d.InputEOS(i) {
			mask.Insert(uint32(i))
		}
	}
	return mask
}

// OutputSpaceAvailable returns the number of items this block may write to
// output j without overrunning its slowest consumer.
func (d *Detail) OutputSpaceAvailable(j int) int {
	return d.outputs[j].Ring.SpaceAvailable()
}

// Forecast delegates to the block, applied against the given candidate
// noutput_items, and returns the requirement in the units of
// InputItemsAvailable: the block's figure counts its History()-1 retained
// items, which InputItemsAvailable leaves out, so those are subtracted. The
// result is also reshaped to the block's actual connected input count: a
// block's declared Forecast is sized off its signature's stream-count
// bounds, which need not match how many inputs this instance ended up with
// (Base's default gives a zero-input source one entry, which is dropped
// here; a variable-fan-in block repeats its last requirement across the
// rest).
func (d *Detail) Forecast(noutputItems int) []int {
	req := d.blk.Forecast(noutputItems)
	retained := d.blk.History() - 1
	out := make([]int, len(d.inputs))
	for i := range out {
		if i < len(req) {
			out[i] = req[i]
		} else if len(req) > 0 {
			out[i] = req[len(req)-1]
		}
		out[i] -= retained
		if out[i] < 0 {
			out[i] = 0
		}
	}
	return out
}

// MarkEOS marks every output of this block end-of-stream. Consumers see it
// through InputEOS at once; the items already written stay readable.
func (d *Detail) MarkEOS() {
	for _, o := range d.outputs {
		o.eos.Store(true)
		o.Ring.Broadcast()
	}
}
