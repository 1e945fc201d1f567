package detail

import (
	"github.com/flowradio/blockrt/pkg/block"
	"github.com/flowradio/blockrt/pkg/blockerr"
	"github.com/flowradio/blockrt/pkg/tagstore"
	"github.com/flowradio/blockrt/pkg/tagvalue"
)

// Result is the outcome of one Invoke call.
type Result struct {
	// Produced holds the per-output item count actually produced, after
	// resolving the uniform-return-value vs. WORK_CALLED_PRODUCE cases.
	Produced []int
	// Consumed holds the per-input item count the block declared via
	// Consume/ConsumeEach.
	Consumed []int
	// Done is true once the block has returned WORK_DONE; MarkEOS has
	// already been applied to every output by the time Invoke returns.
	Done bool
}

// Invoke drives exactly one GeneralWork call with the given noutputItems
// (already rounded to OutputMultiple by the caller) and ninputItems (as
// computed by Forecast-driven negotiation). It enforces the contract:
// GeneralWork must declare its consumption, may not produce more than
// noutputItems, and a negative return is either WorkDone or
// WorkCalledProduce.
func (d *Detail) Invoke(noutputItems int, ninputItems []int) (Result, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.state.Store(int32(StateRunning))

	d.noutputItems = noutputItems
	d.consumed = make([]int, len(d.inputs))
	d.consumeCalled = make([]bool, len(d.inputs))
	d.produced = make([]int, len(d.outputs))
	d.calledProduce = false
	d.manualTags = false
	d.callBaseWritten = make([]uint64, len(d.outputs))
	for j, o := range d.outputs {
		d.callBaseWritten[j] = o.Ring.NitemsWritten()
	}

	inputPorts := make([]block.InputPort, len(d.inputs))
	for i, in := range d.inputs {
		itemSize := in.Upstream.Ring.ItemSize()
		data := in.cursor.ReadPointer()
		inputPorts[i] = block.NewInputPort(data, itemSize, in.history, ninputItems[i])
	}

	outputPorts := make([]block.OutputPort, len(d.outputs))
	for j, o := range d.outputs {
		itemSize := o.Ring.ItemSize()
		data := o.Ring.WritePointer()
		outputPorts[j] = block.NewOutputPort(data, itemSize)
	}

	io := block.NewIO(noutputItems, ninputItems, inputPorts, outputPorts, d)

	ret := d.blk.GeneralWork(io)

	for i, called := range d.consumeCalled {
		if !called {
			return Result{}, blockerr.ContractViolation(d.blk.Name(),
				"general_work returned without consuming input %d", i)
		}
	}

	var result Result
	switch {
	case ret == block.WorkDone:
		result.Done = true
	case ret == block.WorkCalledProduce:
		if !d.calledProduce {
			return Result{}, blockerr.ContractViolation(d.blk.Name(),
				"general_work returned WORK_CALLED_PRODUCE without calling Produce")
		}
	case ret < 0:
		return Result{}, blockerr.ContractViolation(d.blk.Name(), "general_work returned invalid code %d", ret)
	default:
		for j := range d.outputs {
			d.produced[j] = ret
		}
	}

	for j, n := range d.produced {
		if n < 0 || n > noutputItems {
			return Result{}, blockerr.ContractViolation(d.blk.Name(),
				"general_work produced %d items on output %d, outside [0, noutput_items=%d]", n, j, noutputItems)
		}
	}

	result.Produced = append([]int(nil), d.produced...)
	result.Consumed = append([]int(nil), d.consumed...)

	d.applyHandleTags(io)
	d.advanceCursors()

	if result.Done {
		d.MarkEOS()
	}

	return result, nil
}

// applyHandleTags runs the block's tag-propagation policy unless the block
// itself attached tags during this call (manual propagation), matching
// "run handle_tags() unless the block produced tags itself".
func (d *Detail) applyHandleTags(io *block.IO) {
	if d.manualTags {
		return
	}
	if th, ok := d.blk.(block.TagHandler); ok {
		th.HandleTags(io)
	}
}

// advanceCursors applies the declared consume/produce counts to the real
// ring buffers and block-local counters once GeneralWork has returned.
func (d *Detail) advanceCursors() {
	for i, in := range d.inputs {
		n := d.consumed[i]
		in.nitemsRead += uint64(n)
		target := uint64(0)
		if in.nitemsRead > uint64(in.history-1) {
			target = in.nitemsRead - uint64(in.history-1)
		}
		advance := target - in.cursor.NitemsRead()
		if advance > 0 {
			in.cursor.Consume(int(advance))
		}
	}

	for j, o := range d.outputs {
		n := d.produced[j]
		if n > 0 {
			o.Ring.Produce(n)
			// Tags older than every consumer's cursor can never be
			// queried again.
			o.Tags.GC(o.Ring.SlowestConsumerPosition())
		}
	}
}

// --- block.Accounting ---

func (d *Detail) Consume(which, n int) {
	d.consumed[which] = n
	d.consumeCalled[which] = true
}

func (d *Detail) ConsumeEach(n int) {
	for i := range d.consumed {
		d.consumed[i] = n
		d.consumeCalled[i] = true
	}
}

func (d *Detail) Produce(which, n int) {
	d.produced[which] = n
	d.calledProduce = true
}

// NitemsRead is the absolute offset of input item 0 of this call; Consume
// calls made during the call take effect only once it returns.
func (d *Detail) NitemsRead(i int) uint64 {
	return d.inputs[i].nitemsRead
}

func (d *Detail) NitemsWritten(j int) uint64 {
	return d.callBaseWritten[j] + uint64(d.produced[j])
}

func (d *Detail) AddItemTag(output int, offset uint64, key tagvalue.Symbol, value tagvalue.Value, sourceID string) error {
	base := d.callBaseWritten[output]
	if offset < base || offset >= base+uint64(d.noutputItems) {
		return blockerr.New(blockerr.KindTagOutOfRange, d.blk.Name(), nil)
	}
	d.manualTags = true
	d.outputs[output].Tags.Append(offset, key, value, sourceID)
	return nil
}

func (d *Detail) TagsInRange(input int, start, end uint64, keyPattern string) []tagstore.Tag {
	return d.inputs[input].Upstream.Tags.InRange(start, end, keyPattern)
}
