package detail_test

import (
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/flowradio/blockrt/pkg/block"
	"github.com/flowradio/blockrt/pkg/detail"
	"github.com/flowradio/blockrt/pkg/stream"
)

// fakeBlock lets each test control GeneralWork's behavior directly, to
// exercise the contract-enforcement paths in Detail.Invoke without
// needing a realistic signal-processing block.
type fakeBlock struct {
	block.Base
	work func(io *block.IO) int
}

func newFakeBlock(name string, work func(io *block.IO) int) *fakeBlock {
	return &fakeBlock{
		Base: block.NewBase(name, stream.MustNew(1, 1, 4), stream.MustNew(1, 1, 4)),
		work: work,
	}
}

func (f *fakeBlock) GeneralWork(io *block.IO) int { return f.work(io) }

func newDetailWithOneInput(t *testing.T, blk block.Block) *detail.Detail {
	t.Helper()
	log := zap.NewNop().Sugar()

	upstream, err := detail.New(newFakeBlock("upstream", func(io *block.IO) int { return 0 }), 1, 16, log)
	require.NoError(t, err)

	d, err := detail.New(blk, 1, 16, log)
	require.NoError(t, err)
	d.ConnectInput(upstream.Outputs()[0], 1)
	return d
}

func TestInvokeRejectsMissingConsume(t *testing.T) {
	blk := newFakeBlock("noconsume", func(io *block.IO) int {
		return 0 // never calls Consume/ConsumeEach
	})
	d := newDetailWithOneInput(t, blk)

	_, err := d.Invoke(4, []int{0})
	require.Error(t, err)
	require.Contains(t, err.Error(), "without consuming")
}

func TestInvokeRejectsOverProduction(t *testing.T) {
	blk := newFakeBlock("overproduce", func(io *block.IO) int {
		io.ConsumeEach(0)
		return io.NoutputItems + 1
	})
	d := newDetailWithOneInput(t, blk)

	_, err := d.Invoke(4, []int{0})
	require.Error(t, err)
	require.Contains(t, err.Error(), "outside [0, noutput_items")
}

func TestInvokeRejectsWorkCalledProduceWithoutProduce(t *testing.T) {
	blk := newFakeBlock("liar", func(io *block.IO) int {
		io.ConsumeEach(0)
		return block.WorkCalledProduce
	})
	d := newDetailWithOneInput(t, blk)

	_, err := d.Invoke(4, []int{0})
	require.Error(t, err)
	require.Contains(t, err.Error(), "WORK_CALLED_PRODUCE")
}

func TestInvokeAcceptsWorkCalledProduceAsymmetry(t *testing.T) {
	blk := newFakeBlock("splitter", func(io *block.IO) int {
		io.ConsumeEach(0)
		io.Produce(0, 3)
		return block.WorkCalledProduce
	})
	d := newDetailWithOneInput(t, blk)

	result, err := d.Invoke(4, []int{0})
	require.NoError(t, err)
	require.Equal(t, []int{3}, result.Produced)
	require.False(t, result.Done)
}

func TestInvokeMarksEOSOnWorkDone(t *testing.T) {
	blk := newFakeBlock("done", func(io *block.IO) int {
		io.ConsumeEach(0)
		return block.WorkDone
	})
	d := newDetailWithOneInput(t, blk)

	result, err := d.Invoke(4, []int{0})
	require.NoError(t, err)
	require.True(t, result.Done)
	require.True(t, d.Outputs()[0].EOS())
}
