package scheduler_test

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/flowradio/blockrt/pkg/block"
	"github.com/flowradio/blockrt/pkg/blocks"
	"github.com/flowradio/blockrt/pkg/detail"
	"github.com/flowradio/blockrt/pkg/scheduler"
	"github.com/flowradio/blockrt/pkg/stream"
)

func runScheduler(t *testing.T, sched *scheduler.Scheduler, details []*detail.Detail) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, sched.Run(ctx, details))
}

// countingSink wraps Sink, counting GeneralWork calls so tests can assert
// the terminal-retirement path never invokes a drained block excessively.
type countingSink struct {
	*blocks.Sink
	calls atomic.Int32
}

func newCountingSink(name string) *countingSink {
	return &countingSink{Sink: blocks.NewSink(name)}
}

func (s *countingSink) GeneralWork(io *block.IO) int {
	s.calls.Add(1)
	return s.Sink.GeneralWork(io)
}

func TestSchedulerDrivesSourceToSinkThroughSmallRings(t *testing.T) {
	log := zap.NewNop().Sugar()

	src := blocks.NewSource("src", 500)
	sink := newCountingSink("sink")

	srcDetail, err := detail.New(src, 1, 4, log)
	require.NoError(t, err)
	sinkDetail, err := detail.New(sink, 0, 4, log)
	require.NoError(t, err)
	sinkDetail.ConnectInput(srcDetail.Outputs()[0], 1)

	m := scheduler.NewMetrics()
	sched := scheduler.New(scheduler.WithLog(log), scheduler.WithWorkers(2), scheduler.WithMetrics(m))

	// A small 4-item ring against a 500-item run forces many
	// output-blocked waits on the source and many partial batches on the
	// sink, exercising waitThenRequeue's backoff/wake race rather than the
	// happy path where everything fits in one call.
	runScheduler(t, sched, []*detail.Detail{srcDetail, sinkDetail})

	require.Len(t, sink.Items(), 500)
	for i, v := range sink.Items() {
		require.Equal(t, int32(i), v)
	}

	mfs, err := m.Registry.Gather()
	require.NoError(t, err)
	require.NotEmpty(t, mfs, "scheduler should have recorded produced/consumed counters")
}

func TestSchedulerRetiresSinkWithoutRunawayInvocation(t *testing.T) {
	log := zap.NewNop().Sugar()

	src := blocks.NewSource("src", 10)
	sink := newCountingSink("sink")

	srcDetail, err := detail.New(src, 1, 64, log)
	require.NoError(t, err)
	sinkDetail, err := detail.New(sink, 0, 64, log)
	require.NoError(t, err)
	sinkDetail.ConnectInput(srcDetail.Outputs()[0], 1)

	sched := scheduler.New(scheduler.WithLog(log), scheduler.WithWorkers(2))
	runScheduler(t, sched, []*detail.Detail{srcDetail, sinkDetail})

	require.Len(t, sink.Items(), 10)

	// The terminal path in step() retires a starved block via MarkEOS
	// without ever calling GeneralWork again once its only input is
	// permanently drained. Worker-pool scheduling order isn't
	// deterministic, so the sink may see its 10 items split across a few
	// calls, but it must stay small and bounded, not loop forever polling
	// an EOS input (runScheduler's 5s timeout would have already failed this
	// test above if it had).
	require.LessOrEqual(t, sink.calls.Load(), int32(20))
}

func TestSchedulerReportsContractViolation(t *testing.T) {
	log := zap.NewNop().Sugar()

	liar := &liarBlock{Base: block.NewBase("liar", stream.MustNew(0, 0, 4), stream.MustNew(1, 1, 4))}

	d, err := detail.New(liar, 1, 16, log)
	require.NoError(t, err)

	sched := scheduler.New(scheduler.WithLog(log), scheduler.WithWorkers(1))

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	err = sched.Run(ctx, []*detail.Detail{d})
	require.Error(t, err)
}

type liarBlock struct {
	block.Base
}

func (b *liarBlock) GeneralWork(io *block.IO) int {
	return -99 // not WorkDone, not WorkCalledProduce, not >= 0
}
