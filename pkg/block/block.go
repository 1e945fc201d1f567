// Package block defines the block contract: the interface every processing
// node in the graph exposes to the scheduler, and the default behaviors
// (history bookkeeping, tag propagation, lifecycle no-ops) that concrete
// blocks get for free by embedding Base.
package block

import "github.com/flowradio/blockrt/pkg/stream"

// Return values for GeneralWork, per the block contract.
const (
	// WorkDone is returned to signal that the block will never produce
	// again; end-of-stream propagates downstream once buffered items
	// drain.
	WorkDone = -1
	// WorkCalledProduce is returned when the block reported its output
	// counts asymmetrically via IO.Produce instead of a single uniform
	// return value.
	WorkCalledProduce = -2
)

// Block is the minimal capability every graph node satisfies: its
// signatures and rate-shape metadata, plus the two calls the scheduler
// drives it with. Optional capabilities (Lifecycle, TagHandler) are
// type-asserted for by the scheduler's per-block detail; built-in blocks
// implement them directly, user blocks get sane defaults by embedding
// Base.
type Block interface {
	// Name identifies the block in logs, metrics, and errors. Must be
	// unique within a graph.
	Name() string

	InputSignature() stream.Signature
	OutputSignature() stream.Signature

	// History is the number of past input items retained on each input
	// stream, so a produced output may depend on up to History inputs
	// ending at and including the current one.
	History() int

	// OutputMultiple is the granularity the scheduler must round
	// noutput_items down to before calling GeneralWork.
	OutputMultiple() int

	// RelativeRate is the advisory output/input ratio used to size
	// buffers; it is never a correctness constraint.
	RelativeRate() float64

	// Forecast returns, for each input, the minimum number of items that
	// must be available for GeneralWork to be able to produce
	// noutputItems outputs. The estimate must be an upper bound but need
	// not be exact; it never fails.
	Forecast(noutputItems int) []int

	// GeneralWork is the processing hook. See IO for the arguments it
	// receives. The block must call IO.Consume or IO.ConsumeEach before
	// returning, even to declare zero consumption.
	GeneralWork(io *IO) int
}

// Lifecycle is an optional capability for blocks that need setup/teardown
// around the stream of GeneralWork calls. Start is invoked on every block
// before any GeneralWork call; Stop after the last one. Both may be called
// multiple times across successive runs and must be idempotent per run.
type Lifecycle interface {
	Start() error
	Stop() error
}

// TagHandler is an optional capability for blocks that need non-default
// tag propagation. Base's default HandleTags copies every input tag to
// every output, offset-adjusted for the block's rate.
type TagHandler interface {
	HandleTags(io *IO)
}

// FixedRateBlock is an optional capability for blocks with an exact,
// invertible rate relationship. The scheduler does not consult it; call
// sizes are always negotiated through Forecast.
type FixedRateBlock interface {
	Block
	FixedRateNinputToNoutput(n int) int
	FixedRateNoutputToNinput(n int) int
}
