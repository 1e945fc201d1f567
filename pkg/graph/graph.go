// Package graph implements the demo runtime harness: a small flow-graph
// builder that wires blocks into block.Details, connects their ports
// checking stream signatures, and drives the result with a
// scheduler.Scheduler. It plays the role the teacher's yncp.Director plays
// for controlplane modules, scaled down to a single in-process graph.
package graph

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/flowradio/blockrt/pkg/block"
	"github.com/flowradio/blockrt/pkg/blockerr"
	"github.com/flowradio/blockrt/pkg/detail"
	"github.com/flowradio/blockrt/pkg/scheduler"
)

// DefaultRingCapacity is the item capacity given to every output ring
// buffer created by Add, unless overridden with WithRingCapacity.
const DefaultRingCapacity = 65536

type options struct {
	log          *zap.SugaredLogger
	ringCapacity int
	schedOpts    []scheduler.Option
}

func newOptions() *options {
	return &options{
		log:          zap.NewNop().Sugar(),
		ringCapacity: DefaultRingCapacity,
	}
}

// Option configures a Graph.
type Option func(*options)

// WithLog sets the graph's (and its scheduler's) logger.
func WithLog(log *zap.SugaredLogger) Option {
	return func(o *options) { o.log = log }
}

// WithRingCapacity overrides DefaultRingCapacity for every output created
// after this option is applied.
func WithRingCapacity(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.ringCapacity = n
		}
	}
}

// WithSchedulerOptions forwards options to the underlying scheduler.Scheduler.
func WithSchedulerOptions(opts ...scheduler.Option) Option {
	return func(o *options) { o.schedOpts = append(o.schedOpts, opts...) }
}

// port identifies one output or input port of a named block.
type port struct {
	block string
	index int
}

// edge is a pending Connect call, resolved once Build runs.
type edge struct {
	src     port
	dst     port
	history int
}

// Graph accumulates blocks and connections, then builds a runnable set of
// block.Details and drives them with a scheduler.
type Graph struct {
	opts *options

	order   []string
	blocks  map[string]block.Block
	details map[string]*detail.Detail
	edges   []edge
}

// New constructs an empty Graph.
func New(opts ...Option) *Graph {
	o := newOptions()
	for _, apply := range opts {
		apply(o)
	}
	return &Graph{
		opts:    o,
		blocks:  make(map[string]block.Block),
		details: make(map[string]*detail.Detail),
	}
}

// Add registers a block under its own Name(). numOutputs must match the
// number of output ports the block actually uses in Connect calls.
func (g *Graph) Add(blk block.Block, numOutputs int) error {
	name := blk.Name()
	if _, exists := g.blocks[name]; exists {
		return fmt.Errorf("graph: block %q added twice", name)
	}

	d, err := detail.New(blk, numOutputs, g.opts.ringCapacity, g.opts.log)
	if err != nil {
		return fmt.Errorf("graph: adding block %q: %w", name, err)
	}

	g.blocks[name] = blk
	g.details[name] = d
	g.order = append(g.order, name)
	return nil
}

// Connect wires srcBlock's output srcPort to dstBlock's input dstPort,
// retaining history items of backlog on dstBlock's side, or dstBlock's own
// History() if that is larger. Signature
// compatibility (item size) is checked eagerly; stream-count bounds are
// checked once Build sees the final fan-in/fan-out per block.
func (g *Graph) Connect(srcBlock string, srcPort int, dstBlock string, dstPort int, history int) error {
	src, ok := g.blocks[srcBlock]
	if !ok {
		return fmt.Errorf("graph: unknown source block %q", srcBlock)
	}
	dst, ok := g.blocks[dstBlock]
	if !ok {
		return fmt.Errorf("graph: unknown destination block %q", dstBlock)
	}

	if src.OutputSignature().ItemSizeBytes() != dst.InputSignature().ItemSizeBytes() {
		return blockerr.New(blockerr.KindSignatureMismatch, dstBlock, fmt.Errorf(
			"item size %d on %s output %d does not match item size %d on %s input %d",
			src.OutputSignature().ItemSizeBytes(), srcBlock, srcPort,
			dst.InputSignature().ItemSizeBytes(), dstBlock, dstPort))
	}

	if history < 1 {
		history = 1
	}

	g.edges = append(g.edges, edge{
		src:     port{block: srcBlock, index: srcPort},
		dst:     port{block: dstBlock, index: dstPort},
		history: history,
	})
	return nil
}

// Build validates every block's final stream-count bounds against its
// signature and wires up the underlying detail.Detail connections. Must be
// called exactly once, after every Add and Connect call, before Run.
func (g *Graph) Build() error {
	inCount := make(map[string]int)
	for _, e := range g.edges {
		inCount[e.dst.block]++
	}

	for name, blk := range g.blocks {
		if !blk.InputSignature().Accepts(inCount[name]) {
			return blockerr.New(blockerr.KindSignatureMismatch, name, fmt.Errorf(
				"block has %d connected inputs, outside signature bounds [%d, %d]",
				inCount[name], blk.InputSignature().MinStreams(), blk.InputSignature().MaxStreams()))
		}
		if n := len(g.details[name].Outputs()); !blk.OutputSignature().Accepts(n) {
			return blockerr.New(blockerr.KindSignatureMismatch, name, fmt.Errorf(
				"block has %d outputs, outside signature bounds [%d, %d]",
				n, blk.OutputSignature().MinStreams(), blk.OutputSignature().MaxStreams()))
		}
	}

	for _, e := range g.edges {
		srcDetail := g.details[e.src.block]
		dstDetail := g.details[e.dst.block]
		history := e.history
		if h := g.blocks[e.dst.block].History(); h > history {
			history = h
		}
		dstDetail.ConnectInput(srcDetail.Outputs()[e.src.index], history)
	}
	return nil
}

// Run builds the scheduler and drives every block to completion.
func (g *Graph) Run(ctx context.Context) error {
	details := make([]*detail.Detail, 0, len(g.order))
	for _, name := range g.order {
		details = append(details, g.details[name])
	}

	opts := append([]scheduler.Option{scheduler.WithLog(g.opts.log)}, g.opts.schedOpts...)
	sched := scheduler.New(opts...)
	return sched.Run(ctx, details)
}

// Detail exposes a built block's runtime state, mainly for tests that need
// to inspect buffered output after a Run.
func (g *Graph) Detail(name string) *detail.Detail { return g.details[name] }
