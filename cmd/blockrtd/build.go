package main

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/flowradio/blockrt/pkg/block"
	"github.com/flowradio/blockrt/pkg/blocks"
	"github.com/flowradio/blockrt/pkg/config"
	"github.com/flowradio/blockrt/pkg/graph"
	"github.com/flowradio/blockrt/pkg/scheduler"
)

// itemSizeBytes is the wire size every built-in demo block moves: one
// little-endian int32 sample.
const itemSizeBytes = 4

// newBlock instantiates a built-in block.Block from its configuration.
func newBlock(cfg config.BlockConfig) (block.Block, int, error) {
	switch cfg.Type {
	case "source":
		return blocks.NewSource(cfg.Name, cfg.Limit), 1, nil
	case "sink":
		return blocks.NewSink(cfg.Name), 0, nil
	case "identity":
		return blocks.NewIdentity(cfg.Name), 1, nil
	case "decimate":
		n := cfg.DecimationFactor
		if n < 1 {
			n = 1
		}
		return blocks.NewDecimate(cfg.Name, n), 1, nil
	case "fir3":
		return blocks.NewFIR3(cfg.Name), 1, nil
	case "splitter":
		return blocks.NewSplitter(cfg.Name), 2, nil
	default:
		return nil, 0, fmt.Errorf("unknown block type %q for block %q", cfg.Type, cfg.Name)
	}
}

// buildGraph constructs a graph.Graph from cfg, ready to Run.
func buildGraph(cfg *config.Config, log *zap.SugaredLogger) (*graph.Graph, error) {
	ringCapacity := cfg.Scheduler.RingCapacity
	if cfg.Scheduler.RingBufferSize > 0 {
		ringCapacity = int(cfg.Scheduler.RingBufferSize) / itemSizeBytes
	}

	g := graph.New(
		graph.WithLog(log),
		graph.WithRingCapacity(ringCapacity),
		graph.WithSchedulerOptions(scheduler.WithWorkers(cfg.Scheduler.Workers)),
	)

	for _, bc := range cfg.Graph.Blocks {
		blk, numOutputs, err := newBlock(bc)
		if err != nil {
			return nil, err
		}
		if err := g.Add(blk, numOutputs); err != nil {
			return nil, err
		}
	}

	for _, cc := range cfg.Graph.Connections {
		if err := g.Connect(cc.From, cc.FromPort, cc.To, cc.ToPort, cc.History); err != nil {
			return nil, fmt.Errorf("connecting %s:%d -> %s:%d: %w", cc.From, cc.FromPort, cc.To, cc.ToPort, err)
		}
	}

	if err := g.Build(); err != nil {
		return nil, fmt.Errorf("building graph: %w", err)
	}

	return g, nil
}
