// Package config loads the YAML configuration that describes a demo
// dataflow graph for cmd/blockrtd: which built-in blocks to instantiate
// and how to connect their ports.
package config

import (
	"fmt"
	"os"

	"github.com/c2h5oh/datasize"
	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"
)

// Config is the top-level demo runtime configuration.
type Config struct {
	// Logging configuration.
	Logging LoggingConfig `yaml:"logging"`
	// Scheduler configuration.
	Scheduler SchedulerConfig `yaml:"scheduler"`
	// Graph describes the blocks and connections to build.
	Graph GraphConfig `yaml:"graph"`
}

// LoggingConfig is the configuration for the logging subsystem.
type LoggingConfig struct {
	// Level is the logging level.
	Level zapcore.Level `yaml:"level"`
}

// SchedulerConfig configures the worker-pool scheduler driver.
type SchedulerConfig struct {
	// Workers is the number of goroutines driving the shared runnable
	// queue.
	Workers int `yaml:"workers"`
	// RingCapacity is the item capacity given to every output ring
	// buffer.
	RingCapacity int `yaml:"ring_capacity"`
	// RingBufferSize, if set, overrides RingCapacity by computing a
	// capacity from a byte budget; mainly useful when tuning memory
	// footprint rather than item counts directly.
	RingBufferSize datasize.ByteSize `yaml:"ring_buffer_size"`
}

// GraphConfig describes a flow graph: the blocks to instantiate and the
// edges connecting their ports.
type GraphConfig struct {
	Blocks      []BlockConfig      `yaml:"blocks"`
	Connections []ConnectionConfig `yaml:"connections"`
}

// BlockConfig instantiates one built-in block by Type, under the unique
// name Name.
type BlockConfig struct {
	// Name is this block instance's unique name within the graph.
	Name string `yaml:"name"`
	// Type selects the built-in block implementation: "source", "sink",
	// "identity", "decimate", "fir3", or "splitter".
	Type string `yaml:"type"`
	// NumOutputs declares how many output ports this instance uses. It is
	// not read by cmd/blockrtd: every built-in type has a fixed output
	// count (0 for sink, 2 for splitter, 1 for the rest).
	NumOutputs int `yaml:"num_outputs"`
	// Limit bounds a source block's total item count; 0 means unbounded.
	Limit int `yaml:"limit"`
	// DecimationFactor configures a decimate block's keep-1-of-N factor.
	DecimationFactor int `yaml:"decimation_factor"`
}

// ConnectionConfig wires one output port to one input port.
type ConnectionConfig struct {
	From     string `yaml:"from"`
	FromPort int    `yaml:"from_port"`
	To       string `yaml:"to"`
	ToPort   int    `yaml:"to_port"`
	History  int    `yaml:"history"`
}

// DefaultConfig returns the configuration used when no override is given
// for a particular field.
func DefaultConfig() *Config {
	return &Config{
		Logging: LoggingConfig{
			Level: zapcore.InfoLevel,
		},
		Scheduler: SchedulerConfig{
			Workers:      4,
			RingCapacity: 65536,
		},
	}
}

// Load reads and parses the configuration file at path, starting from
// DefaultConfig so unset fields keep their defaults.
func Load(path string) (*Config, error) {
	buf, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := DefaultConfig()
	if err := yaml.Unmarshal(buf, cfg); err != nil {
		return nil, fmt.Errorf("failed to deserialize config: %w", err)
	}

	return cfg, nil
}
