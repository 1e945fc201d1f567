package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/flowradio/blockrt/common/go/logging"
	"github.com/flowradio/blockrt/common/go/xcmd"
	"github.com/flowradio/blockrt/pkg/config"
)

var cmd Cmd

// Cmd is the command line arguments.
type Cmd struct {
	// ConfigPath is the path to the configuration file.
	ConfigPath string
}

var rootCmd = &cobra.Command{
	Use:   "blockrtd",
	Short: "Runs a dataflow block graph to completion",
	Run: func(rawCmd *cobra.Command, args []string) {
		if err := run(cmd); err != nil {
			var interrupted xcmd.Interrupted
			if errors.As(err, &interrupted) {
				return
			}

			fmt.Printf("ERROR: %v\n", err)
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.Flags().StringVarP(&cmd.ConfigPath, "config", "c", "", "Path to the graph configuration file (required)")
	rootCmd.MarkFlagRequired("config")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Printf("ERROR: %v\n", err)
		os.Exit(1)
	}
}

func run(cmd Cmd) error {
	cfg, err := config.Load(cmd.ConfigPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	log, _, err := logging.Init(&logging.Config{Level: cfg.Logging.Level})
	if err != nil {
		return fmt.Errorf("failed to initialize logging: %w", err)
	}
	defer log.Sync()

	g, err := buildGraph(cfg, log)
	if err != nil {
		return fmt.Errorf("failed to build graph: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	wg, gctx := errgroup.WithContext(ctx)
	wg.Go(func() error {
		// Cancel gctx once the graph drains on its own, so the signal
		// waiter below returns instead of leaking past a finite run.
		defer cancel()
		return g.Run(gctx)
	})
	wg.Go(func() error {
		err := xcmd.WaitInterrupted(gctx)
		if errors.Is(err, context.Canceled) {
			return nil
		}
		log.Infof("caught signal: %v", err)
		return err
	})

	return wg.Wait()
}
