// Package scheduler implements the scheduler driver contract: for every
// runnable block it computes how many output items may safely be
// produced, negotiates input availability via Forecast, invokes
// GeneralWork, and advances buffer cursors — in a worker pool shared
// across all blocks in the graph, per SPEC_FULL.md §4.5 and §5.
package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v5"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/flowradio/blockrt/pkg/blockerr"
	"github.com/flowradio/blockrt/pkg/detail"
)

// DefaultBatchSize is the noutput_items a sink block (one with no outputs
// of its own) is invoked with, since its output-side space is never the
// limiting factor.
const DefaultBatchSize = 4096

type options struct {
	log        *zap.SugaredLogger
	workers    int
	metrics    *Metrics
	batchSize  int
	maxBackoff time.Duration
}

func newOptions() *options {
	return &options{
		log:        zap.NewNop().Sugar(),
		workers:    4,
		metrics:    NewMetrics(),
		batchSize:  DefaultBatchSize,
		maxBackoff: 50 * time.Millisecond,
	}
}

// Option configures a Scheduler.
type Option func(*options)

// WithLog sets the scheduler's logger.
func WithLog(log *zap.SugaredLogger) Option {
	return func(o *options) { o.log = log }
}

// WithWorkers sets the worker-pool size. Default 4.
func WithWorkers(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.workers = n
		}
	}
}

// WithMetrics attaches a pre-built Metrics set, e.g. to share a registry
// across multiple scheduler runs.
func WithMetrics(m *Metrics) Option {
	return func(o *options) { o.metrics = m }
}

// WithSinkBatchSize overrides DefaultBatchSize for sink blocks.
func WithSinkBatchSize(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.batchSize = n
		}
	}
}

// Scheduler drives a fixed set of block Details to completion.
type Scheduler struct {
	opts *options
}

// New constructs a Scheduler with the given options.
func New(opts ...Option) *Scheduler {
	o := newOptions()
	for _, apply := range opts {
		apply(o)
	}
	return &Scheduler{opts: o}
}

// Metrics returns the scheduler's metrics set.
func (s *Scheduler) Metrics() *Metrics { return s.opts.metrics }

type runnable struct {
	name   string
	detail *detail.Detail

	mu   sync.Mutex
	done bool
}

// Run drives every block in blocks until each has returned WORK_DONE or
// been retired for lack of further input, or the context is canceled, or a
// block reports a contract violation. Start is
// called on every block before any GeneralWork call; Stop after the run
// concludes (successfully, by error, or by cancellation) — best-effort,
// per SPEC_FULL.md §5's two-phase drain.
func (s *Scheduler) Run(ctx context.Context, details []*detail.Detail) error {
	runnables := make([]*runnable, len(details))
	for i, d := range details {
		runnables[i] = &runnable{name: d.Name(), detail: d}
	}

	defer s.stopAll(details)
	if err := s.startAll(details); err != nil {
		return err
	}

	g, gctx := errgroup.WithContext(ctx)

	queue := make(chan *runnable, len(runnables))
	for _, r := range runnables {
		queue <- r
	}

	var remaining sync.WaitGroup
	remaining.Add(len(runnables))
	doneSignal := make(chan struct{})
	go func() {
		remaining.Wait()
		close(doneSignal)
	}()

	for w := 0; w < s.opts.workers; w++ {
		g.Go(func() error {
			return s.workerLoop(gctx, queue, &remaining, doneSignal)
		})
	}

	err := g.Wait()
	if err != nil {
		return err
	}
	return nil
}

func (s *Scheduler) startAll(details []*detail.Detail) error {
	for _, d := range details {
		if err := d.Start(); err != nil {
			return fmt.Errorf("scheduler: start failed: %w", err)
		}
	}
	return nil
}

func (s *Scheduler) stopAll(details []*detail.Detail) {
	for _, d := range details {
		if err := d.Stop(); err != nil {
			s.opts.log.Warnw("block stop failed", zap.Error(err))
		}
	}
}

func (s *Scheduler) workerLoop(ctx context.Context, queue chan *runnable, remaining *sync.WaitGroup, done chan struct{}) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-done:
			return nil
		case r := <-queue:
			finished, blockedOn, err := s.step(r)
			if err != nil {
				return err
			}
			if finished {
				r.mu.Lock()
				already := r.done
				r.done = true
				r.mu.Unlock()
				if !already {
					remaining.Done()
				}
				continue
			}
			if blockedOn != nil {
				s.waitThenRequeue(ctx, r, queue, blockedOn)
				continue
			}
			// Made progress; give other blocks a turn before retrying
			// this one, preserving round-robin fairness.
			select {
			case queue <- r:
			case <-ctx.Done():
				return ctx.Err()
			case <-done:
				return nil
			}
		}
	}
}

// waiter is anything the scheduler can block on between invocations: a
// ring buffer whose producer or consumer cursor advancing would unblock
// this runnable.
type waiter interface {
	Wait()
	Broadcast()
}

func (s *Scheduler) waitThenRequeue(ctx context.Context, r *runnable, queue chan *runnable, on waiter) {
	woke := make(chan struct{}, 1)
	go func() {
		on.Wait()
		select {
		case woke <- struct{}{}:
		default:
		}
	}()

	bo := backoff.ExponentialBackOff{
		InitialInterval:     backoff.DefaultInitialInterval,
		RandomizationFactor: backoff.DefaultRandomizationFactor,
		Multiplier:          backoff.DefaultMultiplier,
		MaxInterval:         s.opts.maxBackoff,
	}
	bo.Reset()
	d, err := bo.NextBackOff()
	if err != nil || d > s.opts.maxBackoff {
		d = s.opts.maxBackoff
	}
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-woke:
	case <-timer.C:
	case <-ctx.Done():
	}

	select {
	case queue <- r:
	case <-ctx.Done():
	}
}

// step performs one scheduler visit of r: sizing noutput_items,
// negotiating input availability via Forecast, invoking GeneralWork, and
// reporting whether r is now permanently finished or, if it made no
// progress, what it is blocked on.
func (s *Scheduler) step(r *runnable) (finished bool, blockedOn waiter, err error) {
	d := r.detail

	noutputCandidate, outBlockedOn := s.sizeOutput(d)
	if noutputCandidate == 0 && outBlockedOn != nil {
		s.opts.metrics.observeBlocked(r.name, "output")
		return false, outBlockedOn, nil
	}

	noutputItems, ninputItems, terminal, inBlockedOn := s.negotiateInputs(d, noutputCandidate)
	if inBlockedOn != nil {
		s.opts.metrics.observeBlocked(r.name, "input")
		return false, inBlockedOn, nil
	}
	if terminal {
		// Every input that could not satisfy Forecast has an upstream at
		// EOS, so what is buffered is all it will ever get, and that is
		// not enough: this block will never make progress again. Retire it without a final
		// GeneralWork call and propagate EOS downstream.
		s.opts.log.Debugw("retiring block, no more input will arrive",
			zap.String("block", r.name), zap.Any("eos_inputs", d.EOSInputMask().AsSlice()))
		d.MarkEOS()
		return true, nil, nil
	}

	result, invokeErr := d.Invoke(noutputItems, ninputItems)
	if invokeErr != nil {
		s.opts.metrics.observeContractFailure(r.name)
		return false, nil, blockerr.New(blockerr.KindContractViolation, r.name, invokeErr)
	}

	for _, n := range result.Produced {
		s.opts.metrics.observeProduced(r.name, n)
	}
	for _, n := range result.Consumed {
		s.opts.metrics.observeConsumed(r.name, n)
	}

	return result.Done, nil, nil
}

// sizeOutput computes noutput_items_candidate: the minimum space available
// across all outputs, rounded down to output_multiple. Sink blocks (no
// outputs) use the configured batch size instead.
func (s *Scheduler) sizeOutput(d *detail.Detail) (int, waiter) {
	n := len(d.Outputs())
	if n == 0 {
		return roundDown(s.opts.batchSize, outputMultipleOf(d)), nil
	}

	candidate := -1
	var blockedRing waiter
	for j, o := range d.Outputs() {
		space := d.OutputSpaceAvailable(j)
		if candidate == -1 || space < candidate {
			candidate = space
			blockedRing = o.Ring
		}
	}
	candidate = roundDown(candidate, outputMultipleOf(d))
	if candidate == 0 {
		return 0, blockedRing
	}
	return candidate, nil
}

func outputMultipleOf(d *detail.Detail) int {
	return d.OutputMultipleHint()
}

func roundDown(n, multiple int) int {
	if multiple <= 1 {
		if n < 0 {
			return 0
		}
		return n
	}
	return (n / multiple) * multiple
}

// negotiateInputs reduces the candidate noutput_items (in output_multiple
// steps, never below one output_multiple) until Forecast's requirement is
// met on every input by what is actually available, returning the
// negotiated noutput_items alongside each input's available item count. If
// no candidate down to one output_multiple can be satisfied, every
// unsatisfied input is checked for permanent starvation (upstream EOS, so
// nothing more will arrive beyond what is buffered);
// if all of them are, the call reports terminal so the caller can retire
// the block without ever invoking GeneralWork on insufficient input —
// otherwise it reports what ring to wait on.
func (s *Scheduler) negotiateInputs(d *detail.Detail, noutputCandidate int) (noutputItems int, ninputItems []int, terminal bool, blockedOn waiter) {
	multiple := outputMultipleOf(d)
	if multiple < 1 {
		multiple = 1
	}

	candidate := noutputCandidate
	for {
		required := d.Forecast(candidate)
		satisfied := true
		var starvedBy waiter
		allStarvedTerminal := len(required) > 0

		for i, req := range required {
			avail := d.InputItemsAvailable(i)
			if req > avail {
				satisfied = false
				starvedBy = d.Inputs()[i].Upstream.Ring
				if !d.InputEOS(i) {
					allStarvedTerminal = false
				}
			}
		}

		if satisfied {
			out := make([]int, len(required))
			for i := range out {
				out[i] = d.InputItemsAvailable(i)
			}
			return candidate, out, false, nil
		}

		if candidate <= multiple {
			if allStarvedTerminal {
				return 0, nil, true, nil
			}
			return 0, nil, false, starvedBy
		}

		candidate -= multiple
	}
}
