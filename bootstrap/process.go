package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/ridoystarlord/cteshape/cte"
)

// Callback is a unit of deferred metadata initialization. Returning an error
// matching cte.ErrMetadataNotReady re-queues it for a later round.
type Callback func(ctx context.Context) error

type entry struct {
	name string
	fn   Callback
}

// Process runs post-initialization callbacks whose mutual ordering is not
// known up front. Callbacks that depend on metadata not yet initialized are
// retried until every callback succeeds or a round makes no progress.
type Process struct {
	logger  *slog.Logger
	pending []entry
}

func NewProcess(logger *slog.Logger) *Process {
	return &Process{logger: logger}
}

// Register queues a callback. Callbacks run in registration order within a round.
func (p *Process) Register(name string, fn Callback) {
	p.pending = append(p.pending, entry{name: name, fn: fn})
}

// Pending returns the number of callbacks that have not completed yet.
func (p *Process) Pending() int {
	return len(p.pending)
}

// StalledError reports callbacks that could not complete because the
// metadata they wait for never became ready.
type StalledError struct {
	Callbacks []string
	Causes    []error
}

func (e *StalledError) Error() string {
	return fmt.Sprintf("metadata initialization stalled, %d callbacks never became ready: %s",
		len(e.Callbacks), strings.Join(e.Callbacks, ", "))
}

func (e *StalledError) Unwrap() []error {
	return e.Causes
}

// Execute runs rounds over the pending callbacks. Callbacks may register new
// callbacks while running; those join the next round.
func (p *Process) Execute(ctx context.Context) error {
	round := 0
	for len(p.pending) > 0 {
		round++
		batch := p.pending
		p.pending = nil

		var (
			requeued []entry
			causes   []error
		)
		for _, e := range batch {
			if err := ctx.Err(); err != nil {
				return err
			}
			err := e.fn(ctx)
			switch {
			case err == nil:
				p.logger.Debug("post-init callback completed", "callback", e.name, "round", round)
			case errors.Is(err, cte.ErrMetadataNotReady):
				p.logger.Debug("post-init callback re-queued", "callback", e.name, "round", round, "reason", err)
				requeued = append(requeued, e)
				causes = append(causes, err)
			default:
				return fmt.Errorf("post-init callback %s: %w", e.name, err)
			}
		}

		added := len(p.pending)
		p.pending = append(requeued, p.pending...)
		if len(requeued) == len(batch) && added == 0 {
			names := make([]string, len(requeued))
			for i, e := range requeued {
				names[i] = e.name
			}
			return &StalledError{Callbacks: names, Causes: causes}
		}
	}
	p.logger.Debug("post-init callbacks finished", "rounds", round)
	return nil
}
