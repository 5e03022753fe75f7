// Package poller implements the long-polling update loop: repeatedly call
// getUpdates, advance the offset past whatever was returned, and hand each
// Update to a callback, retrying with exponential backoff on failure.
// Grounded on mubble/bot/polling/abc.py's polling loop algorithm and on the
// teacher's internal/infra/throttle.Throttler for the backoff shape.
package poller

import (
	"context"
	"time"

	"github.com/go-faster/errors"

	"github.com/halcyon-dev/telecore/internal/telelog"
	"github.com/halcyon-dev/telecore/transport"
	"github.com/halcyon-dev/telecore/update"
)

// Handler processes one Update pulled from getUpdates.
type Handler func(ctx context.Context, u *update.Update) error

// Options configures a Poller.
type Options struct {
	AllowedUpdates []string
	PollTimeout    time.Duration // getUpdates' own long-poll timeout, default 30s
	BackoffBase    time.Duration // default 500ms
	BackoffMax     time.Duration // default 30s
}

// Poller drives the getUpdates loop against a transport.Client.
type Poller struct {
	client  transport.Client
	offset  int64
	opts    Options
	backoff *backoff
}

// New builds a Poller for client with the given options, filling in
// defaults for any zero-valued field.
func New(client transport.Client, opts Options) *Poller {
	if opts.PollTimeout <= 0 {
		opts.PollTimeout = 30 * time.Second
	}
	if opts.BackoffBase <= 0 {
		opts.BackoffBase = 500 * time.Millisecond
	}
	if opts.BackoffMax <= 0 {
		opts.BackoffMax = 30 * time.Second
	}
	return &Poller{
		client:  client,
		opts:    opts,
		backoff: newBackoff(opts.BackoffBase, opts.BackoffMax),
	}
}

// Run blocks, feeding every Update it fetches to handle, until ctx is
// cancelled. A getUpdates failure is retried with backoff rather than
// aborting the loop; a handle failure is logged and the loop continues
// with the next update (spec.md §4.1: "a single update's processing
// failure never stops the poller").
func (p *Poller) Run(ctx context.Context, handle Handler) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		updates, err := p.fetch(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			wait := p.backoff.next()
			telelog.Warnf("poller: getUpdates failed, retrying in %s: %v", wait, err)
			select {
			case <-time.After(wait):
				continue
			case <-ctx.Done():
				return ctx.Err()
			}
		}
		p.backoff.reset()

		for i := range updates {
			u := &updates[i]
			if u.UpdateID >= p.offset {
				p.offset = u.UpdateID + 1
			}
			if err := handle(ctx, u); err != nil {
				telelog.Errorf("poller: handler failed for update %d: %v", u.UpdateID, err)
			}
		}
	}
}

// Offset reports the current getUpdates offset, for diagnostics/persistence.
func (p *Poller) Offset() int64 { return p.offset }

func (p *Poller) fetch(ctx context.Context) ([]update.Update, error) {
	params := map[string]any{
		"offset":  p.offset,
		"timeout": int(p.opts.PollTimeout.Seconds()),
	}
	if len(p.opts.AllowedUpdates) > 0 {
		params["allowed_updates"] = p.opts.AllowedUpdates
	}

	var result []update.Update
	if err := p.client.Call(ctx, "getUpdates", params, &result); err != nil {
		return nil, errors.Wrap(err, "getUpdates")
	}
	return result, nil
}
