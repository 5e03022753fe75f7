package runtime

import (
	"context"
	"sync"
	"time"

	"github.com/halcyon-dev/telecore/internal/clipanel"
	"github.com/halcyon-dev/telecore/internal/telestate"
	"github.com/halcyon-dev/telecore/poller"
	"github.com/halcyon-dev/telecore/waiter"
)

// DefaultSweepInterval matches waiter.DefaultSweepInterval; Supervisor
// drives its own ticker rather than relying solely on each limitedDict's
// internal sweep goroutine, so "clear storage" is also visible as one named
// node in the start/stop order cmd/telecored logs.
const DefaultSweepInterval = waiter.DefaultSweepInterval

// Supervisor is the process composition root: it registers the core's
// background tasks (poller, waiter-storage sweeper, admin console, optional
// persisted-state store) onto a Manager and drives them through one
// StartAll/Shutdown pair, the same shape as internal/app.Runner but
// generalized to whatever the caller actually wires in — a deployment with
// no admin console or no persisted state simply never registers those
// nodes.
type Supervisor struct {
	manager *Manager
}

// NewSupervisor builds a Supervisor rooted at rootCtx, which every
// registered node's context derives from and which Shutdown cancels
// transitively.
func NewSupervisor(rootCtx context.Context) *Supervisor {
	return &Supervisor{manager: New(rootCtx)}
}

// RegisterPoller runs p.Run(ctx, handle) on its own goroutine for as long
// as the Supervisor is running, stopping it by cancelling its node context
// and waiting for Run to return.
func (s *Supervisor) RegisterPoller(p *poller.Poller, handle poller.Handler) error {
	var wg sync.WaitGroup
	return s.manager.Register("poller", "", nil,
		func(ctx context.Context) (context.Context, error) {
			wg.Add(1)
			go func() {
				defer wg.Done()
				if err := p.Run(ctx, handle); err != nil && ctx.Err() == nil {
					panic(err) // fetch/backoff already retries; a non-context error here is a bug in Run's contract
				}
			}()
			return nil, nil
		},
		func(ctx context.Context) error {
			wg.Wait()
			return nil
		},
	)
}

// RegisterSweeper runs Machine.ClearStorage every interval (waiter's own
// DefaultSweepInterval if interval <= 0) until stopped.
func (s *Supervisor) RegisterSweeper(m *waiter.Machine, interval time.Duration) error {
	if interval <= 0 {
		interval = DefaultSweepInterval
	}
	done := make(chan struct{})
	return s.manager.Register("sweeper", "", nil,
		func(ctx context.Context) (context.Context, error) {
			go func() {
				defer close(done)
				ticker := time.NewTicker(interval)
				defer ticker.Stop()
				for {
					select {
					case <-ctx.Done():
						return
					case <-ticker.C:
						m.ClearStorage()
					}
				}
			}()
			return nil, nil
		},
		func(ctx context.Context) error {
			<-done
			return nil
		},
	)
}

// RegisterConsole starts/stops an admin console, depending on "poller" so
// it comes up after the core dispatch loop is already running.
func (s *Supervisor) RegisterConsole(c *clipanel.Service) error {
	return s.manager.Register("console", "", []string{"poller"},
		func(ctx context.Context) (context.Context, error) {
			c.Start(ctx)
			return nil, nil
		},
		func(ctx context.Context) error {
			c.Stop()
			return nil
		},
	)
}

// RegisterStore closes store on shutdown; opening it is the caller's
// responsibility (it must exist before anything can Get/Set against it).
func (s *Supervisor) RegisterStore(store *telestate.Store) error {
	return s.manager.Register("store", "", nil,
		func(ctx context.Context) (context.Context, error) { return nil, nil },
		func(ctx context.Context) error { return store.Close() },
	)
}

// Start brings up every registered node in dependency order.
func (s *Supervisor) Start() error {
	return s.manager.StartAll()
}

// Shutdown stops every running node in reverse start order.
func (s *Supervisor) Shutdown() error {
	return s.manager.Shutdown()
}
