// Package runtime is the process-level composition layer: an ordered
// start/stop Manager for named subsystems (poller, admin console, storage
// sweeper, ...) plus a Supervisor that wires the core packages' concrete
// tasks onto it. Manager is ported almost verbatim from the teacher's
// internal/infra/lifecycle.Manager — dependency-ordered start/stop with a
// context hierarchy and cycle detection; Supervisor is the generalization of
// internal/app.Runner's startAllServices/stopAllServices to the tasks this
// core actually has (no MTProto login, no peers cache, no web server).
package runtime

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"github.com/go-faster/errors"

	"github.com/halcyon-dev/telecore/internal/telelog"
)

// StartFunc starts a node and may return a context that becomes the parent
// for its children; returning nil reuses the Manager's own child context. An
// error marks the node failed and aborts its start.
type StartFunc func(ctx context.Context) (context.Context, error)

// StopFunc stops a node. By the time it runs, the node's context is already
// cancelled, so implementations should wind down background work and
// release resources rather than rely on ctx for cancellation signaling.
type StopFunc func(ctx context.Context) error

type nodeStatus int

const (
	statusRegistered nodeStatus = iota
	statusStarting
	statusRunning
	statusStopping
	statusStopped
	statusFailed
)

const rootName = "root"

type node struct {
	name   string
	parent string
	deps   []string

	start StartFunc
	stop  StopFunc

	ctx    context.Context
	cancel context.CancelFunc
	status nodeStatus
	err    error
}

// Manager owns a set of named, dependency-ordered subsystems and guarantees
// a predictable start order (parents and deps before dependents) and the
// reverse order on Shutdown.
type Manager struct {
	mu         sync.Mutex
	nodes      map[string]*node
	startOrder []string
}

// New builds a Manager with its root node already Running, rooted at
// rootCtx (context.Background() if nil).
func New(rootCtx context.Context) *Manager {
	if rootCtx == nil {
		rootCtx = context.Background()
	}
	return &Manager{
		nodes: map[string]*node{
			rootName: {name: rootName, ctx: rootCtx, status: statusRunning},
		},
	}
}

// Register adds a node under parent (root if empty) with the given extra
// deps, which must start before it. Rejects duplicate names, unknown
// parents, and self-dependencies.
func (m *Manager) Register(name, parent string, deps []string, start StartFunc, stop StopFunc) error {
	if name == "" || name == rootName {
		return errors.Errorf("runtime: invalid node name %q", name)
	}
	if parent == "" {
		parent = rootName
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.nodes[name]; exists {
		return errors.Errorf("runtime: node %q already registered", name)
	}
	if _, ok := m.nodes[parent]; !ok {
		return errors.Errorf("runtime: parent %q not found for node %q", parent, name)
	}

	uniqueDeps := slices.Compact(slices.Clone(deps))
	uniqueDeps = slices.DeleteFunc(uniqueDeps, func(d string) bool { return d == parent })
	if slices.Contains(uniqueDeps, name) {
		return errors.Errorf("runtime: node %q cannot depend on itself", name)
	}

	m.nodes[name] = &node{name: name, parent: parent, deps: uniqueDeps, start: start, stop: stop, status: statusRegistered}
	return nil
}

// StartAll starts every registered node (root excluded), in a deterministic
// (alphabetical) pass that recursively satisfies parents and deps first.
func (m *Manager) StartAll() error {
	m.mu.Lock()
	names := make([]string, 0, len(m.nodes))
	for name := range m.nodes {
		if name != rootName {
			names = append(names, name)
		}
	}
	m.mu.Unlock()
	slices.Sort(names)

	var errs error
	for _, name := range names {
		if err := m.startNode(name); err != nil {
			errs = errors.Join(errs, err)
		}
	}
	telelog.Debugf("runtime: start order %v", m.startOrder)
	return errs
}

func (m *Manager) startNode(name string) error {
	m.mu.Lock()
	n, exists := m.nodes[name]
	if !exists {
		m.mu.Unlock()
		return errors.Errorf("runtime: node %q not registered", name)
	}
	switch n.status {
	case statusRunning:
		m.mu.Unlock()
		return nil
	case statusStarting:
		m.mu.Unlock()
		return errors.Errorf("runtime: detected cycle while starting %q", name)
	}
	n.status = statusStarting
	m.mu.Unlock()

	if n.parent != "" {
		if err := m.startNode(n.parent); err != nil {
			m.setFailed(name, err)
			return err
		}
	}
	for _, dep := range n.deps {
		if err := m.startNode(dep); err != nil {
			m.setFailed(name, err)
			return err
		}
	}

	parentCtx, err := m.nodeContext(n.parent)
	if err != nil {
		m.setFailed(name, err)
		return err
	}

	childCtx, cancel := context.WithCancel(parentCtx)
	finalCtx := childCtx

	if n.start != nil {
		startedCtx, startErr := n.start(childCtx)
		if startErr != nil {
			cancel()
			m.setFailed(name, startErr)
			return startErr
		}
		if startedCtx != nil && startedCtx != childCtx {
			finalCtx = startedCtx
		}
	}

	m.mu.Lock()
	n.ctx = finalCtx
	n.cancel = cancel
	n.status = statusRunning
	n.err = nil
	if !slices.Contains(m.startOrder, name) {
		m.startOrder = append(m.startOrder, name)
	}
	m.mu.Unlock()

	telelog.Debugf("runtime: node %s running", name)
	return nil
}

func (m *Manager) nodeContext(name string) (context.Context, error) {
	if name == "" {
		name = rootName
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	n, ok := m.nodes[name]
	if !ok || n.ctx == nil {
		return nil, fmt.Errorf("runtime: node %q has no context", name)
	}
	return n.ctx, nil
}

// Shutdown stops every running node in the reverse of its actual start
// order, so dependents always stop before what they depend on.
func (m *Manager) Shutdown() error {
	m.mu.Lock()
	order := append([]string(nil), m.startOrder...)
	m.mu.Unlock()
	telelog.Debugf("runtime: shutdown order %v", order)

	var errs error
	for i := len(order) - 1; i >= 0; i-- {
		if err := m.stopNode(order[i]); err != nil {
			errs = errors.Join(errs, err)
		}
	}
	return errs
}

func (m *Manager) stopNode(name string) error {
	m.mu.Lock()
	n, exists := m.nodes[name]
	if !exists || n.status != statusRunning {
		m.mu.Unlock()
		return nil
	}
	n.status = statusStopping
	cancel := n.cancel
	stopFn := n.stop
	nodeCtx := n.ctx
	m.mu.Unlock()

	if cancel != nil {
		cancel()
	}

	var err error
	if stopFn != nil {
		err = stopFn(nodeCtx)
	}

	m.mu.Lock()
	if err != nil {
		n.status = statusFailed
		n.err = err
	} else {
		n.status = statusStopped
	}
	m.mu.Unlock()

	if err != nil {
		telelog.Errorf("runtime: node %s stopped with error: %v", name, err)
	}
	return err
}

func (m *Manager) setFailed(name string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if n, ok := m.nodes[name]; ok {
		n.status = statusFailed
		n.err = err
	}
}
