package clipanel

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/halcyon-dev/telecore/dispatch"
	"github.com/halcyon-dev/telecore/internal/telelog"
	"github.com/halcyon-dev/telecore/waiter"
)

type commandDescriptor struct {
	name        string
	description string
}

var commandDescriptors = []commandDescriptor{
	{name: "help", description: "Show available commands with short descriptions"},
	{name: "waiters", description: "List every suspended wait across all hashers"},
	{name: "drop <hasher> <key>", description: "Cancel the suspended wait at (hasher, key)"},
	{name: "stats", description: "Show registered views and per-hasher wait counts"},
	{name: "exit", description: "Stop the console and the process"},
}

// Service is the admin console: a readline REPL running on its own
// goroutine, inspecting a live waiter.Machine and dispatch.Dispatcher.
// Start/Stop are idempotent, mirroring internal/adapters/cli.Service.
type Service struct {
	machine    *waiter.Machine
	dispatcher *dispatch.Dispatcher
	stopApp    context.CancelFunc

	console   *console
	cancel    context.CancelFunc
	wg        sync.WaitGroup
	onceStart sync.Once
	onceStop  sync.Once
}

// NewService builds a console over machine and dispatcher. stopApp, if
// non-nil, is invoked by the "exit" command, mirroring cli.Service's "exit
// stops the whole app" behavior. Ctrl-C or EOF ends the console's read loop
// without invoking stopApp.
func NewService(machine *waiter.Machine, dispatcher *dispatch.Dispatcher, stopApp context.CancelFunc) *Service {
	return &Service{
		machine:    machine,
		dispatcher: dispatcher,
		stopApp:    stopApp,
		console:    newConsole(),
	}
}

// Start launches the read loop in a background goroutine. Repeat calls are
// ignored.
func (s *Service) Start(ctx context.Context) {
	s.onceStart.Do(func() {
		if err := s.console.init(); err != nil {
			telelog.Errorf("clipanel: readline init failed: %v", err)
			return
		}
		runCtx, cancel := context.WithCancel(ctx)
		s.cancel = cancel
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			s.run(runCtx)
		}()
	})
}

// Stop interrupts the pending Readline() call, cancels the run loop, and
// waits for it to exit. Safe to call even if Start never ran.
func (s *Service) Stop() {
	s.onceStop.Do(func() {
		s.console.interrupt()
		if s.cancel != nil {
			s.cancel()
		}
		s.wg.Wait()
	})
}

func (s *Service) run(ctx context.Context) {
	s.console.setPrompt("telecore> ")
	s.console.println("admin console started. commands:", joinCommandNames())
	s.console.println("type 'help' for detailed descriptions.")
	defer s.console.close()

	for {
		if ctx.Err() != nil {
			return
		}
		line, err := s.console.readline()
		if err != nil {
			return
		}
		if s.handleCommand(strings.TrimSpace(line)) {
			return
		}
	}
}

// handleCommand dispatches one entered line, returning true if the console
// (and, via stopApp, the process) should stop.
func (s *Service) handleCommand(cmd string) bool {
	switch {
	case cmd == "":
	case cmd == "help":
		s.printHelp()
	case cmd == "waiters":
		s.printWaiters()
	case cmd == "stats":
		s.printStats()
	case cmd == "exit":
		if s.stopApp != nil {
			s.stopApp()
		}
		return true
	case strings.HasPrefix(cmd, "drop "):
		s.handleDrop(strings.TrimSpace(strings.TrimPrefix(cmd, "drop ")))
	default:
		s.console.println("unknown command:", cmd)
	}
	return false
}

func (s *Service) printHelp() {
	for _, d := range commandDescriptors {
		s.console.println(fmt.Sprintf("  %-22s %s", d.name, d.description))
	}
}

func (s *Service) printWaiters() {
	infos := s.machine.Snapshot()
	if len(infos) == 0 {
		s.console.println("no suspended waits")
		return
	}
	sort.Slice(infos, func(i, j int) bool {
		if infos[i].Hasher != infos[j].Hasher {
			return infos[i].Hasher < infos[j].Hasher
		}
		return fmt.Sprint(infos[i].Key) < fmt.Sprint(infos[j].Key)
	})
	for _, info := range infos {
		s.console.println(fmt.Sprintf("%s %v expires %s", info.Hasher, info.Key, info.Expiration.Format("15:04:05")))
	}
}

func (s *Service) printStats() {
	views := s.dispatcher.Views()
	s.console.println(fmt.Sprintf("views: %d", len(views)))
	for _, v := range views {
		s.console.println(fmt.Sprintf("  %s: %d handler(s), %d middleware(s)", v.Name, len(v.Handlers), len(v.Middlewares)))
	}
	stats := s.machine.Stats()
	if len(stats) == 0 {
		s.console.println("waiters: none active")
		return
	}
	names := make([]string, 0, len(stats))
	for name := range stats {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		s.console.println(fmt.Sprintf("  %s: %d waiting", name, stats[name]))
	}
}

func (s *Service) handleDrop(rest string) {
	parts := strings.Fields(rest)
	if len(parts) != 2 {
		s.console.errPrintln("usage: drop <hasher> <key>")
		return
	}
	hasherName, rawKey := parts[0], parts[1]

	key := any(rawKey)
	if n, err := strconv.ParseInt(rawKey, 10, 64); err == nil {
		key = n
	}

	if err := s.machine.DropByName(hasherName, key); err != nil {
		s.console.errPrintln("drop error:", err)
		return
	}
	s.console.println("dropped", hasherName, rawKey)
}

func joinCommandNames() string {
	names := make([]string, len(commandDescriptors))
	for i, d := range commandDescriptors {
		names[i] = d.name
	}
	return strings.Join(names, ", ")
}
