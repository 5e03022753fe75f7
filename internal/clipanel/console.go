// Package clipanel is an interactive admin console attached to
// runtime.Supervisor: a readline REPL exposing "waiters", "drop <hasher>
// <key>", and "stats" commands against the live waiter.Machine and
// dispatch.Dispatcher, for operational inspection while the process runs.
// Grounded on internal/adapters/cli's Service (sync.Once-guarded
// Start/Stop, a run loop reading lines via readline, a string-switch
// command dispatcher) and internal/infra/pr's readline wrapper (cancelable
// stdin, prompt, print helpers).
package clipanel

import (
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/chzyer/readline"
)

func fmtln(a ...any) string {
	return fmt.Sprintln(a...)
}

// console wraps a *readline.Instance the way internal/infra/pr does:
// cancelable stdin so Stop() can interrupt a blocked Readline() call, and
// writer accessors redirected onto the instance's own stdout/stderr once
// initialized.
type console struct {
	mu   sync.Mutex
	rl   *readline.Instance
	in   interface{ Close() error }
	out  io.Writer
	errW io.Writer
}

func newConsole() *console {
	return &console{out: os.Stdout, errW: os.Stderr}
}

func (c *console) init() error {
	cs := readline.NewCancelableStdin(os.Stdin)
	rl, err := readline.NewEx(&readline.Config{Stdin: cs})
	if err != nil {
		_ = cs.Close()
		return err
	}

	c.mu.Lock()
	c.rl = rl
	c.in = cs
	c.out = rl.Stdout()
	c.errW = rl.Stderr()
	c.mu.Unlock()
	return nil
}

// interrupt closes the cancelable stdin, unblocking a pending Readline()
// call with io.EOF. Idempotent: Close on an already-closed cancelableStdin
// is a no-op in chzyer/readline.
func (c *console) interrupt() {
	c.mu.Lock()
	in := c.in
	c.mu.Unlock()
	if in != nil {
		_ = in.Close()
	}
}

func (c *console) setPrompt(prompt string) {
	c.mu.Lock()
	rl := c.rl
	c.mu.Unlock()
	if rl != nil {
		rl.SetPrompt(prompt)
	}
}

func (c *console) readline() (string, error) {
	c.mu.Lock()
	rl := c.rl
	c.mu.Unlock()
	return rl.Readline()
}

func (c *console) close() {
	c.mu.Lock()
	rl := c.rl
	c.mu.Unlock()
	if rl != nil {
		_ = rl.Close()
	}
}

func (c *console) println(a ...any) {
	c.mu.Lock()
	w := c.out
	c.mu.Unlock()
	_, _ = io.WriteString(w, fmtln(a...))
}

func (c *console) errPrintln(a ...any) {
	c.mu.Lock()
	w := c.errW
	c.mu.Unlock()
	_, _ = io.WriteString(w, fmtln(a...))
}
