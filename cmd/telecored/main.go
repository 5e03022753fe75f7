// Command telecored is the process entry point: parse flags, load config,
// set up logging, wire the poller/dispatcher/waiter machine onto a
// runtime.Supervisor, and block until a signal asks for graceful shutdown.
// Grounded on cmd/userbot/main.go's bootstrap order (flags -> config ->
// logger -> signal context -> app.Init/Run -> graceful stop), minus the
// MTProto login step this core has no equivalent of.
package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/halcyon-dev/telecore/dispatch"
	"github.com/halcyon-dev/telecore/internal/clipanel"
	"github.com/halcyon-dev/telecore/internal/teleconfig"
	"github.com/halcyon-dev/telecore/internal/telelog"
	"github.com/halcyon-dev/telecore/internal/telestate"
	"github.com/halcyon-dev/telecore/poller"
	"github.com/halcyon-dev/telecore/runtime"
	"github.com/halcyon-dev/telecore/transport"
	"github.com/halcyon-dev/telecore/update"
	"github.com/halcyon-dev/telecore/waiter"
)

func main() {
	log.SetFlags(0)
	log.SetPrefix(time.Now().Format("2006-01-02 15:04:05 "))

	envPath := flag.String("env", ".env", "path to .env file")
	statePath := flag.String("state", "", "optional path to a bbolt file for persisted handler state")
	consoleEnabled := flag.Bool("console", false, "start an interactive admin console on stdin")
	flag.Parse()

	if err := teleconfig.Load(*envPath); err != nil {
		log.Fatalf("telecored: load config: %v", err)
	}
	env := teleconfig.Get()

	telelog.Init(env.LogLevel)
	for _, msg := range teleconfig.Warnings() {
		telelog.Warn(msg)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	token, err := transport.ParseToken(env.BotToken)
	if err != nil {
		log.Fatalf("telecored: %v", err)
	}
	client := transport.NewHTTPClient(token, env.APIBaseURL,
		transport.WithFileBaseURL(env.APIFileBaseURL),
		transport.WithHTTPClient(&http.Client{Timeout: env.HTTPTimeout}),
	)

	p := poller.New(client, poller.Options{AllowedUpdates: env.AllowedUpdates})
	d := dispatch.New()
	machine := waiter.NewMachine(env.MaxStorageSize)

	sup := runtime.NewSupervisor(ctx)

	if err := sup.RegisterPoller(p, func(ctx context.Context, u *update.Update) error {
		return d.Feed(ctx, u)
	}); err != nil {
		log.Fatalf("telecored: register poller: %v", err)
	}

	if err := sup.RegisterSweeper(machine, runtime.DefaultSweepInterval); err != nil {
		log.Fatalf("telecored: register sweeper: %v", err)
	}

	if *statePath != "" {
		store, err := telestate.Open(*statePath)
		if err != nil {
			log.Fatalf("telecored: open state store: %v", err)
		}
		if err := sup.RegisterStore(store); err != nil {
			log.Fatalf("telecored: register state store: %v", err)
		}
	}

	if *consoleEnabled {
		console := clipanel.NewService(machine, d, stop)
		if err := sup.RegisterConsole(console); err != nil {
			log.Fatalf("telecored: register console: %v", err)
		}
	}

	if err := sup.Start(); err != nil {
		log.Fatalf("telecored: start: %v", err)
	}

	<-ctx.Done()
	telelog.Info("shutdown signal received, stopping")
	if err := sup.Shutdown(); err != nil {
		telelog.Errorf("telecored: shutdown: %v", err)
	}
	log.Println("telecored: graceful shutdown complete")
}
