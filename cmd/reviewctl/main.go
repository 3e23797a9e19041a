// Command reviewctl is a terminal client for the code review platform.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"sort"
	"syscall"

	"code-review-client/config"
	"code-review-client/gateway"
	"code-review-client/services"
	"code-review-client/session"
)

func usage() {
	fmt.Fprintln(os.Stderr, "usage: reviewctl <command> [flags]")
	fmt.Fprintln(os.Stderr)
	fmt.Fprintln(os.Stderr, "commands:")
	names := make([]string, 0, len(commands))
	for name := range commands {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Fprintf(os.Stderr, "  %-14s %s\n", name, commands[name].summary)
	}
}

func main() {
	os.Exit(run())
}

func run() int {
	if len(os.Args) < 2 {
		usage()
		return 2
	}
	cmd, ok := commands[os.Args[1]]
	if !ok {
		usage()
		return 2
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	logger, logFile := config.InitLogging(cfg)
	if logFile != nil {
		defer logFile.Close()
	}

	a, err := newApp(cfg, logger, os.Stdout, os.Stdin)
	if err != nil {
		logger.WithError(err).Error("failed to start")
		return 1
	}
	defer a.Close()

	unsubscribe := a.sessions.Subscribe(func(c session.Change) {
		if !c.Active && os.Args[1] != "logout" {
			fmt.Fprintln(os.Stderr, "Your session has ended. Run `reviewctl login` to sign in again.")
		}
	})
	defer unsubscribe()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := cmd.run(ctx, a, os.Args[2:]); err != nil {
		fmt.Fprintln(os.Stderr, describeError(err))
		return 1
	}
	return 0
}

// describeError renders the user-facing line for a failed command.
func describeError(err error) string {
	var (
		verr    *services.ValidationError
		perr    *services.PermissionError
		authErr *gateway.AuthError
		reqErr  *gateway.RequestError
	)
	switch {
	case errors.As(err, &verr):
		return "invalid input: " + verr.Error()
	case errors.As(err, &perr):
		return perr.Error()
	case errors.As(err, &authErr):
		return authErr.Message
	case errors.As(err, &reqErr):
		return reqErr.Message
	case errors.Is(err, services.ErrNotSignedIn):
		return "not signed in; run `reviewctl login`"
	}
	return err.Error()
}
