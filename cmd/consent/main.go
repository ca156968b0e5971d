package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/charmbracelet/fang"
	"github.com/joho/godotenv"
)

// version is set via ldflags at build time
var version = "dev"

func main() {
	os.Exit(run(os.Args[1:]))
}

// run executes one invocation and returns the process exit code. Deferred
// cleanup has finished by the time it returns.
func run(args []string) int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// A missing .env is fine; the process environment still applies.
	_ = godotenv.Load()

	a := newApp()
	defer a.Close()

	rootCmd := NewRootCmd(version, a)
	if len(args) > 0 && args[0] != "" && args[0][0] != '-' && !isBuiltin(rootCmd, args[0]) {
		if p, ok := lookupPlugin(os.Getenv("PATH"), args[0]); ok {
			return runPlugin(ctx, a, p, args[1:])
		}
	}

	rootCmd.SetArgs(args)
	if err := fang.Execute(ctx, rootCmd); err != nil {
		return 1
	}
	return 0
}
