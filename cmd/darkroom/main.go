package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/Fepozopo/darkroom/pkg/cli"
	"github.com/Fepozopo/darkroom/pkg/config"
	"github.com/Fepozopo/darkroom/pkg/logging"
	"github.com/spf13/pflag"
)

func main() {
	os.Exit(run())
}

func run() int {
	fs := pflag.NewFlagSet("darkroom", pflag.ContinueOnError)
	// Flags after the first argument belong to the subcommand.
	fs.SetInterspersed(false)
	config.AddFlags(fs)
	envFile := fs.String("env-file", ".env", "optional dotenv file read before the environment")
	if err := fs.Parse(os.Args[1:]); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return 0
		}
		return 2
	}

	cfg, err := config.Load(config.Options{EnvFile: *envFile, Flags: fs})
	if err != nil {
		fmt.Fprintln(os.Stderr, "darkroom:", err)
		return 2
	}
	logging.SetLogger(logging.NewText(os.Stderr, cfg.LogLevel))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := cli.Run(ctx, cfg, fs.Args()); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return 0
		}
		fmt.Fprintln(os.Stderr, "darkroom:", err)
		return 1
	}
	return 0
}
