package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path"
	"syscall"

	"github.com/google/subcommands"

	"github.com/simaogato/fundledger-backend/internal/app"
	"github.com/simaogato/fundledger-backend/internal/cli"
	"github.com/simaogato/fundledger-backend/internal/config"
	"github.com/simaogato/fundledger-backend/internal/logger"
)

var (
	configPath = flag.String("config", "", "path to a YAML config file (default ./fundledger.yaml when present)")
	logLevel   = flag.String("log-level", "warn", "log level for diagnostics on stderr")
)

func main() {
	commander := subcommands.NewCommander(flag.CommandLine, path.Base(os.Args[0]))
	commander.Register(commander.HelpCommand(), "")
	commander.Register(commander.FlagsCommand(), "")
	commander.Register(commander.CommandsCommand(), "")

	env := &cli.Env{Out: os.Stdout, Err: os.Stderr}
	cli.Register(commander, env)

	flag.Parse()

	log, err := logger.New(*logLevel, "console")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error creating logger: %v\n", err)
		os.Exit(int(subcommands.ExitUsageError))
	}

	// config is read only once a command needs the fund, so help works without it
	env.Open = func(ctx context.Context) (cli.Fund, func(context.Context) error, error) {
		cfg, err := config.Load(*configPath)
		if err != nil {
			return nil, nil, err
		}
		env.Currency = cfg.Fund.Currency

		fund, err := app.Open(ctx, cfg, log)
		if err != nil {
			return nil, nil, err
		}
		return fund, fund.Close, nil
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	status := commander.Execute(ctx)
	stop()
	_ = log.Sync()
	os.Exit(int(status))
}
