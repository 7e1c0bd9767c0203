package main

import (
	"context"
	"fmt"
	"os"

	"github.com/alecthomas/kong"

	"koerperwerte/internal/app"
	"koerperwerte/internal/backend"
	"koerperwerte/internal/cli"
	"koerperwerte/internal/config"
	"koerperwerte/internal/logging"
)

var CLI struct {
	Record   cli.RecordCmd   `cmd:"" help:"Record a weight for a person and day."`
	List     cli.ListCmd     `cmd:"" help:"List the measurements of a group."`
	Calendar cli.CalendarCmd `cmd:"" help:"Print the dense calendar of a group."`
	Migrate  cli.MigrateCmd  `cmd:"" help:"Apply the store schema and exit."`
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	kctx := kong.Parse(&CLI,
		kong.Name("koerperwerte-admin"),
		kong.Description("Administer the weight ledger of the configured store."),
		kong.UsageOnError(),
		kong.Vars{"default_group": cfg.DefaultGroup},
	)

	logger := logging.New(os.Stderr, cfg.LogLevel, "text")
	ctx := context.Background()

	b, err := backend.Open(ctx, cfg, logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	defer b.Close()

	ledger := app.NewLedger(b.Measurements, b.Locker,
		app.WithLocation(cfg.Location()),
		app.WithLogger(logger),
	)
	err = kctx.Run(&cli.Context{
		Ctx:      ctx,
		Ledger:   ledger,
		Calendar: app.NewCalendarService(ledger),
		Driver:   b.Driver,
		Out:      os.Stdout,
	})
	if err != nil {
		_ = b.Close()
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
