// Command reset wipes both stores and re-applies the schema. It is meant
// for local and test environments.
//
//	reset --confirm <database>
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	flag "github.com/spf13/pflag"

	"templatehub/infrastructure/config"
	"templatehub/infrastructure/di"
	"templatehub/infrastructure/persistence/schema"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, out, errOut io.Writer) int {
	flagSet := flag.NewFlagSet("reset", flag.ContinueOnError)
	flagSet.SetOutput(errOut)
	confirm := flagSet.String("confirm", "", "Name of the database to wipe; must match MONGO_DATABASE")
	allowProduction := flagSet.Bool("allow-production", false, "Permit a reset when ENVIRONMENT=production")
	if err := flagSet.Parse(args); err != nil {
		return 2
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Fprintln(errOut, "error:", err)
		return 1
	}
	if err := checkGuard(cfg, *confirm, *allowProduction); err != nil {
		fmt.Fprintln(errOut, "error:", err)
		return 2
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	container, cleanup, err := di.InitializeContainer(ctx, cfg)
	if err != nil {
		fmt.Fprintln(errOut, "error:", err)
		return 1
	}
	defer cleanup()

	history, err := container.Schema.Reset(ctx)
	printHistory(out, history)
	if err != nil {
		fmt.Fprintln(errOut, "error:", err)
		return 1
	}
	return 0
}

func checkGuard(cfg *config.Config, confirm string, allowProduction bool) error {
	if confirm == "" {
		return errors.New("--confirm is required")
	}
	if confirm != cfg.Mongo.Database {
		return fmt.Errorf("--confirm %q does not match the configured database %q", confirm, cfg.Mongo.Database)
	}
	if cfg.IsProduction() && !allowProduction {
		return errors.New("refusing to reset a production environment without --allow-production")
	}
	return nil
}

func printHistory(out io.Writer, history []schema.Applied) {
	for _, step := range history {
		fmt.Fprintf(out, "%3d  %s\n", step.Version, step.Description)
	}
}
