// Command reconcile reports drift between records and their graph mirrors
// and optionally repairs it.
//
//	reconcile --entity project --id 65f1...   verify one record
//	reconcile --entity template --all         scan every record and mirror
//	reconcile --entity project --all --repair rewrite the graph from records
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	flag "github.com/spf13/pflag"

	"templatehub/application/services"
	"templatehub/infrastructure/config"
	"templatehub/infrastructure/di"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, out, errOut io.Writer) int {
	flagSet := flag.NewFlagSet("reconcile", flag.ContinueOnError)
	flagSet.SetOutput(errOut)

	var opts options
	flagSet.StringVar(&opts.entity, "entity", "", "Mirrored entity: project or template")
	flagSet.StringVar(&opts.id, "id", "", "Verify a single record")
	flagSet.BoolVar(&opts.all, "all", false, "Scan every record and mirror node")
	flagSet.BoolVar(&opts.repair, "repair", false, "Repair reported drift")
	flagSet.Int64Var(&opts.pageSize, "page-size", 100, "Records read per page during a scan")

	if err := flagSet.Parse(args); err != nil {
		return 2
	}
	spec, err := opts.validate()
	if err != nil {
		fmt.Fprintln(errOut, "error:", err)
		return 2
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Fprintln(errOut, "error:", err)
		return 1
	}
	container, cleanup, err := di.InitializeContainer(ctx, cfg)
	if err != nil {
		fmt.Fprintln(errOut, "error:", err)
		return 1
	}
	defer cleanup()

	drift, err := reconcile(ctx, container.Mirror, spec, opts, out)
	if err != nil {
		fmt.Fprintln(errOut, "error:", err)
		return 1
	}
	if drift > 0 && !opts.repair {
		return 3
	}
	return 0
}

var _ mirror = (*services.Mirror)(nil)
