package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/APTrust/integrity-services/models/common"
	"github.com/APTrust/integrity-services/util/cli"
	"github.com/APTrust/integrity-services/workers"
)

func main() {
	opts, err := cli.ParseOpts("integrity_monitor", os.Args[1:])
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		printHelp(nil)
		os.Exit(2)
	}
	if opts.PrintHelp {
		printHelp(opts)
		os.Exit(0)
	}
	opts.ApplyToEnv()

	imContext := common.NewContext()
	monitor, err := workers.NewIntegrityMonitor(imContext)
	if err != nil {
		imContext.Logger.Fatalf("Cannot start integrity monitor: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if opts.Once {
		result, err := monitor.RunOnce(ctx)
		if err != nil {
			imContext.Logger.Errorf("Sweep failed: %v", err)
			os.Exit(1)
		}
		data, err := result.ToJSON()
		if err != nil {
			imContext.Logger.Errorf("Cannot serialize sweep result: %v", err)
			os.Exit(1)
		}
		fmt.Println(data)
		if len(result.Violations) > 0 {
			os.Exit(3)
		}
		return
	}
	if err = monitor.Run(ctx); err != nil {
		imContext.Logger.Errorf("Integrity monitor stopped: %v", err)
		os.Exit(1)
	}
}

func printHelp(opts *cli.Options) {
	message := `
integrity_monitor verifies the sha256 digests of critical system files
against a trusted baseline and responds to tampering.

As a service (the default), it sweeps every SWEEP_INTERVAL, backs off to
BACKOFF_INTERVAL after a failed sweep and shuts down cleanly on SIGINT
or SIGTERM. With -once it runs a single sweep, prints the result as JSON
and exits 0 if the host is clean, 3 if it found violations and 1 if the
sweep failed.

Usage: integrity_monitor [-once] [-config-dir <dir>] [-config-name <name>]
`
	fmt.Println(message)
	if opts != nil {
		opts.PrintDefaults(os.Stdout)
		fmt.Println()
	}
	fmt.Println(cli.EnvMessage)
}
