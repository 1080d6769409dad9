package main

import (
	"context"
	"fmt"
	"os"

	"github.com/APTrust/integrity-services/models/common"
	"github.com/APTrust/integrity-services/util/cli"
	"github.com/APTrust/integrity-services/workers"
)

func main() {
	opts, err := cli.ParseOpts("accept_baseline", os.Args[1:])
	if err != nil || opts.PrintHelp {
		printHelp()
		os.Exit(0)
	}
	opts.ApplyToEnv()

	imContext := common.NewContext()
	acceptor, err := workers.NewBaselineAcceptor(imContext)
	if err != nil {
		imContext.Logger.Fatalf("Cannot start: %v", err)
	}
	if _, err = acceptor.Run(context.Background(), opts.OutputFile, os.Stdout); err != nil {
		imContext.Logger.Errorf("Baseline not accepted: %v", err)
		os.Exit(1)
	}
}

func printHelp() {
	message := `
accept_baseline digests the monitored artifacts as they are right now
and saves the result as the new trusted baseline. Run it only on a host
you know to be clean, for example right after provisioning or after a
reviewed package upgrade.

With BASELINE_SOURCE=manifest the manifest is written to BASELINE_MANIFEST,
or to the path given by -out ("-" for stdout), and its sha256 is logged
so you can pin it with BASELINE_MANIFEST_SHA256. With BASELINE_SOURCE=redis
the digests are saved to the hash REDIS_BASELINE_KEY unless -out is set.

Usage: accept_baseline [-out <file|->] [-config-dir <dir>] [-config-name <name>]
`
	fmt.Println(message)
	fmt.Println(cli.EnvMessage)
}
