package main

import (
	"fmt"
	"os"

	"github.com/APTrust/integrity-services/models/common"
	"github.com/APTrust/integrity-services/util/cli"
	"github.com/APTrust/integrity-services/workers"
)

func main() {
	opts, err := cli.ParseOpts("integrity_alerter", os.Args[1:])
	if err != nil || opts.PrintHelp {
		printHelp()
		os.Exit(0)
	}
	opts.ApplyToEnv()

	imContext := common.NewContext()
	alerter := workers.NewAlertConsumer(imContext, workers.NewAlertSettings(imContext.Config))
	if err = alerter.Run(); err != nil {
		imContext.Logger.Errorf("Alerter stopped: %v", err)
		os.Exit(1)
	}
}

func printHelp() {
	message := `
integrity_alerter reads integrity alerts from the NSQ topic ALERT_TOPIC
and writes each one to its log at a level matching the threat: CRITICAL
for lockdowns down to INFO for low-severity changes.

This requires NSQ_LOOKUPD.

Usage: integrity_alerter [-config-dir <dir>] [-config-name <name>]
`
	fmt.Println(message)
	fmt.Println(cli.EnvMessage)
}
