// Package main starts the ledger gRPC service process lifecycle.
package main

import (
	"flag"
	"log"
	"os"

	ledgercmd "github.com/louisbranch/stakedrop/internal/cmd/ledger"
	entrypoint "github.com/louisbranch/stakedrop/internal/platform/cmd"
)

func main() {
	cfg, err := ledgercmd.ParseConfig(flag.CommandLine, os.Args[1:])
	if err != nil {
		log.Fatalf("parse flags: %v", err)
	}
	log.SetPrefix(entrypoint.LogPrefix(entrypoint.ServiceLedger))
	ctx, stop := entrypoint.SignalContext()
	defer stop()

	if err := ledgercmd.Run(ctx, cfg); err != nil {
		log.Fatalf("failed to serve: %v", err)
	}
}
