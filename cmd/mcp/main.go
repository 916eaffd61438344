// Package main starts the MCP adapter on stdio or HTTP.
package main

import (
	"flag"
	"log"
	"os"

	mcpcmd "github.com/louisbranch/stakedrop/internal/cmd/mcp"
	entrypoint "github.com/louisbranch/stakedrop/internal/platform/cmd"
)

func main() {
	cfg, err := mcpcmd.ParseConfig(flag.CommandLine, os.Args[1:])
	if err != nil {
		log.Fatalf("parse flags: %v", err)
	}
	log.SetPrefix(entrypoint.LogPrefix(entrypoint.ServiceMCP))

	ctx, stop := entrypoint.SignalContext()
	defer stop()

	if err := mcpcmd.Run(ctx, cfg); err != nil {
		log.Fatalf("failed to serve MCP: %v", err)
	}
}
