// Package main generates proof signing keys or signs a campaign proof.
//
// With no arguments it prints a fresh key pair as shell exports. The sign
// subcommand issues a proof for one campaign action and account.
package main

import (
	"flag"
	"os"

	entrypoint "github.com/louisbranch/stakedrop/internal/platform/cmd"
	"github.com/louisbranch/stakedrop/internal/tools/proofkey"
)

func main() {
	if len(os.Args) > 1 && os.Args[1] == "sign" {
		cfg, err := proofkey.ParseSignConfig(flag.NewFlagSet("sign", flag.ExitOnError), os.Args[2:])
		if err != nil {
			entrypoint.Exitf("parse sign flags: %v", err)
		}
		if err := proofkey.Sign(os.Stdout, cfg, nil); err != nil {
			entrypoint.Exitf("sign proof: %v", err)
		}
		return
	}
	if err := proofkey.Generate(os.Stdout, nil); err != nil {
		entrypoint.Exitf("generate proof key: %v", err)
	}
}
