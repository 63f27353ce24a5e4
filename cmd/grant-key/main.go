// Command grant-key generates an API key pair for signing room grants.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/rpggio/warmline/internal/tools/grantkey"
)

func main() {
	cfg, err := grantkey.ParseConfig(flag.CommandLine, os.Args[1:])
	if err != nil {
		fmt.Fprintf(os.Stderr, "parse flags: %v\n", err)
		os.Exit(1)
	}
	if err := grantkey.Run(cfg, os.Stdout, nil); err != nil {
		fmt.Fprintf(os.Stderr, "generate key pair: %v\n", err)
		os.Exit(1)
	}
}
