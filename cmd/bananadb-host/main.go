// Command bananadb-host is the Chrome native messaging host for the BananaDB
// capture extension. Chrome starts it with the caller origin as the first
// argument and speaks length-prefixed JSON on stdin and stdout.
package main

import (
	"context"
	"fmt"
	"os"

	"bananadb/internal/config"
	"bananadb/internal/daemonrun"
)

func main() {
	os.Exit(run(context.Background(), os.Args[1:]))
}

func run(ctx context.Context, args []string) int {
	cfg, _, _, err := config.Load(os.Getenv("BANANADB_CONFIG"))
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		return 1
	}
	if err := cfg.EnsureDirectories(); err != nil {
		fmt.Fprintf(os.Stderr, "ensure directories: %v\n", err)
		return 1
	}

	var origin string
	if len(args) > 0 {
		origin = args[0]
	}
	if err := daemonrun.RunHost(ctx, cfg, os.Stdin, os.Stdout, daemonrun.HostOptions{Origin: origin}); err != nil {
		fmt.Fprintf(os.Stderr, "bananadb-host: %v\n", err)
		return 1
	}
	return 0
}
