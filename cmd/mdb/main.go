// Command mdb is a small JSON-file table store with a line-command shell and
// a web front-end.
//
// Configuration is read from flags, MDB_* environment variables and an
// optional mdb.yaml file.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
)

func main() {
	if err := mainImpl(); err != nil && !errors.Is(err, context.Canceled) {
		fmt.Fprintf(os.Stderr, "mdb: %v\n", err)
		os.Exit(1)
	}
}

func mainImpl() error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM, os.Interrupt)
	defer stop()
	return rootCmd.ExecuteContext(ctx)
}
