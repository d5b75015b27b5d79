package main

import (
	"context"
	"os"

	"github.com/mattn/go-colorable"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/mirieri/mdb/internal/config"
	"github.com/mirieri/mdb/internal/jsondb"
	"github.com/mirieri/mdb/internal/metrics"
	"github.com/mirieri/mdb/internal/query"
)

var replFormat string

var replCmd = &cobra.Command{
	Use:   "repl",
	Short: "Run the line-command shell on stdin",
	Long: `Read commands from stdin, one per line, and print their results.

Type 'help' in the shell for the command list. The banner, prompt and colors
are only shown when stdin is a terminal.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runREPL(cmd.Context(), cfg, replFormat)
	},
}

func init() {
	replCmd.Flags().StringVar(&replFormat, "format", string(query.FormatPlain), "output format: plain, table, json, yaml")
}

func runREPL(ctx context.Context, cfg config.Config, format string) error {
	f, err := query.ParseFormat(format)
	if err != nil {
		return err
	}
	db, err := jsondb.Open(cfg.DataDir)
	if err != nil {
		return err
	}
	db.AddObserver(metrics.Observer{})

	// Unblock the pending read on SIGINT.
	unblock := context.AfterFunc(ctx, func() { _ = os.Stdin.Close() })
	defer unblock()

	r := query.NewREPL(query.NewInterpreter(db), os.Stdin, colorable.NewColorableStdout())
	r.Format = f
	r.Interactive = isatty.IsTerminal(os.Stdin.Fd()) || isatty.IsCygwinTerminal(os.Stdin.Fd())
	if err := r.Run(ctx); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return err
	}
	return nil
}
