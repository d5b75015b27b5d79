package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/lmittmann/tint"
	"github.com/mattn/go-colorable"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/mirieri/mdb/internal/config"
)

var (
	cfgFile string
	// cfg is loaded by the root command before any subcommand runs.
	cfg config.Config
)

var rootCmd = &cobra.Command{
	Use:   "mdb",
	Short: "A JSON-file table store with a shell and a web front-end",
	Long: `mdb stores each table as a JSON file holding its columns, its primary key
and its rows. Tables are driven from a line-command shell (mdb repl) or from
the employees web page and read-only JSON API (mdb serve).`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		if cfg, err = config.Load(viper.GetViper()); err != nil {
			return err
		}
		return setupLogger(cfg.LogLevel)
	},
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	cobra.OnInitialize(initConfig)
	config.SetDefaults(viper.GetViper())

	d := config.Default()
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ./mdb.yaml)")
	rootCmd.PersistentFlags().String("data-dir", d.DataDir, "directory holding one JSON file per table")
	rootCmd.PersistentFlags().String("log-level", d.LogLevel, "log level: debug, info, warn, error")

	mustBindPFlag("data_dir", rootCmd.PersistentFlags().Lookup("data-dir"))
	mustBindPFlag("log_level", rootCmd.PersistentFlags().Lookup("log-level"))

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(replCmd)
	rootCmd.AddCommand(hashPasswordCmd)
	rootCmd.AddCommand(versionCmd)
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("mdb")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")
	}
	config.SetupEnv(viper.GetViper())

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) || cfgFile != "" {
			fmt.Fprintf(os.Stderr, "Warning: could not read config file: %v\n", err)
		}
	}
}

// setupLogger installs the default tint logger writing to stderr.
func setupLogger(level string) error {
	l, err := config.ParseLevel(level)
	if err != nil {
		return err
	}
	ll := &slog.LevelVar{}
	ll.Set(l)
	slog.SetDefault(slog.New(newLogHandler(colorable.NewColorable(os.Stderr), ll, !isatty.IsTerminal(os.Stderr.Fd()))))
	return nil
}

func newLogHandler(w io.Writer, level slog.Leveler, noColor bool) slog.Handler {
	// Skip timestamps when running under systemd (it adds its own).
	underSystemd := os.Getenv("JOURNAL_STREAM") != ""
	return tint.NewHandler(w, &tint.Options{
		Level:      level,
		TimeFormat: "15:04:05.000", // Like time.TimeOnly plus milliseconds.
		NoColor:    noColor,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if underSystemd && a.Key == slog.TimeKey && len(groups) == 0 {
				return slog.Attr{}
			}
			// Drop localhost IPs (not useful in logs).
			if a.Key == "ip" {
				if v := a.Value.String(); v == "127.0.0.1" || v == "::1" {
					return slog.Attr{}
				}
			}
			skip := false
			switch t := a.Value.Any().(type) {
			case string:
				skip = t == ""
			case bool:
				skip = !t
			case uint64:
				skip = t == 0
			case int64:
				skip = t == 0
			case float64:
				skip = t == 0
			case time.Time:
				skip = t.IsZero()
			case time.Duration:
				skip = t == 0
			case nil:
				skip = true
			}
			if skip {
				return slog.Attr{}
			}
			return a
		},
	})
}

func mustBindPFlag(key string, flag *pflag.Flag) {
	if err := viper.BindPFlag(key, flag); err != nil {
		panic(fmt.Sprintf("viper.BindPFlag(%q): %v", key, err))
	}
}
