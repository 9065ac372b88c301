// Command ka3d inspects, summarises and verifies KA3D asset containers.
package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"github.com/twinfer/ka3d-dat/internal/config"
	"github.com/twinfer/ka3d-dat/internal/filter"
	"github.com/twinfer/ka3d-dat/pkg/ka3d"
)

const version = "0.1.0"

// app carries the state shared by every subcommand.
type app struct {
	stdout io.Writer
	stderr io.Writer

	configPath   string
	logLevel     string
	checkBounds  bool
	textEncoding string

	cfg    *config.Config
	logger *slog.Logger
	pool   *filter.ExpressionPool
}

func newRootCmd(stdout, stderr io.Writer) *cobra.Command {
	a := &app{stdout: stdout, stderr: stderr}

	root := &cobra.Command{
		Use:           "ka3d",
		Short:         "Inspect KA3D/RVIO asset containers",
		Long:          `Inspect, summarise and verify KA3D and RVIO game asset containers.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(cmd)
		},
	}
	root.SetOut(stdout)
	root.SetErr(stderr)

	flags := root.PersistentFlags()
	flags.StringVarP(&a.configPath, "config", "c", "", "Path to a YAML config file")
	flags.StringVar(&a.logLevel, "log-level", "", "Log level (debug, info, warn, error)")
	flags.BoolVar(&a.checkBounds, "check-bounds", false, "Fail when a segment is read past its declared end")
	flags.StringVar(&a.textEncoding, "text-encoding", "", "Legacy text encoding such as windows-1252 (default raw UTF-8)")

	root.AddCommand(
		a.inspectCmd(),
		a.summaryCmd(),
		a.verifyCmd(),
	)
	return root
}

// setup loads the config file and lets explicitly set flags override it.
func (a *app) setup(cmd *cobra.Command) error {
	cfg, err := config.Load(a.configPath)
	if err != nil {
		return err
	}
	flags := cmd.Flags()
	if flags.Changed("log-level") {
		cfg.LogLevel = a.logLevel
	}
	if flags.Changed("check-bounds") {
		cfg.CheckBounds = a.checkBounds
	}
	if flags.Changed("text-encoding") {
		cfg.TextEncoding = a.textEncoding
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	logger, err := cfg.Logger(a.stderr)
	if err != nil {
		return err
	}
	pool, err := filter.NewExpressionPool()
	if err != nil {
		return err
	}
	a.cfg = cfg
	a.logger = logger
	a.pool = pool
	return nil
}

// codec returns a codec configured from the merged settings.
func (a *app) codec() (*ka3d.Codec, error) {
	opts, err := a.cfg.CodecOptions(a.logger)
	if err != nil {
		return nil, err
	}
	return ka3d.NewCodec(opts...), nil
}

func main() {
	if err := newRootCmd(os.Stdout, os.Stderr).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "ka3d:", err)
		os.Exit(1)
	}
}
