// Package cmd is the storedb command line.
package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/Gobusters/ectologger"
	"github.com/Gobusters/ectologger/zapadapter"
	"github.com/Ramsey-B/storedb/config"
	"github.com/Ramsey-B/storedb/pkg/tracing"
	"github.com/Ramsey-B/storedb/pkg/tracing/exporters"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	cfgFile string
	rootDir string
	verbose bool

	cfg            *config.Config
	logger         ectologger.Logger
	shutdownTracer func(context.Context) error
)

var rootCmd = &cobra.Command{
	Use:   "storedb",
	Short: "Load retail sales files into a normalized sqlite store",
	Long: `storedb keeps a sqlite database of products, states, zip codes, customers,
invoices and invoice line items.

  storedb init               # create the database and load reference data
  storedb ingest             # load every Sales_*.csv waiting in the intake directory
  storedb stats              # row counts per table`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return setup(cmd.Context())
	},
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		return teardown(cmd.Context())
	},
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Help()
	},
}

func Execute() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "storedb.yaml", "path to the configuration file")
	rootCmd.PersistentFlags().StringVar(&rootDir, "root", "", "directory the store lives in (overrides the config file)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log at debug level")
}

func setup(ctx context.Context) error {
	loaded, err := config.Load(cfgFile)
	if err != nil {
		return err
	}
	if rootDir != "" {
		loaded.Root = rootDir
	}
	if verbose {
		loaded.LogLevel = "debug"
	}
	cfg = loaded

	logger, err = newLogger(cfg)
	if err != nil {
		return err
	}

	otlp := exporters.DefaultOTLPConfig()
	otlp.Endpoint = cfg.OTLPEndpoint
	otlp.Protocol = cfg.OTLPProtocol
	shutdownTracer, err = tracing.Setup(ctx, otlp)
	return err
}

func teardown(ctx context.Context) error {
	if shutdownTracer == nil {
		return nil
	}
	return shutdownTracer(ctx)
}

func newLogger(cfg *config.Config) (ectologger.Logger, error) {
	level, err := zapcore.ParseLevel(cfg.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", cfg.LogLevel, err)
	}

	zapCfg := zap.NewProductionConfig()
	if cfg.PrettyLogs {
		zapCfg = zap.NewDevelopmentConfig()
	}
	zapCfg.Level = zap.NewAtomicLevelAt(level)

	zapLogger, err := zapCfg.Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build logger: %w", err)
	}
	return zapadapter.NewZapEctoLogger(zapLogger, nil), nil
}
