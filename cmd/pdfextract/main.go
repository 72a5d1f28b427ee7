package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/thywilljoshua/pdf-extract/internal/common"
)

const name = "pdfextract"

// version is set at build time with -ldflags "-X main.version=...".
var version = "0.1.0"

type globalFlags struct {
	configPath string
	logLevel   string
	logFormat  string
}

func main() {
	var g globalFlags
	root := &cobra.Command{
		Use:           name,
		Short:         "Extract text, tables and images from a PDF into markdown",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&g.configPath, "config", os.Getenv("PDFX_CONFIG"), "YAML config file")
	root.PersistentFlags().StringVar(&g.logLevel, "log-level", "", "log level: debug|info|warn|error")
	root.PersistentFlags().StringVar(&g.logFormat, "log-format", "", "log format: json|console")

	root.AddCommand(extractCmd(&g), infoCmd(), serveCmd(&g))

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// setup loads the layered config and builds the logger from it.
func (g *globalFlags) setup() (common.Config, *zap.Logger, error) {
	cfg, err := common.Load(g.configPath)
	if err != nil {
		return cfg, nil, err
	}
	if g.logLevel != "" {
		cfg.Log.Level = g.logLevel
	}
	if g.logFormat != "" {
		cfg.Log.Format = g.logFormat
	}
	logger, err := common.NewLogger(cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		return cfg, nil, err
	}
	return cfg, logger, nil
}
