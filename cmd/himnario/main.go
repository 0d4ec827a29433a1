// Command himnario serves, searches and edits a hymn collection backed by
// static assets, a REST backend or a Google Drive folder.
package main

import (
	"context"
	"os"

	"github.com/spf13/cobra"
)

var version = "dev"

type rootOptions struct {
	configPath string
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	root := &cobra.Command{
		Use:           "himnario",
		Short:         "Browse and search a hymn collection",
		Long:          "himnario lists, searches and shows hymns from static assets, a REST backend or Google Drive,\nand serves them over HTTP and MCP.",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	root.PersistentFlags().StringVarP(&opts.configPath, "config", "c", "himnario.yaml", "path to config file")

	root.AddCommand(
		newServeCmd(opts),
		newMCPCmd(opts),
		newListCmd(opts),
		newShowCmd(opts),
		newSuggestCmd(opts),
		newCreateCmd(opts),
		newTokenCmd(opts),
		newCacheCmd(opts),
	)
	return root
}

// withApp loads the config, opens the app and runs fn with it.
func withApp(ctx context.Context, opts *rootOptions, fn func(context.Context, *app) error) error {
	cfg, err := loadConfig(opts.configPath)
	if err != nil {
		return err
	}
	logger := newLogger(cfg.LogLevel)

	a, err := openApp(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer a.Close()
	return fn(ctx, a)
}
