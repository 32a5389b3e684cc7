// Package commands implements the squeel CLI commands.
package commands

import (
	"context"
	"fmt"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/satishbabariya/babysqueel/internal/cli/ui"
	"github.com/satishbabariya/babysqueel/internal/config"
	"github.com/satishbabariya/babysqueel/internal/debug"
	"github.com/satishbabariya/babysqueel/query/schema"
)

// app is the state shared by all commands of one invocation.
type app struct {
	cfg *config.Config

	schemaPath string
	dialect    string
	debug      bool
	compat     bool
}

// NewRootCommand creates the squeel root command.
func NewRootCommand(version string) *cobra.Command {
	a := &app{}

	cmd := &cobra.Command{
		Use:   "squeel",
		Short: "Inspect schemas and association paths for the squeel query DSL",
		Long: `squeel validates model schemas, expands association key paths into
include trees and checks declared columns against a live database.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.init(cmd)
		},
	}

	flags := cmd.PersistentFlags()
	flags.StringVar(&a.schemaPath, "schema", "", "Path to the schema file")
	flags.StringVar(&a.dialect, "dialect", "", "SQL dialect (postgresql, mysql, sqlite)")
	flags.BoolVar(&a.debug, "debug", false, "Enable debug logging")
	flags.BoolVar(&a.compat, "compat", false, "Enable compatibility mode")

	cmd.AddCommand(NewValidateCommand(a))
	cmd.AddCommand(NewInspectCommand(a))
	cmd.AddCommand(NewPathsCommand(a))
	cmd.AddCommand(NewCheckCommand(a))
	cmd.AddCommand(NewSQLCommand(a))

	return cmd
}

func (a *app) init(cmd *cobra.Command) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	flags := cmd.Flags()
	if flags.Changed("schema") {
		cfg.SchemaPath = a.schemaPath
	}
	if flags.Changed("dialect") {
		cfg.Dialect = a.dialect
	}
	if flags.Changed("debug") {
		cfg.Debug = a.debug
	}
	if flags.Changed("compat") {
		cfg.Compat = a.compat
	}

	debug.InitWriter(cfg.Debug, cmd.ErrOrStderr())
	debug.Debug("configuration loaded", "schema", cfg.SchemaPath, "dialect", cfg.Dialect, "compat", cfg.Compat)

	a.cfg = cfg
	return nil
}

// schemaArg returns the schema path given as the first positional argument,
// falling back to the configured one.
func (a *app) schemaArg(args []string) string {
	if len(args) > 0 && args[0] != "" {
		return args[0]
	}
	return a.cfg.SchemaPath
}

func loadSchema(path string) (*schema.Registry, error) {
	f, err := config.AppFs.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open schema: %w", err)
	}
	defer f.Close()

	return schema.Parse(path, f)
}

func printer(cmd *cobra.Command) *ui.Printer {
	return ui.New(cmd.OutOrStdout())
}

func contextOf(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

// schemaExists reports whether path names a readable file.
func schemaExists(path string) bool {
	ok, err := afero.Exists(config.AppFs, path)
	return err == nil && ok
}
