package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/satishbabariya/babysqueel/internal/cli/watch"
	"github.com/satishbabariya/babysqueel/internal/debug"
)

// NewValidateCommand creates the validate command.
func NewValidateCommand(a *app) *cobra.Command {
	var watchMode bool

	cmd := &cobra.Command{
		Use:   "validate [schema]",
		Short: "Validate a schema file",
		Long: `Parse the schema and check that every association points at a known
model and every foreign key is a declared column.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := a.schemaArg(args)
			if watchMode {
				return runValidateWatch(cmd, path)
			}
			return runValidate(cmd, path)
		},
	}

	cmd.Flags().BoolVarP(&watchMode, "watch", "w", false, "Re-validate whenever the schema changes")

	return cmd
}

func runValidate(cmd *cobra.Command, path string) error {
	p := printer(cmd)

	reg, err := loadSchema(path)
	if err != nil {
		debug.Warn("schema is invalid", "path", path, "error", err)
		p.Error("%s: %v", path, err)
		return err
	}

	p.Success("%s is valid (%d models)", path, len(reg.Models()))
	return nil
}

func runValidateWatch(cmd *cobra.Command, path string) error {
	p := printer(cmd)

	w, err := watch.NewWatcher(path, func() error {
		// Errors are reported and watching continues.
		_ = runValidate(cmd, path)
		return nil
	}, func(err error) {
		debug.Error("watch failed", "path", path, "error", err)
		p.Warning("watch: %v", err)
	})
	if err != nil {
		return fmt.Errorf("watch %s: %w", path, err)
	}
	defer w.Stop()

	p.Header("squeel validate", fmt.Sprintf("watching %s, press Ctrl+C to stop", path))
	if err := w.Start(); err != nil {
		return err
	}

	<-contextOf(cmd).Done()
	return nil
}
