package commands

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/satishbabariya/babysqueel/internal/cli/ui"
	"github.com/satishbabariya/babysqueel/internal/debug"
	"github.com/satishbabariya/babysqueel/query/relation"
)

// ErrCheckFailed is returned when at least one model does not match the
// database.
var ErrCheckFailed = errors.New("column check failed")

// NewCheckCommand creates the check command.
func NewCheckCommand(a *app) *cobra.Command {
	var dsn string
	var driver string

	cmd := &cobra.Command{
		Use:   "check [schema]",
		Short: "Check declared columns against a database",
		Long: `Select every declared column of every model with LIMIT 0. Columns or
tables missing from the database surface as database errors.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if dsn == "" {
				dsn = a.cfg.DatabaseURL
			}
			if dsn == "" {
				return errors.New("no database: pass --dsn or set DATABASE_URL")
			}
			if driver == "" {
				driver = driverFor(a.cfg.Dialect)
			}
			return runCheck(cmd, a, a.schemaArg(args), driver, dsn)
		},
	}

	cmd.Flags().StringVar(&dsn, "dsn", "", "Database connection string (defaults to DATABASE_URL)")
	cmd.Flags().StringVar(&driver, "driver", "", "database/sql driver name (defaults to one matching the dialect)")

	return cmd
}

func driverFor(dialect string) string {
	switch dialect {
	case "mysql":
		return "mysql"
	case "sqlite", "sqlite3":
		return "sqlite3"
	default:
		return "postgres"
	}
}

func runCheck(cmd *cobra.Command, a *app, path, driver, dsn string) error {
	reg, err := loadSchema(path)
	if err != nil {
		return err
	}

	db, err := sql.Open(driver, dsn)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	ctx := contextOf(cmd)
	p := printer(cmd)
	dialect := relation.WithDialect(a.cfg.SQLDialect())

	log := debug.With("command", "check", "driver", driver)

	var rows [][]string
	var failedSQL []string
	failed := 0
	for _, m := range reg.Models() {
		cols := make([]any, 0, len(m.ColumnList()))
		for _, c := range m.ColumnList() {
			cols = append(cols, c.Name)
		}
		rel := relation.New(m, dialect).Select(cols...).Limit(0)
		log.Debug("checking model", "model", m.Name, "table", m.TableName, "columns", len(cols))
		if debug.Enabled() {
			if q, err := rel.ToSQL(); err == nil {
				log.Debug("check query", "model", m.Name, "sql", q)
			}
		}

		status := "ok"
		if _, err := rel.Load(ctx, db); err != nil {
			failed++
			status = err.Error()
			debug.Warn("model does not match the database", "model", m.Name, "table", m.TableName, "error", err)
			if q, qerr := rel.ToSQL(); qerr == nil {
				failedSQL = append(failedSQL, ui.Highlight(q))
			}
		}
		rows = append(rows, []string{m.Name, m.TableName, status})
	}

	if err := p.Table([]string{"Model", "Table", "Status"}, rows); err != nil {
		return err
	}
	if failed > 0 {
		p.Section("Failed queries")
		p.List(failedSQL)
		p.Error("%d of %d models failed", failed, len(rows))
		return fmt.Errorf("%w: %d of %d models", ErrCheckFailed, failed, len(rows))
	}
	p.Success("all %d models match the database", len(rows))
	return nil
}
