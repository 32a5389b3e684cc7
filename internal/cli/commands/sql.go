package commands

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/satishbabariya/babysqueel/internal/debug"
	"github.com/satishbabariya/babysqueel/query/relation"
	"github.com/satishbabariya/babysqueel/query/schema"
	"github.com/satishbabariya/babysqueel/squeel"
)

// NewSQLCommand creates the sql command.
func NewSQLCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sql <model> <name>...",
		Short: "Render the SELECT that projects the given names",
		Long: `Resolve each name against the model the way a query block does and print
the resulting SELECT. Dotted names walk associations (author.name) and join
them. Names that are not declared columns resolve only in compatibility
mode, unless strict_attributes is set.`,
		Example: `  squeel sql Post title author.name
  squeel --compat sql Post legacy_flag`,
		Args: cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSQL(cmd, a, args[0], args[1:])
		},
	}

	return cmd
}

func runSQL(cmd *cobra.Command, a *app, modelName string, names []string) error {
	reg, err := loadSchema(a.schemaArg(nil))
	if err != nil {
		return err
	}
	model, ok := reg.Model(modelName)
	if !ok {
		return fmt.Errorf("%w: %s", schema.ErrUnknownModel, modelName)
	}

	log := debug.With("command", "sql", "model", model.Name)
	log.Debug("resolving names", "names", names, "compat", a.cfg.Compat, "strict", a.cfg.StrictAttributes)

	var stepErr error
	q := squeel.Wrap(relation.New(model, relation.WithDialect(a.cfg.SQLDialect())), a.cfg.DSLOptions()...).
		Selecting(func(d *squeel.DSL) any {
			exprs, _, err := selection(d, names)
			stepErr = err
			return exprs
		}).
		Joining(func(d *squeel.DSL) any {
			_, joins, _ := selection(d, names)
			return joins
		})
	if stepErr != nil {
		return stepErr
	}

	query, err := q.ToSQL()
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), query)
	return nil
}

// selection resolves dotted names into projections and the associations
// they pass through.
func selection(d *squeel.DSL, names []string) (exprs, joins []any, err error) {
	for _, name := range names {
		parts := strings.Split(name, ".")
		e := d.Get(parts[0])
		for _, part := range parts[1:] {
			switch cur := e.(type) {
			case *squeel.Association:
				joins = append(joins, cur)
				e = cur.Get(part)
			case *squeel.FuzzyAttribute:
				e = cur.Get(part)
			default:
				return nil, nil, fmt.Errorf("%s: %q is not an association", name, part)
			}
		}
		if as, ok := e.(*squeel.Association); ok {
			joins = append(joins, as)
			e = as.Star()
		}
		exprs = append(exprs, e)
	}
	return exprs, joins, nil
}
