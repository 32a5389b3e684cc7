package commands

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/satishbabariya/babysqueel/internal/cli/ui"
	"github.com/satishbabariya/babysqueel/query/schema"
)

// NewInspectCommand creates the inspect command.
func NewInspectCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "inspect [schema] [model]",
		Short: "Show the columns and associations of models",
		Long: `Print the table, columns and associations of every model in the schema,
or of a single model. With a single argument that is not a file the
argument is taken as the model name.`,
		Args: cobra.MaximumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			path, name := "", ""
			switch {
			case len(args) == 2:
				path, name = args[0], args[1]
			case len(args) == 1 && !schemaExists(args[0]):
				name = args[0]
			default:
				path = firstArg(args)
			}
			return runInspect(cmd, a.schemaArg([]string{path}), name)
		},
	}

	return cmd
}

func firstArg(args []string) string {
	if len(args) == 0 {
		return ""
	}
	return args[0]
}

func runInspect(cmd *cobra.Command, path, name string) error {
	reg, err := loadSchema(path)
	if err != nil {
		return err
	}

	models := reg.Models()
	if name != "" {
		m, ok := reg.Model(name)
		if !ok {
			return fmt.Errorf("%w: %s", schema.ErrUnknownModel, name)
		}
		models = []*schema.Model{m}
	}

	p := printer(cmd)
	for _, m := range models {
		if err := inspectModel(p, m); err != nil {
			return err
		}
	}
	return nil
}

func inspectModel(p *ui.Printer, m *schema.Model) error {
	p.Section(fmt.Sprintf("%s (%s)", m.Name, m.TableName))

	rows := make([][]string, 0, len(m.ColumnList()))
	for _, c := range m.ColumnList() {
		rows = append(rows, []string{c.Name, c.Type, strconv.FormatBool(c.Optional), strconv.FormatBool(c.PrimaryKey)})
	}
	if err := p.Table([]string{"Column", "Type", "Optional", "Primary key"}, rows); err != nil {
		return err
	}

	assocs := m.Associations()
	if len(assocs) == 0 {
		return nil
	}
	rows = rows[:0]
	for _, as := range assocs {
		target := as.ModelName
		if as.Polymorphic {
			target = "(polymorphic)"
		}
		key := as.ForeignKey
		if as.Polymorphic || as.As != "" {
			key += ", " + as.TypeColumn()
		}
		rows = append(rows, []string{as.Name, string(as.Kind), target, key})
	}
	return p.Table([]string{"Association", "Kind", "Target", "Keys"}, rows)
}
