package commands

import (
	"fmt"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/satishbabariya/babysqueel/query/relation"
	"github.com/satishbabariya/babysqueel/query/schema"
	"github.com/satishbabariya/babysqueel/squeel"
)

// NewPathsCommand creates the paths command.
func NewPathsCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "paths <model> <path>...",
		Short: "Expand dotted association paths into an include tree",
		Long: `Build key paths from dot notation (author.posts.comments), merge them into
the include tree a query would load and print it as YAML. Every step must
name an association of the model reached so far.`,
		Example: `  squeel paths Post author.posts comments`,
		Args:    cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPaths(cmd, a.schemaArg(nil), args[0], args[1:])
		},
	}

	return cmd
}

func runPaths(cmd *cobra.Command, path, modelName string, dotted []string) error {
	reg, err := loadSchema(path)
	if err != nil {
		return err
	}
	model, ok := reg.Model(modelName)
	if !ok {
		return fmt.Errorf("%w: %s", schema.ErrUnknownModel, modelName)
	}

	values := make([]any, 0, len(dotted))
	for _, d := range dotted {
		values = append(values, squeel.Unwrap(squeel.ParseKeyPath(d)))
	}
	tree, err := relation.IncludeTree(values...)
	if err != nil {
		return err
	}
	if err := checkTree(model, tree, model.Name); err != nil {
		return err
	}

	enc := yaml.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent(2)
	if err := enc.Encode(tree.Map()); err != nil {
		return fmt.Errorf("encode include tree: %w", err)
	}
	return enc.Close()
}

// checkTree verifies that every node of tree names an association reachable
// from model.
func checkTree(model *schema.Model, tree *relation.Include, at string) error {
	for _, name := range tree.Names() {
		a, ok := model.Association(name)
		if !ok {
			return fmt.Errorf("%w: %s has no association %q", relation.ErrUnknownAssociation, at, name)
		}
		nested := tree.Nested[name]
		if !nested.HasNested() {
			continue
		}
		if a.Target == nil {
			return fmt.Errorf("%w: %s.%s", relation.ErrPolymorphicJoin, at, name)
		}
		if err := checkTree(a.Target, nested, at+"."+name); err != nil {
			return err
		}
	}
	return nil
}
