package main

import (
	"context"
	"fmt"
	"io"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/synacor/namesmith/catalog"
	"github.com/synacor/namesmith/name"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List every generator in the catalog",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cat, _, err := openCatalog()
		if err != nil {
			return err
		}

		printGenerators(cmd.OutOrStdout(), cat)
		return nil
	},
}

var generateCmd = &cobra.Command{
	Use:   "generate <category> <id>",
	Short: "Print a set of random names from a generator",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		g, pool, err := resolvePool(cmd.Context(), args[0], args[1])
		if err != nil {
			return err
		}

		count, _ := cmd.Flags().GetInt("count")
		if count < 0 {
			return fmt.Errorf("count must not be negative, got %d", count)
		}
		if seed, _ := cmd.Flags().GetInt64("seed"); seed != 0 {
			name.Seed(seed)
		}

		v, err := variantFlag(cmd, g)
		if err != nil {
			return err
		}

		for _, n := range name.Generate(pool, v, count) {
			fmt.Fprintln(cmd.OutOrStdout(), n)
		}
		return nil
	},
}

var describeCmd = &cobra.Command{
	Use:   "describe <category> <id> <name>",
	Short: "Print the description of a generated name",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		g, pool, err := resolvePool(cmd.Context(), args[0], args[1])
		if err != nil {
			return err
		}

		v, err := variantFlag(cmd, g)
		if err != nil {
			return err
		}

		fmt.Fprintln(cmd.OutOrStdout(), name.Describe(pool, args[2], v))
		return nil
	},
}

func init() {
	generateCmd.Flags().IntP("count", "n", name.DefaultCount, "number of names to generate")
	generateCmd.Flags().Int64("seed", 0, "seed the random source for reproducible output")
	for _, cmd := range []*cobra.Command{generateCmd, describeCmd} {
		cmd.Flags().StringP("variant", "v", string(name.VariantMale), "first-name list of composite generators (male, female)")
	}
}

// resolvePool finds the generator and loads its pool. A pool that fails to load
// is logged and treated as empty.
func resolvePool(ctx context.Context, category, id string) (*catalog.Generator, name.Pool, error) {
	cat, loader, err := openCatalog()
	if err != nil {
		return nil, nil, err
	}

	g, err := cat.Find(category, id)
	if err != nil {
		return nil, nil, fmt.Errorf("%s/%s: %w", category, id, err)
	}

	if ctx == nil {
		ctx = context.Background()
	}
	pool, err := loader.Load(ctx, g)
	if err != nil {
		log.WithFields(log.Fields{"generator": g.Key()}).Errorf("could not load pool: %v", err)
		return g, nil, nil
	}

	return g, pool, nil
}

func variantFlag(cmd *cobra.Command, g *catalog.Generator) (name.Variant, error) {
	if !g.Composite() {
		return "", nil
	}

	s, _ := cmd.Flags().GetString("variant")
	v := name.ParseVariant(s)
	if v == "" {
		return "", fmt.Errorf("unknown variant %q", s)
	}
	return v, nil
}

func printGenerators(w io.Writer, cat *catalog.Catalog) {
	for _, g := range cat.Generators() {
		fmt.Fprintf(w, "%s\t%s\n", g.Key(), g.Title)
	}
}
