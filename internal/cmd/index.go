package cmd

import (
	"context"
	"fmt"
	"sort"

	"github.com/KevinKickass/OpenPedalCore/internal/catalog"
	"github.com/KevinKickass/OpenPedalCore/internal/types"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

// indexCmd represents the index command.
var indexCmd = &cobra.Command{
	Use:   "index",
	Short: "Rebuild the product index from catalog files",
	Long: `Load every product file (*.yaml, *.yml, *.json) under the catalog search
paths, validate each record against the product schema and rebuild the
SQLite product index from scratch.

Example:
  openpedalcore index --index-path ./data/catalog.db`,
	RunE: func(cmd *cobra.Command, args []string) error {
		idx, err := catalog.OpenIndex(cfg.Catalog.IndexPath)
		if err != nil {
			return err
		}
		defer idx.Close()

		counts, err := rebuildIndex(cmd.Context(), idx)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Indexed %d products into %s\n", total(counts), cfg.Catalog.IndexPath)
		for _, line := range countLines(counts) {
			fmt.Fprintln(out, line)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(indexCmd)

	rootCmd.PersistentFlags().StringSlice("catalog-path", nil, "catalog search path (repeatable, default from config)")
	rootCmd.PersistentFlags().String("index-path", "", "path to the SQLite product index (default from config)")

	viper.BindPFlag("catalog.search_paths", rootCmd.PersistentFlags().Lookup("catalog-path"))
	viper.BindPFlag("catalog.index_path", rootCmd.PersistentFlags().Lookup("index-path"))
}

// rebuildIndex loads the configured catalog files and replaces the index
// contents with them.
func rebuildIndex(ctx context.Context, idx *catalog.Index) (map[types.ProductType]int, error) {
	loader, err := catalog.NewLoader(cfg.Catalog.SearchPaths, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create catalog loader: %w", err)
	}

	products, err := loader.LoadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to load catalog: %w", err)
	}
	if err := idx.Replace(ctx, products); err != nil {
		return nil, err
	}

	counts, err := idx.Counts(ctx)
	if err != nil {
		return nil, err
	}
	logger.Info("Catalog indexed",
		zap.Strings("search_paths", cfg.Catalog.SearchPaths),
		zap.String("index_path", cfg.Catalog.IndexPath),
		zap.Int("products", total(counts)))
	return counts, nil
}

func total(counts map[types.ProductType]int) int {
	n := 0
	for _, c := range counts {
		n += c
	}
	return n
}

// countLines renders per-type counts in a stable order.
func countLines(counts map[types.ProductType]int) []string {
	keys := make([]string, 0, len(counts))
	for k := range counts {
		keys = append(keys, string(k))
	}
	sort.Strings(keys)

	lines := make([]string, 0, len(keys))
	for _, k := range keys {
		lines = append(lines, fmt.Sprintf("  %-16s %d", k, counts[types.ProductType(k)]))
	}
	return lines
}
