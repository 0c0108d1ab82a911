package cmd

import (
	"github.com/KevinKickass/OpenPedalCore/internal/catalog"
	mcpserver "github.com/KevinKickass/OpenPedalCore/internal/mcp"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// mcpCmd represents the mcp command.
var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Start the MCP server on stdio",
	Long: `Start a Model Context Protocol server on stdin/stdout so AI assistants can
compute budgets, assign ports and look up products from the local index.

Logs go to stderr or the configured log output, never to stdout.

Example client configuration:
  {"command": "openpedalcore", "args": ["mcp", "--index-path", "/data/catalog.db"]}`,
	RunE: func(cmd *cobra.Command, args []string) error {
		idx, err := catalog.OpenIndex(cfg.Catalog.IndexPath)
		if err != nil {
			return err
		}
		defer idx.Close()

		counts, err := idx.Counts(cmd.Context())
		if err != nil {
			return err
		}
		if total(counts) == 0 {
			logger.Warn("Product index is empty, run 'openpedalcore index' first",
				zap.String("index_path", cfg.Catalog.IndexPath))
		}

		return mcpserver.NewServer(idx, version, logger).Serve(cmd.Context())
	},
}

func init() {
	rootCmd.AddCommand(mcpCmd)
}
