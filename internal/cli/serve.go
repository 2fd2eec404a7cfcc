package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"skillhub/internal/api/mcp"
	"skillhub/internal/logger"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve skill discovery as MCP tools over stdio",
	Long: `Index the configured repositories, then run an MCP server on stdin/stdout
exposing search_skills, get_skill, related_skills, recommend_skills,
index_stats and reindex. Logs go to stderr.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	rt, err := openRuntime(ctx, GetConfig())
	if err != nil {
		return err
	}
	defer rt.Close()

	if err := rt.refresh(ctx); err != nil {
		return err
	}

	server, err := mcp.NewServer(mcp.Config{
		Engine:     rt.engine,
		Cache:      rt.cache,
		ProjectDir: GetRootDir(),
		Version:    Version,
	})
	if err != nil {
		return fmt.Errorf("failed to create MCP server: %w", err)
	}

	if err := server.Run(ctx); err != nil && ctx.Err() == nil {
		return fmt.Errorf("MCP server stopped: %w", err)
	}
	logger.G(ctx).Info("MCP server stopped")
	return nil
}
