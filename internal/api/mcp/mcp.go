// Package mcp exposes the discovery engine as MCP tools over stdio.
package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/pkg/errors"

	"skillhub/internal/adapter/cache"
	"skillhub/internal/adapter/toolchain"
	"skillhub/internal/logger"
	"skillhub/internal/usecase"
)

type Config struct {
	// Engine serves every tool. Required.
	Engine *usecase.Engine

	// Cache, when set, fronts search_skills and is dropped on every index change.
	Cache *cache.QueryCache

	// Detector backs recommend_skills. Defaults to toolchain.NewDetector().
	Detector *toolchain.Detector

	// ProjectDir is used by recommend_skills when the caller gives none.
	ProjectDir string

	Version string
}

type Server struct {
	config    Config
	searcher  cache.Searcher
	mcpServer *mcp.Server

	// indexMu guards the engine. The SDK dispatches tool calls concurrently;
	// reindex takes it exclusively, every reading tool shares it.
	indexMu sync.RWMutex
}

func NewServer(c Config) (*Server, error) {
	if c.Engine == nil {
		return nil, errors.New("engine is required")
	}
	if c.Detector == nil {
		c.Detector = toolchain.NewDetector()
	}
	if c.ProjectDir == "" {
		c.ProjectDir = "."
	}
	if c.Version == "" {
		c.Version = "dev"
	}

	s := &Server{config: c, searcher: c.Engine}
	if c.Cache != nil {
		c.Engine.OnIndexChange(c.Cache.Invalidate)
		s.searcher = cache.NewCachedSearcher(c.Engine, c.Cache)
	}

	mcpServer := mcp.NewServer(
		&mcp.Implementation{
			Name:    "skillhub",
			Version: c.Version,
		},
		&mcp.ServerOptions{},
	)

	mcp.AddTool(mcpServer, &mcp.Tool{
		Name:        searchToolName,
		Description: searchDescription,
	}, s.handleSearch)
	mcp.AddTool(mcpServer, &mcp.Tool{
		Name:        getSkillToolName,
		Description: getSkillDescription,
	}, s.handleGetSkill)
	mcp.AddTool(mcpServer, &mcp.Tool{
		Name:        relatedToolName,
		Description: relatedDescription,
	}, s.handleRelated)
	mcp.AddTool(mcpServer, &mcp.Tool{
		Name:        recommendToolName,
		Description: recommendDescription,
	}, s.handleRecommend)
	mcp.AddTool(mcpServer, &mcp.Tool{
		Name:        statsToolName,
		Description: statsDescription,
	}, s.handleStats)
	mcp.AddTool(mcpServer, &mcp.Tool{
		Name:        reindexToolName,
		Description: reindexDescription,
	}, s.handleReindex)

	s.mcpServer = mcpServer
	return s, nil
}

// MCPServer returns the underlying server, for in-process transports.
func (s *Server) MCPServer() *mcp.Server {
	return s.mcpServer
}

// Run serves over stdin/stdout until ctx is cancelled or the client hangs up.
func (s *Server) Run(ctx context.Context) error {
	logger.G(ctx).WithField("version", s.config.Version).Info("starting MCP server on stdio")
	return s.mcpServer.Run(ctx, &mcp.StdioTransport{})
}

func errorResult(format string, args ...any) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		IsError: true,
		Content: []mcp.Content{
			&mcp.TextContent{Text: fmt.Sprintf(format, args...)},
		},
	}
}

// jsonResult mirrors the structured output as a JSON text block for
// clients that do not read structured content.
func jsonResult(ctx context.Context, out any) *mcp.CallToolResult {
	data, err := json.Marshal(out)
	if err != nil {
		logger.G(ctx).WithError(err).Error("failed to marshal tool output")
		return errorResult("Failed to serialize results: %v", err)
	}
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: string(data)},
		},
	}
}
