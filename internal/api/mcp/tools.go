package mcp

import (
	"context"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"skillhub/internal/adapter/toolchain"
	"skillhub/internal/domain"
	"skillhub/internal/logger"
)

var (
	searchToolName    = "search_skills"
	searchDescription = "Find skills for a natural-language task. Combines semantic similarity with the skill relationship graph. Optionally filter by toolchain (matched against tags) or exact category."

	getSkillToolName    = "get_skill"
	getSkillDescription = "Return the full record of one skill, including its instructions."

	relatedToolName    = "related_skills"
	relatedDescription = "List skills connected to a skill through dependencies, a shared category or shared tags."

	recommendToolName    = "recommend_skills"
	recommendDescription = "Detect the toolchain of a project directory and recommend matching skills."

	statsToolName    = "index_stats"
	statsDescription = "Report index size, graph size and when the index was last rebuilt."

	reindexToolName    = "reindex"
	reindexDescription = "Rediscover skills from the configured repositories and rebuild the index. With force, the index is cleared first."
)

// SkillSummary is a skill without its instructions.
type SkillSummary struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Category    string   `json:"category"`
	Tags        []string `json:"tags"`
	RepoID      string   `json:"repo_id"`
}

func summarize(s domain.Skill) SkillSummary {
	tags := s.Tags
	if tags == nil {
		tags = []string{}
	}
	return SkillSummary{
		ID:          s.ID,
		Name:        s.Name,
		Description: s.Description,
		Category:    s.Category,
		Tags:        tags,
		RepoID:      s.RepoID,
	}
}

// SearchResult is one ranked skill.
type SearchResult struct {
	SkillSummary
	Score     float64 `json:"score"`
	MatchType string  `json:"match_type"`
}

func toResults(scored []domain.ScoredSkill) []SearchResult {
	out := make([]SearchResult, 0, len(scored))
	for _, s := range scored {
		out = append(out, SearchResult{
			SkillSummary: summarize(s.Skill),
			Score:        s.Score,
			MatchType:    string(s.MatchType),
		})
	}
	return out
}

type SearchInput struct {
	Query     string `json:"query" jsonschema:"what you are trying to do, in plain language"`
	Toolchain string `json:"toolchain,omitempty" jsonschema:"optional toolchain such as python or rust, matched against skill tags"`
	Category  string `json:"category,omitempty" jsonschema:"optional exact category such as testing"`
	TopK      int    `json:"top_k,omitempty" jsonschema:"number of results to return (default: 10)"`
}

type SearchOutput struct {
	Query   string         `json:"query"`
	Results []SearchResult `json:"results"`
	Count   int            `json:"count"`
}

func (s *Server) handleSearch(ctx context.Context, _ *mcp.CallToolRequest, input SearchInput) (*mcp.CallToolResult, SearchOutput, error) {
	logger.G(ctx).WithField("query", input.Query).WithField("top_k", input.TopK).Debug("MCP search request")

	s.indexMu.RLock()
	defer s.indexMu.RUnlock()

	scored := s.searcher.Search(ctx, domain.SearchRequest{
		Query:     input.Query,
		Toolchain: input.Toolchain,
		Category:  input.Category,
		TopK:      input.TopK,
	})
	out := SearchOutput{
		Query:   input.Query,
		Results: toResults(scored),
	}
	out.Count = len(out.Results)
	return jsonResult(ctx, out), out, nil
}

type GetSkillInput struct {
	ID string `json:"id" jsonschema:"skill id, e.g. anthropics/testing/pytest"`
}

func (s *Server) handleGetSkill(ctx context.Context, _ *mcp.CallToolRequest, input GetSkillInput) (*mcp.CallToolResult, domain.Skill, error) {
	s.indexMu.RLock()
	defer s.indexMu.RUnlock()

	skill, ok := s.config.Engine.Skill(input.ID)
	if !ok {
		return errorResult("Skill not found: %s", input.ID), domain.Skill{}, nil
	}
	return jsonResult(ctx, skill), skill, nil
}

type RelatedInput struct {
	ID       string `json:"id" jsonschema:"skill id to start from"`
	MaxDepth *int   `json:"max_depth,omitempty" jsonschema:"maximum number of hops, 0 returns nothing (default: 2)"`
}

type RelatedOutput struct {
	ID      string         `json:"id"`
	Related []SkillSummary `json:"related"`
	Count   int            `json:"count"`
}

func (s *Server) handleRelated(ctx context.Context, _ *mcp.CallToolRequest, input RelatedInput) (*mcp.CallToolResult, RelatedOutput, error) {
	depth := -1 // engine default
	if input.MaxDepth != nil {
		depth = *input.MaxDepth
	}

	s.indexMu.RLock()
	defer s.indexMu.RUnlock()
	related := s.config.Engine.RelatedSkills(ctx, input.ID, depth)

	out := RelatedOutput{ID: input.ID, Related: make([]SkillSummary, 0, len(related))}
	for _, skill := range related {
		out.Related = append(out.Related, summarize(skill))
	}
	out.Count = len(out.Related)
	return jsonResult(ctx, out), out, nil
}

type RecommendInput struct {
	ProjectDir string `json:"project_dir,omitempty" jsonschema:"project directory to inspect (default: the server's working directory)"`
	TopK       int    `json:"top_k,omitempty" jsonschema:"number of results to return (default: 10)"`
}

type RecommendOutput struct {
	Toolchain *toolchain.Info `json:"toolchain"`
	Query     string          `json:"query"`
	Results   []SearchResult  `json:"results"`
	Count     int             `json:"count"`
}

func (s *Server) handleRecommend(ctx context.Context, _ *mcp.CallToolRequest, input RecommendInput) (*mcp.CallToolResult, RecommendOutput, error) {
	dir := input.ProjectDir
	if dir == "" {
		dir = s.config.ProjectDir
	}
	info, err := s.config.Detector.Detect(dir)
	if err != nil {
		logger.G(ctx).WithError(err).WithField("dir", dir).Warn("toolchain detection failed")
		return errorResult("Failed to detect toolchain: %v", err), RecommendOutput{}, nil
	}

	s.indexMu.RLock()
	defer s.indexMu.RUnlock()

	out := RecommendOutput{Toolchain: info, Query: toolchain.Query(info), Results: []SearchResult{}}
	if out.Query != "" {
		scored := s.searcher.Search(ctx, domain.SearchRequest{
			Query:     out.Query,
			Toolchain: toolchain.Recommend(info),
			TopK:      input.TopK,
		})
		out.Results = toResults(scored)
	}
	out.Count = len(out.Results)
	return jsonResult(ctx, out), out, nil
}

type StatsInput struct{}

func (s *Server) handleStats(ctx context.Context, _ *mcp.CallToolRequest, _ StatsInput) (*mcp.CallToolResult, domain.IndexStats, error) {
	s.indexMu.RLock()
	stats := s.config.Engine.Stats()
	s.indexMu.RUnlock()
	return jsonResult(ctx, stats), stats, nil
}

type ReindexInput struct {
	Force bool `json:"force,omitempty" jsonschema:"clear the index before rebuilding"`
}

type ReindexOutput struct {
	Stats    domain.IndexStats `json:"stats"`
	Indexed  int               `json:"indexed"`
	Skipped  int               `json:"skipped"`
	Failed   int               `json:"failed"`
	Errors   []string          `json:"errors,omitempty"`
	Duration string            `json:"duration"`
}

func (s *Server) handleReindex(ctx context.Context, _ *mcp.CallToolRequest, input ReindexInput) (*mcp.CallToolResult, ReindexOutput, error) {
	s.indexMu.Lock()
	defer s.indexMu.Unlock()

	report, err := s.config.Engine.ReindexAll(ctx, input.Force)
	if err != nil {
		logger.G(ctx).WithError(err).Error("reindex failed")
		return errorResult("Reindex failed: %v", err), ReindexOutput{}, nil
	}

	out := ReindexOutput{
		Stats:    report.Stats,
		Indexed:  report.Indexed,
		Skipped:  report.Skipped,
		Failed:   report.Failed,
		Duration: report.Duration.String(),
	}
	if report.Errors != nil {
		for _, e := range report.Errors.Errors {
			out.Errors = append(out.Errors, e.Error())
		}
	}
	return jsonResult(ctx, out), out, nil
}
