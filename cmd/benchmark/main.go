package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"skillhub/config"
	"skillhub/internal/adapter/catalog"
	"skillhub/internal/adapter/embedding"
	"skillhub/internal/adapter/fs"
	"skillhub/internal/adapter/graph"
	"skillhub/internal/adapter/memstore"
	"skillhub/internal/domain"
	"skillhub/internal/logger"
	"skillhub/internal/usecase"
)

var (
	configDir string
	topK      int
	repeat    int
)

// The benchmark indexes into memory so it never contends for the index lock.
var rootCmd = &cobra.Command{
	Use:   "benchmark <query> [query...]",
	Short: "Measure search quality and latency against the configured repositories",
	Args:  cobra.MinimumNArgs(1),
	RunE:  run,
}

func main() {
	rootCmd.Flags().StringVarP(&configDir, "dir", "d", ".", "directory holding skillhub.yaml")
	rootCmd.Flags().IntVarP(&topK, "top-k", "k", 10, "number of results")
	rootCmd.Flags().IntVarP(&repeat, "repeat", "n", 5, "searches per query for latency")
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func run(cmd *cobra.Command, queries []string) error {
	ctx := context.Background()
	_ = logger.SetLogLevel("warn")

	cfg, err := config.LoadFromDir(configDir)
	if err != nil {
		return fmt.Errorf("error loading config: %w", err)
	}

	embedder, err := embedding.NewFromConfig(cfg.Embedding)
	if err != nil {
		return fmt.Errorf("embedder init failed: %w", err)
	}

	cat := catalog.New(cfg.Repos, fs.NewWalker(cfg.Index.Includes, cfg.Index.Excludes), nil)
	engine := usecase.NewEngine(
		cat,
		embedder,
		memstore.NewVectorStore(embedder.Dimension()),
		graph.New(),
		usecase.OptionsFromConfig(cfg),
	)

	fmt.Println("HYBRID SEARCH BENCHMARK")
	fmt.Println(strings.Repeat("=", 70))

	report, err := engine.ReindexAll(ctx, true)
	if err != nil {
		return fmt.Errorf("indexing failed: %w", err)
	}
	fmt.Printf("Skills indexed: %d (failed %d) in %s\n", report.Indexed, report.Failed, report.Duration.Round(time.Millisecond))
	fmt.Printf("Graph: %d nodes, %d edges\n", report.Stats.GraphNodes, report.Stats.GraphEdges)
	fmt.Printf("Model: %s (%s), dimension %d\n", embedder.ModelName(), cfg.Embedding.Provider, embedder.Dimension())

	for _, q := range queries {
		benchmarkQuery(ctx, engine, q)
	}
	return nil
}

func benchmarkQuery(ctx context.Context, engine *usecase.Engine, query string) {
	fmt.Println()
	fmt.Printf("Query: %q\n", query)
	fmt.Println(strings.Repeat("-", 70))

	req := domain.SearchRequest{Query: query, TopK: topK}
	outcome := engine.SearchDetailed(ctx, req)

	var total time.Duration
	for i := 0; i < repeat; i++ {
		start := time.Now()
		engine.Search(ctx, req)
		total += time.Since(start)
	}

	if outcome.Vector.Err != nil {
		fmt.Printf("vector phase failed: %v\n", outcome.Vector.Err)
	}
	if outcome.Graph.Err != nil {
		fmt.Printf("graph phase failed: %v\n", outcome.Graph.Err)
	}
	fmt.Printf("vector hits %d, graph hits %d\n\n", outcome.Vector.Hits, outcome.Graph.Hits)

	counts := make(map[domain.MatchType]int)
	scoreSum := 0.0
	for i, r := range outcome.Results {
		counts[r.MatchType]++
		scoreSum += r.Score
		fmt.Printf("%2d. [%s %.3f] %s\n", i+1, rating(r.Score), r.Score, r.Skill.ID)
		if r.Skill.Description != "" {
			fmt.Printf("    %s\n", truncate(r.Skill.Description, 100))
		}
	}
	if len(outcome.Results) == 0 {
		fmt.Println("no results")
		return
	}

	fmt.Println()
	fmt.Printf("QUALITY METRICS:\n")
	fmt.Printf("  Average score:  %.3f\n", scoreSum/float64(len(outcome.Results)))
	fmt.Printf("  Top-1 score:    %.3f\n", outcome.Results[0].Score)
	fmt.Printf("  Match types:    vector %d, graph %d, hybrid %d\n",
		counts[domain.MatchVector], counts[domain.MatchGraph], counts[domain.MatchHybrid])
	if repeat > 0 {
		fmt.Printf("  Mean latency:   %s over %d runs\n", (total / time.Duration(repeat)).Round(time.Microsecond), repeat)
	}
}

func rating(score float64) string {
	switch {
	case score > 0.7:
		return "HIGH"
	case score > 0.5:
		return "GOOD"
	case score > 0.3:
		return "OK"
	default:
		return "LOW"
	}
}

func truncate(s string, n int) string {
	s = strings.ReplaceAll(s, "\n", " ")
	if len([]rune(s)) <= n {
		return s
	}
	return string([]rune(s)[:n]) + "..."
}
