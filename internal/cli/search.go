package cli

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"skillhub/internal/domain"
)

var (
	searchQuery     string
	searchTopK      int
	searchToolchain string
	searchCategory  string
	searchJSON      bool
)

var searchCmd = &cobra.Command{
	Use:   "search",
	Short: "Find skills for a task",
	Long: `Search skills by combining semantic similarity with the relationship graph.

Examples:
  skillhub search -q "write unit tests for a flask app"
  skillhub search -q "release a crate" --toolchain rust --top-k 5 --json`,
	Args: cobra.NoArgs,
	RunE: runSearch,
}

func init() {
	rootCmd.AddCommand(searchCmd)
	searchCmd.Flags().StringVarP(&searchQuery, "query", "q", "", "search query (required)")
	searchCmd.Flags().IntVarP(&searchTopK, "top-k", "k", 0, "number of results (default from config)")
	searchCmd.Flags().StringVarP(&searchToolchain, "toolchain", "t", "", "only skills tagged with this toolchain")
	searchCmd.Flags().StringVarP(&searchCategory, "category", "c", "", "only skills in this category")
	searchCmd.Flags().BoolVar(&searchJSON, "json", false, "output as JSON")
	_ = searchCmd.MarkFlagRequired("query")
}

func runSearch(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	rt, err := openRuntime(ctx, GetConfig())
	if err != nil {
		return err
	}
	defer rt.Close()

	if err := rt.refresh(ctx); err != nil {
		return err
	}

	outcome := rt.engine.SearchDetailed(ctx, domain.SearchRequest{
		Query:     searchQuery,
		Toolchain: searchToolchain,
		Category:  searchCategory,
		TopK:      searchTopK,
	})
	if outcome.Vector.Err != nil {
		fmt.Printf("Warning: semantic search unavailable: %v\n", outcome.Vector.Err)
	}

	if searchJSON {
		output, _ := json.MarshalIndent(outcome.Results, "", "  ")
		fmt.Println(string(output))
		return nil
	}

	if len(outcome.Results) == 0 {
		fmt.Println("No skills found.")
		return nil
	}
	fmt.Printf("Found %d skills for: %s\n\n", len(outcome.Results), searchQuery)
	for i, r := range outcome.Results {
		fmt.Printf("--- [%d] %s (score: %.3f, %s) ---\n", i+1, r.Skill.ID, r.Score, r.MatchType)
		printSkillSummary(r.Skill)
		fmt.Println()
	}
	return nil
}

func printSkillSummary(s domain.Skill) {
	fmt.Printf("%s: %s\n", s.Name, s.Description)
	fmt.Printf("category: %s", s.Category)
	if len(s.Tags) > 0 {
		fmt.Printf("  tags: %s", strings.Join(s.Tags, ", "))
	}
	fmt.Println()
}
