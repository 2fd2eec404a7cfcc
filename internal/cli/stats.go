package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"skillhub/internal/domain"
)

var (
	statsJSON   bool
	statsSkills bool
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show index statistics",
	Args:  cobra.NoArgs,
	RunE:  runStats,
}

func init() {
	rootCmd.AddCommand(statsCmd)
	statsCmd.Flags().BoolVar(&statsJSON, "json", false, "output as JSON")
	statsCmd.Flags().BoolVar(&statsSkills, "skills", false, "also list every indexed skill")
}

func runStats(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	rt, err := openRuntime(ctx, GetConfig())
	if err != nil {
		return err
	}
	defer rt.Close()

	if err := rt.refresh(ctx); err != nil {
		return err
	}
	stats := rt.engine.Stats()

	var skills []domain.Skill
	if statsSkills {
		if skills, err = rt.store.ListSkills(); err != nil {
			return fmt.Errorf("failed to list skills: %w", err)
		}
	}

	if statsJSON {
		var output []byte
		if statsSkills {
			output, _ = json.MarshalIndent(struct {
				domain.IndexStats
				Skills []domain.Skill `json:"skills"`
			}{stats, skills}, "", "  ")
		} else {
			output, _ = json.MarshalIndent(stats, "", "  ")
		}
		fmt.Println(string(output))
		return nil
	}

	fmt.Printf("Skills:        %d\n", stats.TotalSkills)
	fmt.Printf("Vector store:  ~%d bytes\n", stats.VectorStoreSize)
	fmt.Printf("Graph nodes:   %d\n", stats.GraphNodes)
	fmt.Printf("Graph edges:   %d\n", stats.GraphEdges)
	fmt.Printf("Last indexed:  %s\n", stats.LastIndexed)

	if statsSkills {
		fmt.Println()
		for _, skill := range skills {
			fmt.Printf("%-40s %-14s %s\n", skill.ID, skill.Category, skill.Name)
		}
	}
	return nil
}
