package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

var (
	relatedDepth int
	relatedJSON  bool
)

var relatedCmd = &cobra.Command{
	Use:   "related <skill-id>",
	Short: "List skills connected to a skill",
	Long: `Walk the relationship graph from a skill and list what it reaches,
nearest first.

Examples:
  skillhub related anthropics/testing/pytest
  skillhub related anthropics/testing/pytest --depth 1`,
	Args: cobra.ExactArgs(1),
	RunE: runRelated,
}

func init() {
	rootCmd.AddCommand(relatedCmd)
	relatedCmd.Flags().IntVar(&relatedDepth, "depth", -1, "maximum hops (default from config)")
	relatedCmd.Flags().BoolVar(&relatedJSON, "json", false, "output as JSON")
}

func runRelated(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	id := args[0]

	rt, err := openRuntime(ctx, GetConfig())
	if err != nil {
		return err
	}
	defer rt.Close()

	if err := rt.refresh(ctx); err != nil {
		return err
	}

	if _, ok := rt.engine.Skill(id); !ok {
		return fmt.Errorf("skill not found: %s", id)
	}
	related := rt.engine.RelatedSkills(ctx, id, relatedDepth)

	if relatedJSON {
		output, _ := json.MarshalIndent(related, "", "  ")
		fmt.Println(string(output))
		return nil
	}

	if len(related) == 0 {
		fmt.Printf("No skills related to %s.\n", id)
		return nil
	}
	fmt.Printf("%d skills related to %s:\n\n", len(related), id)
	for _, s := range related {
		fmt.Printf("- %s\n  ", s.ID)
		printSkillSummary(s)
	}
	return nil
}
