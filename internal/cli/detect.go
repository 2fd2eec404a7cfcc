package cli

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"skillhub/internal/adapter/toolchain"
)

var detectJSON bool

var detectCmd = &cobra.Command{
	Use:   "detect [path]",
	Short: "Detect a project's toolchain",
	Long: `Inspect marker files in a project directory and report its languages,
frameworks and build tools, plus the toolchain filter skillhub would use.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runDetect,
}

func init() {
	rootCmd.AddCommand(detectCmd)
	detectCmd.Flags().BoolVar(&detectJSON, "json", false, "output as JSON")
}

func runDetect(cmd *cobra.Command, args []string) error {
	dir := GetRootDir()
	if len(args) > 0 {
		dir = args[0]
	}

	info, err := toolchain.NewDetector().Detect(dir)
	if err != nil {
		return err
	}

	if detectJSON {
		output, _ := json.MarshalIndent(info, "", "  ")
		fmt.Println(string(output))
		return nil
	}

	fmt.Printf("Primary language:  %s (confidence %.2f)\n", info.PrimaryLanguage, info.Confidence)
	printList("Other languages:", info.SecondaryLanguages)
	printList("Frameworks:", info.Frameworks)
	printList("Build tools:", info.BuildTools)
	printList("Package managers:", info.PackageManagers)
	printList("Test frameworks:", info.TestFrameworks)
	if tc := toolchain.Recommend(info); tc != "" {
		fmt.Printf("\nSuggested search: skillhub search -q %q --toolchain %s\n", toolchain.Query(info), tc)
	}
	return nil
}

func printList(label string, items []string) {
	if len(items) == 0 {
		return
	}
	fmt.Printf("%-18s %s\n", label, strings.Join(items, ", "))
}
