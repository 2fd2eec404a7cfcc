package cli

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"skillhub/config"
	"skillhub/internal/adapter/fs"
	"skillhub/internal/logger"
	"skillhub/internal/usecase"
)

var (
	indexForce bool
	indexWatch bool
)

var indexCmd = &cobra.Command{
	Use:   "index",
	Short: "Index skills from the configured repositories",
	Long: `Discover every SKILL.md in the configured repositories, embed it and
rebuild the relationship graph. The index is stored in index.db under the
configured storage directory.

Examples:
  skillhub index            # Index every configured repository
  skillhub index --force    # Clear the index and rebuild from scratch
  skillhub index --watch    # Keep reindexing as skill files change`,
	Args: cobra.NoArgs,
	RunE: runIndex,
}

func init() {
	rootCmd.AddCommand(indexCmd)
	indexCmd.Flags().BoolVarP(&indexForce, "force", "f", false, "clear the index before rebuilding")
	indexCmd.Flags().BoolVarP(&indexWatch, "watch", "w", false, "watch repositories and reindex on change")
}

func runIndex(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	cfg := GetConfig()

	rt, err := openRuntime(ctx, cfg)
	if err != nil {
		return err
	}
	defer rt.Close()

	if rt.rebuild {
		fmt.Println("Index rebuild required: embedding configuration or schema changed")
	}

	fmt.Printf("Scanning %d repositories...\n", len(cfg.Repos))
	rt.engine.OnProgress(newProgress())

	report, err := rt.engine.ReindexAll(ctx, indexForce || rt.rebuild)
	if err != nil {
		return fmt.Errorf("indexing failed: %w", err)
	}
	rt.rebuild = false
	printReport(report, cfg)

	if !indexWatch {
		return nil
	}

	rt.engine.OnProgress(nil)
	return watch(ctx, rt)
}

// watch reindexes on every settled batch of changes until ctx is cancelled.
func watch(ctx context.Context, rt *runtime) error {
	roots := make([]string, 0, len(rt.cfg.Repos))
	for _, repo := range rt.cfg.Repos {
		roots = append(roots, repo.Path)
	}
	w := fs.NewWatcher(rt.walker, roots, rt.cfg.Index.WatchDelay)

	fmt.Println("Watching for changes (Ctrl+C to stop)...")
	err := w.Run(ctx, func(ctx context.Context, paths []string) {
		logger.G(ctx).WithField("changed", len(paths)).Info("skill files changed, reindexing")
		report, err := rt.engine.ReindexAll(ctx, false)
		if err != nil {
			logger.G(ctx).WithError(err).Error("reindex failed")
			return
		}
		fmt.Printf("Reindexed %d skills (%d failed) in %s\n", report.Indexed, report.Failed, report.Duration.Round(time.Millisecond))
	})
	if err != nil && ctx.Err() == nil {
		return fmt.Errorf("watch failed: %w", err)
	}
	return nil
}

// newProgress returns a callback drawing a progress bar once the total is known.
func newProgress() usecase.ProgressFunc {
	var (
		bar       *progressbar.ProgressBar
		mu        sync.Mutex
		startTime time.Time
	)

	return func(processed, total int, skillID string) {
		mu.Lock()
		defer mu.Unlock()

		if bar == nil {
			startTime = time.Now()
			bar = progressbar.NewOptions(total,
				progressbar.OptionEnableColorCodes(true),
				progressbar.OptionShowBytes(false),
				progressbar.OptionSetWidth(40),
				progressbar.OptionShowCount(),
				progressbar.OptionSetDescription("[cyan]Indexing[reset]"),
				progressbar.OptionSetTheme(progressbar.Theme{
					Saucer:        "[green]=[reset]",
					SaucerHead:    "[green]>[reset]",
					SaucerPadding: " ",
					BarStart:      "[",
					BarEnd:        "]",
				}),
				progressbar.OptionOnCompletion(func() {
					fmt.Println()
				}),
			)
		}

		_ = bar.Set(processed)

		if processed > 0 {
			elapsed := time.Since(startTime)
			rate := float64(processed) / elapsed.Seconds()
			if rate > 0 {
				eta := time.Duration(float64(total-processed)/rate) * time.Second
				bar.Describe(fmt.Sprintf("[cyan]Indexing[reset] ETA: %s", formatDuration(eta)))
			}
		}
	}
}

func printReport(report *usecase.IndexReport, cfg *config.Config) {
	fmt.Printf("\nIndexing complete:\n")
	fmt.Printf("  Skills indexed: %d\n", report.Indexed)
	fmt.Printf("  Skills skipped: %d (no text to embed)\n", report.Skipped)
	fmt.Printf("  Skills failed:  %d\n", report.Failed)
	fmt.Printf("  Graph:          %d nodes, %d edges\n", report.Stats.GraphNodes, report.Stats.GraphEdges)
	fmt.Printf("  Duration:       %s\n", formatDuration(report.Duration))

	if report.Errors != nil && len(report.Errors.Errors) > 0 {
		fmt.Printf("\nErrors:\n")
		for _, e := range report.Errors.Errors {
			fmt.Printf("  - %s\n", e)
		}
	}

	fmt.Printf("\nIndex stored at: %s\n", config.IndexDBPath(cfg.Index.StorageDir))
}

// formatDuration formats a duration in a human-readable way.
func formatDuration(d time.Duration) string {
	if d < time.Second {
		return "<1s"
	}
	if d < time.Minute {
		return fmt.Sprintf("%ds", int(d.Seconds()))
	}
	if d < time.Hour {
		m := int(d.Minutes())
		s := int(d.Seconds()) % 60
		return fmt.Sprintf("%dm%ds", m, s)
	}
	h := int(d.Hours())
	m := int(d.Minutes()) % 60
	return fmt.Sprintf("%dh%dm", h, m)
}
