package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

var indexCmd = &cobra.Command{
	Use:   "index <repo-url>...",
	Short: "Index one or more git repositories for retrieval",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		st, err := openStore(cfg)
		if err != nil {
			return fmt.Errorf("open store: %w", err)
		}
		defer st.Close()

		idx, err := newIndexer(cfg, st)
		if err != nil {
			return err
		}

		start := time.Now()
		reports := idx.IndexRepositories(args)
		elapsed := time.Since(start)

		failures := 0
		for _, r := range reports {
			if r.Err != nil {
				failures++
				fmt.Printf("  %s: FAILED (%v)\n", r.RepoURL, r.Err)
				continue
			}
			fmt.Printf("  %s: %d files indexed, %d skipped (branch %s)\n",
				r.RepoURL, r.FilesIndexed, len(r.Skipped), r.Branch)
		}
		fmt.Printf("Done in %s\n", elapsed.Round(time.Millisecond))

		if err := st.SetMeta("embedding_model", cfg.EmbedModel); err != nil {
			return fmt.Errorf("record embedding model: %w", err)
		}
		if failures == len(reports) {
			return fmt.Errorf("all %d repositories failed to index", failures)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(indexCmd)
}
