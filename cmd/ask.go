package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"repochat/internal/rag"
)

var (
	flagAskRepos []string
	flagK        int
)

var askCmd = &cobra.Command{
	Use:   "ask \"<question>\"",
	Short: "Answer a single question about indexed code",
	Long: `Answer a single question about indexed code.

With --repo, the given repositories are indexed (or refreshed) first.
Questions containing "generate unit test" produce a unit test for the
retrieved code, write it to the test file, and run it.`,
	Args: cobra.MinimumNArgs(1),
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

		if len(flagAskRepos) > 0 {
			idx, err := newIndexer(cfg, st)
			if err != nil {
				return err
			}
			for _, r := range idx.IndexRepositories(flagAskRepos) {
				if r.Err != nil {
					fmt.Fprintf(os.Stderr, "warning: %s not indexed: %v\n", r.RepoURL, r.Err)
				}
			}
		}

		question := strings.Join(args, " ")
		k := flagK
		if k <= 0 {
			k = cfg.TopK
		}

		resp, err := newAnswerer(cfg, st, k).Answer(question)
		if err != nil {
			return err
		}

		fmt.Println(resp.Answer)
		if resp.Mode == rag.ModeTestGen {
			switch {
			case resp.Degraded:
				fmt.Fprintf(os.Stderr, "warning: %s\n", resp.DegradedReason)
			default:
				fmt.Fprintf(os.Stderr, "\nTest written to %s (exit %d)\n%s\n",
					resp.TestFile, resp.TestExitCode, resp.TestOutput)
			}
		}
		return nil
	},
}

func init() {
	askCmd.Flags().StringArrayVar(&flagAskRepos, "repo", nil, "repository URL to index before answering (repeatable)")
	askCmd.Flags().IntVarP(&flagK, "top-k", "k", 0, "number of snippets to retrieve (default from config)")
	rootCmd.AddCommand(askCmd)
}
