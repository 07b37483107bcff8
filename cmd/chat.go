package cmd

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"repochat/internal/rag"
)

var flagChatK int

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Ask questions about indexed repositories interactively",
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

		if n, err := st.Count(); err == nil && n == 0 {
			fmt.Fprintln(os.Stderr, "The index is empty. Run 'repochat index <repo-url>' first; answers will lack code context until then.")
		}

		k := flagChatK
		if k <= 0 {
			k = cfg.TopK
		}
		answerer := newAnswerer(cfg, st, k)
		scanner := bufio.NewScanner(os.Stdin)

		fmt.Println("repochat (type /help for commands, /exit to quit)")
		fmt.Println()

		for {
			fmt.Print("> ")
			if !scanner.Scan() {
				break
			}
			question := strings.TrimSpace(scanner.Text())
			if question == "" {
				continue
			}

			switch question {
			case "/exit", "/quit":
				fmt.Println("Goodbye.")
				return nil
			case "/help":
				fmt.Println("Commands:")
				fmt.Println("  /exit   - quit")
				fmt.Println("  /help   - show this help")
				fmt.Println()
				fmt.Println("Questions containing \"generate unit test\" write and run a unit test.")
				continue
			}

			resp, err := answerer.Answer(question)
			if err != nil {
				fmt.Fprintf(os.Stderr, "error: %v\n", err)
				continue
			}

			fmt.Println()
			fmt.Println(resp.Answer)
			if resp.Mode == rag.ModeTestGen {
				if resp.Degraded {
					fmt.Fprintf(os.Stderr, "warning: %s\n", resp.DegradedReason)
				} else {
					fmt.Printf("\nTest written to %s (exit %d)\n%s\n",
						resp.TestFile, resp.TestExitCode, resp.TestOutput)
				}
			}
			fmt.Println()
		}

		return scanner.Err()
	},
}

func init() {
	chatCmd.Flags().IntVarP(&flagChatK, "top-k", "k", 0, "number of snippets to retrieve (default from config)")
	rootCmd.AddCommand(chatCmd)
}
