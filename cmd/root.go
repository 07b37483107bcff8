package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"repochat/internal/config"
	"repochat/internal/embedder"
	"repochat/internal/gitrepo"
	"repochat/internal/index"
	"repochat/internal/llm"
	"repochat/internal/logger"
	"repochat/internal/rag"
	"repochat/internal/store"
	"repochat/internal/testrun"
)

var (
	flagConfig      string
	flagDB          string
	flagDataDir     string
	flagOllama      string
	flagEmbedModel  string
	flagChatModel   string
	flagTestFile    string
	flagTestCommand string
	flagVerbose     bool
)

var rootCmd = &cobra.Command{
	Use:   "repochat",
	Short: "Index git repositories and chat with their source code",
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		logger.SetVerbose(flagVerbose)
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		return runTUI()
	},
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "config file (default ~/.config/repochat/config.toml)")
	rootCmd.PersistentFlags().StringVar(&flagDB, "db", "", "database path (default <data-dir>/index.db)")
	rootCmd.PersistentFlags().StringVar(&flagDataDir, "data-dir", "", "data directory (default ~/.repochat)")
	rootCmd.PersistentFlags().StringVar(&flagOllama, "ollama", "", "ollama base URL")
	rootCmd.PersistentFlags().StringVar(&flagEmbedModel, "embed-model", "", "embedding model")
	rootCmd.PersistentFlags().StringVar(&flagChatModel, "chat-model", "", "generative model for answers")
	rootCmd.PersistentFlags().StringVar(&flagTestFile, "test-file", "", "path for generated unit tests (default generated_test.py)")
	rootCmd.PersistentFlags().StringVar(&flagTestCommand, "test-command", "", "command that runs generated tests (default pytest)")
	rootCmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "verbose logging")
}

// loadConfig resolves settings: defaults, then the config file, then any
// flags the user set.
func loadConfig() (config.Config, error) {
	cfg, err := config.Load(flagConfig)
	if err != nil {
		return cfg, err
	}
	if flagDB != "" {
		cfg.DBPath = flagDB
	}
	if flagDataDir != "" {
		cfg.DataDir = flagDataDir
	}
	if flagOllama != "" {
		cfg.OllamaURL = flagOllama
	}
	if flagEmbedModel != "" {
		cfg.EmbedModel = flagEmbedModel
	}
	if flagChatModel != "" {
		cfg.ChatModel = flagChatModel
	}
	if flagTestFile != "" {
		cfg.TestFile = flagTestFile
	}
	if flagTestCommand != "" {
		cfg.TestCommand = flagTestCommand
	}
	return cfg, nil
}

// openStore opens the document store at the resolved database path.
func openStore(cfg config.Config) (*store.SQLiteStore, error) {
	dbPath := cfg.DBPath
	if dbPath == "" {
		dataDir, err := cfg.ResolveDataDir()
		if err != nil {
			return nil, err
		}
		dbPath = filepath.Join(dataDir, "index.db")
	}
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}
	return store.Open(dbPath)
}

// newIndexer wires the write path: materializer, collector settings,
// embedder, and store.
func newIndexer(cfg config.Config, st store.Store) (*index.Indexer, error) {
	dataDir, err := cfg.ResolveDataDir()
	if err != nil {
		return nil, err
	}
	return index.New(index.Config{
		Store:        st,
		Embedder:     embedder.NewOllamaEmbedder(cfg.OllamaURL, cfg.EmbedModel),
		Materializer: &gitrepo.Materializer{},
		ReposDir:     filepath.Join(dataDir, "repositories"),
		Extensions:   cfg.Extensions,
	})
}

// newAnswerer wires the read path: retriever, language model, and test
// runner.
func newAnswerer(cfg config.Config, st store.Store, k int) *rag.Answerer {
	return &rag.Answerer{
		Retriever: &rag.Retriever{
			Store:    st,
			Embedder: embedder.NewOllamaEmbedder(cfg.OllamaURL, cfg.EmbedModel),
		},
		LLM: llm.NewOllamaChat(cfg.OllamaURL, cfg.ChatModel),
		Runner: &testrun.Runner{
			Path:    cfg.TestFile,
			Command: cfg.TestCommand,
		},
		TopK: k,
	}
}
