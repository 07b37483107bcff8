package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cobra"

	"repochat/internal/rag"
	"repochat/internal/store"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Start an MCP server exposing repository search and Q&A tools",
	RunE:  runMCP,
}

func runMCP(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	st, err := openStore(cfg)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer st.Close()

	answerer := newAnswerer(cfg, st, cfg.TopK)

	s := mcpserver.NewMCPServer("repochat", "1.0.0", mcpserver.WithToolCapabilities(false))
	s.AddTool(searchCodeTool(), makeSearchHandler(answerer.Retriever))
	s.AddTool(askCodebaseTool(), makeAskHandler(answerer))
	s.AddTool(listRepositoriesTool(), makeListReposHandler(st))

	return mcpserver.ServeStdio(s)
}

func init() {
	rootCmd.AddCommand(mcpCmd)
}

// --- Tool schema builders ---

var readOnlyAnnotation = mcp.ToolAnnotation{
	ReadOnlyHint:    mcp.ToBoolPtr(true),
	DestructiveHint: mcp.ToBoolPtr(false),
	IdempotentHint:  mcp.ToBoolPtr(true),
	OpenWorldHint:   mcp.ToBoolPtr(false),
}

func searchCodeTool() mcp.Tool {
	return mcp.NewTool("search_code",
		mcp.WithDescription("Semantically search indexed repositories. Returns the most similar source files with their repository and path."),
		mcp.WithToolAnnotation(readOnlyAnnotation),
		mcp.WithString("query",
			mcp.Required(),
			mcp.Description("Natural language query to search the indexed source code"),
		),
		mcp.WithNumber("k",
			mcp.Description("Maximum number of files to return (default 3)"),
		),
	)
}

func askCodebaseTool() mcp.Tool {
	return mcp.NewTool("ask_codebase",
		mcp.WithDescription("Ask a natural-language question about the indexed repositories. The answer is grounded in retrieved source code."),
		mcp.WithString("question",
			mcp.Required(),
			mcp.Description("The question to answer"),
		),
	)
}

func listRepositoriesTool() mcp.Tool {
	return mcp.NewTool("list_repositories",
		mcp.WithDescription("List the repositories present in the index with their document counts."),
		mcp.WithToolAnnotation(readOnlyAnnotation),
	)
}

// --- Handler factories ---

func makeSearchHandler(retriever *rag.Retriever) mcpserver.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		query := req.GetString("query", "")
		if query == "" {
			return mcp.NewToolResultError("query is required"), nil
		}
		k := req.GetInt("k", rag.DefaultTopK)

		results, err := retriever.Retrieve(query, k)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("search failed: %v", err)), nil
		}
		return mcp.NewToolResultText(formatSearchResults(query, results)), nil
	}
}

func makeAskHandler(answerer *rag.Answerer) mcpserver.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		question := req.GetString("question", "")
		if question == "" {
			return mcp.NewToolResultError("question is required"), nil
		}

		resp, err := answerer.Answer(question)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("answer failed: %v", err)), nil
		}

		text := resp.Answer
		if resp.Mode == rag.ModeTestGen && !resp.Degraded {
			text += fmt.Sprintf("\n\nTest written to %s (exit %d)\n%s", resp.TestFile, resp.TestExitCode, resp.TestOutput)
		}
		return mcp.NewToolResultText(text), nil
	}
}

func makeListReposHandler(st store.Store) mcpserver.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		repos, err := st.Repositories()
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("list repositories failed: %v", err)), nil
		}
		if len(repos) == 0 {
			return mcp.NewToolResultText("The index is empty. Run 'repochat index <repo-url>' to populate it."), nil
		}

		var sb strings.Builder
		fmt.Fprintf(&sb, "## Indexed repositories (%d)\n\n", len(repos))
		for _, url := range repos {
			n, err := st.CountByRepo(url)
			if err != nil {
				return mcp.NewToolResultError(fmt.Sprintf("count documents: %v", err)), nil
			}
			fmt.Fprintf(&sb, "- **%s** — %d documents\n", url, n)
		}
		return mcp.NewToolResultText(sb.String()), nil
	}
}

// --- Formatting helpers ---

func formatSearchResults(query string, results []store.SearchResult) string {
	if len(results) == 0 {
		return fmt.Sprintf("No results found for query: %q", query)
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "## Search results for %q (%d files)\n\n", query, len(results))
	for i, r := range results {
		fmt.Fprintf(&sb, "### Result %d: `%s`\n\n", i+1, r.Document.Metadata.Path)
		fmt.Fprintf(&sb, "**Repository:** %s  \n**Branch:** %s  \n**Distance:** %.4f\n\n",
			r.Document.Metadata.RepoURL, r.Document.Metadata.Branch, r.Distance)
		fmt.Fprintf(&sb, "```\n%s\n```\n\n", r.Document.Content)
	}
	return sb.String()
}
