// Package rag implements the read path: embedding a free-text question,
// retrieving the nearest indexed source files, and composing prompts for
// the language model.
package rag

import (
	"fmt"
	"strings"

	"repochat/internal/logger"
	"repochat/internal/store"
)

// DefaultTopK is the number of snippets retrieved per question.
const DefaultTopK = 3

// blockDelimiter separates rendered snippets in the context text.
const blockDelimiter = "---"

// RetrievalError reports a store-side failure during a query. A query
// against an empty index is a valid empty result, not a RetrievalError.
type RetrievalError struct {
	Err error
}

func (e *RetrievalError) Error() string { return fmt.Sprintf("retrieval failed: %v", e.Err) }

func (e *RetrievalError) Unwrap() error { return e.Err }

// Embedder embeds a single query string.
type Embedder interface {
	EmbedSingle(text string) ([]float32, error)
}

// Retriever answers top-k similarity queries against the document store.
type Retriever struct {
	Store    store.Store
	Embedder Embedder
}

// Retrieve embeds the query and returns up to k stored documents ranked
// by ascending distance. A failure to embed the query yields an empty
// result (downstream prompt construction tolerates missing context); a
// store failure surfaces as *RetrievalError.
func (r *Retriever) Retrieve(query string, k int) ([]store.SearchResult, error) {
	if k <= 0 {
		k = DefaultTopK
	}

	vec, err := r.Embedder.EmbedSingle(query)
	if err != nil {
		logger.Warn("query embedding failed, answering without context: %v", err)
		return nil, nil
	}

	results, err := r.Store.Query(vec, k)
	if err != nil {
		return nil, &RetrievalError{Err: err}
	}
	logger.Debug("retrieved %d snippets for %q", len(results), query)
	return results, nil
}

// RenderContext renders retrieved documents as attributable text blocks,
// concatenated in ranked order.
func RenderContext(results []store.SearchResult) string {
	blocks := make([]string, 0, len(results))
	for _, r := range results {
		blocks = append(blocks, fmt.Sprintf("File: %s\nCode:\n%s\n%s",
			r.Document.Metadata.Path, r.Document.Content, blockDelimiter))
	}
	return strings.Join(blocks, "\n")
}
