package rag

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"repochat/internal/store"
)

// --- Fakes ---

type fakeEmbedder struct {
	vec []float32
	err error
}

func (e *fakeEmbedder) EmbedSingle(string) ([]float32, error) {
	if e.err != nil {
		return nil, e.err
	}
	return e.vec, nil
}

// fakeQueryStore serves canned search results.
type fakeQueryStore struct {
	store.Store // nil-panics on anything not overridden
	results     []store.SearchResult
	err         error
}

func (s *fakeQueryStore) Query([]float32, int) ([]store.SearchResult, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.results, nil
}

func result(path, content string, distance float64) store.SearchResult {
	return store.SearchResult{
		Document: store.Document{
			Content:  content,
			Metadata: store.Metadata{Path: path},
		},
		Distance: distance,
	}
}

// --- Retriever ---

func TestRetrievePreservesStoreRanking(t *testing.T) {
	r := &Retriever{
		Store: &fakeQueryStore{results: []store.SearchResult{
			result("a.py", "near", 0.1),
			result("b.py", "far", 0.9),
		}},
		Embedder: &fakeEmbedder{vec: []float32{1, 0}},
	}

	results, err := r.Retrieve("question", 2)
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "a.py", results[0].Document.Metadata.Path)
	assert.Equal(t, "b.py", results[1].Document.Metadata.Path)
}

func TestRetrieveEmptyStoreIsNotAnError(t *testing.T) {
	r := &Retriever{
		Store:    &fakeQueryStore{},
		Embedder: &fakeEmbedder{vec: []float32{1, 0}},
	}

	results, err := r.Retrieve("anything", 3)
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestRetrieveEmbedFailureYieldsEmptyResult(t *testing.T) {
	r := &Retriever{
		Store:    &fakeQueryStore{results: []store.SearchResult{result("a.py", "x", 0.1)}},
		Embedder: &fakeEmbedder{err: errors.New("embedder down")},
	}

	results, err := r.Retrieve("q", 3)
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestRetrieveStoreFailureIsRetrievalError(t *testing.T) {
	r := &Retriever{
		Store:    &fakeQueryStore{err: errors.New("store offline")},
		Embedder: &fakeEmbedder{vec: []float32{1, 0}},
	}

	_, err := r.Retrieve("q", 3)
	var retErr *RetrievalError
	require.ErrorAs(t, err, &retErr)
}

func TestRenderContextFormatsBlocks(t *testing.T) {
	text := RenderContext([]store.SearchResult{
		result("src/app.py", "x = 1", 0.1),
		result("lib/util.js", "let y = 2", 0.2),
	})

	assert.Equal(t, "File: src/app.py\nCode:\nx = 1\n---\nFile: lib/util.js\nCode:\nlet y = 2\n---", text)
}

func TestRenderContextEmpty(t *testing.T) {
	assert.Equal(t, "", RenderContext(nil))
}
