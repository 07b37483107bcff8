package store

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "index.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func doc(id, path, repo, content string) Document {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	return Document{
		ID:      id,
		Content: content,
		Metadata: Metadata{
			Path:       path,
			RepoURL:    repo,
			Branch:     "main",
			CreatedAt:  now,
			UpdatedAt:  now,
			EmbedModel: "nomic-embed-text",
		},
	}
}

func TestUpsertIsIdempotent(t *testing.T) {
	s := openTestStore(t)
	d := doc("id-1", "a.py", "https://example.com/repo.git", "x = 1")
	vec := []float32{1, 0, 0}

	require.NoError(t, s.Upsert(d, vec))
	require.NoError(t, s.Upsert(d, vec))

	n, err := s.Count()
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestUpsertReplacesInPlace(t *testing.T) {
	s := openTestStore(t)
	d := doc("id-1", "a.py", "https://example.com/repo.git", "x = 1")
	require.NoError(t, s.Upsert(d, []float32{1, 0, 0}))

	d.Content = "x = 2"
	d.Metadata.UpdatedAt = d.Metadata.UpdatedAt.Add(time.Hour)
	require.NoError(t, s.Upsert(d, []float32{0, 1, 0}))

	n, err := s.Count()
	require.NoError(t, err)
	require.Equal(t, 1, n)

	results, err := s.Query([]float32{0, 1, 0}, 1)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "x = 2", results[0].Document.Content)
	// created_at survives the update.
	assert.True(t, results[0].Document.Metadata.CreatedAt.Equal(doc("", "", "", "").Metadata.CreatedAt))
	assert.True(t, results[0].Document.Metadata.UpdatedAt.After(results[0].Document.Metadata.CreatedAt))
}

func TestQueryOrdersByDistance(t *testing.T) {
	s := openTestStore(t)
	require.NoError(t, s.Upsert(doc("a", "a.py", "r", "near"), []float32{1, 0, 0}))
	require.NoError(t, s.Upsert(doc("b", "b.py", "r", "far"), []float32{0, 1, 0}))

	results, err := s.Query([]float32{0.9, 0.1, 0}, 2)
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "a", results[0].Document.ID)
	assert.Equal(t, "b", results[1].Document.ID)
	assert.Less(t, results[0].Distance, results[1].Distance)
}

func TestQueryEmptyStoreReturnsNoResults(t *testing.T) {
	s := openTestStore(t)

	results, err := s.Query([]float32{1, 0, 0}, 3)
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestUpsertRejectsDimensionMismatch(t *testing.T) {
	s := openTestStore(t)
	require.NoError(t, s.Upsert(doc("a", "a.py", "r", "c"), []float32{1, 0, 0}))

	err := s.Upsert(doc("b", "b.py", "r", "c"), []float32{1, 0})
	assert.Error(t, err)
}

func TestDimensionSurvivesReopen(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "index.db")

	s, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, s.Upsert(doc("a", "a.py", "r", "c"), []float32{1, 0, 0}))
	require.NoError(t, s.Close())

	s2, err := Open(path)
	require.NoError(t, err)
	defer s2.Close()

	results, err := s2.Query([]float32{1, 0, 0}, 1)
	require.NoError(t, err)
	assert.Len(t, results, 1)
}

func TestRepositoriesAndCounts(t *testing.T) {
	s := openTestStore(t)
	require.NoError(t, s.Upsert(doc("a", "x.py", "repo-1", "c"), []float32{1, 0}))
	require.NoError(t, s.Upsert(doc("b", "x.py", "repo-2", "c"), []float32{0, 1}))
	require.NoError(t, s.Upsert(doc("c", "y.py", "repo-2", "c"), []float32{1, 1}))

	repos, err := s.Repositories()
	require.NoError(t, err)
	assert.Equal(t, []string{"repo-1", "repo-2"}, repos)

	n, err := s.CountByRepo("repo-2")
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestMetaRoundTrip(t *testing.T) {
	s := openTestStore(t)

	v, err := s.GetMeta("embedding_model")
	require.NoError(t, err)
	assert.Equal(t, "", v)

	require.NoError(t, s.SetMeta("embedding_model", "nomic-embed-text"))
	require.NoError(t, s.SetMeta("embedding_model", "mxbai-embed-large"))

	v, err = s.GetMeta("embedding_model")
	require.NoError(t, err)
	assert.Equal(t, "mxbai-embed-large", v)
}
