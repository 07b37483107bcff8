package store

import "time"

// Metadata is the origin information stored alongside each document.
type Metadata struct {
	// Path of the source file, relative to the repository root.
	Path string
	// RepoURL is the canonical URL of the owning repository. Together with
	// Path it determines the document id, so files from different
	// repositories never collide.
	RepoURL string
	// Branch that was checked out when the file was indexed.
	Branch string
	// CreatedAt and UpdatedAt both derive from the repository's last-change
	// timestamp. CreatedAt is preserved across re-indexing.
	CreatedAt time.Time
	UpdatedAt time.Time
	// EmbedModel names the embedding model that produced the stored vector.
	EmbedModel string
}

// Document is the unit of storage: one source file with its embedding.
type Document struct {
	// ID is the content-addressed identity, derived from (RepoURL, Path).
	ID       string
	Content  string
	Metadata Metadata
}

// SearchResult is a document paired with its distance to the query vector.
// Smaller distances rank first.
type SearchResult struct {
	Document Document
	Distance float64
}
