package store

import (
	"database/sql"
	"fmt"
	"strconv"

	sqlite_vec "github.com/asg017/sqlite-vec-go-bindings/cgo"
	_ "github.com/mattn/go-sqlite3"
)

func init() {
	sqlite_vec.Auto()
}

// Store persists documents with their embeddings and serves top-k
// similarity queries. Namespacing across repositories happens purely
// through the document id scheme and the repo_url metadata column; there
// is one physical collection.
type Store interface {
	// Upsert inserts or replaces the document and its embedding under
	// doc.ID. Re-upserting an unchanged document never duplicates it; a
	// changed document replaces the stored vector and metadata in place.
	Upsert(doc Document, embedding []float32) error
	// Query returns up to k stored documents nearest to the query vector,
	// ordered by ascending distance. An empty store yields an empty result.
	Query(embedding []float32, k int) ([]SearchResult, error)
	// Count returns the number of stored documents.
	Count() (int, error)
	// CountByRepo returns the number of documents owned by repoURL.
	CountByRepo(repoURL string) (int, error)
	// Repositories lists the distinct repository URLs present in the store.
	Repositories() ([]string, error)
	// GetMeta returns a metadata value by key, or "" if not set.
	GetMeta(key string) (string, error)
	// SetMeta sets a metadata key-value pair.
	SetMeta(key, value string) error
	// Close closes the underlying database.
	Close() error
}

// SQLiteStore implements Store backed by SQLite + sqlite-vec.
type SQLiteStore struct {
	db  *sql.DB
	dim int // 0 until the vec table exists
}

// Open creates or opens a SQLite database at the given path and
// initializes the schema.
func Open(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if err := Init(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("init schema: %w", err)
	}

	s := &SQLiteStore{db: db}
	if v, err := s.GetMeta(metaDimKey); err == nil && v != "" {
		if dim, err := strconv.Atoi(v); err == nil {
			s.dim = dim
		}
	}
	return s, nil
}

// ensureVecTable creates the vec0 table on first use, sized to the given
// dimension. Vectors of a different dimension are rejected afterwards.
func (s *SQLiteStore) ensureVecTable(dim int) error {
	if s.dim == dim {
		return nil
	}
	if s.dim != 0 {
		return fmt.Errorf("embedding dimension %d does not match index dimension %d", dim, s.dim)
	}
	if _, err := s.db.Exec(vecDDL(dim)); err != nil {
		return fmt.Errorf("create vec table: %w", err)
	}
	if err := s.SetMeta(metaDimKey, strconv.Itoa(dim)); err != nil {
		return err
	}
	s.dim = dim
	return nil
}

func (s *SQLiteStore) Upsert(doc Document, embedding []float32) error {
	if len(embedding) == 0 {
		return fmt.Errorf("empty embedding for document %s", doc.ID)
	}
	if err := s.ensureVecTable(len(embedding)); err != nil {
		return err
	}

	blob, err := sqlite_vec.SerializeFloat32(embedding)
	if err != nil {
		return fmt.Errorf("serialize embedding for %s: %w", doc.ID, err)
	}

	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	var rowid int64
	err = tx.QueryRow("SELECT rowid FROM documents WHERE id = ?", doc.ID).Scan(&rowid)
	switch {
	case err == nil:
		// Existing document: replace everything but created_at, and swap
		// out the stored vector.
		_, err = tx.Exec(
			`UPDATE documents SET path = ?, repo_url = ?, branch = ?, content = ?,
			 updated_at = ?, embed_model = ? WHERE rowid = ?`,
			doc.Metadata.Path, doc.Metadata.RepoURL, doc.Metadata.Branch, doc.Content,
			doc.Metadata.UpdatedAt, doc.Metadata.EmbedModel, rowid,
		)
		if err != nil {
			return err
		}
		if _, err := tx.Exec("DELETE FROM vec_documents WHERE document_rowid = ?", rowid); err != nil {
			return err
		}
	case err == sql.ErrNoRows:
		res, err := tx.Exec(
			`INSERT INTO documents (id, path, repo_url, branch, content, created_at, updated_at, embed_model)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			doc.ID, doc.Metadata.Path, doc.Metadata.RepoURL, doc.Metadata.Branch, doc.Content,
			doc.Metadata.CreatedAt, doc.Metadata.UpdatedAt, doc.Metadata.EmbedModel,
		)
		if err != nil {
			return err
		}
		if rowid, err = res.LastInsertId(); err != nil {
			return err
		}
	default:
		return err
	}

	if _, err := tx.Exec(
		"INSERT INTO vec_documents (document_rowid, embedding) VALUES (?, ?)", rowid, blob,
	); err != nil {
		return fmt.Errorf("insert embedding for %s: %w", doc.ID, err)
	}
	return tx.Commit()
}

func (s *SQLiteStore) Query(embedding []float32, k int) ([]SearchResult, error) {
	if s.dim == 0 {
		return nil, nil // nothing indexed yet
	}
	if len(embedding) != s.dim {
		return nil, fmt.Errorf("query dimension %d does not match index dimension %d", len(embedding), s.dim)
	}

	blob, err := sqlite_vec.SerializeFloat32(embedding)
	if err != nil {
		return nil, fmt.Errorf("serialize query embedding: %w", err)
	}

	rows, err := s.db.Query(`
		SELECT d.id, d.path, d.repo_url, d.branch, d.content,
		       d.created_at, d.updated_at, d.embed_model, v.distance
		FROM vec_documents v
		JOIN documents d ON d.rowid = v.document_rowid
		WHERE v.embedding MATCH ? AND v.k = ?
		ORDER BY v.distance
	`, blob, k)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []SearchResult
	for rows.Next() {
		var r SearchResult
		err := rows.Scan(
			&r.Document.ID, &r.Document.Metadata.Path, &r.Document.Metadata.RepoURL,
			&r.Document.Metadata.Branch, &r.Document.Content,
			&r.Document.Metadata.CreatedAt, &r.Document.Metadata.UpdatedAt,
			&r.Document.Metadata.EmbedModel, &r.Distance,
		)
		if err != nil {
			return nil, err
		}
		results = append(results, r)
	}
	return results, rows.Err()
}

func (s *SQLiteStore) Count() (int, error) {
	var n int
	err := s.db.QueryRow("SELECT COUNT(*) FROM documents").Scan(&n)
	return n, err
}

func (s *SQLiteStore) CountByRepo(repoURL string) (int, error) {
	var n int
	err := s.db.QueryRow("SELECT COUNT(*) FROM documents WHERE repo_url = ?", repoURL).Scan(&n)
	return n, err
}

func (s *SQLiteStore) Repositories() ([]string, error) {
	rows, err := s.db.Query("SELECT DISTINCT repo_url FROM documents ORDER BY repo_url")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var urls []string
	for rows.Next() {
		var u string
		if err := rows.Scan(&u); err != nil {
			return nil, err
		}
		urls = append(urls, u)
	}
	return urls, rows.Err()
}

func (s *SQLiteStore) GetMeta(key string) (string, error) {
	var value string
	err := s.db.QueryRow("SELECT value FROM meta WHERE key = ?", key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", nil
	}
	return value, err
}

func (s *SQLiteStore) SetMeta(key, value string) error {
	_, err := s.db.Exec(
		"INSERT INTO meta (key, value) VALUES (?, ?) ON CONFLICT(key) DO UPDATE SET value = excluded.value",
		key, value,
	)
	return err
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
