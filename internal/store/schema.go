package store

import (
	"database/sql"
	"fmt"
)

const ddl = `
PRAGMA journal_mode=WAL;
PRAGMA foreign_keys=ON;

CREATE TABLE IF NOT EXISTS documents (
    id          TEXT PRIMARY KEY,
    path        TEXT NOT NULL,
    repo_url    TEXT NOT NULL,
    branch      TEXT NOT NULL DEFAULT '',
    content     TEXT NOT NULL,
    created_at  DATETIME NOT NULL,
    updated_at  DATETIME NOT NULL,
    embed_model TEXT NOT NULL DEFAULT ''
);

CREATE INDEX IF NOT EXISTS idx_documents_repo_url ON documents(repo_url);

CREATE TABLE IF NOT EXISTS meta (
    key   TEXT PRIMARY KEY,
    value TEXT NOT NULL
);
`

// metaDimKey records the vector dimension the vec table was created with.
const metaDimKey = "vector_dim"

// Init creates the base tables. The vec0 virtual table is created lazily
// on first upsert, once the embedding dimension is known.
func Init(db *sql.DB) error {
	_, err := db.Exec(ddl)
	return err
}

// vecDDL builds the vec0 table definition for the given dimension.
func vecDDL(dim int) string {
	return fmt.Sprintf(`CREATE VIRTUAL TABLE IF NOT EXISTS vec_documents USING vec0(
    document_rowid INTEGER PRIMARY KEY,
    embedding float[%d]
)`, dim)
}
