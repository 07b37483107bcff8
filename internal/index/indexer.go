// Package index turns repository working copies into stable, deduplicated
// vector records. Identity is derived from (repository URL, file path), so
// a file's successive versions occupy a single updatable slot in the store
// instead of accumulating one record per indexing run.
package index

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"path/filepath"
	"sync"

	"repochat/internal/collector"
	"repochat/internal/embedder"
	"repochat/internal/gitrepo"
	"repochat/internal/logger"
	"repochat/internal/store"
)

// Embedder is the embedding collaborator as the indexer needs it.
type Embedder interface {
	// Embed returns one vector per input text, in input order.
	Embed(texts []string) ([][]float32, error)
	// Model names the embedding model, recorded in document metadata.
	Model() string
}

// Materializer obtains a local working copy of a remote repository.
type Materializer interface {
	Materialize(url, path string) (*gitrepo.Metadata, error)
}

// IndexingError reports a hard failure of the embedding or store
// collaborator. It aborts the current repository's pass only.
type IndexingError struct {
	RepoURL string
	Err     error
}

func (e *IndexingError) Error() string {
	return fmt.Sprintf("indexing %s: %v", e.RepoURL, e.Err)
}

func (e *IndexingError) Unwrap() error { return e.Err }

// SkippedFile records one file excluded from a pass and why.
type SkippedFile struct {
	Path   string
	Reason string
}

// Report summarizes one repository's indexing pass.
type Report struct {
	RepoURL      string
	Branch       string
	FilesIndexed int
	Skipped      []SkippedFile
	// Err is set when the pass failed outright: *gitrepo.AccessError when
	// the repository could not be materialized, *IndexingError on a
	// collaborator hard failure.
	Err error
}

// Config wires the indexer's collaborators. All are passed in explicitly
// so tests can substitute fakes.
type Config struct {
	Store        store.Store
	Embedder     Embedder
	Materializer Materializer
	// ReposDir holds working copies, one subdirectory per repository URL.
	ReposDir string
	// Extensions is the collected-file allow-list (collector defaults apply
	// when empty).
	Extensions []string
	// Workers bounds concurrent embedding calls within one pass (default 1,
	// matching the sequential reference behavior).
	Workers int
}

// Indexer drives materialize → collect → embed → upsert passes.
type Indexer struct {
	cfg Config
}

// New creates an Indexer from cfg.
func New(cfg Config) (*Indexer, error) {
	if cfg.Store == nil || cfg.Embedder == nil || cfg.Materializer == nil {
		return nil, errors.New("index: store, embedder, and materializer are required")
	}
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	return &Indexer{cfg: cfg}, nil
}

// DocumentID derives the stable identity of a source file from its owning
// repository URL and path. Identical pairs always produce the same id;
// unrelated pairs collide only with negligible probability. The id is not
// a security boundary.
func DocumentID(repoURL, path string) string {
	sum := sha256.Sum256([]byte(repoURL + path))
	return hex.EncodeToString(sum[:])
}

// LocalPath returns the working-copy directory for a repository URL,
// derived deterministically so repeated runs reuse the same copy.
func (ix *Indexer) LocalPath(repoURL string) string {
	sum := sha256.Sum256([]byte(repoURL))
	return filepath.Join(ix.cfg.ReposDir, hex.EncodeToString(sum[:8]))
}

// IndexRepositories indexes each URL in order. A failure on one repository
// is recorded in its report and does not prevent indexing of the rest.
func (ix *Indexer) IndexRepositories(urls []string) []Report {
	reports := make([]Report, 0, len(urls))
	for _, url := range urls {
		report, err := ix.IndexRepository(url, ix.LocalPath(url))
		if err != nil {
			logger.Warn("indexing %s failed: %v", url, err)
		}
		reports = append(reports, *report)
	}
	return reports
}

// IndexRepository materializes repoURL at localPath and upserts every
// collected source file into the store. Per-file failures are logged,
// recorded in the report, and skipped; collaborator hard failures abort
// the pass with an *IndexingError.
func (ix *Indexer) IndexRepository(repoURL, localPath string) (*Report, error) {
	report := &Report{RepoURL: repoURL}

	meta, err := ix.cfg.Materializer.Materialize(repoURL, localPath)
	if err != nil {
		report.Err = err
		return report, err
	}
	report.Branch = meta.Branch

	files, err := collector.Collect(localPath, ix.cfg.Extensions)
	if err != nil {
		report.Err = &IndexingError{RepoURL: repoURL, Err: err}
		return report, report.Err
	}

	if err := ix.indexFiles(repoURL, meta, files, report); err != nil {
		report.Err = &IndexingError{RepoURL: repoURL, Err: err}
		return report, report.Err
	}

	logger.Info("indexed %s: %d files, %d skipped", repoURL, report.FilesIndexed, len(report.Skipped))
	return report, nil
}

// embedded carries one file through the embed stage.
type embedded struct {
	file collector.SourceFile
	vec  []float32
	err  error
}

// indexFiles runs the embed workers and the single store writer. Upserts
// are applied by one goroutine, keeping writes for a pass strictly
// ordered; embedding calls are independent and may run in parallel.
func (ix *Indexer) indexFiles(repoURL string, meta *gitrepo.Metadata, files []collector.SourceFile, report *Report) error {
	fileCh := make(chan collector.SourceFile)
	resCh := make(chan embedded, ix.cfg.Workers)

	var wg sync.WaitGroup
	for range ix.cfg.Workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for f := range fileCh {
				vecs, err := ix.cfg.Embedder.Embed([]string{f.Content})
				if err != nil {
					resCh <- embedded{file: f, err: err}
					continue
				}
				resCh <- embedded{file: f, vec: vecs[0]}
			}
		}()
	}

	go func() {
		for _, f := range files {
			fileCh <- f
		}
		close(fileCh)
		wg.Wait()
		close(resCh)
	}()

	var fatal error
	for res := range resCh {
		if fatal != nil {
			continue // drain remaining results after a hard failure
		}
		if res.err != nil {
			var embErr *embedder.Error
			if errors.As(res.err, &embErr) && !embErr.Outage() {
				// The collaborator rejected this one input; the pass continues.
				logger.Warn("skipping %s: %v", res.file.Path, res.err)
				report.Skipped = append(report.Skipped, SkippedFile{Path: res.file.Path, Reason: res.err.Error()})
				continue
			}
			fatal = fmt.Errorf("embed %s: %w", res.file.Path, res.err)
			continue
		}

		doc := store.Document{
			ID:      DocumentID(repoURL, res.file.Path),
			Content: res.file.Content,
			Metadata: store.Metadata{
				Path:       res.file.Path,
				RepoURL:    repoURL,
				Branch:     meta.Branch,
				CreatedAt:  meta.LastChange,
				UpdatedAt:  meta.LastChange,
				EmbedModel: ix.cfg.Embedder.Model(),
			},
		}
		if err := ix.cfg.Store.Upsert(doc, res.vec); err != nil {
			fatal = fmt.Errorf("upsert %s: %w", res.file.Path, err)
			continue
		}
		report.FilesIndexed++
	}

	return fatal
}
