// Package collector walks a repository working copy and yields source
// files matching a configured extension allow-list.
package collector

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"repochat/internal/logger"
)

// SourceFile is one collected (path, content) pair. Path is relative to
// the working-copy root, slash-normalized. SourceFiles exist only for the
// duration of an indexing pass.
type SourceFile struct {
	Path    string
	Content string
}

// DefaultExtensions are collected when no allow-list is configured.
var DefaultExtensions = []string{".py", ".js", ".java"}

// maxFileSize is the largest file considered for indexing (1 MB).
const maxFileSize = 1 << 20

// skipDirs are never descended into.
var skipDirs = map[string]bool{
	".git":         true,
	".svn":         true,
	".hg":          true,
	"node_modules": true,
	"vendor":       true,
	"__pycache__":  true,
	".idea":        true,
	".vscode":      true,
	"dist":         true,
	"build":        true,
}

// Collect enumerates regular files under root whose name ends with one of
// the allowed extensions (case-insensitive) and reads each as text.
// Files that are not valid UTF-8 or exceed the size cap are skipped with
// a warning. Each call re-walks the tree.
func Collect(root string, extensions []string) ([]SourceFile, error) {
	if len(extensions) == 0 {
		extensions = DefaultExtensions
	}
	exts := make([]string, len(extensions))
	for i, e := range extensions {
		if !strings.HasPrefix(e, ".") {
			e = "." + e
		}
		exts[i] = strings.ToLower(e)
	}

	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, err
	}

	var files []SourceFile
	err = filepath.WalkDir(absRoot, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil // skip unreadable entries, keep walking
		}

		if d.IsDir() {
			if path != absRoot && skipDirs[d.Name()] {
				return filepath.SkipDir
			}
			return nil
		}
		if d.Type()&fs.ModeSymlink != 0 {
			return nil
		}
		if !hasAllowedExt(d.Name(), exts) {
			return nil
		}

		info, err := d.Info()
		if err != nil {
			return nil
		}
		if info.Size() > maxFileSize {
			logger.Warn("skipping %s: exceeds size limit", path)
			return nil
		}

		data, err := os.ReadFile(path)
		if err != nil {
			logger.Warn("skipping %s: %v", path, err)
			return nil
		}
		if !utf8.Valid(data) {
			logger.Warn("skipping %s: not valid UTF-8 text", path)
			return nil
		}

		rel, err := filepath.Rel(absRoot, path)
		if err != nil {
			return nil
		}
		files = append(files, SourceFile{
			Path:    filepath.ToSlash(rel),
			Content: string(data),
		})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk %s: %w", root, err)
	}
	return files, nil
}

// hasAllowedExt reports whether name ends with one of the lowercased
// extensions. Matching is against the lowercased name, so Main.JAVA
// matches ".java".
func hasAllowedExt(name string, exts []string) bool {
	lower := strings.ToLower(name)
	for _, e := range exts {
		if strings.HasSuffix(lower, e) {
			return true
		}
	}
	return false
}
