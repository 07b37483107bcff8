package collector

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, root, name, content string) {
	t.Helper()
	path := filepath.Join(root, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func paths(files []SourceFile) []string {
	var out []string
	for _, f := range files {
		out = append(out, f.Path)
	}
	return out
}

func TestCollectFiltersByExtension(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "app.py", "print('x')")
	writeFile(t, root, "notes.txt", "not code")
	writeFile(t, root, "lib/util.js", "module.exports = {}")

	files, err := Collect(root, nil)
	require.NoError(t, err)

	assert.ElementsMatch(t, []string{"app.py", "lib/util.js"}, paths(files))
}

func TestCollectExtensionMatchIsCaseInsensitive(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "Main.JAVA", "class Main {}")

	files, err := Collect(root, []string{".py", ".js", ".java"})
	require.NoError(t, err)

	require.Len(t, files, 1)
	assert.Equal(t, "Main.JAVA", files[0].Path)
	assert.Equal(t, "class Main {}", files[0].Content)
}

func TestCollectSkipsIgnoredDirectories(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "main.py", "x = 1")
	writeFile(t, root, ".git/hooks/sample.py", "hook")
	writeFile(t, root, "node_modules/pkg/index.js", "dep")

	files, err := Collect(root, nil)
	require.NoError(t, err)

	assert.Equal(t, []string{"main.py"}, paths(files))
}

func TestCollectSkipsBinaryContent(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "ok.py", "x = 1")
	require.NoError(t, os.WriteFile(filepath.Join(root, "bad.py"), []byte{0xff, 0xfe, 0x00, 0x80}, 0o644))

	files, err := Collect(root, nil)
	require.NoError(t, err)

	assert.Equal(t, []string{"ok.py"}, paths(files))
}

func TestCollectNormalizesExtensionsWithoutDot(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "main.go", "package main")

	files, err := Collect(root, []string{"go"})
	require.NoError(t, err)

	assert.Equal(t, []string{"main.go"}, paths(files))
}
