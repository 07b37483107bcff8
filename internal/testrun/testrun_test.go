package testrun

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPersistWritesFixedSlot(t *testing.T) {
	path := filepath.Join(t.TempDir(), "generated_test.py")
	r := Runner{Path: path}

	got, err := r.Persist("def test_one(): pass\n")
	require.NoError(t, err)
	assert.Equal(t, path, got)

	// A second call overwrites the same slot.
	_, err = r.Persist("def test_two(): pass\n")
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "def test_two(): pass\n", string(data))
}

func TestPersistUniqueNames(t *testing.T) {
	dir := t.TempDir()
	r := Runner{Path: filepath.Join(dir, "generated_test.py"), UniqueNames: true}

	first, err := r.Persist("a")
	require.NoError(t, err)
	second, err := r.Persist("b")
	require.NoError(t, err)

	assert.NotEqual(t, first, second)
	assert.Equal(t, ".py", filepath.Ext(first))
	assert.FileExists(t, first)
	assert.FileExists(t, second)
}

func TestRunCapturesOutputAndExitStatus(t *testing.T) {
	script := filepath.Join(t.TempDir(), "fail.sh")
	require.NoError(t, os.WriteFile(script, []byte("#!/bin/sh\necho 1 failed\nexit 1\n"), 0o755))

	r := Runner{Command: "sh"}
	out, code, err := r.Run(script)
	require.NoError(t, err)
	assert.Equal(t, 1, code)
	assert.Contains(t, out, "1 failed")
}

func TestRunPassingCommand(t *testing.T) {
	script := filepath.Join(t.TempDir(), "ok.sh")
	require.NoError(t, os.WriteFile(script, []byte("#!/bin/sh\necho all good\n"), 0o755))

	r := Runner{Command: "sh"}
	out, code, err := r.Run(script)
	require.NoError(t, err)
	assert.Equal(t, 0, code)
	assert.Contains(t, out, "all good")
}

func TestRunMissingCommandIsAnError(t *testing.T) {
	r := Runner{Command: "definitely-not-a-real-test-runner"}
	_, _, err := r.Run("whatever.py")
	assert.Error(t, err)
}
