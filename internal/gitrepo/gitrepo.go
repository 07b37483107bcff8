// Package gitrepo materializes remote git repositories as local working
// copies by shelling out to the git binary. A working copy is cloned on
// first use and pulled on subsequent passes.
package gitrepo

import (
	"bytes"
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"repochat/internal/logger"
)

// Metadata describes a materialized repository.
type Metadata struct {
	// Branch is the active branch of the working copy.
	Branch string
	// LastChange is the committer timestamp of the branch tip. The system
	// tracks no finer-grained history: this one value serves as both the
	// creation and update time of every document indexed from the copy.
	LastChange time.Time
}

// AccessError reports a failed materialization. Callers indexing a batch
// of repositories skip the failed one and continue with the rest.
type AccessError struct {
	URL string
	Err error
}

func (e *AccessError) Error() string {
	return fmt.Sprintf("repository %s inaccessible: %v", e.URL, e.Err)
}

func (e *AccessError) Unwrap() error { return e.Err }

// Materializer produces working copies of remote repositories.
type Materializer struct {
	// GitPath overrides the git executable (default "git").
	GitPath string
}

// Materialize ensures an up-to-date working copy of url at path and
// returns its metadata. An existing copy is pulled; otherwise the
// repository is cloned. All failures are reported as *AccessError.
func (m *Materializer) Materialize(url, path string) (*Metadata, error) {
	if _, err := os.Stat(path); err == nil {
		logger.Debug("pulling %s in %s", url, path)
		if _, err := m.git(path, "pull", "--ff-only"); err != nil {
			return nil, &AccessError{URL: url, Err: err}
		}
	} else {
		logger.Debug("cloning %s into %s", url, path)
		if _, err := m.git("", "clone", url, path); err != nil {
			return nil, &AccessError{URL: url, Err: err}
		}
	}

	meta, err := m.metadata(path)
	if err != nil {
		return nil, &AccessError{URL: url, Err: err}
	}
	return meta, nil
}

func (m *Materializer) metadata(path string) (*Metadata, error) {
	branch, err := m.git(path, "rev-parse", "--abbrev-ref", "HEAD")
	if err != nil {
		return nil, err
	}

	stamp, err := m.git(path, "log", "-1", "--format=%ct")
	if err != nil {
		return nil, err
	}
	unix, err := strconv.ParseInt(stamp, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("parse commit timestamp %q: %w", stamp, err)
	}

	return &Metadata{
		Branch:     branch,
		LastChange: time.Unix(unix, 0).UTC(),
	}, nil
}

// git runs a git subcommand and returns its trimmed stdout.
func (m *Materializer) git(dir string, args ...string) (string, error) {
	bin := m.GitPath
	if bin == "" {
		bin = "git"
	}

	cmd := exec.Command(bin, args...)
	cmd.Dir = dir
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		msg := strings.TrimSpace(stderr.String())
		if msg == "" {
			return "", fmt.Errorf("git %s: %w", args[0], err)
		}
		return "", fmt.Errorf("git %s: %s", args[0], msg)
	}
	return strings.TrimSpace(stdout.String()), nil
}
