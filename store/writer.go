package store

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/jonwraymond/pycheckpoint/identity"
)

// SnapshotSuffix names the source snapshot written next to a function's
// artifacts. The snapshot is for human auditing only; lookup never reads it.
const SnapshotSuffix = "_source.go"

// Prepare creates the checkpoint directory if needed and records the
// function's source snapshot on first use.
func (s *Store) Prepare(loc Location, fn identity.Function) error {
	if err := os.MkdirAll(loc.Dir, 0o755); err != nil {
		return fmt.Errorf("store: creating %s: %w", loc.Dir, err)
	}
	if fn.Source == "" {
		return nil
	}
	snapshot := filepath.Join(loc.Dir, fn.Name+SnapshotSuffix)
	if _, err := os.Stat(snapshot); err == nil {
		return nil
	} else if !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("store: checking %s: %w", snapshot, err)
	}
	if err := os.WriteFile(snapshot, []byte(fn.Source), 0o644); err != nil {
		return fmt.Errorf("store: writing snapshot %s: %w", snapshot, err)
	}
	return nil
}

// StagingPath returns the temp path a new artifact is serialized to before
// being renamed into place.
func (s *Store) StagingPath(loc Location) string {
	ext := filepath.Ext(loc.Artifact)
	return strings.TrimSuffix(loc.Artifact, ext) + ".incomplete" + ext
}

// Commit renames a staged artifact into place, then prunes superseded
// artifacts for the same argument digest so at most one fresh artifact per
// identity remains. Pruning is best effort: a leftover old artifact is
// unreachable, not harmful.
func (s *Store) Commit(staging string, loc Location, key identity.Key) error {
	if err := os.Rename(staging, loc.Artifact); err != nil {
		return fmt.Errorf("store: committing %s: %w", loc.Artifact, err)
	}

	entries, err := os.ReadDir(loc.Dir)
	if err != nil {
		s.log.Debugf("store: skipping prune of %s: %v", loc.Dir, err)
		return nil
	}
	marker := "_" + key.Digest + Suffix + "."
	fresh := filepath.Base(loc.Artifact)
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || name == fresh || !strings.Contains(name, marker) {
			continue
		}
		if !strings.HasPrefix(name, key.Display+"_") || strings.Contains(name, stagingInfix) {
			continue
		}
		if err := os.Remove(filepath.Join(loc.Dir, name)); err != nil {
			s.log.Debugf("store: could not prune %s: %v", name, err)
		}
	}
	return nil
}

// Discard removes a staged artifact after a failed write.
func (s *Store) Discard(staging string) {
	if err := os.Remove(staging); err != nil && !errors.Is(err, fs.ErrNotExist) {
		s.log.Debugf("store: could not remove staging file %s: %v", staging, err)
	}
}
