package store

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/apex/log"

	"github.com/jonwraymond/pycheckpoint/identity"
)

const (
	// Suffix marks every name this package creates.
	Suffix = "_pycheckpoint"

	// DateFormat is the layout of the date segment in directory and
	// artifact names.
	DateFormat = "2006-01-02"

	// stagingInfix marks in-flight artifact writes; staged files are
	// excluded from lookup.
	stagingInfix = Suffix + ".incomplete."
)

// Location is the resolved on-disk position for one (function, arguments)
// identity.
type Location struct {
	// Dir is the checkpoint directory. It may not exist yet.
	Dir string

	// DirExists reports whether Dir was found on disk.
	DirExists bool

	// Artifact is the path a fresh result would be written to, named with
	// today's date and the current backend extension.
	Artifact string

	// Hit reports whether a previously persisted artifact was found.
	Hit bool

	// HitPath is the existing artifact's path when Hit.
	HitPath string

	// HitExt is the existing artifact's extension, which may differ from
	// the currently configured backend's.
	HitExt string

	// HitDate is the creation date recorded in the existing artifact's
	// name. Zero when the segment does not parse.
	HitDate time.Time
}

// Store resolves and persists checkpoints under one root directory. The
// root is explicit state injected by the caller; there is no process-global
// default and no cross-process write coordination.
type Store struct {
	root string
	log  log.Interface
}

// New returns a Store rooted at root.
func New(root string, logger log.Interface) *Store {
	if logger == nil {
		logger = log.Log
	}
	return &Store{root: root, log: logger}
}

// Root returns the injected root directory.
func (s *Store) Root() string { return s.root }

// Resolve locates the checkpoint directory for fn and the artifact for key
// within it, reporting paths for a new write alongside any existing hit.
func (s *Store) Resolve(fn identity.Function, key identity.Key, ext string, now time.Time) (Location, error) {
	date := now.Format(DateFormat)

	dirName, dirExists, err := s.findDir(fn)
	if err != nil {
		return Location{}, err
	}
	if dirName == "" {
		dirName = fmt.Sprintf("%s_%s_%s%s", fn.Name, date, fn.Digest, Suffix)
	}

	loc := Location{
		Dir:       filepath.Join(s.root, dirName),
		DirExists: dirExists,
		Artifact:  filepath.Join(s.root, dirName, fmt.Sprintf("%s_%s_%s%s.%s", key.Display, date, key.Digest, Suffix, ext)),
	}
	if !dirExists {
		return loc, nil
	}

	hit, err := s.findArtifact(loc.Dir, key)
	if err != nil {
		return Location{}, err
	}
	if hit != "" {
		loc.Hit = true
		loc.HitPath = filepath.Join(loc.Dir, hit)
		loc.HitExt = strings.TrimPrefix(filepath.Ext(hit), ".")
		loc.HitDate = artifactDate(hit, key)
	}
	return loc, nil
}

// findDir picks the directory holding checkpoints for fn's exact logic
// digest. Several directories can match when clocks or processes raced on
// first write; the most recent date wins and the rest are ignored.
func (s *Store) findDir(fn identity.Function) (string, bool, error) {
	entries, err := os.ReadDir(s.root)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("store: reading root %s: %w", s.root, err)
	}

	prefix := fn.Name + "_"
	suffix := "_" + fn.Digest + Suffix
	var matches []string
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		name := e.Name()
		if strings.HasPrefix(name, prefix) && strings.HasSuffix(name, suffix) {
			matches = append(matches, name)
		}
	}
	if len(matches) == 0 {
		return "", false, nil
	}

	best := matches[0]
	for _, name := range matches[1:] {
		if moreRecent(dirDate(name, prefix, suffix), name, dirDate(best, prefix, suffix), best) {
			best = name
		}
	}
	for _, name := range matches {
		if name != best {
			s.log.Warnf("store: ignoring duplicate checkpoint directory %s", filepath.Join(s.root, name))
		}
	}
	return best, true, nil
}

// findArtifact picks the persisted artifact for key inside dir, matching on
// the argument digest alone so neither the recorded date nor the extension
// matters. Staged writes are skipped.
func (s *Store) findArtifact(dir string, key identity.Key) (string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", fmt.Errorf("store: reading %s: %w", dir, err)
	}

	marker := "_" + key.Digest + Suffix + "."
	var matches []string
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || strings.Contains(name, stagingInfix) {
			continue
		}
		if strings.HasPrefix(name, key.Display+"_") && strings.Contains(name, marker) {
			matches = append(matches, name)
		}
	}
	if len(matches) == 0 {
		return "", nil
	}

	best := matches[0]
	for _, name := range matches[1:] {
		if moreRecent(artifactDate(name, key), name, artifactDate(best, key), best) {
			best = name
		}
	}
	for _, name := range matches {
		if name != best {
			s.log.Warnf("store: ignoring superseded checkpoint %s", filepath.Join(dir, name))
		}
	}
	return best, nil
}

// dirDate parses the date segment of a directory name. Zero when the
// segment is not in DateFormat (names written by other tool versions).
func dirDate(name, prefix, suffix string) time.Time {
	seg := strings.TrimSuffix(strings.TrimPrefix(name, prefix), suffix)
	t, err := time.Parse(DateFormat, seg)
	if err != nil {
		return time.Time{}
	}
	return t
}

// artifactDate parses the date segment of an artifact name.
func artifactDate(name string, key identity.Key) time.Time {
	seg := strings.TrimPrefix(name, key.Display+"_")
	if i := strings.Index(seg, "_"+key.Digest+Suffix); i >= 0 {
		seg = seg[:i]
	}
	t, err := time.Parse(DateFormat, seg)
	if err != nil {
		return time.Time{}
	}
	return t
}

// moreRecent orders candidates by parsed date, then by name so the choice
// stays deterministic when dates are equal or unparsable.
func moreRecent(aDate time.Time, aName string, bDate time.Time, bName string) bool {
	if !aDate.Equal(bDate) {
		return aDate.After(bDate)
	}
	return aName > bName
}
