package store

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/apex/log"
	"github.com/apex/log/handlers/discard"

	"github.com/jonwraymond/pycheckpoint/identity"
)

var (
	testFn = identity.Function{
		Name:   "add",
		Digest: "f00d",
		Source: "func add(a, b int) int { return a + b }",
	}
	testKey = identity.Key{Display: "a=1,b=2", Digest: "beef"}
	testNow = time.Date(2026, 8, 31, 12, 0, 0, 0, time.UTC)
)

func testStore(t *testing.T) (*Store, string) {
	t.Helper()
	root := t.TempDir()
	return New(root, &log.Logger{Handler: discard.Default, Level: log.InfoLevel}), root
}

func TestResolve_FreshRoot(t *testing.T) {
	s, root := testStore(t)

	loc, err := s.Resolve(testFn, testKey, "msgpack", testNow)
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if loc.DirExists || loc.Hit {
		t.Errorf("fresh root: DirExists=%v Hit=%v, want false/false", loc.DirExists, loc.Hit)
	}
	if want := filepath.Join(root, "add_2026-08-31_f00d_pycheckpoint"); loc.Dir != want {
		t.Errorf("Dir = %q, want %q", loc.Dir, want)
	}
	if want := "a=1,b=2_2026-08-31_beef_pycheckpoint.msgpack"; filepath.Base(loc.Artifact) != want {
		t.Errorf("Artifact = %q, want base %q", loc.Artifact, want)
	}
}

func TestResolve_ReusesDirRegardlessOfDate(t *testing.T) {
	s, root := testStore(t)
	old := filepath.Join(root, "add_2024-01-01_f00d_pycheckpoint")
	if err := os.MkdirAll(old, 0o755); err != nil {
		t.Fatal(err)
	}

	loc, err := s.Resolve(testFn, testKey, "msgpack", testNow)
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if !loc.DirExists || loc.Dir != old {
		t.Errorf("Dir = %q DirExists=%v, want reuse of %q", loc.Dir, loc.DirExists, old)
	}
}

func TestResolve_IgnoresStaleDigests(t *testing.T) {
	s, root := testStore(t)
	stale := filepath.Join(root, "add_2024-01-01_0ld_pycheckpoint")
	if err := os.MkdirAll(stale, 0o755); err != nil {
		t.Fatal(err)
	}

	loc, err := s.Resolve(testFn, testKey, "msgpack", testNow)
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if loc.DirExists {
		t.Errorf("Dir = %q, want a new directory, not the stale %q", loc.Dir, stale)
	}
}

func TestResolve_PicksMostRecentDuplicate(t *testing.T) {
	s, root := testStore(t)
	for _, date := range []string{"2024-01-01", "2025-06-15", "2023-03-03"} {
		dir := filepath.Join(root, "add_"+date+"_f00d_pycheckpoint")
		if err := os.MkdirAll(dir, 0o755); err != nil {
			t.Fatal(err)
		}
	}

	loc, err := s.Resolve(testFn, testKey, "msgpack", testNow)
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if !strings.Contains(loc.Dir, "2025-06-15") {
		t.Errorf("Dir = %q, want the most recent duplicate", loc.Dir)
	}
}

func TestResolve_HitAcrossDateAndExtension(t *testing.T) {
	s, root := testStore(t)
	dir := filepath.Join(root, "add_2024-01-01_f00d_pycheckpoint")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatal(err)
	}
	artifact := filepath.Join(dir, "a=1,b=2_2024-02-02_beef_pycheckpoint.json")
	if err := os.WriteFile(artifact, []byte("5"), 0o644); err != nil {
		t.Fatal(err)
	}

	loc, err := s.Resolve(testFn, testKey, "msgpack", testNow)
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if !loc.Hit || loc.HitPath != artifact {
		t.Fatalf("Hit=%v HitPath=%q, want hit on %q", loc.Hit, loc.HitPath, artifact)
	}
	if loc.HitExt != "json" {
		t.Errorf("HitExt = %q, want json despite configured msgpack", loc.HitExt)
	}
	if want := time.Date(2024, 2, 2, 0, 0, 0, 0, time.UTC); !loc.HitDate.Equal(want) {
		t.Errorf("HitDate = %v, want %v", loc.HitDate, want)
	}
}

func TestResolve_MissOnDifferentArgs(t *testing.T) {
	s, root := testStore(t)
	dir := filepath.Join(root, "add_2024-01-01_f00d_pycheckpoint")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatal(err)
	}
	other := filepath.Join(dir, "a=9,b=9_2024-02-02_cafe_pycheckpoint.msgpack")
	if err := os.WriteFile(other, []byte("18"), 0o644); err != nil {
		t.Fatal(err)
	}

	loc, err := s.Resolve(testFn, testKey, "msgpack", testNow)
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if loc.Hit {
		t.Errorf("Hit on %q, want exact-match-only lookup to miss", loc.HitPath)
	}
}

func TestResolve_SkipsStagedWrites(t *testing.T) {
	s, root := testStore(t)
	dir := filepath.Join(root, "add_2024-01-01_f00d_pycheckpoint")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatal(err)
	}
	staged := filepath.Join(dir, "a=1,b=2_2024-02-02_beef_pycheckpoint.incomplete.msgpack")
	if err := os.WriteFile(staged, []byte("partial"), 0o644); err != nil {
		t.Fatal(err)
	}

	loc, err := s.Resolve(testFn, testKey, "msgpack", testNow)
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if loc.Hit {
		t.Errorf("Hit on staged write %q", loc.HitPath)
	}
}

func TestPrepare_WritesSnapshotOnce(t *testing.T) {
	s, _ := testStore(t)
	loc, err := s.Resolve(testFn, testKey, "msgpack", testNow)
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}

	if err := s.Prepare(loc, testFn); err != nil {
		t.Fatalf("Prepare() error = %v", err)
	}
	snapshot := filepath.Join(loc.Dir, "add_source.go")
	data, err := os.ReadFile(snapshot)
	if err != nil {
		t.Fatalf("snapshot not written: %v", err)
	}
	if string(data) != testFn.Source {
		t.Errorf("snapshot = %q, want %q", data, testFn.Source)
	}

	// Second Prepare leaves the existing snapshot alone.
	if err := os.WriteFile(snapshot, []byte("edited"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := s.Prepare(loc, testFn); err != nil {
		t.Fatalf("Prepare() again error = %v", err)
	}
	data, _ = os.ReadFile(snapshot)
	if string(data) != "edited" {
		t.Error("Prepare overwrote an existing snapshot")
	}
}

func TestCommit_PrunesSupersededArtifacts(t *testing.T) {
	s, _ := testStore(t)
	loc, err := s.Resolve(testFn, testKey, "msgpack", testNow)
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if err := s.Prepare(loc, testFn); err != nil {
		t.Fatalf("Prepare() error = %v", err)
	}

	old := filepath.Join(loc.Dir, "a=1,b=2_2024-02-02_beef_pycheckpoint.json")
	if err := os.WriteFile(old, []byte("old"), 0o644); err != nil {
		t.Fatal(err)
	}

	staging := s.StagingPath(loc)
	if !strings.Contains(staging, ".incomplete.") {
		t.Fatalf("StagingPath = %q, want .incomplete. infix", staging)
	}
	if err := os.WriteFile(staging, []byte("new"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := s.Commit(staging, loc, testKey); err != nil {
		t.Fatalf("Commit() error = %v", err)
	}

	if _, err := os.Stat(loc.Artifact); err != nil {
		t.Errorf("committed artifact missing: %v", err)
	}
	if _, err := os.Stat(old); !os.IsNotExist(err) {
		t.Errorf("superseded artifact still present: %v", err)
	}
	if _, err := os.Stat(staging); !os.IsNotExist(err) {
		t.Errorf("staging file still present: %v", err)
	}
}
