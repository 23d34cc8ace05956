package store

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/ayusman/repsense/internal/rep"
)

// newTestStore creates a new Store backed by a temporary database file.
func newTestStore(t *testing.T) *Store {
	t.Helper()

	tmpDir, err := os.MkdirTemp("", "repsense-test-*")
	if err != nil {
		t.Fatalf("failed to create temp dir: %v", err)
	}
	t.Cleanup(func() {
		os.RemoveAll(tmpDir)
	})

	s, err := New(filepath.Join(tmpDir, "test.db"))
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	t.Cleanup(func() {
		s.Close()
	})

	return s
}

func testProfile(t *testing.T, id, name string, ex rep.Exercise) *Profile {
	t.Helper()
	cfg, err := rep.DefaultConfig(ex, rep.Right)
	if err != nil {
		t.Fatalf("DefaultConfig(%q) failed: %v", ex, err)
	}
	return &Profile{ID: id, Name: name, Config: cfg}
}

func TestProfileRepository_CreateAndGet(t *testing.T) {
	s := newTestStore(t)
	repo := s.Profiles()

	p := testProfile(t, "p-1", "deep squat", rep.Squat)
	p.Config.BottomThreshold = 85
	p.Config.Alpha = 0.5
	p.Config.MinRepDurationMs = 600
	p.Config.MinVisibility = 0.6

	if err := repo.Create(p); err != nil {
		t.Fatalf("failed to create profile: %v", err)
	}
	if p.CreatedAt.IsZero() || p.UpdatedAt.IsZero() {
		t.Error("timestamps should be set after create")
	}

	got, err := repo.GetByID("p-1")
	if err != nil {
		t.Fatalf("failed to get profile by ID: %v", err)
	}
	if got.Name != "deep squat" {
		t.Errorf("Name mismatch: got %q", got.Name)
	}
	if got.Config != p.Config {
		t.Errorf("Config mismatch:\n got  %+v\n want %+v", got.Config, p.Config)
	}

	byName, err := repo.GetByName("deep squat")
	if err != nil {
		t.Fatalf("failed to get profile by name: %v", err)
	}
	if byName.ID != "p-1" {
		t.Errorf("expected ID p-1, got %q", byName.ID)
	}
}

func TestProfileRepository_NotFound(t *testing.T) {
	s := newTestStore(t)
	repo := s.Profiles()

	if _, err := repo.GetByID("missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("GetByID: expected ErrNotFound, got %v", err)
	}
	if _, err := repo.GetByName("missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("GetByName: expected ErrNotFound, got %v", err)
	}
	if err := repo.Update(testProfile(t, "missing", "x", rep.Squat)); !errors.Is(err, ErrNotFound) {
		t.Errorf("Update: expected ErrNotFound, got %v", err)
	}
	if err := repo.Delete("missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Delete: expected ErrNotFound, got %v", err)
	}
}

func TestProfileRepository_RejectsInvalid(t *testing.T) {
	s := newTestStore(t)
	repo := s.Profiles()

	p := testProfile(t, "p-1", "broken", rep.Squat)
	p.Config.Alpha = 0
	if err := repo.Create(p); !errors.Is(err, rep.ErrInvalidConfig) {
		t.Errorf("expected ErrInvalidConfig, got %v", err)
	}

	list, err := repo.List("")
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(list) != 0 {
		t.Errorf("invalid profile should not be stored, got %d", len(list))
	}
}

func TestProfileRepository_DuplicateName(t *testing.T) {
	s := newTestStore(t)
	repo := s.Profiles()

	if err := repo.Create(testProfile(t, "p-1", "rehab", rep.Squat)); err != nil {
		t.Fatalf("failed to create profile: %v", err)
	}
	err := repo.Create(testProfile(t, "p-2", "rehab", rep.ElbowFlexion))
	if !errors.Is(err, ErrDuplicate) {
		t.Errorf("expected ErrDuplicate, got %v", err)
	}
}

func TestProfileRepository_List(t *testing.T) {
	s := newTestStore(t)
	repo := s.Profiles()

	for _, p := range []*Profile{
		testProfile(t, "p-1", "zeta squat", rep.Squat),
		testProfile(t, "p-2", "alpha curl", rep.ElbowFlexion),
		testProfile(t, "p-3", "beta squat", rep.Squat),
	} {
		if err := repo.Create(p); err != nil {
			t.Fatalf("failed to create %s: %v", p.ID, err)
		}
	}

	all, err := repo.List("")
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	wantOrder := []string{"alpha curl", "beta squat", "zeta squat"}
	if len(all) != len(wantOrder) {
		t.Fatalf("expected %d profiles, got %d", len(wantOrder), len(all))
	}
	for i, name := range wantOrder {
		if all[i].Name != name {
			t.Errorf("profile %d: got %q, want %q", i, all[i].Name, name)
		}
	}

	squats, err := repo.List(rep.Squat)
	if err != nil {
		t.Fatalf("List(squat) failed: %v", err)
	}
	if len(squats) != 2 {
		t.Errorf("expected 2 squat profiles, got %d", len(squats))
	}
}

func TestProfileRepository_UpdateAndDelete(t *testing.T) {
	s := newTestStore(t)
	repo := s.Profiles()

	p := testProfile(t, "p-1", "curl", rep.ElbowFlexion)
	if err := repo.Create(p); err != nil {
		t.Fatalf("failed to create profile: %v", err)
	}
	created := p.UpdatedAt

	p.Name = "slow curl"
	p.Config.MinRepDurationMs = 1500
	p.Config.Side = rep.Left
	if err := repo.Update(p); err != nil {
		t.Fatalf("failed to update profile: %v", err)
	}
	if p.UpdatedAt.Before(created) {
		t.Error("UpdatedAt should not move backwards")
	}

	got, err := repo.GetByID("p-1")
	if err != nil {
		t.Fatalf("failed to get profile: %v", err)
	}
	if got.Name != "slow curl" || got.Config.MinRepDurationMs != 1500 || got.Config.Side != rep.Left {
		t.Errorf("update not persisted: %+v", got)
	}

	if err := repo.Delete("p-1"); err != nil {
		t.Fatalf("failed to delete profile: %v", err)
	}
	if _, err := repo.GetByID("p-1"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound after delete, got %v", err)
	}
}
