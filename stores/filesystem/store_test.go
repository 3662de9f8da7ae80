package filesystem

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"pattern-studio/core"
)

func newTestStore(t *testing.T) (*fsStore, string) {
	t.Helper()
	dir := t.TempDir()
	store, err := NewStore(dir)
	if err != nil {
		t.Fatalf("NewStore() failed: %v", err)
	}
	return store, dir
}

func TestSaveAndGet(t *testing.T) {
	store, dir := newTestStore(t)
	ctx := context.Background()

	draft := &core.Draft{ID: "d1", UserID: "alice", Name: "Kimono", Data: []byte{0x89, 'P', 'N', 'G'}}
	if err := store.Save(ctx, draft); err != nil {
		t.Fatalf("Save() failed: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "alice", "d1.json")); err != nil {
		t.Errorf("draft file not written: %v", err)
	}

	got, err := store.Get(ctx, "alice", "d1")
	if err != nil {
		t.Fatalf("Get() failed: %v", err)
	}
	if got.Name != "Kimono" || string(got.Data) != string(draft.Data) || got.UserID != "alice" {
		t.Errorf("Get() = %+v", got)
	}
}

func TestSavePreservesCreatedAt(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	first := &core.Draft{ID: "d1", UserID: "alice"}
	store.Save(ctx, first)
	time.Sleep(5 * time.Millisecond)

	second := &core.Draft{ID: "d1", UserID: "alice", Name: "renamed"}
	if err := store.Save(ctx, second); err != nil {
		t.Fatalf("Save() failed: %v", err)
	}
	if !second.CreatedAt.Equal(first.CreatedAt) {
		t.Errorf("CreatedAt changed from %v to %v", first.CreatedAt, second.CreatedAt)
	}
	if !second.UpdatedAt.After(first.UpdatedAt) {
		t.Error("UpdatedAt did not advance")
	}
}

func TestGetNotFound(t *testing.T) {
	store, _ := newTestStore(t)
	if _, err := store.Get(context.Background(), "alice", "missing"); !errors.Is(err, core.ErrDraftNotFound) {
		t.Errorf("Get() error = %v, want ErrDraftNotFound", err)
	}
}

func TestPathTraversalRejected(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	for _, id := range []string{"../bob/d1", "..", "a/b"} {
		if _, err := store.Get(ctx, "alice", id); !errors.Is(err, core.ErrInvalidKey) {
			t.Errorf("Get(%q) error = %v, want ErrInvalidKey", id, err)
		}
	}
	if err := store.Save(ctx, &core.Draft{ID: "d1", UserID: "../root"}); !errors.Is(err, core.ErrInvalidKey) {
		t.Errorf("Save() with path-like user error = %v", err)
	}
}

func TestListSkipsBrokenFiles(t *testing.T) {
	store, dir := newTestStore(t)
	ctx := context.Background()

	store.Save(ctx, &core.Draft{ID: "d1", UserID: "alice", Data: []byte("a")})
	store.Save(ctx, &core.Draft{ID: "d2", UserID: "alice", Data: []byte("b")})
	os.WriteFile(filepath.Join(dir, "alice", "broken.json"), []byte("{"), 0644)
	os.WriteFile(filepath.Join(dir, "alice", "notes.txt"), []byte("x"), 0644)

	list, err := store.List(ctx, "alice")
	if err != nil {
		t.Fatalf("List() failed: %v", err)
	}
	if len(list) != 2 {
		t.Fatalf("List() = %d drafts, want 2", len(list))
	}
	for _, d := range list {
		if d.Data != nil {
			t.Error("List() returned canvas data")
		}
	}
}

func TestListNoUserDir(t *testing.T) {
	store, _ := newTestStore(t)
	list, err := store.List(context.Background(), "nobody")
	if err != nil || len(list) != 0 {
		t.Errorf("List() = %v, %v", list, err)
	}
}

func TestDelete(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()
	store.Save(ctx, &core.Draft{ID: "d1", UserID: "alice"})

	if err := store.Delete(ctx, "alice", "d1"); err != nil {
		t.Fatalf("Delete() failed: %v", err)
	}
	if err := store.Delete(ctx, "alice", "d1"); !errors.Is(err, core.ErrDraftNotFound) {
		t.Errorf("second Delete() error = %v, want ErrDraftNotFound", err)
	}
}
