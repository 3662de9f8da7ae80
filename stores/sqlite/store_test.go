package sqlite

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"pattern-studio/core"
)

func newTestStore(t *testing.T) *sqliteStore {
	t.Helper()
	store, err := NewStore(filepath.Join(t.TempDir(), "drafts.db"))
	if err != nil {
		t.Fatalf("NewStore() failed: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func TestSaveAndGet(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	draft := &core.Draft{ID: "d1", UserID: "alice", Name: "Apron", Thumbnail: "data:image/png;base64,AA==", Data: []byte{1, 2, 3}}
	if err := store.Save(ctx, draft); err != nil {
		t.Fatalf("Save() failed: %v", err)
	}

	got, err := store.Get(ctx, "alice", "d1")
	if err != nil {
		t.Fatalf("Get() failed: %v", err)
	}
	if got.Name != "Apron" || got.Thumbnail != draft.Thumbnail || len(got.Data) != 3 {
		t.Errorf("Get() = %+v", got)
	}
	if got.CreatedAt.IsZero() {
		t.Error("CreatedAt not stored")
	}
}

func TestUpdateKeepsCreatedAt(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	store.Save(ctx, &core.Draft{ID: "d1", UserID: "alice", Name: "v1"})
	first, _ := store.Get(ctx, "alice", "d1")
	time.Sleep(5 * time.Millisecond)

	if err := store.Save(ctx, &core.Draft{ID: "d1", UserID: "alice", Name: "v2", Data: []byte("new")}); err != nil {
		t.Fatalf("Save() failed: %v", err)
	}
	second, _ := store.Get(ctx, "alice", "d1")

	if second.Name != "v2" || string(second.Data) != "new" {
		t.Errorf("update not applied: %+v", second)
	}
	if !second.CreatedAt.Equal(first.CreatedAt) {
		t.Errorf("CreatedAt changed from %v to %v", first.CreatedAt, second.CreatedAt)
	}
}

func TestListScopedAndLight(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	store.Save(ctx, &core.Draft{ID: "d1", UserID: "alice", Data: []byte("a")})
	store.Save(ctx, &core.Draft{ID: "d2", UserID: "alice", Data: []byte("b")})
	store.Save(ctx, &core.Draft{ID: "d3", UserID: "bob", Data: []byte("c")})

	list, err := store.List(ctx, "alice")
	if err != nil {
		t.Fatalf("List() failed: %v", err)
	}
	if len(list) != 2 {
		t.Fatalf("List(alice) = %d, want 2", len(list))
	}
	for _, d := range list {
		if d.Data != nil {
			t.Error("List() returned canvas data")
		}
	}

	empty, err := store.List(ctx, "carol")
	if err != nil || empty == nil || len(empty) != 0 {
		t.Errorf("List(carol) = %v, %v", empty, err)
	}
}

func TestNotFound(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	store.Save(ctx, &core.Draft{ID: "d1", UserID: "alice"})

	if _, err := store.Get(ctx, "bob", "d1"); !errors.Is(err, core.ErrDraftNotFound) {
		t.Errorf("Get() error = %v, want ErrDraftNotFound", err)
	}
	if err := store.Delete(ctx, "bob", "d1"); !errors.Is(err, core.ErrDraftNotFound) {
		t.Errorf("Delete() error = %v, want ErrDraftNotFound", err)
	}
	if err := store.Delete(ctx, "alice", "d1"); err != nil {
		t.Errorf("Delete() failed: %v", err)
	}
}
