package persist

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"pattern-studio/core"
	"pattern-studio/editor"
	"pattern-studio/editor/tools"
)

// mockPatternStore records calls and fails when createErr/updateErr are set.
type mockPatternStore struct {
	mu        sync.Mutex
	created   []*core.PatternRecord
	updates   map[string]*core.PatternUpdate
	createErr error
	updateErr error
}

func (m *mockPatternStore) Create(ctx context.Context, record *core.PatternRecord) (*core.PatternRecord, error) {
	if m.createErr != nil {
		return nil, m.createErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.created = append(m.created, record)
	out := *record
	out.ID = "pattern-" + string(rune('a'+len(m.created)-1))
	return &out, nil
}

func (m *mockPatternStore) Update(ctx context.Context, id string, update *core.PatternUpdate) (*core.PatternRecord, error) {
	if m.updateErr != nil {
		return nil, m.updateErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.updates == nil {
		m.updates = make(map[string]*core.PatternUpdate)
	}
	m.updates[id] = update
	return &core.PatternRecord{ID: id, Name: *update.Name}, nil
}

func (m *mockPatternStore) ListMine(ctx context.Context) ([]*core.PatternRecord, error) {
	return nil, nil
}

func (m *mockPatternStore) ListPublic(ctx context.Context) ([]*core.PatternRecord, error) {
	return nil, nil
}

func (m *mockPatternStore) Delete(ctx context.Context, id string) error {
	return nil
}

type countingResetter struct{ calls int }

func (r *countingResetter) Reset() error {
	r.calls++
	return nil
}

func drawnEditor(t *testing.T) *editor.Editor {
	t.Helper()
	e, err := editor.New("editor-1", "user-1", editor.Options{})
	if err != nil {
		t.Fatalf("editor.New() failed: %v", err)
	}
	e.SetTool(tools.Config{Tool: tools.Brush, BrushSize: 10, Color: tools.Default().Color})
	e.PointerDown(core.Point{X: 100, Y: 100})
	e.PointerMove(core.Point{X: 400, Y: 300})
	e.PointerUp()
	e.SetMetadata(core.PatternMetadata{Name: "A-line skirt", GarmentType: "skirt", Style: "casual"})
	return e
}

func TestSaveAsNew_Success(t *testing.T) {
	store := &mockPatternStore{}
	adapter := NewAdapter(store)
	e := drawnEditor(t)

	snap, _ := e.Snapshot()
	created, err := adapter.SaveAsNew(context.Background(), e.Metadata(), snap, e)
	if err != nil {
		t.Fatalf("SaveAsNew() failed: %v", err)
	}
	if created.ID == "" {
		t.Error("SaveAsNew() returned a record without ID")
	}

	if len(store.created) != 1 {
		t.Fatalf("store got %d creates, want 1", len(store.created))
	}
	sent := store.created[0]
	if sent.Name != "A-line skirt" || sent.GarmentType != "skirt" {
		t.Errorf("metadata not merged: %+v", sent)
	}
	if sent.IsAIGenerated {
		t.Error("manually drawn pattern marked as AI generated")
	}
	if !strings.HasPrefix(sent.ImageData, "data:image/png;base64,") {
		t.Errorf("image data is not a PNG data URL: %.40s", sent.ImageData)
	}
	decoded, err := core.ParseDataURL(sent.ImageData)
	if err != nil || !decoded.Equal(snap) {
		t.Errorf("image data does not decode to the snapshot: %v", err)
	}

	if e.Metadata() != core.DefaultMetadata() {
		t.Errorf("metadata not reset after save: %+v", e.Metadata())
	}
	if got := e.State().UndoDepth; got != 3 {
		t.Errorf("undo depth after save = %d, want 3 (clear recorded)", got)
	}
}

// A failed save leaves pixels, both stacks and the metadata unchanged.
func TestSaveAsNew_FailureLeavesEditorUnchanged(t *testing.T) {
	store := &mockPatternStore{createErr: errors.New("network down")}
	adapter := NewAdapter(store)
	e := drawnEditor(t)
	e.Undo()
	e.Redo()

	pixelsBefore, _ := e.Snapshot()
	undoBefore, redoBefore := e.History()
	metaBefore := e.Metadata()

	_, err := adapter.SaveAsNew(context.Background(), metaBefore, pixelsBefore, e)
	if err == nil || err.Error() != "network down" {
		t.Fatalf("SaveAsNew() error = %v, want network down", err)
	}

	pixelsAfter, _ := e.Snapshot()
	undoAfter, redoAfter := e.History()
	if !pixelsAfter.Equal(pixelsBefore) {
		t.Error("pixels changed after a failed save")
	}
	if len(undoAfter) != len(undoBefore) || len(redoAfter) != len(redoBefore) {
		t.Errorf("stacks changed: %d/%d -> %d/%d", len(undoBefore), len(redoBefore), len(undoAfter), len(redoAfter))
	}
	for i := range undoBefore {
		if !undoAfter[i].Equal(undoBefore[i]) {
			t.Errorf("undo entry %d changed", i)
		}
	}
	if e.Metadata() != metaBefore {
		t.Errorf("metadata changed: %+v", e.Metadata())
	}
}

func TestSaveAsNew_EmptySnapshot(t *testing.T) {
	store := &mockPatternStore{}
	r := &countingResetter{}

	_, err := NewAdapter(store).SaveAsNew(context.Background(), core.DefaultMetadata(), core.Snapshot{}, r)
	if !errors.Is(err, ErrEmptySnapshot) {
		t.Errorf("SaveAsNew() error = %v, want ErrEmptySnapshot", err)
	}
	if r.calls != 0 || len(store.created) != 0 {
		t.Error("empty snapshot reached the store or reset the editor")
	}
}

func TestSaveAsNew_ConcurrentSavesAreIndependent(t *testing.T) {
	store := &mockPatternStore{}
	adapter := NewAdapter(store)
	snap := core.NewSnapshot([]byte("png"))

	var wg sync.WaitGroup
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := adapter.SaveAsNew(context.Background(), core.DefaultMetadata(), snap, nil); err != nil {
				t.Errorf("SaveAsNew() failed: %v", err)
			}
		}()
	}
	wg.Wait()

	if len(store.created) != 2 {
		t.Errorf("store got %d creates, want 2", len(store.created))
	}
}

func TestSaveEdits(t *testing.T) {
	store := &mockPatternStore{}
	adapter := NewAdapter(store)
	meta := core.PatternMetadata{Name: "Blazer", Occasion: "work"}

	if _, err := adapter.SaveEdits(context.Background(), "p1", meta, nil); err != nil {
		t.Fatalf("SaveEdits() failed: %v", err)
	}
	if store.updates["p1"].ImageData != nil {
		t.Error("image sent without a snapshot")
	}
	if *store.updates["p1"].Occasion != "work" {
		t.Errorf("occasion = %q, want work", *store.updates["p1"].Occasion)
	}

	snap := core.NewSnapshot([]byte("png"))
	if _, err := adapter.SaveEdits(context.Background(), "p2", meta, &snap); err != nil {
		t.Fatalf("SaveEdits() failed: %v", err)
	}
	if got := store.updates["p2"].ImageData; got == nil || *got != snap.DataURL() {
		t.Error("image not re-encoded for update")
	}
}

func TestSaveEdits_StoreError(t *testing.T) {
	store := &mockPatternStore{updateErr: errors.New("boom")}
	if _, err := NewAdapter(store).SaveEdits(context.Background(), "p1", core.DefaultMetadata(), nil); err == nil {
		t.Error("SaveEdits() should return the store error")
	}
}
