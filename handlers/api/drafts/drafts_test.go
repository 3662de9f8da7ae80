package drafts

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/golang-jwt/jwt/v5"

	"pattern-studio/core"
	"pattern-studio/handlers/auth"
	"pattern-studio/middleware"
)

// Mock draft store for testing
type mockDraftStore struct {
	drafts  map[string]*core.Draft
	listErr error
	getErr  error
}

func newMockStore() *mockDraftStore {
	return &mockDraftStore{drafts: map[string]*core.Draft{
		"alice/d1": {ID: "d1", UserID: "alice", Name: "Blouse", Data: []byte("\x89PNG")},
	}}
}

func (m *mockDraftStore) List(ctx context.Context, userID string) ([]*core.Draft, error) {
	if m.listErr != nil {
		return nil, m.listErr
	}
	var out []*core.Draft
	for _, d := range m.drafts {
		if d.UserID == userID {
			out = append(out, &core.Draft{ID: d.ID, Name: d.Name})
		}
	}
	return out, nil
}

func (m *mockDraftStore) Get(ctx context.Context, userID, id string) (*core.Draft, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	d, ok := m.drafts[userID+"/"+id]
	if !ok {
		return nil, core.ErrDraftNotFound
	}
	return d, nil
}

func (m *mockDraftStore) Save(ctx context.Context, d *core.Draft) error { return nil }

func (m *mockDraftStore) Delete(ctx context.Context, userID, id string) error {
	if _, ok := m.drafts[userID+"/"+id]; !ok {
		return core.ErrDraftNotFound
	}
	delete(m.drafts, userID+"/"+id)
	return nil
}

func newRequest(method, userID, key string) *http.Request {
	req := httptest.NewRequest(method, "/api/v1/drafts/"+key, nil)
	rctx := chi.NewRouteContext()
	if key != "" {
		rctx.URLParams.Add("key", key)
	}
	ctx := context.WithValue(req.Context(), chi.RouteCtxKey, rctx)
	if userID != "" {
		ctx = context.WithValue(ctx, middleware.ClaimsContextKey, &auth.AppClaims{RegisteredClaims: jwt.RegisteredClaims{Subject: userID}})
	}
	return req.WithContext(ctx)
}

func TestHandleListDrafts(t *testing.T) {
	store := newMockStore()
	rec := httptest.NewRecorder()
	HandleListDrafts(store)(rec, newRequest(http.MethodGet, "alice", ""))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var drafts []core.Draft
	json.NewDecoder(rec.Body).Decode(&drafts)
	if len(drafts) != 1 || drafts[0].Name != "Blouse" {
		t.Errorf("drafts = %+v", drafts)
	}
}

func TestHandleListDrafts_EmptyIsArray(t *testing.T) {
	rec := httptest.NewRecorder()
	HandleListDrafts(newMockStore())(rec, newRequest(http.MethodGet, "bob", ""))

	if body := rec.Body.String(); body != "[]\n" {
		t.Errorf("body = %q, want []", body)
	}
}

func TestHandleListDrafts_StoreError(t *testing.T) {
	store := newMockStore()
	store.listErr = errors.New("db down")
	rec := httptest.NewRecorder()
	HandleListDrafts(store)(rec, newRequest(http.MethodGet, "alice", ""))

	if rec.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", rec.Code)
	}
}

func TestHandleGetDraft(t *testing.T) {
	rec := httptest.NewRecorder()
	HandleGetDraft(newMockStore())(rec, newRequest(http.MethodGet, "alice", "d1"))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var body map[string]any
	json.NewDecoder(rec.Body).Decode(&body)
	if body["imageData"] != "data:image/png;base64,iVBORw==" {
		t.Errorf("imageData = %v", body["imageData"])
	}
	if _, ok := body["data"]; ok {
		t.Error("raw data included in response")
	}
}

func TestHandleGetDraft_Errors(t *testing.T) {
	tests := []struct {
		name   string
		user   string
		key    string
		getErr error
		want   int
	}{
		{"no claims", "", "d1", nil, http.StatusUnauthorized},
		{"missing key", "alice", "", nil, http.StatusBadRequest},
		{"other user", "bob", "d1", nil, http.StatusNotFound},
		{"invalid key", "alice", "x", core.ErrInvalidKey, http.StatusBadRequest},
		{"store failure", "alice", "d1", errors.New("io"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := newMockStore()
			store.getErr = tt.getErr
			rec := httptest.NewRecorder()
			HandleGetDraft(store)(rec, newRequest(http.MethodGet, tt.user, tt.key))
			if rec.Code != tt.want {
				t.Errorf("status = %d, want %d", rec.Code, tt.want)
			}
		})
	}
}

func TestHandleGetDraftImage(t *testing.T) {
	rec := httptest.NewRecorder()
	HandleGetDraftImage(newMockStore())(rec, newRequest(http.MethodGet, "alice", "d1"))

	if rec.Header().Get("Content-Type") != "image/png" || rec.Body.String() != "\x89PNG" {
		t.Errorf("got %q %q", rec.Header().Get("Content-Type"), rec.Body.String())
	}
}

func TestHandleDeleteDraft(t *testing.T) {
	store := newMockStore()

	rec := httptest.NewRecorder()
	HandleDeleteDraft(store)(rec, newRequest(http.MethodDelete, "alice", "d1"))
	if rec.Code != http.StatusNoContent {
		t.Errorf("status = %d, want 204", rec.Code)
	}

	rec = httptest.NewRecorder()
	HandleDeleteDraft(store)(rec, newRequest(http.MethodDelete, "alice", "d1"))
	if rec.Code != http.StatusNotFound {
		t.Errorf("second delete status = %d, want 404", rec.Code)
	}
}
