package patterns

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/golang-jwt/jwt/v5"

	"pattern-studio/core"
	"pattern-studio/handlers/api"
	"pattern-studio/handlers/auth"
	"pattern-studio/middleware"
	records "pattern-studio/patterns"
)

type mockPatternStore struct {
	mine, public []*core.PatternRecord
	err          error
	deleted      []string
}

func (m *mockPatternStore) Create(ctx context.Context, r *core.PatternRecord) (*core.PatternRecord, error) {
	return r, nil
}

func (m *mockPatternStore) Update(ctx context.Context, id string, u *core.PatternUpdate) (*core.PatternRecord, error) {
	return nil, nil
}

func (m *mockPatternStore) ListMine(ctx context.Context) ([]*core.PatternRecord, error) {
	return m.mine, m.err
}

func (m *mockPatternStore) ListPublic(ctx context.Context) ([]*core.PatternRecord, error) {
	return m.public, m.err
}

func (m *mockPatternStore) Delete(ctx context.Context, id string) error {
	if m.err != nil {
		return m.err
	}
	m.deleted = append(m.deleted, id)
	return nil
}

func factoryFor(store *mockPatternStore, gotToken *string) api.PatternStoreFactory {
	return func(ctx context.Context, token string) core.PatternStore {
		*gotToken = token
		return store
	}
}

func authedRequest(method, path string, params map[string]string) *http.Request {
	req := httptest.NewRequest(method, path, nil)
	rctx := chi.NewRouteContext()
	for k, v := range params {
		rctx.URLParams.Add(k, v)
	}
	ctx := context.WithValue(req.Context(), chi.RouteCtxKey, rctx)
	ctx = context.WithValue(ctx, middleware.ClaimsContextKey, &auth.AppClaims{RegisteredClaims: jwt.RegisteredClaims{Subject: "alice"}})
	ctx = context.WithValue(ctx, middleware.TokenContextKey, "raw-token")
	return req.WithContext(ctx)
}

func TestHandleListMine(t *testing.T) {
	var token string
	store := &mockPatternStore{mine: []*core.PatternRecord{{ID: "p1", Name: "Mine"}}}

	rec := httptest.NewRecorder()
	HandleListMine(factoryFor(store, &token))(rec, authedRequest(http.MethodGet, "/api/v1/patterns/mine", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if token != "raw-token" {
		t.Errorf("token forwarded = %q", token)
	}
	var got []core.PatternRecord
	json.NewDecoder(rec.Body).Decode(&got)
	if len(got) != 1 || got[0].ID != "p1" {
		t.Errorf("records = %+v", got)
	}
}

func TestHandleListPublic_Empty(t *testing.T) {
	var token string
	rec := httptest.NewRecorder()
	HandleListPublic(factoryFor(&mockPatternStore{}, &token))(rec, authedRequest(http.MethodGet, "/api/v1/patterns/public", nil))

	if body := rec.Body.String(); body != "[]\n" {
		t.Errorf("body = %q, want []", body)
	}
}

func TestHandleListMine_Unauthorized(t *testing.T) {
	var token string
	store := &mockPatternStore{err: &records.APIError{Status: http.StatusUnauthorized, Message: "expired"}}

	rec := httptest.NewRecorder()
	HandleListMine(factoryFor(store, &token))(rec, authedRequest(http.MethodGet, "/", nil))

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rec.Code)
	}
}

func TestHandleDelete(t *testing.T) {
	var token string
	store := &mockPatternStore{}

	rec := httptest.NewRecorder()
	HandleDelete(factoryFor(store, &token))(rec, authedRequest(http.MethodDelete, "/api/v1/patterns/p9", map[string]string{"id": "p9"}))

	if rec.Code != http.StatusNoContent {
		t.Errorf("status = %d, want 204", rec.Code)
	}
	if len(store.deleted) != 1 || store.deleted[0] != "p9" {
		t.Errorf("deleted = %v", store.deleted)
	}
}

func TestHandleDelete_FeatureRestricted(t *testing.T) {
	var token string
	store := &mockPatternStore{err: &records.APIError{Status: http.StatusForbidden, Code: records.CodeFeatureNotAvailable}}

	rec := httptest.NewRecorder()
	HandleDelete(factoryFor(store, &token))(rec, authedRequest(http.MethodDelete, "/", map[string]string{"id": "p9"}))

	if rec.Code != http.StatusForbidden {
		t.Fatalf("status = %d, want 403", rec.Code)
	}
	var body api.ErrorResponse
	json.NewDecoder(rec.Body).Decode(&body)
	if body.Redirect != "/pricing" {
		t.Errorf("redirect = %q", body.Redirect)
	}
}
