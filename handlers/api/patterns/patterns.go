// Package patterns proxies the pattern records listing and deletion for the
// authenticated user.
package patterns

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/sirupsen/logrus"

	"pattern-studio/core"
	"pattern-studio/handlers/api"
	"pattern-studio/middleware"
)

func HandleListMine(factory api.PatternStoreFactory) http.HandlerFunc {
	return handleList(factory, core.PatternStore.ListMine)
}

func HandleListPublic(factory api.PatternStoreFactory) http.HandlerFunc {
	return handleList(factory, core.PatternStore.ListPublic)
}

func handleList(factory api.PatternStoreFactory, list func(core.PatternStore, context.Context) ([]*core.PatternRecord, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if _, ok := api.UserID(w, r); !ok {
			return
		}

		store := factory(r.Context(), middleware.Token(r.Context()))
		records, err := list(store, r.Context())
		if err != nil {
			api.RespondPatternError(w, r, err)
			return
		}
		if records == nil {
			records = []*core.PatternRecord{}
		}
		render.JSON(w, r, records)
	}
}

func HandleDelete(factory api.PatternStoreFactory) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := api.UserID(w, r)
		if !ok {
			return
		}
		id := chi.URLParam(r, "id")
		if id == "" {
			api.RespondError(w, r, http.StatusBadRequest, "Pattern id is required")
			return
		}

		store := factory(r.Context(), middleware.Token(r.Context()))
		if err := store.Delete(r.Context(), id); err != nil {
			api.RespondPatternError(w, r, err)
			return
		}

		logrus.WithFields(logrus.Fields{"user_id": userID, "pattern_id": id}).Info("Pattern deleted successfully")
		w.WriteHeader(http.StatusNoContent)
	}
}
