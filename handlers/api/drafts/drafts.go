// Package drafts serves the user's saved drafts.
package drafts

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/sirupsen/logrus"

	"pattern-studio/core"
	"pattern-studio/handlers/api"
)

// DraftResponse is a draft with its canvas as a data URL.
type DraftResponse struct {
	*core.Draft
	ImageData string `json:"imageData,omitempty"`
	// Data shadows the raw canvas bytes and is always left empty.
	Data []byte `json:"data,omitempty"`
}

func HandleListDrafts(store core.DraftStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := api.UserID(w, r)
		if !ok {
			return
		}

		drafts, err := store.List(r.Context(), userID)
		if err != nil {
			logrus.WithFields(logrus.Fields{
				"error":   err,
				"user_id": userID,
			}).Error("Failed to list drafts")
			api.RespondError(w, r, http.StatusInternalServerError, "Failed to list drafts")
			return
		}

		// Return an empty list instead of null.
		if drafts == nil {
			drafts = []*core.Draft{}
		}
		render.JSON(w, r, drafts)
	}
}

func HandleGetDraft(store core.DraftStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		draft, ok := loadDraft(w, r, store)
		if !ok {
			return
		}
		render.JSON(w, r, DraftResponse{Draft: draft, ImageData: draft.Snapshot().DataURL()})
	}
}

// HandleGetDraftImage returns the draft canvas as image/png.
func HandleGetDraftImage(store core.DraftStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		draft, ok := loadDraft(w, r, store)
		if !ok {
			return
		}
		w.Header().Set("Content-Type", "image/png")
		w.Header().Set("Content-Length", strconv.Itoa(len(draft.Data)))
		w.Write(draft.Data)
	}
}

func HandleDeleteDraft(store core.DraftStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := api.UserID(w, r)
		if !ok {
			return
		}
		key := chi.URLParam(r, "key")
		if key == "" {
			api.RespondError(w, r, http.StatusBadRequest, "Draft key is required")
			return
		}

		if err := store.Delete(r.Context(), userID, key); err != nil {
			respondStoreError(w, r, err, userID, key, "Failed to delete draft")
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func loadDraft(w http.ResponseWriter, r *http.Request, store core.DraftStore) (*core.Draft, bool) {
	userID, ok := api.UserID(w, r)
	if !ok {
		return nil, false
	}
	key := chi.URLParam(r, "key")
	if key == "" {
		api.RespondError(w, r, http.StatusBadRequest, "Draft key is required")
		return nil, false
	}

	draft, err := store.Get(r.Context(), userID, key)
	if err != nil {
		respondStoreError(w, r, err, userID, key, "Failed to get draft")
		return nil, false
	}
	return draft, true
}

func respondStoreError(w http.ResponseWriter, r *http.Request, err error, userID, key, msg string) {
	log := logrus.WithFields(logrus.Fields{
		"error":    err,
		"user_id":  userID,
		"draft_id": key,
	})
	switch {
	case errors.Is(err, core.ErrDraftNotFound):
		log.Warn(msg)
		api.RespondError(w, r, http.StatusNotFound, "Draft not found")
	case errors.Is(err, core.ErrInvalidKey):
		log.Warn(msg)
		api.RespondError(w, r, http.StatusBadRequest, "Invalid draft key")
	default:
		log.Error(msg)
		api.RespondError(w, r, http.StatusInternalServerError, msg)
	}
}
