// Package editors exposes editor sessions over HTTP.
package editors

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/oklog/ulid/v2"
	"github.com/sirupsen/logrus"

	"pattern-studio/core"
	"pattern-studio/editor"
	"pattern-studio/editor/canvas"
	"pattern-studio/editor/persist"
	"pattern-studio/editor/tools"
	"pattern-studio/handlers/api"
	"pattern-studio/middleware"
)

const (
	MinBrushSize = 1
	MaxBrushSize = 100
)

type (
	CreateRequest struct {
		DraftID string `json:"draftId,omitempty"`
	}

	PointerRequest struct {
		Type string `json:"type"` // down | move | up | leave
		X    int    `json:"x"`
		Y    int    `json:"y"`
	}

	// ToolRequest changes the tool settings; omitted fields keep their value.
	ToolRequest struct {
		Tool      *string `json:"tool,omitempty"`
		BrushSize *int    `json:"brushSize,omitempty"`
		Color     *string `json:"color,omitempty"`
	}

	DraftRequest struct {
		DraftID string `json:"draftId,omitempty"`
		Name    string `json:"name,omitempty"`
	}
)

// Handler serves the /editors routes.
type Handler struct {
	registry *editor.Registry
	drafts   core.DraftStore
	patterns api.PatternStoreFactory
}

func NewHandler(registry *editor.Registry, drafts core.DraftStore, patterns api.PatternStoreFactory) *Handler {
	return &Handler{registry: registry, drafts: drafts, patterns: patterns}
}

// Routes mounts the editor routes on r.
func (h *Handler) Routes(r chi.Router) {
	r.Get("/", h.HandleList)
	r.Post("/", h.HandleCreate)
	r.Route("/{id}", func(r chi.Router) {
		r.Get("/", h.HandleGet)
		r.Delete("/", h.HandleDelete)
		r.Post("/pointer", h.HandlePointer)
		r.Put("/tool", h.HandleSetTool)
		r.Put("/metadata", h.HandleSetMetadata)
		r.Post("/undo", h.HandleUndo)
		r.Post("/redo", h.HandleRedo)
		r.Post("/clear", h.HandleClear)
		r.Get("/image", h.HandleImage)
		r.Get("/thumbnail", h.HandleThumbnail)
		r.Post("/save", h.HandleSaveAsNew)
		r.Put("/patterns/{patternId}", h.HandleSaveEdits)
		r.Put("/draft", h.HandleSaveDraft)
	})
}

// loadEditor resolves the {id} URL parameter to one of the caller's editors.
func (h *Handler) loadEditor(w http.ResponseWriter, r *http.Request) (*editor.Editor, bool) {
	userID, ok := api.UserID(w, r)
	if !ok {
		return nil, false
	}
	id := chi.URLParam(r, "id")
	if id == "" {
		api.RespondError(w, r, http.StatusBadRequest, "Editor id is required")
		return nil, false
	}

	e, err := h.registry.Get(userID, id)
	if err != nil {
		logrus.WithFields(logrus.Fields{"user_id": userID, "editor_id": id}).Warn("Editor not found")
		api.RespondError(w, r, http.StatusNotFound, "Editor not found")
		return nil, false
	}
	return e, true
}

// decodeOptional decodes a JSON body into v; an empty body is allowed.
func decodeOptional(r *http.Request, v any) error {
	err := json.NewDecoder(r.Body).Decode(v)
	if errors.Is(err, io.EOF) {
		return nil
	}
	return err
}

func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	userID, ok := api.UserID(w, r)
	if !ok {
		return
	}
	render.JSON(w, r, h.registry.List(userID))
}

func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	userID, ok := api.UserID(w, r)
	if !ok {
		return
	}

	var req CreateRequest
	if err := decodeOptional(r, &req); err != nil {
		api.RespondError(w, r, http.StatusBadRequest, "Invalid request body")
		return
	}

	var initial *core.Snapshot
	if req.DraftID != "" {
		draft, err := h.drafts.Get(r.Context(), userID, req.DraftID)
		if err != nil {
			if errors.Is(err, core.ErrDraftNotFound) || errors.Is(err, core.ErrInvalidKey) {
				api.RespondError(w, r, http.StatusNotFound, "Draft not found")
				return
			}
			logrus.WithError(err).WithField("draft_id", req.DraftID).Error("Failed to load draft")
			api.RespondError(w, r, http.StatusInternalServerError, "Failed to load draft")
			return
		}
		snap := draft.Snapshot()
		initial = &snap
	}

	e, err := h.registry.Create(userID, initial)
	if err != nil {
		logrus.WithError(err).WithField("user_id", userID).Error("Failed to open editor")
		api.RespondError(w, r, http.StatusUnprocessableEntity, "Draft canvas could not be loaded")
		return
	}

	render.Status(r, http.StatusCreated)
	render.JSON(w, r, e.State())
}

func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	e, ok := h.loadEditor(w, r)
	if !ok {
		return
	}
	render.JSON(w, r, e.State())
}

func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	e, ok := h.loadEditor(w, r)
	if !ok {
		return
	}
	if err := h.registry.Delete(e.Owner, e.ID); err != nil {
		api.RespondError(w, r, http.StatusNotFound, "Editor not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) HandlePointer(w http.ResponseWriter, r *http.Request) {
	e, ok := h.loadEditor(w, r)
	if !ok {
		return
	}

	var req PointerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.RespondError(w, r, http.StatusBadRequest, "Invalid request body")
		return
	}

	p := core.Point{X: req.X, Y: req.Y}
	var err error
	switch strings.ToLower(req.Type) {
	case "down":
		err = e.PointerDown(p)
	case "move":
		e.PointerMove(p)
	case "up":
		err = e.PointerUp()
	case "leave":
		err = e.PointerLeave()
	default:
		api.RespondError(w, r, http.StatusBadRequest, "Unknown pointer event type")
		return
	}
	if err != nil {
		logrus.WithError(err).WithField("editor_id", e.ID).Error("Pointer event failed")
		api.RespondError(w, r, http.StatusInternalServerError, "Pointer event failed")
		return
	}

	render.JSON(w, r, e.State())
}

func (h *Handler) HandleSetTool(w http.ResponseWriter, r *http.Request) {
	e, ok := h.loadEditor(w, r)
	if !ok {
		return
	}

	var req ToolRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.RespondError(w, r, http.StatusBadRequest, "Invalid request body")
		return
	}

	cfg := e.Tool()
	if req.Tool != nil {
		tool, err := tools.ParseTool(*req.Tool)
		if err != nil {
			api.RespondError(w, r, http.StatusBadRequest, err.Error())
			return
		}
		cfg.Tool = tool
	}
	if req.BrushSize != nil {
		if *req.BrushSize < MinBrushSize || *req.BrushSize > MaxBrushSize {
			api.RespondError(w, r, http.StatusBadRequest, "brushSize must be between "+
				strconv.Itoa(MinBrushSize)+" and "+strconv.Itoa(MaxBrushSize))
			return
		}
		cfg.BrushSize = *req.BrushSize
	}
	if req.Color != nil {
		c, err := tools.ParseColor(*req.Color)
		if err != nil {
			api.RespondError(w, r, http.StatusBadRequest, err.Error())
			return
		}
		cfg.Color = c
	}

	e.SetTool(cfg)
	render.JSON(w, r, e.State())
}

func (h *Handler) HandleSetMetadata(w http.ResponseWriter, r *http.Request) {
	e, ok := h.loadEditor(w, r)
	if !ok {
		return
	}

	var meta core.PatternMetadata
	if err := json.NewDecoder(r.Body).Decode(&meta); err != nil {
		api.RespondError(w, r, http.StatusBadRequest, "Invalid request body")
		return
	}

	e.SetMetadata(meta)
	render.JSON(w, r, e.State())
}

func (h *Handler) HandleUndo(w http.ResponseWriter, r *http.Request) {
	h.historyStep(w, r, (*editor.Editor).Undo, "undo")
}

func (h *Handler) HandleRedo(w http.ResponseWriter, r *http.Request) {
	h.historyStep(w, r, (*editor.Editor).Redo, "redo")
}

func (h *Handler) historyStep(w http.ResponseWriter, r *http.Request, step func(*editor.Editor) (bool, error), name string) {
	e, ok := h.loadEditor(w, r)
	if !ok {
		return
	}
	if _, err := step(e); err != nil {
		logrus.WithError(err).WithField("editor_id", e.ID).Errorf("Failed to %s", name)
		api.RespondError(w, r, http.StatusInternalServerError, "Could not restore canvas")
		return
	}
	render.JSON(w, r, e.State())
}

func (h *Handler) HandleClear(w http.ResponseWriter, r *http.Request) {
	e, ok := h.loadEditor(w, r)
	if !ok {
		return
	}
	if err := e.Clear(); err != nil {
		logrus.WithError(err).WithField("editor_id", e.ID).Error("Failed to clear canvas")
		api.RespondError(w, r, http.StatusInternalServerError, "Failed to clear canvas")
		return
	}
	render.JSON(w, r, e.State())
}

func (h *Handler) HandleImage(w http.ResponseWriter, r *http.Request) {
	e, ok := h.loadEditor(w, r)
	if !ok {
		return
	}
	snap, err := e.Snapshot()
	if err != nil {
		api.RespondError(w, r, http.StatusInternalServerError, "Failed to encode canvas")
		return
	}
	writePNG(w, snap)
}

func (h *Handler) HandleThumbnail(w http.ResponseWriter, r *http.Request) {
	e, ok := h.loadEditor(w, r)
	if !ok {
		return
	}
	snap, err := e.Snapshot()
	if err == nil {
		snap, err = canvas.Thumbnail(snap, canvas.ThumbnailWidth, canvas.ThumbnailHeight)
	}
	if err != nil {
		api.RespondError(w, r, http.StatusInternalServerError, "Failed to encode thumbnail")
		return
	}
	writePNG(w, snap)
}

func writePNG(w http.ResponseWriter, snap core.Snapshot) {
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Content-Length", strconv.Itoa(snap.Len()))
	w.Write(snap.Bytes())
}

// HandleSaveAsNew stores the canvas and form as a new pattern record and
// resets the editor. A failed save changes nothing.
func (h *Handler) HandleSaveAsNew(w http.ResponseWriter, r *http.Request) {
	e, ok := h.loadEditor(w, r)
	if !ok {
		return
	}

	snap, err := e.Snapshot()
	if err != nil {
		api.RespondError(w, r, http.StatusInternalServerError, "Failed to encode canvas")
		return
	}

	store := h.patterns(r.Context(), middleware.Token(r.Context()))
	record, err := persist.NewAdapter(store).SaveAsNew(r.Context(), e.Metadata(), snap, e)
	if err != nil {
		if record != nil {
			// Saved, but the editor could not be reset.
			logrus.WithError(err).WithField("editor_id", e.ID).Warn("Editor not reset after save")
			render.Status(r, http.StatusCreated)
			render.JSON(w, r, record)
			return
		}
		api.RespondPatternError(w, r, err)
		return
	}

	render.Status(r, http.StatusCreated)
	render.JSON(w, r, record)
}

// HandleSaveEdits updates an existing pattern record from the editor form.
// The canvas is only sent with ?withImage=true.
func (h *Handler) HandleSaveEdits(w http.ResponseWriter, r *http.Request) {
	e, ok := h.loadEditor(w, r)
	if !ok {
		return
	}
	patternID := chi.URLParam(r, "patternId")
	if patternID == "" {
		api.RespondError(w, r, http.StatusBadRequest, "Pattern id is required")
		return
	}

	var snap *core.Snapshot
	if withImage, _ := strconv.ParseBool(r.URL.Query().Get("withImage")); withImage {
		s, err := e.Snapshot()
		if err != nil {
			api.RespondError(w, r, http.StatusInternalServerError, "Failed to encode canvas")
			return
		}
		snap = &s
	}

	store := h.patterns(r.Context(), middleware.Token(r.Context()))
	record, err := persist.NewAdapter(store).SaveEdits(r.Context(), patternID, e.Metadata(), snap)
	if err != nil {
		api.RespondPatternError(w, r, err)
		return
	}
	render.JSON(w, r, record)
}

// HandleSaveDraft stores the current canvas in the draft store.
func (h *Handler) HandleSaveDraft(w http.ResponseWriter, r *http.Request) {
	e, ok := h.loadEditor(w, r)
	if !ok {
		return
	}

	var req DraftRequest
	if err := decodeOptional(r, &req); err != nil {
		api.RespondError(w, r, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.DraftID == "" {
		req.DraftID = ulid.Make().String()
	}
	if err := core.ValidateKey(req.DraftID); err != nil {
		api.RespondError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	if req.Name == "" {
		req.Name = e.Metadata().Name
	}
	if req.Name == "" {
		req.Name = req.DraftID
	}

	log := logrus.WithFields(logrus.Fields{"editor_id": e.ID, "draft_id": req.DraftID})

	snap, err := e.Snapshot()
	if err != nil {
		api.RespondError(w, r, http.StatusInternalServerError, "Failed to encode canvas")
		return
	}
	thumb, err := canvas.Thumbnail(snap, canvas.ThumbnailWidth, canvas.ThumbnailHeight)
	if err != nil {
		log.WithError(err).Warn("Failed to build draft thumbnail")
	}

	draft := &core.Draft{
		ID:     req.DraftID,
		UserID: e.Owner,
		Name:   req.Name,
		Data:   snap.Bytes(),
	}
	if !thumb.IsZero() {
		draft.Thumbnail = thumb.DataURL()
	}

	if err := h.drafts.Save(r.Context(), draft); err != nil {
		log.WithError(err).Error("Failed to save draft")
		api.RespondError(w, r, http.StatusInternalServerError, "Failed to save draft")
		return
	}

	draft.Data = nil
	render.JSON(w, r, draft)
}
