package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/ayusman/pianogames/internal/catalog"
	"github.com/ayusman/pianogames/internal/config"
	"github.com/ayusman/pianogames/internal/store"
)

// Session listing limits.
const (
	defaultSessionLimit = 20
	maxSessionLimit     = 500
	maxSettingsBytes    = 64 << 10
)

// StoreHandler serves the resources kept in the store.
type StoreHandler struct {
	store *store.Store
}

// NewStoreHandler creates a new StoreHandler with the given store.
func NewStoreHandler(s *store.Store) *StoreHandler {
	return &StoreHandler{store: s}
}

type listSessionsResponse struct {
	Sessions []*store.PlaySession `json:"sessions"`
}

// ListComposers handles GET /api/composers. The body is an object keyed by
// composer name.
func (h *StoreHandler) ListComposers(w http.ResponseWriter, r *http.Request) {
	composers, err := h.store.Composers().List()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list composers")
		return
	}

	var buf bytes.Buffer
	if err := catalog.WriteJSON(&buf, composers); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to encode composers")
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write(buf.Bytes())
}

// ListSessions handles GET /api/sessions?limit=N.
func (h *StoreHandler) ListSessions(w http.ResponseWriter, r *http.Request) {
	limit := defaultSessionLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 || n > maxSessionLimit {
			writeError(w, http.StatusBadRequest, "limit must be between 1 and 500")
			return
		}
		limit = n
	}

	sessions, err := h.store.Sessions().Recent(limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list sessions")
		return
	}
	if sessions == nil {
		sessions = []*store.PlaySession{}
	}
	writeJSON(w, http.StatusOK, listSessionsResponse{Sessions: sessions})
}

// GetSettings handles GET /api/settings/{game}. A game without saved
// settings returns an empty object.
func (h *StoreHandler) GetSettings(w http.ResponseWriter, r *http.Request) {
	game := mux.Vars(r)["game"]
	if !config.KnownGame(game) {
		writeError(w, http.StatusNotFound, "Game not found")
		return
	}

	value, err := h.store.Settings().Get(game)
	if errors.Is(err, store.ErrNotFound) {
		writeJSON(w, http.StatusOK, json.RawMessage("{}"))
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to get settings")
		return
	}
	writeJSON(w, http.StatusOK, json.RawMessage(value))
}

// PutSettings handles PUT /api/settings/{game}. The body must be a valid
// overlay of the game's configuration section.
func (h *StoreHandler) PutSettings(w http.ResponseWriter, r *http.Request) {
	game := mux.Vars(r)["game"]
	if !config.KnownGame(game) {
		writeError(w, http.StatusNotFound, "Game not found")
		return
	}

	raw, err := io.ReadAll(io.LimitReader(r.Body, maxSettingsBytes))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Failed to read body")
		return
	}
	if err := config.ValidateSettings(game, raw); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	var compact bytes.Buffer
	if err := json.Compact(&compact, raw); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}
	if err := h.store.Settings().Set(game, compact.String()); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to save settings")
		return
	}
	writeJSON(w, http.StatusOK, json.RawMessage(compact.Bytes()))
}
