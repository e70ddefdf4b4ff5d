package api

import (
	"errors"
	"net/http"
	"os"

	"github.com/gorilla/mux"

	"github.com/ayusman/pianogames/internal/catalog"
)

// LibraryHandler serves the MIDI library.
type LibraryHandler struct {
	lib catalog.Library
}

// NewLibraryHandler creates a new LibraryHandler over lib.
func NewLibraryHandler(lib catalog.Library) *LibraryHandler {
	return &LibraryHandler{lib: lib}
}

// ListFiles handles GET /api/midi-files and returns {key: [files]}.
func (h *LibraryHandler) ListFiles(w http.ResponseWriter, r *http.Request) {
	files, err := h.lib.Files()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list MIDI files")
		return
	}
	writeJSON(w, http.StatusOK, files)
}

// ServeFile handles GET /api/midi-file/{key}/{file}.
func (h *LibraryHandler) ServeFile(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	path, err := h.lib.Resolve(vars["key"], vars["file"])
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid MIDI file path")
		return
	}
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			writeError(w, http.StatusNotFound, "MIDI file not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to open MIDI file")
		return
	}

	w.Header().Set("Content-Type", "audio/midi")
	http.ServeFile(w, r, path)
}
