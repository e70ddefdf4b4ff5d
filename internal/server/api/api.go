// Package api provides the JSON handlers of the piano games web front end.
package api

import (
	"encoding/json"
	"net/http"

	"github.com/ayusman/pianogames/internal/config"
)

type errorResponse struct {
	Error string `json:"error"`
}

type listGamesResponse struct {
	Games []config.Game `json:"games"`
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		json.NewEncoder(w).Encode(data)
	}
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message})
}

// ListGames handles GET /api/games.
func ListGames(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, listGamesResponse{Games: config.Games})
}
