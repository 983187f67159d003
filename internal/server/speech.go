package server

import (
	"errors"
	"net/http"

	"github.com/ayusman/signroute/internal/server/api"
	"github.com/ayusman/signroute/internal/speech"
)

type speechResponse struct {
	SessionID string `json:"session_id"`
	Listening bool   `json:"listening"`
}

// handleSpeechStart handles POST /api/speech/start.
func (s *Server) handleSpeechStart(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		api.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	id, err := s.config.App.StartListening()
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, speech.ErrNoRecognizer) {
			status = http.StatusServiceUnavailable
		}
		api.WriteError(w, status, err.Error())
		return
	}

	api.WriteJSON(w, http.StatusOK, speechResponse{SessionID: id, Listening: true})
}

// handleSpeechStop handles POST /api/speech/stop.
func (s *Server) handleSpeechStop(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		api.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	id := s.config.App.StopListening()
	api.WriteJSON(w, http.StatusOK, speechResponse{SessionID: id, Listening: false})
}
