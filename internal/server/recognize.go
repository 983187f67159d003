package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/ayusman/signroute/internal/app"
	"github.com/ayusman/signroute/internal/capture"
	"github.com/ayusman/signroute/internal/detector"
	"github.com/ayusman/signroute/internal/pipeline"
	"github.com/ayusman/signroute/internal/server/api"
	"github.com/ayusman/signroute/internal/worker"
)

// maxFrameBytes bounds uploaded frames and landmark payloads.
const maxFrameBytes = 8 << 20

// predictionResponse is the reply to a submitted frame. Prediction is null
// unless a label was decided.
type predictionResponse struct {
	Prediction *string         `json:"prediction"`
	Reason     pipeline.Reason `json:"reason"`
	Confidence float32         `json:"confidence"`
	Index      int             `json:"index"`
	Hands      int             `json:"hands"`
}

type statusResponse struct {
	Enabled   bool                 `json:"enabled"`
	Running   bool                 `json:"running"`
	Listening bool                 `json:"listening"`
	SessionID string               `json:"session_id,omitempty"`
	Last      *pipeline.Prediction `json:"last"`
	LastAt    *time.Time           `json:"last_at"`
	Stats     app.Stats            `json:"stats"`
}

// handleFrame handles POST /api/frame: an encoded image body with an
// optional ?rotation= (default 90).
func (s *Server) handleFrame(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		api.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	rotation := capture.DefaultRotation
	if raw := r.URL.Query().Get("rotation"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || !capture.ValidRotation(n) {
			api.WriteError(w, http.StatusBadRequest, "rotation must be 0, 90, 180 or 270")
			return
		}
		rotation = n
	}

	data, err := io.ReadAll(io.LimitReader(r.Body, maxFrameBytes+1))
	if err != nil {
		api.WriteError(w, http.StatusBadRequest, "Failed to read body")
		return
	}
	if len(data) > maxFrameBytes {
		api.WriteError(w, http.StatusRequestEntityTooLarge, "Frame too large")
		return
	}

	frame, err := capture.Decode(data, rotation)
	if err != nil {
		api.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	ch, err := s.config.App.SubmitFrame(frame)
	s.respondResult(w, r, ch, err)
}

// handleLandmarks handles POST /api/landmarks with already-detected hands.
func (s *Server) handleLandmarks(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		api.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	data, err := io.ReadAll(io.LimitReader(r.Body, maxFrameBytes))
	if err != nil {
		api.WriteError(w, http.StatusBadRequest, "Failed to read body")
		return
	}

	hands, err := detector.DecodeHands(data)
	if err != nil {
		api.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	ch, err := s.config.App.SubmitHands(hands)
	s.respondResult(w, r, ch, err)
}

// respondResult waits for a submitted frame and writes its prediction.
func (s *Server) respondResult(w http.ResponseWriter, r *http.Request, ch <-chan worker.Result, err error) {
	if err != nil {
		switch {
		case errors.Is(err, worker.ErrQueueFull):
			api.WriteError(w, http.StatusServiceUnavailable, "Recognizer busy, frame dropped")
		case errors.Is(err, worker.ErrStopped), errors.Is(err, app.ErrNotRunning):
			api.WriteError(w, http.StatusServiceUnavailable, "Recognizer stopped")
		default:
			api.WriteError(w, http.StatusInternalServerError, err.Error())
		}
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), s.config.ResultTimeout)
	defer cancel()

	var res worker.Result
	select {
	case res = <-ch:
	case <-ctx.Done():
		api.WriteError(w, http.StatusGatewayTimeout, "Timed out waiting for result")
		return
	}

	if res.Err != nil {
		status := http.StatusInternalServerError
		if errors.Is(res.Err, detector.ErrLandmarkCount) || errors.Is(res.Err, detector.ErrNonFinite) {
			status = http.StatusUnprocessableEntity
		}
		api.WriteError(w, status, res.Err.Error())
		return
	}

	pred := res.Prediction
	response := predictionResponse{
		Reason:     pred.Reason,
		Confidence: pred.Confidence,
		Index:      pred.Index,
		Hands:      pred.Hands,
	}
	if pred.Decided() {
		label := pred.Label
		response.Prediction = &label
	}
	api.WriteJSON(w, http.StatusOK, response)
}

// handleReset handles POST /api/reset.
func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		api.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), s.config.ResultTimeout)
	defer cancel()

	if err := s.config.App.Reset(ctx); err != nil {
		status := http.StatusInternalServerError
		switch {
		case errors.Is(err, worker.ErrStopped), errors.Is(err, app.ErrNotRunning):
			status = http.StatusServiceUnavailable
		case errors.Is(err, context.DeadlineExceeded):
			status = http.StatusGatewayTimeout
		}
		api.WriteError(w, status, err.Error())
		return
	}

	api.WriteJSON(w, http.StatusOK, map[string]string{"status": "reset"})
}

// handleLabels handles GET /api/labels.
func (s *Server) handleLabels(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		api.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}
	api.WriteJSON(w, http.StatusOK, map[string][]string{"labels": s.config.App.Labels()})
}

// handleStatus handles GET /api/status.
func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		api.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	a := s.config.App
	listening, sessionID := a.Listening()
	response := statusResponse{
		Enabled:   a.IsEnabled(),
		Running:   a.IsRunning(),
		Listening: listening,
		SessionID: sessionID,
		Stats:     a.Stats(),
	}
	if last, at := a.Last(); !at.IsZero() {
		response.Last = &last
		response.LastAt = &at
	}

	api.WriteJSON(w, http.StatusOK, response)
}

// handleEnabled handles GET and POST /api/enabled to pause camera capture.
func (s *Server) handleEnabled(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
	case http.MethodPost:
		var req struct {
			Enabled *bool `json:"enabled"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Enabled == nil {
			api.WriteError(w, http.StatusBadRequest, `Body must be {"enabled": true|false}`)
			return
		}
		s.config.App.SetEnabled(*req.Enabled)
	default:
		api.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	api.WriteJSON(w, http.StatusOK, map[string]bool{"enabled": s.config.App.IsEnabled()})
}
