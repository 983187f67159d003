package api

import (
	"net/http"

	"github.com/ayusman/signroute/internal/store"
)

const timeLayout = "2006-01-02T15:04:05Z07:00"

// DecisionsHandler serves GET /api/decisions.
type DecisionsHandler struct {
	store *store.Store
}

// NewDecisionsHandler creates a new DecisionsHandler with the given store.
func NewDecisionsHandler(s *store.Store) *DecisionsHandler {
	return &DecisionsHandler{store: s}
}

type decisionResponse struct {
	ID         string  `json:"id"`
	Label      string  `json:"label"`
	LabelIndex int     `json:"label_index"`
	Confidence float64 `json:"confidence"`
	Hands      int     `json:"hands"`
	CreatedAt  string  `json:"created_at"`
}

type listDecisionsResponse struct {
	Decisions []decisionResponse `json:"decisions"`
}

func (h *DecisionsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	limit, ok := parseLimit(r)
	if !ok {
		WriteError(w, http.StatusBadRequest, "limit must be a non-negative integer")
		return
	}

	decisions, err := h.store.Decisions().List(limit)
	if err != nil {
		WriteError(w, http.StatusInternalServerError, "Failed to list decisions")
		return
	}

	response := listDecisionsResponse{
		Decisions: make([]decisionResponse, 0, len(decisions)),
	}
	for _, d := range decisions {
		response.Decisions = append(response.Decisions, decisionResponse{
			ID:         d.ID,
			Label:      d.Label,
			LabelIndex: d.LabelIndex,
			Confidence: d.Confidence,
			Hands:      d.Hands,
			CreatedAt:  d.CreatedAt.Format(timeLayout),
		})
	}

	WriteJSON(w, http.StatusOK, response)
}

// TranscriptsHandler serves GET /api/transcripts, optionally filtered by
// ?session=.
type TranscriptsHandler struct {
	store *store.Store
}

// NewTranscriptsHandler creates a new TranscriptsHandler with the given store.
func NewTranscriptsHandler(s *store.Store) *TranscriptsHandler {
	return &TranscriptsHandler{store: s}
}

type transcriptResponse struct {
	ID        string `json:"id"`
	SessionID string `json:"session_id"`
	Text      string `json:"text"`
	CreatedAt string `json:"created_at"`
}

type listTranscriptsResponse struct {
	Transcripts []transcriptResponse `json:"transcripts"`
}

func (h *TranscriptsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	limit, ok := parseLimit(r)
	if !ok {
		WriteError(w, http.StatusBadRequest, "limit must be a non-negative integer")
		return
	}

	transcripts, err := h.store.Transcripts().List(r.URL.Query().Get("session"), limit)
	if err != nil {
		WriteError(w, http.StatusInternalServerError, "Failed to list transcripts")
		return
	}

	response := listTranscriptsResponse{
		Transcripts: make([]transcriptResponse, 0, len(transcripts)),
	}
	for _, t := range transcripts {
		response.Transcripts = append(response.Transcripts, transcriptResponse{
			ID:        t.ID,
			SessionID: t.SessionID,
			Text:      t.Text,
			CreatedAt: t.CreatedAt.Format(timeLayout),
		})
	}

	WriteJSON(w, http.StatusOK, response)
}
