package app

import (
	"github.com/ayusman/signroute/internal/events"
	"github.com/ayusman/signroute/internal/speech"
	"github.com/ayusman/signroute/internal/store"
)

// StartListening starts a speech session and returns its ID. Calling it
// while already listening returns the current session.
func (a *App) StartListening() (string, error) {
	return a.speech.Start()
}

// StopListening ends the speech session and returns its ID, or "" if none
// was active.
func (a *App) StopListening() string {
	return a.speech.Stop()
}

// Listening reports whether a speech session is active, and its ID.
func (a *App) Listening() (bool, string) {
	id := a.speech.ID()
	return id != "", id
}

// handleHypothesis relays recognizer output as UI events and records final
// transcripts.
func (a *App) handleHypothesis(sessionID string, h speech.Hypothesis) {
	method := events.MethodPartialResult
	if h.Final {
		method = events.MethodFinalResult
	}
	a.hub.Publish(events.Event{
		Method:    method,
		Text:      h.Text,
		SessionID: sessionID,
	})

	if !h.Final {
		return
	}

	a.logger.Info("speech recognized", "session_id", sessionID, "text", h.Text)

	if s := a.config.Store; s != nil {
		if err := s.Transcripts().Create(&store.Transcript{SessionID: sessionID, Text: h.Text}); err != nil {
			a.logger.Error("failed to store transcript", "session_id", sessionID, "error", err)
		}
	}
	if pub := a.config.Publisher; pub != nil {
		if err := pub.PublishTranscript(sessionID, h.Text); err != nil {
			a.logger.Warn("failed to publish transcript", "session_id", sessionID, "error", err)
		}
	}
}
