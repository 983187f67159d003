// Package speech runs an offline speech recognizer and relays its partial and
// final hypotheses to the rest of the application.
package speech

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/google/uuid"
)

var (
	// ErrNoRecognizer is returned by Start when no recognizer is configured.
	ErrNoRecognizer = errors.New("no speech recognizer configured")
	// ErrEmptyHypothesis is returned by ParseHypothesis for results with no text field.
	ErrEmptyHypothesis = errors.New("hypothesis has no text")
)

// Hypothesis is one recognizer result. Partial hypotheses are revised as more
// audio arrives; a final one closes an utterance.
type Hypothesis struct {
	Text  string `json:"text"`
	Final bool   `json:"final"`
}

// Recognizer produces hypotheses until ctx is cancelled or the audio source
// fails. Implementations call emit from a single goroutine.
type Recognizer interface {
	Listen(ctx context.Context, emit func(Hypothesis)) error
}

// ParseHypothesis decodes a recognizer JSON result: {"partial": "..."} for
// in-progress text and {"text": "..."} for a final result.
func ParseHypothesis(raw []byte) (Hypothesis, error) {
	var v struct {
		Partial *string `json:"partial"`
		Text    *string `json:"text"`
	}
	if err := json.Unmarshal(raw, &v); err != nil {
		return Hypothesis{}, fmt.Errorf("parse hypothesis: %w", err)
	}

	switch {
	case v.Text != nil:
		return Hypothesis{Text: strings.TrimSpace(*v.Text), Final: true}, nil
	case v.Partial != nil:
		return Hypothesis{Text: strings.TrimSpace(*v.Partial)}, nil
	default:
		return Hypothesis{}, ErrEmptyHypothesis
	}
}

// Session controls one recognizer. At most one listening run is active at a
// time; each run gets a fresh session ID.
type Session struct {
	rec     Recognizer
	logger  *slog.Logger
	handler func(sessionID string, h Hypothesis)

	mu     sync.Mutex
	id     string
	cancel context.CancelFunc
	done   chan struct{}
}

// NewSession creates a Session. handler receives every hypothesis tagged with
// the ID of the run that produced it. rec may be nil, in which case Start
// fails with ErrNoRecognizer.
func NewSession(rec Recognizer, handler func(sessionID string, h Hypothesis), logger *slog.Logger) *Session {
	if logger == nil {
		logger = slog.Default()
	}
	if handler == nil {
		handler = func(string, Hypothesis) {}
	}
	return &Session{rec: rec, logger: logger, handler: handler}
}

// Start begins listening and returns the session ID. If a run is already
// active its ID is returned and nothing else happens.
func (s *Session) Start() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.rec == nil {
		return "", ErrNoRecognizer
	}
	if s.cancel != nil {
		return s.id, nil
	}

	ctx, cancel := context.WithCancel(context.Background())
	id := uuid.NewString()
	done := make(chan struct{})

	s.id = id
	s.cancel = cancel
	s.done = done

	go s.listen(ctx, id, done)

	s.logger.Info("speech session started", "session_id", id)
	return id, nil
}

func (s *Session) listen(ctx context.Context, id string, done chan struct{}) {
	defer close(done)

	err := s.rec.Listen(ctx, func(h Hypothesis) {
		if h.Text == "" {
			return
		}
		s.handler(id, h)
	})
	if err != nil && !errors.Is(err, context.Canceled) {
		s.logger.Warn("speech recognizer stopped", "session_id", id, "error", err)
	}

	s.mu.Lock()
	if s.id == id {
		s.cancel()
		s.id = ""
		s.cancel = nil
		s.done = nil
	}
	s.mu.Unlock()
}

// Stop ends the active run and waits for the recognizer to return. It
// reports the ID of the stopped run, or "" if nothing was listening.
func (s *Session) Stop() string {
	s.mu.Lock()
	if s.cancel == nil {
		s.mu.Unlock()
		return ""
	}
	id := s.id
	cancel := s.cancel
	done := s.done
	s.mu.Unlock()

	cancel()
	<-done

	s.logger.Info("speech session stopped", "session_id", id)
	return id
}

// Listening reports whether a run is active.
func (s *Session) Listening() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cancel != nil
}

// ID returns the active session ID, or "".
func (s *Session) ID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.id
}
