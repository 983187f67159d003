package store

import (
	"database/sql"
	"time"

	"github.com/google/uuid"
)

// Transcript is a final speech recognition result.
type Transcript struct {
	ID        string    `json:"id"`
	SessionID string    `json:"session_id"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"created_at"`
}

// TranscriptRepository provides access to recorded transcripts.
type TranscriptRepository struct {
	db *sql.DB
}

// Transcripts returns the transcript repository for this store.
func (s *Store) Transcripts() *TranscriptRepository {
	return &TranscriptRepository{db: s.db}
}

// Create inserts t, assigning an ID and timestamp when they are empty.
func (r *TranscriptRepository) Create(t *Transcript) error {
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	if t.CreatedAt.IsZero() {
		t.CreatedAt = time.Now().UTC()
	}

	_, err := r.db.Exec(
		`INSERT INTO transcripts (id, session_id, text, created_at) VALUES (?, ?, ?, ?)`,
		t.ID, t.SessionID, t.Text, t.CreatedAt,
	)
	return err
}

// List returns the most recent transcripts, newest first. When sessionID is
// non-empty only that session's transcripts are returned.
func (r *TranscriptRepository) List(sessionID string, limit int) ([]*Transcript, error) {
	if limit <= 0 {
		limit = DefaultListLimit
	}

	query := `SELECT id, session_id, text, created_at FROM transcripts`
	args := []any{}
	if sessionID != "" {
		query += ` WHERE session_id = ?`
		args = append(args, sessionID)
	}
	query += ` ORDER BY created_at DESC, rowid DESC LIMIT ?`
	args = append(args, limit)

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var transcripts []*Transcript
	for rows.Next() {
		t := &Transcript{}
		if err := rows.Scan(&t.ID, &t.SessionID, &t.Text, &t.CreatedAt); err != nil {
			return nil, err
		}
		transcripts = append(transcripts, t)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return transcripts, nil
}
