package store

import (
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
)

// DefaultListLimit caps List queries when no limit is given.
const DefaultListLimit = 50

// Decision is a stabilized sign as recorded in history.
type Decision struct {
	ID         string    `json:"id"`
	Label      string    `json:"label"`
	LabelIndex int       `json:"label_index"`
	Confidence float64   `json:"confidence"`
	Hands      int       `json:"hands"`
	CreatedAt  time.Time `json:"created_at"`
}

// DecisionRepository provides access to recorded decisions.
type DecisionRepository struct {
	db *sql.DB
}

// Decisions returns the decision repository for this store.
func (s *Store) Decisions() *DecisionRepository {
	return &DecisionRepository{db: s.db}
}

// Create inserts d, assigning an ID and timestamp when they are empty.
func (r *DecisionRepository) Create(d *Decision) error {
	if d.ID == "" {
		d.ID = uuid.NewString()
	}
	if d.CreatedAt.IsZero() {
		d.CreatedAt = time.Now().UTC()
	}

	_, err := r.db.Exec(
		`INSERT INTO decisions (id, label, label_index, confidence, hands, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		d.ID, d.Label, d.LabelIndex, d.Confidence, d.Hands, d.CreatedAt,
	)
	return err
}

// GetByID retrieves a decision by its ID.
func (r *DecisionRepository) GetByID(id string) (*Decision, error) {
	d := &Decision{}
	err := r.db.QueryRow(
		`SELECT id, label, label_index, confidence, hands, created_at
		 FROM decisions WHERE id = ?`,
		id,
	).Scan(&d.ID, &d.Label, &d.LabelIndex, &d.Confidence, &d.Hands, &d.CreatedAt)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return d, nil
}

// List returns the most recent decisions, newest first.
func (r *DecisionRepository) List(limit int) ([]*Decision, error) {
	if limit <= 0 {
		limit = DefaultListLimit
	}

	rows, err := r.db.Query(
		`SELECT id, label, label_index, confidence, hands, created_at
		 FROM decisions ORDER BY created_at DESC, rowid DESC LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var decisions []*Decision
	for rows.Next() {
		d := &Decision{}
		if err := rows.Scan(&d.ID, &d.Label, &d.LabelIndex, &d.Confidence, &d.Hands, &d.CreatedAt); err != nil {
			return nil, err
		}
		decisions = append(decisions, d)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return decisions, nil
}

// Count returns how many decisions are recorded.
func (r *DecisionRepository) Count() (int, error) {
	var n int
	err := r.db.QueryRow(`SELECT COUNT(*) FROM decisions`).Scan(&n)
	return n, err
}

// DeleteBefore removes decisions older than t and returns how many were removed.
func (r *DecisionRepository) DeleteBefore(t time.Time) (int64, error) {
	result, err := r.db.Exec(`DELETE FROM decisions WHERE created_at < ?`, t.UTC())
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}
