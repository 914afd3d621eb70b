package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Rrens/ai-interviewer/internal/domain"
)

// SessionRepository stores session documents as JSONB rows
type SessionRepository struct {
	pool *pgxpool.Pool
}

// NewSessionRepository creates a new session repository
func NewSessionRepository(pool *pgxpool.Pool) *SessionRepository {
	return &SessionRepository{pool: pool}
}

func (r *SessionRepository) Load(ctx context.Context, id string) (*domain.Session, error) {
	query := `SELECT document FROM interview_sessions WHERE id = $1`

	var doc []byte
	if err := r.pool.QueryRow(ctx, query, id).Scan(&doc); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrSessionNotFound
		}
		return nil, fmt.Errorf("failed to get session: %w", err)
	}

	var s domain.Session
	if err := json.Unmarshal(doc, &s); err != nil {
		return nil, fmt.Errorf("failed to decode session %s: %w", id, err)
	}
	return &s, nil
}

func (r *SessionRepository) Save(ctx context.Context, session *domain.Session) error {
	doc, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("failed to encode session %s: %w", session.SessionID, err)
	}

	query := `
		INSERT INTO interview_sessions (id, interview_id, document, terminated, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (id) DO UPDATE SET
			document = EXCLUDED.document,
			terminated = EXCLUDED.terminated,
			updated_at = EXCLUDED.updated_at
	`
	_, err = r.pool.Exec(ctx, query,
		session.SessionID,
		session.InterviewID,
		doc,
		session.Terminated,
		unixTime(session.CreatedAt),
		unixTime(session.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}
	return nil
}

func (r *SessionRepository) Delete(ctx context.Context, id string) error {
	query := `DELETE FROM interview_sessions WHERE id = $1`
	if _, err := r.pool.Exec(ctx, query, id); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}

func (r *SessionRepository) List(ctx context.Context) ([]string, error) {
	rows, err := r.pool.Query(ctx, `SELECT id FROM interview_sessions ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}

	ids, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("failed to scan session ids: %w", err)
	}
	return ids, nil
}

func (r *SessionRepository) Ping(ctx context.Context) error {
	return r.pool.Ping(ctx)
}

func unixTime(ts int64) time.Time {
	if ts == 0 {
		return time.Now().UTC()
	}
	return time.Unix(ts, 0).UTC()
}
