// Package sqlstore keeps session documents in a single SQL table through
// database/sql. It backs both the sqlite and the mysql storage backends.
package sqlstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/go-sql-driver/mysql"
	_ "modernc.org/sqlite"

	"github.com/Rrens/ai-interviewer/internal/domain"
)

// Dialect holds the statements that differ between drivers
type Dialect struct {
	Name   string
	Schema string
	Upsert string
}

var SQLite = Dialect{
	Name: "sqlite",
	Schema: `CREATE TABLE IF NOT EXISTS interview_sessions (
		id           TEXT PRIMARY KEY,
		interview_id TEXT NOT NULL,
		document     TEXT NOT NULL,
		updated_at   INTEGER NOT NULL
	)`,
	Upsert: `INSERT INTO interview_sessions (id, interview_id, document, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			interview_id = excluded.interview_id,
			document = excluded.document,
			updated_at = excluded.updated_at`,
}

var MySQL = Dialect{
	Name: "mysql",
	Schema: `CREATE TABLE IF NOT EXISTS interview_sessions (
		id           VARCHAR(128) NOT NULL PRIMARY KEY,
		interview_id VARCHAR(128) NOT NULL,
		document     LONGTEXT NOT NULL,
		updated_at   BIGINT NOT NULL
	)`,
	Upsert: `INSERT INTO interview_sessions (id, interview_id, document, updated_at)
		VALUES (?, ?, ?, ?)
		ON DUPLICATE KEY UPDATE
			interview_id = VALUES(interview_id),
			document = VALUES(document),
			updated_at = VALUES(updated_at)`,
}

// SessionRepository implements domain.SessionStore on database/sql
type SessionRepository struct {
	db      *sql.DB
	dialect Dialect
}

// OpenSQLite opens (and creates) the database file at path
func OpenSQLite(ctx context.Context, path string) (*SessionRepository, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return nil, fmt.Errorf("failed to create sqlite directory: %w", err)
		}
	}

	dsn := fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(1) // SQLite only supports one writer
	db.SetMaxIdleConns(1)

	return newRepository(ctx, db, SQLite)
}

// OpenMySQL connects with a go-sql-driver DSN
func OpenMySQL(ctx context.Context, dsn string) (*SessionRepository, error) {
	if dsn == "" {
		return nil, errors.New("mysql dsn is required")
	}

	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(2)

	return newRepository(ctx, db, MySQL)
}

func newRepository(ctx context.Context, db *sql.DB, dialect Dialect) (*SessionRepository, error) {
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if _, err := db.ExecContext(ctx, dialect.Schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create %s schema: %w", dialect.Name, err)
	}

	return &SessionRepository{db: db, dialect: dialect}, nil
}

func (r *SessionRepository) Load(ctx context.Context, id string) (*domain.Session, error) {
	var doc string
	err := r.db.QueryRowContext(ctx,
		`SELECT document FROM interview_sessions WHERE id = ?`, id,
	).Scan(&doc)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrSessionNotFound
		}
		return nil, fmt.Errorf("failed to get session: %w", err)
	}

	var s domain.Session
	if err := json.Unmarshal([]byte(doc), &s); err != nil {
		return nil, fmt.Errorf("failed to decode session %s: %w", id, err)
	}
	return &s, nil
}

func (r *SessionRepository) Save(ctx context.Context, session *domain.Session) error {
	doc, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("failed to encode session %s: %w", session.SessionID, err)
	}

	_, err = r.db.ExecContext(ctx, r.dialect.Upsert,
		session.SessionID,
		session.InterviewID,
		string(doc),
		session.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}
	return nil
}

func (r *SessionRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM interview_sessions WHERE id = ?`, id); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}

func (r *SessionRepository) List(ctx context.Context) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id FROM interview_sessions ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}
	defer rows.Close()

	ids := []string{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan session id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (r *SessionRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

func (r *SessionRepository) Close() error {
	return r.db.Close()
}
