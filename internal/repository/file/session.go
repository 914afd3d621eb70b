package file

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/Rrens/ai-interviewer/internal/domain"
)

const ext = ".json"

// ErrInvalidSessionID is returned for ids that cannot be used as file names
var ErrInvalidSessionID = errors.New("invalid session id")

// SessionRepository stores each session as <dir>/<id>.json
type SessionRepository struct {
	dir string
}

// NewSessionRepository creates dir if needed
func NewSessionRepository(dir string) (*SessionRepository, error) {
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("failed to create session directory: %w", err)
	}
	return &SessionRepository{dir: dir}, nil
}

func (r *SessionRepository) path(id string) (string, error) {
	if id == "" || id == "." || id == ".." || strings.ContainsAny(id, `/\`) {
		return "", fmt.Errorf("%w: %q", ErrInvalidSessionID, id)
	}
	return filepath.Join(r.dir, id+ext), nil
}

func (r *SessionRepository) Load(ctx context.Context, id string) (*domain.Session, error) {
	p, err := r.path(id)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(p)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, domain.ErrSessionNotFound
		}
		return nil, fmt.Errorf("failed to read session %s: %w", id, err)
	}

	var s domain.Session
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("failed to decode session %s: %w", id, err)
	}
	return &s, nil
}

// Save writes to a temp file and renames it over the old document
func (r *SessionRepository) Save(ctx context.Context, session *domain.Session) error {
	p, err := r.path(session.SessionID)
	if err != nil {
		return err
	}

	data, err := json.MarshalIndent(session, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode session %s: %w", session.SessionID, err)
	}

	tmp, err := os.CreateTemp(r.dir, session.SessionID+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write session %s: %w", session.SessionID, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to write session %s: %w", session.SessionID, err)
	}

	if err := os.Rename(tmp.Name(), p); err != nil {
		return fmt.Errorf("failed to save session %s: %w", session.SessionID, err)
	}
	return nil
}

func (r *SessionRepository) Delete(ctx context.Context, id string) error {
	p, err := r.path(id)
	if err != nil {
		return err
	}
	if err := os.Remove(p); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to delete session %s: %w", id, err)
	}
	return nil
}

func (r *SessionRepository) List(ctx context.Context) ([]string, error) {
	entries, err := os.ReadDir(r.dir)
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}

	ids := make([]string, 0, len(entries))
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasSuffix(name, ext) {
			continue
		}
		ids = append(ids, strings.TrimSuffix(name, ext))
	}
	sort.Strings(ids)
	return ids, nil
}

// Ping checks the directory is still reachable
func (r *SessionRepository) Ping(ctx context.Context) error {
	_, err := os.Stat(r.dir)
	return err
}
