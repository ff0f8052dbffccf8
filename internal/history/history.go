// Package history provides SQLite-based persistence for chat transcripts.
// If opening the DB fails, the store falls back to in-memory storage.
package history

import (
	"context"
	"database/sql"
	"sync"
	"time"

	_ "github.com/glebarez/go-sqlite"

	"github.com/comigor/openai-chat-go/internal/logger"
	"github.com/comigor/openai-chat-go/pkg/openai"
)

// Store records session transcripts. It implements openai.Recorder.
type Store struct {
	db *sql.DB

	mu       sync.Mutex
	messages []Message // in-memory fallback
	nextID   int64
}

var _ openai.Recorder = (*Store)(nil)

// Open opens (or creates) the SQLite database at path and the messages table.
func Open(path string) *Store {
	db, err := sql.Open("sqlite", "file:"+path+"?_pragma=busy_timeout(10000)")
	if err != nil {
		logger.L.Warn("sqlite open failed; using in-memory history", "error", err)
		return &Store{}
	}
	if _, err = db.Exec(`CREATE TABLE IF NOT EXISTS messages (
        id INTEGER PRIMARY KEY AUTOINCREMENT,
        session_id TEXT,
        role TEXT,
        content TEXT,
        created_at DATETIME
    );`); err != nil {
		logger.L.Warn("sqlite table creation failed; using in-memory history", "path", path, "error", err)
		db.Close()
		return &Store{}
	}
	logger.L.Info("sqlite history DB initialized", "path", path)
	return &Store{db: db}
}

// Persistent reports whether the store is backed by SQLite.
func (s *Store) Persistent() bool { return s.db != nil }

// Record stores a message of the given session.
func (s *Store) Record(ctx context.Context, sessionID string, msg openai.Message) error {
	now := time.Now().UTC()
	if s.db != nil {
		_, err := s.db.ExecContext(ctx, `INSERT INTO messages (session_id, role, content, created_at) VALUES (?,?,?,?);`,
			sessionID, string(msg.Role), msg.Content, now)
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	s.messages = append(s.messages, Message{
		ID:        s.nextID,
		SessionID: sessionID,
		Role:      string(msg.Role),
		Content:   msg.Content,
		CreatedAt: now,
	})
	return nil
}

// List returns all messages of a session in chronological order.
func (s *Store) List(ctx context.Context, sessionID string) ([]Message, error) {
	if s.db == nil {
		s.mu.Lock()
		defer s.mu.Unlock()
		var out []Message
		for _, m := range s.messages {
			if m.SessionID == sessionID {
				out = append(out, m)
			}
		}
		return out, nil
	}

	rows, err := s.db.QueryContext(ctx, `SELECT id, session_id, role, content, created_at FROM messages WHERE session_id = ? ORDER BY id ASC;`, sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Message
	for rows.Next() {
		var m Message
		if err := rows.Scan(&m.ID, &m.SessionID, &m.Role, &m.Content, &m.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

// Transcript returns a session as chat messages, ready to be pushed into a
// new openai.Session.
func (s *Store) Transcript(ctx context.Context, sessionID string) ([]openai.Message, error) {
	stored, err := s.List(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	out := make([]openai.Message, len(stored))
	for i, m := range stored {
		out[i] = openai.NewMessage(openai.Role(m.Role), m.Content)
	}
	return out, nil
}

// Close releases the database handle.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}
