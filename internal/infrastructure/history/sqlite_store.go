package history

import (
	"database/sql"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"github.com/doeshing/notchd/internal/domain"
	"github.com/doeshing/notchd/internal/pkg/filesystem"
	"github.com/doeshing/notchd/internal/ports"
)

// SQLiteStore persists the chat transcript in a SQLite database.
type SQLiteStore struct {
	db   *sql.DB
	path string
	mu   sync.Mutex
}

// NewSQLiteStore creates (or opens) the ~/.notchd/transcript/transcript.db
// database, falling back to a jsonl file store when SQLite is unusable.
func NewSQLiteStore() *SQLiteStore {
	path := filepath.Join(filesystem.UserHomeDir(), ".notchd", "transcript", "transcript.db")
	_ = os.MkdirAll(filepath.Dir(path), domain.DirectoryPermissions)
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return &SQLiteStore{path: path}
	}
	store := &SQLiteStore{db: db, path: path}
	if err := store.init(); err != nil {
		return &SQLiteStore{path: path}
	}
	return store
}

func (s *SQLiteStore) init() error {
	if s.db == nil {
		return os.ErrInvalid
	}
	_, err := s.db.Exec(`CREATE TABLE IF NOT EXISTS messages (
		id TEXT PRIMARY KEY,
		role TEXT,
		body TEXT,
		is_error INTEGER,
		timestamp TEXT
	);`)
	return err
}

// Save inserts a transcript entry.
func (s *SQLiteStore) Save(msg domain.ChatMessage) error {
	if s.db == nil {
		return s.fileStore().Save(msg)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := s.db.Exec(`INSERT OR REPLACE INTO messages (id, role, body, is_error, timestamp) VALUES (?, ?, ?, ?, ?)`,
		msg.ID,
		string(msg.Role),
		msg.Text,
		boolToInt(msg.IsError),
		msg.Timestamp.Format(domain.TimestampFormat),
	)
	return err
}

// Recent returns the newest entries in insertion order, oldest first.
func (s *SQLiteStore) Recent(limit int) ([]domain.ChatMessage, error) {
	if s.db == nil {
		return s.fileStore().Recent(limit)
	}
	if limit <= 0 {
		limit = domain.DefaultTranscriptDisplayLimit
	}
	rows, err := s.db.Query(`SELECT id, role, body, is_error, timestamp FROM messages
		ORDER BY datetime(timestamp) DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var messages []domain.ChatMessage
	for rows.Next() {
		var msg domain.ChatMessage
		var role, ts string
		var isError int
		if err := rows.Scan(&msg.ID, &role, &msg.Text, &isError, &ts); err != nil {
			return nil, err
		}
		msg.Role = domain.ChatRole(role)
		msg.IsError = isError == 1
		if t, err := time.Parse(domain.TimestampFormat, ts); err == nil {
			msg.Timestamp = t
		}
		messages = append(messages, msg)
	}

	// Reverse newest-first query order back to display order.
	for i, j := 0, len(messages)-1; i < j; i, j = i+1, j-1 {
		messages[i], messages[j] = messages[j], messages[i]
	}
	return messages, rows.Err()
}

// Clear deletes all transcript entries.
func (s *SQLiteStore) Clear() error {
	if s.db == nil {
		return s.fileStore().Clear()
	}
	_, err := s.db.Exec("DELETE FROM messages")
	return err
}

func (s *SQLiteStore) fileStore() *FileStore {
	return &FileStore{path: s.path + ".jsonl"}
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

var _ ports.TranscriptRepository = (*SQLiteStore)(nil)
