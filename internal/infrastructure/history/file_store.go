package history

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"sync"

	"github.com/doeshing/notchd/internal/domain"
	"github.com/doeshing/notchd/internal/pkg/filesystem"
	"github.com/doeshing/notchd/internal/ports"
)

// FileStore appends transcript entries to a jsonl file.
type FileStore struct {
	path string
	mu   sync.Mutex
}

// NewFileStore creates a new transcript store under
// ~/.notchd/transcript/transcript.jsonl.
func NewFileStore() *FileStore {
	return &FileStore{
		path: filepath.Join(filesystem.UserHomeDir(), ".notchd", "transcript", "transcript.jsonl"),
	}
}

// Save implements ports.TranscriptRepository.
func (f *FileStore) Save(msg domain.ChatMessage) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := os.MkdirAll(filepath.Dir(f.path), domain.DirectoryPermissions); err != nil {
		return err
	}
	file, err := os.OpenFile(f.path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	defer file.Close()
	data, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	data = append(data, '\n')
	_, err = file.Write(data)
	return err
}

// Recent loads the newest limit entries (best-effort), oldest first.
func (f *FileStore) Recent(limit int) ([]domain.ChatMessage, error) {
	data, err := os.ReadFile(f.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	lines := bytes.Split(bytes.TrimSpace(data), []byte("\n"))
	var messages []domain.ChatMessage
	for _, line := range lines {
		if len(line) == 0 {
			continue
		}
		var msg domain.ChatMessage
		if err := json.Unmarshal(line, &msg); err == nil {
			messages = append(messages, msg)
		}
	}
	if limit > 0 && len(messages) > limit {
		messages = messages[len(messages)-limit:]
	}
	return messages, nil
}

// Clear removes the transcript file.
func (f *FileStore) Clear() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := os.Remove(f.path); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// Path returns the backing file path.
func (f *FileStore) Path() string {
	return f.path
}

var _ ports.TranscriptRepository = (*FileStore)(nil)
