package client

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

const (
	storageNamespace  = "atlas_assistant"
	maxStoredMessages = 50
)

// fileStorage persists one session as JSON under a namespaced file name.
// An empty dir disables persistence.
type fileStorage struct {
	path string
}

func newFileStorage(dir, userSessionID string) *fileStorage {
	if dir == "" {
		return &fileStorage{}
	}
	name := fmt.Sprintf("%s.%s.json", storageNamespace, userSessionID)
	return &fileStorage{path: filepath.Join(dir, name)}
}

func (s *fileStorage) load() (*Session, error) {
	if s.path == "" {
		return nil, nil
	}
	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read session: %w", err)
	}

	var session Session
	if err := json.Unmarshal(data, &session); err != nil {
		return nil, fmt.Errorf("decode session: %w", err)
	}
	return &session, nil
}

// save writes the newest maxStoredMessages messages, skipping placeholders.
func (s *fileStorage) save(session Session) error {
	if s.path == "" {
		return nil
	}

	kept := make([]ChatMessage, 0, len(session.Messages))
	for _, m := range session.Messages {
		if !m.IsPlaceholder {
			kept = append(kept, m)
		}
	}
	if len(kept) > maxStoredMessages {
		kept = kept[len(kept)-maxStoredMessages:]
	}
	session.Messages = kept

	data, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("create session dir: %w", err)
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("write session: %w", err)
	}
	return os.Rename(tmp, s.path)
}
