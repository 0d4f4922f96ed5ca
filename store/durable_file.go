package store

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"sync"

	"github.com/pkg/errors"
)

const sessionFileName = "session.json"

var _ DurableStore = (*FileDurable)(nil)

// FileDurable persists session keys as a single JSON file under the data folder.
// This is the default backend for single-process deployments. Writes go through
// a temp-file rename so a crash mid-write leaves the previous file intact.
type FileDurable struct {
	path   string
	values map[string]string
	lock   sync.RWMutex
}

// NewFileDurable loads (or creates) the session file under folder. An
// unreadable or corrupt file is treated as empty rather than an error; the
// session store's read path self-heals from there.
func NewFileDurable(folder string) (*FileDurable, error) {
	if err := os.MkdirAll(folder, 0o700); err != nil {
		return nil, errors.Wrap(err, "[NewFileDurable] MkdirAll")
	}

	s := &FileDurable{
		path:   filepath.Join(folder, sessionFileName),
		values: make(map[string]string),
	}

	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return s, nil
		}
		return nil, errors.Wrap(err, "[NewFileDurable] ReadFile")
	}
	if err := json.Unmarshal(data, &s.values); err != nil {
		// Corrupt file, start fresh
		s.values = make(map[string]string)
	}
	return s, nil
}

func (s *FileDurable) Get(_ context.Context, key string) (string, bool, error) {
	s.lock.RLock()
	defer s.lock.RUnlock()
	v, ok := s.values[key]
	return v, ok, nil
}

func (s *FileDurable) Set(_ context.Context, key, value string) error {
	s.lock.Lock()
	defer s.lock.Unlock()
	s.values[key] = value
	return s.flush()
}

func (s *FileDurable) Delete(_ context.Context, key string) error {
	s.lock.Lock()
	defer s.lock.Unlock()
	if _, ok := s.values[key]; !ok {
		return nil
	}
	delete(s.values, key)
	return s.flush()
}

// flush writes the current map to disk. Callers must hold the write lock.
func (s *FileDurable) flush() error {
	data, err := json.Marshal(s.values)
	if err != nil {
		return errors.Wrap(err, "[FileDurable.flush] Marshal")
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return errors.Wrap(err, "[FileDurable.flush] WriteFile")
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return errors.Wrap(err, "[FileDurable.flush] Rename")
	}
	return nil
}
