package auth

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/bytedance/sonic"

	"cryptics.app/cryptics-client/constants"
	"cryptics.app/cryptics-client/model"
)

// Store persists the session credentials somewhere every agent process
// pointed at the same state dir can see. The refresh slot is the shared
// "refresh in progress" marker: it is advisory, not a strict mutex. Two
// processes racing the acquire can in rare cases both refresh, and the loser
// self-heals on its next 401.
type Store interface {
	Load() (*model.AuthTokens, error)
	Save(tokens *model.AuthTokens) error
	Clear() error

	AcquireRefreshSlot() (bool, error)
	ReleaseRefreshSlot() error
	RefreshInProgress() (bool, error)
}

// A refresh flag older than this was left behind by a crashed process and is
// broken rather than honored.
const staleFlagAge = 30 * time.Second

type FileStore struct {
	dir string
}

func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, err
	}
	return &FileStore{dir: dir}, nil
}

func (s *FileStore) tokensPath() string {
	return filepath.Join(s.dir, constants.AuthStateFile)
}

func (s *FileStore) flagPath() string {
	return filepath.Join(s.dir, constants.RefreshFlagFile)
}

func (s *FileStore) Load() (*model.AuthTokens, error) {
	data, err := os.ReadFile(s.tokensPath())
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}

	var tokens model.AuthTokens
	if err := sonic.Unmarshal(data, &tokens); err != nil {
		return nil, err
	}
	if tokens.AccessToken == "" {
		return nil, nil
	}
	return &tokens, nil
}

func (s *FileStore) Save(tokens *model.AuthTokens) error {
	data, err := sonic.Marshal(tokens)
	if err != nil {
		return err
	}

	// write-then-rename so a concurrent Load never sees a torn file
	tmp := s.tokensPath() + ".tmp"
	if err := os.WriteFile(tmp, data, 0600); err != nil {
		return err
	}
	return os.Rename(tmp, s.tokensPath())
}

func (s *FileStore) Clear() error {
	err := os.Remove(s.tokensPath())
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}

func (s *FileStore) AcquireRefreshSlot() (bool, error) {
	f, err := os.OpenFile(s.flagPath(), os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0600)
	if err == nil {
		f.Close()
		return true, nil
	}
	if !errors.Is(err, fs.ErrExist) {
		return false, err
	}

	// flag exists; break it if its owner is long gone
	info, statErr := os.Stat(s.flagPath())
	if statErr != nil {
		if errors.Is(statErr, fs.ErrNotExist) {
			return s.AcquireRefreshSlot()
		}
		return false, statErr
	}
	if time.Since(info.ModTime()) > staleFlagAge {
		os.Remove(s.flagPath())
		return s.AcquireRefreshSlot()
	}

	return false, nil
}

func (s *FileStore) ReleaseRefreshSlot() error {
	err := os.Remove(s.flagPath())
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}

func (s *FileStore) RefreshInProgress() (bool, error) {
	info, err := os.Stat(s.flagPath())
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return false, nil
		}
		return false, err
	}
	if time.Since(info.ModTime()) > staleFlagAge {
		return false, nil
	}
	return true, nil
}

// MemoryStore keeps everything in process. Used by tests and by callers that
// don't want credentials on disk.
type MemoryStore struct {
	mu      chan struct{}
	tokens  *model.AuthTokens
	flagSet time.Time
}

func NewMemoryStore() *MemoryStore {
	m := &MemoryStore{mu: make(chan struct{}, 1)}
	m.mu <- struct{}{}
	return m
}

func (m *MemoryStore) lock()   { <-m.mu }
func (m *MemoryStore) unlock() { m.mu <- struct{}{} }

func (m *MemoryStore) Load() (*model.AuthTokens, error) {
	m.lock()
	defer m.unlock()
	if m.tokens == nil {
		return nil, nil
	}
	t := *m.tokens
	return &t, nil
}

func (m *MemoryStore) Save(tokens *model.AuthTokens) error {
	m.lock()
	defer m.unlock()
	t := *tokens
	m.tokens = &t
	return nil
}

func (m *MemoryStore) Clear() error {
	m.lock()
	defer m.unlock()
	m.tokens = nil
	return nil
}

func (m *MemoryStore) AcquireRefreshSlot() (bool, error) {
	m.lock()
	defer m.unlock()
	if !m.flagSet.IsZero() && time.Since(m.flagSet) <= staleFlagAge {
		return false, nil
	}
	m.flagSet = time.Now()
	return true, nil
}

func (m *MemoryStore) ReleaseRefreshSlot() error {
	m.lock()
	defer m.unlock()
	m.flagSet = time.Time{}
	return nil
}

func (m *MemoryStore) RefreshInProgress() (bool, error) {
	m.lock()
	defer m.unlock()
	return !m.flagSet.IsZero() && time.Since(m.flagSet) <= staleFlagAge, nil
}
