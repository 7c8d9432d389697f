// Package memory keeps per-user facts the assistant is allowed to remember.
// The dispatcher only reads through Memory; writes go through RememberName.
package memory

import (
	"fmt"
	"strings"
	"sync"
	"time"
)

// Memory is the capability handed to skills and special-command handlers.
type Memory interface {
	UserName() (string, bool)
	RememberName(name string) (string, error)
}

type Profile struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	UpdatedAt time.Time `json:"updated_at"`
}

type Repository interface {
	LoadAll() ([]Profile, error)
	Upsert(p Profile) error
}

// Store caches profiles in memory and writes through to the repository.
type Store struct {
	repo     Repository
	mu       sync.RWMutex
	profiles map[int64]Profile
	now      func() time.Time
}

func NewStore(repo Repository) (*Store, error) {
	s := &Store{repo: repo, profiles: make(map[int64]Profile), now: time.Now}
	if repo == nil {
		return s, nil
	}
	ps, err := repo.LoadAll()
	if err != nil {
		return nil, fmt.Errorf("load profiles: %w", err)
	}
	for _, p := range ps {
		s.profiles[p.ID] = p
	}
	return s, nil
}

// For binds the store to a single user.
func (s *Store) For(userID int64) Memory {
	return &userMemory{store: s, userID: userID}
}

func (s *Store) name(userID int64) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.profiles[userID]
	if !ok || p.Name == "" {
		return "", false
	}
	return p.Name, true
}

func (s *Store) setName(userID int64, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p := Profile{ID: userID, Name: name, UpdatedAt: s.now().UTC()}
	if s.repo != nil {
		if err := s.repo.Upsert(p); err != nil {
			return fmt.Errorf("persist profile %d: %w", userID, err)
		}
	}
	s.profiles[userID] = p
	return nil
}

type userMemory struct {
	store  *Store
	userID int64
}

func (m *userMemory) UserName() (string, bool) { return m.store.name(m.userID) }

func (m *userMemory) RememberName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", fmt.Errorf("empty name")
	}
	if err := m.store.setName(m.userID, name); err != nil {
		return "", err
	}
	return fmt.Sprintf("Приятно познакомиться, %s! Запомнил ваше имя.", name), nil
}
