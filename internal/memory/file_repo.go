package memory

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

type FileRepository struct {
	path string
	mu   sync.Mutex
}

func NewFileRepository(path string) (*FileRepository, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("ensure dir: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE, 0o644)
	if err != nil {
		return nil, fmt.Errorf("touch file: %w", err)
	}
	_ = f.Close()
	return &FileRepository{path: path}, nil
}

func (r *FileRepository) LoadAll() ([]Profile, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.loadUnlocked()
}

func (r *FileRepository) Upsert(p Profile) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	ps, err := r.loadUnlocked()
	if err != nil {
		return err
	}
	updated := false
	for i := range ps {
		if ps[i].ID == p.ID {
			ps[i] = p
			updated = true
			break
		}
	}
	if !updated {
		ps = append(ps, p)
	}
	return r.saveUnlocked(ps)
}

func (r *FileRepository) loadUnlocked() ([]Profile, error) {
	data, err := os.ReadFile(r.path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", r.path, err)
	}
	if len(data) == 0 {
		return []Profile{}, nil
	}
	var ps []Profile
	if err := json.Unmarshal(data, &ps); err != nil {
		// malformed -> start fresh, the next Upsert rewrites the file
		return []Profile{}, nil
	}
	return ps, nil
}

func (r *FileRepository) saveUnlocked(ps []Profile) error {
	data, err := json.MarshalIndent(ps, "", "  ")
	if err != nil {
		return fmt.Errorf("encode profiles: %w", err)
	}
	tmp := r.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", tmp, err)
	}
	if err := os.Rename(tmp, r.path); err != nil {
		return fmt.Errorf("replace %s: %w", r.path, err)
	}
	return nil
}
