// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/olegiv/trapo-admin/internal/model"
)

// Snapshot is the persisted form of a session.
type Snapshot struct {
	Token      string           `json:"token"`
	User       *model.AdminUser `json:"user,omitempty"`
	VerifiedAt time.Time        `json:"verifiedAt,omitzero"`
}

// Persistence stores a session durably. Save and Clear are the only two
// writes; every copy of the token (storage, cookie mirror) changes in them.
type Persistence interface {
	Load(ctx context.Context) (Snapshot, error)
	Save(ctx context.Context, snap Snapshot) error
	Clear(ctx context.Context) error
}

// MemoryPersistence keeps the snapshot in memory.
type MemoryPersistence struct {
	mu     sync.Mutex
	snap   Snapshot
	saves  int
	clears int
}

// NewMemoryPersistence returns a MemoryPersistence seeded with snap.
func NewMemoryPersistence(snap Snapshot) *MemoryPersistence {
	return &MemoryPersistence{snap: snap}
}

// Load returns the stored snapshot.
func (m *MemoryPersistence) Load(context.Context) (Snapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.snap, nil
}

// Save replaces the stored snapshot.
func (m *MemoryPersistence) Save(_ context.Context, snap Snapshot) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.snap = snap
	m.saves++
	return nil
}

// Clear removes the stored snapshot.
func (m *MemoryPersistence) Clear(context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.snap = Snapshot{}
	m.clears++
	return nil
}

// Counts returns how many times Save and Clear were called.
func (m *MemoryPersistence) Counts() (saves, clears int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.saves, m.clears
}

// FilePersistence keeps the token in a JSON file readable only by the owner.
// The user record is not written; it is verified again on the next start.
type FilePersistence struct {
	path string
	mu   sync.Mutex
}

// NewFilePersistence returns a FilePersistence writing to path.
func NewFilePersistence(path string) *FilePersistence {
	return &FilePersistence{path: path}
}

// DefaultFilePath returns the session file location under the user config dir.
func DefaultFilePath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("locating config dir: %w", err)
	}
	return filepath.Join(dir, "trapo-admin", "session.json"), nil
}

// Path returns the file location.
func (f *FilePersistence) Path() string { return f.path }

type fileSnapshot struct {
	Token   string    `json:"token"`
	SavedAt time.Time `json:"savedAt"`
}

// Load reads the token file. A missing file is an empty session.
func (f *FilePersistence) Load(context.Context) (Snapshot, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	data, err := os.ReadFile(f.path)
	if errors.Is(err, fs.ErrNotExist) {
		return Snapshot{}, nil
	}
	if err != nil {
		return Snapshot{}, fmt.Errorf("reading session file: %w", err)
	}

	var saved fileSnapshot
	if err := json.Unmarshal(data, &saved); err != nil {
		return Snapshot{}, fmt.Errorf("parsing session file: %w", err)
	}
	return Snapshot{Token: saved.Token}, nil
}

// Save writes the token atomically with mode 0600.
func (f *FilePersistence) Save(_ context.Context, snap Snapshot) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(f.path), 0o700); err != nil {
		return fmt.Errorf("creating session dir: %w", err)
	}

	data, err := json.Marshal(fileSnapshot{Token: snap.Token, SavedAt: time.Now().UTC()})
	if err != nil {
		return fmt.Errorf("encoding session: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(f.path), ".session-*")
	if err != nil {
		return fmt.Errorf("creating temp session file: %w", err)
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	if err := tmp.Chmod(0o600); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("setting session file mode: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("writing session file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing session file: %w", err)
	}
	if err := os.Rename(tmp.Name(), f.path); err != nil {
		return fmt.Errorf("replacing session file: %w", err)
	}
	return nil
}

// Clear deletes the token file.
func (f *FilePersistence) Clear(context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := os.Remove(f.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("removing session file: %w", err)
	}
	return nil
}
