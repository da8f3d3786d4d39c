package storage

import (
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"
)

// SQLiteSlot implements domain.SlotStore on the slots table.
type SQLiteSlot struct {
	db *DB
}

func NewSQLiteSlot(db *DB) *SQLiteSlot {
	return &SQLiteSlot{db: db}
}

func (s *SQLiteSlot) Load(key string) ([]byte, error) {
	var value []byte
	err := s.db.Conn().QueryRow(`SELECT value FROM slots WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load slot %s: %w", key, err)
	}
	return value, nil
}

func (s *SQLiteSlot) Save(key string, value []byte) error {
	_, err := s.db.Conn().Exec(
		`INSERT INTO slots (key, value, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		key, value, time.Now(),
	)
	if err != nil {
		return fmt.Errorf("save slot %s: %w", key, err)
	}
	return nil
}

func (s *SQLiteSlot) Delete(key string) error {
	_, err := s.db.Conn().Exec(`DELETE FROM slots WHERE key = ?`, key)
	return err
}

// Fingerprint returns a string that changes whenever the slot is written.
// Empty when the key does not exist.
func (s *SQLiteSlot) Fingerprint(key string) (string, error) {
	var updated string
	err := s.db.Conn().QueryRow(
		`SELECT COALESCE(updated_at, '') || ':' || length(value) FROM slots WHERE key = ?`, key,
	).Scan(&updated)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	return updated, err
}

// MemorySlot is an in-process SlotStore. The zero value is ready to use.
type MemorySlot struct {
	mu   sync.Mutex
	data map[string][]byte

	// FailSave, when set, is returned by every Save.
	FailSave error
}

func NewMemorySlot() *MemorySlot {
	return &MemorySlot{}
}

func (m *MemorySlot) Load(key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.data[key]
	if !ok {
		return nil, nil
	}
	return append([]byte(nil), v...), nil
}

func (m *MemorySlot) Save(key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailSave != nil {
		return m.FailSave
	}
	if m.data == nil {
		m.data = make(map[string][]byte)
	}
	m.data[key] = append([]byte(nil), value...)
	return nil
}

func (m *MemorySlot) Delete(key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, key)
	return nil
}
