package storage

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Backup is a point-in-time copy of a slot's value.
type Backup struct {
	ID        string    `json:"id"`
	SlotKey   string    `json:"slotKey"`
	Size      int       `json:"size"`
	CreatedAt time.Time `json:"createdAt"`
}

// BackupStore keeps snapshot backups in SQLite.
type BackupStore struct {
	db *DB
}

func NewBackupStore(db *DB) *BackupStore {
	return &BackupStore{db: db}
}

// Put stores value as a new backup of slotKey.
func (s *BackupStore) Put(slotKey string, value []byte) (*Backup, error) {
	b := &Backup{
		ID:        uuid.New().String(),
		SlotKey:   slotKey,
		Size:      len(value),
		CreatedAt: time.Now(),
	}
	_, err := s.db.Conn().Exec(
		`INSERT INTO snapshot_backups (id, slot_key, value, size, created_at) VALUES (?, ?, ?, ?, ?)`,
		b.ID, b.SlotKey, value, b.Size, b.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("insert backup: %w", err)
	}
	return b, nil
}

// Get returns the stored value of a backup.
func (s *BackupStore) Get(id string) ([]byte, error) {
	var value []byte
	err := s.db.Conn().QueryRow(`SELECT value FROM snapshot_backups WHERE id = ?`, id).Scan(&value)
	if err != nil {
		return nil, fmt.Errorf("get backup: %w", err)
	}
	return value, nil
}

// List returns the backups of slotKey, newest first.
func (s *BackupStore) List(slotKey string) ([]Backup, error) {
	rows, err := s.db.Conn().Query(
		`SELECT id, slot_key, size, created_at FROM snapshot_backups WHERE slot_key = ? ORDER BY created_at DESC`,
		slotKey,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var backups []Backup
	for rows.Next() {
		var b Backup
		if err := rows.Scan(&b.ID, &b.SlotKey, &b.Size, &b.CreatedAt); err != nil {
			return nil, err
		}
		backups = append(backups, b)
	}
	return backups, rows.Err()
}

// Latest returns the value of the newest backup of slotKey, or nil if none.
func (s *BackupStore) Latest(slotKey string) ([]byte, error) {
	backups, err := s.List(slotKey)
	if err != nil || len(backups) == 0 {
		return nil, err
	}
	return s.Get(backups[0].ID)
}

// Prune deletes all but the newest keep backups of slotKey.
func (s *BackupStore) Prune(slotKey string, keep int) (int, error) {
	res, err := s.db.Conn().Exec(
		`DELETE FROM snapshot_backups WHERE slot_key = ? AND id NOT IN (
			SELECT id FROM snapshot_backups WHERE slot_key = ? ORDER BY created_at DESC LIMIT ?
		)`,
		slotKey, slotKey, keep,
	)
	if err != nil {
		return 0, fmt.Errorf("prune backups: %w", err)
	}
	n, _ := res.RowsAffected()
	return int(n), nil
}
