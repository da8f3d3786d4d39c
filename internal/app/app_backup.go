package app

import (
	"errors"

	"charsheet/internal/service"
	"charsheet/internal/storage"
)

// ListBackups returns the saved copies of the sheet, newest first.
func (a *App) ListBackups() ([]storage.Backup, error) {
	if a.core == nil {
		return nil, errNotReady
	}
	return a.core.backups.List()
}

// CreateBackup takes a backup now. It returns nil when the sheet has not
// changed since the last one.
func (a *App) CreateBackup() (*storage.Backup, error) {
	if a.core == nil {
		return nil, errNotReady
	}
	b, err := a.core.backups.Snapshot(a.ctx)
	if errors.Is(err, service.ErrNoSnapshot) {
		return nil, nil
	}
	return b, err
}

// RestoreBackup makes backup id the current sheet.
func (a *App) RestoreBackup(id string) error {
	if a.core == nil {
		return errNotReady
	}
	return a.core.backups.Restore(id)
}
