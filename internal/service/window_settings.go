package service

import (
	"database/sql"
	"errors"
	"fmt"
	"strconv"

	"charsheet/internal/storage"
)

// ─────────────────────────────────────────────────────────────
// Window Size Persistence
// ─────────────────────────────────────────────────────────────
//
// Restores the editor window between sessions. Lives in app_settings,
// next to the sheet slot, so one database file holds everything local.

// WindowSize holds the saved window dimensions.
type WindowSize struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// WindowSettingsService persists window size between sessions.
type WindowSettingsService struct {
	db *storage.DB
}

func NewWindowSettingsService(db *storage.DB) *WindowSettingsService {
	return &WindowSettingsService{db: db}
}

const (
	settingWindowWidth  = "window_width"
	settingWindowHeight = "window_height"
	DefaultWindowWidth  = 1280
	DefaultWindowHeight = 860
	minWindowWidth      = 800
	minWindowHeight     = 600
)

// LoadWindowSize returns the saved window dimensions, or defaults when
// nothing usable was saved.
func (s *WindowSettingsService) LoadWindowSize() WindowSize {
	size := WindowSize{Width: DefaultWindowWidth, Height: DefaultWindowHeight}
	if s.db == nil {
		return size
	}
	if w, ok := s.setting(settingWindowWidth); ok && w >= minWindowWidth {
		size.Width = w
	}
	if h, ok := s.setting(settingWindowHeight); ok && h >= minWindowHeight {
		size.Height = h
	}
	return size
}

func (s *WindowSettingsService) setting(key string) (int, bool) {
	var raw string
	err := s.db.Conn().QueryRow(`SELECT value FROM app_settings WHERE key = ?`, key).Scan(&raw)
	if err != nil {
		return 0, false
	}
	n, err := strconv.Atoi(raw)
	return n, err == nil
}

// SaveWindowSize persists the current window dimensions.
func (s *WindowSettingsService) SaveWindowSize(width, height int) error {
	if s.db == nil {
		return errors.New("window settings: no db")
	}
	conn := s.db.Conn()
	if err := upsertSetting(conn, settingWindowWidth, width); err != nil {
		return err
	}
	return upsertSetting(conn, settingWindowHeight, height)
}

func upsertSetting(conn *sql.DB, key string, value int) error {
	_, err := conn.Exec(
		`INSERT INTO app_settings (key, value) VALUES (?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value`,
		key, strconv.Itoa(value),
	)
	if err != nil {
		return fmt.Errorf("save setting %s: %w", key, err)
	}
	return nil
}
