package app

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	wailsRuntime "github.com/wailsapp/wails/v2/pkg/runtime"
	"go.uber.org/zap"

	"charsheet/internal/domain"
)

// ============================================================
// Sheet bindings
// ============================================================

var errNotReady = errors.New("sheet storage is not open")

// GetSheet returns the whole sheet.
func (a *App) GetSheet() (domain.SheetState, error) {
	if a.core == nil {
		return domain.SheetState{}, errNotReady
	}
	return a.core.store.Snapshot(), nil
}

// GetLayout returns the grid projection the layout engine renders from.
func (a *App) GetLayout() ([]domain.LayoutItem, error) {
	if a.core == nil {
		return nil, errNotReady
	}
	return a.core.store.Layout(), nil
}

// GetBlocksByTier returns the blocks in paint order: back, middle, front.
func (a *App) GetBlocksByTier() ([]domain.Block, error) {
	if a.core == nil {
		return nil, errNotReady
	}
	return a.core.store.Snapshot().BlocksByTier(), nil
}

func (a *App) ListThemes() []domain.Theme {
	return domain.Themes
}

func (a *App) ListBlockTypes() []domain.BlockType {
	return domain.BlockTypes
}

// AddBlock adds a block of blockType. configJSON may be empty.
func (a *App) AddBlock(blockType, configJSON string) (string, error) {
	if a.core == nil {
		return "", errNotReady
	}
	t, err := domain.ParseBlockType(blockType)
	if err != nil {
		return "", err
	}
	var cfg *domain.BlockConfig
	if configJSON != "" {
		cfg = &domain.BlockConfig{}
		if err := json.Unmarshal([]byte(configJSON), cfg); err != nil {
			return "", fmt.Errorf("invalid block config: %w", err)
		}
		if cfg.ZIndex != "" && !cfg.ZIndex.Valid() {
			return "", fmt.Errorf("invalid block config: unknown zIndex %q", cfg.ZIndex)
		}
	}
	return a.core.store.AddBlock(t, cfg), nil
}

// UpdateBlockData merges partial into the block's data.
func (a *App) UpdateBlockData(blockID string, partial map[string]any) error {
	if a.core == nil {
		return errNotReady
	}
	a.core.store.UpdateBlockData(blockID, partial)
	return nil
}

func (a *App) RemoveBlock(blockID string) error {
	if a.core == nil {
		return errNotReady
	}
	a.core.store.RemoveBlock(blockID)
	return nil
}

// UpdateLayout applies the geometry reported by the grid after a drag or
// resize.
func (a *App) UpdateLayout(items []domain.LayoutItem) error {
	if a.core == nil {
		return errNotReady
	}
	a.core.store.UpdateLayout(items)
	return nil
}

// SettleLayout resolves overlaps and, in compact mode, floats blocks up.
func (a *App) SettleLayout() error {
	if a.core == nil {
		return errNotReady
	}
	engine := a.core.engine
	a.core.store.Relayout("settle_layout", func(items []domain.LayoutItem, compact bool) ([]domain.LayoutItem, bool) {
		return engine.Resolve(items, compact), true
	})
	return nil
}

func (a *App) SetTheme(theme string) error {
	if a.core == nil {
		return errNotReady
	}
	key, err := domain.ParseThemeKey(theme)
	if err != nil {
		return err
	}
	a.core.store.SetTheme(key)
	return nil
}

func (a *App) SetGlobalFont(slot, font string) error {
	if a.core == nil {
		return errNotReady
	}
	a.core.store.SetGlobalFont(domain.FontSlot(slot), font)
	return nil
}

func (a *App) ToggleCompact() error {
	if a.core == nil {
		return errNotReady
	}
	a.core.store.ToggleCompact()
	return nil
}

func (a *App) SetSheetName(name string) error {
	if a.core == nil {
		return errNotReady
	}
	a.core.store.SetSheetName(name)
	return nil
}

// ResetSheet replaces the sheet with the starter layout.
func (a *App) ResetSheet() error {
	if a.core == nil {
		return errNotReady
	}
	a.core.store.Reset()
	return nil
}

// ============================================================
// Import / export
// ============================================================

// ExportJSON returns the sheet as an indented, versioned snapshot.
func (a *App) ExportJSON() (string, error) {
	if a.core == nil {
		return "", errNotReady
	}
	data, err := a.core.persist.Export(a.core.store.Snapshot())
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// ImportJSON replaces the sheet with a snapshot. Older snapshot versions are
// migrated; anything that does not decode is rejected and the sheet is left
// alone.
func (a *App) ImportJSON(data string) error {
	if a.core == nil {
		return errNotReady
	}
	state, err := a.core.persist.Import([]byte(data))
	if err != nil {
		return fmt.Errorf("import sheet: %w", err)
	}
	a.core.store.Replace(state)
	return nil
}

// ExportToFile asks for a destination and writes the snapshot there.
// It returns the chosen path, or "" when the dialog was cancelled.
func (a *App) ExportToFile() (string, error) {
	data, err := a.ExportJSON()
	if err != nil {
		return "", err
	}
	path, err := wailsRuntime.SaveFileDialog(a.ctx, wailsRuntime.SaveDialogOptions{
		Title:           "Export character sheet",
		DefaultFilename: "character-sheet.json",
		Filters:         []wailsRuntime.FileFilter{{DisplayName: "Sheet (*.json)", Pattern: "*.json"}},
	})
	if err != nil || path == "" {
		return "", err
	}
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		return "", fmt.Errorf("write %s: %w", path, err)
	}
	a.log.Info("sheet exported", zap.String("path", path))
	return path, nil
}

// ImportFromFile asks for a snapshot file and imports it.
// It returns the chosen path, or "" when the dialog was cancelled.
func (a *App) ImportFromFile() (string, error) {
	if a.core == nil {
		return "", errNotReady
	}
	path, err := wailsRuntime.OpenFileDialog(a.ctx, wailsRuntime.OpenDialogOptions{
		Title:   "Import character sheet",
		Filters: []wailsRuntime.FileFilter{{DisplayName: "Sheet (*.json)", Pattern: "*.json"}},
	})
	if err != nil || path == "" {
		return "", err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read %s: %w", path, err)
	}
	if err := a.ImportJSON(string(data)); err != nil {
		return "", err
	}
	a.log.Info("sheet imported", zap.String("path", path))
	return path, nil
}
