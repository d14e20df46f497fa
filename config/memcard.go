package config

import (
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"

	"github.com/spf13/afero"

	"github.com/user-none/empsx/emu"
)

// MemCardPath returns where the card in slot (1 or 2) of game is kept.
// game is usually the disc serial number.
func (c Config) MemCardPath(game string, slot int) string {
	if game == "" {
		game = "shared"
	}
	return filepath.Join(c.MemCardDir, fmt.Sprintf("%s_%d.mcd", game, slot))
}

// LoadMemCard reads a card image. A missing file yields a freshly
// formatted card.
func LoadMemCard(fsys afero.Fs, path string) (*emu.MemCard, error) {
	card := emu.NewMemCard()

	data, err := afero.ReadFile(fsys, path)
	if errors.Is(err, fs.ErrNotExist) {
		return card, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	if err := card.Load(data); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return card, nil
}

// SaveMemCard writes card to path, creating the parent directory.
func SaveMemCard(fsys afero.Fs, path string, card *emu.MemCard) error {
	if err := fsys.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create %s: %w", filepath.Dir(path), err)
	}
	if err := afero.WriteFile(fsys, path, card.Data(), 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	card.ClearDirty()
	return nil
}
