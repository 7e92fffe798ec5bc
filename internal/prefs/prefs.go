// Package prefs persists ticklist's view preferences in
// ~/.config/ticklist/prefs.toml.
package prefs

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	toml "github.com/pelletier/go-toml/v2"

	"github.com/five82/ticklist/internal/task"
)

// Prefs holds what the user last chose in the UI.
type Prefs struct {
	Theme  string `toml:"theme"`
	Filter string `toml:"filter"`
	Sort   string `toml:"sort"`
}

const (
	defaultPrefsPath = "~/.config/ticklist/prefs.toml"
	defaultTheme     = "Nightfox"
)

// Default returns the preferences used when nothing is stored. The list
// starts unsorted, newest task first.
func Default() Prefs {
	return Prefs{
		Theme:  defaultTheme,
		Filter: task.FilterAll.String(),
		Sort:   task.SortNone.String(),
	}
}

// DefaultPath returns the default preferences file path.
func DefaultPath() string {
	return defaultPrefsPath
}

// Load reads preferences from path. Missing, unreadable or malformed files
// yield defaults; unknown values fall back field by field.
func Load(path string) (Prefs, error) {
	prefs := Default()

	resolved, err := resolvePath(path)
	if err != nil {
		return prefs, nil
	}
	file, err := os.Open(resolved)
	if err != nil {
		return prefs, nil
	}
	defer func() { _ = file.Close() }()

	bytes, err := io.ReadAll(file)
	if err != nil {
		return prefs, nil
	}

	var stored Prefs
	if err := toml.Unmarshal(bytes, &stored); err != nil {
		return prefs, nil
	}

	if theme := strings.TrimSpace(stored.Theme); theme != "" {
		prefs.Theme = theme
	}
	if f, err := task.ParseFilter(stored.Filter); err == nil {
		prefs.Filter = f.String()
	}
	if o, err := task.ParseSortOrder(stored.Sort); err == nil {
		prefs.Sort = o.String()
	}
	return prefs, nil
}

// FilterValue returns the stored filter, or all when it does not parse.
func (p Prefs) FilterValue() task.Filter {
	f, err := task.ParseFilter(p.Filter)
	if err != nil {
		return task.FilterAll
	}
	return f
}

// SortValue returns the stored sort order, or none when it does not parse.
func (p Prefs) SortValue() task.SortOrder {
	o, err := task.ParseSortOrder(p.Sort)
	if err != nil {
		return task.SortNone
	}
	return o
}

// Save writes preferences to the given path, creating directories as needed.
func Save(path string, p Prefs) error {
	resolved, err := resolvePath(path)
	if err != nil {
		return fmt.Errorf("resolve path: %w", err)
	}

	dir := filepath.Dir(resolved)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create prefs dir: %w", err)
	}

	bytes, err := toml.Marshal(p)
	if err != nil {
		return fmt.Errorf("marshal prefs: %w", err)
	}

	if err := os.WriteFile(resolved, bytes, 0o644); err != nil {
		return fmt.Errorf("write prefs: %w", err)
	}
	return nil
}

func resolvePath(path string) (string, error) {
	if strings.TrimSpace(path) == "" {
		return expandPath(defaultPrefsPath)
	}
	return expandPath(path)
}

func expandPath(path string) (string, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return "", fmt.Errorf("path is empty")
	}
	if strings.HasPrefix(trimmed, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home dir: %w", err)
		}
		trimmed = filepath.Join(home, strings.TrimPrefix(trimmed, "~"))
	}
	return filepath.Abs(trimmed)
}
