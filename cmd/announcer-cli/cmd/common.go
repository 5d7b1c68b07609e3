package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/afero"

	"github.com/nfrund/announcer/cmd/announcer-cli/internal/prefs"
	"github.com/nfrund/announcer/internal/commentary"
	"github.com/nfrund/announcer/internal/phrasepack"
	"github.com/nfrund/announcer/internal/script"
	"github.com/nfrund/announcer/internal/storage"
)

// prefsStore is swapped out in tests so they never touch the user's data
// directory.
var prefsStore = func() (prefStore, error) { return prefs.Open() }

type prefStore interface {
	Load() (prefs.Prefs, error)
	Save(prefs.Prefs) error
}

// savedPrefs returns the saved preferences, or the defaults when the store
// cannot be read.
func savedPrefs() prefs.Prefs {
	store, err := prefsStore()
	if err != nil {
		slog.Debug("Preferences unavailable, using defaults", "error", err)
		return prefs.Defaults()
	}
	p, err := store.Load()
	if err != nil {
		slog.Warn("Failed to load preferences, using defaults", "error", err)
		return prefs.Defaults()
	}
	return p
}

// resolveStyle prefers an explicit flag over the saved preference.
func resolveStyle(flag string, saved commentary.Style) (commentary.Style, error) {
	if flag == "" {
		return saved, nil
	}
	return commentary.ParseStyle(flag)
}

// dirStore roots a Store at the directory of file and returns the file's
// name within it.
func dirStore(file string) (storage.Store, string, error) {
	abs, err := filepath.Abs(file)
	if err != nil {
		return nil, "", err
	}
	dir, name := filepath.Split(abs)
	return storage.NewAferoStore(afero.NewBasePathFs(afero.NewOsFs(), dir)), name, nil
}

// applyPack installs the phrase pack at path on c.
func applyPack(ctx context.Context, path string, c *commentary.Classifier) error {
	if path == "" {
		return nil
	}
	if _, err := os.Stat(path); err != nil {
		return fmt.Errorf("phrase pack: %w", err)
	}
	store, name, err := dirStore(path)
	if err != nil {
		return err
	}
	return phrasepack.NewLoader(store, name, c).Load(ctx)
}

// loadRules compiles the rules script at path. It returns nil rules when
// path is empty.
func loadRules(ctx context.Context, path string) (*script.PriorityRules, error) {
	if path == "" {
		return nil, nil
	}
	store, name, err := dirStore(path)
	if err != nil {
		return nil, err
	}
	rules := script.NewPriorityRules(script.NewTengoEngine())
	if err := rules.LoadFile(ctx, store, name); err != nil {
		return nil, err
	}
	return rules, nil
}
