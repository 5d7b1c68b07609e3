// Package prefs persists the CLI's commentary preferences in the per-user
// data directory.
package prefs

import (
	"fmt"

	"github.com/quasilyte/gdata/v2"
	"gopkg.in/yaml.v3"

	"github.com/nfrund/announcer/internal/commentary"
)

const (
	appName      = "announcer_cli"
	objectName   = "settings"
	propertyName = "prefs.yaml"
)

// Prefs are the defaults used by resolve and simulate.
type Prefs struct {
	Style commentary.Style `yaml:"style"`
	Voice string           `yaml:"voice"`
}

// Defaults returns the preferences used before anything is saved.
func Defaults() Prefs {
	return Prefs{Style: commentary.StyleNeutral, Voice: commentary.VoiceRandom}
}

// backend is the subset of gdata.Manager the store needs.
type backend interface {
	ObjectPropExists(objectKey, propKey string) bool
	LoadObjectProp(objectKey, propKey string) ([]byte, error)
	SaveObjectProp(objectKey, propKey string, data []byte) error
}

// Store loads and saves Prefs.
type Store struct {
	data backend
}

// Open opens the store in the user's data directory.
func Open() (*Store, error) {
	m, err := gdata.Open(gdata.Config{AppName: appName})
	if err != nil {
		return nil, fmt.Errorf("open preferences: %w", err)
	}
	return &Store{data: m}, nil
}

// Load returns the saved preferences, or Defaults when none are saved.
// Unset fields fall back to their defaults.
func (s *Store) Load() (Prefs, error) {
	p := Defaults()
	if !s.data.ObjectPropExists(objectName, propertyName) {
		return p, nil
	}
	raw, err := s.data.LoadObjectProp(objectName, propertyName)
	if err != nil {
		return p, fmt.Errorf("load preferences: %w", err)
	}
	var saved Prefs
	if err := yaml.Unmarshal(raw, &saved); err != nil {
		return p, fmt.Errorf("decode preferences: %w", err)
	}
	if saved.Style != "" {
		style, err := commentary.ParseStyle(string(saved.Style))
		if err != nil {
			return p, fmt.Errorf("saved preferences: %w", err)
		}
		p.Style = style
	}
	if saved.Voice != "" {
		p.Voice = saved.Voice
	}
	return p, nil
}

// Save validates and writes p.
func (s *Store) Save(p Prefs) error {
	style, err := commentary.ParseStyle(string(p.Style))
	if err != nil {
		return err
	}
	p.Style = style
	raw, err := yaml.Marshal(p)
	if err != nil {
		return fmt.Errorf("encode preferences: %w", err)
	}
	if err := s.data.SaveObjectProp(objectName, propertyName, raw); err != nil {
		return fmt.Errorf("save preferences: %w", err)
	}
	return nil
}
