package websocket

import (
	"errors"
	"log/slog"
	"slices"
	"sync"
)

var (
	// ErrActionAlreadyExists is returned when trying to add a duplicate action.
	ErrActionAlreadyExists = errors.New("action already exists in whitelist")
	// ErrInvalidAction is returned when an empty action is provided.
	ErrInvalidAction = errors.New("action cannot be empty")
)

// ClientWhitelist is the set of actions clients may publish to the bus.
type ClientWhitelist struct {
	mu             sync.RWMutex
	allowedActions []string
}

// NewClientWhitelist creates a whitelist; empty actions are ignored.
func NewClientWhitelist(allowedActions ...string) *ClientWhitelist {
	valid := make([]string, 0, len(allowedActions))
	for _, action := range allowedActions {
		if action != "" && !slices.Contains(valid, action) {
			valid = append(valid, action)
		}
	}
	return &ClientWhitelist{allowedActions: valid}
}

// IsAllowed reports whether action may be published.
func (w *ClientWhitelist) IsAllowed(action string) bool {
	if action == "" {
		return false
	}
	w.mu.RLock()
	defer w.mu.RUnlock()
	return slices.Contains(w.allowedActions, action)
}

// AddAction allows action.
func (w *ClientWhitelist) AddAction(action string) error {
	if action == "" {
		return ErrInvalidAction
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	if slices.Contains(w.allowedActions, action) {
		return ErrActionAlreadyExists
	}
	w.allowedActions = append(w.allowedActions, action)
	slog.Debug("Added action to whitelist", "action", action)
	return nil
}

// Actions returns a copy of the allowed actions.
func (w *ClientWhitelist) Actions() []string {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return slices.Clone(w.allowedActions)
}
