package topicmgr

import (
	"fmt"
	"sort"
	"strings"
	"sync"
)

// Manager validates and registers topics.
type Manager struct {
	registry  *Registry
	validator *Validator
}

// NewManager creates a new topic manager with registry and validator.
func NewManager() *Manager {
	return &Manager{
		registry:  NewRegistry(),
		validator: NewValidator(),
	}
}

// Register validates topic and adds it to the registry.
func (m *Manager) Register(topic Topic) error {
	if err := m.validator.ValidateDefinition(topic); err != nil {
		te := &TopicError{
			Type:    ErrorValidationFailed,
			Message: "topic validation failed",
			Cause:   err,
		}
		if topic != nil {
			te.Topic, te.Module = topic.Name(), topic.Module()
		}
		return te
	}
	return m.registry.Register(topic)
}

// MustRegister registers a topic and panics on error. Topics are declared at
// package level, so a failure is a programming error.
func (m *Manager) MustRegister(topic Topic) {
	if err := m.Register(topic); err != nil {
		panic(fmt.Sprintf("failed to register topic %s: %v", topic.Name(), err))
	}
}

// Get retrieves a topic by name.
func (m *Manager) Get(name string) (Topic, bool) {
	return m.registry.Get(name)
}

// Lookup is Get with a TopicError for unknown names.
func (m *Manager) Lookup(name string) (Topic, error) {
	t, ok := m.registry.Get(name)
	if !ok {
		return nil, &TopicError{
			Type:    ErrorTopicNotFound,
			Topic:   name,
			Message: fmt.Sprintf("topic not found: %s", name),
		}
	}
	return t, nil
}

// List returns all registered topics sorted by name.
func (m *Manager) List() []Topic {
	return m.registry.List(nil)
}

// ListByModule returns the topics owned by module.
func (m *Manager) ListByModule(module string) []Topic {
	return m.registry.List(func(t Topic) bool { return t.Module() == module })
}

// ListByScope returns topics for a specific scope.
func (m *Manager) ListByScope(scope TopicScope) []Topic {
	return m.registry.List(func(t Topic) bool { return t.Scope() == scope })
}

// FindTopics returns topics whose name matches pattern. A trailing "*"
// matches any suffix.
func (m *Manager) FindTopics(pattern string) []Topic {
	return m.registry.List(func(t Topic) bool { return matchesPattern(t.Name(), pattern) })
}

// ListModules returns the sorted names of modules with registered topics.
func (m *Manager) ListModules() []string {
	set := make(map[string]struct{})
	for _, t := range m.ListByScope(ScopeModule) {
		set[t.Module()] = struct{}{}
	}
	modules := make([]string, 0, len(set))
	for mod := range set {
		modules = append(modules, mod)
	}
	sort.Strings(modules)
	return modules
}

// ValidateTopicName checks a name without registering anything.
func (m *Manager) ValidateTopicName(name string) error {
	return m.validator.ValidateName(name)
}

// Count returns the total number of registered topics.
func (m *Manager) Count() int {
	return m.registry.Count()
}

// Stats returns registry statistics.
func (m *Manager) Stats() RegistryStats {
	return m.registry.Stats()
}

// Reset removes all registered topics. Tests only.
func (m *Manager) Reset() {
	m.registry.Reset()
}

func matchesPattern(name, pattern string) bool {
	if prefix, ok := strings.CutSuffix(pattern, "*"); ok {
		return strings.HasPrefix(name, prefix)
	}
	return name == pattern
}

var (
	defaultManager     *Manager
	defaultManagerOnce sync.Once
)

// Default returns the process-wide manager used by package-level topic
// declarations.
func Default() *Manager {
	defaultManagerOnce.Do(func() {
		defaultManager = NewManager()
	})
	return defaultManager
}
