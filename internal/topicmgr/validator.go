package topicmgr

import (
	"fmt"
	"regexp"
	"strings"
)

var (
	// Hierarchical names: ws.html.direct, announcer.game.event.
	namePattern   = regexp.MustCompile(`^[a-z][a-z0-9]*(\.[a-z][a-z0-9]*)*$`)
	modulePattern = regexp.MustCompile(`^[a-z][a-z0-9_]*$`)

	reservedPrefixes  = []string{"system.", "internal.", "debug."}
	frameworkPrefixes = []string{"ws.", "server.", "session."}
)

// Validator checks topic definitions against the naming rules.
type Validator struct{}

// NewValidator creates a new topic validator.
func NewValidator() *Validator {
	return &Validator{}
}

// ValidateDefinition validates a topic definition.
func (v *Validator) ValidateDefinition(topic Topic) error {
	if topic == nil {
		return fmt.Errorf("topic cannot be nil")
	}
	if err := v.ValidateName(topic.Name()); err != nil {
		return fmt.Errorf("invalid topic name: %w", err)
	}
	if strings.TrimSpace(topic.Description()) == "" {
		return fmt.Errorf("topic description cannot be empty")
	}

	switch topic.Scope() {
	case ScopeFramework:
		if topic.Module() != "" {
			return fmt.Errorf("framework topics should not have a module")
		}
		if !hasAnyPrefix(topic.Name(), frameworkPrefixes) {
			return fmt.Errorf("framework topic must start with one of %v", frameworkPrefixes)
		}
	case ScopeModule:
		if err := validateModuleName(topic.Module()); err != nil {
			return fmt.Errorf("invalid module name: %w", err)
		}
		if !strings.HasPrefix(topic.Name(), topic.Module()+".") {
			return fmt.Errorf("module topic %q must be prefixed with %q", topic.Name(), topic.Module()+".")
		}
	default:
		return fmt.Errorf("invalid topic scope: %s", topic.Scope())
	}
	return nil
}

// ValidateName checks a topic name against the naming convention.
func (v *Validator) ValidateName(name string) error {
	if name == "" {
		return fmt.Errorf("name cannot be empty")
	}
	if len(name) > 100 {
		return fmt.Errorf("name too long (max 100 characters)")
	}
	if !namePattern.MatchString(name) {
		return fmt.Errorf("name must follow pattern: scope.module.action (lowercase, alphanumeric, dots only)")
	}
	for _, prefix := range reservedPrefixes {
		if strings.HasPrefix(name, prefix) {
			return fmt.Errorf("name cannot start with reserved prefix: %s", prefix)
		}
	}
	return nil
}

func validateModuleName(module string) error {
	if strings.TrimSpace(module) == "" {
		return fmt.Errorf("module topics must specify a module")
	}
	if len(module) > 50 {
		return fmt.Errorf("module name too long (max 50 characters)")
	}
	if !modulePattern.MatchString(module) {
		return fmt.Errorf("module name must be lowercase alphanumeric with underscores")
	}
	return nil
}

func hasAnyPrefix(s string, prefixes []string) bool {
	for _, p := range prefixes {
		if strings.HasPrefix(s, p) {
			return true
		}
	}
	return false
}
