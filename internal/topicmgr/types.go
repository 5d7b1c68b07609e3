package topicmgr

import (
	"time"
)

// Topic is a named bus channel with documentation attached.
type Topic interface {
	// Name returns the unique string identifier for this topic.
	Name() string
	// Module returns the module that owns this topic (empty for framework topics).
	Module() string
	Description() string
	// Pattern returns the routing pattern.
	Pattern() string
	// Example returns a sample payload.
	Example() string
	Metadata() map[string]any
	Scope() TopicScope
}

// TypedTopic is the default Topic implementation.
type TypedTopic struct {
	name        string
	module      string
	description string
	pattern     string
	example     string
	metadata    map[string]any
	scope       TopicScope
}

var _ Topic = (*TypedTopic)(nil)

// TopicConfig holds configuration for creating a new topic.
type TopicConfig struct {
	Name        string         `json:"name"`
	Module      string         `json:"module"`
	Scope       TopicScope     `json:"scope"`
	Description string         `json:"description"`
	Pattern     string         `json:"pattern"`
	Example     string         `json:"example"`
	Metadata    map[string]any `json:"metadata"`
}

// TopicScope defines whether a topic belongs to the framework or a module.
type TopicScope string

const (
	ScopeFramework TopicScope = "framework" // transport and server topics
	ScopeModule    TopicScope = "module"    // announcer and other module topics
)

// RegistryEntry is a registered topic plus bookkeeping.
type RegistryEntry struct {
	Topic        Topic     `json:"topic"`
	RegisteredAt time.Time `json:"registered_at"`
	Module       string    `json:"module"`
}

// TopicError represents structured errors in the topic management system.
type TopicError struct {
	Type    ErrorType `json:"type"`
	Topic   string    `json:"topic"`
	Module  string    `json:"module"`
	Message string    `json:"message"`
	Cause   error     `json:"cause,omitempty"`
}

// ErrorType classifies a TopicError.
type ErrorType string

const (
	ErrorTopicNotFound         ErrorType = "topic_not_found"
	ErrorDuplicateRegistration ErrorType = "duplicate_registration"
	ErrorValidationFailed      ErrorType = "validation_failed"
	ErrorInvalidScope          ErrorType = "invalid_scope"
)

func (e *TopicError) Error() string {
	if e.Cause != nil {
		return e.Message + ": " + e.Cause.Error()
	}
	return e.Message
}

func (e *TopicError) Unwrap() error {
	return e.Cause
}

func (t *TypedTopic) Name() string        { return t.name }
func (t *TypedTopic) Module() string      { return t.module }
func (t *TypedTopic) Description() string { return t.description }
func (t *TypedTopic) Pattern() string     { return t.pattern }
func (t *TypedTopic) Example() string     { return t.example }
func (t *TypedTopic) Scope() TopicScope   { return t.scope }
func (t *TypedTopic) String() string      { return t.name }

// Metadata returns a copy of the topic metadata.
func (t *TypedTopic) Metadata() map[string]any {
	result := make(map[string]any, len(t.metadata))
	for k, v := range t.metadata {
		result[k] = v
	}
	return result
}

func newTopic(config TopicConfig) *TypedTopic {
	pattern := config.Pattern
	if pattern == "" {
		pattern = config.Name
	}
	return &TypedTopic{
		name:        config.Name,
		module:      config.Module,
		description: config.Description,
		pattern:     pattern,
		example:     config.Example,
		metadata:    config.Metadata,
		scope:       config.Scope,
	}
}

// DefineFramework creates a topic owned by the transport or server layer.
func DefineFramework(config TopicConfig) Topic {
	config.Scope = ScopeFramework
	config.Module = ""
	return newTopic(config)
}

// DefineModule creates a topic owned by a module.
func DefineModule(config TopicConfig) Topic {
	config.Scope = ScopeModule
	return newTopic(config)
}
