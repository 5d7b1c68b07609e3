package commentary

import (
	"math/rand/v2"
	"sync/atomic"
)

// Random is the source of randomness used to pick message variants.
type Random interface {
	IntN(n int) int
}

type globalRandom struct{}

func (globalRandom) IntN(n int) int { return rand.IntN(n) }

// DefaultRandom returns a goroutine-safe random source backed by math/rand/v2.
func DefaultRandom() Random { return globalRandom{} }

// Resolution is the outcome of classifying one event.
type Resolution struct {
	Kind     EventKind `json:"kind"`
	Priority int       `json:"priority"`
	Message  string    `json:"message"`
	// Known is false when the kind fell back to the generic filler message.
	Known bool `json:"known"`
}

// Classifier maps event kinds to a priority and a message. It never fails:
// unknown kinds resolve to priority 0 and the style's fallback message.
type Classifier struct {
	priorities PriorityTable
	catalog    atomic.Pointer[Catalog]
	rnd        Random
}

// ClassifierOption configures a Classifier.
type ClassifierOption func(*Classifier)

// WithPriorities replaces the default priority table.
func WithPriorities(t PriorityTable) ClassifierOption {
	return func(c *Classifier) { c.priorities = t }
}

// WithCatalog replaces the default message catalog.
func WithCatalog(cat *Catalog) ClassifierOption {
	return func(c *Classifier) {
		if cat != nil {
			c.catalog.Store(cat)
		}
	}
}

// WithClassifierRandom injects the random source used for variant selection.
func WithClassifierRandom(r Random) ClassifierOption {
	return func(c *Classifier) {
		if r != nil {
			c.rnd = r
		}
	}
}

// NewClassifier builds a classifier with the default table and catalog.
func NewClassifier(opts ...ClassifierOption) *Classifier {
	c := &Classifier{
		priorities: DefaultPriorities(),
		rnd:        DefaultRandom(),
	}
	c.catalog.Store(DefaultCatalog())
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Resolve returns the priority and message for kind in the given style.
func (c *Classifier) Resolve(kind EventKind, style Style, ctx Context) Resolution {
	cat := c.catalog.Load()

	priority, known := c.priorities.Lookup(kind)
	if !known {
		return Resolution{
			Kind:     kind,
			Priority: 0,
			Message:  cat.Fallback(style).render(c.rnd, ctx),
		}
	}

	entry, ok := Entry{}, false
	if style == StyleTrashTalk {
		entry, ok = cat.Entry(kind, StyleTrashTalk)
	}
	if !ok {
		entry, ok = cat.Entry(kind, StyleNeutral)
	}
	if !ok {
		entry = cat.Fallback(style)
	}

	return Resolution{
		Kind:     kind,
		Priority: priority,
		Message:  entry.render(c.rnd, ctx),
		Known:    true,
	}
}

// Priority returns the table priority for kind, or 0 for unknown kinds.
func (c *Classifier) Priority(kind EventKind) int {
	p, _ := c.priorities.Lookup(kind)
	return p
}

// Priorities exposes the classifier's priority table.
func (c *Classifier) Priorities() PriorityTable {
	return c.priorities
}

// Catalog returns the catalog currently in use.
func (c *Classifier) Catalog() *Catalog {
	return c.catalog.Load()
}

// SetCatalog atomically swaps the message catalog. A nil catalog is ignored.
func (c *Classifier) SetCatalog(cat *Catalog) {
	if cat == nil {
		return
	}
	c.catalog.Store(cat)
}
