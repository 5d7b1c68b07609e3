package commentary

import (
	"strconv"
	"strings"
)

// Context carries the gameplay values a message template may interpolate.
type Context struct {
	Score       int    `json:"score,omitempty"`
	Lives       int    `json:"lives,omitempty"`
	Level       int    `json:"level,omitempty"`
	PowerUpType string `json:"powerUpType,omitempty"`
}

func (c Context) replacer() *strings.Replacer {
	powerUp := c.PowerUpType
	if powerUp == "" {
		powerUp = "mystery"
	}
	return strings.NewReplacer(
		"{score}", strconv.Itoa(c.Score),
		"{lives}", strconv.Itoa(c.Lives),
		"{level}", strconv.Itoa(c.Level),
		"{powerUpType}", powerUp,
	)
}

// Entry is the message source for one kind and style. It holds either a list
// of variants (one picked uniformly) or a list of parts, where one clause is
// picked from each part and the clauses are joined with a single space.
type Entry struct {
	Variants []string   `json:"variants,omitempty" yaml:"variants,omitempty"`
	Parts    [][]string `json:"parts,omitempty" yaml:"parts,omitempty"`
}

// Literal is an entry with exactly one template.
func Literal(template string) Entry {
	return Entry{Variants: []string{template}}
}

// OneOf is an entry choosing uniformly among variants.
func OneOf(variants ...string) Entry {
	return Entry{Variants: variants}
}

// Composed is an entry built from independently chosen clauses.
func Composed(parts ...[]string) Entry {
	return Entry{Parts: parts}
}

// IsZero reports whether the entry has nothing to say.
func (e Entry) IsZero() bool {
	return len(e.Variants) == 0 && len(e.Parts) == 0
}

// Count returns how many distinct messages the entry can produce.
func (e Entry) Count() int {
	if len(e.Parts) > 0 {
		n := 1
		for _, p := range e.Parts {
			n *= len(p)
		}
		return n
	}
	return len(e.Variants)
}

func (e Entry) render(rnd Random, ctx Context) string {
	var msg string
	if len(e.Parts) > 0 {
		clauses := make([]string, 0, len(e.Parts))
		for _, part := range e.Parts {
			if len(part) == 0 {
				continue
			}
			clauses = append(clauses, part[rnd.IntN(len(part))])
		}
		msg = strings.Join(clauses, " ")
	} else if len(e.Variants) > 0 {
		msg = e.Variants[rnd.IntN(len(e.Variants))]
	}
	return ctx.replacer().Replace(msg)
}

func (e Entry) clone() Entry {
	out := Entry{}
	if e.Variants != nil {
		out.Variants = append([]string(nil), e.Variants...)
	}
	for _, p := range e.Parts {
		out.Parts = append(out.Parts, append([]string(nil), p...))
	}
	return out
}

// Catalog holds the message entries for every kind and style. Treat a catalog
// as read-only once it has been handed to a Classifier; use Clone to derive
// a modified copy.
type Catalog struct {
	entries   map[Style]map[EventKind]Entry
	fallbacks map[Style]Entry
}

// NewCatalog returns an empty catalog with the generic fallbacks installed.
func NewCatalog() *Catalog {
	c := &Catalog{
		entries:   make(map[Style]map[EventKind]Entry),
		fallbacks: make(map[Style]Entry),
	}
	c.fallbacks[StyleNeutral] = Literal(neutralFallback)
	c.fallbacks[StyleTrashTalk] = Literal(trashTalkFallback)
	return c
}

// Set installs entry for kind under style, replacing any existing entry.
// A zero entry removes it.
func (c *Catalog) Set(kind EventKind, style Style, entry Entry) {
	if entry.IsZero() {
		if m, ok := c.entries[style]; ok {
			delete(m, kind)
		}
		return
	}
	m, ok := c.entries[style]
	if !ok {
		m = make(map[EventKind]Entry)
		c.entries[style] = m
	}
	m[kind] = entry
}

// Entry returns the entry for kind under style.
func (c *Catalog) Entry(kind EventKind, style Style) (Entry, bool) {
	e, ok := c.entries[style][kind]
	return e, ok
}

// SetFallback replaces the message used for unknown kinds.
func (c *Catalog) SetFallback(style Style, entry Entry) {
	if entry.IsZero() {
		return
	}
	c.fallbacks[style] = entry
}

// Fallback returns the entry used for unknown kinds.
func (c *Catalog) Fallback(style Style) Entry {
	if e, ok := c.fallbacks[style]; ok {
		return e
	}
	return c.fallbacks[StyleNeutral]
}

// Clone returns a deep copy of the catalog.
func (c *Catalog) Clone() *Catalog {
	out := &Catalog{
		entries:   make(map[Style]map[EventKind]Entry, len(c.entries)),
		fallbacks: make(map[Style]Entry, len(c.fallbacks)),
	}
	for style, m := range c.entries {
		cm := make(map[EventKind]Entry, len(m))
		for k, e := range m {
			cm[k] = e.clone()
		}
		out.entries[style] = cm
	}
	for style, e := range c.fallbacks {
		out.fallbacks[style] = e.clone()
	}
	return out
}

// Size returns the number of entries per style.
func (c *Catalog) Size(style Style) int {
	return len(c.entries[style])
}
