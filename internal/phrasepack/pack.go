// Package phrasepack loads YAML phrase packs that override or extend the
// built-in commentary catalog.
//
// A pack looks like:
//
//	version: 1
//	base: default        # or "empty"
//	styles:
//	  trashtalk:
//	    GAME_OVER:
//	      variants: ["Game over, human. Score: {score}."]
//	  neutral:
//	    ALIEN_DESTROYED_NORMAL:
//	      parts:
//	        - ["Alien down!", "Direct hit!"]
//	        - ["Score: {score}."]
//	fallbacks:
//	  neutral:
//	    variants: ["Still here?"]
package phrasepack

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/nfrund/announcer/internal/commentary"
)

// ErrInvalidPack wraps every parse or validation failure.
var ErrInvalidPack = errors.New("invalid phrase pack")

const (
	BaseDefault = "default"
	BaseEmpty   = "empty"
)

// Pack is the decoded form of a phrase pack file.
type Pack struct {
	Version   int                             `yaml:"version,omitempty" validate:"omitempty,eq=1"`
	Base      string                          `yaml:"base,omitempty" validate:"omitempty,oneof=default empty"`
	Styles    map[string]map[string]EntrySpec `yaml:"styles" validate:"required_without=Fallbacks,dive,keys,required,endkeys,min=1"`
	Fallbacks map[string]EntrySpec            `yaml:"fallbacks,omitempty"`
}

// EntrySpec is one catalog entry. Exactly one of Variants and Parts is set.
type EntrySpec struct {
	Variants []string   `yaml:"variants,omitempty" validate:"omitempty,dive,required"`
	Parts    [][]string `yaml:"parts,omitempty" validate:"omitempty,dive,min=1,dive,required"`
}

func (e EntrySpec) check() error {
	if err := validate.Struct(e); err != nil {
		return err
	}
	switch {
	case len(e.Variants) == 0 && len(e.Parts) == 0:
		return errors.New("entry needs variants or parts")
	case len(e.Variants) > 0 && len(e.Parts) > 0:
		return errors.New("entry cannot have both variants and parts")
	}
	return nil
}

func (e EntrySpec) entry() commentary.Entry {
	if len(e.Parts) > 0 {
		return commentary.Composed(e.Parts...)
	}
	return commentary.OneOf(e.Variants...)
}

var validate = validator.New()

// Parse decodes and validates a pack. Unknown fields, styles and event kinds
// are rejected.
func Parse(r io.Reader) (*Pack, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var p Pack
	if err := dec.Decode(&p); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("%w: empty document", ErrInvalidPack)
		}
		return nil, fmt.Errorf("%w: %v", ErrInvalidPack, err)
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return &p, nil
}

// ParseBytes is Parse over a byte slice.
func ParseBytes(data []byte) (*Pack, error) {
	return Parse(bytes.NewReader(data))
}

// Validate checks structure, style names and event kinds.
func (p *Pack) Validate() error {
	if err := validate.Struct(p); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidPack, err)
	}
	for styleName, entries := range p.Styles {
		if _, err := commentary.ParseStyle(styleName); err != nil {
			return fmt.Errorf("%w: style %q: %v", ErrInvalidPack, styleName, err)
		}
		for kindName, spec := range entries {
			if kind := commentary.ParseKind(kindName); !kind.Valid() {
				return fmt.Errorf("%w: style %q: unknown event kind %q", ErrInvalidPack, styleName, kindName)
			}
			if err := spec.check(); err != nil {
				return fmt.Errorf("%w: %s/%s: %v", ErrInvalidPack, styleName, kindName, err)
			}
		}
	}
	for styleName, spec := range p.Fallbacks {
		if _, err := commentary.ParseStyle(styleName); err != nil {
			return fmt.Errorf("%w: fallback style %q: %v", ErrInvalidPack, styleName, err)
		}
		if err := spec.check(); err != nil {
			return fmt.Errorf("%w: fallback %s: %v", ErrInvalidPack, styleName, err)
		}
	}
	return nil
}

// Apply builds a new catalog from the pack. With base "empty" it starts from
// a catalog holding only the generic fallbacks, otherwise from a copy of
// base.
func (p *Pack) Apply(base *commentary.Catalog) *commentary.Catalog {
	var cat *commentary.Catalog
	if p.Base == BaseEmpty || base == nil {
		cat = commentary.NewCatalog()
	} else {
		cat = base.Clone()
	}

	for styleName, entries := range p.Styles {
		style, _ := commentary.ParseStyle(styleName)
		for kindName, spec := range entries {
			cat.Set(commentary.ParseKind(kindName), style, spec.entry())
		}
	}
	for styleName, spec := range p.Fallbacks {
		style, _ := commentary.ParseStyle(styleName)
		cat.SetFallback(style, spec.entry())
	}
	return cat
}

// Export renders a catalog as a pack with base "empty", suitable as a
// starting point for a custom file.
func Export(cat *commentary.Catalog) *Pack {
	p := &Pack{
		Version:   1,
		Base:      BaseEmpty,
		Styles:    make(map[string]map[string]EntrySpec),
		Fallbacks: make(map[string]EntrySpec),
	}
	for _, style := range commentary.Styles() {
		entries := make(map[string]EntrySpec)
		for _, kind := range commentary.Kinds() {
			if e, ok := cat.Entry(kind, style); ok {
				entries[string(kind)] = EntrySpec{Variants: e.Variants, Parts: e.Parts}
			}
		}
		if len(entries) > 0 {
			p.Styles[string(style)] = entries
		}
		fb := cat.Fallback(style)
		p.Fallbacks[string(style)] = EntrySpec{Variants: fb.Variants, Parts: fb.Parts}
	}
	return p
}

// Marshal encodes the pack as YAML.
func (p *Pack) Marshal() ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(p); err != nil {
		return nil, fmt.Errorf("encode phrase pack: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("encode phrase pack: %w", err)
	}
	return buf.Bytes(), nil
}
