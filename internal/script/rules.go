package script

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"sync/atomic"

	"github.com/d5/tengo/v2"

	"github.com/nfrund/announcer/internal/commentary"
	"github.com/nfrund/announcer/internal/storage"
)

// RuleInput is what a priority rules script can see about one event.
type RuleInput struct {
	Kind     commentary.EventKind
	Priority int
	Style    commentary.Style
	Ctx      commentary.Context
}

func (in RuleInput) vars() map[string]any {
	return map[string]any{
		"kind":     string(in.Kind),
		"priority": in.Priority,
		"style":    string(in.Style),
		"score":    in.Ctx.Score,
		"lives":    in.Ctx.Lives,
		"level":    in.Ctx.Level,
		"power_up": in.Ctx.PowerUpType,
	}
}

// PriorityRules evaluates an optional Tengo script that may override the
// table priority of an event. Without a script every event keeps its table
// priority.
type PriorityRules struct {
	engine  *TengoEngine
	program atomic.Pointer[Program]
	logger  *slog.Logger
}

// NewPriorityRules returns rules with no script installed.
func NewPriorityRules(engine *TengoEngine) *PriorityRules {
	if engine == nil {
		engine = NewTengoEngine()
	}
	return &PriorityRules{
		engine: engine,
		logger: slog.Default().With("component", "priority_rules"),
	}
}

// SetSource compiles source and installs it. On error the previous script
// stays active.
func (r *PriorityRules) SetSource(name string, source []byte) error {
	prog, err := r.engine.Compile(name, source, RuleInput{}.vars())
	if err != nil {
		return err
	}
	r.program.Store(prog)
	r.logger.Info("Priority rules installed", "script", name)
	return nil
}

// LoadFile reads the script at path from store. A missing file leaves the
// rules disabled and is reported as ErrorTypeNotFound.
func (r *PriorityRules) LoadFile(ctx context.Context, store storage.Store, path string) error {
	rc, err := store.Open(ctx, path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return NewScriptError(ErrorTypeNotFound, path, "rules script not found", err)
		}
		return fmt.Errorf("open rules script: %w", err)
	}
	defer rc.Close()

	src, err := io.ReadAll(rc)
	if err != nil {
		return fmt.Errorf("read rules script: %w", err)
	}
	return r.SetSource(path, src)
}

// Clear removes the installed script.
func (r *PriorityRules) Clear() {
	r.program.Store(nil)
}

// Enabled reports whether a script is installed.
func (r *PriorityRules) Enabled() bool {
	return r.program.Load() != nil
}

// Evaluate runs the script for one event. It returns the priority and
// whether it differs from the input priority. Failures return the input
// priority unchanged together with the error.
func (r *PriorityRules) Evaluate(ctx context.Context, in RuleInput) (int, bool, error) {
	prog := r.program.Load()
	if prog == nil {
		return in.Priority, false, nil
	}

	out, err := prog.Run(ctx, in.vars())
	if err != nil {
		return in.Priority, false, err
	}

	v := out.Get("priority")
	if v == nil || v.IsUndefined() {
		return in.Priority, false, NewScriptError(ErrorTypeInvalid, prog.Name, "priority is undefined after run", nil)
	}
	switch v.Object().(type) {
	case *tengo.Int, *tengo.Float:
	default:
		return in.Priority, false, NewScriptError(ErrorTypeInvalid, prog.Name,
			fmt.Sprintf("priority must be a number, got %s", v.ValueType()), nil)
	}

	p := v.Int()
	if p < 0 {
		p = 0
	}
	return p, p != in.Priority, nil
}
