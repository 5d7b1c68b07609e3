// Package sim replays scripted game events through an Announcer.
//
// A script has one step per line:
//
//	# comments and blank lines are ignored
//	GAME_START
//	wait 800
//	ALIEN_DESTROYED_NORMAL score=10
//	LOSE_LIFE lives=1 priority=9
//	POWERUP_APPEAR powerup=shield
//
// "wait <ms>" pauses; anything else is an event kind followed by optional
// key=value context fields.
package sim

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/nfrund/announcer/internal/commentary"
	"github.com/nfrund/announcer/internal/modules/announcer/events"
	"github.com/nfrund/announcer/internal/script"
)

// Step is one line of a script. Exactly one of Wait and Event is set.
type Step struct {
	Line  int
	Wait  time.Duration
	Event *events.GameEvent
}

// Parse reads a script.
func Parse(r io.Reader) ([]Step, error) {
	var steps []Step
	sc := bufio.NewScanner(r)
	n := 0
	for sc.Scan() {
		n++
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		step, err := parseLine(line)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", n, err)
		}
		step.Line = n
		steps = append(steps, step)
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return steps, nil
}

func parseLine(line string) (Step, error) {
	fields := strings.Fields(line)
	if strings.EqualFold(fields[0], "wait") {
		if len(fields) != 2 {
			return Step{}, fmt.Errorf("wait takes one argument in milliseconds")
		}
		ms, err := strconv.Atoi(fields[1])
		if err != nil || ms < 0 {
			return Step{}, fmt.Errorf("invalid wait %q", fields[1])
		}
		return Step{Wait: time.Duration(ms) * time.Millisecond}, nil
	}

	ev := &events.GameEvent{Kind: fields[0]}
	for _, kv := range fields[1:] {
		key, val, ok := strings.Cut(kv, "=")
		if !ok {
			return Step{}, fmt.Errorf("expected key=value, got %q", kv)
		}
		if key == "powerup" {
			ev.PowerUpType = val
			continue
		}
		n, err := strconv.Atoi(val)
		if err != nil {
			return Step{}, fmt.Errorf("%s must be a number, got %q", key, val)
		}
		switch key {
		case "score":
			ev.Score = n
		case "lives":
			ev.Lives = n
		case "level":
			ev.Level = n
		case "priority":
			ev.Priority = &n
		default:
			return Step{}, fmt.Errorf("unknown field %q", key)
		}
	}
	return Step{Event: ev}, nil
}

// Runner plays steps through an Announcer.
type Runner struct {
	Announcer *commentary.Announcer
	// Rules, when enabled, may override priorities of events that carry
	// none.
	Rules *script.PriorityRules
	// Gap is slept after every event.
	Gap time.Duration
	// Sleep defaults to a context-aware time.Sleep.
	Sleep func(ctx context.Context, d time.Duration) error
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// Run plays every step and returns the announce records in order.
func (r *Runner) Run(ctx context.Context, steps []Step) ([]commentary.Record, error) {
	pause := r.Sleep
	if pause == nil {
		pause = sleep
	}

	var recs []commentary.Record
	for _, st := range steps {
		if st.Event == nil {
			if err := pause(ctx, st.Wait); err != nil {
				return recs, err
			}
			continue
		}

		kind := commentary.ParseKind(st.Event.Kind)
		cctx := st.Event.Context()
		var opts []commentary.AnnounceOption
		switch {
		case st.Event.Priority != nil:
			opts = append(opts, commentary.WithPriority(*st.Event.Priority))
		case r.Rules != nil && r.Rules.Enabled():
			p, overridden, err := r.Rules.Evaluate(ctx, script.RuleInput{
				Kind:     kind,
				Priority: r.Announcer.Classifier().Priority(kind),
				Style:    r.Announcer.State().Style,
				Ctx:      cctx,
			})
			if err != nil {
				return recs, fmt.Errorf("line %d: rules: %w", st.Line, err)
			}
			if overridden {
				opts = append(opts, commentary.WithPriority(p))
			}
		}

		recs = append(recs, r.Announcer.Announce(kind, cctx, opts...))
		if err := pause(ctx, r.Gap); err != nil {
			return recs, err
		}
	}
	return recs, nil
}
