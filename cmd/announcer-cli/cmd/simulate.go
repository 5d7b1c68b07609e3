package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/nfrund/announcer/cmd/announcer-cli/internal/sim"
	"github.com/nfrund/announcer/internal/commentary"
)

// drainTimeout bounds how long simulate waits for the last utterance.
const drainTimeout = 30 * time.Second

type simulateOptions struct {
	style    string
	voice    string
	pack     string
	rules    string
	cooldown time.Duration
	gap      time.Duration
	runeMs   int
	records  bool
}

func newSimulateCmd() *cobra.Command {
	var o simulateOptions

	cmd := &cobra.Command{
		Use:   "simulate [SCRIPT]",
		Short: "Replay a scripted event stream through an announcer",
		Long: `Replay game events through an announcer with a console display and a
simulated speech engine. The script is read from SCRIPT or, without an
argument or with "-", from stdin.

Script format, one step per line:
  # comment
  GAME_START
  wait 800
  ALIEN_DESTROYED_NORMAL score=10
  LOSE_LIFE lives=1 priority=9
  POWERUP_APPEAR powerup=shield

Fields: score, lives, level, powerup, priority.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			in := cmd.InOrStdin()
			if len(args) == 1 && args[0] != "-" {
				f, err := os.Open(args[0])
				if err != nil {
					return err
				}
				defer f.Close()
				in = f
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runSimulation(ctx, cmd.OutOrStdout(), in, o)
		},
	}

	f := cmd.Flags()
	f.StringVar(&o.style, "style", "", "Commentary style; defaults to the saved preference")
	f.StringVar(&o.voice, "voice", "", "Voice preference (random, index, id or name); defaults to the saved preference")
	f.StringVar(&o.pack, "pack", "", "Phrase pack YAML to layer over the built-in catalog")
	f.StringVar(&o.rules, "rules", "", "Tengo priority rules script")
	f.DurationVar(&o.cooldown, "cooldown", commentary.DefaultCooldown, "Display cooldown")
	f.DurationVar(&o.gap, "gap", 0, "Pause after every event")
	f.IntVar(&o.runeMs, "rune-ms", 60, "Simulated speaking time per character in milliseconds")
	f.BoolVar(&o.records, "records", false, "Print the announce record of every event")
	return cmd
}

// simVoices are the voices the simulated speech engine reports.
var simVoices = []commentary.Voice{
	{ID: "sim-1", Name: "Nova", Lang: "en-US"},
	{ID: "sim-2", Name: "Orbit", Lang: "en-GB"},
	{ID: "sim-3", Name: "Pulsar", Lang: "en-AU"},
}

func runSimulation(ctx context.Context, out io.Writer, in io.Reader, o simulateOptions) error {
	steps, err := sim.Parse(in)
	if err != nil {
		return err
	}

	saved := savedPrefs()
	style, err := resolveStyle(o.style, saved.Style)
	if err != nil {
		return err
	}
	voice := o.voice
	if voice == "" {
		voice = saved.Voice
	}

	classifier := commentary.NewClassifier()
	if err := applyPack(ctx, o.pack, classifier); err != nil {
		return err
	}
	rules, err := loadRules(ctx, o.rules)
	if err != nil {
		return err
	}

	// Display, speech and record lines come from different goroutines.
	var mu sync.Mutex
	printf := func(format string, a ...any) {
		mu.Lock()
		defer mu.Unlock()
		fmt.Fprintf(out, format, a...)
	}

	speech := commentary.NewTimedSpeech(
		commentary.WithVoices(simVoices...),
		commentary.WithRuneDuration(time.Duration(o.runeMs)*time.Millisecond),
		commentary.OnSpeak(func(u commentary.Utterance) {
			name := "Default"
			if !u.DefaultVoice {
				name = u.Voice.Name
			}
			printf("[speak p=%d %s] %s\n", u.Priority, name, u.Text)
		}),
	)

	opts := []commentary.Option{
		commentary.WithClassifier(classifier),
		commentary.WithTextSink(commentary.TextSinkFunc(func(m string) { printf("[display] %s\n", m) })),
		commentary.WithSpeechSink(speech),
		commentary.WithStyle(style),
		commentary.WithVoicePreference(voice),
		commentary.WithCooldown(o.cooldown),
	}
	if o.records {
		opts = append(opts, commentary.WithRecorder(commentary.RecorderFunc(func(r commentary.Record) {
			printf("[record] %s\n", r)
		})))
	}
	a := commentary.New(opts...)

	runner := &sim.Runner{Announcer: a, Rules: rules, Gap: o.gap}
	if _, err := runner.Run(ctx, steps); err != nil {
		return err
	}
	return drain(ctx, a)
}

// drain waits for the final utterance to finish.
func drain(ctx context.Context, a *commentary.Announcer) error {
	ctx, cancel := context.WithTimeout(ctx, drainTimeout)
	defer cancel()

	tick := time.NewTicker(20 * time.Millisecond)
	defer tick.Stop()
	for a.State().IsSpeaking {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-tick.C:
		}
	}
	return nil
}
