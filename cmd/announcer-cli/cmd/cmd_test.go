package cmd

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nfrund/announcer/cmd/announcer-cli/internal/prefs"
	"github.com/nfrund/announcer/internal/commentary"
)

type memPrefs struct {
	p prefs.Prefs
}

func (m *memPrefs) Load() (prefs.Prefs, error) { return m.p, nil }

func (m *memPrefs) Save(p prefs.Prefs) error {
	style, err := commentary.ParseStyle(string(p.Style))
	if err != nil {
		return err
	}
	p.Style = style
	m.p = p
	return nil
}

func usePrefs(t *testing.T, p prefs.Prefs) *memPrefs {
	t.Helper()
	mem := &memPrefs{p: p}
	orig := prefsStore
	prefsStore = func() (prefStore, error) { return mem, nil }
	t.Cleanup(func() { prefsStore = orig })
	return mem
}

func run(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	root := NewRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&bytes.Buffer{})
	root.SetIn(strings.NewReader(stdin))
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestVersion(t *testing.T) {
	out, err := run(t, "", "version")
	require.NoError(t, err)
	assert.Equal(t, "announcer-cli v"+version+"\n", out)
}

func TestEvents(t *testing.T) {
	out, err := run(t, "", "events")
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 2+len(commentary.Kinds()))
	assert.Contains(t, lines[0], "PRIORITY")
	assert.Contains(t, out, "Powerup Collect Shield")

	out, err = run(t, "", "events", "--format", "json")
	require.NoError(t, err)
	var rows []eventRow
	require.NoError(t, json.Unmarshal([]byte(out), &rows))
	assert.Equal(t, 10, rows[0].Priority)
	assert.Equal(t, "Game Over", kindTitle(commentary.GameOver))

	_, err = run(t, "", "events", "--format", "xml")
	assert.Error(t, err)
}

func TestResolve(t *testing.T) {
	usePrefs(t, prefs.Defaults())

	out, err := run(t, "", "resolve", "game over", "--score", "1250")
	require.NoError(t, err)
	assert.Contains(t, out, "Priority: 10")
	assert.Contains(t, out, "Game over! Final score: 1250.")

	out, err = run(t, "", "resolve", "NOPE", "--format", "json")
	require.NoError(t, err)
	var res resolveResult
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	assert.False(t, res.Known)
	assert.Equal(t, 0, res.Priority)
	assert.Equal(t, []string{"Still playing, huh?"}, res.Messages)

	_, err = run(t, "", "resolve", "GAME_OVER", "--style", "snarky")
	assert.ErrorIs(t, err, commentary.ErrUnknownStyle)
}

func TestResolve_UsesSavedStyleAndPack(t *testing.T) {
	usePrefs(t, prefs.Prefs{Style: commentary.StyleTrashTalk, Voice: commentary.VoiceRandom})

	dir := t.TempDir()
	pack := filepath.Join(dir, "phrases.yaml")
	require.NoError(t, os.WriteFile(pack, []byte(`version: 1
styles:
  trashtalk:
    GAME_START:
      variants: ["Fresh meat!"]
`), 0o644))

	out, err := run(t, "", "resolve", "GAME_START", "--pack", pack)
	require.NoError(t, err)
	assert.Contains(t, out, "Style:    trashtalk")
	assert.Contains(t, out, "Fresh meat!")

	_, err = run(t, "", "resolve", "GAME_START", "--pack", filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err)
}

func TestSimulate(t *testing.T) {
	usePrefs(t, prefs.Defaults())

	script := "GAME_START\nALIEN_DESTROYED_NORMAL score=10\nGAME_OVER score=10\n"
	out, err := run(t, script, "simulate", "--rune-ms", "0", "--cooldown", "0s", "--records", "--voice", "Orbit")
	require.NoError(t, err)

	assert.Contains(t, out, "[display] Game start! Defend the Earth!")
	assert.Contains(t, out, "[speak p=10 Orbit] Game start! Defend the Earth!")
	assert.Contains(t, out, "[display] Game over! Final score: 10.")
	assert.Equal(t, 3, strings.Count(out, "[record] "))
}

func TestSimulate_Rules(t *testing.T) {
	usePrefs(t, prefs.Defaults())

	dir := t.TempDir()
	rules := filepath.Join(dir, "rules.tengo")
	require.NoError(t, os.WriteFile(rules, []byte(`if kind == "GAME_PAUSED" { priority = 42 }`), 0o644))

	out, err := run(t, "GAME_PAUSED\n", "simulate", "--rune-ms", "0", "--records", "--rules", rules)
	require.NoError(t, err)
	assert.Contains(t, out, "[speak p=42 ")
}

func TestSimulate_BadScript(t *testing.T) {
	usePrefs(t, prefs.Defaults())

	_, err := run(t, "GAME_START lives=many\n", "simulate")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "line 1")
}

func TestPrefs(t *testing.T) {
	mem := usePrefs(t, prefs.Defaults())

	_, err := run(t, "", "prefs", "set")
	assert.Error(t, err)

	_, err = run(t, "", "prefs", "set", "--style", "trash-talk", "--voice", "2")
	require.NoError(t, err)
	assert.Equal(t, commentary.StyleTrashTalk, mem.p.Style)
	assert.Equal(t, "2", mem.p.Voice)

	out, err := run(t, "", "prefs", "show")
	require.NoError(t, err)
	assert.Equal(t, "style: trashtalk\nvoice: 2\n", out)

	_, err = run(t, "", "prefs", "set", "--style", "loud")
	assert.Error(t, err)
	assert.Equal(t, commentary.StyleTrashTalk, mem.p.Style)
}

func TestTopics(t *testing.T) {
	out, err := run(t, "", "topics", "list", "--module", "announcer")
	require.NoError(t, err)
	assert.Contains(t, out, "announcer.game.event")
	assert.NotContains(t, out, "ws.client.ready")

	out, err = run(t, "", "topics", "list", "--scope", "framework")
	require.NoError(t, err)
	assert.Contains(t, out, "ws.client.ready")

	_, err = run(t, "", "topics", "list", "--scope", "galaxy")
	assert.Error(t, err)

	out, err = run(t, "", "topics", "get", "announcer.speech.ended")
	require.NoError(t, err)
	assert.Contains(t, out, "Module:      announcer")

	_, err = run(t, "", "topics", "get", "announcer.nope")
	assert.Error(t, err)

	out, err = run(t, "", "topics", "validate", "announcer.game.event")
	require.NoError(t, err)
	assert.Contains(t, out, "is valid")

	_, err = run(t, "", "topics", "validate", "Bad.Name")
	assert.Error(t, err)
}
