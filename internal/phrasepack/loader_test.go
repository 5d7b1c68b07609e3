package phrasepack

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nfrund/announcer/internal/commentary"
	"github.com/nfrund/announcer/internal/storage"
)

func gameOverMessage(c *commentary.Classifier) string {
	return c.Resolve(commentary.GameOver, commentary.StyleTrashTalk, commentary.Context{Score: 7}).Message
}

func TestLoader_Load(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "packs/phrases.yaml", []byte(samplePack), 0o644))

	c := commentary.NewClassifier()
	l := NewLoader(storage.NewAferoStore(fs), "packs/phrases.yaml", c)

	require.NoError(t, l.Load(context.Background()))
	assert.Equal(t, "Game over, human. Score: 7.", gameOverMessage(c))

	st := l.Status()
	assert.True(t, st.Loaded)
	assert.NotEmpty(t, st.Checksum)
	assert.Empty(t, st.LastErr)
}

func TestLoader_MissingFileKeepsBuiltIn(t *testing.T) {
	c := commentary.NewClassifier()
	before := c.Catalog()
	l := NewLoader(storage.NewAferoStore(afero.NewMemMapFs()), "nope.yaml", c)

	require.NoError(t, l.Load(context.Background()))
	assert.Same(t, before, c.Catalog())
	assert.False(t, l.Status().Loaded)
}

func TestLoader_InvalidPackKeepsPreviousCatalog(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "phrases.yaml", []byte(samplePack), 0o644))

	c := commentary.NewClassifier()
	l := NewLoader(storage.NewAferoStore(fs), "phrases.yaml", c)
	require.NoError(t, l.Load(context.Background()))
	good := c.Catalog()

	require.NoError(t, afero.WriteFile(fs, "phrases.yaml", []byte("styles: {neutral: {NOPE: {variants: [x]}}}"), 0o644))
	err := l.Load(context.Background())
	assert.ErrorIs(t, err, ErrInvalidPack)
	assert.Same(t, good, c.Catalog())
	assert.NotEmpty(t, l.Status().LastErr)
}

func TestLoader_Save(t *testing.T) {
	fs := afero.NewMemMapFs()
	c := commentary.NewClassifier()
	l := NewLoader(storage.NewAferoStore(fs), "data/phrases.yaml", c)
	ctx := context.Background()

	err := l.Save(ctx, []byte("styles: {neutral: {BOGUS: {variants: [x]}}}"))
	assert.ErrorIs(t, err, ErrInvalidPack)
	exists, _ := afero.Exists(fs, "data/phrases.yaml")
	assert.False(t, exists, "invalid packs are never written")

	require.NoError(t, l.Save(ctx, []byte(samplePack)))
	exists, _ = afero.Exists(fs, "data/phrases.yaml")
	assert.True(t, exists)
	assert.Equal(t, "Game over, human. Score: 7.", gameOverMessage(c))
}

func TestLoader_Watch(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "phrases.yaml")

	c := commentary.NewClassifier()
	l := NewLoader(storage.NewAferoStore(afero.NewOsFs()), path, c)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, l.Watch(ctx))
	defer l.Close()

	require.NoError(t, os.WriteFile(path, []byte(samplePack), 0o644))

	assert.Eventually(t, func() bool {
		return gameOverMessage(c) == "Game over, human. Score: 7."
	}, 2*time.Second, 20*time.Millisecond)
}
