package corpus

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"htmlfuzz/config"
	"htmlfuzz/internal/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

type staticGrabber struct {
	seeds []types.Seed
	err   error
	calls int
}

func (g *staticGrabber) GrabSeeds() ([]types.Seed, error) {
	g.calls++
	return g.seeds, g.err
}

func writeCorpus(t *testing.T, dir, body string) string {
	t.Helper()
	path := filepath.Join(dir, "corpus.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestBuiltinSeedsAreAnchoredAndDistinctlyNamed(t *testing.T) {
	seeds := BuiltinSeeds()
	require.Len(t, seeds, 8)

	names := make(map[string]struct{})
	for _, seed := range seeds {
		names[seed.Name] = struct{}{}

		info, err := Inspect(seed.HTML)
		require.NoError(t, err, seed.Name)
		assert.True(t, info.Anchored, seed.Name)
		assert.True(t, info.HasBody, seed.Name)
		assert.Positive(t, info.Elements, seed.Name)
	}
	assert.Len(t, names, len(seeds))
}

func TestBuiltinSeedsReturnsCopy(t *testing.T) {
	seeds := BuiltinSeeds()
	seeds[0].HTML = "changed"
	assert.NotEqual(t, types.Document("changed"), BuiltinSeeds()[0].HTML)
}

func TestInspect(t *testing.T) {
	info, err := Inspect(`<html><head><meta charset="utf-8"/></head><body class="x"><br/><p>a</p></body></html>`)
	require.NoError(t, err)
	assert.Equal(t, 6, info.Elements)
	assert.True(t, info.HasBody)
	assert.False(t, info.Anchored)

	info, err = Inspect("plain text")
	require.NoError(t, err)
	assert.Zero(t, info.Elements)
	assert.False(t, info.HasBody)
}

func TestFileSeedGrabber(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "pages"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "pages", "login.html"), []byte("<html><body>login</body></html>"), 0o644))
	path := writeCorpus(t, dir, `seeds:
  - name: inline
    html: "<html><body><p>x</p></body></html>"
  - name: from-disk
    file: pages/login.html
  - html: "<body></body>"
`)

	seeds, err := NewFileSeedGrabber(&config.AppConfig{CorpusFile: path}).GrabSeeds()
	require.NoError(t, err)
	assert.Equal(t, []types.Seed{
		{Name: "inline", HTML: "<html><body><p>x</p></body></html>"},
		{Name: "from-disk", HTML: "<html><body>login</body></html>"},
		{Name: "seed-2", HTML: "<body></body>"},
	}, seeds)
}

func TestFileSeedGrabberErrors(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		wantErr error
		msg     string
	}{
		{name: "empty file", body: "", wantErr: ErrNoSeeds},
		{name: "empty list", body: "seeds: []\n", wantErr: ErrNoSeeds},
		{name: "unknown field", body: "seeds:\n  - name: a\n    body: x\n", msg: "failed to parse corpus file"},
		{name: "no content", body: "seeds:\n  - name: a\n", msg: `seed "a" has no html or file`},
		{name: "both sources", body: "seeds:\n  - name: a\n    html: x\n    file: y\n", msg: "mutually exclusive"},
		{name: "missing file", body: "seeds:\n  - name: a\n    file: nope.html\n", msg: `seed "a"`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeCorpus(t, t.TempDir(), tt.body)
			_, err := NewFileSeedGrabber(&config.AppConfig{CorpusFile: path}).GrabSeeds()
			require.Error(t, err)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			}
			if tt.msg != "" {
				assert.Contains(t, err.Error(), tt.msg)
			}
		})
	}
}

func TestFileSeedGrabberDisabledWithoutPath(t *testing.T) {
	assert.Nil(t, NewFileSeedGrabber(&config.AppConfig{}))
}

func TestCorpusGrabberFallsBackOnEmptySource(t *testing.T) {
	empty := &staticGrabber{err: ErrNoSeeds}
	fallback := &staticGrabber{seeds: []types.Seed{{Name: "a", HTML: "<body></body>"}}}
	var disabled *FileSeedGrabber

	g := NewCorpusGrabberFrom(zaptest.NewLogger(t), disabled, empty, fallback)
	seeds, err := g.GrabSeeds(context.Background())

	require.NoError(t, err)
	assert.Equal(t, fallback.seeds, seeds)
	assert.Equal(t, 1, empty.calls)
}

func TestCorpusGrabberStopsOnHardError(t *testing.T) {
	broken := &staticGrabber{err: errors.New("permission denied")}
	fallback := &staticGrabber{seeds: BuiltinSeeds()}

	g := NewCorpusGrabberFrom(zaptest.NewLogger(t), broken, fallback)
	_, err := g.GrabSeeds(context.Background())

	require.Error(t, err)
	assert.Contains(t, err.Error(), "permission denied")
	assert.Zero(t, fallback.calls)
}

func TestCorpusGrabberNothingAvailable(t *testing.T) {
	g := NewCorpusGrabberFrom(zaptest.NewLogger(t), &staticGrabber{})
	_, err := g.GrabSeeds(context.Background())
	assert.ErrorIs(t, err, ErrNoSeeds)
}

func TestNewCorpusGrabberUsesBuiltinsByDefault(t *testing.T) {
	g := NewCorpusGrabber(CorpusGrabberParams{
		Logger:             zaptest.NewLogger(t),
		BuiltinSeedGrabber: NewBuiltinSeedGrabber(),
	})
	seeds, err := g.GrabSeeds(context.Background())
	require.NoError(t, err)
	assert.Equal(t, BuiltinSeeds(), seeds)
}
