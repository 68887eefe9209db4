package pairs

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleRecord = `{"kana":"はし","pairs":[
	{"rawPronunciation":"はし","accentedMora":1,"moraCount":2,"pitchAccent":1,"soundData":"AAA="},
	{"rawPronunciation":"はし","accentedMora":2,"moraCount":2,"pitchAccent":2,"soundData":"BBB="}
]}`

func writeDataDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, DataDir), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, IndexFile), []byte(`{"pitch1":["hashi.json"],"pitch2":["hashi.json"]}`), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, DataDir, "hashi.json"), []byte(sampleRecord), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, DataDir, "empty.json"), []byte(`{"kana":"x","pairs":[]}`), 0o644))
	return dir
}

func TestNewSourcePicksImplementation(t *testing.T) {
	src, err := NewSource("http://localhost:8000")
	require.NoError(t, err)
	assert.IsType(t, &HTTPSource{}, src)
	assert.Equal(t, "http://localhost:8000/", src.Location())

	src, err = NewSource("/tmp/pairs")
	require.NoError(t, err)
	assert.IsType(t, &DirSource{}, src)

	_, err = NewSource("  ")
	require.Error(t, err)
}

func TestDirSource(t *testing.T) {
	ctx := context.Background()
	src := NewDirSource(writeDataDir(t))

	idx, err := src.Index(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"hashi.json"}, idx.All())

	rec, err := src.Record(ctx, "hashi.json")
	require.NoError(t, err)
	assert.Equal(t, "hashi.json", rec.ID)
	assert.Equal(t, "はし", rec.Kana)
	require.Len(t, rec.Pairs, 2)
	assert.Equal(t, 2, rec.Pairs[1].PitchAccent)

	_, err = src.Record(ctx, "missing.json")
	assert.True(t, IsNotFound(err))

	_, err = src.Record(ctx, "../index.json")
	assert.True(t, IsNotFound(err))

	_, err = src.Record(ctx, "empty.json")
	require.Error(t, err)
}

func TestHTTPSource(t *testing.T) {
	srv := httptest.NewServer(http.FileServer(http.Dir(writeDataDir(t))))
	defer srv.Close()

	src, err := NewHTTPSource(srv.URL, srv.Client())
	require.NoError(t, err)
	ctx := context.Background()

	idx, err := src.Index(ctx)
	require.NoError(t, err)
	assert.True(t, idx.Contains("pitch1", "hashi.json"))

	rec, err := src.Record(ctx, "hashi.json")
	require.NoError(t, err)
	assert.Equal(t, "はし", rec.Kana)

	_, err = src.Record(ctx, "missing.json")
	assert.True(t, IsNotFound(err))
}

func TestHTTPSourceRejectsBadURL(t *testing.T) {
	_, err := NewHTTPSource("http://", nil)
	require.Error(t, err)
}

func TestValidID(t *testing.T) {
	assert.True(t, ValidID("0001.json"))
	for _, id := range []string{"", ".", "..", "a/b", `a\b`} {
		assert.False(t, ValidID(id), id)
	}
}
