package server

import (
	"context"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap"

	"github.com/verte-zerg/minipair/internal/pairs"
	"github.com/verte-zerg/minipair/internal/shutdown"
)

const record = `{"kana":"あめ","pairs":[
	{"rawPronunciation":"あめ","accentedMora":1,"moraCount":2,"pitchAccent":1,"soundData":"AA=="},
	{"rawPronunciation":"あめ","accentedMora":0,"moraCount":2,"pitchAccent":0,"soundData":"AA=="}
]}`

func dataDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, pairs.DataDir), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, pairs.IndexFile), []byte(`{"pitch0":["ame.json"],"pitch1":["ame.json"]}`), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, pairs.DataDir, "ame.json"), []byte(record), 0o644))
	return dir
}

func TestHandlerServesDataWithoutCaching(t *testing.T) {
	srv := New(Config{Dir: dataDir(t)}, zap.NewNop())
	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	resp, err := ts.Client().Get(ts.URL + "/index.json")
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), "ame.json")
	assert.Equal(t, "no-cache, no-store, must-revalidate", resp.Header.Get("Cache-Control"))
	assert.Equal(t, "no-cache", resp.Header.Get("Pragma"))
	assert.Equal(t, "0", resp.Header.Get("Expires"))

	resp, err = ts.Client().Get(ts.URL + "/data/missing.json")
	require.NoError(t, err)
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestHandlerWorksAsHTTPSource(t *testing.T) {
	srv := New(Config{Dir: dataDir(t)}, nil)
	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	src, err := pairs.NewHTTPSource(ts.URL, ts.Client())
	require.NoError(t, err)
	idx, err := src.Index(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"ame.json"}, idx.All())

	rec, err := src.Record(context.Background(), "ame.json")
	require.NoError(t, err)
	assert.Equal(t, "あめ", rec.Kana)
}

func TestShutdownEndpoint(t *testing.T) {
	srv := New(Config{Dir: dataDir(t)}, nil)
	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	for i := 0; i < 2; i++ {
		resp, err := ts.Client().Post(ts.URL+shutdown.Path, "application/json", strings.NewReader("{}"))
		require.NoError(t, err)
		_ = resp.Body.Close()
		assert.Equal(t, http.StatusAccepted, resp.StatusCode)
	}
	select {
	case <-srv.ShutdownRequested():
	default:
		t.Fatalf("expected shutdown to be requested")
	}

	resp, err := ts.Client().Get(ts.URL + shutdown.Path)
	require.NoError(t, err)
	_ = resp.Body.Close()
	assert.NotEqual(t, http.StatusAccepted, resp.StatusCode)
}

func TestServeStopsOnBeacon(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreTopFunction("internal/poll.runtime_pollWait"))
	ln, err := Listen("127.0.0.1", 0, 1)
	require.NoError(t, err)
	srv := New(Config{Dir: dataDir(t)}, nil)

	done := make(chan error, 1)
	go func() { done <- srv.Serve(context.Background(), ln) }()

	base, err := url.Parse("http://" + ln.Addr().String())
	require.NoError(t, err)
	client := &http.Client{Transport: &http.Transport{DisableKeepAlives: true}}
	beacon := shutdown.NewBeacon(base, client, nil)
	beacon.MarkIntentionalQuit()
	require.True(t, beacon.Send(context.Background()))

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatalf("server did not stop after shutdown beacon")
	}
}

func TestServeStopsOnContext(t *testing.T) {
	ln, err := Listen("127.0.0.1", 0, 1)
	require.NoError(t, err)
	srv := New(Config{Dir: dataDir(t)}, nil)
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() { done <- srv.Serve(ctx, ln) }()
	cancel()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatalf("server did not stop after cancel")
	}
}

func TestListenSkipsBusyPort(t *testing.T) {
	busy, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer busy.Close()
	port := busy.Addr().(*net.TCPAddr).Port

	ln, err := Listen("127.0.0.1", port, 1)
	require.Error(t, err)
	assert.Nil(t, ln)

	ln, err = Listen("127.0.0.1", port, 2)
	if err != nil {
		t.Skipf("adjacent port also busy: %v", err)
	}
	defer ln.Close()
	assert.Equal(t, port+1, ln.Addr().(*net.TCPAddr).Port)
}
