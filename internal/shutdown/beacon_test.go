package shutdown

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recorder struct {
	hits        atomic.Int32
	body        atomic.Value
	contentType atomic.Value
}

func newShutdownServer(t *testing.T) (*httptest.Server, *recorder) {
	t.Helper()
	rec := &recorder{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != Path {
			http.NotFound(w, r)
			return
		}
		data, _ := io.ReadAll(r.Body)
		rec.body.Store(string(data))
		rec.contentType.Store(r.Header.Get("Content-Type"))
		rec.hits.Add(1)
		w.WriteHeader(http.StatusAccepted)
	}))
	t.Cleanup(srv.Close)
	return srv, rec
}

func mustParse(t *testing.T, raw string) *url.URL {
	t.Helper()
	u, err := url.Parse(raw)
	require.NoError(t, err)
	return u
}

func TestBeaconFiresOnlyAfterIntentionalQuit(t *testing.T) {
	srv, rec := newShutdownServer(t)
	b := NewBeacon(mustParse(t, srv.URL+"/pairs/"), srv.Client(), nil)
	require.True(t, b.Enabled())

	assert.False(t, b.Send(context.Background()), "plain exit must not notify")
	assert.Equal(t, int32(0), rec.hits.Load())

	b.MarkIntentionalQuit()
	assert.True(t, b.Send(context.Background()))
	assert.Equal(t, int32(1), rec.hits.Load())
	assert.Equal(t, "{}", rec.body.Load())
	assert.Equal(t, "application/json", rec.contentType.Load())

	assert.False(t, b.Send(context.Background()), "beacon fires once")
	assert.Equal(t, int32(1), rec.hits.Load())
}

func TestBeaconIgnoresDeliveryFailure(t *testing.T) {
	srv, _ := newShutdownServer(t)
	base := mustParse(t, srv.URL)
	srv.Close()

	b := NewBeacon(base, nil, nil)
	b.MarkIntentionalQuit()
	assert.True(t, b.Send(context.Background()))
}

func TestBeaconDisabledForRemoteOrMissingHost(t *testing.T) {
	for _, b := range []*Beacon{
		NewBeacon(nil, nil, nil),
		NewBeacon(mustParse(t, "https://example.com/pairs"), nil, nil),
	} {
		assert.False(t, b.Enabled())
		b.MarkIntentionalQuit()
		assert.False(t, b.Send(context.Background()))
	}
}

func TestIsLocalHost(t *testing.T) {
	for _, host := range []string{"localhost", "localhost:8000", "127.0.0.1:9", "[::1]", "[::1]:8000"} {
		assert.True(t, IsLocalHost(host), host)
	}
	for _, host := range []string{"example.com", "10.0.0.1:80", ""} {
		assert.False(t, IsLocalHost(host), host)
	}
}
