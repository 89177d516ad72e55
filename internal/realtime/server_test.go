package realtime

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lazyvibe/codescan/internal/model"
)

func newTestServer(t *testing.T) (*Server, *httptest.Server) {
	t.Helper()
	s := New(nil)
	s.now = func() time.Time { return time.Unix(1700000000, 0).UTC() }
	ts := httptest.NewServer(s.Handler())
	t.Cleanup(ts.Close)
	return s, ts
}

func dial(t *testing.T, ts *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readState(t *testing.T, conn *websocket.Conn) StateMessage {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var msg StateMessage
	require.NoError(t, conn.ReadJSON(&msg))
	return msg
}

func clientCount(s *Server) int {
	s.clientsMu.RLock()
	defer s.clientsMu.RUnlock()
	return len(s.clients)
}

func TestServer_StateEndpoint(t *testing.T) {
	s, ts := newTestServer(t)

	get := func() StateMessage {
		resp, err := http.Get(ts.URL + "/state")
		require.NoError(t, err)
		defer resp.Body.Close()
		assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))
		var msg StateMessage
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&msg))
		return msg
	}

	msg := get()
	assert.Equal(t, TypeState, msg.Type)
	assert.Equal(t, "undetermined", msg.State)

	s.Publish("s1", model.ScannedCode("https://example.com/activate"))
	msg = get()
	assert.Equal(t, "s1", msg.SessionID)
	assert.Equal(t, "scanned_code", msg.State)
	assert.Equal(t, "https://example.com/activate", msg.Payload)

	resp, err := http.Post(ts.URL+"/state", "application/json", nil)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
}

func TestServer_WebSocketSnapshotAndUpdates(t *testing.T) {
	s, ts := newTestServer(t)

	s.Publish("s1", model.Scanning())
	conn := dial(t, ts)

	msg := readState(t, conn)
	assert.Equal(t, "scanning", msg.State)
	assert.Equal(t, "s1", msg.SessionID)

	require.Eventually(t, func() bool { return clientCount(s) == 1 }, 2*time.Second, 5*time.Millisecond)

	s.Publish("s1", model.ErrorState("no camera device"))
	msg = readState(t, conn)
	assert.Equal(t, "error", msg.State)
	assert.Equal(t, "no camera device", msg.Message)
	assert.Empty(t, msg.Payload)
}

func TestServer_ClientDisconnect(t *testing.T) {
	s, ts := newTestServer(t)

	conn := dial(t, ts)
	require.Eventually(t, func() bool { return clientCount(s) == 1 }, 2*time.Second, 5*time.Millisecond)

	conn.Close()
	require.Eventually(t, func() bool { return clientCount(s) == 0 }, 2*time.Second, 5*time.Millisecond)

	assert.NotPanics(t, func() { s.Publish("s1", model.Scanning()) })
}

type fakeSource struct {
	ch       chan model.ScanningState
	mu       sync.Mutex
	canceled bool
}

func (f *fakeSource) SessionID() string { return "s2" }

func (f *fakeSource) Subscribe() (<-chan model.ScanningState, func()) {
	return f.ch, func() {
		f.mu.Lock()
		defer f.mu.Unlock()
		f.canceled = true
	}
}

func TestServer_Follow(t *testing.T) {
	s, _ := newTestServer(t)
	src := &fakeSource{ch: make(chan model.ScanningState, 2)}

	s.Follow(context.Background(), src)
	src.ch <- model.Scanning()
	src.ch <- model.ScannedCode("abc")
	close(src.ch)

	require.Eventually(t, func() bool {
		msg, ok := s.Snapshot()
		return ok && msg.State == "scanned_code"
	}, 2*time.Second, 5*time.Millisecond)

	msg, _ := s.Snapshot()
	assert.Equal(t, "s2", msg.SessionID)
	assert.Equal(t, "abc", msg.Payload)

	require.Eventually(t, func() bool {
		src.mu.Lock()
		defer src.mu.Unlock()
		return src.canceled
	}, 2*time.Second, 5*time.Millisecond)
}

func TestServer_ListenAndServeStopsOnCancel(t *testing.T) {
	s := New(nil)
	ctx, cancel := context.WithCancel(context.Background())

	errCh := make(chan error, 1)
	go func() { errCh <- s.ListenAndServe(ctx, "127.0.0.1:0") }()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-errCh:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}
}
