package server

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bitfsorg/whochat/chat"
	"github.com/bitfsorg/whochat/envelope"
	"github.com/bitfsorg/whochat/metrics"
	"github.com/bitfsorg/whochat/storage"
)

func newTestServer(t *testing.T) (*Server, *storage.FileStore) {
	t.Helper()
	fs, err := storage.NewFileStore(t.TempDir())
	require.NoError(t, err)
	codec, err := envelope.NewDefaultCodec(envelope.SchemeArgon2id, envelope.Options{
		ScryptWorkFactor: envelope.MinScryptWorkFactor,
		Argon2:           envelope.Argon2Params{Time: 1, Memory: 8 * 1024, Threads: 1},
	})
	require.NoError(t, err)

	rec := metrics.New(zerolog.Nop())
	store := chat.NewStore(fs, codec, chat.WithObserver(rec))
	return New(store, Options{MaxBodyBytes: 1024, Logger: zerolog.Nop(), Metrics: rec.Handler()}), fs
}

func do(t *testing.T, h http.Handler, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var r io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		r = strings.NewReader(b)
	default:
		data, err := json.Marshal(b)
		require.NoError(t, err)
		r = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, path, r)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func TestChatRoutes_Lifecycle(t *testing.T) {
	s, _ := newTestServer(t)
	h := s.Handler()

	w := do(t, h, http.MethodPost, "/who_chat/get", AccessRequest{Name: "room", Password: "pw"})
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, MsgNotFound, w.Body.String())

	w = do(t, h, http.MethodPost, "/who_chat/post", PostRequest{Name: "room", Password: "pw", Content: "A"})
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, MsgPosted, w.Body.String())
	assert.Equal(t, "text/plain; charset=utf-8", w.Header().Get("Content-Type"))

	w = do(t, h, http.MethodPost, "/who_chat/post", PostRequest{Name: "room", Password: "pw", Content: "B"})
	assert.Equal(t, http.StatusOK, w.Code)

	w = do(t, h, http.MethodPost, "/who_chat/get", AccessRequest{Name: "room", Password: "pw"})
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "BA", w.Body.String())

	w = do(t, h, http.MethodPost, "/who_chat/get", AccessRequest{Name: "room", Password: "bad"})
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, chat.ErrWrongPassword.Error(), w.Body.String())

	w = do(t, h, http.MethodPost, "/who_chat/delete", AccessRequest{Name: "room", Password: "bad"})
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = do(t, h, http.MethodPost, "/who_chat/delete", AccessRequest{Name: "room", Password: "pw"})
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, MsgDeleted, w.Body.String())

	w = do(t, h, http.MethodPost, "/who_chat/delete", AccessRequest{Name: "room", Password: "pw"})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestChatRoutes_BadRequests(t *testing.T) {
	s, fs := newTestServer(t)
	h := s.Handler()

	tests := []struct {
		name   string
		path   string
		body   interface{}
		status int
	}{
		{"malformed json", "/who_chat/get", "{not json", http.StatusBadRequest},
		{"empty body", "/who_chat/post", "", http.StatusBadRequest},
		{"bad name", "/who_chat/post", PostRequest{Name: "a b", Password: "pw", Content: "x"}, http.StatusBadRequest},
		{"empty password", "/who_chat/get", AccessRequest{Name: "room"}, http.StatusBadRequest},
		{"empty content", "/who_chat/post", PostRequest{Name: "room", Password: "pw"}, http.StatusBadRequest},
		{"too large", "/who_chat/post", PostRequest{Name: "room", Password: "pw", Content: strings.Repeat("x", 2048)}, http.StatusRequestEntityTooLarge},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := do(t, h, http.MethodPost, tt.path, tt.body)
			assert.Equal(t, tt.status, w.Code)
		})
	}

	names, err := fs.List()
	require.NoError(t, err)
	assert.Empty(t, names)
}

func TestChatRoutes_MethodNotAllowed(t *testing.T) {
	s, _ := newTestServer(t)
	w := do(t, s.Handler(), http.MethodGet, "/who_chat/get", nil)
	assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
}

func TestChatRoutes_CorruptedIsServerError(t *testing.T) {
	s, fs := newTestServer(t)
	require.NoError(t, fs.Put("room", []byte("short")))

	w := do(t, s.Handler(), http.MethodPost, "/who_chat/get", AccessRequest{Name: "room", Password: "pw"})
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, chat.ErrDataCorruption.Error(), w.Body.String())
}

func TestStatusFor(t *testing.T) {
	assert.Equal(t, http.StatusBadRequest, StatusFor(chat.ErrInvalidName))
	assert.Equal(t, http.StatusBadRequest, StatusFor(chat.ErrEmptyContent))
	assert.Equal(t, http.StatusNotFound, StatusFor(chat.ErrChatNotFound))
	assert.Equal(t, http.StatusForbidden, StatusFor(chat.ErrWrongPassword))
	assert.Equal(t, http.StatusInternalServerError, StatusFor(chat.ErrDataCorruption))
	assert.Equal(t, http.StatusInternalServerError, StatusFor(chat.ErrInternal))
}

func TestHealthAndReady(t *testing.T) {
	s, _ := newTestServer(t)
	h := s.Handler()

	w := do(t, h, http.MethodGet, "/healthz", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ok", w.Body.String())

	w = do(t, h, http.MethodGet, "/readyz", nil)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)

	s.SetReady(true)
	w = do(t, h, http.MethodGet, "/readyz", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ready", w.Body.String())
}

func TestMetricsRoute(t *testing.T) {
	s, _ := newTestServer(t)
	h := s.Handler()

	do(t, h, http.MethodPost, "/who_chat/post", PostRequest{Name: "room", Password: "pw", Content: "x"})
	w := do(t, h, http.MethodGet, "/metrics", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `whochat_operations_total{op="create",result="ok"} 1`)
	assert.Contains(t, w.Body.String(), "whochat_chats_created_total 1")
}

func TestRequestID(t *testing.T) {
	s, _ := newTestServer(t)
	h := s.Handler()

	w := do(t, h, http.MethodGet, "/healthz", nil)
	assert.Len(t, w.Header().Get(RequestIDHeader), 36)

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set(RequestIDHeader, "abc-123")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, "abc-123", rec.Header().Get(RequestIDHeader))
}

func TestAccessLog(t *testing.T) {
	var buf bytes.Buffer
	h := RequestID(AccessLog(zerolog.New(&buf))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.NotEmpty(t, GetRequestID(r.Context()))
		w.WriteHeader(http.StatusTeapot)
		_, _ = w.Write([]byte("tea"))
	})))
	do(t, h, http.MethodGet, "/pot", nil)

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "http_request", entry["message"])
	assert.Equal(t, "/pot", entry["path"])
	assert.Equal(t, float64(http.StatusTeapot), entry["status"])
	assert.Equal(t, float64(3), entry["bytes"])
	assert.NotEmpty(t, entry["rid"])
}

func TestServe_GracefulShutdown(t *testing.T) {
	s, _ := newTestServer(t)
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Serve(ctx, ln) }()

	url := "http://" + ln.Addr().String() + "/readyz"
	require.Eventually(t, func() bool {
		resp, err := http.Get(url)
		if err != nil {
			return false
		}
		_ = resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	}, 5*time.Second, 20*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(ShutdownTimeout + time.Second):
		t.Fatal("server did not shut down")
	}
	assert.False(t, s.Ready())
}

func TestListenAndServe_BadAddr(t *testing.T) {
	s, _ := newTestServer(t)
	err := s.ListenAndServe(context.Background(), "256.0.0.1:bad")
	assert.Error(t, err)
}
