package client

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bitfsorg/whochat/chat"
	"github.com/bitfsorg/whochat/envelope"
	"github.com/bitfsorg/whochat/server"
	"github.com/bitfsorg/whochat/storage"
)

func newLiveServer(t *testing.T) *httptest.Server {
	t.Helper()
	fs, err := storage.NewFileStore(t.TempDir())
	require.NoError(t, err)
	codec, err := envelope.NewDefaultCodec(envelope.SchemeAge, envelope.Options{
		ScryptWorkFactor: envelope.MinScryptWorkFactor,
	})
	require.NoError(t, err)

	srv := httptest.NewServer(server.New(chat.NewStore(fs, codec), server.Options{Logger: zerolog.Nop()}).Handler())
	t.Cleanup(srv.Close)
	return srv
}

func TestClient_AgainstServer(t *testing.T) {
	srv := newLiveServer(t)
	c := New(srv.URL+"/", WithHTTPClient(srv.Client()))
	ctx := context.Background()

	_, err := c.Get(ctx, "room", "pw")
	assert.ErrorIs(t, err, chat.ErrChatNotFound)

	msg, err := c.Post(ctx, "room", "pw", "world")
	require.NoError(t, err)
	assert.Equal(t, server.MsgPosted, msg)

	_, err = c.Post(ctx, "room", "pw", "hello ")
	require.NoError(t, err)

	text, err := c.Get(ctx, "room", "pw")
	require.NoError(t, err)
	assert.Equal(t, "hello world", text)

	_, err = c.Get(ctx, "room", "nope")
	assert.ErrorIs(t, err, chat.ErrWrongPassword)

	_, err = c.Post(ctx, "bad name", "pw", "x")
	var se *StatusError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, http.StatusBadRequest, se.Code)
	assert.Equal(t, chat.ErrInvalidName.Error(), se.Message)

	msg, err = c.Delete(ctx, "room", "pw")
	require.NoError(t, err)
	assert.Equal(t, server.MsgDeleted, msg)

	_, err = c.Delete(ctx, "room", "pw")
	assert.ErrorIs(t, err, chat.ErrChatNotFound)
}

func TestClient_SendsJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/who_chat/post", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var body map[string]string
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, map[string]string{"name": "room", "password": "pw", "content": "hi"}, body)
		_, _ = w.Write([]byte("Posted!"))
	}))
	defer srv.Close()

	msg, err := New(srv.URL).Post(context.Background(), "room", "pw", "hi")
	require.NoError(t, err)
	assert.Equal(t, "Posted!", msg)
}

func TestClient_ResponseCapped(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(strings.Repeat("x", MaxResponseSize+100)))
	}))
	defer srv.Close()

	text, err := New(srv.URL).Get(context.Background(), "room", "pw")
	require.NoError(t, err)
	assert.Len(t, text, MaxResponseSize)
}

func TestClient_ServerErrorHasNoChatKind(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	_, err := New(srv.URL).Get(context.Background(), "room", "pw")
	var se *StatusError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, http.StatusInternalServerError, se.Code)
	assert.Nil(t, chat.Kind(err))
	assert.Contains(t, err.Error(), "HTTP 500")
}

func TestClient_ConnectionFailed(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	_, err := New(url).Get(context.Background(), "room", "pw")
	assert.ErrorIs(t, err, ErrConnectionFailed)
}

func TestClient_ContextCancelled(t *testing.T) {
	srv := newLiveServer(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := New(srv.URL).Get(ctx, "room", "pw")
	assert.ErrorIs(t, err, context.Canceled)
}
