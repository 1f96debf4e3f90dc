package ws

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vedran77/taskmate/internal/logger"
	"nhooyr.io/websocket"
	"nhooyr.io/websocket/wsjson"
)

type fakeVerifier map[string]string

func (f fakeVerifier) VerifyToken(token string) (string, error) {
	identity, ok := f[token]
	if !ok {
		return "", errors.New("invalid token")
	}
	return identity, nil
}

func newWSServer(t *testing.T) (*httptest.Server, *Hub) {
	t.Helper()
	hub, _ := startHub(t)
	verifier := fakeVerifier{"alice-token": "alice@x.com"}
	srv := httptest.NewServer(ServeWS(hub, verifier, []string{"http://localhost:5173"}, logger.Discard()))
	t.Cleanup(srv.Close)
	return srv, hub
}

func dial(t *testing.T, srv *httptest.Server, cookie string) (*websocket.Conn, *http.Response, error) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	header := http.Header{}
	if cookie != "" {
		header.Set("Cookie", cookie)
	}
	return websocket.Dial(ctx, "ws"+strings.TrimPrefix(srv.URL, "http"), &websocket.DialOptions{
		HTTPHeader: header,
	})
}

func readEvent(t *testing.T, conn *websocket.Conn) Event {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	var evt Event
	require.NoError(t, wsjson.Read(ctx, conn, &evt))
	return evt
}

func writeEvent(t *testing.T, conn *websocket.Conn, raw string) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, conn.Write(ctx, websocket.MessageText, []byte(raw)))
}

func TestServeWS_JoinAndNotify(t *testing.T) {
	srv, hub := newWSServer(t)

	conn, _, err := dial(t, srv, "token=alice-token")
	require.NoError(t, err)
	defer conn.Close(websocket.StatusNormalClosure, "")

	writeEvent(t, conn, `{"type":"join-room","payload":"alice@x.com"}`)
	require.Equal(t, EventTypeJoined, readEvent(t, conn).Type)

	NewHubNotifier(hub, logger.Discard()).NotifyTasksChanged("alice@x.com")

	evt := readEvent(t, conn)
	assert.Equal(t, "task-updated-alice@x.com", evt.Type)
	assert.Empty(t, evt.Payload)
}

func TestServeWS_RefusesForeignJoin(t *testing.T) {
	srv, hub := newWSServer(t)

	conn, _, err := dial(t, srv, "token=alice-token")
	require.NoError(t, err)
	defer conn.Close(websocket.StatusNormalClosure, "")

	writeEvent(t, conn, `{"type":"join-room","payload":"bob@x.com"}`)
	evt := readEvent(t, conn)
	require.Equal(t, EventTypeError, evt.Type)
	assert.Contains(t, string(evt.Payload), "FORBIDDEN")

	// Nothing addressed to bob reaches this session.
	NewHubNotifier(hub, logger.Discard()).NotifyTasksChanged("bob@x.com")
	writeEvent(t, conn, `{"type":"ping"}`)
	assert.Equal(t, EventTypePong, readEvent(t, conn).Type)
}

func TestServeWS_UnknownEvent(t *testing.T) {
	srv, _ := newWSServer(t)

	conn, _, err := dial(t, srv, "token=alice-token")
	require.NoError(t, err)
	defer conn.Close(websocket.StatusNormalClosure, "")

	writeEvent(t, conn, `{"type":"dance"}`)
	evt := readEvent(t, conn)
	assert.Equal(t, EventTypeError, evt.Type)
	assert.Contains(t, string(evt.Payload), "UNKNOWN_EVENT")
}

func TestServeWS_RequiresCookie(t *testing.T) {
	srv, _ := newWSServer(t)

	for _, cookie := range []string{"", "token=forged"} {
		conn, resp, err := dial(t, srv, cookie)
		require.Error(t, err)
		if conn != nil {
			conn.Close(websocket.StatusNormalClosure, "")
		}
		require.NotNil(t, resp)
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	}
}
