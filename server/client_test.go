package server

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"
)

// wsPair upgrades one real websocket connection and returns both ends.
func wsPair(t *testing.T) (serverSide *websocket.Conn, clientSide *websocket.Conn) {
	t.Helper()
	upgrader := websocket.Upgrader{CheckOrigin: func(r *http.Request) bool { return true }}
	accepted := make(chan *websocket.Conn, 1)
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		accepted <- conn
	}))
	t.Cleanup(ts.Close)

	url := "ws" + strings.TrimPrefix(ts.URL, "http")
	clientSide, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = clientSide.Close() })

	select {
	case serverSide = <-accepted:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for upgrade")
	}
	return serverSide, clientSide
}

func TestCloseDeliversQueuedFramesFirst(t *testing.T) {
	// Send-then-Close is exactly what a session does with its terminal
	// notice; the frame must arrive before the close handshake.
	for i := 0; i < 50; i++ {
		sconn, peer := wsPair(t)
		c := &client{
			id:        "c1",
			conn:      sconn,
			send:      make(chan []byte, sendBufferSize),
			done:      make(chan struct{}),
			playerIdx: -1,
		}
		go c.writePump()

		frame := []byte(`{"type":"gameover","winnerIdx":0,"scores":[10,7]}`)
		require.NoError(t, c.Send(frame))
		require.NoError(t, c.Close())

		got := false
		require.NoError(t, peer.SetReadDeadline(time.Now().Add(2*time.Second)))
		for {
			_, raw, err := peer.ReadMessage()
			if err != nil {
				break // close handshake or EOF
			}
			if string(raw) == string(frame) {
				got = true
			}
		}
		require.True(t, got, "terminal frame lost on iteration %d", i)
		_ = peer.Close()
	}
}
