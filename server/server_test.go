package server

import (
	"io"
	"log/slog"
	"math/rand"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pong/protocol"
	"pong/store"
	"pong/tournament"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testServer(t *testing.T) (*Server, *store.Store, string) {
	t.Helper()
	st := store.Open(filepath.Join(t.TempDir(), "data.json"), discardLogger())
	t.Cleanup(st.Close)

	srv := New(st, discardLogger())
	t.Cleanup(srv.Shutdown)

	mux := http.NewServeMux()
	mux.HandleFunc("/ws", srv.ServeWS)
	ts := httptest.NewServer(mux)
	t.Cleanup(ts.Close)

	return srv, st, "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"
}

func dial(t *testing.T, url string) *websocket.Conn {
	t.Helper()
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

// readUntil drains the connection until a message of the wanted type shows up
// (state broadcasts arrive interleaved with everything else).
func readUntil[T any](t *testing.T, conn *websocket.Conn, wantType string) T {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for {
		require.NoError(t, conn.SetReadDeadline(deadline))
		_, raw, err := conn.ReadMessage()
		require.NoError(t, err, "waiting for %q", wantType)
		env, err := protocol.DecodeEnvelope(raw)
		if err != nil || env.Type != wantType {
			continue
		}
		out, err := protocol.DecodePayload[T](raw)
		require.NoError(t, err)
		return out
	}
}

func send(t *testing.T, conn *websocket.Conn, payload any) {
	t.Helper()
	b, err := protocol.Encode(payload)
	require.NoError(t, err)
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, b))
}

func TestFindMatchPairsTwoClients(t *testing.T) {
	_, _, url := testServer(t)

	c1 := dial(t, url)
	c2 := dial(t, url)

	send(t, c1, protocol.FindMatch{Type: protocol.MsgFindMatch, Nickname: "alice"})
	readUntil[protocol.Waiting](t, c1, protocol.MsgWaiting)

	send(t, c2, protocol.FindMatch{Type: protocol.MsgFindMatch, Nickname: "bob"})

	m1 := readUntil[protocol.Match](t, c1, protocol.MsgMatch)
	m2 := readUntil[protocol.Match](t, c2, protocol.MsgMatch)

	assert.Equal(t, 0, m1.PlayerIdx)
	assert.Equal(t, 1, m2.PlayerIdx)
	assert.Equal(t, m1.Nicknames, m2.Nicknames)
	assert.Equal(t, [2]string{"alice", "bob"}, m1.Nicknames)
	assert.Empty(t, m1.TournamentID)

	// The simulation starts broadcasting right away.
	gs := readUntil[protocol.GameState](t, c1, protocol.MsgGameState)
	assert.Equal(t, [2]int{0, 0}, gs.State.Scores)
	assert.Equal(t, [2]float64{110, 110}, gs.State.PaddleSize)
}

func TestFindMatchDefaultsIdentity(t *testing.T) {
	_, _, url := testServer(t)

	c1 := dial(t, url)
	c2 := dial(t, url)
	send(t, c1, protocol.FindMatch{Type: protocol.MsgFindMatch})
	send(t, c2, protocol.FindMatch{Type: protocol.MsgFindMatch})

	m := readUntil[protocol.Match](t, c1, protocol.MsgMatch)
	assert.Equal(t, [2]string{"Player", "Player"}, m.Nicknames)
	assert.Equal(t, [2]string{"default", "default"}, m.Skins)
}

func TestLoneClientStaysWaiting(t *testing.T) {
	_, _, url := testServer(t)

	c1 := dial(t, url)
	send(t, c1, protocol.FindMatch{Type: protocol.MsgFindMatch})
	readUntil[protocol.Waiting](t, c1, protocol.MsgWaiting)

	require.NoError(t, c1.SetReadDeadline(time.Now().Add(200*time.Millisecond)))
	_, raw, err := c1.ReadMessage()
	require.Error(t, err, "expected no further messages, got %s", raw)
}

func TestOpponentLeftOnDisconnect(t *testing.T) {
	_, _, url := testServer(t)

	c1 := dial(t, url)
	c2 := dial(t, url)
	send(t, c1, protocol.FindMatch{Type: protocol.MsgFindMatch})
	send(t, c2, protocol.FindMatch{Type: protocol.MsgFindMatch})
	readUntil[protocol.Match](t, c1, protocol.MsgMatch)
	readUntil[protocol.Match](t, c2, protocol.MsgMatch)

	require.NoError(t, c2.Close())

	readUntil[protocol.OpponentLeft](t, c1, protocol.MsgOpponentLeft)
}

func TestProfileSavedEcho(t *testing.T) {
	_, _, url := testServer(t)

	c1 := dial(t, url)
	send(t, c1, protocol.Profile{
		Type:    protocol.MsgProfile,
		Profile: protocol.ProfileFields{Nickname: "alice", Avatar: "cat", Skin: "neon"},
	})

	saved := readUntil[struct {
		Type    string        `json:"type"`
		Profile store.Profile `json:"profile"`
	}](t, c1, protocol.MsgProfileSaved)

	assert.Equal(t, "alice", saved.Profile.Nickname)
	assert.NotEmpty(t, saved.Profile.ID)
}

func TestLeaderboardRequest(t *testing.T) {
	_, st, url := testServer(t)

	st.RecordResult("w", "l")
	st.RecordResult("w", "l")

	c1 := dial(t, url)
	send(t, c1, protocol.GetLeaderboard{Type: protocol.MsgGetLeaderboard})

	lb := readUntil[struct {
		Type        string          `json:"type"`
		Leaderboard []store.Profile `json:"leaderboard"`
	}](t, c1, protocol.MsgLeaderboard)

	require.Len(t, lb.Leaderboard, 2)
	assert.Equal(t, "w", lb.Leaderboard[0].ID)
	assert.Equal(t, 2, lb.Leaderboard[0].Stats.Wins)
}

func TestCreateTournamentFiltersUnknownPlayers(t *testing.T) {
	_, st, url := testServer(t)

	for _, id := range []string{"p1", "p2", "p3", "p4"} {
		st.UpdateProfile(id, "nick-"+id, "", "")
	}

	c1 := dial(t, url)
	send(t, c1, protocol.CreateTournament{
		Type:    protocol.MsgCreateTournament,
		Players: []string{"p1", "p2", "p3", "p4", "ghost"},
	})

	created := readUntil[struct {
		Type       string                `json:"type"`
		Tournament tournament.Tournament `json:"tournament"`
	}](t, c1, protocol.MsgTournamentCreated)

	tr := created.Tournament
	assert.NotEmpty(t, tr.ID)
	assert.Len(t, tr.Players, 4)
	require.Len(t, tr.Bracket, 2)
	assert.Empty(t, tr.Champion)
	for _, m := range tr.Bracket {
		assert.NotEqual(t, "ghost", m.P1)
		assert.NotEqual(t, "ghost", m.P2)
		assert.Empty(t, m.Winner)
	}
}

func TestGetTournament(t *testing.T) {
	_, st, url := testServer(t)
	st.PutTournament(tournament.New("t1", "classic", []string{"a", "b"}, rand.New(rand.NewSource(5))))

	c1 := dial(t, url)
	send(t, c1, protocol.GetTournament{Type: protocol.MsgGetTournament, TID: "t1"})

	got := readUntil[struct {
		Type       string                `json:"type"`
		Tournament tournament.Tournament `json:"tournament"`
	}](t, c1, protocol.MsgTournament)

	assert.Equal(t, "t1", got.Tournament.ID)
	require.Len(t, got.Tournament.Bracket, 1)
}

func TestStartTournamentMatchLaunchesBracketEntry(t *testing.T) {
	_, st, url := testServer(t)

	c1 := dial(t, url)
	c2 := dial(t, url)

	// Learn each connection's server-side id through the profile echo.
	var ids [2]string
	for i, c := range []*websocket.Conn{c1, c2} {
		send(t, c, protocol.Profile{
			Type:    protocol.MsgProfile,
			Profile: protocol.ProfileFields{Nickname: "player"},
		})
		saved := readUntil[struct {
			Type    string        `json:"type"`
			Profile store.Profile `json:"profile"`
		}](t, c, protocol.MsgProfileSaved)
		ids[i] = saved.Profile.ID
	}

	st.PutTournament(tournament.New("t1", "classic", ids[:], rand.New(rand.NewSource(5))))

	send(t, c1, protocol.StartTournamentMatch{Type: protocol.MsgStartTournamentMatch, TID: "t1", Idx: 0})

	m1 := readUntil[protocol.Match](t, c1, protocol.MsgMatch)
	m2 := readUntil[protocol.Match](t, c2, protocol.MsgMatch)

	assert.Equal(t, "t1", m1.TournamentID)
	require.NotNil(t, m1.BracketIdx)
	assert.Equal(t, 0, *m1.BracketIdx)
	assert.ElementsMatch(t, []int{0, 1}, []int{m1.PlayerIdx, m2.PlayerIdx})

	gs := readUntil[protocol.GameState](t, c1, protocol.MsgGameState)
	assert.Equal(t, "t1", gs.State.TournamentID)
}

func TestStartTournamentMatchMissingPlayerIsNoop(t *testing.T) {
	_, st, url := testServer(t)
	st.PutTournament(tournament.New("t1", "classic", []string{"offline1", "offline2"}, rand.New(rand.NewSource(5))))

	c1 := dial(t, url)
	send(t, c1, protocol.StartTournamentMatch{Type: protocol.MsgStartTournamentMatch, TID: "t1", Idx: 0})

	require.NoError(t, c1.SetReadDeadline(time.Now().Add(200*time.Millisecond)))
	_, _, err := c1.ReadMessage()
	require.Error(t, err, "expected silence for a bracket entry with offline players")
}

func TestMalformedMessagesAreIgnored(t *testing.T) {
	_, _, url := testServer(t)

	c1 := dial(t, url)
	require.NoError(t, c1.WriteMessage(websocket.TextMessage, []byte("{not json")))
	require.NoError(t, c1.WriteMessage(websocket.TextMessage, []byte(`{"type":"warp_ball"}`)))

	// The connection survives and still works.
	send(t, c1, protocol.FindMatch{Type: protocol.MsgFindMatch})
	readUntil[protocol.Waiting](t, c1, protocol.MsgWaiting)
}
