package server

import (
	"log/slog"
	"math/rand"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"pong/game"
	"pong/protocol"
	"pong/session"
	"pong/store"
	"pong/tournament"
)

// Server is the connection coordinator: it accepts websocket connections,
// routes inbound messages to the store or to match sessions, pairs waiting
// players and tears everything down on disconnect.
type Server struct {
	mu       sync.Mutex
	queue    queue
	sessions map[string]*session.Session
	clients  map[string]*client
	rng      *rand.Rand // bracket shuffles, guarded by mu

	store    *store.Store
	upgrader websocket.Upgrader
	log      *slog.Logger
}

func New(st *store.Store, logger *slog.Logger) *Server {
	return &Server{
		sessions: make(map[string]*session.Session),
		clients:  make(map[string]*client),
		rng:      rand.New(rand.NewSource(time.Now().UnixNano())),
		store:    st,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		log: logger,
	}
}

// ServeWS upgrades the connection and runs its read loop until disconnect.
func (s *Server) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Error("websocket upgrade", "error", err)
		return
	}
	c := &client{
		id:        "user-" + uuid.NewString(),
		conn:      conn,
		send:      make(chan []byte, sendBufferSize),
		done:      make(chan struct{}),
		playerIdx: -1,
	}
	s.mu.Lock()
	s.clients[c.id] = c
	s.mu.Unlock()

	s.log.Info("client connected", "id", c.id, "remote", conn.RemoteAddr())
	go c.writePump()
	c.readPump(s)
}

// Shutdown stops every running session and closes every connection.
func (s *Server) Shutdown() {
	s.mu.Lock()
	sessions := make([]*session.Session, 0, len(s.sessions))
	for _, sess := range s.sessions {
		sessions = append(sessions, sess)
	}
	clients := make([]*client, 0, len(s.clients))
	for _, c := range s.clients {
		clients = append(clients, c)
	}
	s.mu.Unlock()

	for _, sess := range sessions {
		sess.Stop()
	}
	for _, c := range clients {
		_ = c.Close()
	}
}

// dispatch routes one inbound message. Malformed or unknown messages are
// logged and dropped; they never take the connection down.
func (s *Server) dispatch(c *client, raw []byte) {
	env, err := protocol.DecodeEnvelope(raw)
	if err != nil {
		s.log.Debug("malformed message", "id", c.id, "error", err)
		return
	}
	switch env.Type {
	case protocol.MsgFindMatch:
		if p, err := protocol.DecodePayload[protocol.FindMatch](raw); err == nil {
			s.handleFindMatch(c, p)
		}
	case protocol.MsgPaddle:
		if p, err := protocol.DecodePayload[protocol.Paddle](raw); err == nil {
			s.forward(c, func(idx int) any { return session.PaddleMove{Idx: idx, Y: p.Y} })
		}
	case protocol.MsgChat:
		if p, err := protocol.DecodePayload[protocol.Chat](raw); err == nil {
			s.forward(c, func(idx int) any { return session.ChatSend{Idx: idx, Text: p.Text, Color: p.Color} })
		}
	case protocol.MsgProfile:
		if p, err := protocol.DecodePayload[protocol.Profile](raw); err == nil {
			s.handleProfile(c, p)
		}
	case protocol.MsgGetLeaderboard:
		s.sendTo(c, protocol.Leaderboard{
			Type:        protocol.MsgLeaderboard,
			Leaderboard: s.store.Leaderboard(),
		})
	case protocol.MsgCreateTournament:
		if p, err := protocol.DecodePayload[protocol.CreateTournament](raw); err == nil {
			s.handleCreateTournament(c, p)
		}
	case protocol.MsgGetTournament:
		if p, err := protocol.DecodePayload[protocol.GetTournament](raw); err == nil {
			s.handleGetTournament(c, p)
		}
	case protocol.MsgStartTournamentMatch:
		if p, err := protocol.DecodePayload[protocol.StartTournamentMatch](raw); err == nil {
			s.handleStartTournamentMatch(c, p)
		}
	default:
		s.log.Debug("unknown message type", "type", env.Type, "id", c.id)
	}
}

func (s *Server) handleFindMatch(c *client, p protocol.FindMatch) {
	nickname := orDefault(p.Nickname, "Player")
	avatar := orDefault(p.Avatar, "default")
	skin := orDefault(p.Skin, "default")
	s.mu.Lock()
	c.nickname, c.avatar, c.skin = nickname, avatar, skin
	s.mu.Unlock()
	s.store.UpdateProfile(c.id, nickname, avatar, skin)

	s.sendTo(c, protocol.Waiting{Type: protocol.MsgWaiting})

	s.mu.Lock()
	if c.sessionID != "" {
		s.mu.Unlock()
		return
	}
	s.queue.add(c)
	a, b, ok := s.queue.takePair()
	s.mu.Unlock()
	if ok {
		s.startSession(a, b, "", -1)
	}
}

func (s *Server) handleProfile(c *client, p protocol.Profile) {
	prof := s.store.UpdateProfile(c.id, p.Profile.Nickname, p.Profile.Avatar, p.Profile.Skin)
	s.sendTo(c, protocol.ProfileSaved{Type: protocol.MsgProfileSaved, Profile: prof})
}

func (s *Server) handleCreateTournament(c *client, p protocol.CreateTournament) {
	// Only ids with a stored profile enter the bracket.
	players := make([]string, 0, len(p.Players))
	for _, pid := range p.Players {
		if _, ok := s.store.Profile(pid); ok {
			players = append(players, pid)
		}
	}
	id := "t-" + uuid.NewString()

	s.mu.Lock()
	t := tournament.New(id, game.EventModeFor(time.Now()), players, s.rng)
	s.mu.Unlock()

	s.store.PutTournament(t)
	s.log.Info("tournament created", "id", id, "players", len(players))
	s.sendTo(c, protocol.TournamentCreated{Type: protocol.MsgTournamentCreated, Tournament: t.Clone()})
}

func (s *Server) handleGetTournament(c *client, p protocol.GetTournament) {
	var body any
	if t, ok := s.store.Tournament(p.TID); ok {
		body = t
	}
	s.sendTo(c, protocol.TournamentInfo{Type: protocol.MsgTournament, Tournament: body})
}

// handleStartTournamentMatch launches a bracket entry's match if both players
// are connected and idle. Anything missing makes this a silent no-op.
func (s *Server) handleStartTournamentMatch(c *client, p protocol.StartTournamentMatch) {
	t, ok := s.store.Tournament(p.TID)
	if !ok || p.Idx < 0 || p.Idx >= len(t.Bracket) {
		return
	}
	m := t.Bracket[p.Idx]

	s.mu.Lock()
	a := s.clients[m.P1]
	b := s.clients[m.P2]
	if a == nil || b == nil || a == b {
		s.mu.Unlock()
		return
	}
	// Tournament matches use the stored identity, not whatever the last
	// find_match carried.
	for _, cl := range []*client{a, b} {
		if prof, ok := s.store.Profile(cl.id); ok {
			cl.nickname = orDefault(prof.Nickname, "Player")
			cl.avatar = orDefault(prof.Avatar, "default")
			cl.skin = orDefault(prof.Skin, "default")
		}
	}
	s.mu.Unlock()
	s.startSession(a, b, p.TID, p.Idx)
}

func (s *Server) startSession(a, b *client, tournamentID string, bracketIdx int) {
	id := uuid.NewString()

	s.mu.Lock()
	if a.sessionID != "" || b.sessionID != "" {
		s.mu.Unlock()
		return
	}
	idents := session.Identities{
		Nicknames: [2]string{a.nickname, b.nickname},
		Avatars:   [2]string{a.avatar, b.avatar},
		Skins:     [2]string{a.skin, b.skin},
	}
	players := [2]session.Participant{
		{ID: a.id, Conn: a},
		{ID: b.id, Conn: b},
	}
	sess := session.New(id, players, idents, game.EventModeFor(time.Now()), s.store, s.log.With("game", id))
	sess.TournamentID = tournamentID
	sess.BracketIdx = bracketIdx
	sess.OnFinished = s.sessionFinished

	s.queue.remove(a)
	s.queue.remove(b)
	s.sessions[id] = sess
	a.sessionID, a.playerIdx = id, 0
	b.sessionID, b.playerIdx = id, 1
	s.mu.Unlock()

	s.log.Info("match started", "game", id, "p0", a.id, "p1", b.id, "tournament", tournamentID)
	sess.Start()
}

// sessionFinished runs on the session goroutine after its terminal notice.
func (s *Server) sessionFinished(id string) {
	s.mu.Lock()
	delete(s.sessions, id)
	for _, c := range s.clients {
		if c.sessionID == id {
			c.sessionID = ""
			c.playerIdx = -1
		}
	}
	s.mu.Unlock()
	s.log.Info("match finished", "game", id)
}

// forward hands a command to the sender's session, if it has one. The send
// never blocks: if the session is gone or saturated the command is dropped.
func (s *Server) forward(c *client, build func(idx int) any) {
	s.mu.Lock()
	var sess *session.Session
	idx := -1
	if c.sessionID != "" {
		sess = s.sessions[c.sessionID]
		idx = c.playerIdx
	}
	s.mu.Unlock()
	if sess == nil || idx < 0 {
		return
	}
	select {
	case sess.Inbox <- build(idx):
	default:
	}
}

func (s *Server) disconnect(c *client) {
	_ = c.Close()

	s.mu.Lock()
	s.queue.remove(c)
	delete(s.clients, c.id)
	var sess *session.Session
	idx := -1
	if c.sessionID != "" {
		sess = s.sessions[c.sessionID]
		idx = c.playerIdx
		c.sessionID = ""
		c.playerIdx = -1
	}
	s.mu.Unlock()

	if sess != nil && idx >= 0 {
		select {
		case sess.Inbox <- session.Leave{Idx: idx}:
		default:
		}
	}
	s.log.Info("client disconnected", "id", c.id)
}

func (s *Server) sendTo(c *client, payload any) {
	b, err := protocol.Encode(payload)
	if err != nil {
		s.log.Error("encode message", "error", err)
		return
	}
	_ = c.Send(b)
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}
