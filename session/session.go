package session

import (
	"log/slog"
	"math/rand"
	"sync"
	"time"
	"unicode/utf8"

	"pong/game"
	"pong/protocol"
)

// Recorder receives finished-match results.
type Recorder interface {
	RecordResult(winnerID, loserID string)
	RecordTournamentWinner(id string, idx int, winnerID, gameID string)
}

// Participant couples a transport with its persistent identity.
type Participant struct {
	ID   string
	Conn Conn
}

// Identities are the display fields fixed at match start, indexed by side.
type Identities struct {
	Nicknames [2]string
	Avatars   [2]string
	Skins     [2]string
}

// Session owns one match: its state, its tick loop and its two participants.
// All mutation happens on the run goroutine; the rest of the server talks to
// it through Inbox.
type Session struct {
	ID    string
	Inbox chan any

	TournamentID string // set before Start for tournament matches
	BracketIdx   int    // -1 outside tournaments
	OnFinished   func(id string)

	players   [2]Participant
	state     *game.State
	rng       *rand.Rand
	recorder  Recorder
	log       *slog.Logger
	nextSpawn int

	quit     chan struct{}
	stopOnce sync.Once
}

func New(id string, players [2]Participant, idents Identities, eventMode string, rec Recorder, logger *slog.Logger) *Session {
	st := game.NewState(idents.Nicknames, idents.Avatars, idents.Skins, eventMode)
	return NewWithState(id, players, st, rec, logger)
}

// NewWithState starts from an explicit state; tests use it to put a match in
// a chosen situation.
func NewWithState(id string, players [2]Participant, st *game.State, rec Recorder, logger *slog.Logger) *Session {
	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	return &Session{
		ID:         id,
		Inbox:      make(chan any, 256),
		BracketIdx: -1,
		players:    players,
		state:      st,
		rng:        rng,
		recorder:   rec,
		log:        logger,
		nextSpawn:  game.NextSpawnDelay(rng),
		quit:       make(chan struct{}),
	}
}

// Start sends the match notice to both participants and begins the tick loop.
func (s *Session) Start() {
	for i, p := range s.players {
		msg := protocol.Match{
			Type:         protocol.MsgMatch,
			PlayerIdx:    i,
			Nicknames:    s.state.Nicknames,
			Avatars:      s.state.Avatars,
			Skins:        s.state.Skins,
			EventMode:    s.state.EventMode,
			TournamentID: s.TournamentID,
			BracketIdx:   s.bracketIdxRef(),
		}
		if b, err := protocol.Encode(msg); err == nil {
			_ = p.Conn.Send(b)
		}
	}
	go s.run()
}

// Stop tears the session down without a result (server shutdown).
func (s *Session) Stop() {
	s.stopOnce.Do(func() { close(s.quit) })
}

func (s *Session) run() {
	ticker := time.NewTicker(time.Second / time.Duration(game.TickHz))
	defer ticker.Stop()

	for {
		select {
		case <-s.quit:
			return
		case cmd := <-s.Inbox:
			if s.handleCommand(cmd) {
				return
			}
		case <-ticker.C:
			if s.tick() {
				return
			}
		}
	}
}

func (s *Session) handleCommand(cmd any) bool {
	switch c := cmd.(type) {
	case PaddleMove:
		if c.Idx == 0 || c.Idx == 1 {
			s.state.Paddles[c.Idx] = s.state.ClampPaddle(c.Idx, c.Y)
		}
	case ChatSend:
		s.handleChat(c)
	case Leave:
		s.finishAbandoned(c.Idx)
		return true
	}
	return false
}

func (s *Session) handleChat(c ChatSend) {
	text := truncateChat(c.Text)
	color := c.Color
	if color == "" {
		color = "#fff"
	}
	s.state.Chat = append(s.state.Chat, game.ChatLine{
		Sender: c.Idx,
		Text:   text,
		Color:  color,
		Time:   time.Now().UnixMilli(),
	})
	b, err := protocol.Encode(protocol.ChatRelay{
		Type:   protocol.MsgChat,
		Sender: c.Idx,
		Text:   text,
		Color:  color,
	})
	if err == nil {
		s.broadcast(b)
	}
}

// truncateChat caps a chat line at the protocol limit without splitting a
// multibyte rune at the cut.
func truncateChat(text string) string {
	if len(text) <= protocol.ChatMaxLen {
		return text
	}
	cut := protocol.ChatMaxLen
	for cut > 0 && !utf8.RuneStart(text[cut]) {
		cut--
	}
	return text[:cut]
}

func (s *Session) tick() bool {
	s.nextSpawn--
	if s.nextSpawn <= 0 {
		s.state.PowerUps = append(s.state.PowerUps, game.SpawnPowerUp(s.rng))
		s.nextSpawn = game.NextSpawnDelay(s.rng)
	}

	game.Step(s.state, s.rng)

	if w := s.state.Winner(); w >= 0 {
		s.finishWon(w)
		return true
	}

	s.broadcastState()
	s.state.Effects = s.state.Effects[:0]
	return false
}

func (s *Session) finishWon(winnerIdx int) {
	winner := s.players[winnerIdx]
	loser := s.players[1-winnerIdx]
	s.recorder.RecordResult(winner.ID, loser.ID)
	if s.TournamentID != "" && s.BracketIdx >= 0 {
		s.recorder.RecordTournamentWinner(s.TournamentID, s.BracketIdx, winner.ID, s.ID)
	}
	b, err := protocol.Encode(protocol.GameOver{
		Type:      protocol.MsgGameOver,
		WinnerIdx: winnerIdx,
		Scores:    s.state.Scores,
	})
	if err == nil {
		s.broadcast(b)
	}
	s.log.Info("game over", "winner", winner.ID, "scores", s.state.Scores)
	for _, p := range s.players {
		_ = p.Conn.Close()
	}
	s.finish()
}

// finishAbandoned ends the match after a disconnect. No result is recorded:
// for tournament matches the bracket entry keeps its winner unset.
func (s *Session) finishAbandoned(leftIdx int) {
	if leftIdx == 0 || leftIdx == 1 {
		remaining := s.players[1-leftIdx]
		if b, err := protocol.Encode(protocol.OpponentLeft{Type: protocol.MsgOpponentLeft}); err == nil {
			_ = remaining.Conn.Send(b)
		}
	}
	s.log.Info("game abandoned", "left", leftIdx)
	s.finish()
}

func (s *Session) finish() {
	if s.OnFinished != nil {
		s.OnFinished(s.ID)
	}
}

func (s *Session) broadcast(b []byte) {
	for _, p := range s.players {
		_ = p.Conn.Send(b)
	}
}

func (s *Session) broadcastState() {
	b, err := protocol.Encode(protocol.GameState{
		Type:  protocol.MsgGameState,
		State: s.buildSnapshot(),
	})
	if err != nil {
		return
	}
	s.broadcast(b)
}

func (s *Session) buildSnapshot() protocol.StateSnapshot {
	st := s.state
	snapshot := protocol.StateSnapshot{
		Ball:         ballSnapshot(st.Ball),
		Balls:        make([]protocol.BallSnapshot, 0, len(st.Balls)),
		Paddles:      st.Paddles,
		PaddleSize:   st.PaddleSize,
		Scores:       st.Scores,
		Reverse:      st.Reverse,
		PowerUps:     make([]protocol.PowerUpSnapshot, 0, len(st.PowerUps)),
		Nicknames:    st.Nicknames,
		Avatars:      st.Avatars,
		Skins:        st.Skins,
		Chat:         make([]protocol.ChatLine, 0, len(st.Chat)),
		EventMode:    st.EventMode,
		Effects:      make([]protocol.EffectSnapshot, 0, len(st.Effects)),
		TournamentID: s.TournamentID,
		BracketIdx:   s.bracketIdxRef(),
	}
	for _, b := range st.Balls {
		snapshot.Balls = append(snapshot.Balls, ballSnapshot(b))
	}
	for _, pu := range st.PowerUps {
		snapshot.PowerUps = append(snapshot.PowerUps, protocol.PowerUpSnapshot{
			X:    pu.X,
			Y:    pu.Y,
			Type: pu.Type,
			ID:   pu.ID,
		})
	}
	for _, c := range st.Chat {
		snapshot.Chat = append(snapshot.Chat, protocol.ChatLine{
			Sender: c.Sender,
			Text:   c.Text,
			Color:  c.Color,
			Time:   c.Time,
		})
	}
	for _, e := range st.Effects {
		snapshot.Effects = append(snapshot.Effects, protocol.EffectSnapshot{
			Type:  e.Type,
			Idx:   e.Idx,
			Power: e.Power,
		})
	}
	return snapshot
}

func (s *Session) bracketIdxRef() *int {
	if s.BracketIdx < 0 {
		return nil
	}
	idx := s.BracketIdx
	return &idx
}

func ballSnapshot(b game.Ball) protocol.BallSnapshot {
	return protocol.BallSnapshot{
		X:         b.X,
		Y:         b.Y,
		VX:        b.VX,
		VY:        b.VY,
		Invisible: b.InvisTicks > 0,
		Crazy:     b.CrazyTicks > 0,
	}
}
