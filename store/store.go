package store

import (
	"encoding/json"
	"errors"
	"log/slog"
	"os"
	"sort"
	"sync"

	"pong/tournament"
)

const LeaderboardMax = 50

type Stats struct {
	Games  int `json:"games"`
	Wins   int `json:"wins"`
	Losses int `json:"losses"`
}

type Profile struct {
	ID       string `json:"id"`
	Nickname string `json:"nickname,omitempty"`
	Avatar   string `json:"avatar,omitempty"`
	Skin     string `json:"skin,omitempty"`
	Stats    Stats  `json:"stats"`
}

// document is the persisted file layout: one JSON object holding everything.
type document struct {
	Profiles    map[string]*Profile               `json:"profiles"`
	Leaderboard []*Profile                        `json:"leaderboard"`
	Tournaments map[string]*tournament.Tournament `json:"tournaments"`
}

// Store keeps profiles, the leaderboard and tournaments in memory and mirrors
// them to a single JSON file. Mutations mark the store dirty; one flusher
// goroutine rewrites the file, coalescing bursts, so callers never block on
// disk.
type Store struct {
	mu          sync.RWMutex
	path        string
	profiles    map[string]*Profile
	leaderboard []*Profile
	tournaments map[string]*tournament.Tournament

	log   *slog.Logger
	dirty chan struct{}
	quit  chan struct{}
	done  chan struct{}
}

// Open loads the data file at path (a missing or unreadable file starts the
// store empty) and begins flushing in the background.
func Open(path string, log *slog.Logger) *Store {
	s := &Store{
		path:        path,
		profiles:    make(map[string]*Profile),
		leaderboard: make([]*Profile, 0),
		tournaments: make(map[string]*tournament.Tournament),
		log:         log,
		dirty:       make(chan struct{}, 1),
		quit:        make(chan struct{}),
		done:        make(chan struct{}),
	}
	s.load()
	go s.flushLoop()
	return s
}

// Close flushes any pending state and stops the flusher.
func (s *Store) Close() {
	close(s.quit)
	<-s.done
}

func (s *Store) load() {
	b, err := os.ReadFile(s.path)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			s.log.Warn("could not read data file, starting empty", "path", s.path, "error", err)
		}
		return
	}
	var doc document
	if err := json.Unmarshal(b, &doc); err != nil {
		s.log.Warn("could not parse data file, starting empty", "path", s.path, "error", err)
		return
	}
	if doc.Profiles != nil {
		s.profiles = doc.Profiles
	}
	if doc.Leaderboard != nil {
		s.leaderboard = doc.Leaderboard
	}
	if doc.Tournaments != nil {
		s.tournaments = doc.Tournaments
	}
}

// UpdateProfile upserts identity fields for id and returns the stored
// profile. Empty fields leave the existing value untouched; stats are never
// overwritten here.
func (s *Store) UpdateProfile(id, nickname, avatar, skin string) Profile {
	s.mu.Lock()
	p := s.profiles[id]
	if p == nil {
		p = &Profile{ID: id}
		s.profiles[id] = p
	}
	if nickname != "" {
		p.Nickname = nickname
	}
	if avatar != "" {
		p.Avatar = avatar
	}
	if skin != "" {
		p.Skin = skin
	}
	out := *p
	s.mu.Unlock()
	s.markDirty()
	return out
}

// Profile returns a copy of the stored profile for id.
func (s *Store) Profile(id string) (Profile, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.profiles[id]
	if !ok {
		return Profile{}, false
	}
	return *p, true
}

// RecordResult applies one finished match to both profiles and refreshes the
// leaderboard. Unknown ids are created on the fly.
func (s *Store) RecordResult(winnerID, loserID string) {
	s.mu.Lock()
	for _, r := range []struct {
		id  string
		win bool
	}{{winnerID, true}, {loserID, false}} {
		p := s.profiles[r.id]
		if p == nil {
			p = &Profile{ID: r.id}
			s.profiles[r.id] = p
		}
		p.Stats.Games++
		if r.win {
			p.Stats.Wins++
		} else {
			p.Stats.Losses++
		}
		s.rankLocked(p)
	}
	s.mu.Unlock()
	s.markDirty()
}

// rankLocked replaces or inserts p's leaderboard entry, re-sorts by wins
// descending (stable, so ties keep their order) and caps the board.
func (s *Store) rankLocked(p *Profile) {
	entry := *p
	replaced := false
	for i, e := range s.leaderboard {
		if e.ID == p.ID {
			s.leaderboard[i] = &entry
			replaced = true
			break
		}
	}
	if !replaced {
		s.leaderboard = append(s.leaderboard, &entry)
	}
	sort.SliceStable(s.leaderboard, func(i, j int) bool {
		return s.leaderboard[i].Stats.Wins > s.leaderboard[j].Stats.Wins
	})
	if len(s.leaderboard) > LeaderboardMax {
		s.leaderboard = s.leaderboard[:LeaderboardMax]
	}
}

// Leaderboard returns the current board, best first.
func (s *Store) Leaderboard() []Profile {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Profile, len(s.leaderboard))
	for i, e := range s.leaderboard {
		out[i] = *e
	}
	return out
}

// PutTournament registers a new tournament.
func (s *Store) PutTournament(t *tournament.Tournament) {
	s.mu.Lock()
	s.tournaments[t.ID] = t
	s.mu.Unlock()
	s.markDirty()
}

// Tournament returns a copy of the tournament with the given id.
func (s *Store) Tournament(id string) (*tournament.Tournament, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.tournaments[id]
	if !ok {
		return nil, false
	}
	return t.Clone(), true
}

// RecordTournamentWinner stores a bracket result. Unknown tournament ids and
// out-of-range indexes are ignored.
func (s *Store) RecordTournamentWinner(id string, idx int, winnerID, gameID string) {
	s.mu.Lock()
	t, ok := s.tournaments[id]
	changed := ok && t.RecordWinner(idx, winnerID, gameID)
	s.mu.Unlock()
	if changed {
		s.markDirty()
	}
}

func (s *Store) markDirty() {
	select {
	case s.dirty <- struct{}{}:
	default:
	}
}

func (s *Store) flushLoop() {
	defer close(s.done)
	for {
		select {
		case <-s.dirty:
			s.flush()
		case <-s.quit:
			s.flush()
			return
		}
	}
}

func (s *Store) flush() {
	b, err := s.MarshalDocument()
	if err != nil {
		s.log.Error("marshal data file", "error", err)
		return
	}
	if err := os.WriteFile(s.path, b, 0o644); err != nil {
		s.log.Error("write data file", "path", s.path, "error", err)
	}
}

// MarshalDocument serializes the full persisted document. Map keys come out
// sorted, so an unchanged store always produces identical bytes.
func (s *Store) MarshalDocument() ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	doc := document{
		Profiles:    s.profiles,
		Leaderboard: s.leaderboard,
		Tournaments: s.tournaments,
	}
	return json.MarshalIndent(doc, "", "  ")
}
