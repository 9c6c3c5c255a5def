package tournament

import "math/rand"

// BracketMatch is one pairing in a single-elimination round. P2 is empty when
// the player list had odd length (a bye).
type BracketMatch struct {
	P1     string `json:"p1"`
	P2     string `json:"p2"`
	Winner string `json:"winner"`
	GameID string `json:"gameId"`
}

type Tournament struct {
	ID       string         `json:"id"`
	Event    string         `json:"event"`
	Players  []string       `json:"players"`
	Bracket  []BracketMatch `json:"bracket"`
	Champion string         `json:"champion"`
}

// New builds a tournament with a shuffled bracket. The shuffle comes from rng
// so pairings are reproducible under test.
func New(id, event string, players []string, rng *rand.Rand) *Tournament {
	shuffled := append([]string(nil), players...)
	rng.Shuffle(len(shuffled), func(i, j int) {
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	})

	t := &Tournament{
		ID:      id,
		Event:   event,
		Players: append([]string(nil), players...),
		Bracket: make([]BracketMatch, 0, (len(shuffled)+1)/2),
	}
	for i := 0; i < len(shuffled); i += 2 {
		m := BracketMatch{P1: shuffled[i]}
		if i+1 < len(shuffled) {
			m.P2 = shuffled[i+1]
		}
		t.Bracket = append(t.Bracket, m)
	}
	return t
}

// RecordWinner stores the result for one bracket entry and re-derives the
// champion. Only a single round is modeled: once every entry has a winner the
// first entry's winner is the champion. Returns false for an out-of-range idx.
func (t *Tournament) RecordWinner(idx int, winnerID, gameID string) bool {
	if idx < 0 || idx >= len(t.Bracket) {
		return false
	}
	t.Bracket[idx].Winner = winnerID
	t.Bracket[idx].GameID = gameID
	for _, m := range t.Bracket {
		if m.Winner == "" {
			return true
		}
	}
	t.Champion = t.Bracket[0].Winner
	return true
}

// Clone returns an independent copy safe to hand outside the store's lock.
func (t *Tournament) Clone() *Tournament {
	cp := *t
	cp.Players = append([]string(nil), t.Players...)
	cp.Bracket = append([]BracketMatch(nil), t.Bracket...)
	return &cp
}
