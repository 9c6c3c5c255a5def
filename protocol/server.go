package protocol

// Messages sent to the client.

type Waiting struct {
	Type string `json:"type"`
}

type Match struct {
	Type         string    `json:"type"`
	PlayerIdx    int       `json:"playerIdx"`
	Nicknames    [2]string `json:"nicknames"`
	Avatars      [2]string `json:"avatars"`
	Skins        [2]string `json:"skins"`
	EventMode    string    `json:"eventMode"`
	TournamentID string    `json:"tournamentId,omitempty"`
	BracketIdx   *int      `json:"bracketIdx,omitempty"`
}

type GameState struct {
	Type  string        `json:"type"`
	State StateSnapshot `json:"state"`
}

type StateSnapshot struct {
	Ball         BallSnapshot      `json:"ball"`
	Balls        []BallSnapshot    `json:"balls"`
	Paddles      [2]float64        `json:"paddles"`
	PaddleSize   [2]float64        `json:"paddleSize"`
	Scores       [2]int            `json:"scores"`
	Reverse      [2]bool           `json:"reverse"`
	PowerUps     []PowerUpSnapshot `json:"powerUps"`
	Nicknames    [2]string         `json:"nicknames"`
	Avatars      [2]string         `json:"avatars"`
	Skins        [2]string         `json:"skins"`
	Chat         []ChatLine        `json:"chat"`
	EventMode    string            `json:"eventMode"`
	Effects      []EffectSnapshot  `json:"effects"`
	TournamentID string            `json:"tournamentId,omitempty"`
	BracketIdx   *int              `json:"bracketIdx,omitempty"`
}

type BallSnapshot struct {
	X         float64 `json:"x"`
	Y         float64 `json:"y"`
	VX        float64 `json:"vx"`
	VY        float64 `json:"vy"`
	Invisible bool    `json:"invisible,omitempty"`
	Crazy     bool    `json:"crazy,omitempty"`
}

type PowerUpSnapshot struct {
	X    float64 `json:"x"`
	Y    float64 `json:"y"`
	Type string  `json:"type"`
	ID   string  `json:"id"`
}

type ChatLine struct {
	Sender int    `json:"sender"`
	Text   string `json:"text"`
	Color  string `json:"color"`
	Time   int64  `json:"time"`
}

type EffectSnapshot struct {
	Type  string `json:"type"`
	Idx   int    `json:"idx,omitempty"`
	Power string `json:"power,omitempty"`
}

// ChatRelay is the immediate fan-out of one chat line; the transcript also
// rides along in the next state snapshot.
type ChatRelay struct {
	Type   string `json:"type"`
	Sender int    `json:"sender"`
	Text   string `json:"text"`
	Color  string `json:"color"`
}

type OpponentLeft struct {
	Type string `json:"type"`
}

type GameOver struct {
	Type      string `json:"type"`
	WinnerIdx int    `json:"winnerIdx"`
	Scores    [2]int `json:"scores"`
}

type ProfileSaved struct {
	Type    string `json:"type"`
	Profile any    `json:"profile"`
}

type Leaderboard struct {
	Type        string `json:"type"`
	Leaderboard any    `json:"leaderboard"`
}

type TournamentCreated struct {
	Type       string `json:"type"`
	Tournament any    `json:"tournament"`
}

type TournamentInfo struct {
	Type       string `json:"type"`
	Tournament any    `json:"tournament"`
}
