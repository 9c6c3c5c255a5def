package protocol

// Messages coming in from the client.

type FindMatch struct {
	Type     string `json:"type"`
	Nickname string `json:"nickname,omitempty"`
	Avatar   string `json:"avatar,omitempty"`
	Skin     string `json:"skin,omitempty"`
}

type Paddle struct {
	Type string  `json:"type"`
	Y    float64 `json:"y"`
}

type Chat struct {
	Type  string `json:"type"`
	Text  string `json:"text"`
	Color string `json:"color,omitempty"`
}

type Profile struct {
	Type    string        `json:"type"`
	Profile ProfileFields `json:"profile"`
}

// ProfileFields carries the identity fields a client may update. Empty
// fields leave the stored value untouched.
type ProfileFields struct {
	Nickname string `json:"nickname,omitempty"`
	Avatar   string `json:"avatar,omitempty"`
	Skin     string `json:"skin,omitempty"`
}

type GetLeaderboard struct {
	Type string `json:"type"`
}

type CreateTournament struct {
	Type    string   `json:"type"`
	Players []string `json:"players"`
}

type GetTournament struct {
	Type string `json:"type"`
	TID  string `json:"tid"`
}

type StartTournamentMatch struct {
	Type string `json:"type"`
	TID  string `json:"tid"`
	Idx  int    `json:"idx"`
}
