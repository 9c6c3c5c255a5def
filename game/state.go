package game

// Internal truth authoritative match state

type State struct {
	Tick int

	Ball  Ball
	Balls []Ball // extra balls spawned by the multi power-up

	Paddles    [2]float64
	PaddleSize [2]float64
	Scores     [2]int

	Reverse      [2]bool
	ReverseTicks int

	PowerUps []PowerUp

	Nicknames [2]string
	Avatars   [2]string
	Skins     [2]string

	Chat    []ChatLine
	Effects []Effect // per-tick notifications, cleared after each broadcast

	EventMode string
}

type Ball struct {
	X, Y   float64
	VX, VY float64

	InvisTicks int
	CrazyTicks int
}

type PowerUp struct {
	X, Y float64
	Type string
	ID   string
}

type ChatLine struct {
	Sender int
	Text   string
	Color  string
	Time   int64
}

type Effect struct {
	Type  string
	Idx   int
	Power string
}

func NewState(nicknames, avatars, skins [2]string, eventMode string) *State {
	return &State{
		Ball:       Ball{X: CourtWidth / 2, Y: CourtHeight / 2, VX: ServeSpeedX, VY: ServeSpeedY},
		Paddles:    [2]float64{PaddleStartY, PaddleStartY},
		PaddleSize: [2]float64{PaddleDefault, PaddleDefault},
		Nicknames:  nicknames,
		Avatars:    avatars,
		Skins:      skins,
		EventMode:  eventMode,
	}
}

// Winner returns the side that has reached the win score, or -1.
func (s *State) Winner() int {
	if s.Scores[0] >= WinScore {
		return 0
	}
	if s.Scores[1] >= WinScore {
		return 1
	}
	return -1
}

// ClampPaddle bounds a requested paddle offset so side idx stays fully
// inside the court.
func (s *State) ClampPaddle(idx int, y float64) float64 {
	limit := CourtHeight - s.PaddleSize[idx]
	if y < 0 {
		return 0
	}
	if y > limit {
		return limit
	}
	return y
}
