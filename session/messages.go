package session

// Conn is the transport surface a session needs from a participant.
type Conn interface {
	Send([]byte) error
	Close() error
}

// PaddleMove: latest paddle position for one side.
type PaddleMove struct {
	Idx int
	Y   float64
}

// ChatSend: chat line from one side, relayed to both.
type ChatSend struct {
	Idx   int
	Text  string
	Color string
}

// Leave: issued when a participant's transport drops.
type Leave struct {
	Idx int
}
