package protocol

// Client -> server message types.
const (
	MsgFindMatch            = "find_match"
	MsgPaddle               = "paddle"
	MsgChat                 = "chat" // also relayed server -> client
	MsgProfile              = "profile"
	MsgGetLeaderboard       = "get_leaderboard"
	MsgCreateTournament     = "create_tournament"
	MsgGetTournament        = "get_tournament"
	MsgStartTournamentMatch = "start_tournament_match"
)

// Server -> client message types.
const (
	MsgWaiting           = "waiting"
	MsgMatch             = "match"
	MsgGameState         = "game_state"
	MsgOpponentLeft      = "opponent_left"
	MsgGameOver          = "gameover"
	MsgProfileSaved      = "profile_saved"
	MsgLeaderboard       = "leaderboard"
	MsgTournamentCreated = "tournament_created"
	MsgTournament        = "tournament"
)

const ChatMaxLen = 128
