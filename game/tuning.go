package game

const (
	CourtWidth  = 900.0
	CourtHeight = 600.0

	PaddleWidth   = 16.0
	PaddleOffsetX = 36.0
	PaddleStartY  = 300.0
	PaddleDefault = 110.0
	PaddleMin     = 60.0  // shrink target
	PaddleMax     = 180.0 // grow target

	BallSize = 18.0 // diameter

	WinScore = 10
	TickHz   = 60

	ServeSpeedX = 7.0
	ServeSpeedY = 4.0

	BounceSpeedMult = 1.08 // horizontal speed gain per paddle hit
	SpinFactor      = 0.13 // vy added per px of offset from paddle center

	PowerUpPickupDist = 22.0

	SpeedMult   = 1.5
	SlowMultX   = 0.6
	SlowMultY   = 0.8
	MultiVYMult = 1.2

	InvisDurationTicks   = 120 // 2s
	CrazyDurationTicks   = 90  // 1.5s
	ReverseDurationTicks = 240 // 4s

	SpawnMinTicks    = 420 // 7s between power-ups at minimum
	SpawnJitterTicks = 360 // plus up to 6s
)
