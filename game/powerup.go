package game

import (
	"math/rand"

	"github.com/google/uuid"
)

var PowerUpTypes = []string{"speed", "grow", "shrink", "multi", "slow", "invis", "crazy", "reverse"}

// SpawnPowerUp places a random power-up inside the central play area, away
// from the walls and paddle planes.
func SpawnPowerUp(rng *rand.Rand) PowerUp {
	return PowerUp{
		X:    float64(rng.Intn(700) + 100),
		Y:    float64(rng.Intn(400) + 100),
		Type: PowerUpTypes[rng.Intn(len(PowerUpTypes))],
		ID:   uuid.NewString(),
	}
}

// NextSpawnDelay returns how many ticks to wait before the next spawn.
func NextSpawnDelay(rng *rand.Rand) int {
	return SpawnMinTicks + rng.Intn(SpawnJitterTicks)
}
