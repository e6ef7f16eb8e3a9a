package rules

import (
	"encoding/binary"
	"hash/fnv"
	"math/rand"

	"github.com/dvalinn/snek/game"
)

// FoodSettings matches the common Battlesnake server knobs:
// - MinimumFood: ensure at least this many food items exist after each turn
// - FoodSpawnChance: percentage chance (0-100) to spawn one extra food each turn
type FoodSettings struct {
	MinimumFood     int
	FoodSpawnChance int
}

var DefaultFoodSettings = FoodSettings{MinimumFood: 1, FoodSpawnChance: 15}

// applyFoodRules spawns food onto free cells. A nil rng derives a seed from
// the state so tests get repeatable placement.
func applyFoodRules(state *State, rng *rand.Rand, settings FoodSettings, salt uint64) {
	if state == nil || state.Width <= 0 || state.Height <= 0 {
		return
	}
	if settings.MinimumFood < 0 {
		settings.MinimumFood = 0
	}
	if settings.FoodSpawnChance < 0 {
		settings.FoodSpawnChance = 0
	}
	if settings.FoodSpawnChance > 100 {
		settings.FoodSpawnChance = 100
	}

	if rng == nil {
		seed := int64(stateSeed(state, salt))
		if seed == 0 {
			seed = 1
		}
		rng = rand.New(rand.NewSource(seed))
	}

	toSpawn := settings.MinimumFood - len(state.Food)
	if toSpawn < 0 {
		toSpawn = 0
	}
	if settings.FoodSpawnChance > 0 && rng.Intn(100) < settings.FoodSpawnChance {
		toSpawn++
	}
	if toSpawn == 0 {
		return
	}

	occupied := make(map[game.Point]struct{}, state.Width*state.Height)
	for _, s := range state.Snakes {
		for _, p := range s.Body {
			occupied[p] = struct{}{}
		}
	}
	for _, f := range state.Food {
		occupied[f] = struct{}{}
	}

	available := make([]game.Point, 0, state.Width*state.Height)
	for y := 0; y < state.Height; y++ {
		for x := 0; x < state.Width; x++ {
			p := game.Point{X: x, Y: y}
			if _, ok := occupied[p]; !ok {
				available = append(available, p)
			}
		}
	}

	for ; toSpawn > 0 && len(available) > 0; toSpawn-- {
		i := rng.Intn(len(available))
		state.Food = append(state.Food, available[i])
		available[i] = available[len(available)-1]
		available = available[:len(available)-1]
	}
}

// ApplyFoodSettings applies Battlesnake-style food spawning to an existing state.
// This is useful for initialization (e.g. ensure MinimumFood at game start).
func ApplyFoodSettings(state *State, rng *rand.Rand, settings FoodSettings) {
	applyFoodRules(state, rng, settings, 0x464F4F445F494E49) // "FOOD_INI" salt
}

func stateSeed(state *State, salt uint64) uint64 {
	h := fnv.New64a()
	var buf [8]byte

	binary.LittleEndian.PutUint64(buf[:], uint64(uint32(state.Width))|(uint64(uint32(state.Height))<<32))
	_, _ = h.Write(buf[:])
	binary.LittleEndian.PutUint64(buf[:], uint64(state.Turn))
	_, _ = h.Write(buf[:])
	binary.LittleEndian.PutUint64(buf[:], salt)
	_, _ = h.Write(buf[:])

	for _, s := range state.Snakes {
		_, _ = h.Write([]byte(s.ID))
		head := s.Head()
		binary.LittleEndian.PutUint64(buf[:], (uint64(uint32(head.X))<<32)|uint64(uint32(head.Y)))
		_, _ = h.Write(buf[:])
	}

	return h.Sum64()
}
