// Package rules advances a local Battlesnake game by one turn.
//
// It follows the standard ruleset closely enough for self-play: simultaneous
// movement, feeding and growth, starvation, hazard damage, wall and body
// collisions and head-to-head resolution by length. It exists for the arena;
// the move engine itself never looks ahead.
package rules

import (
	"math/rand"

	"github.com/dvalinn/snek/game"
)

const MaxHealth = 100

// State is the mutable simulation state. Step never modifies its input.
type State struct {
	Width   int
	Height  int
	Turn    int
	Snakes  []game.Snake
	Food    []game.Point
	Hazards []game.Point
}

// Settings bundles the ruleset knobs Step honours.
type Settings struct {
	Food         FoodSettings
	HazardDamage int
}

var DefaultSettings = Settings{Food: DefaultFoodSettings, HazardDamage: 14}

// Clone performs a deep copy of the state.
func (s *State) Clone() *State {
	if s == nil {
		return nil
	}
	out := &State{Width: s.Width, Height: s.Height, Turn: s.Turn}
	if len(s.Food) > 0 {
		out.Food = append([]game.Point(nil), s.Food...)
	}
	if len(s.Hazards) > 0 {
		out.Hazards = append([]game.Point(nil), s.Hazards...)
	}
	if len(s.Snakes) > 0 {
		out.Snakes = make([]game.Snake, len(s.Snakes))
		for i, sn := range s.Snakes {
			out.Snakes[i] = sn
			out.Snakes[i].Body = append([]game.Point(nil), sn.Body...)
		}
	}
	return out
}

// Snake returns the live snake with id, or nil.
func (s *State) Snake(id string) *game.Snake {
	for i := range s.Snakes {
		if s.Snakes[i].ID == id {
			return &s.Snakes[i]
		}
	}
	return nil
}

// Board builds the engine's view of the state from youID's perspective.
// ok is false when that snake is no longer alive.
func (s *State) Board(youID string) (*game.Board, bool) {
	you := s.Snake(youID)
	if you == nil {
		return nil, false
	}
	return game.NewBoard(s.Width, s.Height, s.Food, s.Hazards, s.Snakes, *you), true
}

// Step moves every live snake simultaneously. Snakes without an entry in
// moves are eliminated.
func Step(state *State, moves map[string]game.Direction, rng *rand.Rand, settings Settings) *State {
	next := state.Clone()
	next.Turn++

	// 1. Move heads and bodies. The tail always advances; eating grows the
	// snake afterwards by duplicating the new tail.
	noMove := make(map[string]bool)
	for i := range next.Snakes {
		s := &next.Snakes[i]
		move, ok := moves[s.ID]
		if !ok || len(s.Body) == 0 {
			noMove[s.ID] = true
			continue
		}
		head := s.Body[0].Add(move.Delta())
		body := make([]game.Point, 0, len(s.Body)+1)
		body = append(body, head)
		body = append(body, s.Body[:len(s.Body)-1]...)
		s.Body = body
		s.Health--
	}

	// 2. Hazard damage.
	if settings.HazardDamage > 0 && len(next.Hazards) > 0 {
		hazard := make(map[game.Point]bool, len(next.Hazards))
		for _, h := range next.Hazards {
			hazard[h] = true
		}
		for i := range next.Snakes {
			s := &next.Snakes[i]
			if noMove[s.ID] || !hazard[s.Head()] {
				continue
			}
			s.Health -= settings.HazardDamage
		}
	}

	// 3. Feed.
	eaten := make(map[game.Point]bool)
	for i := range next.Snakes {
		s := &next.Snakes[i]
		if noMove[s.ID] {
			continue
		}
		for _, f := range next.Food {
			if s.Head() == f {
				eaten[f] = true
				s.Health = MaxHealth
				s.Body = append(s.Body, s.Body[len(s.Body)-1])
				break
			}
		}
	}
	if len(eaten) > 0 {
		remaining := next.Food[:0:0]
		for _, f := range next.Food {
			if !eaten[f] {
				remaining = append(remaining, f)
			}
		}
		next.Food = remaining
	}

	// 4. Eliminations are judged against the post-move bodies of everyone,
	// including snakes eliminated this same turn.
	dead := make(map[string]bool)
	for _, s := range next.Snakes {
		switch {
		case noMove[s.ID]:
			dead[s.ID] = true
		case s.Health <= 0:
			dead[s.ID] = true
		case !inBounds(next, s.Head()):
			dead[s.ID] = true
		case hitsBody(next, s):
			dead[s.ID] = true
		case losesHeadToHead(next, s, noMove):
			dead[s.ID] = true
		}
	}

	alive := make([]game.Snake, 0, len(next.Snakes))
	for _, s := range next.Snakes {
		if dead[s.ID] {
			continue
		}
		s.Length = len(s.Body)
		alive = append(alive, s)
	}
	next.Snakes = alive

	applyFoodRules(next, rng, settings.Food, 0x535445505F464F4F) // "STEP_FOO"
	return next
}

func inBounds(s *State, p game.Point) bool {
	return p.X >= 0 && p.X < s.Width && p.Y >= 0 && p.Y < s.Height
}

func hitsBody(state *State, me game.Snake) bool {
	head := me.Head()
	for _, other := range state.Snakes {
		for i, p := range other.Body {
			if i == 0 {
				// Heads meeting heads is handled separately.
				continue
			}
			if p == head {
				return true
			}
		}
	}
	return false
}

func losesHeadToHead(state *State, me game.Snake, noMove map[string]bool) bool {
	for _, other := range state.Snakes {
		if other.ID == me.ID || noMove[other.ID] {
			continue
		}
		if other.Head() == me.Head() && len(other.Body) >= len(me.Body) {
			return true
		}
	}
	return false
}

// IsGameOver returns true once at most one snake is left.
func IsGameOver(state *State) bool {
	return len(state.Snakes) <= 1
}

// Winner returns the sole survivor's id, or "" for a draw or a game still in
// progress.
func Winner(state *State) string {
	if len(state.Snakes) == 1 {
		return state.Snakes[0].ID
	}
	return ""
}
