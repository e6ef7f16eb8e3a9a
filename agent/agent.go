// Package agent picks one move per turn.
//
// The decision is a single-ply filter-then-rank: drop moves that leave the
// board or land on a blocked cell, then take the survivor closest to the
// nearest food. Everything here is pure; Decide may be called concurrently.
package agent

import (
	"fmt"

	"github.com/dvalinn/snek/game"
)

// MaxShoutLength is the engine's limit on shout text, in bytes.
const MaxShoutLength = 256

type FallbackPolicy int

const (
	// FallbackUp answers Up whenever no informed choice exists, even if Up is
	// unsafe.
	FallbackUp FallbackPolicy = iota
	// FallbackFirstSafe answers the first safe move in enumeration order,
	// and Up only when every move is unsafe.
	FallbackFirstSafe
)

func (p FallbackPolicy) String() string {
	switch p {
	case FallbackFirstSafe:
		return "first-safe"
	default:
		return "up"
	}
}

// ParseFallbackPolicy accepts "up" or "first-safe".
func ParseFallbackPolicy(s string) (FallbackPolicy, error) {
	switch s {
	case "", "up":
		return FallbackUp, nil
	case "first-safe":
		return FallbackFirstSafe, nil
	}
	return FallbackUp, fmt.Errorf("unknown fallback policy %q", s)
}

type Config struct {
	Fallback FallbackPolicy
}

type Reason int

const (
	ReasonFood Reason = iota
	ReasonNoFood
	ReasonTrapped
	// ReasonTimeout is set by callers that gave up waiting on Decide.
	ReasonTimeout
)

func (r Reason) String() string {
	switch r {
	case ReasonNoFood:
		return "no_food"
	case ReasonTrapped:
		return "trapped"
	case ReasonTimeout:
		return "timeout"
	default:
		return "food"
	}
}

// Decision is the engine's answer for one turn. Shout has no gameplay effect.
type Decision struct {
	Move   game.Direction
	Shout  string
	Reason Reason
	Target *game.Point
}

type candidate struct {
	move game.Direction
	p    game.Point
}

// SafeMoves returns the moves whose projected cell is on the board and not
// blocked, in enumeration order.
func SafeMoves(b *game.Board) []game.Direction {
	safe := safeCandidates(b)
	moves := make([]game.Direction, len(safe))
	for i, c := range safe {
		moves[i] = c.move
	}
	return moves
}

func safeCandidates(b *game.Board) []candidate {
	head := b.Head()
	out := make([]candidate, 0, len(game.Directions))
	for _, d := range game.Directions {
		p := head.Add(d.Delta())
		if !b.InBounds(p) || b.IsBlocked(p) {
			continue
		}
		out = append(out, candidate{move: d, p: p})
	}
	return out
}

// NearestFood returns the food closest to from by Manhattan distance.
// Equal distances resolve to the lexicographically smallest point, so the
// answer does not depend on the order the engine listed food in.
func NearestFood(food []game.Point, from game.Point) (game.Point, bool) {
	if len(food) == 0 {
		return game.Point{}, false
	}
	best := food[0]
	bestDist := from.Manhattan(best)
	for _, f := range food[1:] {
		d := from.Manhattan(f)
		if d < bestDist || (d == bestDist && f.Less(best)) {
			best = f
			bestDist = d
		}
	}
	return best, true
}

// Decide chooses the move for the current turn. It always returns exactly one
// direction.
func Decide(b *game.Board, cfg Config) Decision {
	safe := safeCandidates(b)
	head := b.Head()

	if len(safe) == 0 {
		return Decision{
			Move:   game.Up,
			Shout:  "boxed in, going up",
			Reason: ReasonTrapped,
		}
	}

	target, ok := NearestFood(b.Food, head)
	if !ok {
		d := Decision{Move: game.Up, Shout: "no food, going up", Reason: ReasonNoFood}
		if cfg.Fallback == FallbackFirstSafe {
			d.Move = safe[0].move
			d.Shout = fmt.Sprintf("no food, going %s", d.Move)
		}
		return d
	}

	best := safe[0]
	bestDist := best.p.Manhattan(target)
	for _, c := range safe[1:] {
		// Strict less keeps the earlier direction on ties.
		if d := c.p.Manhattan(target); d < bestDist {
			best = c
			bestDist = d
		}
	}

	return Decision{
		Move:   best.move,
		Shout:  TruncateShout(fmt.Sprintf("head %s, food %s", head, target)),
		Reason: ReasonFood,
		Target: &target,
	}
}

// TruncateShout clips s to MaxShoutLength bytes without splitting a rune.
func TruncateShout(s string) string {
	if len(s) <= MaxShoutLength {
		return s
	}
	cut := MaxShoutLength
	for cut > 0 && !runeStart(s[cut]) {
		cut--
	}
	return s[:cut]
}

func runeStart(b byte) bool {
	return b&0xC0 != 0x80
}
