// Package game defines the per-turn board snapshot for Battlesnake.
//
// A Board is built fresh for every turn and is read-only once constructed.
// All occupied cells (every snake body, your own included, plus hazards) are
// merged into a single blocked set so the safety check is one lookup.
package game

type Customizations struct {
	Color string `json:"color"`
	Head  string `json:"head"`
	Tail  string `json:"tail"`
}

type Snake struct {
	ID             string         `json:"id"`
	Name           string         `json:"name"`
	Health         int            `json:"health"`
	Body           []Point        `json:"body"`
	HeadPoint      *Point         `json:"head,omitempty"`
	Latency        string         `json:"latency"`
	Length         int            `json:"length"`
	Shout          string         `json:"shout"`
	Squad          string         `json:"squad"`
	Customizations Customizations `json:"customizations"`
}

// Head returns the engine's "head" field if it was decoded, else the first
// body segment, or the zero Point for an empty body. Snakes built locally
// leave HeadPoint nil.
func (s Snake) Head() Point {
	if s.HeadPoint != nil {
		return *s.HeadPoint
	}
	if len(s.Body) == 0 {
		return Point{}
	}
	return s.Body[0]
}

// Board is one turn's snapshot.
type Board struct {
	Width   int
	Height  int
	Food    []Point
	Hazards []Point
	Snakes  []Snake
	You     Snake

	blocked map[Point]struct{}
}

// NewBoard builds a Board and its blocked set. You's body is merged into the
// blocked set even if You is missing from snakes.
func NewBoard(width, height int, food, hazards []Point, snakes []Snake, you Snake) *Board {
	b := &Board{
		Width:   width,
		Height:  height,
		Food:    food,
		Hazards: hazards,
		Snakes:  snakes,
		You:     you,
	}

	size := len(hazards) + len(you.Body)
	for _, s := range snakes {
		size += len(s.Body)
	}
	b.blocked = make(map[Point]struct{}, size)
	for _, h := range hazards {
		b.blocked[h] = struct{}{}
	}
	for _, s := range snakes {
		for _, p := range s.Body {
			b.blocked[p] = struct{}{}
		}
	}
	for _, p := range you.Body {
		b.blocked[p] = struct{}{}
	}
	return b
}

// Head is the controlled snake's head.
func (b *Board) Head() Point {
	return b.You.Head()
}

// InBounds reports whether p lies on the grid [0,Width) x [0,Height).
func (b *Board) InBounds(p Point) bool {
	return p.X >= 0 && p.X < b.Width && p.Y >= 0 && p.Y < b.Height
}

// IsBlocked reports whether p is a hazard or any snake segment.
func (b *Board) IsBlocked(p Point) bool {
	_, ok := b.blocked[p]
	return ok
}
