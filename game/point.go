package game

import (
	"encoding/json"
	"fmt"
)

// Point is a board coordinate.
// Coordinates follow Battlesnake conventions: (0,0) is bottom-left.
type Point struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// Add returns the component-wise sum of p and q.
func (p Point) Add(q Point) Point {
	return Point{X: p.X + q.X, Y: p.Y + q.Y}
}

// Manhattan returns |dx| + |dy| between p and q.
func (p Point) Manhattan(q Point) int {
	return abs(p.X-q.X) + abs(p.Y-q.Y)
}

// Less orders points by X, then Y.
func (p Point) Less(q Point) bool {
	if p.X != q.X {
		return p.X < q.X
	}
	return p.Y < q.Y
}

func (p Point) String() string {
	return fmt.Sprintf("(%d,%d)", p.X, p.Y)
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

type Direction int

const (
	Up Direction = iota
	Down
	Left
	Right
)

// Directions is the fixed enumeration order. Ranking ties resolve to the
// earliest entry.
var Directions = [4]Direction{Up, Down, Left, Right}

var directionNames = [4]string{"up", "down", "left", "right"}

var deltas = [4]Point{
	Up:    {X: 0, Y: 1},
	Down:  {X: 0, Y: -1},
	Left:  {X: -1, Y: 0},
	Right: {X: 1, Y: 0},
}

// Delta is the unit offset a move applies to a head.
func (d Direction) Delta() Point {
	if d < Up || d > Right {
		return Point{}
	}
	return deltas[d]
}

func (d Direction) String() string {
	if d < Up || d > Right {
		return fmt.Sprintf("Direction(%d)", int(d))
	}
	return directionNames[d]
}

// ParseDirection maps a wire name back to a Direction.
func ParseDirection(s string) (Direction, error) {
	for i, name := range directionNames {
		if name == s {
			return Direction(i), nil
		}
	}
	return Up, fmt.Errorf("unknown direction %q", s)
}

// DirectionBetween returns the move that takes from to an adjacent to.
func DirectionBetween(from, to Point) (Direction, bool) {
	for _, d := range Directions {
		if from.Add(d.Delta()) == to {
			return d, true
		}
	}
	return Up, false
}

// MarshalJSON writes the wire name. An out-of-range value goes out as "up",
// the engine's own default move.
func (d Direction) MarshalJSON() ([]byte, error) {
	if d < Up || d > Right {
		d = Up
	}
	return json.Marshal(directionNames[d])
}

func (d *Direction) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	parsed, err := ParseDirection(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}
