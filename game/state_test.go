package game

import (
	"encoding/json"
	"testing"
)

func TestPoint_AddAndManhattan(t *testing.T) {
	p := Point{X: 3, Y: 3}
	if got := p.Add(Up.Delta()); got != (Point{X: 3, Y: 4}) {
		t.Fatalf("up=%v want (3,4)", got)
	}
	if got := p.Add(Left.Delta()); got != (Point{X: 2, Y: 3}) {
		t.Fatalf("left=%v want (2,3)", got)
	}
	if d := p.Manhattan(Point{X: 0, Y: 7}); d != 7 {
		t.Fatalf("manhattan=%d want=7", d)
	}
	if d := p.Manhattan(p); d != 0 {
		t.Fatalf("manhattan to self=%d want=0", d)
	}
}

func TestDirections_FixedOrderAndDeltas(t *testing.T) {
	want := []struct {
		d     Direction
		name  string
		delta Point
	}{
		{Up, "up", Point{X: 0, Y: 1}},
		{Down, "down", Point{X: 0, Y: -1}},
		{Left, "left", Point{X: -1, Y: 0}},
		{Right, "right", Point{X: 1, Y: 0}},
	}
	for i, w := range want {
		if Directions[i] != w.d {
			t.Fatalf("Directions[%d]=%v want=%v", i, Directions[i], w.d)
		}
		if w.d.String() != w.name {
			t.Fatalf("%v name=%q want=%q", w.d, w.d.String(), w.name)
		}
		if w.d.Delta() != w.delta {
			t.Fatalf("%v delta=%v want=%v", w.d, w.d.Delta(), w.delta)
		}
		parsed, err := ParseDirection(w.name)
		if err != nil || parsed != w.d {
			t.Fatalf("ParseDirection(%q)=%v,%v", w.name, parsed, err)
		}
	}
	if _, err := ParseDirection("north"); err == nil {
		t.Fatalf("expected error for unknown direction")
	}
}

func TestDirection_OutOfRange(t *testing.T) {
	bad := Direction(7)
	if got := bad.String(); got != "Direction(7)" {
		t.Fatalf("String()=%q want Direction(7)", got)
	}
	if bad.Delta() != (Point{}) {
		t.Fatalf("delta=%v want zero", bad.Delta())
	}
	b, err := json.Marshal(bad)
	if err != nil || string(b) != `"up"` {
		t.Fatalf("marshal=%s,%v want \"up\"", b, err)
	}
}

func TestSnake_HeadPrefersDecodedField(t *testing.T) {
	var s Snake
	raw := `{"id":"a","body":[{"x":1,"y":1},{"x":1,"y":0}],"head":{"x":1,"y":1}}`
	if err := json.Unmarshal([]byte(raw), &s); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if s.HeadPoint == nil || s.Head() != (Point{X: 1, Y: 1}) {
		t.Fatalf("head=%v decoded=%v", s.Head(), s.HeadPoint)
	}

	// A head that disagrees with the body still wins: it is what the engine sent.
	s.HeadPoint = &Point{X: 4, Y: 4}
	if s.Head() != (Point{X: 4, Y: 4}) {
		t.Fatalf("head=%v want (4,4)", s.Head())
	}

	local := Snake{ID: "b", Body: []Point{{X: 2, Y: 3}}}
	if local.Head() != (Point{X: 2, Y: 3}) {
		t.Fatalf("local head=%v want body[0]", local.Head())
	}
	if (Snake{}).Head() != (Point{}) {
		t.Fatalf("empty snake head should be zero")
	}
}

func TestDirection_JSON(t *testing.T) {
	b, err := json.Marshal(struct {
		Move Direction `json:"move"`
	}{Right})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(b) != `{"move":"right"}` {
		t.Fatalf("json=%s", b)
	}
	var d Direction
	if err := json.Unmarshal([]byte(`"down"`), &d); err != nil || d != Down {
		t.Fatalf("unmarshal=%v,%v", d, err)
	}
}

func TestDirectionBetween(t *testing.T) {
	from := Point{X: 2, Y: 2}
	if d, ok := DirectionBetween(from, Point{X: 3, Y: 2}); !ok || d != Right {
		t.Fatalf("got %v,%v want right", d, ok)
	}
	if _, ok := DirectionBetween(from, Point{X: 4, Y: 2}); ok {
		t.Fatalf("non-adjacent points should not resolve")
	}
}

func TestBoard_InBounds(t *testing.T) {
	b := NewBoard(11, 7, nil, nil, nil, Snake{})
	cases := []struct {
		p    Point
		want bool
	}{
		{Point{X: 0, Y: 0}, true},
		{Point{X: 10, Y: 6}, true},
		{Point{X: 11, Y: 0}, false},
		{Point{X: 0, Y: 7}, false},
		{Point{X: -1, Y: 3}, false},
		{Point{X: 3, Y: -1}, false},
	}
	for _, c := range cases {
		if got := b.InBounds(c.p); got != c.want {
			t.Fatalf("InBounds(%v)=%v want=%v", c.p, got, c.want)
		}
	}
}

func TestBoard_IsBlocked_MergesHazardsAndAllBodies(t *testing.T) {
	you := Snake{ID: "me", Body: []Point{{X: 1, Y: 1}, {X: 1, Y: 0}}}
	other := Snake{ID: "them", Body: []Point{{X: 5, Y: 5}, {X: 5, Y: 4}, {X: 5, Y: 3}}}
	b := NewBoard(11, 11,
		[]Point{{X: 8, Y: 8}},
		[]Point{{X: 0, Y: 10}},
		[]Snake{other}, // you left out on purpose
		you,
	)

	for _, p := range []Point{{X: 1, Y: 1}, {X: 1, Y: 0}, {X: 5, Y: 3}, {X: 0, Y: 10}} {
		if !b.IsBlocked(p) {
			t.Fatalf("expected %v blocked", p)
		}
	}
	for _, p := range []Point{{X: 8, Y: 8}, {X: 2, Y: 2}} {
		if b.IsBlocked(p) {
			t.Fatalf("expected %v free", p)
		}
	}
	if b.Head() != (Point{X: 1, Y: 1}) {
		t.Fatalf("head=%v", b.Head())
	}
}
