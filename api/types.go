// Package api holds the Battlesnake webhook wire types and turns a request
// body into a game.Board.
package api

import (
	"encoding/json"
	"strconv"

	"github.com/dvalinn/snek/agent"
	"github.com/dvalinn/snek/game"
)

// InfoResponse is the GET / body.
type InfoResponse struct {
	APIVersion string `json:"apiversion"`
	Author     string `json:"author"`
	Color      string `json:"color"`
	Head       string `json:"head"`
	Tail       string `json:"tail"`
	Version    string `json:"version"`
}

// DefaultInfo is the agent's identity record.
func DefaultInfo() InfoResponse {
	return InfoResponse{
		APIVersion: "1",
		Author:     "dvalinn",
		Color:      "#00E6BF",
		Head:       "default",
		Tail:       "default",
		Version:    "0.0.1-alpha.0",
	}
}

type GameRequest struct {
	Game  Game       `json:"game"`
	Turn  int        `json:"turn"`
	Board Board      `json:"board"`
	You   game.Snake `json:"you"`
}

type Game struct {
	ID      string  `json:"id"`
	Ruleset Ruleset `json:"ruleset"`
	Map     string  `json:"map"`
	Timeout int     `json:"timeout"`
	Source  string  `json:"source"`
}

type Ruleset struct {
	Name     string   `json:"name"`
	Version  string   `json:"version"`
	Settings Settings `json:"settings"`
}

// Settings keeps every ruleset knob the engine sends. The set of keys varies
// between game modes, so it stays an open map.
type Settings map[string]any

// Int reads a numeric setting. Missing or non-numeric keys report false.
func (s Settings) Int(key string) (int, bool) {
	switch v := s[key].(type) {
	case float64:
		return int(v), true
	case int:
		return v, true
	case json.Number:
		i, err := strconv.Atoi(v.String())
		return i, err == nil
	}
	return 0, false
}

// Group returns a nested settings object such as "royale" or "squad".
func (s Settings) Group(key string) Settings {
	if m, ok := s[key].(map[string]any); ok {
		return Settings(m)
	}
	return nil
}

// Bool reads a boolean setting.
func (s Settings) Bool(key string) (bool, bool) {
	v, ok := s[key].(bool)
	return v, ok
}

type Board struct {
	Height  int          `json:"height"`
	Width   int          `json:"width"`
	Food    []game.Point `json:"food"`
	Hazards []game.Point `json:"hazards"`
	Snakes  []game.Snake `json:"snakes"`
}

type MoveResponse struct {
	Move  game.Direction `json:"move"`
	Shout string         `json:"shout,omitempty"`
}

// NewMoveResponse wraps a decision for the wire.
func NewMoveResponse(d agent.Decision) MoveResponse {
	return MoveResponse{Move: d.Move, Shout: agent.TruncateShout(d.Shout)}
}

// ToBoard builds the engine's snapshot for this turn.
func (r *GameRequest) ToBoard() *game.Board {
	return game.NewBoard(r.Board.Width, r.Board.Height, r.Board.Food, r.Board.Hazards, r.Board.Snakes, r.You)
}

// Outcome reports won, lost or draw from the final /end payload.
func (r *GameRequest) Outcome() string {
	youAlive := false
	for _, s := range r.Board.Snakes {
		if s.ID == r.You.ID {
			youAlive = true
			break
		}
	}
	switch {
	case youAlive:
		return "won"
	case len(r.Board.Snakes) == 0:
		return "draw"
	default:
		return "lost"
	}
}
