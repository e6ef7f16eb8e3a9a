// Package replay streams a finished game from the Battlesnake engine and
// re-runs the move engine on every turn of one snake, to compare what it
// would have done with what that snake actually did. Games are held in
// memory only.
package replay

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/gorilla/websocket"

	"github.com/dvalinn/snek/agent"
	"github.com/dvalinn/snek/game"
)

const defaultBoardSize = 11

// Config holds downloader configuration
type Config struct {
	EngineURL      string // WebSocket URL template
	ConnectTimeout time.Duration
	ReadTimeout    time.Duration
	Logger         *slog.Logger
}

// DefaultConfig returns sensible defaults
func DefaultConfig() Config {
	return Config{
		EngineURL:      "wss://engine.battlesnake.com/games/%s/events",
		ConnectTimeout: 10 * time.Second,
		ReadTimeout:    30 * time.Second,
	}
}

// GameEvent represents an event from the WebSocket stream
type GameEvent struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

// GameInfo from the "game_info" event
type GameInfo struct {
	Game    GameDetails `json:"game"`
	Ruleset RulesetInfo `json:"ruleset"`
}

type GameDetails struct {
	ID      string `json:"id"`
	Width   int    `json:"width"`
	Height  int    `json:"height"`
	Timeout int    `json:"timeout"`
}

type RulesetInfo struct {
	Name     string          `json:"name"`
	Version  string          `json:"version"`
	Settings json.RawMessage `json:"settings"`
}

// Frame is one turn of the event stream.
type Frame struct {
	Turn    int          `json:"turn"`
	Snakes  []FrameSnake `json:"snakes"`
	Food    []game.Point `json:"food"`
	Hazards []game.Point `json:"hazards"`
}

type FrameSnake struct {
	ID     string       `json:"id"`
	Name   string       `json:"name"`
	Health int          `json:"health"`
	Body   []game.Point `json:"body"`
	Author string       `json:"author,omitempty"`
	Death  *Death       `json:"death,omitempty"`
}

type Death struct {
	Cause string `json:"cause"`
	Turn  int    `json:"turn"`
}

func (s FrameSnake) alive() bool {
	return s.Death == nil && s.Health > 0 && len(s.Body) > 0
}

// Game is everything downloaded for one game id.
type Game struct {
	ID     string
	Info   GameInfo
	Frames []Frame
}

func (g *Game) size() (int, int) {
	w, h := g.Info.Game.Width, g.Info.Game.Height
	if w <= 0 {
		w = defaultBoardSize
	}
	if h <= 0 {
		h = defaultBoardSize
	}
	return w, h
}

// Download connects to the game WebSocket and reads frames until the stream
// ends or ctx is cancelled.
func Download(ctx context.Context, cfg Config, gameID string) (*Game, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	url := fmt.Sprintf(cfg.EngineURL, gameID)

	dialer := websocket.Dialer{
		HandshakeTimeout: cfg.ConnectTimeout,
	}
	conn, _, err := dialer.DialContext(ctx, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to connect: %w", err)
	}
	defer conn.Close()

	// Unblock ReadMessage on cancellation.
	stop := context.AfterFunc(ctx, func() { conn.Close() })
	defer stop()

	g := &Game{ID: gameID}
	for {
		if cfg.ReadTimeout > 0 {
			conn.SetReadDeadline(time.Now().Add(cfg.ReadTimeout))
		}

		_, message, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				break
			}
			if len(g.Frames) > 0 {
				// Streams sometimes drop instead of closing; keep what arrived.
				logger.Debug("stream ended without close", "game_id", gameID, "frames", len(g.Frames), "err", err)
				break
			}
			return nil, fmt.Errorf("read error: %w", err)
		}

		var event GameEvent
		if err := json.Unmarshal(message, &event); err != nil {
			logger.Warn("failed to parse event", "game_id", gameID, "err", err)
			continue
		}

		done := false
		switch event.Type {
		case "game_info":
			if err := json.Unmarshal(event.Data, &g.Info); err != nil {
				logger.Warn("failed to parse game_info", "game_id", gameID, "err", err)
			}
		case "frame":
			var f Frame
			if err := json.Unmarshal(event.Data, &f); err != nil {
				logger.Warn("failed to parse frame", "game_id", gameID, "err", err)
				continue
			}
			g.Frames = append(g.Frames, f)
		case "game_end":
			done = true
		}
		if done {
			break
		}
	}

	if len(g.Frames) == 0 {
		return nil, errors.New("no frames received")
	}
	return g, nil
}

// TurnReport compares one decision with the move actually played.
type TurnReport struct {
	Turn     int
	Board    *game.Board
	Decision agent.Decision
	// Actual is the move the snake made into the next frame; HasActual is
	// false on the final turn or when the head did not move to a neighbour.
	Actual    game.Direction
	HasActual bool
	// Safe lists the moves the engine considered safe.
	Safe []game.Direction
}

func (r TurnReport) Agrees() bool {
	return r.HasActual && r.Actual == r.Decision.Move
}

type Summary struct {
	Turns   int
	Agreed  int
	Trapped int
	NoFood  int
}

func Summarize(reports []TurnReport) Summary {
	var s Summary
	for _, r := range reports {
		s.Turns++
		if r.Agrees() {
			s.Agreed++
		}
		switch r.Decision.Reason {
		case agent.ReasonTrapped:
			s.Trapped++
		case agent.ReasonNoFood:
			s.NoFood++
		}
	}
	return s
}

// FindSnake resolves a snake by id or display name from the first frame.
func (g *Game) FindSnake(key string) (string, bool) {
	if len(g.Frames) == 0 {
		return "", false
	}
	for _, s := range g.Frames[0].Snakes {
		if s.ID == key || s.Name == key {
			return s.ID, true
		}
	}
	return "", false
}

// Evaluate runs the engine for snakeID on every frame where it is alive.
func Evaluate(g *Game, snakeID string, cfg agent.Config) []TurnReport {
	w, h := g.size()
	var reports []TurnReport

	for i, f := range g.Frames {
		var you *FrameSnake
		alive := make([]game.Snake, 0, len(f.Snakes))
		for j := range f.Snakes {
			s := f.Snakes[j]
			if !s.alive() {
				continue
			}
			snake := game.Snake{ID: s.ID, Name: s.Name, Health: s.Health, Body: s.Body, Length: len(s.Body)}
			alive = append(alive, snake)
			if s.ID == snakeID {
				you = &f.Snakes[j]
			}
		}
		if you == nil {
			continue
		}

		youSnake := game.Snake{ID: you.ID, Name: you.Name, Health: you.Health, Body: you.Body, Length: len(you.Body)}
		b := game.NewBoard(w, h, f.Food, f.Hazards, alive, youSnake)
		r := TurnReport{
			Turn:     f.Turn,
			Board:    b,
			Decision: agent.Decide(b, cfg),
			Safe:     agent.SafeMoves(b),
		}
		if i+1 < len(g.Frames) {
			if next, ok := headIn(g.Frames[i+1], snakeID); ok {
				r.Actual, r.HasActual = game.DirectionBetween(youSnake.Head(), next)
			}
		}
		reports = append(reports, r)
	}
	return reports
}

// headIn finds a snake's head in a frame, dead or alive: a snake that died
// moving still shows where it went.
func headIn(f Frame, snakeID string) (game.Point, bool) {
	for _, s := range f.Snakes {
		if s.ID == snakeID && len(s.Body) > 0 {
			return s.Body[0], true
		}
	}
	return game.Point{}, false
}
