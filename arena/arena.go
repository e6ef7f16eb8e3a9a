// Package arena plays the move engine against copies of itself on the local
// simulator. Nothing is recorded beyond the summary counters.
package arena

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"sync"
	"time"

	"github.com/dvalinn/snek/agent"
	"github.com/dvalinn/snek/game"
	"github.com/dvalinn/snek/rules"
)

type Config struct {
	Width    int
	Height   int
	Snakes   int
	MaxTurns int
	Rules    rules.Settings
	// Agents holds one engine config per seat; missing seats use the zero
	// Config.
	Agents []agent.Config
}

func DefaultConfig() Config {
	return Config{
		Width:    11,
		Height:   11,
		Snakes:   2,
		MaxTurns: 500,
		Rules:    rules.DefaultSettings,
	}
}

func (c Config) agentFor(seat int) agent.Config {
	if seat < len(c.Agents) {
		return c.Agents[seat]
	}
	return agent.Config{}
}

type Result struct {
	WinnerID string
	Turns    int
	Trapped  int // decisions made with no safe move
}

// PlayGame runs one game to completion, MaxTurns, or context cancellation.
func PlayGame(ctx context.Context, cfg Config, rng *rand.Rand) Result {
	state := InitialState(cfg, rng)
	seats := make(map[string]int, len(state.Snakes))
	for i, s := range state.Snakes {
		seats[s.ID] = i
	}

	var res Result
	for !rules.IsGameOver(state) && state.Turn < cfg.MaxTurns {
		if ctx.Err() != nil {
			break
		}
		moves := make(map[string]game.Direction, len(state.Snakes))
		for _, s := range state.Snakes {
			b, ok := state.Board(s.ID)
			if !ok {
				continue
			}
			d := agent.Decide(b, cfg.agentFor(seats[s.ID]))
			if d.Reason == agent.ReasonTrapped {
				res.Trapped++
			}
			moves[s.ID] = d.Move
		}
		state = rules.Step(state, moves, rng, cfg.Rules)
	}

	res.WinnerID = rules.Winner(state)
	res.Turns = state.Turn
	return res
}

// InitialState places snakes of length 3, stacked on their start cell, at
// evenly spread positions and spawns the minimum food.
func InitialState(cfg Config, rng *rand.Rand) *rules.State {
	state := &rules.State{Width: cfg.Width, Height: cfg.Height}
	starts := startPoints(cfg.Width, cfg.Height)
	rng.Shuffle(len(starts), func(i, j int) { starts[i], starts[j] = starts[j], starts[i] })

	n := cfg.Snakes
	if n > len(starts) {
		n = len(starts)
	}
	for i := 0; i < n; i++ {
		p := starts[i]
		state.Snakes = append(state.Snakes, game.Snake{
			ID:     fmt.Sprintf("snake%d", i+1),
			Name:   fmt.Sprintf("snake%d", i+1),
			Health: rules.MaxHealth,
			Body:   []game.Point{p, p, p},
			Length: 3,
		})
	}
	rules.ApplyFoodSettings(state, rng, rules.FoodSettings{MinimumFood: n, FoodSpawnChance: 0})
	return state
}

// startPoints mirrors the engine's corner and edge-midpoint spawns, inset by one.
func startPoints(w, h int) []game.Point {
	xs := []int{1, w / 2, w - 2}
	ys := []int{1, h / 2, h - 2}
	var out []game.Point
	seen := make(map[game.Point]bool)
	for _, x := range xs {
		for _, y := range ys {
			p := game.Point{X: x, Y: y}
			if (x == w/2 && y == h/2) || seen[p] {
				continue
			}
			seen[p] = true
			out = append(out, p)
		}
	}
	return out
}

type Summary struct {
	Games    int
	Wins     map[string]int
	Draws    int
	Turns    int
	Trapped  int
	Duration time.Duration
}

func (s Summary) AverageTurns() float64 {
	if s.Games == 0 {
		return 0
	}
	return float64(s.Turns) / float64(s.Games)
}

// Run plays games across a pool of workers. Each worker owns its rng.
func Run(ctx context.Context, cfg Config, games, workers int, seed int64, logger *slog.Logger) Summary {
	if workers <= 0 {
		workers = 1
	}
	if logger == nil {
		logger = slog.Default()
	}
	start := time.Now()

	jobs := make(chan int)
	results := make(chan Result, workers)

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()
			rng := rand.New(rand.NewSource(seed + int64(workerID)))
			for gameNum := range jobs {
				res := PlayGame(ctx, cfg, rng)
				logger.Debug("game finished", "worker", workerID, "game", gameNum, "winner", res.WinnerID, "turns", res.Turns)
				results <- res
			}
		}(w)
	}

	go func() {
		defer close(jobs)
		for i := 0; i < games; i++ {
			select {
			case <-ctx.Done():
				return
			case jobs <- i:
			}
		}
	}()

	go func() {
		wg.Wait()
		close(results)
	}()

	sum := Summary{Wins: make(map[string]int)}
	for res := range results {
		sum.Games++
		sum.Turns += res.Turns
		sum.Trapped += res.Trapped
		if res.WinnerID == "" {
			sum.Draws++
		} else {
			sum.Wins[res.WinnerID]++
		}
		if sum.Games%50 == 0 {
			logger.Info("progress", "games", sum.Games, "draws", sum.Draws)
		}
	}
	sum.Duration = time.Since(start)
	return sum
}
