// Command arena plays the move engine against itself on the local simulator
// and prints win, draw and length statistics.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"runtime"
	"sort"
	"strings"
	"syscall"
	"time"

	"github.com/dvalinn/snek/agent"
	"github.com/dvalinn/snek/arena"
	"github.com/dvalinn/snek/logging"
)

func main() {
	cfg := arena.DefaultConfig()

	games := flag.Int("games", 200, "Number of games to play")
	workers := flag.Int("workers", runtime.NumCPU(), "Number of game workers")
	seed := flag.Int64("seed", time.Now().UnixNano(), "Base rng seed; worker i uses seed+i")
	flag.IntVar(&cfg.Width, "width", cfg.Width, "Board width")
	flag.IntVar(&cfg.Height, "height", cfg.Height, "Board height")
	flag.IntVar(&cfg.Snakes, "snakes", cfg.Snakes, "Snakes per game")
	flag.IntVar(&cfg.MaxTurns, "max-turns", cfg.MaxTurns, "Stop a game after this many turns")
	flag.IntVar(&cfg.Rules.HazardDamage, "hazard-damage", cfg.Rules.HazardDamage, "Health lost per turn on a hazard")
	flag.IntVar(&cfg.Rules.Food.FoodSpawnChance, "food-spawn-chance", cfg.Rules.Food.FoodSpawnChance, "Percent chance of spawning food each turn")
	fallbacks := flag.String("fallback", "up", "Fallback policy per seat, colon separated, e.g. up:first-safe")
	logLevel := flag.String("log-level", "info", "Log level")
	flag.Parse()

	logger, err := logging.New(os.Stderr, logging.Options{Level: *logLevel, Format: "text"})
	if err != nil {
		log.Fatalf("logging: %v", err)
	}

	seats, err := parseSeats(*fallbacks)
	if err != nil {
		log.Fatalf("fallback: %v", err)
	}
	cfg.Agents = seats

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.Printf("Playing %d games on %dx%d with %d snakes, %d workers, seed %d",
		*games, cfg.Width, cfg.Height, cfg.Snakes, *workers, *seed)

	sum := arena.Run(ctx, cfg, *games, *workers, *seed, logger)
	printSummary(sum)
}

// parseSeats splits "up:first-safe" into one policy per seat.
func parseSeats(s string) ([]agent.Config, error) {
	var out []agent.Config
	for _, name := range strings.Split(s, ":") {
		p, err := agent.ParseFallbackPolicy(name)
		if err != nil {
			return nil, err
		}
		out = append(out, agent.Config{Fallback: p})
	}
	return out, nil
}

func printSummary(sum arena.Summary) {
	fmt.Printf("games:    %d in %s\n", sum.Games, sum.Duration.Round(time.Millisecond))
	fmt.Printf("turns:    %.1f avg\n", sum.AverageTurns())
	fmt.Printf("draws:    %d\n", sum.Draws)
	fmt.Printf("trapped:  %d decisions\n", sum.Trapped)

	ids := make([]string, 0, len(sum.Wins))
	for id := range sum.Wins {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	for _, id := range ids {
		fmt.Printf("wins %-4s %d\n", id+":", sum.Wins[id])
	}
}
