// Command replay downloads finished games and reports, turn by turn, what the
// move engine would have played next to what the snake actually played.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/urfave/cli/v3"

	"github.com/dvalinn/snek/agent"
	"github.com/dvalinn/snek/discovery"
	"github.com/dvalinn/snek/logging"
	"github.com/dvalinn/snek/replay"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cmd := &cli.Command{
		Name:  "replay",
		Usage: "compare the move engine with recorded Battlesnake games",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "engine-url",
				Value:   replay.DefaultConfig().EngineURL,
				Usage:   "game event stream URL template (%s is the game id)",
				Sources: cli.EnvVars("SNEK_ENGINE_URL"),
			},
			&cli.DurationFlag{
				Name:  "read-timeout",
				Value: replay.DefaultConfig().ReadTimeout,
				Usage: "give up on a stream that is silent this long",
			},
			&cli.StringFlag{
				Name:  "fallback",
				Value: "up",
				Usage: "move when no food is on the board (up, first-safe)",
			},
			&cli.StringFlag{
				Name:    "log-level",
				Value:   "warn",
				Sources: cli.EnvVars("LOG_LEVEL"),
			},
		},
		Commands: []*cli.Command{
			{
				Name:      "game",
				Usage:     "evaluate one snake in one game",
				ArgsUsage: "<game-id>",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "snake", Usage: "snake id or name (default: first snake)"},
					&cli.BoolFlag{Name: "tui", Usage: "step through the turns interactively"},
				},
				Action: runGame,
			},
			{
				Name:      "player",
				Usage:     "evaluate a player's recent games from their leaderboard stats page",
				ArgsUsage: "<stats-url>",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "snake", Usage: "snake name as shown in the games", Required: true},
					&cli.IntFlag{Name: "limit", Value: 10, Usage: "games to evaluate"},
				},
				Action: runPlayer,
			},
			{
				Name:      "leaderboard",
				Usage:     "list the players on a leaderboard page, optionally with their recent game ids",
				ArgsUsage: "<leaderboard-url>",
				Flags: []cli.Flag{
					&cli.IntFlag{Name: "limit", Value: 20, Usage: "players to list"},
					&cli.BoolFlag{Name: "games", Usage: "also fetch each player's stats page and list their game ids"},
				},
				Action: runLeaderboard,
			},
		},
	}

	if err := cmd.Run(ctx, os.Args); err != nil {
		log.Fatal(err)
	}
}

type env struct {
	replay replay.Config
	agent  agent.Config
	logger *slog.Logger
}

func setup(cmd *cli.Command) (env, error) {
	logger, err := logging.New(os.Stderr, logging.Options{Level: cmd.String("log-level"), Format: "text"})
	if err != nil {
		return env{}, err
	}
	fallback, err := agent.ParseFallbackPolicy(cmd.String("fallback"))
	if err != nil {
		return env{}, err
	}
	rc := replay.DefaultConfig()
	rc.EngineURL = cmd.String("engine-url")
	rc.ReadTimeout = cmd.Duration("read-timeout")
	rc.Logger = logger
	return env{replay: rc, agent: agent.Config{Fallback: fallback}, logger: logger}, nil
}

func runGame(ctx context.Context, cmd *cli.Command) error {
	gameID := cmd.Args().First()
	if gameID == "" {
		return errors.New("game id is required")
	}
	e, err := setup(cmd)
	if err != nil {
		return err
	}

	g, err := replay.Download(ctx, e.replay, gameID)
	if err != nil {
		return fmt.Errorf("download %s: %w", gameID, err)
	}

	key := cmd.String("snake")
	if key == "" && len(g.Frames[0].Snakes) > 0 {
		key = g.Frames[0].Snakes[0].ID
	}
	snakeID, ok := g.FindSnake(key)
	if !ok {
		return fmt.Errorf("snake %q not found in game %s", key, gameID)
	}

	reports := replay.Evaluate(g, snakeID, e.agent)
	if len(reports) == 0 {
		return fmt.Errorf("snake %q is never alive in game %s", key, gameID)
	}

	if cmd.Bool("tui") {
		_, err := tea.NewProgram(newViewer(g.ID, snakeID, reports), tea.WithAltScreen()).Run()
		return err
	}
	printReports(os.Stdout, reports)
	printSummary(os.Stdout, gameID, replay.Summarize(reports))
	return nil
}

func runPlayer(ctx context.Context, cmd *cli.Command) error {
	statsURL := cmd.Args().First()
	if statsURL == "" {
		return errors.New("stats url is required")
	}
	e, err := setup(cmd)
	if err != nil {
		return err
	}

	ids, err := discovery.NewClient().PlayerGames(ctx, statsURL)
	if err != nil {
		return err
	}
	if limit := int(cmd.Int("limit")); limit > 0 && len(ids) > limit {
		ids = ids[:limit]
	}
	e.logger.Info("found games", "count", len(ids))

	var total replay.Summary
	start := time.Now()
	for _, id := range ids {
		g, err := replay.Download(ctx, e.replay, id)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			e.logger.Warn("download failed", "game_id", id, "err", err)
			continue
		}
		snakeID, ok := g.FindSnake(cmd.String("snake"))
		if !ok {
			e.logger.Warn("snake not in game", "game_id", id, "snake", cmd.String("snake"))
			continue
		}
		s := replay.Summarize(replay.Evaluate(g, snakeID, e.agent))
		printSummary(os.Stdout, id, s)
		total.Turns += s.Turns
		total.Agreed += s.Agreed
		total.Trapped += s.Trapped
		total.NoFood += s.NoFood
	}
	printSummary(os.Stdout, fmt.Sprintf("total (%s)", time.Since(start).Round(time.Millisecond)), total)
	return nil
}

func runLeaderboard(ctx context.Context, cmd *cli.Command) error {
	leaderboardURL := cmd.Args().First()
	if leaderboardURL == "" {
		return errors.New("leaderboard url is required")
	}
	e, err := setup(cmd)
	if err != nil {
		return err
	}
	return listLeaderboard(ctx, discovery.NewClient(), leaderboardURL, int(cmd.Int("limit")), cmd.Bool("games"), os.Stdout, e.logger)
}

// listLeaderboard prints one line per player, and with games set, the ids
// found on each player's stats page. A failing stats page is logged and
// skipped.
func listLeaderboard(ctx context.Context, c *discovery.Client, leaderboardURL string, limit int, games bool, w io.Writer, logger *slog.Logger) error {
	players, err := c.LeaderboardPlayers(ctx, leaderboardURL)
	if err != nil {
		return err
	}
	if limit > 0 && len(players) > limit {
		players = players[:limit]
	}

	for i, p := range players {
		fmt.Fprintf(w, "%d\t%s\t%s\n", i+1, p.Username, p.StatsURL)
		if !games {
			continue
		}
		ids, err := c.PlayerGames(ctx, p.StatsURL)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			logger.Warn("stats page failed", "player", p.Username, "err", err)
			continue
		}
		for _, id := range ids {
			fmt.Fprintf(w, "\t%s\n", id)
		}
	}
	return nil
}

func printReports(w io.Writer, reports []replay.TurnReport) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "TURN\tENGINE\tACTUAL\tREASON\tSAFE")
	for _, r := range reports {
		actual := "-"
		if r.HasActual {
			actual = r.Actual.String()
		}
		mark := ""
		if r.HasActual && !r.Agrees() {
			mark = " *"
		}
		fmt.Fprintf(tw, "%d\t%s\t%s%s\t%s\t%v\n", r.Turn, r.Decision.Move, actual, mark, r.Decision.Reason, r.Safe)
	}
	tw.Flush()
}

func printSummary(w io.Writer, label string, s replay.Summary) {
	pct := 0.0
	if s.Turns > 0 {
		pct = 100 * float64(s.Agreed) / float64(s.Turns)
	}
	fmt.Fprintf(w, "%s: %d turns, %d agreed (%.1f%%), %d trapped, %d without food\n",
		label, s.Turns, s.Agreed, pct, s.Trapped, s.NoFood)
}
