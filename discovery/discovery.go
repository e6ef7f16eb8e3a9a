// Package discovery finds public game ids on the Battlesnake leaderboard pages.
package discovery

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"time"

	"github.com/PuerkitoBio/goquery"
)

const userAgent = "snek-replay/1.0"

var (
	gameIDRe = regexp.MustCompile(`/game/([a-f0-9-]+)`)
	// Matches /leaderboard/{arena}/{username}/stats (standard, standard-duels, etc.)
	playerRe = regexp.MustCompile(`/leaderboard/[^/]+/([^/]+)/stats`)
)

type Client struct {
	HTTP *http.Client
}

func NewClient() *Client {
	return &Client{HTTP: &http.Client{Timeout: 30 * time.Second}}
}

// Player is one leaderboard entry.
type Player struct {
	Username string
	StatsURL string
}

func (c *Client) fetch(ctx context.Context, pageURL string) (*goquery.Document, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}
	return goquery.NewDocumentFromReader(resp.Body)
}

// LeaderboardPlayers lists the players linked from a leaderboard page, in
// page order.
func (c *Client) LeaderboardPlayers(ctx context.Context, leaderboardURL string) ([]Player, error) {
	doc, err := c.fetch(ctx, leaderboardURL)
	if err != nil {
		return nil, fmt.Errorf("leaderboard %s: %w", leaderboardURL, err)
	}
	base, err := url.Parse(leaderboardURL)
	if err != nil {
		return nil, err
	}

	var players []Player
	seen := make(map[string]bool)
	doc.Find("a[href*='/leaderboard/']").Each(func(i int, s *goquery.Selection) {
		href, exists := s.Attr("href")
		if !exists {
			return
		}
		matches := playerRe.FindStringSubmatch(href)
		if len(matches) < 2 || seen[matches[1]] {
			return
		}
		ref, err := url.Parse(href)
		if err != nil {
			return
		}
		seen[matches[1]] = true
		players = append(players, Player{
			Username: matches[1],
			StatsURL: base.ResolveReference(ref).String(),
		})
	})
	return players, nil
}

// PlayerGames returns the distinct game ids linked from a player's stats
// page, most recent first as the page lists them.
func (c *Client) PlayerGames(ctx context.Context, statsURL string) ([]string, error) {
	doc, err := c.fetch(ctx, statsURL)
	if err != nil {
		return nil, fmt.Errorf("stats %s: %w", statsURL, err)
	}

	var gameIDs []string
	seen := make(map[string]bool)
	doc.Find("a[href*='/game/']").Each(func(i int, s *goquery.Selection) {
		href, exists := s.Attr("href")
		if !exists {
			return
		}
		matches := gameIDRe.FindStringSubmatch(href)
		if len(matches) >= 2 && !seen[matches[1]] {
			seen[matches[1]] = true
			gameIDs = append(gameIDs, matches[1])
		}
	})
	return gameIDs, nil
}
