package main

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/dvalinn/snek/game"
	"github.com/dvalinn/snek/replay"
)

var (
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#00E6BF"))
	youStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#00E6BF")).Bold(true)
	enemyStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF5F87"))
	foodStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#FFD700"))
	hazardStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#8A2BE2"))
	emptyStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#444444"))
	agreeStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#5FD700"))
	differStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF5F00")).Bold(true)
	helpStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#777777"))
	panelStyle  = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
)

// viewer steps through the evaluated turns of one game.
type viewer struct {
	gameID  string
	snakeID string
	reports []replay.TurnReport
	summary replay.Summary
	idx     int
}

func newViewer(gameID, snakeID string, reports []replay.TurnReport) viewer {
	return viewer{
		gameID:  gameID,
		snakeID: snakeID,
		reports: reports,
		summary: replay.Summarize(reports),
	}
}

func (m viewer) Init() tea.Cmd {
	return nil
}

func (m viewer) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case "right", "l", " ":
			if m.idx < len(m.reports)-1 {
				m.idx++
			}
		case "left", "h":
			if m.idx > 0 {
				m.idx--
			}
		case "home", "g":
			m.idx = 0
		case "end", "G":
			m.idx = len(m.reports) - 1
		case "n":
			// next disagreement
			for i := m.idx + 1; i < len(m.reports); i++ {
				if m.reports[i].HasActual && !m.reports[i].Agrees() {
					m.idx = i
					break
				}
			}
		}
	}
	return m, nil
}

func (m viewer) View() string {
	if len(m.reports) == 0 {
		return "no turns\n"
	}
	r := m.reports[m.idx]

	var b strings.Builder
	b.WriteString(titleStyle.Render(fmt.Sprintf("game %s  snake %s  turn %d  (%d/%d)",
		m.gameID, m.snakeID, r.Turn, m.idx+1, len(m.reports))))
	b.WriteString("\n\n")

	info := []string{
		fmt.Sprintf("engine: %s (%s)", r.Decision.Move, r.Decision.Reason),
		fmt.Sprintf("shout:  %s", r.Decision.Shout),
		fmt.Sprintf("safe:   %v", r.Safe),
	}
	if r.Decision.Target != nil {
		info = append(info, fmt.Sprintf("target: %s", *r.Decision.Target))
	}
	switch {
	case !r.HasActual:
		info = append(info, "actual: -")
	case r.Agrees():
		info = append(info, agreeStyle.Render("actual: "+r.Actual.String()))
	default:
		info = append(info, differStyle.Render("actual: "+r.Actual.String()))
	}
	info = append(info, "", fmt.Sprintf("agreed %d of %d turns", m.summary.Agreed, m.summary.Turns))

	b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top,
		panelStyle.Render(renderBoard(r.Board)),
		"  ",
		panelStyle.Render(strings.Join(info, "\n")),
	))
	b.WriteString("\n\n")
	b.WriteString(helpStyle.Render("←/→ step  n next disagreement  g/G first/last  q quit"))
	b.WriteString("\n")
	return b.String()
}

// renderBoard draws y=0 at the bottom, as the engine does.
func renderBoard(b *game.Board) string {
	cells := make(map[game.Point]string)
	for _, p := range b.Hazards {
		cells[p] = hazardStyle.Render("░")
	}
	for _, p := range b.Food {
		cells[p] = foodStyle.Render("●")
	}
	for _, s := range b.Snakes {
		style := enemyStyle
		if s.ID == b.You.ID {
			style = youStyle
		}
		for i := len(s.Body) - 1; i >= 0; i-- {
			glyph := "o"
			if i == 0 {
				glyph = "@"
			}
			cells[s.Body[i]] = style.Render(glyph)
		}
	}

	var sb strings.Builder
	for y := b.Height - 1; y >= 0; y-- {
		for x := 0; x < b.Width; x++ {
			if c, ok := cells[game.Point{X: x, Y: y}]; ok {
				sb.WriteString(c)
			} else {
				sb.WriteString(emptyStyle.Render("·"))
			}
			if x < b.Width-1 {
				sb.WriteByte(' ')
			}
		}
		if y > 0 {
			sb.WriteByte('\n')
		}
	}
	return sb.String()
}
