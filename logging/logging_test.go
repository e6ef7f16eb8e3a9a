package logging

import (
	"bytes"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"testing"
	"time"
)

func TestParseLevel(t *testing.T) {
	cases := map[string]slog.Level{
		"debug": slog.LevelDebug,
		"":      slog.LevelInfo,
		"INFO":  slog.LevelInfo,
		"warn":  slog.LevelWarn,
		"error": slog.LevelError,
	}
	for in, want := range cases {
		got, err := ParseLevel(in)
		if err != nil || got != want {
			t.Fatalf("ParseLevel(%q)=%v,%v want=%v", in, got, err, want)
		}
	}
	if _, err := ParseLevel("loud"); err == nil {
		t.Fatalf("expected error")
	}
}

func TestParseFormat(t *testing.T) {
	cases := map[string]string{"": "json", "JSON": "json", " Text ": "text", "pretty": "pretty"}
	for in, want := range cases {
		got, err := ParseFormat(in)
		if err != nil || got != want {
			t.Fatalf("ParseFormat(%q)=%q,%v want=%q", in, got, err, want)
		}
	}
	if _, err := ParseFormat("xml"); err == nil {
		t.Fatalf("expected error for xml")
	}
}

func TestNew_Formats(t *testing.T) {
	for _, format := range []string{"json", "text", "pretty"} {
		var buf bytes.Buffer
		logger, err := New(&buf, Options{Level: "info", Format: format})
		if err != nil {
			t.Fatalf("%s: %v", format, err)
		}
		logger.Debug("hidden")
		logger.Info("shown", "turn", 3)
		out := buf.String()
		if strings.Contains(out, "hidden") || !strings.Contains(out, "shown") {
			t.Fatalf("%s output=%q", format, out)
		}
	}
	if _, err := New(&bytes.Buffer{}, Options{Format: "xml"}); err == nil {
		t.Fatalf("expected error for unknown format")
	}
}

func TestPrettyJSONHandler_GroupsAndAttrs(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(NewPrettyJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	logger.With("game_id", "g1").WithGroup("turn").Debug("move",
		"n", 7,
		"took", 3*time.Millisecond,
		"err", errors.New("boom"),
		slog.Group("head", "x", 1, "y", 2),
	)

	var got map[string]any
	if err := json.Unmarshal(buf.Bytes(), &got); err != nil {
		t.Fatalf("unmarshal %q: %v", buf.String(), err)
	}
	if got["msg"] != "move" || got["level"] != "DEBUG" || got["game_id"] != "g1" {
		t.Fatalf("payload=%v", got)
	}
	turn, ok := got["turn"].(map[string]any)
	if !ok {
		t.Fatalf("turn group missing: %v", got)
	}
	if turn["n"] != float64(7) || turn["took"] != "3ms" || turn["err"] != "boom" {
		t.Fatalf("turn=%v", turn)
	}
	head, ok := turn["head"].(map[string]any)
	if !ok || head["x"] != float64(1) || head["y"] != float64(2) {
		t.Fatalf("head=%v", turn["head"])
	}
	if !strings.Contains(buf.String(), "\n  ") {
		t.Fatalf("expected indented output, got %q", buf.String())
	}
}

func TestPrettyJSONHandler_AttrsBeforeGroupStayAtTheirDepth(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(NewPrettyJSONHandler(&buf, nil))
	logger.WithGroup("req").With("id", "abc").WithGroup("inner").Info("x", "k", "v")

	var got map[string]any
	if err := json.Unmarshal(buf.Bytes(), &got); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	req := got["req"].(map[string]any)
	if req["id"] != "abc" {
		t.Fatalf("req=%v", req)
	}
	inner := req["inner"].(map[string]any)
	if inner["k"] != "v" {
		t.Fatalf("inner=%v", inner)
	}
}
