package server

import (
	"bytes"
	"compress/gzip"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/dvalinn/snek/agent"
	"github.com/dvalinn/snek/api"
	"github.com/dvalinn/snek/game"
)

func newTestServer(opts Options) *Server {
	if opts.Logger == nil {
		opts.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if opts.Info == (api.InfoResponse{}) {
		opts.Info = api.DefaultInfo()
	}
	return New(opts)
}

func turnBody(timeoutMs int) string {
	return `{
	  "game": {"id": "g1", "ruleset": {"name": "standard", "version": "v1", "settings": {}}, "map": "standard", "timeout": ` + itoa(timeoutMs) + `, "source": "custom"},
	  "turn": 3,
	  "board": {
	    "height": 11, "width": 11,
	    "food": [{"x": 5, "y": 7}],
	    "hazards": [],
	    "snakes": [{"id": "me", "name": "me", "health": 90, "body": [{"x": 5, "y": 5}, {"x": 5, "y": 4}], "head": {"x": 5, "y": 5}, "length": 2, "latency": "0", "shout": ""}]
	  },
	  "you": {"id": "me", "name": "me", "health": 90, "body": [{"x": 5, "y": 5}, {"x": 5, "y": 4}], "head": {"x": 5, "y": 5}, "length": 2, "latency": "0", "shout": ""}
	}`
}

func itoa(i int) string {
	b, _ := json.Marshal(i)
	return string(b)
}

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestIndex_ReturnsConstantInfo(t *testing.T) {
	h := newTestServer(Options{}).Handler()

	var first api.InfoResponse
	for i := 0; i < 3; i++ {
		rec := do(t, h, http.MethodGet, "/", "")
		if rec.Code != http.StatusOK {
			t.Fatalf("status=%d", rec.Code)
		}
		var info api.InfoResponse
		if err := json.Unmarshal(rec.Body.Bytes(), &info); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if i == 0 {
			first = info
		} else if info != first {
			t.Fatalf("info changed: %+v vs %+v", info, first)
		}
	}
	if first != api.DefaultInfo() {
		t.Fatalf("info=%+v", first)
	}

	if rec := do(t, h, http.MethodGet, "/nope", ""); rec.Code != http.StatusNotFound {
		t.Fatalf("status=%d want 404", rec.Code)
	}
}

func TestMove_Scenario(t *testing.T) {
	h := newTestServer(Options{}).Handler()
	rec := do(t, h, http.MethodPost, "/move", turnBody(500))
	if rec.Code != http.StatusOK {
		t.Fatalf("status=%d body=%s", rec.Code, rec.Body.String())
	}
	var resp struct {
		Move  string `json:"move"`
		Shout string `json:"shout"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Move != "up" {
		t.Fatalf("move=%q want=up", resp.Move)
	}
	if !strings.Contains(resp.Shout, "(5,7)") {
		t.Fatalf("shout=%q", resp.Shout)
	}
}

func TestStartAndEnd_Acknowledge(t *testing.T) {
	h := newTestServer(Options{}).Handler()
	for _, path := range []string{"/start", "/end"} {
		rec := do(t, h, http.MethodPost, path, turnBody(500))
		if rec.Code != http.StatusOK {
			t.Fatalf("%s status=%d body=%s", path, rec.Code, rec.Body.String())
		}
	}
}

func TestStart_LogsRulesetSettings(t *testing.T) {
	var buf bytes.Buffer
	h := newTestServer(Options{Logger: slog.New(slog.NewJSONHandler(&buf, nil))}).Handler()

	body := strings.Replace(turnBody(500), `"settings": {}`,
		`"settings": {"foodSpawnChance": 15, "hazardDamagePerTurn": 14, "royale": {"shrinkEveryNTurns": 25}, "squad": {"allowBodyCollisions": true}}`, 1)
	if rec := do(t, h, http.MethodPost, "/start", body); rec.Code != http.StatusOK {
		t.Fatalf("status=%d body=%s", rec.Code, rec.Body.String())
	}

	var entry struct {
		Msg      string         `json:"msg"`
		Settings map[string]any `json:"settings"`
	}
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("log line %q: %v", buf.String(), err)
	}
	t.Logf("%s", buf.String())
	want := map[string]any{
		"foodSpawnChance":           15.0,
		"hazardDamagePerTurn":       14.0,
		"royale.shrinkEveryNTurns":  25.0,
		"squad.allowBodyCollisions": true,
	}
	if entry.Msg != "game started" || len(entry.Settings) != len(want) {
		t.Fatalf("entry=%+v", entry)
	}
	for k, v := range want {
		if entry.Settings[k] != v {
			t.Fatalf("settings[%s]=%v want=%v", k, entry.Settings[k], v)
		}
	}
}

func TestGameRoutes_RejectBadRequests(t *testing.T) {
	h := newTestServer(Options{}).Handler()
	for _, path := range []string{"/start", "/move", "/end"} {
		if rec := do(t, h, http.MethodGet, path, ""); rec.Code != http.StatusMethodNotAllowed {
			t.Fatalf("%s GET status=%d want 405", path, rec.Code)
		}
		if rec := do(t, h, http.MethodPost, path, `{"turn":1}`); rec.Code != http.StatusBadRequest {
			t.Fatalf("%s bad body status=%d want 400", path, rec.Code)
		}
	}
}

func TestMove_DeadlineAnswersFallback(t *testing.T) {
	s := newTestServer(Options{LatencyBuffer: 10 * time.Second})
	release := make(chan struct{})
	defer close(release)
	s.decide = func(b *game.Board, cfg agent.Config) agent.Decision {
		<-release
		return agent.Decision{Move: game.Left}
	}

	start := time.Now()
	rec := do(t, s.Handler(), http.MethodPost, "/move", turnBody(100))
	if took := time.Since(start); took > 2*time.Second {
		t.Fatalf("handler took %s", took)
	}
	if !strings.Contains(rec.Body.String(), `"move":"up"`) {
		t.Fatalf("body=%s want fallback up", rec.Body.String())
	}
}

func TestComputeBudget(t *testing.T) {
	s := newTestServer(Options{MoveTimeout: 400 * time.Millisecond, LatencyBuffer: 150 * time.Millisecond})
	if got := s.computeBudget(0); got != 250*time.Millisecond {
		t.Fatalf("default budget=%s", got)
	}
	if got := s.computeBudget(1000); got != 850*time.Millisecond {
		t.Fatalf("engine budget=%s", got)
	}
	if got := s.computeBudget(100); got != minComputeTime {
		t.Fatalf("floored budget=%s", got)
	}
}

func TestMove_ConcurrentRequests(t *testing.T) {
	h := newTestServer(Options{}).Handler()
	var wg sync.WaitGroup
	errs := make(chan string, 32)
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			rec := do(t, h, http.MethodPost, "/move", turnBody(500))
			if !strings.Contains(rec.Body.String(), `"move":"up"`) {
				errs <- rec.Body.String()
			}
		}()
	}
	wg.Wait()
	close(errs)
	for e := range errs {
		t.Fatalf("unexpected body %s", e)
	}
}

func TestGzip_CompressesLargeResponsesWhenAsked(t *testing.T) {
	info := api.DefaultInfo()
	info.Author = strings.Repeat("a", 4096)
	h := newTestServer(Options{Gzip: true, Info: info}).Handler()

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Accept-Encoding", "gzip")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Header().Get("Content-Encoding") != "gzip" {
		t.Fatalf("content-encoding=%q", rec.Header().Get("Content-Encoding"))
	}
	zr, err := gzip.NewReader(rec.Body)
	if err != nil {
		t.Fatalf("gzip reader: %v", err)
	}
	var got api.InfoResponse
	if err := json.NewDecoder(zr).Decode(&got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.Author != info.Author {
		t.Fatalf("author len=%d", len(got.Author))
	}
}

func TestHealthz(t *testing.T) {
	rec := do(t, newTestServer(Options{}).Handler(), http.MethodGet, "/healthz", "")
	if rec.Code != http.StatusOK || rec.Body.String() != "ok" {
		t.Fatalf("status=%d body=%q", rec.Code, rec.Body.String())
	}
}
