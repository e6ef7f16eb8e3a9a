// Package server exposes the move engine over the Battlesnake webhook API.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/klauspost/compress/gzhttp"

	"github.com/dvalinn/snek/agent"
	"github.com/dvalinn/snek/api"
	"github.com/dvalinn/snek/game"
)

// minComputeTime is the smallest budget handed to the engine, however tight
// the engine's timeout is.
const minComputeTime = 50 * time.Millisecond

type Options struct {
	Info          api.InfoResponse
	Agent         agent.Config
	MoveTimeout   time.Duration
	LatencyBuffer time.Duration
	Gzip          bool
	Logger        *slog.Logger
}

// Server holds the immutable agent settings. It is safe for concurrent use.
type Server struct {
	info          api.InfoResponse
	agent         agent.Config
	moveTimeout   time.Duration
	latencyBuffer time.Duration
	gzip          bool
	log           *slog.Logger

	// decide is swapped in tests to simulate a slow engine.
	decide func(*game.Board, agent.Config) agent.Decision
}

func New(opts Options) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	timeout := opts.MoveTimeout
	if timeout <= 0 {
		timeout = 500 * time.Millisecond
	}
	return &Server{
		info:          opts.Info,
		agent:         opts.Agent,
		moveTimeout:   timeout,
		latencyBuffer: opts.LatencyBuffer,
		gzip:          opts.Gzip,
		log:           logger,
		decide:        agent.Decide,
	}
}

// Handler returns the routed handler.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/", s.handleIndex)
	mux.HandleFunc("/start", s.post(s.handleStart))
	mux.HandleFunc("/move", s.post(s.handleMove))
	mux.HandleFunc("/end", s.post(s.handleEnd))
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})

	var h http.Handler = mux
	if s.gzip {
		h = gzhttp.GzipHandler(h)
	}
	return h
}

type gameHandler func(w http.ResponseWriter, r *http.Request, req *api.GameRequest, log *slog.Logger)

// post enforces POST, parses the body and tags the logger for the request.
func (s *Server) post(next gameHandler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			w.Header().Set("Allow", http.MethodPost)
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		log := s.log.With("request_id", uuid.NewString(), "path", r.URL.Path)

		req, err := api.ParseGameRequest(r.Body)
		if err != nil {
			log.Warn("rejected request", "err", err)
			status := http.StatusBadRequest
			if !errors.Is(err, api.ErrInvalidPayload) {
				status = http.StatusInternalServerError
			}
			http.Error(w, err.Error(), status)
			return
		}
		next(w, r, req, log.With("game_id", req.Game.ID, "turn", req.Turn))
	}
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	writeJSON(w, s.info)
}

func (s *Server) handleStart(w http.ResponseWriter, r *http.Request, req *api.GameRequest, log *slog.Logger) {
	log.Info("game started",
		"ruleset", req.Game.Ruleset.Name,
		"map", req.Game.Map,
		"timeout_ms", req.Game.Timeout,
		"snakes", len(req.Board.Snakes),
		"you", req.You.Name,
		slog.Group("settings", settingsAttrs(req.Game.Ruleset.Settings)...),
	)
	w.WriteHeader(http.StatusOK)
}

// settingsAttrs picks the ruleset knobs worth logging. Keys the engine did
// not send are left out.
func settingsAttrs(s api.Settings) []any {
	var attrs []any
	for _, key := range []string{"foodSpawnChance", "minimumFood", "hazardDamagePerTurn"} {
		if v, ok := s.Int(key); ok {
			attrs = append(attrs, key, v)
		}
	}
	if v, ok := s.Group("royale").Int("shrinkEveryNTurns"); ok {
		attrs = append(attrs, "royale.shrinkEveryNTurns", v)
	}
	if v, ok := s.Group("squad").Bool("allowBodyCollisions"); ok {
		attrs = append(attrs, "squad.allowBodyCollisions", v)
	}
	return attrs
}

func (s *Server) handleMove(w http.ResponseWriter, r *http.Request, req *api.GameRequest, log *slog.Logger) {
	startTime := time.Now()

	ctx, cancel := context.WithTimeout(r.Context(), s.computeBudget(req.Game.Timeout))
	defer cancel()

	d, timedOut := s.decideWithin(ctx, req.ToBoard())
	if timedOut {
		log.Warn("move deadline hit, answering fallback", "budget", s.computeBudget(req.Game.Timeout))
	}

	log.Info("move",
		"move", d.Move,
		"reason", d.Reason,
		"head", req.You.Head(),
		"health", req.You.Health,
		"took", time.Since(startTime),
	)
	writeJSON(w, api.NewMoveResponse(d))
}

func (s *Server) handleEnd(w http.ResponseWriter, r *http.Request, req *api.GameRequest, log *slog.Logger) {
	log.Info("game ended", "result", req.Outcome())
	w.WriteHeader(http.StatusOK)
}

// computeBudget is the turn timeout less the latency buffer, floored at
// minComputeTime.
func (s *Server) computeBudget(timeoutMs int) time.Duration {
	timeout := s.moveTimeout
	if timeoutMs > 0 {
		timeout = time.Duration(timeoutMs) * time.Millisecond
	}
	budget := timeout - s.latencyBuffer
	if budget < minComputeTime {
		budget = minComputeTime
	}
	return budget
}

// decideWithin runs the engine and answers Up if ctx expires first.
func (s *Server) decideWithin(ctx context.Context, b *game.Board) (agent.Decision, bool) {
	done := make(chan agent.Decision, 1)
	go func() {
		done <- s.decide(b, s.agent)
	}()
	select {
	case d := <-done:
		return d, false
	case <-ctx.Done():
		return agent.Decision{Move: game.Up, Shout: "out of time", Reason: agent.ReasonTimeout}, true
	}
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

// ListenAndServe serves until ctx is cancelled, then drains in-flight turns.
func (s *Server) ListenAndServe(ctx context.Context, addr string, readHeaderTimeout time.Duration) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: readHeaderTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
