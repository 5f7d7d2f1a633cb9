package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/gorilla/websocket"
	"golang.org/x/sync/errgroup"

	"github.com/derekprior/kickoff/internal/config"
	"github.com/derekprior/kickoff/internal/store"
	"github.com/derekprior/kickoff/internal/strategy"
)

const shutdownTimeout = 15 * time.Second

// Server exposes a tournament store over HTTP and pushes fixture changes to
// websocket clients.
type Server struct {
	cfg      *config.Config
	store    store.Store
	strategy strategy.Strategy
	logger   *slog.Logger
	hub      *Hub
	upgrader websocket.Upgrader

	// PollInterval is used for stores that cannot push changes.
	PollInterval time.Duration

	// bracketMu and rosterMu serialize read-modify-write cycles on
	// knockout brackets and group rosters.
	bracketMu sync.Mutex
	rosterMu  sync.Mutex

	watchMu  sync.Mutex
	watchers map[string]context.CancelFunc
}

func New(cfg *config.Config, st store.Store, logger *slog.Logger) (*Server, error) {
	strat, err := strategy.Get(cfg.Strategy)
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}

	s := &Server{
		cfg:          cfg,
		store:        st,
		strategy:     strat,
		logger:       logger,
		hub:          NewHub(logger),
		PollInterval: store.DefaultPollInterval,
		watchers:     make(map[string]context.CancelFunc),
	}
	s.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     s.checkOrigin,
	}
	s.hub.onOpen = s.startWatch
	s.hub.onClose = s.stopWatch
	return s, nil
}

func (s *Server) allowedOrigins() []string {
	if len(s.cfg.Server.CORSOrigins) == 0 {
		return []string{"*"}
	}
	return s.cfg.Server.CORSOrigins
}

func (s *Server) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	for _, allowed := range s.allowedOrigins() {
		if allowed == "*" || allowed == origin {
			return true
		}
	}
	return false
}

// Handler returns the HTTP routes.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: s.allowedOrigins(),
		AllowedMethods: []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-ID"},
		MaxAge:         300,
	}))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		s.writeJSON(w, http.StatusOK, jsonResponse{"status": "ok"})
	})

	r.Route("/api/tournaments/{id}", func(r chi.Router) {
		r.Use(middleware.Timeout(30 * time.Second))

		r.Delete("/", s.handleReset)
		r.Get("/groups", s.handleListGroups)
		r.Post("/groups/{groupID}/teams", s.handleAddTeam)
		r.Delete("/groups/{groupID}/teams/{team}", s.handleRemoveTeam)

		r.Get("/fixtures", s.handleListFixtures)
		r.Post("/fixtures/generate", s.handleGenerateFixtures)
		r.Post("/teams/rename", s.handleRenameTeam)

		r.Get("/results", s.handleListResults)
		r.Post("/results", s.handleRecordResult)
		r.Get("/standings", s.handleStandings)

		r.Get("/bracket", s.handleGetBracket)
		r.Post("/bracket/seed", s.handleSeedBracket)
		r.Post("/bracket/{matchID}/score", s.handleScoreMatch)

		r.Get("/share", s.handleShareAll)
		r.Get("/share/{matchday}", s.handleShareMatchday)
	})

	r.Get("/ws/tournaments/{id}", s.serveWs)
	return r
}

// Run serves HTTP on the configured address until ctx is done, then shuts
// down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:         s.cfg.Server.Addr,
		Handler:      s.Handler(),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
		ErrorLog:     slog.NewLogLogger(s.logger.Handler(), slog.LevelError),
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		s.hub.Run(gctx)
		return nil
	})
	g.Go(func() error {
		s.logger.Info("starting server", "address", srv.Addr, "tournament", s.cfg.Tournament.ID)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		s.logger.Info("shutting down server", "timeout", shutdownTimeout)
		if err := srv.Shutdown(shutdownCtx); err != nil {
			s.logger.Error("graceful shutdown failed", "error", err)
			return srv.Close()
		}
		return nil
	})
	return g.Wait()
}

// startWatch streams fixture changes for a tournament into its room while
// the room has clients.
func (s *Server) startWatch(ctx context.Context, room string) {
	ctx, cancel := context.WithCancel(ctx)
	ch, err := store.Watch(ctx, s.store, room, s.PollInterval)
	if err != nil {
		cancel()
		s.logger.Error("watching fixtures", "tournament", room, "error", err)
		return
	}

	s.watchMu.Lock()
	s.watchers[room] = cancel
	s.watchMu.Unlock()

	go func() {
		for fixtures := range ch {
			s.hub.BroadcastToRoom(room, Message{Type: MsgFixturesUpdated, Payload: fixtures})
		}
	}()
}

func (s *Server) stopWatch(room string) {
	s.watchMu.Lock()
	cancel, ok := s.watchers[room]
	delete(s.watchers, room)
	s.watchMu.Unlock()
	if ok {
		cancel()
	}
}

func (s *Server) serveWs(w http.ResponseWriter, r *http.Request) {
	room := chi.URLParam(r, "id")
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("websocket upgrade", "tournament", room, "error", err)
		return
	}

	client := &Client{hub: s.hub, conn: conn, send: make(chan []byte, sendBuffer), room: room}
	if !s.hub.Join(client) {
		conn.Close()
		return
	}
	go client.writePump()
	go client.readPump()
}
