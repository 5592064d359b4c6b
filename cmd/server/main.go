package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	zerologlog "github.com/rs/zerolog/log"

	"github.com/mimirquiz/mimir/internal/config"
	"github.com/mimirquiz/mimir/internal/game"
	"github.com/mimirquiz/mimir/internal/httpapi"
	"github.com/mimirquiz/mimir/internal/room"
	"github.com/mimirquiz/mimir/internal/speech"
	"github.com/mimirquiz/mimir/internal/speech/google"
	"github.com/mimirquiz/mimir/internal/store"
	"github.com/mimirquiz/mimir/internal/ws"
)

const version = "v1.2.0"

func main() {
	var (
		showHelp    = flag.Bool("help", false, "Show help message")
		showVersion = flag.Bool("version", false, "Show version information")
		portFlag    = flag.String("port", "", "Port to listen on (overrides PORT env var)")
	)
	flag.BoolVar(showHelp, "h", false, "Show help message (shorthand)")
	flag.BoolVar(showVersion, "v", false, "Show version information (shorthand)")
	flag.Parse()

	if *showHelp {
		fmt.Printf(`MIMIR - Voice-driven quiz server

Usage: %s [options]

Options:
  -h, --help      Show this help message
  -v, --version   Show version information
  --port PORT     Port to listen on (default: 8080 or PORT env var)

Environment Variables:
  PORT              Port to listen on (default: 8080)
  DATABASE_URL      Postgres connection string (in-memory store when unset)
  ALLOWED_ORIGINS   Comma-separated CORS origins
  TTS_API_KEY       Text-to-speech API key (TTS routes disabled when unset)
  TTS_BASE_URL      Custom text-to-speech API base URL (optional)
  MAX_PLAYERS       Room capacity (default: 4)
  SCORING_MODE      "tiered" (3/2 points) or "flat" (1 point) (default: tiered)
  PASS_POLICY       "attempt" (a pass burns the slot) or "lenient" (default: attempt)

Examples:
  %s                  Start server with default settings
  %s --port 3001      Start server on port 3001
`, os.Args[0], os.Args[0], os.Args[0])
		return
	}

	if *showVersion {
		fmt.Printf("MIMIR %s\n", version)
		return
	}

	cfg := config.FromEnv()
	port := *portFlag
	if port == "" {
		port = cfg.Port
	}

	// zerolog setup (human-friendly console)
	zerolog.TimeFieldFormat = time.RFC3339
	cw := zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}
	zerologlog.Logger = zerologlog.Output(cw)

	// Gin setup with custom logger (skip /socket.io noise)
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(func(c *gin.Context) {
		start := time.Now()
		c.Next()
		path := c.Request.URL.Path
		if strings.HasPrefix(path, "/socket.io") {
			return
		}
		status := c.Writer.Status()
		dur := time.Since(start)
		zerologlog.Info().Str("path", path).Int("status", status).Dur("dur", dur).Msg("http")
	})

	// Persistence collaborator
	var st store.Store
	if cfg.DatabaseURL != "" {
		pg, err := store.NewPostgres(context.Background(), cfg.DatabaseURL)
		if err != nil {
			zerologlog.Fatal().Err(err).Msg("failed to connect to database")
		}
		st = pg
		zerologlog.Info().Msg("using postgres store")
	} else {
		st = store.NewMemory()
		zerologlog.Warn().Msg("DATABASE_URL not set, using in-memory store")
	}
	defer st.Close()

	rules := game.DefaultRules()
	if cfg.ScoringMode == "flat" {
		rules = game.FlatRules()
	}
	rules.PassConsumesAttempt = cfg.PassPolicy != "lenient"

	sessions := game.NewSessionManager(rules)
	registry := room.NewRegistry(cfg.MaxPlayers)

	// Socket server
	sock := ws.New(registry, cfg)
	io := sock.Mount(r)
	defer io.Close()

	// TTS collaborator
	var tts speech.Synthesizer
	if cfg.TTSAPIKey != "" {
		tts = google.New(cfg.TTSAPIKey, cfg.TTSBaseURL)
	}

	// REST API
	httpapi.New(st, sessions, tts).Register(r)

	// Healthcheck
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":    "ok",
			"service":   "MIMIR Quiz Server",
			"rooms":     registry.Count(),
			"timestamp": time.Now().UTC(),
		})
	})

	srv := &http.Server{Addr: ":" + port, Handler: r}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		zerologlog.Info().Str("port", port).Msg("listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zerologlog.Fatal().Err(err).Msg("server error")
		}
	}()

	<-ctx.Done()
	zerologlog.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		zerologlog.Error().Err(err).Msg("shutdown error")
	}
}
