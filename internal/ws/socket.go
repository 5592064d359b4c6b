// Package ws binds the room registry to the Socket.IO protocol. Inbound
// payloads are typed structs validated before any room mutation; outbound
// broadcasts carry detached room snapshots.
package ws

import (
	"net/http"
	"strings"
	"sync"

	"github.com/gin-gonic/gin"
	socketio "github.com/googollee/go-socket.io"
	"github.com/rs/zerolog/log"

	"github.com/mimirquiz/mimir/internal/config"
	"github.com/mimirquiz/mimir/internal/room"
)

// ConnCtx is the per-connection state: which room a socket sits in and the
// name it joined under.
type ConnCtx struct {
	Code string
	Name string
}

type Server struct {
	reg     *room.Registry
	origins []string

	mu      sync.Mutex
	members map[string]map[string]socketio.Conn // roomCode -> socketID -> Conn
}

func New(reg *room.Registry, cfg config.Config) *Server {
	var origins []string
	for _, o := range strings.Split(cfg.AllowedOrigins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			origins = append(origins, o)
		}
	}
	return &Server{
		reg:     reg,
		origins: origins,
		members: make(map[string]map[string]socketio.Conn),
	}
}

// Mount attaches the Socket.IO server with all room handlers to the given
// Gin engine.
func (srv *Server) Mount(r *gin.Engine) *socketio.Server {
	io := socketio.NewServer(nil)

	io.OnConnect("/", func(s socketio.Conn) error {
		s.SetContext(&ConnCtx{})
		log.Info().Str("sid", s.ID()).Msg("socket connected")
		return nil
	})

	// room:create
	io.OnEvent("/", "room:create", func(s socketio.Conn, payload struct {
		PlayerName string `json:"playerName"`
	}) map[string]any {
		name := strings.TrimSpace(payload.PlayerName)
		if name == "" {
			return ackError("Player name is required")
		}
		rm := srv.reg.Create(s.ID(), name)
		s.SetContext(&ConnCtx{Code: rm.Code, Name: name})
		srv.addMember(rm.Code, s)
		log.Info().Str("sid", s.ID()).Str("code", rm.Code).Str("player", name).Msg("room:create")
		return ackRoom(rm)
	})

	// room:join
	io.OnEvent("/", "room:join", func(s socketio.Conn, payload struct {
		RoomCode   string `json:"roomCode"`
		PlayerName string `json:"playerName"`
	}) map[string]any {
		code := strings.ToUpper(strings.TrimSpace(payload.RoomCode))
		name := strings.TrimSpace(payload.PlayerName)
		if code == "" || name == "" {
			return ackError("Room code and player name are required")
		}
		rm, err := srv.reg.Join(code, s.ID(), name)
		if err != nil {
			return ackError(err.Error())
		}
		s.SetContext(&ConnCtx{Code: code, Name: name})
		srv.addMember(code, s)
		log.Info().Str("sid", s.ID()).Str("code", code).Str("player", name).Msg("room:join")
		srv.broadcastRoom(code, "room:updated", rm)
		return ackRoom(rm)
	})

	// room:get
	io.OnEvent("/", "room:get", func(s socketio.Conn, payload struct {
		RoomCode string `json:"roomCode"`
	}) map[string]any {
		rm, err := srv.reg.Get(strings.ToUpper(strings.TrimSpace(payload.RoomCode)))
		if err != nil {
			return ackError(err.Error())
		}
		return ackRoom(rm)
	})

	// player:ready
	io.OnEvent("/", "player:ready", func(s socketio.Conn) {
		ctx := connCtx(s)
		rm, err := srv.reg.ToggleReady(ctx.Code, s.ID())
		if err != nil {
			return
		}
		srv.broadcastRoom(ctx.Code, "room:updated", rm)
	})

	// quiz:load. Any member may load; the lobby is cooperative.
	io.OnEvent("/", "quiz:load", func(s socketio.Conn, payload struct {
		Quiz room.Quiz `json:"quiz"`
	}) {
		ctx := connCtx(s)
		rm, err := srv.reg.LoadQuiz(ctx.Code, payload.Quiz)
		if err != nil {
			log.Warn().Str("code", ctx.Code).Err(err).Msg("quiz:load rejected")
			return
		}
		log.Info().Str("code", ctx.Code).Str("quiz", payload.Quiz.Title).Msg("quiz:load")
		srv.broadcastRoom(ctx.Code, "quiz:loaded", map[string]any{"quiz": rm.Game.Quiz})
		srv.broadcastRoom(ctx.Code, "room:updated", rm)
	})

	// game:start. Any member may start once a quiz is loaded.
	io.OnEvent("/", "game:start", func(s socketio.Conn) {
		ctx := connCtx(s)
		rm, err := srv.reg.Start(ctx.Code)
		if err != nil {
			log.Warn().Str("code", ctx.Code).Err(err).Msg("game:start rejected")
			return
		}
		log.Info().Str("code", ctx.Code).Msg("game:start")
		srv.broadcastRoom(ctx.Code, "game:started", rm.Game)
		srv.broadcastRoom(ctx.Code, "room:updated", rm)
	})

	// game:nextQuestion
	io.OnEvent("/", "game:nextQuestion", func(s socketio.Conn) {
		ctx := connCtx(s)
		_, index, err := srv.reg.NextQuestion(ctx.Code)
		if err != nil {
			return
		}
		srv.broadcastRoom(ctx.Code, "game:questionChanged", map[string]any{"questionIndex": index})
	})

	// game:submitAnswer
	io.OnEvent("/", "game:submitAnswer", func(s socketio.Conn, payload struct {
		IsCorrect bool   `json:"isCorrect"`
		Answer    string `json:"answer"`
		Points    int    `json:"points"`
	}) {
		ctx := connCtx(s)
		rm, player, scored, err := srv.reg.RecordAnswer(ctx.Code, s.ID(), payload.IsCorrect, payload.Points)
		if err != nil {
			return
		}
		srv.broadcastRoom(ctx.Code, "game:answerSubmitted", map[string]any{
			"playerName": player.Name,
			"isCorrect":  payload.IsCorrect,
			"answer":     payload.Answer,
			"points":     payload.Points,
		})
		if scored {
			srv.broadcastRoom(ctx.Code, "game:scoreUpdated", rm.Game.Scores)
		}
	})

	// game:end
	io.OnEvent("/", "game:end", func(s socketio.Conn) {
		ctx := connCtx(s)
		rm, err := srv.reg.Get(ctx.Code)
		if err != nil {
			return
		}
		log.Info().Str("code", ctx.Code).Msg("game:end")
		srv.broadcastRoom(ctx.Code, "game:ended", map[string]any{
			"scores":  rm.Game.Scores,
			"players": rm.Players,
		})
	})

	io.OnError("/", func(s socketio.Conn, e error) {
		log.Error().Str("sid", s.ID()).Err(e).Msg("socket error")
	})

	io.OnDisconnect("/", func(s socketio.Conn, reason string) {
		ctx := connCtx(s)
		log.Info().Str("sid", s.ID()).Str("reason", reason).Msg("socket disconnected")
		if ctx.Code == "" {
			return
		}
		srv.removeMember(ctx.Code, s)

		rm, departed, deleted, err := srv.reg.Leave(ctx.Code, s.ID())
		if err != nil {
			return
		}
		if deleted {
			log.Info().Str("code", ctx.Code).Msg("room deleted (empty)")
			return
		}
		srv.broadcastRoom(ctx.Code, "room:updated", rm)
		srv.broadcastRoom(ctx.Code, "player:left", map[string]any{"playerName": departed.Name})
	})

	go io.Serve()

	r.GET("/socket.io/*any", gin.WrapH(io))
	r.POST("/socket.io/*any", gin.WrapH(io))

	// CORS preflight for Socket.IO POST. The origin is echoed back only when
	// it sits on the configured allowlist.
	r.OPTIONS("/socket.io/*any", func(c *gin.Context) {
		if origin := srv.allowOrigin(c.GetHeader("Origin")); origin != "" {
			c.Header("Access-Control-Allow-Origin", origin)
		}
		c.Header("Access-Control-Allow-Methods", "GET,POST,OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Content-Type")
		c.Status(http.StatusNoContent)
	})

	return io
}

func (srv *Server) addMember(code string, c socketio.Conn) {
	srv.mu.Lock()
	defer srv.mu.Unlock()
	if srv.members[code] == nil {
		srv.members[code] = make(map[string]socketio.Conn)
	}
	srv.members[code][c.ID()] = c
}

func (srv *Server) removeMember(code string, c socketio.Conn) {
	srv.mu.Lock()
	defer srv.mu.Unlock()
	if m := srv.members[code]; m != nil {
		delete(m, c.ID())
		if len(m) == 0 {
			delete(srv.members, code)
		}
	}
}

// broadcastRoom emits an event to every tracked connection in a room. The
// member list is copied under the lock; emits happen outside it.
func (srv *Server) broadcastRoom(code, event string, payload any) {
	srv.mu.Lock()
	conns := make([]socketio.Conn, 0, len(srv.members[code]))
	for _, c := range srv.members[code] {
		conns = append(conns, c)
	}
	srv.mu.Unlock()

	for _, c := range conns {
		c.Emit(event, payload)
	}
}

// allowOrigin returns the Access-Control-Allow-Origin value for a request
// origin: the origin itself when allowlisted, "*" when the allowlist is
// empty or contains "*", and "" when the origin is not allowed.
func (srv *Server) allowOrigin(origin string) string {
	if len(srv.origins) == 0 {
		return "*"
	}
	for _, o := range srv.origins {
		if o == "*" {
			return "*"
		}
		if strings.EqualFold(o, origin) {
			return origin
		}
	}
	return ""
}

func connCtx(s socketio.Conn) *ConnCtx {
	if ctx, ok := s.Context().(*ConnCtx); ok {
		return ctx
	}
	return &ConnCtx{}
}

func ackRoom(rm room.Room) map[string]any {
	return map[string]any{"success": true, "room": rm}
}

func ackError(message string) map[string]any {
	return map[string]any{"success": false, "error": message}
}
