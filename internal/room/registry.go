package room

import (
	"errors"
	"math/rand"
	"sync"
	"time"
)

// Sentinel errors carry the exact messages the socket protocol exposes in
// ack payloads.
var (
	ErrRoomNotFound   = errors.New("Room not found")
	ErrRoomFull       = errors.New("Room is full")
	ErrGameStarted    = errors.New("Game already started")
	ErrQuizNotLoaded  = errors.New("No quiz loaded")
	ErrEmptyQuiz      = errors.New("Quiz has no questions")
	ErrPlayerNotFound = errors.New("Player not in room")
)

const (
	DefaultMaxPlayers = 4
	codeLength        = 6
	codeAlphabet      = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
)

// Registry maps room codes to rooms. It is constructed at server start and
// injected into the socket layer; all mutation runs under its lock and every
// method hands back a detached snapshot, so a mutation is never observable
// half-done.
type Registry struct {
	mu         sync.Mutex
	rooms      map[string]*Room
	maxPlayers int
}

func NewRegistry(maxPlayers int) *Registry {
	if maxPlayers <= 0 {
		maxPlayers = DefaultMaxPlayers
	}
	return &Registry{
		rooms:      make(map[string]*Room),
		maxPlayers: maxPlayers,
	}
}

// Create opens a new room with the creator as host.
func (reg *Registry) Create(connID, playerName string) Room {
	reg.mu.Lock()
	defer reg.mu.Unlock()

	code := randomCode(codeLength)
	for reg.rooms[code] != nil {
		code = randomCode(codeLength)
	}

	r := &Room{
		Code:   code,
		HostID: connID,
		Players: []Player{
			{ID: connID, Name: playerName, IsHost: true},
		},
		Game: GameInfo{
			Scores: make(map[string]int),
		},
		MaxPlayers: reg.maxPlayers,
		CreatedAt:  time.Now().UTC(),
	}
	reg.rooms[code] = r
	return r.snapshot()
}

// Join appends a player to an existing room. It fails with a typed error if
// the room is missing, full, or already playing.
func (reg *Registry) Join(code, connID, playerName string) (Room, error) {
	reg.mu.Lock()
	defer reg.mu.Unlock()

	r := reg.rooms[code]
	if r == nil {
		return Room{}, ErrRoomNotFound
	}
	if len(r.Players) >= r.MaxPlayers {
		return Room{}, ErrRoomFull
	}
	if r.Game.IsStarted {
		return Room{}, ErrGameStarted
	}

	r.Players = append(r.Players, Player{ID: connID, Name: playerName})
	return r.snapshot(), nil
}

// Get returns a snapshot of the room.
func (reg *Registry) Get(code string) (Room, error) {
	reg.mu.Lock()
	defer reg.mu.Unlock()

	r := reg.rooms[code]
	if r == nil {
		return Room{}, ErrRoomNotFound
	}
	return r.snapshot(), nil
}

// ToggleReady flips the ready flag of the given member.
func (reg *Registry) ToggleReady(code, connID string) (Room, error) {
	reg.mu.Lock()
	defer reg.mu.Unlock()

	r := reg.rooms[code]
	if r == nil {
		return Room{}, ErrRoomNotFound
	}
	p := r.playerByID(connID)
	if p == nil {
		return Room{}, ErrPlayerNotFound
	}
	p.IsReady = !p.IsReady
	return r.snapshot(), nil
}

// LoadQuiz attaches a quiz to the room. Any member may load; the lobby is
// cooperative and carries no host privilege checks.
func (reg *Registry) LoadQuiz(code string, quiz Quiz) (Room, error) {
	reg.mu.Lock()
	defer reg.mu.Unlock()

	r := reg.rooms[code]
	if r == nil {
		return Room{}, ErrRoomNotFound
	}
	if len(quiz.Questions) == 0 {
		return Room{}, ErrEmptyQuiz
	}
	r.Game.Quiz = &quiz
	return r.snapshot(), nil
}

// Start begins the game: question zero, per-player score entries at zero,
// keyed by player name.
func (reg *Registry) Start(code string) (Room, error) {
	reg.mu.Lock()
	defer reg.mu.Unlock()

	r := reg.rooms[code]
	if r == nil {
		return Room{}, ErrRoomNotFound
	}
	if r.Game.Quiz == nil {
		return Room{}, ErrQuizNotLoaded
	}

	r.Game.IsStarted = true
	r.Game.CurrentQuestionIndex = 0
	r.Game.Scores = make(map[string]int, len(r.Players))
	for _, p := range r.Players {
		r.Game.Scores[p.Name] = 0
	}
	return r.snapshot(), nil
}

// NextQuestion advances the shared question index and returns the new value.
func (reg *Registry) NextQuestion(code string) (Room, int, error) {
	reg.mu.Lock()
	defer reg.mu.Unlock()

	r := reg.rooms[code]
	if r == nil {
		return Room{}, 0, ErrRoomNotFound
	}
	r.Game.CurrentQuestionIndex++
	return r.snapshot(), r.Game.CurrentQuestionIndex, nil
}

// RecordAnswer applies points for a member's answer. The returned flag says
// whether the score table changed.
func (reg *Registry) RecordAnswer(code, connID string, isCorrect bool, points int) (Room, Player, bool, error) {
	reg.mu.Lock()
	defer reg.mu.Unlock()

	r := reg.rooms[code]
	if r == nil {
		return Room{}, Player{}, false, ErrRoomNotFound
	}
	p := r.playerByID(connID)
	if p == nil {
		return Room{}, Player{}, false, ErrPlayerNotFound
	}

	scored := isCorrect && points > 0
	if scored {
		r.Game.Scores[p.Name] += points
	}
	return r.snapshot(), *p, scored, nil
}

// Leave removes a player, deleting the room when it empties. If the host
// leaves a non-empty room, the first remaining member is promoted.
func (reg *Registry) Leave(code, connID string) (Room, Player, bool, error) {
	reg.mu.Lock()
	defer reg.mu.Unlock()

	r := reg.rooms[code]
	if r == nil {
		return Room{}, Player{}, false, ErrRoomNotFound
	}

	var departed Player
	found := false
	remaining := r.Players[:0]
	for _, p := range r.Players {
		if p.ID == connID {
			departed = p
			found = true
			continue
		}
		remaining = append(remaining, p)
	}
	if !found {
		return Room{}, Player{}, false, ErrPlayerNotFound
	}
	r.Players = remaining

	if len(r.Players) == 0 {
		delete(reg.rooms, code)
		return Room{}, departed, true, nil
	}

	if r.HostID == connID {
		r.HostID = r.Players[0].ID
		r.Players[0].IsHost = true
	}
	return r.snapshot(), departed, false, nil
}

// Count reports the number of active rooms.
func (reg *Registry) Count() int {
	reg.mu.Lock()
	defer reg.mu.Unlock()
	return len(reg.rooms)
}

func randomCode(n int) string {
	b := make([]byte, n)
	for i := range b {
		b[i] = codeAlphabet[rand.Intn(len(codeAlphabet))]
	}
	return string(b)
}
