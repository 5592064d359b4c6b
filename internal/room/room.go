// Package room implements the multiplayer lobby/session container and its
// registry. The registry is the sole writer of room state; every accessor
// returns a detached snapshot so broadcast payloads can never observe a
// half-updated room.
package room

import (
	"time"

	"github.com/mimirquiz/mimir/internal/game"
)

// Player is a lobby membership record, keyed by the connection id of the
// socket that joined.
type Player struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	IsHost  bool   `json:"isHost"`
	IsReady bool   `json:"isReady"`
}

// Quiz is the quiz payload a member loads into the room before the game
// starts.
type Quiz struct {
	ID        int64           `json:"id"`
	Title     string          `json:"title"`
	League    string          `json:"league,omitempty"`
	Topic     string          `json:"topic,omitempty"`
	Questions []game.Question `json:"questions"`
}

// GameInfo is the shared game progress inside a room. Scores are keyed by
// player name.
type GameInfo struct {
	Quiz                 *Quiz          `json:"quiz"`
	IsStarted            bool           `json:"isStarted"`
	CurrentQuestionIndex int            `json:"currentQuestionIndex"`
	Scores               map[string]int `json:"scores"`
}

type Room struct {
	Code       string    `json:"code"`
	HostID     string    `json:"host"`
	Players    []Player  `json:"players"`
	Game       GameInfo  `json:"gameState"`
	MaxPlayers int       `json:"maxPlayers"`
	CreatedAt  time.Time `json:"createdAt"`
}

// snapshot deep-copies the mutable parts of a room. The quiz pointer is
// shared: a loaded quiz is replaced wholesale, never edited in place.
func (r *Room) snapshot() Room {
	out := *r
	out.Players = make([]Player, len(r.Players))
	copy(out.Players, r.Players)
	out.Game.Scores = make(map[string]int, len(r.Game.Scores))
	for name, pts := range r.Game.Scores {
		out.Game.Scores[name] = pts
	}
	return out
}

func (r *Room) playerByID(id string) *Player {
	for i := range r.Players {
		if r.Players[i].ID == id {
			return &r.Players[i]
		}
	}
	return nil
}
