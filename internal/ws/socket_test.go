package ws

import (
	"testing"

	socketio "github.com/googollee/go-socket.io"

	"github.com/mimirquiz/mimir/internal/config"
	"github.com/mimirquiz/mimir/internal/room"
)

// stubConn records emitted events. The embedded interface covers the
// methods the server never touches.
type stubConn struct {
	socketio.Conn
	id     string
	events []string
}

func (c *stubConn) ID() string { return c.id }

func (c *stubConn) Emit(event string, _ ...interface{}) {
	c.events = append(c.events, event)
}

func TestBroadcastRoomReachesAllMembers(t *testing.T) {
	srv := New(room.NewRegistry(0), config.Config{})
	a := &stubConn{id: "conn-1"}
	b := &stubConn{id: "conn-2"}
	srv.addMember("ABC123", a)
	srv.addMember("ABC123", b)
	srv.addMember("ZZZ999", &stubConn{id: "conn-3"})

	srv.broadcastRoom("ABC123", "room:updated", nil)

	if len(a.events) != 1 || a.events[0] != "room:updated" {
		t.Fatalf("expected one room:updated for conn-1, got %v", a.events)
	}
	if len(b.events) != 1 {
		t.Fatalf("expected one event for conn-2, got %v", b.events)
	}
}

func TestBroadcastSkipsOtherRooms(t *testing.T) {
	srv := New(room.NewRegistry(0), config.Config{})
	other := &stubConn{id: "conn-9"}
	srv.addMember("ZZZ999", other)

	srv.broadcastRoom("ABC123", "room:updated", nil)

	if len(other.events) != 0 {
		t.Fatalf("connection outside the room received %v", other.events)
	}
}

func TestRemovedMemberStopsReceiving(t *testing.T) {
	srv := New(room.NewRegistry(0), config.Config{})
	a := &stubConn{id: "conn-1"}
	b := &stubConn{id: "conn-2"}
	srv.addMember("ABC123", a)
	srv.addMember("ABC123", b)

	srv.removeMember("ABC123", a)
	srv.broadcastRoom("ABC123", "player:left", nil)

	if len(a.events) != 0 {
		t.Fatalf("removed connection received %v", a.events)
	}
	if len(b.events) != 1 {
		t.Fatalf("remaining connection should receive the event, got %v", b.events)
	}
}

func TestAllowOrigin(t *testing.T) {
	cases := []struct {
		name    string
		allowed string
		origin  string
		want    string
	}{
		{"empty allowlist falls back to wildcard", "", "http://example.com", "*"},
		{"wildcard entry", "*", "http://example.com", "*"},
		{"allowlisted origin echoed", "http://localhost:3000,http://quiz.example.com", "http://quiz.example.com", "http://quiz.example.com"},
		{"case-insensitive match", "http://Quiz.Example.com", "http://quiz.example.com", "http://quiz.example.com"},
		{"unknown origin denied", "http://localhost:3000", "http://evil.example.com", ""},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			srv := New(room.NewRegistry(0), config.Config{AllowedOrigins: c.allowed})
			if got := srv.allowOrigin(c.origin); got != c.want {
				t.Fatalf("allowOrigin(%q) with allowlist %q = %q, want %q", c.origin, c.allowed, got, c.want)
			}
		})
	}
}
