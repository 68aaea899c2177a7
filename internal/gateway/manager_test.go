package gateway

import (
	"testing"
)

func TestUnregisterLeavesSendOpen(t *testing.T) {
	core := &fakeCore{}
	m := NewManager(DefaultConnectionConfig())
	m.Bind(core)

	conn := &Connection{ID: "c1", Participant: 7, Send: make(chan []byte, 1), Manager: m}
	m.register(conn)
	m.unregister(conn)

	// The broadcast goroutine can hold a snapshot taken before the
	// unregister: a late send to the departed connection must not panic.
	conn.Send <- []byte("late broadcast")

	if m.ConnectionCount() != 0 {
		t.Fatalf("connections = %d; want 0", m.ConnectionCount())
	}
	if len(core.ids) != 1 || core.ids[0] != 7 {
		t.Fatalf("disconnect calls = %v; want [7]", core.ids)
	}
}

func TestUnregisterTwiceIsNoOp(t *testing.T) {
	core := &fakeCore{}
	m := NewManager(DefaultConnectionConfig())
	m.Bind(core)

	conn := &Connection{ID: "c1", Participant: 7, Send: make(chan []byte, 1), Manager: m}
	m.register(conn)
	m.unregister(conn)
	m.unregister(conn)

	if len(core.ids) != 1 {
		t.Fatalf("disconnect calls = %v; want exactly one", core.ids)
	}
}
