package gateway

import (
	"testing"

	"github.com/skyfall-games/skyfall/internal/events"
	"github.com/skyfall-games/skyfall/internal/models"
)

type fakeCore struct {
	calls []string
	ids   []models.ParticipantID
}

func (f *fakeCore) Connect() models.ParticipantID { f.calls = append(f.calls, "connect"); return 1 }
func (f *fakeCore) Disconnect(id models.ParticipantID) {
	f.calls = append(f.calls, "disconnect")
	f.ids = append(f.ids, id)
}
func (f *fakeCore) RequestCharacter(id models.ParticipantID) {
	f.calls = append(f.calls, "request_character")
	f.ids = append(f.ids, id)
}
func (f *fakeCore) SubmitQTEInput(id models.ParticipantID) {
	f.calls = append(f.calls, "qte_input")
	f.ids = append(f.ids, id)
}
func (f *fakeCore) ReportHazardCollision(id models.ParticipantID) {
	f.calls = append(f.calls, "hazard_collision")
	f.ids = append(f.ids, id)
}
func (f *fakeCore) StartCountdown() { f.calls = append(f.calls, "start_countdown") }

func TestDispatchClientMessage(t *testing.T) {
	tests := []struct {
		name      string
		raw       string
		wantCalls []string
	}{
		{"request character", `{"type":"request_character"}`, []string{"request_character"}},
		{"qte input", `{"type":"qte_input"}`, []string{"qte_input"}},
		{"hazard collision", `{"type":"hazard_collision"}`, []string{"hazard_collision"}},
		{"start countdown", `{"type":"start_countdown"}`, []string{"start_countdown"}},
		{"unknown type dropped", `{"type":"cheat_mode"}`, nil},
		{"malformed json dropped", `{"type":`, nil},
		{"empty body dropped", `{}`, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			core := &fakeCore{}
			m := NewManager(DefaultConnectionConfig())
			m.Bind(core)
			conn := &Connection{ID: "test-conn", Participant: 42}

			m.dispatchClientMessage(conn, []byte(tt.raw))

			if len(core.calls) != len(tt.wantCalls) {
				t.Fatalf("calls = %v; want %v", core.calls, tt.wantCalls)
			}
			for i, want := range tt.wantCalls {
				if core.calls[i] != want {
					t.Fatalf("calls = %v; want %v", core.calls, tt.wantCalls)
				}
			}
			for _, id := range core.ids {
				if id != 42 {
					t.Fatalf("participant id = %d; want 42 (identity comes from the connection)", id)
				}
			}
		})
	}
}

func TestDeliverDropsWhenChannelFull(t *testing.T) {
	m := NewManager(DefaultConnectionConfig())
	event := &events.MatchEvent{Type: events.EventTypeCountdownTick}
	for i := 0; i < cap(m.broadcastCh)+10; i++ {
		m.Deliver(event)
	}
	if len(m.broadcastCh) != cap(m.broadcastCh) {
		t.Fatalf("queued = %d; want %d", len(m.broadcastCh), cap(m.broadcastCh))
	}
}
