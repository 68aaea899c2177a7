package session

import (
	"context"
	"math/rand"
	"sync"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/skyfall-games/skyfall/internal/events"
	"github.com/skyfall-games/skyfall/internal/match"
	"github.com/skyfall-games/skyfall/internal/models"
)

var t0 = time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)

// safeSink records emitted events; the session loop writes while the test
// polls, so it locks.
type safeSink struct {
	mu     sync.Mutex
	events []*events.MatchEvent
}

func (s *safeSink) Deliver(event *events.MatchEvent) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, event)
}

func (s *safeSink) count(eventType events.EventType) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, e := range s.events {
		if e.Type == eventType {
			n++
		}
	}
	return n
}

func (s *safeSink) lastResolved() *events.QTEResolvedPayload {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := len(s.events) - 1; i >= 0; i-- {
		if s.events[i].Type == events.EventTypeQTEResolved {
			payload, err := events.ParseEventPayload(s.events[i])
			if err != nil {
				return nil
			}
			return payload.(*events.QTEResolvedPayload)
		}
	}
	return nil
}

type fakeRecorder struct {
	mu     sync.Mutex
	result *models.MatchResult
}

func (f *fakeRecorder) RecordResult(ctx context.Context, result models.MatchResult) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.result = &result
	return nil
}

func (f *fakeRecorder) recorded() *models.MatchResult {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.result
}

func testConfig() match.Config {
	cfg := match.DefaultConfig()
	cfg.TotalRounds = 1
	cfg.MatchDuration = 3 * time.Second
	cfg.HazardStartDelay = time.Hour
	cfg.QTEInputWindow = 1 * time.Second
	cfg.QTECadence = 1 * time.Second
	cfg.CountdownSeconds = 1
	cfg.MinParticipants = 2
	cfg.WaitingGrace = 1 * time.Second
	return cfg
}

// waitFor polls cond until it holds or the real-time deadline expires. The
// fake clock keeps simulated time still; this only waits for the loop
// goroutine to drain its queue.
func waitFor(t *testing.T, cond func() bool, msg string) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", msg)
}

// advance steps the fake clock one tick interval at a time so the loop
// observes every deadline in order.
func advance(clock *clockwork.FakeClock, d, step time.Duration) {
	for elapsed := time.Duration(0); elapsed < d; elapsed += step {
		clock.Advance(step)
		time.Sleep(time.Millisecond)
	}
}

func TestSessionRunsMatchToCompletion(t *testing.T) {
	clock := clockwork.NewFakeClockAt(t0)
	sink := &safeSink{}
	recorder := &fakeRecorder{}
	tick := 100 * time.Millisecond

	s, err := NewSession(testConfig(), clock, rand.New(rand.NewSource(1)),
		Options{TickInterval: tick, Recorder: recorder}, sink)
	if err != nil {
		t.Fatalf("NewSession: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()

	// Two participants join from "network" goroutines.
	p1 := s.Connect()
	p2 := s.Connect()
	if p1 == p2 {
		t.Fatalf("participant ids collide: %d", p1)
	}
	waitFor(t, func() bool { return len(s.State().Participants) == 2 }, "participants to join")

	// Character assignment is idempotent.
	s.RequestCharacter(p1)
	s.RequestCharacter(p1)
	s.RequestCharacter(p2)
	waitFor(t, func() bool {
		snap := s.State()
		for _, p := range snap.Participants {
			if p.Character == models.CharacterNone {
				return false
			}
		}
		return true
	}, "characters to be assigned")
	if got := sink.count(events.EventTypeCharacterAssigned); got != 3 {
		t.Fatalf("CharacterAssigned broadcasts = %d; want 3 (idempotent replay included)", got)
	}

	// Grace elapses, countdown runs, play begins.
	advance(clock, time.Second, tick)
	waitFor(t, func() bool { return s.State().Phase == models.PhaseCountdown }, "countdown")
	advance(clock, time.Second, tick)
	waitFor(t, func() bool { return s.State().Phase == models.PhaseActive }, "active play")

	// First race opens one cadence into the round.
	advance(clock, time.Second, tick)
	waitFor(t, func() bool { return sink.count(events.EventTypeQTEOpened) == 1 }, "race to open")

	// Queue order is the tie-break: P2's press is enqueued first and wins
	// even though both land "at the same time".
	s.SubmitQTEInput(p2)
	s.SubmitQTEInput(p1)
	waitFor(t, func() bool { return sink.count(events.EventTypeQTEResolved) == 1 }, "race to resolve")
	resolved := sink.lastResolved()
	if resolved.WinnerID == nil || *resolved.WinnerID != p2 {
		t.Fatalf("winner = %v; want P%d (first in queue order)", resolved.WinnerID, p2)
	}
	if sink.count(events.EventTypeImmunityGranted) != 1 {
		t.Fatal("immunity not granted to race winner")
	}

	// Clock runs out: single-round match ends and the loop exits cleanly.
	advance(clock, 3*time.Second, tick)
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Run returned %v; want nil", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("session loop did not finish after match end")
	}

	if s.State().Phase != models.PhaseMatchEnd {
		t.Fatalf("final phase = %s; want %s", s.State().Phase, models.PhaseMatchEnd)
	}
	result := recorder.recorded()
	if result == nil {
		t.Fatal("match result not recorded")
	}
	if result.MatchID != s.MatchID() || len(result.Standings) != 2 {
		t.Fatalf("recorded result = %+v", result)
	}
}

func TestSessionCancelStopsLoop(t *testing.T) {
	clock := clockwork.NewFakeClockAt(t0)
	s, err := NewSession(testConfig(), clock, rand.New(rand.NewSource(1)), Options{}, &safeSink{})
	if err != nil {
		t.Fatalf("NewSession: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()

	s.Connect()
	waitFor(t, func() bool { return len(s.State().Participants) == 1 }, "participant to join")

	cancel()
	select {
	case err := <-done:
		if err != context.Canceled {
			t.Fatalf("Run returned %v; want context.Canceled", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("session loop did not stop on cancel")
	}
}

func TestSessionDisconnectReleasesParticipant(t *testing.T) {
	clock := clockwork.NewFakeClockAt(t0)
	sink := &safeSink{}
	s, err := NewSession(testConfig(), clock, rand.New(rand.NewSource(1)), Options{}, sink)
	if err != nil {
		t.Fatalf("NewSession: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()

	p1 := s.Connect()
	s.Connect()
	waitFor(t, func() bool { return len(s.State().Participants) == 2 }, "participants to join")

	s.Disconnect(p1)
	waitFor(t, func() bool { return len(s.State().Participants) == 1 }, "participant to leave")
	if sink.count(events.EventTypeParticipantLeft) != 1 {
		t.Fatal("leave not broadcast")
	}
}
