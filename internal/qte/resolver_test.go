package qte

import (
	"testing"
	"time"

	"github.com/skyfall-games/skyfall/internal/models"
)

var t0 = time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)

func TestFirstSubmissionWins(t *testing.T) {
	r := NewResolver(2 * time.Second)
	if !r.Open(t0) {
		t.Fatal("Open failed on idle resolver")
	}

	if !r.Submit(1, t0.Add(1200*time.Millisecond)) {
		t.Fatal("first submission rejected")
	}
	// Processed a tick later but still inside the window: must lose.
	if r.Submit(2, t0.Add(1200*time.Millisecond+100*time.Microsecond)) {
		t.Fatal("second submission accepted after winner declared")
	}
	if r.Submit(3, t0.Add(1300*time.Millisecond)) {
		t.Fatal("third submission accepted after winner declared")
	}

	winner, ok := r.Winner()
	if !ok || winner != 1 {
		t.Fatalf("winner = %d, %v; want 1, true", winner, ok)
	}
	if r.State() != models.RaceResolved {
		t.Fatalf("state = %s; want %s", r.State(), models.RaceResolved)
	}
}

func TestSubmitOutsideWindow(t *testing.T) {
	r := NewResolver(2 * time.Second)
	r.Open(t0)

	// Press processed after the deadline, before the timeout check: too late.
	if r.Submit(1, t0.Add(2*time.Second)) {
		t.Fatal("submission at exact deadline accepted")
	}
	if r.Submit(1, t0.Add(3*time.Second)) {
		t.Fatal("submission after deadline accepted")
	}
	if _, ok := r.Winner(); ok {
		t.Fatal("winner set without an accepted submission")
	}
}

func TestSubmitWhileIdle(t *testing.T) {
	r := NewResolver(2 * time.Second)
	if r.Submit(1, t0) {
		t.Fatal("submission accepted while idle")
	}
}

func TestTimeoutResolvesExactlyOnce(t *testing.T) {
	r := NewResolver(2 * time.Second)
	r.Open(t0)

	if r.CheckTimeout(t0.Add(1 * time.Second)) {
		t.Fatal("timeout fired before deadline")
	}
	if !r.CheckTimeout(t0.Add(2 * time.Second)) {
		t.Fatal("timeout did not fire at deadline")
	}
	if r.CheckTimeout(t0.Add(3 * time.Second)) {
		t.Fatal("timeout fired twice")
	}
	if _, ok := r.Winner(); ok {
		t.Fatal("timeout resolved with a winner")
	}
	if r.State() != models.RaceResolved {
		t.Fatalf("state = %s; want %s", r.State(), models.RaceResolved)
	}

	// A stray late press after the timeout changes nothing.
	if r.Submit(1, t0.Add(3*time.Second)) {
		t.Fatal("late submission accepted after timeout")
	}
}

func TestTimeoutAfterWinnerIsNoOp(t *testing.T) {
	r := NewResolver(2 * time.Second)
	r.Open(t0)
	if !r.Submit(5, t0.Add(time.Second)) {
		t.Fatal("submission rejected")
	}
	if r.CheckTimeout(t0.Add(2 * time.Second)) {
		t.Fatal("stale timeout fired after resolution")
	}
	winner, _ := r.Winner()
	if winner != 5 {
		t.Fatalf("winner = %d; want 5", winner)
	}
}

func TestOpenWhileNotIdle(t *testing.T) {
	r := NewResolver(2 * time.Second)
	r.Open(t0)
	if r.Open(t0.Add(time.Second)) {
		t.Fatal("Open succeeded on an open race")
	}
	r.Submit(1, t0.Add(time.Second))
	if r.Open(t0.Add(1500 * time.Millisecond)) {
		t.Fatal("Open succeeded on a resolved race")
	}
}

func TestResetRearmsRace(t *testing.T) {
	r := NewResolver(2 * time.Second)
	r.Open(t0)
	r.Submit(7, t0.Add(time.Second))
	r.Reset()

	if r.State() != models.RaceIdle {
		t.Fatalf("state after reset = %s; want %s", r.State(), models.RaceIdle)
	}
	if _, ok := r.Winner(); ok {
		t.Fatal("winner survived reset")
	}

	next := t0.Add(10 * time.Second)
	if !r.Open(next) {
		t.Fatal("Open failed after reset")
	}
	if !r.Submit(9, next.Add(time.Second)) {
		t.Fatal("submission rejected in second race")
	}
	winner, _ := r.Winner()
	if winner != 9 {
		t.Fatalf("winner = %d; want 9", winner)
	}
}
