package match

import (
	"fmt"
	"time"
)

// Config is the full tuning surface for one match. All values are validated
// up front by BeginMatch; a bad configuration is a setup-time contract
// violation, not something to limp through at runtime.
type Config struct {
	TotalRounds   int
	MatchDuration time.Duration

	HazardStartDelay     time.Duration
	InitialSpawnInterval time.Duration
	MinSpawnInterval     time.Duration
	PlayfieldWidth       float64
	AllowedWidthFraction float64
	MinFallSpeed         float64
	MaxFallSpeed         float64

	QTEInputWindow   time.Duration
	QTECadence       time.Duration
	ImmunityDuration time.Duration

	CountdownSeconds int
	MinParticipants  int
	WaitingGrace     time.Duration
}

// DefaultConfig mirrors the original game's tuning: 30s rounds, a 1.0s→0.3s
// spawn ramp, 2s QTE window, 5s immunity.
func DefaultConfig() Config {
	return Config{
		TotalRounds:          3,
		MatchDuration:        30 * time.Second,
		HazardStartDelay:     2 * time.Second,
		InitialSpawnInterval: 1 * time.Second,
		MinSpawnInterval:     300 * time.Millisecond,
		PlayfieldWidth:       16,
		AllowedWidthFraction: 0.8,
		MinFallSpeed:         3.0,
		MaxFallSpeed:         8.0,
		QTEInputWindow:       2 * time.Second,
		QTECadence:           10 * time.Second,
		ImmunityDuration:     5 * time.Second,
		CountdownSeconds:     3,
		MinParticipants:      2,
		WaitingGrace:         5 * time.Second,
	}
}

// Validate checks the configuration for setup-time contract violations.
func (c Config) Validate() error {
	if c.TotalRounds < 1 {
		return fmt.Errorf("totalRounds must be at least 1, got %d", c.TotalRounds)
	}
	if c.MatchDuration <= 0 {
		return fmt.Errorf("matchDuration must be positive, got %s", c.MatchDuration)
	}
	if c.HazardStartDelay < 0 {
		return fmt.Errorf("hazardStartDelay must not be negative, got %s", c.HazardStartDelay)
	}
	if c.InitialSpawnInterval <= 0 || c.MinSpawnInterval <= 0 {
		return fmt.Errorf("spawn intervals must be positive, got initial=%s min=%s",
			c.InitialSpawnInterval, c.MinSpawnInterval)
	}
	if c.MinSpawnInterval > c.InitialSpawnInterval {
		return fmt.Errorf("minSpawnInterval %s exceeds initialSpawnInterval %s",
			c.MinSpawnInterval, c.InitialSpawnInterval)
	}
	if c.PlayfieldWidth <= 0 {
		return fmt.Errorf("playfieldWidth must be positive, got %g", c.PlayfieldWidth)
	}
	if c.AllowedWidthFraction <= 0 || c.AllowedWidthFraction > 1 {
		return fmt.Errorf("allowedWidthFraction must be in (0,1], got %g", c.AllowedWidthFraction)
	}
	if c.MinFallSpeed <= 0 || c.MaxFallSpeed < c.MinFallSpeed {
		return fmt.Errorf("fall speeds must satisfy 0 < min <= max, got min=%g max=%g",
			c.MinFallSpeed, c.MaxFallSpeed)
	}
	if c.QTEInputWindow <= 0 {
		return fmt.Errorf("qteInputWindow must be positive, got %s", c.QTEInputWindow)
	}
	if c.QTECadence <= 0 {
		return fmt.Errorf("qteCadence must be positive, got %s", c.QTECadence)
	}
	if c.ImmunityDuration <= 0 {
		return fmt.Errorf("immunityDuration must be positive, got %s", c.ImmunityDuration)
	}
	if c.CountdownSeconds < 1 {
		return fmt.Errorf("countdownSeconds must be at least 1, got %d", c.CountdownSeconds)
	}
	if c.MinParticipants < 1 {
		return fmt.Errorf("minParticipants must be at least 1, got %d", c.MinParticipants)
	}
	if c.WaitingGrace < 0 {
		return fmt.Errorf("waitingGrace must not be negative, got %s", c.WaitingGrace)
	}
	return nil
}
