package main

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/skyfall-games/skyfall/internal/match"
)

// Config is the YAML configuration file shape. All durations are seconds,
// matching how designers tune the original game.
type Config struct {
	Match struct {
		TotalRounds          int     `yaml:"total_rounds"`
		MatchDuration        float64 `yaml:"match_duration"`
		HazardStartDelay     float64 `yaml:"hazard_start_delay"`
		InitialSpawnInterval float64 `yaml:"initial_spawn_interval"`
		MinSpawnInterval     float64 `yaml:"min_spawn_interval"`
		PlayfieldWidth       float64 `yaml:"playfield_width"`
		AllowedWidthFraction float64 `yaml:"allowed_width_fraction"`
		MinFallSpeed         float64 `yaml:"min_fall_speed"`
		MaxFallSpeed         float64 `yaml:"max_fall_speed"`
		QTEInputWindow       float64 `yaml:"qte_input_window"`
		QTECadence           float64 `yaml:"qte_cadence"`
		ImmunityDuration     float64 `yaml:"immunity_duration"`
		CountdownSeconds     int     `yaml:"countdown_seconds"`
		MinParticipants      int     `yaml:"min_participants"`
		WaitingGrace         float64 `yaml:"waiting_grace"`
	} `yaml:"match"`
}

func loadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	return &config, nil
}

// matchConfig converts the YAML file to the core's config, starting from
// defaults so an omitted field keeps the original tuning.
func (c *Config) matchConfig() match.Config {
	cfg := match.DefaultConfig()
	m := c.Match
	if m.TotalRounds > 0 {
		cfg.TotalRounds = m.TotalRounds
	}
	if m.MatchDuration > 0 {
		cfg.MatchDuration = seconds(m.MatchDuration)
	}
	if m.HazardStartDelay > 0 {
		cfg.HazardStartDelay = seconds(m.HazardStartDelay)
	}
	if m.InitialSpawnInterval > 0 {
		cfg.InitialSpawnInterval = seconds(m.InitialSpawnInterval)
	}
	if m.MinSpawnInterval > 0 {
		cfg.MinSpawnInterval = seconds(m.MinSpawnInterval)
	}
	if m.PlayfieldWidth > 0 {
		cfg.PlayfieldWidth = m.PlayfieldWidth
	}
	if m.AllowedWidthFraction > 0 {
		cfg.AllowedWidthFraction = m.AllowedWidthFraction
	}
	if m.MinFallSpeed > 0 {
		cfg.MinFallSpeed = m.MinFallSpeed
	}
	if m.MaxFallSpeed > 0 {
		cfg.MaxFallSpeed = m.MaxFallSpeed
	}
	if m.QTEInputWindow > 0 {
		cfg.QTEInputWindow = seconds(m.QTEInputWindow)
	}
	if m.QTECadence > 0 {
		cfg.QTECadence = seconds(m.QTECadence)
	}
	if m.ImmunityDuration > 0 {
		cfg.ImmunityDuration = seconds(m.ImmunityDuration)
	}
	if m.CountdownSeconds > 0 {
		cfg.CountdownSeconds = m.CountdownSeconds
	}
	if m.MinParticipants > 0 {
		cfg.MinParticipants = m.MinParticipants
	}
	if m.WaitingGrace > 0 {
		cfg.WaitingGrace = seconds(m.WaitingGrace)
	}
	return cfg
}

func seconds(s float64) time.Duration {
	return time.Duration(s * float64(time.Second))
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}
