package main

import (
	"math/rand"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"

	"github.com/skyfall-games/skyfall/internal/events"
	"github.com/skyfall-games/skyfall/internal/gateway"
	"github.com/skyfall-games/skyfall/internal/match"
	"github.com/skyfall-games/skyfall/internal/metrics"
	"github.com/skyfall-games/skyfall/internal/relay"
	"github.com/skyfall-games/skyfall/internal/session"
	"github.com/skyfall-games/skyfall/internal/standings"
)

// Services holds the wired application graph for one match server.
type Services struct {
	Gateway *gateway.Manager
	Session *session.Session
	Relay   *relay.Publisher // nil when the relay is disabled
}

func setupServices(cfg match.Config, pool *pgxpool.Pool, rng *rand.Rand) (*Services, error) {
	// Wire up dependency injection chain:
	// sinks → emitter → session core → gateway ingress

	clock := clockwork.NewRealClock()
	manager := gateway.NewManager(gateway.DefaultConnectionConfig())

	sinks := []events.Sink{manager, metrics.NewSink()}

	var publisher *relay.Publisher
	if getEnvAsBool("RELAY_ENABLED", false) {
		relayCfg := relay.DefaultJetStreamConfig()
		relayCfg.URL = getEnv("NATS_URL", relayCfg.URL)
		p, err := relay.NewPublisher(relayCfg)
		if err != nil {
			return nil, err
		}
		publisher = p
		sinks = append(sinks, p)
	} else {
		log.Info().Msg("event relay disabled")
	}

	var recorder session.Recorder
	if pool != nil {
		recorder = standings.NewRepository(pool)
	}

	sess, err := session.NewSession(cfg, clock, rng, session.Options{Recorder: recorder}, sinks...)
	if err != nil {
		return nil, err
	}

	manager.Bind(sess)

	return &Services{
		Gateway: manager,
		Session: sess,
		Relay:   publisher,
	}, nil
}
