package events

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
	"github.com/smallbiznis/mealplan/internal/clock"
	"github.com/smallbiznis/mealplan/internal/config"
	obsmetrics "github.com/smallbiznis/mealplan/internal/observability/metrics"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

type Params struct {
	fx.In

	Lifecycle  fx.Lifecycle
	Cfg        config.Config
	Log        *zap.Logger
	Clock      clock.Clock
	ObsMetrics *obsmetrics.Metrics `optional:"true"`
}

// NATSPublisher writes envelopes to a JetStream stream. The envelope id is
// the message id, so JetStream drops duplicates inside its dedupe window.
type NATSPublisher struct {
	nc      *nats.Conn
	js      jetstream.JetStream
	prefix  string
	clock   clock.Clock
	log     *zap.Logger
	metrics *obsmetrics.Metrics
}

// NewPublisher connects to NATS when NATS_URL is set and falls back to a
// no-op publisher otherwise.
func NewPublisher(p Params) (Publisher, error) {
	log := p.Log.Named("events.publisher")
	if p.Cfg.NATS.URL == "" {
		log.Info("NATS_URL not set, domain events are dropped")
		return NoopPublisher{}, nil
	}

	nc, err := nats.Connect(p.Cfg.NATS.URL,
		nats.Name(p.Cfg.AppName),
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(5),
		nats.ReconnectWait(2*time.Second),
	)
	if err != nil {
		return nil, fmt.Errorf("connect nats: %w", err)
	}
	js, err := jetstream.New(nc)
	if err != nil {
		nc.Close()
		return nil, fmt.Errorf("jetstream: %w", err)
	}

	pub := newNATSPublisher(nc, js, p.Cfg.NATS.SubjectPrefix, p.Clock, log, p.ObsMetrics)
	p.Lifecycle.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			ensureCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
			defer cancel()
			_, err := js.CreateOrUpdateStream(ensureCtx, jetstream.StreamConfig{
				Name:      p.Cfg.NATS.Stream,
				Subjects:  []string{pub.prefix + ".>"},
				Storage:   jetstream.FileStorage,
				Retention: jetstream.LimitsPolicy,
				MaxAge:    7 * 24 * time.Hour,
			})
			if err != nil {
				// The broker may still be coming up; publishes will retry the connection.
				log.Warn("failed to ensure stream", zap.String("stream", p.Cfg.NATS.Stream), zap.Error(err))
			}
			return nil
		},
		OnStop: func(context.Context) error {
			return pub.Close()
		},
	})
	return pub, nil
}

func newNATSPublisher(nc *nats.Conn, js jetstream.JetStream, prefix string, clk clock.Clock, log *zap.Logger, m *obsmetrics.Metrics) *NATSPublisher {
	prefix = strings.Trim(strings.TrimSpace(prefix), ".")
	if prefix == "" {
		prefix = "mealplan"
	}
	return &NATSPublisher{nc: nc, js: js, prefix: prefix, clock: clk, log: log, metrics: m}
}

func (p *NATSPublisher) Subject(eventType string) string {
	return p.prefix + "." + eventType
}

func (p *NATSPublisher) Publish(ctx context.Context, eventType string, data any) error {
	env, err := NewEnvelope(ctx, eventType, data, p.clock.Now())
	if err != nil {
		return fmt.Errorf("encode %s: %w", eventType, err)
	}
	payload, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("encode %s: %w", eventType, err)
	}

	subject := p.Subject(eventType)
	if _, err := p.js.Publish(ctx, subject, payload, jetstream.WithMsgID(env.ID)); err != nil {
		p.metrics.RecordEventPublished(ctx, eventType, false)
		return fmt.Errorf("publish %s: %w", subject, err)
	}
	p.metrics.RecordEventPublished(ctx, eventType, true)
	p.log.Debug("event published", zap.String("subject", subject), zap.String("event_id", env.ID))
	return nil
}

func (p *NATSPublisher) Close() error {
	if p.nc == nil {
		return nil
	}
	return p.nc.Drain()
}
