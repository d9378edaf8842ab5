package eventbus

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"go.uber.org/zap"
)

// Subjects published by the service.
const (
	SubjectAgentEvents  = "agents.events"
	SubjectJobsStarted  = "jobs.started"
	SubjectJobsComplete = "jobs.completed"
)

// Bus is a NATS connection with an optional JetStream context. A nil *Bus is
// valid and drops every publish with nats.ErrConnectionClosed.
type Bus struct {
	nc     *nats.Conn
	js     nats.JetStreamContext
	logger *zap.Logger
}

// Connect dials NATS. JetStream is optional: when the server does not offer it
// the bus still publishes core NATS messages.
func Connect(url string, logger *zap.Logger) (*Bus, error) {
	if url == "" {
		url = nats.DefaultURL
	}
	nc, err := nats.Connect(url,
		nats.Name("toolsdir-api"),
		nats.Timeout(5*time.Second),
		nats.MaxReconnects(3),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				logger.Warn("nats disconnected", zap.Error(err))
			}
		}),
		nats.ReconnectHandler(func(c *nats.Conn) {
			logger.Info("nats reconnected", zap.String("url", c.ConnectedUrl()))
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("connect nats: %w", err)
	}

	bus := &Bus{nc: nc, logger: logger}
	js, err := nc.JetStream()
	if err != nil {
		logger.Warn("jetstream unavailable, publishing core nats only", zap.Error(err))
		return bus, nil
	}
	bus.js = js
	return bus, nil
}

// Close closes the connection.
func (b *Bus) Close() {
	if b != nil && b.nc != nil {
		b.nc.Close()
	}
}

// Connected reports whether the connection is usable.
func (b *Bus) Connected() bool {
	return b != nil && b.nc != nil && b.nc.IsConnected()
}

// Publish sends v as JSON on subject.
func (b *Bus) Publish(subject string, v any) error {
	if b == nil || b.nc == nil {
		return nats.ErrConnectionClosed
	}
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal %s payload: %w", subject, err)
	}
	return b.nc.Publish(subject, data)
}

// Subscribe registers handler for subject.
func (b *Bus) Subscribe(subject string, handler nats.MsgHandler) (*nats.Subscription, error) {
	if b == nil || b.nc == nil {
		return nil, nats.ErrConnectionClosed
	}
	return b.nc.Subscribe(subject, handler)
}
