package eventbus

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/nats-io/nats.go"
)

// StreamName is the JetStream stream holding agent events and job lifecycle messages.
const StreamName = "TOOLSDIR"

var streamSubjects = []string{SubjectAgentEvents + ".>", "jobs.>"}

// EventStore is an append-only log keyed by message id.
type EventStore interface {
	Append(subject, id string, data any) error
}

// JetStreamStore appends to the TOOLSDIR stream. Message ids deduplicate
// retried appends within the stream's duplicate window.
type JetStreamStore struct {
	js nats.JetStreamContext
}

// NewJetStreamStore makes sure the stream exists.
func NewJetStreamStore(bus *Bus) (*JetStreamStore, error) {
	if bus == nil || bus.js == nil {
		return nil, errors.New("jetstream context not initialized")
	}
	if _, err := bus.js.StreamInfo(StreamName); err != nil {
		if !errors.Is(err, nats.ErrStreamNotFound) {
			return nil, fmt.Errorf("stream info: %w", err)
		}
		if _, err := bus.js.AddStream(&nats.StreamConfig{
			Name:     StreamName,
			Subjects: streamSubjects,
			Storage:  nats.FileStorage,
		}); err != nil {
			return nil, fmt.Errorf("add stream: %w", err)
		}
	}
	return &JetStreamStore{js: bus.js}, nil
}

// Append publishes data as JSON and waits for the stream acknowledgement.
func (s *JetStreamStore) Append(subject, id string, data any) error {
	payload, err := json.Marshal(data)
	if err != nil {
		return err
	}
	_, err = s.js.Publish(subject, payload, nats.MsgId(id))
	return err
}
