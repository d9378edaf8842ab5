package eventbus

import (
	"testing"

	"github.com/nats-io/nats.go"
	"github.com/stretchr/testify/assert"
)

func TestNilBusDropsPublishes(t *testing.T) {
	var b *Bus
	assert.False(t, b.Connected())
	assert.ErrorIs(t, b.Publish(SubjectJobsComplete, map[string]int{"generated": 1}), nats.ErrConnectionClosed)

	_, err := b.Subscribe(SubjectJobsComplete, func(*nats.Msg) {})
	assert.ErrorIs(t, err, nats.ErrConnectionClosed)
	assert.NotPanics(t, b.Close)
}

func TestJetStreamStoreRequiresJetStream(t *testing.T) {
	_, err := NewJetStreamStore(nil)
	assert.Error(t, err)

	_, err = NewJetStreamStore(&Bus{})
	assert.Error(t, err)
}
