package messaging

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeBroker struct {
	published []interface{}
	channel   string
	msgs      chan []byte
	err       error
}

func (b *fakeBroker) Publish(ctx context.Context, channel string, message interface{}) error {
	if b.err != nil {
		return b.err
	}
	b.channel = channel
	b.published = append(b.published, message)
	return nil
}

func (b *fakeBroker) Subscribe(ctx context.Context, channel string) (<-chan []byte, error) {
	return b.msgs, b.err
}

func (b *fakeBroker) Close() error { return nil }

func TestChannelPublisher_Publish(t *testing.T) {
	b := &fakeBroker{}
	p := NewChannelPublisher(b, "emr.events")

	require.NoError(t, p.Publish(context.Background(), "appointment.booked", map[string]string{"doctor": "Dr. Aisha"}))
	require.Len(t, b.published, 1)
	assert.Equal(t, "emr.events", b.channel)

	msg := b.published[0].(Message)
	assert.Equal(t, "appointment.booked", msg.Type)
	assert.JSONEq(t, `{"doctor":"Dr. Aisha"}`, string(msg.Payload))
}

func TestChannelPublisher_PropagatesBrokerError(t *testing.T) {
	p := NewChannelPublisher(&fakeBroker{err: errors.New("down")}, "c")
	assert.ErrorContains(t, p.Publish(context.Background(), "x", 1), "down")
}

func TestConsume(t *testing.T) {
	b := &fakeBroker{msgs: make(chan []byte, 3)}
	good, _ := json.Marshal(Message{Type: "appointment.booked", Payload: json.RawMessage(`{}`)})
	b.msgs <- []byte("not json")
	b.msgs <- good
	close(b.msgs)

	var got []string
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	err := Consume(ctx, b, "c", func(ctx context.Context, msg Message) error {
		got = append(got, msg.Type)
		return nil
	}, zerolog.Nop())

	require.NoError(t, err)
	assert.Equal(t, []string{"appointment.booked"}, got)
}
