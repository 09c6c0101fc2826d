package mqtt

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type message struct {
	topic   string
	payload []byte
	acked   bool
}

func (m *message) Duplicate() bool   { return false }
func (m *message) Qos() byte         { return 1 }
func (m *message) Retained() bool    { return false }
func (m *message) Topic() string     { return m.topic }
func (m *message) MessageID() uint16 { return 1 }
func (m *message) Payload() []byte   { return m.payload }
func (m *message) Ack()              { m.acked = true }

func newDisconnected() *pubsub {
	opts := paho.NewClientOptions().AddBroker("tcp://127.0.0.1:1").SetClientID("test")

	return &pubsub{
		client:  paho.NewClient(opts),
		qos:     1,
		timeout: time.Second,
		logger:  slog.Default(),
	}
}

func TestNewPubSubRequiresID(t *testing.T) {
	_, err := NewPubSub(Config{URL: "tcp://127.0.0.1:1"}, slog.Default())
	assert.ErrorIs(t, err, errEmptyID)
}

func TestEmptyTopic(t *testing.T) {
	ps := newDisconnected()
	ctx := context.Background()

	cases := []struct {
		desc string
		err  error
	}{
		{desc: "publish", err: ps.Publish(ctx, "", Event{Kind: "x"})},
		{desc: "subscribe", err: ps.Subscribe(ctx, "", func(string, map[string]any) error { return nil })},
		{desc: "unsubscribe", err: ps.Unsubscribe(ctx, "")},
	}
	for _, tc := range cases {
		assert.ErrorIs(t, tc.err, errEmptyTopic, tc.desc)
	}
}

func TestPublishNotConnected(t *testing.T) {
	ps := newDisconnected()

	err := ps.Publish(context.Background(), TopicActions, Event{Kind: "start-training", Timestamp: time.Now()})
	assert.ErrorIs(t, err, paho.ErrNotConnected)
}

func TestHandlerDecodesJSON(t *testing.T) {
	ps := newDisconnected()

	var (
		gotTopic string
		gotMsg   map[string]any
	)
	h := ps.mqttHandler(func(topic string, msg map[string]any) error {
		gotTopic = topic
		gotMsg = msg

		return errors.New("ignored")
	})

	msg := &message{topic: TopicRounds, payload: []byte(`{"kind":"round","payload":{"round":3}}`)}
	h(nil, msg)

	require.NotNil(t, gotMsg)
	assert.Equal(t, TopicRounds, gotTopic)
	assert.Equal(t, "round", gotMsg["kind"])
	assert.True(t, msg.acked)

	bad := &message{topic: TopicRounds, payload: []byte(`not json`)}
	gotMsg = nil
	h(nil, bad)
	assert.Nil(t, gotMsg)
	assert.False(t, bad.acked)
}
