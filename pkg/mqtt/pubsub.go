package mqtt

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
)

const (
	connTimeout    = 10
	reconnTimeout  = 1
	disconnTimeout = 250
)

// Topics carrying dashboard and simulator events.
const (
	TopicRounds   = "cvdash/training/rounds"
	TopicStatus   = "cvdash/training/status"
	TopicLogs     = "cvdash/logs"
	TopicActions  = "cvdash/actions"
	presenceTopic = "cvdash/presence/%s"
	lwtPayload    = `{"status":"offline","client_id":"%s"}`
)

var (
	errPublishTimeout     = errors.New("failed to publish due to timeout reached")
	errSubscribeTimeout   = errors.New("failed to subscribe due to timeout reached")
	errUnsubscribeTimeout = errors.New("failed to unsubscribe due to timeout reached")
	errEmptyTopic         = errors.New("empty topic")
	errEmptyID            = errors.New("empty ID")
)

type Config struct {
	URL      string        `env:"URL"      envDefault:""`
	ClientID string        `env:"CLIENT_ID" envDefault:""`
	Username string        `env:"USERNAME" envDefault:""`
	Password string        `env:"PASSWORD" envDefault:""`
	QoS      byte          `env:"QOS"      envDefault:"1"`
	Timeout  time.Duration `env:"TIMEOUT"  envDefault:"10s"`
}

// Event is the envelope published on every topic.
type Event struct {
	Kind      string    `json:"kind"`
	Source    string    `json:"source"`
	Timestamp time.Time `json:"timestamp"`
	Payload   any       `json:"payload,omitempty"`
}

type pubsub struct {
	client  mqtt.Client
	qos     byte
	timeout time.Duration
	logger  *slog.Logger
}

type Handler func(topic string, msg map[string]any) error

type PubSub interface {
	Publish(ctx context.Context, topic string, msg any) error
	Subscribe(ctx context.Context, topic string, handler Handler) error
	Unsubscribe(ctx context.Context, topic string) error
	Disconnect(ctx context.Context) error
}

func NewPubSub(cfg Config, logger *slog.Logger) (PubSub, error) {
	if cfg.ClientID == "" {
		return nil, errEmptyID
	}

	client, err := newClient(cfg, logger)
	if err != nil {
		return nil, err
	}

	return &pubsub{
		client:  client,
		qos:     cfg.QoS,
		timeout: cfg.Timeout,
		logger:  logger,
	}, nil
}

func (ps *pubsub) Publish(ctx context.Context, topic string, msg any) error {
	if topic == "" {
		return errEmptyTopic
	}

	data, err := json.Marshal(msg)
	if err != nil {
		return err
	}

	token := ps.client.Publish(topic, ps.qos, false, data)
	if token.Error() != nil {
		return token.Error()
	}

	return ps.wait(ctx, token, errPublishTimeout)
}

func (ps *pubsub) Subscribe(ctx context.Context, topic string, handler Handler) error {
	if topic == "" {
		return errEmptyTopic
	}

	token := ps.client.Subscribe(topic, ps.qos, ps.mqttHandler(handler))
	if token.Error() != nil {
		return token.Error()
	}

	return ps.wait(ctx, token, errSubscribeTimeout)
}

func (ps *pubsub) Unsubscribe(ctx context.Context, topic string) error {
	if topic == "" {
		return errEmptyTopic
	}

	token := ps.client.Unsubscribe(topic)
	if token.Error() != nil {
		return token.Error()
	}

	return ps.wait(ctx, token, errUnsubscribeTimeout)
}

func (ps *pubsub) Disconnect(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
		ps.client.Disconnect(disconnTimeout)

		return nil
	}
}

func (ps *pubsub) wait(ctx context.Context, token mqtt.Token, timeoutErr error) error {
	timer := time.NewTimer(ps.timeout)
	defer timer.Stop()

	select {
	case <-token.Done():
		return token.Error()
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return timeoutErr
	}
}

func newClient(cfg Config, logger *slog.Logger) (mqtt.Client, error) {
	opts := mqtt.NewClientOptions().
		AddBroker(cfg.URL).
		SetClientID(cfg.ClientID).
		SetUsername(cfg.Username).
		SetPassword(cfg.Password).
		SetCleanSession(true).
		SetAutoReconnect(true).
		SetConnectTimeout(connTimeout * time.Second).
		SetMaxReconnectInterval(reconnTimeout * time.Minute).
		SetWill(fmt.Sprintf(presenceTopic, cfg.ClientID), fmt.Sprintf(lwtPayload, cfg.ClientID), 0, false)

	opts.SetOnConnectHandler(func(_ mqtt.Client) {
		logger.Info("MQTT connection established", slog.String("broker", cfg.URL))
	})

	opts.SetConnectionLostHandler(func(_ mqtt.Client, err error) {
		args := []any{}
		if err != nil {
			args = append(args, slog.Any("error", err))
		}

		logger.Info("MQTT connection lost", args...)
	})

	opts.SetReconnectingHandler(func(_ mqtt.Client, options *mqtt.ClientOptions) {
		args := []any{}
		if options != nil {
			args = append(args,
				slog.String("client_id", options.ClientID),
				slog.String("username", options.Username),
			)
		}

		logger.Info("MQTT reconnecting", args...)
	})

	client := mqtt.NewClient(opts)

	token := client.Connect()
	if token.Error() != nil {
		return nil, errors.Join(errors.New("failed to connect to MQTT broker"), token.Error())
	}

	if ok := token.WaitTimeout(cfg.Timeout); !ok {
		return nil, errors.New("timeout reached while connecting to MQTT broker")
	}
	if err := token.Error(); err != nil {
		return nil, errors.Join(errors.New("failed to connect to MQTT broker"), err)
	}

	return client, nil
}

func (ps *pubsub) mqttHandler(h Handler) mqtt.MessageHandler {
	return func(_ mqtt.Client, m mqtt.Message) {
		var msg map[string]any
		if err := json.Unmarshal(m.Payload(), &msg); err != nil {
			ps.logger.Warn(fmt.Sprintf("Failed to unmarshal received message: %s", err))

			return
		}

		if err := h(m.Topic(), msg); err != nil {
			ps.logger.Warn(fmt.Sprintf("Failed to handle MQTT message: %s", err))
		}

		m.Ack()
	}
}
