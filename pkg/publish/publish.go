// Package publish forwards experiment events to an MQTT broker as JSON.
package publish

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
	"github.com/itohio/reactiontest/pkg/config"
	"github.com/itohio/reactiontest/pkg/protocol"
	"github.com/itohio/reactiontest/pkg/results"
)

var ErrTimeout = errors.New("mqtt operation timed out")

// Message is the JSON payload of one event.
type Message struct {
	Kind        string    `json:"kind"`
	Session     string    `json:"session,omitempty"`
	Participant string    `json:"participant,omitempty"`
	Time        time.Time `json:"time"`

	TrialCount   int    `json:"trial_count,omitempty"`
	Trial        int    `json:"trial,omitempty"`
	Category     string `json:"category,omitempty"`
	Outcome      string `json:"outcome,omitempty"`
	ReactionTime uint64 `json:"reaction_us,omitempty"`

	Summary *Summary `json:"summary,omitempty"`
}

// Summary mirrors protocol.Summary with JSON names.
type Summary struct {
	NormalAverage  uint64 `json:"normal_avg"`
	DisgustAverage uint64 `json:"disgust_avg"`
	TotalAverage   uint64 `json:"total_avg"`
	NormalEarly    int    `json:"normal_early"`
	DisgustEarly   int    `json:"disgust_early"`
	NormalWrong    int    `json:"normal_wrong"`
	DisgustWrong   int    `json:"disgust_wrong"`
}

// NewMessage builds the payload for ev. s may be nil.
func NewMessage(ev protocol.Event, s *results.Session, at time.Time) Message {
	msg := Message{
		Kind: ev.Kind.String(),
		Time: at,
	}
	if s != nil {
		msg.Session = s.ID
		msg.Participant = s.Participant
	}

	switch ev.Kind {
	case protocol.Ready:
		msg.TrialCount = ev.TrialCount
	case protocol.Early:
		msg.Trial = ev.Trial
		msg.Category = ev.Category.String()
	case protocol.Test:
		msg.Trial = ev.Trial
		msg.Category = ev.Category.String()
		msg.Outcome = ev.Outcome.String()
		msg.ReactionTime = ev.ReactionTime
	case protocol.End:
		sum := Summary(ev.Summary)
		msg.Summary = &sum
	}
	return msg
}

// Topic returns the topic events of kind k are published under.
func Topic(base string, k protocol.Kind) string {
	if base == "" {
		return k.String()
	}
	return base + "/" + k.String()
}

// Publisher sends events to <topic>/<kind>.
type Publisher struct {
	client  paho.Client
	topic   string
	qos     byte
	timeout time.Duration
	now     func() time.Time
}

// New creates a publisher for cfg. It does not connect.
func New(cfg config.MQTTConfig) *Publisher {
	opts := paho.NewClientOptions()
	opts.AddBroker(cfg.Broker).
		SetClientID(cfg.ClientID).
		SetAutoReconnect(true).
		SetCleanSession(true).
		SetConnectTimeout(cfg.Timeout)

	return newWithClient(paho.NewClient(opts), cfg)
}

func newWithClient(client paho.Client, cfg config.MQTTConfig) *Publisher {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Publisher{
		client:  client,
		topic:   cfg.Topic,
		qos:     cfg.QoS,
		timeout: timeout,
		now:     time.Now,
	}
}

// Connect connects to the broker.
func (p *Publisher) Connect() error {
	if err := wait(p.client.Connect(), p.timeout); err != nil {
		return fmt.Errorf("failed to connect to mqtt broker: %w", err)
	}
	return nil
}

// Publish sends ev as JSON. s may be nil.
func (p *Publisher) Publish(ev protocol.Event, s *results.Session) error {
	payload, err := json.Marshal(NewMessage(ev, s, p.now()))
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", ev.Kind, err)
	}

	topic := Topic(p.topic, ev.Kind)
	if err := wait(p.client.Publish(topic, p.qos, false, payload), p.timeout); err != nil {
		return fmt.Errorf("failed to publish to %s: %w", topic, err)
	}
	return nil
}

// Close disconnects, letting in-flight messages finish for up to 250ms.
func (p *Publisher) Close() error {
	if p.client.IsConnected() {
		p.client.Disconnect(250)
	}
	return nil
}

func wait(token paho.Token, timeout time.Duration) error {
	if !token.WaitTimeout(timeout) {
		return ErrTimeout
	}
	return token.Error()
}
