// Package mqttconnector is an example source.Source mirroring a subject
// subtree over MQTT retained-topic publish/subscribe, one topic per wire
// path under a configured root. It is a collaborator demo exercising
// source.Source end to end (spec §1 keeps concrete wire protocols out of
// scope), grounded on github.com/eclipse/paho.mqtt.golang, a direct
// dependency of the teacher module.
package mqttconnector

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/bittoy/reactive/ierrors"
	"github.com/bittoy/reactive/source"
)

// Config configures a Connector.
type Config struct {
	Name           string
	BrokerURL      string
	ClientID       string
	RootTopic      string // e.g. "plant/cell-7"; property paths are appended under it.
	QoS            byte
	Retained       bool
	ConnectTimeout time.Duration
}

// Connector is a source.Source backed by one MQTT client subscribed to
// RootTopic/#.
type Connector struct {
	cfg Config

	mu     sync.Mutex
	client mqtt.Client
}

// New builds a Connector. It does not connect until LoadInitialState or
// Start is called.
func New(cfg Config) *Connector {
	if cfg.ConnectTimeout <= 0 {
		cfg.ConnectTimeout = 10 * time.Second
	}
	return &Connector{cfg: cfg}
}

// Name implements source.Source.
func (c *Connector) Name() string { return c.cfg.Name }

func (c *Connector) ensureClient() (mqtt.Client, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.client != nil && c.client.IsConnected() {
		return c.client, nil
	}
	opts := mqtt.NewClientOptions().
		AddBroker(c.cfg.BrokerURL).
		SetClientID(c.cfg.ClientID).
		SetAutoReconnect(true).
		SetConnectTimeout(c.cfg.ConnectTimeout)
	client := mqtt.NewClient(opts)
	token := client.Connect()
	if !token.WaitTimeout(c.cfg.ConnectTimeout) {
		return nil, fmt.Errorf("mqttconnector: connect timed out after %s", c.cfg.ConnectTimeout)
	}
	if err := token.Error(); err != nil {
		return nil, fmt.Errorf("mqttconnector: connect: %w", err)
	}
	c.client = client
	return client, nil
}

// retainedMessage is one retained message under RootTopic/#, collected by
// LoadInitialState during a short collection window, since MQTT has no
// dedicated "give me everything" verb (retained messages replay
// automatically on subscribe, which is what this relies on).
type retainedMessage struct {
	topic   string
	payload []byte
}

// LoadInitialState implements source.Source: it subscribes to
// RootTopic/#, collects whatever retained messages the broker replays
// within collectWindow, and returns an Apply that copies the collected
// messages and returns nil; it writes nothing to the subject graph.
func (c *Connector) LoadInitialState(ctx context.Context) (source.Apply, error) {
	client, err := c.ensureClient()
	if err != nil {
		return nil, ierrors.NewTransportError(c.cfg.Name, err)
	}

	var mu sync.Mutex
	var snapshot []retainedMessage
	topic := c.cfg.RootTopic + "/#"
	token := client.Subscribe(topic, c.cfg.QoS, func(_ mqtt.Client, msg mqtt.Message) {
		if !msg.Retained() {
			return
		}
		mu.Lock()
		snapshot = append(snapshot, retainedMessage{topic: msg.Topic(), payload: msg.Payload()})
		mu.Unlock()
	})
	if !token.WaitTimeout(c.cfg.ConnectTimeout) {
		return nil, ierrors.NewTransportError(c.cfg.Name, fmt.Errorf("subscribe to %s timed out", topic))
	}
	if err := token.Error(); err != nil {
		return nil, ierrors.NewTransportError(c.cfg.Name, err)
	}

	// Give the broker a short window to replay retained messages before
	// treating the snapshot as complete.
	collectWindow := 500 * time.Millisecond
	select {
	case <-time.After(collectWindow):
	case <-ctx.Done():
		return nil, ierrors.NewCancelled("mqttconnector.LoadInitialState")
	}

	return func() error {
		mu.Lock()
		msgs := append([]retainedMessage(nil), snapshot...)
		mu.Unlock()
		for range msgs {
			// The retained messages are not handed on; this Apply only
			// marks initial load complete. Subject-graph writes happen
			// in the caller's InboundApplier for Inbound updates that
			// Start delivers.
		}
		return nil
	}, nil
}

type subscription struct {
	client mqtt.Client
	topic  string
}

func (s *subscription) Unsubscribe() {
	token := s.client.Unsubscribe(s.topic)
	token.WaitTimeout(5 * time.Second)
}

type wirePayload struct {
	Value any `json:"value"`
}

// Start implements source.Source: every publish its subscription receives
// under RootTopic/# (retained replays are not filtered out) becomes one
// source.Inbound, path derived from the topic suffix after RootTopic.
func (c *Connector) Start(ctx context.Context, onUpdate func([]source.Inbound)) (source.Subscription, error) {
	client, err := c.ensureClient()
	if err != nil {
		return nil, ierrors.NewTransportError(c.cfg.Name, err)
	}
	topic := c.cfg.RootTopic + "/#"
	token := client.Subscribe(topic, c.cfg.QoS, func(_ mqtt.Client, msg mqtt.Message) {
		path := strings.TrimPrefix(msg.Topic(), c.cfg.RootTopic+"/")
		var wp wirePayload
		if err := json.Unmarshal(msg.Payload(), &wp); err != nil {
			return
		}
		onUpdate([]source.Inbound{{Path: path, Value: wp.Value}})
	})
	if !token.WaitTimeout(c.cfg.ConnectTimeout) {
		return nil, ierrors.NewTransportError(c.cfg.Name, fmt.Errorf("subscribe to %s timed out", topic))
	}
	if err := token.Error(); err != nil {
		return nil, ierrors.NewTransportError(c.cfg.Name, err)
	}
	return &subscription{client: client, topic: topic}, nil
}

// Write implements source.Source: each Outbound is published, retained,
// to RootTopic/<path>.
func (c *Connector) Write(ctx context.Context, updates []source.Outbound) error {
	client, err := c.ensureClient()
	if err != nil {
		return ierrors.NewTransportError(c.cfg.Name, err)
	}
	for _, o := range updates {
		payload, err := json.Marshal(wirePayload{Value: o.Update.Value})
		if err != nil {
			return ierrors.NewTransportError(c.cfg.Name, err)
		}
		topic := c.cfg.RootTopic + "/" + o.Path
		token := client.Publish(topic, c.cfg.QoS, c.cfg.Retained, payload)
		if !token.WaitTimeout(c.cfg.ConnectTimeout) {
			return ierrors.NewTransportError(c.cfg.Name, fmt.Errorf("publish to %s timed out", topic))
		}
		if err := token.Error(); err != nil {
			return ierrors.NewTransportError(c.cfg.Name, err)
		}
	}
	return nil
}

// Close disconnects the underlying MQTT client, if connected.
func (c *Connector) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.client != nil && c.client.IsConnected() {
		c.client.Disconnect(250)
	}
}
