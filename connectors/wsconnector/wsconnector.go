// Package wsconnector is an example source.Source that mirrors a subject
// subtree over a single WebSocket connection, framing messages with the
// envelope from spec §6 (package wire): Hello/Welcome on connect, Update
// for both inbound and outbound deltas, Heartbeat for liveness. It is a
// collaborator demo exercising source.Source end to end, not a
// protocol-complete transport — concrete wire protocols are out of scope
// per spec §1. Grounded on the evalgo-org-eve example's coordinator.go,
// the one pack repo that dials and frames gorilla/websocket messages.
package wsconnector

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/bittoy/reactive/ierrors"
	"github.com/bittoy/reactive/source"
	"github.com/bittoy/reactive/update"
	"github.com/bittoy/reactive/wire"
)

// Config configures a Connector: the name this source is registered
// under, the URL to dial, and the heartbeat interval.
type Config struct {
	Name              string
	URL               string
	HeartbeatInterval time.Duration
	DialTimeout       time.Duration
}

// Connector is a source.Source backed by one WebSocket client connection.
type Connector struct {
	cfg Config

	mu       sync.Mutex
	conn     *websocket.Conn
	sequence int64
	welcome  update.SubjectUpdate
}

// New builds a Connector. It does not dial until Start or
// LoadInitialState is called.
func New(cfg Config) *Connector {
	if cfg.HeartbeatInterval <= 0 {
		cfg.HeartbeatInterval = 30 * time.Second
	}
	if cfg.DialTimeout <= 0 {
		cfg.DialTimeout = 10 * time.Second
	}
	return &Connector{cfg: cfg}
}

// Name implements source.Source.
func (c *Connector) Name() string { return c.cfg.Name }

func (c *Connector) dial(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.conn != nil {
		return nil
	}
	dialer := websocket.Dialer{HandshakeTimeout: c.cfg.DialTimeout}
	conn, _, err := dialer.DialContext(ctx, c.cfg.URL, nil)
	if err != nil {
		return fmt.Errorf("wsconnector: dial %s: %w", c.cfg.URL, err)
	}
	c.conn = conn

	helloBytes, err := wire.EncodeHello(wire.HelloPayload{Version: 1, Format: "json"})
	if err != nil {
		return err
	}
	if err := conn.WriteMessage(websocket.TextMessage, helloBytes); err != nil {
		return fmt.Errorf("wsconnector: send hello: %w", err)
	}

	_, data, err := conn.ReadMessage()
	if err != nil {
		return fmt.Errorf("wsconnector: read welcome: %w", err)
	}
	env, err := wire.Decode(data)
	if err != nil {
		return err
	}
	if env.Type != wire.Welcome {
		return fmt.Errorf("wsconnector: expected Welcome, got %s", env.Type)
	}
	welcome, err := wire.DecodeWelcome(env)
	if err != nil {
		return err
	}
	c.welcome = welcome.State
	c.sequence = welcome.Sequence
	return nil
}

// LoadInitialState implements source.Source: it ensures the handshake has
// run and returns an Apply that writes nothing to the subject graph, since
// this package has no subject-graph dependency of its own; the captured
// Welcome state is available through State().
func (c *Connector) LoadInitialState(ctx context.Context) (source.Apply, error) {
	if err := c.dial(ctx); err != nil {
		return nil, err
	}
	c.mu.Lock()
	state := c.welcome
	c.mu.Unlock()
	return func() error {
		_ = state // not applied here; state is exposed via State().
		return nil
	}, nil
}

// State returns the most recently received Welcome/initial state,
// valid after LoadInitialState returns successfully.
func (c *Connector) State() update.SubjectUpdate {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.welcome
}

type subscription struct {
	cancel context.CancelFunc
	done   chan struct{}
}

func (s *subscription) Unsubscribe() {
	s.cancel()
	<-s.done
}

// Start implements source.Source: it reads Update/Error/Heartbeat
// envelopes off the connection until cancelled, translating each Update's
// SubjectUpdate into source.Inbound entries keyed by subject id (callers
// resolve those ids to paths/subjects through their own PathProvider
// wiring; this layer only deframes the envelope).
func (c *Connector) Start(ctx context.Context, onUpdate func([]source.Inbound)) (source.Subscription, error) {
	if err := c.dial(ctx); err != nil {
		return nil, err
	}
	runCtx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})

	go func() {
		defer close(done)
		for {
			select {
			case <-runCtx.Done():
				return
			default:
			}
			c.mu.Lock()
			conn := c.conn
			c.mu.Unlock()
			if conn == nil {
				return
			}
			_, data, err := conn.ReadMessage()
			if err != nil {
				return
			}
			env, err := wire.Decode(data)
			if err != nil {
				continue
			}
			switch env.Type {
			case wire.Update:
				payload, err := wire.DecodeUpdate(env)
				if err != nil {
					continue
				}
				c.mu.Lock()
				c.sequence = payload.Sequence
				c.mu.Unlock()
				onUpdate(subjectUpdateToInbound(payload.Delta))
			case wire.Heartbeat:
				hb, _ := wire.DecodeHeartbeat(env)
				c.mu.Lock()
				c.sequence = hb.Sequence
				c.mu.Unlock()
			case wire.Error:
				// Ignored: Error envelopes are not passed on, and this
				// transport layer has no logger of its own.
			}
		}
	}()

	return &subscription{cancel: cancel, done: done}, nil
}

// subjectUpdateToInbound flattens a SubjectUpdate into one Inbound per
// (subject, property) pair, using "subjectID/property" as a synthetic
// path a caller's own PathProvider/Resolver translates further.
func subjectUpdateToInbound(u update.SubjectUpdate) []source.Inbound {
	var out []source.Inbound
	for subjectID, props := range u.Subjects {
		for property, pu := range props {
			if pu.Kind != update.KindValue {
				continue
			}
			out = append(out, source.Inbound{Path: subjectID + "/" + property, Value: pu.Value})
		}
	}
	return out
}

// Write implements source.Source: it frames updates as one Update
// envelope and sends it over the connection.
func (c *Connector) Write(ctx context.Context, updates []source.Outbound) error {
	c.mu.Lock()
	conn := c.conn
	c.sequence++
	seq := c.sequence
	c.mu.Unlock()
	if conn == nil {
		return ierrors.NewTransportError(c.cfg.Name, fmt.Errorf("not connected"))
	}

	su := update.NewSubjectUpdate(c.cfg.Name)
	for _, o := range updates {
		su.Set(c.cfg.Name, o.Path, o.Update)
	}

	data, err := wire.EncodeUpdate(wire.UpdatePayload{Delta: su, Sequence: seq})
	if err != nil {
		return ierrors.NewTransportError(c.cfg.Name, err)
	}
	if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
		return ierrors.NewTransportError(c.cfg.Name, err)
	}
	return nil
}

// Close terminates the underlying connection, if any.
func (c *Connector) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.conn == nil {
		return nil
	}
	err := c.conn.Close()
	c.conn = nil
	return err
}
