package source

import (
	"context"
	"sync"

	"github.com/bittoy/reactive/ierrors"
)

// Pool manages a set of named Connectors together — start, stop, and
// reload them as a group — generalizing the teacher's rule-engine pool
// (engine/chain_engine.go pools engines by ID) to connectors pooled by
// source name (spec.md §4.9 identifies a Source by a string source-name;
// this is the natural multi-source extension).
type Pool struct {
	mu         sync.RWMutex
	connectors map[string]*Connector
}

// NewPool builds an empty Pool.
func NewPool() *Pool {
	return &Pool{connectors: map[string]*Connector{}}
}

// Add registers a connector under its configured name, starting it
// immediately.
func (p *Pool) Add(ctx context.Context, c *Connector) error {
	p.mu.Lock()
	p.connectors[c.name] = c
	p.mu.Unlock()
	return c.Start(ctx)
}

// Get returns the connector registered under name, if any.
func (p *Pool) Get(name string) (*Connector, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	c, ok := p.connectors[name]
	return c, ok
}

// Remove stops and unregisters the connector named name.
func (p *Pool) Remove(name string) {
	p.mu.Lock()
	c, ok := p.connectors[name]
	delete(p.connectors, name)
	p.mu.Unlock()
	if ok {
		c.Stop()
	}
}

// Reload stops and restarts the connector named name, the pooled
// equivalent of the teacher's build-then-swap chain reload.
func (p *Pool) Reload(ctx context.Context, name string) error {
	p.mu.RLock()
	c, ok := p.connectors[name]
	p.mu.RUnlock()
	if !ok {
		return ierrors.NewConfigurationError("reload unknown source: "+name, nil)
	}
	c.Stop()
	return c.Start(ctx)
}

// StopAll stops every pooled connector.
func (p *Pool) StopAll() {
	p.mu.RLock()
	connectors := make([]*Connector, 0, len(p.connectors))
	for _, c := range p.connectors {
		connectors = append(connectors, c)
	}
	p.mu.RUnlock()
	for _, c := range connectors {
		c.Stop()
	}
}

// Names returns the currently registered source names.
func (p *Pool) Names() []string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	out := make([]string, 0, len(p.connectors))
	for name := range p.connectors {
		out = append(out, name)
	}
	return out
}
