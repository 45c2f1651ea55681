package source

import (
	"context"
	"sync"
	"time"

	"github.com/bittoy/reactive/change"
	"github.com/bittoy/reactive/icontext"
	"github.com/bittoy/reactive/ierrors"
	"github.com/bittoy/reactive/metrics"
	"github.com/bittoy/reactive/pathprovider"
	"github.com/bittoy/reactive/update"
)

// InboundApplier commits one inbound update to the subject graph. The
// connector passes its own Origin; an applier that writes through
// SetWithOrigin stamps the resulting PropertyChange with it, and the
// connector's local-change flow then skips that change instead of echoing
// it back to the source.
type InboundApplier func(ctx context.Context, origin Origin, path string, value any) error

// Connector runs the queue-read-replay initialization algorithm and the
// local-change write-back flow around one Source (spec §4.9).
type Connector struct {
	name     string
	src      Source
	origin   Origin
	applier  InboundApplier
	observer *change.Observer
	paths    pathprovider.PathProvider
	logger   icontext.Logger

	retryMax    int
	localWindow time.Duration

	mu         sync.Mutex
	buffering  bool
	queue      []Inbound
	retryQueue [][]Outbound
	sub        Subscription
	changeSub  *change.Subscription
}

// Config configures a Connector.
type Config struct {
	Name             string
	Source           Source
	Applier          InboundApplier
	Observer         *change.Observer
	Paths            pathprovider.PathProvider
	Logger           icontext.Logger
	RetryQueueSize   int
	LocalWriteWindow time.Duration
}

// NewConnector builds a Connector from cfg. RetryQueueSize defaults to 64
// and LocalWriteWindow to 100ms when left zero.
func NewConnector(cfg Config) *Connector {
	retryMax := cfg.RetryQueueSize
	if retryMax <= 0 {
		retryMax = 64
	}
	window := cfg.LocalWriteWindow
	if window <= 0 {
		window = 100 * time.Millisecond
	}
	logger := cfg.Logger
	if logger == nil {
		logger = icontext.NopLogger()
	}
	return &Connector{
		name:        cfg.Name,
		src:         cfg.Source,
		origin:      NewOrigin(),
		applier:     cfg.Applier,
		observer:    cfg.Observer,
		paths:       cfg.Paths,
		logger:      logger,
		retryMax:    retryMax,
		localWindow: window,
	}
}

// Origin returns the identity token this connector stamps on every
// inbound write it applies.
func (c *Connector) Origin() Origin { return c.origin }

// Start runs the queue-read-replay initialization algorithm (spec §4.9):
// buffer inbound updates during subscribe and initial-state load, apply
// the initial state, replay the buffered queue in FIFO order, then switch
// to direct application; finally flush the retry queue. It also starts
// the local-change write-back subscription.
func (c *Connector) Start(ctx context.Context) error {
	metrics.ReconnectsTotal.WithLabelValues(c.name).Inc()

	c.mu.Lock()
	c.buffering = true
	c.queue = nil
	c.mu.Unlock()

	sub, err := c.src.Start(ctx, c.onInbound)
	if err != nil {
		return ierrors.NewTransportError(c.name, err)
	}
	c.mu.Lock()
	c.sub = sub
	c.mu.Unlock()

	apply, err := c.src.LoadInitialState(ctx)
	if err != nil {
		sub.Unsubscribe()
		return ierrors.NewTransportError(c.name, err)
	}

	c.mu.Lock()
	applyErr := apply()
	c.mu.Unlock()
	if applyErr != nil {
		sub.Unsubscribe()
		return ierrors.NewTransportError(c.name, applyErr)
	}

	// Replay and the switch to direct application happen under one lock,
	// so an update arriving meanwhile is neither lost nor applied ahead of
	// the buffered ones.
	c.mu.Lock()
	buffered := c.queue
	c.queue = nil
	for _, in := range buffered {
		c.applyOne(ctx, in)
	}
	c.buffering = false
	c.mu.Unlock()

	if err := c.flushRetryQueue(ctx); err != nil {
		return err
	}

	if c.observer != nil {
		c.startLocalChangeFlow(ctx)
	}
	return nil
}

// Stop unsubscribes from both the inbound Source stream and the local
// change stream. The retry queue is preserved so a later Start can flush
// it.
func (c *Connector) Stop() {
	c.mu.Lock()
	sub := c.sub
	changeSub := c.changeSub
	c.sub = nil
	c.changeSub = nil
	c.mu.Unlock()
	if sub != nil {
		sub.Unsubscribe()
	}
	if changeSub != nil {
		changeSub.Cancel()
	}
}

// onInbound is the callback passed to Source.Start. While buffering, it
// appends to the queue under lock instead of applying; afterwards it
// applies directly, outside the lock. Start replays the queue and clears
// the buffering flag under that same lock, so a direct apply never
// overtakes a buffered one (spec §4.9 step 5).
func (c *Connector) onInbound(batch []Inbound) {
	c.mu.Lock()
	if c.buffering {
		c.queue = append(c.queue, batch...)
		c.mu.Unlock()
		return
	}
	c.mu.Unlock()
	for _, in := range batch {
		c.applyOne(context.Background(), in)
	}
}

func (c *Connector) applyOne(ctx context.Context, in Inbound) {
	if c.applier == nil {
		return
	}
	if err := c.applier(ctx, c.origin, in.Path, in.Value); err != nil {
		c.logger.Warnf("source %s: inbound apply failed for %s: %v", c.name, in.Path, err)
	}
}

// flushRetryQueue replays writes that failed while disconnected, in FIFO
// order. If any raises, initialization fails and the retry queue is
// retained for the next attempt (spec §4.9 step 6).
func (c *Connector) flushRetryQueue(ctx context.Context) error {
	c.mu.Lock()
	pending := c.retryQueue
	c.retryQueue = nil
	c.mu.Unlock()

	for i, batch := range pending {
		if err := c.src.Write(ctx, batch); err != nil {
			c.mu.Lock()
			c.retryQueue = append(append([][]Outbound(nil), pending[i:]...), c.retryQueue...)
			c.mu.Unlock()
			return ierrors.NewTransportError(c.name, err)
		}
	}
	return nil
}

// startLocalChangeFlow subscribes to the buffered change stream, filters
// out changes whose origin equals this connector (echo prevention),
// translates surviving changes through the PathProvider, and writes them
// out through the Source.
func (c *Connector) startLocalChangeFlow(ctx context.Context) {
	batches, sub := c.observer.Buffered(c.localWindow, false)
	c.mu.Lock()
	c.changeSub = sub
	c.mu.Unlock()

	go func() {
		for batch := range batches {
			c.handleLocalBatch(ctx, batch)
		}
	}()
}

func (c *Connector) handleLocalBatch(ctx context.Context, batch change.Batch) {
	var outbound []Outbound
	for _, ch := range batch {
		if ch.Origin == c.origin {
			continue
		}
		path, ok := c.paths.Path(ch.Ref)
		if !ok {
			continue
		}
		outbound = append(outbound, Outbound{
			Path:   path,
			Update: update.SubjectPropertyUpdate{Kind: update.KindValue, Value: ch.NewValue},
		})
	}
	if len(outbound) == 0 {
		return
	}
	if err := c.src.Write(ctx, outbound); err != nil {
		c.pushRetry(outbound)
	}
}

func (c *Connector) pushRetry(batch []Outbound) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.retryQueue = append(c.retryQueue, batch)
	if len(c.retryQueue) > c.retryMax {
		dropped := len(c.retryQueue) - c.retryMax
		c.retryQueue = c.retryQueue[dropped:]
		metrics.RetryQueueDropsTotal.WithLabelValues(c.name).Add(float64(dropped))
		c.logger.Warnf("%v: dropped %d oldest batches", ierrors.NewBufferOverflow(c.name, c.retryMax), dropped)
	}
	metrics.RetryQueueDepth.WithLabelValues(c.name).Set(float64(len(c.retryQueue)))
}
