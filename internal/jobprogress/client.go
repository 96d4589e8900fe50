package jobprogress

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const defaultReconnectDelay = 10 * time.Second

// UpdateFunc receives the snapshot after every message that changed it
type UpdateFunc func(ctx context.Context, snap Snapshot)

// ClientConfig configures the upstream connection
type ClientConfig struct {
	URL            string
	ReconnectDelay time.Duration
	Header         http.Header
}

// Client keeps a connection to the core's progress stream. It reconnects after
// a fixed delay whenever the connection drops and stops when its context ends.
type Client struct {
	cfg      ClientConfig
	tracker  *Tracker
	onUpdate UpdateFunc
	dialer   *websocket.Dialer
	logger   *zap.Logger

	mu        sync.Mutex
	isRunning bool
	cancel    context.CancelFunc
	done      chan struct{}
	connected atomic.Bool
}

// NewClient creates a progress Client. onUpdate may be nil.
func NewClient(cfg ClientConfig, tracker *Tracker, onUpdate UpdateFunc, logger *zap.Logger) *Client {
	if cfg.ReconnectDelay <= 0 {
		cfg.ReconnectDelay = defaultReconnectDelay
	}
	return &Client{
		cfg:      cfg,
		tracker:  tracker,
		onUpdate: onUpdate,
		dialer: &websocket.Dialer{
			HandshakeTimeout: 10 * time.Second,
		},
		logger: logger,
	}
}

// Name returns the worker name
func (c *Client) Name() string {
	return "JobProgressClient"
}

// Start connects in the background
func (c *Client) Start(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.isRunning {
		return fmt.Errorf("job progress client is already running")
	}
	if c.cfg.URL == "" {
		return fmt.Errorf("job progress URL is empty")
	}

	ctx, cancel := context.WithCancel(ctx)
	c.cancel = cancel
	c.done = make(chan struct{})
	c.isRunning = true

	go c.run(ctx)

	c.logger.Info("Job progress client started",
		zap.String("url", c.cfg.URL),
		zap.Duration("reconnect_delay", c.cfg.ReconnectDelay))
	return nil
}

// Stop closes the connection and waits for the loop to exit
func (c *Client) Stop() error {
	c.mu.Lock()
	if !c.isRunning {
		c.mu.Unlock()
		return nil
	}
	c.cancel()
	done := c.done
	c.isRunning = false
	c.mu.Unlock()

	<-done
	c.logger.Info("Job progress client stopped")
	return nil
}

// Connected reports whether the upstream connection is open
func (c *Client) Connected() bool {
	return c.connected.Load()
}

func (c *Client) run(ctx context.Context) {
	defer close(c.done)

	for {
		err := c.session(ctx)
		if ctx.Err() != nil {
			return
		}
		if err != nil {
			c.logger.Warn("Job progress stream disconnected",
				zap.Error(err),
				zap.Duration("retry_in", c.cfg.ReconnectDelay))
		}

		timer := time.NewTimer(c.cfg.ReconnectDelay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
		}
	}
}

// session dials once and reads until the connection fails or ctx ends
func (c *Client) session(ctx context.Context) error {
	conn, _, err := c.dialer.DialContext(ctx, c.cfg.URL, c.cfg.Header)
	if err != nil {
		return fmt.Errorf("dial %s: %w", c.cfg.URL, err)
	}
	c.connected.Store(true)
	defer c.connected.Store(false)

	stop := make(chan struct{})
	defer close(stop)
	go func() {
		select {
		case <-ctx.Done():
			_ = conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
				time.Now().Add(time.Second))
			conn.Close()
		case <-stop:
			conn.Close()
		}
	}()

	c.logger.Info("Job progress stream connected", zap.String("url", c.cfg.URL))

	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			return err
		}
		c.handle(ctx, raw)
	}
}

func (c *Client) handle(ctx context.Context, raw []byte) {
	msg, err := DecodeMessage(raw)
	if err != nil {
		c.logger.Warn("Ignoring malformed progress message", zap.Error(err))
		return
	}
	changed, err := c.tracker.Apply(msg)
	if err != nil {
		c.logger.Warn("Ignoring progress message",
			zap.String("type", string(msg.Type)),
			zap.Error(err))
		return
	}
	if changed && c.onUpdate != nil {
		c.onUpdate(ctx, c.tracker.Snapshot())
	}
}
