package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/Riboost-Studio/aep-printer-client/internal/model"
	"github.com/Riboost-Studio/aep-printer-client/internal/utils"
)

var errSuperseded = errors.New("superseded by a newer connect")

const DefaultMaxNesting = 8

// ClientConfig configures a Client. Zero fields fall back to
// DefaultClientConfig values.
type ClientConfig struct {
	RequestTimeout   time.Duration
	HandshakeTimeout time.Duration
	// MaxNesting bounds recursion into ARRAY messages.
	MaxNesting   int
	ScanCapacity int
	Logger       zerolog.Logger
	HTTPClient   *http.Client
	Dialer       *websocket.Dialer
}

func DefaultClientConfig() ClientConfig {
	return ClientConfig{
		RequestTimeout:   10 * time.Second,
		HandshakeTimeout: 10 * time.Second,
		MaxNesting:       DefaultMaxNesting,
		ScanCapacity:     DefaultScanCapacity,
		Logger:           log.Logger,
	}
}

// Client is one connection to a printer: the push channel, the
// request/response API and all state derived from pushed messages.
//
// Frames are dispatched sequentially on the channel's reader goroutine.
// Host callbacks run one at a time and a panicking callback is logged and
// contained.
type Client struct {
	cfg ClientConfig
	log zerolog.Logger

	mu      sync.Mutex
	session *session
	epoch   uint64
	target  utils.Target
	api     *RestAPI
	errs    *ErrorCache

	// dispatchMu serializes frame dispatch and deferred error delivery.
	dispatchMu sync.Mutex

	callbacks callbackSet
	reducer   StateReducer
	batch     BatchTracker
	scans     *ScanBuffer
}

// session is one open push channel.
type session struct {
	id     string
	epoch  uint64
	target utils.Target
	conn   *websocket.Conn
	enums  model.Enums
	log    zerolog.Logger

	// held queues host callbacks behind unresolved error lookups. Guarded by
	// Client.dispatchMu.
	held []*heldCallback

	writeMu   sync.Mutex
	closeOnce sync.Once
	closed    chan struct{}
}

func NewClient(cfg ClientConfig) *Client {
	def := DefaultClientConfig()
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = def.RequestTimeout
	}
	if cfg.HandshakeTimeout <= 0 {
		cfg.HandshakeTimeout = def.HandshakeTimeout
	}
	if cfg.MaxNesting <= 0 {
		cfg.MaxNesting = def.MaxNesting
	}
	if cfg.ScanCapacity <= 0 {
		cfg.ScanCapacity = def.ScanCapacity
	}
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = &http.Client{Timeout: cfg.RequestTimeout}
	}
	if cfg.Dialer == nil {
		cfg.Dialer = &websocket.Dialer{
			Proxy:            http.ProxyFromEnvironment,
			HandshakeTimeout: cfg.HandshakeTimeout,
		}
	}
	return &Client{
		cfg:   cfg,
		log:   cfg.Logger,
		scans: NewScanBuffer(cfg.ScanCapacity),
	}
}

// --- Connection Lifecycle ---

// Connect opens the push channel to target after fetching the enum
// registry and the current status. Any previously open channel is closed
// first. Failures are returned as *model.ConnectionError and are not
// retried.
func (c *Client) Connect(ctx context.Context, target string) error {
	t, err := utils.ResolveTarget(target)
	if err != nil {
		return &model.ConnectionError{Target: target, Op: "resolve", Err: err}
	}

	c.mu.Lock()
	prior := c.session
	c.session = nil
	c.epoch++
	epoch := c.epoch
	if c.api == nil || c.api.BaseURL() != t.BaseURL() {
		c.api = NewRestAPI(t.BaseURL(), c.cfg.HTTPClient)
		c.errs = NewErrorCache(c.api, c.cfg.RequestTimeout)
	}
	c.target = t
	api := c.api
	c.mu.Unlock()

	if prior != nil {
		prior.log.Info().Msg("Closing previous channel")
		prior.close()
	}

	logger := c.log.With().Str("target", t.Host).Logger()
	logger.Info().Msg("Connecting...")

	var (
		enums  model.Enums
		status model.RawStatus
	)
	fetchCtx, cancel := context.WithTimeout(ctx, c.cfg.RequestTimeout)
	defer cancel()
	g, gctx := errgroup.WithContext(fetchCtx)
	g.Go(func() error {
		var err error
		if enums, err = api.FetchEnums(gctx); err != nil {
			return fmt.Errorf("fetch enums: %w", err)
		}
		if enums.MessageTypes.Len() == 0 {
			return fmt.Errorf("fetch enums: empty message type table")
		}
		return nil
	})
	g.Go(func() error {
		var err error
		if status, err = api.FetchStatus(gctx); err != nil {
			return fmt.Errorf("fetch status: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return &model.ConnectionError{Target: t.Host, Op: "registry", Err: err}
	}

	conn, _, err := c.cfg.Dialer.DialContext(ctx, t.PushURL(), nil)
	if err != nil {
		return &model.ConnectionError{Target: t.Host, Op: "handshake", Err: err}
	}

	s := &session{
		id:     uuid.NewString(),
		epoch:  epoch,
		target: t,
		conn:   conn,
		enums:  enums,
		closed: make(chan struct{}),
	}
	s.log = logger.With().Str("session", s.id).Logger()

	c.mu.Lock()
	if c.epoch != epoch {
		c.mu.Unlock()
		conn.Close()
		return &model.ConnectionError{Target: t.Host, Op: "handshake", Err: errSuperseded}
	}
	c.session = s
	c.mu.Unlock()

	s.log.Info().Bool("local", t.Local).Msg("Connected.")

	if t.Local {
		// Tell the printer this client runs on the device itself.
		if code, ok := enums.MessageTypes.Code(model.MessageKbdSleep); ok {
			if err := s.send(model.OutboundFrame{Type: code, Data: model.LocalClientNotice}); err != nil {
				s.log.Warn().Err(err).Msg("Failed to send local client notice")
			}
		} else {
			s.log.Debug().Msg("No KBDSLEEP message type, skipping local client notice")
		}
	}

	seed, changed := c.reducer.Reset(epoch, status)
	go c.pump(s, seed, changed)
	return nil
}

// Close tears down the push channel. Pending deliveries for it are
// discarded.
func (c *Client) Close() error {
	c.mu.Lock()
	s := c.session
	c.session = nil
	c.epoch++
	c.mu.Unlock()
	if s == nil {
		return nil
	}
	s.log.Info().Msg("Closing channel")
	return s.close()
}

// Connected reports whether a push channel is open.
func (c *Client) Connected() bool {
	return c.current() != nil
}

// SessionID identifies the open channel, or is empty.
func (c *Client) SessionID() string {
	if s := c.current(); s != nil {
		return s.id
	}
	return ""
}

// IsLocalClient reports whether the last resolved target is this machine.
func (c *Client) IsLocalClient() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.target.Local
}

// State returns the derived printer state.
func (c *Client) State() model.PrinterState {
	return c.reducer.State()
}

// RawStatus returns the status aggregate of the open channel.
func (c *Client) RawStatus() model.RawStatus {
	return c.reducer.Raw()
}

func (c *Client) HasScanData() bool {
	return c.scans.HasData()
}

// PopScanData returns the oldest buffered scan. ok is false when the buffer
// is empty.
func (c *Client) PopScanData() (data string, ok bool) {
	return c.scans.Pop()
}

func (c *Client) current() *session {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.session
}

func (c *Client) isCurrent(s *session) bool {
	return c.current() == s
}

// pump reads deliveries until the channel closes.
func (c *Client) pump(s *session, seed StateChange, changed bool) {
	if changed {
		c.deliverSeed(s, seed)
	}

	var readErr error
	for {
		_, data, err := s.conn.ReadMessage()
		if err != nil {
			readErr = err
			break
		}
		c.handleDelivery(s, string(data))
	}

	select {
	case <-s.closed:
		s.log.Debug().Msg("Channel closed")
		return
	default:
	}

	s.log.Warn().Err(readErr).Msg("Disconnected.")
	s.close()

	c.mu.Lock()
	dropped := c.session == s
	if dropped {
		c.session = nil
	}
	c.mu.Unlock()
	if !dropped {
		return
	}
	if fn := c.callbacks.snapshot().disconnect; fn != nil {
		c.invoke("disconnect", func() { fn(readErr) })
	}
}

// deliverSeed reports the state fetched at connect time, unless a newer
// Connect has already replaced s.
func (c *Client) deliverSeed(s *session, seed StateChange) {
	c.dispatchMu.Lock()
	defer c.dispatchMu.Unlock()
	if !c.isCurrent(s) {
		s.log.Debug().Stringer("to", seed.To).Msg("Dropping seed state for stale channel")
		return
	}
	c.notifyState(s, seed)
}

func (c *Client) handleDelivery(s *session, raw string) {
	c.dispatchMu.Lock()
	defer c.dispatchMu.Unlock()
	if !c.isCurrent(s) {
		s.log.Debug().Msg("Dropping delivery from stale channel")
		return
	}
	c.onRawFrame(s, raw)
}

// --- Outbound ---

// SendKey simulates a key press on the printer. Codes missing from the key
// table are not sent.
func (c *Client) SendKey(code int) error {
	s := c.current()
	if s == nil {
		return model.ErrNotConnected
	}
	if _, ok := s.enums.Keys.Name(code); !ok {
		s.log.Warn().Int("key", code).Msg("Dropping unknown key code")
		return fmt.Errorf("%w: %d", model.ErrUnknownKey, code)
	}
	msgType, ok := s.enums.MessageTypes.Code(model.MessageExtKey)
	if !ok {
		return fmt.Errorf("message type %s not supported by printer", model.MessageExtKey)
	}
	return s.send(model.OutboundFrame{Type: msgType, Data: code})
}

// SendKeyName is SendKey with the key given by its symbolic name.
func (c *Client) SendKeyName(name string) error {
	s := c.current()
	if s == nil {
		return model.ErrNotConnected
	}
	code, ok := s.enums.Keys.Code(name)
	if !ok {
		s.log.Warn().Str("key", name).Msg("Dropping unknown key name")
		return fmt.Errorf("%w: %s", model.ErrUnknownKey, name)
	}
	return c.SendKey(code)
}

func (s *session) send(frame model.OutboundFrame) error {
	data, err := json.Marshal(frame)
	if err != nil {
		return err
	}
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	return s.conn.WriteMessage(websocket.TextMessage, data)
}

func (s *session) close() error {
	var err error
	s.closeOnce.Do(func() {
		close(s.closed)
		s.writeMu.Lock()
		_ = s.conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(time.Second))
		s.writeMu.Unlock()
		err = s.conn.Close()
	})
	return err
}
