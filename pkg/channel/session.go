package channel

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/starrain-dev/botctl/pkg/api"
	"github.com/starrain-dev/botctl/pkg/protocol"
)

const (
	// DefaultReconnectDelay is how long the session waits after a transient
	// closure before starting a new handshake.
	DefaultReconnectDelay = 3 * time.Second

	// DefaultAckTimeout bounds how long the session waits for the
	// controller's auth acknowledgement after sending the auth frame.
	DefaultAckTimeout = 15 * time.Second
)

// State is the session's connection lifecycle state. It changes only inside
// the session; callers observe transitions through the status observer.
type State uint8

const (
	StateIdle State = iota
	StateAuthenticating
	StateOpen
	StateClosed
)

// String returns the string representation of the state.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "Idle"
	case StateAuthenticating:
		return "Authenticating"
	case StateOpen:
		return "Open"
	case StateClosed:
		return "Closed"
	default:
		return "Unknown"
	}
}

// Status is a connectivity notification pushed to the status observer.
type Status uint8

const (
	// StatusConnected: the handshake completed and the channel is open.
	StatusConnected Status = iota

	// StatusDisconnected: the transport closed, for any reason.
	StatusDisconnected

	// StatusNonceFailed: the challenge could not be obtained; no transport
	// was opened.
	StatusNonceFailed

	// StatusExpired: the controller closed the channel because the
	// credential is no longer valid. No reconnection follows.
	StatusExpired

	// StatusMaxConn: the controller refused the connection because its
	// connection limit was reached. No reconnection follows.
	StatusMaxConn
)

// String returns the string representation of the status.
func (s Status) String() string {
	switch s {
	case StatusConnected:
		return "Connected"
	case StatusDisconnected:
		return "Disconnected"
	case StatusNonceFailed:
		return "NonceFailed"
	case StatusExpired:
		return "Expired"
	case StatusMaxConn:
		return "MaxConn"
	default:
		return "Unknown"
	}
}

// MessageFunc observes inbound event envelopes, in transport arrival order.
type MessageFunc func(protocol.Message)

// StatusFunc observes connectivity changes.
type StatusFunc func(Status)

// Config configures a Session. Client is required; everything else has a
// default.
type Config struct {
	// URL is the WebSocket endpoint. Derived from the API client's base URL
	// ("/ws", http→ws) when empty.
	URL string

	// OnMessage receives every post-handshake inbound envelope.
	OnMessage MessageFunc

	// OnStatus receives connectivity notifications.
	OnStatus StatusFunc

	// Dialer opens the transport. Defaults to a gorilla/websocket dialer.
	Dialer Dialer

	// Logger is the structured logger. Defaults to slog.Default().
	Logger *slog.Logger

	// ReconnectDelay between a transient closure and the next handshake.
	ReconnectDelay time.Duration

	// AckTimeout bounds the wait for the auth acknowledgement.
	AckTimeout time.Duration
}

// Session owns one logical control channel connection at a time and drives
// the handshake, steady-state delivery, and reconnection policy.
type Session struct {
	client *api.Client
	url    string
	dialer Dialer
	logger *slog.Logger

	onMessage MessageFunc
	onStatus  StatusFunc

	reconnectDelay time.Duration
	ackTimeout     time.Duration

	// after schedules the reconnect timer. Swapped in tests.
	after func(d time.Duration, f func()) *time.Timer

	mu      sync.Mutex
	state   State
	conn    Conn
	desired bool
	// gen invalidates stale goroutines and timers: every new connection
	// attempt and every explicit disconnect bumps it, and anything holding
	// an older value stands down.
	gen uint64
}

// New creates a Session using client for the challenge exchange. The session
// starts Idle; nothing happens until Connect.
func New(client *api.Client, cfg Config) *Session {
	s := &Session{
		client:         client,
		url:            cfg.URL,
		dialer:         cfg.Dialer,
		logger:         cfg.Logger,
		onMessage:      cfg.OnMessage,
		onStatus:       cfg.OnStatus,
		reconnectDelay: cfg.ReconnectDelay,
		ackTimeout:     cfg.AckTimeout,
		after:          time.AfterFunc,
		state:          StateIdle,
	}
	if s.url == "" {
		s.url = deriveWebSocketURL(client.BaseURL())
	}
	if s.dialer == nil {
		s.dialer = NewDialer(10 * time.Second)
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	if s.reconnectDelay <= 0 {
		s.reconnectDelay = DefaultReconnectDelay
	}
	if s.ackTimeout <= 0 {
		s.ackTimeout = DefaultAckTimeout
	}
	return s
}

// deriveWebSocketURL maps the controller's HTTP base URL to its WebSocket
// endpoint.
func deriveWebSocketURL(base string) string {
	switch {
	case strings.HasPrefix(base, "https://"):
		return "wss://" + strings.TrimPrefix(base, "https://") + "/ws"
	case strings.HasPrefix(base, "http://"):
		return "ws://" + strings.TrimPrefix(base, "http://") + "/ws"
	default:
		return base + "/ws"
	}
}

// State returns the current lifecycle state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Connect starts a connection attempt. Any live transport is retired first,
// so at most one logical connection exists. The attempt runs asynchronously;
// its outcome is reported through the status observer.
func (s *Session) Connect(ctx context.Context) {
	s.mu.Lock()
	if s.conn != nil {
		s.conn.Close()
		s.conn = nil
	}
	s.desired = true
	s.gen++
	gen := s.gen
	s.state = StateAuthenticating
	s.mu.Unlock()

	go s.connect(ctx, gen)
}

// Disconnect tears the channel down and abandons any scheduled reconnection.
// The session returns to Idle and stays there until the next Connect.
func (s *Session) Disconnect() {
	s.mu.Lock()
	s.desired = false
	s.gen++
	if s.conn != nil {
		s.conn.Close()
		s.conn = nil
	}
	s.state = StateIdle
	s.mu.Unlock()
}

// Send writes a payload to the controller. A silent no-op unless the channel
// is open: payloads are never queued and never error while disconnected.
func (s *Session) Send(payload []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateOpen || s.conn == nil {
		return
	}
	if err := s.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
		s.logger.Warn("channel write failed", "error", err)
	}
}

// connect runs one full handshake attempt for generation gen.
func (s *Session) connect(ctx context.Context, gen uint64) {
	credential := s.client.Credential()
	if credential == "" {
		// Fail fast: no credential means no challenge and no transport.
		s.logger.Info("connect refused: no credential held")
		s.abandonAttempt(gen)
		s.notify(StatusNonceFailed)
		return
	}

	nonce, err := s.client.Nonce(ctx)
	if err != nil || nonce == "" {
		s.logger.Warn("challenge fetch failed", "error", err)
		metrics().authFailures.Inc()
		s.abandonAttempt(gen)
		s.notify(StatusNonceFailed)
		return
	}

	signature := protocol.Sign(nonce, credential)

	conn, err := s.dialer.DialContext(ctx, s.url)
	if err != nil {
		s.logger.Warn("transport dial failed", "url", s.url, "error", err)
		s.mu.Lock()
		if s.gen == gen {
			s.state = StateClosed
		}
		s.mu.Unlock()
		s.notify(StatusDisconnected)
		s.maybeScheduleReconnect(ctx, gen, protocol.CloseTransport)
		return
	}

	s.mu.Lock()
	if s.gen != gen || !s.desired {
		// Disconnect (or a newer Connect) raced the dial; this transport
		// must not survive.
		s.mu.Unlock()
		conn.Close()
		return
	}
	s.conn = conn
	s.mu.Unlock()

	frame, err := protocol.EncodeAuthRequest(nonce, signature)
	if err == nil {
		err = conn.WriteMessage(websocket.TextMessage, frame)
	}
	if err != nil {
		s.logger.Warn("auth frame write failed", "error", err)
		conn.Close()
		s.handleClose(ctx, gen, err)
		return
	}

	s.readLoop(ctx, conn, gen)
}

// readLoop reads frames until the transport dies. Frames received before a
// valid auth acknowledgement are never forwarded.
func (s *Session) readLoop(ctx context.Context, conn Conn, gen uint64) {
	authenticated := false
	conn.SetReadDeadline(time.Now().Add(s.ackTimeout))

	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			s.handleClose(ctx, gen, err)
			return
		}

		if !authenticated {
			if !protocol.IsAuthAck(raw) {
				// Strict gating: pre-ack traffic is dropped, whatever it is.
				metrics().dropped.Inc()
				continue
			}
			authenticated = true
			conn.SetReadDeadline(time.Time{})

			s.mu.Lock()
			if s.gen != gen {
				s.mu.Unlock()
				return
			}
			s.state = StateOpen
			s.mu.Unlock()

			s.logger.Info("control channel open", "url", s.url)
			metrics().connects.Inc()
			metrics().up.Set(1)
			s.notify(StatusConnected)
			continue
		}

		msg, ok := protocol.ParseMessage(raw)
		if !ok {
			metrics().dropped.Inc()
			continue
		}
		metrics().messages.Inc()
		if s.onMessage != nil {
			s.onMessage(msg)
		}
	}
}

// handleClose records a dead transport for generation gen, notifies the
// observer, classifies the close code, and applies the reconnection policy.
func (s *Session) handleClose(ctx context.Context, gen uint64, err error) {
	s.mu.Lock()
	if s.gen != gen {
		// An explicit Disconnect or newer Connect already took over.
		s.mu.Unlock()
		return
	}
	s.conn = nil
	s.state = StateClosed
	s.mu.Unlock()

	metrics().up.Set(0)
	s.notify(StatusDisconnected)

	reason := closeReasonFromError(err)
	s.logger.Info("control channel closed", "reason", reason.String(), "error", err)

	switch reason {
	case protocol.CloseExpired:
		s.mu.Lock()
		s.desired = false
		s.mu.Unlock()
		s.notify(StatusExpired)
	case protocol.CloseLimit:
		s.mu.Lock()
		s.desired = false
		s.mu.Unlock()
		s.notify(StatusMaxConn)
	default:
		s.maybeScheduleReconnect(ctx, gen, reason)
	}
}

// maybeScheduleReconnect schedules exactly one new handshake after the
// reconnect delay, provided a credential is still held. The timer re-checks
// desired state and generation when it fires, so an attempt scheduled before
// an explicit Disconnect never resurrects the channel.
func (s *Session) maybeScheduleReconnect(ctx context.Context, gen uint64, reason protocol.CloseReason) {
	if !reason.Reconnectable() {
		return
	}
	if s.client.Credential() == "" {
		// The request layer may have invalidated the credential in the
		// meantime; reconnecting without one cannot succeed.
		s.logger.Info("reconnect skipped: credential cleared")
		return
	}

	s.mu.Lock()
	if !s.desired || s.gen != gen {
		s.mu.Unlock()
		return
	}
	s.mu.Unlock()

	s.logger.Info("reconnect scheduled", "delay", s.reconnectDelay)
	s.after(s.reconnectDelay, func() {
		s.mu.Lock()
		if !s.desired || s.gen != gen || s.client.Credential() == "" {
			s.mu.Unlock()
			return
		}
		s.gen++
		next := s.gen
		s.state = StateAuthenticating
		s.mu.Unlock()

		metrics().reconnects.Inc()
		go s.connect(ctx, next)
	})
}

// abandonAttempt rolls the session back to Idle when a handshake dies before
// any transport was opened.
func (s *Session) abandonAttempt(gen uint64) {
	s.mu.Lock()
	if s.gen == gen {
		s.state = StateIdle
	}
	s.mu.Unlock()
}

// notify pushes a status to the observer. Called without holding mu so
// observers may call back into the session.
func (s *Session) notify(status Status) {
	if s.onStatus != nil {
		s.onStatus(status)
	}
}

// closeReasonFromError extracts the close code from a read error. Anything
// that is not a proper close frame (timeouts, resets, EOF) counts as a
// transport error.
func closeReasonFromError(err error) protocol.CloseReason {
	var closeErr *websocket.CloseError
	if errors.As(err, &closeErr) {
		return protocol.ClassifyClose(closeErr.Code)
	}
	return protocol.CloseTransport
}
