package channel

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/starrain-dev/botctl/internal/ctltest"
	"github.com/starrain-dev/botctl/pkg/api"
	"github.com/starrain-dev/botctl/pkg/protocol"
)

// harness wires a session to a fake controller and records everything the
// observers see.
type harness struct {
	srv     *ctltest.Server
	client  *api.Client
	session *Session

	mu       sync.Mutex
	statuses []Status
	messages []protocol.Message
	notify   chan struct{}
}

func newHarness(t *testing.T, delay time.Duration) *harness {
	t.Helper()
	srv := ctltest.New()
	t.Cleanup(srv.Close)

	client := api.New(srv.URL())
	client.SetCredential(srv.IssueToken())

	h := &harness{
		srv:    srv,
		client: client,
		notify: make(chan struct{}, 64),
	}
	h.session = New(client, Config{
		ReconnectDelay: delay,
		OnMessage: func(msg protocol.Message) {
			h.mu.Lock()
			h.messages = append(h.messages, msg)
			h.mu.Unlock()
			h.ping()
		},
		OnStatus: func(st Status) {
			h.mu.Lock()
			h.statuses = append(h.statuses, st)
			h.mu.Unlock()
			h.ping()
		},
	})
	t.Cleanup(h.session.Disconnect)
	return h
}

func (h *harness) ping() {
	select {
	case h.notify <- struct{}{}:
	default:
	}
}

func (h *harness) statusList() []Status {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]Status(nil), h.statuses...)
}

func (h *harness) messageList() []protocol.Message {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]protocol.Message(nil), h.messages...)
}

// waitStatus blocks until status appears in the observer log.
func (h *harness) waitStatus(t *testing.T, status Status) {
	t.Helper()
	deadline := time.After(5 * time.Second)
	for {
		for _, st := range h.statusList() {
			if st == status {
				return
			}
		}
		select {
		case <-h.notify:
		case <-deadline:
			t.Fatalf("timed out waiting for status %v, saw %v", status, h.statusList())
		}
	}
}

// waitFor polls until cond holds.
func waitFor(t *testing.T, cond func() bool, msg string) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal(msg)
}

func countStatus(list []Status, status Status) int {
	n := 0
	for _, st := range list {
		if st == status {
			n++
		}
	}
	return n
}

func TestConnectHandshake(t *testing.T) {
	h := newHarness(t, 50*time.Millisecond)

	h.session.Connect(context.Background())
	h.waitStatus(t, StatusConnected)

	if got := h.session.State(); got != StateOpen {
		t.Errorf("State() = %v, want Open", got)
	}
	waitFor(t, func() bool { return h.srv.ClientCount() == 1 }, "controller saw no authenticated client")
}

func TestConnectWithoutCredentialFailsFast(t *testing.T) {
	h := newHarness(t, 50*time.Millisecond)
	h.client.ClearCredential()

	h.session.Connect(context.Background())
	h.waitStatus(t, StatusNonceFailed)

	if h.srv.NonceCount() != 0 {
		t.Error("no challenge fetch should happen without a credential")
	}
	if h.srv.ClientCount() != 0 {
		t.Error("no transport should be opened without a credential")
	}
}

func TestNonceFailure(t *testing.T) {
	h := newHarness(t, 50*time.Millisecond)
	h.srv.RevokeToken(h.client.Credential())

	h.session.Connect(context.Background())
	h.waitStatus(t, StatusNonceFailed)

	if h.srv.ClientCount() != 0 {
		t.Error("challenge failure must not open a transport")
	}
	if got := h.session.State(); got != StateIdle {
		t.Errorf("State() = %v, want Idle", got)
	}
	if countStatus(h.statusList(), StatusConnected) != 0 {
		t.Error("session must not report connected")
	}
}

func TestPreAckFramesNotForwarded(t *testing.T) {
	h := newHarness(t, 50*time.Millisecond)
	h.srv.PreAuthFrames = [][]byte{
		[]byte(`{"type":"plugin_update","plugin":"sneaky"}`),
		[]byte(`garbage`),
	}

	h.session.Connect(context.Background())
	h.waitStatus(t, StatusConnected)

	h.srv.Broadcast(map[string]any{"type": "system", "action": "notice"})
	waitFor(t, func() bool { return len(h.messageList()) >= 1 }, "post-ack event never arrived")

	msgs := h.messageList()
	if len(msgs) != 1 {
		t.Fatalf("observer saw %d messages, want only the post-ack one: %v", len(msgs), msgs)
	}
	if msgs[0].Type != "system" {
		t.Errorf("first forwarded message = %q, want the post-ack event", msgs[0].Type)
	}
}

func TestMalformedFramesDropped(t *testing.T) {
	h := newHarness(t, 50*time.Millisecond)

	h.session.Connect(context.Background())
	h.waitStatus(t, StatusConnected)

	h.srv.BroadcastRaw([]byte(`{{{{not json`))
	h.srv.BroadcastRaw([]byte(`{"no_type_field":1}`))
	h.srv.Broadcast(map[string]any{"type": "log", "line": "ok"})

	waitFor(t, func() bool { return len(h.messageList()) >= 1 }, "valid event never arrived")
	msgs := h.messageList()
	if len(msgs) != 1 || msgs[0].Type != "log" {
		t.Errorf("observer saw %v, want only the valid event", msgs)
	}
	if got := h.session.State(); got != StateOpen {
		t.Errorf("State() = %v after malformed input, want Open", got)
	}
}

func TestExpiredCloseNoReconnect(t *testing.T) {
	h := newHarness(t, 50*time.Millisecond)

	h.session.Connect(context.Background())
	h.waitStatus(t, StatusConnected)

	h.srv.CloseClients(protocol.CloseCredentialExpired)
	h.waitStatus(t, StatusDisconnected)
	h.waitStatus(t, StatusExpired)

	before := h.srv.NonceCount()
	time.Sleep(300 * time.Millisecond)
	if h.srv.NonceCount() != before {
		t.Error("no reconnection may follow a credential_expired close")
	}
}

func TestMaxConnCloseNoReconnect(t *testing.T) {
	h := newHarness(t, 50*time.Millisecond)
	h.srv.RefuseWebSocket(protocol.CloseConnectionLimit)

	h.session.Connect(context.Background())
	h.waitStatus(t, StatusDisconnected)
	h.waitStatus(t, StatusMaxConn)

	before := h.srv.NonceCount()
	time.Sleep(300 * time.Millisecond)
	if h.srv.NonceCount() != before {
		t.Error("no reconnection may follow a connection_limit close")
	}
}

func TestReconnectAfterTransportLoss(t *testing.T) {
	h := newHarness(t, 50*time.Millisecond)

	h.session.Connect(context.Background())
	h.waitStatus(t, StatusConnected)

	h.srv.CloseClients(websocket.CloseInternalServerErr)
	h.waitStatus(t, StatusDisconnected)

	waitFor(t, func() bool {
		return countStatus(h.statusList(), StatusConnected) >= 2
	}, "session did not reconnect after a transient closure")

	if h.srv.NonceCount() < 2 {
		t.Error("a reconnect must fetch a fresh challenge")
	}
	if got := h.session.State(); got != StateOpen {
		t.Errorf("State() = %v after reconnect, want Open", got)
	}
}

func TestDisconnectCancelsScheduledReconnect(t *testing.T) {
	h := newHarness(t, 150*time.Millisecond)

	h.session.Connect(context.Background())
	h.waitStatus(t, StatusConnected)
	nonceAfterConnect := h.srv.NonceCount()

	h.srv.CloseClients(websocket.CloseInternalServerErr)
	h.waitStatus(t, StatusDisconnected)

	// The reconnect is now scheduled. An explicit disconnect in the window
	// must keep the timer from resurrecting the channel.
	h.session.Disconnect()
	time.Sleep(500 * time.Millisecond)

	if h.srv.NonceCount() != nonceAfterConnect {
		t.Error("a scheduled reconnect fired after an explicit disconnect")
	}
	if got := h.session.State(); got != StateIdle {
		t.Errorf("State() = %v, want Idle", got)
	}
}

func TestClearedCredentialSkipsReconnect(t *testing.T) {
	h := newHarness(t, 50*time.Millisecond)

	h.session.Connect(context.Background())
	h.waitStatus(t, StatusConnected)
	nonceAfterConnect := h.srv.NonceCount()

	h.client.ClearCredential()
	h.srv.CloseClients(websocket.CloseInternalServerErr)
	h.waitStatus(t, StatusDisconnected)

	time.Sleep(300 * time.Millisecond)
	if h.srv.NonceCount() != nonceAfterConnect {
		t.Error("reconnection must not run once the credential is cleared")
	}
}

func TestSendIsNoopWhileClosed(t *testing.T) {
	h := newHarness(t, 50*time.Millisecond)

	// Never connected: must not panic, must not open anything.
	h.session.Send([]byte(`{"type":"ping"}`))
	if h.srv.ClientCount() != 0 {
		t.Error("Send() while idle must not touch the transport")
	}

	h.session.Connect(context.Background())
	h.waitStatus(t, StatusConnected)
	h.session.Disconnect()

	h.session.Send([]byte(`{"type":"ping"}`))
	if got := h.session.State(); got != StateIdle {
		t.Errorf("State() = %v, want Idle", got)
	}
}

func TestConnectRetiresPreviousTransport(t *testing.T) {
	h := newHarness(t, 50*time.Millisecond)

	h.session.Connect(context.Background())
	h.waitStatus(t, StatusConnected)

	h.session.Connect(context.Background())
	waitFor(t, func() bool {
		return countStatus(h.statusList(), StatusConnected) >= 2
	}, "second connect never completed")

	waitFor(t, func() bool { return h.srv.ClientCount() == 1 },
		"at most one logical connection may be live")
}

func TestDeriveWebSocketURL(t *testing.T) {
	tests := []struct {
		base string
		want string
	}{
		{"http://127.0.0.1:8080", "ws://127.0.0.1:8080/ws"},
		{"https://bot.example.com", "wss://bot.example.com/ws"},
	}
	for _, tc := range tests {
		if got := deriveWebSocketURL(tc.base); got != tc.want {
			t.Errorf("deriveWebSocketURL(%q) = %q, want %q", tc.base, got, tc.want)
		}
	}
}
