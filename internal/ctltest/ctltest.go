// Package ctltest provides an in-process fake bot controller for tests. It
// speaks the same HTTP API and control channel handshake as the production
// controller, with hooks to script failures, delays, and close codes.
package ctltest

import (
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	"github.com/starrain-dev/botctl/pkg/protocol"
)

// Credentials accepted by the fake controller.
const (
	Username = "admin"
	Password = "admin123"
)

// Server is a fake controller. All exported fields are safe to set before
// the first request; the hook fields may be swapped between requests under
// test control.
type Server struct {
	HTTP *httptest.Server

	mu       sync.Mutex
	tokens   map[string]bool
	nonces   map[string]string // nonce -> token that requested it
	conns    []*websocket.Conn
	enabled  map[string]bool
	upgrader websocket.Upgrader

	nonceCalls int

	// Delay is applied to every API call before responding. Used to drive
	// the request layer past its deadline.
	Delay time.Duration

	// failStatus/failBody script the next API response; zero means normal.
	failStatus int
	failBody   string

	// refuseWS closes every websocket attempt with this code before the
	// handshake when non-zero.
	refuseWS int

	// PreAuthFrames are sent to the client after a valid auth frame but
	// before the acknowledgement, to exercise handshake gating. Set before
	// connecting.
	PreAuthFrames [][]byte
}

// New starts a fake controller. Callers own Close.
func New() *Server {
	s := &Server{
		tokens:  make(map[string]bool),
		nonces:  make(map[string]string),
		enabled: map[string]bool{"echo": true, "admin": true, "currency": false},
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}

	r := chi.NewRouter()
	r.Post("/api/login", s.handleLogin)
	r.Route("/api", func(r chi.Router) {
		r.Use(s.requireAuth)
		r.Post("/logout", s.handleLogout)
		r.Get("/ws/nonce", s.handleNonce)
		r.Get("/status", s.handleStatus)
		r.Get("/plugins", s.handlePlugins)
		r.Post("/plugins/enable", s.handlePluginToggle(true))
		r.Post("/plugins/disable", s.handlePluginToggle(false))
		r.Post("/plugins/reload", s.handleOK)
		r.Get("/permissions/admins", s.handlePermissions)
		r.Post("/permissions/{tier}/add", s.handleOK)
		r.Post("/permissions/{tier}/remove", s.handleOK)
		r.Get("/blacklist", s.handleBlacklist)
		r.Post("/blacklist/add", s.handleOK)
		r.Post("/blacklist/remove", s.handleOK)
		r.Get("/logs", s.handleLogs)
		r.Post("/message/send", s.handleOK)
		r.Get("/friends", s.handleFriends)
		r.Get("/groups", s.handleGroups)
		r.Post("/system/restart", s.handleConfirmed)
		r.Post("/system/shutdown", s.handleConfirmed)
	})
	r.Get("/ws", s.handleWS)

	s.HTTP = httptest.NewServer(r)
	return s
}

// Close shuts the fake controller down.
func (s *Server) Close() {
	s.CloseClients(websocket.CloseGoingAway)
	s.HTTP.Close()
}

// URL returns the controller's HTTP base URL.
func (s *Server) URL() string {
	return s.HTTP.URL
}

// IssueToken mints a valid bearer credential without going through login.
func (s *Server) IssueToken() string {
	token := randomHex(16)
	s.mu.Lock()
	s.tokens[token] = true
	s.mu.Unlock()
	return token
}

// RevokeToken invalidates a credential; later calls with it get 401.
func (s *Server) RevokeToken(token string) {
	s.mu.Lock()
	delete(s.tokens, token)
	s.mu.Unlock()
}

// FailNext scripts the next authenticated API response.
func (s *Server) FailNext(status int, body string) {
	s.mu.Lock()
	s.failStatus = status
	s.failBody = body
	s.mu.Unlock()
}

// RefuseWebSocket closes every new channel connection with code before the
// auth exchange. Zero restores normal behavior.
func (s *Server) RefuseWebSocket(code int) {
	s.mu.Lock()
	s.refuseWS = code
	s.mu.Unlock()
}

// Broadcast pushes an event envelope to every authenticated channel client.
func (s *Server) Broadcast(v any) {
	data, err := json.Marshal(v)
	if err != nil {
		return
	}
	s.mu.Lock()
	conns := append([]*websocket.Conn(nil), s.conns...)
	s.mu.Unlock()
	for _, c := range conns {
		c.WriteMessage(websocket.TextMessage, data)
	}
}

// BroadcastRaw pushes a raw text frame, valid JSON or not.
func (s *Server) BroadcastRaw(data []byte) {
	s.mu.Lock()
	conns := append([]*websocket.Conn(nil), s.conns...)
	s.mu.Unlock()
	for _, c := range conns {
		c.WriteMessage(websocket.TextMessage, data)
	}
}

// CloseClients closes every channel client with the given close code.
func (s *Server) CloseClients(code int) {
	s.mu.Lock()
	conns := s.conns
	s.conns = nil
	s.mu.Unlock()
	for _, c := range conns {
		c.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(code, ""), time.Now().Add(time.Second))
	}
	// Give clients a moment to read the close frame before the TCP teardown,
	// so they observe the scripted code rather than an abnormal closure.
	time.Sleep(50 * time.Millisecond)
	for _, c := range conns {
		c.Close()
	}
}

// NonceCount returns how many challenge fetches the controller has served,
// for reconnect assertions.
func (s *Server) NonceCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.nonceCalls
}

// ClientCount returns how many channel clients are currently authenticated.
func (s *Server) ClientCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.conns)
}

func (s *Server) bearer(r *http.Request) string {
	h := r.Header.Get("Authorization")
	if !strings.HasPrefix(h, "Bearer ") {
		return ""
	}
	return strings.TrimPrefix(h, "Bearer ")
}

func (s *Server) requireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.Delay > 0 {
			time.Sleep(s.Delay)
		}

		s.mu.Lock()
		status, body := s.failStatus, s.failBody
		s.failStatus, s.failBody = 0, ""
		s.mu.Unlock()
		if status != 0 {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(status)
			w.Write([]byte(body))
			return
		}

		token := s.bearer(r)
		s.mu.Lock()
		valid := token != "" && s.tokens[token]
		s.mu.Unlock()
		if !valid {
			writeJSON(w, http.StatusUnauthorized, map[string]any{
				"success": false, "error": "invalid or expired token", "code": 401,
			})
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	if s.Delay > 0 {
		time.Sleep(s.Delay)
	}
	var req struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	json.NewDecoder(r.Body).Decode(&req)
	if req.Username != Username || req.Password != Password {
		writeJSON(w, http.StatusUnauthorized, map[string]any{
			"success": false, "error": "bad username or password", "code": 401,
		})
		return
	}
	token := s.IssueToken()
	writeJSON(w, http.StatusOK, map[string]any{
		"success": true, "token": token, "expires_in": 86400,
	})
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	s.RevokeToken(s.bearer(r))
	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}

func (s *Server) handleNonce(w http.ResponseWriter, r *http.Request) {
	nonce := randomHex(16)
	s.mu.Lock()
	s.nonceCalls++
	s.nonces[nonce] = s.bearer(r)
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "nonce": nonce})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"qq":                    123456789,
		"uptime":                42.5,
		"uptime_formatted":      "42秒",
		"running":               true,
		"adapters":              []map[string]any{{"name": "WebSocketAdapter", "connected": true}},
		"plugins_count":         3,
		"enabled_plugins_count": 2,
	})
}

func (s *Server) handlePlugins(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	var plugins []map[string]any
	for name, enabled := range s.enabled {
		plugins = append(plugins, map[string]any{
			"name": name, "enabled": enabled, "version": "1.0", "author": "test",
		})
	}
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, map[string]any{"plugins": plugins})
}

func (s *Server) handlePluginToggle(enable bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			PluginName string `json:"plugin_name"`
		}
		json.NewDecoder(r.Body).Decode(&req)
		s.mu.Lock()
		_, known := s.enabled[req.PluginName]
		if known {
			s.enabled[req.PluginName] = enable
		}
		s.mu.Unlock()
		if !known {
			writeJSON(w, http.StatusBadRequest, map[string]any{
				"success": false, "error": "not found", "code": 400,
			})
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"success": true})
	}
}

func (s *Server) handlePermissions(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"admins":     []int64{111},
		"owners":     []int64{222},
		"developers": []int64{},
	})
}

func (s *Server) handleBlacklist(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"groups": []int64{987654321}})
}

func (s *Server) handleLogs(w http.ResponseWriter, r *http.Request) {
	lines, _ := strconv.Atoi(r.URL.Query().Get("lines"))
	if lines <= 0 || lines > 500 {
		lines = 100
	}
	logs := make([]string, 0, lines)
	for i := 0; i < lines; i++ {
		logs = append(logs, "2026-08-30 12:00:00 [INFO] line "+strconv.Itoa(i))
	}
	writeJSON(w, http.StatusOK, map[string]any{"logs": logs})
}

func (s *Server) handleFriends(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"friends": []map[string]any{{"user_id": 111, "nickname": "alice"}},
	})
}

func (s *Server) handleGroups(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"groups": []map[string]any{{"group_id": 987654321, "group_name": "dev", "member_count": 3}},
	})
}

func (s *Server) handleConfirmed(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Confirm bool `json:"confirm"`
	}
	json.NewDecoder(r.Body).Decode(&req)
	if !req.Confirm {
		writeJSON(w, http.StatusBadRequest, map[string]any{
			"success": false, "error": "confirmation required", "code": 400,
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}

func (s *Server) handleOK(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}

// handleWS runs the controller side of the channel handshake: the first
// client frame must carry an issued, unconsumed nonce and a signature
// matching the token the nonce was issued to.
func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}

	s.mu.Lock()
	refuse := s.refuseWS
	s.mu.Unlock()
	if refuse != 0 {
		conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(refuse, ""), time.Now().Add(time.Second))
		time.Sleep(50 * time.Millisecond)
		conn.Close()
		return
	}

	conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	_, raw, err := conn.ReadMessage()
	if err != nil {
		conn.Close()
		return
	}
	var auth protocol.AuthRequest
	if err := json.Unmarshal(raw, &auth); err != nil {
		conn.Close()
		return
	}

	s.mu.Lock()
	token, issued := s.nonces[auth.Challenge]
	delete(s.nonces, auth.Challenge) // single use
	s.mu.Unlock()
	if !issued || protocol.Sign(auth.Challenge, token) != auth.Signature {
		conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(protocol.CloseCredentialExpired, "Unauthorized"),
			time.Now().Add(time.Second))
		conn.Close()
		return
	}

	conn.SetReadDeadline(time.Time{})
	for _, frame := range s.PreAuthFrames {
		conn.WriteMessage(websocket.TextMessage, frame)
	}
	conn.WriteMessage(websocket.TextMessage, []byte(`{"type":"auth","status":"ok"}`))

	s.mu.Lock()
	s.conns = append(s.conns, conn)
	s.mu.Unlock()

	go func() {
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				s.mu.Lock()
				for i, c := range s.conns {
					if c == conn {
						s.conns = append(s.conns[:i], s.conns[i+1:]...)
						break
					}
				}
				s.mu.Unlock()
				conn.Close()
				return
			}
		}
	}()
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func randomHex(n int) string {
	b := make([]byte, n)
	rand.Read(b)
	return hex.EncodeToString(b)
}
