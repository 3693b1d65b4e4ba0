package e2e

import (
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/gorilla/websocket"

	"campuslink/domain"
)

// platform is an in-process stand-in for the academic productivity backend:
// the three token endpoints plus the per-conversation websocket. Tokens are
// real signed JWTs so the client-side claim decoding is exercised for real.
type platform struct {
	secret    []byte
	username  string
	password  string
	userID    int64
	accessTTL time.Duration
	logFrame  func(direction, payload string)

	mu           sync.Mutex
	refreshCalls int
	wsConns      []*websocket.Conn

	srv      *httptest.Server
	upgrader websocket.Upgrader
}

func newPlatform(username, password string, accessTTL time.Duration) *platform {
	p := &platform{
		secret:    []byte("e2e-signing-secret"),
		username:  username,
		password:  password,
		userID:    7,
		accessTTL: accessTTL,
	}
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/token/", p.issueToken)
	mux.HandleFunc("POST /api/token/refresh/", p.refreshToken)
	mux.HandleFunc("POST /api/face-login/", p.faceLogin)
	mux.HandleFunc("/ws/chat/", p.chatSocket)
	p.srv = httptest.NewServer(mux)
	return p
}

func (p *platform) close() {
	p.dropConnections()
	p.srv.Close()
}

// restBase matches what internal.Config.RESTBase would point at.
func (p *platform) restBase() string {
	return p.srv.URL + "/api"
}

func (p *platform) channelBase() string {
	return "ws" + strings.TrimPrefix(p.srv.URL, "http")
}

func (p *platform) refreshCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.refreshCalls
}

// dropConnections kills every live websocket without a close handshake,
// simulating a network partition from the client's point of view.
func (p *platform) dropConnections() {
	p.mu.Lock()
	conns := p.wsConns
	p.wsConns = nil
	p.mu.Unlock()
	for _, c := range conns {
		_ = c.Close()
	}
}

// issuePair signs a fresh access/refresh pair. Exposed to tests so a near-dead
// session can be planted straight into the store, as a page reload would.
func (p *platform) issuePair(accessTTL time.Duration) domain.Credential {
	now := time.Now()
	access := p.sign(jwt.MapClaims{
		"username": p.username,
		"user_id":  p.userID,
		"iat":      now.Unix(),
		"exp":      now.Add(accessTTL).Unix(),
	})
	refresh := p.sign(jwt.MapClaims{
		"user_id": p.userID,
		"typ":     "refresh",
		"iat":     now.Unix(),
		"exp":     now.Add(24 * time.Hour).Unix(),
	})
	return domain.Credential{Access: access, Refresh: refresh}
}

func (p *platform) sign(claims jwt.MapClaims) string {
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(p.secret)
	if err != nil {
		panic(err)
	}
	return signed
}

func (p *platform) validToken(raw string) bool {
	token, err := jwt.Parse(raw, func(*jwt.Token) (any, error) { return p.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	return err == nil && token.Valid
}

func (p *platform) issueToken(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}
	if req.Username != p.username || req.Password != p.password {
		http.Error(w, "no active account found", http.StatusUnauthorized)
		return
	}
	p.writePair(w)
}

func (p *platform) refreshToken(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Refresh string `json:"refresh"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}
	if !p.validToken(req.Refresh) {
		http.Error(w, "token is invalid or expired", http.StatusUnauthorized)
		return
	}
	p.mu.Lock()
	p.refreshCalls++
	p.mu.Unlock()
	p.writePair(w)
}

func (p *platform) faceLogin(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Image string `json:"image"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}
	capture, err := base64.StdEncoding.DecodeString(req.Image)
	if err != nil || len(capture) == 0 {
		http.Error(w, "no face match", http.StatusUnauthorized)
		return
	}
	p.writePair(w)
}

func (p *platform) writePair(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(p.issuePair(p.accessTTL))
}

// chatSocket upgrades and echoes: each inbound {message} comes back as
// {username, message, timestamp}, exactly the platform's frame shape.
func (p *platform) chatSocket(w http.ResponseWriter, r *http.Request) {
	if !p.validToken(r.URL.Query().Get("token")) {
		http.Error(w, "invalid token", http.StatusForbidden)
		return
	}
	conn, err := p.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	p.mu.Lock()
	p.wsConns = append(p.wsConns, conn)
	p.mu.Unlock()

	go func() {
		defer func() { _ = conn.Close() }()
		for {
			var frame struct {
				Message string `json:"message"`
			}
			if err := conn.ReadJSON(&frame); err != nil {
				return
			}
			if p.logFrame != nil {
				p.logFrame("recv", frame.Message)
			}
			err := conn.WriteJSON(map[string]string{
				"username":  p.username,
				"message":   frame.Message,
				"timestamp": time.Now().Format(time.RFC3339),
			})
			if err != nil {
				return
			}
		}
	}()
}
