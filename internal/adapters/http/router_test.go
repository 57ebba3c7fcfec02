package http

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/dkeye/LiveTalk/internal/app"
	"github.com/dkeye/LiveTalk/internal/app/orch"
	"github.com/dkeye/LiveTalk/internal/auth"
	"github.com/dkeye/LiveTalk/internal/config"
	"github.com/dkeye/LiveTalk/internal/core"
	"github.com/dkeye/LiveTalk/internal/domain"
	"github.com/dkeye/LiveTalk/internal/identity"
	"github.com/dkeye/LiveTalk/internal/store"
	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"
)

const adminEmail = "root-admin@livetalk.com"

type testServer struct {
	engine *gin.Engine
	orch   *orch.Orchestrator
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	return newTestServerWithSecret(t, "fallback-secret")
}

func newTestServerWithSecret(t *testing.T, secret string) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	cfg := &config.Config{
		Mode:       "test",
		StaticPath: t.TempDir(),
		Secret:     "cookie-secret",
		Auth:       config.AuthConfig{JWTSecret: "jwt-secret", TokenTTL: time.Hour, AvatarBase: "https://avatars.test/svg"},
		Rooms:      config.RoomsConfig{DefaultCapacity: 8, MaxCapacity: 16},
	}
	mem := store.NewMemoryStore()
	boot := auth.NewBootstrap(identity.NewService(mem, bcrypt.MinCost), mem, auth.AdminConfig{
		Email:          adminEmail,
		FallbackSecret: secret,
		Provision:      true,
		Avatar:         "https://logo.test/logo.png",
	}, cfg.Auth.AvatarBase)
	o := &orch.Orchestrator{
		Registry: app.NewRegistry(),
		Rooms:    app.NewRoomManager(cfg.Rooms.MaxCapacity),
		Policy:   app.SimplePolicy{},
		Seats:    app.ModeratedSeatPolicy{},
	}
	engine := SetupRouter(context.Background(), cfg, Deps{
		Orch:     o,
		Auth:     boot,
		Tokens:   auth.NewTokens(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL),
		Accounts: mem,
		Health:   mem,
	})
	return &testServer{engine: engine, orch: o}
}

func (s *testServer) do(t *testing.T, method, path, token string, body any, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	for _, c := range cookies {
		req.AddCookie(c)
	}
	w := httptest.NewRecorder()
	s.engine.ServeHTTP(w, req)
	return w
}

func decodeAuth(t *testing.T, w *httptest.ResponseRecorder) authResponse {
	t.Helper()
	var resp authResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode auth response: %v (%s)", err, w.Body.String())
	}
	return resp
}

func errorCode(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var body struct {
		Code string `json:"code"`
	}
	_ = json.Unmarshal(w.Body.Bytes(), &body)
	return body.Code
}

func register(t *testing.T, s *testServer, email, name string) authResponse {
	t.Helper()
	w := s.do(t, http.MethodPost, "/api/auth/register", "", registerRequest{Email: email, Password: "pw-123456", Name: name})
	if w.Code != http.StatusCreated {
		t.Fatalf("register: status %d body %s", w.Code, w.Body.String())
	}
	return decodeAuth(t, w)
}

func TestRegisterAndLogin(t *testing.T) {
	s := newTestServer(t)

	reg := register(t, s, "alice@example.com", "Alice")
	if reg.Token == "" || reg.Account == nil {
		t.Fatalf("missing token or account: %+v", reg)
	}
	if reg.Account.Coins != auth.StartingCoins || reg.Account.Level != domain.LevelNew || reg.Account.IsAdmin {
		t.Fatalf("unexpected defaults: %+v", reg.Account)
	}

	w := s.do(t, http.MethodPost, "/api/auth/login", "", loginRequest{Email: "alice@example.com", Password: "pw-123456"})
	if w.Code != http.StatusOK {
		t.Fatalf("login: status %d body %s", w.Code, w.Body.String())
	}
	if got := decodeAuth(t, w).Account.ID; got != reg.Account.ID {
		t.Fatalf("login returned %q, registered %q", got, reg.Account.ID)
	}
}

func TestAuthErrorMapping(t *testing.T) {
	s := newTestServer(t)
	register(t, s, "bob@example.com", "Bob")

	cases := []struct {
		name   string
		path   string
		body   any
		status int
		code   string
	}{
		{"empty email", "/api/auth/login", loginRequest{Password: "x"}, http.StatusBadRequest, "invalid_input"},
		{"register without name", "/api/auth/register", registerRequest{Email: "c@example.com", Password: "x"}, http.StatusBadRequest, "invalid_input"},
		{"wrong password", "/api/auth/login", loginRequest{Email: "bob@example.com", Password: "nope"}, http.StatusUnauthorized, "invalid_credentials"},
		{"unknown account", "/api/auth/login", loginRequest{Email: "ghost@example.com", Password: "nope"}, http.StatusUnauthorized, "invalid_credentials"},
		{"email in use", "/api/auth/register", registerRequest{Email: "bob@example.com", Password: "x", Name: "Bob2"}, http.StatusConflict, "email_in_use"},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			w := s.do(t, http.MethodPost, c.path, "", c.body)
			if w.Code != c.status || errorCode(t, w) != c.code {
				t.Fatalf("got %d %q, want %d %q (%s)", w.Code, errorCode(t, w), c.status, c.code, w.Body.String())
			}
		})
	}
}

func TestAdminProvisionedWithFallbackSecret(t *testing.T) {
	s := newTestServer(t)

	w := s.do(t, http.MethodPost, "/api/auth/login", "", loginRequest{Email: "  Root-Admin@LiveTalk.com "})
	if w.Code != http.StatusOK {
		t.Fatalf("admin login: status %d body %s", w.Code, w.Body.String())
	}
	acc := decodeAuth(t, w).Account
	if !acc.IsAdmin || acc.CustomID != auth.AdminCustomID || acc.Avatar != "https://logo.test/logo.png" {
		t.Fatalf("unexpected admin account: %+v", acc)
	}
	if bytes.Contains(w.Body.Bytes(), []byte("fallback-secret")) {
		t.Fatalf("response leaks the fallback secret")
	}
}

func TestMeWithTokenAndSession(t *testing.T) {
	s := newTestServer(t)

	if w := s.do(t, http.MethodGet, "/api/me", "", nil); w.Code != http.StatusUnauthorized {
		t.Fatalf("anonymous /api/me: status %d", w.Code)
	}
	if w := s.do(t, http.MethodGet, "/api/me", "garbage", nil); w.Code != http.StatusUnauthorized {
		t.Fatalf("bad token /api/me: status %d", w.Code)
	}

	w := s.do(t, http.MethodPost, "/api/auth/register", "", registerRequest{Email: "carol@example.com", Password: "pw", Name: "Carol"})
	reg := decodeAuth(t, w)
	cookies := w.Result().Cookies()

	if w := s.do(t, http.MethodGet, "/api/me", reg.Token, nil); w.Code != http.StatusOK {
		t.Fatalf("token /api/me: status %d", w.Code)
	}
	w = s.do(t, http.MethodGet, "/api/me", "", nil, cookies...)
	if w.Code != http.StatusOK {
		t.Fatalf("session /api/me: status %d", w.Code)
	}
	var me domain.Account
	if err := json.Unmarshal(w.Body.Bytes(), &me); err != nil || me.Name != "Carol" {
		t.Fatalf("unexpected /api/me body: %s", w.Body.String())
	}
}

func TestRoomsLifecycle(t *testing.T) {
	s := newTestServer(t)
	user := register(t, s, "dave@example.com", "Dave")

	if w := s.do(t, http.MethodPost, "/api/rooms", "", createRoomRequest{Name: "stage"}); w.Code != http.StatusUnauthorized {
		t.Fatalf("anonymous create: status %d", w.Code)
	}
	if w := s.do(t, http.MethodPost, "/api/rooms", user.Token, createRoomRequest{Name: "huge", Capacity: 99}); w.Code != http.StatusBadRequest {
		t.Fatalf("oversized room: status %d", w.Code)
	}

	w := s.do(t, http.MethodPost, "/api/rooms", user.Token, createRoomRequest{Name: "stage"})
	if w.Code != http.StatusCreated {
		t.Fatalf("create: status %d body %s", w.Code, w.Body.String())
	}
	var info core.RoomInfo
	if err := json.Unmarshal(w.Body.Bytes(), &info); err != nil {
		t.Fatalf("decode room: %v", err)
	}
	if info.Capacity != 8 {
		t.Fatalf("default capacity = %d, want 8", info.Capacity)
	}

	w = s.do(t, http.MethodGet, "/api/rooms", "", nil)
	var list struct {
		Rooms []core.RoomInfo `json:"rooms"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &list); err != nil || len(list.Rooms) != 1 {
		t.Fatalf("unexpected room list: %s", w.Body.String())
	}

	w = s.do(t, http.MethodGet, "/api/rooms/"+string(info.ID)+"/seats", "", nil)
	var seats orch.SeatsMessage
	if err := json.Unmarshal(w.Body.Bytes(), &seats); err != nil || len(seats.Seats) != 8 {
		t.Fatalf("unexpected seats: %s", w.Body.String())
	}
	if w := s.do(t, http.MethodGet, "/api/rooms/missing/seats", "", nil); w.Code != http.StatusNotFound {
		t.Fatalf("missing room seats: status %d", w.Code)
	}

	if w := s.do(t, http.MethodDelete, "/api/rooms/"+string(info.ID), user.Token, nil); w.Code != http.StatusForbidden {
		t.Fatalf("non-admin delete: status %d", w.Code)
	}
	admin := decodeAuth(t, s.do(t, http.MethodPost, "/api/auth/login", "", loginRequest{Email: adminEmail}))
	if w := s.do(t, http.MethodDelete, "/api/rooms/"+string(info.ID), admin.Token, nil); w.Code != http.StatusNoContent {
		t.Fatalf("admin delete: status %d", w.Code)
	}
	if _, ok := s.orch.Rooms.GetRoom(info.ID); ok {
		t.Fatalf("room still registered after delete")
	}
}

func TestHealthAndMetrics(t *testing.T) {
	s := newTestServer(t)
	if w := s.do(t, http.MethodGet, "/healthz", "", nil); w.Code != http.StatusOK {
		t.Fatalf("healthz: status %d", w.Code)
	}
	w := s.do(t, http.MethodGet, "/metrics", "", nil)
	if w.Code != http.StatusOK || !bytes.Contains(w.Body.Bytes(), []byte("livetalk_")) {
		t.Fatalf("metrics: status %d", w.Code)
	}
}

func TestReservedEmailNeedsSecret(t *testing.T) {
	s := newTestServerWithSecret(t, "")

	for i := 0; i < 2; i++ {
		w := s.do(t, http.MethodPost, "/api/auth/login", "", loginRequest{Email: adminEmail, Password: ""})
		if w.Code != http.StatusBadRequest {
			t.Fatalf("attempt %d: empty admin password got status %d body %s", i, w.Code, w.Body.String())
		}
	}
	w := s.do(t, http.MethodPost, "/api/auth/login", "", loginRequest{Email: adminEmail, Password: "anything"})
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("unconfigured admin login: status %d body %s", w.Code, w.Body.String())
	}
}

func TestCreateRoomTruncatesOnCharacterBoundary(t *testing.T) {
	s := newTestServer(t)
	user := register(t, s, "erin@example.com", "Erin")

	name := "a" + strings.Repeat("ب", 40)
	w := s.do(t, http.MethodPost, "/api/rooms", user.Token, createRoomRequest{Name: name})
	if w.Code != http.StatusCreated {
		t.Fatalf("create: status %d body %s", w.Code, w.Body.String())
	}
	var info core.RoomInfo
	if err := json.Unmarshal(w.Body.Bytes(), &info); err != nil {
		t.Fatalf("decode room: %v", err)
	}
	got := string(info.Name)
	if strings.ContainsRune(got, utf8.RuneError) || utf8.RuneCountInString(got) != domain.MaxNameLen {
		t.Fatalf("room name mangled: %q", got)
	}
	if !strings.HasPrefix(name, got) {
		t.Fatalf("room name %q is not a prefix of the request", got)
	}
}
