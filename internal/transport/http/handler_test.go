package http

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/muyan2020/matchparty/internal/adapter/llm"
	"github.com/muyan2020/matchparty/internal/config"
	"github.com/muyan2020/matchparty/internal/domain"
	"github.com/muyan2020/matchparty/internal/engine"
	"github.com/muyan2020/matchparty/internal/lobby"
	"github.com/muyan2020/matchparty/internal/pubsub"
	"github.com/muyan2020/matchparty/internal/service"
)

func newTestHandler(t *testing.T) (*Handler, *service.Service) {
	t.Helper()
	broker := pubsub.NewBroker()
	eng := engine.New(llm.NewMockClient(), broker, nil, 0)
	cfg := &config.Config{DefaultMaxRounds: 1, StreamIdleTimeout: 0}
	svc := service.New(eng, broker, nil, lobby.New(), cfg)
	return NewHandler(svc, cfg), svc
}

func newJSONContext(e *echo.Echo, method, target, body string) (echo.Context, *httptest.ResponseRecorder) {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func TestHealth(t *testing.T) {
	h, _ := newTestHandler(t)
	e := echo.New()
	c, rec := newJSONContext(e, http.MethodGet, "/health", "")

	if err := h.Health(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestCreateSessionInlineProfiles(t *testing.T) {
	h, _ := newTestHandler(t)
	e := echo.New()
	body := `{"principal_a":{"display_name":"Ming","age":27},"parent_b":{"display_name":"Mrs. Lee"},"max_rounds":3}`
	c, rec := newJSONContext(e, http.MethodPost, "/api/sessions", body)

	if err := h.CreateSession(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}

	var session domain.Session
	if err := json.Unmarshal(rec.Body.Bytes(), &session); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if session.SessionID == "" || session.MaxRounds != 3 {
		t.Fatalf("unexpected session: %+v", session)
	}
	if len(session.Profiles) != 4 {
		t.Fatalf("expected 4 profiles, got %d", len(session.Profiles))
	}
	if session.Profiles[domain.RolePrincipalA].DisplayName != "Ming" {
		t.Fatal("inline principal profile was not used")
	}
	if session.Profiles[domain.RoleParentB].DisplayName != "Mrs. Lee" {
		t.Fatal("inline parent profile was not used")
	}
	// Unspecified roles get placeholders.
	if session.Profiles[domain.RolePrincipalB].DisplayName == "" {
		t.Fatal("expected a placeholder for the unfilled principal")
	}
}

func TestCreateSessionFromLobbyNPC(t *testing.T) {
	h, _ := newTestHandler(t)
	e := echo.New()
	body := `{"principal_a_lobby_id":"npc_alex","principal_b_lobby_id":"npc_luna"}`
	c, rec := newJSONContext(e, http.MethodPost, "/api/sessions", body)

	if err := h.CreateSession(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}

	var session domain.Session
	if err := json.Unmarshal(rec.Body.Bytes(), &session); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if session.Profiles[domain.RolePrincipalA].DisplayName != "Alex" {
		t.Fatal("lobby principal was not resolved")
	}
	if session.Profiles[domain.RolePrincipalA].Role != domain.RolePrincipalA {
		t.Fatal("lobby profile role was not overridden")
	}
	// NPC entries bring their canned parent along.
	if session.Profiles[domain.RoleParentA].DisplayName != "Alex's father" {
		t.Fatalf("expected NPC parent, got %q", session.Profiles[domain.RoleParentA].DisplayName)
	}
	if session.Profiles[domain.RoleParentB].DisplayName != "Luna's mother" {
		t.Fatalf("expected NPC parent, got %q", session.Profiles[domain.RoleParentB].DisplayName)
	}
}

func TestCreateSessionUnknownLobbyID(t *testing.T) {
	h, _ := newTestHandler(t)
	e := echo.New()
	c, rec := newJSONContext(e, http.MethodPost, "/api/sessions", `{"principal_a_lobby_id":"nope"}`)

	if err := h.CreateSession(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestGetSessionNotFound(t *testing.T) {
	h, _ := newTestHandler(t)
	e := echo.New()
	c, rec := newJSONContext(e, http.MethodGet, "/api/sessions/party_missing", "")
	c.SetParamNames("session_id")
	c.SetParamValues("party_missing")

	if err := h.GetSession(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func TestStartConversation(t *testing.T) {
	h, svc := newTestHandler(t)
	session := svc.CreateSession(nil, 1)

	e := echo.New()
	c, rec := newJSONContext(e, http.MethodPost, "/api/sessions/"+session.SessionID+"/start", "")
	c.SetParamNames("session_id")
	c.SetParamValues(session.SessionID)

	if err := h.StartConversation(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var resp map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp["status"] != service.StartStatusStarted {
		t.Fatalf("expected started, got %q", resp["status"])
	}
}

func TestListLobby(t *testing.T) {
	h, _ := newTestHandler(t)
	e := echo.New()
	c, rec := newJSONContext(e, http.MethodGet, "/api/lobby", "")

	if err := h.ListLobby(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var resp struct {
		Entries []lobby.Summary `json:"entries"`
		Count   int             `json:"count"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.Count < 4 {
		t.Fatalf("expected at least the seeded NPCs, got %d", resp.Count)
	}
}

func TestMatchLobbyPrefersRole(t *testing.T) {
	h, _ := newTestHandler(t)
	e := echo.New()

	for i := 0; i < 10; i++ {
		c, rec := newJSONContext(e, http.MethodPost, "/api/lobby/match", `{"prefer_role":"principal_b"}`)
		if err := h.MatchLobby(c); err != nil {
			t.Fatalf("handler error: %v", err)
		}
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}

		var resp struct {
			ID      string          `json:"id"`
			Profile *domain.Profile `json:"profile"`
		}
		if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
			t.Fatalf("failed to decode response: %v", err)
		}
		if resp.Profile.Role != domain.RolePrincipalB {
			t.Fatalf("expected a principal_b candidate, got %s", resp.Profile.Role)
		}
	}
}

func TestMatchLobbyExhausted(t *testing.T) {
	h, _ := newTestHandler(t)
	e := echo.New()
	c, rec := newJSONContext(e, http.MethodPost, "/api/lobby/match",
		`{"exclude_ids":["npc_alex","npc_daniel","npc_luna","npc_claire"]}`)

	if err := h.MatchLobby(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}
