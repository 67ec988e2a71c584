package mcp_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	mcplib "github.com/mark3labs/mcp-go/mcp"

	pvmcp "github.com/planvault/planvault/internal/adapter/mcp"
	"github.com/planvault/planvault/internal/config"
	"github.com/planvault/planvault/internal/dispatch"
	"github.com/planvault/planvault/internal/domain/identity"
	"github.com/planvault/planvault/internal/domain/item"
	"github.com/planvault/planvault/internal/domain/tag"
	"github.com/planvault/planvault/internal/policy"
	"github.com/planvault/planvault/internal/port/database"
	"github.com/planvault/planvault/internal/port/extractor"
)

// --- Mocks ---

// stubStore overrides only what a test touches; anything else panics, which
// is exactly what an unexpected store call deserves here.
type stubStore struct {
	database.Store
	tags    []tag.Tag
	items   map[string]*item.Item
	pingErr error
}

func (s *stubStore) Ping(context.Context) error {
	return s.pingErr
}

func (s *stubStore) ListTags(context.Context) ([]tag.Tag, error) {
	return s.tags, nil
}

func (s *stubStore) GetItem(_ context.Context, id string) (*item.Item, error) {
	return s.items[id], nil
}

type stubExtractor struct{}

func (stubExtractor) Extract(context.Context, string) (*extractor.Candidate, error) {
	return nil, &extractor.Error{Reason: "not wired in this test"}
}

func newTestServer(t *testing.T, store database.Store, auth config.Auth) *pvmcp.Server {
	t.Helper()
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	pol := policy.New([]string{"alice"}, dispatch.Tiers())
	d := dispatch.New(dispatch.NewRegistry(), pol, log)
	dispatch.RegisterOperations(d, dispatch.Deps{Store: store, Extractor: stubExtractor{}})

	return pvmcp.NewServer(
		pvmcp.ServerConfig{Addr: ":0", Name: "test", Version: "0.0.0"},
		pvmcp.ServerDeps{
			Dispatcher: d,
			Store:      store,
			Identities: pvmcp.NewIdentityResolver(auth, pol),
			Logger:     log,
		},
	)
}

// --- Tests ---

func TestNewServer(t *testing.T) {
	s := newTestServer(t, &stubStore{}, config.Auth{})
	if s == nil {
		t.Fatal("NewServer returned nil")
	}
	if s.MCPServer() == nil {
		t.Fatal("MCPServer() returned nil")
	}
}

func TestToolRegistration(t *testing.T) {
	s := newTestServer(t, &stubStore{}, config.Auth{})

	tools := s.Tools()
	if len(tools) != 17 {
		t.Fatalf("expected 17 tools, got %d", len(tools))
	}

	expected := []string{
		dispatch.OpExtractAndSaveDocument,
		dispatch.OpCreateItem,
		dispatch.OpUpdateItem,
		dispatch.OpDeleteItem,
		dispatch.OpGetItem,
		dispatch.OpListItems,
		dispatch.OpAddItemInfo,
		dispatch.OpCreateDocumentation,
		dispatch.OpGetDocumentation,
		dispatch.OpCreateTag,
		dispatch.OpTagItem,
		dispatch.OpTagDocument,
		dispatch.OpUntagItem,
		dispatch.OpSearchByTag,
		dispatch.OpGetDocument,
		dispatch.OpListDocuments,
		dispatch.OpListTags,
	}
	for _, name := range expected {
		tool, ok := tools[name]
		if !ok {
			t.Errorf("expected tool %q not registered", name)
			continue
		}
		if tool.Tool.Description == "" {
			t.Errorf("tool %q has no description", name)
		}
	}
}

func TestToolHandlerWrapsEnvelope(t *testing.T) {
	s := newTestServer(t, &stubStore{tags: []tag.Tag{{ID: "t1", Name: "backend"}}}, config.Auth{})

	ctx := pvmcp.WithIdentity(context.Background(), identity.Identity{Handle: "bob"})
	listTool := s.Tools()[dispatch.OpListTags]

	result, err := listTool.Handler(ctx, mcplib.CallToolRequest{
		Params: mcplib.CallToolParams{Name: dispatch.OpListTags},
	})
	if err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if result.IsError {
		t.Fatalf("tool returned error: %v", result.Content)
	}

	text, ok := result.Content[0].(mcplib.TextContent)
	if !ok {
		t.Fatal("expected TextContent")
	}
	var env struct {
		OK   bool      `json:"ok"`
		Data []tag.Tag `json:"data"`
	}
	if err := json.Unmarshal([]byte(text.Text), &env); err != nil {
		t.Fatalf("unmarshal error: %v", err)
	}
	if !env.OK || len(env.Data) != 1 || env.Data[0].Name != "backend" {
		t.Fatalf("unexpected envelope: %s", text.Text)
	}
}

func TestToolHandlerFailureIsErrorResult(t *testing.T) {
	s := newTestServer(t, &stubStore{}, config.Auth{})

	// No identity in context: the dispatcher denies, the tool reports an
	// error result that still carries the envelope.
	listTool := s.Tools()[dispatch.OpListTags]
	result, err := listTool.Handler(context.Background(), mcplib.CallToolRequest{
		Params: mcplib.CallToolParams{Name: dispatch.OpListTags},
	})
	if err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if !result.IsError {
		t.Fatal("expected error result for anonymous caller")
	}

	text, ok := result.Content[0].(mcplib.TextContent)
	if !ok {
		t.Fatal("expected TextContent")
	}
	var env struct {
		OK            bool   `json:"ok"`
		ErrorKind     string `json:"errorKind"`
		Message       string `json:"message"`
		CorrelationID string `json:"correlationId"`
	}
	if err := json.Unmarshal([]byte(text.Text), &env); err != nil {
		t.Fatalf("unmarshal error: %v", err)
	}
	if env.OK || env.ErrorKind != dispatch.KindAuthorization {
		t.Fatalf("unexpected envelope: %s", text.Text)
	}
	if env.Message != "insufficient permissions" {
		t.Fatalf("unexpected message %q", env.Message)
	}
	if env.CorrelationID == "" {
		t.Error("expected a correlation id")
	}
}

func TestToolHandlerValidationDetails(t *testing.T) {
	s := newTestServer(t, &stubStore{}, config.Auth{})

	ctx := pvmcp.WithIdentity(context.Background(), identity.Identity{Handle: "alice"})
	getTool := s.Tools()[dispatch.OpGetItem]
	result, err := getTool.Handler(ctx, mcplib.CallToolRequest{
		Params: mcplib.CallToolParams{
			Name:      dispatch.OpGetItem,
			Arguments: map[string]any{"id": "not-a-uuid"},
		},
	})
	if err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if !result.IsError {
		t.Fatal("expected error result for malformed id")
	}

	text := result.Content[0].(mcplib.TextContent)
	var env struct {
		ErrorKind string `json:"errorKind"`
		Details   []struct {
			Field   string `json:"field"`
			Message string `json:"message"`
		} `json:"details"`
	}
	if err := json.Unmarshal([]byte(text.Text), &env); err != nil {
		t.Fatalf("unmarshal error: %v", err)
	}
	if env.ErrorKind != dispatch.KindValidation {
		t.Fatalf("expected validation kind, got %q", env.ErrorKind)
	}
	if len(env.Details) != 1 || env.Details[0].Field != "id" {
		t.Fatalf("expected an 'id' violation, got %+v", env.Details)
	}
}

func TestHandlerHealthEndpoints(t *testing.T) {
	s := newTestServer(t, &stubStore{}, config.Auth{Enabled: true})
	ts := httptest.NewServer(s.Handler())
	defer ts.Close()

	for _, path := range []string{"/health", "/health/ready"} {
		resp, err := http.Get(ts.URL + path)
		if err != nil {
			t.Fatalf("GET %s: %v", path, err)
		}
		_ = resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			t.Errorf("%s: expected 200, got %d", path, resp.StatusCode)
		}
	}
}

func TestHandlerReadinessReflectsStore(t *testing.T) {
	store := &stubStore{}
	s := newTestServer(t, store, config.Auth{})
	ts := httptest.NewServer(s.Handler())
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/health/ready")
	if err != nil {
		t.Fatalf("GET /health/ready: %v", err)
	}
	_ = resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200 while store is up, got %d", resp.StatusCode)
	}

	store.pingErr = errors.New("connection refused")
	resp, err = http.Get(ts.URL + "/health/ready")
	if err != nil {
		t.Fatalf("GET /health/ready: %v", err)
	}
	body, _ := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	if resp.StatusCode != http.StatusServiceUnavailable {
		t.Fatalf("expected 503 while store is down, got %d", resp.StatusCode)
	}
	if !strings.Contains(string(body), "unavailable") {
		t.Errorf("expected unavailable body, got %s", body)
	}
	if strings.Contains(string(body), "connection refused") {
		t.Error("readiness body leaked internal error detail")
	}
}

func TestHandlerRejectsUnknownToken(t *testing.T) {
	auth := config.Auth{
		Enabled: true,
		Tokens: map[string]config.Identity{
			"secret-token": {Handle: "alice", DisplayName: "Alice"},
		},
	}
	s := newTestServer(t, &stubStore{}, auth)
	ts := httptest.NewServer(s.Handler())
	defer ts.Close()

	// No token at all.
	resp, err := http.Post(ts.URL+"/mcp", "application/json", nil)
	if err != nil {
		t.Fatalf("POST /mcp: %v", err)
	}
	_ = resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("expected 401 without token, got %d", resp.StatusCode)
	}

	// Wrong token.
	req, _ := http.NewRequest(http.MethodPost, ts.URL+"/mcp", nil)
	req.Header.Set("Authorization", "Bearer wrong")
	resp, err = http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("POST /mcp: %v", err)
	}
	_ = resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("expected 401 with unknown token, got %d", resp.StatusCode)
	}

	// Health stays open.
	resp, err = http.Get(ts.URL + "/health")
	if err != nil {
		t.Fatalf("GET /health: %v", err)
	}
	_ = resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("expected health to bypass auth, got %d", resp.StatusCode)
	}
}
