// Package testserver starts the full HTTP stack on an in-memory database for
// functional tests.
package testserver

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/rpggio/accord/internal/app"
	"github.com/rpggio/accord/internal/auth"
	"github.com/rpggio/accord/internal/calendar"
	"github.com/rpggio/accord/internal/mcp"
	"github.com/rpggio/accord/internal/store"
	"github.com/rpggio/accord/internal/transport"
	"github.com/stretchr/testify/require"
)

// TestServer is a running accord HTTP server.
type TestServer struct {
	Server *httptest.Server
	App    *app.App
	Clock  *Clock
}

// Clock is a settable clock shared by the server's services.
type Clock struct {
	now time.Time
}

// Now implements calendar.Clock.
func (c *Clock) Now() time.Time { return c.now }

// Set moves the clock.
func (c *Clock) Set(t time.Time) { c.now = t }

var _ calendar.Clock = (*Clock)(nil)

// New starts a server whose clock reads now.
func New(t *testing.T, now time.Time) *TestServer {
	t.Helper()

	db, err := store.New(":memory:")
	require.NoError(t, err)
	// Every pooled connection to :memory: would get its own database.
	db.SetMaxOpenConns(1)
	_, err = db.Migrate(context.Background())
	require.NoError(t, err)

	clock := &Clock{now: now}
	a := app.New(db, app.Options{Clock: clock})
	resolver := a.APIKeyResolver()

	mcpServer := mcp.NewServer(mcp.Config{
		Services:      a.MCPServices(),
		Resolver:      resolver,
		AuthEnabled:   true,
		TransportMode: "http",
	})
	mcpHandler := sdkmcp.NewStreamableHTTPHandler(
		func(*http.Request) *sdkmcp.Server { return mcpServer },
		&sdkmcp.StreamableHTTPOptions{Stateless: true},
	)

	router := transport.NewServer(mcp.NewHandler(a.MCPServices()), transport.Options{
		Auth: transport.AuthMiddleware(resolver),
		MCP:  mcpHandler,
	})
	server := httptest.NewServer(router)

	t.Cleanup(func() {
		server.Close()
		_ = db.Close()
	})

	return &TestServer{Server: server, App: a, Clock: clock}
}

// AddUser registers a user with an API key equal to token.
func (ts *TestServer) AddUser(t *testing.T, id, displayName, token string) {
	t.Helper()
	ctx := context.Background()
	_, err := ts.App.Users.Create(ctx, id, displayName)
	require.NoError(t, err)
	require.NoError(t, ts.App.APIKeys.Create(ctx, auth.HashToken(token), id, "test"))
}

// RPC posts a JSON-RPC request to /rpc as token.
func (ts *TestServer) RPC(t *testing.T, token, method string, params any) transport.Response {
	t.Helper()

	raw, err := json.Marshal(params)
	require.NoError(t, err)
	body, err := json.Marshal(transport.Request{JSONRPC: "2.0", Method: method, Params: raw, ID: 1})
	require.NoError(t, err)

	req, err := http.NewRequest(http.MethodPost, ts.Server.URL+"/rpc", bytes.NewReader(body))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var out transport.Response
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out
}

// Decode re-encodes a JSON-RPC result into out.
func Decode(t *testing.T, resp transport.Response, out any) {
	t.Helper()
	require.Nil(t, resp.Error, "unexpected error: %+v", resp.Error)
	raw, err := json.Marshal(resp.Result)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(raw, out))
}
