package mcp

import (
	"context"
	"errors"
	"net/http"
	"testing"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/require"
)

type resolverFunc func(context.Context, string) (string, error)

func (f resolverFunc) ResolveUser(ctx context.Context, token string) (string, error) {
	return f(ctx, token)
}

func requestWithAuth(value string) *sdkmcp.CallToolRequest {
	header := http.Header{}
	if value != "" {
		header.Set("Authorization", value)
	}
	return &sdkmcp.CallToolRequest{Extra: &sdkmcp.RequestExtra{Header: header}}
}

func captureUser(seen *string) sdkmcp.MethodHandler {
	return func(ctx context.Context, _ string, _ sdkmcp.Request) (sdkmcp.Result, error) {
		*seen = getUserID(ctx)
		return nil, nil
	}
}

func TestAuthMiddleware(t *testing.T) {
	resolver := resolverFunc(func(_ context.Context, token string) (string, error) {
		if token == "good" {
			return "alice", nil
		}
		return "", errors.New("unknown key")
	})

	var seen string
	handler := authMiddleware(resolver)(captureUser(&seen))

	_, err := handler(context.Background(), "tools/call", requestWithAuth("Bearer good"))
	require.NoError(t, err)
	require.Equal(t, "alice", seen)

	_, err = handler(context.Background(), "tools/call", requestWithAuth("Bearer bad"))
	require.ErrorContains(t, err, "unauthorized")

	_, err = handler(context.Background(), "tools/call", requestWithAuth(""))
	require.ErrorContains(t, err, "missing bearer token")

	seen = ""
	_, err = handler(context.Background(), "initialize", requestWithAuth(""))
	require.NoError(t, err)
	require.Empty(t, seen)

	_, err = handler(WithUserID(context.Background(), "bob"), "tools/call", requestWithAuth(""))
	require.NoError(t, err)
	require.Equal(t, "bob", seen)
}

func TestNoAuthMiddleware(t *testing.T) {
	var seen string
	handler := noAuthMiddleware("local")(captureUser(&seen))

	_, err := handler(context.Background(), "tools/call", requestWithAuth(""))
	require.NoError(t, err)
	require.Equal(t, "local", seen)
}
