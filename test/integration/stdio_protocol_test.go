package integration_test

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"io"
	"os"
	"os/exec"
	"testing"
	"time"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/require"
)

// TestStdioProtocolCompliance verifies the server works correctly over stdio transport
// using the official MCP SDK client. This catches protocol issues that shell-based
// tests might miss.
func TestStdioProtocolCompliance(t *testing.T) {
	binaryPath := serverBinary(t)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	// Create command with environment
	cmd := exec.CommandContext(ctx, binaryPath, "serve")
	cmd.Env = append(os.Environ(),
		"ACCORD_TRANSPORT_MODE=stdio",
		"ACCORD_DB_PATH=:memory:",
	)

	// Spawn server as subprocess using SDK's CommandTransport
	transport := &sdkmcp.CommandTransport{
		Command: cmd,
	}

	// Create client
	client := sdkmcp.NewClient(&sdkmcp.Implementation{
		Name:    "test-client",
		Version: "1.0.0",
	}, nil)

	// Connect and initialize
	session, err := client.Connect(ctx, transport, nil)
	require.NoError(t, err, "Failed to connect to server")
	defer session.Close()

	// Verify initialize response
	t.Run("ServerInfo", func(t *testing.T) {
		initResult := session.InitializeResult()
		require.NotNil(t, initResult)
		require.NotNil(t, initResult.ServerInfo)
		require.Equal(t, "accord", initResult.ServerInfo.Name)
		require.NotEmpty(t, initResult.ServerInfo.Version)
	})

	// Test tools/list
	t.Run("ListTools", func(t *testing.T) {
		tools, err := session.ListTools(ctx, nil)
		require.NoError(t, err, "tools/list failed")
		require.Greater(t, len(tools.Tools), 10, "Expected at least 10 tools")

		// Verify expected core tools exist
		toolNames := make(map[string]bool)
		for _, tool := range tools.Tools {
			toolNames[tool.Name] = true
		}

		expectedTools := []string{
			"create_template",
			"list_templates",
			"create_contract",
			"obligations_to_complete",
			"set_completion",
			"status_report",
		}
		for _, name := range expectedTools {
			require.True(t, toolNames[name], "Missing expected tool: %s", name)
		}
	})

	// Test calling create_template as the local user
	t.Run("CallCreateTemplate", func(t *testing.T) {
		result, err := session.CallTool(ctx, &sdkmcp.CallToolParams{
			Name: "create_template",
			Arguments: map[string]any{
				"title":      "Water plants",
				"recurrence": map[string]any{"kind": "daily", "weekdays": []string{"monday", "thursday"}},
			},
		})
		require.NoError(t, err, "tools/call create_template failed")
		require.False(t, result.IsError, "create_template returned error: %v", result)
	})

	// Test list_templates after creation
	t.Run("CallListTemplates", func(t *testing.T) {
		result, err := session.CallTool(ctx, &sdkmcp.CallToolParams{
			Name:      "list_templates",
			Arguments: map[string]any{},
		})
		require.NoError(t, err, "tools/call list_templates failed")
		require.False(t, result.IsError, "list_templates returned error: %v", result)
		require.NotEmpty(t, result.Content, "list_templates returned no content")

		text, ok := result.Content[0].(*sdkmcp.TextContent)
		require.True(t, ok)
		require.Contains(t, text.Text, "Water plants")
	})
}

// TestStdioProtocol_StdoutHygiene checks that every stdout line the server
// writes is a JSON-RPC message; logs belong on stderr.
func TestStdioProtocol_StdoutHygiene(t *testing.T) {
	binaryPath := serverBinary(t)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	cmd := exec.CommandContext(ctx, binaryPath, "serve")
	cmd.Env = append(os.Environ(),
		"ACCORD_TRANSPORT_MODE=stdio",
		"ACCORD_DB_PATH=:memory:",
		"ACCORD_LOG_LEVEL=debug",
	)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	stdin, err := cmd.StdinPipe()
	require.NoError(t, err)
	stdout, err := cmd.StdoutPipe()
	require.NoError(t, err)
	require.NoError(t, cmd.Start())
	t.Cleanup(func() {
		_ = cmd.Process.Kill()
		_ = cmd.Wait()
	})

	requests := []string{
		`{"jsonrpc":"2.0","id":1,"method":"initialize","params":{"protocolVersion":"2025-06-18","capabilities":{},"clientInfo":{"name":"hygiene","version":"1.0"}}}`,
		`{"jsonrpc":"2.0","method":"notifications/initialized"}`,
		`{"jsonrpc":"2.0","id":2,"method":"tools/list"}`,
	}
	for _, req := range requests {
		_, err := io.WriteString(stdin, req+"\n")
		require.NoError(t, err)
	}

	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(stdout)
		scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
		for scanner.Scan() {
			lines <- scanner.Text()
		}
	}()

	// Two responses are expected: initialize and tools/list.
	for seen := 0; seen < 2; {
		select {
		case line, ok := <-lines:
			require.True(t, ok, "stdout closed early; stderr: %s", stderr.String())
			var msg struct {
				JSONRPC string          `json:"jsonrpc"`
				ID      json.RawMessage `json:"id"`
			}
			require.NoError(t, json.Unmarshal([]byte(line), &msg), "non-JSON stdout line: %q", line)
			require.Equal(t, "2.0", msg.JSONRPC)
			if len(msg.ID) > 0 {
				seen++
			}
		case <-ctx.Done():
			t.Fatalf("timed out waiting for responses; stderr: %s", stderr.String())
		}
	}
}

func serverBinary(t *testing.T) string {
	t.Helper()
	for _, p := range []string{"./bin/accord", "../../bin/accord"} {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	t.Skip("server binary not found; build it with 'go build -o bin/accord ./cmd/server'")
	return ""
}
