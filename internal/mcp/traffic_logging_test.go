package mcp

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestTruncatePayload(t *testing.T) {
	require.Equal(t, "<nil>", truncatePayload(nil))
	require.Equal(t, `{"a":1}`, truncatePayload(map[string]int{"a": 1}))

	long := strings.Repeat("x", maxLoggedPayload*2)
	out := truncatePayload(long)
	require.True(t, strings.HasSuffix(out, "bytes)"))
	require.Less(t, len(out), len(long))
}

func TestTruncatePayload_Unmarshalable(t *testing.T) {
	require.Equal(t, "chan int", truncatePayload(make(chan int)))
}

func TestRequestHelpers_NilRequest(t *testing.T) {
	require.Empty(t, sessionID(nil))
	require.Nil(t, requestParams(nil))
}
