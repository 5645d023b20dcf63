package logging

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/require"
)

func TestNew_FiltersByLevel(t *testing.T) {
	var buf bytes.Buffer
	logger, closer, err := New(Options{Level: "info", Format: "json", Output: &buf})
	require.NoError(t, err)
	defer closer.Close()

	logger.Debug("hidden")
	logger.Info("generated instances", "contract_id", "c1")

	out := buf.String()
	require.NotContains(t, out, "hidden")
	require.Contains(t, out, "generated instances")
	require.Contains(t, out, "c1")
}

func TestNew_WritesToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "accord.log")
	logger, closer, err := New(Options{Level: "debug", Path: path, MaxSizeMB: 1, MaxBackups: 1})
	require.NoError(t, err)

	logger.Debug("to file")
	require.NoError(t, closer.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Contains(t, string(data), "to file")
}

func TestParseLevel(t *testing.T) {
	require.Equal(t, log.DebugLevel, ParseLevel("DEBUG"))
	require.Equal(t, log.WarnLevel, ParseLevel("warning"))
	require.Equal(t, log.ErrorLevel, ParseLevel("error"))
	require.Equal(t, log.InfoLevel, ParseLevel("bogus"))
}
