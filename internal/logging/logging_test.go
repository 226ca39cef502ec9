package logging

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/simple_mysql_go/internal/config"
)

func TestLogging_LevelFromVerbosity(t *testing.T) {
	t.Parallel()

	require.Equal(t, "", LevelFromVerbosity(0))
	require.Equal(t, "debug", LevelFromVerbosity(1))
	require.Equal(t, "trace", LevelFromVerbosity(2))
	require.Equal(t, "trace", LevelFromVerbosity(5))
}

func TestLogging_WriterToFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "logs", "server.log")
	var console bytes.Buffer

	w := writer(config.Log{File: path, MaxSizeMB: 1}, &console)
	logger := zerolog.New(w)
	logger.Info().Str("table", "users").Msg("Row inserted")

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Contains(t, string(content), "Row inserted")
	require.Contains(t, string(content), "table=users")
	require.Contains(t, console.String(), "Row inserted")
}

func TestLogging_WriterConsoleOnly(t *testing.T) {
	t.Parallel()

	var console bytes.Buffer
	logger := zerolog.New(writer(config.Log{}, &console))
	logger.Warn().Msg("no file")
	require.Contains(t, console.String(), "no file")
}
