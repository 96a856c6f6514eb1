package main

import (
	"bytes"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	rlog "github.com/relaymux/relaymux-go/pkg/log"
)

func TestProtocolLoggerSelection(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))

	file, err := rlog.NewFileLogger(filepath.Join(t.TempDir(), "x"+rlog.FileExtension))
	require.NoError(t, err)
	defer file.Close()

	assert.IsType(t, rlog.NoopLogger{}, protocolLogger(nil, logger, slog.LevelInfo))
	assert.IsType(t, &rlog.SlogAdapter{}, protocolLogger(nil, logger, slog.LevelDebug))
	assert.IsType(t, &rlog.FileLogger{}, protocolLogger(file, logger, slog.LevelWarn))
	assert.IsType(t, &rlog.MultiLogger{}, protocolLogger(file, logger, slog.LevelDebug))
}
