package localdisc

import (
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AnishMulay/tinyfs/internal/log_service"
)

func TestLocalDiscLogService_LevelFiltering(t *testing.T) {
	tests := []struct {
		name      string
		minLevel  string
		wantLines []string
		skipLines []string
	}{
		{
			name:      "debug keeps everything",
			minLevel:  "DEBUG",
			wantLines: []string{"DEBUG: dbg", "INFO: inf", "WARN: wrn", "ERROR: err"},
		},
		{
			name:      "warn drops debug and info",
			minLevel:  "warn",
			wantLines: []string{"WARN: wrn", "ERROR: err"},
			skipLines: []string{"DEBUG: dbg", "INFO: inf"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ls, err := NewLocalDiscLogService(t.TempDir(), "node-1", tt.minLevel)
			require.NoError(t, err)

			ls.Debug(log_service.LogEvent{Message: "dbg"})
			ls.Info(log_service.LogEvent{Message: "inf"})
			ls.Warn(log_service.LogEvent{Message: "wrn"})
			ls.Error(log_service.LogEvent{Message: "err"})
			require.NoError(t, ls.Close())

			data, err := os.ReadFile(ls.FilePath())
			require.NoError(t, err)
			out := string(data)

			for _, line := range tt.wantLines {
				assert.Contains(t, out, line)
			}
			for _, line := range tt.skipLines {
				assert.NotContains(t, out, line)
			}
		})
	}
}

func TestLocalDiscLogService_FormatsMetadata(t *testing.T) {
	ls, err := NewLocalDiscLogService(t.TempDir(), "node-2")
	require.NoError(t, err)

	ls.Info(log_service.LogEvent{
		Message:  "opened",
		Metadata: map[string]any{"path": "/f1", "fd": 3},
	})
	require.NoError(t, ls.Close())

	data, err := os.ReadFile(ls.FilePath())
	require.NoError(t, err)

	line := strings.TrimSpace(string(data))
	assert.Contains(t, line, "[node-2] INFO: opened fd=3 path=/f1")
}
