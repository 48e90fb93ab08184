package main

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	grpccomm "github.com/AnishMulay/tinyfs/internal/communication/grpc"
	"github.com/AnishMulay/tinyfs/internal/config"
	fsimple "github.com/AnishMulay/tinyfs/internal/file_service/simple"
	"github.com/AnishMulay/tinyfs/internal/log_service/zaplog"
	"github.com/AnishMulay/tinyfs/internal/server/simple"
)

func TestLoadConfig_WritesDefault(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "mcp.yaml")

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "server1", cfg.DefaultServer)
	assert.FileExists(t, path)

	require.NoError(t, os.WriteFile(path, []byte("servers: []\n"), 0644))
	_, err = LoadConfig(path)
	assert.Error(t, err)
}

func request(args map[string]any) mcp.CallToolRequest {
	var r mcp.CallToolRequest
	r.Params.Arguments = args
	return r
}

func TestTools(t *testing.T) {
	ls := zaplog.NewNop()
	srv := simple.NewSimpleServer(
		grpccomm.NewGRPCCommunicator("127.0.0.1:0", ls),
		fsimple.NewSimpleFileService(config.DefaultParams(), ls),
		ls,
	)
	require.NoError(t, srv.Start())
	t.Cleanup(func() { _ = srv.Stop() })

	comm := grpccomm.NewGRPCCommunicator("", ls)
	t.Cleanup(func() { _ = comm.Stop() })
	registry := NewServerRegistry(&MCPConfig{
		Servers:       []ServerEntry{{ID: "local", Address: srv.Address()}},
		DefaultServer: "local",
	}, comm, ls)
	ctx := context.Background()

	write := registry.wrap("write_file", handleWriteFile)
	read := registry.wrap("read_file", handleReadFile)

	res, err := write(ctx, request(map[string]any{"path": "a", "content": "one"}))
	require.NoError(t, err)
	assert.False(t, res.IsError)

	res, err = write(ctx, request(map[string]any{"path": "a", "content": "two", "append": true}))
	require.NoError(t, err)
	assert.False(t, res.IsError)

	res, err = read(ctx, request(map[string]any{"path": "a"}))
	require.NoError(t, err)
	require.False(t, res.IsError)
	assert.Equal(t, "onetwo", res.Content[0].(mcp.TextContent).Text)

	res, err = read(ctx, request(map[string]any{"path": "missing"}))
	require.NoError(t, err)
	assert.True(t, res.IsError)

	res, err = read(ctx, request(map[string]any{"path": "a", "server": "nope"}))
	require.NoError(t, err)
	assert.True(t, res.IsError)
}
