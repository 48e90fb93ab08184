package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"gopkg.in/yaml.v3"

	tinylib "github.com/AnishMulay/tinyfs/clients/library"
	"github.com/AnishMulay/tinyfs/internal/communication"
	grpccomm "github.com/AnishMulay/tinyfs/internal/communication/grpc"
	fs "github.com/AnishMulay/tinyfs/internal/file_service"
	"github.com/AnishMulay/tinyfs/internal/log_service"
	"github.com/AnishMulay/tinyfs/internal/log_service/zaplog"
)

type ServerEntry struct {
	ID      string `yaml:"id"`
	Address string `yaml:"address"`
}

type MCPConfig struct {
	Servers       []ServerEntry `yaml:"servers"`
	DefaultServer string        `yaml:"default_server"`
	LogLevel      string        `yaml:"log_level"`
}

type ServerRegistry struct {
	Servers       map[string]string
	DefaultServer string
	Communicator  communication.Communicator
	LogService    log_service.LogService
}

func defaultConfig() *MCPConfig {
	return &MCPConfig{
		Servers:       []ServerEntry{{ID: "server1", Address: "localhost:8080"}},
		DefaultServer: "server1",
		LogLevel:      "WARN",
	}
}

// LoadConfig reads the MCP config, writing a default one when path does not exist.
func LoadConfig(path string) (*MCPConfig, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		cfg := defaultConfig()
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return nil, fmt.Errorf("failed to create directory: %w", err)
		}
		data, err := yaml.Marshal(cfg)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal default config: %w", err)
		}
		if err := os.WriteFile(path, data, 0644); err != nil {
			return nil, fmt.Errorf("failed to write default config: %w", err)
		}
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := defaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if len(cfg.Servers) == 0 {
		return nil, fmt.Errorf("config %s lists no servers", path)
	}
	return cfg, nil
}

func NewServerRegistry(cfg *MCPConfig, comm communication.Communicator, ls log_service.LogService) *ServerRegistry {
	servers := make(map[string]string, len(cfg.Servers))
	for _, s := range cfg.Servers {
		servers[s.ID] = s.Address
	}
	return &ServerRegistry{
		Servers:       servers,
		DefaultServer: cfg.DefaultServer,
		Communicator:  comm,
		LogService:    ls,
	}
}

// client picks the server named by the optional "server" argument.
func (r *ServerRegistry) client(request mcp.CallToolRequest) (*tinylib.TinyFSClient, error) {
	serverID := request.GetString("server", "")
	if serverID == "" {
		serverID = r.DefaultServer
	}
	addr, ok := r.Servers[serverID]
	if !ok {
		return nil, fmt.Errorf("server %s not found", serverID)
	}
	return tinylib.NewTinyFSClient(addr, r.Communicator), nil
}

type toolFunc func(ctx context.Context, c *tinylib.TinyFSClient, request mcp.CallToolRequest) (string, error)

// wrap turns a failed call into a tool error result rather than a protocol error.
func (r *ServerRegistry) wrap(name string, fn toolFunc) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		c, err := r.client(request)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		text, err := fn(ctx, c, request)
		if err != nil {
			r.LogService.Warn(log_service.LogEvent{
				Message:  "Tool call failed",
				Metadata: map[string]any{"tool": name, "error": err.Error()},
			})
			return mcp.NewToolResultError(err.Error()), nil
		}
		return mcp.NewToolResultText(text), nil
	}
}

func serverArg() mcp.ToolOption {
	return mcp.WithString("server", mcp.Description("Server ID from the config; the default server when omitted"))
}

func addTools(s *server.MCPServer, registry *ServerRegistry) {
	s.AddTool(mcp.NewTool("list_servers",
		mcp.WithDescription("List all configured tinyfs servers"),
	), func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		ids := make([]string, 0, len(registry.Servers))
		for id := range registry.Servers {
			ids = append(ids, id)
		}
		sort.Strings(ids)

		var b strings.Builder
		b.WriteString("Available servers:\n")
		for _, id := range ids {
			fmt.Fprintf(&b, "- %s: %s\n", id, registry.Servers[id])
		}
		fmt.Fprintf(&b, "Default server: %s\n", registry.DefaultServer)
		return mcp.NewToolResultText(b.String()), nil
	})

	s.AddTool(mcp.NewTool("write_file",
		mcp.WithDescription("Create or overwrite a file with text content. Content past one block is dropped."),
		mcp.WithString("path", mcp.Required(), mcp.Description("File name in the root directory")),
		mcp.WithString("content", mcp.Required(), mcp.Description("Text to store")),
		mcp.WithBoolean("append", mcp.Description("Append instead of replacing")),
		serverArg(),
	), registry.wrap("write_file", handleWriteFile))

	s.AddTool(mcp.NewTool("read_file",
		mcp.WithDescription("Read a whole file, following symbolic links"),
		mcp.WithString("path", mcp.Required(), mcp.Description("File name in the root directory")),
		serverArg(),
	), registry.wrap("read_file", handleReadFile))

	s.AddTool(mcp.NewTool("link",
		mcp.WithDescription("Create a hard link"),
		mcp.WithString("target", mcp.Required(), mcp.Description("Existing file")),
		mcp.WithString("name", mcp.Required(), mcp.Description("New name")),
		serverArg(),
	), registry.wrap("link", func(ctx context.Context, c *tinylib.TinyFSClient, request mcp.CallToolRequest) (string, error) {
		target, name, err := targetAndName(request)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("%s linked to %s", name, target), c.Link(ctx, target, name)
	}))

	s.AddTool(mcp.NewTool("symlink",
		mcp.WithDescription("Create a symbolic link; the target need not exist"),
		mcp.WithString("target", mcp.Required(), mcp.Description("Path stored in the link")),
		mcp.WithString("name", mcp.Required(), mcp.Description("New name")),
		serverArg(),
	), registry.wrap("symlink", func(ctx context.Context, c *tinylib.TinyFSClient, request mcp.CallToolRequest) (string, error) {
		target, name, err := targetAndName(request)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("%s -> %s", name, target), c.Symlink(ctx, target, name)
	}))

	s.AddTool(mcp.NewTool("unlink",
		mcp.WithDescription("Remove a name from the root directory"),
		mcp.WithString("path", mcp.Required(), mcp.Description("Name to remove")),
		serverArg(),
	), registry.wrap("unlink", func(ctx context.Context, c *tinylib.TinyFSClient, request mcp.CallToolRequest) (string, error) {
		path, err := request.RequireString("path")
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("%s removed", path), c.Unlink(ctx, path)
	}))

	s.AddTool(mcp.NewTool("list",
		mcp.WithDescription("List the root directory"),
		serverArg(),
	), registry.wrap("list", func(ctx context.Context, c *tinylib.TinyFSClient, request mcp.CallToolRequest) (string, error) {
		entries, err := c.ReadDir(ctx)
		if err != nil {
			return "", err
		}
		return asJSON(entries)
	}))

	s.AddTool(mcp.NewTool("stat",
		mcp.WithDescription("Show the attributes of a name"),
		mcp.WithString("path", mcp.Required(), mcp.Description("Name to describe")),
		mcp.WithBoolean("no_follow", mcp.Description("Describe a symbolic link itself")),
		serverArg(),
	), registry.wrap("stat", handleStat))

	s.AddTool(mcp.NewTool("fs_stat",
		mcp.WithDescription("Show store usage and limits"),
		serverArg(),
	), registry.wrap("fs_stat", func(ctx context.Context, c *tinylib.TinyFSClient, request mcp.CallToolRequest) (string, error) {
		stats, err := c.GetFsStat(ctx)
		if err != nil {
			return "", err
		}
		info, err := c.GetFsInfo(ctx)
		if err != nil {
			return "", err
		}
		return asJSON(map[string]any{"stats": stats, "info": info})
	}))
}

func handleWriteFile(ctx context.Context, c *tinylib.TinyFSClient, request mcp.CallToolRequest) (string, error) {
	path, err := request.RequireString("path")
	if err != nil {
		return "", err
	}
	content, err := request.RequireString("content")
	if err != nil {
		return "", err
	}

	mode := fs.OpenCreate | fs.OpenTruncate
	if request.GetBool("append", false) {
		mode = fs.OpenCreate | fs.OpenAppend
	}

	fd, err := c.Open(ctx, path, mode)
	if err != nil {
		return "", err
	}
	n, err := c.Write(ctx, fd, []byte(content))
	if cerr := c.Close(ctx, fd); err == nil {
		err = cerr
	}
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%d of %d bytes written to %s", n, len(content), path), nil
}

func handleReadFile(ctx context.Context, c *tinylib.TinyFSClient, request mcp.CallToolRequest) (string, error) {
	path, err := request.RequireString("path")
	if err != nil {
		return "", err
	}

	attrs, err := c.Stat(ctx, path)
	if err != nil {
		return "", err
	}
	fd, err := c.Open(ctx, path, 0)
	if err != nil {
		return "", err
	}
	defer func() { _ = c.Close(ctx, fd) }()

	buf := make([]byte, attrs.Size)
	n, err := c.Read(ctx, fd, buf)
	if err != nil {
		return "", err
	}
	return string(buf[:n]), nil
}

func handleStat(ctx context.Context, c *tinylib.TinyFSClient, request mcp.CallToolRequest) (string, error) {
	path, err := request.RequireString("path")
	if err != nil {
		return "", err
	}
	var attrs *fs.Attributes
	if request.GetBool("no_follow", false) {
		attrs, err = c.Lstat(ctx, path)
	} else {
		attrs, err = c.Stat(ctx, path)
	}
	if err != nil {
		return "", err
	}
	return asJSON(attrs)
}

func targetAndName(request mcp.CallToolRequest) (string, string, error) {
	target, err := request.RequireString("target")
	if err != nil {
		return "", "", err
	}
	name, err := request.RequireString("name")
	if err != nil {
		return "", "", err
	}
	return target, name, nil
}

func asJSON(v any) (string, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func main() {
	configPath := flag.String("config", "mcp_config.yaml", "MCP config file")
	flag.Parse()

	cfg, err := LoadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// stdout carries the protocol; zap's production config logs to stderr
	ls, err := zaplog.NewZapLogService("mcp-server", cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer ls.Sync()

	comm := grpccomm.NewGRPCCommunicator("", ls)
	defer comm.Stop()
	registry := NewServerRegistry(cfg, comm, ls)

	s := server.NewMCPServer(
		"tinyfs",
		"1.0.0",
		server.WithToolCapabilities(false),
	)
	addTools(s, registry)

	if err := server.ServeStdio(s); err != nil {
		fmt.Fprintf(os.Stderr, "Server error: %v\n", err)
	}
}
