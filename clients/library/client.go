package tinylib

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/AnishMulay/tinyfs/internal/communication"
	fs "github.com/AnishMulay/tinyfs/internal/file_service"
	ps "github.com/AnishMulay/tinyfs/internal/server"
)

var (
	ErrNilClient     = errors.New("tinyfs client is nil")
	ErrNoServer      = errors.New("tinyfs server address is empty")
	ErrEmptyResponse = errors.New("empty response")
)

func NewTinyFSClient(serverAddr string, comm communication.Communicator) *TinyFSClient {
	return &TinyFSClient{
		ServerAddr: serverAddr,
		NodeID:     "tinylib-" + uuid.NewString(),
		Comm:       comm,
	}
}

// --- Data path ---

func (c *TinyFSClient) Open(ctx context.Context, path string, mode fs.OpenMode) (int, error) {
	var out ps.OpenResponse
	if err := c.call(ctx, ps.MsgOpen, ps.OpenRequest{Path: path, Mode: int(mode)}, &out); err != nil {
		return -1, fmt.Errorf("open %q: %w", path, err)
	}
	return out.FD, nil
}

// Read fills buf from the file's cursor and returns how many bytes it got.
func (c *TinyFSClient) Read(ctx context.Context, fd int, buf []byte) (int, error) {
	var out ps.ReadResponse
	if err := c.call(ctx, ps.MsgRead, ps.ReadRequest{FD: fd, Length: len(buf)}, &out); err != nil {
		return -1, fmt.Errorf("read fd %d: %w", fd, err)
	}
	return copy(buf, out.Data), nil
}

func (c *TinyFSClient) Write(ctx context.Context, fd int, data []byte) (int, error) {
	var out ps.WriteResponse
	if err := c.call(ctx, ps.MsgWrite, ps.WriteRequest{FD: fd, Data: data}, &out); err != nil {
		return -1, fmt.Errorf("write fd %d: %w", fd, err)
	}
	return out.Written, nil
}

func (c *TinyFSClient) Close(ctx context.Context, fd int) error {
	if err := c.call(ctx, ps.MsgClose, ps.CloseRequest{FD: fd}, nil); err != nil {
		return fmt.Errorf("close fd %d: %w", fd, err)
	}
	return nil
}

// --- Namespace ---

func (c *TinyFSClient) Link(ctx context.Context, target, name string) error {
	if err := c.call(ctx, ps.MsgLink, ps.LinkRequest{Target: target, Name: name}, nil); err != nil {
		return fmt.Errorf("link %q -> %q: %w", name, target, err)
	}
	return nil
}

func (c *TinyFSClient) Symlink(ctx context.Context, target, name string) error {
	if err := c.call(ctx, ps.MsgSymlink, ps.SymlinkRequest{Target: target, Name: name}, nil); err != nil {
		return fmt.Errorf("symlink %q -> %q: %w", name, target, err)
	}
	return nil
}

func (c *TinyFSClient) Unlink(ctx context.Context, path string) error {
	if err := c.call(ctx, ps.MsgUnlink, ps.UnlinkRequest{Path: path}, nil); err != nil {
		return fmt.Errorf("unlink %q: %w", path, err)
	}
	return nil
}

// --- Introspection ---

func (c *TinyFSClient) Stat(ctx context.Context, path string) (*fs.Attributes, error) {
	var out fs.Attributes
	if err := c.call(ctx, ps.MsgStat, ps.StatRequest{Path: path}, &out); err != nil {
		return nil, fmt.Errorf("stat %q: %w", path, err)
	}
	return &out, nil
}

func (c *TinyFSClient) Lstat(ctx context.Context, path string) (*fs.Attributes, error) {
	var out fs.Attributes
	if err := c.call(ctx, ps.MsgLstat, ps.LstatRequest{Path: path}, &out); err != nil {
		return nil, fmt.Errorf("lstat %q: %w", path, err)
	}
	return &out, nil
}

func (c *TinyFSClient) ReadDir(ctx context.Context) ([]fs.DirEntry, error) {
	var out []fs.DirEntry
	if err := c.call(ctx, ps.MsgReadDir, ps.ReadDirRequest{}, &out); err != nil {
		return nil, fmt.Errorf("readdir: %w", err)
	}
	return out, nil
}

func (c *TinyFSClient) GetFsStat(ctx context.Context) (*fs.FileSystemStats, error) {
	var out fs.FileSystemStats
	if err := c.call(ctx, ps.MsgFsStat, ps.FsStatRequest{}, &out); err != nil {
		return nil, fmt.Errorf("fsstat: %w", err)
	}
	return &out, nil
}

func (c *TinyFSClient) GetFsInfo(ctx context.Context) (*fs.FileSystemInfo, error) {
	var out fs.FileSystemInfo
	if err := c.call(ctx, ps.MsgFsInfo, ps.FsInfoRequest{}, &out); err != nil {
		return nil, fmt.Errorf("fsinfo: %w", err)
	}
	return &out, nil
}

// call sends one request and decodes an OK body into out. Non-OK responses
// come back as the matching file service error.
func (c *TinyFSClient) call(ctx context.Context, msgType string, payload any, out any) error {
	if c == nil || c.Comm == nil {
		return ErrNilClient
	}
	if c.ServerAddr == "" {
		return ErrNoServer
	}

	resp, err := c.Comm.Send(ctx, c.ServerAddr, communication.Message{
		From:    c.NodeID,
		Type:    msgType,
		Payload: payload,
	})
	if err != nil {
		return err
	}
	if resp == nil {
		return ErrEmptyResponse
	}
	if err := ps.ErrorFor(resp.Code, resp.Body); err != nil {
		return err
	}

	if out == nil || len(resp.Body) == 0 {
		return nil
	}
	if err := json.Unmarshal(resp.Body, out); err != nil {
		return fmt.Errorf("%w: %w", communication.ErrPayloadUnmarshalFailed, err)
	}
	return nil
}
