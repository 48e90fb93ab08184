package simple

import (
	"context"
	"encoding/json"
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AnishMulay/tinyfs/internal/communication"
	"github.com/AnishMulay/tinyfs/internal/config"
	fs "github.com/AnishMulay/tinyfs/internal/file_service"
	fsimple "github.com/AnishMulay/tinyfs/internal/file_service/simple"
	"github.com/AnishMulay/tinyfs/internal/log_service/zaplog"
	ps "github.com/AnishMulay/tinyfs/internal/server"
)

// stubCommunicator captures the handler instead of listening.
type stubCommunicator struct {
	handler communication.MessageHandler
	types   map[string]reflect.Type
	stopped bool
}

func (c *stubCommunicator) Start(handler communication.MessageHandler) error {
	c.handler = handler
	return nil
}

func (c *stubCommunicator) Stop() error {
	c.stopped = true
	return nil
}

func (c *stubCommunicator) Send(ctx context.Context, to string, msg communication.Message) (*communication.Response, error) {
	return nil, nil
}

func (c *stubCommunicator) Address() string { return "stub" }

func (c *stubCommunicator) RegisterPayloadType(msgType string, payloadType reflect.Type) {
	if c.types == nil {
		c.types = make(map[string]reflect.Type)
	}
	c.types[msgType] = payloadType
}

func newServer(t *testing.T) (*SimpleServer, *stubCommunicator) {
	t.Helper()
	ls := zaplog.NewNop()
	comm := &stubCommunicator{}
	srv := NewSimpleServer(comm, fsimple.NewSimpleFileService(config.DefaultParams(), ls), ls)
	require.NoError(t, srv.Start())
	t.Cleanup(func() { _ = srv.Stop() })
	return srv, comm
}

func call(t *testing.T, comm *stubCommunicator, msgType string, req any) *communication.Response {
	t.Helper()
	resp, err := comm.handler(context.Background(), communication.Message{From: "test", Type: msgType, Payload: req})
	require.NoError(t, err)
	require.NotNil(t, resp)
	return resp
}

func decode[T any](t *testing.T, resp *communication.Response) T {
	t.Helper()
	require.Equal(t, communication.CodeOK, resp.Code, string(resp.Body))
	var out T
	require.NoError(t, json.Unmarshal(resp.Body, &out))
	return out
}

func TestSimpleServer_RegistersEveryMessage(t *testing.T) {
	_, comm := newServer(t)
	for _, msgType := range []string{
		ps.MsgOpen, ps.MsgRead, ps.MsgWrite, ps.MsgClose,
		ps.MsgLink, ps.MsgSymlink, ps.MsgUnlink,
		ps.MsgStat, ps.MsgLstat, ps.MsgReadDir, ps.MsgFsStat, ps.MsgFsInfo,
	} {
		assert.Contains(t, comm.types, msgType)
	}
}

func TestSimpleServer_FileLifecycle(t *testing.T) {
	_, comm := newServer(t)

	open := decode[ps.OpenResponse](t, call(t, comm, ps.MsgOpen, ps.OpenRequest{Path: "/f1", Mode: int(fs.OpenCreate)}))
	written := decode[ps.WriteResponse](t, call(t, comm, ps.MsgWrite, ps.WriteRequest{FD: open.FD, Data: []byte("hello")}))
	assert.Equal(t, 5, written.Written)
	assert.Equal(t, communication.CodeOK, call(t, comm, ps.MsgClose, ps.CloseRequest{FD: open.FD}).Code)

	assert.Equal(t, communication.CodeOK, call(t, comm, ps.MsgLink, ps.LinkRequest{Target: "/f1", Name: "/l1"}).Code)
	assert.Equal(t, communication.CodeOK, call(t, comm, ps.MsgSymlink, ps.SymlinkRequest{Target: "/l1", Name: "/sl1"}).Code)

	open = decode[ps.OpenResponse](t, call(t, comm, ps.MsgOpen, ps.OpenRequest{Path: "/sl1"}))
	read := decode[ps.ReadResponse](t, call(t, comm, ps.MsgRead, ps.ReadRequest{FD: open.FD, Length: 1 << 20}))
	assert.Equal(t, []byte("hello"), read.Data)
	assert.Equal(t, communication.CodeOK, call(t, comm, ps.MsgClose, ps.CloseRequest{FD: open.FD}).Code)

	attrs := decode[fs.Attributes](t, call(t, comm, ps.MsgStat, ps.StatRequest{Path: "/sl1"}))
	assert.Equal(t, 2, attrs.LinkCount)
	lattrs := decode[fs.Attributes](t, call(t, comm, ps.MsgLstat, ps.LstatRequest{Path: "/sl1"}))
	assert.Equal(t, "/l1", lattrs.Target)

	entries := decode[[]fs.DirEntry](t, call(t, comm, ps.MsgReadDir, ps.ReadDirRequest{}))
	assert.Len(t, entries, 3)

	assert.Equal(t, communication.CodeOK, call(t, comm, ps.MsgUnlink, ps.UnlinkRequest{Path: "/sl1"}).Code)
	stats := decode[fs.FileSystemStats](t, call(t, comm, ps.MsgFsStat, nil))
	assert.Equal(t, 2, stats.DirEntries)

	info := decode[fs.FileSystemInfo](t, call(t, comm, ps.MsgFsInfo, ps.FsInfoRequest{}))
	assert.Equal(t, 1024, info.BlockSize)
}

func TestSimpleServer_ErrorCodes(t *testing.T) {
	tests := []struct {
		name     string
		msgType  string
		req      any
		wantCode communication.SandCode
	}{
		{name: "open missing", msgType: ps.MsgOpen, req: ps.OpenRequest{Path: "/nope"}, wantCode: communication.CodeNotFound},
		{name: "open invalid path", msgType: ps.MsgOpen, req: ps.OpenRequest{Path: "nope"}, wantCode: communication.CodeBadRequest},
		{name: "close bad handle", msgType: ps.MsgClose, req: ps.CloseRequest{FD: 9}, wantCode: communication.CodeInvalidHandle},
		{name: "read bad handle", msgType: ps.MsgRead, req: ps.ReadRequest{FD: 9, Length: 1}, wantCode: communication.CodeInvalidHandle},
		{name: "read negative", msgType: ps.MsgRead, req: ps.ReadRequest{FD: 0, Length: -1}, wantCode: communication.CodeBadRequest},
		{name: "unlink missing", msgType: ps.MsgUnlink, req: ps.UnlinkRequest{Path: "/nope"}, wantCode: communication.CodeNotFound},
		{name: "wrong payload type", msgType: ps.MsgUnlink, req: ps.LinkRequest{}, wantCode: communication.CodeBadRequest},
		{name: "unknown type", msgType: "mkdir", req: nil, wantCode: communication.CodeBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, comm := newServer(t)
			resp := call(t, comm, tt.msgType, tt.req)
			assert.Equal(t, tt.wantCode, resp.Code)
			assert.NotEmpty(t, resp.Body)
		})
	}
}

func TestSimpleServer_AlreadyExistsAndPrecondition(t *testing.T) {
	_, comm := newServer(t)
	open := decode[ps.OpenResponse](t, call(t, comm, ps.MsgOpen, ps.OpenRequest{Path: "/f1", Mode: int(fs.OpenCreate)}))
	call(t, comm, ps.MsgClose, ps.CloseRequest{FD: open.FD})
	call(t, comm, ps.MsgSymlink, ps.SymlinkRequest{Target: "/f1", Name: "/sl1"})

	assert.Equal(t, communication.CodeAlreadyExists, call(t, comm, ps.MsgLink, ps.LinkRequest{Target: "/f1", Name: "/sl1"}).Code)
	assert.Equal(t, communication.CodeFailedPrecondition, call(t, comm, ps.MsgLink, ps.LinkRequest{Target: "/sl1", Name: "/l1"}).Code)
}

func TestSimpleServer_Stop(t *testing.T) {
	ls := zaplog.NewNop()
	comm := &stubCommunicator{}
	files := fsimple.NewSimpleFileService(config.DefaultParams(), ls)
	srv := NewSimpleServer(comm, files, ls)
	require.NoError(t, srv.Start())

	require.NoError(t, srv.Stop())
	assert.True(t, comm.stopped)

	resp := call(t, comm, ps.MsgFsStat, ps.FsStatRequest{})
	assert.Equal(t, communication.CodeUnavailable, resp.Code)
}
