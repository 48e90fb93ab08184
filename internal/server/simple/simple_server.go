package simple

import (
	"context"
	"encoding/json"
	"fmt"
	"reflect"

	"github.com/AnishMulay/tinyfs/internal/communication"
	fs "github.com/AnishMulay/tinyfs/internal/file_service"
	"github.com/AnishMulay/tinyfs/internal/log_service"
	ps "github.com/AnishMulay/tinyfs/internal/server"
)

// SimpleServer exposes one file service over a communicator.
type SimpleServer struct {
	comm      communication.Communicator
	fs        fs.FileService
	ls        log_service.LogService
	maxLength int
}

func NewSimpleServer(comm communication.Communicator, files fs.FileService, ls log_service.LogService) *SimpleServer {
	return &SimpleServer{
		comm: comm,
		fs:   files,
		ls:   ls,
	}
}

func (s *SimpleServer) Start() error {
	s.ls.Info(log_service.LogEvent{Message: "Starting Simple Server"})

	// 1. Register Payload Types with Communicator
	s.registerPayloads()

	// 2. Start the store
	if err := s.fs.Start(); err != nil {
		return err
	}
	info, err := s.fs.GetFsInfo(context.Background())
	if err != nil {
		return err
	}
	s.maxLength = info.MaxFileSize

	// 3. Start Communicator with our central handler
	if err := s.comm.Start(s.handleMessage); err != nil {
		if stopErr := s.fs.Stop(); stopErr != nil {
			s.ls.Error(log_service.LogEvent{Message: "Failed to stop file service", Metadata: map[string]any{"error": stopErr.Error()}})
		}
		return err
	}

	s.ls.Info(log_service.LogEvent{
		Message:  "Simple Server started",
		Metadata: map[string]any{"address": s.comm.Address(), "fsID": info.FsID},
	})
	return nil
}

func (s *SimpleServer) Stop() error {
	s.ls.Info(log_service.LogEvent{Message: "Stopping Simple Server"})
	err := s.comm.Stop()
	if fsErr := s.fs.Stop(); fsErr != nil {
		s.ls.Error(log_service.LogEvent{Message: "Failed to stop file service", Metadata: map[string]any{"error": fsErr.Error()}})
	}
	return err
}

func (s *SimpleServer) Address() string {
	return s.comm.Address()
}

func (s *SimpleServer) registerPayloads() {
	s.comm.RegisterPayloadType(ps.MsgOpen, reflect.TypeOf(ps.OpenRequest{}))
	s.comm.RegisterPayloadType(ps.MsgRead, reflect.TypeOf(ps.ReadRequest{}))
	s.comm.RegisterPayloadType(ps.MsgWrite, reflect.TypeOf(ps.WriteRequest{}))
	s.comm.RegisterPayloadType(ps.MsgClose, reflect.TypeOf(ps.CloseRequest{}))
	s.comm.RegisterPayloadType(ps.MsgLink, reflect.TypeOf(ps.LinkRequest{}))
	s.comm.RegisterPayloadType(ps.MsgSymlink, reflect.TypeOf(ps.SymlinkRequest{}))
	s.comm.RegisterPayloadType(ps.MsgUnlink, reflect.TypeOf(ps.UnlinkRequest{}))
	s.comm.RegisterPayloadType(ps.MsgStat, reflect.TypeOf(ps.StatRequest{}))
	s.comm.RegisterPayloadType(ps.MsgLstat, reflect.TypeOf(ps.LstatRequest{}))
	s.comm.RegisterPayloadType(ps.MsgReadDir, reflect.TypeOf(ps.ReadDirRequest{}))
	s.comm.RegisterPayloadType(ps.MsgFsStat, reflect.TypeOf(ps.FsStatRequest{}))
	s.comm.RegisterPayloadType(ps.MsgFsInfo, reflect.TypeOf(ps.FsInfoRequest{}))
}

// payload extracts the typed request a message carries. A message of a known
// type sent without a payload decodes as the zero request.
func payload[T any](msg communication.Message) (T, error) {
	var zero T
	if msg.Payload == nil {
		return zero, nil
	}
	req, ok := msg.Payload.(T)
	if !ok {
		return zero, fmt.Errorf("%w: %s got %T", ps.ErrInvalidPayloadType, msg.Type, msg.Payload)
	}
	return req, nil
}

// Central Router for all incoming messages
func (s *SimpleServer) handleMessage(ctx context.Context, msg communication.Message) (*communication.Response, error) {
	s.ls.Debug(log_service.LogEvent{
		Message:  "Handling message",
		Metadata: map[string]any{"type": msg.Type, "from": msg.From},
	})

	switch msg.Type {
	// --- DATA PATH ---
	case ps.MsgOpen:
		req, err := payload[ps.OpenRequest](msg)
		if err != nil {
			return badRequest(err)
		}
		fd, err := s.fs.Open(ctx, req.Path, fs.OpenMode(req.Mode))
		return s.respond(ps.OpenResponse{FD: fd}, err)

	case ps.MsgRead:
		req, err := payload[ps.ReadRequest](msg)
		if err != nil {
			return badRequest(err)
		}
		if req.Length < 0 {
			return badRequest(fmt.Errorf("%w: %d", ps.ErrInvalidLength, req.Length))
		}
		// nothing past one block can ever be read
		buf := make([]byte, min(req.Length, s.maxLength))
		n, err := s.fs.Read(ctx, req.FD, buf)
		if err != nil {
			return s.respond(nil, err)
		}
		return s.respond(ps.ReadResponse{Data: buf[:n]}, nil)

	case ps.MsgWrite:
		req, err := payload[ps.WriteRequest](msg)
		if err != nil {
			return badRequest(err)
		}
		n, err := s.fs.Write(ctx, req.FD, req.Data)
		return s.respond(ps.WriteResponse{Written: n}, err)

	case ps.MsgClose:
		req, err := payload[ps.CloseRequest](msg)
		if err != nil {
			return badRequest(err)
		}
		return s.respond(nil, s.fs.Close(ctx, req.FD))

	// --- NAMESPACE ---
	case ps.MsgLink:
		req, err := payload[ps.LinkRequest](msg)
		if err != nil {
			return badRequest(err)
		}
		return s.respond(nil, s.fs.Link(ctx, req.Target, req.Name))

	case ps.MsgSymlink:
		req, err := payload[ps.SymlinkRequest](msg)
		if err != nil {
			return badRequest(err)
		}
		return s.respond(nil, s.fs.Symlink(ctx, req.Target, req.Name))

	case ps.MsgUnlink:
		req, err := payload[ps.UnlinkRequest](msg)
		if err != nil {
			return badRequest(err)
		}
		return s.respond(nil, s.fs.Unlink(ctx, req.Path))

	// --- INTROSPECTION ---
	case ps.MsgStat:
		req, err := payload[ps.StatRequest](msg)
		if err != nil {
			return badRequest(err)
		}
		attrs, err := s.fs.Stat(ctx, req.Path)
		return s.respond(attrs, err)

	case ps.MsgLstat:
		req, err := payload[ps.LstatRequest](msg)
		if err != nil {
			return badRequest(err)
		}
		attrs, err := s.fs.Lstat(ctx, req.Path)
		return s.respond(attrs, err)

	case ps.MsgReadDir:
		entries, err := s.fs.ReadDir(ctx)
		return s.respond(entries, err)

	case ps.MsgFsStat:
		stats, err := s.fs.GetFsStat(ctx)
		return s.respond(stats, err)

	case ps.MsgFsInfo:
		info, err := s.fs.GetFsInfo(ctx)
		return s.respond(info, err)

	default:
		return badRequest(fmt.Errorf("%w: %s", ps.ErrUnknownMessageType, msg.Type))
	}
}

// respond is a helper to standardize JSON responses and error codes
func (s *SimpleServer) respond(data any, err error) (*communication.Response, error) {
	if err != nil {
		code := ps.CodeFor(err)
		if code == communication.CodeInternal {
			s.ls.Error(log_service.LogEvent{
				Message:  "Request failed",
				Metadata: map[string]any{"error": err.Error()},
			})
		}
		return &communication.Response{
			Code: code,
			Body: []byte(err.Error()),
		}, nil
	}

	if data == nil {
		return &communication.Response{Code: communication.CodeOK}, nil
	}

	bytes, marshalErr := json.Marshal(data)
	if marshalErr != nil {
		return &communication.Response{
			Code: communication.CodeInternal,
			Body: []byte("failed to marshal response: " + marshalErr.Error()),
		}, nil
	}

	return &communication.Response{
		Code: communication.CodeOK,
		Body: bytes,
	}, nil
}

func badRequest(err error) (*communication.Response, error) {
	return &communication.Response{
		Code: communication.CodeBadRequest,
		Body: []byte(err.Error()),
	}, nil
}

var _ ps.Server = (*SimpleServer)(nil)
