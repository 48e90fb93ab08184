package grpccomm

import (
	"context"
	"encoding/json"
	"net"
	"reflect"
	"sync"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"github.com/AnishMulay/tinyfs/internal/communication"
	"github.com/AnishMulay/tinyfs/internal/log_service"
)

type GRPCCommunicator struct {
	listenAddress string
	handler       communication.MessageHandler
	grpcServer    *grpc.Server
	ls            log_service.LogService

	clientLock   sync.RWMutex
	clients      map[string]*grpc.ClientConn
	payloadLock  sync.RWMutex
	payloadTypes map[string]reflect.Type
	stopped      bool
	stopMutex    sync.RWMutex
}

func NewGRPCCommunicator(addr string, ls log_service.LogService) *GRPCCommunicator {
	return &GRPCCommunicator{
		listenAddress: addr,
		ls:            ls,
		clients:       make(map[string]*grpc.ClientConn),
		payloadTypes:  make(map[string]reflect.Type),
	}
}

// Address is the configured listen address, or the bound one once Start
// succeeded (useful with port 0).
func (c *GRPCCommunicator) Address() string {
	return c.listenAddress
}

func (c *GRPCCommunicator) RegisterPayloadType(msgType string, payloadType reflect.Type) {
	c.payloadLock.Lock()
	defer c.payloadLock.Unlock()
	c.payloadTypes[msgType] = payloadType
}

func (c *GRPCCommunicator) Start(handler communication.MessageHandler) error {
	c.ls.Info(log_service.LogEvent{
		Message:  "Starting GRPC communicator",
		Metadata: map[string]any{"address": c.listenAddress},
	})

	lis, err := net.Listen("tcp", c.listenAddress)
	if err != nil {
		c.ls.Error(log_service.LogEvent{
			Message:  "Failed to listen on address",
			Metadata: map[string]any{"address": c.listenAddress, "error": err.Error()},
		})
		return communication.ErrGRPCListenFailed
	}

	c.handler = handler
	c.listenAddress = lis.Addr().String()
	c.grpcServer = grpc.NewServer()
	c.grpcServer.RegisterService(&messageServiceDesc, &grpcServer{comm: c})

	c.ls.Info(log_service.LogEvent{
		Message:  "GRPC communicator started successfully",
		Metadata: map[string]any{"address": c.listenAddress},
	})

	go func() {
		if err := c.grpcServer.Serve(lis); err != nil {
			c.ls.Error(log_service.LogEvent{
				Message:  "GRPC server error",
				Metadata: map[string]any{"address": c.listenAddress, "error": err.Error()},
			})
		}
	}()
	return nil
}

func (c *GRPCCommunicator) Stop() error {
	c.stopMutex.Lock()
	defer c.stopMutex.Unlock()

	if c.stopped {
		c.ls.Debug(log_service.LogEvent{
			Message:  "GRPC communicator already stopped, skipping",
			Metadata: map[string]any{"address": c.listenAddress},
		})
		return nil
	}

	c.ls.Info(log_service.LogEvent{
		Message:  "Stopping GRPC communicator",
		Metadata: map[string]any{"address": c.listenAddress},
	})

	if c.grpcServer != nil {
		c.grpcServer.GracefulStop()
	}

	c.clientLock.Lock()
	for to, conn := range c.clients {
		if err := conn.Close(); err != nil {
			c.ls.Warn(log_service.LogEvent{
				Message:  "Failed to close GRPC client",
				Metadata: map[string]any{"to": to, "error": err.Error()},
			})
		}
		delete(c.clients, to)
	}
	c.clientLock.Unlock()

	c.stopped = true
	c.ls.Info(log_service.LogEvent{
		Message:  "GRPC communicator stopped successfully",
		Metadata: map[string]any{"address": c.listenAddress},
	})

	return nil
}

func (c *GRPCCommunicator) client(to string) (*grpc.ClientConn, error) {
	c.clientLock.RLock()
	conn, ok := c.clients[to]
	c.clientLock.RUnlock()
	if ok {
		return conn, nil
	}

	c.clientLock.Lock()
	defer c.clientLock.Unlock()
	if conn, ok := c.clients[to]; ok {
		return conn, nil
	}

	c.ls.Debug(log_service.LogEvent{
		Message:  "Creating new GRPC client",
		Metadata: map[string]any{"to": to},
	})

	conn, err := grpc.NewClient(to, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		c.ls.Error(log_service.LogEvent{
			Message:  "Failed to create GRPC client",
			Metadata: map[string]any{"to": to, "error": err.Error()},
		})
		return nil, communication.ErrClientCreateFailed
	}
	c.clients[to] = conn
	return conn, nil
}

func (c *GRPCCommunicator) Send(ctx context.Context, to string, msg communication.Message) (*communication.Response, error) {
	c.ls.Debug(log_service.LogEvent{
		Message:  "Sending GRPC message",
		Metadata: map[string]any{"to": to, "type": msg.Type, "from": msg.From},
	})

	conn, err := c.client(to)
	if err != nil {
		return nil, err
	}

	// Serialize payload to JSON bytes
	var payloadBytes []byte
	if msg.Payload != nil {
		payloadBytes, err = json.Marshal(msg.Payload)
		if err != nil {
			c.ls.Error(log_service.LogEvent{
				Message:  "Failed to marshal payload",
				Metadata: map[string]any{"to": to, "type": msg.Type, "error": err.Error()},
			})
			return nil, communication.ErrPayloadMarshalFailed
		}
	}

	envelope, err := json.Marshal(messageRequest{From: msg.From, Type: msg.Type, Payload: payloadBytes})
	if err != nil {
		return nil, communication.ErrMessageMarshalFailed
	}

	out := new(wrapperspb.BytesValue)
	if err := conn.Invoke(ctx, sendMessageMethod, wrapperspb.Bytes(envelope), out); err != nil {
		c.ls.Error(log_service.LogEvent{
			Message:  "Failed to send GRPC message",
			Metadata: map[string]any{"to": to, "type": msg.Type, "error": err.Error()},
		})
		return nil, communication.ErrMessageSendFailed
	}

	var resp messageResponse
	if err := json.Unmarshal(out.GetValue(), &resp); err != nil {
		return nil, communication.ErrPayloadUnmarshalFailed
	}

	c.ls.Debug(log_service.LogEvent{
		Message:  "GRPC message sent successfully",
		Metadata: map[string]any{"to": to, "type": msg.Type, "responseCode": resp.Code},
	})

	return &communication.Response{
		Code:    communication.SandCode(resp.Code),
		Body:    resp.Body,
		Headers: resp.Headers,
	}, nil
}

type grpcServer struct {
	comm *GRPCCommunicator
}

func (s *grpcServer) SendMessage(ctx context.Context, in *wrapperspb.BytesValue) (*wrapperspb.BytesValue, error) {
	if s.comm.handler == nil {
		return nil, communication.ErrHandlerNotSet
	}

	var req messageRequest
	if err := json.Unmarshal(in.GetValue(), &req); err != nil {
		return reply(communication.CodeBadRequest, []byte(communication.ErrPayloadUnmarshalFailed.Error()), nil)
	}

	msg := communication.Message{
		From: req.From,
		Type: req.Type,
	}

	// Deserialize payload based on registered type
	if req.Payload != nil {
		s.comm.payloadLock.RLock()
		payloadType, ok := s.comm.payloadTypes[req.Type]
		s.comm.payloadLock.RUnlock()
		if !ok {
			return reply(communication.CodeBadRequest, []byte("unknown message type: "+req.Type), nil)
		}

		payload := reflect.New(payloadType).Interface()
		if err := json.Unmarshal(req.Payload, payload); err != nil {
			return reply(communication.CodeBadRequest, []byte(communication.ErrPayloadUnmarshalFailed.Error()), nil)
		}

		msg.Payload = reflect.ValueOf(payload).Elem().Interface()
	}

	resp, err := s.comm.handler(ctx, msg)
	if err != nil {
		s.comm.ls.Error(log_service.LogEvent{
			Message:  "Message handler failed",
			Metadata: map[string]any{"type": req.Type, "error": err.Error()},
		})
		return reply(communication.CodeInternal, []byte(err.Error()), nil)
	}

	if resp == nil {
		return reply(communication.CodeInternal, []byte("handler returned nil response"), nil)
	}

	return reply(resp.Code, resp.Body, resp.Headers)
}

func reply(code communication.SandCode, body []byte, headers map[string]string) (*wrapperspb.BytesValue, error) {
	out, err := json.Marshal(messageResponse{Code: string(code), Body: body, Headers: headers})
	if err != nil {
		return nil, communication.ErrMessageMarshalFailed
	}
	return wrapperspb.Bytes(out), nil
}

var _ communication.Communicator = (*GRPCCommunicator)(nil)
