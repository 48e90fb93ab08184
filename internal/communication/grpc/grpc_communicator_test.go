package grpccomm

import (
	"context"
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AnishMulay/tinyfs/internal/communication"
	"github.com/AnishMulay/tinyfs/internal/log_service/zaplog"
)

type echoRequest struct {
	Text string `json:"text"`
}

func startServer(t *testing.T, handler communication.MessageHandler) *GRPCCommunicator {
	t.Helper()
	server := NewGRPCCommunicator("127.0.0.1:0", zaplog.NewNop())
	server.RegisterPayloadType("echo", reflect.TypeOf(echoRequest{}))
	require.NoError(t, server.Start(handler))
	t.Cleanup(func() { _ = server.Stop() })
	return server
}

func newClient(t *testing.T) *GRPCCommunicator {
	t.Helper()
	client := NewGRPCCommunicator("", zaplog.NewNop())
	t.Cleanup(func() { _ = client.Stop() })
	return client
}

func TestGRPCCommunicator_Send(t *testing.T) {
	tests := []struct {
		name     string
		handler  communication.MessageHandler
		msg      communication.Message
		wantCode communication.SandCode
		wantBody string
	}{
		{
			name: "typed payload reaches handler",
			handler: func(ctx context.Context, msg communication.Message) (*communication.Response, error) {
				req, ok := msg.Payload.(echoRequest)
				if !ok {
					return nil, errors.New("unexpected payload type")
				}
				return &communication.Response{Code: communication.CodeOK, Body: []byte(msg.From + ":" + req.Text)}, nil
			},
			msg:      communication.Message{From: "client", Type: "echo", Payload: echoRequest{Text: "hi"}},
			wantCode: communication.CodeOK,
			wantBody: "client:hi",
		},
		{
			name: "message without payload",
			handler: func(ctx context.Context, msg communication.Message) (*communication.Response, error) {
				assert.Nil(t, msg.Payload)
				return &communication.Response{Code: communication.CodeOK}, nil
			},
			msg:      communication.Message{From: "client", Type: "ping"},
			wantCode: communication.CodeOK,
		},
		{
			name: "unregistered payload type",
			handler: func(ctx context.Context, msg communication.Message) (*communication.Response, error) {
				return &communication.Response{Code: communication.CodeOK}, nil
			},
			msg:      communication.Message{Type: "unknown", Payload: echoRequest{Text: "x"}},
			wantCode: communication.CodeBadRequest,
			wantBody: "unknown message type: unknown",
		},
		{
			name: "handler error becomes internal",
			handler: func(ctx context.Context, msg communication.Message) (*communication.Response, error) {
				return nil, errors.New("boom")
			},
			msg:      communication.Message{Type: "echo", Payload: echoRequest{}},
			wantCode: communication.CodeInternal,
			wantBody: "boom",
		},
		{
			name: "nil response becomes internal",
			handler: func(ctx context.Context, msg communication.Message) (*communication.Response, error) {
				return nil, nil
			},
			msg:      communication.Message{Type: "echo", Payload: echoRequest{}},
			wantCode: communication.CodeInternal,
			wantBody: "handler returned nil response",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := startServer(t, tt.handler)
			client := newClient(t)

			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()

			resp, err := client.Send(ctx, server.Address(), tt.msg)
			require.NoError(t, err)
			assert.Equal(t, tt.wantCode, resp.Code)
			if tt.wantBody != "" {
				assert.Equal(t, tt.wantBody, string(resp.Body))
			}
		})
	}
}

func TestGRPCCommunicator_HeadersRoundTrip(t *testing.T) {
	server := startServer(t, func(ctx context.Context, msg communication.Message) (*communication.Response, error) {
		return &communication.Response{Code: communication.CodeNotFound, Headers: map[string]string{"k": "v"}}, nil
	})
	client := newClient(t)

	resp, err := client.Send(context.Background(), server.Address(), communication.Message{Type: "ping"})
	require.NoError(t, err)
	assert.Equal(t, communication.CodeNotFound, resp.Code)
	assert.Equal(t, map[string]string{"k": "v"}, resp.Headers)
}

func TestGRPCCommunicator_SendToUnreachable(t *testing.T) {
	server := startServer(t, func(ctx context.Context, msg communication.Message) (*communication.Response, error) {
		return &communication.Response{Code: communication.CodeOK}, nil
	})
	addr := server.Address()
	require.NoError(t, server.Stop())
	require.NoError(t, server.Stop(), "stop is idempotent")

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	_, err := newClient(t).Send(ctx, addr, communication.Message{Type: "ping"})
	assert.ErrorIs(t, err, communication.ErrMessageSendFailed)
}

func TestGRPCCommunicator_ListenFailure(t *testing.T) {
	server := startServer(t, nil)
	clash := NewGRPCCommunicator(server.Address(), zaplog.NewNop())
	assert.ErrorIs(t, clash.Start(nil), communication.ErrGRPCListenFailed)
}
