package communication

import (
	"context"
	"reflect"
)

type Message struct {
	From    string
	Type    string
	Payload any
}

// SandCode is the transport-level outcome of a request.
type SandCode string

const (
	CodeOK                 SandCode = "OK"
	CodeBadRequest         SandCode = "BAD_REQUEST"
	CodeNotFound           SandCode = "NOT_FOUND"
	CodeAlreadyExists      SandCode = "ALREADY_EXISTS"
	CodeResourceExhausted  SandCode = "RESOURCE_EXHAUSTED"
	CodeInvalidHandle      SandCode = "INVALID_HANDLE"
	CodeFailedPrecondition SandCode = "FAILED_PRECONDITION"
	CodeUnavailable        SandCode = "UNAVAILABLE"
	CodeInternal           SandCode = "INTERNAL"
)

type Response struct {
	Code    SandCode
	Body    []byte
	Headers map[string]string
}

type Communicator interface {
	Start(handler MessageHandler) error
	Stop() error
	Send(ctx context.Context, to string, msg Message) (*Response, error)
	Address() string

	// RegisterPayloadType tells the receiving side which Go type a message
	// type's JSON payload decodes into.
	RegisterPayloadType(msgType string, payloadType reflect.Type)
}
