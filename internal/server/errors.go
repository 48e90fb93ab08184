package server

import "errors"

var (
	// Message handling errors
	ErrInvalidPayloadType = errors.New("invalid payload type for message")
	ErrUnknownMessageType = errors.New("unknown message type")
	ErrInvalidLength      = errors.New("invalid read length")

	// Remote outcome without a matching local error
	ErrRemoteInternal = errors.New("remote internal error")
)
