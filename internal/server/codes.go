package server

import (
	"errors"
	"fmt"

	"github.com/AnishMulay/tinyfs/internal/communication"
	fs "github.com/AnishMulay/tinyfs/internal/file_service"
)

var codeErrors = []struct {
	code communication.SandCode
	err  error
}{
	{communication.CodeBadRequest, fs.ErrInvalidPath},
	{communication.CodeNotFound, fs.ErrNotFound},
	{communication.CodeAlreadyExists, fs.ErrAlreadyExists},
	{communication.CodeResourceExhausted, fs.ErrExhausted},
	{communication.CodeInvalidHandle, fs.ErrInvalidHandle},
	{communication.CodeFailedPrecondition, fs.ErrInvalidOperation},
	{communication.CodeUnavailable, fs.ErrNotRunning},
}

// CodeFor maps a file service error onto the transport code a client turns
// back into the same error with ErrorFor.
func CodeFor(err error) communication.SandCode {
	if err == nil {
		return communication.CodeOK
	}
	for _, ce := range codeErrors {
		if errors.Is(err, ce.err) {
			return ce.code
		}
	}
	return communication.CodeInternal
}

// ErrorFor rebuilds an error from a non-OK response. The remote message is
// kept as text.
func ErrorFor(code communication.SandCode, body []byte) error {
	if code == communication.CodeOK {
		return nil
	}
	for _, ce := range codeErrors {
		if ce.code == code {
			return fmt.Errorf("%w: remote: %s", ce.err, body)
		}
	}
	return fmt.Errorf("%w: %s: %s", ErrRemoteInternal, code, body)
}
