package serializer

import (
	"errors"

	"github.com/ValentinKolb/dDict/rpc/common"
)

var (
	// ErrMalformedRequest is returned for input that is not valid JSON, is not an
	// object, or lacks a field the command requires.
	ErrMalformedRequest = errors.New("malformed request")
	// ErrUnknownCommand is returned for well-formed input whose command is not recognised.
	ErrUnknownCommand = errors.New("unknown command")
	// ErrMalformedResponse is returned by DeserializeResponse for input without a status.
	ErrMalformedResponse = errors.New("malformed response")
)

// IRPCSerializer is the interface for all message serializers.
// Serialized messages never contain a newline, so they can be framed by lines.
type IRPCSerializer interface {
	// SerializeRequest serializes a Request into a byte array
	SerializeRequest(req *common.Request) ([]byte, error)
	// DeserializeRequest parses and validates one request.
	// The returned error wraps ErrMalformedRequest or ErrUnknownCommand.
	DeserializeRequest(b []byte) (*common.Request, error)
	// SerializeResponse serializes a Response into a byte array
	SerializeResponse(resp *common.Response) ([]byte, error)
	// DeserializeResponse parses one response.
	DeserializeResponse(b []byte) (*common.Response, error)
}
