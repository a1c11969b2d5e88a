// Package serializer converts between the line protocol's JSON representation
// and the common.Request / common.Response values.
//
// Key Components:
//
//   - IRPCSerializer: Interface with separate methods for requests and responses,
//     since the server only decodes requests and the client only decodes responses.
//
//   - jsonSerializerImpl: JSON implementation. Requests are decoded into a struct
//     of pointers first, so a missing field can be told apart from an empty one:
//     a missing "word" is a malformed request, an empty "word" is a valid request
//     that the server rejects with a dedicated message.
//
// Errors:
//
//   - ErrMalformedRequest: invalid JSON, not an object, wrong field types, missing
//     command or a missing field required by the command.
//   - ErrUnknownCommand: valid JSON with a command name the server does not know.
//
// Output never contains a raw newline (JSON escapes them inside strings), so
// every serialized message fits on one line of the wire protocol. HTML escaping
// is disabled to keep meanings readable on the wire and in the dictionary file.
//
// Thread Safety:
//
//	The serializer is stateless and safe for concurrent use.
package serializer
