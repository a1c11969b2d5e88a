package client

import (
	"fmt"

	"github.com/ValentinKolb/dDict/rpc/common"
	"github.com/ValentinKolb/dDict/rpc/serializer"
	"github.com/ValentinKolb/dDict/rpc/transport"
	"github.com/lni/dragonboat/v4/logger"
)

var (
	Logger = logger.GetLogger("client")
)

// rpcClientAdapter stores all data needed by an RPC client implementation
type rpcClientAdapter struct {
	config     common.ClientConfig
	transport  transport.IRPCClientTransport
	serializer serializer.IRPCSerializer
}

// invokeRPCRequest is a helper function used by all client methods to send requests
// It serializes the request, performs one exchange over the transport and
// decodes the response line. Error responses from the server are returned
// as responses, not as errors.
func invokeRPCRequest(req *common.Request, transport transport.IRPCClientTransport, serializer serializer.IRPCSerializer) (*common.Response, error) {
	// Serialize the request
	reqBytes, err := serializer.SerializeRequest(req)
	if err != nil {
		return nil, fmt.Errorf("failed to encode %s request: %w", req.Command, err)
	}

	// Send the request
	respBytes, err := transport.Send(reqBytes)
	if err != nil {
		return nil, err
	}

	// Deserialize the response
	resp, err := serializer.DeserializeResponse(respBytes)
	if err != nil {
		return nil, fmt.Errorf("invalid response to %s request: %w", req.Command, err)
	}

	Logger.Debugf("%s %q => %s", req.Command, req.Word, resp.Status)
	return resp, nil
}
