package client

import (
	"github.com/ValentinKolb/dDict/rpc/common"
	"github.com/ValentinKolb/dDict/rpc/serializer"
	"github.com/ValentinKolb/dDict/rpc/transport"
)

// NewRPCDictionary creates a new RPC dictionary client
// The function takes a config, a transport and a serializer as parameters
// It connects the transport and returns an error if no endpoint is reachable.
// config.DelayMillisecond is sent with every mutating request.
func NewRPCDictionary(
	config common.ClientConfig,
	transport transport.IRPCClientTransport,
	serializer serializer.IRPCSerializer,
) (IDictionary, error) {

	// Connect the transport
	err := transport.Connect(config)
	if err != nil {
		return nil, err
	}

	// Create a new RPC dictionary
	d := rpcDictionary{
		rpcClientAdapter{
			config:     config,
			transport:  transport,
			serializer: serializer,
		},
	}

	return &d, nil
}

type rpcDictionary struct {
	rpcClientAdapter
}

// --------------------------------------------------------------------------
// Interface Methods (docu see IDictionary in interface.go)
// --------------------------------------------------------------------------

func (d *rpcDictionary) Query(word string) (*common.Response, error) {
	return invokeRPCRequest(common.NewQueryRequest(word), d.transport, d.serializer)
}

func (d *rpcDictionary) Add(word string, meanings []string) (*common.Response, error) {
	req := common.NewAddRequest(word, meanings, d.config.DelayMillisecond)
	return invokeRPCRequest(req, d.transport, d.serializer)
}

func (d *rpcDictionary) Remove(word string) (*common.Response, error) {
	req := common.NewRemoveRequest(word, d.config.DelayMillisecond)
	return invokeRPCRequest(req, d.transport, d.serializer)
}

func (d *rpcDictionary) AddMeaning(word, newMeaning string) (*common.Response, error) {
	req := common.NewAddMeaningRequest(word, newMeaning, d.config.DelayMillisecond)
	return invokeRPCRequest(req, d.transport, d.serializer)
}

func (d *rpcDictionary) UpdateMeaning(word, oldMeaning, newMeaning string) (*common.Response, error) {
	req := common.NewUpdateMeaningRequest(word, oldMeaning, newMeaning, d.config.DelayMillisecond)
	return invokeRPCRequest(req, d.transport, d.serializer)
}

func (d *rpcDictionary) Close() error {
	return d.transport.Close()
}
