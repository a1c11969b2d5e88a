package server

import (
	"context"

	"github.com/ValentinKolb/dDict/lib/store"
	"github.com/ValentinKolb/dDict/rpc/common"
)

// IRPCServerAdapter is the interface for all RPC server adapters
// It is responsible for turning a decoded request into a response
type IRPCServerAdapter interface {
	// Handle validates the request, executes it against the store and returns
	// the response. It never returns nil; domain failures are reported through
	// the response status. ctx cancels store delays on shutdown.
	Handle(ctx context.Context, req *common.Request, store store.IStore) (resp *common.Response)
}
