// Package server implements the dictionary server: it connects a stream
// transport, the JSON serializer and the dictionary store.
//
// Key Components:
//
//   - IRPCServerAdapter: Interface defining the contract for all server adapters,
//     with the Handle method that validates a decoded request and executes it
//     against a store.IStore.
//
//   - NewIStoreServerAdapter: Factory function creating the adapter for the five
//     dictionary commands (query, add, remove, addMeaning, updateMeaning). It
//     trims input, validates required fields and maps store return codes to
//     response messages. Mutation delays are only applied when AllowDelay is set
//     and are capped at MaxDelay.
//
//   - NewRPCServer: Factory function creating a configured server. Serve loads
//     the dictionary file, optionally starts the metrics endpoint and runs the
//     transport until Stop is called.
//
// Usage Example:
//
//	config := common.ServerConfig{
//	  Endpoint:       "0.0.0.0:4444",
//	  DictionaryPath: "dictionary.json",
//	  TimeoutSecond:  5,
//	  LogLevel:       "info",
//	}
//
//	s := server.NewRPCServer(
//	  config,
//	  tcp.NewTCPServerTransport(),
//	  serializer.NewJSONSerializer(),
//	)
//
//	if err := s.Serve(); err != nil {
//	  log.Fatalf("Server error: %v", err)
//	}
//
// Every request line gets exactly one response line. Malformed lines and
// unknown commands produce an error response and leave the session open.
//
// Thread Safety:
//
//	The server handles requests of all sessions concurrently. Stop is
//	idempotent and may be called from any goroutine. Serve must be called
//	only once.
package server
