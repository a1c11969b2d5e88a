// Package client implements the Go client of the dictionary server.
//
// Key Components:
//
//   - IDictionary: One method per protocol command. Transport and codec
//     failures are returned as errors, every answer of the server (including
//     "duplicate" or "word_not_found") is returned as a *common.Response.
//
//   - NewRPCDictionary: Factory function that connects the given transport and
//     returns an IDictionary. The delay from the client configuration is sent
//     with every mutating request.
//
// Usage Example:
//
//	config := common.ClientConfig{
//	  TimeoutSecond: 5,
//	  Transport: common.ClientTransportConfig{
//	    Endpoints:  []string{"localhost:4444"},
//	    RetryCount: 3,
//	  },
//	}
//
//	dict, err := client.NewRPCDictionary(config, tcp.NewTCPClientTransport(), serializer.NewJSONSerializer())
//	if err != nil {
//	  log.Fatal(err)
//	}
//	defer dict.Close()
//
//	resp, _ := dict.Add("go", []string{"a programming language"})
//	fmt.Println(resp.Status, resp.Message)
//
// Thread Safety:
//
//	IDictionary implementations are safe for concurrent use. Requests sharing
//	a connection are serialized, increase ConnectionsPerEndpoint for parallel
//	requests.
package client
