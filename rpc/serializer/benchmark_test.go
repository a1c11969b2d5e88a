package serializer

import (
	"strings"
	"testing"

	"github.com/ValentinKolb/dDict/rpc/common"
)

// benchmarkRequests returns a set of requests for targeted benchmarking
func benchmarkRequests() map[string]*common.Request {
	many := make([]string, 100)
	for i := range many {
		many[i] = strings.Repeat("m", 20)
	}
	return map[string]*common.Request{
		"Query":           common.NewQueryRequest("apple"),
		"AddSmall":        common.NewAddRequest("apple", []string{"a fruit"}, 0),
		"AddManyMeanings": common.NewAddRequest("apple", many, 0),
		"AddLargeMeaning": common.NewAddRequest("apple", []string{strings.Repeat("x", 16*1024)}, 0),
		"UpdateMeaning":   common.NewUpdateMeaningRequest("apple", "a fruit", "a red fruit", 100),
	}
}

// BenchmarkSerializeRequest benchmarks request serialization with various request types
func BenchmarkSerializeRequest(b *testing.B) {
	for name, factory := range testSerializers {
		for reqName, req := range benchmarkRequests() {
			b.Run(name+"_"+reqName, func(b *testing.B) {
				serializer := factory()
				b.ResetTimer()

				for i := 0; i < b.N; i++ {
					if _, err := serializer.SerializeRequest(req); err != nil {
						b.Fatalf("Failed to serialize: %v", err)
					}
				}
			})
		}
	}
}

// BenchmarkDeserializeRequest benchmarks request parsing and validation
func BenchmarkDeserializeRequest(b *testing.B) {
	for name, factory := range testSerializers {
		serializer := factory()
		for reqName, req := range benchmarkRequests() {
			data, err := serializer.SerializeRequest(req)
			if err != nil {
				b.Fatalf("Failed to serialize %s with %s: %v", reqName, name, err)
			}

			b.Run(name+"_"+reqName, func(b *testing.B) {
				b.ReportMetric(float64(len(data)), "bytes")
				for i := 0; i < b.N; i++ {
					if _, err := serializer.DeserializeRequest(data); err != nil {
						b.Fatalf("Failed to deserialize: %v", err)
					}
				}
			})
		}
	}
}
