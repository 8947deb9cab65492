package feed

import (
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

// genShardResponses builds a slice of shard responses with small
// random symbol sets so overlaps actually occur.
func genShardResponses() gopter.Gen {
	symbolGen := gen.OneConstOf("RELIANCE", "TCS", "INFY", "HDFCBANK", "SBIN", "WIPRO")
	shardGen := gen.MapOf(symbolGen, gen.Float64Range(1, 5000))
	return gen.SliceOfN(4, shardGen)
}

func TestMergeBySymbolProperties(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	properties := gopter.NewProperties(parameters)

	properties.Property("merged keys are the union of shard keys", prop.ForAll(
		func(responses []map[string]float64) bool {
			merged, _ := mergeBySymbol(responses)

			union := make(map[string]bool)
			for _, resp := range responses {
				for symbol := range resp {
					union[symbol] = true
				}
			}
			if len(merged) != len(union) {
				return false
			}
			for symbol := range union {
				if _, ok := merged[symbol]; !ok {
					return false
				}
			}
			return true
		},
		genShardResponses(),
	))

	properties.Property("conflict count equals total entries minus distinct symbols", prop.ForAll(
		func(responses []map[string]float64) bool {
			merged, conflicts := mergeBySymbol(responses)

			total := 0
			for _, resp := range responses {
				total += len(resp)
			}
			return len(conflicts) == total-len(merged)
		},
		genShardResponses(),
	))

	properties.Property("disjoint shards yield no conflicts", prop.ForAll(
		func(values []float64) bool {
			symbols := []string{"A", "B", "C", "D", "E", "F"}
			responses := make([]map[string]float64, 0, len(values))
			for i, v := range values {
				responses = append(responses, map[string]float64{symbols[i]: v})
			}

			merged, conflicts := mergeBySymbol(responses)
			return len(conflicts) == 0 && len(merged) == len(values)
		},
		gen.SliceOfN(6, gen.Float64Range(1, 5000)),
	))

	properties.TestingRun(t)
}
