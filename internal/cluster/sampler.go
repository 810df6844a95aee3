package cluster

import (
	"gossip_scan/internal/dataType"
	"math/rand"
)

// SampleNodes draws a uniform subset of size min(size, len(nodes))
// without replacement. A list smaller than size is returned whole;
// longitudinal coverage comes from each run sampling independently.
func SampleNodes(rng *rand.Rand, nodes []dataType.Node, size int) []dataType.Node {
	if size >= len(nodes) {
		out := make([]dataType.Node, len(nodes))
		copy(out, nodes)
		return out
	}

	perm := rng.Perm(len(nodes))
	out := make([]dataType.Node, 0, size)
	for _, i := range perm[:size] {
		out = append(out, nodes[i])
	}
	return out
}
