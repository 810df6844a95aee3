package cluster

import (
	"fmt"
	"gossip_scan/internal/dataType"
	"math/rand"
	"testing"
)

func makeNodes(n int) []dataType.Node {
	nodes := make([]dataType.Node, 0, n)
	for i := 0; i < n; i++ {
		nodes = append(nodes, dataType.Node{
			PubKey:   fmt.Sprintf("pubkey-%d", i),
			GossipIP: fmt.Sprintf("10.0.%d.%d", i/256, i%256),
		})
	}
	return nodes
}

func TestSampleNodes_Size(t *testing.T) {
	tests := []struct {
		name       string
		population int
		sampleSize int
		want       int
	}{
		{"sample smaller than population", 500, 150, 150},
		{"sample equals population", 150, 150, 150},
		{"population smaller than sample", 3, 100, 3},
		{"empty population", 0, 100, 0},
		{"sample of one", 10, 1, 1},
	}

	rng := rand.New(rand.NewSource(42))
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := SampleNodes(rng, makeNodes(tt.population), tt.sampleSize)
			if len(got) != tt.want {
				t.Errorf("SampleNodes returned %d nodes, want %d", len(got), tt.want)
			}
		})
	}
}

func TestSampleNodes_DistinctAndFromPopulation(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	nodes := makeNodes(300)

	population := make(map[string]bool, len(nodes))
	for _, n := range nodes {
		population[n.PubKey] = true
	}

	for trial := 0; trial < 20; trial++ {
		sample := SampleNodes(rng, nodes, 100)
		seen := make(map[string]bool, len(sample))
		for _, n := range sample {
			if !population[n.PubKey] {
				t.Fatalf("sampled node %s not in population", n.PubKey)
			}
			if seen[n.PubKey] {
				t.Fatalf("node %s sampled twice", n.PubKey)
			}
			seen[n.PubKey] = true
		}
	}
}

func TestSampleNodes_DoesNotMutateInput(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	nodes := makeNodes(50)
	first := nodes[0].PubKey

	SampleNodes(rng, nodes, 10)

	if nodes[0].PubKey != first {
		t.Errorf("input slice was reordered")
	}
}
