package retriever

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"skillhub/internal/adapter/graph"
	"skillhub/internal/domain"
)

func chainGraph() *graph.Graph {
	g := graph.New()
	for _, id := range []string{"a", "b", "c", "d"} {
		g.AddNode(domain.GraphNode{ID: id})
	}
	g.AddEdge("a", domain.RelDependsOn, "b")
	g.AddEdge("b", domain.RelSharedTag, "c")
	g.AddEdge("c", domain.RelSharedTag, "d")
	g.AddEdge("c", domain.RelSameCategory, "a") // cycle
	return g
}

func visitIDs(visits []Visit) []string {
	ids := make([]string, len(visits))
	for i, v := range visits {
		ids[i] = v.ID
	}
	return ids
}

func TestTraverse(t *testing.T) {
	g := chainGraph()

	tests := []struct {
		name     string
		seed     string
		maxDepth int
		dir      Direction
		want     []Visit
	}{
		{
			name:     "bounded by depth",
			seed:     "a",
			maxDepth: 2,
			want: []Visit{
				{ID: "a", Depth: 0, Score: 1},
				{ID: "b", Depth: 1, Score: 0.5},
				{ID: "c", Depth: 2, Score: 1.0 / 3},
			},
		},
		{
			name:     "depth zero is only the seed",
			seed:     "b",
			maxDepth: 0,
			want:     []Visit{{ID: "b", Depth: 0, Score: 1}},
		},
		{
			name:     "cycle does not revisit",
			seed:     "a",
			maxDepth: 10,
			want: []Visit{
				{ID: "a", Depth: 0, Score: 1},
				{ID: "b", Depth: 1, Score: 0.5},
				{ID: "c", Depth: 2, Score: 1.0 / 3},
				{ID: "d", Depth: 3, Score: 0.25},
			},
		},
		{
			name:     "isolated seed",
			seed:     "d",
			maxDepth: 2,
			want:     []Visit{{ID: "d", Depth: 0, Score: 1}},
		},
		{
			name:     "both directions reach predecessors",
			seed:     "d",
			maxDepth: 1,
			dir:      Both,
			want: []Visit{
				{ID: "d", Depth: 0, Score: 1},
				{ID: "c", Depth: 1, Score: 0.5},
			},
		},
		{
			name:     "unknown seed",
			seed:     "zzz",
			maxDepth: 2,
			want:     nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Traverse(g, tt.seed, tt.maxDepth, tt.dir)
			assert.Equal(t, visitIDs(tt.want), visitIDs(got))
			for i := range got {
				assert.Equal(t, tt.want[i].Depth, got[i].Depth)
				assert.InDelta(t, tt.want[i].Score, got[i].Score, 1e-9)
			}
		})
	}
}

func TestTraverseFirstSeenDepthWins(t *testing.T) {
	g := graph.New()
	for _, id := range []string{"s", "x", "y"} {
		g.AddNode(domain.GraphNode{ID: id})
	}
	g.AddEdge("s", domain.RelDependsOn, "x")
	g.AddEdge("x", domain.RelDependsOn, "y")
	g.AddEdge("s", domain.RelDependsOn, "y")

	visits := Traverse(g, "s", 2, Outgoing)
	assert.Equal(t, []string{"s", "x", "y"}, visitIDs(visits))
	assert.Equal(t, 1, visits[2].Depth)
}

func TestTraverseDanglingTarget(t *testing.T) {
	g := graph.New()
	g.AddNode(domain.GraphNode{ID: "s"})
	g.AddEdge("s", domain.RelDependsOn, "missing")

	assert.Equal(t, []string{"s", "missing"}, visitIDs(Traverse(g, "s", 2, Outgoing)))
}
