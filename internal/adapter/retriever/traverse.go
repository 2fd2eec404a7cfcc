package retriever

import "skillhub/internal/port"

// Direction selects which edges a traversal follows.
type Direction int

const (
	// Outgoing follows edges from source to target only.
	Outgoing Direction = iota
	// Both also walks edges backwards, so a skill reaches the skills that point at it.
	Both
)

func (d Direction) String() string {
	if d == Both {
		return "both"
	}
	return "outgoing"
}

// Visit is one node reached by Traverse.
type Visit struct {
	ID    string
	Depth int
	Score float64 // 1 / (Depth + 1)
}

// Traverse runs a breadth-first walk from seed, at most maxDepth hops deep.
// The seed is the first visit at depth 0. A node is visited once, at the
// depth it was first reached. A seed that is not a node yields nothing.
func Traverse(g port.Graph, seed string, maxDepth int, dir Direction) []Visit {
	if g == nil || !g.HasNode(seed) {
		return nil
	}
	if maxDepth < 0 {
		maxDepth = 0
	}

	visited := map[string]bool{seed: true}
	visits := []Visit{{ID: seed, Depth: 0, Score: 1}}

	for i := 0; i < len(visits); i++ {
		cur := visits[i]
		if cur.Depth >= maxDepth {
			continue
		}
		for _, next := range adjacent(g, cur.ID, dir) {
			if visited[next] {
				continue
			}
			visited[next] = true
			depth := cur.Depth + 1
			visits = append(visits, Visit{ID: next, Depth: depth, Score: 1 / float64(depth+1)})
		}
	}
	return visits
}

func adjacent(g port.Graph, id string, dir Direction) []string {
	out := g.Neighbors(id)
	if dir != Both {
		return out
	}
	return append(out, g.Predecessors(id)...)
}
