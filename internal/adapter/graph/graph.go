// Package graph holds the in-memory relationship graph between skills.
// It is rebuilt from the catalog on every full reindex and never persisted.
package graph

import (
	"skillhub/internal/domain"
	"skillhub/internal/port"
)

var _ port.Graph = (*Graph)(nil)

type edgeKey struct {
	kind   domain.RelationKind
	target string
}

// Graph is a directed multigraph keyed by skill id. Distinct relation kinds
// between the same ordered pair coexist; an identical triple is kept once.
// It has no internal locking: the engine is single-writer.
type Graph struct {
	nodes map[string]domain.GraphNode
	order []string // node insertion order

	out map[string][]edgeKey
	in  map[string][]string // target -> sources, in insertion order, may repeat

	edges int
}

func New() *Graph {
	g := &Graph{}
	g.Clear()
	return g
}

// AddNode inserts n, or refreshes its cached attributes if it exists.
func (g *Graph) AddNode(n domain.GraphNode) {
	if _, ok := g.nodes[n.ID]; !ok {
		g.order = append(g.order, n.ID)
	}
	g.nodes[n.ID] = n
}

// AddEdge records source -[kind]-> target. Dangling targets are allowed.
func (g *Graph) AddEdge(source string, kind domain.RelationKind, target string) {
	key := edgeKey{kind: kind, target: target}
	for _, existing := range g.out[source] {
		if existing == key {
			return
		}
	}
	g.out[source] = append(g.out[source], key)
	g.in[target] = append(g.in[target], source)
	g.edges++
}

// RemoveOutgoing drops every edge leaving id.
func (g *Graph) RemoveOutgoing(id string) {
	keys := g.out[id]
	if len(keys) == 0 {
		return
	}
	for _, key := range keys {
		g.in[key.target] = removeOne(g.in[key.target], id)
		if len(g.in[key.target]) == 0 {
			delete(g.in, key.target)
		}
	}
	g.edges -= len(keys)
	delete(g.out, id)
}

func removeOne(list []string, v string) []string {
	for i, s := range list {
		if s == v {
			return append(list[:i], list[i+1:]...)
		}
	}
	return list
}

func (g *Graph) Neighbors(id string) []string {
	keys := g.out[id]
	if len(keys) == 0 {
		return nil
	}
	seen := make(map[string]bool, len(keys))
	out := make([]string, 0, len(keys))
	for _, key := range keys {
		if !seen[key.target] {
			seen[key.target] = true
			out = append(out, key.target)
		}
	}
	return out
}

func (g *Graph) Predecessors(id string) []string {
	sources := g.in[id]
	if len(sources) == 0 {
		return nil
	}
	seen := make(map[string]bool, len(sources))
	out := make([]string, 0, len(sources))
	for _, s := range sources {
		if !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
	}
	return out
}

func (g *Graph) Edges(id string) []domain.Relationship {
	keys := g.out[id]
	rels := make([]domain.Relationship, 0, len(keys))
	for _, key := range keys {
		rels = append(rels, domain.Relationship{Source: id, Kind: key.kind, Target: key.target})
	}
	return rels
}

func (g *Graph) HasNode(id string) bool {
	_, ok := g.nodes[id]
	return ok
}

func (g *Graph) Node(id string) (domain.GraphNode, bool) {
	n, ok := g.nodes[id]
	return n, ok
}

func (g *Graph) Nodes() []domain.GraphNode {
	nodes := make([]domain.GraphNode, 0, len(g.order))
	for _, id := range g.order {
		nodes = append(nodes, g.nodes[id])
	}
	return nodes
}

func (g *Graph) NodeCount() int { return len(g.nodes) }

func (g *Graph) EdgeCount() int { return g.edges }

func (g *Graph) Clear() {
	g.nodes = make(map[string]domain.GraphNode)
	g.order = nil
	g.out = make(map[string][]edgeKey)
	g.in = make(map[string][]string)
	g.edges = 0
}
