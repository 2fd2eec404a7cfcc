package port

import "skillhub/internal/domain"

// Graph is a directed multigraph over skill ids.
type Graph interface {
	// AddNode inserts or replaces the node for n.ID.
	AddNode(n domain.GraphNode)

	// AddEdge records a directed edge. The target does not need to be a node.
	AddEdge(source string, kind domain.RelationKind, target string)

	// RemoveOutgoing drops every edge whose source is id.
	RemoveOutgoing(id string)

	// Neighbors returns the distinct targets of id's outgoing edges in insertion order.
	Neighbors(id string) []string

	// Predecessors returns the distinct sources of id's incoming edges in insertion order.
	Predecessors(id string) []string

	HasNode(id string) bool
	Node(id string) (domain.GraphNode, bool)

	// Nodes returns every node in insertion order.
	Nodes() []domain.GraphNode

	// Edges returns the outgoing edges of id.
	Edges(id string) []domain.Relationship

	NodeCount() int
	EdgeCount() int
	Clear()
}
