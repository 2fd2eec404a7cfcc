package domain

import "time"

// Skill is a discoverable unit of instructional content.
type Skill struct {
	ID           string   `json:"id"`
	Name         string   `json:"name"`
	Description  string   `json:"description"`
	Instructions string   `json:"instructions"`
	Category     string   `json:"category"`
	Tags         []string `json:"tags,omitempty"`
	Dependencies []string `json:"dependencies,omitempty"`
	Examples     []string `json:"examples,omitempty"`
	RepoID       string   `json:"repo_id"`
	FilePath     string   `json:"file_path,omitempty"`
	Version      string   `json:"version,omitempty"`
	Author       string   `json:"author,omitempty"`
}

// MatchType classifies which signal produced a search result.
type MatchType string

const (
	MatchVector MatchType = "vector"
	MatchGraph  MatchType = "graph"
	MatchHybrid MatchType = "hybrid"
)

// RelationKind is the type of a graph edge.
type RelationKind string

const (
	RelDependsOn    RelationKind = "depends_on"
	RelSameCategory RelationKind = "same_category"
	RelSharedTag    RelationKind = "shared_tag"
)

// Relationship is a directed (source, kind, target) triple.
type Relationship struct {
	Source string       `json:"source"`
	Kind   RelationKind `json:"kind"`
	Target string       `json:"target"`
}

// GraphNode caches the attributes of a skill at the time it was indexed.
type GraphNode struct {
	ID       string
	Name     string
	Category string
	Tags     []string
}

// NodeFromSkill snapshots the graph attributes of s.
func NodeFromSkill(s Skill) GraphNode {
	tags := make([]string, len(s.Tags))
	copy(tags, s.Tags)
	return GraphNode{
		ID:       s.ID,
		Name:     s.Name,
		Category: s.Category,
		Tags:     tags,
	}
}

// ScoredSkill is one ranked search result.
type ScoredSkill struct {
	Skill     Skill     `json:"skill"`
	Score     float64   `json:"score"`
	MatchType MatchType `json:"match_type"`
}

// SearchRequest describes one discovery query.
type SearchRequest struct {
	Query     string
	Toolchain string // Case-insensitive substring matched against tags
	Category  string // Exact match
	TopK      int
}

// LastIndexed values reported when no timestamp is available.
const (
	LastIndexedNever = "never"
	LastIndexedError = "error"
)

// IndexStats is a point-in-time snapshot of the index.
type IndexStats struct {
	TotalSkills     int    `json:"total_skills"`
	VectorStoreSize int64  `json:"vector_store_size"`
	GraphNodes      int    `json:"graph_nodes"`
	GraphEdges      int    `json:"graph_edges"`
	LastIndexed     string `json:"last_indexed"`
}

// FormatLastIndexed renders t for IndexStats.
func FormatLastIndexed(t time.Time) string {
	if t.IsZero() {
		return LastIndexedNever
	}
	return t.Format(time.RFC3339)
}
