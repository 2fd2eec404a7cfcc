package analyzer

import (
	"skillhub/internal/domain"
	"skillhub/internal/port"
)

// RelationshipExtractor derives the edges of a skill against the nodes that
// are already in the graph. Results depend on indexing order: a skill only
// links to skills indexed before it.
type RelationshipExtractor struct {
	graph port.Graph
}

// NewRelationshipExtractor creates an extractor reading from g.
func NewRelationshipExtractor(g port.Graph) *RelationshipExtractor {
	return &RelationshipExtractor{graph: g}
}

// Extract returns, in order: one depends_on edge per declared dependency,
// then same_category edges, then shared_tag edges, all outgoing from skill.
func (e *RelationshipExtractor) Extract(skill domain.Skill) []domain.Relationship {
	var rels []domain.Relationship

	// Dependencies may dangle; no existence check.
	for _, dep := range skill.Dependencies {
		rels = append(rels, domain.Relationship{Source: skill.ID, Kind: domain.RelDependsOn, Target: dep})
	}

	nodes := e.graph.Nodes()

	if skill.Category != "" {
		for _, node := range nodes {
			if node.ID != skill.ID && node.Category == skill.Category {
				rels = append(rels, domain.Relationship{Source: skill.ID, Kind: domain.RelSameCategory, Target: node.ID})
			}
		}
	}

	if len(skill.Tags) > 0 {
		tags := make(map[string]struct{}, len(skill.Tags))
		for _, t := range skill.Tags {
			tags[t] = struct{}{}
		}
		for _, node := range nodes {
			if node.ID == skill.ID {
				continue
			}
			if sharesTag(tags, node.Tags) {
				rels = append(rels, domain.Relationship{Source: skill.ID, Kind: domain.RelSharedTag, Target: node.ID})
			}
		}
	}

	return rels
}

func sharesTag(tags map[string]struct{}, other []string) bool {
	for _, t := range other {
		if _, ok := tags[t]; ok {
			return true
		}
	}
	return false
}

// Apply writes skill's node and its extracted edges into the graph, replacing
// any edges a previous indexing of the same id left behind.
func (e *RelationshipExtractor) Apply(skill domain.Skill) []domain.Relationship {
	rels := e.Extract(skill)
	e.graph.RemoveOutgoing(skill.ID)
	e.graph.AddNode(domain.NodeFromSkill(skill))
	for _, r := range rels {
		e.graph.AddEdge(r.Source, r.Kind, r.Target)
	}
	return rels
}
