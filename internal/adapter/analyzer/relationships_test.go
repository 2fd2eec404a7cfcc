package analyzer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"skillhub/internal/adapter/graph"
	"skillhub/internal/domain"
)

func TestExtractDependenciesInDeclaredOrder(t *testing.T) {
	ex := NewRelationshipExtractor(graph.New())

	rels := ex.Extract(domain.Skill{ID: "s", Dependencies: []string{"a", "b"}})

	require.GreaterOrEqual(t, len(rels), 2)
	assert.Equal(t, domain.Relationship{Source: "s", Kind: domain.RelDependsOn, Target: "a"}, rels[0])
	assert.Equal(t, domain.Relationship{Source: "s", Kind: domain.RelDependsOn, Target: "b"}, rels[1])
}

func TestSameCategoryPointsFromLaterToEarlier(t *testing.T) {
	g := graph.New()
	ex := NewRelationshipExtractor(g)

	// Indexing order matters: "first" is indexed before "second".
	first := domain.Skill{ID: "first", Category: "testing"}
	second := domain.Skill{ID: "second", Category: "testing"}

	assert.Empty(t, ex.Apply(first))
	rels := ex.Apply(second)

	assert.Equal(t, []domain.Relationship{
		{Source: "second", Kind: domain.RelSameCategory, Target: "first"},
	}, rels)
	assert.Empty(t, g.Neighbors("first"))
}

func TestEmptyCategoryNeverMatches(t *testing.T) {
	g := graph.New()
	ex := NewRelationshipExtractor(g)
	ex.Apply(domain.Skill{ID: "a"})

	assert.Empty(t, ex.Extract(domain.Skill{ID: "b"}))
}

func TestSharedTagIsOneEdgePerNode(t *testing.T) {
	g := graph.New()
	ex := NewRelationshipExtractor(g)
	ex.Apply(domain.Skill{ID: "a", Tags: []string{"go", "testing", "ci"}})

	rels := ex.Extract(domain.Skill{ID: "b", Tags: []string{"ci", "go"}})
	assert.Equal(t, []domain.Relationship{
		{Source: "b", Kind: domain.RelSharedTag, Target: "a"},
	}, rels)
}

func TestExtractScenario(t *testing.T) {
	g := graph.New()
	ex := NewRelationshipExtractor(g)

	a := domain.Skill{ID: "A", Category: "x", Tags: []string{"t1"}}
	b := domain.Skill{ID: "B", Category: "x", Tags: []string{"t1", "t2"}}
	c := domain.Skill{ID: "C", Category: "y", Tags: []string{"t2"}}

	// Indexed in order A, B, C.
	ex.Apply(a)
	ex.Apply(b)
	ex.Apply(c)

	assert.Equal(t, []domain.Relationship{
		{Source: "B", Kind: domain.RelSameCategory, Target: "A"},
		{Source: "B", Kind: domain.RelSharedTag, Target: "A"},
	}, g.Edges("B"))
	assert.Equal(t, []domain.Relationship{
		{Source: "C", Kind: domain.RelSharedTag, Target: "B"},
	}, g.Edges("C"))
	assert.Empty(t, g.Edges("A"))
	assert.Equal(t, 3, g.EdgeCount())
}

func TestApplyReplacesPreviousEdges(t *testing.T) {
	g := graph.New()
	ex := NewRelationshipExtractor(g)
	ex.Apply(domain.Skill{ID: "a", Category: "x"})
	ex.Apply(domain.Skill{ID: "b", Category: "x", Dependencies: []string{"gone"}})
	require.Equal(t, 2, g.EdgeCount())

	ex.Apply(domain.Skill{ID: "b", Category: "y"})
	assert.Equal(t, 0, g.EdgeCount())
	assert.Equal(t, 2, g.NodeCount())
}
