package usecase

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"skillhub/config"
	"skillhub/internal/adapter/embedding"
	"skillhub/internal/adapter/graph"
	"skillhub/internal/adapter/memstore"
	"skillhub/internal/adapter/retriever"
	"skillhub/internal/domain"
	"skillhub/internal/port"
)

// listSource serves skills in a fixed order.
type listSource struct {
	skills []domain.Skill
	err    error
}

func (s *listSource) DiscoverSkills(context.Context) ([]domain.Skill, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.skills, nil
}

func (s *listSource) LoadSkill(id string) (domain.Skill, bool) {
	for _, sk := range s.skills {
		if sk.ID == id {
			return sk, true
		}
	}
	return domain.Skill{}, false
}

// recordingEmbedder wraps the hash embedder, counts calls and fails any
// request containing a poisoned text.
type recordingEmbedder struct {
	inner  port.Embedder
	poison string
	calls  int
	sizes  []int
}

func newRecordingEmbedder() *recordingEmbedder {
	return &recordingEmbedder{inner: embedding.NewHashEmbedder(32)}
}

func (e *recordingEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	e.calls++
	e.sizes = append(e.sizes, len(texts))
	for _, t := range texts {
		if e.poison != "" && strings.Contains(t, e.poison) {
			return nil, errors.New("embedding backend rejected input")
		}
	}
	return e.inner.Embed(ctx, texts)
}

func (e *recordingEmbedder) Dimension() int    { return e.inner.Dimension() }
func (e *recordingEmbedder) ModelName() string { return "recording" }

type harness struct {
	source   *listSource
	embedder *recordingEmbedder
	vectors  *memstore.VectorStore
	graph    *graph.Graph
	engine   *Engine
}

func newHarness(skills []domain.Skill, opts Options) *harness {
	h := &harness{
		source:   &listSource{skills: skills},
		embedder: newRecordingEmbedder(),
		vectors:  memstore.NewVectorStore(32),
		graph:    graph.New(),
	}
	h.engine = NewEngine(h.source, h.embedder, h.vectors, h.graph, opts)
	return h
}

func skill(id, category string, tags ...string) domain.Skill {
	return domain.Skill{
		ID:           id,
		Name:         id,
		Description:  "skill " + id,
		Instructions: "instructions for " + id,
		Category:     category,
		Tags:         tags,
	}
}

func count(t *testing.T, s port.VectorStore) int {
	t.Helper()
	n, err := s.Count()
	require.NoError(t, err)
	return n
}

func TestIndexSkillCountsOncePerID(t *testing.T) {
	h := newHarness(nil, DefaultOptions())
	ctx := context.Background()

	out := h.engine.IndexSkill(ctx, skill("a", "testing"))
	assert.Equal(t, StatusIndexed, out.Status)
	assert.Equal(t, 1, count(t, h.vectors))

	out = h.engine.IndexSkill(ctx, skill("b", "testing"))
	assert.Equal(t, StatusIndexed, out.Status)
	assert.Equal(t, 2, count(t, h.vectors))

	updated := skill("a", "debugging")
	updated.Description = "rewritten"
	out = h.engine.IndexSkill(ctx, updated)
	assert.Equal(t, StatusIndexed, out.Status)
	assert.Equal(t, 2, count(t, h.vectors))

	node, ok := h.graph.Node("a")
	require.True(t, ok)
	assert.Equal(t, "debugging", node.Category)
}

func TestIndexSkillEmptyTextStaysOutOfVectorStore(t *testing.T) {
	h := newHarness(nil, DefaultOptions())
	h.engine.IndexSkill(context.Background(), skill("dep", "x"))
	calls := h.embedder.calls

	empty := domain.Skill{ID: "empty", Category: "x", Dependencies: []string{"dep"}}
	out := h.engine.IndexSkill(context.Background(), empty)

	assert.Equal(t, StatusSkipped, out.Status)
	assert.NoError(t, out.Err)
	assert.Equal(t, 1, count(t, h.vectors))
	assert.False(t, h.vectors.Has("empty"))
	assert.Equal(t, calls, h.embedder.calls)

	// Still discoverable through the graph.
	assert.True(t, h.graph.HasNode("empty"))
	assert.Equal(t, []string{"dep"}, h.graph.Neighbors("empty"))
}

func TestIndexSkillFailureLeavesGraphUntouched(t *testing.T) {
	h := newHarness(nil, DefaultOptions())
	h.embedder.poison = "broken"

	out := h.engine.IndexSkill(context.Background(), skill("broken", "x"))
	assert.Equal(t, StatusFailed, out.Status)
	assert.Error(t, out.Err)
	assert.Zero(t, count(t, h.vectors))
	assert.False(t, h.graph.HasNode("broken"))
}

func TestIndexSkillVectorStoreFailure(t *testing.T) {
	h := newHarness(nil, DefaultOptions())
	wrong := memstore.NewVectorStore(8) // dimension does not match the embedder
	e := NewEngine(h.source, h.embedder, wrong, h.graph, DefaultOptions())

	out := e.IndexSkill(context.Background(), skill("a", "x"))
	assert.Equal(t, StatusFailed, out.Status)
	assert.False(t, h.graph.HasNode("a"))
}

func TestIndexSkillNotifiesChange(t *testing.T) {
	h := newHarness(nil, DefaultOptions())
	changes := 0
	h.engine.OnIndexChange(func() { changes++ })

	h.engine.IndexSkill(context.Background(), skill("a", "x"))
	assert.Equal(t, 1, changes)

	h.embedder.poison = "skill b"
	h.engine.IndexSkill(context.Background(), skill("b", "x"))
	assert.Equal(t, 1, changes)
}

func TestReindexAllRequiresSource(t *testing.T) {
	e := NewEngine(nil, newRecordingEmbedder(), memstore.NewVectorStore(32), graph.New(), DefaultOptions())
	_, err := e.ReindexAll(context.Background(), true)
	assert.ErrorIs(t, err, ErrNoSkillSource)
}

func TestReindexAllDiscoveryFailure(t *testing.T) {
	h := newHarness(nil, DefaultOptions())
	h.source.err = errors.New("disk on fire")

	_, err := h.engine.ReindexAll(context.Background(), false)
	assert.ErrorContains(t, err, "disk on fire")
}

func TestReindexAllForceRebuild(t *testing.T) {
	skills := []domain.Skill{
		skill("a", "testing", "python"),
		skill("b", "testing", "python", "pytest"),
		skill("c", "debugging", "rust"),
		skill("d", "debugging"),
	}
	h := newHarness(skills, DefaultOptions())
	ctx := context.Background()

	// Leftover state from an earlier run must not survive a forced rebuild.
	h.engine.IndexSkill(ctx, skill("stale", "testing"))

	report, err := h.engine.ReindexAll(ctx, true)
	require.NoError(t, err)
	require.NoError(t, report.Err())
	assert.True(t, report.Forced)
	assert.Equal(t, 4, report.Indexed)
	assert.Equal(t, len(skills), report.Stats.TotalSkills)
	assert.Equal(t, len(skills), report.Stats.GraphNodes)
	assert.False(t, h.vectors.Has("stale"))

	again, err := h.engine.ReindexAll(ctx, true)
	require.NoError(t, err)
	assert.Equal(t, report.Stats.TotalSkills, again.Stats.TotalSkills)
	assert.Equal(t, report.Stats.GraphNodes, again.Stats.GraphNodes)
	assert.Equal(t, report.Stats.GraphEdges, again.Stats.GraphEdges)

	stats := h.engine.Stats()
	assert.Equal(t, len(skills), stats.TotalSkills)
	assert.Equal(t, len(skills), stats.GraphNodes)
}

func TestReindexAllIncrementalKeepsExisting(t *testing.T) {
	h := newHarness([]domain.Skill{skill("a", "x")}, DefaultOptions())
	ctx := context.Background()
	h.engine.IndexSkill(ctx, skill("extra", "y"))

	report, err := h.engine.ReindexAll(ctx, false)
	require.NoError(t, err)
	assert.False(t, report.Forced)
	assert.Equal(t, 2, report.Stats.TotalSkills)
}

func TestReindexAllBatchFallback(t *testing.T) {
	skills := []domain.Skill{
		skill("a", "x"),
		skill("poisoned", "x"),
		skill("c", "x"),
		{ID: "empty", Category: "x"},
		skill("e", "y"),
	}
	opts := DefaultOptions()
	opts.BatchSize = 3
	h := newHarness(skills, opts)
	h.embedder.poison = "skill poisoned"

	var progress []string
	h.engine.OnProgress(func(processed, total int, id string) {
		assert.Equal(t, 5, total)
		assert.Equal(t, len(progress)+1, processed)
		progress = append(progress, id)
	})

	report, err := h.engine.ReindexAll(context.Background(), true)
	require.NoError(t, err)

	assert.Equal(t, 3, report.Indexed)
	assert.Equal(t, 1, report.Skipped)
	assert.Equal(t, 1, report.Failed)
	require.Error(t, report.Err())
	assert.Contains(t, report.Err().Error(), "poisoned")
	assert.Len(t, report.Errors.Errors, 1)

	assert.Equal(t, []string{"a", "poisoned", "c", "empty", "e"}, progress)
	assert.Equal(t, 3, count(t, h.vectors))
	assert.False(t, h.graph.HasNode("poisoned"))
	assert.True(t, h.graph.HasNode("empty"))

	// Batch one: [a poisoned c] fails, then a, poisoned, c one by one.
	// Batch two: [e] (empty is never sent).
	assert.Equal(t, []int{3, 1, 1, 1, 1}, h.embedder.sizes)
}

func TestReindexAllRecordsLastIndexed(t *testing.T) {
	h := newHarness([]domain.Skill{skill("a", "x")}, DefaultOptions())
	fixed := time.Date(2025, 3, 4, 5, 6, 7, 0, time.UTC)
	h.engine.now = func() time.Time { return fixed }

	assert.Equal(t, domain.LastIndexedNever, h.engine.Stats().LastIndexed)

	changes := 0
	h.engine.OnIndexChange(func() { changes++ })
	report, err := h.engine.ReindexAll(context.Background(), false)
	require.NoError(t, err)
	assert.Equal(t, "2025-03-04T05:06:07Z", report.Stats.LastIndexed)
	assert.Positive(t, changes)
}

func TestReindexAllCancelled(t *testing.T) {
	h := newHarness([]domain.Skill{skill("a", "x")}, DefaultOptions())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	report, err := h.engine.ReindexAll(ctx, false)
	require.Error(t, err)
	require.NotNil(t, report)
	assert.Zero(t, report.Indexed)
	assert.Equal(t, domain.LastIndexedNever, report.Stats.LastIndexed)
}

type brokenStore struct{ port.VectorStore }

func (brokenStore) Count() (int, error) { return 0, errors.New("store closed") }

func TestStatsNeverFails(t *testing.T) {
	h := newHarness(nil, DefaultOptions())
	h.engine.IndexSkill(context.Background(), skill("a", "x"))

	stats := h.engine.Stats()
	assert.Equal(t, 1, stats.TotalSkills)
	assert.Equal(t, int64(32*4+512), stats.VectorStoreSize)
	assert.Equal(t, 1, stats.GraphNodes)
	assert.Equal(t, 0, stats.GraphEdges)

	e := NewEngine(h.source, h.embedder, brokenStore{h.vectors}, h.graph, DefaultOptions())
	assert.Equal(t, domain.IndexStats{LastIndexed: domain.LastIndexedError}, e.Stats())
}

func TestSearchEmptyQuery(t *testing.T) {
	h := newHarness([]domain.Skill{skill("a", "x")}, DefaultOptions())
	_, err := h.engine.ReindexAll(context.Background(), true)
	require.NoError(t, err)
	calls := h.embedder.calls

	results := h.engine.Search(context.Background(), domain.SearchRequest{Query: "  "})
	assert.NotNil(t, results)
	assert.Empty(t, results)
	assert.Equal(t, calls, h.embedder.calls)
}

func TestSearchFindsIndexedSkill(t *testing.T) {
	skills := []domain.Skill{
		{ID: "py", Name: "pytest fixtures", Description: "python testing with pytest fixtures", Instructions: "Write pytest fixtures.", Category: "testing", Tags: []string{"python"}},
		{ID: "rs", Name: "cargo bench", Description: "rust benchmarking with criterion", Instructions: "Run cargo bench.", Category: "performance", Tags: []string{"rust"}},
		{ID: "py2", Name: "python logging", Description: "structured logging in python", Instructions: "Use the logging module.", Category: "testing", Tags: []string{"python"}},
	}
	h := newHarness(skills, DefaultOptions())
	_, err := h.engine.ReindexAll(context.Background(), true)
	require.NoError(t, err)

	out := h.engine.SearchDetailed(context.Background(), domain.SearchRequest{Query: "pytest fixtures python testing", TopK: 2})
	require.NoError(t, out.Vector.Err)
	require.NotEmpty(t, out.Results)
	assert.Equal(t, "py", out.Results[0].Skill.ID)
	assert.Equal(t, domain.MatchHybrid, out.Results[0].MatchType)
	assert.LessOrEqual(t, len(out.Results), 2)

	rust := h.engine.Search(context.Background(), domain.SearchRequest{Query: "benchmark", Toolchain: "Rust"})
	require.Len(t, rust, 1)
	assert.Equal(t, "rs", rust[0].Skill.ID)
}

// Indexing order A, C, B: when B arrives both A and C are already nodes,
// so B gets outgoing edges to each of them.
func TestRelatedSkillsScenarioOutgoing(t *testing.T) {
	a := skill("A", "x", "t1")
	b := skill("B", "x", "t1", "t2")
	c := skill("C", "y", "t2")
	h := newHarness([]domain.Skill{a, c, b}, DefaultOptions())
	_, err := h.engine.ReindexAll(context.Background(), true)
	require.NoError(t, err)

	assert.ElementsMatch(t, []domain.Relationship{
		{Source: "B", Kind: domain.RelSameCategory, Target: "A"},
		{Source: "B", Kind: domain.RelSharedTag, Target: "A"},
		{Source: "B", Kind: domain.RelSharedTag, Target: "C"},
	}, h.graph.Edges("B"))
	assert.Empty(t, h.graph.Edges("A"))
	assert.Empty(t, h.graph.Edges("C"))

	related := h.engine.RelatedSkills(context.Background(), "B", 1)
	assert.Equal(t, []string{"A", "C"}, ids(related))

	// Outgoing only: A has no edges of its own.
	assert.Empty(t, h.engine.RelatedSkills(context.Background(), "A", 1))
}

// Indexing order A, B, C: C points at B, and B at A. Only traversal in both
// directions gives B both neighbours.
func TestRelatedSkillsScenarioBothDirections(t *testing.T) {
	a := skill("A", "x", "t1")
	b := skill("B", "x", "t1", "t2")
	c := skill("C", "y", "t2")

	outgoing := newHarness([]domain.Skill{a, b, c}, DefaultOptions())
	_, err := outgoing.engine.ReindexAll(context.Background(), true)
	require.NoError(t, err)
	assert.Equal(t, []string{"A"}, ids(outgoing.engine.RelatedSkills(context.Background(), "B", 1)))
	assert.Equal(t, 3, outgoing.graph.EdgeCount())

	opts := DefaultOptions()
	opts.Ranker.Direction = retriever.Both
	both := newHarness([]domain.Skill{a, b, c}, opts)
	_, err = both.engine.ReindexAll(context.Background(), true)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"A", "C"}, ids(both.engine.RelatedSkills(context.Background(), "B", 1)))

	// No edge ever joins A and C.
	assert.NotContains(t, both.graph.Neighbors("A"), "C")
	assert.NotContains(t, both.graph.Neighbors("C"), "A")
}

func TestRelatedSkillsIsolatedSeed(t *testing.T) {
	h := newHarness([]domain.Skill{skill("solo", "")}, DefaultOptions())
	_, err := h.engine.ReindexAll(context.Background(), true)
	require.NoError(t, err)

	assert.Empty(t, h.engine.RelatedSkills(context.Background(), "solo", 2))
	assert.Empty(t, h.engine.RelatedSkills(context.Background(), "missing", 2))
}

func TestRelatedSkillsDropsUnresolved(t *testing.T) {
	dependent := skill("app", "x")
	dependent.Dependencies = []string{"not-in-catalog"}
	h := newHarness([]domain.Skill{dependent}, DefaultOptions())
	_, err := h.engine.ReindexAll(context.Background(), true)
	require.NoError(t, err)

	assert.Equal(t, []string{"not-in-catalog"}, h.graph.Neighbors("app"))
	assert.Empty(t, h.engine.RelatedSkills(context.Background(), "app", -1))
}

func TestOptionsFromConfig(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Search.FollowIncoming = true
	cfg.Search.MaxDepth = 3
	cfg.Embedding.BatchSize = 7

	opts := OptionsFromConfig(cfg)
	assert.Equal(t, retriever.Both, opts.Ranker.Direction)
	assert.Equal(t, 3, opts.Ranker.MaxDepth)
	assert.Equal(t, cfg.Search.TopK, opts.Ranker.DefaultTopK)
	assert.Equal(t, 7, opts.BatchSize)
}

func TestEmbeddableText(t *testing.T) {
	s := domain.Skill{
		Name:         "n",
		Description:  "d",
		Instructions: strings.Repeat("é", 600),
		Tags:         []string{"t1", "t2"},
	}
	text := EmbeddableText(s)
	assert.True(t, strings.HasPrefix(text, "n d "))
	assert.True(t, strings.HasSuffix(text, " t1 t2"))
	assert.Equal(t, 500, strings.Count(text, "é"))

	assert.Equal(t, "   ", EmbeddableText(domain.Skill{}))
}

func ids(skills []domain.Skill) []string {
	out := make([]string, len(skills))
	for i, s := range skills {
		out[i] = s.ID
	}
	return out
}
