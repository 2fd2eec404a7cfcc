package retriever

import (
	"context"
	"math"
	"sort"
	"strings"

	"github.com/pkg/errors"

	"skillhub/internal/domain"
	"skillhub/internal/logger"
	"skillhub/internal/port"
)

// Weights are the fusion coefficients of the two phases. They sum to 1.
type Weights struct {
	Vector float64
	Graph  float64
}

// DefaultWeights favours semantic similarity over graph proximity.
var DefaultWeights = Weights{Vector: 0.7, Graph: 0.3}

func (w Weights) valid() bool {
	return w.Vector >= 0 && w.Graph >= 0 && math.Abs(w.Vector+w.Graph-1) < 1e-9
}

// Options tune a HybridRanker. Start from DefaultOptions.
type Options struct {
	Weights     Weights
	Overfetch   int // vector candidates fetched per requested result
	MaxDepth    int
	Direction   Direction
	DefaultTopK int // used when a request asks for topK <= 0
}

func DefaultOptions() Options {
	return Options{
		Weights:     DefaultWeights,
		Overfetch:   2,
		MaxDepth:    2,
		Direction:   Outgoing,
		DefaultTopK: 10,
	}
}

// PhaseReport tells what one phase of a search contributed.
type PhaseReport struct {
	Hits int
	Err  error
}

// SearchOutcome is a ranked result list plus how each phase fared. A failed
// phase has Err set and contributed nothing to Results.
type SearchOutcome struct {
	Results []domain.ScoredSkill
	Vector  PhaseReport
	Graph   PhaseReport
}

// HybridRanker fuses nearest-neighbour similarity with graph proximity to
// the best vector hit.
type HybridRanker struct {
	embedder port.Embedder
	vectors  port.VectorStore
	graph    port.Graph
	skills   port.SkillSource
	opts     Options
}

func NewHybridRanker(
	embedder port.Embedder,
	vectors port.VectorStore,
	graph port.Graph,
	skills port.SkillSource,
	opts Options,
) *HybridRanker {
	def := DefaultOptions()
	if !opts.Weights.valid() {
		opts.Weights = def.Weights
	}
	if opts.Overfetch <= 0 {
		opts.Overfetch = def.Overfetch
	}
	if opts.MaxDepth < 0 {
		opts.MaxDepth = 0
	}
	if opts.DefaultTopK <= 0 {
		opts.DefaultTopK = def.DefaultTopK
	}
	return &HybridRanker{
		embedder: embedder,
		vectors:  vectors,
		graph:    graph,
		skills:   skills,
		opts:     opts,
	}
}

func (r *HybridRanker) Options() Options {
	return r.opts
}

type vectorHit struct {
	id    string
	score float64
}

// Search runs both phases and fuses them. It never fails: a phase that
// errors is reported in the outcome and treated as empty.
func (r *HybridRanker) Search(ctx context.Context, req domain.SearchRequest) SearchOutcome {
	out := SearchOutcome{Results: []domain.ScoredSkill{}}
	query := strings.TrimSpace(req.Query)
	if query == "" {
		return out
	}
	topK := req.TopK
	if topK <= 0 {
		topK = r.opts.DefaultTopK
	}
	log := logger.G(ctx).WithField("query", query)

	hits, err := r.vectorPhase(ctx, query, req, topK*r.opts.Overfetch)
	out.Vector = PhaseReport{Hits: len(hits), Err: err}
	if err != nil {
		log.WithError(err).Warn("vector phase failed")
	}

	var visits []Visit
	if len(hits) > 0 {
		visits, err = r.graphPhase(hits[0].id)
		out.Graph = PhaseReport{Hits: len(visits), Err: err}
		if err != nil {
			log.WithError(err).Warn("graph phase failed")
		}
	}

	out.Results = r.fuse(hits, visits, req, topK)
	log.WithField("vector_hits", out.Vector.Hits).
		WithField("graph_hits", out.Graph.Hits).
		WithField("results", len(out.Results)).
		Debug("search complete")
	return out
}

func (r *HybridRanker) vectorPhase(ctx context.Context, query string, req domain.SearchRequest, k int) ([]vectorHit, error) {
	if r.embedder == nil || r.vectors == nil {
		return nil, errors.New("vector backend not configured")
	}

	embeddings, err := r.embedder.Embed(ctx, []string{query})
	if err != nil {
		return nil, errors.Wrap(err, "failed to embed query")
	}
	if len(embeddings) != 1 {
		return nil, errors.Errorf("embedder returned %d vectors for one query", len(embeddings))
	}

	var filter map[string]string
	if req.Category != "" {
		filter = map[string]string{port.MetaCategory: req.Category}
	}
	results, err := r.vectors.Search(embeddings[0], k, filter)
	if err != nil {
		return nil, errors.Wrap(err, "vector search failed")
	}

	hits := make([]vectorHit, 0, len(results))
	for _, res := range results {
		if req.Toolchain != "" && !anyTagContains(splitTags(res.Metadata[port.MetaTags]), req.Toolchain) {
			continue
		}
		hits = append(hits, vectorHit{id: res.ID, score: res.Score})
	}
	return hits, nil
}

func (r *HybridRanker) graphPhase(seed string) (visits []Visit, err error) {
	if r.graph == nil {
		return nil, errors.New("graph backend not configured")
	}
	defer func() {
		if p := recover(); p != nil {
			visits, err = nil, errors.Errorf("graph traversal panicked: %v", p)
		}
	}()
	return Traverse(r.graph, seed, r.opts.MaxDepth, r.opts.Direction), nil
}

type phaseScores struct {
	vector float64
	graph  float64
}

func (r *HybridRanker) fuse(hits []vectorHit, visits []Visit, req domain.SearchRequest, topK int) []domain.ScoredSkill {
	order := make([]string, 0, len(hits)+len(visits))
	scores := make(map[string]*phaseScores, len(hits)+len(visits))

	for _, h := range hits {
		if _, ok := scores[h.id]; !ok {
			order = append(order, h.id)
			scores[h.id] = &phaseScores{}
		}
		scores[h.id].vector = h.score
	}
	for _, v := range visits {
		if _, ok := scores[v.ID]; !ok {
			order = append(order, v.ID)
			scores[v.ID] = &phaseScores{}
		}
		scores[v.ID].graph = v.Score
	}

	results := make([]domain.ScoredSkill, 0, len(order))
	for _, id := range order {
		s := scores[id]
		skill, ok := r.resolve(id)
		if !ok || !matchesFilters(skill, req) {
			continue
		}
		results = append(results, domain.ScoredSkill{
			Skill:     skill,
			Score:     r.opts.Weights.Vector*s.vector + r.opts.Weights.Graph*s.graph,
			MatchType: matchType(s.vector, s.graph),
		})
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})
	if len(results) > topK {
		results = results[:topK]
	}
	return results
}

func (r *HybridRanker) resolve(id string) (domain.Skill, bool) {
	if r.skills == nil {
		return domain.Skill{}, false
	}
	return r.skills.LoadSkill(id)
}

// Related walks the graph from id and resolves every reached skill except id itself.
func (r *HybridRanker) Related(ctx context.Context, id string, maxDepth int) []domain.Skill {
	if r.graph == nil || !r.graph.HasNode(id) {
		logger.G(ctx).WithField("skill_id", id).Debug("skill not in graph")
		return []domain.Skill{}
	}

	visits := Traverse(r.graph, id, maxDepth, r.opts.Direction)
	related := make([]domain.Skill, 0, len(visits))
	for _, v := range visits {
		if v.ID == id {
			continue
		}
		if skill, ok := r.resolve(v.ID); ok {
			related = append(related, skill)
		}
	}
	return related
}

func matchType(vector, graph float64) domain.MatchType {
	switch {
	case vector > 0 && graph > 0:
		return domain.MatchHybrid
	case vector > 0:
		return domain.MatchVector
	default:
		return domain.MatchGraph
	}
}

func matchesFilters(skill domain.Skill, req domain.SearchRequest) bool {
	if req.Category != "" && skill.Category != req.Category {
		return false
	}
	if req.Toolchain != "" && !anyTagContains(skill.Tags, req.Toolchain) {
		return false
	}
	return true
}

func anyTagContains(tags []string, toolchain string) bool {
	needle := strings.ToLower(toolchain)
	for _, tag := range tags {
		if strings.Contains(strings.ToLower(tag), needle) {
			return true
		}
	}
	return false
}

func splitTags(joined string) []string {
	if joined == "" {
		return nil
	}
	return strings.Split(joined, ",")
}
