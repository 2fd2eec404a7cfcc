// Package usecase holds the hybrid discovery engine: index lifecycle over a
// vector store and a relationship graph, and the search surface on top.
package usecase

import (
	"time"

	"github.com/pkg/errors"

	"skillhub/config"
	"skillhub/internal/adapter/analyzer"
	"skillhub/internal/adapter/retriever"
	"skillhub/internal/port"
)

// ErrNoSkillSource is returned by ReindexAll when the engine has no skill source.
var ErrNoSkillSource = errors.New("no skill source configured")

// ProgressFunc reports reindex progress after each skill.
type ProgressFunc func(processed, total int, skillID string)

// Options configure an Engine.
type Options struct {
	Ranker    retriever.Options
	BatchSize int // skills per embedding request
}

func DefaultOptions() Options {
	return Options{
		Ranker:    retriever.DefaultOptions(),
		BatchSize: 64,
	}
}

// OptionsFromConfig maps the search and embedding sections of cfg.
func OptionsFromConfig(cfg *config.Config) Options {
	opts := DefaultOptions()
	opts.Ranker.DefaultTopK = cfg.Search.TopK
	opts.Ranker.MaxDepth = cfg.Search.MaxDepth
	opts.Ranker.Overfetch = cfg.Search.Overfetch
	if cfg.Search.FollowIncoming {
		opts.Ranker.Direction = retriever.Both
	}
	if cfg.Embedding.BatchSize > 0 {
		opts.BatchSize = cfg.Embedding.BatchSize
	}
	return opts
}

// Engine owns the vector store and the relationship graph. It has a single
// writer: callers serialize IndexSkill and ReindexAll. Reads may run
// concurrently with each other, and may observe a write in progress.
type Engine struct {
	skills    port.SkillSource
	embedder  port.Embedder
	vectors   port.VectorStore
	graph     port.Graph
	extractor *analyzer.RelationshipExtractor
	ranker    *retriever.HybridRanker
	opts      Options

	lastIndexed time.Time
	onChange    []func()
	progress    ProgressFunc
	now         func() time.Time
}

// NewEngine wires an engine. skills may be nil, in which case ReindexAll
// fails and search results cannot be resolved.
func NewEngine(
	skills port.SkillSource,
	embedder port.Embedder,
	vectors port.VectorStore,
	graph port.Graph,
	opts Options,
) *Engine {
	if opts.BatchSize <= 0 {
		opts.BatchSize = DefaultOptions().BatchSize
	}
	return &Engine{
		skills:    skills,
		embedder:  embedder,
		vectors:   vectors,
		graph:     graph,
		extractor: analyzer.NewRelationshipExtractor(graph),
		ranker:    retriever.NewHybridRanker(embedder, vectors, graph, skills, opts.Ranker),
		opts:      opts,
		now:       time.Now,
	}
}

// OnIndexChange registers fn to run after every index write, e.g. to drop
// a search cache.
func (e *Engine) OnIndexChange(fn func()) {
	e.onChange = append(e.onChange, fn)
}

// OnProgress sets the reindex progress callback.
func (e *Engine) OnProgress(fn ProgressFunc) {
	e.progress = fn
}

func (e *Engine) notifyChange() {
	for _, fn := range e.onChange {
		fn()
	}
}
