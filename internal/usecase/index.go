package usecase

import (
	"context"
	"strings"
	"time"

	"github.com/hashicorp/go-multierror"
	"github.com/pkg/errors"

	"skillhub/internal/domain"
	"skillhub/internal/logger"
	"skillhub/internal/port"
)

// instructionsPreview caps how much of the instructions feeds the embedding.
const instructionsPreview = 500

// IndexStatus is the result of indexing one skill.
type IndexStatus int

const (
	StatusIndexed IndexStatus = iota
	StatusSkipped             // no embeddable text; graph only
	StatusFailed
)

func (s IndexStatus) String() string {
	switch s {
	case StatusIndexed:
		return "indexed"
	case StatusSkipped:
		return "skipped"
	default:
		return "failed"
	}
}

// IndexOutcome reports what happened to one skill.
type IndexOutcome struct {
	SkillID string
	Status  IndexStatus
	Err     error
}

// IndexReport summarizes one ReindexAll run.
type IndexReport struct {
	Stats    domain.IndexStats
	Indexed  int
	Skipped  int
	Failed   int
	Errors   *multierror.Error // one entry per failed skill
	Forced   bool
	Duration time.Duration
}

// Err returns the aggregated per-skill failures, or nil.
func (r *IndexReport) Err() error {
	return r.Errors.ErrorOrNil()
}

func (r *IndexReport) record(o IndexOutcome) {
	switch o.Status {
	case StatusIndexed:
		r.Indexed++
	case StatusSkipped:
		r.Skipped++
	default:
		r.Failed++
		r.Errors = multierror.Append(r.Errors, errors.Wrapf(o.Err, "skill %s", o.SkillID))
	}
}

// EmbeddableText is the text a skill is embedded from: name, description,
// the start of the instructions and the tags.
func EmbeddableText(skill domain.Skill) string {
	instructions := skill.Instructions
	if r := []rune(instructions); len(r) > instructionsPreview {
		instructions = string(r[:instructionsPreview])
	}
	return skill.Name + " " + skill.Description + " " + instructions + " " + strings.Join(skill.Tags, " ")
}

func hasText(text string) bool {
	return strings.TrimSpace(text) != ""
}

// IndexSkill embeds skill, stores its vector and links it into the graph.
// It never panics and never returns an error: failures are in the outcome.
func (e *Engine) IndexSkill(ctx context.Context, skill domain.Skill) IndexOutcome {
	text := EmbeddableText(skill)
	var vector []float32
	if hasText(text) {
		var err error
		vector, err = e.embedOne(ctx, text)
		if err != nil {
			return e.failed(ctx, skill.ID, err)
		}
	}

	outcome := e.commit(ctx, skill, vector)
	if outcome.Status != StatusFailed {
		e.notifyChange()
	}
	return outcome
}

func (e *Engine) embedOne(ctx context.Context, text string) ([]float32, error) {
	if e.embedder == nil {
		return nil, errors.New("no embedder configured")
	}
	vectors, err := e.embedder.Embed(ctx, []string{text})
	if err != nil {
		return nil, errors.Wrap(err, "failed to embed skill")
	}
	if len(vectors) != 1 {
		return nil, errors.Errorf("embedder returned %d vectors for one text", len(vectors))
	}
	return vectors[0], nil
}

// commit writes one skill. A nil vector means the skill has no embeddable
// text: it is linked into the graph but stays out of the vector store.
// A store failure leaves the graph untouched.
func (e *Engine) commit(ctx context.Context, skill domain.Skill, vector []float32) IndexOutcome {
	if vector != nil {
		if e.vectors == nil {
			return e.failed(ctx, skill.ID, errors.New("no vector store configured"))
		}
		item := port.VectorItem{
			ID:     skill.ID,
			Vector: vector,
			Metadata: map[string]string{
				port.MetaName:     skill.Name,
				port.MetaCategory: skill.Category,
				port.MetaTags:     strings.Join(skill.Tags, ","),
				port.MetaRepoID:   skill.RepoID,
			},
		}
		if err := e.vectors.Upsert([]port.VectorItem{item}); err != nil {
			return e.failed(ctx, skill.ID, errors.Wrap(err, "failed to store vector"))
		}
	}

	if e.graph != nil {
		rels := e.extractor.Apply(skill)
		logger.G(ctx).WithField("skill_id", skill.ID).WithField("edges", len(rels)).Debug("indexed skill")
	}

	if vector == nil {
		logger.G(ctx).WithField("skill_id", skill.ID).Warn("skill has no embeddable text, skipped vector index")
		return IndexOutcome{SkillID: skill.ID, Status: StatusSkipped}
	}
	return IndexOutcome{SkillID: skill.ID, Status: StatusIndexed}
}

func (e *Engine) failed(ctx context.Context, id string, err error) IndexOutcome {
	logger.G(ctx).WithError(err).WithField("skill_id", id).Error("failed to index skill")
	return IndexOutcome{SkillID: id, Status: StatusFailed, Err: err}
}

// ReindexAll discovers every skill and indexes it. With force the vector
// store and graph are cleared first; without it the same loop runs over the
// existing index, overwriting skills in place.
func (e *Engine) ReindexAll(ctx context.Context, force bool) (*IndexReport, error) {
	if e.skills == nil {
		return nil, ErrNoSkillSource
	}
	start := e.now()
	log := logger.G(ctx).WithField("force", force)
	log.Info("starting reindex")

	if force {
		if e.vectors != nil {
			if err := e.vectors.Clear(); err != nil {
				return nil, errors.Wrap(err, "failed to clear vector store")
			}
		}
		if e.graph != nil {
			e.graph.Clear()
		}
		e.notifyChange()
	}

	skills, err := e.skills.DiscoverSkills(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "failed to discover skills")
	}
	log.WithField("skills", len(skills)).Info("discovered skills for indexing")

	report := &IndexReport{Forced: force}
	processed := 0
	for startIdx := 0; startIdx < len(skills); startIdx += e.opts.BatchSize {
		if err := ctx.Err(); err != nil {
			e.finish(ctx, report, start)
			return report, errors.Wrap(err, "reindex interrupted")
		}
		batch := skills[startIdx:min(startIdx+e.opts.BatchSize, len(skills))]

		for _, outcome := range e.indexBatch(ctx, batch) {
			report.record(outcome)
			processed++
			if e.progress != nil {
				e.progress(processed, len(skills), outcome.SkillID)
			}
		}
	}

	e.lastIndexed = e.now()
	e.finish(ctx, report, start)
	return report, nil
}

func (e *Engine) finish(ctx context.Context, report *IndexReport, start time.Time) {
	report.Stats = e.Stats()
	report.Duration = e.now().Sub(start)
	e.notifyChange()

	logger.G(ctx).
		WithField("indexed", report.Indexed).
		WithField("skipped", report.Skipped).
		WithField("failed", report.Failed).
		WithField("duration", report.Duration).
		Info("reindex complete")
}

// indexBatch embeds the batch in one request, falling back to one request
// per skill when the batch fails so a single bad skill cannot sink the
// others. Writes happen in batch order, which fixes edge direction.
func (e *Engine) indexBatch(ctx context.Context, batch []domain.Skill) []IndexOutcome {
	texts := make([]string, 0, len(batch))
	for _, skill := range batch {
		if text := EmbeddableText(skill); hasText(text) {
			texts = append(texts, text)
		}
	}

	var vectors [][]float32
	if len(texts) > 0 && e.embedder != nil {
		var err error
		vectors, err = e.embedder.Embed(ctx, texts)
		if err == nil && len(vectors) != len(texts) {
			err = errors.Errorf("embedder returned %d vectors for %d texts", len(vectors), len(texts))
		}
		if err != nil {
			logger.G(ctx).WithError(err).WithField("batch", len(texts)).Warn("batch embedding failed, embedding skills one by one")
			vectors = nil
		}
	}

	outcomes := make([]IndexOutcome, 0, len(batch))
	next := 0
	for _, skill := range batch {
		text := EmbeddableText(skill)
		if !hasText(text) {
			outcomes = append(outcomes, e.commit(ctx, skill, nil))
			continue
		}

		var vector []float32
		if vectors != nil {
			vector = vectors[next]
			next++
		} else {
			var err error
			if vector, err = e.embedOne(ctx, text); err != nil {
				outcomes = append(outcomes, e.failed(ctx, skill.ID, err))
				continue
			}
		}
		outcomes = append(outcomes, e.commit(ctx, skill, vector))
	}
	return outcomes
}
