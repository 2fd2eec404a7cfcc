package usecase

import (
	"context"

	"skillhub/internal/adapter/retriever"
	"skillhub/internal/domain"
)

// Search returns up to req.TopK skills for req.Query. It never fails; an
// empty query or a broken backend yields an empty list.
func (e *Engine) Search(ctx context.Context, req domain.SearchRequest) []domain.ScoredSkill {
	return e.SearchDetailed(ctx, req).Results
}

// SearchDetailed is Search plus what each phase contributed.
func (e *Engine) SearchDetailed(ctx context.Context, req domain.SearchRequest) retriever.SearchOutcome {
	return e.ranker.Search(ctx, req)
}

// RelatedSkills returns the skills reachable from id within maxDepth hops,
// nearest first, without id itself. A negative maxDepth uses the default.
func (e *Engine) RelatedSkills(ctx context.Context, id string, maxDepth int) []domain.Skill {
	if maxDepth < 0 {
		maxDepth = e.opts.Ranker.MaxDepth
	}
	return e.ranker.Related(ctx, id, maxDepth)
}

// Skill resolves id through the skill source.
func (e *Engine) Skill(id string) (domain.Skill, bool) {
	if e.skills == nil {
		return domain.Skill{}, false
	}
	return e.skills.LoadSkill(id)
}
