package port

import (
	"context"

	"skillhub/internal/domain"
)

// SkillSource discovers and resolves skills. The engine never mutates what it returns.
type SkillSource interface {
	// DiscoverSkills performs a full scan.
	DiscoverSkills(ctx context.Context) ([]domain.Skill, error)

	// LoadSkill resolves one id. The bool is false when the skill no longer exists.
	LoadSkill(id string) (domain.Skill, bool)
}
