package memstore

import (
	"context"
	"sync"

	"skillhub/internal/domain"
	"skillhub/internal/port"
)

var _ port.SkillSource = (*SkillSource)(nil)

// SkillSource holds skills handed to it directly. DiscoverSkills returns them
// in insertion order; re-putting an id keeps its original position.
type SkillSource struct {
	mu     sync.RWMutex
	order  []string
	skills map[string]domain.Skill
}

func NewSkillSource(skills ...domain.Skill) *SkillSource {
	s := &SkillSource{skills: make(map[string]domain.Skill)}
	for _, skill := range skills {
		s.Put(skill)
	}
	return s
}

func (s *SkillSource) Put(skill domain.Skill) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.skills[skill.ID]; !ok {
		s.order = append(s.order, skill.ID)
	}
	s.skills[skill.ID] = skill
}

func (s *SkillSource) Remove(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.skills[id]; !ok {
		return
	}
	delete(s.skills, id)
	for i, existing := range s.order {
		if existing == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
}

func (s *SkillSource) DiscoverSkills(ctx context.Context) ([]domain.Skill, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.Skill, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.skills[id])
	}
	return out, nil
}

func (s *SkillSource) LoadSkill(id string) (domain.Skill, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	skill, ok := s.skills[id]
	return skill, ok
}

func (s *SkillSource) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.skills)
}
