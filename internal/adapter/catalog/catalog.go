// Package catalog discovers SKILL.md files in local repository checkouts
// and serves them as the engine's skill source.
package catalog

import (
	"context"
	"os"
	"path"
	"path/filepath"
	"sort"
	"sync"

	"github.com/pkg/errors"

	"skillhub/config"
	"skillhub/internal/domain"
	"skillhub/internal/logger"
	"skillhub/internal/port"
)

var _ port.SkillSource = (*Catalog)(nil)

// Snapshot persists the last discovered skill set so that lookups work in a
// process that has not walked the repositories.
type Snapshot interface {
	ReplaceSkills(skills []domain.Skill) error
	GetSkill(id string) (domain.Skill, bool, error)
}

type Catalog struct {
	repos    []config.RepoConfig
	walker   port.FileWalker
	snapshot Snapshot

	mu     sync.RWMutex
	skills map[string]domain.Skill
}

// New creates a catalog over repos. snapshot may be nil.
func New(repos []config.RepoConfig, walker port.FileWalker, snapshot Snapshot) *Catalog {
	return &Catalog{
		repos:    repos,
		walker:   walker,
		snapshot: snapshot,
		skills:   make(map[string]domain.Skill),
	}
}

// DiscoverSkills walks every repository, parses each SKILL.md and returns
// the valid skills ordered by id. Unparseable or invalid files are logged
// and skipped; a missing repository is skipped with a warning.
func (c *Catalog) DiscoverSkills(ctx context.Context) ([]domain.Skill, error) {
	var found []domain.Skill
	seen := make(map[string]bool)

	for _, repo := range c.repos {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		log := logger.G(ctx).WithField("repo", repo.ID)

		if _, err := os.Stat(repo.Path); os.IsNotExist(err) {
			log.WithField("path", repo.Path).Warn("repository path does not exist")
			continue
		}
		files, err := c.walker.Walk(repo.Path)
		if err != nil {
			return nil, errors.Wrapf(err, "failed to walk repository %s", repo.ID)
		}

		for _, file := range files {
			content, err := os.ReadFile(file.Path)
			if err != nil {
				log.WithError(err).WithField("file", file.Path).Warn("failed to read skill file")
				continue
			}
			skill, err := ParseSkill(content, repo.ID, path.Dir(file.RelPath))
			if err != nil {
				log.WithError(err).WithField("file", file.Path).Warn("failed to parse skill file")
				continue
			}
			skill.FilePath = filepath.Clean(file.Path)

			if seen[skill.ID] {
				log.WithField("skill_id", skill.ID).Warn("duplicate skill id, keeping the first")
				continue
			}
			seen[skill.ID] = true
			found = append(found, skill)
		}
	}

	valid := make([]domain.Skill, 0, len(found))
	for _, skill := range found {
		v := Validate(skill, seen)
		log := logger.G(ctx).WithField("skill_id", skill.ID)
		if !v.OK() {
			log.WithField("errors", v.Errors).Warn("skipping invalid skill")
			continue
		}
		if len(v.Warnings) > 0 {
			log.WithField("warnings", v.Warnings).Debug("skill has validation warnings")
		}
		valid = append(valid, skill)
	}
	sort.Slice(valid, func(i, j int) bool { return valid[i].ID < valid[j].ID })

	if c.snapshot != nil {
		if err := c.snapshot.ReplaceSkills(valid); err != nil {
			return nil, errors.Wrap(err, "failed to persist skill catalog")
		}
	}

	c.mu.Lock()
	c.skills = make(map[string]domain.Skill, len(valid))
	for _, skill := range valid {
		c.skills[skill.ID] = skill
	}
	c.mu.Unlock()

	logger.G(ctx).WithField("skills", len(valid)).WithField("skipped", len(found)-len(valid)).Info("skill discovery complete")
	return valid, nil
}

// LoadSkill resolves id from the last discovery, falling back to the
// persisted snapshot.
func (c *Catalog) LoadSkill(id string) (domain.Skill, bool) {
	c.mu.RLock()
	skill, ok := c.skills[id]
	c.mu.RUnlock()
	if ok || c.snapshot == nil {
		return skill, ok
	}

	skill, ok, err := c.snapshot.GetSkill(id)
	if err != nil {
		logger.L.WithError(err).WithField("skill_id", id).Warn("failed to read skill snapshot")
		return domain.Skill{}, false
	}
	if ok {
		c.mu.Lock()
		c.skills[id] = skill
		c.mu.Unlock()
	}
	return skill, ok
}

// Roots returns the configured repository paths.
func (c *Catalog) Roots() []string {
	roots := make([]string, 0, len(c.repos))
	for _, repo := range c.repos {
		roots = append(roots, repo.Path)
	}
	return roots
}
