package memstore

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"skillhub/internal/domain"
	"skillhub/internal/port"
)

func TestVectorStore(t *testing.T) {
	s := NewVectorStore(2)

	require.NoError(t, s.Upsert([]port.VectorItem{
		{ID: "a", Vector: []float32{1, 0}, Metadata: map[string]string{port.MetaCategory: "x"}},
		{ID: "b", Vector: []float32{0, 1}, Metadata: map[string]string{port.MetaCategory: "y"}},
	}))
	assert.True(t, s.Has("a"))

	results, err := s.Search([]float32{1, 0}, 1, nil)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "a", results[0].ID)
	assert.InDelta(t, 1.0, results[0].Score, 1e-9)

	results, err = s.Search([]float32{1, 0}, 10, map[string]string{port.MetaCategory: "y"})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "b", results[0].ID)

	assert.Error(t, s.Upsert([]port.VectorItem{{ID: "c", Vector: []float32{1}}}))

	require.NoError(t, s.Delete([]string{"a"}))
	count, _ := s.Count()
	assert.Equal(t, 1, count)

	require.NoError(t, s.Clear())
	count, _ = s.Count()
	assert.Equal(t, 0, count)
}

func TestSkillSource(t *testing.T) {
	src := NewSkillSource(domain.Skill{ID: "b"}, domain.Skill{ID: "a"})
	src.Put(domain.Skill{ID: "c"})
	src.Put(domain.Skill{ID: "b", Name: "renamed"})

	skills, err := src.DiscoverSkills(context.Background())
	require.NoError(t, err)
	ids := make([]string, 0, len(skills))
	for _, s := range skills {
		ids = append(ids, s.ID)
	}
	assert.Equal(t, []string{"b", "a", "c"}, ids)

	got, ok := src.LoadSkill("b")
	require.True(t, ok)
	assert.Equal(t, "renamed", got.Name)

	src.Remove("a")
	src.Remove("missing")
	assert.Equal(t, 2, src.Len())
	_, ok = src.LoadSkill("a")
	assert.False(t, ok)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = src.DiscoverSkills(ctx)
	assert.Error(t, err)
}
