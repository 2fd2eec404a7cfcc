package store

import (
	"encoding/json"
	"fmt"
	"sort"

	"go.etcd.io/bbolt"
	"skillhub/internal/domain"
)

var (
	bucketSkills = []byte("skills")
	bucketMeta   = []byte("meta")
)

// BoltStore owns the index file. It keeps the skill catalog snapshot and the
// schema info; BoltVectorStore shares the same *bbolt.DB.
type BoltStore struct {
	db *bbolt.DB
}

func NewBoltStore(path string) (*BoltStore, error) {
	db, err := bbolt.Open(path, 0600, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to open bolt db: %w", err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		for _, b := range [][]byte{bucketSkills, bucketMeta} {
			if _, err := tx.CreateBucketIfNotExists(b); err != nil {
				return fmt.Errorf("failed to create bucket %s: %w", b, err)
			}
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, err
	}

	return &BoltStore{db: db}, nil
}

func (s *BoltStore) DB() *bbolt.DB {
	return s.db
}

func (s *BoltStore) Close() error {
	return s.db.Close()
}

func (s *BoltStore) PutSkill(skill domain.Skill) error {
	data, err := json.Marshal(skill)
	if err != nil {
		return err
	}
	return s.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketSkills).Put([]byte(skill.ID), data)
	})
}

// GetSkill returns the stored skill, or ok=false when the id is unknown.
func (s *BoltStore) GetSkill(id string) (domain.Skill, bool, error) {
	var (
		skill domain.Skill
		found bool
	)
	err := s.db.View(func(tx *bbolt.Tx) error {
		data := tx.Bucket(bucketSkills).Get([]byte(id))
		if data == nil {
			return nil
		}
		found = true
		return json.Unmarshal(data, &skill)
	})
	return skill, found, err
}

// ListSkills returns every stored skill ordered by id.
func (s *BoltStore) ListSkills() ([]domain.Skill, error) {
	var skills []domain.Skill
	err := s.db.View(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketSkills).ForEach(func(k, v []byte) error {
			var skill domain.Skill
			if err := json.Unmarshal(v, &skill); err != nil {
				return nil // Skip corrupted entries
			}
			skills = append(skills, skill)
			return nil
		})
	})
	sort.Slice(skills, func(i, j int) bool { return skills[i].ID < skills[j].ID })
	return skills, err
}

// ReplaceSkills swaps the whole catalog snapshot in one transaction.
func (s *BoltStore) ReplaceSkills(skills []domain.Skill) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		b, err := resetBucket(tx, bucketSkills)
		if err != nil {
			return err
		}
		for _, skill := range skills {
			data, err := json.Marshal(skill)
			if err != nil {
				return err
			}
			if err := b.Put([]byte(skill.ID), data); err != nil {
				return err
			}
		}
		return nil
	})
}

// resetBucket drops and recreates a bucket. Deleting keys under a live
// cursor skips entries, so buckets are cleared wholesale.
func resetBucket(tx *bbolt.Tx, name []byte) (*bbolt.Bucket, error) {
	if tx.Bucket(name) != nil {
		if err := tx.DeleteBucket(name); err != nil {
			return nil, fmt.Errorf("failed to drop bucket %s: %w", name, err)
		}
	}
	b, err := tx.CreateBucket(name)
	if err != nil {
		return nil, fmt.Errorf("failed to create bucket %s: %w", name, err)
	}
	return b, nil
}
