package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Search.TopK != 10 {
		t.Errorf("expected TopK=10, got %d", cfg.Search.TopK)
	}
	if cfg.Search.MaxDepth != 2 {
		t.Errorf("expected MaxDepth=2, got %d", cfg.Search.MaxDepth)
	}
	if cfg.Search.Overfetch != 2 {
		t.Errorf("expected Overfetch=2, got %d", cfg.Search.Overfetch)
	}
	if cfg.Search.FollowIncoming {
		t.Error("expected outgoing-only traversal by default")
	}
	if cfg.Embedding.Provider != "hash" {
		t.Errorf("expected Provider=hash, got %s", cfg.Embedding.Provider)
	}
	if len(cfg.Index.Includes) != 1 || cfg.Index.Includes[0] != "**/SKILL.md" {
		t.Errorf("unexpected includes: %v", cfg.Index.Includes)
	}
}

func TestLoad_NonExistent(t *testing.T) {
	cfg, err := Load("/nonexistent/path/config.yaml")
	if err != nil {
		t.Errorf("expected no error for non-existent file, got %v", err)
	}
	if cfg == nil {
		t.Error("expected default config, got nil")
	}
}

func TestLoad_ValidYAML(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "skillhub.yaml")

	content := `
repos:
  - id: anthropics
    path: repos/anthropics-skills
  - path: /abs/team-skills
search:
  top_k: 5
  follow_incoming: true
  cache_ttl: 30s
embedding:
  provider: openai
  dimension: 1536
`
	if err := os.WriteFile(configPath, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Search.TopK != 5 {
		t.Errorf("expected TopK=5, got %d", cfg.Search.TopK)
	}
	if !cfg.Search.FollowIncoming {
		t.Error("expected FollowIncoming=true")
	}
	if cfg.Search.CacheTTL != 30*time.Second {
		t.Errorf("expected CacheTTL=30s, got %s", cfg.Search.CacheTTL)
	}
	// Unset keys keep their defaults.
	if cfg.Search.MaxDepth != 2 {
		t.Errorf("expected MaxDepth=2, got %d", cfg.Search.MaxDepth)
	}
	if cfg.Embedding.Dimension != 1536 {
		t.Errorf("expected Dimension=1536, got %d", cfg.Embedding.Dimension)
	}

	if len(cfg.Repos) != 2 {
		t.Fatalf("expected 2 repos, got %d", len(cfg.Repos))
	}
	if want := filepath.Join(tmpDir, "repos", "anthropics-skills"); cfg.Repos[0].Path != want {
		t.Errorf("expected relative path resolved to %s, got %s", want, cfg.Repos[0].Path)
	}
	if cfg.Repos[1].ID != "team-skills" {
		t.Errorf("expected repo id derived from path, got %s", cfg.Repos[1].ID)
	}
}

func TestLoadFromDir(t *testing.T) {
	tmpDir := t.TempDir()
	if err := os.MkdirAll(filepath.Join(tmpDir, ".skillhub"), 0755); err != nil {
		t.Fatal(err)
	}
	configPath := filepath.Join(tmpDir, ".skillhub", "config.yaml")

	content := `
logging:
  level: debug
`
	if err := os.WriteFile(configPath, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadFromDir(tmpDir)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Logging.Level != "debug" {
		t.Errorf("expected Level=debug, got %s", cfg.Logging.Level)
	}
}

func TestSaveRoundTrip(t *testing.T) {
	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "skillhub.yaml")

	cfg := DefaultConfig()
	cfg.Repos = []RepoConfig{{ID: "local", Path: "/srv/skills"}}
	if err := cfg.Save(path); err != nil {
		t.Fatal(err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if len(loaded.Repos) != 1 || loaded.Repos[0].Path != "/srv/skills" {
		t.Errorf("unexpected repos after reload: %+v", loaded.Repos)
	}
}

func TestIndexPaths(t *testing.T) {
	if got, want := IndexDBPath("/var/skillhub"), filepath.Join("/var/skillhub", "index.db"); got != want {
		t.Errorf("expected %s, got %s", want, got)
	}
	if got, want := IndexLockPath("/var/skillhub"), filepath.Join("/var/skillhub", "index.lock"); got != want {
		t.Errorf("expected %s, got %s", want, got)
	}
}
