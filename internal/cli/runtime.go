package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/gofrs/flock"

	"skillhub/config"
	"skillhub/internal/adapter/cache"
	"skillhub/internal/adapter/catalog"
	"skillhub/internal/adapter/embedding"
	"skillhub/internal/adapter/fs"
	"skillhub/internal/adapter/graph"
	"skillhub/internal/adapter/store"
	"skillhub/internal/logger"
	"skillhub/internal/usecase"
)

// runtime is one opened index: the bbolt file, the catalog over the
// configured repositories and an engine wired to both.
type runtime struct {
	cfg     *config.Config
	store   *store.BoltStore
	catalog *catalog.Catalog
	walker  *fs.Walker
	engine  *usecase.Engine
	cache   *cache.QueryCache

	// rebuild is set when the stored vectors no longer match the embedder.
	rebuild bool

	unlock func()
}

// openRuntime takes the index lock and wires the engine. The caller must Close it.
func openRuntime(ctx context.Context, cfg *config.Config) (*runtime, error) {
	if len(cfg.Repos) == 0 {
		return nil, fmt.Errorf("no repositories configured: add a repos section to skillhub.yaml")
	}
	if err := config.EnsureStorageDir(cfg.Index.StorageDir); err != nil {
		return nil, fmt.Errorf("failed to create storage directory: %w", err)
	}

	unlock, err := acquireIndexLock(config.IndexLockPath(cfg.Index.StorageDir), cfg.Index.LockTimeout)
	if err != nil {
		return nil, err
	}

	rt, err := wire(ctx, cfg)
	if err != nil {
		unlock()
		return nil, err
	}
	rt.unlock = unlock
	return rt, nil
}

func wire(ctx context.Context, cfg *config.Config) (*runtime, error) {
	embedder, err := embedding.NewFromConfig(cfg.Embedding)
	if err != nil {
		return nil, fmt.Errorf("failed to create embedder: %w", err)
	}

	dbPath := config.IndexDBPath(cfg.Index.StorageDir)
	st, err := store.NewBoltStore(dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open index store: %w", err)
	}

	rebuild, err := checkSchema(ctx, st, cfg.Embedding)
	if err != nil {
		st.Close()
		return nil, err
	}

	vectors, err := store.NewBoltVectorStore(st.DB(), embedder.Dimension())
	if err != nil {
		st.Close()
		return nil, fmt.Errorf("failed to open vector store: %w", err)
	}

	walker := fs.NewWalker(cfg.Index.Includes, cfg.Index.Excludes)
	cat := catalog.New(cfg.Repos, walker, st)
	engine := usecase.NewEngine(cat, embedder, vectors, graph.New(), usecase.OptionsFromConfig(cfg))

	qc := cache.NewQueryCache(cfg.Search.CacheSize, cfg.Search.CacheTTL)

	logger.G(ctx).
		WithField("db", dbPath).
		WithField("embedder", embedder.ModelName()).
		WithField("dimension", embedder.Dimension()).
		Debug("index opened")

	return &runtime{
		cfg:     cfg,
		store:   st,
		catalog: cat,
		walker:  walker,
		engine:  engine,
		cache:   qc,
		rebuild: rebuild,
	}, nil
}

// checkSchema records the schema version and embedding fingerprint, clearing
// the index when stored vectors were produced by a different embedder.
func checkSchema(ctx context.Context, st *store.BoltStore, emb config.EmbeddingConfig) (bool, error) {
	result, err := st.CheckMigration(emb)
	if err != nil {
		return false, fmt.Errorf("failed to check migration: %w", err)
	}

	rebuild := false
	if result.NeedsRebuild {
		logger.G(ctx).WithField("reason", result.Reason).Warn("index rebuild required, clearing existing index")
		if err := st.Clear(); err != nil {
			return false, fmt.Errorf("failed to clear index: %w", err)
		}
		rebuild = true
	} else if result.NeedsMigration {
		logger.G(ctx).WithField("reason", result.Reason).Info("running schema migration")
	}

	if result.NeedsRebuild || result.NeedsMigration {
		if err := st.Migrate(emb); err != nil {
			return false, fmt.Errorf("migration failed: %w", err)
		}
	}
	return rebuild, nil
}

func (rt *runtime) Close() {
	if err := rt.store.Close(); err != nil {
		logger.L.WithError(err).Warn("failed to close index store")
	}
	if rt.unlock != nil {
		rt.unlock()
	}
}

// refresh rebuilds the in-memory graph. The graph is not persisted, so every
// process that searches has to reindex once.
func (rt *runtime) refresh(ctx context.Context) error {
	report, err := rt.engine.ReindexAll(ctx, rt.rebuild)
	if err != nil {
		return fmt.Errorf("failed to index skills: %w", err)
	}
	rt.rebuild = false
	if err := report.Err(); err != nil {
		logger.G(ctx).WithError(err).WithField("failed", report.Failed).Warn("some skills could not be indexed")
	}
	return nil
}

// acquireIndexLock serializes writers across processes. It polls until the
// timeout expires.
func acquireIndexLock(path string, timeout time.Duration) (func(), error) {
	l := flock.New(path)
	deadline := time.Now().Add(timeout)
	for {
		locked, err := l.TryLock()
		if err != nil {
			return nil, fmt.Errorf("cannot acquire index lock: %w", err)
		}
		if locked {
			return func() { _ = l.Unlock() }, nil
		}
		if time.Now().After(deadline) {
			return nil, fmt.Errorf("another skillhub process is using the index (lock: %s)", path)
		}
		time.Sleep(200 * time.Millisecond)
	}
}
