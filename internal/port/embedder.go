package port

import "context"

// Embedder generates vector embeddings for text.
type Embedder interface {
	// Embed generates embeddings for the given texts.
	// Returns a slice of vectors, one per input text. Identical input
	// must produce identical output.
	Embed(ctx context.Context, texts []string) ([][]float32, error)

	// Dimension returns the embedding vector dimension.
	Dimension() int

	// ModelName returns the name of the embedding model.
	ModelName() string
}

// VectorStore stores and searches embedding vectors.
type VectorStore interface {
	// Upsert adds or updates vectors in the store. An existing ID is overwritten.
	Upsert(items []VectorItem) error

	// Search finds the k nearest vectors to the query whose metadata
	// matches every key of filter exactly. A nil filter matches everything.
	Search(query []float32, k int, filter map[string]string) ([]VectorResult, error)

	// Delete removes vectors by their IDs.
	Delete(ids []string) error

	// Count returns the number of vectors in the store.
	Count() (int, error)

	// Clear removes every vector.
	Clear() error
}

// VectorItem represents a vector to be stored.
type VectorItem struct {
	ID       string            // Skill ID
	Vector   []float32         // Embedding vector
	Metadata map[string]string // Snapshot of filterable skill fields
}

// VectorResult represents a search result.
type VectorResult struct {
	ID       string            // Skill ID
	Score    float64           // Similarity in (0, 1], higher is better
	Metadata map[string]string // Stored metadata
}

// Metadata keys written alongside every skill vector.
const (
	MetaName     = "name"
	MetaCategory = "category"
	MetaTags     = "tags" // Comma-joined
	MetaRepoID   = "repo_id"
)
