package usecase

import (
	"github.com/pkg/errors"

	"skillhub/internal/domain"
	"skillhub/internal/logger"
)

// metadataOverhead approximates the bytes stored per vector beyond the floats.
const metadataOverhead = 512

// Stats snapshots the index. It never fails: on error every counter is zero
// and LastIndexed is "error".
func (e *Engine) Stats() domain.IndexStats {
	stats, err := e.stats()
	if err != nil {
		logger.L.WithError(err).Error("failed to get index statistics")
		return domain.IndexStats{LastIndexed: domain.LastIndexedError}
	}
	return stats
}

func (e *Engine) stats() (domain.IndexStats, error) {
	if e.vectors == nil || e.graph == nil {
		return domain.IndexStats{}, errors.New("engine has no vector store or graph")
	}
	count, err := e.vectors.Count()
	if err != nil {
		return domain.IndexStats{}, errors.Wrap(err, "failed to count vectors")
	}

	dim := 0
	if e.embedder != nil {
		dim = e.embedder.Dimension()
	}
	return domain.IndexStats{
		TotalSkills:     count,
		VectorStoreSize: int64(count) * int64(dim*4+metadataOverhead),
		GraphNodes:      e.graph.NodeCount(),
		GraphEdges:      e.graph.EdgeCount(),
		LastIndexed:     domain.FormatLastIndexed(e.lastIndexed),
	}, nil
}
