package sweep

import (
	"context"

	"github.com/juju/errors"
	"gonum.org/v1/gonum/mat"

	"github.com/nozzle/tsne"
	"github.com/nozzle/tsne/config"
)

// Stats describes how a reduction ended.
type Stats struct {
	// KL is the final Kullback-Leibler divergence
	KL float64
	// NIter is the index of the last optimization iteration
	NIter int
}

// Reducer embeds data into a low-dimensional space at a given perplexity.
// Implementations must be safe for concurrent use.
type Reducer interface {
	Reduce(ctx context.Context, data mat.Matrix, perplexity float64) (*mat.Dense, Stats, error)
}

// TSNEReducer runs a fresh t-SNE model per call.
type TSNEReducer struct {
	Config *config.Config
}

// NewTSNEReducer returns a Reducer backed by t-SNE configured from c.
func NewTSNEReducer(c *config.Config) *TSNEReducer {
	return &TSNEReducer{Config: c}
}

// Reduce implements Reducer.
func (r *TSNEReducer) Reduce(ctx context.Context, data mat.Matrix, perplexity float64) (*mat.Dense, Stats, error) {
	model := tsne.New(r.Config.Model(perplexity))
	embedding, err := model.FitTransformContext(ctx, data)
	if err != nil {
		return nil, Stats{}, errors.Trace(err)
	}
	return embedding, Stats{KL: model.KLDivergence(), NIter: model.NIter()}, nil
}
