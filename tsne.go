// Package tsne implements t-distributed Stochastic Neighbor Embedding
// (t-SNE) for dimensionality reduction.
//
// t-SNE converts similarities between data points to joint probabilities
// and minimises the Kullback-Leibler divergence between the joint
// probabilities of the low-dimensional embedding and the high-dimensional
// data. Both the exact O(n^2) gradient and the Barnes-Hut approximation are
// available.
//
// Basic usage:
//
//	model := tsne.New(tsne.DefaultConfig())
//	embedding, err := model.FitTransform(data)
package tsne

import (
	"context"
	"math"
	"time"

	"github.com/juju/errors"
	"github.com/rs/zerolog/log"
	"gonum.org/v1/gonum/mat"

	"github.com/nozzle/tsne/affinity"
	"github.com/nozzle/tsne/distance"
	tsneinit "github.com/nozzle/tsne/init"
	"github.com/nozzle/tsne/layout"
	"github.com/nozzle/tsne/nn"
)

const (
	// explorationNIter is the length of the early exaggeration stage.
	explorationNIter = 250
	// nIterCheck is the interval between convergence checks.
	nIterCheck = 50
)

// Method names.
const (
	MethodBarnesHut = "barnes_hut"
	MethodExact     = "exact"
)

// Config configures the t-SNE algorithm.
type Config struct {
	// NComponents is the dimensionality of the embedding.
	// Barnes-Hut supports 2 only.
	// Default: 2
	NComponents int

	// Perplexity is related to the number of nearest neighbors considered
	// for each point. It must be less than the number of samples.
	// Default: 30
	Perplexity float64

	// EarlyExaggeration multiplies the joint probabilities during the
	// first 250 iterations, forming tight, well separated clusters.
	// Default: 12
	EarlyExaggeration float64

	// LearningRate is the gradient descent step size.
	// Values <= 0 select max(n / EarlyExaggeration / 4, 50).
	// Default: 0 (auto)
	LearningRate float64

	// MaxIter is the total number of iterations, including the early
	// exaggeration stage. Must be at least 250.
	// Default: 1000
	MaxIter int

	// NIterWithoutProgress stops the optimization when the error has not
	// improved for this many iterations after early exaggeration.
	// Default: 300
	NIterWithoutProgress int

	// MinGradNorm stops the optimization once the gradient norm falls below it.
	// Default: 1e-7
	MinGradNorm float64

	// Metric is the input-space distance metric.
	// Euclidean distances are squared before calibration.
	// Default: "euclidean"
	Metric string

	// Init is the initialization method.
	// Options: "random" or "pca"
	// Default: "random"
	Init string

	// Method selects the gradient computation.
	// Options: "barnes_hut" or "exact"
	// Default: "barnes_hut"
	Method string

	// Angle is the Barnes-Hut trade-off between speed and accuracy.
	// Default: 0.5
	Angle float64

	// Seed for the random initialization, in [0, 2^32).
	// Equal seeds give identical initial embeddings.
	// Default: 0
	Seed int64

	// NumWorkers for parallel processing.
	// 0 = auto-detect based on CPU cores.
	// Default: 0
	NumWorkers int

	// Verbose enables progress output through the global zerolog logger.
	// Default: false
	Verbose bool

	// ProgressCallback is called after each iteration with
	// (iteration, MaxIter, last computed KL divergence).
	// Default: nil
	ProgressCallback func(iter, total int, kl float64)
}

// DefaultConfig returns the default t-SNE configuration.
func DefaultConfig() Config {
	return Config{
		NComponents:          2,
		Perplexity:           30,
		EarlyExaggeration:    12,
		LearningRate:         0,
		MaxIter:              1000,
		NIterWithoutProgress: 300,
		MinGradNorm:          1e-7,
		Metric:               "euclidean",
		Init:                 "random",
		Method:               MethodBarnesHut,
		Angle:                0.5,
		Seed:                 0,
		NumWorkers:           0,
		Verbose:              false,
	}
}

// TSNE is the main t-SNE model.
type TSNE struct {
	Config Config

	// Learned state after fitting
	embedding    *mat.Dense
	klDivergence float64
	nIter        int
	learningRate float64
}

// New creates a new t-SNE model with the given configuration.
func New(config Config) *TSNE {
	return &TSNE{Config: config}
}

// FitTransform fits the model to the data and returns the embedding.
func (t *TSNE) FitTransform(data mat.Matrix) (*mat.Dense, error) {
	return t.FitTransformContext(context.Background(), data)
}

// FitTransformContext is FitTransform with cancellation between iterations.
func (t *TSNE) FitTransformContext(ctx context.Context, data mat.Matrix) (*mat.Dense, error) {
	if err := t.Fit(ctx, data); err != nil {
		return nil, errors.Trace(err)
	}
	return t.embedding, nil
}

// Embedding returns the embedding of the last fit.
func (t *TSNE) Embedding() *mat.Dense {
	return t.embedding
}

// KLDivergence returns the Kullback-Leibler divergence after optimization.
func (t *TSNE) KLDivergence() float64 {
	return t.klDivergence
}

// NIter returns the index of the last iteration run.
func (t *TSNE) NIter() int {
	return t.nIter
}

// LearningRate returns the learning rate used by the last fit.
func (t *TSNE) LearningRate() float64 {
	return t.learningRate
}

// Fit fits the model to data, an n_samples × n_features matrix.
func (t *TSNE) Fit(ctx context.Context, data mat.Matrix) error {
	n, _ := data.Dims()
	if err := t.validate(data); err != nil {
		return errors.Trace(err)
	}
	initMethod, err := tsneinit.ParseMethod(t.Config.Init)
	if err != nil {
		return errors.Trace(err)
	}

	t.learningRate = t.Config.LearningRate
	if t.learningRate <= 0 {
		t.learningRate = math.Max(float64(n)/t.Config.EarlyExaggeration/4, 50)
	}

	rows := make([][]float64, n)
	for i := range rows {
		rows[i] = mat.Row(nil, i, data)
	}

	// Step 1: Input-space affinities
	objective, err := t.buildObjective(rows)
	if err != nil {
		return errors.Trace(err)
	}

	// Step 2: Initial embedding
	embedding, err := tsneinit.InitializeEmbedding(data, t.Config.NComponents, initMethod, uint32(t.Config.Seed))
	if err != nil {
		return errors.Trace(err)
	}

	// Step 3: Optimize with early exaggeration, then without
	if err := t.optimize(ctx, embedding.RawMatrix().Data, objective); err != nil {
		return errors.Trace(err)
	}

	t.embedding = embedding
	return nil
}

// validate checks the configuration against the input.
func (t *TSNE) validate(data mat.Matrix) error {
	n, d := data.Dims()
	c := t.Config

	switch {
	case n < 2:
		return errors.NotValidf("t-SNE needs at least 2 samples, got %d", n)
	case c.Perplexity <= 0:
		return errors.NotValidf("perplexity %v", c.Perplexity)
	case c.Perplexity >= float64(n):
		return errors.NotValidf("perplexity %v (perplexity must be less than n_samples %d)", c.Perplexity, n)
	case c.NComponents < 1:
		return errors.NotValidf("n_components %d", c.NComponents)
	case c.EarlyExaggeration < 1:
		return errors.NotValidf("early exaggeration %v", c.EarlyExaggeration)
	case c.MaxIter < explorationNIter:
		return errors.NotValidf("max iterations %d (must be at least %d)", c.MaxIter, explorationNIter)
	case c.Angle < 0 || c.Angle > 1:
		return errors.NotValidf("angle %v", c.Angle)
	case c.Seed < 0 || c.Seed > math.MaxUint32:
		return errors.NotValidf("seed %d", c.Seed)
	}

	switch c.Method {
	case MethodExact:
	case MethodBarnesHut:
		if c.NComponents != 2 {
			return errors.NotValidf("n_components %d with barnes_hut (only 2 is supported)", c.NComponents)
		}
	default:
		return errors.NotValidf("method %q", c.Method)
	}

	if _, ok := distance.ForAffinity(c.Metric); !ok {
		return errors.NotValidf("metric %q", c.Metric)
	}

	for i := range n {
		for j := range d {
			if v := data.At(i, j); math.IsNaN(v) || math.IsInf(v, 0) {
				return errors.NotValidf("non-finite input %v at (%d, %d)", v, i, j)
			}
		}
	}
	return nil
}

// buildObjective computes the joint probabilities and returns the matching objective.
func (t *TSNE) buildObjective(rows [][]float64) (layout.Objective, error) {
	n := len(rows)
	dof := math.Max(float64(t.Config.NComponents-1), 1)
	distFunc, _ := distance.ForAffinity(t.Config.Metric)
	affConfig := affinity.Config{
		Perplexity: t.Config.Perplexity,
		NumWorkers: t.Config.NumWorkers,
		Verbose:    t.Config.Verbose,
	}

	if t.Config.Method == MethodExact {
		if t.Config.Verbose {
			log.Info().Msg("[t-SNE] Computing pairwise distances...")
		}
		dist := distance.Pairwise(rows, distFunc, t.Config.NumWorkers)
		p := affinity.JointProbabilities(dist, affConfig)
		return layout.ExactObjective(p, t.Config.NComponents, dof, t.Config.NumWorkers), nil
	}

	k := min(n-1, int(3*t.Config.Perplexity+1))
	if t.Config.Verbose {
		log.Info().Msgf("[t-SNE] Computing %d nearest neighbors...", k)
	}
	start := time.Now()
	knn := nn.BruteForceKNN(rows, k, distFunc, t.Config.NumWorkers)
	if t.Config.Verbose {
		log.Info().Dur("elapsed", time.Since(start)).Msgf("[t-SNE] Computed neighbors for %d samples", n)
	}

	p := affinity.JointProbabilitiesNN(knn, affConfig)
	if p.NNZ == 0 {
		return nil, errors.Errorf("all joint probabilities are zero")
	}
	return layout.BarnesHutObjective(p, t.Config.Angle, dof, t.Config.NumWorkers), nil
}

// optimize runs the two gradient descent stages over params.
func (t *TSNE) optimize(ctx context.Context, params []float64, objective layout.Objective) error {
	config := layout.DefaultLayoutConfig()
	config.LearningRate = t.learningRate
	config.MinGradNorm = t.Config.MinGradNorm
	config.NIterCheck = nIterCheck
	config.Verbose = t.Config.Verbose
	if cb := t.Config.ProgressCallback; cb != nil {
		total := t.Config.MaxIter
		config.ProgressCallback = func(iter, _ int, kl float64) {
			cb(iter, total, kl)
		}
	}

	// Early exaggeration
	config.Start = 0
	config.NIter = explorationNIter
	config.Momentum = 0.5
	config.Exaggeration = t.Config.EarlyExaggeration
	config.NIterWithoutProgress = explorationNIter

	res, err := layout.GradientDescent(ctx, params, objective, config)
	if err != nil {
		return errors.Annotate(err, "early exaggeration")
	}
	if t.Config.Verbose {
		log.Info().Msgf("[t-SNE] KL divergence after %d iterations with early exaggeration: %f", res.Iter+1, res.KL)
	}

	if res.Iter+1 < t.Config.MaxIter {
		config.Start = res.Iter + 1
		config.NIter = t.Config.MaxIter
		config.Momentum = 0.8
		config.Exaggeration = 1
		config.NIterWithoutProgress = t.Config.NIterWithoutProgress

		res, err = layout.GradientDescent(ctx, params, objective, config)
		if err != nil {
			return errors.Annotate(err, "optimization")
		}
		if t.Config.Verbose {
			log.Info().Msgf("[t-SNE] KL divergence after %d iterations: %f", res.Iter+1, res.KL)
		}
	}

	t.klDivergence = res.KL
	t.nIter = res.Iter
	return nil
}
