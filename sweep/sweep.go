// Package sweep runs t-SNE over a grid of perplexities and column counts
// and writes one data file and one comparison plot per combination.
package sweep

import (
	"context"
	"io"
	"os"

	"github.com/juju/errors"
	"github.com/rs/zerolog/log"
	"github.com/samber/lo"
	"github.com/schollz/progressbar/v3"
	"golang.org/x/sync/errgroup"

	"github.com/nozzle/tsne/config"
	"github.com/nozzle/tsne/dataset"
)

// Combination is one point of the sweep grid.
type Combination struct {
	Perplexity float64
	Columns    int
}

// Artifact records the files written for a combination.
type Artifact struct {
	Combination
	DataPath string
	PlotPath string
	Stats    Stats
}

// Grid enumerates every (perplexity, columns) pair, perplexity outer.
// Duplicates are kept.
func Grid(perplexities []float64, columns []int) []Combination {
	return lo.FlatMap(perplexities, func(p float64, _ int) []Combination {
		return lo.Map(columns, func(c int, _ int) Combination {
			return Combination{Perplexity: p, Columns: c}
		})
	})
}

// Option customises a single Run.
type Option func(*options)

type options struct {
	progress io.Writer
}

// WithProgressWriter sends the progress bar to w instead of os.Stderr.
func WithProgressWriter(w io.Writer) Option {
	return func(o *options) {
		o.progress = w
	}
}

// Run executes the sweep over ds. Each combination slices the first
// Columns columns, reduces them and writes its artifacts. The first failure
// stops the sweep; files written before it stay on disk. Artifacts of the
// completed combinations are returned in grid order.
func Run(ctx context.Context, ds *dataset.Dataset, reducer Reducer, cfg *config.Config, opts ...Option) ([]Artifact, error) {
	o := options{progress: os.Stderr}
	for _, opt := range opts {
		opt(&o)
	}

	writer, err := NewWriter(cfg)
	if err != nil {
		return nil, errors.Trace(err)
	}
	if err := os.MkdirAll(cfg.OutputDir, 0o755); err != nil {
		return nil, errors.Annotatef(err, "create output directory %s", cfg.OutputDir)
	}

	input := ds
	if cfg.Normalize {
		input = ds.Normalize()
	}

	grid := Grid(cfg.Perplexities, cfg.Columns)
	bar := progressbar.NewOptions(len(grid),
		progressbar.OptionSetWriter(o.progress),
		progressbar.OptionSetDescription("t-SNE sweep"),
		progressbar.OptionShowCount(),
		progressbar.OptionSetVisibility(cfg.Progress),
	)

	artifacts := make([]Artifact, len(grid))
	done := make([]bool, len(grid))
	runOne := func(ctx context.Context, i int) error {
		c := grid[i]
		logger := log.With().Int("columns", c.Columns).Str("perplexity", FormatPerplexity(c.Perplexity)).Logger()
		logger.Info().Msg("Reducing")

		data, err := input.Columns(c.Columns)
		if err != nil {
			return errors.Annotatef(err, "n_columns=%d perplexity=%s", c.Columns, FormatPerplexity(c.Perplexity))
		}
		embedding, stats, err := reducer.Reduce(ctx, data, c.Perplexity)
		if err != nil {
			return errors.Annotatef(err, "n_columns=%d perplexity=%s", c.Columns, FormatPerplexity(c.Perplexity))
		}
		csvPath, pngPath, err := writer.Write(ds, c, embedding)
		if err != nil {
			return errors.Annotatef(err, "n_columns=%d perplexity=%s", c.Columns, FormatPerplexity(c.Perplexity))
		}

		logger.Info().Str("data", csvPath).Str("plot", pngPath).Float64("kl", stats.KL).Int("iterations", stats.NIter+1).
			Msg("Wrote artifacts")
		artifacts[i] = Artifact{Combination: c, DataPath: csvPath, PlotPath: pngPath, Stats: stats}
		done[i] = true
		_ = bar.Add(1)
		return nil
	}

	if cfg.Workers <= 1 {
		for i := range grid {
			if err = ctx.Err(); err != nil {
				break
			}
			if err = runOne(ctx, i); err != nil {
				break
			}
		}
	} else {
		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(cfg.Workers)
		for i := range grid {
			g.Go(func() error {
				if err := gctx.Err(); err != nil {
					return err
				}
				return runOne(gctx, i)
			})
		}
		err = g.Wait()
	}
	_ = bar.Finish()

	completed := lo.Filter(artifacts, func(_ Artifact, i int) bool { return done[i] })
	if err != nil {
		return completed, errors.Trace(err)
	}
	return completed, nil
}
