package main

import (
	"github.com/juju/errors"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/nozzle/tsne"
	"github.com/nozzle/tsne/dataset"
)

var embedCommand = &cobra.Command{
	Use:   "embed",
	Short: "Run t-SNE once and save the embedding",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		flags := cmd.Flags()
		input, _ := flags.GetString("input")
		output, _ := flags.GetString("output")
		skipHeader, _ := flags.GetBool("skip-header")

		load := dataset.LoadRaw
		if skipHeader {
			load = dataset.Load
		}
		ds, err := load(input)
		if err != nil {
			return errors.Trace(err)
		}
		rows, cols := ds.Shape()
		log.Info().Int("samples", rows).Int("features", cols).Msg("Loaded")

		config := tsne.DefaultConfig()
		config.Perplexity, _ = flags.GetFloat64("perplexity")
		config.NComponents, _ = flags.GetInt("components")
		config.Seed, _ = flags.GetInt64("seed")
		config.Method, _ = flags.GetString("method")
		config.Init, _ = flags.GetString("init")
		config.Metric, _ = flags.GetString("metric")
		config.MaxIter, _ = flags.GetInt("max-iter")
		config.NumWorkers, _ = flags.GetInt("threads")
		config.Verbose, _ = flags.GetBool("verbose")
		if config.Verbose {
			config.ProgressCallback = func(iter, total int, kl float64) {
				if iter%50 == 0 || iter == total {
					log.Debug().Int("iteration", iter).Int("total", total).Float64("kl", kl).Msg("Progress")
				}
			}
		}

		model := tsne.New(config)
		embedding, err := model.FitTransformContext(cmd.Context(), ds.Matrix())
		if err != nil {
			return errors.Trace(err)
		}
		if err := dataset.SaveCSV(output, embedding); err != nil {
			return errors.Trace(err)
		}
		log.Info().Str("output", output).Float64("kl", model.KLDivergence()).Msg("Saved embedding")
		return nil
	},
}

func init() {
	flags := embedCommand.Flags()
	defaults := tsne.DefaultConfig()
	flags.String("input", "", "input CSV file (required)")
	flags.String("output", "embedding.csv", "output CSV file")
	flags.Bool("skip-header", false, "discard the first row of the input")
	flags.Float64("perplexity", defaults.Perplexity, "perplexity, less than the number of samples")
	flags.Int("components", defaults.NComponents, "number of output dimensions")
	flags.Int64("seed", defaults.Seed, "random seed")
	flags.String("method", defaults.Method, "gradient method: barnes_hut or exact")
	flags.String("init", defaults.Init, "initialization: random or pca")
	flags.String("metric", defaults.Metric, "distance metric")
	flags.Int("max-iter", defaults.MaxIter, "number of iterations, at least 250")
	flags.Int("threads", defaults.NumWorkers, "parallelism (0 = all cores)")
	flags.Bool("verbose", false, "log optimization progress")
	_ = embedCommand.MarkFlagRequired("input")
}
