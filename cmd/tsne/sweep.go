package main

import (
	"os"

	"github.com/juju/errors"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/nozzle/tsne/config"
	"github.com/nozzle/tsne/dataset"
	"github.com/nozzle/tsne/sweep"
)

var sweepCommand = &cobra.Command{
	Use:   "sweep",
	Short: "Embed the first columns of a dataset over a grid of perplexities",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		configPath, _ := cmd.Flags().GetString("config")
		conf, err := config.Load(configPath, cmd.Flags())
		if err != nil {
			return errors.Annotate(err, "load config")
		}

		ds, err := dataset.Load(conf.Input)
		if err != nil {
			return errors.Trace(err)
		}
		if err := ds.Print(os.Stdout); err != nil {
			return errors.Trace(err)
		}

		artifacts, err := sweep.Run(cmd.Context(), ds, sweep.NewTSNEReducer(conf), conf)
		if err != nil {
			return errors.Trace(err)
		}
		log.Info().Int("artifacts", len(artifacts)).Str("output_dir", conf.OutputDir).Msg("Sweep finished")
		return nil
	},
}

func init() {
	flags := sweepCommand.Flags()
	defaults := config.Default()
	flags.StringP("config", "c", "", "configuration file path (yaml, toml or json)")
	flags.String("input", defaults.Input, "input CSV file, first row is discarded")
	flags.String("output-dir", defaults.OutputDir, "directory receiving data files and plots")
	flags.Float64Slice("perplexities", defaults.Perplexities, "perplexity values, outer loop")
	flags.IntSlice("columns", defaults.Columns, "column counts, inner loop")
	flags.Int("workers", defaults.Workers, "number of combinations run concurrently")
	flags.Int("threads", defaults.Threads, "parallelism inside one run (0 = all cores)")
	flags.String("method", defaults.Method, "gradient method: barnes_hut or exact")
	flags.Bool("normalize", defaults.Normalize, "min-max scale the input before embedding")
	flags.Bool("export-embedding", defaults.ExportEmbedding, "write the embedding instead of the original data")
	flags.Bool("progress", defaults.Progress, "show a progress bar")
	flags.Bool("verbose", defaults.Verbose, "log optimization progress")
}
