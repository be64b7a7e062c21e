package main

import (
	"math"

	"github.com/juju/errors"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/nozzle/tsne/dataset"
)

var generateCommand = &cobra.Command{
	Use:   "generate",
	Short: "Write a noisy swiss-roll dataset",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		flags := cmd.Flags()
		rows, _ := flags.GetInt("rows")
		cols, _ := flags.GetInt("cols")
		seed, _ := flags.GetInt64("seed")
		output, _ := flags.GetString("output")

		if seed < 0 || seed > math.MaxUint32 {
			return errors.NotValidf("seed %d", seed)
		}
		ds, err := dataset.GenerateSwissRoll(rows, cols, uint32(seed))
		if err != nil {
			return errors.Trace(err)
		}
		if err := ds.Save(output); err != nil {
			return errors.Trace(err)
		}
		log.Info().Int("rows", rows).Int("columns", cols).Str("output", output).Msg("Generated swiss roll")
		return nil
	},
}

func init() {
	flags := generateCommand.Flags()
	flags.Int("rows", 1000, "number of samples")
	flags.Int("cols", 100, "number of columns, at least 3")
	flags.Int64("seed", 123, "random seed")
	flags.String("output", "swissB.csv", "output CSV file")
}
