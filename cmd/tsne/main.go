// Command tsne runs t-SNE sweeps and single embeddings on CSV data.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/juju/errors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var rootCommand = &cobra.Command{
	Use:           "tsne",
	Short:         "t-SNE embeddings and perplexity sweeps",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		debug, _ := cmd.Flags().GetBool("debug")
		setupLogger(debug)
	},
}

func init() {
	rootCommand.PersistentFlags().Bool("debug", false, "use debug log level")
	rootCommand.AddCommand(sweepCommand, embedCommand, generateCommand)
}

func setupLogger(debug bool) {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: "15:04:05"})
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	if debug {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := rootCommand.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, errors.ErrorStack(err))
		stop()
		os.Exit(1)
	}
}
