// Package layout provides the optimization of the low-dimensional t-SNE embedding.
// This implements batch gradient descent with momentum and per-parameter gains
// over either the exact or the Barnes-Hut approximated KL divergence gradient.
package layout

import (
	"context"
	"math"

	"github.com/juju/errors"
	"github.com/rs/zerolog/log"
	"gonum.org/v1/gonum/floats"
)

// Objective evaluates the KL divergence gradient at params into grad.
// The joint probabilities are multiplied by exaggeration. The returned
// divergence is only meaningful when computeError is true.
type Objective func(params, grad []float64, exaggeration float64, computeError bool) float64

// LayoutConfig configures one gradient descent stage.
type LayoutConfig struct {
	// Start is the index of the first iteration
	Start int
	// NIter is the index one past the last iteration
	NIter int
	// Momentum applied to the previous update
	Momentum float64
	// LearningRate scales the gradient step
	LearningRate float64
	// Exaggeration multiplies the joint probabilities
	Exaggeration float64
	// MinGain is the floor of the per-parameter gains
	MinGain float64
	// MinGradNorm stops the stage once the gradient norm falls below it
	MinGradNorm float64
	// NIterWithoutProgress stops the stage when the error has not improved for this many iterations
	NIterWithoutProgress int
	// NIterCheck is the interval between convergence checks
	NIterCheck int
	// Verbose enables progress output
	Verbose bool
	// ProgressCallback is called after each iteration with (iter, total, kl).
	// kl is the most recently computed divergence.
	ProgressCallback func(iter, total int, kl float64)
}

// DefaultLayoutConfig returns the configuration of the final optimization stage.
func DefaultLayoutConfig() LayoutConfig {
	return LayoutConfig{
		Start:                0,
		NIter:                1000,
		Momentum:             0.8,
		LearningRate:         200,
		Exaggeration:         1,
		MinGain:              0.01,
		MinGradNorm:          1e-7,
		NIterWithoutProgress: 300,
		NIterCheck:           50,
	}
}

// Result reports how a stage ended.
type Result struct {
	// KL is the last computed divergence
	KL float64
	// Iter is the index of the last iteration run
	Iter int
}

// GradientDescent minimises objective starting from params, which is updated in place.
// Gains grow by 0.2 where the gradient changed sign against the previous update
// and shrink by 0.8 elsewhere.
func GradientDescent(ctx context.Context, params []float64, objective Objective, config LayoutConfig) (Result, error) {
	if config.NIterCheck <= 0 {
		return Result{}, errors.NotValidf("convergence check interval %d", config.NIterCheck)
	}

	update := make([]float64, len(params))
	gains := make([]float64, len(params))
	for k := range gains {
		gains[k] = 1
	}
	grad := make([]float64, len(params))

	kl := math.MaxFloat64
	bestError := math.MaxFloat64
	bestIter := config.Start
	last := config.Start

	for i := config.Start; i < config.NIter; i++ {
		if err := ctx.Err(); err != nil {
			return Result{KL: kl, Iter: last}, errors.Trace(err)
		}
		last = i

		check := (i+1)%config.NIterCheck == 0
		computeError := check || i == config.NIter-1
		c := objective(params, grad, config.Exaggeration, computeError)
		if computeError {
			kl = c
		}

		for k := range grad {
			if update[k]*grad[k] < 0 {
				gains[k] += 0.2
			} else {
				gains[k] *= 0.8
			}
			gains[k] = max(gains[k], config.MinGain)
			grad[k] *= gains[k]
			update[k] = config.Momentum*update[k] - config.LearningRate*grad[k]
			params[k] += update[k]
		}

		if config.ProgressCallback != nil {
			config.ProgressCallback(i+1, config.NIter, kl)
		}

		if !check {
			continue
		}

		gradNorm := floats.Norm(grad, 2)
		if config.Verbose {
			log.Debug().Msgf("[t-SNE] Iteration %d: error = %.7f, gradient norm = %.7f", i+1, kl, gradNorm)
		}

		if kl < bestError {
			bestError = kl
			bestIter = i
		} else if i-bestIter > config.NIterWithoutProgress {
			if config.Verbose {
				log.Info().Msgf("[t-SNE] Iteration %d: did not make any progress during the last %d episodes. Finished.",
					i+1, config.NIterWithoutProgress)
			}
			break
		}
		if gradNorm <= config.MinGradNorm {
			if config.Verbose {
				log.Info().Msgf("[t-SNE] Iteration %d: gradient norm %f. Finished.", i+1, gradNorm)
			}
			break
		}
	}

	return Result{KL: kl, Iter: last}, nil
}
