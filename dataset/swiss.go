package dataset

import (
	"math"
	"strconv"

	"github.com/juju/errors"
	"gonum.org/v1/gonum/mat"

	"github.com/nozzle/tsne/internal/rand"
)

// swissStep is the roll parameter increment between rows.
const swissStep = 0.004 * math.Pi

// GenerateSwissRoll builds a swiss-roll table with header "var 0, var 1, ...".
// Row i has t = i*0.004π; column 0 is t·cos t, column 1 is t·sin t,
// column 2 is column 1 plus uniform noise in [-3, 3) and every further
// column is standard normal noise.
func GenerateSwissRoll(rows, cols int, seed uint32) (*Dataset, error) {
	if rows < 1 {
		return nil, errors.NotValidf("row count %d", rows)
	}
	if cols < 3 {
		return nil, errors.NotValidf("column count %d (swiss roll needs at least 3)", cols)
	}

	rng := rand.NewMT19937(seed)
	data := mat.NewDense(rows, cols, nil)
	t := 0.0
	for i := range rows {
		y := t * math.Sin(t)
		data.Set(i, 0, t*math.Cos(t))
		data.Set(i, 1, y)
		data.Set(i, 2, y+6*(rng.Float64()-0.5))
		for j := 3; j < cols; j++ {
			data.Set(i, j, rng.StandardNormal())
		}
		t += swissStep
	}

	header := make([]string, cols)
	for j := range header {
		header[j] = "var " + strconv.Itoa(j)
	}
	return New(header, data), nil
}
