package sweep

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"sync"

	"github.com/juju/errors"
	"gonum.org/v1/gonum/mat"

	"github.com/nozzle/tsne/chart"
	"github.com/nozzle/tsne/config"
	"github.com/nozzle/tsne/dataset"
)

// FormatPerplexity renders a perplexity in its shortest decimal form.
func FormatPerplexity(p float64) string {
	return strconv.FormatFloat(p, 'f', -1, 64)
}

// Title returns the plot title of a combination.
func Title(c Combination) string {
	return fmt.Sprintf("n_columns=%d\n perplexity=%s", c.Columns, FormatPerplexity(c.Perplexity))
}

// Names returns the data and plot paths of a combination.
func Names(cfg *config.Config, c Combination) (csvPath, pngPath string) {
	suffix := fmt.Sprintf("_%d_perp_%s_tsne", c.Columns, FormatPerplexity(c.Perplexity))
	csvPath = filepath.Join(cfg.OutputDir, cfg.DataPrefix+suffix+".csv")
	pngPath = filepath.Join(cfg.OutputDir, cfg.PlotPrefix+suffix+".png")
	return csvPath, pngPath
}

// Writer persists the artifacts of one combination.
// The data file holds the full original dataset unless ExportEmbedding is
// set, in which case it holds the embedding. A Writer serves a single dataset.
type Writer struct {
	Config *config.Config
	Style  chart.Style

	once    sync.Once
	encoded []byte
	encErr  error
}

// NewWriter returns a Writer using the colors and figure size of cfg.
func NewWriter(cfg *config.Config) (*Writer, error) {
	style, err := cfg.Style()
	if err != nil {
		return nil, errors.Trace(err)
	}
	return &Writer{Config: cfg, Style: style}, nil
}

// Write stores the data file and the comparison plot of c.
func (w *Writer) Write(ds *dataset.Dataset, c Combination, embedding *mat.Dense) (csvPath, pngPath string, err error) {
	csvPath, pngPath = Names(w.Config, c)

	if w.Config.ExportEmbedding {
		err = dataset.SaveCSV(csvPath, embedding)
	} else {
		err = w.writeOriginal(csvPath, ds)
	}
	if err != nil {
		return "", "", errors.Trace(err)
	}

	if err := chart.SaveComparison(pngPath, ds.Matrix(), embedding, Title(c), w.Style); err != nil {
		return "", "", errors.Trace(err)
	}
	return csvPath, pngPath, nil
}

// writeOriginal writes the dataset, serialised once and reused for every combination.
func (w *Writer) writeOriginal(path string, ds *dataset.Dataset) error {
	w.once.Do(func() {
		var buf bytes.Buffer
		w.encErr = dataset.WriteCSV(&buf, ds.Matrix())
		w.encoded = buf.Bytes()
	})
	if w.encErr != nil {
		return errors.Trace(w.encErr)
	}
	return errors.Annotatef(os.WriteFile(path, w.encoded, 0o644), "write %s", path)
}
