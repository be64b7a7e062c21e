// Package dataset loads, slices and serialises the numeric tables the
// t-SNE sweep works on.
package dataset

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/juju/errors"
	"gonum.org/v1/gonum/mat"
)

// excerptThreshold is the element count above which Print summarises.
const excerptThreshold = 1000

// Dataset is an immutable rows × columns table of float64 values.
type Dataset struct {
	// Header is the discarded first record, kept for diagnostics
	Header []string
	data   *mat.Dense
}

// New wraps data. The matrix must not be modified afterwards.
func New(header []string, data *mat.Dense) *Dataset {
	return &Dataset{Header: header, data: data}
}

// Load reads a comma-delimited file. The first row is always discarded.
func Load(path string) (*Dataset, error) {
	return load(path, Read)
}

// LoadRaw reads a comma-delimited file in which every row holds data.
func LoadRaw(path string) (*Dataset, error) {
	return load(path, ReadRaw)
}

func load(path string, read func(io.Reader) (*Dataset, error)) (*Dataset, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Trace(err)
	}
	defer f.Close()

	ds, err := read(f)
	if err != nil {
		return nil, errors.Annotatef(err, "load %s", path)
	}
	return ds, nil
}

// Read parses comma-delimited records from r. The first record is discarded
// without being parsed; every other field must be a float.
func Read(r io.Reader) (*Dataset, error) {
	return read(r, true)
}

// ReadRaw parses comma-delimited records from r without a header row.
func ReadRaw(r io.Reader) (*Dataset, error) {
	return read(r, false)
}

func read(r io.Reader, hasHeader bool) (*Dataset, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true
	reader.ReuseRecord = true

	var header []string
	if hasHeader {
		record, err := reader.Read()
		if err == io.EOF {
			return nil, errors.NotValidf("empty input")
		}
		if err != nil {
			return nil, errors.Trace(err)
		}
		header = append([]string(nil), record...)
	}

	var values []float64
	cols := -1
	rows := 0
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errors.Trace(err)
		}

		if cols < 0 {
			cols = len(record)
		} else if len(record) != cols {
			line, _ := reader.FieldPos(0)
			return nil, errors.NotValidf("line %d: record with %d fields (expected %d)", line, len(record), cols)
		}

		for j, field := range record {
			v, err := strconv.ParseFloat(strings.TrimSpace(field), 64)
			if err != nil {
				line, column := reader.FieldPos(j)
				return nil, errors.NewNotValid(err, fmt.Sprintf("line %d, column %d", line, column))
			}
			values = append(values, v)
		}
		rows++
	}

	if rows == 0 {
		return nil, errors.NotValidf("input without data rows")
	}
	return New(header, mat.NewDense(rows, cols, values)), nil
}

// Shape returns the number of rows and columns.
func (d *Dataset) Shape() (rows, cols int) {
	return d.data.Dims()
}

// Matrix returns the underlying data. Callers must not modify it.
func (d *Dataset) Matrix() mat.Matrix {
	return d.data
}

// Columns returns a view of the first n columns.
func (d *Dataset) Columns(n int) (mat.Matrix, error) {
	rows, cols := d.Shape()
	if n < 1 || n > cols {
		return nil, errors.NotValidf("column count %d for a dataset with %d columns", n, cols)
	}
	return d.data.Slice(0, rows, 0, n), nil
}

// Print writes the shape followed by the values. Large tables show only
// their first and last three rows and columns.
func (d *Dataset) Print(w io.Writer) error {
	rows, cols := d.Shape()
	if _, err := fmt.Fprintf(w, "(%d, %d)\n", rows, cols); err != nil {
		return errors.Trace(err)
	}

	// Squeeze and Excerpt do not combine in gonum's formatter.
	opts := []mat.FormatOption{mat.Squeeze()}
	if rows*cols > excerptThreshold {
		opts = []mat.FormatOption{mat.Excerpt(3)}
	}
	_, err := fmt.Fprintf(w, "%v\n", mat.Formatted(d.data, opts...))
	return errors.Trace(err)
}

// Normalize returns a copy with every column min-max scaled to [0, 1].
// Constant columns become 0.
func (d *Dataset) Normalize() *Dataset {
	rows, cols := d.Shape()
	out := mat.DenseCopyOf(d.data)
	col := make([]float64, rows)
	for j := range cols {
		mat.Col(col, j, d.data)
		lo, hi := col[0], col[0]
		for _, v := range col {
			lo = min(lo, v)
			hi = max(hi, v)
		}
		spread := hi - lo
		for i, v := range col {
			if spread > 0 {
				out.Set(i, j, (v-lo)/spread)
			} else {
				out.Set(i, j, 0)
			}
		}
	}
	return New(d.Header, out)
}
