package dataset

import (
	"bufio"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/juju/errors"
	"gonum.org/v1/gonum/mat"
)

// WriteCSV writes m comma-separated, one row per line, without a header.
// Every value is written as %.18e.
func WriteCSV(w io.Writer, m mat.Matrix) error {
	return writeCSV(w, nil, m, formatExact)
}

// SaveCSV writes m to path in the WriteCSV format.
func SaveCSV(path string, m mat.Matrix) error {
	return saveFile(path, func(w io.Writer) error {
		return WriteCSV(w, m)
	})
}

// Save writes the dataset with its header to path, values in shortest form.
func (d *Dataset) Save(path string) error {
	return saveFile(path, func(w io.Writer) error {
		return writeCSV(w, d.Header, d.data, formatShort)
	})
}

func formatExact(b []byte, v float64) []byte {
	return strconv.AppendFloat(b, v, 'e', 18, 64)
}

func formatShort(b []byte, v float64) []byte {
	return strconv.AppendFloat(b, v, 'g', -1, 64)
}

func writeCSV(w io.Writer, header []string, m mat.Matrix, format func([]byte, float64) []byte) error {
	bw := bufio.NewWriter(w)
	if header != nil {
		if _, err := bw.WriteString(strings.Join(header, ", ") + "\n"); err != nil {
			return errors.Trace(err)
		}
	}

	rows, cols := m.Dims()
	var buf []byte
	for i := range rows {
		buf = buf[:0]
		for j := range cols {
			if j > 0 {
				buf = append(buf, ',')
			}
			buf = format(buf, m.At(i, j))
		}
		buf = append(buf, '\n')
		if _, err := bw.Write(buf); err != nil {
			return errors.Trace(err)
		}
	}
	return errors.Trace(bw.Flush())
}

func saveFile(path string, write func(io.Writer) error) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return errors.Trace(err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = errors.Trace(cerr)
		}
	}()
	return errors.Annotatef(write(f), "write %s", path)
}
