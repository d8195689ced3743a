package table

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/ERKuipers/campo/internal/dataset"
)

// format renders row i. Integer columns print their exact values when they
// have them.
func (c Column) format(i int) string {
	v := c.Values[i]
	switch {
	case c.DType == dataset.Bool:
		if v != 0 {
			return "True"
		}
		return "False"
	case c.DType.IsInteger():
		if c.Ints != nil {
			return strconv.FormatInt(c.Ints[i], 10)
		}
		return strconv.FormatInt(int64(v), 10)
	default:
		return strconv.FormatFloat(v, 'f', -1, 64)
	}
}

func parseValue(s string) (float64, error) {
	switch s {
	case "True", "true":
		return 1, nil
	case "False", "false":
		return 0, nil
	}
	return strconv.ParseFloat(s, 64)
}

// WriteCSV writes a header row and one row per table row, without an index.
func WriteCSV(w io.Writer, t *Table) error {
	cw := csv.NewWriter(w)

	if err := cw.Write(t.Names()); err != nil {
		return err
	}

	row := make([]string, len(t.columns))
	for i := range t.Len() {
		for j, c := range t.columns {
			row[j] = c.format(i)
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}

	cw.Flush()
	return cw.Error()
}

// WriteCSVT writes the comma-separated type hint line read by OGR's CSV driver.
func WriteCSVT(w io.Writer, t *Table) error {
	_, err := io.WriteString(w, strings.Join(t.Hints(), ","))
	return err
}

// ReadCSV reads a table written by WriteCSV. Every column comes back as
// float64; True/False read as 1/0.
func ReadCSV(r io.Reader) (*Table, error) {
	cr := csv.NewReader(r)

	records, err := cr.ReadAll()
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return New(), nil
	}

	header := records[0]
	cols := make([][]float64, len(header))
	for i := 1; i < len(records); i++ {
		for j, field := range records[i] {
			v, err := parseValue(field)
			if err != nil {
				return nil, fmt.Errorf("row %d column %q: %w", i, header[j], err)
			}
			cols[j] = append(cols[j], v)
		}
	}

	t := New()
	for j, name := range header {
		if cols[j] == nil {
			cols[j] = []float64{}
		}
		if err := t.Set(Column{Name: name, DType: dataset.Float64, Values: cols[j]}); err != nil {
			return nil, err
		}
	}
	return t, nil
}

// WriteCSVFile writes t to path, replacing any existing file.
func WriteCSVFile(path string, t *Table) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := WriteCSV(f, t); err != nil {
		return err
	}
	return f.Close()
}

// WriteCSVTFile writes the type hints of t to path.
func WriteCSVTFile(path string, t *Table) error {
	return os.WriteFile(path, []byte(strings.Join(t.Hints(), ",")), 0644)
}

func ReadCSVFile(path string) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	return ReadCSV(f)
}
