// Package table provides streaming readers for delimited peptide tables
package table

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/ChrisMcGann/PInfer/pkg/core"
)

// MissingMarker is the cell value some hosts write for a missing value.
const MissingMarker = "?"

// Reader provides streaming access to TSV/CSV peptide tables
type Reader struct {
	csv     *csv.Reader
	cols    core.Columns
	index   columnIndex
	lineNum int
	current core.Row
	invalid int
	err     error
	started bool
}

type columnIndex struct {
	peptide, protein, probability, detectability int
}

// NewReader creates a new table reader. The first record must be the header.
func NewReader(r io.Reader, cols core.Columns, comma rune) *Reader {
	cr := csv.NewReader(r)
	cr.Comma = comma
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true
	cr.ReuseRecord = true

	return &Reader{
		csv:  cr,
		cols: cols,
	}
}

// Next advances to the next row. Returns false when no more rows or error.
func (r *Reader) Next() bool {
	if r.err != nil {
		return false
	}
	if !r.started {
		r.started = true
		if err := r.readHeader(); err != nil {
			r.err = err
			return false
		}
	}

	for {
		record, err := r.csv.Read()
		if err == io.EOF {
			return false
		}
		if err != nil {
			r.err = err
			return false
		}
		r.lineNum, _ = r.csv.FieldPos(0)
		if len(record) == 1 && strings.TrimSpace(record[0]) == "" {
			continue
		}

		r.current = r.parseRow(record)
		return true
	}
}

// Row returns the current row
func (r *Reader) Row() core.Row {
	return r.current
}

// Line returns the source line of the current row
func (r *Reader) Line() int {
	return r.lineNum
}

// Err returns any error encountered during reading
func (r *Reader) Err() error {
	return r.err
}

// Invalid returns the number of numeric cells that could not be parsed and
// were treated as missing.
func (r *Reader) Invalid() int {
	return r.invalid
}

// readHeader locates the configured columns in the header record.
func (r *Reader) readHeader() error {
	header, err := r.csv.Read()
	if err == io.EOF {
		return errors.New("empty table, expected a header line")
	}
	if err != nil {
		return err
	}
	r.lineNum, _ = r.csv.FieldPos(0)

	pos := make(map[string]int, len(header))
	for i, name := range header {
		name = strings.TrimSpace(strings.TrimPrefix(name, "\ufeff"))
		if _, ok := pos[name]; !ok {
			pos[name] = i
		}
	}

	var missing []string
	lookup := func(name string) int {
		i, ok := pos[name]
		if !ok {
			missing = append(missing, name)
			return -1
		}
		return i
	}
	r.index = columnIndex{
		peptide:       lookup(r.cols.Peptide),
		protein:       lookup(r.cols.Protein),
		probability:   lookup(r.cols.Probability),
		detectability: lookup(r.cols.Detectability),
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing columns in header: %s", strings.Join(missing, ", "))
	}
	if r.index.peptide == r.index.protein {
		return fmt.Errorf("peptide and protein columns must differ")
	}
	return nil
}

func (r *Reader) parseRow(record []string) core.Row {
	return core.Row{
		Line:          r.lineNum,
		Peptide:       cell(record, r.index.peptide),
		Proteins:      cell(record, r.index.protein),
		Probability:   r.number(cell(record, r.index.probability)),
		Detectability: r.number(cell(record, r.index.detectability)),
	}
}

// cell returns the trimmed value at i, or "" when absent or missing.
func cell(record []string, i int) string {
	if i >= len(record) {
		return ""
	}
	v := strings.TrimSpace(record[i])
	if v == MissingMarker {
		return ""
	}
	return v
}

func (r *Reader) number(v string) *float64 {
	if v == "" {
		return nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		r.invalid++
		return nil
	}
	return &f
}

// ReadAll reads every row from r.
func ReadAll(r *Reader) ([]core.Row, error) {
	var rows []core.Row
	for r.Next() {
		rows = append(rows, r.Row())
	}
	if err := r.Err(); err != nil {
		return nil, err
	}
	return rows, nil
}
