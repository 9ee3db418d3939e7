// Package sqlite reads peptide rows from a table in a SQLite database
package sqlite

import (
	"database/sql"
	"fmt"
	"net/url"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/ChrisMcGann/PInfer/pkg/core"
	_ "github.com/mattn/go-sqlite3"
)

// ReadRows returns every row of table. NULL and empty cells are missing
// values; so are numeric cells that do not parse.
func ReadRows(path, table string, cols core.Columns) ([]core.Row, error) {
	uri, err := fileURI(path, "ro")
	if err != nil {
		return nil, err
	}
	db, err := sql.Open("sqlite3", uri)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	query := fmt.Sprintf("SELECT %s, %s, %s, %s FROM %s",
		quote(cols.Peptide), quote(cols.Protein), quote(cols.Probability), quote(cols.Detectability),
		quote(table))

	rs, err := db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to query table %s: %w", table, err)
	}
	defer rs.Close()

	var rows []core.Row
	line := 0
	for rs.Next() {
		line++
		var pep, prot, prob, det sql.NullString
		if err := rs.Scan(&pep, &prot, &prob, &det); err != nil {
			return nil, fmt.Errorf("row %d: %w", line, err)
		}
		rows = append(rows, core.Row{
			Line:          line,
			Peptide:       strings.TrimSpace(pep.String),
			Proteins:      strings.TrimSpace(prot.String),
			Probability:   number(prob),
			Detectability: number(det),
		})
	}
	if err := rs.Err(); err != nil {
		return nil, fmt.Errorf("error reading table %s: %w", table, err)
	}

	return rows, nil
}

// fileURI builds a SQLite URI for path. The path is made absolute and
// escaped so that '?' and '#' in file names are not read as URI delimiters.
func fileURI(path, mode string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("failed to resolve database path: %w", err)
	}
	abs = filepath.ToSlash(abs)
	if !strings.HasPrefix(abs, "/") {
		abs = "/" + abs // drive letter paths
	}
	u := url.URL{Scheme: "file", Path: abs, RawQuery: "mode=" + mode}
	return u.String(), nil
}

// quote makes name safe to use as a SQL identifier.
func quote(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

func number(v sql.NullString) *float64 {
	if !v.Valid {
		return nil
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(v.String), 64)
	if err != nil {
		return nil
	}
	return &f
}
