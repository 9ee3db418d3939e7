package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/ChrisMcGann/PInfer/pkg/core"
	"github.com/ChrisMcGann/PInfer/pkg/reader/sqlite"
	"github.com/ChrisMcGann/PInfer/pkg/reader/table"
)

// detectFormat guesses the input format from the file extension.
func detectFormat(path string) (string, error) {
	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".tsv", ".txt", ".tab":
		return "tsv", nil
	case ".csv":
		return "csv", nil
	case ".db", ".sqlite", ".sqlite3":
		return "sqlite", nil
	default:
		return "", fmt.Errorf("cannot detect format from extension %q, please specify --from", ext)
	}
}

// loadRows reads every peptide row of path using the configured columns.
func loadRows(path, format string, cols core.Columns) ([]core.Row, error) {
	if format == "" {
		var err error
		format, err = detectFormat(path)
		if err != nil {
			return nil, err
		}
	}

	switch format {
	case "sqlite":
		rows, err := sqlite.ReadRows(path, tableName, cols)
		if err != nil {
			return nil, err
		}
		logger.WithField("table", tableName).Debugf("Read %d rows from %s", len(rows), path)
		return rows, nil
	case "tsv", "csv":
		comma := '\t'
		if format == "csv" {
			comma = ','
		}
		return loadTable(path, cols, comma)
	default:
		return nil, fmt.Errorf("unsupported input format: %s", format)
	}
}

func loadTable(path string, cols core.Columns, comma rune) ([]core.Row, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open input file: %w", err)
	}
	defer file.Close()

	reader := table.NewReader(file, cols, comma)
	rows, err := table.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	if n := reader.Invalid(); n > 0 {
		logger.Warnf("%d cells in %s were not valid numbers and are treated as missing", n, path)
	}
	logger.Debugf("Read %d rows from %s", len(rows), path)
	return rows, nil
}
