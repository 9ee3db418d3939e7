// Package sqlite provides SQLite database writing for protein inference results
package sqlite

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/ChrisMcGann/PInfer/pkg/pipeline"
)

// Date format for RunTable (ISO 8601)
const runDateFormat = "2006-01-02T15:04:05Z07:00"

// RunInfo describes the run recorded in RunTable.
type RunInfo struct {
	RunID     string
	Engine    string
	InputRows int
	Groups    int
}

// Writer handles writing protein groups to SQLite database files
type Writer struct {
	db         *sql.DB
	outputPath string
	groupStmt  *sql.Stmt
	groupID    int
	closed     bool
}

// NewWriter creates a new SQLite writer. An existing database at outputPath
// is replaced.
func NewWriter(outputPath string) (*Writer, error) {
	if err := os.Remove(outputPath); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to replace existing database: %w", err)
	}

	db, err := sql.Open("sqlite3", outputPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	w := &Writer{
		db:         db,
		outputPath: outputPath,
		groupID:    1,
	}

	if err := w.createTables(); err != nil {
		db.Close()
		return nil, err
	}

	if err := w.prepareStatements(); err != nil {
		db.Close()
		return nil, err
	}

	return w, nil
}

// createTables creates the required database schema
func (w *Writer) createTables() error {
	schema := `
	CREATE TABLE IF NOT EXISTS ProteinGroupTable (
		ProteinGroupId INTEGER PRIMARY KEY,
		ProteinId TEXT NOT NULL,
		Probability DOUBLE,
		nrPeptidesMod INTEGER,
		nrPeptides INTEGER
	);

	CREATE TABLE IF NOT EXISTS RunTable (
		RunId TEXT,
		CreationDate TEXT,
		Engine TEXT,
		InputRows INTEGER,
		ProteinGroups INTEGER
	);
	`

	_, err := w.db.Exec(schema)
	if err != nil {
		return fmt.Errorf("failed to create tables: %w", err)
	}

	return nil
}

// prepareStatements prepares SQL statements for batch insertion
func (w *Writer) prepareStatements() error {
	var err error

	w.groupStmt, err = w.db.Prepare(`
		INSERT INTO ProteinGroupTable (
			ProteinGroupId, ProteinId, Probability, nrPeptidesMod, nrPeptides
		) VALUES (?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare protein group statement: %w", err)
	}

	return nil
}

// WriteIdentification writes a single protein group to the database
func (w *Writer) WriteIdentification(id pipeline.Identification) error {
	_, err := w.groupStmt.Exec(
		w.groupID,           // ProteinGroupId
		id.Accessions,       // ProteinId
		id.Probability,      // Probability
		id.ModifiedPeptides, // nrPeptidesMod
		id.DistinctPeptides, // nrPeptides
	)
	if err != nil {
		return fmt.Errorf("failed to insert protein group %s: %w", id.Accessions, err)
	}

	w.groupID++
	return nil
}

// Finalize records the run in RunTable and closes the database
func (w *Writer) Finalize(run RunInfo) error {
	if w.closed {
		return nil
	}

	_, err := w.db.Exec(`
		INSERT INTO RunTable (RunId, CreationDate, Engine, InputRows, ProteinGroups)
		VALUES (?, ?, ?, ?, ?)
	`, run.RunID, time.Now().UTC().Format(runDateFormat), run.Engine, run.InputRows, run.Groups)
	if err != nil {
		return fmt.Errorf("failed to insert run: %w", err)
	}

	return w.Close()
}

// Close closes the database connection without recording a run
func (w *Writer) Close() error {
	if w.closed {
		return nil
	}
	w.closed = true

	if w.groupStmt != nil {
		w.groupStmt.Close()
	}

	if err := w.db.Close(); err != nil {
		return fmt.Errorf("failed to close database: %w", err)
	}

	return nil
}
