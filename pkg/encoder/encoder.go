// Package encoder writes source rows in the two flat-file formats read by
// the inference engine.
package encoder

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/sirupsen/logrus"

	"github.com/ChrisMcGann/PInfer/pkg/core"
	"github.com/ChrisMcGann/PInfer/pkg/logging"
)

// Stats counts what the encoder wrote and skipped.
type Stats struct {
	Rows                 int
	ProbabilityLines     int
	DetectabilityLines   int
	SkippedProbability   int
	SkippedDetectability int
}

// Encoder writes engine input files, registering accessions as it goes.
type Encoder struct {
	registry *core.Registry
	log      logrus.FieldLogger
}

// New creates an encoder that assigns internal IDs through reg.
func New(reg *core.Registry, log logrus.FieldLogger) *Encoder {
	return &Encoder{
		registry: reg,
		log:      logging.OrDiscard(log),
	}
}

// EncodeFiles writes the probability and detectability files for rows. Both
// files are created (or truncated), fully written and closed before it
// returns.
func (e *Encoder) EncodeFiles(rows []core.Row, probabilityPath, detectabilityPath string) (Stats, error) {
	stats := Stats{Rows: len(rows)}

	err := writeFile(probabilityPath, func(w io.Writer) error {
		var err error
		stats.ProbabilityLines, stats.SkippedProbability, err = e.WriteProbabilities(w, rows)
		return err
	})
	if err != nil {
		return stats, err
	}

	err = writeFile(detectabilityPath, func(w io.Writer) error {
		var err error
		stats.DetectabilityLines, stats.SkippedDetectability, err = e.WriteDetectabilities(w, rows)
		return err
	})
	if err != nil {
		return stats, err
	}

	return stats, nil
}

// WriteProbabilities writes one "peptide<TAB>probability" line per usable row.
// Duplicate peptides are written as often as they occur.
func (e *Encoder) WriteProbabilities(w io.Writer, rows []core.Row) (lines, skipped int, err error) {
	for i := range rows {
		row := &rows[i]
		if err := row.CheckProbability(); err != nil {
			e.log.WithError(err).Debug("skipping row for probability file")
			skipped++
			continue
		}

		if _, err := fmt.Fprintf(w, "%s\t%s\n", row.Peptide, formatFloat(*row.Probability)); err != nil {
			return lines, skipped, fmt.Errorf("failed to write probability line: %w", err)
		}
		lines++
	}
	return lines, skipped, nil
}

// WriteDetectabilities writes one "peptide<TAB>internalID<TAB>detectability"
// line per accession of every usable row.
func (e *Encoder) WriteDetectabilities(w io.Writer, rows []core.Row) (lines, skipped int, err error) {
	for i := range rows {
		row := &rows[i]
		if err := row.CheckDetectability(); err != nil {
			e.log.WithError(err).Debug("skipping row for detectability file")
			skipped++
			continue
		}

		detect := formatFloat(*row.Detectability)
		for _, acc := range row.Accessions() {
			id := e.registry.Register(acc)
			if _, err := fmt.Fprintf(w, "%s\t%d\t%s\n", row.Peptide, id, detect); err != nil {
				return lines, skipped, fmt.Errorf("failed to write detectability line: %w", err)
			}
			lines++
		}
	}
	return lines, skipped, nil
}

// writeFile creates path and hands a buffered writer to fn.
func writeFile(path string, fn func(w io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("%w: failed to create %s: %v", core.ErrIO, path, err)
	}

	bw := bufio.NewWriter(f)
	if err := fn(bw); err != nil {
		f.Close()
		return fmt.Errorf("%w: %s: %v", core.ErrIO, path, err)
	}
	if err := bw.Flush(); err != nil {
		f.Close()
		return fmt.Errorf("%w: failed to flush %s: %v", core.ErrIO, path, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("%w: failed to close %s: %v", core.ErrIO, path, err)
	}
	return nil
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
