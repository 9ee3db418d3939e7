// Package pipeline runs one protein inference pass: encode the source rows,
// invoke the engine, parse its report, group the proteins and map them back
// to accessions.
package pipeline

import (
	"errors"
	"fmt"
	"os"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/ChrisMcGann/PInfer/pkg/core"
	"github.com/ChrisMcGann/PInfer/pkg/encoder"
	"github.com/ChrisMcGann/PInfer/pkg/engine"
	"github.com/ChrisMcGann/PInfer/pkg/group"
	"github.com/ChrisMcGann/PInfer/pkg/logging"
	"github.com/ChrisMcGann/PInfer/pkg/reader/report"
)

// Result is the complete outcome of a run.
type Result struct {
	RunID           string
	Identifications []Identification // Sorted by accession key

	Encoding      encoder.Stats
	Accessions    int // Accessions registered
	Sets          int // Sets with at least one MAP protein
	MalformedSets int // Set headers that could not be parsed
	Groups        int // Protein groups before accession resolution
}

// Map returns the identifications keyed by accession group.
func (r *Result) Map() map[string]Identification {
	m := make(map[string]Identification, len(r.Identifications))
	for _, id := range r.Identifications {
		m[id.Accessions] = id
	}
	return m
}

// Pipeline holds the collaborators of a run. A Pipeline keeps no state
// between runs and may be reused; every run gets its own registry.
type Pipeline struct {
	invoker engine.Invoker
	log     logrus.FieldLogger
	tempDir string
	layout  report.Layout
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithLogger sets the logger.
func WithLogger(log logrus.FieldLogger) Option {
	return func(p *Pipeline) { p.log = log }
}

// WithTempDir sets where the encoded input files are created.
func WithTempDir(dir string) Option {
	return func(p *Pipeline) { p.tempDir = dir }
}

// WithLayout sets the protein header layout of the report.
func WithLayout(layout report.Layout) Option {
	return func(p *Pipeline) { p.layout = layout }
}

// New creates a pipeline running inference through inv.
func New(inv engine.Invoker, opts ...Option) *Pipeline {
	p := &Pipeline{
		invoker: inv,
		layout:  report.DefaultLayout(),
	}
	for _, opt := range opts {
		opt(p)
	}
	p.log = logging.OrDiscard(p.log)
	return p
}

// Run performs a full inference pass over rows. Either the complete result
// or an error is returned. Every transient file is removed before Run
// returns.
func (p *Pipeline) Run(rows []core.Row) (*Result, error) {
	runID := uuid.New().String()
	log := p.log.WithField("run", runID)
	res := &Result{RunID: runID}

	var cleanup []string
	defer func() { removeAll(log, cleanup) }()

	probPath, err := createTemp(p.tempDir, "pinfer-"+runID+"-probability-*.txt")
	if err != nil {
		return nil, err
	}
	cleanup = append(cleanup, probPath)

	detectPath, err := createTemp(p.tempDir, "pinfer-"+runID+"-detectability-*.txt")
	if err != nil {
		return nil, err
	}
	cleanup = append(cleanup, detectPath)

	reg := core.NewRegistry()
	res.Encoding, err = encoder.New(reg, log).EncodeFiles(rows, probPath, detectPath)
	if err != nil {
		return nil, err
	}
	res.Accessions = reg.Len()
	log.WithFields(logrus.Fields{
		"rows":                  res.Encoding.Rows,
		"probability_lines":     res.Encoding.ProbabilityLines,
		"detectability_lines":   res.Encoding.DetectabilityLines,
		"skipped_probability":   res.Encoding.SkippedProbability,
		"skipped_detectability": res.Encoding.SkippedDetectability,
		"accessions":            res.Accessions,
	}).Info("encoded engine input")

	rep, err := p.invoker.Invoke(probPath, detectPath)
	if rep != nil {
		cleanup = append(cleanup, rep.Artifacts...)
	}
	if err != nil {
		return nil, fmt.Errorf("protein inference failed: %w", err)
	}

	groups, err := p.parse(rep.Path, res, log)
	if err != nil {
		return nil, err
	}
	res.Groups = len(groups)

	res.Identifications, err = Assemble(reg, groups, log)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve protein groups: %w", err)
	}

	log.WithFields(logrus.Fields{
		"sets":           res.Sets,
		"malformed_sets": res.MalformedSets,
		"groups":         len(res.Identifications),
	}).Info("protein inference complete")
	return res, nil
}

// parse reads the report and reduces each set as soon as it is complete.
func (p *Pipeline) parse(path string, res *Result, log logrus.FieldLogger) ([]core.ProteinGroup, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open report: %w", err)
	}
	defer f.Close()

	r := report.NewReader(f, p.layout, log)
	var groups []core.ProteinGroup
	for r.Next() {
		res.Sets++
		groups = append(groups, group.Reduce(r.Set())...)
	}
	if err := r.Err(); err != nil {
		return nil, fmt.Errorf("error reading report: %w", err)
	}
	res.MalformedSets = r.Malformed()
	return groups, nil
}

func createTemp(dir, pattern string) (string, error) {
	f, err := os.CreateTemp(dir, pattern)
	if err != nil {
		return "", fmt.Errorf("%w: failed to create temporary file: %v", core.ErrIO, err)
	}
	if err := f.Close(); err != nil {
		os.Remove(f.Name())
		return "", fmt.Errorf("%w: failed to close temporary file: %v", core.ErrIO, err)
	}
	return f.Name(), nil
}

// removeAll deletes run artifacts. Failures are logged and otherwise ignored.
func removeAll(log logrus.FieldLogger, paths []string) {
	for _, path := range paths {
		err := os.Remove(path)
		if err != nil && !errors.Is(err, os.ErrNotExist) {
			log.WithError(err).WithField("path", path).Warn("failed to remove temporary file")
		}
	}
}
