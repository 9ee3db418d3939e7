/*
Package engine runs the external Bayesian protein inference engine.

The core pipeline only needs an Invoker: a function from the probability file
and the detectability file to a report file. MSBayesPro runs the real binary;
Fixed hands back canned report text so the rest of the pipeline can run
without it.
*/
package engine

import (
	"fmt"
	"os"

	"github.com/ChrisMcGann/PInfer/pkg/core"
)

// Report is the outcome of an engine run.
type Report struct {
	// Path is the file holding the set-structured report.
	Path string

	// Artifacts lists every file the run may have produced, Path included.
	// The caller removes them once the report has been read.
	Artifacts []string
}

// Invoker runs protein inference on a pair of encoded input files.
//
// A failed run should still return a Report listing the artifacts that may
// need cleaning up, together with the error.
type Invoker interface {
	Invoke(probabilityFile, detectabilityFile string) (*Report, error)
}

// Fixed is an Invoker that writes Text as the report, next to the
// probability file.
type Fixed struct {
	Text string
}

// FixedSuffix is appended to the probability file path to name the report
// written by Fixed.
const FixedSuffix = ".fixed-report"

// Invoke implements Invoker.
func (f Fixed) Invoke(probabilityFile, detectabilityFile string) (*Report, error) {
	path := probabilityFile + FixedSuffix
	report := &Report{Path: path, Artifacts: []string{path}}

	if err := os.WriteFile(path, []byte(f.Text), 0o644); err != nil {
		return report, fmt.Errorf("%w: failed to write report: %v", core.ErrIO, err)
	}
	return report, nil
}

// FromFile returns a Fixed invoker replaying the report saved at path.
func FromFile(path string) (Fixed, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Fixed{}, fmt.Errorf("failed to read report: %w", err)
	}
	return Fixed{Text: string(data)}, nil
}
