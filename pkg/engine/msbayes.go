package engine

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/ChrisMcGann/PInfer/pkg/core"
	"github.com/ChrisMcGann/PInfer/pkg/logging"
)

// MSBayesPro runs the MSBayesPro command-line tool.
type MSBayesPro struct {
	// Command is the executable name or path.
	Command string

	// Dir is the working directory of the run ("" = current directory).
	Dir string

	// ReportSuffix is appended to the probability file path to locate the
	// set-structured report.
	ReportSuffix string

	// ArtifactSuffixes are appended to the probability file path to name
	// every file the tool leaves behind.
	ArtifactSuffixes []string

	Logger logrus.FieldLogger
}

// DefaultMSBayesPro is the configuration of a stock MSBayesPro install.
var DefaultMSBayesPro = MSBayesPro{
	Command:      "MSBayesPro.linux64",
	ReportSuffix: ".quantify.bayes53",
	ArtifactSuffixes: []string{
		".quantify.bayes53",
		".quantify.bayes53ss",
		".quantify.peppost",
	},
}

// Args returns the command-line arguments for a run.
func (m MSBayesPro) Args(probabilityFile, detectabilityFile string) []string {
	return []string{
		"-pospep", probabilityFile,
		"-detectability", detectabilityFile,
		"-s", // tab formatted output
	}
}

// Invoke runs the tool and waits for it to exit. Standard output and
// standard error are read to the end whatever the exit status.
//
// Relative input paths are resolved against the current directory before
// the tool starts, since it runs in Dir.
func (m MSBayesPro) Invoke(probabilityFile, detectabilityFile string) (*Report, error) {
	log := logging.OrDiscard(m.Logger)

	probabilityFile, err := filepath.Abs(probabilityFile)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to resolve probability file: %v", core.ErrIO, err)
	}
	detectabilityFile, err = filepath.Abs(detectabilityFile)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to resolve detectability file: %v", core.ErrIO, err)
	}
	report := m.report(probabilityFile)

	var stdout, stderr bytes.Buffer
	c := exec.Command(m.Command, m.Args(probabilityFile, detectabilityFile)...)
	c.Dir = m.Dir
	c.Stdout = &stdout
	c.Stderr = &stderr

	log.WithField("command", c.String()).Debug("running inference engine")
	err = c.Run()

	if out := strings.TrimSpace(stdout.String()); out != "" {
		log.WithField("stdout", out).Debug("inference engine output")
	}
	if err != nil {
		serr := &core.SubprocessError{Command: m.Command, Stderr: stderr.String(), Err: err}
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			serr.ExitCode = exitErr.ExitCode()
		}
		return report, serr
	}
	if msg := strings.TrimSpace(stderr.String()); msg != "" {
		log.WithField("stderr", msg).Warn("inference engine wrote to stderr")
	}

	if _, err := os.Stat(report.Path); err != nil {
		return report, &core.SubprocessError{
			Command: m.Command,
			Stderr:  stderr.String(),
			Err:     fmt.Errorf("no report produced: %w", err),
		}
	}
	return report, nil
}

// report lists the files a run on probabilityFile produces.
func (m MSBayesPro) report(probabilityFile string) *Report {
	report := &Report{Path: probabilityFile + m.ReportSuffix}

	seen := make(map[string]bool)
	for _, suffix := range append([]string{m.ReportSuffix}, m.ArtifactSuffixes...) {
		path := probabilityFile + suffix
		if !seen[path] {
			seen[path] = true
			report.Artifacts = append(report.Artifacts, path)
		}
	}
	return report
}
