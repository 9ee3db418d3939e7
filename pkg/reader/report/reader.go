// Package report provides a streaming reader for the set-structured result
// report written by the inference engine.
//
// The report is a sequence of blocks:
//
//	Set 1	Number of proteins: 2	Set probability: 0.95;	...
//	100	1	0.91	...        <- protein header: ID, MAP state, posterior
//	PEPTIDEA	...            <- peptide evidence
//	PEPTIDEB	...
//	                         <- blank line closes the protein
//	101	0	0.12	...
//	PEPTIDEA	...
//	                         <- blank line closes the protein
//	                         <- second blank line closes the set
//
// Only proteins whose MAP state is "1" are kept. A set header whose
// probability cannot be read is skipped together with everything up to the
// next set header.
package report

import (
	"bufio"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/ChrisMcGann/PInfer/pkg/core"
	"github.com/ChrisMcGann/PInfer/pkg/logging"
)

var (
	setHeader      = regexp.MustCompile(`^Set\b`)
	setProbability = regexp.MustCompile(`(?i)set probability:\s*([^;\s]+)`)
)

// Layout gives the whitespace-separated field positions of a protein header.
type Layout struct {
	IDField        int `mapstructure:"id_field"`
	MAPField       int `mapstructure:"map_field"`
	PosteriorField int `mapstructure:"posterior_field"`
}

// DefaultLayout returns the field positions of the engine's tab output.
func DefaultLayout() Layout {
	return Layout{IDField: 0, MAPField: 1, PosteriorField: 2}
}

// Validate checks that the positions are usable.
func (l Layout) Validate() error {
	if l.IDField < 0 || l.MAPField < 0 || l.PosteriorField < 0 {
		return fmt.Errorf("protein header field positions must be non-negative")
	}
	if l.IDField == l.MAPField || l.IDField == l.PosteriorField || l.MAPField == l.PosteriorField {
		return fmt.Errorf("protein header field positions must be distinct")
	}
	return nil
}

type state int

const (
	stateNoSet         state = iota // outside any set
	stateInSet                      // set open, no protein open
	stateInProtein                  // reading peptide lines of a protein
	stateProteinClosed              // a blank line just closed a protein
)

// Reader provides streaming access to the sets of a report
type Reader struct {
	scanner *bufio.Scanner
	layout  Layout
	log     logrus.FieldLogger
	lineNum int

	state   state
	open    *core.Set
	protein *core.ProteinRecord // nil while inside a protein that is not kept

	currentSet *core.Set
	malformed  int
	discarded  int
	err        error
}

// NewReader creates a new report reader
func NewReader(r io.Reader, layout Layout, log logrus.FieldLogger) *Reader {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 16*1024*1024)

	return &Reader{
		scanner: scanner,
		layout:  layout,
		log:     logging.OrDiscard(log),
	}
}

// Next advances to the next completed set. Returns false when no more sets or error.
func (r *Reader) Next() bool {
	r.currentSet = nil
	if r.err != nil {
		return false
	}

	for r.scanner.Scan() {
		r.lineNum++
		if set := r.handle(r.scanner.Text()); set != nil {
			r.currentSet = set
			return true
		}
	}

	if err := r.scanner.Err(); err != nil {
		r.err = fmt.Errorf("line %d: %w", r.lineNum, err)
		return false
	}

	// End of input closes whatever set is still open.
	if set := r.closeSet(); set != nil {
		r.currentSet = set
		return true
	}
	return false
}

// Set returns the current set
func (r *Reader) Set() *core.Set {
	return r.currentSet
}

// Err returns any error encountered during reading
func (r *Reader) Err() error {
	return r.err
}

// Malformed returns the number of set headers skipped so far.
func (r *Reader) Malformed() int {
	return r.malformed
}

// Discarded returns the number of sets dropped because no protein was kept.
func (r *Reader) Discarded() int {
	return r.discarded
}

// handle feeds one line through the state machine and returns a set if the
// line completed one.
func (r *Reader) handle(line string) *core.Set {
	trimmed := strings.TrimSpace(line)

	if setHeader.MatchString(trimmed) {
		done := r.closeSet()
		r.openSet(trimmed)
		return done
	}

	switch r.state {
	case stateNoSet:
		return nil

	case stateInSet:
		if trimmed != "" {
			r.proteinLine(trimmed)
		}
		return nil

	case stateInProtein:
		if trimmed == "" {
			r.protein = nil
			r.state = stateProteinClosed
			return nil
		}
		if fields := strings.Fields(trimmed); r.isProteinHeader(fields) {
			r.proteinHeader(fields)
		} else if r.protein != nil {
			r.protein.AddPeptide(fields[0])
		}
		return nil

	case stateProteinClosed:
		if trimmed == "" {
			return r.closeSet()
		}
		r.state = stateInSet
		r.proteinLine(trimmed)
		return nil
	}

	return nil
}

// openSet starts a new set from its header line.
func (r *Reader) openSet(header string) {
	prob, err := parseSetProbability(header)
	if err != nil {
		herr := &core.SetHeaderError{Line: r.lineNum, Header: header, Err: err}
		r.log.WithError(herr).Warn("skipping report set")
		r.malformed++
		r.state = stateNoSet
		return
	}

	r.open = &core.Set{Line: r.lineNum, Probability: prob}
	r.state = stateInSet
}

// closeSet ends the open set. Sets without kept proteins are dropped.
func (r *Reader) closeSet() *core.Set {
	set := r.open
	r.open = nil
	r.protein = nil
	r.state = stateNoSet

	if set == nil {
		return nil
	}
	if len(set.Proteins) == 0 {
		r.log.WithFields(logrus.Fields{
			"line":     set.Line,
			"proteins": set.ProteinCount,
		}).Debug("dropping set without MAP proteins")
		r.discarded++
		return nil
	}
	return set
}

// proteinLine handles a non-blank line seen between proteins.
func (r *Reader) proteinLine(line string) {
	fields := strings.Fields(line)
	if !r.isProteinHeader(fields) {
		r.log.WithField("line", r.lineNum).Debug("ignoring line outside protein block")
		return
	}
	r.proteinHeader(fields)
}

func (r *Reader) isProteinHeader(fields []string) bool {
	if r.layout.IDField >= len(fields) {
		return false
	}
	_, err := strconv.Atoi(fields[r.layout.IDField])
	return err == nil
}

// proteinHeader opens a protein block. Only MAP proteins are kept, but every
// header counts toward the set's tally.
func (r *Reader) proteinHeader(fields []string) {
	r.open.ProteinCount++
	r.state = stateInProtein
	r.protein = nil

	if field(fields, r.layout.MAPField) != "1" {
		return
	}

	id, _ := strconv.Atoi(fields[r.layout.IDField])
	posterior, err := strconv.ParseFloat(field(fields, r.layout.PosteriorField), 64)
	if err != nil {
		r.log.WithFields(logrus.Fields{
			"line":    r.lineNum,
			"protein": id,
		}).WithError(err).Warn("ignoring protein with unreadable posterior probability")
		return
	}

	r.protein = core.NewProteinRecord(core.InternalID(id), true, posterior)
	r.open.Proteins = append(r.open.Proteins, r.protein)
}

func field(fields []string, i int) string {
	if i < len(fields) {
		return fields[i]
	}
	return ""
}

// parseSetProbability extracts the value of "Set probability: <float>;".
func parseSetProbability(header string) (float64, error) {
	m := setProbability.FindStringSubmatch(header)
	if m == nil {
		return 0, fmt.Errorf("no set probability")
	}
	prob, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return 0, fmt.Errorf("invalid set probability: %w", err)
	}
	return prob, nil
}

// ReadAll reads every set from r.
func ReadAll(r io.Reader, layout Layout, log logrus.FieldLogger) ([]*core.Set, error) {
	reader := NewReader(r, layout, log)
	var sets []*core.Set
	for reader.Next() {
		sets = append(sets, reader.Set())
	}
	if err := reader.Err(); err != nil {
		return nil, err
	}
	return sets, nil
}
