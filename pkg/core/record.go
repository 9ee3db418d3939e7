// Package core provides the data model shared by the encoding, parsing and
// grouping stages of a protein inference run.
package core

import (
	"sort"
	"strconv"
	"strings"
)

// Row is a single source row as delivered by the host table.
type Row struct {
	// Line is the 1-based position of the row in its source (0 = unknown).
	Line int

	Peptide       string   // Peptide sequence, possibly with modification annotations
	Proteins      string   // ';'-delimited accession list
	Probability   *float64 // Identification probability
	Detectability *float64 // Detectability of the peptide for its proteins
}

// Columns names the source columns holding each Row field.
type Columns struct {
	Peptide       string `mapstructure:"peptide"`
	Protein       string `mapstructure:"protein"`
	Probability   string `mapstructure:"probability"`
	Detectability string `mapstructure:"detectability"`
}

// DefaultColumns returns the column names used when none are configured.
func DefaultColumns() Columns {
	return Columns{
		Peptide:       "Peptides",
		Protein:       "Protein",
		Probability:   "Probabilities",
		Detectability: "Detectability",
	}
}

// Accessions splits the protein field into its accessions. Tokens are kept
// as written; only empty ones are dropped.
func (r *Row) Accessions() []string {
	var accs []string
	for _, acc := range strings.Split(r.Proteins, ";") {
		if acc != "" {
			accs = append(accs, acc)
		}
	}
	return accs
}

// CheckProbability reports whether the row can contribute to the
// probability file.
func (r *Row) CheckProbability() error {
	var missing []string
	if r.Peptide == "" {
		missing = append(missing, "peptide")
	}
	if r.Probability == nil {
		missing = append(missing, "probability")
	}
	if len(missing) > 0 {
		return &RowError{Line: r.Line, Missing: missing}
	}
	return nil
}

// CheckDetectability reports whether the row can contribute to the
// detectability file.
func (r *Row) CheckDetectability() error {
	var missing []string
	if r.Peptide == "" {
		missing = append(missing, "peptide")
	}
	if len(r.Accessions()) == 0 {
		missing = append(missing, "protein")
	}
	if r.Probability == nil {
		missing = append(missing, "probability")
	}
	if r.Detectability == nil {
		missing = append(missing, "detectability")
	}
	if len(missing) > 0 {
		return &RowError{Line: r.Line, Missing: missing}
	}
	return nil
}

// Set is one cluster of mutually ambiguous proteins from the engine report.
type Set struct {
	Line         int     // Line of the set header in the report
	Probability  float64 // Set probability
	ProteinCount int     // Every protein header seen, retained or not
	Proteins     []*ProteinRecord
}

// ProteinRecord is a protein reported inside a set.
type ProteinRecord struct {
	ID        InternalID
	MAP       bool
	Posterior float64
	peptides  map[string]struct{}
}

// NewProteinRecord creates a protein with no peptide evidence.
func NewProteinRecord(id InternalID, mapState bool, posterior float64) *ProteinRecord {
	return &ProteinRecord{
		ID:        id,
		MAP:       mapState,
		Posterior: posterior,
		peptides:  make(map[string]struct{}),
	}
}

// AddPeptide records a peptide observed for the protein.
func (p *ProteinRecord) AddPeptide(seq string) {
	if p.peptides == nil {
		p.peptides = make(map[string]struct{})
	}
	p.peptides[seq] = struct{}{}
}

// Peptides returns the protein's peptides in sorted order.
func (p *ProteinRecord) Peptides() []string {
	seqs := make([]string, 0, len(p.peptides))
	for seq := range p.peptides {
		seqs = append(seqs, seq)
	}
	sort.Strings(seqs)
	return seqs
}

// NumPeptides returns the number of distinct peptide strings recorded.
func (p *ProteinRecord) NumPeptides() int {
	return len(p.peptides)
}

// SamePeptides reports whether both proteins carry exactly the same peptides.
func (p *ProteinRecord) SamePeptides(o *ProteinRecord) bool {
	if len(p.peptides) != len(o.peptides) {
		return false
	}
	for seq := range p.peptides {
		if _, ok := o.peptides[seq]; !ok {
			return false
		}
	}
	return true
}

// PeptideKey returns a string that is equal for two proteins iff their
// peptide sets are equal.
func (p *ProteinRecord) PeptideKey() string {
	return strings.Join(p.Peptides(), "\x00")
}

// ProteinGroup is the reportable unit produced by grouping a set.
type ProteinGroup struct {
	IDs              []InternalID // Ascending
	Probability      float64
	ModifiedPeptides int
	DistinctPeptides int
}

// Key returns the ';'-joined internal IDs of the group.
func (g *ProteinGroup) Key() string {
	parts := make([]string, len(g.IDs))
	for i, id := range g.IDs {
		parts[i] = strconv.Itoa(int(id))
	}
	return strings.Join(parts, ";")
}
