package core

import "regexp"

// modAnnotation matches an inline modification such as "(ox)" in PEPT(ox)IDE.
var modAnnotation = regexp.MustCompile(`\([^)]*\)`)

// StripModifications removes every parenthesized annotation from a peptide.
func StripModifications(seq string) string {
	return modAnnotation.ReplaceAllString(seq, "")
}

// CountPeptides returns the number of peptide forms as given and the number of
// distinct sequences once modification annotations are stripped.
func CountPeptides(peptides []string) (modified, distinct int) {
	forms := make(map[string]struct{}, len(peptides))
	bare := make(map[string]struct{}, len(peptides))
	for _, seq := range peptides {
		forms[seq] = struct{}{}
		bare[StripModifications(seq)] = struct{}{}
	}
	return len(forms), len(bare)
}
