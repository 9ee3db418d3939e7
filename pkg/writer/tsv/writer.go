// Package tsv writes protein inference results as tab-separated text
package tsv

import (
	"bufio"
	"fmt"
	"io"
	"strconv"

	"github.com/ChrisMcGann/PInfer/pkg/pipeline"
)

// Header is the column header line of the result table.
const Header = "Protein ID\tMSBayes Probability\tnrPeptidesMod\tnrPeptides"

// Write writes the header followed by one line per identification.
func Write(w io.Writer, ids []pipeline.Identification) error {
	bw := bufio.NewWriter(w)

	if _, err := fmt.Fprintln(bw, Header); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}
	for _, id := range ids {
		_, err := fmt.Fprintf(bw, "%s\t%s\t%d\t%d\n",
			id.Accessions,
			strconv.FormatFloat(id.Probability, 'g', -1, 64),
			id.ModifiedPeptides,
			id.DistinctPeptides)
		if err != nil {
			return fmt.Errorf("failed to write protein group %s: %w", id.Accessions, err)
		}
	}

	if err := bw.Flush(); err != nil {
		return fmt.Errorf("failed to flush output: %w", err)
	}
	return nil
}
