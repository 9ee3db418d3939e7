package cmd

import (
	"bufio"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ChrisMcGann/PInfer/pkg/core"
	"github.com/ChrisMcGann/PInfer/pkg/encoder"
)

var encodeCmd = &cobra.Command{
	Use:   "encode",
	Short: "Write the engine input files without running inference",
	Long: `Encode a peptide table into the probability and detectability files read
by MSBayesPro. Accessions are replaced by internal integer identifiers starting
at 100; --registry writes the mapping so a report produced later can be read
back.

Examples:
  pinfer encode --in peptides.tsv --probability prob.txt --detectability detect.txt
  pinfer encode --in peptides.tsv --probability prob.txt --detectability detect.txt --registry ids.tsv`,
	RunE: runEncode,
}

func runEncode(cmd *cobra.Command, args []string) error {
	rows, err := loadRows(inputFile, inputFormat, cfg.Columns)
	if err != nil {
		return err
	}

	reg := core.NewRegistry()
	stats, err := encoder.New(reg, logger).EncodeFiles(rows, probabilityFile, detectabilityFile)
	if err != nil {
		return err
	}

	if registryFile != "" {
		if err := writeRegistry(reg, registryFile); err != nil {
			return err
		}
	}

	fmt.Printf("Encoding complete:\n")
	fmt.Printf("  Input rows: %d\n", stats.Rows)
	fmt.Printf("  Accessions: %d\n", reg.Len())
	fmt.Printf("  Probability lines: %d (%d rows skipped)\n", stats.ProbabilityLines, stats.SkippedProbability)
	fmt.Printf("  Detectability lines: %d (%d rows skipped)\n", stats.DetectabilityLines, stats.SkippedDetectability)
	return nil
}

// writeRegistry writes one "id<TAB>accession" line per registered accession.
func writeRegistry(reg *core.Registry, path string) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create registry file: %w", err)
	}
	defer file.Close()

	w := bufio.NewWriter(file)
	fmt.Fprintln(w, "id\taccession")
	reg.Each(func(id core.InternalID, accession string) {
		fmt.Fprintf(w, "%s\t%s\n", id, accession)
	})
	if err := w.Flush(); err != nil {
		return fmt.Errorf("failed to write registry file: %w", err)
	}
	return file.Close()
}
