package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ChrisMcGann/PInfer/pkg/core"
)

var validateCmd = &cobra.Command{
	Use:   "validate [input file]",
	Short: "Check a peptide table for rows the engine cannot use",
	Long: `Report how many rows of a peptide table would reach each engine input file
and list the rows that would be skipped, without running inference.`,
	Args: cobra.ExactArgs(1),
	RunE: runValidate,
}

func runValidate(cmd *cobra.Command, args []string) error {
	inputFile = args[0]
	rows, err := loadRows(inputFile, inputFormat, cfg.Columns)
	if err != nil {
		return err
	}

	var probOK, detectOK int
	for i := range rows {
		row := &rows[i]

		if err := row.CheckProbability(); err != nil {
			reportRowError("probability", err)
		} else {
			probOK++
		}
		if err := row.CheckDetectability(); err != nil {
			reportRowError("detectability", err)
		} else {
			detectOK++
		}
	}

	fmt.Printf("Validation of %s:\n", inputFile)
	fmt.Printf("  Rows: %d\n", len(rows))
	fmt.Printf("  Usable for probability file: %d\n", probOK)
	fmt.Printf("  Usable for detectability file: %d\n", detectOK)
	return nil
}

func reportRowError(target string, err error) {
	log := logger.WithField("file", target)
	var rowErr *core.RowError
	if errors.As(err, &rowErr) {
		log.WithField("line", rowErr.Line).Warnf("Skipped, missing %v", rowErr.Missing)
		return
	}
	log.Warn(err)
}
