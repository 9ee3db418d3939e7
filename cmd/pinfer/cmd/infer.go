package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ChrisMcGann/PInfer/pkg/engine"
	"github.com/ChrisMcGann/PInfer/pkg/pipeline"
	"github.com/ChrisMcGann/PInfer/pkg/writer/sqlite"
	"github.com/ChrisMcGann/PInfer/pkg/writer/tsv"
)

var inferCmd = &cobra.Command{
	Use:   "infer",
	Short: "Infer protein groups from a peptide table",
	Long: `Run Bayesian protein inference over a table of peptide identifications.

The input needs a peptide column, a protein accession column (multiple
accessions separated by ';'), an identification probability column and a
detectability column. Rows lacking a value are skipped for the file that
needs it.

Examples:
  pinfer infer --in peptides.tsv --out groups.tsv
  pinfer infer --in peptides.csv --out groups.db --engine /opt/msbayes/MSBayesPro.linux64
  pinfer infer --in search.db --from sqlite --table psms --out groups.tsv
  pinfer infer --in peptides.tsv --report saved.quantify.bayes53 --out -`,
	RunE: runInfer,
}

func runInfer(cmd *cobra.Command, args []string) error {
	rows, err := loadRows(inputFile, inputFormat, cfg.Columns)
	if err != nil {
		return err
	}

	var (
		inv        engine.Invoker
		engineName string
	)
	if reportFile != "" {
		fixed, err := engine.FromFile(reportFile)
		if err != nil {
			return err
		}
		inv = fixed
		engineName = "report:" + filepath.Base(reportFile)
	} else {
		m := cfg.MSBayesPro()
		m.Logger = logger
		inv = m
		engineName = filepath.Base(m.Command)
	}

	p := pipeline.New(inv,
		pipeline.WithLogger(logger),
		pipeline.WithTempDir(cfg.TempDir),
		pipeline.WithLayout(cfg.Report),
	)
	res, err := p.Run(rows)
	if err != nil {
		return err
	}

	if err := writeResult(res, engineName, len(rows)); err != nil {
		return err
	}

	if outputFile != "-" {
		fmt.Printf("Inference complete:\n")
		fmt.Printf("  Run: %s\n", res.RunID)
		fmt.Printf("  Input rows: %d\n", len(rows))
		fmt.Printf("  Accessions: %d\n", res.Accessions)
		fmt.Printf("  Sets: %d (%d malformed headers)\n", res.Sets, res.MalformedSets)
		fmt.Printf("  Protein groups: %d\n", len(res.Identifications))
		fmt.Printf("  Output: %s\n", outputFile)
	}
	return nil
}

func writeResult(res *pipeline.Result, engineName string, inputRows int) error {
	if outputFile == "-" {
		return tsv.Write(os.Stdout, res.Identifications)
	}

	switch strings.ToLower(filepath.Ext(outputFile)) {
	case ".db", ".sqlite", ".sqlite3":
		return writeSQLite(res, engineName, inputRows)
	default:
		file, err := os.Create(outputFile)
		if err != nil {
			return fmt.Errorf("failed to create output file: %w", err)
		}
		if err := tsv.Write(file, res.Identifications); err != nil {
			file.Close()
			return err
		}
		return file.Close()
	}
}

func writeSQLite(res *pipeline.Result, engineName string, inputRows int) error {
	writer, err := sqlite.NewWriter(outputFile)
	if err != nil {
		return fmt.Errorf("failed to create output database: %w", err)
	}
	defer writer.Close()

	for _, id := range res.Identifications {
		if err := writer.WriteIdentification(id); err != nil {
			return err
		}
	}

	return writer.Finalize(sqlite.RunInfo{
		RunID:     res.RunID,
		Engine:    engineName,
		InputRows: inputRows,
		Groups:    len(res.Identifications),
	})
}
