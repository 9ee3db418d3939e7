package cmd

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ChrisMcGann/PInfer/pkg/core"
	"github.com/ChrisMcGann/PInfer/pkg/group"
	"github.com/ChrisMcGann/PInfer/pkg/pipeline"
	"github.com/ChrisMcGann/PInfer/pkg/reader/report"
	"github.com/ChrisMcGann/PInfer/pkg/writer/tsv"
)

var summarizeCmd = &cobra.Command{
	Use:   "summarize [report file]",
	Short: "Summarize a saved engine report",
	Long: `Parse a saved MSBayesPro report and print its sets and protein groups.

Groups are keyed by internal identifiers unless --registry names the mapping
written by 'pinfer encode', in which case accessions are printed instead.`,
	Args: cobra.ExactArgs(1),
	RunE: runSummarize,
}

func init() {
	summarizeCmd.Flags().StringVar(&registryFile, "registry", "", "Identifier mapping written by 'pinfer encode --registry'")
}

func runSummarize(cmd *cobra.Command, args []string) error {
	file, err := os.Open(args[0])
	if err != nil {
		return fmt.Errorf("failed to open report: %w", err)
	}
	defer file.Close()

	reader := report.NewReader(file, cfg.Report, logger)
	var (
		sets     []*core.Set
		proteins int
		kept     int
	)
	for reader.Next() {
		set := reader.Set()
		sets = append(sets, set)
		proteins += set.ProteinCount
		kept += len(set.Proteins)
	}
	if err := reader.Err(); err != nil {
		return fmt.Errorf("failed to read report: %w", err)
	}

	groups := group.ReduceAll(sets)

	fmt.Printf("Report %s:\n", args[0])
	fmt.Printf("  Sets: %d (%d malformed headers, %d without MAP proteins)\n",
		len(sets), reader.Malformed(), reader.Discarded())
	fmt.Printf("  Proteins: %d (%d MAP)\n", proteins, kept)
	fmt.Printf("  Protein groups: %d\n", len(groups))
	fmt.Println()

	fmt.Println("Line\tSet probability\tProteins\tMAP")
	for _, set := range sets {
		fmt.Printf("%d\t%s\t%d\t%d\n", set.Line,
			strconv.FormatFloat(set.Probability, 'g', -1, 64), set.ProteinCount, len(set.Proteins))
	}
	fmt.Println()

	if registryFile == "" {
		return writeGroups(os.Stdout, groups)
	}

	reg, err := loadRegistry(registryFile)
	if err != nil {
		return err
	}
	ids, err := pipeline.Assemble(reg, groups, logger)
	if err != nil {
		return err
	}
	return tsv.Write(os.Stdout, ids)
}

// writeGroups prints groups keyed by internal IDs, with the columns of the
// result table.
func writeGroups(w io.Writer, groups []core.ProteinGroup) error {
	bw := bufio.NewWriter(w)
	fmt.Fprintln(bw, "Internal IDs\tProbability\tnrPeptidesMod\tnrPeptides")
	for _, g := range groups {
		fmt.Fprintf(bw, "%s\t%s\t%d\t%d\n", g.Key(),
			strconv.FormatFloat(g.Probability, 'g', -1, 64), g.ModifiedPeptides, g.DistinctPeptides)
	}
	return bw.Flush()
}

// loadRegistry rebuilds a registry from an "id<TAB>accession" file. IDs must
// be contiguous from core.BaseID, as 'pinfer encode' writes them.
func loadRegistry(path string) (*core.Registry, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open registry file: %w", err)
	}
	defer file.Close()

	reg := core.NewRegistry()
	scanner := bufio.NewScanner(file)
	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := strings.TrimSuffix(scanner.Text(), "\r")
		if line == "" || (lineNum == 1 && strings.HasPrefix(line, "id\t")) {
			continue
		}

		idField, accession, ok := strings.Cut(line, "\t")
		if !ok {
			return nil, fmt.Errorf("%s line %d: expected id and accession", path, lineNum)
		}
		id, err := strconv.Atoi(idField)
		if err != nil {
			return nil, fmt.Errorf("%s line %d: invalid id %q: %w", path, lineNum, idField, err)
		}
		if got := reg.Register(accession); int(got) != id {
			return nil, fmt.Errorf("%s line %d: id %d out of order, expected %d", path, lineNum, id, got)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read registry file: %w", err)
	}
	return reg, nil
}
