// Package cmd provides CLI command implementations
package cmd

import (
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/ChrisMcGann/PInfer/pkg/config"
	"github.com/ChrisMcGann/PInfer/pkg/logging"
)

var (
	// Global flags
	configFile string

	// Input flags shared by infer, encode and validate
	inputFile   string
	inputFormat string
	tableName   string

	// Flags for infer command
	outputFile string
	reportFile string

	// Flags for encode command
	probabilityFile   string
	detectabilityFile string
	registryFile      string
)

var (
	settings = config.New()
	cfg      *config.Config
	logger   *logrus.Logger
)

var rootCmd = &cobra.Command{
	Use:   "pinfer",
	Short: "PInfer - Bayesian protein inference with MSBayesPro",
	Long: `PInfer turns peptide identifications into protein group identifications
using the MSBayesPro Bayesian inference engine.

It takes a table of peptides, protein accessions, identification probabilities
and detectabilities and:
- Encodes the engine's probability and detectability input files
- Runs the engine and parses its set-structured report
- Groups proteins with identical peptide evidence
- Reports each group's probability and peptide counts`,
	Version:           "1.0.0",
	SilenceUsage:      true,
	PersistentPreRunE: setup,
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.AddCommand(inferCmd)
	rootCmd.AddCommand(encodeCmd)
	rootCmd.AddCommand(validateCmd)
	rootCmd.AddCommand(summarizeCmd)

	// Global flags
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&configFile, "config", "", "Configuration file (YAML, TOML or JSON)")
	flags.String("log-level", "info", "Logging level (debug, info, warn, error)")
	flags.String("log-format", "text", "Log format (text, json)")
	flags.String("peptide-column", "", "Peptide column name (default \"Peptides\")")
	flags.String("protein-column", "", "Protein accession column name (default \"Protein\")")
	flags.String("probability-column", "", "Probability column name (default \"Probabilities\")")
	flags.String("detectability-column", "", "Detectability column name (default \"Detectability\")")

	settings.BindPFlag("log.level", flags.Lookup("log-level"))
	settings.BindPFlag("log.format", flags.Lookup("log-format"))
	settings.BindPFlag("columns.peptide", flags.Lookup("peptide-column"))
	settings.BindPFlag("columns.protein", flags.Lookup("protein-column"))
	settings.BindPFlag("columns.probability", flags.Lookup("probability-column"))
	settings.BindPFlag("columns.detectability", flags.Lookup("detectability-column"))

	// Infer command flags
	addInputFlags(inferCmd)
	inferCmd.Flags().StringVarP(&outputFile, "out", "o", "", "Output file: .db/.sqlite for SQLite, anything else for TSV, '-' for stdout (required)")
	inferCmd.Flags().StringVar(&reportFile, "report", "", "Use a saved engine report instead of running the engine")
	inferCmd.Flags().String("engine", "", "Path to the MSBayesPro executable")
	inferCmd.Flags().String("engine-dir", "", "Working directory for the engine")
	inferCmd.Flags().String("temp-dir", "", "Directory for temporary files")
	settings.BindPFlag("engine.command", inferCmd.Flags().Lookup("engine"))
	settings.BindPFlag("engine.dir", inferCmd.Flags().Lookup("engine-dir"))
	settings.BindPFlag("temp_dir", inferCmd.Flags().Lookup("temp-dir"))
	inferCmd.MarkFlagRequired("in")
	inferCmd.MarkFlagRequired("out")

	// Encode command flags
	addInputFlags(encodeCmd)
	encodeCmd.Flags().StringVar(&probabilityFile, "probability", "", "Probability file to write (required)")
	encodeCmd.Flags().StringVar(&detectabilityFile, "detectability", "", "Detectability file to write (required)")
	encodeCmd.Flags().StringVar(&registryFile, "registry", "", "Also write the internal ID to accession mapping here")
	encodeCmd.MarkFlagRequired("in")
	encodeCmd.MarkFlagRequired("probability")
	encodeCmd.MarkFlagRequired("detectability")

	// Validate command flags
	validateCmd.Flags().StringVarP(&inputFormat, "from", "f", "", "Input format: tsv, csv, sqlite (auto-detect if not specified)")
	validateCmd.Flags().StringVar(&tableName, "table", "psms", "Table to read for sqlite input")
}

func addInputFlags(c *cobra.Command) {
	c.Flags().StringVarP(&inputFile, "in", "i", "", "Input peptide table (required)")
	c.Flags().StringVarP(&inputFormat, "from", "f", "", "Input format: tsv, csv, sqlite (auto-detect if not specified)")
	c.Flags().StringVar(&tableName, "table", "psms", "Table to read for sqlite input")
}

// setup loads the configuration and builds the logger before any command runs.
func setup(cmd *cobra.Command, args []string) error {
	var err error
	cfg, err = config.Load(settings, configFile)
	if err != nil {
		return err
	}

	logger, err = logging.New(logging.Options{
		Level:  cfg.Log.Level,
		Format: logging.Format(cfg.Log.Format),
	})
	return err
}
