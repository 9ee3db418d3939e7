package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ChrisMcGann/PInfer/pkg/core"
	"github.com/ChrisMcGann/PInfer/pkg/reader/report"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(New(), "")
	require.NoError(t, err)

	assert.Equal(t, "MSBayesPro.linux64", cfg.Engine.Command)
	assert.Equal(t, ".quantify.bayes53", cfg.Engine.ReportSuffix)
	assert.Equal(t, []string{".quantify.bayes53", ".quantify.bayes53ss", ".quantify.peppost"}, cfg.Engine.ArtifactSuffixes)
	assert.Equal(t, core.DefaultColumns(), cfg.Columns)
	assert.Equal(t, report.DefaultLayout(), cfg.Report)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "text", cfg.Log.Format)
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pinfer.yaml")
	content := `
engine:
  command: /opt/msbayes/MSBayesPro.linux64
  dir: /opt/msbayes
columns:
  peptide: Sequence
report:
  posterior_field: 4
log:
  level: debug
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := Load(New(), path)
	require.NoError(t, err)

	assert.Equal(t, "/opt/msbayes/MSBayesPro.linux64", cfg.Engine.Command)
	assert.Equal(t, "/opt/msbayes", cfg.Engine.Dir)
	assert.Equal(t, "Sequence", cfg.Columns.Peptide)
	assert.Equal(t, "Protein", cfg.Columns.Protein)
	assert.Equal(t, 4, cfg.Report.PosteriorField)
	assert.Equal(t, 1, cfg.Report.MAPField)
	assert.Equal(t, "debug", cfg.Log.Level)

	inv := cfg.MSBayesPro()
	assert.Equal(t, "/opt/msbayes/MSBayesPro.linux64", inv.Command)
	assert.Equal(t, "/opt/msbayes", inv.Dir)
}

func TestLoadEnv(t *testing.T) {
	t.Setenv("PINFER_ENGINE_COMMAND", "/usr/local/bin/msbayes")
	t.Setenv("PINFER_COLUMNS_PROTEIN", "Accession")

	cfg, err := Load(New(), "")
	require.NoError(t, err)
	assert.Equal(t, "/usr/local/bin/msbayes", cfg.Engine.Command)
	assert.Equal(t, "Accession", cfg.Columns.Protein)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(New(), filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		cfg, err := Load(New(), "")
		require.NoError(t, err)
		return cfg
	}

	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"empty command", func(c *Config) { c.Engine.Command = "" }},
		{"empty report suffix", func(c *Config) { c.Engine.ReportSuffix = "" }},
		{"empty column", func(c *Config) { c.Columns.Detectability = "" }},
		{"same peptide and protein column", func(c *Config) { c.Columns.Protein = c.Columns.Peptide }},
		{"colliding fields", func(c *Config) { c.Report.PosteriorField = c.Report.MAPField }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}
