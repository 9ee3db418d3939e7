package pipeline

import (
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ChrisMcGann/PInfer/pkg/core"
	"github.com/ChrisMcGann/PInfer/pkg/engine"
)

func float(v float64) *float64 { return &v }

func exampleRows() []core.Row {
	return []core.Row{
		{Peptide: "PEPTIDEA", Proteins: "P1", Probability: float(0.9), Detectability: float(0.8)},
		{Peptide: "PEPTIDEB", Proteins: "P1", Probability: float(0.9), Detectability: float(0.8)},
		{Peptide: "PEPTIDEA", Proteins: "P2", Probability: float(0.9), Detectability: float(0.8)},
	}
}

// P1 = 100, P2 = 101.
const splitReport = `Set 1	Number of proteins: 2	Set probability: 0.95;
100	1	0.91
PEPTIDEA	0.9
PEPTIDEB	0.9

101	1	0.52
PEPTIDEA	0.9


`

func assertEmptyDir(t *testing.T, dir string) {
	t.Helper()
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	var names []string
	for _, e := range entries {
		names = append(names, e.Name())
	}
	assert.Empty(t, names, "temporary files left behind")
}

func TestRunSplitsDifferentEvidence(t *testing.T) {
	dir := t.TempDir()
	p := New(engine.Fixed{Text: splitReport}, WithTempDir(dir))

	res, err := p.Run(exampleRows())
	require.NoError(t, err)

	assert.Equal(t, []Identification{
		{Accessions: "P1", Probability: 0.91, ModifiedPeptides: 2, DistinctPeptides: 2},
		{Accessions: "P2", Probability: 0.52, ModifiedPeptides: 1, DistinctPeptides: 1},
	}, res.Identifications)
	assert.Equal(t, 1, res.Sets)
	assert.Equal(t, 2, res.Accessions)
	assert.Equal(t, 3, res.Encoding.ProbabilityLines)
	assert.NotEmpty(t, res.RunID)

	assertEmptyDir(t, dir)
}

func TestRunCollapsesSharedEvidence(t *testing.T) {
	rows := []core.Row{
		{Peptide: "PEPTIDEA", Proteins: "P1;P2", Probability: float(0.9), Detectability: float(0.8)},
		{Peptide: "PEPT(ox)IDEA", Proteins: "P1;P2", Probability: float(0.7), Detectability: float(0.8)},
	}
	text := `Set 1	Set probability: 0.95;
101	1	0.5
PEPTIDEA
PEPT(ox)IDEA

100	1	0.5
PEPTIDEA
PEPT(ox)IDEA


`
	dir := t.TempDir()
	res, err := New(engine.Fixed{Text: text}, WithTempDir(dir)).Run(rows)
	require.NoError(t, err)

	require.Len(t, res.Identifications, 1)
	assert.Equal(t, Identification{
		Accessions:       "P1;P2",
		Probability:      0.95,
		ModifiedPeptides: 2,
		DistinctPeptides: 1,
	}, res.Identifications[0])
	assertEmptyDir(t, dir)
}

func TestRunMalformedSetHeader(t *testing.T) {
	text := `Set 1	Set probability: ???;
100	1	0.91
PEPTIDEA


Set 2	Set probability: 0.6;
101	1	0.52
PEPTIDEA


`
	res, err := New(engine.Fixed{Text: text}, WithTempDir(t.TempDir())).Run(exampleRows())
	require.NoError(t, err)

	assert.Equal(t, 1, res.MalformedSets)
	assert.Equal(t, []Identification{
		{Accessions: "P2", Probability: 0.6, ModifiedPeptides: 1, DistinctPeptides: 1},
	}, res.Identifications)
}

func TestRunUnknownIdentifier(t *testing.T) {
	text := `Set 1	Set probability: 0.6;
999	1	0.52
PEPTIDEA


`
	dir := t.TempDir()
	res, err := New(engine.Fixed{Text: text}, WithTempDir(dir)).Run(exampleRows())
	require.Error(t, err)
	assert.Nil(t, res)
	assert.True(t, errors.Is(err, core.ErrUnknownIdentifier))
	assertEmptyDir(t, dir)
}

type failingInvoker struct{}

func (failingInvoker) Invoke(probabilityFile, detectabilityFile string) (*engine.Report, error) {
	artifact := probabilityFile + ".quantify.bayes53ss"
	if err := os.WriteFile(artifact, []byte("partial"), 0o644); err != nil {
		return nil, err
	}
	rep := &engine.Report{
		Path:      probabilityFile + ".quantify.bayes53",
		Artifacts: []string{probabilityFile + ".quantify.bayes53", artifact},
	}
	return rep, &core.SubprocessError{
		Command:  "MSBayesPro.linux64",
		ExitCode: 1,
		Stderr:   "segmentation fault",
	}
}

func TestRunSubprocessFailureCleansUp(t *testing.T) {
	dir := t.TempDir()
	res, err := New(failingInvoker{}, WithTempDir(dir)).Run(exampleRows())
	require.Error(t, err)
	assert.Nil(t, res)
	assert.True(t, errors.Is(err, core.ErrSubprocessFailure))
	assert.Contains(t, err.Error(), "segmentation fault")
	assertEmptyDir(t, dir)
}

type recordingInvoker struct {
	probability   string
	detectability string
	text          string
}

func (r *recordingInvoker) Invoke(probabilityFile, detectabilityFile string) (*engine.Report, error) {
	prob, err := os.ReadFile(probabilityFile)
	if err != nil {
		return nil, err
	}
	detect, err := os.ReadFile(detectabilityFile)
	if err != nil {
		return nil, err
	}
	r.probability = string(prob)
	r.detectability = string(detect)
	return engine.Fixed{Text: r.text}.Invoke(probabilityFile, detectabilityFile)
}

func TestRunEncodesInputsBeforeInvoking(t *testing.T) {
	inv := &recordingInvoker{text: splitReport}
	_, err := New(inv, WithTempDir(t.TempDir())).Run(exampleRows())
	require.NoError(t, err)

	assert.Equal(t, "PEPTIDEA\t0.9\nPEPTIDEB\t0.9\nPEPTIDEA\t0.9\n", inv.probability)
	assert.Equal(t, "PEPTIDEA\t100\t0.8\nPEPTIDEB\t100\t0.8\nPEPTIDEA\t101\t0.8\n", inv.detectability)
}

func TestRunIsDeterministic(t *testing.T) {
	text := `Set 1	Set probability: 0.95;
100	1	0.7
PEPTIDEA

102	1	0.7
PEPTIDEA

101	1	0.2
PEPTIDEC


Set 2	Set probability: 0.5;
103	1	0.1
PEPTIDED


`
	rows := []core.Row{
		{Peptide: "PEPTIDEA", Proteins: "Z1;A2", Probability: float(0.9), Detectability: float(0.8)},
		{Peptide: "PEPTIDEA", Proteins: "M3", Probability: float(0.9), Detectability: float(0.8)},
		{Peptide: "PEPTIDED", Proteins: "B4", Probability: float(0.4), Detectability: float(0.8)},
	}

	p := New(engine.Fixed{Text: text}, WithTempDir(t.TempDir()))
	first, err := p.Run(rows)
	require.NoError(t, err)

	for i := 0; i < 5; i++ {
		again, err := p.Run(rows)
		require.NoError(t, err)
		assert.Equal(t, first.Identifications, again.Identifications)
		assert.NotEqual(t, first.RunID, again.RunID)
	}

	m := first.Map()
	assert.Len(t, m, 3)
	assert.Equal(t, 0.7, m["Z1;M3"].Probability)
	assert.Equal(t, 0.2, m["A2"].Probability)
	assert.Equal(t, 0.5, m["B4"].Probability)
}

func TestRunTempDirFailure(t *testing.T) {
	_, err := New(engine.Fixed{}, WithTempDir(filepath.Join(t.TempDir(), "missing"))).Run(exampleRows())
	require.Error(t, err)
	assert.True(t, errors.Is(err, core.ErrIO))
}

func TestAssemble(t *testing.T) {
	reg := core.NewRegistry()
	reg.Register("P1")
	reg.Register("P2")
	reg.Register("P3")

	groups := []core.ProteinGroup{
		{IDs: []core.InternalID{101, 102}, Probability: 0.9, ModifiedPeptides: 3, DistinctPeptides: 2},
		{IDs: []core.InternalID{100}, Probability: 0.4, ModifiedPeptides: 1, DistinctPeptides: 1},
		{IDs: []core.InternalID{100}, Probability: 0.1, ModifiedPeptides: 1, DistinctPeptides: 1},
		{IDs: nil},
	}

	ids, err := Assemble(reg, groups, nil)
	require.NoError(t, err)
	assert.Equal(t, []Identification{
		{Accessions: "P1", Probability: 0.4, ModifiedPeptides: 1, DistinctPeptides: 1},
		{Accessions: "P2;P3", Probability: 0.9, ModifiedPeptides: 3, DistinctPeptides: 2},
	}, ids)

	_, err = Assemble(reg, []core.ProteinGroup{{IDs: []core.InternalID{100, 103}}}, nil)
	require.Error(t, err)
	var unknown *core.UnknownIdentifierError
	require.True(t, errors.As(err, &unknown))
	assert.Equal(t, core.InternalID(103), unknown.ID)
}

func TestRunRelativeTempDirWithEngineDir(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("shell scripts are not executable on windows")
	}
	bin := t.TempDir()
	saved := filepath.Join(bin, "report.txt")
	require.NoError(t, os.WriteFile(saved, []byte(splitReport), 0o644))
	script := filepath.Join(bin, "fake-msbayes")
	require.NoError(t, os.WriteFile(script, []byte("#!/bin/sh\n"+
		`[ -f "$2" ] && [ -f "$4" ] || exit 3`+"\n"+
		`cp "`+saved+`" "$2.quantify.bayes53"`+"\n"), 0o755))

	m := engine.DefaultMSBayesPro
	m.Command = script
	m.Dir = t.TempDir()

	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(t.TempDir()))
	t.Cleanup(func() { _ = os.Chdir(wd) })
	require.NoError(t, os.Mkdir("tmp", 0o755))

	res, err := New(m, WithTempDir("tmp")).Run(exampleRows())
	require.NoError(t, err)
	assert.Len(t, res.Identifications, 2)
	assertEmptyDir(t, "tmp")
}
