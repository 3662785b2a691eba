package main

import (
	"flag"
	"io"
	"path/filepath"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wippyai/oasis/oasis"
)

func newFlagSet() *flag.FlagSet {
	fs := flag.NewFlagSet("oasis-copy", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	return fs
}

func TestParseArgsDefaults(t *testing.T) {
	cfg, err := parseArgs(newFlagSet(), []string{"in.oas", "out.oas"})
	require.NoError(t, err)
	assert.Equal(t, "in.oas", cfg.input)
	assert.Equal(t, "out.oas", cfg.output)
	assert.Empty(t, cfg.cells)
	assert.Equal(t, oasis.DefaultParserOptions(), cfg.parser)
	assert.Equal(t, oasis.DefaultCreatorOptions(), cfg.creator)
}

func TestParseArgsFlags(t *testing.T) {
	args := []string{"-c", "TOP,SUB", "-c", "OTHER", "-l", "-n", "-t", "-v", "-x", "-i", "-z", "-s", "-r", "-V", "a", "b"}
	cfg, err := parseArgs(newFlagSet(), args)
	require.NoError(t, err)
	assert.Equal(t, []string{"TOP", "SUB", "OTHER"}, cfg.cells)
	assert.True(t, cfg.verify)
	assert.Equal(t, oasis.ParserOptions{}, cfg.parser)
	assert.Equal(t, oasis.CreatorOptions{ImmediateNames: true, RelativeXY: true}, cfg.creator)
}

func TestParseArgsErrors(t *testing.T) {
	_, err := parseArgs(newFlagSet(), []string{"only-input"})
	assert.Error(t, err)

	_, err = parseArgs(newFlagSet(), []string{"-pick", "-c", "A", "in", "out"})
	assert.Error(t, err)

	_, err = parseArgs(newFlagSet(), []string{"-q", "in", "out"})
	assert.Error(t, err)
}

func writeInput(t *testing.T, path string) {
	t.Helper()
	a := oasis.NewArena()
	c, err := oasis.CreateFile(path, oasis.DefaultCreatorOptions())
	require.NoError(t, err)
	require.NoError(t, c.BeginFile("1.0", oasis.Integer(1000), oasis.ValidationCRC32))
	cells := [][]string{{"LEAF"}, {"TOP", "LEAF"}, {"SPARE"}}
	for _, cell := range cells {
		require.NoError(t, c.BeginCell(a.Intern(oasis.KindCellName, cell[0])))
		for _, child := range cell[1:] {
			require.NoError(t, c.BeginPlacement(&oasis.Placement{Cell: a.Intern(oasis.KindCellName, child), Mag: oasis.Integer(1)}))
			require.NoError(t, c.EndElement())
		}
		require.NoError(t, c.BeginRectangle(&oasis.Rectangle{Layer: 1, Width: 5, Height: 5}))
		require.NoError(t, c.EndElement())
		require.NoError(t, c.EndCell())
	}
	require.NoError(t, c.EndFile())
	require.NoError(t, c.Close())
}

func outputCells(t *testing.T, path string) []string {
	t.Helper()
	p, err := oasis.OpenFile(path, oasis.DefaultParserOptions())
	require.NoError(t, err)
	require.NoError(t, p.Validate())
	return cellStrings(p.CellNames())
}

func TestRunCopiesWholeFile(t *testing.T) {
	dir := t.TempDir()
	in, out := filepath.Join(dir, "in.oas"), filepath.Join(dir, "out.oas")
	writeInput(t, in)

	cfg, err := parseArgs(newFlagSet(), []string{"-V", "-z", in, out})
	require.NoError(t, err)
	require.NoError(t, run(cfg))
	assert.Equal(t, []string{"LEAF", "TOP", "SPARE"}, outputCells(t, out))
}

func TestRunExtractsCells(t *testing.T) {
	dir := t.TempDir()
	in, out := filepath.Join(dir, "in.oas"), filepath.Join(dir, "out.oas")
	writeInput(t, in)

	cfg, err := parseArgs(newFlagSet(), []string{"-c", "TOP", in, out})
	require.NoError(t, err)
	require.NoError(t, run(cfg))
	assert.Equal(t, []string{"TOP", "LEAF"}, outputCells(t, out))

	failed := filepath.Join(dir, "failed.oas")
	cfg, err = parseArgs(newFlagSet(), []string{"-c", "GHOST", in, failed})
	require.NoError(t, err)
	assert.Error(t, run(cfg))
	assert.NoFileExists(t, failed)
}

func TestRunMissingInput(t *testing.T) {
	dir := t.TempDir()
	cfg, err := parseArgs(newFlagSet(), []string{filepath.Join(dir, "none.oas"), filepath.Join(dir, "out.oas")})
	require.NoError(t, err)
	assert.Error(t, run(cfg))
}

func press(m *pickerModel, keys ...tea.KeyMsg) {
	for _, k := range keys {
		m.Update(k)
	}
}

func TestPickerSelection(t *testing.T) {
	m := newPickerModel("in.oas", []string{"TOP", "SUB_A", "SUB_B"})
	press(m,
		tea.KeyMsg{Type: tea.KeyTab},
		tea.KeyMsg{Type: tea.KeyDown},
		tea.KeyMsg{Type: tea.KeyDown},
		tea.KeyMsg{Type: tea.KeyTab},
		tea.KeyMsg{Type: tea.KeyEnter},
	)
	assert.Equal(t, []string{"TOP", "SUB_B"}, m.Selected())
}

func TestPickerFilter(t *testing.T) {
	m := newPickerModel("in.oas", []string{"TOP", "SUB_A", "SUB_B"})
	press(m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("sub")})
	assert.Equal(t, []int{1, 2}, m.visible)

	press(m, tea.KeyMsg{Type: tea.KeyDown}, tea.KeyMsg{Type: tea.KeyEnter})
	assert.Equal(t, []string{"SUB_B"}, m.Selected())
	assert.Contains(t, m.View(), "2 of 3 cells")
}

func TestPickerAbort(t *testing.T) {
	m := newPickerModel("in.oas", []string{"TOP"})
	press(m, tea.KeyMsg{Type: tea.KeyTab}, tea.KeyMsg{Type: tea.KeyEsc})
	assert.Nil(t, m.Selected())
}
