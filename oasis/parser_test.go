package oasis

import (
	"bytes"
	"hash/crc32"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wippyai/oasis/errors"
	"github.com/wippyai/oasis/oasis/internal/binary"
)

// rawFile assembles a file around hand-written records: START with
// non-strict tables and an END without validation.
func rawFile(records ...[]byte) []byte {
	w := rawStart()
	for _, r := range records {
		w.WriteBytes(r)
	}
	w.WriteUint(uint64(recEnd))
	w.WriteUintWidth(endRecordSize-4, 2)
	w.WriteBytes(make([]byte, endRecordSize-4))
	w.WriteUint(0)
	return w.Bytes()
}

func rawStart() *binary.Writer {
	w := binary.NewWriter()
	w.WriteBytes([]byte(Magic))
	w.WriteUint(uint64(recStart))
	w.WriteString("1.0")
	w.WriteReal(Integer(1000).wire())
	w.WriteUint(0)
	for range 2 * numNameKinds {
		w.WriteUint(0)
	}
	return w
}

// shortEndFile ends with a run of PAD records and a compact END, so no END
// starts 256 bytes before the end of the file.
func shortEndFile() []byte {
	w := rawStart()
	w.WriteBytes([]byte{byte(recCellNamed), 1, 'A'})
	w.WriteBytes(make([]byte, 300))
	w.WriteUint(uint64(recEnd))
	w.WriteString("")
	w.WriteUint(uint64(ValidationCRC32))
	w.WriteUint32LE(crc32.ChecksumIEEE(w.Bytes()))
	return w.Bytes()
}

func relaxed() ParserOptions {
	opts := DefaultParserOptions()
	opts.StrictConformance = false
	return opts
}

// cellFile writes one cell per entry, each placing the listed children.
func cellFile(t *testing.T, cells [][]string) []byte {
	t.Helper()
	a := NewArena()
	var buf bytes.Buffer
	c := NewCreator(&buf, DefaultCreatorOptions())
	require.NoError(t, c.BeginFile("1.0", Integer(1000), ValidationCRC32))
	for _, cell := range cells {
		require.NoError(t, c.RegisterCellName(a.Intern(KindCellName, cell[0])))
	}
	for _, cell := range cells {
		require.NoError(t, c.BeginCell(a.Intern(KindCellName, cell[0])))
		for i, child := range cell[1:] {
			pl := &Placement{Cell: a.Intern(KindCellName, child), X: int64(i * 100), Mag: Integer(1)}
			require.NoError(t, c.BeginPlacement(pl))
			require.NoError(t, c.EndElement())
		}
		require.NoError(t, c.BeginRectangle(&Rectangle{Layer: 1, Width: 10, Height: 10}))
		require.NoError(t, c.EndElement())
		require.NoError(t, c.EndCell())
	}
	require.NoError(t, c.EndFile())
	return buf.Bytes()
}

func TestParserBadMagic(t *testing.T) {
	_, err := NewParser([]byte("%SEMI-OASIS\n"), DefaultParserOptions())
	assert.True(t, errors.IsStructural(err))

	_, err = NewParser(nil, DefaultParserOptions())
	assert.True(t, errors.IsStructural(err))
}

func TestParserMissingEnd(t *testing.T) {
	data := rawFile()
	for _, opts := range []ParserOptions{DefaultParserOptions(), relaxed()} {
		_, err := NewParser(data[:len(data)-endRecordSize], opts)
		assert.True(t, errors.IsStructural(err), "strict %t: %v", opts.StrictConformance, err)
	}
}

func TestParserMisplacedEnd(t *testing.T) {
	data := shortEndFile()

	_, err := NewParser(data, DefaultParserOptions())
	assert.True(t, errors.IsConformance(err), "got %v", err)

	p, err := NewParser(data, relaxed())
	require.NoError(t, err)
	assert.Equal(t, ValidationCRC32, p.FileInfo().Validation.Scheme)
	assert.NoError(t, p.Validate())
	require.Len(t, p.CellNames(), 1)
	assert.Equal(t, "A", p.CellNames()[0].String())

	got := &recorder{}
	require.NoError(t, p.ParseFile(got))
	assert.Equal(t, []string{"A"}, got.cells())
}

func TestParserFileInfo(t *testing.T) {
	p, err := NewParser(rawFile(), DefaultParserOptions())
	require.NoError(t, err)
	info := p.FileInfo()
	assert.Equal(t, "1.0", info.Version)
	assert.Equal(t, 1000.0, info.Unit.Float64())
	assert.False(t, info.TablesInEnd)
	assert.Equal(t, ValidationNone, info.Validation.Scheme)
	for _, ti := range info.Tables {
		assert.False(t, ti.Strict)
	}
	assert.Empty(t, p.CellNames())
}

func TestParserUnusedInfoBits(t *testing.T) {
	cell := []byte{byte(recCellNamed), 1, 'A'}
	// TEXT with the reserved top bit set.
	text := []byte{byte(recText), 0x80 | bitTextString | bitTextType | bitTextLayer, 1, 'x', 1, 0}
	data := rawFile(cell, text)

	_, err := NewParser(data, DefaultParserOptions())
	assert.True(t, errors.IsConformance(err))

	p, err := NewParser(data, relaxed())
	require.NoError(t, err)
	rec := &recorder{}
	require.NoError(t, p.ParseFile(rec))
	assert.Contains(t, rec.events, `text "x" 1/0 (0,0) rep=-`)
}

func TestParserUndefinedCellRefnum(t *testing.T) {
	data := rawFile([]byte{byte(recCellRef), 5})
	_, err := NewParser(data, relaxed())
	assert.True(t, errors.IsReference(err))
}

func TestParserElementOutsideCell(t *testing.T) {
	rect := []byte{byte(recRectangle), bitSquare | bitWidth | bitLayer | bitDatatype, 1, 0, 10}
	_, err := NewParser(rawFile(rect), relaxed())
	assert.True(t, errors.IsStructural(err))
}

func TestParserUndefinedModal(t *testing.T) {
	cell := []byte{byte(recCellNamed), 1, 'A'}
	// Rectangle without a width while geometry-w is unset.
	rect := []byte{byte(recRectangle), bitSquare | bitLayer | bitDatatype, 1, 0}
	p, err := NewParser(rawFile(cell, rect), DefaultParserOptions())
	require.NoError(t, err)
	err = p.ParseFile(&recorder{})
	assert.True(t, errors.IsStructural(err))
}

func TestParserImpliedPolygonVertex(t *testing.T) {
	cell := []byte{byte(recCellNamed), 1, 'A'}
	w := binary.NewWriter()
	w.WriteUint(uint64(recPolygon))
	w.Byte(bitPoints | bitLayer | bitDatatype)
	w.WriteUint(1)
	w.WriteUint(0)
	w.WriteUint(pointsManhattanH)
	w.WriteUint(2)
	w.Write1Delta(100)
	w.Write1Delta(50)
	p, err := NewParser(rawFile(cell, w.Bytes()), DefaultParserOptions())
	require.NoError(t, err)

	rec := &recorder{}
	require.NoError(t, p.ParseFile(rec))
	assert.Contains(t, rec.events, "polygon 1/0 (0,0) [(0,0) (100,0) (100,50) (0,50)] rep=-")
}

func TestParserSelfPlacement(t *testing.T) {
	data := cellFile(t, [][]string{{"A", "A"}})
	for _, opts := range []ParserOptions{DefaultParserOptions(), relaxed()} {
		p, err := NewParser(data, opts)
		require.NoError(t, err)
		err = p.ParseFile(&recorder{})
		assert.True(t, errors.IsReference(err), "strict=%t: %v", opts.StrictConformance, err)
	}
}

func TestParserWantFlags(t *testing.T) {
	data := createSample(t, DefaultCreatorOptions())
	opts := DefaultParserOptions()
	opts.WantText = false
	opts.WantExtensions = false
	opts.WantLayerName = false

	p, err := NewParser(data, opts)
	require.NoError(t, err)
	rec := &recorder{}
	require.NoError(t, p.ParseFile(rec))
	for _, e := range rec.events {
		assert.NotRegexp(t, `^(text|textstring|xname|xelement|xgeometry|layername) `, e)
	}
	assert.Contains(t, rec.events, "circle 1/0 (-20,-20) r=25 rep=-")
}

func TestParserValidationMismatch(t *testing.T) {
	for _, scheme := range []ValidationScheme{ValidationCRC32, ValidationChecksum32} {
		var buf bytes.Buffer
		c := NewCreator(&buf, CreatorOptions{})
		require.NoError(t, c.BeginFile("1.0", Integer(1000), scheme))
		require.NoError(t, c.EndFile())
		data := bytes.Clone(buf.Bytes())

		p, err := NewParser(data, DefaultParserOptions())
		require.NoError(t, err)
		require.NoError(t, p.Validate())

		// Magic, START id and version length precede "1.0".
		at := len(Magic) + 2
		require.Equal(t, byte('1'), data[at])
		data[at] = '2'
		p, err = NewParser(data, DefaultParserOptions())
		require.NoError(t, err)
		err = p.Validate()
		assert.True(t, errors.IsStructural(err), scheme.String())
		assert.ErrorIs(t, err, &errors.Error{Phase: errors.PhaseValidate, Kind: errors.KindStructural})

		opts := DefaultParserOptions()
		opts.WantValidation = false
		p, err = NewParser(data, opts)
		require.NoError(t, err)
		assert.NoError(t, p.Validate())
	}
}

func TestParseCell(t *testing.T) {
	p, err := NewParser(cellFile(t, [][]string{{"A", "B"}, {"B"}}), DefaultParserOptions())
	require.NoError(t, err)

	rec := &recorder{}
	ok, err := p.ParseCell("B", rec)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, []string{"B"}, rec.cells())

	ok, err = p.ParseCell("GHOST", rec)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestExtractCells(t *testing.T) {
	tests := []struct {
		name  string
		cells [][]string
		roots []string
		want  []string
	}{
		{
			name:  "cycle",
			cells: [][]string{{"A", "B"}, {"B", "C"}, {"C", "A"}},
			roots: []string{"A"},
			want:  []string{"A", "B", "C"},
		},
		{
			name:  "diamond",
			cells: [][]string{{"TOP", "L", "R"}, {"L", "LEAF"}, {"R", "LEAF"}, {"LEAF"}, {"UNUSED"}},
			roots: []string{"TOP"},
			want:  []string{"TOP", "L", "LEAF", "R"},
		},
		{
			name:  "shared subtree",
			cells: [][]string{{"A", "X"}, {"B", "X", "Y"}, {"X"}, {"Y"}, {"C"}},
			roots: []string{"A", "B"},
			want:  []string{"A", "X", "B", "Y"},
		},
		{
			name:  "undefined child",
			cells: [][]string{{"A", "MISSING"}},
			roots: []string{"A"},
			want:  []string{"A"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := NewParser(cellFile(t, tt.cells), DefaultParserOptions())
			require.NoError(t, err)

			var buf bytes.Buffer
			c := NewCreator(&buf, DefaultCreatorOptions())
			require.NoError(t, p.ExtractCells(tt.roots, c))
			require.NoError(t, c.Close())

			out, err := NewParser(buf.Bytes(), DefaultParserOptions())
			require.NoError(t, err)
			require.NoError(t, out.Validate())
			rec := &recorder{}
			require.NoError(t, out.ParseFile(rec))
			assert.Equal(t, tt.want, rec.cells())
		})
	}
}

func TestExtractCellsMissingRoot(t *testing.T) {
	p, err := NewParser(cellFile(t, [][]string{{"A"}}), DefaultParserOptions())
	require.NoError(t, err)
	err = p.ExtractCells([]string{"NOPE"}, &recorder{})
	assert.True(t, errors.IsReference(err))
}
