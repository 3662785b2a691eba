package oasis

import "go.uber.org/zap"

// ParserOptions configures a Parser. A false Want flag suppresses the
// events and validity checks of that record category; the records are
// still parsed so the stream stays in sync.
type ParserOptions struct {
	// StrictConformance turns tolerable deviations into errors.
	StrictConformance bool
	// WantValidation reads and checks the END validation signature.
	WantValidation bool
	// WantText delivers TEXT elements and TEXTSTRING names.
	WantText bool
	// WantLayerName delivers LAYERNAME records.
	WantLayerName bool
	// WantExtensions delivers XNAME, XELEMENT and XGEOMETRY records.
	WantExtensions bool

	// Logger overrides the package logger.
	Logger *zap.Logger
}

// DefaultParserOptions returns strict options that deliver everything.
func DefaultParserOptions() ParserOptions {
	return ParserOptions{
		StrictConformance: true,
		WantValidation:    true,
		WantText:          true,
		WantLayerName:     true,
		WantExtensions:    true,
	}
}

// CreatorOptions configures a Creator.
type CreatorOptions struct {
	// Compress wraps each cell body and each name table in a CBLOCK.
	Compress bool
	// ImmediateNames writes name records as they are registered instead of
	// in tables at the end of the file. Tables are then non-strict.
	ImmediateNames bool
	// StrictTables writes the table offsets into END.
	StrictTables bool
	// RelativeXY writes element positions relative to the previous one.
	RelativeXY bool
	// CellNames selects cell-selection mode. Only these cells are taken from
	// RegisterCellName; every other cell is registered when a CELL or
	// PLACEMENT first names it, so cells and placements always refer to
	// cells by reference number.
	CellNames []string

	// Logger overrides the package logger.
	Logger *zap.Logger
}

// DefaultCreatorOptions returns compressed, strict-table options.
func DefaultCreatorOptions() CreatorOptions {
	return CreatorOptions{
		Compress:     true,
		StrictTables: true,
	}
}
