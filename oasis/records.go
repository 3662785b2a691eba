package oasis

import "fmt"

// Magic is the fixed prefix of every OASIS file.
const Magic = "%SEMI-OASIS\r\n"

// endRecordSize is the fixed size of the END record.
const endRecordSize = 256

// recordID is the type byte of a record.
type recordID uint64

const (
	recPad recordID = iota
	recStart
	recEnd
	recCellName
	recCellNameRef
	recTextString
	recTextStringRef
	recPropName
	recPropNameRef
	recPropString
	recPropStringRef
	recLayerName
	recLayerNameText
	recCellRef
	recCellNamed
	recXYAbsolute
	recXYRelative
	recPlacement
	recPlacementTransform
	recText
	recRectangle
	recPolygon
	recPath
	recTrapezoid
	recTrapezoidA
	recTrapezoidB
	recCTrapezoid
	recCircle
	recProperty
	recPropertyRepeat
	recXName
	recXNameRef
	recXElement
	recXGeometry
	recCBlock
	numRecordIDs
)

var recordNames = [numRecordIDs]string{
	"PAD", "START", "END", "CELLNAME", "CELLNAME", "TEXTSTRING", "TEXTSTRING",
	"PROPNAME", "PROPNAME", "PROPSTRING", "PROPSTRING", "LAYERNAME", "LAYERNAME",
	"CELL", "CELL", "XYABSOLUTE", "XYRELATIVE", "PLACEMENT", "PLACEMENT", "TEXT",
	"RECTANGLE", "POLYGON", "PATH", "TRAPEZOID", "TRAPEZOID", "TRAPEZOID",
	"CTRAPEZOID", "CIRCLE", "PROPERTY", "PROPERTY", "XNAME", "XNAME", "XELEMENT",
	"XGEOMETRY", "CBLOCK",
}

func (id recordID) String() string {
	if id < numRecordIDs {
		return recordNames[id]
	}
	return fmt.Sprintf("record(%d)", uint64(id))
}

// nameRecord returns the category of a name record, if id is one.
func (id recordID) nameRecord() (NameKind, bool) {
	switch id {
	case recCellName, recCellNameRef:
		return KindCellName, true
	case recTextString, recTextStringRef:
		return KindTextString, true
	case recPropName, recPropNameRef:
		return KindPropName, true
	case recPropString, recPropStringRef:
		return KindPropString, true
	case recLayerName, recLayerNameText:
		return KindLayerName, true
	case recXName, recXNameRef:
		return KindXName, true
	}
	return 0, false
}

// implicitRecord maps a name category to its implicit-refnum record ID.
var implicitRecord = [numNameKinds]recordID{
	recCellName, recTextString, recPropName, recPropString, recLayerName, recXName,
}

// isElement reports whether id starts an element that may carry properties.
func (id recordID) isElement() bool {
	switch id {
	case recPlacement, recPlacementTransform, recText, recRectangle, recPolygon,
		recPath, recTrapezoid, recTrapezoidA, recTrapezoidB, recCTrapezoid,
		recCircle, recXElement, recXGeometry:
		return true
	}
	return false
}

// Info-byte bits shared by the element records.
const (
	bitRep      = 0x04 // R
	bitY        = 0x08 // Y
	bitX        = 0x10 // X
	bitLayer    = 0x01 // L
	bitDatatype = 0x02 // D

	// PLACEMENT: CNXYRAAF / CNXYRMAF
	bitPlaceCell = 0x80
	bitPlaceRef  = 0x40
	bitPlaceX    = 0x20
	bitPlaceY    = 0x10
	bitPlaceRep  = 0x08
	bitFlip      = 0x01
	bitMag       = 0x04
	bitAngle     = 0x02
	maskAngle    = 0x06

	// TEXT: 0CNXYRTL
	bitTextString = 0x40
	bitTextRef    = 0x20
	bitTextType   = 0x02
	bitTextLayer  = 0x01

	// RECTANGLE: SWHXYRDL
	bitSquare = 0x80
	bitWidth  = 0x40
	bitHeight = 0x20

	// POLYGON, PATH: P
	bitPoints = 0x20

	// PATH: EWPXYRDL
	bitPathExt   = 0x80
	bitHalfWidth = 0x40

	// TRAPEZOID: OWHXYRDL
	bitVertical = 0x80

	// CTRAPEZOID: TWHXYRDL
	bitCTrapType = 0x80

	// CIRCLE: 00rXYRDL
	bitRadius = 0x20

	// PROPERTY: UUUUVCNS
	bitPropStandard = 0x01
	bitPropRef      = 0x02
	bitPropName     = 0x04
	bitPropReuse    = 0x08
)

// unused info-byte bits per record, checked under strict conformance.
func unusedBits(id recordID) byte {
	switch id {
	case recText:
		return 0x80
	case recPolygon, recCircle:
		return 0xc0
	case recXGeometry:
		return 0xe0
	}
	return 0
}

// Point list types.
const (
	pointsManhattanH = iota
	pointsManhattanV
	pointsManhattan
	pointsOctangular
	pointsGeneral
	pointsDoubleDelta
)

// Path extension schemes.
const (
	extReuse = iota
	extFlush
	extHalfWidth
	extExplicit
)
