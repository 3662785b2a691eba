// Package binary implements the primitive OASIS field encodings: unsigned
// and signed integers, reals, length-prefixed strings and the four delta
// forms used by point lists and repetitions.
package binary

import (
	"encoding/binary"
	"math"

	"github.com/wippyai/oasis/errors"
)

// Real is an OASIS real in wire form. Form is the real type 0..7.
// Forms 0/1 use Num, 2/3 use Den, 4/5 use Num/Den, 6/7 use Float.
type Real struct {
	Num   uint64
	Den   uint64
	Float float64
	Form  uint8
}

// Reader is a cursor over an in-memory OASIS byte sequence.
type Reader struct {
	data []byte
	pos  int
	base int64
}

// NewReader creates a Reader over data. base is the absolute file offset
// of data[0]; it is used only for error positions.
func NewReader(data []byte, base int64) *Reader {
	return &Reader{data: data, base: base}
}

// Position returns the current byte position relative to data[0].
func (r *Reader) Position() int {
	return r.pos
}

// Offset returns the absolute offset used in error messages.
func (r *Reader) Offset() int64 {
	return r.base + int64(r.pos)
}

// Len returns the size of the underlying data.
func (r *Reader) Len() int {
	return len(r.data)
}

// Remaining returns the number of unread bytes.
func (r *Reader) Remaining() int {
	return len(r.data) - r.pos
}

// AtEOF reports whether all bytes have been consumed.
func (r *Reader) AtEOF() bool {
	return r.pos >= len(r.data)
}

// Seek moves the cursor to pos.
func (r *Reader) Seek(pos int) error {
	if pos < 0 || pos > len(r.data) {
		return errors.Structural(errors.PhaseScan, r.base+int64(pos), "seek beyond end of data (size %d)", len(r.data))
	}
	r.pos = pos
	return nil
}

func (r *Reader) truncated(what string) error {
	return errors.Structural(errors.PhaseScan, r.Offset(), "truncated %s", what)
}

// ReadByte reads a single byte and advances the position.
func (r *Reader) ReadByte() (byte, error) {
	if r.pos >= len(r.data) {
		return 0, r.truncated("record")
	}
	b := r.data[r.pos]
	r.pos++
	return b, nil
}

// ReadBytes reads exactly n bytes. The result aliases the underlying data.
func (r *Reader) ReadBytes(n int) ([]byte, error) {
	if n < 0 || n > r.Remaining() {
		return nil, r.truncated("byte sequence")
	}
	b := r.data[r.pos : r.pos+n]
	r.pos += n
	return b, nil
}

// ReadUint reads an unsigned-integer: 7 bits per byte, least significant
// group first, high bit set on every byte but the last.
func (r *Reader) ReadUint() (uint64, error) {
	start := r.Offset()
	var result uint64
	var shift uint
	for {
		if r.pos >= len(r.data) {
			return 0, r.truncated("unsigned-integer")
		}
		b := r.data[r.pos]
		r.pos++
		if shift == 63 && b&0x7e != 0 || shift > 63 {
			return 0, errors.Structural(errors.PhaseScan, start, "unsigned-integer overflows 64 bits")
		}
		result |= uint64(b&0x7f) << shift
		if b&0x80 == 0 {
			return result, nil
		}
		shift += 7
	}
}

// ReadSint reads a signed-integer: an unsigned-integer whose low bit is
// the sign and whose remaining bits are the magnitude.
func (r *Reader) ReadSint() (int64, error) {
	u, err := r.ReadUint()
	if err != nil {
		return 0, err
	}
	mag := int64(u >> 1)
	if u&1 != 0 {
		return -mag, nil
	}
	return mag, nil
}

// ReadReal reads a real: a type code 0..7 followed by its payload.
func (r *Reader) ReadReal() (Real, error) {
	form, err := r.ReadUint()
	if err != nil {
		return Real{}, err
	}
	return r.ReadRealForm(form)
}

// ReadRealForm reads the payload of a real whose type code has already
// been consumed, as in property values.
func (r *Reader) ReadRealForm(form uint64) (Real, error) {
	start := r.Offset()
	var err error
	v := Real{Form: uint8(form)}
	switch form {
	case 0, 1:
		v.Num, err = r.ReadUint()
	case 2, 3:
		v.Den, err = r.ReadUint()
		if err == nil && v.Den == 0 {
			return Real{}, errors.Structural(errors.PhaseScan, start, "real with zero denominator")
		}
	case 4, 5:
		if v.Num, err = r.ReadUint(); err != nil {
			return Real{}, err
		}
		v.Den, err = r.ReadUint()
		if err == nil && v.Den == 0 {
			return Real{}, errors.Structural(errors.PhaseScan, start, "real with zero denominator")
		}
	case 6:
		var b []byte
		if b, err = r.ReadBytes(4); err == nil {
			v.Float = float64(math.Float32frombits(binary.LittleEndian.Uint32(b)))
		}
	case 7:
		var b []byte
		if b, err = r.ReadBytes(8); err == nil {
			v.Float = math.Float64frombits(binary.LittleEndian.Uint64(b))
		}
	default:
		return Real{}, errors.InvalidEnum(errors.PhaseScan, start, form, "real type")
	}
	if err != nil {
		return Real{}, err
	}
	return v, nil
}

// ReadString reads a length-prefixed byte string. Character-set rules for
// a-strings and n-strings are checked by the caller.
func (r *Reader) ReadString() ([]byte, error) {
	n, err := r.ReadUint()
	if err != nil {
		return nil, err
	}
	if n > uint64(r.Remaining()) {
		return nil, r.truncated("string")
	}
	return r.ReadBytes(int(n))
}

// ReadUint32LE reads a fixed four-byte little-endian value.
func (r *Reader) ReadUint32LE() (uint32, error) {
	b, err := r.ReadBytes(4)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(b), nil
}

// Octangular direction codes shared by 3-deltas and g-deltas.
const (
	DirEast = iota
	DirNorth
	DirWest
	DirSouth
	DirNorthEast
	DirNorthWest
	DirSouthWest
	DirSouthEast
)

// DirectionVector expands an octangular direction and magnitude.
func DirectionVector(dir uint64, mag int64) (dx, dy int64) {
	switch dir & 7 {
	case DirEast:
		return mag, 0
	case DirNorth:
		return 0, mag
	case DirWest:
		return -mag, 0
	case DirSouth:
		return 0, -mag
	case DirNorthEast:
		return mag, mag
	case DirNorthWest:
		return -mag, mag
	case DirSouthWest:
		return -mag, -mag
	default:
		return mag, -mag
	}
}

// Read1Delta reads a 1-delta, a signed-integer along an implied axis.
func (r *Reader) Read1Delta() (int64, error) {
	return r.ReadSint()
}

// Read2Delta reads a Manhattan delta: direction in the low 2 bits.
func (r *Reader) Read2Delta() (dx, dy int64, err error) {
	u, err := r.ReadUint()
	if err != nil {
		return 0, 0, err
	}
	dx, dy = DirectionVector(u&3, int64(u>>2))
	return dx, dy, nil
}

// Read3Delta reads an octangular delta: direction in the low 3 bits.
func (r *Reader) Read3Delta() (dx, dy int64, err error) {
	u, err := r.ReadUint()
	if err != nil {
		return 0, 0, err
	}
	dx, dy = DirectionVector(u&7, int64(u>>3))
	return dx, dy, nil
}

// ReadGDelta reads a g-delta in either of its two forms.
func (r *Reader) ReadGDelta() (dx, dy int64, err error) {
	u, err := r.ReadUint()
	if err != nil {
		return 0, 0, err
	}
	if u&1 == 0 {
		dx, dy = DirectionVector((u>>1)&7, int64(u>>4))
		return dx, dy, nil
	}
	dx = int64(u >> 2)
	if u&2 != 0 {
		dx = -dx
	}
	dy, err = r.ReadSint()
	if err != nil {
		return 0, 0, err
	}
	return dx, dy, nil
}
