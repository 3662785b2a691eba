package binary

import (
	"bytes"
	"encoding/binary"
	"math"
)

// Writer accumulates encoded OASIS fields.
type Writer struct {
	buf *bytes.Buffer
}

// NewWriter creates a new Writer.
func NewWriter() *Writer {
	return &Writer{buf: &bytes.Buffer{}}
}

// Bytes returns the written bytes.
func (w *Writer) Bytes() []byte {
	return w.buf.Bytes()
}

// Len returns the number of bytes written.
func (w *Writer) Len() int {
	return w.buf.Len()
}

// Reset discards the written bytes, keeping the allocation.
func (w *Writer) Reset() {
	w.buf.Reset()
}

// Byte writes a single byte.
func (w *Writer) Byte(b byte) {
	w.buf.WriteByte(b)
}

// WriteBytes writes a byte slice.
func (w *Writer) WriteBytes(data []byte) {
	w.buf.Write(data)
}

// WriteUint writes an unsigned-integer.
func (w *Writer) WriteUint(v uint64) {
	for {
		b := byte(v & 0x7f)
		v >>= 7
		if v != 0 {
			b |= 0x80
		}
		w.buf.WriteByte(b)
		if v == 0 {
			break
		}
	}
}

// WriteUintWidth writes v as an unsigned-integer occupying exactly width
// bytes, padding with continuation groups. width must be at least the
// minimal encoded size of v.
func (w *Writer) WriteUintWidth(v uint64, width int) {
	for i := 0; i < width; i++ {
		b := byte(v & 0x7f)
		v >>= 7
		if i < width-1 {
			b |= 0x80
		}
		w.buf.WriteByte(b)
	}
}

// UintSize returns the minimal encoded size of v.
func UintSize(v uint64) int {
	n := 1
	for v >= 0x80 {
		v >>= 7
		n++
	}
	return n
}

// WriteSint writes a signed-integer.
func (w *Writer) WriteSint(v int64) {
	if v < 0 {
		w.WriteUint((uint64(^v)+1)<<1 | 1)
		return
	}
	w.WriteUint(uint64(v) << 1)
}

// WriteReal writes a real in its recorded form.
func (w *Writer) WriteReal(v Real) {
	w.WriteUint(uint64(v.Form))
	switch v.Form {
	case 0, 1:
		w.WriteUint(v.Num)
	case 2, 3:
		w.WriteUint(v.Den)
	case 4, 5:
		w.WriteUint(v.Num)
		w.WriteUint(v.Den)
	case 6:
		var b [4]byte
		binary.LittleEndian.PutUint32(b[:], math.Float32bits(float32(v.Float)))
		w.buf.Write(b[:])
	default:
		var b [8]byte
		binary.LittleEndian.PutUint64(b[:], math.Float64bits(v.Float))
		w.buf.Write(b[:])
	}
}

// WriteString writes a length-prefixed string.
func (w *Writer) WriteString(s string) {
	w.WriteUint(uint64(len(s)))
	w.buf.WriteString(s)
}

// WriteUint32LE writes a fixed four-byte little-endian value.
func (w *Writer) WriteUint32LE(v uint32) {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], v)
	w.buf.Write(b[:])
}

func abs(v int64) uint64 {
	if v < 0 {
		return uint64(^v) + 1
	}
	return uint64(v)
}

// Direction returns the octangular direction of (dx, dy) and its
// magnitude. ok is false when the vector is not octangular.
func Direction(dx, dy int64) (dir uint64, mag uint64, ok bool) {
	switch {
	case dy == 0 && dx >= 0:
		return DirEast, abs(dx), true
	case dy == 0:
		return DirWest, abs(dx), true
	case dx == 0 && dy > 0:
		return DirNorth, abs(dy), true
	case dx == 0:
		return DirSouth, abs(dy), true
	case dx == dy && dx > 0:
		return DirNorthEast, abs(dx), true
	case dx == dy:
		return DirSouthWest, abs(dx), true
	case dx == -dy && dx < 0:
		return DirNorthWest, abs(dx), true
	case dx == -dy:
		return DirSouthEast, abs(dx), true
	}
	return 0, 0, false
}

// Write1Delta writes a 1-delta.
func (w *Writer) Write1Delta(d int64) {
	w.WriteSint(d)
}

// Write2Delta writes a Manhattan delta. The vector must be axis-aligned.
func (w *Writer) Write2Delta(dx, dy int64) {
	dir, mag, _ := Direction(dx, dy)
	w.WriteUint(mag<<2 | dir&3)
}

// Write3Delta writes an octangular delta. The vector must be octangular.
func (w *Writer) Write3Delta(dx, dy int64) {
	dir, mag, _ := Direction(dx, dy)
	w.WriteUint(mag<<3 | dir)
}

// WriteGDelta writes a g-delta, using the one-integer form when the
// vector is octangular and small enough.
func (w *Writer) WriteGDelta(dx, dy int64) {
	if dir, mag, ok := Direction(dx, dy); ok && mag < 1<<59 {
		w.WriteUint(mag<<4 | dir<<1)
		return
	}
	u := abs(dx) << 2
	if dx < 0 {
		u |= 2
	}
	w.WriteUint(u | 1)
	w.WriteSint(dy)
}
