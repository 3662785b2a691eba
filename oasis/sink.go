package oasis

import (
	"hash/crc32"
	"io"

	"github.com/wippyai/oasis/errors"
)

// sink writes the output stream, tracking the file offset and the running
// validation signatures.
type sink struct {
	w   io.Writer
	off int64
	crc uint32
	sum uint32
	err error
}

func (s *sink) write(b []byte) error {
	if s.err != nil {
		return s.err
	}
	n, err := s.w.Write(b)
	s.off += int64(n)
	if err != nil {
		s.err = errors.New(errors.PhaseEncode, errors.KindResource).
			Offset(s.off).
			Cause(err).
			Detail("write failed").
			Build()
		return s.err
	}
	s.crc = crc32.Update(s.crc, crc32.IEEETable, b)
	for _, c := range b {
		s.sum += uint32(c)
	}
	return nil
}

func (s *sink) signature(scheme ValidationScheme) uint32 {
	if scheme == ValidationCRC32 {
		return s.crc
	}
	return s.sum
}
