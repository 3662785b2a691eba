package oasis

import (
	stderrors "errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/wippyai/oasis/errors"
)

// checker decides what happens to a conformance violation: an error under
// strict conformance, a warning otherwise.
type checker struct {
	strict bool
	log    *zap.Logger
}

func (c *checker) violation(phase errors.Phase, off int64, rec recordID, format string, args ...any) error {
	detail := fmt.Sprintf(format, args...)
	if c.strict {
		return errors.New(phase, errors.KindConformance).
			Record(rec.String()).
			Offset(off).
			Detail("%s", detail).
			Build()
	}
	c.log.Warn("tolerated conformance violation",
		zap.String("record", rec.String()),
		zap.Int64("offset", off),
		zap.String("detail", detail))
	return nil
}

// aString checks the a-string character set: printable ASCII, relaxed to
// 0x01..0x7f.
func (c *checker) aString(off int64, rec recordID, s []byte) error {
	for _, b := range s {
		if b >= 0x20 && b <= 0x7e {
			continue
		}
		if !c.strict && b >= 0x01 && b <= 0x7f {
			continue
		}
		return c.violation(errors.PhaseScan, off, rec, "invalid character 0x%02x in a-string %q", b, s)
	}
	return nil
}

// nString checks the n-string character set: non-empty printable ASCII
// without space, relaxed to 0x01..0x7f.
func (c *checker) nString(off int64, rec recordID, s []byte) error {
	if len(s) == 0 {
		return c.violation(errors.PhaseScan, off, rec, "empty n-string")
	}
	for _, b := range s {
		if b >= 0x21 && b <= 0x7e {
			continue
		}
		if !c.strict && b >= 0x01 && b <= 0x7f {
			continue
		}
		return c.violation(errors.PhaseScan, off, rec, "invalid character 0x%02x in n-string %q", b, s)
	}
	return nil
}

// annotate fills in the record name of an error raised below the record
// layer.
func annotate(err error, rec recordID) error {
	var e *errors.Error
	if stderrors.As(err, &e) && e.Record == "" {
		e.Record = rec.String()
	}
	return err
}
