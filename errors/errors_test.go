package errors

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestError_Error(t *testing.T) {
	tests := []struct {
		name     string
		err      *Error
		contains []string
		excludes []string
	}{
		{
			name: "full error",
			err: &Error{
				Phase:  PhaseDecode,
				Kind:   KindReference,
				Record: "PLACEMENT",
				Offset: 120,
				Detail: "cellname reference 4 undefined",
			},
			contains: []string{"[decode]", "reference", "in PLACEMENT", "at offset 120", "reference 4 undefined"},
		},
		{
			name: "minimal error",
			err: &Error{
				Phase:  PhaseScan,
				Kind:   KindStructural,
				Offset: NoOffset,
			},
			contains: []string{"[scan]", "structural"},
			excludes: []string{"offset"},
		},
		{
			name: "error with cause",
			err: &Error{
				Phase:  PhaseIO,
				Kind:   KindResource,
				Offset: NoOffset,
				Detail: "write output",
				Cause:  errors.New("disk full"),
			},
			contains: []string{"[io]", "resource", "write output", "caused by", "disk full"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg := tt.err.Error()
			for _, s := range tt.contains {
				if !strings.Contains(msg, s) {
					t.Errorf("error message %q does not contain %q", msg, s)
				}
			}
			for _, s := range tt.excludes {
				if strings.Contains(msg, s) {
					t.Errorf("error message %q should not contain %q", msg, s)
				}
			}
		})
	}
}

func TestError_Unwrap(t *testing.T) {
	cause := errors.New("root cause")
	err := Resource(PhaseIO, cause, "read input")

	if !errors.Is(err.Unwrap(), cause) {
		t.Error("Unwrap did not return cause")
	}
	if !errors.Is(err, cause) {
		t.Error("errors.Is did not find cause through the chain")
	}
}

func TestError_Is(t *testing.T) {
	err := &Error{
		Phase:  PhaseDecode,
		Kind:   KindConformance,
		Record: "TEXT",
	}

	if !err.Is(&Error{Phase: PhaseDecode, Kind: KindConformance}) {
		t.Error("Is should match same phase and kind")
	}
	if err.Is(&Error{Phase: PhaseEncode, Kind: KindConformance}) {
		t.Error("Is should not match different phase")
	}
	if err.Is(&Error{Phase: PhaseDecode, Kind: KindStructural}) {
		t.Error("Is should not match different kind")
	}

	wrapped := fmt.Errorf("parse: %w", err)
	if !errors.Is(wrapped, &Error{Phase: PhaseDecode, Kind: KindConformance}) {
		t.Error("errors.Is should match through fmt wrapping")
	}
}

func TestBuilder(t *testing.T) {
	cause := errors.New("root")
	err := New(PhaseEncode, KindStructural).
		Record("RECTANGLE").
		Offset(77).
		Value(42).
		Cause(cause).
		Detail("expected %s, got %s", "cell", "file").
		Build()

	if err.Phase != PhaseEncode {
		t.Errorf("Phase = %v, want %v", err.Phase, PhaseEncode)
	}
	if err.Kind != KindStructural {
		t.Errorf("Kind = %v, want %v", err.Kind, KindStructural)
	}
	if err.Record != "RECTANGLE" {
		t.Errorf("Record = %v, want RECTANGLE", err.Record)
	}
	if err.Offset != 77 {
		t.Errorf("Offset = %v, want 77", err.Offset)
	}
	if err.Value != 42 {
		t.Errorf("Value = %v, want 42", err.Value)
	}
	if !errors.Is(err.Cause, cause) {
		t.Errorf("Cause = %v, want %v", err.Cause, cause)
	}
	if err.Detail != "expected cell, got file" {
		t.Errorf("Detail = %v, want 'expected cell, got file'", err.Detail)
	}
}

func TestBuilderDefaultsToNoOffset(t *testing.T) {
	err := New(PhaseDecode, KindStructural).Build()
	if err.Offset != NoOffset {
		t.Errorf("Offset = %d, want NoOffset", err.Offset)
	}
}

func TestKindPredicates(t *testing.T) {
	tests := []struct {
		name string
		err  error
		pred func(error) bool
	}{
		{"structural", Structural(PhaseScan, 3, "truncated"), IsStructural},
		{"conformance", Conformance(PhaseDecode, 3, "unused bits"), IsConformance},
		{"reference", Reference(PhaseDecode, 3, "dangling"), IsReference},
		{"resource", Resource(PhaseIO, errors.New("eof"), "read"), IsResource},
		{"enum", InvalidEnum(PhaseScan, 3, 9, "real type"), IsStructural},
		{"wrapped", fmt.Errorf("outer: %w", Reference(PhaseExtract, NoOffset, "no cell")), IsReference},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if !tt.pred(tt.err) {
				t.Errorf("predicate false for %v", tt.err)
			}
		})
	}

	if IsStructural(errors.New("plain")) {
		t.Error("plain error classified as structural")
	}
	if _, ok := KindOf(nil); ok {
		t.Error("KindOf(nil) reported a kind")
	}
}

func TestInvalidEnumCarriesValue(t *testing.T) {
	err := InvalidEnum(PhaseScan, 10, uint64(12), "repetition type")
	if err.Value != uint64(12) {
		t.Errorf("Value = %v, want 12", err.Value)
	}
	if !strings.Contains(err.Detail, "repetition type 12") {
		t.Errorf("Detail = %q", err.Detail)
	}
}

func TestWrap(t *testing.T) {
	cause := errors.New("inflate failed")
	err := Wrap(PhaseDecode, KindStructural, cause, "CBLOCK")
	if !errors.Is(err, cause) {
		t.Error("Wrap lost cause")
	}
	if err.Offset != NoOffset {
		t.Errorf("Offset = %d, want NoOffset", err.Offset)
	}
}
