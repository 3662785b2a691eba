package oasis

import (
	"testing"

	"github.com/maxatome/go-testdeep/td"
)

func names(ns []Name) []string {
	out := make([]string, len(ns))
	for i, n := range ns {
		out[i] = n.String()
	}
	return out
}

func TestArenaIntern(t *testing.T) {
	a := NewArena()
	top := a.Intern(KindCellName, "TOP")
	td.Cmp(t, a.Intern(KindCellName, "TOP"), top)
	td.CmpNot(t, a.Intern(KindTextString, "TOP"), top)
	td.Cmp(t, a.Len(), 2)

	got, ok := a.Find(KindCellName, "TOP")
	td.CmpTrue(t, ok)
	td.Cmp(t, got, top)
	_, ok = a.Find(KindPropName, "TOP")
	td.CmpFalse(t, ok)

	td.Cmp(t, top.Kind(), KindCellName)
	td.CmpTrue(t, Name{}.IsZero())
	td.Cmp(t, Name{}.String(), "")
}

func TestArenaForeignName(t *testing.T) {
	n := NewArena().Intern(KindXName, "x")
	td.CmpPanic(t, func() { NewArena().SetAttribute(n, 1) }, td.Contains("another arena"))
}

func TestNameTableRegister(t *testing.T) {
	a := NewArena()
	tab := NewNameTable(KindCellName)
	td.CmpTrue(t, tab.IsStrict())
	td.CmpTrue(t, tab.Empty())

	td.Cmp(t, tab.Register(a.Intern(KindCellName, "A")), uint64(0))
	td.Cmp(t, tab.Register(a.Intern(KindCellName, "B")), uint64(1))
	td.Cmp(t, tab.Register(a.Intern(KindCellName, "A")), uint64(0))
	td.Cmp(t, names(tab.Names()), []string{"A", "B"})

	n, ok := tab.Lookup(1)
	td.CmpTrue(t, ok)
	td.Cmp(t, n.String(), "B")
	_, ok = tab.Lookup(2)
	td.CmpFalse(t, ok)
}

func TestNameTableRegisterSkipsDefined(t *testing.T) {
	a := NewArena()
	tab := NewNameTable(KindPropName)
	td.CmpNoError(t, tab.Define(0, a.Intern(KindPropName, "x")))
	td.CmpNoError(t, tab.Define(1, a.Intern(KindPropName, "y")))
	td.Cmp(t, tab.Register(a.Intern(KindPropName, "z")), uint64(2))
}

func TestNameTableDefine(t *testing.T) {
	a := NewArena()
	tab := NewNameTable(KindTextString)
	foo := a.Intern(KindTextString, "foo")
	bar := a.Intern(KindTextString, "bar")

	td.CmpNoError(t, tab.Define(7, foo))
	td.CmpNoError(t, tab.Define(7, foo))
	td.Cmp(t, tab.Define(7, bar), td.ErrorIs(ErrRefnumConflict))
	td.Cmp(t, tab.Define(8, foo), td.ErrorIs(ErrDuplicateName))

	ref, ok := tab.LookupRefnum(foo)
	td.CmpTrue(t, ok)
	td.Cmp(t, ref, uint64(7))
	n, ok := tab.Lookup(8)
	td.CmpTrue(t, ok)
	td.Cmp(t, n.String(), "foo")
}

func TestNameTableStrictIsMonotonic(t *testing.T) {
	tab := NewNameTable(KindCellName)
	tab.MarkNonStrict()
	td.CmpFalse(t, tab.IsStrict())
	tab.Register(NewArena().Intern(KindCellName, "A"))
	tab.MarkNonStrict()
	td.CmpFalse(t, tab.IsStrict())
}

func TestNameTablesOrder(t *testing.T) {
	ts := newNameTables()
	var kinds []string
	for _, tab := range ts {
		kinds = append(kinds, tab.Kind().String())
	}
	td.Cmp(t, kinds, []string{"CELLNAME", "TEXTSTRING", "PROPNAME", "PROPSTRING", "LAYERNAME", "XNAME"})
	td.Cmp(t, NameKind(9).String(), "NameKind(9)")
}
