package oasis

import (
	stderrors "errors"
	"fmt"
)

// NameKind is one of the six name categories.
type NameKind uint8

const (
	KindCellName NameKind = iota
	KindTextString
	KindPropName
	KindPropString
	KindLayerName
	KindXName
)

// numNameKinds is also the number of table-offset pairs in START and END.
const numNameKinds = 6

var nameKindNames = [numNameKinds]string{
	"CELLNAME", "TEXTSTRING", "PROPNAME", "PROPSTRING", "LAYERNAME", "XNAME",
}

func (k NameKind) String() string {
	if k < numNameKinds {
		return nameKindNames[k]
	}
	return fmt.Sprintf("NameKind(%d)", uint8(k))
}

type nameKey struct {
	kind NameKind
	s    string
}

type nameEntry struct {
	s     string
	kind  NameKind
	props []*Property
	attr  uint64
}

// Arena interns names for one file session. Identical strings of one kind
// map to the same Name. Not safe for concurrent use.
type Arena struct {
	entries []nameEntry
	index   map[nameKey]uint32
}

// NewArena creates an empty arena.
func NewArena() *Arena {
	return &Arena{index: make(map[nameKey]uint32)}
}

// Intern returns the handle for s in category kind, creating it if needed.
func (a *Arena) Intern(kind NameKind, s string) Name {
	k := nameKey{kind: kind, s: s}
	if id, ok := a.index[k]; ok {
		return Name{arena: a, id: id}
	}
	id := uint32(len(a.entries))
	a.entries = append(a.entries, nameEntry{s: s, kind: kind})
	a.index[k] = id
	return Name{arena: a, id: id}
}

// Find returns the existing handle for s, if any.
func (a *Arena) Find(kind NameKind, s string) (Name, bool) {
	id, ok := a.index[nameKey{kind: kind, s: s}]
	if !ok {
		return Name{}, false
	}
	return Name{arena: a, id: id}, true
}

// Len returns the number of interned names.
func (a *Arena) Len() int {
	return len(a.entries)
}

// AddProperty attaches p to the name record of n.
func (a *Arena) AddProperty(n Name, p *Property) {
	if n.arena != a {
		panic("oasis: name belongs to another arena")
	}
	e := &a.entries[n.id]
	e.props = append(e.props, p)
}

// SetAttribute sets the XNAME attribute of n.
func (a *Arena) SetAttribute(n Name, attr uint64) {
	if n.arena != a {
		panic("oasis: name belongs to another arena")
	}
	a.entries[n.id].attr = attr
}

// Name is an interned name handle. The zero Name is "no name".
type Name struct {
	arena *Arena
	id    uint32
}

func (n Name) entry() *nameEntry {
	if n.arena == nil {
		return nil
	}
	return &n.arena.entries[n.id]
}

// IsZero reports whether n is the zero Name.
func (n Name) IsZero() bool {
	return n.arena == nil
}

// String returns the name text.
func (n Name) String() string {
	if e := n.entry(); e != nil {
		return e.s
	}
	return ""
}

// Kind returns the category of n.
func (n Name) Kind() NameKind {
	if e := n.entry(); e != nil {
		return e.kind
	}
	return 0
}

// Properties returns the properties attached to the name record.
func (n Name) Properties() []*Property {
	if e := n.entry(); e != nil {
		return e.props
	}
	return nil
}

// Attribute returns the XNAME attribute.
func (n Name) Attribute() uint64 {
	if e := n.entry(); e != nil {
		return e.attr
	}
	return 0
}

// Errors returned by NameTable.Define.
var (
	ErrRefnumConflict = stderrors.New("reference number already bound to another name")
	ErrDuplicateName  = stderrors.New("name already bound to another reference number")
)

// NameTable maps the names of one category to reference numbers.
// Not safe for concurrent use.
type NameTable struct {
	kind   NameKind
	byName map[string]uint64
	byRef  map[uint64]Name
	names  []Name
	next   uint64
	strict bool
	offset int64
}

// NewNameTable creates an empty, strict table.
func NewNameTable(kind NameKind) *NameTable {
	return &NameTable{
		kind:   kind,
		byName: make(map[string]uint64),
		byRef:  make(map[uint64]Name),
		strict: true,
	}
}

// Kind returns the table category.
func (t *NameTable) Kind() NameKind {
	return t.kind
}

// LookupRefnum returns the reference number of n.
func (t *NameTable) LookupRefnum(n Name) (uint64, bool) {
	ref, ok := t.byName[n.String()]
	return ref, ok
}

// Lookup returns the name bound to ref.
func (t *NameTable) Lookup(ref uint64) (Name, bool) {
	n, ok := t.byRef[ref]
	return n, ok
}

// Find returns the registered name with text s.
func (t *NameTable) Find(s string) (Name, bool) {
	ref, ok := t.byName[s]
	if !ok {
		return Name{}, false
	}
	return t.byRef[ref], true
}

// Register returns the reference number of n, assigning the next unused
// one if n is new. Numbers are assigned in registration order.
func (t *NameTable) Register(n Name) uint64 {
	if ref, ok := t.byName[n.String()]; ok {
		return ref
	}
	for {
		if _, used := t.byRef[t.next]; !used {
			break
		}
		t.next++
	}
	ref := t.next
	t.next++
	t.bind(ref, n)
	return ref
}

// Define binds n to an explicit reference number read from a file.
// Redefining the same binding is a no-op.
func (t *NameTable) Define(ref uint64, n Name) error {
	if old, ok := t.byRef[ref]; ok {
		if old.String() == n.String() {
			return nil
		}
		return fmt.Errorf("%w: %s %d is %q, redefined as %q", ErrRefnumConflict, t.kind, ref, old.String(), n.String())
	}
	if old, ok := t.byName[n.String()]; ok {
		t.byRef[ref] = n
		return fmt.Errorf("%w: %s %q is %d, redefined as %d", ErrDuplicateName, t.kind, n.String(), old, ref)
	}
	t.bind(ref, n)
	return nil
}

func (t *NameTable) bind(ref uint64, n Name) {
	t.byName[n.String()] = ref
	t.byRef[ref] = n
	t.names = append(t.names, n)
}

// MarkNonStrict records that the table was bypassed by a literal name. It
// is idempotent and cannot be undone.
func (t *NameTable) MarkNonStrict() {
	t.strict = false
}

// IsStrict reports whether every occurrence used a reference number.
func (t *NameTable) IsStrict() bool {
	return t.strict
}

// Empty reports whether the table has no names.
func (t *NameTable) Empty() bool {
	return len(t.names) == 0
}

// Len returns the number of names.
func (t *NameTable) Len() int {
	return len(t.names)
}

// SetOffset records the file offset of the table's first record.
func (t *NameTable) SetOffset(off int64) {
	t.offset = off
}

// Offset returns the recorded file offset, or 0.
func (t *NameTable) Offset() int64 {
	return t.offset
}

// Names returns the names in registration order.
func (t *NameTable) Names() []Name {
	result := make([]Name, len(t.names))
	copy(result, t.names)
	return result
}

// nameTables holds one table per category.
type nameTables [numNameKinds]*NameTable

func newNameTables() nameTables {
	var ts nameTables
	for k := range ts {
		ts[k] = NewNameTable(NameKind(k))
	}
	return ts
}
