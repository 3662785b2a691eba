package oasis

// Builder receives the semantic events of an OASIS file. The Parser drives
// a Builder; the Creator implements one. Returning an error aborts the
// session.
//
// Events arrive in this order: BeginFile, the Register calls for every
// name, file properties, then per cell BeginCell, cell properties, the
// elements, EndCell, and finally EndFile. Each element is a Begin call,
// its element properties and EndElement. Repetitions are never of type
// Reuse.
type Builder interface {
	BeginFile(version string, unit Real, scheme ValidationScheme) error
	EndFile() error

	BeginCell(name Name) error
	EndCell() error

	BeginPlacement(p *Placement) error
	BeginText(t *Text) error
	BeginRectangle(r *Rectangle) error
	BeginPolygon(p *Polygon) error
	BeginPath(p *Path) error
	BeginTrapezoid(t *Trapezoid) error
	BeginCTrapezoid(t *CTrapezoid) error
	BeginCircle(c *Circle) error
	BeginXElement(x *XElement) error
	BeginXGeometry(x *XGeometry) error
	EndElement() error

	AddFileProperty(p *Property) error
	AddCellProperty(p *Property) error
	AddElementProperty(p *Property) error

	RegisterCellName(n Name) error
	RegisterTextString(n Name) error
	RegisterPropName(n Name) error
	RegisterPropString(n Name) error
	RegisterLayerName(l *LayerName) error
	RegisterXName(n Name) error
}

// NopBuilder ignores every event. Embed it to implement only some methods.
type NopBuilder struct{}

var _ Builder = NopBuilder{}

func (NopBuilder) BeginFile(string, Real, ValidationScheme) error { return nil }
func (NopBuilder) EndFile() error                                 { return nil }
func (NopBuilder) BeginCell(Name) error                           { return nil }
func (NopBuilder) EndCell() error                                 { return nil }
func (NopBuilder) BeginPlacement(*Placement) error                { return nil }
func (NopBuilder) BeginText(*Text) error                          { return nil }
func (NopBuilder) BeginRectangle(*Rectangle) error                { return nil }
func (NopBuilder) BeginPolygon(*Polygon) error                    { return nil }
func (NopBuilder) BeginPath(*Path) error                          { return nil }
func (NopBuilder) BeginTrapezoid(*Trapezoid) error                { return nil }
func (NopBuilder) BeginCTrapezoid(*CTrapezoid) error              { return nil }
func (NopBuilder) BeginCircle(*Circle) error                      { return nil }
func (NopBuilder) BeginXElement(*XElement) error                  { return nil }
func (NopBuilder) BeginXGeometry(*XGeometry) error                { return nil }
func (NopBuilder) EndElement() error                              { return nil }
func (NopBuilder) AddFileProperty(*Property) error                { return nil }
func (NopBuilder) AddCellProperty(*Property) error                { return nil }
func (NopBuilder) AddElementProperty(*Property) error             { return nil }
func (NopBuilder) RegisterCellName(Name) error                    { return nil }
func (NopBuilder) RegisterTextString(Name) error                  { return nil }
func (NopBuilder) RegisterPropName(Name) error                    { return nil }
func (NopBuilder) RegisterPropString(Name) error                  { return nil }
func (NopBuilder) RegisterLayerName(*LayerName) error             { return nil }
func (NopBuilder) RegisterXName(Name) error                       { return nil }
