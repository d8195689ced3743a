package dataset

import (
	"fmt"

	"github.com/ctessum/geom"
)

// Dataset is the root of the phenomenon → property-set → property hierarchy.
// Every level keeps its children in insertion order.
type Dataset struct {
	order     []string
	phenomena map[string]*Phenomenon
}

type Phenomenon struct {
	Name  string
	order []string
	sets  map[string]*PropertySet
}

// PropertySet groups properties that share one spatial representation. Tag
// holds the space_type exactly as stored; SpaceType classifies it.
type PropertySet struct {
	Name       string
	Tag        string
	phenomenon string
	order      []string
	props      map[string]*Property
}

// Property is either point data (Coordinates + Values) or field data
// (one Field per object id).
type Property struct {
	Name string

	// Coordinates holds one point per agent; index is agent identity.
	Coordinates []geom.Point
	// Values is rank 1 for static sets and agent×timestep for dynamic ones.
	Values Array
	// Trajectory holds per-timestep coordinates of mobile agents.
	Trajectory [][]geom.Point

	objects []int
	fields  map[int]*Field
}

// Field is one gridded object. XCoord and YCoord are uniformly spaced axis
// samples; YCoord ascends, so its last sample is the bottom of the top row.
type Field struct {
	Values Array
	XCoord []float64
	YCoord []float64
}

func New() *Dataset {
	return &Dataset{phenomena: make(map[string]*Phenomenon)}
}

// AddPhenomenon returns the named phenomenon, creating it when missing.
func (d *Dataset) AddPhenomenon(name string) *Phenomenon {
	if p, ok := d.phenomena[name]; ok {
		return p
	}
	p := &Phenomenon{Name: name, sets: make(map[string]*PropertySet)}
	d.order = append(d.order, name)
	d.phenomena[name] = p
	return p
}

func (d *Dataset) Phenomena() []*Phenomenon {
	out := make([]*Phenomenon, len(d.order))
	for i, n := range d.order {
		out[i] = d.phenomena[n]
	}
	return out
}

func (d *Dataset) Phenomenon(name string) (*Phenomenon, error) {
	p, ok := d.phenomena[name]
	if !ok {
		return nil, fmt.Errorf("%w: phenomenon %q", ErrNotFound, name)
	}
	return p, nil
}

// PropertySet looks up phenomenon/propertySet in one call.
func (d *Dataset) PropertySet(phenomenon, propertySet string) (*PropertySet, error) {
	p, err := d.Phenomenon(phenomenon)
	if err != nil {
		return nil, err
	}
	return p.PropertySet(propertySet)
}

// Coordinates returns the agent coordinates of a point property-set at the
// 1-based timestep. Sets without a stored trajectory return their static
// coordinates for every timestep.
func (d *Dataset) Coordinates(phenomenon, propertySet string, timestep int) ([]geom.Point, error) {
	ps, err := d.PropertySet(phenomenon, propertySet)
	if err != nil {
		return nil, err
	}
	props := ps.Properties()
	if len(props) == 0 {
		return nil, fmt.Errorf("%w: %s/%s has no properties", ErrNotFound, phenomenon, propertySet)
	}
	first := props[0]
	if len(first.Trajectory) == 0 {
		return first.Coordinates, nil
	}
	if timestep < 1 || timestep > len(first.Trajectory) {
		return nil, fmt.Errorf("%w: timestep %d outside [1, %d]", ErrShapeMismatch, timestep, len(first.Trajectory))
	}
	return first.Trajectory[timestep-1], nil
}

// AddPropertySet returns the named property-set, creating it with tag when
// missing. The tag of an existing set is left untouched.
func (p *Phenomenon) AddPropertySet(name, tag string) *PropertySet {
	if ps, ok := p.sets[name]; ok {
		return ps
	}
	ps := &PropertySet{Name: name, Tag: tag, phenomenon: p.Name, props: make(map[string]*Property)}
	p.order = append(p.order, name)
	p.sets[name] = ps
	return ps
}

func (p *Phenomenon) PropertySets() []*PropertySet {
	out := make([]*PropertySet, len(p.order))
	for i, n := range p.order {
		out[i] = p.sets[n]
	}
	return out
}

func (p *Phenomenon) PropertySet(name string) (*PropertySet, error) {
	ps, ok := p.sets[name]
	if !ok {
		return nil, fmt.Errorf("%w: property set %q in %q", ErrNotFound, name, p.Name)
	}
	return ps, nil
}

// SpaceType classifies the set's tag.
func (ps *PropertySet) SpaceType() (SpaceType, error) {
	if ps.Tag == "" {
		return 0, &SpaceTypeError{Phenomenon: ps.phenomenon, PropertySet: ps.Name, Kind: ErrUnsupportedSpaceType}
	}
	st, err := ParseSpaceType(ps.Tag)
	if err != nil {
		return 0, &SpaceTypeError{Phenomenon: ps.phenomenon, PropertySet: ps.Name, Tag: ps.Tag, Kind: ErrUnsupportedSpaceType}
	}
	return st, nil
}

// Phenomenon is the name of the owning phenomenon.
func (ps *PropertySet) Phenomenon() string { return ps.phenomenon }

// AddPointProperty stores a point property. Values must have one entry (or
// one row) per coordinate.
func (ps *PropertySet) AddPointProperty(name string, coords []geom.Point, values Array) (*Property, error) {
	if values.Len() != len(coords) {
		return nil, fmt.Errorf("%w: property %q has %d coordinates and %d value rows", ErrShapeMismatch, name, len(coords), values.Len())
	}
	if values.Rank() != 1 && values.Rank() != 2 {
		return nil, fmt.Errorf("%w: property %q values have rank %d", ErrShapeMismatch, name, values.Rank())
	}
	prop := &Property{Name: name, Coordinates: coords, Values: values}
	ps.put(prop)
	return prop, nil
}

// AddFieldProperty returns an empty field property ready for AddField.
func (ps *PropertySet) AddFieldProperty(name string) *Property {
	prop := &Property{Name: name, fields: make(map[int]*Field)}
	ps.put(prop)
	return prop
}

func (ps *PropertySet) put(prop *Property) {
	if _, ok := ps.props[prop.Name]; !ok {
		ps.order = append(ps.order, prop.Name)
	}
	ps.props[prop.Name] = prop
}

func (ps *PropertySet) Properties() []*Property {
	out := make([]*Property, len(ps.order))
	for i, n := range ps.order {
		out[i] = ps.props[n]
	}
	return out
}

func (ps *PropertySet) Property(name string) (*Property, error) {
	prop, ok := ps.props[name]
	if !ok {
		return nil, fmt.Errorf("%w: property %q in %q", ErrNotFound, name, ps.Name)
	}
	return prop, nil
}

// AddField stores the grid of one object. Values must be rank 2 (rows×cols)
// or rank 3 (time×rows×cols) and the axes must match the trailing dimensions.
func (p *Property) AddField(id int, f *Field) error {
	r := f.Values.Rank()
	if r != 2 && r != 3 {
		return fmt.Errorf("%w: object %d of %q has rank %d values", ErrShapeMismatch, id, p.Name, r)
	}
	if len(f.YCoord) != f.Rows() || len(f.XCoord) != f.Cols() {
		return fmt.Errorf("%w: object %d of %q is %dx%d with %d y and %d x samples",
			ErrShapeMismatch, id, p.Name, f.Rows(), f.Cols(), len(f.YCoord), len(f.XCoord))
	}
	if p.fields == nil {
		p.fields = make(map[int]*Field)
	}
	if _, ok := p.fields[id]; !ok {
		p.objects = append(p.objects, id)
	}
	p.fields[id] = f
	return nil
}

// IsField reports whether the property holds gridded objects.
func (p *Property) IsField() bool { return p.fields != nil }

// Objects returns object ids in insertion order.
func (p *Property) Objects() []int {
	out := make([]int, len(p.objects))
	copy(out, p.objects)
	return out
}

func (p *Property) Field(id int) (*Field, error) {
	f, ok := p.fields[id]
	if !ok {
		return nil, fmt.Errorf("%w: object %d of %q", ErrNotFound, id, p.Name)
	}
	return f, nil
}

// Timesteps is the stored timestep count of a dynamic point property.
func (p *Property) Timesteps() int {
	if p.Values.Rank() != 2 {
		return 0
	}
	return p.Values.Shape[1]
}

func (f *Field) Rows() int {
	n := f.Values.Rank()
	if n < 2 {
		return 0
	}
	return f.Values.Shape[n-2]
}

func (f *Field) Cols() int {
	n := f.Values.Rank()
	if n < 2 {
		return 0
	}
	return f.Values.Shape[n-1]
}
