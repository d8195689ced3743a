package dataset

import (
	"bytes"
	"fmt"
	"io"
	"math"
	"os"
	"slices"

	"github.com/ctessum/geom"
	"gopkg.in/yaml.v3"
)

type document struct {
	Phenomena []phenomenonDoc `yaml:"phenomena"`
}

type phenomenonDoc struct {
	Name         string           `yaml:"name"`
	PropertySets []propertySetDoc `yaml:"property_sets"`
}

type propertySetDoc struct {
	Name       string        `yaml:"name"`
	SpaceType  string        `yaml:"space_type"`
	Properties []propertyDoc `yaml:"properties"`
}

type propertyDoc struct {
	Name        string         `yaml:"name"`
	DType       DType          `yaml:"dtype"`
	Coordinates [][2]float64   `yaml:"coordinates"`
	Values      yaml.Node      `yaml:"values"`
	Trajectory  [][][2]float64 `yaml:"trajectory"`
	Objects     []objectDoc    `yaml:"objects"`
}

type objectDoc struct {
	ID     int       `yaml:"id"`
	XCoord []float64 `yaml:"xcoord"`
	YCoord []float64 `yaml:"ycoord"`
	Values yaml.Node `yaml:"values"`
}

// Load reads a YAML dataset document from path.
func Load(path string) (*Dataset, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Decode(bytes.NewReader(data))
}

// Decode reads a YAML dataset document. Space-type tags are stored as given
// and only classified when an export asks for them.
func Decode(r io.Reader) (*Dataset, error) {
	var doc document
	if err := yaml.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("decoding dataset: %w", err)
	}

	ds := New()
	for _, pd := range doc.Phenomena {
		phen := ds.AddPhenomenon(pd.Name)
		for _, sd := range pd.PropertySets {
			ps := phen.AddPropertySet(sd.Name, sd.SpaceType)
			for _, prd := range sd.Properties {
				if err := addProperty(ps, prd); err != nil {
					return nil, fmt.Errorf("%s/%s/%s: %w", pd.Name, sd.Name, prd.Name, err)
				}
			}
		}
	}
	return ds, nil
}

func addProperty(ps *PropertySet, pd propertyDoc) error {
	dtype := pd.DType
	if dtype == "" {
		dtype = Float64
	}

	if len(pd.Objects) > 0 {
		prop := ps.AddFieldProperty(pd.Name)
		for _, od := range pd.Objects {
			values, err := decodeArray(dtype, &od.Values)
			if err != nil {
				return fmt.Errorf("object %d: %w", od.ID, err)
			}
			if err := prop.AddField(od.ID, &Field{Values: values, XCoord: od.XCoord, YCoord: od.YCoord}); err != nil {
				return err
			}
		}
		return nil
	}

	values, err := decodeArray(dtype, &pd.Values)
	if err != nil {
		return err
	}
	prop, err := ps.AddPointProperty(pd.Name, points(pd.Coordinates), values)
	if err != nil {
		return err
	}
	for t, step := range pd.Trajectory {
		if len(step) != len(pd.Coordinates) {
			return fmt.Errorf("%w: trajectory step %d has %d points, want %d", ErrShapeMismatch, t+1, len(step), len(pd.Coordinates))
		}
		prop.Trajectory = append(prop.Trajectory, points(step))
	}
	return nil
}

func points(pairs [][2]float64) []geom.Point {
	out := make([]geom.Point, len(pairs))
	for i, p := range pairs {
		out[i] = geom.Point{X: p[0], Y: p[1]}
	}
	return out
}

// decodeArray accepts a flat sequence, a sequence of rows or a sequence of
// row blocks and infers the shape from nesting depth. Integer dtypes are
// decoded exactly as int64. Booleans decode as 0/1.
func decodeArray(dtype DType, n *yaml.Node) (Array, error) {
	if n.Kind == 0 {
		return NewArray(dtype, []int{0}, nil)
	}
	shape, err := nodeShape(n)
	if err != nil {
		return Array{}, err
	}
	var leaves []*yaml.Node
	collect(n, &leaves)

	if dtype.IsInteger() {
		ints := make([]int64, len(leaves))
		for i, l := range leaves {
			if ints[i], err = decodeInt(l); err != nil {
				return Array{}, err
			}
		}
		return NewIntArray(dtype, shape, ints)
	}

	data := make([]float64, len(leaves))
	for i, l := range leaves {
		if data[i], err = decodeFloat(l); err != nil {
			return Array{}, err
		}
	}
	return NewArray(dtype, shape, data)
}

// nodeShape returns the shape of a nested sequence. All elements of a
// sequence must share one shape, so scalars appear only at the innermost
// level.
func nodeShape(n *yaml.Node) ([]int, error) {
	if n.Kind != yaml.SequenceNode {
		return nil, fmt.Errorf("%w: line %d: values must be a sequence", ErrShapeMismatch, n.Line)
	}
	var inner []int
	for i, c := range n.Content {
		var sub []int
		switch c.Kind {
		case yaml.SequenceNode:
			var err error
			if sub, err = nodeShape(c); err != nil {
				return nil, err
			}
		case yaml.ScalarNode:
		default:
			return nil, fmt.Errorf("%w: line %d: values must be numbers", ErrShapeMismatch, c.Line)
		}
		if i == 0 {
			inner = sub
			continue
		}
		if (sub == nil) != (inner == nil) || !slices.Equal(sub, inner) {
			return nil, fmt.Errorf("%w: line %d: element %d has shape %v, want %v", ErrShapeMismatch, c.Line, i, sub, inner)
		}
	}
	return append([]int{len(n.Content)}, inner...), nil
}

func collect(n *yaml.Node, out *[]*yaml.Node) {
	if n.Kind != yaml.SequenceNode {
		*out = append(*out, n)
		return
	}
	for _, c := range n.Content {
		collect(c, out)
	}
}

func decodeFloat(n *yaml.Node) (float64, error) {
	if n.Tag == "!!bool" {
		var b bool
		if err := n.Decode(&b); err != nil {
			return 0, err
		}
		if b {
			return 1, nil
		}
		return 0, nil
	}
	var v float64
	if err := n.Decode(&v); err != nil {
		return 0, fmt.Errorf("line %d: %w", n.Line, err)
	}
	return v, nil
}

func decodeInt(n *yaml.Node) (int64, error) {
	if n.Tag == "!!int" {
		var v int64
		if err := n.Decode(&v); err != nil {
			return 0, fmt.Errorf("line %d: %w: %v", n.Line, ErrValueOutOfRange, err)
		}
		return v, nil
	}
	v, err := decodeFloat(n)
	if err != nil {
		return 0, err
	}
	if v != math.Trunc(v) || v < -0x1p63 || v >= 0x1p63 {
		return 0, fmt.Errorf("line %d: %w: %v is not an integer", n.Line, ErrValueOutOfRange, v)
	}
	return int64(v), nil
}
