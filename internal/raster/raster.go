// Package raster turns field properties into georeferenced grids ready for
// a raster sink.
package raster

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/floats"

	"github.com/ERKuipers/campo/internal/dataset"
	"github.com/ERKuipers/campo/internal/geo"
)

var (
	// ErrNotImplemented indicates a field space type no raster path handles.
	ErrNotImplemented = errors.New("raster: not implemented")

	// ErrEmptyGrid indicates a grid without cells, or one that cannot be scaled.
	ErrEmptyGrid = errors.New("raster: empty grid")
)

// Grid is one single-band raster. Data is row-major, top row first as
// stored in the field.
type Grid struct {
	Name      string
	ID        int
	Rows      int
	Cols      int
	Type      geo.RasterType
	Data      []float64
	Ints      []int64
	Transform geo.Geotransform
	SRS       *geo.SpatialReference
}

// FromField builds the grid of one rows×cols field. srs may be nil.
func FromField(f *dataset.Field, srs *geo.SpatialReference) (*Grid, error) {
	if f.Values.Rank() != 2 {
		return nil, fmt.Errorf("%w: field values have rank %d", dataset.ErrShapeMismatch, f.Values.Rank())
	}
	typ, err := geo.RasterTypeOf(f.Values.DType)
	if err != nil {
		return nil, err
	}
	gt, err := geo.BuildGeotransform(f.XCoord, f.YCoord)
	if err != nil {
		return nil, err
	}
	return &Grid{
		Rows:      f.Rows(),
		Cols:      f.Cols(),
		Type:      typ,
		Data:      f.Values.Data,
		Ints:      f.Values.Ints,
		Transform: gt,
		SRS:       srs,
	}, nil
}

// GridName is the artifact name of object id of a property. Ids are shifted
// to 1-based.
func GridName(property string, id int) string {
	return fmt.Sprintf("%s_%d", property, id+1)
}

// FieldGrids builds one grid per property and object of a static field set,
// in stored order. Dynamic field sets fail before any grid is built.
func FieldGrids(ps *dataset.PropertySet, srs *geo.SpatialReference) ([]*Grid, error) {
	st, err := dataset.Require(ps, dataset.StaticSameField, dataset.StaticDiffField, dataset.DynamicSameField, dataset.DynamicDiffField)
	if err != nil {
		return nil, err
	}
	if st.IsDynamic() {
		return nil, fmt.Errorf("%w: %s", ErrNotImplemented, st)
	}

	var grids []*Grid
	for _, prop := range ps.Properties() {
		for _, id := range prop.Objects() {
			f, err := prop.Field(id)
			if err != nil {
				return nil, err
			}
			g, err := FromField(f, srs)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", GridName(prop.Name, id), err)
			}
			g.Name = GridName(prop.Name, id)
			g.ID = id
			grids = append(grids, g)
		}
	}
	return grids, nil
}

// Max returns the largest cell value.
func (g *Grid) Max() (float64, error) {
	if len(g.Data) == 0 {
		return 0, ErrEmptyGrid
	}
	return floats.Max(g.Data), nil
}

// ScaleToByte returns a Byte copy of g with every cell divided by
// max/maxOut, so the largest cell maps to maxOut.
func (g *Grid) ScaleToByte(maxOut float64) (*Grid, error) {
	hi, err := g.Max()
	if err != nil {
		return nil, err
	}
	if hi <= 0 {
		return nil, fmt.Errorf("%w: %s has maximum %g", ErrEmptyGrid, g.Name, hi)
	}

	scaled := make([]float64, len(g.Data))
	floats.ScaleTo(scaled, maxOut/hi, g.Data)

	out := *g
	out.Type = geo.Byte
	out.Data = scaled
	out.Ints = nil
	return &out, nil
}
