package table

import (
	"fmt"

	"github.com/ctessum/geom"

	"github.com/ERKuipers/campo/internal/dataset"
)

// Coordinate column names recognised by the vector converter.
const (
	CoordX = "CoordX"
	CoordY = "CoordY"
)

// AgentColumn is the column name of agent i in a wide time-series table.
func AgentColumn(i int) string {
	return fmt.Sprintf("ag%d", i)
}

// Coordinates builds a two-column table from agent coordinates.
func Coordinates(coords []geom.Point, xName, yName string) *Table {
	xs := make([]float64, len(coords))
	ys := make([]float64, len(coords))
	for i, p := range coords {
		xs[i] = p.X
		ys[i] = p.Y
	}
	t := New()
	t.columns = []Column{
		{Name: xName, DType: dataset.Float64, Values: xs},
		{Name: yName, DType: dataset.Float64, Values: ys},
	}
	return t
}

func requirePoint(ps *dataset.PropertySet, st dataset.SpaceType) ([]*dataset.Property, error) {
	if _, err := dataset.Require(ps, st); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnsupportedForPointExport, err)
	}
	props := ps.Properties()
	if len(props) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNoProperties, ps.Name)
	}
	return props, nil
}

// StaticPoints builds one row per agent: CoordX, CoordY, then one column per
// property. Coordinates come from the first property; all properties of a
// static_same_point set share them.
func StaticPoints(ps *dataset.PropertySet) (*Table, error) {
	props, err := requirePoint(ps, dataset.StaticSamePoint)
	if err != nil {
		return nil, err
	}

	t := Coordinates(props[0].Coordinates, CoordX, CoordY)
	for _, p := range props {
		if p.Values.Rank() != 1 {
			return nil, fmt.Errorf("%w: static property %q has rank %d values", ErrLengthMismatch, p.Name, p.Values.Rank())
		}
		if err := t.Set(Column{Name: p.Name, DType: p.Values.DType, Values: p.Values.Data, Ints: p.Values.Ints}); err != nil {
			return nil, err
		}
	}
	return t, nil
}

// PointsAt builds the static layout from a dynamic set, taking column t-1 of
// every property's agent×timestep array. t is 1-based and must not exceed
// the stored timestep count.
func PointsAt(ps *dataset.PropertySet, timestep int) (*Table, error) {
	props, err := requirePoint(ps, dataset.DynamicSamePoint)
	if err != nil {
		return nil, err
	}

	t := Coordinates(props[0].Coordinates, CoordX, CoordY)
	for _, p := range props {
		steps := p.Timesteps()
		if timestep < 1 || timestep > steps {
			return nil, fmt.Errorf("%w: %d not in [1, %d] for %q", ErrTimestepOutOfRange, timestep, steps, p.Name)
		}
		values, err := p.Values.Column(timestep - 1)
		if err != nil {
			return nil, err
		}
		if err := t.Set(Column{Name: p.Name, DType: p.Values.DType, Values: values, Ints: p.Values.IntColumn(timestep - 1)}); err != nil {
			return nil, err
		}
	}
	return t, nil
}

// PropertySeries is the wide time-series table of one property: one column
// per agent, one row per timestep.
type PropertySeries struct {
	Property string
	Table    *Table
}

// Series holds the full time series of a dynamic point set.
type Series struct {
	Coordinates *Table
	Properties  []PropertySeries
}

// TimeSeries transposes every property's agent×timestep array into a
// timestep×agent table with columns ag0..agN-1.
func TimeSeries(ps *dataset.PropertySet) (*Series, error) {
	props, err := requirePoint(ps, dataset.DynamicSamePoint)
	if err != nil {
		return nil, err
	}

	s := &Series{Coordinates: Coordinates(props[0].Coordinates, CoordX, CoordY)}
	for _, p := range props {
		if p.Values.Rank() != 2 {
			return nil, fmt.Errorf("%w: dynamic property %q has rank %d values", ErrLengthMismatch, p.Name, p.Values.Rank())
		}
		wide := New()
		for a := range p.Values.Len() {
			row, err := p.Values.Row(a)
			if err != nil {
				return nil, err
			}
			if err := wide.Set(Column{Name: AgentColumn(a), DType: p.Values.DType, Values: row, Ints: p.Values.IntRow(a)}); err != nil {
				return nil, err
			}
		}
		s.Properties = append(s.Properties, PropertySeries{Property: p.Name, Table: wide})
	}
	return s, nil
}
