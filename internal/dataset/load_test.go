package dataset

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ctessum/geom"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleDocument = `
phenomena:
  - name: shops
    property_sets:
      - name: frontdoor
        space_type: static_same_point
        properties:
          - name: price
            dtype: float64
            coordinates: [[1, 2], [3, 4]]
            values: [0.5, 0.7]
          - name: open
            dtype: bool
            coordinates: [[1, 2], [3, 4]]
            values: [true, false]
      - name: area
        space_type: static_same_field
        properties:
          - name: suitability
            dtype: float32
            objects:
              - id: 0
                xcoord: [0, 1, 2]
                ycoord: [0, 1]
                values: [[1, 2, 3], [4, 5, 6]]
  - name: customers
    property_sets:
      - name: walking
        space_type: dynamic_same_point
        properties:
          - name: energy
            dtype: int32
            coordinates: [[0, 0], [1, 1]]
            values: [[1, 2, 3], [4, 5, 6]]
            trajectory:
              - [[0, 0], [1, 1]]
              - [[0.5, 0.5], [1.5, 1.5]]
`

func TestDecode(t *testing.T) {
	ds, err := Decode(strings.NewReader(sampleDocument))
	require.NoError(t, err)

	var names []string
	for e := range ds.Walk() {
		names = append(names, e.Phenomenon+"/"+e.PropertySet)
	}
	assert.Equal(t, []string{"shops/frontdoor", "shops/area", "customers/walking"}, names)

	front, err := ds.PropertySet("shops", "frontdoor")
	require.NoError(t, err)
	st, err := front.SpaceType()
	require.NoError(t, err)
	assert.Equal(t, StaticSamePoint, st)

	open, err := front.Property("open")
	require.NoError(t, err)
	assert.Equal(t, Bool, open.Values.DType)
	assert.Equal(t, []float64{1, 0}, open.Values.Data)
	assert.Equal(t, []geom.Point{{X: 1, Y: 2}, {X: 3, Y: 4}}, open.Coordinates)

	area, err := ds.PropertySet("shops", "area")
	require.NoError(t, err)
	suit, err := area.Property("suitability")
	require.NoError(t, err)
	require.True(t, suit.IsField())
	f, err := suit.Field(0)
	require.NoError(t, err)
	assert.Equal(t, []int{2, 3}, f.Values.Shape)
	assert.Equal(t, Float32, f.Values.DType)

	walking, err := ds.PropertySet("customers", "walking")
	require.NoError(t, err)
	energy, err := walking.Property("energy")
	require.NoError(t, err)
	assert.Equal(t, 3, energy.Timesteps())
	require.Len(t, energy.Trajectory, 2)

	coords, err := ds.Coordinates("customers", "walking", 2)
	require.NoError(t, err)
	assert.Equal(t, geom.Point{X: 1.5, Y: 1.5}, coords[1])
}

func TestDecodeKeepsUnknownTags(t *testing.T) {
	doc := `
phenomena:
  - name: p
    property_sets:
      - name: s
        space_type: hexagonal_grid
`
	ds, err := Decode(strings.NewReader(doc))
	require.NoError(t, err)

	ps, err := ds.PropertySet("p", "s")
	require.NoError(t, err)
	_, err = ps.SpaceType()
	assert.ErrorIs(t, err, ErrUnsupportedSpaceType)
	assert.Contains(t, err.Error(), "hexagonal_grid")
}

func TestDecodeShapeErrors(t *testing.T) {
	tests := []struct {
		name string
		doc  string
		want error
	}{
		{"values shorter than coordinates", `
phenomena:
  - name: p
    property_sets:
      - name: s
        space_type: static_same_point
        properties:
          - name: v
            coordinates: [[1, 2], [3, 4]]
            values: [1]
`, ErrShapeMismatch},
		{"axis length mismatch", `
phenomena:
  - name: p
    property_sets:
      - name: s
        space_type: static_same_field
        properties:
          - name: v
            objects:
              - id: 0
                xcoord: [0, 1]
                ycoord: [0, 1]
                values: [[1, 2, 3], [4, 5, 6]]
`, ErrShapeMismatch},
		{"unknown dtype", `
phenomena:
  - name: p
    property_sets:
      - name: s
        space_type: static_same_point
        properties:
          - name: v
            dtype: complex64
            coordinates: [[1, 2]]
            values: [1]
`, ErrUnsupportedDType},
		{"ragged nesting", pointDoc("float64", "[[1, 2], [3, [4]]]"), ErrShapeMismatch},
		{"ragged rows", pointDoc("float64", "[[1, 2], [3]]"), ErrShapeMismatch},
		{"scalar beside row", pointDoc("float64", "[1, [2]]"), ErrShapeMismatch},
		{"int32 overflow", pointDoc("int32", "[[3000000000], [1]]"), ErrValueOutOfRange},
		{"int32 fraction", pointDoc("int32", "[[3000000000.7], [1]]"), ErrValueOutOfRange},
		{"int64 overflow", pointDoc("int64", "[[9223372036854775808], [1]]"), ErrValueOutOfRange},
		{"bool out of range", pointDoc("bool", "[[2], [1]]"), ErrValueOutOfRange},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode(strings.NewReader(tt.doc))
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

// pointDoc is a dynamic_same_point document with two agents.
func pointDoc(dtype, values string) string {
	return `
phenomena:
  - name: p
    property_sets:
      - name: s
        space_type: dynamic_same_point
        properties:
          - name: v
            dtype: ` + dtype + `
            coordinates: [[1, 2], [3, 4]]
            values: ` + values + `
`
}

func TestDecodeIntegersExact(t *testing.T) {
	ds, err := Decode(strings.NewReader(pointDoc("int64", "[[9007199254740993, 2], [-9223372036854775808, 4.0]]")))
	require.NoError(t, err)

	ps, err := ds.PropertySet("p", "s")
	require.NoError(t, err)
	v, err := ps.Property("v")
	require.NoError(t, err)

	assert.Equal(t, []int{2, 2}, v.Values.Shape)
	assert.Equal(t, []int64{9007199254740993, 2, -9223372036854775808, 4}, v.Values.Ints)
	assert.Equal(t, []int64{9007199254740993, -9223372036854775808}, v.Values.IntColumn(0))
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dataset.yaml")
	require.NoError(t, os.WriteFile(path, []byte(sampleDocument), 0644))

	ds, err := Load(path)
	require.NoError(t, err)
	assert.Len(t, ds.Phenomena(), 2)

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
