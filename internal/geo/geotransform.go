package geo

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/ctessum/geom"
)

// Geotransform is the six-parameter affine mapping from cell indices to
// world coordinates: (origin_x, pixel_width, 0, origin_y_top, 0, -pixel_height).
type Geotransform [6]float64

// BuildGeotransform derives the transform of a north-up grid from its axis
// samples. Cell size is the distance between the first two samples; spacing
// is assumed uniform and is not checked. ycoord ascends and its last sample
// is the bottom edge of the top row, so the top edge is one cell above it.
func BuildGeotransform(xcoord, ycoord []float64) (Geotransform, error) {
	if len(xcoord) < 2 {
		return Geotransform{}, fmt.Errorf("%w: x axis has %d", ErrInsufficientSamples, len(xcoord))
	}
	if len(ycoord) < 2 {
		return Geotransform{}, fmt.Errorf("%w: y axis has %d", ErrInsufficientSamples, len(ycoord))
	}

	dx := math.Abs(xcoord[1] - xcoord[0])
	dy := math.Abs(ycoord[1] - ycoord[0])
	top := ycoord[len(ycoord)-1] + dy

	return Geotransform{xcoord[0], dx, 0, top, 0, -dy}, nil
}

func (g Geotransform) OriginX() float64     { return g[0] }
func (g Geotransform) OriginY() float64     { return g[3] }
func (g Geotransform) PixelWidth() float64  { return g[1] }
func (g Geotransform) PixelHeight() float64 { return -g[5] }

// Bounds is the world extent covered by a rows×cols grid.
func (g Geotransform) Bounds(rows, cols int) geom.Bounds {
	maxX := g[0] + float64(cols)*g[1]
	minY := g[3] + float64(rows)*g[5]
	return geom.Bounds{
		Min: geom.Point{X: g[0], Y: minY},
		Max: geom.Point{X: maxX, Y: g[3]},
	}
}

// String formats the coefficients the way GDAL VRT files expect them.
func (g Geotransform) String() string {
	parts := make([]string, len(g))
	for i, v := range g {
		parts[i] = strconv.FormatFloat(v, 'g', -1, 64)
	}
	return strings.Join(parts, ", ")
}
