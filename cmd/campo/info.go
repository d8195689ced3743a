package main

import (
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/ctessum/geom"
	"github.com/spf13/cobra"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/ERKuipers/campo/internal/dataset"
	"github.com/ERKuipers/campo/internal/geo"
)

func formatBounds(b *geom.Bounds) string {
	return fmt.Sprintf("%.6g,%.6g .. %.6g,%.6g", b.Min.X, b.Min.Y, b.Max.X, b.Max.Y)
}

func boundsOf(xs, ys []float64) *geom.Bounds {
	return &geom.Bounds{
		Min: geom.Point{X: floats.Min(xs), Y: floats.Min(ys)},
		Max: geom.Point{X: floats.Max(xs), Y: floats.Max(ys)},
	}
}

func pointBounds(coords []geom.Point) *geom.Bounds {
	if len(coords) == 0 {
		return nil
	}
	xs := make([]float64, len(coords))
	ys := make([]float64, len(coords))
	for i, p := range coords {
		xs[i], ys[i] = p.X, p.Y
	}
	return boundsOf(xs, ys)
}

func fieldBounds(p *dataset.Property) *geom.Bounds {
	var out *geom.Bounds
	for _, id := range p.Objects() {
		f, err := p.Field(id)
		if err != nil || len(f.XCoord) == 0 || len(f.YCoord) == 0 {
			continue
		}
		b := boundsOf(f.XCoord, f.YCoord)
		if out == nil {
			out = b
			continue
		}
		out.Min.X, out.Min.Y = min(out.Min.X, b.Min.X), min(out.Min.Y, b.Min.Y)
		out.Max.X, out.Max.Y = max(out.Max.X, b.Max.X), max(out.Max.Y, b.Max.Y)
	}
	return out
}

// setBounds is the extent of a property-set's coordinates, nil when it has
// none.
func setBounds(ps *dataset.PropertySet) *geom.Bounds {
	props := ps.Properties()
	if len(props) == 0 {
		return nil
	}
	if props[0].IsField() {
		return fieldBounds(props[0])
	}
	return pointBounds(props[0].Coordinates)
}

// lonLat converts bounds to geographic coordinates. It returns nil when the
// reference system has no PROJ4 definition.
func lonLat(sr *geo.SpatialReference, b *geom.Bounds) *geom.Bounds {
	if sr == nil {
		return nil
	}
	tr, err := sr.LonLat()
	if err != nil {
		return nil
	}
	minX, minY, err := tr(b.Min.X, b.Min.Y)
	if err != nil {
		return nil
	}
	maxX, maxY, err := tr(b.Max.X, b.Max.Y)
	if err != nil {
		return nil
	}
	return &geom.Bounds{Min: geom.Point{X: minX, Y: minY}, Max: geom.Point{X: maxX, Y: maxY}}
}

func describeProperty(p *dataset.Property) string {
	if p.IsField() {
		return fmt.Sprintf("%d objects", len(p.Objects()))
	}
	if len(p.Values.Data) == 0 {
		return fmt.Sprintf("%s %v", p.Values.DType, p.Values.Shape)
	}
	mean, std := stat.MeanStdDev(p.Values.Data, nil)
	return fmt.Sprintf("%s %v mean=%.4g sd=%.4g", p.Values.DType, p.Values.Shape, mean, std)
}

func writeInfo(out io.Writer, ds *dataset.Dataset, sr *geo.SpatialReference) error {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "PHENOMENON\tSET\tSPACE TYPE\tPROPERTY\tVALUES\tEXTENT")

	for entry := range ds.Walk() {
		tag := entry.Set.Tag
		if _, err := entry.Set.SpaceType(); err != nil {
			tag += " (unsupported)"
		}

		where := "-"
		if b := setBounds(entry.Set); b != nil {
			where = formatBounds(b)
			if ll := lonLat(sr, b); ll != nil {
				where += " (lon/lat " + formatBounds(ll) + ")"
			}
		}

		props := entry.Set.Properties()
		if len(props) == 0 {
			fmt.Fprintf(w, "%s\t%s\t%s\t-\t-\t%s\n", entry.Phenomenon, entry.PropertySet, tag, where)
			continue
		}
		for i, p := range props {
			if i > 0 {
				fmt.Fprintf(w, "\t\t\t%s\t%s\t\n", p.Name, describeProperty(p))
				continue
			}
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n", entry.Phenomenon, entry.PropertySet, tag, p.Name, describeProperty(p), where)
		}
	}

	return w.Flush()
}

func showInfo(cmd *cobra.Command, args []string) error {
	ds, err := dataset.Load(args[0])
	if err != nil {
		return err
	}
	registry, err := cfg.Registry()
	if err != nil {
		return err
	}
	sr, err := registry.Resolve(cfg.CRS)
	if err != nil {
		return err
	}
	return writeInfo(os.Stdout, ds, sr)
}
