package export

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/ctessum/geom"

	"github.com/ERKuipers/campo/internal/dataset"
	"github.com/ERKuipers/campo/internal/gdal"
	"github.com/ERKuipers/campo/internal/geo"
	"github.com/ERKuipers/campo/internal/table"
)

// ToDF assembles the point table of the first property-set, which must be
// static_same_point.
func ToDF(ds *dataset.Dataset) (*table.Table, error) {
	entry, err := ds.First()
	if err != nil {
		return nil, err
	}
	return table.StaticPoints(entry.Set)
}

// ToDFAt assembles the point table of the first property-set at the 1-based
// timestep t. The set must be dynamic_same_point.
func ToDFAt(ds *dataset.Dataset, t int) (*table.Table, error) {
	entry, err := ds.First()
	if err != nil {
		return nil, err
	}
	return table.PointsAt(entry.Set, t)
}

// ToCSV writes every point property-set next to filename. Static sets go to
// <stem>.csv; dynamic sets to <stem>_coords.csv plus one wide
// <stem>_<property>.csv per property.
func (e *Exporter) ToCSV(ds *dataset.Dataset, filename string) (*Record, error) {
	r := e.begin("to_csv")
	return r.finish(e.toCSV(r, ds, filename))
}

func (e *Exporter) toCSV(r *run, ds *dataset.Dataset, filename string) error {
	dir, stem := splitName(filename)

	n := 0
	for entry := range ds.Walk() {
		n++
		st, err := dataset.Require(entry.Set, dataset.StaticSamePoint, dataset.DynamicSamePoint)
		if err != nil {
			return fmt.Errorf("%w: %w", table.ErrUnsupportedForPointExport, err)
		}

		artifact := Artifact{Kind: KindCSV, Phenomenon: entry.Phenomenon, PropertySet: entry.PropertySet}

		if st == dataset.StaticSamePoint {
			tbl, err := table.StaticPoints(entry.Set)
			if err != nil {
				return err
			}
			artifact.Path = filepath.Join(dir, stem+".csv")
			if err := table.WriteCSVFile(artifact.Path, tbl); err != nil {
				return err
			}
			r.add(artifact)
			continue
		}

		series, err := table.TimeSeries(entry.Set)
		if err != nil {
			return err
		}
		artifact.Path = filepath.Join(dir, stem+"_coords.csv")
		if err := table.WriteCSVFile(artifact.Path, series.Coordinates); err != nil {
			return err
		}
		r.add(artifact)

		for _, ps := range series.Properties {
			artifact.Path = filepath.Join(dir, fmt.Sprintf("%s_%s.csv", stem, ps.Property))
			artifact.Property = ps.Property
			if err := table.WriteCSVFile(artifact.Path, ps.Table); err != nil {
				return err
			}
			r.add(artifact)
		}
	}

	if n == 0 {
		return dataset.ErrEmpty
	}
	return nil
}

// ToGPKG converts every static point property-set into the GeoPackage at
// filename. crs is applied as both source and target reference.
func (e *Exporter) ToGPKG(ctx context.Context, ds *dataset.Dataset, filename, crs string) (*Record, error) {
	r := e.begin("to_gpkg")
	return r.finish(e.toGPKG(ctx, r, ds, filename, crs))
}

func (e *Exporter) toGPKG(ctx context.Context, r *run, ds *dataset.Dataset, filename, crs string) error {
	sr, err := e.resolve(crs)
	if err != nil {
		return err
	}
	_, layer := splitName(filename)

	n := 0
	for entry := range ds.Walk() {
		n++
		tbl, err := table.StaticPoints(entry.Set)
		if err != nil {
			return err
		}
		if err := e.convertPoints(ctx, tbl, layer, filename, sr); err != nil {
			return err
		}
		r.add(Artifact{
			Kind:        KindGPKG,
			Path:        filename,
			Phenomenon:  entry.Phenomenon,
			PropertySet: entry.PropertySet,
			CRS:         srsString(sr),
		})
	}

	if n == 0 {
		return dataset.ErrEmpty
	}
	return nil
}

// ToGPKGAt converts every dynamic point property-set at the 1-based
// timestep t into <layer>_<t>.gpkg, next to filename.
func (e *Exporter) ToGPKGAt(ctx context.Context, ds *dataset.Dataset, filename, crs string, t int) (*Record, error) {
	r := e.begin("to_gpkg_at")
	return r.finish(e.toGPKGAt(ctx, r, ds, filename, crs, t))
}

func (e *Exporter) toGPKGAt(ctx context.Context, r *run, ds *dataset.Dataset, filename, crs string, t int) error {
	sr, err := e.resolve(crs)
	if err != nil {
		return err
	}
	dir, layer := splitName(filename)
	dest := filepath.Join(dir, fmt.Sprintf("%s_%d.gpkg", layer, t))

	n := 0
	for entry := range ds.Walk() {
		n++
		tbl, err := table.PointsAt(entry.Set, t)
		if err != nil {
			return err
		}
		if err := e.convertPoints(ctx, tbl, fmt.Sprintf("%s%d", layer, t), dest, sr); err != nil {
			return err
		}
		r.add(Artifact{
			Kind:        KindGPKG,
			Path:        dest,
			Phenomenon:  entry.Phenomenon,
			PropertySet: entry.PropertySet,
			Timestep:    t,
			CRS:         srsString(sr),
		})
	}

	if n == 0 {
		return dataset.ErrEmpty
	}
	return nil
}

// MobilePointsToGPKG writes tbl with its CoordX/CoordY columns replaced by
// coords, e.g. the positions of mobile agents at the current timestep. tbl
// itself is left unchanged.
func (e *Exporter) MobilePointsToGPKG(ctx context.Context, coords []geom.Point, tbl *table.Table, filename, crs string) (*Record, error) {
	r := e.begin("mobile_points_to_gpkg")
	return r.finish(e.mobilePointsToGPKG(ctx, r, coords, tbl, filename, crs))
}

func (e *Exporter) mobilePointsToGPKG(ctx context.Context, r *run, coords []geom.Point, tbl *table.Table, filename, crs string) error {
	sr, err := e.resolve(crs)
	if err != nil {
		return err
	}

	out := tbl.Clone()
	xy := table.Coordinates(coords, table.CoordX, table.CoordY)
	for _, c := range xy.Columns() {
		if err := out.Set(c); err != nil {
			return err
		}
	}

	_, layer := splitName(filename)
	if err := e.convertPoints(ctx, out, layer, filename, sr); err != nil {
		return err
	}
	r.add(Artifact{Kind: KindGPKG, Path: filename, CRS: srsString(sr)})
	return nil
}

// convertPoints stages tbl as <stem>.csv plus <stem>.csvt in a scoped
// temporary directory and converts it into dest.
func (e *Exporter) convertPoints(ctx context.Context, tbl *table.Table, stem, dest string, sr *geo.SpatialReference) error {
	tmp, err := os.MkdirTemp(e.tempDir, "campo-gpkg-")
	if err != nil {
		return err
	}
	defer os.RemoveAll(tmp)

	csvPath := filepath.Join(tmp, stem+".csv")
	if err := table.WriteCSVFile(csvPath, tbl); err != nil {
		return err
	}
	if err := table.WriteCSVTFile(filepath.Join(tmp, stem+".csvt"), tbl); err != nil {
		return err
	}

	return e.vector.ConvertCSV(ctx, gdal.VectorRequest{
		Source:      csvPath,
		Destination: dest,
		Format:      "GPKG",
		XField:      table.CoordX,
		YField:      table.CoordY,
		SourceCRS:   srsString(sr),
		TargetCRS:   srsString(sr),
	})
}
