package export

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/ERKuipers/campo/internal/dataset"
	"github.com/ERKuipers/campo/internal/geo"
	"github.com/ERKuipers/campo/internal/raster"
)

type setGrids struct {
	entry dataset.Entry
	grids []*raster.Grid
}

func fieldGrids(ds *dataset.Dataset, sr *geo.SpatialReference) ([]setGrids, error) {
	var out []setGrids
	for entry := range ds.Walk() {
		grids, err := raster.FieldGrids(entry.Set, sr)
		if err != nil {
			return nil, err
		}
		out = append(out, setGrids{entry: entry, grids: grids})
	}
	if len(out) == 0 {
		return nil, dataset.ErrEmpty
	}
	return out, nil
}

// ToTIFF writes one GeoTIFF per property and object of every static field
// set into dir, named <property>_<id+1>.tiff. An empty crs writes rasters
// without a spatial reference. Every set is classified before anything is
// written.
func (e *Exporter) ToTIFF(ctx context.Context, ds *dataset.Dataset, crs, dir string) (*Record, error) {
	r := e.begin("to_tiff")
	return r.finish(e.toTIFF(ctx, r, ds, crs, dir))
}

func (e *Exporter) toTIFF(ctx context.Context, r *run, ds *dataset.Dataset, crs, dir string) error {
	sr, err := e.resolve(crs)
	if err != nil {
		return err
	}
	sets, err := fieldGrids(ds, sr)
	if err != nil {
		return err
	}

	for _, s := range sets {
		for _, g := range s.grids {
			path := filepath.Join(dir, g.Name+".tiff")
			if err := e.raster.WriteGrid(ctx, g, path); err != nil {
				return fmt.Errorf("%s: %w", g.Name, err)
			}
			r.add(Artifact{
				Kind:        KindGeoTIFF,
				Path:        path,
				Phenomenon:  s.entry.Phenomenon,
				PropertySet: s.entry.PropertySet,
				CRS:         srsString(sr),
			})
		}
	}
	return nil
}

// ToTIFFAt is the dynamic field counterpart of ToTIFF. Sets that are not
// dynamic fields fail with dataset.ErrIncompatibleSpaceType; dynamic field
// sets fail with ErrNotImplemented.
func (e *Exporter) ToTIFFAt(ctx context.Context, ds *dataset.Dataset, crs, dir string, t int) (*Record, error) {
	r := e.begin("to_tiff_at")
	return r.finish(e.toTIFFAt(ds, crs, t))
}

func (e *Exporter) toTIFFAt(ds *dataset.Dataset, crs string, t int) error {
	if _, err := e.resolve(crs); err != nil {
		return err
	}
	for entry := range ds.Walk() {
		if _, err := dataset.Require(entry.Set, dataset.DynamicSameField, dataset.DynamicDiffField); err != nil {
			return err
		}
	}
	return fmt.Errorf("%w: dynamic field export at timestep %d", ErrNotImplemented, t)
}

// ToGeoTIFF writes one already selected field to path. Unlike ToTIFF it
// requires a spatial reference.
func (e *Exporter) ToGeoTIFF(ctx context.Context, f *dataset.Field, path, crs string) (*Record, error) {
	r := e.begin("to_geotiff")
	return r.finish(e.toGeoTIFF(ctx, r, f, path, crs))
}

func (e *Exporter) toGeoTIFF(ctx context.Context, r *run, f *dataset.Field, path, crs string) error {
	if crs == "" {
		return fmt.Errorf("%w: GeoTIFF export requires a CRS like \"EPSG:4326\"", geo.ErrInvalidCRSFormat)
	}
	sr, err := e.resolve(crs)
	if err != nil {
		return err
	}

	g, err := raster.FromField(f, sr)
	if err != nil {
		return err
	}
	_, g.Name = splitName(path)

	if err := e.raster.WriteGrid(ctx, g, path); err != nil {
		return err
	}
	r.add(Artifact{Kind: KindGeoTIFF, Path: path, CRS: sr.String()})
	return nil
}
