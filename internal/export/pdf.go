package export

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/ERKuipers/campo/internal/dataset"
	"github.com/ERKuipers/campo/internal/gdal"
	"github.com/ERKuipers/campo/internal/table"
)

// ByteScale is the value the largest cell of a PDF raster layer maps to.
const ByteScale = 250

// PDFOptions locates the inputs of the PDF composers. Clone and Overlay are
// resolved against DataDir unless absolute. Empty fields take their value
// from DefaultPDFOptions, except CRS: an empty CRS assigns no spatial
// reference to the PDF.
type PDFOptions struct {
	DataDir     string
	Clone       string
	Overlay     string
	ScratchDir  string
	LayerPrefix string
	CRS         string
}

func DefaultPDFOptions() PDFOptions {
	return PDFOptions{
		DataDir:     "data",
		Clone:       "clone.tiff",
		Overlay:     "sources.vrt",
		ScratchDir:  "tmp",
		LayerPrefix: "shop",
		CRS:         "EPSG:28992",
	}
}

func (o PDFOptions) withDefaults() PDFOptions {
	d := DefaultPDFOptions()
	if o.DataDir == "" {
		o.DataDir = d.DataDir
	}
	if o.Clone == "" {
		o.Clone = d.Clone
	}
	if o.Overlay == "" {
		o.Overlay = d.Overlay
	}
	if o.ScratchDir == "" {
		o.ScratchDir = d.ScratchDir
	}
	if o.LayerPrefix == "" {
		o.LayerPrefix = d.LayerPrefix
	}
	return o
}

// checkScratch rejects a scratch directory whose removal would take the
// data directory or the working directory with it.
func (o PDFOptions) checkScratch() error {
	scratch, err := filepath.Abs(o.ScratchDir)
	if err != nil {
		return err
	}
	if scratch == filepath.Dir(scratch) {
		return fmt.Errorf("%w: %s is a root directory", ErrUnsafeScratchDir, o.ScratchDir)
	}
	data, err := filepath.Abs(o.DataDir)
	if err != nil {
		return err
	}
	if within(scratch, data) {
		return fmt.Errorf("%w: %s contains data directory %s", ErrUnsafeScratchDir, o.ScratchDir, o.DataDir)
	}
	wd, err := os.Getwd()
	if err != nil {
		return err
	}
	if within(scratch, wd) {
		return fmt.Errorf("%w: %s contains the working directory", ErrUnsafeScratchDir, o.ScratchDir)
	}
	return nil
}

// within reports whether path is dir or lies below it. Both are absolute
// and clean.
func within(dir, path string) bool {
	rel, err := filepath.Rel(dir, path)
	if err != nil {
		return false
	}
	return rel == "." || (rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)))
}

func (o PDFOptions) inData(name string) string {
	if filepath.IsAbs(name) {
		return name
	}
	return filepath.Join(o.DataDir, name)
}

// CreatePointPDF renders the first property-set, which must be
// static_same_point, as a vector layer over the clone raster. The agents
// are staged as agents.csv and agents.gpkg in the data directory.
func (e *Exporter) CreatePointPDF(ctx context.Context, ds *dataset.Dataset, filename string, opts PDFOptions) (*Record, error) {
	r := e.begin("create_point_pdf")
	return r.finish(e.createPointPDF(ctx, r, ds, filename, opts.withDefaults()))
}

func (e *Exporter) createPointPDF(ctx context.Context, r *run, ds *dataset.Dataset, filename string, opts PDFOptions) error {
	sr, err := e.resolve(opts.CRS)
	if err != nil {
		return err
	}
	entry, err := ds.First()
	if err != nil {
		return err
	}
	tbl, err := table.StaticPoints(entry.Set)
	if err != nil {
		return err
	}
	tbl.Rename(table.CoordX, "x")
	tbl.Rename(table.CoordY, "y")

	if err := os.MkdirAll(opts.DataDir, 0755); err != nil {
		return err
	}

	csvPath := filepath.Join(opts.DataDir, "agents.csv")
	if err := table.WriteCSVFile(csvPath, tbl); err != nil {
		return err
	}
	r.add(Artifact{Kind: KindCSV, Path: csvPath, Phenomenon: entry.Phenomenon, PropertySet: entry.PropertySet})

	gpkgPath := filepath.Join(opts.DataDir, "agents.gpkg")
	err = e.vector.ConvertCSV(ctx, gdal.VectorRequest{
		Source:      csvPath,
		Destination: gpkgPath,
		Format:      "GPKG",
		XField:      "x",
		YField:      "y",
		SourceCRS:   srsString(sr),
		TargetCRS:   srsString(sr),
	})
	if err != nil {
		return err
	}
	r.add(Artifact{Kind: KindGPKG, Path: gpkgPath, Phenomenon: entry.Phenomenon, PropertySet: entry.PropertySet, CRS: srsString(sr)})

	err = e.translator.Translate(ctx, gdal.TranslateRequest{
		Source:      opts.inData(opts.Clone),
		Destination: filename,
		Format:      "PDF",
		AssignSRS:   srsString(sr),
		CreationOptions: []gdal.CreationOption{
			{Key: "OGR_DATASOURCE", Value: opts.inData(opts.Overlay)},
		},
	})
	if err != nil {
		return err
	}
	r.add(Artifact{Kind: KindPDF, Path: filename, CRS: srsString(sr)})
	return nil
}

// CreateFieldPDF renders every object of every static field set as a Byte
// raster layer of one PDF. Layers are staged in the scratch directory as
// <scratch>/%03d and named <prefix>%03d after the object id. The scratch
// directory is deleted before use and removed on return. It must not be a
// root directory or contain the data directory or the working directory.
func (e *Exporter) CreateFieldPDF(ctx context.Context, ds *dataset.Dataset, filename string, opts PDFOptions) (*Record, error) {
	r := e.begin("create_field_pdf")
	return r.finish(e.createFieldPDF(ctx, r, ds, filename, opts.withDefaults()))
}

func (e *Exporter) createFieldPDF(ctx context.Context, r *run, ds *dataset.Dataset, filename string, opts PDFOptions) error {
	sr, err := e.resolve(opts.CRS)
	if err != nil {
		return err
	}
	sets, err := fieldGrids(ds, sr)
	if err != nil {
		return err
	}

	if err := opts.checkScratch(); err != nil {
		return err
	}
	if err := os.RemoveAll(opts.ScratchDir); err != nil {
		return err
	}
	if err := os.MkdirAll(opts.ScratchDir, 0755); err != nil {
		return err
	}
	defer os.RemoveAll(opts.ScratchDir)

	var rasters, names []string
	for _, s := range sets {
		for _, g := range s.grids {
			scaled, err := g.ScaleToByte(ByteScale)
			if err != nil {
				return err
			}
			path := filepath.Join(opts.ScratchDir, fmt.Sprintf("%03d", g.ID))
			if err := e.raster.WriteGrid(ctx, scaled, path); err != nil {
				return fmt.Errorf("%s: %w", g.Name, err)
			}
			rasters = append(rasters, path)
			names = append(names, fmt.Sprintf("%s%03d", opts.LayerPrefix, g.ID))
		}
	}
	r.log.Debug("staged pdf layers", "layers", len(rasters), "scratch", opts.ScratchDir)

	err = e.translator.Translate(ctx, gdal.TranslateRequest{
		Source:      opts.inData(opts.Clone),
		Destination: filename,
		Format:      "PDF",
		AssignSRS:   srsString(sr),
		Quiet:       true,
		CreationOptions: []gdal.CreationOption{
			{Key: "OGR_DATASOURCE", Value: opts.inData(opts.Overlay)},
			{Key: "EXTRA_RASTERS", Value: gdal.JoinList(rasters)},
			{Key: "EXTRA_RASTERS_LAYER_NAME", Value: gdal.JoinList(names)},
		},
	})
	if err != nil {
		return err
	}
	r.add(Artifact{Kind: KindPDF, Path: filename, CRS: srsString(sr)})
	return nil
}
