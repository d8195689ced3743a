// Package export composes dataset traversal, table and raster assembly and
// the GDAL collaborators into the file exporters.
//
// Every dispatcher runs synchronously. Exports that share a destination
// file or the PDF scratch directory must be serialized by the caller.
package export

import (
	"context"
	"errors"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/ERKuipers/campo/internal/gdal"
	"github.com/ERKuipers/campo/internal/geo"
	"github.com/ERKuipers/campo/internal/raster"
)

// ErrNotImplemented indicates an export path that has no implementation,
// such as dynamic field rasters.
var ErrNotImplemented = raster.ErrNotImplemented

// ErrUnsafeScratchDir is returned when the PDF scratch directory could
// not be removed without also removing the data directory or the working
// directory.
var ErrUnsafeScratchDir = errors.New("export: unsafe scratch directory")

// VectorConverter turns a point CSV into a vector dataset.
type VectorConverter interface {
	ConvertCSV(ctx context.Context, req gdal.VectorRequest) error
}

// RasterWriter writes one grid as a GeoTIFF.
type RasterWriter interface {
	WriteGrid(ctx context.Context, g *raster.Grid, path string) error
}

// RasterTranslator converts a raster into another format, e.g. PDF.
type RasterTranslator interface {
	Translate(ctx context.Context, req gdal.TranslateRequest) error
}

// Exporter runs the dispatchers against its collaborators and records what
// they write in a Manifest.
type Exporter struct {
	vector     VectorConverter
	raster     RasterWriter
	translator RasterTranslator

	registry *geo.Registry
	logger   *slog.Logger
	tempDir  string
	manifest *Manifest
}

type Option func(*Exporter)

func WithLogger(l *slog.Logger) Option {
	return func(e *Exporter) { e.logger = l }
}

// WithRegistry sets the registry CRS strings are resolved against.
func WithRegistry(r *geo.Registry) Option {
	return func(e *Exporter) { e.registry = r }
}

// WithTempDir sets the parent of the scoped temporary directories. Empty
// means the system default.
func WithTempDir(dir string) Option {
	return func(e *Exporter) { e.tempDir = dir }
}

func New(vector VectorConverter, rw RasterWriter, translator RasterTranslator, opts ...Option) *Exporter {
	e := &Exporter{
		vector:     vector,
		raster:     rw,
		translator: translator,
		registry:   geo.DefaultRegistry(),
		manifest:   NewManifest(),
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.logger == nil {
		e.logger = slog.Default()
	}
	return e
}

func (e *Exporter) Manifest() *Manifest {
	return e.manifest
}

func (e *Exporter) resolve(crs string) (*geo.SpatialReference, error) {
	return e.registry.Resolve(crs)
}

type run struct {
	rec *Record
	log *slog.Logger
	m   *Manifest
}

func (e *Exporter) begin(op string) *run {
	rec := newRecord(op)
	return &run{
		rec: rec,
		log: e.logger.With("export_id", rec.ID, "operation", op),
		m:   e.manifest,
	}
}

func (r *run) add(a Artifact) {
	r.rec.Artifacts = append(r.rec.Artifacts, a)
	r.log.Debug("wrote artifact", "kind", a.Kind, "path", a.Path)
}

func (r *run) finish(err error) (*Record, error) {
	elapsed := time.Since(r.rec.Started)
	r.rec.Duration = elapsed.String()
	if err != nil {
		r.log.Error("export failed", "error", err, "artifacts", len(r.rec.Artifacts))
		return nil, err
	}
	r.m.add(r.rec)
	r.log.Info("export complete", "artifacts", len(r.rec.Artifacts), "duration", elapsed)
	return r.rec, nil
}

// splitName returns the directory of filename and its base name without
// extension.
func splitName(filename string) (dir, stem string) {
	base := filepath.Base(filename)
	return filepath.Dir(filename), strings.TrimSuffix(base, filepath.Ext(base))
}

func srsString(sr *geo.SpatialReference) string {
	if sr == nil {
		return ""
	}
	return sr.String()
}
