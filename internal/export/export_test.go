package export_test

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/ctessum/geom"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/ERKuipers/campo/internal/dataset"
	"github.com/ERKuipers/campo/internal/export"
	"github.com/ERKuipers/campo/internal/gdal"
	"github.com/ERKuipers/campo/internal/geo"
	"github.com/ERKuipers/campo/internal/table"
)

var _ = Describe("Exporter", func() {
	var (
		ctx        context.Context
		tmp        string
		scratch    string
		vector     *fakeVector
		rasters    *fakeRaster
		translator *fakeTranslator
		exporter   *export.Exporter
	)

	BeforeEach(func() {
		ctx = context.Background()

		var err error
		tmp, err = os.MkdirTemp("", "campo-export-")
		Expect(err).NotTo(HaveOccurred())
		DeferCleanup(os.RemoveAll, tmp)

		scratch = filepath.Join(tmp, "staging")
		Expect(os.Mkdir(scratch, 0755)).To(Succeed())

		vector = &fakeVector{}
		rasters = &fakeRaster{}
		translator = &fakeTranslator{}
		exporter = export.New(vector, rasters, translator,
			export.WithLogger(slog.New(slog.NewTextHandler(GinkgoWriter, &slog.HandlerOptions{Level: slog.LevelDebug}))),
			export.WithTempDir(scratch),
		)
	})

	Describe("ToDF", func() {
		It("builds one row per agent", func() {
			tbl, err := export.ToDF(staticPoints())
			Expect(err).NotTo(HaveOccurred())
			Expect(tbl.Len()).To(Equal(3))
			Expect(tbl.Names()).To(Equal([]string{"CoordX", "CoordY", "price", "staff"}))
		})

		It("rejects field sets", func() {
			_, err := export.ToDF(fields("static_same_field"))
			Expect(err).To(MatchError(dataset.ErrIncompatibleSpaceType))
			Expect(err).To(MatchError(table.ErrUnsupportedForPointExport))
		})

		It("fails on an empty dataset", func() {
			_, err := export.ToDF(dataset.New())
			Expect(err).To(MatchError(dataset.ErrEmpty))
		})
	})

	Describe("ToDFAt", func() {
		It("takes column t-1 of the agent by timestep array", func() {
			tbl, err := export.ToDFAt(dynamicPoints(), 2)
			Expect(err).NotTo(HaveOccurred())
			energy, ok := tbl.Column("energy")
			Expect(ok).To(BeTrue())
			Expect(energy.Values).To(Equal([]float64{2, 20, 200}))
		})

		DescribeTable("rejects timesteps outside the stored range",
			func(t int) {
				_, err := export.ToDFAt(dynamicPoints(), t)
				Expect(err).To(MatchError(table.ErrTimestepOutOfRange))
			},
			Entry("zero", 0),
			Entry("past the end", 4),
		)
	})

	Describe("ToCSV", func() {
		It("writes static sets to <stem>.csv", func() {
			rec, err := exporter.ToCSV(staticPoints(), filepath.Join(tmp, "shops.out"))
			Expect(err).NotTo(HaveOccurred())
			Expect(rec.Artifacts).To(HaveLen(1))

			back, err := table.ReadCSVFile(filepath.Join(tmp, "shops.csv"))
			Expect(err).NotTo(HaveOccurred())
			price, _ := back.Column("price")
			Expect(price.Values).To(Equal([]float64{1.5, 2.5, 3.5}))
			x, _ := back.Column("CoordX")
			Expect(x.Values).To(Equal([]float64{155000, 155100, 155200}))
		})

		It("writes dynamic sets as coordinates plus wide per-property tables", func() {
			_, err := exporter.ToCSV(dynamicPoints(), filepath.Join(tmp, "walk.csv"))
			Expect(err).NotTo(HaveOccurred())

			Expect(filepath.Join(tmp, "walk_coords.csv")).To(BeAnExistingFile())
			wide, err := table.ReadCSVFile(filepath.Join(tmp, "walk_energy.csv"))
			Expect(err).NotTo(HaveOccurred())
			Expect(wide.Names()).To(Equal([]string{"ag0", "ag1", "ag2"}))
			ag2, _ := wide.Column("ag2")
			Expect(ag2.Values).To(Equal([]float64{100, 200, 300}))

			Expect(exporter.Manifest().Paths()).To(ConsistOf(
				filepath.Join(tmp, "walk_coords.csv"),
				filepath.Join(tmp, "walk_energy.csv"),
			))
		})

		It("rejects field sets without writing", func() {
			_, err := exporter.ToCSV(fields("static_diff_field"), filepath.Join(tmp, "f.csv"))
			Expect(err).To(MatchError(table.ErrUnsupportedForPointExport))
			Expect(filepath.Join(tmp, "f.csv")).NotTo(BeAnExistingFile())
			Expect(exporter.Manifest().Records()).To(BeEmpty())
		})
	})

	Describe("ToGPKG", func() {
		It("stages a typed CSV and converts it with the CRS", func() {
			dest := filepath.Join(tmp, "shops.gpkg")
			rec, err := exporter.ToGPKG(ctx, staticPoints(), dest, "EPSG:28992")
			Expect(err).NotTo(HaveOccurred())

			Expect(vector.requests).To(HaveLen(1))
			req := vector.requests[0]
			Expect(req.Destination).To(Equal(dest))
			Expect(filepath.Base(req.Source)).To(Equal("shops.csv"))
			Expect(req.XField).To(Equal("CoordX"))
			Expect(req.YField).To(Equal("CoordY"))
			Expect(req.SourceCRS).To(Equal("EPSG:28992"))
			Expect(req.TargetCRS).To(Equal("EPSG:28992"))
			Expect(req.Format).To(Equal("GPKG"))

			Expect(vector.csv[0]).To(HavePrefix("CoordX,CoordY,price,staff\n155000,463000,1.5,1\n"))
			Expect(vector.csvt[0]).To(Equal("Real,Real,Real,Integer"))

			Expect(rec.ID).NotTo(BeEmpty())
			Expect(rec.Artifacts[0].CRS).To(Equal("EPSG:28992"))
			Expect(os.ReadDir(scratch)).To(BeEmpty())
		})

		It("omits the CRS flags without a CRS", func() {
			_, err := exporter.ToGPKG(ctx, staticPoints(), filepath.Join(tmp, "shops.gpkg"), "")
			Expect(err).NotTo(HaveOccurred())
			Expect(vector.requests[0].SourceCRS).To(BeEmpty())
			Expect(vector.requests[0].Args()).NotTo(ContainElement("-s_srs"))
		})

		It("rejects malformed CRS strings before converting", func() {
			_, err := exporter.ToGPKG(ctx, staticPoints(), filepath.Join(tmp, "shops.gpkg"), "WGS84:4326")
			Expect(err).To(MatchError(geo.ErrInvalidCRSFormat))
			Expect(err.Error()).To(ContainSubstring("WGS84:4326"))
			Expect(vector.requests).To(BeEmpty())
		})

		It("propagates tool failures and cleans up", func() {
			vector.err = &gdal.ToolError{Tool: "ogr2ogr", ExitCode: 1, Stderr: "ERROR 1"}
			_, err := exporter.ToGPKG(ctx, staticPoints(), filepath.Join(tmp, "shops.gpkg"), "EPSG:4326")
			Expect(err).To(MatchError(gdal.ErrExternalTool))
			Expect(os.ReadDir(scratch)).To(BeEmpty())
			Expect(exporter.Manifest().Records()).To(BeEmpty())
		})

		It("rejects dynamic sets", func() {
			_, err := exporter.ToGPKG(ctx, dynamicPoints(), filepath.Join(tmp, "x.gpkg"), "")
			Expect(err).To(MatchError(dataset.ErrIncompatibleSpaceType))
			Expect(vector.requests).To(BeEmpty())
		})
	})

	Describe("ToGPKGAt", func() {
		It("writes <layer>_<t>.gpkg next to filename", func() {
			rec, err := exporter.ToGPKGAt(ctx, dynamicPoints(), filepath.Join(tmp, "walk.gpkg"), "EPSG:28992", 3)
			Expect(err).NotTo(HaveOccurred())

			req := vector.requests[0]
			Expect(req.Destination).To(Equal(filepath.Join(tmp, "walk_3.gpkg")))
			Expect(filepath.Base(req.Source)).To(Equal("walk3.csv"))
			Expect(vector.csv[0]).To(ContainSubstring("155000,463000,3\n"))
			Expect(rec.Artifacts[0].Timestep).To(Equal(3))
		})

		It("rejects timesteps outside the stored range", func() {
			_, err := exporter.ToGPKGAt(ctx, dynamicPoints(), filepath.Join(tmp, "walk.gpkg"), "", 9)
			Expect(err).To(MatchError(table.ErrTimestepOutOfRange))
			Expect(vector.requests).To(BeEmpty())
		})
	})

	Describe("MobilePointsToGPKG", func() {
		It("overwrites the coordinate columns of a copy", func() {
			tbl, err := export.ToDF(staticPoints())
			Expect(err).NotTo(HaveOccurred())

			moved := []geom.Point{{X: 1, Y: 2}, {X: 3, Y: 4}, {X: 5, Y: 6}}
			_, err = exporter.MobilePointsToGPKG(ctx, moved, tbl, filepath.Join(tmp, "mobile.gpkg"), "EPSG:28992")
			Expect(err).NotTo(HaveOccurred())

			Expect(vector.csv[0]).To(HavePrefix("CoordX,CoordY,price,staff\n1,2,1.5,1\n3,4,2.5,2\n"))
			x, _ := tbl.Column("CoordX")
			Expect(x.Values[0]).To(Equal(155000.0))
		})

		It("rejects coordinate lists of the wrong length", func() {
			tbl, _ := export.ToDF(staticPoints())
			_, err := exporter.MobilePointsToGPKG(ctx, []geom.Point{{X: 1, Y: 2}}, tbl, filepath.Join(tmp, "m.gpkg"), "")
			Expect(err).To(MatchError(table.ErrLengthMismatch))
		})
	})

	Describe("ToTIFF", func() {
		It("writes <property>_<id+1>.tiff per object", func() {
			rec, err := exporter.ToTIFF(ctx, fields("static_same_field"), "", tmp)
			Expect(err).NotTo(HaveOccurred())

			Expect(rasters.paths).To(Equal([]string{
				filepath.Join(tmp, "suitability_1.tiff"),
				filepath.Join(tmp, "suitability_2.tiff"),
			}))
			Expect(rasters.grids[0].SRS).To(BeNil())
			Expect(rasters.grids[0].Transform).To(Equal(geo.Geotransform{0, 100, 0, 200, 0, -100}))
			Expect(rec.Artifacts).To(HaveLen(2))
		})

		It("attaches the spatial reference", func() {
			_, err := exporter.ToTIFF(ctx, fields("static_diff_field"), "EPSG:4326", tmp)
			Expect(err).NotTo(HaveOccurred())
			Expect(rasters.grids[0].SRS.Code).To(Equal(4326))
		})

		It("rejects point sets", func() {
			_, err := exporter.ToTIFF(ctx, staticPoints(), "", tmp)
			Expect(err).To(MatchError(dataset.ErrIncompatibleSpaceType))
			Expect(rasters.paths).To(BeEmpty())
		})

		It("does not implement dynamic fields", func() {
			_, err := exporter.ToTIFF(ctx, fields("dynamic_same_field"), "", tmp)
			Expect(err).To(MatchError(export.ErrNotImplemented))
			Expect(rasters.paths).To(BeEmpty())
		})
	})

	Describe("ToTIFFAt", func() {
		It("always fails for dynamic fields", func() {
			_, err := exporter.ToTIFFAt(ctx, fields("dynamic_diff_field"), "EPSG:4326", tmp, 1)
			Expect(err).To(MatchError(export.ErrNotImplemented))
			Expect(rasters.paths).To(BeEmpty())
		})

		It("rejects static fields", func() {
			_, err := exporter.ToTIFFAt(ctx, fields("static_same_field"), "", tmp, 1)
			Expect(err).To(MatchError(dataset.ErrIncompatibleSpaceType))
		})
	})

	Describe("ToGeoTIFF", func() {
		var field *dataset.Field

		BeforeEach(func() {
			ps, err := fields("static_same_field").PropertySet("area", "land")
			Expect(err).NotTo(HaveOccurred())
			prop, err := ps.Property("suitability")
			Expect(err).NotTo(HaveOccurred())
			field, err = prop.Field(1)
			Expect(err).NotTo(HaveOccurred())
		})

		It("writes one grid with its spatial reference", func() {
			path := filepath.Join(tmp, "one.tif")
			_, err := exporter.ToGeoTIFF(ctx, field, path, "EPSG:28992")
			Expect(err).NotTo(HaveOccurred())
			Expect(rasters.paths).To(Equal([]string{path}))
			Expect(rasters.grids[0].Name).To(Equal("one"))
			Expect(rasters.grids[0].SRS.WKT).To(ContainSubstring("Amersfoort"))
			Expect(rasters.grids[0].Type).To(Equal(geo.Float64))
		})

		It("requires a CRS", func() {
			_, err := exporter.ToGeoTIFF(ctx, field, filepath.Join(tmp, "one.tif"), "")
			Expect(err).To(MatchError(geo.ErrInvalidCRSFormat))
			Expect(rasters.paths).To(BeEmpty())
		})
	})

	Describe("CreatePointPDF", func() {
		It("stages the agents and translates the clone with the overlay", func() {
			opts := export.PDFOptions{DataDir: filepath.Join(tmp, "data"), CRS: "EPSG:28992"}
			out := filepath.Join(tmp, "points.pdf")
			_, err := exporter.CreatePointPDF(ctx, staticPoints(), out, opts)
			Expect(err).NotTo(HaveOccurred())

			Expect(filepath.Join(tmp, "data", "agents.csv")).To(BeAnExistingFile())
			Expect(vector.csv[0]).To(HavePrefix("x,y,price,staff\n"))
			Expect(vector.requests[0].Destination).To(Equal(filepath.Join(tmp, "data", "agents.gpkg")))
			Expect(vector.requests[0].XField).To(Equal("x"))

			req := translator.requests[0]
			Expect(req.Format).To(Equal("PDF"))
			Expect(req.Source).To(Equal(filepath.Join(tmp, "data", "clone.tiff")))
			Expect(req.Destination).To(Equal(out))
			Expect(req.AssignSRS).To(Equal("EPSG:28992"))
			Expect(option(req, "OGR_DATASOURCE")).To(Equal(filepath.Join(tmp, "data", "sources.vrt")))
		})

		It("rejects field sets", func() {
			_, err := exporter.CreatePointPDF(ctx, fields("static_same_field"), filepath.Join(tmp, "p.pdf"), export.PDFOptions{DataDir: tmp})
			Expect(err).To(MatchError(table.ErrUnsupportedForPointExport))
			Expect(translator.requests).To(BeEmpty())
		})
	})

	Describe("CreateFieldPDF", func() {
		var opts export.PDFOptions

		BeforeEach(func() {
			opts = export.PDFOptions{
				DataDir:     filepath.Join(tmp, "data"),
				ScratchDir:  filepath.Join(tmp, "tmp"),
				LayerPrefix: "shop",
				CRS:         "EPSG:28992",
			}
			Expect(os.MkdirAll(opts.ScratchDir, 0755)).To(Succeed())
			Expect(os.WriteFile(filepath.Join(opts.ScratchDir, "stale"), nil, 0644)).To(Succeed())
		})

		It("stages Byte layers and removes the scratch directory", func() {
			out := filepath.Join(tmp, "fields.pdf")
			_, err := exporter.CreateFieldPDF(ctx, fields("static_same_field"), out, opts)
			Expect(err).NotTo(HaveOccurred())

			req := translator.requests[0]
			Expect(req.Quiet).To(BeTrue())
			Expect(option(req, "EXTRA_RASTERS")).To(Equal(
				filepath.Join(opts.ScratchDir, "000") + "," + filepath.Join(opts.ScratchDir, "001")))
			Expect(option(req, "EXTRA_RASTERS_LAYER_NAME")).To(Equal("shop000,shop001"))
			Expect(translator.missing).To(BeEmpty())

			Expect(rasters.grids[0].Type).To(Equal(geo.Byte))
			Expect(rasters.grids[0].Data).To(Equal([]float64{0, 62.5, 125, 250}))
			Expect(rasters.grids[1].Data[3]).To(Equal(250.0))

			Expect(opts.ScratchDir).NotTo(BeADirectory())
		})

		It("removes the scratch directory when translation fails", func() {
			translator.err = &gdal.ToolError{Tool: "gdal_translate", ExitCode: 1}
			_, err := exporter.CreateFieldPDF(ctx, fields("static_same_field"), filepath.Join(tmp, "f.pdf"), opts)
			Expect(err).To(MatchError(gdal.ErrExternalTool))
			Expect(opts.ScratchDir).NotTo(BeADirectory())
		})

		It("names layers with the default prefix when none is given", func() {
			opts.LayerPrefix = ""
			_, err := exporter.CreateFieldPDF(ctx, fields("static_same_field"), filepath.Join(tmp, "f.pdf"), opts)
			Expect(err).NotTo(HaveOccurred())
			Expect(option(translator.requests[0], "EXTRA_RASTERS_LAYER_NAME")).To(Equal("shop000,shop001"))
		})

		It("assigns no spatial reference when the CRS is empty", func() {
			opts.CRS = ""
			_, err := exporter.CreateFieldPDF(ctx, fields("static_same_field"), filepath.Join(tmp, "f.pdf"), opts)
			Expect(err).NotTo(HaveOccurred())
			Expect(translator.requests[0].AssignSRS).To(BeEmpty())
		})

		DescribeTable("refuses scratch directories that would remove other files",
			func(scratch func() string) {
				Expect(os.MkdirAll(opts.DataDir, 0755)).To(Succeed())
				keep := filepath.Join(opts.DataDir, "clone.tiff")
				Expect(os.WriteFile(keep, []byte("clone"), 0644)).To(Succeed())

				opts.ScratchDir = scratch()
				_, err := exporter.CreateFieldPDF(ctx, fields("static_same_field"), filepath.Join(tmp, "f.pdf"), opts)
				Expect(err).To(MatchError(export.ErrUnsafeScratchDir))
				Expect(keep).To(BeAnExistingFile())
				Expect(rasters.paths).To(BeEmpty())
				Expect(translator.requests).To(BeEmpty())
			},
			Entry("working directory", func() string { return "." }),
			Entry("root", func() string { return string(filepath.Separator) }),
			Entry("data directory", func() string { return opts.DataDir }),
			Entry("parent of the data directory", func() string { return tmp }),
		)

		It("does not implement dynamic fields", func() {
			_, err := exporter.CreateFieldPDF(ctx, fields("dynamic_same_field"), filepath.Join(tmp, "f.pdf"), opts)
			Expect(errors.Is(err, export.ErrNotImplemented)).To(BeTrue())
			Expect(translator.requests).To(BeEmpty())
		})
	})

	It("records every successful export in the manifest", func() {
		_, err := exporter.ToCSV(staticPoints(), filepath.Join(tmp, "a.csv"))
		Expect(err).NotTo(HaveOccurred())
		_, err = exporter.ToTIFF(ctx, fields("static_same_field"), "", tmp)
		Expect(err).NotTo(HaveOccurred())

		records := exporter.Manifest().Records()
		Expect(records).To(HaveLen(2))
		Expect(records[0].Operation).To(Equal("to_csv"))
		Expect(records[1].Operation).To(Equal("to_tiff"))
		Expect(records[0].ID).NotTo(Equal(records[1].ID))
		Expect(strings.Join(exporter.Manifest().Paths(), ",")).To(ContainSubstring("suitability_2.tiff"))
	})
})
