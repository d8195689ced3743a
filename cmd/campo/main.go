package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/ERKuipers/campo/internal/config"
	"github.com/ERKuipers/campo/internal/dataset"
	"github.com/ERKuipers/campo/internal/export"
	"github.com/ERKuipers/campo/internal/gdal"
	"github.com/ERKuipers/campo/internal/table"
	"github.com/ERKuipers/campo/internal/viz"
)

var (
	configFile   string
	profile      string
	logLevel     string
	logFormat    string
	manifestPath string

	crs       string
	outputDir string
	timestep  int
	mobileAt  int
	agents    []int
	width     int
	height    int

	cfg      *config.Config
	logger   *slog.Logger
	exporter *export.Exporter
)

func main() {
	rootCmd := &cobra.Command{
		Use:               "campo",
		Short:             "export campo datasets to CSV, GeoPackage, GeoTIFF and PDF",
		SilenceErrors:     true,
		SilenceUsage:      true,
		PersistentPreRunE: setup,
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			if manifestPath == "" || exporter == nil {
				return nil
			}
			return exporter.Manifest().WriteJSON(manifestPath)
		},
	}

	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "config file (yaml)")
	rootCmd.PersistentFlags().StringVar(&profile, "profile", "", "named CRS profile (see `campo profiles`)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", config.DefaultLogLevel, "log level: debug, info, warn, error")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", config.DefaultLogFormat, "log format: text or json")
	rootCmd.PersistentFlags().StringVar(&manifestPath, "manifest", "", "write a JSON manifest of the exported files")

	infoCmd := &cobra.Command{
		Use:   "info [dataset]",
		Short: "list phenomena, property sets and properties",
		Args:  cobra.ExactArgs(1),
		RunE:  showInfo,
	}
	infoCmd.Flags().StringVar(&crs, "crs", "", "reference system of the coordinates, for lon/lat extents")

	showCmd := &cobra.Command{
		Use:   "show [dataset]",
		Short: "print the point table of the first property set as CSV",
		Args:  cobra.ExactArgs(1),
		RunE:  showTable,
	}
	showCmd.Flags().IntVarP(&timestep, "timestep", "t", 0, "1-based timestep of a dynamic set")

	csvCmd := &cobra.Command{
		Use:   "csv [dataset] [filename]",
		Short: "export point property sets to CSV",
		Args:  cobra.ExactArgs(2),
		RunE:  exportCSV,
	}

	gpkgCmd := &cobra.Command{
		Use:   "gpkg [dataset] [filename]",
		Short: "export point property sets to GeoPackage",
		Args:  cobra.ExactArgs(2),
		RunE:  exportGPKG,
	}
	gpkgCmd.Flags().StringVar(&crs, "crs", "", "EPSG code of the coordinates (default from config)")
	gpkgCmd.Flags().IntVarP(&timestep, "timestep", "t", 0, "1-based timestep; exports dynamic sets one file per set")

	mobileCmd := &cobra.Command{
		Use:   "mobile-gpkg [dataset] [phenomenon] [property-set] [filename]",
		Short: "export mobile agents at one timestep to GeoPackage",
		Args:  cobra.ExactArgs(4),
		RunE:  exportMobile,
	}
	mobileCmd.Flags().StringVar(&crs, "crs", "", "EPSG code of the coordinates (default from config)")
	mobileCmd.Flags().IntVarP(&mobileAt, "timestep", "t", 1, "1-based timestep")

	tiffCmd := &cobra.Command{
		Use:   "tiff [dataset]",
		Short: "export field property sets to GeoTIFF, one file per object",
		Args:  cobra.ExactArgs(1),
		RunE:  exportTIFF,
	}
	tiffCmd.Flags().StringVar(&crs, "crs", "", "EPSG code of the grids (default from config)")
	tiffCmd.Flags().StringVarP(&outputDir, "dir", "d", "", "output directory (default from config)")
	tiffCmd.Flags().IntVarP(&timestep, "timestep", "t", 0, "1-based timestep of dynamic fields")

	geotiffCmd := &cobra.Command{
		Use:   "geotiff [dataset] [phenomenon] [property-set] [property] [object] [path]",
		Short: "export one field object to GeoTIFF",
		Args:  cobra.ExactArgs(6),
		RunE:  exportGeoTIFF,
	}
	geotiffCmd.Flags().StringVar(&crs, "crs", "", "EPSG code of the grid (default from config)")

	pdfPointsCmd := &cobra.Command{
		Use:   "pdf-points [dataset] [filename]",
		Short: "render the first point property set onto the clone map as PDF",
		Args:  cobra.ExactArgs(2),
		RunE:  exportPointPDF,
	}

	pdfFieldsCmd := &cobra.Command{
		Use:   "pdf-fields [dataset] [filename]",
		Short: "render every field object as a PDF raster layer",
		Args:  cobra.ExactArgs(2),
		RunE:  exportFieldPDF,
	}

	plotCmd := &cobra.Command{
		Use:   "plot [dataset] [phenomenon] [property-set] [property]",
		Short: "plot agent time series of a dynamic point property",
		Args:  cobra.ExactArgs(4),
		RunE:  plotProperty,
	}
	plotCmd.Flags().IntSliceVarP(&agents, "agents", "a", []int{0}, "agent indices to plot")
	plotCmd.Flags().IntVar(&width, "width", 80, "plot width")
	plotCmd.Flags().IntVar(&height, "height", 12, "plot height")

	browseCmd := &cobra.Command{
		Use:   "browse [dataset]",
		Short: "browse the dataset hierarchy interactively",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ds, err := dataset.Load(args[0])
			if err != nil {
				return err
			}
			return viz.RunBrowser(ds)
		},
	}

	crsCmd := &cobra.Command{
		Use:   "crs [EPSG:code]",
		Short: "print the definition handed to GDAL for a CRS",
		Args:  cobra.MaximumNArgs(1),
		RunE:  showCRS,
	}

	profilesCmd := &cobra.Command{
		Use:   "profiles",
		Short: "list CRS profiles",
		RunE: func(cmd *cobra.Command, args []string) error {
			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "NAME\tCRS\tPDF CRS\tDESCRIPTION")
			for _, name := range config.ListProfiles() {
				p := config.GetProfile(name)
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", name, orDash(p.CRS), orDash(p.PDFCRS), p.Description)
			}
			return w.Flush()
		},
	}

	rootCmd.AddCommand(infoCmd, showCmd, csvCmd, gpkgCmd, mobileCmd, tiffCmd, geotiffCmd,
		pdfPointsCmd, pdfFieldsCmd, plotCmd, browseCmd, crsCmd, profilesCmd)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, viz.Alert(err))
		stop()
		os.Exit(1)
	}
}

// setup loads the config, applies the profile and explicitly set flags,
// and installs the logger.
func setup(cmd *cobra.Command, args []string) error {
	cfg = config.DefaultConfig()
	if configFile != "" {
		loaded, err := config.Load(configFile)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		cfg = loaded
	}
	if profile != "" {
		if err := cfg.ApplyProfile(profile); err != nil {
			return err
		}
	}

	if cmd.Flags().Changed("log-level") || cfg.Log.Level == "" {
		cfg.Log.Level = logLevel
	}
	if cmd.Flags().Changed("log-format") || cfg.Log.Format == "" {
		cfg.Log.Format = logFormat
	}
	if cmd.Flags().Changed("crs") {
		cfg.CRS = crs
	}
	if cmd.Flags().Changed("dir") {
		cfg.OutputDir = outputDir
	}

	logger = setupLogger(os.Stderr, cfg.Log.Level, cfg.Log.Format)
	slog.SetDefault(logger)
	return nil
}

func newExporter() (*export.Exporter, error) {
	registry, err := cfg.Registry()
	if err != nil {
		return nil, err
	}
	runner := &gdal.ExecRunner{Logger: logger}
	translator := gdal.NewTranslator(runner, cfg.Tools.GDALTranslate)
	exporter = export.New(
		gdal.NewOGR(runner, cfg.Tools.OGR2OGR),
		gdal.NewGeoTIFFWriter(translator),
		translator,
		export.WithRegistry(registry),
		export.WithLogger(logger),
	)
	return exporter, nil
}

// load reads the dataset and builds the exporter for an export command.
func load(path string) (*dataset.Dataset, *export.Exporter, error) {
	ds, err := dataset.Load(path)
	if err != nil {
		return nil, nil, err
	}
	e, err := newExporter()
	if err != nil {
		return nil, nil, err
	}
	return ds, e, nil
}

func pdfOptions() export.PDFOptions {
	return export.PDFOptions{
		DataDir:     cfg.PDF.DataDir,
		Clone:       cfg.PDF.Clone,
		Overlay:     cfg.PDF.Overlay,
		ScratchDir:  cfg.PDF.ScratchDir,
		LayerPrefix: cfg.PDF.LayerPrefix,
		CRS:         cfg.PDF.CRS,
	}
}

func report(rec *export.Record) {
	for _, a := range rec.Artifacts {
		fmt.Printf("  %-8s %s\n", a.Kind, a.Path)
	}
	fmt.Printf("export %s: %d files in %s\n", rec.ID, len(rec.Artifacts), rec.Duration)
}

func showTable(cmd *cobra.Command, args []string) error {
	ds, err := dataset.Load(args[0])
	if err != nil {
		return err
	}
	var tbl *table.Table
	if timestep > 0 {
		tbl, err = export.ToDFAt(ds, timestep)
	} else {
		tbl, err = export.ToDF(ds)
	}
	if err != nil {
		return err
	}
	return table.WriteCSV(os.Stdout, tbl)
}

func exportCSV(cmd *cobra.Command, args []string) error {
	ds, e, err := load(args[0])
	if err != nil {
		return err
	}
	rec, err := e.ToCSV(ds, args[1])
	if err != nil {
		return err
	}
	report(rec)
	return nil
}

func exportGPKG(cmd *cobra.Command, args []string) error {
	ds, e, err := load(args[0])
	if err != nil {
		return err
	}
	var rec *export.Record
	if timestep > 0 {
		rec, err = e.ToGPKGAt(cmd.Context(), ds, args[1], cfg.CRS, timestep)
	} else {
		rec, err = e.ToGPKG(cmd.Context(), ds, args[1], cfg.CRS)
	}
	if err != nil {
		return err
	}
	report(rec)
	return nil
}

func exportMobile(cmd *cobra.Command, args []string) error {
	ds, e, err := load(args[0])
	if err != nil {
		return err
	}
	ps, err := ds.PropertySet(args[1], args[2])
	if err != nil {
		return err
	}
	coords, err := ds.Coordinates(args[1], args[2], mobileAt)
	if err != nil {
		return err
	}
	tbl, err := table.PointsAt(ps, mobileAt)
	if err != nil {
		return err
	}
	rec, err := e.MobilePointsToGPKG(cmd.Context(), coords, tbl, args[3], cfg.CRS)
	if err != nil {
		return err
	}
	report(rec)
	return nil
}

func exportTIFF(cmd *cobra.Command, args []string) error {
	ds, e, err := load(args[0])
	if err != nil {
		return err
	}
	if err := os.MkdirAll(cfg.OutputDir, 0o755); err != nil {
		return err
	}
	var rec *export.Record
	if timestep > 0 {
		rec, err = e.ToTIFFAt(cmd.Context(), ds, cfg.CRS, cfg.OutputDir, timestep)
	} else {
		rec, err = e.ToTIFF(cmd.Context(), ds, cfg.CRS, cfg.OutputDir)
	}
	if err != nil {
		return err
	}
	report(rec)
	return nil
}

func exportGeoTIFF(cmd *cobra.Command, args []string) error {
	ds, e, err := load(args[0])
	if err != nil {
		return err
	}
	ps, err := ds.PropertySet(args[1], args[2])
	if err != nil {
		return err
	}
	prop, err := ps.Property(args[3])
	if err != nil {
		return err
	}
	id, err := strconv.Atoi(args[4])
	if err != nil {
		return fmt.Errorf("invalid object id %q: %w", args[4], err)
	}
	field, err := prop.Field(id)
	if err != nil {
		return err
	}
	rec, err := e.ToGeoTIFF(cmd.Context(), field, args[5], cfg.CRS)
	if err != nil {
		return err
	}
	report(rec)
	return nil
}

func exportPointPDF(cmd *cobra.Command, args []string) error {
	ds, e, err := load(args[0])
	if err != nil {
		return err
	}
	rec, err := e.CreatePointPDF(cmd.Context(), ds, args[1], pdfOptions())
	if err != nil {
		return err
	}
	report(rec)
	return nil
}

func exportFieldPDF(cmd *cobra.Command, args []string) error {
	ds, e, err := load(args[0])
	if err != nil {
		return err
	}
	rec, err := e.CreateFieldPDF(cmd.Context(), ds, args[1], pdfOptions())
	if err != nil {
		return err
	}
	report(rec)
	return nil
}

func plotProperty(cmd *cobra.Command, args []string) error {
	ds, err := dataset.Load(args[0])
	if err != nil {
		return err
	}
	ps, err := ds.PropertySet(args[1], args[2])
	if err != nil {
		return err
	}
	series, err := table.TimeSeries(ps)
	if err != nil {
		return err
	}
	for _, s := range series.Properties {
		if s.Property != args[3] {
			continue
		}
		var graph string
		if len(agents) == 1 {
			col, ok := s.Table.Column(table.AgentColumn(agents[0]))
			if !ok {
				return fmt.Errorf("%w: agent %d of %s", viz.ErrNoSeries, agents[0], s.Property)
			}
			graph, err = viz.PlotSeries(col.Values, fmt.Sprintf("%s of agent %d", s.Property, agents[0]), width, height)
		} else {
			graph, err = viz.PlotAgents(s, agents, width, height)
		}
		if err != nil {
			return err
		}
		fmt.Println(graph)
		return nil
	}
	return fmt.Errorf("%w: property %q in %s/%s", dataset.ErrNotFound, args[3], args[1], args[2])
}

func showCRS(cmd *cobra.Command, args []string) error {
	name := cfg.CRS
	if len(args) > 0 {
		name = args[0]
	}
	registry, err := cfg.Registry()
	if err != nil {
		return err
	}
	sr, err := registry.Resolve(name)
	if err != nil {
		return err
	}
	if sr == nil {
		fmt.Println("no spatial reference")
		return nil
	}
	fmt.Println(viz.HeaderStyle.Render(sr.String() + " " + sr.Name))
	fmt.Println(sr.Definition())
	return nil
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
