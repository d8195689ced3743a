package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/ERKuipers/campo/internal/geo"
)

const (
	DefaultCRS         = "EPSG:28992"
	DefaultOutputDir   = "."
	DefaultDataDir     = "data"
	DefaultClone       = "clone.tiff"
	DefaultOverlay     = "sources.vrt"
	DefaultScratchDir  = "tmp"
	DefaultLayerPrefix = "shop"
	DefaultLogLevel    = "info"
	DefaultLogFormat   = "text"
)

type Config struct {
	CRS            string                 `yaml:"crs"`
	OutputDir      string                 `yaml:"output_dir"`
	Tools          ToolsConfig            `yaml:"tools"`
	PDF            PDFConfig              `yaml:"pdf"`
	Log            LogConfig              `yaml:"log"`
	CRSDefinitions map[int]geo.Definition `yaml:"crs_definitions,omitempty"`
}

// ToolsConfig names the GDAL binaries. Bare names are looked up on PATH.
type ToolsConfig struct {
	OGR2OGR       string `yaml:"ogr2ogr"`
	GDALTranslate string `yaml:"gdal_translate"`
}

// PDFConfig locates the inputs of the PDF composers. Clone and Overlay are
// relative to DataDir unless absolute.
type PDFConfig struct {
	DataDir     string `yaml:"data_dir"`
	Clone       string `yaml:"clone"`
	Overlay     string `yaml:"overlay"`
	ScratchDir  string `yaml:"scratch_dir"`
	LayerPrefix string `yaml:"layer_prefix"`
	CRS         string `yaml:"crs"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

func DefaultConfig() *Config {
	return &Config{
		CRS:       DefaultCRS,
		OutputDir: DefaultOutputDir,
		Tools: ToolsConfig{
			OGR2OGR:       "ogr2ogr",
			GDALTranslate: "gdal_translate",
		},
		PDF: PDFConfig{
			DataDir:     DefaultDataDir,
			Clone:       DefaultClone,
			Overlay:     DefaultOverlay,
			ScratchDir:  DefaultScratchDir,
			LayerPrefix: DefaultLayerPrefix,
			CRS:         DefaultCRS,
		},
		Log: LogConfig{
			Level:  DefaultLogLevel,
			Format: DefaultLogFormat,
		},
	}
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// Validate checks the CRS strings. Empty CRS values are allowed.
func (c *Config) Validate() error {
	for _, crs := range []string{c.CRS, c.PDF.CRS} {
		if crs == "" {
			continue
		}
		if _, err := geo.ParseCRS(crs); err != nil {
			return err
		}
	}
	return nil
}

// Registry returns the built-in CRS registry extended with the configured
// definitions.
func (c *Config) Registry() (*geo.Registry, error) {
	r := geo.NewRegistry()
	for code, def := range c.CRSDefinitions {
		if err := r.Register(code, def); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// ApplyProfile overlays the named profile's CRS settings.
func (c *Config) ApplyProfile(name string) error {
	p := GetProfile(name)
	if p == nil {
		return fmt.Errorf("unknown profile %q (available: %v)", name, ListProfiles())
	}
	c.CRS = p.CRS
	c.PDF.CRS = p.PDFCRS
	if p.LayerPrefix != "" {
		c.PDF.LayerPrefix = p.LayerPrefix
	}
	return nil
}
