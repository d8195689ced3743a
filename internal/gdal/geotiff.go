package gdal

import (
	"bufio"
	"context"
	"encoding/xml"
	"fmt"
	"os"
	"path/filepath"

	"github.com/ERKuipers/campo/internal/raster"
)

type vrtDataset struct {
	XMLName      xml.Name `xml:"VRTDataset"`
	RasterXSize  int      `xml:"rasterXSize,attr"`
	RasterYSize  int      `xml:"rasterYSize,attr"`
	SRS          string   `xml:"SRS,omitempty"`
	GeoTransform string   `xml:"GeoTransform"`
	Band         vrtBand  `xml:"VRTRasterBand"`
}

type vrtBand struct {
	DataType       string    `xml:"dataType,attr"`
	Band           int       `xml:"band,attr"`
	SubClass       string    `xml:"subClass,attr"`
	SourceFilename vrtSource `xml:"SourceFilename"`
	ImageOffset    int       `xml:"ImageOffset"`
	PixelOffset    int       `xml:"PixelOffset"`
	LineOffset     int       `xml:"LineOffset"`
	ByteOrder      string    `xml:"ByteOrder"`
}

type vrtSource struct {
	RelativeToVRT int    `xml:"relativeToVRT,attr"`
	Path          string `xml:",chardata"`
}

// VRT renders the raw-band VRT describing g stored in rawName next to it.
func VRT(g *raster.Grid, rawName string) ([]byte, error) {
	size := g.Type.Size()
	doc := vrtDataset{
		RasterXSize:  g.Cols,
		RasterYSize:  g.Rows,
		GeoTransform: g.Transform.String(),
		Band: vrtBand{
			DataType:       g.Type.String(),
			Band:           1,
			SubClass:       "VRTRawRasterBand",
			SourceFilename: vrtSource{RelativeToVRT: 1, Path: rawName},
			PixelOffset:    size,
			LineOffset:     size * g.Cols,
			ByteOrder:      "LSB",
		},
	}
	if g.SRS != nil {
		doc.SRS = g.SRS.Definition()
	}
	return xml.MarshalIndent(doc, "", "  ")
}

// GeoTIFFWriter writes grids as single-band GeoTIFFs. Each grid is staged
// as raw samples plus a VRT in a temporary directory, which gdal_translate
// turns into the GeoTIFF.
type GeoTIFFWriter struct {
	Translator *Translator
	TempDir    string
}

func NewGeoTIFFWriter(t *Translator) *GeoTIFFWriter {
	return &GeoTIFFWriter{Translator: t}
}

// WriteGrid writes g to path, replacing any existing file.
func (w *GeoTIFFWriter) WriteGrid(ctx context.Context, g *raster.Grid, path string) error {
	if len(g.Data) != g.Rows*g.Cols {
		return fmt.Errorf("%s: %d cells for %dx%d grid", g.Name, len(g.Data), g.Rows, g.Cols)
	}

	dir, err := os.MkdirTemp(w.TempDir, "campo-grid-")
	if err != nil {
		return err
	}
	defer os.RemoveAll(dir)

	if err := writeRaw(filepath.Join(dir, "band.raw"), g); err != nil {
		return err
	}

	vrt, err := VRT(g, "band.raw")
	if err != nil {
		return err
	}
	vrtPath := filepath.Join(dir, "band.vrt")
	if err := os.WriteFile(vrtPath, vrt, 0644); err != nil {
		return err
	}

	return w.Translator.Translate(ctx, TranslateRequest{
		Source:      vrtPath,
		Destination: path,
		Format:      "GTiff",
		Quiet:       true,
	})
}

func writeRaw(path string, g *raster.Grid) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	bw := bufio.NewWriter(f)
	if g.Ints != nil {
		err = g.Type.EncodeInts(bw, g.Ints)
	} else {
		err = g.Type.Encode(bw, g.Data)
	}
	if err != nil {
		return fmt.Errorf("%s: %w", g.Name, err)
	}
	if err := bw.Flush(); err != nil {
		return err
	}
	return f.Close()
}
