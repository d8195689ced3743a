package gdal

import (
	"context"
	"strings"
)

// DefaultGDALTranslate is the raster conversion binary looked up on PATH.
const DefaultGDALTranslate = "gdal_translate"

// CreationOption is one -co KEY=VALUE pair. Order is preserved.
type CreationOption struct {
	Key   string
	Value string
}

// TranslateRequest converts one raster into another format.
type TranslateRequest struct {
	Source          string
	Destination     string
	Format          string
	OutputType      string
	AssignSRS       string
	CreationOptions []CreationOption
	Quiet           bool
}

// Args is the gdal_translate argument list for r.
func (r TranslateRequest) Args() []string {
	var args []string
	if r.Quiet {
		args = append(args, "-q")
	}
	if r.Format != "" {
		args = append(args, "-of", r.Format)
	}
	if r.OutputType != "" {
		args = append(args, "-ot", r.OutputType)
	}
	if r.AssignSRS != "" {
		args = append(args, "-a_srs", r.AssignSRS)
	}
	args = append(args, r.Source, r.Destination)
	for _, co := range r.CreationOptions {
		args = append(args, "-co", co.Key+"="+co.Value)
	}
	return args
}

// JoinList renders a GDAL list-valued creation option.
func JoinList(items []string) string {
	return strings.Join(items, ",")
}

// Translator converts rasters with gdal_translate.
type Translator struct {
	Runner Runner
	Binary string
}

func NewTranslator(runner Runner, binary string) *Translator {
	if binary == "" {
		binary = DefaultGDALTranslate
	}
	return &Translator{Runner: runner, Binary: binary}
}

func (t *Translator) Translate(ctx context.Context, req TranslateRequest) error {
	return t.Runner.Run(ctx, t.Binary, req.Args()...)
}
