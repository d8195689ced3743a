package gdal

import "context"

// DefaultOGR2OGR is the vector conversion binary looked up on PATH.
const DefaultOGR2OGR = "ogr2ogr"

// VectorRequest converts a CSV of points into a vector dataset. SourceCRS
// and TargetCRS are passed through verbatim; empty leaves them unset.
type VectorRequest struct {
	Source      string
	Destination string
	Format      string
	XField      string
	YField      string
	SourceCRS   string
	TargetCRS   string
}

// Args is the ogr2ogr argument list for r.
func (r VectorRequest) Args() []string {
	var args []string
	if r.SourceCRS != "" {
		args = append(args, "-s_srs", r.SourceCRS)
	}
	if r.TargetCRS != "" {
		args = append(args, "-t_srs", r.TargetCRS)
	}
	format := r.Format
	if format == "" {
		format = "GPKG"
	}
	args = append(args,
		"-oo", "X_POSSIBLE_NAMES="+r.XField,
		"-oo", "Y_POSSIBLE_NAMES="+r.YField,
		"-f", format,
		r.Destination, r.Source,
	)
	return args
}

// OGR converts point tables with ogr2ogr.
type OGR struct {
	Runner Runner
	Binary string
}

func NewOGR(runner Runner, binary string) *OGR {
	if binary == "" {
		binary = DefaultOGR2OGR
	}
	return &OGR{Runner: runner, Binary: binary}
}

func (o *OGR) ConvertCSV(ctx context.Context, req VectorRequest) error {
	return o.Runner.Run(ctx, o.Binary, req.Args()...)
}
