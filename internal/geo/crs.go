package geo

import (
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/ctessum/geom/proj"
)

// Authority is the only CRS authority accepted in CRS strings.
const Authority = "EPSG"

// SpatialReference describes the coordinate reference system attached to
// an exported artifact.
type SpatialReference struct {
	Authority string
	Code      int
	Name      string
	Proj4     string
	WKT       string
}

// String returns the "EPSG:<code>" form handed to external tools.
func (s *SpatialReference) String() string {
	return fmt.Sprintf("%s:%d", s.Authority, s.Code)
}

// Definition is the WKT when it is known, else the authority string, which
// GDAL resolves from its own database.
func (s *SpatialReference) Definition() string {
	if s.WKT != "" {
		return s.WKT
	}
	return s.String()
}

// LonLat returns a transformer from this reference system to geographic
// longitude/latitude. It needs a PROJ4 definition.
func (s *SpatialReference) LonLat() (proj.Transformer, error) {
	if s.Proj4 == "" {
		return nil, fmt.Errorf("%w: %s has no PROJ4 definition", ErrUnknownCRS, s)
	}
	src, err := proj.Parse(s.Proj4)
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", s, err)
	}
	dst, err := proj.Parse("+proj=longlat +datum=WGS84 +no_defs")
	if err != nil {
		return nil, err
	}
	return src.NewTransform(dst)
}

// Definition is a registry entry for one EPSG code.
type Definition struct {
	Name  string `yaml:"name"`
	Proj4 string `yaml:"proj4"`
	WKT   string `yaml:"wkt"`
}

// Registry maps EPSG codes onto their definitions.
type Registry struct {
	mu   sync.RWMutex
	defs map[int]Definition
}

// NewRegistry returns a registry seeded with the built-in definitions.
func NewRegistry() *Registry {
	r := &Registry{defs: make(map[int]Definition, len(builtinDefinitions))}
	for code, def := range builtinDefinitions {
		r.defs[code] = def
	}
	return r
}

// Register adds or replaces the definition of code. A PROJ4 string, when
// given, must parse.
func (r *Registry) Register(code int, def Definition) error {
	if code <= 0 {
		return fmt.Errorf("%w: code %d", ErrInvalidCRSFormat, code)
	}
	if def.Proj4 != "" {
		if _, err := proj.Parse(def.Proj4); err != nil {
			return fmt.Errorf("EPSG:%d: %w", code, err)
		}
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.defs[code] = def
	return nil
}

func (r *Registry) Lookup(code int) (Definition, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	def, ok := r.defs[code]
	return def, ok
}

// Resolve parses an "EPSG:<code>" string. The empty string means no spatial
// reference and yields nil without error.
func (r *Registry) Resolve(crs string) (*SpatialReference, error) {
	if crs == "" {
		return nil, nil
	}
	code, err := ParseCRS(crs)
	if err != nil {
		return nil, err
	}
	sr := &SpatialReference{Authority: Authority, Code: code}
	if def, ok := r.Lookup(code); ok {
		sr.Name = def.Name
		sr.Proj4 = def.Proj4
		sr.WKT = def.WKT
	}
	return sr, nil
}

// ParseCRS validates the "EPSG:<code>" form and returns the code.
func ParseCRS(crs string) (int, error) {
	auth, codeStr, ok := strings.Cut(crs, ":")
	if !ok || auth != Authority {
		return 0, fmt.Errorf("%w: %q, provide CRS like \"EPSG:4326\"", ErrInvalidCRSFormat, crs)
	}
	code, err := strconv.Atoi(codeStr)
	if err != nil || code <= 0 {
		return 0, fmt.Errorf("%w: %q has no numeric code", ErrInvalidCRSFormat, crs)
	}
	return code, nil
}

var defaultRegistry = NewRegistry()

// DefaultRegistry is the process-wide registry used by ResolveCRS.
func DefaultRegistry() *Registry { return defaultRegistry }

// ResolveCRS resolves crs against the default registry.
func ResolveCRS(crs string) (*SpatialReference, error) {
	return defaultRegistry.Resolve(crs)
}
