package geo

import "errors"

var (
	// ErrInsufficientSamples indicates a coordinate axis with fewer than two
	// samples, from which no cell size can be derived.
	ErrInsufficientSamples = errors.New("geo: at least two coordinate samples required")

	// ErrInvalidCRSFormat indicates a CRS string that is not "EPSG:<code>".
	ErrInvalidCRSFormat = errors.New("geo: invalid CRS format")

	// ErrUnknownCRS indicates an EPSG code without a registered definition.
	ErrUnknownCRS = errors.New("geo: no definition for CRS")

	// ErrValueOutOfRange indicates a sample the band's raster type cannot hold.
	ErrValueOutOfRange = errors.New("geo: sample out of range for raster type")

	// ErrUnsupportedDataType indicates an element type without a raster type code.
	ErrUnsupportedDataType = errors.New("geo: unsupported raster data type")
)
