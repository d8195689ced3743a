package geo

import (
	"encoding/binary"
	"fmt"
	"io"
	"math"

	"github.com/ERKuipers/campo/internal/dataset"
)

// RasterType is the numeric type code of a raster band.
type RasterType int

const (
	Byte RasterType = iota + 1
	Int32
	Int64
	Float32
	Float64
)

// String returns the GDAL data type name.
func (t RasterType) String() string {
	switch t {
	case Byte:
		return "Byte"
	case Int32:
		return "Int32"
	case Int64:
		return "Int64"
	case Float32:
		return "Float32"
	case Float64:
		return "Float64"
	default:
		return "Unknown"
	}
}

// Size is the sample width in bytes.
func (t RasterType) Size() int {
	switch t {
	case Byte:
		return 1
	case Int32, Float32:
		return 4
	case Int64, Float64:
		return 8
	default:
		return 0
	}
}

// RasterTypeOf maps a stored element type onto its raster type code.
//
//	bool    → Byte
//	int32   → Int32
//	int64   → Int64
//	float32 → Float32
//	float64 → Float64
func RasterTypeOf(dtype dataset.DType) (RasterType, error) {
	switch dtype {
	case dataset.Bool:
		return Byte, nil
	case dataset.Int32:
		return Int32, nil
	case dataset.Int64:
		return Int64, nil
	case dataset.Float32:
		return Float32, nil
	case dataset.Float64:
		return Float64, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnsupportedDataType, dtype)
	}
}

// Encode writes samples as little-endian values of type t. Byte samples are
// rounded; integer samples must be whole numbers. A sample outside the range
// of t is an error.
func (t RasterType) Encode(w io.Writer, data []float64) error {
	size := t.Size()
	if size == 0 {
		return fmt.Errorf("%w: %s", ErrUnsupportedDataType, t)
	}
	buf := make([]byte, size*len(data))
	for i, v := range data {
		b := buf[i*size : (i+1)*size]
		switch t {
		case Byte:
			r := math.Round(v)
			if !(r >= 0 && r <= math.MaxUint8) {
				return outOfRange(t, i, v)
			}
			b[0] = byte(r)
		case Int32:
			if v != math.Trunc(v) || v < math.MinInt32 || v > math.MaxInt32 {
				return outOfRange(t, i, v)
			}
			binary.LittleEndian.PutUint32(b, uint32(int32(v)))
		case Int64:
			if v != math.Trunc(v) || v < -0x1p63 || v >= 0x1p63 {
				return outOfRange(t, i, v)
			}
			binary.LittleEndian.PutUint64(b, uint64(int64(v)))
		case Float32:
			if !math.IsInf(v, 0) && math.Abs(v) > math.MaxFloat32 {
				return outOfRange(t, i, v)
			}
			binary.LittleEndian.PutUint32(b, math.Float32bits(float32(v)))
		case Float64:
			binary.LittleEndian.PutUint64(b, math.Float64bits(v))
		}
	}
	_, err := w.Write(buf)
	return err
}

// EncodeInts writes exact integer samples as little-endian values of type t.
func (t RasterType) EncodeInts(w io.Writer, data []int64) error {
	size := t.Size()
	if size == 0 {
		return fmt.Errorf("%w: %s", ErrUnsupportedDataType, t)
	}
	buf := make([]byte, size*len(data))
	for i, v := range data {
		b := buf[i*size : (i+1)*size]
		switch t {
		case Byte:
			if v < 0 || v > math.MaxUint8 {
				return outOfRange(t, i, v)
			}
			b[0] = byte(v)
		case Int32:
			if v < math.MinInt32 || v > math.MaxInt32 {
				return outOfRange(t, i, v)
			}
			binary.LittleEndian.PutUint32(b, uint32(int32(v)))
		case Int64:
			binary.LittleEndian.PutUint64(b, uint64(v))
		case Float32:
			binary.LittleEndian.PutUint32(b, math.Float32bits(float32(v)))
		case Float64:
			binary.LittleEndian.PutUint64(b, math.Float64bits(float64(v)))
		}
	}
	_, err := w.Write(buf)
	return err
}

func outOfRange[T int64 | float64](t RasterType, i int, v T) error {
	return fmt.Errorf("%w: sample %d is %v, %s holds no such value", ErrValueOutOfRange, i, v, t)
}
