package dataset

import (
	"fmt"
	"math"
	"slices"
)

// DType is the stored element type of an array.
type DType string

const (
	Bool    DType = "bool"
	Uint8   DType = "uint8"
	Int16   DType = "int16"
	Int32   DType = "int32"
	Int64   DType = "int64"
	Float32 DType = "float32"
	Float64 DType = "float64"
)

func (d DType) Valid() bool {
	switch d {
	case Bool, Uint8, Int16, Int32, Int64, Float32, Float64:
		return true
	}
	return false
}

func (d DType) IsFloat() bool { return d == Float32 || d == Float64 }

func (d DType) IsInteger() bool {
	return d == Uint8 || d == Int16 || d == Int32 || d == Int64
}

// Array is an n-dimensional row-major array. Data holds every element as
// float64. Integer dtypes also carry Ints, the exact stored values; Data is
// derived from Ints and rounds above 2^53.
type Array struct {
	DType DType
	Shape []int
	Data  []float64
	Ints  []int64
}

// intRange is the inclusive value range of an integer dtype.
func (d DType) intRange() (lo, hi int64) {
	switch d {
	case Uint8:
		return 0, math.MaxUint8
	case Int16:
		return math.MinInt16, math.MaxInt16
	case Int32:
		return math.MinInt32, math.MaxInt32
	default:
		return math.MinInt64, math.MaxInt64
	}
}

// CheckInt reports whether v fits integer dtype d.
func (d DType) CheckInt(v int64) error {
	lo, hi := d.intRange()
	if v < lo || v > hi {
		return fmt.Errorf("%w: %d does not fit %s", ErrValueOutOfRange, v, d)
	}
	return nil
}

// CheckFloat reports whether v is a value of d. Bool takes 0 or 1 and
// integer types take in-range whole numbers.
func (d DType) CheckFloat(v float64) error {
	switch {
	case d == Bool:
		if v != 0 && v != 1 {
			return fmt.Errorf("%w: %v is not a bool", ErrValueOutOfRange, v)
		}
	case d.IsInteger():
		if v != math.Trunc(v) || v < -0x1p63 || v >= 0x1p63 {
			return fmt.Errorf("%w: %v is not a %s", ErrValueOutOfRange, v, d)
		}
		return d.CheckInt(int64(v))
	case d == Float32:
		if !math.IsInf(v, 0) && math.Abs(v) > math.MaxFloat32 {
			return fmt.Errorf("%w: %v overflows float32", ErrValueOutOfRange, v)
		}
	}
	return nil
}

func checkShape(shape []int, n int) error {
	want := 1
	for _, d := range shape {
		if d < 0 {
			return fmt.Errorf("%w: negative dimension in %v", ErrShapeMismatch, shape)
		}
		want *= d
	}
	if want != n {
		return fmt.Errorf("%w: shape %v needs %d values, got %d", ErrShapeMismatch, shape, want, n)
	}
	return nil
}

// NewArray validates that data fills shape exactly and that every value is
// representable in dtype.
func NewArray(dtype DType, shape []int, data []float64) (Array, error) {
	if !dtype.Valid() {
		return Array{}, fmt.Errorf("%w: %q", ErrUnsupportedDType, dtype)
	}
	if err := checkShape(shape, len(data)); err != nil {
		return Array{}, err
	}
	for i, v := range data {
		if err := dtype.CheckFloat(v); err != nil {
			return Array{}, fmt.Errorf("element %d: %w", i, err)
		}
	}
	a := Array{DType: dtype, Shape: slices.Clone(shape), Data: data}
	if dtype.IsInteger() {
		a.Ints = make([]int64, len(data))
		for i, v := range data {
			a.Ints[i] = int64(v)
		}
	}
	return a, nil
}

// NewIntArray builds an integer array from exact values.
func NewIntArray(dtype DType, shape []int, ints []int64) (Array, error) {
	if !dtype.IsInteger() {
		return Array{}, fmt.Errorf("%w: %q is not an integer type", ErrUnsupportedDType, dtype)
	}
	if err := checkShape(shape, len(ints)); err != nil {
		return Array{}, err
	}
	data := make([]float64, len(ints))
	for i, v := range ints {
		if err := dtype.CheckInt(v); err != nil {
			return Array{}, fmt.Errorf("element %d: %w", i, err)
		}
		data[i] = float64(v)
	}
	return Array{DType: dtype, Shape: slices.Clone(shape), Data: data, Ints: ints}, nil
}

// Vector builds a rank 1 array without checking values against dtype. Use
// NewArray for values read from outside the program.
func Vector(dtype DType, data []float64) Array {
	a := Array{DType: dtype, Shape: []int{len(data)}, Data: data}
	if dtype.IsInteger() {
		a.Ints = make([]int64, len(data))
		for i, v := range data {
			a.Ints[i] = int64(v)
		}
	}
	return a
}

// Matrix builds a rank 2 array from row slices. Rows must have equal length.
func Matrix(dtype DType, rows [][]float64) (Array, error) {
	cols := 0
	if len(rows) > 0 {
		cols = len(rows[0])
	}
	data := make([]float64, 0, len(rows)*cols)
	for i, r := range rows {
		if len(r) != cols {
			return Array{}, fmt.Errorf("%w: row %d has %d values, want %d", ErrShapeMismatch, i, len(r), cols)
		}
		data = append(data, r...)
	}
	return NewArray(dtype, []int{len(rows), cols}, data)
}

func (a Array) Rank() int { return len(a.Shape) }

// Len is the size of the first dimension.
func (a Array) Len() int {
	if len(a.Shape) == 0 {
		return 0
	}
	return a.Shape[0]
}

// At returns the element at the given index, one index per dimension.
func (a Array) At(idx ...int) float64 {
	off := 0
	for i, v := range idx {
		off = off*a.Shape[i] + v
	}
	return a.Data[off]
}

// Row returns a copy of row i of a rank 2 array.
func (a Array) Row(i int) ([]float64, error) {
	if a.Rank() != 2 {
		return nil, fmt.Errorf("%w: row of rank %d array", ErrShapeMismatch, a.Rank())
	}
	if i < 0 || i >= a.Shape[0] {
		return nil, fmt.Errorf("%w: row %d outside [0, %d)", ErrShapeMismatch, i, a.Shape[0])
	}
	cols := a.Shape[1]
	return slices.Clone(a.Data[i*cols : (i+1)*cols]), nil
}

// Column returns a copy of column j of a rank 2 array.
func (a Array) Column(j int) ([]float64, error) {
	if a.Rank() != 2 {
		return nil, fmt.Errorf("%w: column of rank %d array", ErrShapeMismatch, a.Rank())
	}
	rows, cols := a.Shape[0], a.Shape[1]
	if j < 0 || j >= cols {
		return nil, fmt.Errorf("%w: column %d outside [0, %d)", ErrShapeMismatch, j, cols)
	}
	out := make([]float64, rows)
	for i := range rows {
		out[i] = a.Data[i*cols+j]
	}
	return out, nil
}

// IntRow is Row on the exact integer values. It is nil for arrays without
// them or for an index Row rejects.
func (a Array) IntRow(i int) []int64 {
	if a.Ints == nil || a.Rank() != 2 || i < 0 || i >= a.Shape[0] {
		return nil
	}
	cols := a.Shape[1]
	return slices.Clone(a.Ints[i*cols : (i+1)*cols])
}

// IntColumn is Column on the exact integer values.
func (a Array) IntColumn(j int) []int64 {
	if a.Ints == nil || a.Rank() != 2 || j < 0 || j >= a.Shape[1] {
		return nil
	}
	rows, cols := a.Shape[0], a.Shape[1]
	out := make([]int64, rows)
	for i := range rows {
		out[i] = a.Ints[i*cols+j]
	}
	return out
}
