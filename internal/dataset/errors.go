package dataset

import (
	"errors"
	"fmt"
	"strings"
)

// Domain errors for dataset traversal and classification.
var (
	// ErrUnsupportedSpaceType indicates a property-set whose space_type tag is
	// absent or not one of the six known values.
	ErrUnsupportedSpaceType = errors.New("dataset: unsupported space type")

	// ErrIncompatibleSpaceType indicates a known space_type that the requested
	// operation does not accept.
	ErrIncompatibleSpaceType = errors.New("dataset: incompatible space type")

	// ErrShapeMismatch indicates array data that does not fill its declared shape.
	ErrShapeMismatch = errors.New("dataset: array shape mismatch")

	// ErrValueOutOfRange indicates a value its declared element type cannot
	// hold exactly, such as 1.5 or 3e9 for int32.
	ErrValueOutOfRange = errors.New("dataset: value out of range for element type")

	// ErrUnsupportedDType indicates an element type the data model does not know.
	ErrUnsupportedDType = errors.New("dataset: unsupported element type")

	// ErrNotFound indicates a missing phenomenon, property-set or property.
	ErrNotFound = errors.New("dataset: not found")

	// ErrEmpty indicates a dataset without any property-set.
	ErrEmpty = errors.New("dataset: no property sets")
)

// SpaceTypeError wraps a classification failure with the location of the
// offending property-set.
type SpaceTypeError struct {
	Phenomenon  string
	PropertySet string
	Tag         string
	Accepted    []SpaceType
	Kind        error
}

func (e *SpaceTypeError) Error() string {
	loc := e.PropertySet
	if e.Phenomenon != "" {
		loc = e.Phenomenon + "/" + e.PropertySet
	}
	if e.Tag == "" {
		return fmt.Sprintf("%s: %s has no space_type", e.Kind.Error(), loc)
	}
	if len(e.Accepted) == 0 {
		return fmt.Sprintf("%s: %q in %s", e.Kind.Error(), e.Tag, loc)
	}
	names := make([]string, len(e.Accepted))
	for i, s := range e.Accepted {
		names[i] = s.String()
	}
	return fmt.Sprintf("%s: %q in %s (accepts %s)", e.Kind.Error(), e.Tag, loc, strings.Join(names, ", "))
}

func (e *SpaceTypeError) Unwrap() error {
	return e.Kind
}
