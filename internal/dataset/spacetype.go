package dataset

import "slices"

// SpaceType is the closed set of spatial representations a property-set can
// carry. It governs which exporter branch is legal for the set.
type SpaceType int

const (
	StaticSamePoint SpaceType = iota + 1
	DynamicSamePoint
	StaticSameField
	StaticDiffField
	DynamicSameField
	DynamicDiffField
)

var spaceTypeTags = map[SpaceType]string{
	StaticSamePoint:  "static_same_point",
	DynamicSamePoint: "dynamic_same_point",
	StaticSameField:  "static_same_field",
	StaticDiffField:  "static_diff_field",
	DynamicSameField: "dynamic_same_field",
	DynamicDiffField: "dynamic_diff_field",
}

// SpaceTypes lists every known space type in declaration order.
func SpaceTypes() []SpaceType {
	return []SpaceType{
		StaticSamePoint, DynamicSamePoint,
		StaticSameField, StaticDiffField,
		DynamicSameField, DynamicDiffField,
	}
}

// ParseSpaceType maps a stored tag onto its SpaceType.
func ParseSpaceType(tag string) (SpaceType, error) {
	for _, s := range SpaceTypes() {
		if spaceTypeTags[s] == tag {
			return s, nil
		}
	}
	return 0, &SpaceTypeError{Tag: tag, Kind: ErrUnsupportedSpaceType}
}

func (s SpaceType) String() string {
	if tag, ok := spaceTypeTags[s]; ok {
		return tag
	}
	return "unknown"
}

func (s SpaceType) IsPoint() bool {
	return s == StaticSamePoint || s == DynamicSamePoint
}

func (s SpaceType) IsField() bool {
	return s >= StaticSameField && s <= DynamicDiffField
}

func (s SpaceType) IsDynamic() bool {
	return s == DynamicSamePoint || s == DynamicSameField || s == DynamicDiffField
}

// Require classifies the property-set and checks the result against the
// accepted variants. Unknown tags fail with ErrUnsupportedSpaceType, known
// but unaccepted ones with ErrIncompatibleSpaceType.
func Require(ps *PropertySet, accepted ...SpaceType) (SpaceType, error) {
	st, err := ps.SpaceType()
	if err != nil {
		return 0, err
	}
	if !slices.Contains(accepted, st) {
		return st, &SpaceTypeError{
			Phenomenon:  ps.phenomenon,
			PropertySet: ps.Name,
			Tag:         ps.Tag,
			Accepted:    accepted,
			Kind:        ErrIncompatibleSpaceType,
		}
	}
	return st, nil
}
