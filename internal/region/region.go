package region

import (
	"strings"

	"github.com/Vansh-Dwivedi/5wh-sub000/internal/models"
)

// Tag classifies a visitor into a content region.
type Tag int

const (
	// TagGlobal is the default when no regional signal matches.
	TagGlobal Tag = iota
	// TagPunjab selects Punjab-biased content pools.
	TagPunjab
)

// String returns the region name used in corpus entries and metrics labels.
func (t Tag) String() string {
	switch t {
	case TagPunjab:
		return "punjab"
	default:
		return "global"
	}
}

// Punjab bounding box, edges inclusive.
const (
	punjabLatMin = 28.0
	punjabLatMax = 32.0
	punjabLonMin = 74.0
	punjabLonMax = 77.0
)

// Classify maps a coordinate and/or free-text region hint to a Tag.
// An explicit hint containing "punjab" (case-insensitive) short-circuits
// without needing coordinates. A nil coordinate with no matching hint is
// global.
func Classify(coord *models.Coordinate, hint string) Tag {
	if strings.Contains(strings.ToLower(hint), "punjab") {
		return TagPunjab
	}
	if coord == nil {
		return TagGlobal
	}
	if coord.Latitude >= punjabLatMin && coord.Latitude <= punjabLatMax &&
		coord.Longitude >= punjabLonMin && coord.Longitude <= punjabLonMax {
		return TagPunjab
	}
	return TagGlobal
}
