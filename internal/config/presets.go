package config

import (
	"maps"
	"slices"
)

// Profile is a named set of spatial reference defaults.
type Profile struct {
	Description string
	CRS         string
	PDFCRS      string
	LayerPrefix string
}

var Profiles = map[string]*Profile{
	"rd_new": {
		Description: "Dutch national grid (Amersfoort / RD New)",
		CRS:         "EPSG:28992",
		PDFCRS:      "EPSG:28992",
		LayerPrefix: "shop",
	},
	"wgs84": {
		Description: "geographic WGS 84 longitude/latitude",
		CRS:         "EPSG:4326",
		PDFCRS:      "EPSG:4326",
	},
	"web_mercator": {
		Description: "WGS 84 / Pseudo-Mercator, as used by web maps",
		CRS:         "EPSG:3857",
		PDFCRS:      "EPSG:3857",
	},
	"unreferenced": {
		Description: "no spatial reference attached to vector outputs",
		PDFCRS:      "EPSG:28992",
	},
}

func GetProfile(name string) *Profile {
	p, ok := Profiles[name]
	if !ok {
		return nil
	}
	return p
}

func ListProfiles() []string {
	return slices.Sorted(maps.Keys(Profiles))
}
