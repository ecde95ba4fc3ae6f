// Package scheme loads tile scheme definitions: the coordinate reference
// system and world extent that pin a quad tree of tiles onto a map.
// Definitions are embedded JSON documents following the shape of the OGC
// Tile Matrix Set standard, reduced to the properties a quad tree scheme
// actually needs.
package scheme

import (
	"embed"
	"encoding/json"
	"fmt"
	"regexp"

	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"github.com/perimeterx/marshmallow"
)

var (
	//go:embed tileschemes/*.json
	embeddedTileSchemesFS    embed.FS
	embeddedTileSchemesCache = make(map[string]*TileScheme)
)

// TileScheme pins a quad tree onto a planar CRS. The extent is the bounding
// box of the whole map (zoom 0) in CRS units; tiles subdivide it evenly.
type TileScheme struct {
	// Tile scheme identifier
	ID string `validate:"required" json:"id"`
	// Title of this tile scheme, normally used for display to a human;
	// "-" when the definition has none
	Title string `json:"title"`
	// Coordinate Reference System (CRS) as an OGC URI or URN
	CRS string `validate:"required,uri" json:"crs"`
	// Bounding box of the full map in CRS units: minX, minY, maxX, maxY
	Extent []float64 `validate:"required,len=4" json:"extent"`
	// Whether CRS axes are geographic degrees rather than planar lengths
	Geographic bool `json:"geographic"`
}

var crsURIRegexp = regexp.MustCompile(`/def/crs/(?P<authority>[^/]+)/[^/]+/(?P<code>[^/]+)$|^urn:ogc:def:crs:(?P<authority2>[^:]+)::(?P<code2>[^:]+)$`)

func (ts *TileScheme) UnmarshalJSON(data []byte) error {
	err := defaults.Set(ts)
	if err != nil {
		return err
	}
	// set here rather than by tag: creasty/defaults reads a tag value of
	// "-" as "no default"
	ts.Title = "-"
	_, err = marshmallow.Unmarshal(data, ts, marshmallow.WithExcludeKnownFieldsFromMap(true))
	if err != nil {
		return err
	}
	validate := validator.New(validator.WithRequiredStructEnabled())
	if err = validate.Struct(ts); err != nil {
		return err
	}
	if ts.Extent[2] <= ts.Extent[0] || ts.Extent[3] <= ts.Extent[1] {
		return fmt.Errorf(`tile scheme %v has a degenerate extent: %v`, ts.ID, ts.Extent)
	}
	return nil
}

// AuthorityCode returns the code part of the CRS reference, e.g. "3857".
func (ts *TileScheme) AuthorityCode() string {
	parts := crsURIRegexp.FindStringSubmatch(ts.CRS)
	if parts == nil {
		return ""
	}
	for _, i := range []int{crsURIRegexp.SubexpIndex("code"), crsURIRegexp.SubexpIndex("code2")} {
		if parts[i] != "" {
			return parts[i]
		}
	}
	return ""
}

// Width returns the horizontal span of the full map in CRS units.
func (ts *TileScheme) Width() float64 {
	return ts.Extent[2] - ts.Extent[0]
}

// Height returns the vertical span of the full map in CRS units.
func (ts *TileScheme) Height() float64 {
	return ts.Extent[3] - ts.Extent[1]
}

func LoadEmbeddedTileScheme(id string) (TileScheme, error) {
	var ts TileScheme
	cached, ok := embeddedTileSchemesCache[id]
	if ok {
		return *cached, nil
	}
	tsJSON, err := embeddedTileSchemesFS.ReadFile("tileschemes/" + id + ".json")
	if err != nil {
		return ts, fmt.Errorf(`unknown tile scheme %q: %w`, id, err)
	}
	err = json.Unmarshal(tsJSON, &ts)
	if err != nil {
		return ts, err
	}
	embeddedTileSchemesCache[id] = &ts
	return ts, nil
}
