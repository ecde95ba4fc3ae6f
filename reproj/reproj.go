// Package reproj maps coordinates from a source reference system onto
// tile-space: continuous coordinates whose integer part is the tile index
// at a given map width and whose y axis points south, row 0 being the
// northernmost row.
package reproj

import (
	"fmt"
	"math"

	"github.com/pdok/tilexpire/mathhelp"
	"github.com/pdok/tilexpire/scheme"
)

// MaxLatitude is where the spherical Mercator projection is cut off.
// Latitudes beyond it are clamped onto the map edge.
const MaxLatitude = 85.0511287798

// A Projection converts source coordinates to tile-space doubles.
// The resulting coordinates are clamped to [0, mapWidth] on both axes.
type Projection interface {
	// CoordsToTile converts a single position. x and y are in the units of
	// the source CRS (planar lengths or degrees, depending on the scheme).
	CoordsToTile(x, y float64, mapWidth uint32) (tileX, tileY float64)
	// WorldWidth returns the horizontal span of the full map in projected
	// units, used to derive the width of a single tile.
	WorldWidth() float64
}

// New returns the projection for an EPSG authority code. Supported are
// "3857" (spherical Mercator lengths) and "4326" (lon/lat degrees).
func New(code string) (Projection, error) {
	mercScheme, err := scheme.LoadEmbeddedTileScheme("WebMercatorQuad")
	if err != nil {
		return nil, err
	}
	merc := sphereMercator{scheme: mercScheme}
	switch code {
	case "3857", "EPSG:3857":
		return merc, nil
	case "4326", "EPSG:4326", "CRS84":
		geoScheme, err := scheme.LoadEmbeddedTileScheme("WorldCRS84Quad")
		if err != nil {
			return nil, err
		}
		return lonLat{scheme: geoScheme, merc: merc}, nil
	}
	return nil, fmt.Errorf(`no projection available for CRS code %q`, code)
}

// sphereMercator maps planar EPSG:3857 lengths linearly onto tile-space.
type sphereMercator struct {
	scheme scheme.TileScheme
}

func (p sphereMercator) CoordsToTile(x, y float64, mapWidth uint32) (float64, float64) {
	ext := p.scheme.Extent
	tileX := float64(mapWidth) * (x - ext[0]) / p.scheme.Width()
	tileY := float64(mapWidth) * (ext[3] - y) / p.scheme.Height()
	tileX = mathhelp.Clamp(tileX, 0, float64(mapWidth))
	tileY = mathhelp.Clamp(tileY, 0, float64(mapWidth))
	return tileX, tileY
}

func (p sphereMercator) WorldWidth() float64 {
	return p.scheme.Width()
}

// lonLat maps geographic degrees onto tile-space by projecting them to
// spherical Mercator first.
type lonLat struct {
	scheme scheme.TileScheme
	merc   sphereMercator
}

func (p lonLat) CoordsToTile(lon, lat float64, mapWidth uint32) (float64, float64) {
	ext := p.scheme.Extent
	lon = mathhelp.Clamp(lon, ext[0], ext[2])
	lat = mathhelp.Clamp(lat, -MaxLatitude, MaxLatitude)
	// R = earth circumference / 2π
	radius := p.merc.scheme.Width() / (2 * math.Pi)
	x := p.merc.scheme.Width() * lon / (ext[2] - ext[0])
	y := radius * math.Log(math.Tan(math.Pi/4+lat*math.Pi/360))
	return p.merc.CoordsToTile(x, y, mapWidth)
}

func (p lonLat) WorldWidth() float64 {
	return p.merc.WorldWidth()
}
