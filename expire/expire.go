// Package expire computes which map tiles are touched by changed
// geometries. An Expirer accumulates the touched tiles of a configured
// maximum zoom level as quadkeys; the list for that zoom and any range of
// lower zoom levels is derived in one pass when the accumulator is
// drained. See https://wiki.openstreetmap.org/wiki/Tile_expire_methods
// for how renderers consume such lists.
package expire

import (
	"fmt"

	"github.com/pdok/tilexpire/mathhelp"
	"github.com/pdok/tilexpire/quadkey"
	"github.com/pdok/tilexpire/reproj"
)

// Leeway is how many tile widths of space to expire either side of a
// changed feature, so that rendering artefacts crossing a tile border are
// refreshed along with the feature itself.
const Leeway = 0.1

// Expirer accumulates dirty tiles at a single maximum zoom level.
// It is a single-owner object: one goroutine ingests geometries without
// any locking, and shards owned by different goroutines are combined
// afterwards with Merge.
type Expirer struct {
	maxZoom   uint32
	mapWidth  uint32
	tileWidth float64
	maxBbox   float64
	proj      reproj.Projection

	// dirty holds the quadkeys of all touched tiles at maxZoom. Lower
	// zoom levels are derived at output time, never stored.
	dirty map[uint64]struct{}

	// Tile index of the most recent insert. Rasterization hits the same
	// tile many times in a row; comparing against the previous insert
	// skips most of the set lookups. Initialized out of range so the
	// first insert always proceeds.
	lastTileX int64
	lastTileY int64
}

// New creates an accumulator expiring tiles at maxZoom. maxBbox is the
// maximum width or height, in source CRS units, a polygon may have before
// it is distrusted and expired edge-only (see FromWKB). A maxZoom of 0
// disables the engine: every ingest becomes a no-op.
func New(maxZoom uint32, maxBbox float64, proj reproj.Projection) (*Expirer, error) {
	if maxZoom > quadkey.MaxZoom {
		return nil, fmt.Errorf(`max zoom %d exceeds the deepest supported zoom %d`, maxZoom, quadkey.MaxZoom)
	}
	e := &Expirer{
		maxZoom: maxZoom,
		maxBbox: maxBbox,
		proj:    proj,
		dirty:   make(map[uint64]struct{}),
	}
	if maxZoom > 0 {
		e.mapWidth = uint32(mathhelp.Pow2(uint(maxZoom)))
		e.tileWidth = proj.WorldWidth() / float64(e.mapWidth)
		e.lastTileX = int64(e.mapWidth) + 1
		e.lastTileY = int64(e.mapWidth) + 1
	}
	return e, nil
}

func (e *Expirer) MaxZoom() uint32 {
	return e.maxZoom
}

// DirtyCount returns the number of distinct max-zoom tiles accumulated.
func (e *Expirer) DirtyCount() int {
	return len(e.dirty)
}

// expireTile marks a single max-zoom tile dirty. Indices are clamped onto
// the valid range, so off-map coordinates expire the map edge instead of
// being lost.
func (e *Expirer) expireTile(x, y int64) {
	if e.mapWidth == 0 {
		return
	}
	x = mathhelp.Clamp(x, 0, int64(e.mapWidth)-1)
	y = mathhelp.Clamp(y, 0, int64(e.mapWidth)-1)
	if x == e.lastTileX && y == e.lastTileY {
		return
	}
	e.dirty[quadkey.MustFromXY(uint32(x), uint32(y), e.maxZoom)] = struct{}{}
	e.lastTileX = x
	e.lastTileY = y
}

// normaliseTileCoord clamps a tile-space coordinate onto the map.
func (e *Expirer) normaliseTileCoord(coord float64) float64 {
	return mathhelp.Clamp(coord, 0, float64(e.mapWidth))
}

// FromPoint expires the tile a point is located in, including the buffer
// around it. Coordinates are in the source CRS.
func (e *Expirer) FromPoint(x, y float64) {
	if e.mapWidth == 0 {
		return
	}
	tileX, tileY := e.proj.CoordsToTile(x, y, e.mapWidth)
	e.FromBbox(tileX, tileY, tileX, tileY)
}

// FromBboxLonLat expires the tiles intersecting a bounding box given in
// source CRS coordinates, lower left to upper right. Note the y axis flip
// between the source CRS and tile-space.
func (e *Expirer) FromBboxLonLat(minX, minY, maxX, maxY float64) {
	if e.mapWidth == 0 {
		return
	}
	tileMinX, tileMaxY := e.proj.CoordsToTile(minX, minY, e.mapWidth)
	tileMaxX, tileMinY := e.proj.CoordsToTile(maxX, maxY, e.mapWidth)
	e.FromBbox(tileMinX, tileMinY, tileMaxX, tileMaxY)
}

// FromBbox expires the tiles intersecting a tile-space bounding box,
// expanded by the leeway buffer.
func (e *Expirer) FromBbox(minX, minY, maxX, maxY float64) {
	if e.mapWidth == 0 {
		return
	}
	minX -= Leeway
	minY -= Leeway
	maxX += Leeway
	maxY += Leeway
	e.fromBboxInts(int64(minX), int64(minY), int64(maxX), int64(maxY))
}

// FromBboxWithoutBuffer expires the given inclusive rectangle of tile
// indices exactly, without the leeway buffer.
func (e *Expirer) FromBboxWithoutBuffer(minX, minY, maxX, maxY uint32) {
	e.fromBboxInts(int64(minX), int64(minY), int64(maxX), int64(maxY))
}

func (e *Expirer) fromBboxInts(minX, minY, maxX, maxY int64) {
	if e.mapWidth == 0 {
		return
	}
	maxIdx := int64(e.mapWidth) - 1
	minX = mathhelp.Clamp(minX, 0, maxIdx)
	minY = mathhelp.Clamp(minY, 0, maxIdx)
	maxX = mathhelp.Clamp(maxX, 0, maxIdx)
	maxY = mathhelp.Clamp(maxY, 0, maxIdx)
	for x := minX; x <= maxX; x++ {
		for y := minY; y <= maxY; y++ {
			e.expireTile(x, y)
		}
	}
}

// Merge moves all dirty tiles of other into e and empties other.
// Both accumulators must target the same tile grid.
func (e *Expirer) Merge(other *Expirer) error {
	if e.mapWidth != other.mapWidth {
		return fmt.Errorf(`unable to merge tile expiry sets when map width does not match: %d != %d`, e.mapWidth, other.mapWidth)
	}
	if e.tileWidth != other.tileWidth {
		return fmt.Errorf(`unable to merge tile expiry sets when tile width does not match: %v != %v`, e.tileWidth, other.tileWidth)
	}
	if len(e.dirty) == 0 {
		e.dirty, other.dirty = other.dirty, e.dirty
	} else {
		for q := range other.dirty {
			e.dirty[q] = struct{}{}
		}
		clear(other.dirty)
	}
	// The last-insert cache is stale now; at worst the next insert
	// re-adds a quadkey the set already holds.
	return nil
}
