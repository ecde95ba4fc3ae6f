package expire

import (
	"fmt"
	"slices"

	orderedmap "github.com/wk8/go-ordered-map/v2"
	"golang.org/x/exp/maps"

	"github.com/pdok/tilexpire/quadkey"
)

// A TileSink receives expired tiles. The file writer implements it for
// production use; tests collect tiles in memory.
type TileSink interface {
	EmitTile(x, y, zoom uint32)
}

// OutputAndDestroy delivers every dirty tile at all zoom levels from
// maxZoom down to minZoom to the sink and drains the accumulator.
//
// The dirty quadkeys are sorted once. Because right-shifting a quadkey by
// two yields its parent, consecutive quadkeys share ancestors, and
// comparing against the previously handled quadkey suppresses siblings:
// each ancestor tile is emitted exactly once, in a single pass, without
// any per-zoom bookkeeping.
func (e *Expirer) OutputAndDestroy(sink TileSink, minZoom uint32) error {
	if minZoom > e.maxZoom {
		return fmt.Errorf(`min zoom %d exceeds max zoom %d`, minZoom, e.maxZoom)
	}
	tilesMaxZoom := maps.Keys(e.dirty)
	slices.Sort(tilesMaxZoom)
	e.dirty = make(map[uint64]struct{})
	e.lastTileX = int64(e.mapWidth) + 1
	e.lastTileY = int64(e.mapWidth) + 1

	// initialized to a value larger than any legal quadkey at maxZoom
	lastQuadkey := uint64(1) << (2 * e.maxZoom)
	for _, q := range tilesMaxZoom {
		for dz := uint32(0); dz <= e.maxZoom-minZoom; dz++ {
			ancestor := q >> (dz * 2)
			if ancestor == lastQuadkey>>(dz*2) {
				// sub-tile of a tile the previous quadkey already covered
				continue
			}
			x, y := quadkey.ToXY(ancestor, e.maxZoom-dz)
			sink.EmitTile(x, y, e.maxZoom-dz)
		}
		lastQuadkey = q
	}
	return nil
}

// OutputAndDestroyToFile writes the expired tile list to a file in
// "z/x/y" lines, appending when the file exists.
func (e *Expirer) OutputAndDestroyToFile(filename string, minZoom uint32) error {
	writer := NewTileListFile(filename)
	defer writer.Close()
	return e.OutputAndDestroy(writer, minZoom)
}

// CountingSink forwards tiles to another sink and counts them per zoom
// level, in the order the zoom levels first appear (max zoom first, given
// how OutputAndDestroy walks).
type CountingSink struct {
	sink    TileSink
	perZoom *orderedmap.OrderedMap[uint32, uint64]
}

func NewCountingSink(sink TileSink) *CountingSink {
	return &CountingSink{
		sink:    sink,
		perZoom: orderedmap.New[uint32, uint64](),
	}
}

func (s *CountingSink) EmitTile(x, y, zoom uint32) {
	s.sink.EmitTile(x, y, zoom)
	count, _ := s.perZoom.Get(zoom)
	s.perZoom.Set(zoom, count+1)
}

// Total returns the number of tiles emitted over all zoom levels.
func (s *CountingSink) Total() uint64 {
	var total uint64
	for pair := s.perZoom.Oldest(); pair != nil; pair = pair.Next() {
		total += pair.Value
	}
	return total
}

// ZoomCounts returns the per-zoom tile counts in first-seen zoom order.
func (s *CountingSink) ZoomCounts() *orderedmap.OrderedMap[uint32, uint64] {
	return s.perZoom
}
