package expire

import (
	"math"
	"slices"
)

// invalidBound marks an interval slot that was merged away during
// finalization. It sorts behind every real tile index, so a final sort
// moves invalidated slots to the end of each column.
const invalidBound = math.MaxUint32

// intersectingTiles computes which tiles are inside a polygon, one tile
// column at a time. For every ring segment it decides on which side the
// polygon's interior lies and records the segment's y extent as a minimum
// bound (interior below) or a maximum bound (interior above) in each
// column the segment crosses. Once all segments of all rings are in, the
// per-column bounds pair up into y intervals of inside tiles.
//
// An instance lives only for the duration of one polygon: the caller
// builds it, feeds segments, calls sortBounds and then iterates columns.
type intersectingTiles struct {
	offsetX   int64
	maxTileID uint32
	leeway    float64

	// one unsorted list of crossings per tile column
	minBounds [][]uint32
	maxBounds [][]uint32

	// iteration cursor, used after sortBounds
	currentX   int
	nextIdxMin int
	nextIdxMax int
}

// newIntersectingTiles sets up the column lists for the tile-space x range
// [xMin, xMax], widened by the leeway buffer.
func newIntersectingTiles(xMin, xMax float64, mapWidth uint32, leeway float64) *intersectingTiles {
	offsetX := int64(xMin - leeway)
	columns := int64(xMax+leeway) - offsetX + 1
	if columns < 1 {
		columns = 1
	}
	return &intersectingTiles{
		offsetX:   offsetX,
		maxTileID: mapWidth,
		leeway:    leeway,
		minBounds: make([][]uint32, columns),
		maxBounds: make([][]uint32, columns),
	}
}

func (it *intersectingTiles) xIndex(x int64) int64 {
	return x - it.offsetX
}

func (it *intersectingTiles) addMinimum(x int64, minY float64) {
	idx := it.xIndex(x)
	if idx < 0 || idx >= int64(len(it.minBounds)) {
		// a vertex outside the outer ring's bounding box, e.g. from an
		// invalid inner ring; it cannot contribute an inside interval
		return
	}
	v := minY - it.leeway
	if v < 0 {
		v = 0
	}
	it.minBounds[idx] = append(it.minBounds[idx], uint32(v))
}

func (it *intersectingTiles) addMaximum(x int64, maxY float64) {
	idx := it.xIndex(x)
	if idx < 0 || idx >= int64(len(it.maxBounds)) {
		return
	}
	v := maxY + it.leeway
	if v < 0 {
		v = 0
	}
	it.maxBounds[idx] = append(it.maxBounds[idx], uint32(v))
}

// evaluateSegment records one ring segment. outerRing is true for ring 0;
// inner rings rely on having the opposite orientation in the source data,
// so the same interior-side rule keeps the bookkeeping paired.
func (it *intersectingTiles) evaluateSegment(x1, y1, x2, y2 float64, outerRing bool) {
	// Segments that stay within one column after buffering would introduce
	// a minimum without a matching maximum (or vice versa). Add both, so
	// every column's entries stay paired: a building-sized feature yields
	// exactly one interval in its column. Orientation does not matter here.
	if int64(math.Min(x1, x2)-it.leeway) == int64(math.Max(x1, x2)+it.leeway) {
		it.addMinimum(int64(x1), math.Min(y1, y2))
		it.addMaximum(int64(x1), math.Max(y1, y2))
		return
	}
	interiorAbove := interiorSideAbove(x1, y1, x2, y2)
	// From here the walk runs west to east; original direction and ring
	// kind have done their job via interiorAbove.
	if x2 < x1 {
		x1, x2 = x2, x1
		y1, y2 = y2, y1
	}
	start := int64(x1 - it.leeway)
	end := int64(x2 + it.leeway)
	for x := start; x <= end; x++ {
		it.addMinimumOrMaximum(x, y1, y2, interiorAbove)
		// A column the segment fully crosses is entered on its western and
		// left on its eastern edge: two crossings, two entries.
		if x != start && x != end {
			it.addMinimumOrMaximum(x, y1, y2, interiorAbove)
		}
	}
}

func (it *intersectingTiles) addMinimumOrMaximum(x int64, y1, y2 float64, interiorAbove bool) {
	if interiorAbove {
		// max of y1 and y2, not min, because the y axis points south
		it.addMaximum(x, math.Max(y1, y2))
	} else {
		it.addMinimum(x, math.Min(y1, y2))
	}
}

// interiorSideAbove reports on which side of an outer ring segment the
// polygon's interior lies: true means above (smaller y). y1 and y2 are
// swapped in the atan2 because the y axis points south.
func interiorSideAbove(x1, y1, x2, y2 float64) bool {
	angle := math.Atan2(y1-y2, x2-x1)
	return angle < math.Pi/2 && angle > -math.Pi/2
}

// sortBounds finalizes the bounds for iteration: sort each column,
// collapse overlapping intervals into their union, and sort again so the
// invalidated slots move out of the way.
func (it *intersectingTiles) sortBounds() {
	for _, bounds := range [2][][]uint32{it.minBounds, it.maxBounds} {
		for _, column := range bounds {
			slices.Sort(column)
		}
	}
	for column := range it.minBounds {
		entries := min(len(it.minBounds[column]), len(it.maxBounds[column]))
		for entry := 1; entry < entries; entry++ {
			if it.minBounds[column][entry] <= it.maxBounds[column][entry-1] {
				// overlapping intervals: merge into the later slot
				it.minBounds[column][entry] = min(it.minBounds[column][entry-1], it.minBounds[column][entry])
				it.maxBounds[column][entry] = max(it.maxBounds[column][entry-1], it.maxBounds[column][entry])
				it.minBounds[column][entry-1] = invalidBound
				it.maxBounds[column][entry-1] = invalidBound
			}
		}
	}
	for _, bounds := range [2][][]uint32{it.minBounds, it.maxBounds} {
		for _, column := range bounds {
			slices.Sort(column)
		}
	}
}

// currentColumn returns the tile x index of the column the cursor is on.
func (it *intersectingTiles) currentColumn() int64 {
	return int64(it.currentX) + it.offsetX
}

// moveToNextColumn advances the cursor; false when past the last column.
func (it *intersectingTiles) moveToNextColumn() bool {
	it.currentX++
	it.nextIdxMin = 0
	it.nextIdxMax = 0
	return it.currentX < len(it.minBounds)
}

// columnHasIntervals reports whether unread bound pairs remain in the
// current column.
func (it *intersectingTiles) columnHasIntervals() bool {
	return it.nextIdxMin < len(it.minBounds[it.currentX]) &&
		it.nextIdxMax < len(it.maxBounds[it.currentX])
}

// nextPair returns the next (yMin, yMax) interval of the current column
// and advances the cursor. ok is false for entries that were invalidated
// or lie outside the map.
func (it *intersectingTiles) nextPair() (yMin, yMax uint32, ok bool) {
	yMin = it.minBounds[it.currentX][it.nextIdxMin]
	it.nextIdxMin++
	yMax = it.maxBounds[it.currentX][it.nextIdxMax]
	it.nextIdxMax++
	return yMin, yMax, yMin < it.maxTileID && yMax < it.maxTileID
}
