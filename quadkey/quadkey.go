// Package quadkey converts between tile indices and Bing-Maps-style quadkeys.
//
// A quadkey encodes the x and y index of a tile by interleaving their bits
// in the order YXYX… (x bits on the even positions, y bits on the odd ones).
// Right-shifting a quadkey by two yields the quadkey of the parent tile one
// zoom level up, which is what makes multi-zoom roll-ups a single pass over
// a sorted list. Quadkeys are kept as plain uint64s instead of base-4
// strings for performance.
package quadkey

import "fmt"

// MaxZoom is the deepest encodable zoom level; an interleaved (x,y) pair at
// zoom 31 occupies 62 bits.
const MaxZoom = 31

var (
	masks = [...]uint64{
		0b0101010101010101010101010101010101010101010101010101010101010101,
		0b0011001100110011001100110011001100110011001100110011001100110011,
		0b0000111100001111000011110000111100001111000011110000111100001111,
		0b0000000011111111000000001111111100000000111111110000000011111111,
		0b0000000000000000111111111111111100000000000000001111111111111111,
		0b0000000000000000000000000000000011111111111111111111111111111111,
	}
	powersOfTwo = [...]uint64{0, 1, 2, 4, 8, 16}
)

func spread(v uint64) uint64 {
	for i := 4; i >= 0; i-- {
		v = (v | (v << powersOfTwo[i+1])) & masks[i]
	}
	return v
}

func unspread(v uint64) uint64 {
	for i := 0; i <= 5; i++ {
		v = (v | (v >> powersOfTwo[i])) & masks[i]
	}
	return v
}

// FromXY interleaves a tile index into a quadkey. ok is false when either
// index does not fit the zoom level or zoom exceeds MaxZoom.
func FromXY(x, y uint32, zoom uint32) (q uint64, ok bool) {
	ok = zoom <= MaxZoom && uint64(x) < 1<<zoom && uint64(y) < 1<<zoom
	q = spread(uint64(x)) | (spread(uint64(y)) << 1)
	return q, ok
}

func MustFromXY(x, y uint32, zoom uint32) uint64 {
	q, ok := FromXY(x, y, zoom)
	if !ok {
		panic(fmt.Errorf(`cannot make a quadkey out of %v and %v at zoom %v`, x, y, zoom))
	}
	return q
}

// ToXY is the inverse of FromXY. Bits beyond the zoom level are discarded,
// so a quadkey that was valid at its zoom round-trips exactly.
func ToXY(q uint64, zoom uint32) (x, y uint32) {
	if zoom <= MaxZoom {
		q &= (1 << (2 * zoom)) - 1
	}
	x = uint32(unspread(q & masks[0]))
	y = uint32(unspread((q >> 1) & masks[0]))
	return x, y
}

// Parent returns the quadkey of the enclosing tile one zoom level up.
func Parent(q uint64) uint64 {
	return q >> 2
}
