package processing

import (
	"testing"

	"github.com/go-spatial/geom"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdok/tilexpire/expire"
	"github.com/pdok/tilexpire/reproj"
)

type testFeature struct {
	id       int64
	geometry geom.Geometry
}

func (f testFeature) ID() int64 {
	return f.id
}

func (f testFeature) Geometry() geom.Geometry {
	return f.geometry
}

type sliceSource struct {
	features []Feature
}

func (s sliceSource) ReadFeatures(features chan<- Feature) {
	defer close(features)
	for _, f := range s.features {
		features <- f
	}
}

type tileCollector struct {
	tiles [][3]uint32
}

func (c *tileCollector) EmitTile(x, y, zoom uint32) {
	c.tiles = append(c.tiles, [3]uint32{zoom, x, y})
}

func TestExpireFeatures(t *testing.T) {
	proj, err := reproj.New("EPSG:3857")
	require.NoError(t, err)

	quarter := 40075016.68 / 4
	source := sliceSource{features: []Feature{
		testFeature{1, geom.Point{-quarter, quarter}},
		testFeature{2, geom.Point{quarter, quarter}},
		testFeature{3, geom.Point{-quarter, -quarter}},
		testFeature{4, geom.Point{quarter, -quarter}},
	}}

	for _, workers := range []int{1, 3, 8} {
		primary, err := ExpireFeatures(source, workers, func() (*expire.Expirer, error) {
			return expire.New(2, 20000, proj)
		})
		require.NoError(t, err)

		collector := &tileCollector{}
		require.NoError(t, primary.OutputAndDestroy(collector, 2))
		assert.ElementsMatch(t, [][3]uint32{
			{2, 0, 0}, {2, 0, 1}, {2, 1, 0}, {2, 1, 1},
			{2, 2, 0}, {2, 2, 1}, {2, 3, 0}, {2, 3, 1},
			{2, 0, 2}, {2, 0, 3}, {2, 1, 2}, {2, 1, 3},
			{2, 2, 2}, {2, 2, 3}, {2, 3, 2}, {2, 3, 3},
		}, collector.tiles, "workers=%d", workers)
	}
}
