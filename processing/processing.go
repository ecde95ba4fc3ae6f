// Package processing takes care of the logistics around feeding features
// from a Source into tile expiry accumulators. Each worker goroutine owns
// one accumulator and ingests without coordination; when the source is
// drained the shards are merged into a single accumulator. Not the expiry
// operation itself.
package processing

import (
	"fmt"
	"log"
	"sync"
	"sync/atomic"

	"github.com/go-spatial/geom"

	"github.com/pdok/tilexpire/expire"
)

// Feature is one changed map feature as read from a Source.
type Feature interface {
	ID() int64
	Geometry() geom.Geometry
}

// Source streams features into the given channel and closes it when done.
type Source interface {
	ReadFeatures(chan<- Feature)
}

// ExpireFeatures reads every feature from the source, expires its tiles
// over the given number of worker shards and returns the merged
// accumulator. newExpirer is called once per shard; all shards must be
// configured identically or the final merge fails.
func ExpireFeatures(source Source, workers int, newExpirer func() (*expire.Expirer, error)) (*expire.Expirer, error) {
	if workers < 1 {
		workers = 1
	}
	shards := make([]*expire.Expirer, workers)
	for i := range shards {
		shard, err := newExpirer()
		if err != nil {
			return nil, fmt.Errorf(`could not create expiry shard: %w`, err)
		}
		shards[i] = shard
	}

	features := make(chan Feature)
	go source.ReadFeatures(features)

	var featureCount uint64
	wg := sync.WaitGroup{}
	for _, shard := range shards {
		wg.Add(1)
		go func(shard *expire.Expirer) {
			defer wg.Done()
			for feature := range features {
				shard.FromGeom(feature.Geometry(), feature.ID())
				atomic.AddUint64(&featureCount, 1)
			}
		}(shard)
	}
	wg.Wait()

	primary := shards[0]
	for _, shard := range shards[1:] {
		if err := primary.Merge(shard); err != nil {
			return nil, err
		}
	}
	log.Printf("    total features: %d", featureCount)
	log.Printf("       dirty tiles: %d", primary.DirtyCount())
	return primary, nil
}
