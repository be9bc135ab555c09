package rollup

import (
	"context"
	"hash/fnv"

	"github.com/rotisserie/eris"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/emission-rollup/internal/model"
)

// ctxCheckEvery is how many records a shard folds between context checks.
const ctxCheckEvery = 1024

// ShardOf returns the shard index for familyID.
func ShardOf(familyID string, shards int) int {
	if shards <= 1 {
		return 0
	}
	h := fnv.New32a()
	_, _ = h.Write([]byte(familyID))
	return int(h.Sum32() % uint32(shards))
}

// AggregateParallel partitions records by family hash, aggregates each shard
// concurrently and merges the shard results. The output equals
// Aggregate(records). Cancelling ctx discards the partial work.
func AggregateParallel(ctx context.Context, records []model.NormalizedRecord, shards int) (map[string]model.FamilyAggregate, error) {
	if shards <= 1 {
		return Aggregate(records), nil
	}

	buckets := make([][]model.NormalizedRecord, shards)
	for _, r := range records {
		i := ShardOf(r.FamilyID, shards)
		buckets[i] = append(buckets[i], r)
	}

	accs := make([]*Accumulator, shards)
	g, gctx := errgroup.WithContext(ctx)
	for i := range buckets {
		g.Go(func() error {
			acc := NewAccumulator()
			for j, r := range buckets[i] {
				if j%ctxCheckEvery == 0 && gctx.Err() != nil {
					return eris.Wrap(gctx.Err(), "rollup: shard cancelled")
				}
				acc.Add(r)
			}
			accs[i] = acc
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	total := NewAccumulator()
	for _, acc := range accs {
		total.Merge(acc)
	}
	return total.Result(), nil
}
