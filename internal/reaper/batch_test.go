package reaper

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func sequentialIDs(n int) []uint32 {
	ids := make([]uint32, n)
	for i := range ids {
		ids[i] = uint32(i + 1)
	}
	return ids
}

func TestBatchesSizes(t *testing.T) {
	cases := []struct {
		name      string
		count     int
		size      int
		wantSizes []int
	}{
		{name: "sixty by twenty-five", count: 60, size: 25, wantSizes: []int{25, 25, 10}},
		{name: "exact multiple", count: 50, size: 25, wantSizes: []int{25, 25}},
		{name: "smaller than batch", count: 3, size: 25, wantSizes: []int{3}},
		{name: "batch of one", count: 3, size: 1, wantSizes: []int{1, 1, 1}},
		{name: "empty", count: 0, size: 25, wantSizes: nil},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			batches := Batches(sequentialIDs(tc.count), tc.size)

			var sizes []int
			for _, batch := range batches {
				sizes = append(sizes, len(batch))
			}
			assert.Equal(t, tc.wantSizes, sizes)
		})
	}
}

func TestBatchesCoverListingExactlyOnceInOrder(t *testing.T) {
	ids := []uint32{42, 7, 19, 3, 88, 61, 5}

	var flattened []uint32
	for _, batch := range Batches(ids, 3) {
		assert.LessOrEqual(t, len(batch), 3)
		flattened = append(flattened, batch...)
	}
	assert.Equal(t, ids, flattened)
}

func TestBatchesDoNotAliasAcrossAppends(t *testing.T) {
	ids := sequentialIDs(4)
	batches := Batches(ids, 2)

	_ = append(batches[0], 99)
	assert.Equal(t, uint32(3), batches[1][0], "appending to one batch must not overwrite the next")
}

func TestSleepContextReturnsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	start := time.Now()
	err := sleepContext(ctx, time.Hour)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Less(t, time.Since(start), time.Second)
}

func TestSleepContextZeroDuration(t *testing.T) {
	assert.NoError(t, sleepContext(context.Background(), 0))
}
