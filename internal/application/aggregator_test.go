package application_test

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ericfisherdev/ghsync/internal/application"
	"github.com/ericfisherdev/ghsync/internal/domain/model"
)

func TestResultAggregator_SequenceNumbers(t *testing.T) {
	agg := application.NewResultAggregator(3, nil)

	assert.Equal(t, 0, agg.Record(model.BackupResult{FullName: "a/one", Status: model.BackupStatusCloned}))
	assert.Equal(t, 1, agg.Record(model.BackupResult{FullName: "a/two", Status: model.BackupStatusUpdated}))
	assert.Equal(t, 2, agg.Record(model.BackupResult{FullName: "a/three", Status: model.BackupStatusFailed, Err: "boom"}))

	summary := agg.Summary()
	assert.Equal(t, 3, summary.Total)
	assert.Equal(t, 1, summary.Cloned)
	assert.Equal(t, 1, summary.Updated)
	require.Len(t, summary.Failed, 1)
	assert.Equal(t, "a/three", summary.Failed[0].FullName)

	// Results carry their sequence numbers in completion order.
	for i, result := range summary.Results {
		assert.Equal(t, i, result.Seq)
	}
}

func TestResultAggregator_ConcurrentRecords(t *testing.T) {
	const n = 200
	agg := application.NewResultAggregator(n, nil)

	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			agg.Record(model.BackupResult{FullName: "a/repo", Status: model.BackupStatusCloned})
		}()
	}
	wg.Wait()

	summary := agg.Summary()
	require.Equal(t, n, summary.Total)
	assert.Equal(t, n, summary.Cloned)

	// Sequence numbers are 0..n-1 with no duplicates or gaps.
	seen := make([]bool, n)
	for _, result := range summary.Results {
		require.GreaterOrEqual(t, result.Seq, 0)
		require.Less(t, result.Seq, n)
		require.False(t, seen[result.Seq], "duplicate sequence number %d", result.Seq)
		seen[result.Seq] = true
	}
}

func TestResultAggregator_OnRecordOrder(t *testing.T) {
	var order []int
	agg := application.NewResultAggregator(4, func(result model.BackupResult) {
		order = append(order, result.Seq)
	})

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			agg.Record(model.BackupResult{FullName: "a/repo", Status: model.BackupStatusUpdated})
		}()
	}
	wg.Wait()

	// The callback runs under the aggregator lock, so observed order equals
	// sequence order.
	assert.Equal(t, []int{0, 1, 2, 3}, order)
}
