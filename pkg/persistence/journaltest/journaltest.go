// Package journaltest holds the behaviour every IJournal backend must share.
package journaltest

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tezos-bridge/rollup-bridge-go/pkg/persistence"
)

const (
	SenderA = "tz1VSUr8wwNhLAzempoch5d6hLRiTh8Cjcjb"
	SenderB = "tz1aSkwEot3L2kmUvcoxzjMomb9mvBNuzFK6"
)

// Factory opens a fresh, empty journal for one subtest.
type Factory func(t *testing.T) persistence.IJournal

func record(sender string, nonce uint64) *persistence.SubmissionRecord {
	r := persistence.NewSubmissionRecord(sender, nonce, fmt.Sprintf("hash-%d", nonce), fmt.Sprintf("55%02x", nonce))
	r.OperationHash = fmt.Sprintf("op-%d", nonce)
	return r
}

// Run exercises the IJournal contract against journals produced by newJournal.
func Run(t *testing.T, newJournal Factory) {
	t.Run("SaveAndLoad", func(t *testing.T) {
		j := newJournal(t)
		r := record(SenderA, 3)
		require.NoError(t, j.SaveSubmission(r))

		loaded, err := j.LoadSubmission(r.ID)
		require.NoError(t, err)
		assert.Equal(t, r, loaded)
	})

	t.Run("LoadNotFound", func(t *testing.T) {
		j := newJournal(t)
		loaded, err := j.LoadSubmission("does-not-exist")
		require.NoError(t, err)
		assert.Nil(t, loaded)
	})

	t.Run("SaveRejectsInvalidRecords", func(t *testing.T) {
		j := newJournal(t)
		assert.Error(t, j.SaveSubmission(nil))
		assert.Error(t, j.SaveSubmission(&persistence.SubmissionRecord{Sender: SenderA}))
	})

	t.Run("StoredRecordIsNotAliased", func(t *testing.T) {
		j := newJournal(t)
		r := record(SenderA, 1)
		require.NoError(t, j.SaveSubmission(r))
		r.Amount = "mutated"

		loaded, err := j.LoadSubmission(r.ID)
		require.NoError(t, err)
		assert.Empty(t, loaded.Amount)
	})

	t.Run("ListSortedBySender", func(t *testing.T) {
		j := newJournal(t)
		for _, n := range []uint64{5, 1, 3} {
			require.NoError(t, j.SaveSubmission(record(SenderA, n)))
		}
		require.NoError(t, j.SaveSubmission(record(SenderB, 2)))

		list, err := j.ListSubmissions(SenderA)
		require.NoError(t, err)
		require.Len(t, list, 3)
		assert.Equal(t, []uint64{1, 3, 5}, []uint64{list[0].Nonce, list[1].Nonce, list[2].Nonce})

		empty, err := j.ListSubmissions("tz1unknown")
		require.NoError(t, err)
		assert.Empty(t, empty)
	})

	t.Run("LastNonce", func(t *testing.T) {
		j := newJournal(t)
		_, found, err := j.GetLastNonce(SenderA)
		require.NoError(t, err)
		assert.False(t, found)

		next, err := persistence.NextNonce(j, SenderA)
		require.NoError(t, err)
		assert.Equal(t, uint64(0), next)

		require.NoError(t, j.SaveSubmission(record(SenderA, 0)))
		require.NoError(t, j.SaveSubmission(record(SenderA, 7)))
		require.NoError(t, j.SaveSubmission(record(SenderA, 4)))

		last, found, err := j.GetLastNonce(SenderA)
		require.NoError(t, err)
		assert.True(t, found)
		assert.Equal(t, uint64(7), last)

		next, err = persistence.NextNonce(j, SenderA)
		require.NoError(t, err)
		assert.Equal(t, uint64(8), next)

		_, found, err = j.GetLastNonce(SenderB)
		require.NoError(t, err)
		assert.False(t, found)
	})

	t.Run("DeleteIsIdempotentAndKeepsNonce", func(t *testing.T) {
		j := newJournal(t)
		r := record(SenderA, 9)
		require.NoError(t, j.SaveSubmission(r))
		require.NoError(t, j.DeleteSubmission(r.ID))
		require.NoError(t, j.DeleteSubmission(r.ID))

		loaded, err := j.LoadSubmission(r.ID)
		require.NoError(t, err)
		assert.Nil(t, loaded)

		last, found, err := j.GetLastNonce(SenderA)
		require.NoError(t, err)
		assert.True(t, found)
		assert.Equal(t, uint64(9), last)
	})

	t.Run("ConcurrentSaves", func(t *testing.T) {
		j := newJournal(t)
		var wg sync.WaitGroup
		for i := 0; i < 20; i++ {
			wg.Add(1)
			go func(n uint64) {
				defer wg.Done()
				assert.NoError(t, j.SaveSubmission(record(SenderA, n)))
			}(uint64(i))
		}
		wg.Wait()

		list, err := j.ListSubmissions(SenderA)
		require.NoError(t, err)
		assert.Len(t, list, 20)

		last, _, err := j.GetLastNonce(SenderA)
		require.NoError(t, err)
		assert.Equal(t, uint64(19), last)
	})

	t.Run("ClosedJournalRejectsOperations", func(t *testing.T) {
		j := newJournal(t)
		require.NoError(t, j.HealthCheck())
		require.NoError(t, j.Close())
		require.NoError(t, j.Close(), "close is idempotent")

		assert.Error(t, j.SaveSubmission(record(SenderA, 1)))
		_, err := j.LoadSubmission("x")
		assert.Error(t, err)
		_, err = j.ListSubmissions(SenderA)
		assert.Error(t, err)
		assert.Error(t, j.DeleteSubmission("x"))
		_, _, err = j.GetLastNonce(SenderA)
		assert.Error(t, err)
		assert.Error(t, j.HealthCheck())
	})
}
