package mutations

import (
	"context"
	"testing"
	"time"

	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/driftdb/driftdb/entities/document"
	"github.com/driftdb/driftdb/entities/mutation"
	"github.com/driftdb/driftdb/usecases/localdocs"
)

var now = time.Date(2026, 8, 6, 12, 0, 0, 0, time.UTC)

func set(path string) mutation.Mutation {
	return mutation.NewSet(document.MustKey(path), document.EmptyObjectValue(),
		mutation.PreconditionNone())
}

func TestMemoryQueue_AssignsIncreasingBatchIDs(t *testing.T) {
	logger, _ := test.NewNullLogger()
	q := NewMemoryQueue(logger)
	tx := localdocs.NewTransaction(context.Background())

	first, err := q.AddBatch(tx, now, []mutation.Mutation{set("users/alice")})
	require.Nil(t, err)
	second, err := q.AddBatch(tx, now, []mutation.Mutation{set("users/bob")})
	require.Nil(t, err)

	assert.Less(t, first.BatchID, second.BatchID)
	assert.Equal(t, second.BatchID+1, q.NextBatchID())

	_, err = q.AddBatch(tx, now, nil)
	require.NotNil(t, err, "empty batches are rejected")
}

func TestMemoryQueue_BatchesAffectingKeys(t *testing.T) {
	logger, _ := test.NewNullLogger()
	q := NewMemoryQueue(logger)
	tx := localdocs.NewTransaction(context.Background())

	b1, _ := q.AddBatch(tx, now, []mutation.Mutation{set("users/alice"), set("users/bob")})
	b2, _ := q.AddBatch(tx, now, []mutation.Mutation{set("users/carol")})
	b3, _ := q.AddBatch(tx, now, []mutation.Mutation{set("users/alice")})

	batches, err := q.GetAllMutationBatchesAffectingDocumentKeys(tx,
		[]document.DocumentKey{document.MustKey("users/alice")})
	require.Nil(t, err)
	require.Len(t, batches, 2)
	assert.Equal(t, b1.BatchID, batches[0].BatchID, "ascending batch id order")
	assert.Equal(t, b3.BatchID, batches[1].BatchID)

	batches, err = q.GetAllMutationBatchesAffectingDocumentKeys(tx,
		[]document.DocumentKey{
			document.MustKey("users/alice"),
			document.MustKey("users/carol"),
		})
	require.Nil(t, err)
	require.Len(t, batches, 3)
	assert.Equal(t, b2.BatchID, batches[1].BatchID)

	batches, err = q.GetAllMutationBatchesAffectingDocumentKeys(tx,
		[]document.DocumentKey{document.MustKey("users/ghost")})
	require.Nil(t, err)
	assert.Empty(t, batches)
}

func TestMemoryQueue_RemoveBatch(t *testing.T) {
	logger, _ := test.NewNullLogger()
	q := NewMemoryQueue(logger)
	tx := localdocs.NewTransaction(context.Background())

	b1, _ := q.AddBatch(tx, now, []mutation.Mutation{set("users/alice")})
	b2, _ := q.AddBatch(tx, now, []mutation.Mutation{set("users/alice")})

	require.NotNil(t, q.RemoveBatch(tx, b2), "only the oldest batch can go")
	require.Nil(t, q.RemoveBatch(tx, b1))

	batches, err := q.GetAllMutationBatchesAffectingDocumentKeys(tx,
		[]document.DocumentKey{document.MustKey("users/alice")})
	require.Nil(t, err)
	require.Len(t, batches, 1)
	assert.Equal(t, b2.BatchID, batches[0].BatchID)

	require.Nil(t, q.RemoveBatch(tx, b2))
	batches, err = q.GetAllMutationBatchesAffectingDocumentKeys(tx,
		[]document.DocumentKey{document.MustKey("users/alice")})
	require.Nil(t, err)
	assert.Empty(t, batches)
}
