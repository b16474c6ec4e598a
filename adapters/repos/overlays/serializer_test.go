package overlays

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/driftdb/driftdb/entities/document"
	"github.com/driftdb/driftdb/entities/mutation"
)

func roundTrip(t *testing.T, overlay *mutation.Overlay) *mutation.Overlay {
	t.Helper()
	data, err := marshalOverlay(overlay)
	require.Nil(t, err)
	decoded, err := unmarshalOverlay(data)
	require.Nil(t, err)
	return decoded
}

func TestSerializer_Set(t *testing.T) {
	key := document.MustKey("users/alice")
	set := mutation.NewSet(key, document.NewObjectValue(map[string]interface{}{
		"name": "alice",
		"age":  int64(31),
		"address": map[string]interface{}{
			"city": "NYC",
		},
	}), mutation.PreconditionNone())

	decoded := roundTrip(t, mutation.NewOverlay(5, set))
	assert.Equal(t, 5, decoded.LargestBatchID)
	assert.Equal(t, key, decoded.Key())

	decodedSet, ok := decoded.Mutation.(*mutation.Set)
	require.True(t, ok)
	city, _ := decodedSet.Value().Get(document.ParseFieldPath("address.city"))
	assert.Equal(t, "NYC", city)
	age, _ := decodedSet.Value().Get(document.ParseFieldPath("age"))
	assert.Equal(t, int64(31), age)
	assert.True(t, decodedSet.Precondition().IsNone())
}

func TestSerializer_Patch(t *testing.T) {
	key := document.MustKey("rooms/r1/messages/m1")
	patch := mutation.NewPatch(key,
		document.NewObjectValue(map[string]interface{}{"body": "hi"}),
		document.NewFieldMask(document.ParseFieldPath("body"), document.ParseFieldPath("edited.at")),
		mutation.PreconditionExists(true))

	decoded := roundTrip(t, mutation.NewOverlay(12, patch))
	decodedPatch, ok := decoded.Mutation.(*mutation.Patch)
	require.True(t, ok)

	assert.True(t, decodedPatch.Mask().Covers(document.ParseFieldPath("body")))
	assert.True(t, decodedPatch.Mask().Covers(document.ParseFieldPath("edited.at")))
	assert.Equal(t, 2, decodedPatch.Mask().Len())

	exists, ok := decodedPatch.Precondition().Exists()
	require.True(t, ok)
	assert.True(t, exists)

	body, _ := decodedPatch.Data().Get(document.ParseFieldPath("body"))
	assert.Equal(t, "hi", body)
}

func TestSerializer_DeleteAndVerify(t *testing.T) {
	key := document.MustKey("users/alice")

	del := roundTrip(t, mutation.NewOverlay(3,
		mutation.NewDelete(key, mutation.PreconditionExists(false))))
	decodedDelete, ok := del.Mutation.(*mutation.Delete)
	require.True(t, ok)
	exists, set := decodedDelete.Precondition().Exists()
	require.True(t, set)
	assert.False(t, exists)

	verify := roundTrip(t, mutation.NewOverlay(4,
		mutation.NewVerify(key, mutation.PreconditionNone())))
	_, ok = verify.Mutation.(*mutation.Verify)
	require.True(t, ok)
}

func TestSerializer_RejectsGarbage(t *testing.T) {
	_, err := unmarshalOverlay([]byte("not msgpack at all"))
	require.NotNil(t, err)
}
