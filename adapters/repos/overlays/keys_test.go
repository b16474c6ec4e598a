package overlays

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/driftdb/driftdb/entities/document"
)

func encodedKey(t *testing.T, user, path string) []byte {
	t.Helper()
	return primaryKey(user, document.MustKey(path))
}

func TestKeyEncoding_PreservesDocumentOrder(t *testing.T) {
	pairs := [][2]string{
		{"rooms/r1", "rooms/r2"},
		{"rooms/r1", "rooms/r10"},
		{"rooms/r1/messages/m1", "rooms/r2"},
		{"rooms/r1", "rooms/r1/messages/m1"},
	}
	for _, pair := range pairs {
		left := encodedKey(t, "u", pair[0])
		right := encodedKey(t, "u", pair[1])
		assert.True(t, bytes.Compare(left, right) < 0, "%q must sort before %q", pair[0], pair[1])
	}
}

func TestKeyEncoding_Injective(t *testing.T) {
	seen := make(map[string]string)
	for _, path := range []string{
		"rooms/r1", "rooms/r10", "roomsr/one", "rooms/r1/messages/m1",
	} {
		k := string(encodedKey(t, "u", path))
		prev, dup := seen[k]
		require.False(t, dup, "%q and %q encode identically", prev, path)
		seen[k] = path
	}

	// the user id must not bleed into the path
	a := string(encodedKey(t, "user", "s/d"))
	b := string(encodedKey(t, "users", "d/x"))
	assert.NotEqual(t, a, b)
}

func TestKeyEncoding_CollectionPrefixIsExact(t *testing.T) {
	rooms, _ := document.ParseResourcePath("rooms")
	prefix := collectionIndexPrefix("u", rooms)

	inRooms := collectionIndexKey("u", rooms, 3, document.MustKey("rooms/r1"))
	assert.True(t, bytes.HasPrefix(inRooms, prefix))

	// a deeper collection sharing the first segment must not match
	messages, _ := document.ParseResourcePath("rooms/r1/messages")
	deeper := collectionIndexKey("u", messages, 3, document.MustKey("rooms/r1/messages/m1"))
	assert.False(t, bytes.HasPrefix(deeper, prefix))

	// neither must a sibling collection with the prefix as name prefix
	roomsx, _ := document.ParseResourcePath("roomsx")
	sibling := collectionIndexKey("u", roomsx, 3, document.MustKey("roomsx/r1"))
	assert.False(t, bytes.HasPrefix(sibling, prefix))
}

func TestKeyEncoding_BatchOrderWithinCollection(t *testing.T) {
	rooms, _ := document.ParseResourcePath("rooms")
	low := collectionIndexKey("u", rooms, 3, document.MustKey("rooms/z"))
	high := collectionIndexKey("u", rooms, 10, document.MustKey("rooms/a"))
	assert.True(t, bytes.Compare(low, high) < 0, "batch id dominates document order")

	prefix := collectionIndexPrefix("u", rooms)
	assert.Equal(t, 3, readBatchID(low, len(prefix)))
	assert.Equal(t, 10, readBatchID(high, len(prefix)))
}

func TestKeyEncoding_EscapedZeroBytes(t *testing.T) {
	// segments containing 0x00 stay unambiguous
	weird := appendSegment(nil, "a\x00b")
	plain := appendSegment(nil, "a")
	assert.False(t, bytes.Equal(weird, plain))
	assert.True(t, bytes.Compare(plain, weird) < 0, "shorter segment sorts first")
}
