//       _      _  __ _      _ _
//    __| |_ __(_)/ _| |_ __| | |__
//   / _` | '__| | |_| __/ _` | '_ \
//  | (_| | |  | |  _| || (_| | |_) |
//   \__,_|_|  |_|_|  \__\__,_|_.__/
//
//  Copyright © 2021 - 2026 DriftDB B.V. All rights reserved.
//
//  CONTACT: hello@driftdb.io
//

package document

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResourcePath_Compare(t *testing.T) {
	tests := []struct {
		name     string
		left     string
		right    string
		expected int
	}{
		{name: "equal", left: "users/alice", right: "users/alice", expected: 0},
		{name: "segment order", left: "users/alice", right: "users/bob", expected: -1},
		{name: "prefix orders first", left: "users", right: "users/alice", expected: -1},
		{name: "segment-wise not byte-wise", left: "users2", right: "users/alice", expected: 1},
		{name: "first segment decides", left: "rooms/z", right: "users/a", expected: -1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			left, err := ParseResourcePath(tt.left)
			require.Nil(t, err)
			right, err := ParseResourcePath(tt.right)
			require.Nil(t, err)

			assert.Equal(t, tt.expected, left.Compare(right))
			assert.Equal(t, -tt.expected, right.Compare(left))
		})
	}
}

func TestResourcePath_PrefixAndChild(t *testing.T) {
	rooms, err := ParseResourcePath("rooms")
	require.Nil(t, err)

	r1 := rooms.Child("r1")
	assert.Equal(t, "rooms/r1", r1.String())
	assert.Equal(t, 1, rooms.Len())
	assert.True(t, rooms.IsPrefixOf(r1))
	assert.False(t, r1.IsPrefixOf(rooms))
	assert.True(t, r1.IsPrefixOf(r1))
	assert.Equal(t, "rooms", r1.Parent().String())

	// Child must not alias the parent's backing array
	m1 := r1.Child("messages")
	m2 := r1.Child("people")
	assert.Equal(t, "rooms/r1/messages", m1.String())
	assert.Equal(t, "rooms/r1/people", m2.String())
}

func TestResourcePath_DocumentAndCollection(t *testing.T) {
	users, _ := ParseResourcePath("users")
	alice, _ := ParseResourcePath("users/alice")
	messages, _ := ParseResourcePath("rooms/r1/messages")

	assert.True(t, users.IsCollectionPath())
	assert.False(t, users.IsDocumentPath())
	assert.True(t, alice.IsDocumentPath())
	assert.True(t, messages.IsCollectionPath())
}

func TestParseResourcePath_RejectsEmptySegments(t *testing.T) {
	_, err := ParseResourcePath("users//alice")
	require.NotNil(t, err)
}

func TestDocumentKey(t *testing.T) {
	alice := MustKey("users/alice")
	assert.Equal(t, "users", alice.CollectionGroup())
	assert.Equal(t, "users", alice.CollectionPath().String())
	assert.True(t, alice.HasCollectionGroup("users"))
	assert.False(t, alice.HasCollectionGroup("rooms"))

	nested := MustKey("rooms/r1/messages/m1")
	assert.Equal(t, "messages", nested.CollectionGroup())
	assert.Equal(t, "rooms/r1/messages", nested.CollectionPath().String())

	users, _ := ParseResourcePath("users")
	_, err := NewDocumentKey(users)
	require.NotNil(t, err)
}

func TestDocumentKey_SeekKeySortsFirst(t *testing.T) {
	messages, _ := ParseResourcePath("rooms/r1/messages")
	seek := NewSeekKey(messages)

	m1 := MustKey("rooms/r1/messages/m1")
	assert.True(t, seek.Compare(m1) < 0)

	// but after the collection's parent document
	r1 := MustKey("rooms/r1")
	assert.True(t, r1.Compare(seek) < 0)
}
