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

package query

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/driftdb/driftdb/entities/document"
)

var now = time.Date(2026, 8, 6, 12, 0, 0, 0, time.UTC)

func foundDoc(path string, fields map[string]interface{}) *document.Document {
	return document.NewFoundDocument(document.MustKey(path), document.NewObjectValue(fields), now)
}

func TestQuery_Dispatch(t *testing.T) {
	users, _ := document.ParseResourcePath("users")
	alice, _ := document.ParseResourcePath("users/alice")

	assert.False(t, NewCollectionQuery(users).IsDocumentQuery())
	assert.True(t, NewDocumentQuery(alice).IsDocumentQuery())
	assert.True(t, NewCollectionGroupQuery("messages").IsCollectionGroupQuery())

	pinned := NewCollectionGroupQuery("messages").AsCollectionQueryAtPath(users.Child("messages"))
	assert.False(t, pinned.IsCollectionGroupQuery())
	assert.Equal(t, "users/messages", pinned.Path.String())
}

func TestQuery_MatchesPath(t *testing.T) {
	messages, _ := document.ParseResourcePath("rooms/r1/messages")
	q := NewCollectionQuery(messages)

	assert.True(t, q.Matches(foundDoc("rooms/r1/messages/m1", nil)))
	assert.False(t, q.Matches(foundDoc("rooms/r1/messages/m1/replies/x", nil)), "no sub-collection descendants")
	assert.False(t, q.Matches(foundDoc("rooms/r1", nil)))
	assert.False(t, q.Matches(foundDoc("rooms/r2/messages/m1", nil)))

	group := NewCollectionGroupQuery("messages")
	assert.True(t, group.Matches(foundDoc("rooms/r1/messages/m1", nil)))
	assert.True(t, group.Matches(foundDoc("archive/a/messages/m9", nil)))
	assert.False(t, group.Matches(foundDoc("rooms/r1/people/p1", nil)))
}

func TestQuery_MatchesRequiresFound(t *testing.T) {
	messages, _ := document.ParseResourcePath("rooms/r1/messages")
	q := NewCollectionQuery(messages)

	key := document.MustKey("rooms/r1/messages/m1")
	assert.False(t, q.Matches(document.NewInvalidDocument(key)))
	assert.False(t, q.Matches(document.NewMissingDocument(key, now)))
}

func TestFieldFilter(t *testing.T) {
	doc := foundDoc("users/alice", map[string]interface{}{
		"age":  float64(30),
		"name": "alice",
		"address": map[string]interface{}{
			"city": "NYC",
		},
	})

	tests := []struct {
		name    string
		filter  FieldFilter
		matches bool
	}{
		{"equal string", NewFieldFilter("name", OperatorEqual, "alice"), true},
		{"equal nested", NewFieldFilter("address.city", OperatorEqual, "NYC"), true},
		{"not equal", NewFieldFilter("name", OperatorNotEqual, "bob"), true},
		{"less than", NewFieldFilter("age", OperatorLessThan, float64(40)), true},
		{"greater or equal", NewFieldFilter("age", OperatorGreaterThanEqual, float64(30)), true},
		{"numeric cross-type", NewFieldFilter("age", OperatorEqual, int64(30)), true},
		{"missing field", NewFieldFilter("height", OperatorEqual, float64(1)), false},
		{"type mismatch", NewFieldFilter("name", OperatorLessThan, float64(3)), false},
		{"failing comparison", NewFieldFilter("age", OperatorGreaterThan, float64(30)), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			users, _ := document.ParseResourcePath("users")
			q := NewCollectionQuery(users, tt.filter)
			assert.Equal(t, tt.matches, q.Matches(doc))
		})
	}
}
