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
	"github.com/driftdb/driftdb/entities/document"
)

// Query selects documents either below a concrete path or across every
// collection sharing a collection-group name.
type Query struct {
	// Path is the collection (or single document) the query is rooted at.
	// For collection-group queries it is empty until the query is pinned to a
	// concrete parent via AsCollectionQueryAtPath.
	Path document.ResourcePath

	// CollectionGroup is the group name for cross-collection queries, ""
	// otherwise.
	CollectionGroup string

	Filters []FieldFilter
}

// NewCollectionQuery selects the immediate child documents of path.
func NewCollectionQuery(path document.ResourcePath, filters ...FieldFilter) Query {
	return Query{Path: path, Filters: filters}
}

// NewCollectionGroupQuery selects documents of every collection named group.
func NewCollectionGroupQuery(group string, filters ...FieldFilter) Query {
	return Query{CollectionGroup: group, Filters: filters}
}

// NewDocumentQuery selects a single document.
func NewDocumentQuery(path document.ResourcePath) Query {
	return Query{Path: path}
}

// IsDocumentQuery reports whether the query addresses exactly one document.
func (q Query) IsDocumentQuery() bool {
	return q.CollectionGroup == "" && q.Path.IsDocumentPath() && len(q.Filters) == 0
}

func (q Query) IsCollectionGroupQuery() bool {
	return q.CollectionGroup != ""
}

// AsCollectionQueryAtPath pins a collection-group query to one concrete
// parent collection, keeping the filters.
func (q Query) AsCollectionQueryAtPath(path document.ResourcePath) Query {
	return Query{Path: path, Filters: q.Filters}
}

// Matches reports whether doc is part of the query's result set.
func (q Query) Matches(doc *document.Document) bool {
	if !doc.IsFound() {
		return false
	}
	if !q.matchesPath(doc.Key()) {
		return false
	}
	for _, f := range q.Filters {
		if !f.Matches(doc) {
			return false
		}
	}
	return true
}

func (q Query) matchesPath(key document.DocumentKey) bool {
	path := key.Path()
	if q.CollectionGroup != "" {
		return key.HasCollectionGroup(q.CollectionGroup) && q.Path.IsPrefixOf(path)
	}
	if q.Path.IsDocumentPath() {
		return q.Path.Equal(path)
	}
	// collection query: immediate children only
	return q.Path.IsPrefixOf(path) && path.Len() == q.Path.Len()+1
}
