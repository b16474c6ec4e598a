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

package overlays

import (
	"encoding/binary"

	"github.com/driftdb/driftdb/entities/document"
)

// Index keys are built from order-preserving encoded components so bolt's
// byte-wise cursor order matches the domain order:
//
//   segment   content with 0x00 escaped as {0x00 0xff}, then {0x00 0x01}
//   path      concatenated segments, then {0x00 0x00}
//   batch id  8-byte big-endian
//
// The path terminator {0x00 0x00} cannot occur inside a segment sequence
// (a segment's first escaped byte pair is {0x00 0xff}), so a path is never a
// byte-prefix of a different path's encoding, and shorter paths sort before
// the paths they prefix.

const (
	keyEscape        = 0x00
	keyEscapedZero   = 0xff
	keySegmentTerm   = 0x01
	batchIDKeyLength = 8
)

func appendSegment(buf []byte, segment string) []byte {
	for i := 0; i < len(segment); i++ {
		if segment[i] == keyEscape {
			buf = append(buf, keyEscape, keyEscapedZero)
		} else {
			buf = append(buf, segment[i])
		}
	}
	return append(buf, keyEscape, keySegmentTerm)
}

func appendPath(buf []byte, path document.ResourcePath) []byte {
	for _, segment := range path {
		buf = appendSegment(buf, segment)
	}
	return append(buf, keyEscape, keyEscape)
}

func appendBatchID(buf []byte, batchID int) []byte {
	var b [batchIDKeyLength]byte
	binary.BigEndian.PutUint64(b[:], uint64(batchID))
	return append(buf, b[:]...)
}

func readBatchID(key []byte, offset int) int {
	return int(binary.BigEndian.Uint64(key[offset : offset+batchIDKeyLength]))
}

// primaryKey addresses one overlay row: (user, documentPath).
func primaryKey(userID string, key document.DocumentKey) []byte {
	buf := appendSegment(nil, userID)
	return appendPath(buf, key.Path())
}

// batchIndexKey addresses a row of the (user, batchId) index.
func batchIndexKey(userID string, batchID int, key document.DocumentKey) []byte {
	buf := appendSegment(nil, userID)
	buf = appendBatchID(buf, batchID)
	return appendPath(buf, key.Path())
}

func batchIndexPrefix(userID string, batchID int) []byte {
	buf := appendSegment(nil, userID)
	return appendBatchID(buf, batchID)
}

// collectionIndexKey addresses a row of the (user, collectionPath,
// largestBatchId) index.
func collectionIndexKey(userID string, collection document.ResourcePath, batchID int,
	key document.DocumentKey,
) []byte {
	buf := appendSegment(nil, userID)
	buf = appendPath(buf, collection)
	buf = appendBatchID(buf, batchID)
	return appendPath(buf, key.Path())
}

func collectionIndexPrefix(userID string, collection document.ResourcePath) []byte {
	buf := appendSegment(nil, userID)
	return appendPath(buf, collection)
}

// groupIndexKey addresses a row of the (user, collectionGroup,
// largestBatchId) index.
func groupIndexKey(userID, group string, batchID int, key document.DocumentKey) []byte {
	buf := appendSegment(nil, userID)
	buf = appendSegment(buf, group)
	buf = appendBatchID(buf, batchID)
	return appendPath(buf, key.Path())
}

func groupIndexPrefix(userID, group string) []byte {
	buf := appendSegment(nil, userID)
	return appendSegment(buf, group)
}
