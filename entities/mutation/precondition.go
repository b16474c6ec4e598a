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

package mutation

import (
	"github.com/driftdb/driftdb/entities/document"
)

// Precondition guards a mutation's application against the base document's
// existence state. The zero value imposes no condition.
type Precondition struct {
	exists *bool
}

func PreconditionNone() Precondition {
	return Precondition{}
}

func PreconditionExists(exists bool) Precondition {
	return Precondition{exists: &exists}
}

func (p Precondition) IsNone() bool {
	return p.exists == nil
}

// Exists returns the required existence state and whether one is set.
func (p Precondition) Exists() (bool, bool) {
	if p.exists == nil {
		return false, false
	}
	return *p.exists, true
}

// IsValidFor reports whether doc satisfies the precondition. A failed
// precondition is not an error: the mutation simply does not apply.
func (p Precondition) IsValidFor(doc *document.Document) bool {
	if p.exists == nil {
		return true
	}
	if *p.exists {
		return doc.IsFound()
	}
	return !doc.IsFound()
}
