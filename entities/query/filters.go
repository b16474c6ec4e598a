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
	"strings"

	"github.com/driftdb/driftdb/entities/document"
)

type Operator int

const (
	OperatorEqual Operator = iota + 1
	OperatorNotEqual
	OperatorLessThan
	OperatorLessThanEqual
	OperatorGreaterThan
	OperatorGreaterThanEqual
)

func (o Operator) Name() string {
	switch o {
	case OperatorEqual:
		return "Equal"
	case OperatorNotEqual:
		return "NotEqual"
	case OperatorLessThan:
		return "LessThan"
	case OperatorLessThanEqual:
		return "LessThanEqual"
	case OperatorGreaterThan:
		return "GreaterThan"
	case OperatorGreaterThanEqual:
		return "GreaterThanEqual"
	default:
		return ""
	}
}

// FieldFilter compares one document field against a scalar constant.
type FieldFilter struct {
	Field    document.FieldPath
	Operator Operator
	Value    interface{}
}

func NewFieldFilter(field string, op Operator, value interface{}) FieldFilter {
	return FieldFilter{Field: document.ParseFieldPath(field), Operator: op, Value: value}
}

// Matches evaluates the filter against doc. A missing field or values of
// incomparable types never match.
func (f FieldFilter) Matches(doc *document.Document) bool {
	val, ok := doc.Data().Get(f.Field)
	if !ok {
		return false
	}
	c, comparable := compareValues(val, f.Value)
	if !comparable {
		return false
	}
	switch f.Operator {
	case OperatorEqual:
		return c == 0
	case OperatorNotEqual:
		return c != 0
	case OperatorLessThan:
		return c < 0
	case OperatorLessThanEqual:
		return c <= 0
	case OperatorGreaterThan:
		return c > 0
	case OperatorGreaterThanEqual:
		return c >= 0
	default:
		return false
	}
}

// compareValues orders two scalar values of compatible types. Integer and
// floating point numbers compare across types; everything else requires an
// exact type match.
func compareValues(a, b interface{}) (int, bool) {
	if af, aok := asFloat(a); aok {
		bf, bok := asFloat(b)
		if !bok {
			return 0, false
		}
		switch {
		case af < bf:
			return -1, true
		case af > bf:
			return 1, true
		default:
			return 0, true
		}
	}

	switch at := a.(type) {
	case string:
		bt, ok := b.(string)
		if !ok {
			return 0, false
		}
		return strings.Compare(at, bt), true
	case bool:
		bt, ok := b.(bool)
		if !ok {
			return 0, false
		}
		switch {
		case at == bt:
			return 0, true
		case !at:
			return -1, true
		default:
			return 1, true
		}
	default:
		return 0, false
	}
}

func asFloat(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int8:
		return float64(n), true
	case int16:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint64:
		return float64(n), true
	case float32:
		return float64(n), true
	case float64:
		return n, true
	default:
		return 0, false
	}
}
