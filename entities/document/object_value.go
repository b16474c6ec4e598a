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
	"reflect"
)

// ObjectValue holds a document's field data as a nested string-keyed map.
// Values are scalars, nested map[string]interface{} objects, or slices.
type ObjectValue struct {
	fields map[string]interface{}
}

func NewObjectValue(fields map[string]interface{}) ObjectValue {
	if fields == nil {
		fields = map[string]interface{}{}
	}
	return ObjectValue{fields: fields}
}

func EmptyObjectValue() ObjectValue {
	return ObjectValue{fields: map[string]interface{}{}}
}

// Map exposes the underlying fields. Callers must not mutate the result
// unless they own the value.
func (v ObjectValue) Map() map[string]interface{} {
	return v.fields
}

// Get returns the value at path, descending through nested maps.
func (v ObjectValue) Get(path FieldPath) (interface{}, bool) {
	if len(path) == 0 {
		return nil, false
	}
	current := v.fields
	for i := 0; i < len(path)-1; i++ {
		next, ok := current[path[i]].(map[string]interface{})
		if !ok {
			return nil, false
		}
		current = next
	}
	val, ok := current[path[len(path)-1]]
	return val, ok
}

// Set writes value at path, creating intermediate maps as needed. A non-map
// intermediate value is overwritten.
func (v ObjectValue) Set(path FieldPath, value interface{}) {
	if len(path) == 0 {
		return
	}
	current := v.fields
	for i := 0; i < len(path)-1; i++ {
		next, ok := current[path[i]].(map[string]interface{})
		if !ok {
			next = map[string]interface{}{}
			current[path[i]] = next
		}
		current = next
	}
	current[path[len(path)-1]] = value
}

// Delete removes the value at path. Missing intermediates are a no-op.
func (v ObjectValue) Delete(path FieldPath) {
	if len(path) == 0 {
		return
	}
	current := v.fields
	for i := 0; i < len(path)-1; i++ {
		next, ok := current[path[i]].(map[string]interface{})
		if !ok {
			return
		}
		current = next
	}
	delete(current, path[len(path)-1])
}

func (v ObjectValue) DeepCopy() ObjectValue {
	return ObjectValue{fields: deepCopyMap(v.fields)}
}

func (v ObjectValue) Equal(other ObjectValue) bool {
	return reflect.DeepEqual(v.fields, other.fields)
}

func deepCopyMap(in map[string]interface{}) map[string]interface{} {
	out := make(map[string]interface{}, len(in))
	for k, val := range in {
		switch typed := val.(type) {
		case map[string]interface{}:
			out[k] = deepCopyMap(typed)
		case []interface{}:
			cp := make([]interface{}, len(typed))
			for i, elem := range typed {
				if m, ok := elem.(map[string]interface{}); ok {
					cp[i] = deepCopyMap(m)
				} else {
					cp[i] = elem
				}
			}
			out[k] = cp
		default:
			out[k] = val
		}
	}
	return out
}
