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
	"bytes"

	"github.com/pkg/errors"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/driftdb/driftdb/entities/document"
	"github.com/driftdb/driftdb/entities/mutation"
)

const (
	mutationTypeSet uint8 = iota + 1
	mutationTypePatch
	mutationTypeDelete
	mutationTypeVerify
)

// overlayRecord is the persisted form of an overlay. The collection group is
// stored redundantly so readers inspecting the store directly do not have to
// re-derive it from the path.
type overlayRecord struct {
	LargestBatchID  int              `msgpack:"b"`
	CollectionGroup string           `msgpack:"g"`
	Mutation        mutationEnvelope `msgpack:"m"`
}

type mutationEnvelope struct {
	Type         uint8                  `msgpack:"t"`
	Path         []string               `msgpack:"k"`
	Value        map[string]interface{} `msgpack:"v,omitempty"`
	MaskPaths    [][]string             `msgpack:"f,omitempty"`
	ExistsPrecon *bool                  `msgpack:"p,omitempty"`
}

func marshalOverlay(overlay *mutation.Overlay) ([]byte, error) {
	envelope, err := encodeMutation(overlay.Mutation)
	if err != nil {
		return nil, err
	}
	record := overlayRecord{
		LargestBatchID:  overlay.LargestBatchID,
		CollectionGroup: overlay.Key().CollectionGroup(),
		Mutation:        envelope,
	}
	return msgpack.Marshal(record)
}

func unmarshalOverlay(data []byte) (*mutation.Overlay, error) {
	var record overlayRecord
	dec := msgpack.NewDecoder(bytes.NewReader(data))
	dec.UseLooseInterfaceDecoding(true)
	if err := dec.Decode(&record); err != nil {
		return nil, errors.Wrap(err, "corrupted overlay record")
	}
	m, err := decodeMutation(record.Mutation)
	if err != nil {
		return nil, errors.Wrap(err, "corrupted overlay record")
	}
	return mutation.NewOverlay(record.LargestBatchID, m), nil
}

func encodeMutation(m mutation.Mutation) (mutationEnvelope, error) {
	envelope := mutationEnvelope{Path: []string(m.Key().Path())}
	if exists, ok := m.Precondition().Exists(); ok {
		envelope.ExistsPrecon = &exists
	}

	switch typed := m.(type) {
	case *mutation.Set:
		envelope.Type = mutationTypeSet
		envelope.Value = typed.Value().Map()
	case *mutation.Patch:
		envelope.Type = mutationTypePatch
		envelope.Value = typed.Data().Map()
		for _, path := range typed.Mask().Paths() {
			envelope.MaskPaths = append(envelope.MaskPaths, []string(path))
		}
	case *mutation.Delete:
		envelope.Type = mutationTypeDelete
	case *mutation.Verify:
		envelope.Type = mutationTypeVerify
	default:
		return mutationEnvelope{}, errors.Errorf("unknown mutation type %T", m)
	}
	return envelope, nil
}

func decodeMutation(envelope mutationEnvelope) (mutation.Mutation, error) {
	key, err := document.NewDocumentKey(document.NewResourcePath(envelope.Path...))
	if err != nil {
		return nil, err
	}

	precondition := mutation.PreconditionNone()
	if envelope.ExistsPrecon != nil {
		precondition = mutation.PreconditionExists(*envelope.ExistsPrecon)
	}

	switch envelope.Type {
	case mutationTypeSet:
		return mutation.NewSet(key, document.NewObjectValue(envelope.Value), precondition), nil
	case mutationTypePatch:
		maskPaths := make([]document.FieldPath, len(envelope.MaskPaths))
		for i, p := range envelope.MaskPaths {
			maskPaths[i] = document.FieldPath(p)
		}
		return mutation.NewPatch(key, document.NewObjectValue(envelope.Value),
			document.NewFieldMask(maskPaths...), precondition), nil
	case mutationTypeDelete:
		return mutation.NewDelete(key, precondition), nil
	case mutationTypeVerify:
		return mutation.NewVerify(key, precondition), nil
	default:
		return nil, errors.Errorf("unknown mutation type tag %d", envelope.Type)
	}
}
