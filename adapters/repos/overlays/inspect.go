package overlays

import (
	"bytes"

	"github.com/driftdb/driftdb/entities/document"
	"github.com/driftdb/driftdb/entities/mutation"
	"github.com/driftdb/driftdb/usecases/localdocs"
)

// OverlayInfo is a human-oriented summary of one persisted overlay.
type OverlayInfo struct {
	Key            document.DocumentKey
	LargestBatchID int
	MutationType   string
}

// ForEachOverlay walks every overlay of the cache's user in key order.
// Diagnostic surface for tooling; not part of the cache contract.
func (c *BoltCache) ForEachOverlay(tx localdocs.Transaction, fn func(OverlayInfo) error) error {
	btx, err := boltTx(tx)
	if err != nil {
		return err
	}

	prefix := appendSegment(nil, c.userID)
	cur := btx.Bucket(bucketOverlays).Cursor()
	for k, v := cur.Seek(prefix); k != nil && bytes.HasPrefix(k, prefix); k, v = cur.Next() {
		overlay, err := unmarshalOverlay(v)
		if err != nil {
			return err
		}
		info := OverlayInfo{
			Key:            overlay.Key(),
			LargestBatchID: overlay.LargestBatchID,
			MutationType:   mutationTypeName(overlay.Mutation),
		}
		if err := fn(info); err != nil {
			return err
		}
	}
	return nil
}

func mutationTypeName(m mutation.Mutation) string {
	switch m.(type) {
	case *mutation.Set:
		return "set"
	case *mutation.Patch:
		return "patch"
	case *mutation.Delete:
		return "delete"
	case *mutation.Verify:
		return "verify"
	default:
		return "unknown"
	}
}
