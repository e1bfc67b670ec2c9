package docstore

import (
	"encoding/json"
	"sync"
)

// Encode serializes a document for byte-oriented backends.
func Encode(doc any) ([]byte, error) {
	return json.Marshal(doc)
}

// JSONSnapshot wraps raw JSON bytes. The generic field map is decoded at
// most once, on first use.
func JSONSnapshot(id string, raw []byte) *Snapshot {
	fields := sync.OnceValues(func() (map[string]any, error) {
		var m map[string]any
		if err := json.Unmarshal(raw, &m); err != nil {
			return nil, err
		}
		return m, nil
	})
	return NewSnapshot(id, fields, func(dst any) error {
		return json.Unmarshal(raw, dst)
	})
}
