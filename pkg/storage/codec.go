package storage

import (
	"bytes"
	"encoding/gob"
)

// decimal.Decimal and time.Time both implement GobEncoder, so trade events
// round-trip through gob without a wire struct of their own.
func encodeGob(v any) ([]byte, error) {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func decodeGob(b []byte, v any) error {
	return gob.NewDecoder(bytes.NewReader(b)).Decode(v)
}
