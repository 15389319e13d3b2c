package persistence

import (
	"bytes"
	"encoding/hex"
	"encoding/json"
	"fmt"

	"golang.org/x/crypto/blake2b"
)

// Encode serializes the snapshot into the canonical JSON document. Map keys are
// emitted in sorted order, so equal snapshots always encode to equal bytes.
func Encode(snapshot Snapshot) ([]byte, error) {
	if snapshot == nil {
		snapshot = Snapshot{}
	}
	data, err := json.Marshal(snapshot)
	if err != nil {
		return nil, fmt.Errorf("persistence: encode snapshot: %w", err)
	}
	return data, nil
}

// Decode parses a JSON document produced by Encode (or by earlier versions of the
// booking tool, which share the same layout). Blank input yields ErrNotFound.
func Decode(data []byte) (Snapshot, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, ErrNotFound
	}
	var snapshot Snapshot
	if err := json.Unmarshal(data, &snapshot); err != nil {
		return nil, fmt.Errorf("persistence: decode snapshot: %w", err)
	}
	if snapshot == nil {
		snapshot = Snapshot{}
	}
	for room, days := range snapshot {
		if days == nil {
			snapshot[room] = map[string]DayRecord{}
		}
	}
	return snapshot, nil
}

// Checksum returns the hex encoded BLAKE2b-256 digest of data.
func Checksum(data []byte) string {
	sum := blake2b.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// VerifyChecksum reports ErrChecksumMismatch when data does not hash to want.
func VerifyChecksum(data []byte, want string) error {
	if want == "" {
		return nil
	}
	if got := Checksum(data); got != want {
		return fmt.Errorf("%w: got %s, want %s", ErrChecksumMismatch, got, want)
	}
	return nil
}
