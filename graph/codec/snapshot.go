package codec

import (
	"bytes"
	"fmt"
	"os"

	"github.com/dshills/graphvm/graph"
)

// EncodeSnapshot serializes a snapshot.
func EncodeSnapshot(s *Serializer, snap graph.Snapshot) ([]byte, error) {
	return s.Serialize(snap)
}

// DecodeSnapshot is the inverse of EncodeSnapshot.
func DecodeSnapshot(s *Serializer, data []byte) (graph.Snapshot, error) {
	var snap graph.Snapshot
	if err := s.Deserialize(data, &snap); err != nil {
		return graph.Snapshot{}, err
	}
	return snap, nil
}

// WriteSnapshotFile writes snap to path with s.
func WriteSnapshotFile(path string, s *Serializer, snap graph.Snapshot) error {
	data, err := EncodeSnapshot(s, snap)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write snapshot %s: %w", path, err)
	}
	return nil
}

// ReadSnapshotFile reads a snapshot written by WriteSnapshotFile.
//
// Plain JSON files (first non-space byte '{') are read as JSON regardless of
// s, so hand-written snapshots work. Anything else is decoded with s, or the
// DefaultSerializer when s is nil.
func ReadSnapshotFile(path string, s *Serializer) (graph.Snapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return graph.Snapshot{}, fmt.Errorf("read snapshot %s: %w", path, err)
	}

	if trimmed := bytes.TrimSpace(data); len(trimmed) > 0 && trimmed[0] == '{' {
		s = NewSerializer(NewJSONCodec(), CompressionNone)
	} else if s == nil {
		s = DefaultSerializer()
	}

	snap, err := DecodeSnapshot(s, data)
	if err != nil {
		return graph.Snapshot{}, fmt.Errorf("decode snapshot %s: %w", path, err)
	}
	return snap, nil
}
