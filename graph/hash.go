package graph

import (
	"encoding/binary"
	"hash"
	"hash/fnv"
)

// HashSnapshot returns the 64-bit FNV-1a hash of a snapshot.
//
// The hash is order-sensitive and covers, in sequence:
//   - node count
//   - each node's id followed by its type name bytes, in snapshot order
//   - edge count
//   - each edge's FromNode, FromPort, ToNode, ToPort
//
// Integers are written as 8-byte little-endian. Two snapshots with the same
// content in the same order always hash identically, on every platform.
func HashSnapshot(s Snapshot) uint64 {
	h := newHasher()
	h.writeSnapshot(s)
	return h.Sum64()
}

// MixKey combines a graph id, seed and level of detail into one cache key.
func MixKey(graphID, seed uint64, lod int) uint64 {
	h := newHasher()
	h.writeUint(graphID)
	h.writeUint(seed)
	h.writeInt(lod)
	return h.Sum64()
}

type hasher struct {
	hash.Hash64
	buf [8]byte
}

func newHasher() *hasher {
	return &hasher{Hash64: fnv.New64a()}
}

func (h *hasher) writeUint(v uint64) {
	binary.LittleEndian.PutUint64(h.buf[:], v)
	_, _ = h.Write(h.buf[:])
}

func (h *hasher) writeInt(v int) {
	h.writeUint(uint64(int64(v)))
}

func (h *hasher) writeString(s string) {
	_, _ = h.Write([]byte(s))
}

func (h *hasher) writeSnapshot(s Snapshot) {
	h.writeInt(len(s.Nodes))
	for _, n := range s.Nodes {
		h.writeUint(uint64(n.ID))
		h.writeString(n.Type)
	}
	h.writeInt(len(s.Edges))
	for _, e := range s.Edges {
		h.writeUint(uint64(e.FromNode))
		h.writeInt(e.FromPort)
		h.writeUint(uint64(e.ToNode))
		h.writeInt(e.ToPort)
	}
}
