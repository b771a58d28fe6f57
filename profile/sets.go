// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// This product includes software developed at Datadog (https://www.datadoghq.com/).
// Copyright 2023 Datadog, Inc.

package profile

import (
	"encoding/binary"

	"github.com/spaolacci/murmur3"
)

// The internable tables (strings, mappings, functions, locations,
// samples) deduplicate by content, with ids derived from insertion
// position. No identity computation includes the entry's own id. The ids
// of other entities that a key does include (a location's mapping and
// function ids, a sample's location ids) are insertion positions, which
// never change, so emit-time numbering by position agrees with them.

// mapping mirrors pprof.Mapping minus the id; filename and buildID are
// string table indices.
type mapping struct {
	memoryStart uint64
	memoryLimit uint64
	fileOffset  uint64
	filename    int64
	buildID     int64
}

type mappingTable struct {
	entries []mapping
	index   map[mapping]uint64
}

func newMappingTable() mappingTable {
	return mappingTable{index: make(map[mapping]uint64)}
}

// dedup returns the 1-based id of m, appending it if new. Id 0 is the
// wire format's "no mapping" sentinel, so ids shift by one.
func (t *mappingTable) dedup(m mapping) uint64 {
	if idx, ok := t.index[m]; ok {
		return idx + 1
	}
	idx := uint64(len(t.entries))
	t.entries = append(t.entries, m)
	t.index[m] = idx
	return idx + 1
}

func (t *mappingTable) len() int { return len(t.entries) }

type function struct {
	name       int64
	systemName int64
	filename   int64
	startLine  int64
}

type functionTable struct {
	entries []function
	index   map[function]uint64
}

func newFunctionTable() functionTable {
	return functionTable{index: make(map[function]uint64)}
}

// dedup returns the 1-based id of f, appending it if new. Function id 0
// is reserved and never emitted.
func (t *functionTable) dedup(f function) uint64 {
	if idx, ok := t.index[f]; ok {
		return idx + 1
	}
	idx := uint64(len(t.entries))
	t.entries = append(t.entries, f)
	t.index[f] = idx
	return idx + 1
}

func (t *functionTable) len() int { return len(t.entries) }

type line struct {
	functionID uint64
	line       int64
}

type location struct {
	mappingID uint64
	address   uint64
	lines     []line
	isFolded  bool
}

// locationTable deduplicates locations by a 128-bit content hash of the
// canonical field encoding. Locations hold a line slice and cannot be
// map keys directly.
type locationTable struct {
	entries []location
	index   map[[16]byte]uint64
}

func newLocationTable() locationTable {
	return locationTable{index: make(map[[16]byte]uint64)}
}

func (t *locationTable) dedup(l location, h *hasher) uint64 {
	key := h.location(l)
	if idx, ok := t.index[key]; ok {
		return idx + 1
	}
	idx := uint64(len(t.entries))
	t.entries = append(t.entries, l)
	t.index[key] = idx
	return idx + 1
}

func (t *locationTable) len() int { return len(t.entries) }

type label struct {
	key     int64
	str     int64
	num     int64
	numUnit int64
}

// sampleEntry is one aggregation bucket: the key (locations + labels, in
// caller order) and the accumulated values.
type sampleEntry struct {
	locationIDs []uint64
	labels      []label
	values      []int64
}

type sampleTable struct {
	entries []sampleEntry
	index   map[[16]byte]uint64
}

func newSampleTable() sampleTable {
	return sampleTable{index: make(map[[16]byte]uint64)}
}

// add accumulates values under the key formed by locationIDs and labels,
// inserting a new entry with a copy of values when the key is new. The
// returned id is the 1-based insertion position of the key.
func (t *sampleTable) add(locationIDs []uint64, labels []label, values []int64, h *hasher) uint64 {
	key := h.sampleKey(locationIDs, labels)
	if idx, ok := t.index[key]; ok {
		existing := t.entries[idx].values
		for i, v := range values {
			existing[i] += v
		}
		return idx + 1
	}
	idx := uint64(len(t.entries))
	t.entries = append(t.entries, sampleEntry{
		locationIDs: locationIDs,
		labels:      labels,
		values:      append([]int64(nil), values...),
	})
	t.index[key] = idx
	return idx + 1
}

func (t *sampleTable) len() int { return len(t.entries) }

// hasher computes 128-bit murmur3 identities over the canonical little-
// endian encoding of an entity's fields. The scratch buffer is reused
// across calls to keep the hot path allocation-free.
type hasher struct {
	buf []byte
}

func (h *hasher) location(l location) [16]byte {
	b := h.buf[:0]
	b = binary.LittleEndian.AppendUint64(b, l.mappingID)
	b = binary.LittleEndian.AppendUint64(b, l.address)
	b = binary.LittleEndian.AppendUint64(b, uint64(len(l.lines)))
	for _, ln := range l.lines {
		b = binary.LittleEndian.AppendUint64(b, ln.functionID)
		b = binary.LittleEndian.AppendUint64(b, uint64(ln.line))
	}
	if l.isFolded {
		b = append(b, 1)
	} else {
		b = append(b, 0)
	}
	h.buf = b
	return sum128(b)
}

func (h *hasher) sampleKey(locationIDs []uint64, labels []label) [16]byte {
	b := h.buf[:0]
	b = binary.LittleEndian.AppendUint64(b, uint64(len(locationIDs)))
	for _, id := range locationIDs {
		b = binary.LittleEndian.AppendUint64(b, id)
	}
	b = binary.LittleEndian.AppendUint64(b, uint64(len(labels)))
	for _, l := range labels {
		b = binary.LittleEndian.AppendUint64(b, uint64(l.key))
		b = binary.LittleEndian.AppendUint64(b, uint64(l.str))
		b = binary.LittleEndian.AppendUint64(b, uint64(l.num))
		b = binary.LittleEndian.AppendUint64(b, uint64(l.numUnit))
	}
	h.buf = b
	return sum128(b)
}

func sum128(b []byte) [16]byte {
	var key [16]byte
	h1, h2 := murmur3.Sum128(b)
	binary.LittleEndian.PutUint64(key[:8], h1)
	binary.LittleEndian.PutUint64(key[8:], h2)
	return key
}
