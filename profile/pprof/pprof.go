// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// This product includes software developed at Datadog (https://www.datadoghq.com/).
// Copyright 2023 Datadog, Inc.

// Package pprof models the pprof profile.proto message set and encodes it
// to the binary wire format. Strings are not stored inline; every string
// field is an index into the profile's string table, and every entity id
// is 1-based, with 0 reserved for "no entity".
package pprof

// Profile is the top-level profile message.
type Profile struct {
	// SampleTypes describes the meaning of each value of a sample.
	SampleTypes []ValueType
	Samples     []Sample
	Mappings    []Mapping
	Locations   []Location
	Functions   []Function

	// StringTable holds all strings referenced by index. Index 0 must be
	// the empty string.
	StringTable []string

	// DropFrames and KeepFrames are indices into the string table of
	// regexes matching frames to drop or keep.
	DropFrames int64
	KeepFrames int64

	// TimeNanos is the time of collection in nanoseconds since the epoch.
	TimeNanos int64
	// DurationNanos is the duration of the profile in nanoseconds.
	DurationNanos int64

	// PeriodType describes the period between sampled occurrences, if any.
	PeriodType *ValueType
	Period     int64

	// Comment holds string table indices of free-form annotations.
	Comment []int64

	// DefaultSampleType is the string table index of the preferred sample
	// value type.
	DefaultSampleType int64
}

// ValueType describes a sample value: both fields index the string table.
type ValueType struct {
	Type int64
	Unit int64
}

// Sample records values for a call stack, plus context labels.
type Sample struct {
	// LocationIDs refer to Location.ID; the leaf is at LocationIDs[0].
	LocationIDs []uint64

	// Values has one entry per profile sample type. When several samples
	// aggregate into one, the result is the element-wise sum.
	Values []int64

	Labels []Label
}

// Label attaches context to a sample; Key, Str and NumUnit index the
// string table.
type Label struct {
	Key     int64
	Str     int64
	Num     int64
	NumUnit int64
}

// Mapping describes an object loaded into memory. Filename and BuildID
// index the string table.
type Mapping struct {
	ID          uint64
	MemoryStart uint64
	MemoryLimit uint64
	FileOffset  uint64
	Filename    int64
	BuildID     int64

	HasFunctions    bool
	HasFilenames    bool
	HasLineNumbers  bool
	HasInlineFrames bool
}

// Location is a unique place in the program, commonly mapped to a single
// instruction address. MappingID 0 means no mapping.
type Location struct {
	ID        uint64
	MappingID uint64
	Address   uint64

	// Lines is ordered leaf first; multiple entries indicate inlining.
	Lines []Line

	IsFolded bool
}

// Line pairs a function with a source line. FunctionID must not be 0.
type Line struct {
	FunctionID uint64
	Line       int64
}

// Function describes a source-level function. Name, SystemName and
// Filename index the string table.
type Function struct {
	ID         uint64
	Name       int64
	SystemName int64
	Filename   int64
	StartLine  int64
}
