// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// This product includes software developed at Datadog (https://www.datadoghq.com/).
// Copyright 2023 Datadog, Inc.

// Package api holds the record types handed to the profiling engine by host
// runtimes. The engine copies what it needs out of these records during the
// call that receives them; it never retains a reference to caller memory.
package api

import (
	"errors"
	"fmt"
	"unicode/utf8"
)

// ErrInvalidUTF8 is returned when a record carries a string that is not
// valid UTF-8. The engine never stores such strings.
var ErrInvalidUTF8 = errors.New("string is not valid UTF-8")

// ValueType describes the type and unit of a sample value, e.g.
// ("wall-time", "nanoseconds").
type ValueType struct {
	Type string
	Unit string
}

// Period is the event period of a profile, e.g. one sample every
// 10000000 nanoseconds of wall-time.
type Period struct {
	Type  ValueType
	Value int64
}

// Mapping describes an object loaded into process memory.
type Mapping struct {
	// MemoryStart is the address at which the binary (or DLL) is loaded
	// into memory.
	MemoryStart uint64

	// MemoryLimit is the limit of the address range occupied by this
	// mapping.
	MemoryLimit uint64

	// FileOffset is the offset in the binary that corresponds to the first
	// mapped address.
	FileOffset uint64

	// Filename names the object this entry is loaded from. This can be a
	// filename on disk for the main binary and shared libraries, or
	// virtual abstractions like "[vdso]".
	Filename string

	// BuildID is a string that uniquely identifies a particular program
	// version with high probability. E.g., for binaries generated by GNU
	// tools, it could be the contents of the .note.gnu.build-id field.
	BuildID string
}

// Function describes a source-level function.
type Function struct {
	// Name of the function, in human-readable form if available.
	Name string

	// SystemName is the name of the function as identified by the system.
	// For instance, it can be a C++ mangled name.
	SystemName string

	// Filename is the source file containing the function.
	Filename string

	// StartLine is the line number in the source file of the first line
	// of the function.
	StartLine int64
}

// Line is one source line attributed to a location.
type Line struct {
	// Function holds the function this line belongs to.
	Function Function

	// Line is the line number in the source code.
	Line int64
}

// Location is a place in program code, resolved to one or more source
// lines.
type Location struct {
	Mapping Mapping

	// Address is the instruction address for this location, if available.
	// It should be within [Mapping.MemoryStart...Mapping.MemoryLimit] for
	// the corresponding mapping.
	Address uint64

	// Lines holds the source lines for this location, leaf first.
	// Multiple lines indicate inlined functions, where the last entry
	// represents the caller into which the preceding entries were inlined.
	Lines []Line

	// IsFolded indicates that multiple symbols map to this location's
	// address, for example due to identical code folding by the linker.
	IsFolded bool
}

// Label attaches context to a sample, such as a thread id or an
// allocation size. At most one of Str and (Num, NumUnit) carries a value;
// the inactive side is left zero.
type Label struct {
	Key string

	// Str is the string value of the label, if any.
	Str string

	// Num is the numeric value of the label, if any.
	Num int64

	// NumUnit specifies the units of Num, e.g. "bytes" or "requests".
	// Should only be present when Num is. If no unit is specified,
	// consumers may apply a heuristic to deduce the unit.
	NumUnit string
}

// Sample is one measurement: a call stack, the measured values, and the
// labels providing context.
type Sample struct {
	// Locations of the sample, leaf first.
	Locations []Location

	// Values measured for this sample. The type and unit of each value is
	// given by the corresponding entry of the profile's sample types, and
	// the lengths must match.
	Values []int64

	// Labels carrying additional context, e.g. a thread id.
	Labels []Label
}

// Validate reports whether every string carried by the sample is valid
// UTF-8. The error wraps ErrInvalidUTF8 and names the offending field.
func (s Sample) Validate() error {
	for _, label := range s.Labels {
		if err := label.Validate(); err != nil {
			return err
		}
	}
	for _, loc := range s.Locations {
		if err := loc.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// Validate reports whether every string of the label is valid UTF-8.
func (l Label) Validate() error {
	if !utf8.ValidString(l.Key) {
		return fmt.Errorf("label key %q: %w", l.Key, ErrInvalidUTF8)
	}
	if !utf8.ValidString(l.Str) {
		return fmt.Errorf("label value %q: %w", l.Str, ErrInvalidUTF8)
	}
	if !utf8.ValidString(l.NumUnit) {
		return fmt.Errorf("label num unit %q: %w", l.NumUnit, ErrInvalidUTF8)
	}
	return nil
}

// Validate reports whether every string of the location, including its
// mapping and functions, is valid UTF-8.
func (l Location) Validate() error {
	if err := l.Mapping.Validate(); err != nil {
		return err
	}
	for _, line := range l.Lines {
		if err := line.Function.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// Validate reports whether every string of the mapping is valid UTF-8.
func (m Mapping) Validate() error {
	if !utf8.ValidString(m.Filename) {
		return fmt.Errorf("mapping filename %q: %w", m.Filename, ErrInvalidUTF8)
	}
	if !utf8.ValidString(m.BuildID) {
		return fmt.Errorf("mapping build id %q: %w", m.BuildID, ErrInvalidUTF8)
	}
	return nil
}

// Validate reports whether every string of the function is valid UTF-8.
func (f Function) Validate() error {
	if !utf8.ValidString(f.Name) {
		return fmt.Errorf("function name %q: %w", f.Name, ErrInvalidUTF8)
	}
	if !utf8.ValidString(f.SystemName) {
		return fmt.Errorf("function system name %q: %w", f.SystemName, ErrInvalidUTF8)
	}
	if !utf8.ValidString(f.Filename) {
		return fmt.Errorf("function filename %q: %w", f.Filename, ErrInvalidUTF8)
	}
	return nil
}
