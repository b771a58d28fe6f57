// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// This product includes software developed at Datadog (https://www.datadoghq.com/).
// Copyright 2023 Datadog, Inc.

// Package immutable provides read-only views of values so they can be
// shared across goroutines without synchronization.
package immutable

// StringSlice holds a slice of strings which cannot be modified after
// creation. Both construction and every accessor copy, so neither the
// source slice nor a returned one can alias the internal storage.
type StringSlice struct {
	strings []string
}

// NewStringSlice creates a StringSlice from a copy of s.
func NewStringSlice(s []string) StringSlice {
	dup := make([]string, len(s))
	copy(dup, s)
	return StringSlice{strings: dup}
}

// Slice returns a copy of the held strings.
func (s StringSlice) Slice() []string {
	dup := make([]string, len(s.strings))
	copy(dup, s.strings)
	return dup
}

// Append returns a new StringSlice with strings added to the end. The
// receiver is unchanged.
func (s StringSlice) Append(strings ...string) StringSlice {
	dup := make([]string, len(s.strings)+len(strings))
	copy(dup, s.strings)
	copy(dup[len(s.strings):], strings)
	return StringSlice{strings: dup}
}

// Len returns the number of held strings.
func (s StringSlice) Len() int {
	return len(s.strings)
}
