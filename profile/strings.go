// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// This product includes software developed at Datadog (https://www.datadoghq.com/).
// Copyright 2023 Datadog, Inc.

package profile

import (
	"sync"

	"github.com/DataDog/libdatadog-go/internal/immutable"
)

// StringTable interns strings, assigning each distinct string a dense
// int64 id. The empty string is pre-interned at id 0, and ids are stable
// for the lifetime of the table.
type StringTable struct {
	strings []string
	index   map[string]int64
}

// NewStringTable returns a table containing only the empty string, at
// id 0.
func NewStringTable() *StringTable {
	return &StringTable{
		strings: []string{""},
		index:   map[string]int64{"": 0},
	}
}

// Intern returns the id of s, inserting it if it has not been seen
// before. Equal strings always return equal ids.
func (st *StringTable) Intern(s string) int64 {
	if id, ok := st.index[s]; ok {
		return id
	}
	id := int64(len(st.strings))
	st.strings = append(st.strings, s)
	st.index[s] = id
	return id
}

// Lookup returns the string stored at id.
func (st *StringTable) Lookup(id int64) (string, bool) {
	if id < 0 || id >= int64(len(st.strings)) {
		return "", false
	}
	return st.strings[id], true
}

// Len returns the number of interned strings, including the empty string.
func (st *StringTable) Len() int {
	return len(st.strings)
}

// contents returns the interned strings in insertion order. The slice is
// shared with the table and must not be modified.
func (st *StringTable) contents() []string {
	return st.strings
}

// LockedStringTable guards a StringTable with a mutex so several
// profiles can share one interner.
type LockedStringTable struct {
	mu sync.Mutex
	st *StringTable
}

// NewLockedStringTable returns a locked table containing only the empty
// string.
func NewLockedStringTable() *LockedStringTable {
	return &LockedStringTable{st: NewStringTable()}
}

// Lock acquires the mutex and returns the underlying table. Callers
// intern a whole batch of related strings per acquisition, call Unlock
// promptly, and must not acquire any other lock while holding this one.
func (lt *LockedStringTable) Lock() *StringTable {
	lt.mu.Lock()
	return lt.st
}

// Unlock releases the mutex taken by Lock.
func (lt *LockedStringTable) Unlock() {
	lt.mu.Unlock()
}

// Strings returns a snapshot of the interned strings in insertion order.
func (lt *LockedStringTable) Strings() immutable.StringSlice {
	lt.mu.Lock()
	defer lt.mu.Unlock()
	return immutable.NewStringSlice(lt.st.strings)
}
