// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// This product includes software developed at Datadog (https://www.datadoghq.com/).
// Copyright 2023 Datadog, Inc.

package profile

import (
	"bytes"
	"encoding/json"
)

// endpoints correlates local root span ids with the endpoint the thread
// was serving. The producer registers the pair once it becomes known,
// which is typically after the samples referencing the span were added,
// so the derived label is attached at serialization time rather than at
// add time.
type endpoints struct {
	// mappings maps an interned span-id string to an interned endpoint
	// string.
	mappings map[int64]int64

	// localRootSpanIDLabel and endpointLabel cache the interned ids of
	// the well-known label keys, set on the first AddEndpoint call.
	localRootSpanIDLabel int64
	endpointLabel        int64

	stats ProfiledEndpointsStats
}

// ProfiledEndpointsStats counts, per endpoint, how many times the
// producer reported that endpoint. It counts reports, not matched
// samples, and preserves first-report order.
type ProfiledEndpointsStats struct {
	names  []string
	counts map[string]int64
}

func (s *ProfiledEndpointsStats) add(endpoint string) {
	if s.counts == nil {
		s.counts = make(map[string]int64)
	}
	if _, ok := s.counts[endpoint]; !ok {
		s.names = append(s.names, endpoint)
	}
	s.counts[endpoint]++
}

// Count returns the number of reports for endpoint.
func (s *ProfiledEndpointsStats) Count(endpoint string) int64 {
	return s.counts[endpoint]
}

// Endpoints returns the reported endpoint names in first-report order.
func (s *ProfiledEndpointsStats) Endpoints() []string {
	return append([]string(nil), s.names...)
}

// Len returns the number of distinct endpoints reported.
func (s *ProfiledEndpointsStats) Len() int {
	return len(s.names)
}

// IsEmpty reports whether no endpoint was ever reported.
func (s *ProfiledEndpointsStats) IsEmpty() bool {
	return len(s.names) == 0
}

func (s *ProfiledEndpointsStats) clone() ProfiledEndpointsStats {
	if len(s.names) == 0 {
		return ProfiledEndpointsStats{}
	}
	counts := make(map[string]int64, len(s.counts))
	for k, v := range s.counts {
		counts[k] = v
	}
	return ProfiledEndpointsStats{
		names:  append([]string(nil), s.names...),
		counts: counts,
	}
}

// MarshalJSON encodes the stats as an object whose keys appear in
// first-report order.
func (s ProfiledEndpointsStats) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, name := range s.names {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(name)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		count, err := json.Marshal(s.counts[name])
		if err != nil {
			return nil, err
		}
		buf.Write(count)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}
