// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// This product includes software developed at Datadog (https://www.datadoghq.com/).
// Copyright 2023 Datadog, Inc.

// Package profile aggregates profiling samples by call-stack identity and
// serializes them to the pprof wire format.
//
// A Profile deduplicates every string, mapping, function and location it
// sees, accumulates sample values under a (locations, labels) key, and
// lazily attaches endpoint labels derived from trace correlation. It is
// not safe for concurrent use: a Profile has a single owner, and hosts
// that ingest from several goroutines serialize access themselves.
package profile

import (
	"errors"
	"fmt"
	"math"
	"time"
	"unicode/utf8"

	log "github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"github.com/DataDog/libdatadog-go/profile/api"
)

// Errors surfaced by Add and the boundary validation helpers.
var (
	// ErrCapacityExhausted means an internable table reached its size
	// ceiling. The profile stops accepting samples but can still be
	// serialized and reset.
	ErrCapacityExhausted = errors.New("profile: container capacity exhausted")

	// ErrSchemaMismatch means a sample's value count does not match the
	// profile's sample types. Add does not return it (it reports id 0
	// instead, which callers must treat as "rejected"); ValidateSample
	// surfaces it for boundary layers that check up front.
	ErrSchemaMismatch = errors.New("profile: sample values do not match sample types")
)

// Ids are index + 1, so the ceiling is one less than what 32 bits can
// address. A single profile exceeding this is gathering far too much.
const containerMax = math.MaxUint32 - 1

// Label keys recognized by the endpoint correlator.
const (
	localRootSpanIDLabelKey = "local root span id"
	traceEndpointLabelKey   = "trace endpoint"
)

type valueType struct {
	typ  int64
	unit int64
}

type period struct {
	value int64
	typ   valueType
}

// Profile owns the string table, the entity tables, the sample
// aggregator and the endpoint correlator. Construct one with a Builder.
type Profile struct {
	sampleTypes []valueType
	samples     sampleTable
	mappings    mappingTable
	locations   locationTable
	functions   functionTable
	strings     *StringTable
	startTime   time.Time
	period      *period
	endpoints   endpoints
	hash        hasher
	warnings    *rate.Limiter
}

// EncodedProfile is a serialized profile: the pprof-encoded bytes, the
// time window they cover, and a snapshot of the endpoint statistics.
type EncodedProfile struct {
	Start          time.Time
	End            time.Time
	Buffer         []byte
	EndpointsStats *ProfiledEndpointsStats
}

func newProfile(startTime time.Time) *Profile {
	return &Profile{
		samples:   newSampleTable(),
		mappings:  newMappingTable(),
		locations: newLocationTable(),
		functions: newFunctionTable(),
		strings:   NewStringTable(),
		startTime: startTime,
		warnings:  rate.NewLimiter(rate.Every(time.Minute), 5),
	}
}

// StartTime returns the profile's start time.
func (p *Profile) StartTime() time.Time {
	return p.startTime
}

// ValidateSample reports, without mutating the profile, why Add would
// reject sample: ErrInvalidUTF8 for bad strings, ErrSchemaMismatch for a
// value count that does not match the sample types.
func (p *Profile) ValidateSample(sample api.Sample) error {
	if err := sample.Validate(); err != nil {
		return err
	}
	if len(sample.Values) != len(p.sampleTypes) {
		return fmt.Errorf("%w: got %d values, profile has %d sample types",
			ErrSchemaMismatch, len(sample.Values), len(p.sampleTypes))
	}
	return nil
}

// Add aggregates sample into the profile and returns the 1-based id of
// its aggregation bucket: samples with identical locations and labels
// share a bucket and their values sum element-wise.
//
// A sample whose value count does not match the profile's sample types
// is dropped, returning id 0 and no error. Samples carrying non-UTF-8
// strings are rejected with an error wrapping api.ErrInvalidUTF8. In
// both cases the profile is unchanged.
func (p *Profile) Add(sample api.Sample) (uint64, error) {
	if err := sample.Validate(); err != nil {
		return 0, err
	}
	if len(sample.Values) != len(p.sampleTypes) {
		log.Debugf("profile: dropping sample with %d values, profile has %d sample types",
			len(sample.Values), len(p.sampleTypes))
		return 0, nil
	}
	if p.full() {
		return 0, ErrCapacityExhausted
	}

	labels := make([]label, 0, len(sample.Labels))
	for _, l := range sample.Labels {
		labels = append(labels, label{
			key:     p.strings.Intern(l.Key),
			str:     p.strings.Intern(l.Str),
			num:     l.Num,
			numUnit: p.strings.Intern(l.NumUnit),
		})
	}

	locationIDs := make([]uint64, 0, len(sample.Locations))
	for _, loc := range sample.Locations {
		mappingID := p.mappings.dedup(mapping{
			memoryStart: loc.Mapping.MemoryStart,
			memoryLimit: loc.Mapping.MemoryLimit,
			fileOffset:  loc.Mapping.FileOffset,
			filename:    p.strings.Intern(loc.Mapping.Filename),
			buildID:     p.strings.Intern(loc.Mapping.BuildID),
		})
		lines := make([]line, 0, len(loc.Lines))
		for _, ln := range loc.Lines {
			functionID := p.functions.dedup(function{
				name:       p.strings.Intern(ln.Function.Name),
				systemName: p.strings.Intern(ln.Function.SystemName),
				filename:   p.strings.Intern(ln.Function.Filename),
				startLine:  ln.Function.StartLine,
			})
			lines = append(lines, line{functionID: functionID, line: ln.Line})
		}
		locationIDs = append(locationIDs, p.locations.dedup(location{
			mappingID: mappingID,
			address:   loc.Address,
			lines:     lines,
			isFolded:  loc.IsFolded,
		}, &p.hash))
	}

	return p.samples.add(locationIDs, labels, sample.Values, &p.hash), nil
}

// AddEndpoint registers that localRootSpanID served endpoint. Samples
// labeled with that span id receive a derived "trace endpoint" label
// when the profile is serialized; registrations may arrive after the
// samples they match. Re-registering a span id overwrites the previous
// endpoint. Every call counts toward the endpoint's statistics, whether
// or not any sample matches.
func (p *Profile) AddEndpoint(localRootSpanID, endpoint string) {
	if !utf8.ValidString(localRootSpanID) || !utf8.ValidString(endpoint) {
		p.warnf("profile: dropping endpoint registration with invalid UTF-8")
		return
	}
	if len(p.endpoints.mappings) == 0 {
		p.endpoints.localRootSpanIDLabel = p.strings.Intern(localRootSpanIDLabelKey)
		p.endpoints.endpointLabel = p.strings.Intern(traceEndpointLabelKey)
	}
	if p.endpoints.mappings == nil {
		p.endpoints.mappings = make(map[int64]int64)
	}
	p.endpoints.mappings[p.strings.Intern(localRootSpanID)] = p.strings.Intern(endpoint)
	p.endpoints.stats.add(endpoint)
}

// Reset replaces the profile's contents with an empty successor that
// keeps the sample types and period, re-interned into a fresh string
// table, and returns the predecessor with all its data intact. A zero
// startTime means time.Now(). The swap happens in place, so existing
// references to the Profile keep working.
func (p *Profile) Reset(startTime time.Time) *Profile {
	sampleTypes := make([]api.ValueType, 0, len(p.sampleTypes))
	for _, vt := range p.sampleTypes {
		typ, _ := p.strings.Lookup(vt.typ)
		unit, _ := p.strings.Lookup(vt.unit)
		sampleTypes = append(sampleTypes, api.ValueType{Type: typ, Unit: unit})
	}

	b := NewBuilder().SampleTypes(sampleTypes...).StartTime(startTime)
	if p.period != nil {
		typ, _ := p.strings.Lookup(p.period.typ.typ)
		unit, _ := p.strings.Lookup(p.period.typ.unit)
		b.Period(api.Period{
			Type:  api.ValueType{Type: typ, Unit: unit},
			Value: p.period.value,
		})
	}
	fresh := b.Build()

	prev := *p
	*p = *fresh
	return &prev
}

// Serialize encodes the aggregated profile, leaving it intact. A zero
// end means time.Now(). A non-negative duration is used as-is; passing a
// negative duration computes end minus the start time, clamped to zero
// when clocks moved backwards, since losing a whole profile to a clock
// adjustment would be disproportionate.
func (p *Profile) Serialize(end time.Time, duration time.Duration) (*EncodedProfile, error) {
	if end.IsZero() {
		end = time.Now()
	}
	start := p.startTime

	prof := p.pprof()
	if duration < 0 {
		duration = end.Sub(start)
		if duration < 0 {
			p.warnf("profile: end time %s is before start time %s, emitting zero duration",
				end.Format(time.RFC3339), start.Format(time.RFC3339))
			duration = 0
		}
	}
	prof.DurationNanos = duration.Nanoseconds()

	buf, err := prof.Marshal()
	if err != nil {
		return nil, err
	}
	stats := p.endpoints.stats.clone()
	return &EncodedProfile{
		Start:          start,
		End:            end,
		Buffer:         buf,
		EndpointsStats: &stats,
	}, nil
}

func (p *Profile) full() bool {
	return p.strings.Len() >= containerMax ||
		p.mappings.len() >= containerMax ||
		p.functions.len() >= containerMax ||
		p.locations.len() >= containerMax ||
		p.samples.len() >= containerMax
}

func (p *Profile) warnf(format string, args ...interface{}) {
	if p.warnings.Allow() {
		log.Warnf(format, args...)
	}
}
