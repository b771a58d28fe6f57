// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// This product includes software developed at Datadog (https://www.datadoghq.com/).
// Copyright 2023 Datadog, Inc.

package profile

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DataDog/libdatadog-go/profile/api"
)

func TestInterning(t *testing.T) {
	p := NewBuilder().SampleTypes(api.ValueType{Type: "samples", Unit: "count"}).Build()

	// There have been 3 strings: "", "samples", and "count". Since the
	// interning index starts at zero, the next string gets id 3.
	const expectedID = int64(3)

	id1 := p.strings.Intern("a")
	id2 := p.strings.Intern("a")

	assert.Equal(t, id1, id2)
	assert.Equal(t, expectedID, id1)
}

func TestAddSample(t *testing.T) {
	sampleTypes := []api.ValueType{
		{Type: "samples", Unit: "count"},
		{Type: "wall-time", Unit: "nanoseconds"},
	}

	mapping := api.Mapping{Filename: "php"}
	locations := []api.Location{
		{
			Mapping: mapping,
			Lines: []api.Line{{
				Function: api.Function{
					Name:       "phpinfo",
					SystemName: "phpinfo",
					Filename:   "index.php",
				},
			}},
		},
		{
			Mapping: mapping,
			Lines: []api.Line{{
				Function: api.Function{Filename: "index.php"},
				Line:     3,
			}},
		},
	}

	p := NewBuilder().SampleTypes(sampleTypes...).Build()
	id, err := p.Add(api.Sample{
		Locations: locations,
		Values:    []int64{1, 10000},
	})
	require.NoError(t, err)
	assert.Equal(t, uint64(1), id)
}

// provideDistinctLocations builds a profile holding two samples which
// differ only in their location.
func provideDistinctLocations(t *testing.T) *Profile {
	t.Helper()

	mapping := api.Mapping{Filename: "php"}
	mainSample := api.Sample{
		Locations: []api.Location{{
			Mapping: mapping,
			Lines: []api.Line{{
				Function: api.Function{
					Name:       "{main}",
					SystemName: "{main}",
					Filename:   "index.php",
				},
			}},
		}},
		Values: []int64{1},
		Labels: []api.Label{{Key: "pid", Num: 101}},
	}
	testSample := api.Sample{
		Locations: []api.Location{{
			Mapping: mapping,
			Lines: []api.Line{{
				Function: api.Function{
					Name:       "test",
					SystemName: "test",
					Filename:   "index.php",
					StartLine:  3,
				},
			}},
		}},
		Values: []int64{1},
		Labels: []api.Label{{Key: "pid", Num: 101}},
	}

	p := NewBuilder().SampleTypes(api.ValueType{Type: "samples", Unit: "count"}).Build()

	id1, err := p.Add(mainSample)
	require.NoError(t, err)
	require.Equal(t, uint64(1), id1)

	id2, err := p.Add(testSample)
	require.NoError(t, err)
	require.Equal(t, uint64(2), id2)

	return p
}

func TestDistinctLocations(t *testing.T) {
	p := provideDistinctLocations(t)
	assert.Equal(t, 2, p.samples.len())
}

func TestAggregation(t *testing.T) {
	sample := api.Sample{
		Locations: []api.Location{{
			Mapping: api.Mapping{Filename: "php"},
			Lines: []api.Line{{
				Function: api.Function{Name: "{main}", Filename: "index.php"},
			}},
		}},
		Values: []int64{1, 10000},
	}

	p := NewBuilder().SampleTypes(
		api.ValueType{Type: "samples", Unit: "count"},
		api.ValueType{Type: "wall-time", Unit: "nanoseconds"},
	).Build()

	id1, err := p.Add(sample)
	require.NoError(t, err)
	id2, err := p.Add(sample)
	require.NoError(t, err)

	assert.Equal(t, id1, id2)
	require.Equal(t, 1, p.samples.len())
	assert.Equal(t, []int64{2, 20000}, p.samples.entries[0].values)
}

func TestLabelIdentity(t *testing.T) {
	p := NewBuilder().SampleTypes(api.ValueType{Type: "samples", Unit: "count"}).Build()

	base := api.Sample{Values: []int64{1}, Labels: []api.Label{{Key: "thread", Str: "main"}}}
	id1, err := p.Add(base)
	require.NoError(t, err)

	other := api.Sample{Values: []int64{1}, Labels: []api.Label{{Key: "thread", Str: "worker"}}}
	id2, err := p.Add(other)
	require.NoError(t, err)

	assert.NotEqual(t, id1, id2)
	assert.Equal(t, 2, p.samples.len())
}

func TestEmitTimeNumbering(t *testing.T) {
	p := provideDistinctLocations(t)
	prof := p.pprof()

	assert.Equal(t, 2, len(prof.Samples))
	assert.Equal(t, 1, len(prof.Mappings))
	assert.Equal(t, 2, len(prof.Locations))
	assert.Equal(t, 2, len(prof.Functions))

	for i, mapping := range prof.Mappings {
		assert.Equal(t, uint64(i+1), mapping.ID)
	}
	for i, location := range prof.Locations {
		assert.Equal(t, uint64(i+1), location.ID)
		for _, line := range location.Lines {
			assert.NotZero(t, line.FunctionID)
			assert.LessOrEqual(t, line.FunctionID, uint64(len(prof.Functions)))
		}
	}
	for i, function := range prof.Functions {
		assert.Equal(t, uint64(i+1), function.ID)
	}

	sample := prof.Samples[0]
	require.Equal(t, 1, len(sample.Labels))
	label := sample.Labels[0]
	assert.Equal(t, "pid", prof.StringTable[label.Key])
	assert.Equal(t, int64(101), label.Num)
	assert.Equal(t, "", prof.StringTable[label.Str])
	assert.Equal(t, "", prof.StringTable[label.NumUnit])
}

func TestSchemaMismatch(t *testing.T) {
	p := NewBuilder().SampleTypes(api.ValueType{Type: "samples", Unit: "count"}).Build()

	// Two values against one sample type: the sample is dropped with the
	// sentinel id 0 and no error.
	id, err := p.Add(api.Sample{Values: []int64{1, 2}})
	require.NoError(t, err)
	assert.Equal(t, uint64(0), id)
	assert.Equal(t, 0, p.samples.len())

	err = p.ValidateSample(api.Sample{Values: []int64{1, 2}})
	assert.ErrorIs(t, err, ErrSchemaMismatch)
}

func TestAddInvalidUTF8(t *testing.T) {
	p := NewBuilder().SampleTypes(api.ValueType{Type: "samples", Unit: "count"}).Build()

	id, err := p.Add(api.Sample{
		Values: []int64{1},
		Labels: []api.Label{{Key: "thread id", Str: "\xff\xfe"}},
	})
	assert.ErrorIs(t, err, api.ErrInvalidUTF8)
	assert.Equal(t, uint64(0), id)

	// The rejected add must not have interned anything: only the empty
	// string and the schema strings are present.
	assert.Equal(t, 3, p.strings.Len())
	assert.Equal(t, 0, p.samples.len())
}

func TestReset(t *testing.T) {
	p := provideDistinctLocations(t)
	p.AddEndpoint("10", "my endpoint")

	require.NotZero(t, p.functions.len())
	require.NotZero(t, p.locations.len())
	require.NotZero(t, p.mappings.len())
	require.NotZero(t, p.samples.len())
	require.NotEmpty(t, p.sampleTypes)
	require.Nil(t, p.period)
	require.NotEmpty(t, p.endpoints.mappings)
	require.False(t, p.endpoints.stats.IsEmpty())

	prev := p.Reset(time.Time{})

	assert.Zero(t, p.functions.len())
	assert.Zero(t, p.locations.len())
	assert.Zero(t, p.mappings.len())
	assert.Zero(t, p.samples.len())
	assert.Empty(t, p.endpoints.mappings)
	assert.True(t, p.endpoints.stats.IsEmpty())

	// The predecessor keeps all data.
	assert.Equal(t, 2, prev.samples.len())
	assert.False(t, prev.endpoints.stats.IsEmpty())

	// The schema survives with equal string values, resolved through each
	// profile's own string table.
	require.Equal(t, len(prev.sampleTypes), len(p.sampleTypes))
	for i := range p.sampleTypes {
		gotType, _ := p.strings.Lookup(p.sampleTypes[i].typ)
		wantType, _ := prev.strings.Lookup(prev.sampleTypes[i].typ)
		assert.Equal(t, wantType, gotType)
		gotUnit, _ := p.strings.Lookup(p.sampleTypes[i].unit)
		wantUnit, _ := prev.strings.Lookup(prev.sampleTypes[i].unit)
		assert.Equal(t, wantUnit, gotUnit)
	}

	// The new string table holds the empty string at id 0.
	require.NotZero(t, p.strings.Len())
	s, ok := p.strings.Lookup(0)
	require.True(t, ok)
	assert.Equal(t, "", s)
}

func TestResetPeriod(t *testing.T) {
	p := NewBuilder().
		SampleTypes(api.ValueType{Type: "samples", Unit: "count"}).
		Period(api.Period{
			Type:  api.ValueType{Type: "wall-time", Unit: "nanoseconds"},
			Value: 10_000_000,
		}).
		Build()

	prev := p.Reset(time.Time{})

	require.NotNil(t, prev.period)
	require.NotNil(t, p.period)
	assert.Equal(t, int64(10_000_000), p.period.value)

	// String table offsets may differ between the profiles, the resolved
	// values must not.
	typ, _ := p.strings.Lookup(p.period.typ.typ)
	assert.Equal(t, "wall-time", typ)
	unit, _ := p.strings.Lookup(p.period.typ.unit)
	assert.Equal(t, "nanoseconds", unit)
}

func TestResetStartTime(t *testing.T) {
	p := NewBuilder().SampleTypes(api.ValueType{Type: "samples", Unit: "count"}).Build()

	want := time.Date(2023, 5, 1, 12, 0, 0, 0, time.UTC)
	p.Reset(want)
	assert.Equal(t, want, p.StartTime())

	before := time.Now()
	p.Reset(time.Time{})
	assert.False(t, p.StartTime().Before(before))
}
