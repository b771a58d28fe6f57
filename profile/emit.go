// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// This product includes software developed at Datadog (https://www.datadoghq.com/).
// Copyright 2023 Datadog, Inc.

package profile

import (
	"math"
	"time"

	"github.com/DataDog/libdatadog-go/profile/pprof"
)

// pprof lowers the profile into the wire message model. Each mapping,
// location and function is emitted with id 1 + its insertion position,
// the same id its table's dedup handed out at insert time, so the ids
// stored in locations and sample keys resolve unchanged. Endpoint labels
// derived from trace correlation are appended here as well.
func (p *Profile) pprof() *pprof.Profile {
	samples := make([]pprof.Sample, 0, len(p.samples.entries))
	for i := range p.samples.entries {
		e := &p.samples.entries[i]
		labels := make([]pprof.Label, 0, len(e.labels)+1)
		for _, l := range e.labels {
			labels = append(labels, pprof.Label{
				Key:     l.key,
				Str:     l.str,
				Num:     l.num,
				NumUnit: l.numUnit,
			})
		}
		if len(p.endpoints.mappings) > 0 {
			// The first span-id label decides; at most one endpoint
			// label per sample.
			for _, l := range e.labels {
				if l.key != p.endpoints.localRootSpanIDLabel {
					continue
				}
				if endpoint, ok := p.endpoints.mappings[l.str]; ok {
					labels = append(labels, pprof.Label{
						Key: p.endpoints.endpointLabel,
						Str: endpoint,
					})
				}
				break
			}
		}
		samples = append(samples, pprof.Sample{
			LocationIDs: e.locationIDs,
			Values:      e.values,
			Labels:      labels,
		})
	}

	mappings := make([]pprof.Mapping, 0, len(p.mappings.entries))
	for i, m := range p.mappings.entries {
		mappings = append(mappings, pprof.Mapping{
			ID:          uint64(i + 1),
			MemoryStart: m.memoryStart,
			MemoryLimit: m.memoryLimit,
			FileOffset:  m.fileOffset,
			Filename:    m.filename,
			BuildID:     m.buildID,
		})
	}

	locations := make([]pprof.Location, 0, len(p.locations.entries))
	for i, l := range p.locations.entries {
		lines := make([]pprof.Line, 0, len(l.lines))
		for _, ln := range l.lines {
			lines = append(lines, pprof.Line{FunctionID: ln.functionID, Line: ln.line})
		}
		locations = append(locations, pprof.Location{
			ID:        uint64(i + 1),
			MappingID: l.mappingID,
			Address:   l.address,
			Lines:     lines,
			IsFolded:  l.isFolded,
		})
	}

	functions := make([]pprof.Function, 0, len(p.functions.entries))
	for i, f := range p.functions.entries {
		functions = append(functions, pprof.Function{
			ID:         uint64(i + 1),
			Name:       f.name,
			SystemName: f.systemName,
			Filename:   f.filename,
			StartLine:  f.startLine,
		})
	}

	sampleTypes := make([]pprof.ValueType, 0, len(p.sampleTypes))
	for _, vt := range p.sampleTypes {
		sampleTypes = append(sampleTypes, pprof.ValueType{Type: vt.typ, Unit: vt.unit})
	}

	prof := &pprof.Profile{
		SampleTypes: sampleTypes,
		Samples:     samples,
		Mappings:    mappings,
		Locations:   locations,
		Functions:   functions,
		StringTable: p.strings.contents(),
	}
	switch {
	case p.startTime.After(time.Unix(0, math.MaxInt64)):
		prof.TimeNanos = math.MaxInt64
	case p.startTime.After(time.Unix(0, 0)):
		prof.TimeNanos = p.startTime.UnixNano()
	}
	if p.period != nil {
		prof.Period = p.period.value
		prof.PeriodType = &pprof.ValueType{Type: p.period.typ.typ, Unit: p.period.typ.unit}
	}
	return prof
}
