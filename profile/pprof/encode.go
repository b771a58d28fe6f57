// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// This product includes software developed at Datadog (https://www.datadoghq.com/).
// Copyright 2023 Datadog, Inc.

package pprof

import (
	"bytes"
	"fmt"

	"github.com/richardartoul/molecule"
)

// Field numbers of the Profile message. The nested message numbers are
// inlined at their call sites below; all of them must track
// profile.proto exactly, the output is read by third-party pprof tools.
const (
	fieldSampleType        = 1
	fieldSample            = 2
	fieldMapping           = 3
	fieldLocation          = 4
	fieldFunction          = 5
	fieldStringTable       = 6
	fieldDropFrames        = 7
	fieldKeepFrames        = 8
	fieldTimeNanos         = 9
	fieldDurationNanos     = 10
	fieldPeriodType        = 11
	fieldPeriod            = 12
	fieldComment           = 13
	fieldDefaultSampleType = 14
)

// Marshal encodes the profile to the pprof wire format. The output is
// deterministic: identical profiles encode to identical bytes.
func (p *Profile) Marshal() ([]byte, error) {
	var buf bytes.Buffer
	if err := p.MarshalTo(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// MarshalTo encodes the profile to the pprof wire format, appending to
// buf. Zero-valued scalar fields are omitted, matching the proto3
// encoding conventions pprof consumers expect.
func (p *Profile) MarshalTo(buf *bytes.Buffer) error {
	ps := molecule.NewProtoStream(buf)
	if err := p.encode(ps); err != nil {
		return fmt.Errorf("encoding pprof profile: %w", err)
	}
	return nil
}

func (p *Profile) encode(ps *molecule.ProtoStream) error {
	for i := range p.SampleTypes {
		if err := ps.Embedded(fieldSampleType, p.SampleTypes[i].encode); err != nil {
			return err
		}
	}
	for i := range p.Samples {
		if err := ps.Embedded(fieldSample, p.Samples[i].encode); err != nil {
			return err
		}
	}
	for i := range p.Mappings {
		if err := ps.Embedded(fieldMapping, p.Mappings[i].encode); err != nil {
			return err
		}
	}
	for i := range p.Locations {
		if err := ps.Embedded(fieldLocation, p.Locations[i].encode); err != nil {
			return err
		}
	}
	for i := range p.Functions {
		if err := ps.Embedded(fieldFunction, p.Functions[i].encode); err != nil {
			return err
		}
	}
	// Repeated fields emit every element, including the empty string at
	// index 0; string table indices are positional. ps.String skips
	// zero-length values, so empty strings go out as an empty embedded
	// message, which has the same wire form.
	for _, s := range p.StringTable {
		if s == "" {
			if err := ps.Embedded(fieldStringTable, func(*molecule.ProtoStream) error { return nil }); err != nil {
				return err
			}
			continue
		}
		if err := ps.String(fieldStringTable, s); err != nil {
			return err
		}
	}
	if err := encodeInt64Opt(ps, fieldDropFrames, p.DropFrames); err != nil {
		return err
	}
	if err := encodeInt64Opt(ps, fieldKeepFrames, p.KeepFrames); err != nil {
		return err
	}
	if err := encodeInt64Opt(ps, fieldTimeNanos, p.TimeNanos); err != nil {
		return err
	}
	if err := encodeInt64Opt(ps, fieldDurationNanos, p.DurationNanos); err != nil {
		return err
	}
	if p.PeriodType != nil {
		if err := ps.Embedded(fieldPeriodType, p.PeriodType.encode); err != nil {
			return err
		}
	}
	if err := encodeInt64Opt(ps, fieldPeriod, p.Period); err != nil {
		return err
	}
	if len(p.Comment) > 0 {
		if err := ps.Int64Packed(fieldComment, p.Comment); err != nil {
			return err
		}
	}
	return encodeInt64Opt(ps, fieldDefaultSampleType, p.DefaultSampleType)
}

func (vt *ValueType) encode(ps *molecule.ProtoStream) error {
	if err := encodeInt64Opt(ps, 1, vt.Type); err != nil {
		return err
	}
	return encodeInt64Opt(ps, 2, vt.Unit)
}

func (s *Sample) encode(ps *molecule.ProtoStream) error {
	if len(s.LocationIDs) > 0 {
		if err := ps.Uint64Packed(1, s.LocationIDs); err != nil {
			return err
		}
	}
	if len(s.Values) > 0 {
		if err := ps.Int64Packed(2, s.Values); err != nil {
			return err
		}
	}
	for i := range s.Labels {
		if err := ps.Embedded(3, s.Labels[i].encode); err != nil {
			return err
		}
	}
	return nil
}

func (l *Label) encode(ps *molecule.ProtoStream) error {
	if err := encodeInt64Opt(ps, 1, l.Key); err != nil {
		return err
	}
	if err := encodeInt64Opt(ps, 2, l.Str); err != nil {
		return err
	}
	if err := encodeInt64Opt(ps, 3, l.Num); err != nil {
		return err
	}
	return encodeInt64Opt(ps, 4, l.NumUnit)
}

func (m *Mapping) encode(ps *molecule.ProtoStream) error {
	if err := encodeUint64Opt(ps, 1, m.ID); err != nil {
		return err
	}
	if err := encodeUint64Opt(ps, 2, m.MemoryStart); err != nil {
		return err
	}
	if err := encodeUint64Opt(ps, 3, m.MemoryLimit); err != nil {
		return err
	}
	if err := encodeUint64Opt(ps, 4, m.FileOffset); err != nil {
		return err
	}
	if err := encodeInt64Opt(ps, 5, m.Filename); err != nil {
		return err
	}
	if err := encodeInt64Opt(ps, 6, m.BuildID); err != nil {
		return err
	}
	if err := encodeBoolOpt(ps, 7, m.HasFunctions); err != nil {
		return err
	}
	if err := encodeBoolOpt(ps, 8, m.HasFilenames); err != nil {
		return err
	}
	if err := encodeBoolOpt(ps, 9, m.HasLineNumbers); err != nil {
		return err
	}
	return encodeBoolOpt(ps, 10, m.HasInlineFrames)
}

func (l *Location) encode(ps *molecule.ProtoStream) error {
	if err := encodeUint64Opt(ps, 1, l.ID); err != nil {
		return err
	}
	if err := encodeUint64Opt(ps, 2, l.MappingID); err != nil {
		return err
	}
	if err := encodeUint64Opt(ps, 3, l.Address); err != nil {
		return err
	}
	for i := range l.Lines {
		if err := ps.Embedded(4, l.Lines[i].encode); err != nil {
			return err
		}
	}
	return encodeBoolOpt(ps, 5, l.IsFolded)
}

func (l *Line) encode(ps *molecule.ProtoStream) error {
	if err := encodeUint64Opt(ps, 1, l.FunctionID); err != nil {
		return err
	}
	return encodeInt64Opt(ps, 2, l.Line)
}

func (f *Function) encode(ps *molecule.ProtoStream) error {
	if err := encodeUint64Opt(ps, 1, f.ID); err != nil {
		return err
	}
	if err := encodeInt64Opt(ps, 2, f.Name); err != nil {
		return err
	}
	if err := encodeInt64Opt(ps, 3, f.SystemName); err != nil {
		return err
	}
	if err := encodeInt64Opt(ps, 4, f.Filename); err != nil {
		return err
	}
	return encodeInt64Opt(ps, 5, f.StartLine)
}

func encodeInt64Opt(ps *molecule.ProtoStream, field int, v int64) error {
	if v == 0 {
		return nil
	}
	return ps.Int64(field, v)
}

func encodeUint64Opt(ps *molecule.ProtoStream, field int, v uint64) error {
	if v == 0 {
		return nil
	}
	return ps.Uint64(field, v)
}

func encodeBoolOpt(ps *molecule.ProtoStream, field int, v bool) error {
	if !v {
		return nil
	}
	return ps.Bool(field, v)
}
