// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// This product includes software developed at Datadog (https://www.datadoghq.com/).
// Copyright 2023 Datadog, Inc.

package profile

import (
	"time"

	"github.com/DataDog/libdatadog-go/profile/api"
)

// Builder configures and constructs a Profile.
type Builder struct {
	sampleTypes []api.ValueType
	period      *api.Period
	startTime   time.Time
}

// NewBuilder returns a builder for a profile with no sample types, no
// period, and a start time of "now".
func NewBuilder() *Builder {
	return &Builder{}
}

// SampleTypes sets the value schema of the profile. Every sample added
// later must carry exactly one value per sample type.
func (b *Builder) SampleTypes(sampleTypes ...api.ValueType) *Builder {
	b.sampleTypes = append([]api.ValueType(nil), sampleTypes...)
	return b
}

// Period sets the event period of the profile.
func (b *Builder) Period(p api.Period) *Builder {
	b.period = &p
	return b
}

// StartTime sets the profile's start time. The zero value means
// time.Now() at Build.
func (b *Builder) StartTime(t time.Time) *Builder {
	b.startTime = t
	return b
}

// Build constructs the profile. The string table holds the empty string
// at id 0, and the schema strings are interned eagerly so they survive
// Reset.
func (b *Builder) Build() *Profile {
	start := b.startTime
	if start.IsZero() {
		start = time.Now()
	}
	p := newProfile(start)

	p.sampleTypes = make([]valueType, 0, len(b.sampleTypes))
	for _, vt := range b.sampleTypes {
		p.sampleTypes = append(p.sampleTypes, valueType{
			typ:  p.strings.Intern(vt.Type),
			unit: p.strings.Intern(vt.Unit),
		})
	}
	if b.period != nil {
		p.period = &period{
			value: b.period.Value,
			typ: valueType{
				typ:  p.strings.Intern(b.period.Type.Type),
				unit: p.strings.Intern(b.period.Type.Unit),
			},
		}
	}
	return p
}
