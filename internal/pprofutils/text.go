// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// This product includes software developed at Datadog (https://www.datadoghq.com/).
// Copyright 2023 Datadog, Inc.

package pprofutils

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/google/pprof/profile"
)

// Text converts from folded text to the protobuf profile model.
type Text struct{}

// Convert parses the given folded text and returns it as a protobuf
// profile. The first line may be a header of space-separated
// "type/unit" sample types; without one, "samples/count" is assumed.
// Each remaining line is a semicolon-separated root-first stack followed
// by one value per sample type.
func (c Text) Convert(text io.Reader) (*profile.Profile, error) {
	var (
		functionID = uint64(1)
		locationID = uint64(1)
		p          = &profile.Profile{
			TimeNanos: time.Now().UnixNano(),
		}
		m = &profile.Mapping{ID: 1, HasFunctions: true}
	)
	p.Mapping = []*profile.Mapping{m}

	scanner := bufio.NewScanner(text)
	for n := 0; scanner.Scan(); n++ {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if n == 0 && strings.Contains(strings.Split(line, " ")[0], "/") {
			for _, sampleType := range strings.Split(line, " ") {
				parts := strings.Split(sampleType, "/")
				if len(parts) != 2 {
					return nil, fmt.Errorf("bad sample type: %q", sampleType)
				}
				p.SampleType = append(p.SampleType, &profile.ValueType{
					Type: parts[0],
					Unit: parts[1],
				})
			}
			continue
		}
		if len(p.SampleType) == 0 {
			p.SampleType = []*profile.ValueType{{Type: "samples", Unit: "count"}}
		}

		parts := strings.Split(line, " ")
		if len(parts) != len(p.SampleType)+1 {
			return nil, fmt.Errorf("bad sample line, want %d values: %q", len(p.SampleType), line)
		}
		sample := &profile.Sample{}
		for _, value := range parts[1:] {
			val, err := strconv.ParseInt(value, 10, 64)
			if err != nil {
				return nil, fmt.Errorf("bad sample value %q: %w", value, err)
			}
			sample.Value = append(sample.Value, val)
		}
		// The text stack is root first, the profile wants the leaf at
		// Location[0].
		stack := strings.Split(parts[0], ";")
		for i := len(stack) - 1; i >= 0; i-- {
			function := &profile.Function{ID: functionID, Name: stack[i]}
			functionID++
			p.Function = append(p.Function, function)
			location := &profile.Location{
				ID:      locationID,
				Mapping: m,
				Line:    []profile.Line{{Function: function}},
			}
			locationID++
			p.Location = append(p.Location, location)
			sample.Location = append(sample.Location, location)
		}
		p.Sample = append(p.Sample, sample)
	}
	return p, scanner.Err()
}
