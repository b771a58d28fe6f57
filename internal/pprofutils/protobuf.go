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

	"github.com/google/pprof/profile"
)

// Protobuf converts from the protobuf profile model to folded text.
type Protobuf struct {
	// SampleTypes prepends a header line listing the "type/unit" of every
	// sample value.
	SampleTypes bool
}

// Convert writes prof to text in folded format, one line per sample,
// stacks root first.
func (p Protobuf) Convert(prof *profile.Profile, text io.Writer) error {
	w := bufio.NewWriter(text)
	if p.SampleTypes {
		var sampleTypes []string
		for _, sampleType := range prof.SampleType {
			sampleTypes = append(sampleTypes, sampleType.Type+"/"+sampleType.Unit)
		}
		w.WriteString(strings.Join(sampleTypes, " ") + "\n")
	}
	for _, sample := range prof.Sample {
		var frames []string
		for i := range sample.Location {
			loc := sample.Location[len(sample.Location)-1-i]
			for j := range loc.Line {
				line := loc.Line[len(loc.Line)-1-j]
				frames = append(frames, line.Function.Name)
			}
		}
		var values []string
		for _, value := range sample.Value {
			values = append(values, strconv.FormatInt(value, 10))
		}
		fmt.Fprintf(w, "%s %s\n", strings.Join(frames, ";"), strings.Join(values, " "))
	}
	return w.Flush()
}
