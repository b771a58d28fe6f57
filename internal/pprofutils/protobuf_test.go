// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// This product includes software developed at Datadog (https://www.datadoghq.com/).
// Copyright 2023 Datadog, Inc.

package pprofutils

import (
	"bytes"
	"strings"
	"testing"

	"github.com/google/pprof/profile"
	"github.com/matryer/is"
)

func TestProtobufConvert(t *testing.T) {
	t.Run("basic", func(t *testing.T) {
		is := is.New(t)
		proto, err := Text{}.Convert(strings.NewReader(strings.TrimSpace(`
main;foo 5
main;foo;bar 3
main 2
`)))
		is.NoErr(err)

		// The profile survives a trip through the binary wire format.
		var bin bytes.Buffer
		is.NoErr(proto.Write(&bin))
		parsed, err := profile.Parse(&bin)
		is.NoErr(err)

		out := bytes.Buffer{}
		is.NoErr(Protobuf{}.Convert(parsed, &out))
		want := strings.TrimSpace(`
main;foo 5
main;foo;bar 3
main 2
`) + "\n"
		is.Equal(out.String(), want)
	})

	t.Run("inlined functions", func(t *testing.T) {
		is := is.New(t)
		fn1 := &profile.Function{ID: 1, Name: "memcpy"}
		fn2 := &profile.Function{ID: 2, Name: "printf"}
		proto := &profile.Profile{
			SampleType: []*profile.ValueType{{Type: "samples", Unit: "count"}},
			Function:   []*profile.Function{fn1, fn2},
			Location: []*profile.Location{{
				ID: 1,
				// Leaf first: memcpy was inlined into printf.
				Line: []profile.Line{{Function: fn1}, {Function: fn2}},
			}},
		}
		proto.Sample = []*profile.Sample{{
			Location: proto.Location,
			Value:    []int64{1},
		}}

		out := bytes.Buffer{}
		is.NoErr(Protobuf{}.Convert(proto, &out))
		is.Equal(out.String(), "printf;memcpy 1\n")
	})
}
