// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// This product includes software developed at Datadog (https://www.datadoghq.com/).
// Copyright 2023 Datadog, Inc.

// Package pprofutils converts between binary pprof profiles and a
// folded-text representation. It is used by tests and debugging flows
// and is not optimized for production use.
package pprofutils

// ValueType describes the type and unit of a sample value.
type ValueType struct {
	Type string
	Unit string
}
