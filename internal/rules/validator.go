// Package rules runs integrity checks over SEG-Y file summaries and grades
// each file PASS, WARNING, or FAIL.
package rules

import (
	"fmt"

	"example.com/segygate/internal/common"
	"example.com/segygate/internal/segy"
)

// Severity grades a single check or a whole file. FAIL dominates WARNING,
// which dominates PASS.
type Severity string

const (
	Pass    Severity = "PASS"
	Warning Severity = "WARNING"
	Fail    Severity = "FAIL"
)

// Category groups checks by the part of the file they inspect.
type Category string

const (
	CategoryStructure    Category = "structure"
	CategoryBinaryHeader Category = "binary_header"
	CategoryTraceHeader  Category = "trace_header"
	CategoryPostEdit     Category = "post_edit"
)

// Check is one named validation result.
type Check struct {
	Name     string   `json:"name"`
	Category Category `json:"category"`
	Status   Severity `json:"status"`
	Message  string   `json:"message"`
	Details  string   `json:"details,omitempty"`
}

// Result is the outcome of validating one file.
type Result struct {
	Filename string   `json:"filename"`
	Overall  Severity `json:"overall_status"`
	Checks   []Check  `json:"checks"`
}

// Failed reports whether any check failed outright.
func (r *Result) Failed() bool { return r.Overall == Fail }

// Count returns how many checks carry the given status.
func (r *Result) Count(s Severity) int {
	n := 0
	for _, c := range r.Checks {
		if c.Status == s {
			n++
		}
	}
	return n
}

// Bounds are optional user-supplied coordinate limits, applied after scalar
// scaling. Nil limits are not checked.
type Bounds struct {
	XMin *float64 `yaml:"x_min" json:"x_min,omitempty"`
	XMax *float64 `yaml:"x_max" json:"x_max,omitempty"`
	YMin *float64 `yaml:"y_min" json:"y_min,omitempty"`
	YMax *float64 `yaml:"y_max" json:"y_max,omitempty"`
}

func (b *Bounds) empty() bool {
	return b == nil || (b.XMin == nil && b.XMax == nil && b.YMin == nil && b.YMax == nil)
}

// Validator runs configurable check groups. The zero value runs everything
// except the bounds check, which needs explicit Bounds.
type Validator struct {
	CoordinateBounds    *Bounds
	SkipStructure       bool
	SkipBinaryHeader    bool
	SkipTraceHeader     bool
	SkipCoordinateRange bool
}

// coordinate fields inspected by the range and bounds checks, with the axis
// each belongs to.
var coordChecks = []struct {
	field string
	xAxis bool
}{
	{"source_x", true},
	{"source_y", false},
	{"cdp_x", true},
	{"cdp_y", false},
}

// Validate grades info against every configured check group.
func (v *Validator) Validate(info *segy.FileInfo) *Result {
	var checks []Check
	if !v.SkipStructure {
		checks = append(checks, v.validateStructure(info)...)
	}
	if !v.SkipBinaryHeader {
		checks = append(checks, v.validateBinaryHeader(info)...)
	}
	if !v.SkipTraceHeader {
		checks = append(checks, v.validateTraceHeaders(info)...)
	}
	if !v.SkipCoordinateRange && !v.CoordinateBounds.empty() {
		checks = append(checks, v.validateCoordinateBounds(info)...)
	}
	return &Result{
		Filename: info.Filename,
		Overall:  overall(checks),
		Checks:   checks,
	}
}

// ValidatePostEdit re-runs the structural and binary header checks on the
// edited file and flags binary header fields that changed without being
// listed in editedFields.
func (v *Validator) ValidatePostEdit(before, after *segy.FileInfo, editedFields []string) *Result {
	checks := v.validateStructure(after)
	checks = append(checks, v.validateBinaryHeader(after)...)

	if len(editedFields) > 0 {
		edited := make(map[string]struct{}, len(editedFields))
		for _, f := range editedFields {
			edited[f] = struct{}{}
		}
		for _, name := range segy.BinaryFields.Names() {
			beforeVal, ok := before.BinaryHeader[name]
			if !ok {
				continue
			}
			afterVal, ok := after.BinaryHeader[name]
			if !ok {
				afterVal = beforeVal
			}
			if _, intended := edited[name]; intended || beforeVal == afterVal {
				continue
			}
			checks = append(checks, Check{
				Name:     fmt.Sprintf("Unintended Change: %s", name),
				Category: CategoryPostEdit,
				Status:   Warning,
				Message:  fmt.Sprintf("Binary header '%s' changed unexpectedly", name),
				Details:  fmt.Sprintf("Before: %d, After: %d", beforeVal, afterVal),
			})
		}
	}
	return &Result{
		Filename: after.Filename,
		Overall:  overall(checks),
		Checks:   checks,
	}
}

func overall(checks []Check) Severity {
	out := Pass
	for _, c := range checks {
		if c.Status == Fail {
			return Fail
		}
		if c.Status == Warning {
			out = Warning
		}
	}
	return out
}

func (v *Validator) validateStructure(info *segy.FileInfo) []Check {
	var checks []Check

	if info.ExpectedFileSize > 0 {
		if info.FileSizeBytes == info.ExpectedFileSize {
			checks = append(checks, Check{
				Name: "File Size Consistency", Category: CategoryStructure, Status: Pass,
				Message: fmt.Sprintf("File size matches expected: %s bytes",
					common.FormatCount(info.FileSizeBytes)),
			})
		} else {
			diff := info.FileSizeBytes - info.ExpectedFileSize
			checks = append(checks, Check{
				Name: "File Size Consistency", Category: CategoryStructure, Status: Fail,
				Message: "File size does not match expected structure",
				Details: fmt.Sprintf(
					"Actual: %s bytes, Expected: %s bytes, Difference: %+d bytes\n"+
						"Formula: 3200 + 400 + (240 + %d x %d) x %d",
					common.FormatCount(info.FileSizeBytes),
					common.FormatCount(info.ExpectedFileSize), diff,
					info.SamplesPerTrace, info.BytesPerSample, info.TraceCount),
			})
		}
	} else {
		checks = append(checks, Check{
			Name: "File Size Consistency", Category: CategoryStructure, Status: Warning,
			Message: "Cannot verify file size (missing header info)",
		})
	}

	if info.FileSizeBytes < segy.DataStart {
		checks = append(checks, Check{
			Name: "Minimum File Size", Category: CategoryStructure, Status: Fail,
			Message: fmt.Sprintf("File too small: %d bytes (minimum %d for header)",
				info.FileSizeBytes, segy.DataStart),
		})
	}

	if info.TraceCount <= 0 {
		checks = append(checks, Check{
			Name: "Trace Count", Category: CategoryStructure, Status: Fail,
			Message: fmt.Sprintf("Invalid trace count: %d", info.TraceCount),
		})
	} else {
		checks = append(checks, Check{
			Name: "Trace Count", Category: CategoryStructure, Status: Pass,
			Message: fmt.Sprintf("Trace count: %s", common.FormatCount(int64(info.TraceCount))),
		})
	}
	return checks
}

func (v *Validator) validateBinaryHeader(info *segy.FileInfo) []Check {
	var checks []Check

	if info.SampleInterval <= 0 {
		checks = append(checks, Check{
			Name: "Sample Interval", Category: CategoryBinaryHeader, Status: Fail,
			Message: fmt.Sprintf("Invalid sample interval: %d us", info.SampleInterval),
		})
	} else {
		checks = append(checks, Check{
			Name: "Sample Interval", Category: CategoryBinaryHeader, Status: Pass,
			Message: fmt.Sprintf("Sample interval: %d us", info.SampleInterval),
		})
	}

	switch {
	case info.SamplesPerTrace <= 0:
		checks = append(checks, Check{
			Name: "Samples per Trace", Category: CategoryBinaryHeader, Status: Fail,
			Message: fmt.Sprintf("Invalid samples per trace: %d", info.SamplesPerTrace),
		})
	case info.SamplesPerTrace > 100000:
		checks = append(checks, Check{
			Name: "Samples per Trace", Category: CategoryBinaryHeader, Status: Warning,
			Message: fmt.Sprintf("Unusually high samples per trace: %d", info.SamplesPerTrace),
		})
	default:
		checks = append(checks, Check{
			Name: "Samples per Trace", Category: CategoryBinaryHeader, Status: Pass,
			Message: fmt.Sprintf("Samples per trace: %d", info.SamplesPerTrace),
		})
	}

	if bps, ok := segy.FormatBPS[info.FormatCode]; !ok {
		checks = append(checks, Check{
			Name: "Data Format Code", Category: CategoryBinaryHeader, Status: Fail,
			Message: fmt.Sprintf("Unknown format code: %d", info.FormatCode),
			Details: "Valid codes: [1 2 3 5 6 8]",
		})
	} else {
		checks = append(checks, Check{
			Name: "Data Format Code", Category: CategoryBinaryHeader, Status: Pass,
			Message: fmt.Sprintf("Format code: %d (%d bytes/sample)", info.FormatCode, bps),
		})
	}
	return checks
}

func (v *Validator) validateTraceHeaders(info *segy.FileInfo) []Check {
	var checks []Check

	scalar := info.TraceStats["coordinate_scalar"]
	if scalar.Min != scalar.Max {
		checks = append(checks, Check{
			Name: "Coordinate Scalar Consistency", Category: CategoryTraceHeader, Status: Warning,
			Message: "Coordinate scalar varies across traces",
			Details: fmt.Sprintf("Min: %.0f, Max: %.0f", scalar.Min, scalar.Max),
		})
	} else {
		checks = append(checks, Check{
			Name: "Coordinate Scalar Consistency", Category: CategoryTraceHeader, Status: Pass,
			Message: fmt.Sprintf("Coordinate scalar: %.0f (consistent)", scalar.Min),
		})
	}

	for _, cc := range coordChecks {
		stats, ok := info.TraceStats[cc.field]
		if !ok {
			continue
		}
		switch {
		case stats.Std > 0 && stats.Mean != 0:
			ratio := (stats.Max - stats.Min) / abs(stats.Mean)
			if ratio > 1.0 {
				checks = append(checks, Check{
					Name:     fmt.Sprintf("Coordinate Range: %s", cc.field),
					Category: CategoryTraceHeader, Status: Warning,
					Message: fmt.Sprintf("%s has high variability", cc.field),
					Details: fmt.Sprintf("Min: %.0f, Max: %.0f, Mean: %.0f, Std: %.0f",
						stats.Min, stats.Max, stats.Mean, stats.Std),
				})
			} else {
				checks = append(checks, Check{
					Name:     fmt.Sprintf("Coordinate Range: %s", cc.field),
					Category: CategoryTraceHeader, Status: Pass,
					Message: fmt.Sprintf("%s: %.0f ~ %.0f", cc.field, stats.Min, stats.Max),
				})
			}
		case stats.Min == 0 && stats.Max == 0 && stats.Mean == 0:
			checks = append(checks, Check{
				Name:     fmt.Sprintf("Coordinate Range: %s", cc.field),
				Category: CategoryTraceHeader, Status: Warning,
				Message: fmt.Sprintf("%s: all zeros", cc.field),
			})
		}
	}
	return checks
}

// validateCoordinateBounds compares scaled coordinate extremes against the
// configured limits. The trace scalar applies per the standard: a negative
// scalar divides, a positive one multiplies, zero means unscaled.
func (v *Validator) validateCoordinateBounds(info *segy.FileInfo) []Check {
	var checks []Check
	b := v.CoordinateBounds

	scale := 1.0
	if info.CoordinateScalar < 0 {
		scale = 1.0 / abs(float64(info.CoordinateScalar))
	} else if info.CoordinateScalar > 0 {
		scale = float64(info.CoordinateScalar)
	}

	for _, cc := range coordChecks {
		stats, ok := info.TraceStats[cc.field]
		if !ok {
			continue
		}
		fieldMin := stats.Min * scale
		fieldMax := stats.Max * scale
		if fieldMin == 0 && fieldMax == 0 {
			continue
		}
		boundMin, boundMax := b.YMin, b.YMax
		if cc.xAxis {
			boundMin, boundMax = b.XMin, b.XMax
		}
		if boundMin != nil && fieldMin < *boundMin {
			checks = append(checks, Check{
				Name:     fmt.Sprintf("Bounds Check: %s", cc.field),
				Category: CategoryTraceHeader, Status: Warning,
				Message: fmt.Sprintf("%s min (%.0f) below bound (%g)",
					cc.field, fieldMin, *boundMin),
			})
		}
		if boundMax != nil && fieldMax > *boundMax {
			checks = append(checks, Check{
				Name:     fmt.Sprintf("Bounds Check: %s", cc.field),
				Category: CategoryTraceHeader, Status: Warning,
				Message: fmt.Sprintf("%s max (%.0f) above bound (%g)",
					cc.field, fieldMax, *boundMax),
			})
		}
	}
	return checks
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
