// Copyright (c) 2025, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package filters

import (
	"github.com/pkg/errors"
)

// Operation is a comparison selected in the column filter UI.
type Operation string

const (
	OperationEqual          Operation = "eq"
	OperationNotEqual       Operation = "ne"
	OperationGreater        Operation = "gt"
	OperationGreaterOrEqual Operation = "ge"
	OperationLess           Operation = "lt"
	OperationLessOrEqual    Operation = "le"
	OperationBetween        Operation = "between"
	OperationContains       Operation = "contains"
	OperationNotContains    Operation = "notContains"
	OperationStartsWith     Operation = "startsWith"
	OperationEndsWith       Operation = "endsWith"
)

// ColumnType is the semantic type of a column. It decides how filter operands are converted
// before they are emitted as literals.
type ColumnType string

const (
	ColumnTypeSize       ColumnType = "size"
	ColumnTypeSpeed      ColumnType = "speed"
	ColumnTypeDuration   ColumnType = "duration"
	ColumnTypePercentage ColumnType = "percentage"
	ColumnTypeNumber     ColumnType = "number"
	ColumnTypeDate       ColumnType = "date"
	ColumnTypeBoolean    ColumnType = "boolean"
	ColumnTypeEnum       ColumnType = "enum"
	ColumnTypeString     ColumnType = "string"
)

// ColumnFilter is one user-authored constraint on a column.
type ColumnFilter struct {
	ColumnID  string    `json:"columnId" yaml:"columnId"`
	Operation Operation `json:"operation" yaml:"operation"`
	Value     string    `json:"value" yaml:"value"`
	Value2    string    `json:"value2,omitempty" yaml:"value2,omitempty"`

	SizeUnit      SizeUnit     `json:"sizeUnit,omitempty" yaml:"sizeUnit,omitempty"`
	SizeUnit2     SizeUnit     `json:"sizeUnit2,omitempty" yaml:"sizeUnit2,omitempty"`
	SpeedUnit     SpeedUnit    `json:"speedUnit,omitempty" yaml:"speedUnit,omitempty"`
	SpeedUnit2    SpeedUnit    `json:"speedUnit2,omitempty" yaml:"speedUnit2,omitempty"`
	DurationUnit  DurationUnit `json:"durationUnit,omitempty" yaml:"durationUnit,omitempty"`
	DurationUnit2 DurationUnit `json:"durationUnit2,omitempty" yaml:"durationUnit2,omitempty"`

	// CaseSensitive is nil when the UI did not specify it.
	CaseSensitive *bool `json:"caseSensitive,omitempty" yaml:"caseSensitive,omitempty"`
}

func (f ColumnFilter) secondSizeUnit() SizeUnit {
	if f.SizeUnit2 != "" {
		return f.SizeUnit2
	}
	return f.SizeUnit
}

func (f ColumnFilter) secondSpeedUnit() SpeedUnit {
	if f.SpeedUnit2 != "" {
		return f.SpeedUnit2
	}
	return f.SpeedUnit
}

func (f ColumnFilter) secondDurationUnit() DurationUnit {
	if f.DurationUnit2 != "" {
		return f.DurationUnit2
	}
	return f.DurationUnit
}

// Reasons a filter is dropped by the compiler. Returned errors wrap one of these.
var (
	ErrUnknownColumn        = errors.New("unknown column")
	ErrUnknownOperation     = errors.New("unknown operation")
	ErrUnsupportedOperation = errors.New("operation not supported for column type")
	ErrMissingSecondValue   = errors.New("between requires a second value")
	ErrInvalidOperand       = errors.New("invalid operand")
)

// Reason returns a short, stable label for a compile error, suitable for API responses and metric labels.
func Reason(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrUnknownColumn):
		return "unknown_column"
	case errors.Is(err, ErrUnknownOperation):
		return "unknown_operation"
	case errors.Is(err, ErrUnsupportedOperation):
		return "unsupported_operation"
	case errors.Is(err, ErrMissingSecondValue):
		return "missing_value2"
	case errors.Is(err, ErrInvalidOperand):
		return "invalid_operand"
	default:
		return "unknown"
	}
}

// Bool returns a pointer to b, for building filters in code.
func Bool(b bool) *bool {
	return &b
}
