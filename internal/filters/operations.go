// Copyright (c) 2025, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package filters

import (
	"slices"
)

var (
	stringOperations = []Operation{
		OperationContains,
		OperationNotContains,
		OperationEqual,
		OperationNotEqual,
		OperationStartsWith,
		OperationEndsWith,
	}
	enumOperations = []Operation{
		OperationEqual,
		OperationNotEqual,
		OperationContains,
		OperationNotContains,
	}
	booleanOperations = []Operation{
		OperationEqual,
		OperationNotEqual,
	}
	numericOperations = []Operation{
		OperationEqual,
		OperationNotEqual,
		OperationGreater,
		OperationGreaterOrEqual,
		OperationLess,
		OperationLessOrEqual,
		OperationBetween,
	}
)

// operatorTokens maps operations to their token in the expression language.
var operatorTokens = map[Operation]string{
	OperationEqual:          "==",
	OperationNotEqual:       "!=",
	OperationGreater:        ">",
	OperationGreaterOrEqual: ">=",
	OperationLess:           "<",
	OperationLessOrEqual:    "<=",
	OperationContains:       "contains",
	OperationNotContains:    "not contains",
	OperationStartsWith:     "startsWith",
	OperationEndsWith:       "endsWith",
}

// AvailableOperations lists the operations offered for a column type, in UI order.
func AvailableOperations(t ColumnType) []Operation {
	var ops []Operation
	switch t {
	case ColumnTypeString:
		ops = stringOperations
	case ColumnTypeEnum:
		ops = enumOperations
	case ColumnTypeBoolean:
		ops = booleanOperations
	case ColumnTypeSize, ColumnTypeSpeed, ColumnTypeDuration, ColumnTypePercentage, ColumnTypeNumber, ColumnTypeDate:
		ops = numericOperations
	default:
		ops = stringOperations
	}
	return slices.Clone(ops)
}

// DefaultOperation is the operation preselected when a filter is created for a column type.
func DefaultOperation(t ColumnType) Operation {
	switch t {
	case ColumnTypeString:
		return OperationContains
	case ColumnTypeEnum, ColumnTypeBoolean:
		return OperationEqual
	case ColumnTypeSize, ColumnTypeSpeed, ColumnTypeDuration, ColumnTypePercentage, ColumnTypeNumber, ColumnTypeDate:
		return OperationGreater
	default:
		return OperationContains
	}
}

// compilesOn reports whether op yields a valid fragment for a column type. Text operations need a
// text field and booleans only compare for equality.
func compilesOn(t ColumnType, op Operation) bool {
	switch t {
	case ColumnTypeBoolean:
		return op == OperationEqual || op == OperationNotEqual
	case ColumnTypeSize, ColumnTypeSpeed, ColumnTypeDuration, ColumnTypePercentage, ColumnTypeNumber, ColumnTypeDate:
		return !isTextOperation(op)
	}
	return true
}

func isTextOperation(op Operation) bool {
	switch op {
	case OperationContains, OperationNotContains, OperationStartsWith, OperationEndsWith:
		return true
	}
	return false
}
