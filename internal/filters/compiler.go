// Copyright (c) 2025, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package filters

import (
	"fmt"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

// Connective joins compiled fragments.
type Connective string

const (
	ConnectiveAnd Connective = "and"
	ConnectiveOr  Connective = "or"
)

// ParseConnective accepts and/or and their symbolic forms, case-insensitively.
func ParseConnective(s string) (Connective, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "and", "&&":
		return ConnectiveAnd, true
	case "or", "||":
		return ConnectiveOr, true
	}
	return ConnectiveAnd, false
}

func (c Connective) token() string {
	if c == ConnectiveOr {
		return " || "
	}
	return " && "
}

// DroppedFilter records a filter that compiled to nothing.
type DroppedFilter struct {
	Index    int    `json:"index"`
	ColumnID string `json:"columnId"`
	Reason   string `json:"reason"`
	Message  string `json:"message"`
	Err      error  `json:"-"`
}

// Compilation is the result of compiling a filter list. An empty Expr means no filter applies.
type Compilation struct {
	Expr    string          `json:"expr"`
	Dropped []DroppedFilter `json:"dropped,omitempty"`
}

// Empty reports whether no filter survived compilation.
func (c Compilation) Empty() bool {
	return c.Expr == ""
}

// Compiler turns column filters into expressions over the torrent environment.
// It holds no mutable state and is safe for concurrent use.
type Compiler struct {
	registry *Registry
}

func NewCompiler(registry *Registry) *Compiler {
	if registry == nil {
		registry = DefaultRegistry()
	}
	return &Compiler{registry: registry}
}

func (c *Compiler) Registry() *Registry {
	return c.registry
}

// Compile emits one expression fragment for f. On error the filter must be omitted;
// the error wraps one of the Err* reasons.
func (c *Compiler) Compile(f ColumnFilter) (string, error) {
	fragment, err := c.compile(f)
	if err != nil {
		event := log.Debug()
		if errors.Is(err, ErrUnknownColumn) {
			event = log.Warn().Str("suggestion", c.registry.Suggest(f.ColumnID))
		}
		event.Err(err).
			Str("column", f.ColumnID).
			Str("operation", string(f.Operation)).
			Msg("Dropping column filter")
		return "", err
	}
	return fragment, nil
}

// CompileAll compiles filters in order and joins the surviving fragments with the connective.
func (c *Compiler) CompileAll(filters []ColumnFilter, connective Connective) Compilation {
	var result Compilation
	fragments := make([]string, 0, len(filters))

	for i, f := range filters {
		fragment, err := c.Compile(f)
		if err != nil {
			result.Dropped = append(result.Dropped, DroppedFilter{
				Index:    i,
				ColumnID: f.ColumnID,
				Reason:   Reason(err),
				Message:  err.Error(),
				Err:      err,
			})
			continue
		}
		fragments = append(fragments, fragment)
	}

	result.Expr = strings.Join(fragments, connective.token())
	return result
}

func (c *Compiler) compile(f ColumnFilter) (string, error) {
	columnType := c.registry.ColumnType(f.ColumnID)
	field, ok := c.registry.FieldName(f.ColumnID)
	if !ok {
		return "", errors.Wrapf(ErrUnknownColumn, "column %q", f.ColumnID)
	}

	token, known := operatorTokens[f.Operation]
	if !known && f.Operation != OperationBetween {
		return "", errors.Wrapf(ErrUnknownOperation, "operation %q", f.Operation)
	}
	if !compilesOn(columnType, f.Operation) {
		return "", errors.Wrapf(ErrUnsupportedOperation, "%s on %s column %q", f.Operation, columnType, f.ColumnID)
	}

	if f.Operation == OperationBetween {
		return c.compileBetween(field, columnType, f)
	}

	switch columnType {
	case ColumnTypeNumber:
		if _, err := ParseNumber(f.Value); err != nil {
			return "", errors.Wrapf(err, "column %q", f.ColumnID)
		}
		return field + " " + token + " " + strings.TrimSpace(f.Value), nil
	case ColumnTypeSize, ColumnTypeSpeed, ColumnTypeDuration, ColumnTypeDate, ColumnTypePercentage:
		literal, err := convertOperand(columnType, f.Value, f.SizeUnit, f.SpeedUnit, f.DurationUnit)
		if err != nil {
			return "", errors.Wrapf(err, "column %q", f.ColumnID)
		}
		return field + " " + token + " " + literal, nil
	case ColumnTypeBoolean:
		return field + " " + token + " " + formatBool(f.Value), nil
	default:
		return c.compileText(field, token, f), nil
	}
}

func (c *Compiler) compileBetween(field string, columnType ColumnType, f ColumnFilter) (string, error) {
	if strings.TrimSpace(f.Value2) == "" {
		return "", errors.Wrapf(ErrMissingSecondValue, "column %q", f.ColumnID)
	}

	lo, err := convertOperand(columnType, f.Value, f.SizeUnit, f.SpeedUnit, f.DurationUnit)
	if err != nil {
		return "", errors.Wrapf(err, "column %q lower bound", f.ColumnID)
	}
	hi, err := convertOperand(columnType, f.Value2, f.secondSizeUnit(), f.secondSpeedUnit(), f.secondDurationUnit())
	if err != nil {
		return "", errors.Wrapf(err, "column %q upper bound", f.ColumnID)
	}

	return fmt.Sprintf("(%s >= %s && %s <= %s)", field, lo, field, hi), nil
}

func (c *Compiler) compileText(field, token string, f ColumnFilter) string {
	column, _ := c.registry.Column(f.ColumnID)
	fold := f.CaseSensitive != nil && !*f.CaseSensitive

	ref := field
	if column.CastToString && (fold || isTextOperation(f.Operation)) {
		ref = "string(" + field + ")"
	}

	value := f.Value
	if fold {
		ref = "lower(" + ref + ")"
		value = strings.ToLower(value)
	}

	var literal string
	if column.AlwaysQuoted || isTextOperation(f.Operation) || !isNumericLiteral(value) {
		literal = QuoteString(value)
	} else {
		literal = strings.TrimSpace(value)
	}

	return ref + " " + token + " " + literal
}

// convertOperand converts a numeric-like operand into the literal for its column type.
func convertOperand(columnType ColumnType, value string, sizeUnit SizeUnit, speedUnit SpeedUnit, durationUnit DurationUnit) (string, error) {
	switch columnType {
	case ColumnTypeSize:
		bytes, err := SizeToBytes(value, sizeUnit)
		if err != nil {
			return "", err
		}
		if bytes >= 0 {
			log.Trace().Str("value", value).Str("unit", string(sizeUnit)).Str("size", humanize.IBytes(uint64(bytes))).Msg("Converted size operand")
		}
		return formatInt(bytes), nil
	case ColumnTypeSpeed:
		bps, err := SpeedToBytesPerSecond(value, speedUnit)
		if err != nil {
			return "", err
		}
		return formatInt(bps), nil
	case ColumnTypeDuration:
		seconds, err := DurationToSeconds(value, durationUnit)
		if err != nil {
			return "", err
		}
		return formatInt(seconds), nil
	case ColumnTypeDate:
		epoch, err := DateToEpoch(value)
		if err != nil {
			return "", err
		}
		return formatInt(epoch), nil
	case ColumnTypePercentage:
		fraction, err := PercentToFraction(value)
		if err != nil {
			return "", err
		}
		return formatFloat(fraction), nil
	default:
		n, err := ParseNumber(value)
		if err != nil {
			return "", err
		}
		return formatFloat(n), nil
	}
}

func formatBool(value string) string {
	if strings.EqualFold(strings.TrimSpace(value), "true") {
		return "true"
	}
	return "false"
}

// Package level helpers backed by the default registry.

var defaultCompiler = NewCompiler(nil)

// Compile compiles a single filter against the torrent column registry.
func Compile(f ColumnFilter) (string, error) {
	return defaultCompiler.Compile(f)
}

// CompileAll compiles and joins filters against the torrent column registry.
func CompileAll(filters []ColumnFilter, connective Connective) Compilation {
	return defaultCompiler.CompileAll(filters, connective)
}

// ColumnTypeOf returns the type of a torrent column, string for unknown ids.
func ColumnTypeOf(columnID string) ColumnType {
	return DefaultRegistry().ColumnType(columnID)
}
