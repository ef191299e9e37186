// Copyright (c) 2025, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package filters

import (
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
)

type SizeUnit string

const (
	SizeUnitB   SizeUnit = "B"
	SizeUnitKiB SizeUnit = "KiB"
	SizeUnitMiB SizeUnit = "MiB"
	SizeUnitGiB SizeUnit = "GiB"
	SizeUnitTiB SizeUnit = "TiB"
)

type SpeedUnit string

const (
	SpeedUnitBps   SpeedUnit = "B/s"
	SpeedUnitKiBps SpeedUnit = "KiB/s"
	SpeedUnitMiBps SpeedUnit = "MiB/s"
	SpeedUnitGiBps SpeedUnit = "GiB/s"
	SpeedUnitTiBps SpeedUnit = "TiB/s"
)

type DurationUnit string

const (
	DurationUnitSeconds DurationUnit = "seconds"
	DurationUnitMinutes DurationUnit = "minutes"
	DurationUnitHours   DurationUnit = "hours"
	DurationUnitDays    DurationUnit = "days"
)

const (
	kib = 1024
	mib = kib * 1024
	gib = mib * 1024
	tib = gib * 1024
)

var sizeMultipliers = map[SizeUnit]float64{
	"":          1,
	SizeUnitB:   1,
	SizeUnitKiB: kib,
	SizeUnitMiB: mib,
	SizeUnitGiB: gib,
	SizeUnitTiB: tib,
}

var speedMultipliers = map[SpeedUnit]float64{
	"":             1,
	SpeedUnitBps:   1,
	SpeedUnitKiBps: kib,
	SpeedUnitMiBps: mib,
	SpeedUnitGiBps: gib,
	SpeedUnitTiBps: tib,
}

var durationMultipliers = map[DurationUnit]float64{
	"":                  1,
	DurationUnitSeconds: 1,
	DurationUnitMinutes: 60,
	DurationUnitHours:   3600,
	DurationUnitDays:    86400,
}

// dateLayouts are tried in order. Layouts without a zone are read as UTC.
var dateLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
}

// ParseNumber parses a user supplied numeric operand. Only finite values are accepted.
func ParseNumber(value string) (float64, error) {
	v := strings.TrimSpace(value)
	if v == "" {
		return 0, errors.Wrap(ErrInvalidOperand, "empty number")
	}
	n, err := strconv.ParseFloat(v, 64)
	if err != nil || math.IsNaN(n) || math.IsInf(n, 0) {
		return 0, errors.Wrapf(ErrInvalidOperand, "not a number: %q", value)
	}
	return n, nil
}

// SizeToBytes converts a size in the given binary unit to a whole number of bytes, rounding toward zero.
func SizeToBytes(value string, unit SizeUnit) (int64, error) {
	mult, ok := sizeMultipliers[unit]
	if !ok {
		return 0, errors.Wrapf(ErrInvalidOperand, "unknown size unit %q", unit)
	}
	return scale(value, mult)
}

// SpeedToBytesPerSecond converts a speed in the given binary unit to whole bytes per second.
func SpeedToBytesPerSecond(value string, unit SpeedUnit) (int64, error) {
	mult, ok := speedMultipliers[unit]
	if !ok {
		return 0, errors.Wrapf(ErrInvalidOperand, "unknown speed unit %q", unit)
	}
	return scale(value, mult)
}

// DurationToSeconds converts a duration in the given unit to whole seconds.
func DurationToSeconds(value string, unit DurationUnit) (int64, error) {
	mult, ok := durationMultipliers[unit]
	if !ok {
		return 0, errors.Wrapf(ErrInvalidOperand, "unknown duration unit %q", unit)
	}
	return scale(value, mult)
}

// DateToEpoch parses a date or date-time string and returns whole epoch seconds.
func DateToEpoch(value string) (int64, error) {
	t, err := ParseDate(value)
	if err != nil {
		return 0, err
	}
	return int64(math.Floor(float64(t.UnixMilli()) / 1000)), nil
}

// ParseDate parses a date or date-time string. Zone-less input is interpreted as UTC.
func ParseDate(value string) (time.Time, error) {
	v := strings.TrimSpace(value)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, v); err == nil {
			return t, nil
		}
	}
	return time.Time{}, errors.Wrapf(ErrInvalidOperand, "not a date: %q", value)
}

// PercentToFraction converts a 0-100 percentage into a 0-1 fraction. No rounding is applied.
func PercentToFraction(value string) (float64, error) {
	n, err := ParseNumber(value)
	if err != nil {
		return 0, err
	}
	return n / 100, nil
}

func scale(value string, mult float64) (int64, error) {
	n, err := ParseNumber(value)
	if err != nil {
		return 0, err
	}
	scaled := math.Floor(n * mult)
	// float64(math.MaxInt64) rounds up to 2^63, which no longer fits.
	if scaled < math.MinInt64 || scaled >= math.MaxInt64 {
		return 0, errors.Wrapf(ErrInvalidOperand, "out of range: %q", value)
	}
	return int64(scaled), nil
}

func formatInt(n int64) string {
	return strconv.FormatInt(n, 10)
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
