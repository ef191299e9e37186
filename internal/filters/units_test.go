// Copyright (c) 2025, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package filters

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSizeToBytes(t *testing.T) {
	tests := []struct {
		name     string
		value    string
		unit     SizeUnit
		expected int64
		wantErr  bool
	}{
		{name: "empty_unit_is_bytes", value: "512", unit: "", expected: 512},
		{name: "bytes", value: "512.9", unit: SizeUnitB, expected: 512},
		{name: "kib", value: "1", unit: SizeUnitKiB, expected: 1024},
		{name: "mib_fraction", value: "0.5", unit: SizeUnitMiB, expected: 524288},
		{name: "gib", value: "10", unit: SizeUnitGiB, expected: 10737418240},
		{name: "tib", value: "1", unit: SizeUnitTiB, expected: 1099511627776},
		{name: "whitespace", value: "  2 ", unit: SizeUnitKiB, expected: 2048},
		{name: "decimal_unit_rejected", value: "1", unit: "GB", wantErr: true},
		{name: "not_a_number", value: "ten", unit: SizeUnitGiB, wantErr: true},
		{name: "empty_value", value: "", unit: SizeUnitGiB, wantErr: true},
		{name: "infinity", value: "Inf", unit: SizeUnitB, wantErr: true},
		{name: "nan", value: "NaN", unit: SizeUnitB, wantErr: true},
		{name: "largest_representable", value: "8388607", unit: SizeUnitTiB, expected: 8388607 * 1099511627776},
		{name: "overflows_int64", value: "8388608", unit: SizeUnitTiB, wantErr: true},
		{name: "far_beyond_int64", value: "99999999", unit: SizeUnitTiB, wantErr: true},
		{name: "below_int64", value: "-1e10", unit: SizeUnitTiB, wantErr: true},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			got, err := SizeToBytes(tt.value, tt.unit)
			if tt.wantErr {
				require.ErrorIs(t, err, ErrInvalidOperand)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestSpeedAndDurationConversion(t *testing.T) {
	bps, err := SpeedToBytesPerSecond("2", SpeedUnitKiBps)
	require.NoError(t, err)
	assert.Equal(t, int64(2048), bps)

	bps, err = SpeedToBytesPerSecond("1", SpeedUnitGiBps)
	require.NoError(t, err)
	assert.Equal(t, int64(1073741824), bps)

	_, err = SpeedToBytesPerSecond("1", "MB/s")
	assert.ErrorIs(t, err, ErrInvalidOperand)

	seconds, err := DurationToSeconds("1.5", DurationUnitMinutes)
	require.NoError(t, err)
	assert.Equal(t, int64(90), seconds)

	seconds, err = DurationToSeconds("2", DurationUnitDays)
	require.NoError(t, err)
	assert.Equal(t, int64(172800), seconds)

	seconds, err = DurationToSeconds("45", "")
	require.NoError(t, err)
	assert.Equal(t, int64(45), seconds)

	_, err = DurationToSeconds("1", "weeks")
	assert.ErrorIs(t, err, ErrInvalidOperand)
}

func TestDateToEpoch(t *testing.T) {
	tests := []struct {
		name     string
		value    string
		expected int64
		wantErr  bool
	}{
		{name: "date_only_is_utc_midnight", value: "2024-01-01", expected: 1704067200},
		{name: "rfc3339_utc", value: "2024-01-01T12:00:00Z", expected: 1704110400},
		{name: "rfc3339_offset", value: "2024-01-01T02:00:00+02:00", expected: 1704067200},
		{name: "fractional_seconds_floor", value: "2024-01-01T00:00:00.999Z", expected: 1704067200},
		{name: "local_datetime_is_utc", value: "2024-01-01T00:01", expected: 1704067260},
		{name: "space_separated", value: "2024-01-01 00:00:30", expected: 1704067230},
		{name: "garbage", value: "last tuesday", wantErr: true},
		{name: "empty", value: "", wantErr: true},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			got, err := DateToEpoch(tt.value)
			if tt.wantErr {
				require.ErrorIs(t, err, ErrInvalidOperand)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestParseDate_PreservesInstant(t *testing.T) {
	got, err := ParseDate("2024-03-10T08:30:00-05:00")
	require.NoError(t, err)
	assert.True(t, got.Equal(time.Date(2024, 3, 10, 13, 30, 0, 0, time.UTC)))
}

func TestPercentToFraction(t *testing.T) {
	got, err := PercentToFraction("50")
	require.NoError(t, err)
	assert.Equal(t, 0.5, got)

	got, err = PercentToFraction("100")
	require.NoError(t, err)
	assert.Equal(t, 1.0, got)

	_, err = PercentToFraction("half")
	assert.ErrorIs(t, err, ErrInvalidOperand)
}

func TestQuoteString(t *testing.T) {
	assert.Equal(t, `"plain"`, QuoteString("plain"))
	assert.Equal(t, `"say \"hi\""`, QuoteString(`say "hi"`))
	assert.Equal(t, `"a\\b"`, QuoteString(`a\b`))
	assert.Equal(t, `a\\b\"`, EscapeString(`a\b"`))
}

func TestReason(t *testing.T) {
	_, err := Compile(ColumnFilter{ColumnID: "nope", Operation: OperationEqual, Value: "x"})
	assert.Equal(t, "unknown_column", Reason(err))

	_, err = Compile(ColumnFilter{ColumnID: "ratio", Operation: OperationGreater, Value: "x"})
	assert.Equal(t, "invalid_operand", Reason(err))

	assert.Equal(t, "", Reason(nil))
}
