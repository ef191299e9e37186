// Copyright (c) 2025, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package filters

import (
	"strings"
)

var literalEscaper = strings.NewReplacer(`\`, `\\`, `"`, `\"`)

// EscapeString escapes backslashes and double quotes for use inside a string literal.
func EscapeString(s string) string {
	return literalEscaper.Replace(s)
}

// QuoteString returns s as a double-quoted string literal.
func QuoteString(s string) string {
	return `"` + EscapeString(s) + `"`
}

// isNumericLiteral reports whether value can be emitted as a bare number.
func isNumericLiteral(value string) bool {
	_, err := ParseNumber(value)
	return err == nil
}
