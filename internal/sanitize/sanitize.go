// Package sanitize turns raw spreadsheet cells into safe, bounded values.
//
// Every function here is pure; the CSV importer, the XLSX exporter and the
// JSON handlers all share the same rules so a value that round-trips through
// a spreadsheet can never be evaluated as a formula.
package sanitize

import (
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/shopspring/decimal"
)

// formulaPrefixes start a formula (or a DDE payload) in Excel, LibreOffice
// and Google Sheets.
const formulaPrefixes = "=+-@\t\r\n"

// FieldError is a validation failure tied to one named field.
type FieldError struct {
	Field string
	Msg   string
}

func (e *FieldError) Error() string { return e.Field + " " + e.Msg }

// Text neutralises formula injection. Values starting with a formula prefix
// get a leading single quote; anything else has its single quotes doubled.
// Not idempotent: sanitize raw input exactly once.
func Text(raw string) string {
	if raw == "" {
		return ""
	}
	if HasFormulaPrefix(raw) {
		return "'" + raw
	}
	return strings.ReplaceAll(raw, "'", "''")
}

// HasFormulaPrefix reports whether a spreadsheet would evaluate s.
func HasFormulaPrefix(s string) bool {
	return s != "" && strings.ContainsRune(formulaPrefixes, rune(s[0]))
}

// OptionalText is Text for nullable columns: blank input maps to nil.
func OptionalText(raw string) *string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	s := Text(raw)
	return &s
}

// MaxLen rejects s when it holds more than max characters. Apply it to the
// sanitized value, since quote doubling can lengthen the raw input.
func MaxLen(s, field string, max int) error {
	if utf8.RuneCountInString(s) > max {
		return &FieldError{Field: field, Msg: fmt.Sprintf("must be at most %d characters", max)}
	}
	return nil
}

// Decimal parses raw into a decimal within [min, max] inclusive.
func Decimal(raw, field string, min, max decimal.Decimal) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(raw))
	if err != nil {
		return decimal.Zero, &FieldError{Field: field, Msg: "must be a valid number"}
	}
	if err := CheckDecimal(d, field, min, max); err != nil {
		return decimal.Zero, err
	}
	return d, nil
}

// ExponentInRange reports whether d's exponent is small enough to compare
// or round. Comparing two decimals builds a 10^|exp| integer, so "1e2000000000"
// would otherwise pin a CPU.
func ExponentInRange(d decimal.Decimal) bool {
	e := d.Exponent()
	return e >= MinExponent && e <= MaxExponent
}

// CheckDecimal is the range check of Decimal for an already parsed value.
func CheckDecimal(d decimal.Decimal, field string, min, max decimal.Decimal) error {
	switch {
	case d.Exponent() > MaxExponent:
		return &FieldError{Field: field, Msg: fmt.Sprintf("must be between %s and %s", min, max)}
	case d.Exponent() < MinExponent:
		return &FieldError{Field: field, Msg: fmt.Sprintf("must have at most %d decimal places", -MinExponent)}
	case d.LessThan(min) || d.GreaterThan(max):
		return &FieldError{Field: field, Msg: fmt.Sprintf("must be between %s and %s", min, max)}
	}
	return nil
}

// Int parses raw as a base-10 integer within [min, max] inclusive.
// Fractional or exponent forms ("3.5", "1e3") are rejected.
func Int(raw, field string, min, max int) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return 0, &FieldError{Field: field, Msg: "must be a valid integer"}
	}
	if n < min || n > max {
		return 0, &FieldError{Field: field, Msg: fmt.Sprintf("must be between %d and %d", min, max)}
	}
	return n, nil
}
