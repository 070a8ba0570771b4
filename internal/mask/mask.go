// Package mask formats phone numbers, postal codes and national IDs for display.
package mask

import "strings"

// Digits strips every non-digit character.
func Digits(value string) string {
	var b strings.Builder
	b.Grow(len(value))
	for _, r := range value {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// Phone formats value as "(DD) NNNNN-NNNN". Partial input is formatted progressively.
func Phone(value string) string {
	if value == "" {
		return value
	}
	numbers := Digits(value)
	if numbers == "" {
		return ""
	}

	var b strings.Builder
	b.WriteString("(")
	b.WriteString(cut(numbers, 0, 2))
	if len(numbers) <= 2 {
		b.WriteString(")")
		return b.String()
	}

	b.WriteString(") ")
	remaining := numbers[2:]
	b.WriteString(cut(remaining, 0, 5))
	if len(remaining) > 5 {
		b.WriteString("-")
		b.WriteString(cut(remaining, 5, 9))
	}
	return b.String()
}

// PostalCode formats value as "NNNNN-NNN".
func PostalCode(value string) string {
	if value == "" {
		return value
	}
	v := Digits(value)
	if len(v) > 5 {
		v = v[:5] + "-" + v[5:]
	}
	return cut(v, 0, 9)
}

// Document formats a national ID as "NNN.NNN.NNN-NN".
func Document(value string) string {
	if value == "" {
		return value
	}
	d := cut(Digits(value), 0, 11)

	var b strings.Builder
	for i, sep := range []struct {
		from, to int
		prefix   string
	}{{0, 3, ""}, {3, 6, "."}, {6, 9, "."}, {9, 11, "-"}} {
		part := cut(d, sep.from, sep.to)
		if part == "" {
			break
		}
		if i > 0 {
			b.WriteString(sep.prefix)
		}
		b.WriteString(part)
	}
	return b.String()
}

// cut is a bounds-tolerant s[from:to].
func cut(s string, from, to int) string {
	if from >= len(s) {
		return ""
	}
	if to > len(s) {
		to = len(s)
	}
	return s[from:to]
}
