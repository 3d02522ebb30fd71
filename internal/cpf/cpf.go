// Package cpf validates Brazilian taxpayer identification numbers (CPF).
package cpf

import "strings"

// Length is the number of digits in a CPF.
const Length = 11

// Clean strips every character that is not an ASCII digit.
func Clean(raw string) string {
	var b strings.Builder
	b.Grow(len(raw))
	for i := 0; i < len(raw); i++ {
		if c := raw[i]; c >= '0' && c <= '9' {
			b.WriteByte(c)
		}
	}
	return b.String()
}

// Valid reports whether raw holds a CPF with correct check digits. Formatting
// characters are ignored. Sequences of a single repeated digit are rejected
// even though their check digits match.
func Valid(raw string) bool {
	s := Clean(raw)
	if len(s) != Length {
		return false
	}
	if strings.Count(s, s[:1]) == Length {
		return false
	}
	var digits [Length]int
	for i := 0; i < Length; i++ {
		digits[i] = int(s[i] - '0')
	}
	return checkDigit(digits[:9]) == digits[9] && checkDigit(digits[:10]) == digits[10]
}

// checkDigit computes the mod-11 check digit over the leading digits, weighting
// position i (0-based) by len(digits)+1-i.
func checkDigit(digits []int) int {
	n := len(digits)
	sum := 0
	for i, d := range digits {
		sum += d * (n + 1 - i)
	}
	return (sum * 10 % 11) % 10
}

// Format renders a CPF as XXX.XXX.XXX-XX. Inputs that do not clean to eleven
// digits are returned unchanged.
func Format(raw string) string {
	s := Clean(raw)
	if len(s) != Length {
		return raw
	}
	return s[0:3] + "." + s[3:6] + "." + s[6:9] + "-" + s[9:11]
}
