package util

import (
	"strings"
	"unicode"
)

// NaturalCompare orders strings so that embedded numbers compare by value:
// "ch 2" < "ch 10". Text runs compare case-insensitively and a number sorts
// before text at the same position.
func NaturalCompare(a, b string) int {
	ra, rb := []rune(strings.ToLower(a)), []rune(strings.ToLower(b))
	i, j := 0, 0
	for i < len(ra) && j < len(rb) {
		da, db := unicode.IsDigit(ra[i]), unicode.IsDigit(rb[j])
		switch {
		case da && db:
			ei, ej := digitRun(ra, i), digitRun(rb, j)
			if c := compareDigits(ra[i:ei], rb[j:ej]); c != 0 {
				return c
			}
			i, j = ei, ej
		case da:
			return -1
		case db:
			return 1
		default:
			if ra[i] != rb[j] {
				if ra[i] < rb[j] {
					return -1
				}
				return 1
			}
			i++
			j++
		}
	}
	switch {
	case len(ra)-i < len(rb)-j:
		return -1
	case len(ra)-i > len(rb)-j:
		return 1
	}
	return 0
}

func digitRun(r []rune, start int) int {
	end := start
	for end < len(r) && unicode.IsDigit(r[end]) {
		end++
	}
	return end
}

// compareDigits compares two digit runs by value without parsing them.
func compareDigits(a, b []rune) int {
	a, b = trimZeros(a), trimZeros(b)
	if len(a) != len(b) {
		if len(a) < len(b) {
			return -1
		}
		return 1
	}
	for k := range a {
		if a[k] != b[k] {
			if a[k] < b[k] {
				return -1
			}
			return 1
		}
	}
	return 0
}

func trimZeros(r []rune) []rune {
	for len(r) > 1 && r[0] == '0' {
		r = r[1:]
	}
	return r
}
