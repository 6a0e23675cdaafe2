package util

import (
	"regexp"
	"strconv"
)

var chapterNumbers = regexp.MustCompile(`\d+\.\d+|\d+`)

// ChapterKey extracts every number in a chapter label, so "Vol. 2 Ch. 10.5"
// becomes [2 10.5].
func ChapterKey(label string) []float64 {
	matches := chapterNumbers.FindAllString(label, -1)
	key := make([]float64, 0, len(matches))
	for _, m := range matches {
		if f, err := strconv.ParseFloat(m, 64); err == nil {
			key = append(key, f)
		}
	}
	return key
}

// CompareChapters orders two chapter labels by their numbers, element by
// element. Labels without numbers fall back to natural ordering.
func CompareChapters(a, b string) int {
	ka, kb := ChapterKey(a), ChapterKey(b)
	if len(ka) == 0 || len(kb) == 0 {
		return NaturalCompare(a, b)
	}
	for i := 0; i < len(ka) && i < len(kb); i++ {
		if ka[i] < kb[i] {
			return -1
		}
		if ka[i] > kb[i] {
			return 1
		}
	}
	switch {
	case len(ka) < len(kb):
		return -1
	case len(ka) > len(kb):
		return 1
	}
	return 0
}
