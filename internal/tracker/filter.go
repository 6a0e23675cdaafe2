package tracker

import (
	"strings"

	"golang.org/x/text/cases"

	"github.com/vrsandeep/mango-tracker/internal/models"
)

// Filter narrows a reading list. Title is a case-insensitive substring; each
// facet matches when it is empty or contains the book's value, ignoring case.
type Filter struct {
	Title    string   `json:"title"`
	Sources  []string `json:"sources"`
	Types    []string `json:"types"`
	Statuses []string `json:"statuses"`
	Tags     []string `json:"tags"`
}

// Facets lists the distinct values present in a reading list, in the order
// they first appear.
type Facets struct {
	Sources  []string `json:"sources"`
	Types    []string `json:"types"`
	Statuses []string `json:"statuses"`
	Tags     []string `json:"tags"`
}

func fold(s string) string {
	return cases.Fold().String(s)
}

// Apply returns the books matching f, keeping their order.
func Apply(list []models.TrackedBook, f Filter) []models.TrackedBook {
	title := fold(f.Title)
	out := make([]models.TrackedBook, 0, len(list))
	for _, b := range list {
		if !strings.Contains(fold(b.Title), title) {
			continue
		}
		if !anyFold(f.Sources, b.NovelSource) ||
			!anyFold(f.Types, b.NovelType) ||
			!anyFold(f.Statuses, b.ReadingStatus) ||
			!anyFold(f.Tags, b.UserTag) {
			continue
		}
		out = append(out, b)
	}
	return out
}

func anyFold(options []string, value string) bool {
	if len(options) == 0 {
		return true
	}
	v := fold(value)
	for _, o := range options {
		if fold(o) == v {
			return true
		}
	}
	return false
}

// FacetsOf collects the facet options offered for list.
func FacetsOf(list []models.TrackedBook) Facets {
	f := Facets{Sources: []string{}, Types: []string{}, Statuses: []string{}, Tags: []string{}}
	seen := map[*[]string]map[string]bool{}
	add := func(dst *[]string, v string) {
		if v == "" {
			return
		}
		if seen[dst] == nil {
			seen[dst] = map[string]bool{}
		}
		if seen[dst][v] {
			return
		}
		seen[dst][v] = true
		*dst = append(*dst, v)
	}
	for _, b := range list {
		add(&f.Sources, b.NovelSource)
		add(&f.Types, b.NovelType)
		add(&f.Statuses, b.ReadingStatus)
		add(&f.Tags, b.UserTag)
	}
	return f
}
