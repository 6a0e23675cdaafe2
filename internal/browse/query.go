package browse

import (
	"slices"
	"sort"
	"strings"

	"github.com/vrsandeep/mango-tracker/internal/models"
)

// QueryState holds the query-defining fields and the page cursor of one
// browse view. It is not safe for concurrent use; Session guards it.
type QueryState struct {
	q models.Query
}

// NewQueryState returns an empty query positioned on page 1.
func NewQueryState() *QueryState {
	return &QueryState{q: models.Query{Genres: []string{}, SortFacets: []string{}, Page: 1}}
}

// SetSearchTerm replaces the search term. It returns false when the term is
// unchanged; otherwise the page is reset to 1.
func (s *QueryState) SetSearchTerm(term string) bool {
	if term == s.q.SearchTerm {
		return false
	}
	s.q.SearchTerm = term
	s.q.Page = 1
	return true
}

// SetGenres replaces the selected genre set.
func (s *QueryState) SetGenres(genres []string) bool {
	set := dedupe(genres)
	sort.Strings(set)
	if slices.Equal(set, s.q.Genres) {
		return false
	}
	s.q.Genres = set
	s.q.Page = 1
	return true
}

// SetSortFacets replaces the selected sort/type facets. Facets keep the
// order they were picked in since the backend orders results by them in
// that order.
func (s *QueryState) SetSortFacets(facets []string) bool {
	set := dedupe(facets)
	if slices.Equal(set, s.q.SortFacets) {
		return false
	}
	s.q.SortFacets = set
	s.q.Page = 1
	return true
}

// AdvancePage moves to the next page, but only when the previous fetch
// succeeded and fewer than total items have been loaded.
func (s *QueryState) AdvancePage(prevSucceeded bool, loaded, total int) bool {
	if !prevSucceeded || loaded >= total {
		return false
	}
	s.q.Page++
	return true
}

func (s *QueryState) setPage(page int) {
	if page < 1 {
		page = 1
	}
	s.q.Page = page
}

// Query returns a copy of the current query.
func (s *QueryState) Query() models.Query {
	q := s.q
	q.Genres = slices.Clone(s.q.Genres)
	q.SortFacets = slices.Clone(s.q.SortFacets)
	return q
}

// dedupe trims values and drops blanks and duplicates, keeping first-seen order.
func dedupe(values []string) []string {
	set := make([]string, 0, len(values))
	seen := make(map[string]bool, len(values))
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v == "" || seen[v] {
			continue
		}
		seen[v] = true
		set = append(set, v)
	}
	return set
}
