package models

// Book is a single series as returned by the backend browse and search endpoints.
// Title is unique within one result set.
type Book struct {
	Title         string   `json:"title"`
	ImageURL      string   `json:"image_url,omitempty"`
	NewestChapter string   `json:"newest_chapter"`
	Genres        []string `json:"genres"`
	NovelSource   string   `json:"novel_source,omitempty"`
	Status        string   `json:"status,omitempty"`
}

// ResultPage is one page of browse results together with the total number
// of matches across all pages.
type ResultPage struct {
	Items      []Book `json:"results"`
	TotalCount int    `json:"total_count"`
	Page       int    `json:"page,omitempty"`
	PageSize   int    `json:"page_size,omitempty"`
}

// Query describes what a browse view is currently asking the backend for.
// Genres and SortFacets are sets, kept sorted and free of duplicates.
type Query struct {
	SearchTerm string   `json:"search_term"`
	Genres     []string `json:"genres"`
	SortFacets []string `json:"sort_facets"`
	Page       int      `json:"page"`
}

// HasFacets reports whether at least one genre or sort facet is selected.
func (q Query) HasFacets() bool {
	return len(q.Genres) > 0 || len(q.SortFacets) > 0
}
