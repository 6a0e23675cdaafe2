package catalog

import (
	"errors"
	"fmt"
	"net/http"
	"slices"

	"github.com/vrsandeep/mango-tracker/internal/models"
)

// ErrNotFound matches any StatusError carrying a 404.
var ErrNotFound = errors.New("not found")

// StatusError is returned when the backend answers with a non-2xx status.
type StatusError struct {
	Code    int
	Message string
}

func (e *StatusError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("backend returned %d: %s", e.Code, e.Message)
	}
	return fmt.Sprintf("backend returned %d %s", e.Code, http.StatusText(e.Code))
}

func (e *StatusError) Is(target error) bool {
	return target == ErrNotFound && e.Code == http.StatusNotFound
}

// SortFacets are the sortType values the backend understands. The first
// three order results, the rest narrow them to a publication type.
var SortFacets = []string{"rating", "updated", "followers", "manga", "manhua", "manhwa", "light_novel"}

// IsSortFacet reports whether v is one of SortFacets.
func IsSortFacet(v string) bool {
	return slices.Contains(SortFacets, v)
}

// --- Wire types ---

type errorResponse struct {
	Error  string `json:"error"`
	Detail string `json:"detail"`
}

type trackingListResponse struct {
	ReadingList []models.TrackedBook `json:"reading_list"`
}

type readingListPayload struct {
	Username string `json:"username"`
	models.ReadingListUpdate
}

type bookRefPayload struct {
	Username string `json:"username"`
	models.BookRef
}
