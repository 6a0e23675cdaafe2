package browse

import (
	"fmt"

	"github.com/vrsandeep/mango-tracker/internal/models"
)

// FetchStatus is the lifecycle of the data fetch behind a browse view.
type FetchStatus string

const (
	FetchIdle     FetchStatus = "idle"
	FetchFetching FetchStatus = "fetching"
	FetchError    FetchStatus = "error"
)

// FetchState is the current FetchStatus plus the message shown for errors.
type FetchState struct {
	Status  FetchStatus `json:"status"`
	Message string      `json:"message,omitempty"`
}

// ViewState is what the browse view should render.
type ViewState string

const (
	ViewEmpty     ViewState = "empty"
	ViewLoading   ViewState = "loading"
	ViewLoaded    ViewState = "loaded"
	ViewNoResults ViewState = "no_results"
	ViewError     ViewState = "error"
)

const (
	MsgFetchFailed = "Failed to fetch results"
	MsgNoResults   = "No results found"
)

// MinLengthNotice is the hint shown while the search term is too short.
func MinLengthNotice(min int) string {
	return fmt.Sprintf("Please enter at least %d characters or select a filter", min)
}

// Snapshot is an immutable copy of a browse view's state, handed to renderers.
// Version grows with every change. Pending is set while a query change waits
// out the debounce interval.
type Snapshot struct {
	Version    uint64        `json:"version"`
	Query      models.Query  `json:"query"`
	Items      []models.Book `json:"items"`
	TotalCount int           `json:"total_count"`
	HasMore    bool          `json:"has_more"`
	Fetch      FetchState    `json:"fetch"`
	View       ViewState     `json:"view"`
	Notice     string        `json:"notice,omitempty"`
	Pending    bool          `json:"pending"`
}
