package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vrsandeep/mango-tracker/internal/browse"
	"github.com/vrsandeep/mango-tracker/internal/catalog"
	"github.com/vrsandeep/mango-tracker/internal/models"
)

type pagedFetcher struct {
	mu    sync.Mutex
	total int
	err   error
	pages []int
}

func (f *pagedFetcher) Browse(ctx context.Context, q models.Query) (*models.ResultPage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.pages = append(f.pages, q.Page)
	if f.err != nil {
		return nil, f.err
	}
	start := (q.Page - 1) * 20
	n := min(20, f.total-start)
	items := make([]models.Book, 0, n)
	for i := 0; i < n; i++ {
		items = append(items, models.Book{Title: fmt.Sprintf("Book %d", start+i+1), NewestChapter: "1"})
	}
	return &models.ResultPage{Items: items, TotalCount: f.total}, nil
}

func testOptions() browse.Options {
	return browse.Options{DebounceInterval: time.Millisecond, MinSearchLength: 2, RequestTimeout: time.Second}
}

func TestRunBrowse_LoadsRequestedPages(t *testing.T) {
	f := &pagedFetcher{total: 50}
	var out bytes.Buffer

	err := runBrowse(context.Background(), f, testOptions(), browseParams{Title: "book", Pages: 5}, &out)
	require.NoError(t, err)

	assert.Equal(t, []int{1, 2, 3}, f.pages, "stops once everything is loaded")
	assert.Contains(t, out.String(), "  1. Book 1 (ch. 1)")
	assert.Contains(t, out.String(), " 50. Book 50")
	assert.Contains(t, out.String(), "-- 50 of 50 --")
}

func TestRunBrowse_SinglePage(t *testing.T) {
	f := &pagedFetcher{total: 50}
	var out bytes.Buffer

	require.NoError(t, runBrowse(context.Background(), f, testOptions(), browseParams{Genres: []string{"Action"}, Pages: 1}, &out))
	assert.Equal(t, []int{1}, f.pages)
	assert.Contains(t, out.String(), "-- 20 of 50 --")
}

func TestRunBrowse_ShortTermPrintsNotice(t *testing.T) {
	f := &pagedFetcher{total: 50}
	var out bytes.Buffer

	require.NoError(t, runBrowse(context.Background(), f, testOptions(), browseParams{Title: "a", Pages: 1}, &out))
	assert.Empty(t, f.pages)
	assert.Contains(t, out.String(), browse.MinLengthNotice(2))
}

func TestRunBrowse_NoResults(t *testing.T) {
	f := &pagedFetcher{total: 0}
	var out bytes.Buffer

	require.NoError(t, runBrowse(context.Background(), f, testOptions(), browseParams{Title: "zzz", Pages: 1}, &out))
	assert.Contains(t, out.String(), browse.MsgNoResults)
}

func TestRunBrowse_FetchError(t *testing.T) {
	f := &pagedFetcher{err: errors.New("connection refused")}
	var out bytes.Buffer

	err := runBrowse(context.Background(), f, testOptions(), browseParams{Title: "solo", Pages: 1}, &out)
	require.Error(t, err)
	assert.Equal(t, browse.MsgFetchFailed, err.Error())
}

func TestRunBrowse_JSON(t *testing.T) {
	f := &pagedFetcher{total: 3}
	var out bytes.Buffer

	require.NoError(t, runBrowse(context.Background(), f, testOptions(), browseParams{Title: "book", Pages: 1, JSON: true}, &out))
	assert.Contains(t, out.String(), `"view": "loaded"`)
	assert.Contains(t, out.String(), `"total_count": 3`)
}

func TestBrowseExampleUsesKnownSortFacets(t *testing.T) {
	fields := strings.Fields(browseCmd.Example)
	found := 0
	for i, f := range fields {
		if f == "--sort" && i+1 < len(fields) {
			found++
			assert.True(t, catalog.IsSortFacet(fields[i+1]), "example sorts by %q", fields[i+1])
		}
	}
	assert.NotZero(t, found)
}

func TestValidateSort(t *testing.T) {
	assert.NoError(t, validateSort([]string{"rating", "light_novel"}))
	assert.NoError(t, validateSort(nil))
	assert.ErrorContains(t, validateSort([]string{"rating", "Popular"}), `unknown sort facet "Popular"`)
}
