// Package browse implements the incremental search, filter and paginate flow
// behind a browse view: query state, debounced submission, ordered fetching
// and infinite scroll.
package browse

import (
	"context"
	"errors"
	"slices"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"github.com/vrsandeep/mango-tracker/internal/config"
	"github.com/vrsandeep/mango-tracker/internal/debounce"
	"github.com/vrsandeep/mango-tracker/internal/metrics"
	"github.com/vrsandeep/mango-tracker/internal/models"
)

// Fetcher loads one page of browse results. catalog.Client implements it.
type Fetcher interface {
	Browse(ctx context.Context, q models.Query) (*models.ResultPage, error)
}

// Options tunes a Session.
type Options struct {
	DebounceInterval time.Duration
	MinSearchLength  int
	RequestTimeout   time.Duration
	// Clock drives the debounce gate; nil means the real clock.
	Clock debounce.Clock
	// OnChange receives every new snapshot in order. It runs with the
	// session locked, so it must return quickly and must not call back into
	// the Session.
	OnChange func(Snapshot)
}

// OptionsFromConfig fills the tunables from the browse and backend config.
func OptionsFromConfig(cfg *config.Config) Options {
	return Options{
		DebounceInterval: cfg.Browse.DebounceInterval,
		MinSearchLength:  cfg.Browse.MinSearchLength,
		RequestTimeout:   cfg.Backend.RequestTimeout,
	}
}

// Session is one browse view instance. It owns the query, the accumulated
// result list and the fetch state; all of its methods are safe for
// concurrent use.
type Session struct {
	ID string

	fetcher Fetcher
	opts    Options
	gate    *debounce.Gate
	trigger *ScrollTrigger
	log     *log.Entry

	ctx    context.Context
	stop   context.CancelFunc
	wg     sync.WaitGroup
	closed bool

	mu           sync.Mutex
	query        *QueryState
	queryVersion uint64
	items        []models.Book
	total        int
	fetch        FetchState
	view         ViewState
	notice       string
	seq          uint64
	cancel       context.CancelFunc
	failed       *models.Query
	pending      bool
	version      uint64
}

// NewSession creates an idle browse view that loads pages through fetcher.
func NewSession(fetcher Fetcher, opts Options) *Session {
	if opts.RequestTimeout <= 0 {
		opts.RequestTimeout = 10 * time.Second
	}
	ctx, stop := context.WithCancel(context.Background())
	id := uuid.NewString()
	s := &Session{
		ID:      id,
		fetcher: fetcher,
		opts:    opts,
		gate:    debounce.New(opts.Clock),
		log:     log.WithField("session", id),
		ctx:     ctx,
		stop:    stop,
		query:   NewQueryState(),
		fetch:   FetchState{Status: FetchIdle},
		view:    ViewEmpty,
	}
	s.trigger = NewScrollTrigger(s.loadMore)
	metrics.BrowseSessionsActive.Inc()
	return s
}

// SetSearchTerm changes the search term. The result list is discarded at
// once and a fetch for page 1 is scheduled behind the debounce interval.
func (s *Session) SetSearchTerm(term string) {
	s.mu.Lock()
	s.queryChangedLocked(s.query.SetSearchTerm(term))
}

// SetGenres changes the selected genres.
func (s *Session) SetGenres(genres []string) {
	s.mu.Lock()
	s.queryChangedLocked(s.query.SetGenres(genres))
}

// SetSortFacets changes the selected sort and type facets.
func (s *Session) SetSortFacets(facets []string) {
	s.mu.Lock()
	s.queryChangedLocked(s.query.SetSortFacets(facets))
}

// SetSentinelVisible reports the visibility of the infinite scroll sentinel.
// It returns true when this caused the next page to be requested. Every
// query change and every page that lands re-arms the trigger, so a renderer
// whose sentinel is still on screen after a new snapshot reports it again.
func (s *Session) SetSentinelVisible(visible bool) bool {
	return s.trigger.SetVisible(visible)
}

// Retry re-issues the fetch that failed last. It does nothing unless the
// view is in the error state.
func (s *Session) Retry() bool {
	s.mu.Lock()
	if s.closed || s.fetch.Status != FetchError || s.failed == nil {
		s.mu.Unlock()
		return false
	}
	q := *s.failed
	s.query.setPage(q.Page)
	s.startFetchLocked(q)
	s.changedLocked()
	s.mu.Unlock()
	return true
}

// Snapshot returns the current state.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

// Close aborts pending and in-flight work and waits for it to finish.
func (s *Session) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	s.pending = false
	s.abortLocked()
	s.mu.Unlock()

	s.gate.Cancel()
	s.stop()
	s.wg.Wait()
	metrics.BrowseSessionsActive.Dec()
}

// queryChangedLocked must be called with mu held; it releases it.
func (s *Session) queryChangedLocked(changed bool) {
	if !changed || s.closed {
		s.mu.Unlock()
		return
	}
	s.queryVersion++
	version := s.queryVersion
	s.abortLocked()
	s.items = nil
	s.total = 0
	s.failed = nil
	s.fetch = FetchState{Status: FetchIdle}
	s.view = ViewEmpty
	s.notice = ""
	s.pending = true
	s.trigger.Rearm()
	s.changedLocked()
	s.gate.Schedule(func() { s.submit(version) }, s.opts.DebounceInterval)
	s.mu.Unlock()
}

// submit runs when the debounce interval elapses for the given query version.
func (s *Session) submit(version uint64) {
	s.mu.Lock()
	if s.closed || version != s.queryVersion {
		s.mu.Unlock()
		return
	}
	s.pending = false
	q := s.query.Query()
	if !s.eligible(q) {
		s.items = nil
		s.total = 0
		s.fetch = FetchState{Status: FetchIdle}
		s.view = ViewEmpty
		s.notice = ""
		if q.SearchTerm != "" {
			s.notice = MinLengthNotice(s.opts.MinSearchLength)
		}
		metrics.BrowseSuppressedTotal.Inc()
		s.changedLocked()
		s.mu.Unlock()
		return
	}
	s.startFetchLocked(q)
	s.changedLocked()
	s.mu.Unlock()
}

func (s *Session) eligible(q models.Query) bool {
	return utf8.RuneCountInString(q.SearchTerm) >= s.opts.MinSearchLength || q.HasFacets()
}

// loadMore is the scroll trigger's callback.
func (s *Session) loadMore() bool {
	s.mu.Lock()
	if s.closed || s.view != ViewLoaded || s.fetch.Status != FetchIdle {
		s.mu.Unlock()
		return false
	}
	if !s.query.AdvancePage(true, len(s.items), s.total) {
		s.mu.Unlock()
		return false
	}
	s.startFetchLocked(s.query.Query())
	s.changedLocked()
	s.mu.Unlock()
	return true
}

// startFetchLocked issues q under a new sequence number. Only the response
// carrying the latest sequence number is ever applied.
func (s *Session) startFetchLocked(q models.Query) {
	s.abortLocked()
	s.seq++
	seq := s.seq
	ctx, cancel := context.WithTimeout(s.ctx, s.opts.RequestTimeout)
	s.cancel = cancel
	s.fetch = FetchState{Status: FetchFetching}
	s.view = ViewLoading
	s.notice = ""

	s.log.WithFields(log.Fields{"seq": seq, "page": q.Page}).Debugf("Fetching %q", q.SearchTerm)
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer cancel()
		page, err := s.fetcher.Browse(ctx, q)
		s.apply(seq, q, page, err)
	}()
}

// abortLocked cancels the in-flight request and invalidates its sequence number.
func (s *Session) abortLocked() {
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
		s.seq++
	}
}

func (s *Session) apply(seq uint64, q models.Query, page *models.ResultPage, err error) {
	s.mu.Lock()
	if s.closed || seq != s.seq {
		s.mu.Unlock()
		if errors.Is(err, context.Canceled) {
			metrics.BrowseFetchesTotal.WithLabelValues("aborted").Inc()
		} else {
			metrics.BrowseFetchesTotal.WithLabelValues("stale").Inc()
		}
		s.log.WithField("seq", seq).Debug("Discarding superseded browse response")
		return
	}
	s.cancel = nil

	if err != nil {
		metrics.BrowseFetchesTotal.WithLabelValues("error").Inc()
		s.log.WithFields(log.Fields{"seq": seq, "page": q.Page}).Warnf("Browse fetch failed: %v", err)
		failed := q
		s.failed = &failed
		s.fetch = FetchState{Status: FetchError, Message: MsgFetchFailed}
		s.view = ViewError
		// Step back so the cursor points at the last page actually loaded.
		s.query.setPage(q.Page - 1)
	} else {
		metrics.BrowseFetchesTotal.WithLabelValues("success").Inc()
		if q.Page == 1 {
			s.items = slices.Clone(page.Items)
		} else {
			s.items = append(s.items, page.Items...)
		}
		s.total = page.TotalCount
		s.failed = nil
		s.fetch = FetchState{Status: FetchIdle}
		if q.Page == 1 && len(s.items) == 0 && s.total == 0 {
			s.view = ViewNoResults
			s.notice = MsgNoResults
		} else {
			s.view = ViewLoaded
		}
		s.trigger.Rearm()
	}
	s.changedLocked()
	s.mu.Unlock()
}

// changedLocked bumps the version and hands the new snapshot to OnChange.
func (s *Session) changedLocked() {
	s.version++
	if s.opts.OnChange != nil {
		s.opts.OnChange(s.snapshotLocked())
	}
}

func (s *Session) snapshotLocked() Snapshot {
	items := slices.Clone(s.items)
	if items == nil {
		items = []models.Book{}
	}
	return Snapshot{
		Version:    s.version,
		Query:      s.query.Query(),
		Items:      items,
		TotalCount: s.total,
		HasMore:    s.view == ViewLoaded && len(s.items) < s.total,
		Fetch:      s.fetch,
		View:       s.view,
		Pending:    s.pending,
		Notice:     s.notice,
	}
}
