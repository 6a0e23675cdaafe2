// Package catalog is the HTTP client for the reading-tracker backend API.
package catalog

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"golang.org/x/time/rate"

	"github.com/vrsandeep/mango-tracker/internal/config"
	"github.com/vrsandeep/mango-tracker/internal/metrics"
	"github.com/vrsandeep/mango-tracker/internal/models"
)

// Options configures a Client.
type Options struct {
	BaseURL      string
	BrowsePath   string
	GenresPath   string
	ProfilesPath string
	Timeout      time.Duration
	// RequestsPerSecond of 0 disables client-side rate limiting.
	RequestsPerSecond float64
	Burst             int
	// PageSize of 0 leaves the page size to the backend.
	PageSize int
}

// Client talks to the backend browse, genre and reading-list endpoints.
type Client struct {
	client   *http.Client
	opts     Options
	limiter  *rate.Limiter
	pageSize int
}

// New creates a new Client.
func New(opts Options) *Client {
	if opts.Timeout <= 0 {
		opts.Timeout = 10 * time.Second
	}
	c := &Client{
		client: &http.Client{
			Timeout:   opts.Timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		opts:     opts,
		pageSize: opts.PageSize,
	}
	if opts.RequestsPerSecond > 0 {
		burst := opts.Burst
		if burst < 1 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(opts.RequestsPerSecond), burst)
	}
	return c
}

// NewFromConfig builds a Client from the backend and browse sections of cfg.
func NewFromConfig(cfg *config.Config) *Client {
	return New(Options{
		BaseURL:           cfg.Backend.BaseURL,
		BrowsePath:        cfg.Backend.BrowsePath,
		GenresPath:        cfg.Backend.GenresPath,
		ProfilesPath:      cfg.Backend.ProfilesPath,
		Timeout:           cfg.Backend.RequestTimeout,
		RequestsPerSecond: cfg.Backend.RequestsPerSecond,
		Burst:             cfg.Backend.Burst,
		PageSize:          cfg.Browse.PageSize,
	})
}

// Browse fetches one page of results for q.
func (c *Client) Browse(ctx context.Context, q models.Query) (*models.ResultPage, error) {
	endpoint := c.endpoint(c.opts.BrowsePath) + "?" + EncodeBrowseQuery(q, c.pageSize)

	var page models.ResultPage
	if err := c.do(ctx, "browse", http.MethodGet, endpoint, models.Session{}, nil, &page); err != nil {
		return nil, err
	}
	if page.Items == nil {
		page.Items = []models.Book{}
	}
	return &page, nil
}

// Genres returns every genre name the backend knows about.
func (c *Client) Genres(ctx context.Context) ([]string, error) {
	var genres []string
	if err := c.do(ctx, "genres", http.MethodGet, c.endpoint(c.opts.GenresPath), models.Session{}, nil, &genres); err != nil {
		return nil, err
	}
	return genres, nil
}

// TrackingList fetches the reading list of the session's user.
func (c *Client) TrackingList(ctx context.Context, sess models.Session) ([]models.TrackedBook, error) {
	endpoint := c.endpoint(c.opts.ProfilesPath) + url.PathEscape(sess.Email) + "/tracking_list/"

	var resp trackingListResponse
	if err := c.do(ctx, "tracking_list", http.MethodGet, endpoint, sess, nil, &resp); err != nil {
		return nil, err
	}
	return resp.ReadingList, nil
}

// UpdateReadingList adds the book to the reading list, or updates the entry
// when it is already there.
func (c *Client) UpdateReadingList(ctx context.Context, sess models.Session, upd models.ReadingListUpdate) error {
	payload := readingListPayload{Username: sess.Email, ReadingListUpdate: upd}
	return c.do(ctx, "update_reading_list", http.MethodPut, c.endpoint(c.opts.ProfilesPath)+"update_reading_list/", sess, payload, nil)
}

// DeleteFromReadingList removes the book from the reading list.
func (c *Client) DeleteFromReadingList(ctx context.Context, sess models.Session, ref models.BookRef) error {
	payload := bookRefPayload{Username: sess.Email, BookRef: ref}
	return c.do(ctx, "delete_book", http.MethodDelete, c.endpoint(c.opts.ProfilesPath)+"delete_book/", sess, payload, nil)
}

// UpdateToMaxChapter marks the newest chapter of the book as read.
func (c *Client) UpdateToMaxChapter(ctx context.Context, sess models.Session, ref models.BookRef) error {
	payload := bookRefPayload{Username: sess.Email, BookRef: ref}
	return c.do(ctx, "update_to_max_chapter", http.MethodPut, c.endpoint(c.opts.ProfilesPath)+"update_to_max_chapter/", sess, payload, nil)
}

// EncodeBrowseQuery renders the browse query string in the order the backend
// expects: title, genre, sortType, page and, when set, page_size.
func EncodeBrowseQuery(q models.Query, pageSize int) string {
	page := q.Page
	if page < 1 {
		page = 1
	}
	sortFacets := make([]string, len(q.SortFacets))
	for i, f := range q.SortFacets {
		sortFacets[i] = escape(f)
	}

	var b strings.Builder
	b.WriteString("title=")
	b.WriteString(escape(q.SearchTerm))
	b.WriteString("&genre=")
	b.WriteString(escape(strings.Join(q.Genres, ",")))
	b.WriteString("&sortType=")
	b.WriteString(strings.Join(sortFacets, ","))
	b.WriteString("&page=")
	b.WriteString(strconv.Itoa(page))
	if pageSize > 0 {
		b.WriteString("&page_size=")
		b.WriteString(strconv.Itoa(pageSize))
	}
	return b.String()
}

// escape matches encodeURIComponent: spaces become %20, not '+'.
func escape(s string) string {
	return strings.ReplaceAll(url.QueryEscape(s), "+", "%20")
}

func (c *Client) endpoint(path string) string {
	return strings.TrimRight(c.opts.BaseURL, "/") + "/" + strings.TrimLeft(path, "/")
}

func (c *Client) do(ctx context.Context, op, method, endpoint string, sess models.Session, body, out any) error {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return fmt.Errorf("%s: rate limiter: %w", op, err)
		}
	}

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("%s: encode request: %w", op, err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if sess.Token != "" {
		req.Header.Set("Authorization", "Bearer "+sess.Token)
	}

	start := time.Now()
	resp, err := c.client.Do(req)
	metrics.BackendRequestDuration.WithLabelValues(op).Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.BackendRequestsTotal.WithLabelValues(op, "error").Inc()
		return fmt.Errorf("%s: %w", op, err)
	}
	defer resp.Body.Close()
	metrics.BackendRequestsTotal.WithLabelValues(op, strconv.Itoa(resp.StatusCode)).Inc()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var apiErr errorResponse
		_ = json.NewDecoder(io.LimitReader(resp.Body, 64<<10)).Decode(&apiErr)
		log.WithFields(log.Fields{"op": op, "status": resp.StatusCode}).Debugf("Backend error: %s", apiErr.Error)
		return &StatusError{Code: resp.StatusCode, Message: apiErr.Error}
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%s: decode response: %w", op, err)
	}
	return nil
}
