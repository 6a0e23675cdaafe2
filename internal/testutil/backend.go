package testutil

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/vrsandeep/mango-tracker/internal/config"
	"github.com/vrsandeep/mango-tracker/internal/models"
)

const (
	backendBrowsePath   = "/api/all-novels/browse/"
	backendGenresPath   = "/api/all-novels/genres/"
	backendProfilesPath = "/api/profiles/"
	backendPageSize     = 20
)

// MockBackend is an in-memory stand-in for the reading-tracker backend API.
type MockBackend struct {
	*httptest.Server

	mu          sync.Mutex
	books       []models.Book
	genres      []string
	readingList map[string][]models.TrackedBook
	requests    []string
	failBrowse  bool
}

// NewMockBackend starts a mock backend serving books and genres. It is shut
// down when the test completes.
func NewMockBackend(t *testing.T, books []models.Book, genres []string) *MockBackend {
	t.Helper()
	m := &MockBackend{
		books:       books,
		genres:      genres,
		readingList: make(map[string][]models.TrackedBook),
	}

	r := chi.NewRouter()
	r.Use(m.record)
	r.Get(backendBrowsePath, m.handleBrowse)
	r.Get(backendGenresPath, m.handleGenres)
	r.Get(backendProfilesPath+"{email}/tracking_list/", m.handleTrackingList)
	r.Put(backendProfilesPath+"update_reading_list/", m.handleUpdate)
	r.Delete(backendProfilesPath+"delete_book/", m.handleDelete)
	r.Put(backendProfilesPath+"update_to_max_chapter/", m.handleMaxChapter)

	m.Server = httptest.NewServer(r)
	t.Cleanup(m.Close)
	return m
}

// Configure points the backend section of cfg at the mock.
func (m *MockBackend) Configure(cfg *config.Config) {
	cfg.Backend.BaseURL = m.URL
	cfg.Backend.BrowsePath = backendBrowsePath
	cfg.Backend.GenresPath = backendGenresPath
	cfg.Backend.ProfilesPath = backendProfilesPath
}

// SetReadingList replaces the reading list of the given user.
func (m *MockBackend) SetReadingList(email string, list []models.TrackedBook) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.readingList[email] = list
}

// ReadingList returns the current reading list of the given user.
func (m *MockBackend) ReadingList(email string) []models.TrackedBook {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]models.TrackedBook(nil), m.readingList[email]...)
}

// FailBrowse makes subsequent browse requests answer 500.
func (m *MockBackend) FailBrowse(fail bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failBrowse = fail
}

// Requests returns "METHOD /path?query" for every request received so far.
func (m *MockBackend) Requests() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.requests...)
}

func (m *MockBackend) record(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		m.mu.Lock()
		m.requests = append(m.requests, r.Method+" "+r.URL.RequestURI())
		m.mu.Unlock()
		next.ServeHTTP(w, r)
	})
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}

func (m *MockBackend) handleBrowse(w http.ResponseWriter, r *http.Request) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failBrowse {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "browse unavailable"})
		return
	}

	title := strings.ToLower(r.URL.Query().Get("title"))
	var genres []string
	if g := r.URL.Query().Get("genre"); g != "" {
		genres = strings.Split(g, ",")
	}
	var matched []models.Book
	for _, b := range m.books {
		if title != "" && !strings.Contains(strings.ToLower(b.Title), title) {
			continue
		}
		if !hasAllGenres(b, genres) {
			continue
		}
		matched = append(matched, b)
	}

	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	if page < 1 {
		page = 1
	}
	start := min((page-1)*backendPageSize, len(matched))
	end := min(start+backendPageSize, len(matched))
	writeJSON(w, http.StatusOK, models.ResultPage{
		Items:      append([]models.Book{}, matched[start:end]...),
		TotalCount: len(matched),
		Page:       page,
		PageSize:   backendPageSize,
	})
}

func hasAllGenres(b models.Book, genres []string) bool {
	for _, want := range genres {
		found := false
		for _, g := range b.Genres {
			if strings.EqualFold(g, want) {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

func (m *MockBackend) handleGenres(w http.ResponseWriter, r *http.Request) {
	m.mu.Lock()
	defer m.mu.Unlock()
	writeJSON(w, http.StatusOK, m.genres)
}

func authorized(r *http.Request) bool {
	return strings.HasPrefix(r.Header.Get("Authorization"), "Bearer ")
}

func (m *MockBackend) handleTrackingList(w http.ResponseWriter, r *http.Request) {
	if !authorized(r) {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"detail": "missing token"})
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	list := m.readingList[chi.URLParam(r, "email")]
	if list == nil {
		list = []models.TrackedBook{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"reading_list": list})
}

type mutationPayload struct {
	Username string `json:"username"`
	models.ReadingListUpdate
}

func (m *MockBackend) decode(w http.ResponseWriter, r *http.Request) (mutationPayload, bool) {
	var p mutationPayload
	if !authorized(r) {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"detail": "missing token"})
		return p, false
	}
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil || p.Username == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid payload"})
		return p, false
	}
	return p, true
}

func (m *MockBackend) find(email, title, source string) int {
	for i, b := range m.readingList[email] {
		if b.Title == title && b.NovelSource == source {
			return i
		}
	}
	return -1
}

func (m *MockBackend) handleUpdate(w http.ResponseWriter, r *http.Request) {
	p, ok := m.decode(w, r)
	if !ok {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	entry := models.TrackedBook{
		Title:             p.Title,
		NovelSource:       p.NovelSource,
		ReadingStatus:     p.ReadingStatus,
		UserTag:           p.UserTag,
		LatestReadChapter: p.LatestReadChapter,
	}
	if i := m.find(p.Username, p.Title, p.NovelSource); i >= 0 {
		existing := m.readingList[p.Username][i]
		entry.ID = existing.ID
		entry.NovelType = existing.NovelType
		entry.NewestChapter = existing.NewestChapter
		m.readingList[p.Username][i] = entry
	} else {
		entry.ID = int64(len(m.readingList[p.Username]) + 1)
		m.readingList[p.Username] = append(m.readingList[p.Username], entry)
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "updated"})
}

func (m *MockBackend) handleDelete(w http.ResponseWriter, r *http.Request) {
	p, ok := m.decode(w, r)
	if !ok {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	i := m.find(p.Username, p.Title, p.NovelSource)
	if i < 0 {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "book not on reading list"})
		return
	}
	list := m.readingList[p.Username]
	m.readingList[p.Username] = append(list[:i:i], list[i+1:]...)
	writeJSON(w, http.StatusOK, map[string]string{"message": "deleted"})
}

func (m *MockBackend) handleMaxChapter(w http.ResponseWriter, r *http.Request) {
	p, ok := m.decode(w, r)
	if !ok {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	i := m.find(p.Username, p.Title, p.NovelSource)
	if i < 0 {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "book not on reading list"})
		return
	}
	entry := &m.readingList[p.Username][i]
	entry.LatestReadChapter = entry.NewestChapter
	writeJSON(w, http.StatusOK, map[string]string{"message": "updated"})
}
