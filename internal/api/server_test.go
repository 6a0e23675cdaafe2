package api_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	gws "github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vrsandeep/mango-tracker/internal/api"
	"github.com/vrsandeep/mango-tracker/internal/browse"
	"github.com/vrsandeep/mango-tracker/internal/config"
	"github.com/vrsandeep/mango-tracker/internal/core"
	"github.com/vrsandeep/mango-tracker/internal/jobs"
	"github.com/vrsandeep/mango-tracker/internal/models"
	"github.com/vrsandeep/mango-tracker/internal/testutil"
)

const testEmail = "reader@example.com"

func sampleBooks() []models.Book {
	return []models.Book{
		{Title: "Solo Leveling", NewestChapter: "200", Genres: []string{"Action", "Fantasy"}},
		{Title: "Solo Max-Level Newbie", NewestChapter: "150", Genres: []string{"Action"}},
		{Title: "Omniscient Reader", NewestChapter: "180", Genres: []string{"Fantasy"}},
	}
}

// setupTestServer wires a full App against a mock backend.
func setupTestServer(t *testing.T) (*api.Server, *core.App, *testutil.MockBackend) {
	t.Helper()
	backend := testutil.NewMockBackend(t, sampleBooks(), []string{"Action", "Fantasy", "Romance"})

	cfg := &config.Config{}
	backend.Configure(cfg)
	cfg.Backend.RequestTimeout = 2 * time.Second
	cfg.Browse.DebounceInterval = 10 * time.Millisecond
	cfg.Browse.MinSearchLength = 2
	cfg.Genres.CacheTTL = time.Hour
	cfg.Database.Path = ":memory:"

	app, err := core.NewWithConfig(cfg)
	if err != nil {
		t.Fatalf("Failed to create app: %v", err)
	}
	app.Version = "test"
	go app.WsHub().Run()
	t.Cleanup(app.Close)

	return api.NewServer(app), app, backend
}

func withProfile(req *http.Request) *http.Request {
	req.Header.Set("Authorization", "Bearer secret")
	req.Header.Set("X-Profile-Email", testEmail)
	return req
}

func countRequests(backend *testutil.MockBackend, prefix string) int {
	n := 0
	for _, r := range backend.Requests() {
		if strings.HasPrefix(r, prefix) {
			n++
		}
	}
	return n
}

func TestBasicHandlers(t *testing.T) {
	server, _, _ := setupTestServer(t)
	router := server.Router()

	t.Run("Health", func(t *testing.T) {
		req, _ := http.NewRequest("GET", "/api/health", nil)
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)
		if status := rr.Code; status != http.StatusOK {
			t.Fatalf("handler returned wrong status code: got %v want %v", status, http.StatusOK)
		}
	})

	t.Run("Get Version", func(t *testing.T) {
		req, _ := http.NewRequest("GET", "/api/version", nil)
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)
		if status := rr.Code; status != http.StatusOK {
			t.Fatalf("handler returned wrong status code: got %v want %v", status, http.StatusOK)
		}
		assert.JSONEq(t, `{"version":"test"}`, rr.Body.String())
	})

	t.Run("Session", func(t *testing.T) {
		req, _ := http.NewRequest("GET", "/api/session", nil)
		withProfile(req)
		req.AddCookie(&http.Cookie{Name: "lightMode", Value: "true"})
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		var sess models.Session
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &sess))
		assert.Equal(t, testEmail, sess.Email)
		assert.True(t, sess.LightMode)
		assert.NotContains(t, rr.Body.String(), "secret", "token must never be echoed")
	})

	t.Run("Metrics", func(t *testing.T) {
		req, _ := http.NewRequest("GET", "/metrics", nil)
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)
		assert.Equal(t, http.StatusOK, rr.Code)
	})
}

func TestGenreHandlers(t *testing.T) {
	server, _, backend := setupTestServer(t)
	router := server.Router()

	for i := 0; i < 2; i++ {
		req, _ := http.NewRequest("GET", "/api/genres", nil)
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)
		if status := rr.Code; status != http.StatusOK {
			t.Fatalf("ListGenres returned wrong status code: got %v want %v", status, http.StatusOK)
		}
		var list []string
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &list))
		assert.Equal(t, []string{"Action", "Fantasy", "Romance"}, list)
	}
	assert.Equal(t, 1, countRequests(backend, "GET /api/all-novels/genres/"), "second call should hit the cache")
}

func TestTrackerHandlers(t *testing.T) {
	server, _, backend := setupTestServer(t)
	router := server.Router()
	backend.SetReadingList(testEmail, []models.TrackedBook{
		{ID: 1, Title: "Solo Leveling", NovelSource: "Webnovel", NovelType: "Manhwa", ReadingStatus: "Reading", UserTag: "fav", LatestReadChapter: "120", NewestChapter: "200"},
		{ID: 2, Title: "Omniscient Reader", NovelSource: "Naver", NovelType: "Novel", ReadingStatus: "Completed", LatestReadChapter: "551", NewestChapter: "551"},
	})

	decode := func(t *testing.T, rr *httptest.ResponseRecorder) (items []models.TrackedBook, total int) {
		t.Helper()
		var resp struct {
			Items []models.TrackedBook `json:"items"`
			Total int                  `json:"total"`
		}
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
		return resp.Items, resp.Total
	}

	t.Run("Requires profile", func(t *testing.T) {
		req, _ := http.NewRequest("GET", "/api/tracker", nil)
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)
		assert.Equal(t, http.StatusUnauthorized, rr.Code)
	})

	t.Run("List", func(t *testing.T) {
		req, _ := http.NewRequest("GET", "/api/tracker?status=reading,on%20hold&title=solo", nil)
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, withProfile(req))
		if status := rr.Code; status != http.StatusOK {
			t.Fatalf("ListTracker returned wrong status code: got %v want %v: %s", status, http.StatusOK, rr.Body.String())
		}
		items, total := decode(t, rr)
		assert.Equal(t, 2, total)
		require.Len(t, items, 1)
		assert.Equal(t, "Solo Leveling", items[0].Title)
		assert.False(t, items[0].CaughtUp)
		assert.Contains(t, rr.Body.String(), `"statuses":["Reading","Completed"]`)
	})

	t.Run("Save", func(t *testing.T) {
		body, _ := json.Marshal(models.ReadingListUpdate{Title: "Solo Max-Level Newbie", NovelSource: "Naver", ReadingStatus: "Reading", LatestReadChapter: "10"})
		req, _ := http.NewRequest("PUT", "/api/tracker", bytes.NewReader(body))
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, withProfile(req))
		require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
		_, total := decode(t, rr)
		assert.Equal(t, 3, total)
	})

	t.Run("Catch up", func(t *testing.T) {
		body, _ := json.Marshal(models.BookRef{Title: "Solo Leveling", NovelSource: "Webnovel"})
		req, _ := http.NewRequest("POST", "/api/tracker/catch-up?title=leveling", bytes.NewReader(body))
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, withProfile(req))
		require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
		items, _ := decode(t, rr)
		require.Len(t, items, 1)
		assert.True(t, items[0].CaughtUp)
		assert.Equal(t, "200", items[0].LatestReadChapter)
	})

	t.Run("Delete", func(t *testing.T) {
		body, _ := json.Marshal(models.BookRef{Title: "Omniscient Reader", NovelSource: "Naver"})
		req, _ := http.NewRequest("DELETE", "/api/tracker", bytes.NewReader(body))
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, withProfile(req))
		require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
		_, total := decode(t, rr)
		assert.Equal(t, 2, total)
		assert.Len(t, backend.ReadingList(testEmail), 2)
	})

	t.Run("Delete missing book", func(t *testing.T) {
		body, _ := json.Marshal(models.BookRef{Title: "Nope", NovelSource: "Naver"})
		req, _ := http.NewRequest("DELETE", "/api/tracker", bytes.NewReader(body))
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, withProfile(req))
		assert.Equal(t, http.StatusNotFound, rr.Code)
	})

	t.Run("Invalid payload", func(t *testing.T) {
		req, _ := http.NewRequest("PUT", "/api/tracker", strings.NewReader("{"))
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, withProfile(req))
		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})
}

func TestAdminJobHandlers(t *testing.T) {
	server, app, backend := setupTestServer(t)
	router := server.Router()

	t.Run("Status", func(t *testing.T) {
		req, _ := http.NewRequest("GET", "/api/admin/jobs/status", nil)
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)
		require.Equal(t, http.StatusOK, rr.Code)

		var statuses []jobs.JobStatus
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &statuses))
		require.Len(t, statuses, 1)
		assert.Equal(t, jobs.GenreRefreshJobID, statuses[0].ID)
	})

	t.Run("Run genre refresh", func(t *testing.T) {
		req, _ := http.NewRequest("POST", "/api/admin/jobs/run", strings.NewReader(`{"job_id":"genre-refresh"}`))
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)
		if status := rr.Code; status != http.StatusAccepted {
			t.Fatalf("handler returned wrong status code: got %v want %v", status, http.StatusAccepted)
		}
		require.Eventually(t, func() bool {
			return app.JobManager().GetStatus()[0].Status == "success"
		}, 2*time.Second, 10*time.Millisecond)
		assert.Equal(t, 1, countRequests(backend, "GET /api/all-novels/genres/"))
	})

	t.Run("Unknown job", func(t *testing.T) {
		req, _ := http.NewRequest("POST", "/api/admin/jobs/run", strings.NewReader(`{"job_id":"nope"}`))
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)
		assert.Equal(t, http.StatusConflict, rr.Code)
	})

	t.Run("Bad payload", func(t *testing.T) {
		req, _ := http.NewRequest("POST", "/api/admin/jobs/run", strings.NewReader(`{}`))
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)
		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})
}

type wsMessage struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

func TestBrowseSocket(t *testing.T) {
	server, _, backend := setupTestServer(t)
	srv := httptest.NewServer(server.Router())
	defer srv.Close()

	conn, _, err := gws.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http")+"/ws/browse", nil)
	require.NoError(t, err)
	defer conn.Close()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(3*time.Second)))

	var gotGenres bool
	var snap browse.Snapshot
	require.NoError(t, conn.WriteJSON(map[string]any{"type": "search", "term": "solo"}))
	for snap.View != browse.ViewLoaded || !gotGenres {
		var msg wsMessage
		require.NoError(t, conn.ReadJSON(&msg))
		switch msg.Type {
		case "genres":
			gotGenres = true
		case "state":
			snap = browse.Snapshot{}
			require.NoError(t, json.Unmarshal(msg.Data, &snap))
		}
	}

	assert.Equal(t, 2, snap.TotalCount)
	assert.Len(t, snap.Items, 2)
	assert.Contains(t, backend.Requests(), "GET /api/all-novels/browse/?title=solo&genre=&sortType=&page=1")
}
