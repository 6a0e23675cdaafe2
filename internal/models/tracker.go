package models

// TrackedBook is one entry of a user's reading list.
type TrackedBook struct {
	ID                    int64  `json:"id"`
	Title                 string `json:"title"`
	NovelSource           string `json:"novel_source"`
	NovelType             string `json:"novel_type"`
	ReadingStatus         string `json:"reading_status"`
	UserTag               string `json:"user_tag"`
	LatestReadChapter     string `json:"latest_read_chapter"`
	LatestReadChapterLink string `json:"latest_read_chapter_link,omitempty"`
	NewestChapter         string `json:"newest_chapter"`
	NewestChapterLink     string `json:"newest_chapter_link,omitempty"`
	// CaughtUp is derived locally, never sent by the backend.
	CaughtUp bool `json:"caught_up"`
}

// ReadingListUpdate adds a book to the reading list or updates an existing entry.
type ReadingListUpdate struct {
	Title             string `json:"title"`
	NovelSource       string `json:"novel_source"`
	ReadingStatus     string `json:"reading_status"`
	UserTag           string `json:"user_tag"`
	LatestReadChapter string `json:"latest_read_chapter"`
}

// BookRef identifies a book on the reading list.
type BookRef struct {
	Title       string `json:"title"`
	NovelSource string `json:"novel_source"`
}
