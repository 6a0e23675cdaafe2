// Package tracker serves a user's reading list: fetching, filtering and the
// mutations that change it.
package tracker

import (
	"context"
	"errors"
	"fmt"

	log "github.com/sirupsen/logrus"

	"github.com/vrsandeep/mango-tracker/internal/models"
	"github.com/vrsandeep/mango-tracker/internal/util"
)

// ErrNoUser is returned when the session does not identify a user.
var ErrNoUser = errors.New("session has no user")

// Backend is the part of the backend API the tracker needs.
type Backend interface {
	TrackingList(ctx context.Context, sess models.Session) ([]models.TrackedBook, error)
	UpdateReadingList(ctx context.Context, sess models.Session, upd models.ReadingListUpdate) error
	DeleteFromReadingList(ctx context.Context, sess models.Session, ref models.BookRef) error
	UpdateToMaxChapter(ctx context.Context, sess models.Session, ref models.BookRef) error
}

// Service holds the dependencies of the tracker.
type Service struct {
	backend Backend
}

// NewService creates a new tracker service.
func NewService(backend Backend) *Service {
	return &Service{backend: backend}
}

// List fetches the session user's reading list and marks the entries whose
// newest chapter has been read.
func (s *Service) List(ctx context.Context, sess models.Session) ([]models.TrackedBook, error) {
	if !sess.Authenticated() {
		return nil, ErrNoUser
	}
	list, err := s.backend.TrackingList(ctx, sess)
	if err != nil {
		return nil, fmt.Errorf("fetch tracking list: %w", err)
	}
	if list == nil {
		list = []models.TrackedBook{}
	}
	for i := range list {
		b := &list[i]
		b.CaughtUp = b.NewestChapter != "" && util.CompareChapters(b.LatestReadChapter, b.NewestChapter) >= 0
	}
	return list, nil
}

// Save adds or updates a reading list entry and returns the refreshed list.
func (s *Service) Save(ctx context.Context, sess models.Session, upd models.ReadingListUpdate) ([]models.TrackedBook, error) {
	if !sess.Authenticated() {
		return nil, ErrNoUser
	}
	if err := s.backend.UpdateReadingList(ctx, sess, upd); err != nil {
		return nil, fmt.Errorf("update reading list: %w", err)
	}
	log.WithField("title", upd.Title).Info("Reading list entry saved")
	return s.List(ctx, sess)
}

// Remove deletes a book from the reading list and returns the refreshed list.
func (s *Service) Remove(ctx context.Context, sess models.Session, ref models.BookRef) ([]models.TrackedBook, error) {
	if !sess.Authenticated() {
		return nil, ErrNoUser
	}
	if err := s.backend.DeleteFromReadingList(ctx, sess, ref); err != nil {
		return nil, fmt.Errorf("delete from reading list: %w", err)
	}
	log.WithField("title", ref.Title).Info("Reading list entry removed")
	return s.List(ctx, sess)
}

// CatchUp marks the newest chapter of a book as read and returns the
// refreshed list.
func (s *Service) CatchUp(ctx context.Context, sess models.Session, ref models.BookRef) ([]models.TrackedBook, error) {
	if !sess.Authenticated() {
		return nil, ErrNoUser
	}
	if err := s.backend.UpdateToMaxChapter(ctx, sess, ref); err != nil {
		return nil, fmt.Errorf("update to newest chapter: %w", err)
	}
	return s.List(ctx, sess)
}
