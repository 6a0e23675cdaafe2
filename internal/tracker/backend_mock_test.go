package tracker_test

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/vrsandeep/mango-tracker/internal/models"
)

// MockBackend is a mock implementation of the tracker.Backend interface
type MockBackend struct {
	mock.Mock
}

func (m *MockBackend) TrackingList(ctx context.Context, sess models.Session) ([]models.TrackedBook, error) {
	args := m.Called(ctx, sess)
	list, _ := args.Get(0).([]models.TrackedBook)
	return list, args.Error(1)
}

func (m *MockBackend) UpdateReadingList(ctx context.Context, sess models.Session, upd models.ReadingListUpdate) error {
	return m.Called(ctx, sess, upd).Error(0)
}

func (m *MockBackend) DeleteFromReadingList(ctx context.Context, sess models.Session, ref models.BookRef) error {
	return m.Called(ctx, sess, ref).Error(0)
}

func (m *MockBackend) UpdateToMaxChapter(ctx context.Context, sess models.Session, ref models.BookRef) error {
	return m.Called(ctx, sess, ref).Error(0)
}
