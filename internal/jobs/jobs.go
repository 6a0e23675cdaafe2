package jobs

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-co-op/gocron"
	log "github.com/sirupsen/logrus"
)

const GenreRefreshJobID = "genre-refresh"

// RegisterAll registers every job the application knows how to run.
func RegisterAll(jm *JobManager) {
	jm.Register(GenreRefreshJobID, "Refresh genre list", RunGenreRefresh)
}

// StartJobs starts the background job scheduler. The caller stops it.
func StartJobs(app JobContext) *gocron.Scheduler {
	s := gocron.NewScheduler(time.UTC)
	s.SingletonModeAll()

	startGenreRefreshJob(s, app)

	log.Println("Starting background job scheduler...")
	s.StartAsync()
	return s
}

func startGenreRefreshJob(s *gocron.Scheduler, app JobContext) {
	interval := app.Config().Genres.RefreshInterval
	if interval <= 0 {
		log.Println("Genre refresh interval is 0, scheduled refresh is disabled.")
		return
	}

	log.Printf("Scheduling job: '%s' to run every %d minutes.", GenreRefreshJobID, interval)

	_, err := s.Every(interval).Minutes().Do(func() {
		log.Println("Scheduler is triggering job:", GenreRefreshJobID)
		// Go through the manager so scheduled and manual runs never overlap.
		if err := app.JobManager().RunJob(GenreRefreshJobID, app); err != nil {
			log.Printf("Scheduled job '%s' could not start: %v", GenreRefreshJobID, err)
		}
	})
	if err != nil {
		log.Printf("Error scheduling '%s' job: %v", GenreRefreshJobID, err)
	}
}

// RunGenreRefresh pulls the genre list from the backend into the cache.
// Listeners registered on the genre service fan the new list out.
func RunGenreRefresh(app JobContext) error {
	svc := app.Genres()
	if svc == nil {
		return errors.New("genre service is not configured")
	}
	timeout := app.Config().Backend.RequestTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	list, err := svc.Refresh(ctx)
	if err != nil {
		return fmt.Errorf("refresh genres: %w", err)
	}
	log.Printf("Genre refresh fetched %d genres", len(list))
	return nil
}
