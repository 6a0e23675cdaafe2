package core

import (
	"database/sql"
	"fmt"
	"sync"

	log "github.com/sirupsen/logrus"

	"github.com/vrsandeep/mango-tracker/internal/assets"
	"github.com/vrsandeep/mango-tracker/internal/browse"
	"github.com/vrsandeep/mango-tracker/internal/catalog"
	"github.com/vrsandeep/mango-tracker/internal/config"
	"github.com/vrsandeep/mango-tracker/internal/db"
	"github.com/vrsandeep/mango-tracker/internal/genres"
	"github.com/vrsandeep/mango-tracker/internal/jobs"
	"github.com/vrsandeep/mango-tracker/internal/store"
	"github.com/vrsandeep/mango-tracker/internal/tracker"
	"github.com/vrsandeep/mango-tracker/internal/websocket"
)

// App holds the core components of the application that are shared
// between the server and the CLI.
type App struct {
	Version string

	mu         sync.RWMutex
	config     *config.Config
	db         *sql.DB
	catalog    *catalog.Client
	genres     *genres.Service
	tracker    *tracker.Service
	wsHub      *websocket.Hub
	jobManager *jobs.JobManager
}

// New loads config.yml and sets up a new App from it.
func New() (*App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	config.SetupLogging(cfg)
	return NewWithConfig(cfg)
}

// NewWithConfig initializes the database, runs migrations and builds the
// backend client and the services on top of it.
func NewWithConfig(cfg *config.Config) (*App, error) {
	database, err := db.InitDB(cfg.Database.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	if err := db.RunMigrations(database, assets.MigrationsFS); err != nil {
		// We can't proceed without a valid database schema.
		database.Close()
		return nil, fmt.Errorf("failed to run database migrations: %w", err)
	}

	client := catalog.NewFromConfig(cfg)
	app := &App{
		config:  cfg,
		db:      database,
		catalog: client,
		genres:  genres.NewService(client, store.New(database), cfg.Genres.CacheTTL),
		tracker: tracker.NewService(client),
		wsHub:   websocket.NewHub(),
	}
	app.jobManager = jobs.NewManager(app)
	jobs.RegisterAll(app.jobManager)

	app.genres.OnRefresh(func(list []string) {
		app.wsHub.Broadcast("genres", list)
	})

	log.Println("Core application setup complete.")
	return app, nil
}

func (a *App) Config() *config.Config {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.config
}

// SetConfig swaps in a reloaded configuration. Browse sessions opened after
// the swap use the new browse settings; backend connection settings need a
// restart.
func (a *App) SetConfig(cfg *config.Config) {
	a.mu.Lock()
	a.config = cfg
	a.mu.Unlock()
	config.SetupLogging(cfg)
}

// BrowseOptions returns the session options for a new browse view.
func (a *App) BrowseOptions() browse.Options {
	return browse.OptionsFromConfig(a.Config())
}

func (a *App) DB() *sql.DB                  { return a.db }
func (a *App) Catalog() *catalog.Client     { return a.catalog }
func (a *App) Genres() *genres.Service      { return a.genres }
func (a *App) Tracker() *tracker.Service    { return a.tracker }
func (a *App) WsHub() *websocket.Hub        { return a.wsHub }
func (a *App) JobManager() *jobs.JobManager { return a.jobManager }

// Close gracefully closes the application's resources.
func (a *App) Close() {
	if a.wsHub != nil {
		a.wsHub.Close()
	}
	if a.db != nil {
		a.db.Close()
	}
}
