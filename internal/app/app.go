package app

import (
	"fmt"

	"spacebook/internal/store"
)

// Config holds runtime configuration for the core application.
type Config struct {
	DatabaseURL string
	Store       store.Store
}

// App wires the resource models to a shared storage handle. Each resource
// (users, rooms, reservations, donations) is accessed only through its own
// methods here.
type App struct {
	store store.Store
}

// New constructs the application with database storage. A pre-built Store
// (e.g. a MemoryStore in tests) takes precedence over DatabaseURL.
func New(cfg Config) (*App, error) {
	dataStore := cfg.Store
	if dataStore == nil {
		if cfg.DatabaseURL == "" {
			return nil, fmt.Errorf("database URL required")
		}
		var err error
		dataStore, err = store.NewGormStore(cfg.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("init postgres store: %w", err)
		}
	}
	return &App{store: dataStore}, nil
}
