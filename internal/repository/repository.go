package repository

import (
	"fmt"
	"io"

	"github.com/designscozyroom-lab/missioncontrol/internal/app"
	"github.com/designscozyroom-lab/missioncontrol/internal/policy"
	"github.com/designscozyroom-lab/missioncontrol/internal/repository/postgres"
	"github.com/designscozyroom-lab/missioncontrol/internal/repository/sqlite"
)

// Repository is a StateRepository that holds a connection and must be closed on shutdown.
type Repository interface {
	app.StateRepository
	io.Closer
}

// NewStateRepository returns a StateRepository backed by SQLite at the given path.
// The path is typically from policy.StateFile() (default ~/.config/missioncontrol/state.sqlite).
func NewStateRepository(path string) (Repository, error) {
	repo, err := sqlite.New(path)
	if err != nil {
		return nil, err
	}
	return repo.(*sqlite.Store), nil
}

// Open picks the backend named by db. An empty or "sqlite" driver uses statePath.
func Open(db *policy.DatabaseConfig, statePath string) (Repository, error) {
	driver := "sqlite"
	if db != nil && db.Driver != "" {
		driver = db.Driver
	}
	switch driver {
	case "sqlite":
		return NewStateRepository(statePath)
	case "postgres", "postgresql":
		return postgres.Open(db.URL)
	default:
		return nil, fmt.Errorf("unknown database driver %q (want sqlite or postgres)", driver)
	}
}
