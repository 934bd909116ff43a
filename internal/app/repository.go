// Package app implements mission control use cases and defines ports (repository interfaces).
package app

import (
	"github.com/designscozyroom-lab/missioncontrol/internal/domain"
)

// StateRepository loads and saves the full mission state.
// Implementations: internal/repository/sqlite, internal/repository/postgres.
// Save must persist the whole state atomically.
type StateRepository interface {
	Load() (*domain.MissionState, error)
	Save(*domain.MissionState) error
}

// StateUpdater is implemented by repositories that can run load, modify and save
// inside one transaction holding the database write lock. MissionService.Run
// prefers it so writers in other processes cannot interleave between Load and
// Save. An error from fn aborts the transaction and is returned unchanged.
type StateUpdater interface {
	Update(fn func(*domain.MissionState) error) error
}
