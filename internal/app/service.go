package app

import (
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/designscozyroom-lab/missioncontrol/internal/domain"
)

// Triggerable is something that can be triggered after a state write
// (e.g. the delivery daemon or the SSE hub).
type Triggerable interface {
	Trigger()
}

// MissionService runs mission control use cases over persisted state.
type MissionService struct {
	repo     StateRepository
	policy   Policy
	logger   *log.Logger
	mu       sync.Mutex
	now      func() time.Time
	newID    func() string
	triggers []Triggerable
}

// ServiceOption configures a MissionService.
type ServiceOption func(*MissionService)

// WithClock overrides the time source (tests).
func WithClock(now func() time.Time) ServiceOption {
	return func(s *MissionService) { s.now = now }
}

// WithIDGenerator overrides record ID generation (tests).
func WithIDGenerator(gen func() string) ServiceOption {
	return func(s *MissionService) { s.newID = gen }
}

// NewMissionService returns a new MissionService.
func NewMissionService(repo StateRepository, policy Policy, logger *log.Logger, opts ...ServiceOption) *MissionService {
	s := &MissionService{
		repo:   repo,
		policy: policy,
		logger: logger,
		now:    time.Now,
		newID:  uuid.NewString,
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// AddTrigger attaches a Triggerable that is poked after every state write.
// Not safe to call concurrently with Run.
func (s *MissionService) AddTrigger(t Triggerable) {
	if t != nil {
		s.triggers = append(s.triggers, t)
	}
}

// Run loads state, runs fn, then saves. Caller must not retain state after fn returns.
// Writers in this process are serialized by the service mutex. When the repository
// is a StateUpdater the whole cycle runs in one database transaction, which also
// serializes writers in other processes. A returned error leaves persisted state untouched.
// On successful save, touches the notify signal file so other processes can react.
// If the database cannot be loaded, the error is returned immediately; writes never
// fall back to an empty state because Save would overwrite the database with nothing.
func (s *MissionService) Run(fn func(*domain.MissionState) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.write(fn); err != nil {
		return err
	}
	if err := TouchNotifySignal(s.policy.SignalFilePath()); err != nil {
		s.logger.Printf("Warning: touch signal file: %v", err)
	}
	for _, t := range s.triggers {
		t.Trigger()
	}
	return nil
}

func (s *MissionService) write(fn func(*domain.MissionState) error) error {
	if u, ok := s.repo.(StateUpdater); ok {
		var fnErr error
		err := u.Update(func(state *domain.MissionState) error {
			EnsureStateMaps(state)
			fnErr = fn(state)
			return fnErr
		})
		if fnErr != nil {
			return fnErr
		}
		if err != nil {
			return fmt.Errorf("state update: %w", err)
		}
		return nil
	}
	state, err := s.repo.Load()
	if err != nil {
		return fmt.Errorf("state load: %w", err)
	}
	EnsureStateMaps(state)
	if err := fn(state); err != nil {
		return err
	}
	if err := s.repo.Save(state); err != nil {
		return fmt.Errorf("state save: %w", err)
	}
	return nil
}

// Query loads state and runs fn without saving. Use for read-only views.
// If the database cannot be loaded, falls back to an empty state since no save will occur.
func (s *MissionService) Query(fn func(*domain.MissionState) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	state, err := s.repo.Load()
	if err != nil {
		s.logger.Printf("Warning: state load failed in Query: %v (using empty state)", err)
		state = domain.NewMissionState()
	}
	EnsureStateMaps(state)
	return fn(state)
}

// Policy returns the configuration port.
func (s *MissionService) Policy() Policy { return s.policy }

// Now returns the service clock's current time.
func (s *MissionService) Now() time.Time { return s.now() }

// outcome maps an operation error to a metrics label.
func outcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case IsValidation(err):
		return "invalid"
	default:
		return "error"
	}
}
