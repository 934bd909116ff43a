package app

import "github.com/designscozyroom-lab/missioncontrol/internal/policy"

// Policy is the configuration port used by the application.
// Implemented by internal/policy.Policy.
type Policy interface {
	StateFile() string
	SignalFilePath() string
	PresenceTTLSeconds() int
	ActivityLimit() int
	Roster() []policy.AgentConfig
}
