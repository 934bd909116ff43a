package app

import (
	"slices"
	"sort"
	"time"

	"github.com/designscozyroom-lab/missioncontrol/internal/domain"
)

// Truncate truncates s to max runes (Unicode-safe) and marks the cut with "...".
func Truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max]) + "..."
}

// headRunes returns the first n runes of s with no marker.
func headRunes(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}

// EnsureStateMaps initializes nil maps/slices on state so handlers can append freely.
func EnsureStateMaps(state *domain.MissionState) {
	if state == nil {
		return
	}
	if state.Agents == nil {
		state.Agents = make(map[string]*domain.Agent)
	}
	if state.Tasks == nil {
		state.Tasks = []domain.Task{}
	}
	if state.Messages == nil {
		state.Messages = []domain.Message{}
	}
	if state.Documents == nil {
		state.Documents = []domain.Document{}
	}
	if state.Notifications == nil {
		state.Notifications = []domain.Notification{}
	}
	if state.Subscriptions == nil {
		state.Subscriptions = []domain.Subscription{}
	}
	if state.Activities == nil {
		state.Activities = []domain.Activity{}
	}
	if state.Standups == nil {
		state.Standups = []domain.Standup{}
	}
}

// nonNil returns s, or an empty slice when s is nil.
func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

// limitSlice keeps the first n elements; n <= 0 keeps all.
func limitSlice[T any](items []T, n int) []T {
	if n > 0 && len(items) > n {
		return items[:n]
	}
	return items
}

// newestFirst sorts items by created time descending. Items created at the same
// instant come out in reverse insertion order.
func newestFirst[T any](items []T, created func(T) time.Time) {
	slices.Reverse(items)
	sort.SliceStable(items, func(i, j int) bool {
		return created(items[i]).After(created(items[j]))
	})
}
