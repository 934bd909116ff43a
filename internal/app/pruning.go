package app

import (
	"time"

	"github.com/designscozyroom-lab/missioncontrol/internal/domain"
	"github.com/designscozyroom-lab/missioncontrol/internal/policy"
)

// PruneDeliveredNotifications drops delivered notifications created before cutoff.
// Undelivered notifications are never pruned. Returns the number removed.
func PruneDeliveredNotifications(state *domain.MissionState, cutoff time.Time) int {
	if state == nil || len(state.Notifications) == 0 {
		return 0
	}
	kept := make([]domain.Notification, 0, len(state.Notifications))
	for _, n := range state.Notifications {
		if prunable(n, cutoff) {
			continue
		}
		kept = append(kept, n)
	}
	pruned := len(state.Notifications) - len(kept)
	state.Notifications = kept
	return pruned
}

func prunable(n domain.Notification, cutoff time.Time) bool {
	return n.Delivered && n.CreatedAt.Before(cutoff)
}

// Prune removes delivered notifications older than the retention window and returns
// how many went. The activity log is append-only and is never pruned.
// Nothing is written when there is nothing to remove.
func (s *MissionService) Prune(rules policy.RetentionConfig) (int, error) {
	if rules.DeliveredNotificationDays <= 0 {
		return 0, nil
	}
	cutoff := s.now().AddDate(0, 0, -rules.DeliveredNotificationDays)
	pending := 0
	_ = s.Query(func(state *domain.MissionState) error {
		for _, n := range state.Notifications {
			if prunable(n, cutoff) {
				pending++
			}
		}
		return nil
	})
	if pending == 0 {
		return 0, nil
	}
	var pruned int
	err := s.Run(func(state *domain.MissionState) error {
		pruned = PruneDeliveredNotifications(state, cutoff)
		return nil
	})
	if err != nil {
		return 0, err
	}
	return pruned, nil
}
