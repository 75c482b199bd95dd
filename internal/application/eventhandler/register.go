package eventhandler

import (
	"github.com/michi-haensler/EcoTrack/internal/domain/shared"
)

// Register wires the propagation handlers onto the bus. Both activity
// handlers subscribe to the same event type; the bus isolates them, so the
// profile still updates when challenge tracking fails and vice versa.
func Register(
	bus shared.EventSubscriber,
	activityLogged *OnActivityLoggedHandler,
	challengeProgress *OnChallengeProgressHandler,
	goalReached *OnGoalReachedHandler,
) error {
	if err := bus.Subscribe(shared.EventActivityLogged, activityLogged.Handle); err != nil {
		return err
	}
	if err := bus.Subscribe(shared.EventActivityLogged, challengeProgress.Handle); err != nil {
		return err
	}
	return bus.Subscribe(shared.EventChallengeGoalReached, goalReached.Handle)
}
