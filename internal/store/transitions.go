package store

import "github.com/evamarketing/hand-rest-6/internal/models"

type Event string

const (
	EventConfirm  Event = "confirm"
	EventQuorum   Event = "quorum"
	EventAssign   Event = "assign"
	EventStart    Event = "start"
	EventComplete Event = "complete"
	EventFinalize Event = "finalize"
	EventCancel   Event = "cancel"
)

// transitionTable maps event -> source status -> target status. It is the
// only place booking status edges are defined.
var transitionTable = map[Event]map[string]string{
	EventConfirm: {
		models.StatusPending: models.StatusConfirmed,
	},
	EventQuorum: {
		models.StatusConfirmed: models.StatusAssigned,
	},
	EventAssign: {
		models.StatusConfirmed: models.StatusAssigned,
		models.StatusAssigned:  models.StatusAssigned,
	},
	EventStart: {
		models.StatusAssigned: models.StatusInProgress,
	},
	EventComplete: {
		models.StatusInProgress: models.StatusCompleted,
	},
	EventFinalize: {
		models.StatusCompleted: models.StatusCompleted,
	},
	EventCancel: {
		models.StatusPending:    models.StatusCancelled,
		models.StatusConfirmed:  models.StatusCancelled,
		models.StatusAssigned:   models.StatusCancelled,
		models.StatusInProgress: models.StatusCancelled,
	},
}

var statusOrder = map[string]int{
	models.StatusPending:    0,
	models.StatusConfirmed:  1,
	models.StatusAssigned:   2,
	models.StatusInProgress: 3,
	models.StatusCompleted:  4,
	models.StatusCancelled:  5,
}

func ValidTransition(event Event, fromStatus string) bool {
	_, ok := transitionTable[event][fromStatus]
	return ok
}

// NextStatus resolves the target status of event from fromStatus, or a
// conflict naming both when the edge does not exist.
func NextStatus(fromStatus string, event Event) (string, error) {
	to, ok := transitionTable[event][fromStatus]
	if !ok {
		return "", Conflict(string(event), "cannot %s a booking in status %q", event, fromStatus)
	}
	return to, nil
}

func IsTerminal(status string) bool {
	return status == models.StatusCompleted || status == models.StatusCancelled
}

func KnownStatus(status string) bool {
	_, ok := statusOrder[status]
	return ok
}
