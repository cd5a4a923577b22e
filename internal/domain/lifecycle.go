package domain

// LifecycleEvent is a request to move a reservation along its state machine.
type LifecycleEvent string

const (
	EventConfirm  LifecycleEvent = "confirm"
	EventCheckIn  LifecycleEvent = "check-in"
	EventComplete LifecycleEvent = "complete"
	EventCancel   LifecycleEvent = "cancel"
)

var AllLifecycleEvents = []LifecycleEvent{EventConfirm, EventCheckIn, EventComplete, EventCancel}
