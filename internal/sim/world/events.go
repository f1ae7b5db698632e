package world

type EventType string

const (
	EventFoodSpawned      EventType = "FOOD_SPAWNED"
	EventFoodConsumed     EventType = "FOOD_CONSUMED"
	EventFoodExpired      EventType = "FOOD_EXPIRED"
	EventFishBorn         EventType = "FISH_BORN"
	EventFishDied         EventType = "FISH_DIED"
	EventEggsLaid         EventType = "EGGS_LAID"
	EventEggHatched       EventType = "EGG_HATCHED"
	EventEggFailed        EventType = "EGG_FAILED"
	EventFilterInstalled  EventType = "FILTER_INSTALLED"
	EventFilterMaintained EventType = "FILTER_MAINTAINED"
	EventPlayStarted      EventType = "PLAY_STARTED"
	EventPlayEnded        EventType = "PLAY_ENDED"
)

// Event is a timestamped notification for optional external consumers
// (telemetry, achievements). The queue being empty is normal.
type Event struct {
	SimTimeSec float64        `json:"sim_time_sec"`
	Type       EventType      `json:"type"`
	Data       map[string]any `json:"data,omitempty"`
}

func (w *World) Emit(t EventType, data map[string]any) {
	w.events = append(w.events, Event{SimTimeSec: w.simTimeSec, Type: t, Data: data})
}

// FlushEvents returns and clears the queued events.
func (w *World) FlushEvents() []Event {
	ev := w.events
	w.events = nil
	return ev
}
