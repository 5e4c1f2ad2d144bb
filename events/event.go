package events

// Event identifies a kind of protocol event delivered over the IPC
// channel. Values are used as registry keys only; the payload travels
// separately as EventData.
type Event int

const (
	Ready Event = iota
	Error
	ActivityJoin
	ActivityJoinRequest
	ActivitySpectate
	SpeakingStart
	SpeakingStop
	CurrentUserUpdate
	VoiceSettingsUpdate
	NotificationCreate
)

var eventNames = map[Event]string{
	Ready:               "READY",
	Error:               "ERROR",
	ActivityJoin:        "ACTIVITY_JOIN",
	ActivityJoinRequest: "ACTIVITY_JOIN_REQUEST",
	ActivitySpectate:    "ACTIVITY_SPECTATE",
	SpeakingStart:       "SPEAKING_START",
	SpeakingStop:        "SPEAKING_STOP",
	CurrentUserUpdate:   "CURRENT_USER_UPDATE",
	VoiceSettingsUpdate: "VOICE_SETTINGS_UPDATE",
	NotificationCreate:  "NOTIFICATION_CREATE",
}

var eventsByName = func() map[string]Event {
	m := make(map[string]Event, len(eventNames))
	for e, name := range eventNames {
		m[name] = e
	}
	return m
}()

// String returns the wire name of the event, e.g. "ACTIVITY_JOIN".
func (e Event) String() string {
	if name, ok := eventNames[e]; ok {
		return name
	}
	return "UNKNOWN"
}

// EventFromName maps a wire event name to its Event value.
func EventFromName(name string) (Event, bool) {
	e, ok := eventsByName[name]
	return e, ok
}
