package core

import "fmt"

// Topic is a broker topic carrying one observed or controlled device state.
// The string values are the wire contract of existing broker deployments.
type Topic string

const (
	TopicPresence   Topic = "house/presence"
	TopicDoorBell   Topic = "house/doorbell"
	TopicDoor       Topic = "house/door"
	TopicDoorOpener Topic = "house/doorOpener"
)

// Topics returns every topic the bridge subscribes to.
func Topics() []Topic {
	return []Topic{TopicPresence, TopicDoorBell, TopicDoor, TopicDoorOpener}
}

// Presence values on house/presence.
const (
	PresenceNone    = "null"
	PresencePersonA = "person1"
	PresencePersonB = "person2"
	PresenceBoth    = "person1, person2"
)

// Doorbell values on house/doorbell.
const (
	DoorBellActive   = "active"
	DoorBellInactive = "inactive"
)

// Door values on house/door.
const (
	DoorOpen   = "open"
	DoorClosed = "closed"
)

// Door opener values on house/doorOpener.
const (
	DoorOpenerOff = "0"
	DoorOpenerOn  = "1"
)

var validValues = map[Topic][]string{
	TopicPresence:   {PresenceNone, PresencePersonA, PresencePersonB, PresenceBoth},
	TopicDoorBell:   {DoorBellActive, DoorBellInactive},
	TopicDoor:       {DoorOpen, DoorClosed},
	TopicDoorOpener: {DoorOpenerOff, DoorOpenerOn},
}

// ValidateValue checks raw against the fixed enumeration for the topic.
func ValidateValue(topic Topic, raw string) error {
	values, ok := validValues[topic]
	if !ok {
		return coreError(ErrCodeUnknownTopic, fmt.Sprintf("unknown topic %q", topic))
	}
	for _, v := range values {
		if raw == v {
			return nil
		}
	}
	return coreError(ErrCodeInvalidValue, fmt.Sprintf("invalid value %q for topic %q", raw, topic))
}
