package core

import (
	"github.com/rs/zerolog"

	"github.com/openintercom/intercomd/internal/report"
)

// StateStore holds the last known value of each observed device state. It is
// mutated only from inside the dispatcher loop, so no locking is needed.
type StateStore struct {
	d      *Dispatcher
	log    *zerolog.Logger
	values map[Topic]string
}

// NewStateStore builds an empty store publishing changes to the dispatcher.
func NewStateStore(d *Dispatcher, logger *zerolog.Logger) *StateStore {
	return &StateStore{
		d:      d,
		log:    logger,
		values: make(map[Topic]string),
	}
}

// Register subscribes the store to inbound broker messages.
func (s *StateStore) Register() {
	s.d.Subscribe(EventBrokerMessage, func(ev Event) {
		if _, err := s.Set(ev.Topic, ev.Payload); err != nil {
			s.log.Warn().Err(err).Str("topic", string(ev.Topic)).Str("payload", ev.Payload).Msg("dropped broker message")
		}
	})
}

// Change describes the outcome of a Set.
type Change struct {
	Topic   Topic
	Old     string
	New     string
	Changed bool
}

// Set validates raw and stores it. An invalid value leaves the last known
// good value in place. A changed value is fanned out as EventStateChanged;
// redelivery of an equal value is a no-op to the rest of the system.
func (s *StateStore) Set(topic Topic, raw string) (Change, error) {
	if err := ValidateValue(topic, raw); err != nil {
		return Change{Topic: topic}, err
	}

	old, seen := s.values[topic]
	if seen && old == raw {
		return Change{Topic: topic, Old: old, New: raw}, nil
	}

	s.values[topic] = raw
	change := Change{Topic: topic, Old: old, New: raw, Changed: true}

	s.log.Debug().Str("topic", string(topic)).Str("old", old).Str("new", raw).Msg("state changed")
	s.d.Publish(Event{Kind: EventStateChanged, Topic: topic, Old: old, New: raw})

	return change, nil
}

// Get returns the last known value, or ok=false before first observation.
func (s *StateStore) Get(topic Topic) (string, bool) {
	v, ok := s.values[topic]
	return v, ok
}

// Snapshot captures the current presence, doorbell and door values for
// visitor reports. Unobserved states report as empty strings.
func (s *StateStore) Snapshot() report.StateSnapshot {
	return report.StateSnapshot{
		Presence: s.values[TopicPresence],
		DoorBell: s.values[TopicDoorBell],
		Door:     s.values[TopicDoor],
	}
}
