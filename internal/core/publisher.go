package core

// Publisher issues outbound device commands over the message broker.
// Publishing is fire-and-forget: a disconnected transport drops the command
// and callers must not assume delivery.
type Publisher interface {
	Publish(topic Topic, value string)
}
