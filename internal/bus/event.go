package bus

import "time"

// Event kind namespaces, one per domain category. Subscribers filter by
// prefix: "message." receives message.received, message.changed, and so on.
const (
	NSConnection = "connection."
	NSMessage    = "message."
	NSChannel    = "channel."
	NSFile       = "file."
	NSPin        = "pin."
	NSStar       = "star."
	NSReaction   = "reaction."
	NSPresence   = "presence."
	NSTeam       = "team."
	NSSubteam    = "subteam."
	NSProfile    = "profile."
	NSDnD        = "dnd."
	NSTyping     = "typing."
)

// Event represents a domain event published on the bus.
type Event struct {
	ID        string
	Kind      string
	Timestamp time.Time
	Payload   any
}
