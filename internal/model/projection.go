package model

// RosterEntry is the owner-visible view of a single member, including
// contact detail. Only OwnerProjection ever carries these.
type RosterEntry struct {
	UserID string  `json:"user_id"`
	Name   string  `json:"name"`
	Email  string  `json:"email"`
	Phone  *string `json:"phone,omitempty"`
	Avatar *string `json:"avatar,omitempty"`
	Amount int64   `json:"amount"`
}

// Projection is the externally visible view of an event and its ledger,
// recomputed fresh on every read. It is a sealed union: PublicProjection
// for everyone, OwnerProjection only when the viewer owns the event.
// Modeling the roster as a separate variant (rather than an optional
// field) keeps an empty roster from ever being serialized to non-owners.
type Projection interface {
	projection()
}

// PublicProjection carries the event attributes plus the derived
// aggregate: total committed amount and member count.
type PublicProjection struct {
	Event
	TotalCommitted int64 `json:"amount"`
	MemberCount    int   `json:"members_count"`
}

func (PublicProjection) projection() {}

// OwnerProjection extends PublicProjection with the full member roster.
type OwnerProjection struct {
	PublicProjection
	Roster []RosterEntry `json:"members"`
}

func (OwnerProjection) projection() {}
