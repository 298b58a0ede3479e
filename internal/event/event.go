// Package event defines the immutable record emitted by every governance
// state change. The same value feeds the audit trail and the realtime rooms.
package event

import "time"

type Type string

const (
	QuorumUpdate          Type = "quorumUpdate"
	AgendaItemCreated     Type = "agendaItemCreated"
	AgendaItemOpened      Type = "agendaItemOpened"
	VoteTallyUpdate       Type = "voteTallyUpdate"
	AgendaItemClosed      Type = "agendaItemClosed"
	AgendaItemCancelled   Type = "agendaItemCancelled"
	AssemblyStatusChanged Type = "assemblyStatusChanged"
	AttendanceRegistered  Type = "attendanceRegistered"
	VoteCast              Type = "voteCast"
)

// Broadcast reports whether events of this type are sent to room subscribers.
// Individual ballots and attendance marks are kept to the audit trail.
func (t Type) Broadcast() bool {
	switch t {
	case AttendanceRegistered, VoteCast:
		return false
	default:
		return true
	}
}

type Event struct {
	Type          Type      `json:"type"`
	TenantID      uint      `json:"tenant_id"`
	AssemblyID    uint      `json:"assembly_id"`
	ActorUserID   uint      `json:"actor_user_id"`
	AgendaNumeral *int      `json:"agenda_numeral,omitempty"`
	Sequence      uint64    `json:"sequence"`
	Timestamp     time.Time `json:"timestamp"`
	Data          any       `json:"data"`
}

func New(eventType Type, tenantID, assemblyID, actorUserID uint, data any) Event {
	return Event{
		Type:        eventType,
		TenantID:    tenantID,
		AssemblyID:  assemblyID,
		ActorUserID: actorUserID,
		Timestamp:   time.Now().UTC(),
		Data:        data,
	}
}

// WithNumeral returns a copy of e tagged with an agenda item numeral
func (e Event) WithNumeral(numeral int) Event {
	e.AgendaNumeral = &numeral
	return e
}
