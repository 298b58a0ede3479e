package model

import (
	"time"

	"gorm.io/datatypes"
)

// AgendaStatus is the voting status of an agenda item
type AgendaStatus string

const (
	AgendaPending   AgendaStatus = "PENDING"
	AgendaOpen      AgendaStatus = "OPEN"
	AgendaClosed    AgendaStatus = "CLOSED"
	AgendaCancelled AgendaStatus = "CANCELLED"
)

// CanTransitionTo reports whether a voting session may move from s to next:
// PENDING -> OPEN -> CLOSED, and CANCELLED from PENDING or OPEN.
func (s AgendaStatus) CanTransitionTo(next AgendaStatus) bool {
	switch s {
	case AgendaPending:
		return next == AgendaOpen || next == AgendaCancelled
	case AgendaOpen:
		return next == AgendaClosed || next == AgendaCancelled
	default:
		return false
	}
}

// AgendaItem is a single voting question of an assembly.
// At most one item per assembly is OPEN; the partial unique index backs
// the check done when an item is opened.
type AgendaItem struct {
	ID              uint                        `json:"id" gorm:"primarykey"`
	TenantID        uint                        `json:"tenant_id" gorm:"index;not null"`
	AssemblyID      uint                        `json:"assembly_id" gorm:"uniqueIndex:idx_agenda_numeral,priority:1;uniqueIndex:idx_agenda_one_open,where:status = 'OPEN';not null"`
	Numeral         int                         `json:"numeral" gorm:"uniqueIndex:idx_agenda_numeral,priority:2;not null"`
	Question        string                      `json:"question" gorm:"type:text;not null"`
	Options         datatypes.JSONSlice[string] `json:"options" gorm:"not null"`
	IsWeighted      bool                        `json:"is_weighted" gorm:"not null"`
	Status          AgendaStatus                `json:"status" gorm:"type:varchar(20);not null;index"`
	VotingStartTime *time.Time                  `json:"voting_start_time,omitempty"`
	VotingEndTime   *time.Time                  `json:"voting_end_time,omitempty"`
	CreatedBy       uint                        `json:"created_by" gorm:"not null"`
	CreatedAt       time.Time                   `json:"created_at"`
	UpdatedAt       time.Time                   `json:"updated_at"`
}

// HasOption reports whether option belongs to the item's option set
func (a *AgendaItem) HasOption(option string) bool {
	for _, o := range a.Options {
		if o == option {
			return true
		}
	}
	return false
}
