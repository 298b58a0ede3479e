package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// AssemblyType distinguishes ordinary from extraordinary meetings
type AssemblyType string

const (
	AssemblyOrdinary      AssemblyType = "ORDINARY"
	AssemblyExtraordinary AssemblyType = "EXTRAORDINARY"
)

// Valid reports whether t is a known assembly type
func (t AssemblyType) Valid() bool {
	return t == AssemblyOrdinary || t == AssemblyExtraordinary
}

// AssemblyStatus is the lifecycle status of an assembly
type AssemblyStatus string

const (
	AssemblyPlanned    AssemblyStatus = "PLANNED"
	AssemblyInProgress AssemblyStatus = "IN_PROGRESS"
	AssemblyCompleted  AssemblyStatus = "COMPLETED"
	AssemblyCancelled  AssemblyStatus = "CANCELLED"
)

// Terminal reports whether no further transition is allowed from s
func (s AssemblyStatus) Terminal() bool {
	return s == AssemblyCompleted || s == AssemblyCancelled
}

// CanTransitionTo reports whether the lifecycle allows moving from s to next.
// Status only advances: PLANNED -> IN_PROGRESS -> COMPLETED, and CANCELLED is
// reachable from either non-terminal state.
func (s AssemblyStatus) CanTransitionTo(next AssemblyStatus) bool {
	switch s {
	case AssemblyPlanned:
		return next == AssemblyInProgress || next == AssemblyCancelled
	case AssemblyInProgress:
		return next == AssemblyCompleted || next == AssemblyCancelled
	default:
		return false
	}
}

// Assembly is a governance meeting of one residential complex
type Assembly struct {
	ID             uint            `json:"id" gorm:"primarykey"`
	TenantID       uint            `json:"tenant_id" gorm:"index;not null;comment:'Tenant this assembly belongs to'"`
	Title          string          `json:"title" gorm:"type:varchar(255);not null"`
	ScheduledAt    time.Time       `json:"scheduled_at" gorm:"not null"`
	Location       string          `json:"location" gorm:"type:varchar(255)"`
	Type           AssemblyType    `json:"type" gorm:"type:varchar(20);not null"`
	Status         AssemblyStatus  `json:"status" gorm:"type:varchar(20);not null;index"`
	RequiredQuorum decimal.Decimal `json:"required_quorum" gorm:"type:decimal(5,2);not null"`
	CreatedBy      uint            `json:"created_by" gorm:"not null"`
	StartedAt      *time.Time      `json:"started_at,omitempty"`
	EndedAt        *time.Time      `json:"ended_at,omitempty"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
}
