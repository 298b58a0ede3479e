package model

import (
	"time"

	"gorm.io/datatypes"
)

// AuditEntry is an append-only record of a governance state change
type AuditEntry struct {
	ID            uint           `json:"id" gorm:"primarykey"`
	TenantID      uint           `json:"tenant_id" gorm:"index:idx_audit_assembly,priority:1;not null"`
	AssemblyID    uint           `json:"assembly_id" gorm:"index:idx_audit_assembly,priority:2;not null"`
	ActorUserID   uint           `json:"actor_user_id" gorm:"not null"`
	AgendaNumeral *int           `json:"agenda_numeral,omitempty"`
	Action        string         `json:"action" gorm:"type:varchar(50);not null"`
	Details       datatypes.JSON `json:"details"`
	Timestamp     time.Time      `json:"timestamp" gorm:"index:idx_audit_assembly,priority:3;not null"`
}

// Models lists every table owned by this service, in migration order
func Models() []interface{} {
	return []interface{}{
		&Assembly{},
		&Property{},
		&AttendanceRecord{},
		&AgendaItem{},
		&Vote{},
		&AuditEntry{},
	}
}
