package model

import "time"

// AttendanceRecord marks a user as present or absent at an assembly.
// There is exactly one row per (assembly, user); re-registering updates it.
type AttendanceRecord struct {
	ID           uint      `json:"id" gorm:"primarykey"`
	TenantID     uint      `json:"tenant_id" gorm:"index;not null"`
	AssemblyID   uint      `json:"assembly_id" gorm:"uniqueIndex:idx_attendance_user,priority:1;not null"`
	UserID       uint      `json:"user_id" gorm:"uniqueIndex:idx_attendance_user,priority:2;not null"`
	Present      bool      `json:"present" gorm:"not null"`
	RegisteredAt time.Time `json:"registered_at" gorm:"not null"`
	RegisteredBy uint      `json:"registered_by" gorm:"not null"`
}
