// Package audit persists governance events as append-only audit entries
package audit

import (
	"context"
	"encoding/json"
	"fmt"

	"gorm.io/datatypes"

	"assembly-service/internal/event"
	"assembly-service/internal/model"
	"assembly-service/internal/store"
)

// GormRecorder writes every event it receives to the audit_entries table
type GormRecorder struct {
	store *store.Store
}

func NewGormRecorder(s *store.Store) *GormRecorder {
	return &GormRecorder{store: s}
}

// Record appends evt to the audit trail of its assembly
func (r *GormRecorder) Record(ctx context.Context, evt event.Event) error {
	details, err := json.Marshal(evt.Data)
	if err != nil {
		return fmt.Errorf("encode audit details: %w", err)
	}
	entry := &model.AuditEntry{
		AssemblyID:    evt.AssemblyID,
		ActorUserID:   evt.ActorUserID,
		AgendaNumeral: evt.AgendaNumeral,
		Action:        string(evt.Type),
		Details:       datatypes.JSON(details),
		Timestamp:     evt.Timestamp,
	}
	if err := r.store.Tenant(ctx, evt.TenantID).AppendAudit(entry); err != nil {
		return fmt.Errorf("append audit entry: %w", err)
	}
	return nil
}

// Trail returns the audit entries of an assembly in the order they were recorded
func (r *GormRecorder) Trail(ctx context.Context, tenantID, assemblyID uint) ([]model.AuditEntry, error) {
	return r.store.Tenant(ctx, tenantID).AuditTrail(assemblyID)
}
