package store

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"assembly-service/internal/model"
)

// Store is the persistence layer of the governance engine. Every query goes
// through a TenantStore so rows of other tenants are never visible.
type Store struct {
	db *gorm.DB
}

// New wraps an opened gorm connection
func New(db *gorm.DB) *Store {
	return &Store{db: db}
}

// DB returns the underlying connection
func (s *Store) DB() *gorm.DB {
	return s.db
}

// Tenant returns a non-transactional view scoped to tenantID
func (s *Store) Tenant(ctx context.Context, tenantID uint) *TenantStore {
	return &TenantStore{db: s.db.WithContext(ctx), tenantID: tenantID}
}

// Transaction runs fn inside one database transaction scoped to tenantID.
// The transaction commits when fn returns nil and rolls back otherwise.
func (s *Store) Transaction(ctx context.Context, tenantID uint, fn func(tx *TenantStore) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&TenantStore{db: tx, tenantID: tenantID, inTx: true})
	})
}

// TenantStore exposes the queries of one tenant, optionally bound to a transaction
type TenantStore struct {
	db       *gorm.DB
	tenantID uint
	inTx     bool
}

// TenantID returns the tenant the store is scoped to
func (t *TenantStore) TenantID() uint {
	return t.tenantID
}

func (t *TenantStore) scoped() *gorm.DB {
	return t.db.Where("tenant_id = ?", t.tenantID)
}

// forUpdate adds a row lock when running inside a postgres transaction.
// sqlite has no row locks; it serializes writers on the whole database.
func (t *TenantStore) forUpdate() *gorm.DB {
	q := t.scoped()
	if t.inTx && t.db.Dialector.Name() == "postgres" {
		q = q.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	return q
}

// Assembly loads an assembly by id
func (t *TenantStore) Assembly(id uint) (*model.Assembly, error) {
	var a model.Assembly
	if err := t.scoped().First(&a, id).Error; err != nil {
		return nil, translate(err)
	}
	return &a, nil
}

// AssemblyForUpdate loads an assembly and locks its row until the transaction ends
func (t *TenantStore) AssemblyForUpdate(id uint) (*model.Assembly, error) {
	var a model.Assembly
	if err := t.forUpdate().First(&a, id).Error; err != nil {
		return nil, translate(err)
	}
	return &a, nil
}

// CreateAssembly inserts a new assembly
func (t *TenantStore) CreateAssembly(a *model.Assembly) error {
	a.TenantID = t.tenantID
	return translate(t.db.Create(a).Error)
}

// SaveAssembly persists every column of a
func (t *TenantStore) SaveAssembly(a *model.Assembly) error {
	if a.TenantID != t.tenantID {
		return ErrNotFound
	}
	return translate(t.db.Save(a).Error)
}

// AgendaItem loads an agenda item by id
func (t *TenantStore) AgendaItem(id uint) (*model.AgendaItem, error) {
	var item model.AgendaItem
	if err := t.scoped().First(&item, id).Error; err != nil {
		return nil, translate(err)
	}
	return &item, nil
}

// AgendaItemForUpdate loads an agenda item and locks its row until the transaction ends
func (t *TenantStore) AgendaItemForUpdate(id uint) (*model.AgendaItem, error) {
	var item model.AgendaItem
	if err := t.forUpdate().First(&item, id).Error; err != nil {
		return nil, translate(err)
	}
	return &item, nil
}

// ListAgendaItems returns the items of an assembly ordered by numeral
func (t *TenantStore) ListAgendaItems(assemblyID uint) ([]model.AgendaItem, error) {
	var items []model.AgendaItem
	err := t.scoped().
		Where("assembly_id = ?", assemblyID).
		Order("numeral ASC").
		Find(&items).Error
	return items, translate(err)
}

// OpenAgendaItem returns the OPEN item of an assembly other than excludeID,
// or ErrNotFound when there is none
func (t *TenantStore) OpenAgendaItem(assemblyID, excludeID uint) (*model.AgendaItem, error) {
	var item model.AgendaItem
	err := t.scoped().
		Where("assembly_id = ? AND status = ? AND id <> ?", assemblyID, model.AgendaOpen, excludeID).
		First(&item).Error
	if err != nil {
		return nil, translate(err)
	}
	return &item, nil
}

// NextNumeral returns the ordinal for a new agenda item of an assembly
func (t *TenantStore) NextNumeral(assemblyID uint) (int, error) {
	var last int64
	err := t.scoped().
		Model(&model.AgendaItem{}).
		Where("assembly_id = ?", assemblyID).
		Select("COALESCE(MAX(numeral), 0)").
		Row().
		Scan(&last)
	if err != nil {
		return 0, translate(err)
	}
	return int(last) + 1, nil
}

// CreateAgendaItem inserts a new agenda item
func (t *TenantStore) CreateAgendaItem(item *model.AgendaItem) error {
	item.TenantID = t.tenantID
	return translate(t.db.Create(item).Error)
}

// SaveAgendaItem persists every column of item
func (t *TenantStore) SaveAgendaItem(item *model.AgendaItem) error {
	if item.TenantID != t.tenantID {
		return ErrNotFound
	}
	return translate(t.db.Save(item).Error)
}

// UpsertAttendance inserts or updates the attendance row of (assembly, user).
// Repeated registrations overwrite the present flag instead of adding rows.
func (t *TenantStore) UpsertAttendance(rec *model.AttendanceRecord) error {
	rec.TenantID = t.tenantID
	err := t.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "assembly_id"}, {Name: "user_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"present", "registered_at", "registered_by"}),
	}).Create(rec).Error
	return translate(err)
}

// Attendance returns the attendance row of a user at an assembly
func (t *TenantStore) Attendance(assemblyID, userID uint) (*model.AttendanceRecord, error) {
	var rec model.AttendanceRecord
	err := t.scoped().
		Where("assembly_id = ? AND user_id = ?", assemblyID, userID).
		First(&rec).Error
	if err != nil {
		return nil, translate(err)
	}
	return &rec, nil
}

// ListAttendance returns every attendance row of an assembly
func (t *TenantStore) ListAttendance(assemblyID uint) ([]model.AttendanceRecord, error) {
	var recs []model.AttendanceRecord
	err := t.scoped().
		Where("assembly_id = ?", assemblyID).
		Order("user_id ASC").
		Find(&recs).Error
	return recs, translate(err)
}

// CountPresent returns how many users are marked present at an assembly
func (t *TenantStore) CountPresent(assemblyID uint) (int64, error) {
	var n int64
	err := t.scoped().
		Model(&model.AttendanceRecord{}).
		Where("assembly_id = ? AND present = ?", assemblyID, true).
		Count(&n).Error
	return n, translate(err)
}

// PresentCoefficients returns the coefficient of every property owned by a
// user marked present at the assembly
func (t *TenantStore) PresentCoefficients(assemblyID uint) ([]decimal.Decimal, error) {
	var coefficients []decimal.Decimal
	err := t.db.
		Model(&model.Property{}).
		Joins("JOIN attendance_records ON attendance_records.user_id = properties.owner_user_id AND attendance_records.tenant_id = properties.tenant_id").
		Where("properties.tenant_id = ? AND attendance_records.assembly_id = ? AND attendance_records.present = ?", t.tenantID, assemblyID, true).
		Pluck("properties.coefficient", &coefficients).Error
	return coefficients, translate(err)
}

// PropertyCoefficients returns the coefficient of every property of the tenant
func (t *TenantStore) PropertyCoefficients() ([]decimal.Decimal, error) {
	var coefficients []decimal.Decimal
	err := t.scoped().
		Model(&model.Property{}).
		Pluck("coefficient", &coefficients).Error
	return coefficients, translate(err)
}

// OwnerCoefficients returns the coefficient of every property owned by userID
func (t *TenantStore) OwnerCoefficients(userID uint) ([]decimal.Decimal, error) {
	var coefficients []decimal.Decimal
	err := t.scoped().
		Model(&model.Property{}).
		Where("owner_user_id = ?", userID).
		Pluck("coefficient", &coefficients).Error
	return coefficients, translate(err)
}

// CreateProperty inserts a property row
func (t *TenantStore) CreateProperty(p *model.Property) error {
	p.TenantID = t.tenantID
	return translate(t.db.Create(p).Error)
}

// HasVote reports whether userID already voted on the agenda item
func (t *TenantStore) HasVote(agendaItemID, userID uint) (bool, error) {
	var n int64
	err := t.scoped().
		Model(&model.Vote{}).
		Where("agenda_item_id = ? AND user_id = ?", agendaItemID, userID).
		Count(&n).Error
	return n > 0, translate(err)
}

// InsertVote inserts a ballot. A second ballot of the same user on the same
// item fails with ErrDuplicate from the unique index.
func (t *TenantStore) InsertVote(v *model.Vote) error {
	v.TenantID = t.tenantID
	return translate(t.db.Create(v).Error)
}

// Votes returns every ballot of an agenda item in cast order
func (t *TenantStore) Votes(agendaItemID uint) ([]model.Vote, error) {
	var votes []model.Vote
	err := t.scoped().
		Where("agenda_item_id = ?", agendaItemID).
		Order("id ASC").
		Find(&votes).Error
	return votes, translate(err)
}

// AppendAudit inserts an audit entry. Entries are never updated.
func (t *TenantStore) AppendAudit(entry *model.AuditEntry) error {
	entry.TenantID = t.tenantID
	if entry.Timestamp.IsZero() {
		entry.Timestamp = time.Now().UTC()
	}
	return translate(t.db.Create(entry).Error)
}

// AuditTrail returns the audit entries of an assembly in insertion order
func (t *TenantStore) AuditTrail(assemblyID uint) ([]model.AuditEntry, error) {
	var entries []model.AuditEntry
	err := t.scoped().
		Where("assembly_id = ?", assemblyID).
		Order("id ASC").
		Find(&entries).Error
	return entries, translate(err)
}

// IsNotFound reports whether err is a missing-row error
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsDuplicate reports whether err is a unique index conflict
func IsDuplicate(err error) bool {
	return errors.Is(err, ErrDuplicate)
}
