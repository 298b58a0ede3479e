package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Property is a unit of the complex with its ownership coefficient.
// The coefficients of all properties of a tenant add up to a fixed total.
// Rows are maintained by the property registry; this service only reads them.
type Property struct {
	ID          uint            `json:"id" gorm:"primarykey"`
	TenantID    uint            `json:"tenant_id" gorm:"index:idx_property_owner,priority:1;not null"`
	OwnerUserID uint            `json:"owner_user_id" gorm:"index:idx_property_owner,priority:2;not null"`
	Unit        string          `json:"unit" gorm:"type:varchar(50);not null"`
	Coefficient decimal.Decimal `json:"coefficient" gorm:"type:decimal(12,8);not null"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}
