package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Vote is an accepted ballot. The unique index on (agenda item, user) is the
// authoritative one-vote-per-owner guarantee. Coefficient is the voter's
// ownership share captured when the vote was cast.
type Vote struct {
	ID           uint            `json:"id" gorm:"primarykey"`
	TenantID     uint            `json:"tenant_id" gorm:"index;not null"`
	AgendaItemID uint            `json:"agenda_item_id" gorm:"uniqueIndex:idx_vote_unique,priority:1;not null"`
	UserID       uint            `json:"user_id" gorm:"uniqueIndex:idx_vote_unique,priority:2;not null"`
	Option       string          `json:"option" gorm:"type:varchar(100);not null"`
	Coefficient  decimal.Decimal `json:"coefficient" gorm:"type:decimal(12,8);not null"`
	CastAt       time.Time       `json:"cast_at" gorm:"not null"`
}
